package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hpungsan/snapper/internal/capture"
	"github.com/hpungsan/snapper/internal/config"
	"github.com/hpungsan/snapper/internal/db"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	Dir        string // optional; default: the configured artifact directory
	LedgerOnly bool   // keep the files, drop only the ledger rows
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Dir          string `json:"dir"`
	FilesRemoved int    `json:"files_removed"`
	RowsRemoved  int    `json:"rows_removed"`
	Message      string `json:"message"`
}

// Purge removes the files in an artifact directory and their ledger rows.
func Purge(ctx context.Context, database *sql.DB, cfg *config.Config, input PurgeInput) (*PurgeOutput, error) {
	dir := strings.TrimSpace(input.Dir)
	if dir == "" {
		dir = cfg.Dir
	}
	dir = ArtifactDir(dir)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files := 0
	if !input.LedgerOnly {
		var err error
		files, err = capture.Dir{Path: dir}.PurgeFiles()
		if err != nil {
			return nil, err
		}
	}

	rows, err := db.DeleteByDir(database, dir)
	if err != nil {
		return nil, err
	}

	return &PurgeOutput{
		Dir:          dir,
		FilesRemoved: files,
		RowsRemoved:  rows,
		Message:      formatPurgeMessage(files, rows, dir),
	}, nil
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(files, rows int, dir string) string {
	if files == 0 && rows == 0 {
		return fmt.Sprintf("Nothing to purge in %s", dir)
	}
	return fmt.Sprintf("Removed %s and %s from %s",
		plural(files, "file", "files"), plural(rows, "ledger entry", "ledger entries"), dir)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

package ops

import (
	"database/sql"
	"io"
	"os"
	"strings"

	"github.com/hpungsan/snapper/internal/artifact"
	"github.com/hpungsan/snapper/internal/db"
	"github.com/hpungsan/snapper/internal/errors"
)

// MaxFetchContentBytes caps the content returned by Fetch.
const MaxFetchContentBytes = 1 << 20

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string
	IncludeContent bool // read the content file from disk
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	artifact.Artifact // embedded (copy, not pointer)

	Content   string `json:"content,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`

	// Missing lists artifact files that no longer exist on disk.
	Missing []string `json:"missing,omitempty"`
}

// Fetch retrieves a ledger entry by id.
func Fetch(database *sql.DB, input FetchInput) (*FetchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	a, err := db.GetByID(database, id)
	if err != nil {
		return nil, err
	}

	output := &FetchOutput{Artifact: *a}
	for _, path := range a.Files() {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			output.Missing = append(output.Missing, path)
		}
	}

	if input.IncludeContent {
		content, truncated, err := readContent(a.ContentPath)
		if err != nil {
			return nil, err
		}
		output.Content = content
		output.Truncated = truncated
	}

	return output, nil
}

func readContent(path string) (string, bool, error) {
	f, err := openFileNoFollowRead(path)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFetchContentBytes+1))
	if err != nil {
		return "", false, errors.NewInternal(err)
	}
	if len(data) > MaxFetchContentBytes {
		return string(data[:MaxFetchContentBytes]), true, nil
	}
	return string(data), false, nil
}

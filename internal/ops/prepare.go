package ops

import (
	"database/sql"
	"log"

	"github.com/hpungsan/snapper/internal/capture"
	"github.com/hpungsan/snapper/internal/config"
	"github.com/hpungsan/snapper/internal/db"
)

// PrepareDir applies the purge policy at the start of a session. The directory
// is cleared at most once per process no matter how often this is called.
func PrepareDir(database *sql.DB, cfg *config.Config) (bool, error) {
	if !cfg.Purge {
		return false, nil
	}

	dir := ArtifactDir(cfg.Dir)
	purged, _, err := capture.PurgeOnce(capture.Dir{Path: dir})
	if err != nil || !purged {
		return false, err
	}

	if database != nil {
		rows, err := db.DeleteByDir(database, dir)
		if err != nil {
			return true, err
		}
		if rows > 0 {
			log.Printf("ops: dropped %d ledger entries for %s", rows, dir)
		}
	}
	return true, nil
}

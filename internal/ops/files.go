package ops

import (
	"database/sql"
	"os"
	"strings"

	"github.com/hpungsan/snapper/internal/artifact"
	"github.com/hpungsan/snapper/internal/db"
	"github.com/hpungsan/snapper/internal/errors"
)

// Artifact file kinds accepted by OpenFile.
const (
	FileContent = "content"
	FileImage   = "image"
)

// OpenFile opens one file of the artifact with the given id for reading.
// The caller closes the returned file.
func OpenFile(database *sql.DB, id, kind string) (*os.File, *artifact.Artifact, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, errors.NewInvalidRequest("id is required")
	}

	a, err := db.GetByID(database, id)
	if err != nil {
		return nil, nil, err
	}

	var path string
	switch kind {
	case FileContent:
		path = a.ContentPath
	case FileImage:
		if a.ImagePath == nil {
			return nil, nil, errors.NewFileNotFound(a.Base + ".png")
		}
		path = *a.ImagePath
	default:
		return nil, nil, errors.NewInvalidRequest(`file kind must be "content" or "image"`)
	}

	f, err := openFileNoFollowRead(path)
	if err != nil {
		return nil, nil, err
	}
	return f, a, nil
}

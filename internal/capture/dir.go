package capture

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hpungsan/snapper/internal/errors"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

// Dir is the directory artifacts are written to.
type Dir struct {
	Path string
}

// Write stores data as name inside the directory, creating the directory first.
// It returns the written path.
func (d Dir) Write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(d.Path, dirPerm); err != nil {
		return "", errors.NewWriteFailed(d.Path, err)
	}
	path := filepath.Join(d.Path, name)
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return "", errors.NewWriteFailed(path, err)
	}
	return path, nil
}

// PurgeFiles removes every regular file below the directory and keeps the
// directories themselves. A missing directory is not an error.
func (d Dir) PurgeFiles() (int, error) {
	if _, err := os.Stat(d.Path); os.IsNotExist(err) {
		return 0, nil
	}

	removed := 0
	err := filepath.WalkDir(d.Path, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, errors.NewWriteFailed(d.Path, err)
	}
	return removed, nil
}

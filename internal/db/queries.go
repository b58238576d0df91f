package db

import (
	"database/sql"
	"strings"

	"github.com/hpungsan/snapper/internal/artifact"
	"github.com/hpungsan/snapper/internal/errors"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.SnapError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

const artifactColumns = `
	id, run_id, base, dir, content_path, image_path, url,
	feature_file, step_text, step_line, failure, fullscreen, algorithm,
	content_bytes, image_bytes, created_at
`

// ListFilter narrows List and ListAll.
type ListFilter struct {
	RunID      string // exact match
	Feature    string // compared against the normalized feature file
	FailedOnly bool
	Dir        string // exact match
}

// Insert stores a new artifact in the database.
func Insert(db *sql.DB, a *artifact.Artifact) error {
	var featureNorm sql.NullString
	if a.FeatureFile != nil {
		featureNorm = sql.NullString{String: artifact.Normalize(a.Feature()), Valid: true}
	}

	query := `
		INSERT INTO artifacts (
			id, run_id, base, dir, content_path, image_path, url,
			feature_file, feature_norm, step_text, step_line, failure, fullscreen, algorithm,
			content_bytes, image_bytes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		a.ID, a.RunID, a.Base, a.Dir, a.ContentPath, toNullString(a.ImagePath), toNullString(a.URL),
		toNullString(a.FeatureFile), featureNorm, toNullString(a.StepText), a.StepLine,
		a.Failure, a.Fullscreen, toNullString(a.Algorithm),
		a.ContentBytes, a.ImageBytes, a.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves an artifact by its ULID.
func GetByID(db *sql.DB, id string) (*artifact.Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM artifacts WHERE id = ?`

	a, err := scanArtifact(db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return a, nil
}

// List returns a page of artifacts matching filter, newest first, and the total
// number of matches.
func List(db *sql.DB, filter ListFilter, limit, offset int) ([]artifact.Artifact, int, error) {
	where, args := filter.where()

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM artifacts`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + artifactColumns + ` FROM artifacts` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	items, err := queryArtifacts(db, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll returns every artifact matching filter in capture order.
func ListAll(db *sql.DB, filter ListFilter) ([]artifact.Artifact, error) {
	where, args := filter.where()
	query := `SELECT ` + artifactColumns + ` FROM artifacts` + where + ` ORDER BY created_at ASC, id ASC`
	return queryArtifacts(db, query, args...)
}

// DeleteByDir removes the rows of every artifact written to dir and returns
// how many were removed.
func DeleteByDir(db *sql.DB, dir string) (int, error) {
	result, err := db.Exec(`DELETE FROM artifacts WHERE dir = ?`, dir)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

func (f ListFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.RunID != "" {
		conds = append(conds, "run_id = ?")
		args = append(args, f.RunID)
	}
	if feature := artifact.Normalize(artifact.FeatureName(f.Feature)); feature != "" {
		conds = append(conds, "feature_norm = ?")
		args = append(args, feature)
	}
	if f.FailedOnly {
		conds = append(conds, "failure = 1")
	}
	if f.Dir != "" {
		conds = append(conds, "dir = ?")
		args = append(args, f.Dir)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func queryArtifacts(db *sql.DB, query string, args ...any) ([]artifact.Artifact, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var items []artifact.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanArtifact scans a single row into an Artifact struct.
func scanArtifact(row scanner) (*artifact.Artifact, error) {
	var (
		a           artifact.Artifact
		imagePath   sql.NullString
		url         sql.NullString
		featureFile sql.NullString
		stepText    sql.NullString
		algorithm   sql.NullString
	)

	err := row.Scan(
		&a.ID, &a.RunID, &a.Base, &a.Dir, &a.ContentPath, &imagePath, &url,
		&featureFile, &stepText, &a.StepLine, &a.Failure, &a.Fullscreen, &algorithm,
		&a.ContentBytes, &a.ImageBytes, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.ImagePath = fromNullString(imagePath)
	a.URL = fromNullString(url)
	a.FeatureFile = fromNullString(featureFile)
	a.StepText = fromNullString(stepText)
	a.Algorithm = fromNullString(algorithm)

	return &a, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

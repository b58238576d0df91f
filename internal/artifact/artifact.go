// Package artifact defines the ledger record of a written capture.
package artifact

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Artifact is one capture: a content file and, when the driver supported it,
// a screenshot sharing the same base name.
type Artifact struct {
	// ID is a ULID that uniquely identifies this artifact
	ID string `json:"id"`

	// RunID groups the artifacts written by one process
	RunID string `json:"run_id"`

	// Base is the file name shared by the content and image files, without extension
	Base string `json:"base"`

	// Dir is the artifact directory the files were written to
	Dir string `json:"dir"`

	ContentPath string  `json:"content_path"`
	ImagePath   *string `json:"image_path,omitempty"`

	// URL is the page URL at capture time, when the driver reported one
	URL *string `json:"url,omitempty"`

	FeatureFile *string `json:"feature_file,omitempty"`
	StepText    *string `json:"step_text,omitempty"`
	StepLine    int     `json:"step_line,omitempty"`

	// Failure marks captures taken for a failed step
	Failure bool `json:"failure"`

	Fullscreen bool    `json:"fullscreen"`
	Algorithm  *string `json:"algorithm,omitempty"`

	ContentBytes int64 `json:"content_bytes"`
	ImageBytes   int64 `json:"image_bytes"`

	// CreatedAt is the Unix timestamp of the capture
	CreatedAt int64 `json:"created_at"`
}

// Files returns the paths of every file the artifact owns.
func (a *Artifact) Files() []string {
	files := []string{a.ContentPath}
	if a.ImagePath != nil {
		files = append(files, *a.ImagePath)
	}
	return files
}

// Feature returns the feature file name without directory and extension.
func (a *Artifact) Feature() string {
	if a.FeatureFile == nil {
		return ""
	}
	return FeatureName(*a.FeatureFile)
}

// FeatureName strips the directory and extension from a feature file path.
func FeatureName(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize trims, lowercases, and collapses whitespace. Feature filters compare
// normalized values.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/snapper/internal/errors"
)

// ValidateReportPath checks a report output path before it is written. It checks:
// 1. Path traversal (.. sequences)
// 2. Extension (.html required)
// 3. The file must be directly in the artifact directory (no subdirectories)
// 4. Symlink safety (neither the directory nor the file may be a symlink)
//
// Keeping the report next to the artifacts lets it link to them with bare file
// names, and the "no subdirectories" rule leaves no intermediate component to
// swap between validation and open. Combined with O_NOFOLLOW on the final
// component this rejects symlinked targets.
func ValidateReportPath(path, artifactDir string) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}

	// Reject paths containing ".." (traversal attempt)
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ".html" {
		return errors.NewInvalidRequest("path must have .html extension")
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	absDir, err := filepath.Abs(filepath.Clean(artifactDir))
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid artifact directory: %v", err))
	}

	parentDir := filepath.Dir(absPath)
	if parentDir != absDir {
		return errors.NewInvalidRequest(
			fmt.Sprintf("report must be written directly in the artifact directory %s", absDir))
	}

	if info, err := os.Lstat(parentDir); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("artifact directory must not be a symlink")
	}
	if info, err := os.Lstat(absPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}

	return nil
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	// Check each path component
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// Also check for forward slashes on all platforms (e.g., user input)
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}

// SanitizeForFilename sanitizes a string for safe use in a filename.
// Removes/replaces characters that could be used for path traversal or injection.
func SanitizeForFilename(s string) string {
	// Replace path separators with dashes
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")

	// Replace ".." sequences (could be embedded)
	s = strings.ReplaceAll(s, "..", "-")

	// Remove null bytes and other control characters
	var result strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			result.WriteRune(r)
		}
	}
	s = result.String()

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")

	if s == "" {
		s = "unnamed"
	}
	return s
}

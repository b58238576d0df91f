package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/snapper/internal/errors"
)

func TestValidateReportPath_TraversalRejected(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../report.html"},
		{"deep traversal", "../../etc/report.html"},
		{"mid-path traversal", dir + "/../report.html"},
		{"hidden in path", dir + "/safe/../../../etc/shadow.html"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateReportPath(tc.path, dir)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidateReportPath_ExtensionRequired(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"report", "report.htm", "report.md"} {
		t.Run(name, func(t *testing.T) {
			err := ValidateReportPath(filepath.Join(dir, name), dir)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidateReportPath_DirectoryRestriction(t *testing.T) {
	dir := t.TempDir()

	if err := ValidateReportPath(filepath.Join(dir, "index.html"), dir); err != nil {
		t.Errorf("file directly in the artifact directory should pass: %v", err)
	}
	if err := ValidateReportPath(filepath.Join(dir, "nested", "index.html"), dir); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("nested path: expected ErrInvalidRequest, got: %v", err)
	}
	if err := ValidateReportPath(filepath.Join(t.TempDir(), "index.html"), dir); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("other directory: expected ErrInvalidRequest, got: %v", err)
	}
	if err := ValidateReportPath("", dir); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty path: expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidateReportPath_SymlinkFileRejected(t *testing.T) {
	dir := t.TempDir()

	target := filepath.Join(t.TempDir(), "elsewhere.html")
	if err := os.WriteFile(target, []byte("x"), 0600); err != nil {
		t.Fatalf("failed to create target file: %v", err)
	}
	link := filepath.Join(dir, "index.html")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	if err := ValidateReportPath(link, dir); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidateReportPath_SymlinkDirRejected(t *testing.T) {
	real := t.TempDir()
	link := filepath.Join(t.TempDir(), "shots")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	if err := ValidateReportPath(filepath.Join(link, "index.html"), link); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path     string
		contains bool
	}{
		{"/home/user/file.txt", false},
		{"../file.txt", true},
		{"/home/../etc/passwd", true},
		{"./file.txt", false},
		{"/home/user/.hidden/file.txt", false},
		{"file..name.txt", false}, // .. not as path component
		{"/tmp/a/b/../c.html", true},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			result := containsTraversal(tc.path)
			if result != tc.contains {
				t.Errorf("containsTraversal(%q) = %v, want %v", tc.path, result, tc.contains)
			}
		})
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "nightly", "nightly"},
		{"forward slash", "ci/build/42", "ci-build-42"},
		{"backslash", "ci\\build", "ci-build"},
		{"double dots", "foo..bar", "foo-bar"},
		{"traversal attempt", "../../../etc/passwd", "etc-passwd"},
		{"control chars", "foo\x00\x01bar", "foobar"},
		{"empty after sanitize", "../../..", "unnamed"},
		{"leading dashes trimmed", "---foo", "foo"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := SanitizeForFilename(tc.input)
			if result != tc.expected {
				t.Errorf("SanitizeForFilename(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

// Package filename builds artifact file names from configured patterns.
package filename

import (
	"net/url"
	"strings"
	"time"

	"github.com/hpungsan/snapper/internal/token"
)

// ExtSuffix is appended to any pattern that does not already end with it.
const ExtSuffix = ".{ext}"

// Builder selects a pattern and resolves it into a file name.
type Builder struct {
	Pattern     string // used for regular captures
	FailPattern string // used when the capture is for a failed step
	FailPrefix  string

	// TokenHost, when set, replaces the host of the current URL before the url
	// tokens see it, so names stay stable across environments.
	TokenHost string
}

// Fields is the capture-time data a name is built from. One Fields value is
// shared by every artifact of a capture so their names share a base.
type Fields struct {
	FeatureFile string
	StepText    string
	StepLine    int
	URL         string
	HasURL      bool
	Timestamp   time.Time
}

// Build returns the file name for an artifact with extension ext.
func (b *Builder) Build(ext, custom string, isFailure bool, f Fields) (string, error) {
	return token.Replace(b.SelectPattern(custom, isFailure), b.Context(ext, f))
}

// SelectPattern returns the pattern Build would resolve, with the extension
// suffix appended when missing.
func (b *Builder) SelectPattern(custom string, isFailure bool) string {
	var pattern string
	switch {
	case isFailure:
		pattern = b.FailPattern
	case custom != "":
		pattern = custom
	default:
		pattern = b.Pattern
	}
	if !strings.HasSuffix(pattern, ExtSuffix) {
		pattern += ExtSuffix
	}
	return pattern
}

// Context returns the token context for an artifact with extension ext.
func (b *Builder) Context(ext string, f Fields) token.Context {
	ctx := token.Context{
		token.KeyExt:        ext,
		token.KeyFailPrefix: b.FailPrefix,
	}
	if f.FeatureFile != "" {
		ctx[token.KeyFeatureFile] = f.FeatureFile
	}
	if f.StepText != "" {
		ctx[token.KeyStepName] = f.StepText
	}
	if f.StepLine > 0 {
		ctx[token.KeyStepLine] = f.StepLine
	}
	if !f.Timestamp.IsZero() {
		ctx[token.KeyTimestamp] = f.Timestamp.Unix()
	}
	if f.HasURL {
		ctx[token.KeyURL] = RewriteHost(f.URL, b.TokenHost)
	}
	return ctx
}

// RewriteHost substitutes the host component of raw with host. The raw string is
// otherwise left untouched; unparsable URLs are returned as-is so the url token
// can report them.
func RewriteHost(raw, host string) string {
	if host == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	start := strings.Index(raw, "//")
	if start < 0 {
		return raw
	}
	start += 2
	end := len(raw)
	if i := strings.IndexAny(raw[start:], "/?#"); i >= 0 {
		end = start + i
	}
	// Userinfo may contain the host text too; only the part after "@" is the host.
	if at := strings.LastIndex(raw[start:end], "@"); at >= 0 {
		start += at + 1
	}
	return raw[:start] + host + raw[end:]
}

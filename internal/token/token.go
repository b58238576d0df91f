// Package token turns filename patterns such as
// "{datetime:U}.{feature_file}.feature_{step_line}.{ext}" into concrete names.
//
// A token is a "{name[_qualifier][:format]}" span. Names are a closed set; a token
// with an unknown name is passed through verbatim.
package token

import (
	"regexp"
	"strings"
)

// Context keys understood by the resolver.
const (
	KeyExt         = "ext"
	KeyStepName    = "step_name"
	KeyStepLine    = "step_line"
	KeyFeatureFile = "feature_file"
	KeyURL         = "url"
	KeyTimestamp   = "timestamp"
	KeyFailPrefix  = "fail_prefix"
)

// Context is the per-call bag of values tokens are resolved against.
type Context map[string]any

// Kind identifies which resolver handles a token.
type Kind int

const (
	KindUnknown Kind = iota
	KindFeature
	KindExt
	KindStep
	KindDatetime
	KindURL
	KindFail
)

// kindsByName maps token names to kinds. "failed" is the newer spelling of the
// failure prefix token ({failed_prefix}); both resolve the same way.
var kindsByName = map[string]Kind{
	"feature":  KindFeature,
	"ext":      KindExt,
	"step":     KindStep,
	"datetime": KindDatetime,
	"url":      KindURL,
	"fail":     KindFail,
	"failed":   KindFail,
}

// String returns the canonical token name for the kind.
func (k Kind) String() string {
	switch k {
	case KindFeature:
		return "feature"
	case KindExt:
		return "ext"
	case KindStep:
		return "step"
	case KindDatetime:
		return "datetime"
	case KindURL:
		return "url"
	case KindFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Token is one parsed "{...}" span of a pattern.
type Token struct {
	Raw       string // the full "{...}" span, exactly as it appears in the pattern
	Body      string // text between the braces
	Name      string
	Qualifier string
	Format    string
	Kind      Kind
}

// IsStepText reports whether the token resolves to the step's text. Step text may
// itself look like a token, so these are substituted last.
func (t Token) IsStepText() bool {
	return t.Kind == KindStep && t.Qualifier != "line"
}

var tokenPattern = regexp.MustCompile(`\{(.*?)\}`)

// Scan returns the tokens of pattern in order of first appearance.
// Braces do not nest: the first "}" closes the token.
func Scan(pattern string) []Token {
	matches := tokenPattern.FindAllStringSubmatch(pattern, -1)
	tokens := make([]Token, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if seen[m[0]] {
			continue
		}
		seen[m[0]] = true
		tokens = append(tokens, Parse(m[0], m[1]))
	}
	return tokens
}

// Parse splits a token body into name, qualifier and format.
// "step_line:%03d" → name "step", qualifier "line", format "%03d".
func Parse(raw, body string) Token {
	t := Token{Raw: raw, Body: body}

	nameQualifier := body
	if before, after, ok := strings.Cut(body, ":"); ok {
		nameQualifier = before
		t.Format = after
	}

	t.Name, t.Qualifier, _ = strings.Cut(nameQualifier, "_")
	t.Kind = kindsByName[t.Name]
	return t
}

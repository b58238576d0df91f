package token

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/hpungsan/snapper/internal/errors"
)

// DefaultDatetimeFormat is used by {datetime} when no format is given.
const DefaultDatetimeFormat = "Ymd_His"

// DefaultExt is used by {ext} when the context has no extension.
const DefaultExt = "html"

var unsafeURLChars = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// Replace resolves every token in pattern against ctx and substitutes the results.
//
// All replacements are computed before any substitution happens. Step text tokens
// are substituted last so that text which resembles a token cannot disturb the
// other replacements.
func Replace(pattern string, ctx Context) (string, error) {
	tokens := Scan(pattern)
	if len(tokens) == 0 {
		return pattern, nil
	}

	type replacement struct {
		raw, value string
	}
	ordered := make([]replacement, 0, len(tokens))
	var last []replacement
	for _, tok := range tokens {
		value, err := Resolve(tok, ctx)
		if err != nil {
			return "", err
		}
		r := replacement{raw: tok.Raw, value: value}
		if tok.IsStepText() {
			last = append(last, r)
			continue
		}
		ordered = append(ordered, r)
	}
	ordered = append(ordered, last...)

	result := pattern
	for _, r := range ordered {
		result = strings.ReplaceAll(result, r.raw, r.value)
	}
	return result, nil
}

// Resolve returns the replacement for a single token. Tokens whose data is
// missing from ctx resolve to their own Raw text.
func Resolve(tok Token, ctx Context) (string, error) {
	switch tok.Kind {
	case KindFeature:
		return resolveFeature(tok, ctx), nil
	case KindExt:
		return resolveExt(ctx), nil
	case KindStep:
		return resolveStep(tok, ctx), nil
	case KindDatetime:
		return resolveDatetime(tok, ctx)
	case KindURL:
		return resolveURL(tok, ctx)
	case KindFail:
		return resolveFail(tok, ctx), nil
	default:
		return tok.Raw, nil
	}
}

func resolveFeature(tok Token, ctx Context) string {
	file, ok := stringValue(ctx, KeyFeatureFile)
	if !ok {
		return tok.Raw
	}
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func resolveExt(ctx Context) string {
	if ext, ok := stringValue(ctx, KeyExt); ok {
		return ext
	}
	return DefaultExt
}

func resolveStep(tok Token, ctx Context) string {
	switch tok.Qualifier {
	case "line":
		raw, ok := ctx[KeyStepLine]
		if !ok || raw == nil {
			return tok.Raw
		}
		line, err := cast.ToIntE(raw)
		if err != nil {
			return cast.ToString(raw)
		}
		if tok.Format != "" {
			return formatLine(tok.Format, line)
		}
		return strconv.Itoa(line)
	default:
		name, ok := stringValue(ctx, KeyStepName)
		if !ok {
			return tok.Raw
		}
		return strings.NewReplacer(" ", "_", `"`, "").Replace(name)
	}
}

// formatLine applies a printf-style format to a line number. Formats written for
// strings ("%s") get the decimal text of the line.
func formatLine(format string, line int) string {
	out := fmt.Sprintf(format, line)
	if strings.Contains(out, "%!") {
		out = fmt.Sprintf(format, strconv.Itoa(line))
	}
	return out
}

func resolveDatetime(tok Token, ctx Context) (string, error) {
	raw, ok := ctx[KeyTimestamp]
	if !ok || raw == nil {
		return tok.Raw, nil
	}
	if s, isString := raw.(string); isString && strings.TrimSpace(s) == "" {
		return tok.Raw, nil
	}

	ts, err := cast.ToInt64E(raw)
	if err != nil || ts <= 0 {
		return "", errors.NewInvalidTimestamp(raw)
	}

	format := tok.Format
	if format == "" {
		format = DefaultDatetimeFormat
	}
	return FormatDate(time.Unix(ts, 0).UTC(), format), nil
}

func resolveURL(tok Token, ctx Context) (string, error) {
	raw, ok := stringValue(ctx, KeyURL)
	if !ok {
		return tok.Raw, nil
	}

	u, err := ParseURL(raw)
	if err != nil {
		return "", err
	}

	var value string
	switch tok.Qualifier {
	case "origin":
		value = fmt.Sprintf("%s://%s", u.Scheme, u.Hostname())
	case "relative":
		value = strings.Trim(u.Path, "/")
		if u.RawQuery != "" {
			value += "?" + u.RawQuery
		}
		if u.Fragment != "" {
			value += "#" + u.Fragment
		}
	case "domain":
		value = u.Hostname()
	case "path":
		value = strings.Trim(u.Path, "/")
	case "query":
		value = u.RawQuery
	case "fragment":
		value = u.Fragment
	default:
		value = raw
	}

	return sanitizeURLPart(value), nil
}

// ParseURL parses raw the way the url token needs it. A URL with an authority
// section but no host ("http:///example.com") is rejected.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.NewInvalidURL(raw, err)
	}
	if u.Scheme != "" && u.Opaque == "" && u.Host == "" {
		return nil, errors.NewInvalidURL(raw, fmt.Errorf("missing host"))
	}
	return u, nil
}

func sanitizeURLPart(s string) string {
	if s == "" {
		return s
	}
	return unsafeURLChars.ReplaceAllString(s, "_")
}

func resolveFail(tok Token, ctx Context) string {
	if prefix, ok := stringValue(ctx, KeyFailPrefix); ok {
		return prefix
	}
	return tok.Raw
}

// stringValue returns a non-empty string for key.
func stringValue(ctx Context, key string) (string, bool) {
	raw, ok := ctx[key]
	if !ok || raw == nil {
		return "", false
	}
	s, err := cast.ToStringE(raw)
	if err != nil || s == "" {
		return "", false
	}
	return s, true
}

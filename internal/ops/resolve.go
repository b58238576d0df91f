package ops

import (
	"strings"
	"time"

	"github.com/hpungsan/snapper/internal/config"
	"github.com/hpungsan/snapper/internal/errors"
	"github.com/hpungsan/snapper/internal/filename"
	"github.com/hpungsan/snapper/internal/token"
)

// ResolveInput contains parameters for the Resolve operation.
type ResolveInput struct {
	Pattern string // optional custom pattern; default: the configured pattern
	Ext     string // default: "html"
	Failure bool

	FeatureFile string
	StepText    string
	StepLine    int
	URL         string
	Timestamp   int64 // Unix seconds; default: now
}

// TokenValue is the resolution of one token of the pattern.
type TokenValue struct {
	Raw      string `json:"raw"`
	Kind     string `json:"kind"`
	Value    string `json:"value"`
	Resolved bool   `json:"resolved"`
}

// ResolveOutput contains the result of the Resolve operation.
type ResolveOutput struct {
	Filename string       `json:"filename"`
	Pattern  string       `json:"pattern"`
	Tokens   []TokenValue `json:"tokens"`
}

// Resolve previews the file name a capture would be written under.
func Resolve(cfg *config.Config, input ResolveInput) (*ResolveOutput, error) {
	if input.StepLine < 0 {
		return nil, errors.NewInvalidRequest("step_line must not be negative")
	}
	if input.Timestamp < 0 {
		return nil, errors.NewInvalidTimestamp(input.Timestamp)
	}

	ts := time.Now()
	if input.Timestamp > 0 {
		ts = time.Unix(input.Timestamp, 0)
	}
	ext := strings.TrimSpace(input.Ext)
	if ext == "" {
		ext = token.DefaultExt
	}
	url := strings.TrimSpace(input.URL)

	builder := NewBuilder(cfg)
	fields := filename.Fields{
		FeatureFile: input.FeatureFile,
		StepText:    input.StepText,
		StepLine:    input.StepLine,
		URL:         url,
		HasURL:      url != "",
		Timestamp:   ts,
	}

	name, err := builder.Build(ext, input.Pattern, input.Failure, fields)
	if err != nil {
		return nil, err
	}

	pattern := builder.SelectPattern(input.Pattern, input.Failure)
	tctx := builder.Context(ext, fields)
	tokens := token.Scan(pattern)
	values := make([]TokenValue, 0, len(tokens))
	for _, tok := range tokens {
		// Build has already surfaced any resolution error.
		v, _ := token.Resolve(tok, tctx)
		values = append(values, TokenValue{
			Raw:      tok.Raw,
			Kind:     tok.Kind.String(),
			Value:    v,
			Resolved: v != tok.Raw,
		})
	}

	return &ResolveOutput{Filename: name, Pattern: pattern, Tokens: values}, nil
}

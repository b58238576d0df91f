package capture

import (
	"strings"
	"time"

	"github.com/hpungsan/snapper/internal/token"
)

// Info types that can be prepended to the content artifact.
const (
	InfoURL      = "url"
	InfoFeature  = "feature"
	InfoStep     = "step"
	InfoDatetime = "datetime"
)

// InfoTypes lists every supported info type.
var InfoTypes = []string{InfoURL, InfoFeature, InfoStep, InfoDatetime}

const (
	urlNotAvailable = "not available"
	infoTimeFormat  = "Y-m-d H:i:s"
)

type infoLine struct {
	label, value string
}

// Info is an ordered list of "Label: Value" lines.
type Info struct {
	lines []infoLine
}

// Append adds a line.
func (i *Info) Append(label, value string) {
	i.lines = append(i.lines, infoLine{label: label, value: value})
}

// Render joins the lines with newlines.
func (i *Info) Render() string {
	parts := make([]string, len(i.lines))
	for n, l := range i.lines {
		parts[n] = l.label + ": " + l.value
	}
	return strings.Join(parts, "\n")
}

func compileInfo(types []string, url string, hasURL bool, scope Scope, ts time.Time) *Info {
	info := &Info{}
	for _, t := range types {
		switch t {
		case InfoURL:
			if hasURL {
				info.Append("Current URL", url)
			} else {
				info.Append("Current URL", urlNotAvailable)
			}
		case InfoFeature:
			info.Append("Feature", scope.FeatureTitle)
		case InfoStep:
			info.Append("Step", scope.StepText)
		case InfoDatetime:
			info.Append("Datetime", token.FormatDate(ts.UTC(), infoTimeFormat))
		}
	}
	return info
}

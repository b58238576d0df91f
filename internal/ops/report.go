package ops

import (
	"bytes"
	"database/sql"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/snapper/internal/artifact"
	"github.com/hpungsan/snapper/internal/config"
	"github.com/hpungsan/snapper/internal/db"
	"github.com/hpungsan/snapper/internal/errors"
)

// DefaultReportName is the report file written when no path is given.
const DefaultReportName = "index.html"

// ReportInput contains parameters for the Report operation.
type ReportInput struct {
	RunID      string // optional filter
	FailedOnly bool
	Path       string // optional; default: <dir>/index.html, or <dir>/report-<run>.html with RunID
}

// ReportOutput contains the result of the Report operation.
type ReportOutput struct {
	Path      string `json:"path"`
	Artifacts int    `json:"artifacts"`
	Failures  int    `json:"failures"`
}

var reportMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table))

var reportPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
img { max-width: 100%; border: 1px solid #ccc; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ddd; padding: 0.25rem 0.5rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Report renders a summary of the ledger entries of the artifact directory to
// an HTML file next to the artifacts.
func Report(database *sql.DB, cfg *config.Config, input ReportInput) (*ReportOutput, error) {
	dir := ArtifactDir(cfg.Dir)
	runID := strings.TrimSpace(input.RunID)

	path := strings.TrimSpace(input.Path)
	if path == "" {
		name := DefaultReportName
		if runID != "" {
			name = "report-" + SanitizeForFilename(runID) + ".html"
		}
		path = filepath.Join(dir, name)
	}
	if err := ValidateReportPath(path, dir); err != nil {
		return nil, err
	}

	items, err := db.ListAll(database, db.ListFilter{RunID: runID, FailedOnly: input.FailedOnly, Dir: dir})
	if err != nil {
		return nil, err
	}

	md := buildReportMarkdown(items, runID, time.Now())
	var body bytes.Buffer
	if err := reportMarkdown.Convert([]byte(md), &body); err != nil {
		return nil, errors.NewInternal(err)
	}

	var page bytes.Buffer
	err = reportPage.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{Title: "Screenshot report", Body: template.HTML(body.String())})
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewWriteFailed(dir, err)
	}
	f, err := openFileNoFollow(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewWriteFailed(path, err)
	}
	if _, err := f.Write(page.Bytes()); err != nil {
		f.Close()
		return nil, errors.NewWriteFailed(path, err)
	}
	if err := f.Close(); err != nil {
		return nil, errors.NewWriteFailed(path, err)
	}

	failures := 0
	for _, a := range items {
		if a.Failure {
			failures++
		}
	}
	return &ReportOutput{Path: path, Artifacts: len(items), Failures: failures}, nil
}

// buildReportMarkdown groups artifacts by feature in capture order.
func buildReportMarkdown(items []artifact.Artifact, runID string, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Screenshot report\n\n")
	if runID != "" {
		fmt.Fprintf(&b, "Run `%s`. ", runID)
	}
	fmt.Fprintf(&b, "Generated %s UTC.\n\n", now.UTC().Format("2006-01-02 15:04:05"))

	if len(items) == 0 {
		b.WriteString("No captures recorded.\n")
		return b.String()
	}

	failures := 0
	for _, a := range items {
		if a.Failure {
			failures++
		}
	}
	fmt.Fprintf(&b, "| Captures | Failures |\n|---|---|\n| %d | %d |\n\n", len(items), failures)

	var (
		order  []string
		groups = map[string][]artifact.Artifact{}
	)
	for _, a := range items {
		feature := a.Feature()
		if feature == "" {
			feature = "(no feature)"
		}
		if _, ok := groups[feature]; !ok {
			order = append(order, feature)
		}
		groups[feature] = append(groups[feature], a)
	}

	for _, feature := range order {
		fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(feature))
		for _, a := range groups[feature] {
			writeReportEntry(&b, a)
		}
	}
	return b.String()
}

func writeReportEntry(b *strings.Builder, a artifact.Artifact) {
	title := a.Base
	if a.StepText != nil {
		title = *a.StepText
	}
	status := ""
	if a.Failure {
		status = " **FAILED**"
	}
	fmt.Fprintf(b, "### %s%s\n\n", escapeMarkdown(title), status)

	if a.StepLine > 0 {
		fmt.Fprintf(b, "- Line: %d\n", a.StepLine)
	}
	if a.URL != nil {
		fmt.Fprintf(b, "- URL: `%s`\n", strings.ReplaceAll(*a.URL, "`", ""))
	}
	fmt.Fprintf(b, "- Captured: %s UTC\n", time.Unix(a.CreatedAt, 0).UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(b, "- Content: [%s](%s)\n\n", escapeMarkdown(filepath.Base(a.ContentPath)), linkTarget(a.ContentPath))
	if a.ImagePath != nil {
		fmt.Fprintf(b, "![%s](%s)\n\n", escapeMarkdown(a.Base), linkTarget(*a.ImagePath))
	}
}

// linkTarget links artifacts by bare file name; the report sits in their directory.
func linkTarget(path string) string {
	return "<" + strings.NewReplacer("<", "%3C", ">", "%3E").Replace(filepath.Base(path)) + ">"
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "#", `\#`, "|", `\|`, "!", `\!`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

package web

import (
	"database/sql"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/snapper/internal/config"
	"github.com/hpungsan/snapper/internal/errors"
	"github.com/hpungsan/snapper/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /captures: list recorded captures.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := ops.ListInput{
		RunID:      q.Get("run_id"),
		Feature:    q.Get("feature"),
		FailedOnly: parseBoolParam(r, "failed"),
		Limit:      parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:     parseIntParam(r, "offset", 0),
	}

	result, err := ops.List(h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	title, nav := "Captures", "captures"
	if input.FailedOnly {
		title, nav = "Failures", "failures"
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   title,
			Version: h.renderer.version,
			Nav:     nav,
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		RunID:      input.RunID,
		Feature:    input.Feature,
		FailedOnly: input.FailedOnly,
		Dir:        ops.ArtifactDir(h.cfg.Dir),
		Notice:     q.Get("notice"),
	})
}

// HandleDetail handles GET /captures/{id}: view a single capture.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("capture ID is required"))
		return
	}

	capture, err := ops.Fetch(h.db, ops.FetchInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   capture.Base,
			Version: h.renderer.version,
			Nav:     "captures",
		},
		Capture:      capture,
		SummaryHTML:  renderMarkdown(summaryMarkdown(capture)),
		DisplayName:  displayName(capture.StepText, capture.Base),
		ContentLabel: contentLabel(capture.ContentPath),
	})
}

// HandleFile handles GET /files/{id}/{kind}: serve a capture's content or image file.
// Captured pages are served sandboxed so their scripts never run on this origin.
func (h *Handlers) HandleFile(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	f, a, err := ops.OpenFile(h.db, r.PathValue("id"), kind)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}

	if kind == ops.FileContent {
		w.Header().Set("Content-Security-Policy", "sandbox; default-src 'none'; img-src 'self' data:; style-src 'unsafe-inline'")
	}
	http.ServeContent(w, r, info.Name(), time.Unix(a.CreatedAt, 0), f)
}

// HandlePurge handles POST /captures/purge: remove the artifact directory's files and ledger rows.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	input := ops.PurgeInput{LedgerOnly: r.FormValue("ledger_only") == "true"}
	result, err := ops.Purge(r.Context(), h.db, h.cfg, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: return HTML fragment
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="purge-result">` + template.HTMLEscapeString(result.Message) + `</div>`))
		return
	}

	// JSON request
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/captures?notice="+url.QueryEscape(result.Message), http.StatusFound)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// displayName returns the step text if present, or the artifact base name.
func displayName(step *string, base string) string {
	if step != nil && strings.TrimSpace(*step) != "" {
		s := []rune(strings.TrimSpace(*step))
		if len(s) > 80 {
			return string(s[:77]) + "..."
		}
		return string(s)
	}
	return base
}

// contentLabel returns the file name shown for a content link.
func contentLabel(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

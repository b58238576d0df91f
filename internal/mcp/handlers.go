package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/snapper/internal/config"
	"github.com/hpungsan/snapper/internal/errors"
	"github.com/hpungsan/snapper/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	session *session
}

// NewHandlers creates a new Handlers instance. The browser is launched on the
// first capture.
func NewHandlers(db *sql.DB, cfg *config.Config, launch Launcher) *Handlers {
	return &Handlers{
		db:      db,
		cfg:     cfg,
		session: &session{db: db, cfg: cfg, launch: launch},
	}
}

// Close shuts down the browser if a capture started one.
func (h *Handlers) Close() {
	h.session.close()
}

// Request types for each tool

// CaptureRequest represents the arguments for screenshot_capture.
type CaptureRequest struct {
	URL          string `json:"url,omitempty"`
	Filename     string `json:"filename,omitempty"`
	Failure      bool   `json:"failure,omitempty"`
	Fullscreen   bool   `json:"fullscreen,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	FeatureFile  string `json:"feature_file,omitempty"`
	FeatureTitle string `json:"feature_title,omitempty"`
	StepText     string `json:"step_text,omitempty"`
	StepLine     int    `json:"step_line,omitempty"`
	RunID        string `json:"run_id,omitempty"`
}

// ResolveRequest represents the arguments for screenshot_resolve_name.
type ResolveRequest struct {
	Pattern     string `json:"pattern,omitempty"`
	Ext         string `json:"ext,omitempty"`
	Failure     bool   `json:"failure,omitempty"`
	FeatureFile string `json:"feature_file,omitempty"`
	StepText    string `json:"step_text,omitempty"`
	StepLine    int    `json:"step_line,omitempty"`
	URL         string `json:"url,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`
}

// ListRequest represents the arguments for screenshot_list.
type ListRequest struct {
	RunID      string `json:"run_id,omitempty"`
	Feature    string `json:"feature,omitempty"`
	FailedOnly bool   `json:"failed_only,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// FetchRequest represents the arguments for screenshot_fetch.
type FetchRequest struct {
	ID             string `json:"id"`
	IncludeContent bool   `json:"include_content,omitempty"`
}

// PurgeRequest represents the arguments for screenshot_purge.
type PurgeRequest struct {
	Dir        string `json:"dir,omitempty"`
	LedgerOnly bool   `json:"ledger_only,omitempty"`
}

// ReportRequest represents the arguments for screenshot_report.
type ReportRequest struct {
	RunID      string `json:"run_id,omitempty"`
	FailedOnly bool   `json:"failed_only,omitempty"`
	Path       string `json:"path,omitempty"`
}

// Handler implementations

// HandleCapture handles the screenshot_capture tool call.
func (h *Handlers) HandleCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	b, capturer, err := h.session.acquire(ctx)
	if err != nil {
		return errorResult(cancelled("screenshot_capture", err)), nil
	}
	defer h.session.release()

	result, err := ops.Capture(ctx, h.db, h.cfg, b, capturer, ops.CaptureInput{
		URL:          input.URL,
		Filename:     input.Filename,
		Failure:      input.Failure,
		Fullscreen:   input.Fullscreen,
		Width:        input.Width,
		Height:       input.Height,
		FeatureFile:  input.FeatureFile,
		FeatureTitle: input.FeatureTitle,
		StepText:     input.StepText,
		StepLine:     input.StepLine,
		RunID:        input.RunID,
	})
	if err != nil {
		return errorResult(cancelled("screenshot_capture", err)), nil
	}

	return successResult(result)
}

// HandleResolve handles the screenshot_resolve_name tool call.
func (h *Handlers) HandleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ResolveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Resolve(h.cfg, ops.ResolveInput{
		Pattern:     input.Pattern,
		Ext:         input.Ext,
		Failure:     input.Failure,
		FeatureFile: input.FeatureFile,
		StepText:    input.StepText,
		StepLine:    input.StepLine,
		URL:         input.URL,
		Timestamp:   input.Timestamp,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the screenshot_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(h.db, ops.ListInput{
		RunID:      input.RunID,
		Feature:    input.Feature,
		FailedOnly: input.FailedOnly,
		Limit:      input.Limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the screenshot_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(h.db, ops.FetchInput{
		ID:             input.ID,
		IncludeContent: input.IncludeContent,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePurge handles the screenshot_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(ctx, h.db, h.cfg, ops.PurgeInput{
		Dir:        input.Dir,
		LedgerOnly: input.LedgerOnly,
	})
	if err != nil {
		return errorResult(cancelled("screenshot_purge", err)), nil
	}

	return successResult(result)
}

// HandleReport handles the screenshot_report tool call.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Report(h.db, h.cfg, ops.ReportInput{
		RunID:      input.RunID,
		FailedOnly: input.FailedOnly,
		Path:       input.Path,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// cancelled maps context cancellation to a CANCELLED error for op.
func cancelled(op string, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewCancelled(op, err)
	}
	return err
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var snapErr *errors.SnapError
	if stderrors.As(err, &snapErr) {
		message := snapErr.Message
		// Keep the context of wrapping errors, e.g. "navigate: BROWSER: ..."
		if snapErr != err {
			message = err.Error()
		}
		errorObj := map[string]any{
			"code":    snapErr.Code,
			"message": message,
			"status":  snapErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if snapErr.Code != errors.ErrInternal && snapErr.Details != nil {
			errorObj["details"] = snapErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

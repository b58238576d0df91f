package ops

import (
	"context"
	"database/sql"
	"os"
	"strings"

	"github.com/hpungsan/snapper/internal/artifact"
	"github.com/hpungsan/snapper/internal/capture"
	"github.com/hpungsan/snapper/internal/config"
	"github.com/hpungsan/snapper/internal/db"
	"github.com/hpungsan/snapper/internal/errors"
)

// Navigator loads a page before a capture.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// CaptureInput contains parameters for the Capture operation.
type CaptureInput struct {
	URL string // optional; navigated to before capturing

	Filename   string // optional custom pattern, ignored for failures
	Failure    bool
	Fullscreen bool

	// Width and Height resize the window before capturing when both are set.
	Width  int
	Height int

	FeatureFile  string
	FeatureTitle string
	StepText     string
	StepLine     int

	RunID string // default: ProcessRunID()
}

// CaptureOutput contains the result of the Capture operation.
type CaptureOutput struct {
	Written  bool               `json:"written"`
	Artifact *artifact.Artifact `json:"artifact,omitempty"`
	Message  string             `json:"message"`
}

// Capture optionally navigates, runs one capture, and records what was written
// in the ledger.
func Capture(ctx context.Context, database *sql.DB, cfg *config.Config, nav Navigator, capturer *capture.Capturer, input CaptureInput) (*CaptureOutput, error) {
	if input.StepLine < 0 {
		return nil, errors.NewInvalidRequest("step_line must not be negative")
	}
	if (input.Width > 0) != (input.Height > 0) || input.Width < 0 || input.Height < 0 {
		return nil, errors.NewInvalidRequest("width and height must both be positive or both be omitted")
	}

	if url := strings.TrimSpace(input.URL); url != "" {
		if nav == nil {
			return nil, errors.NewInvalidRequest("url given but no browser is attached")
		}
		if err := nav.Navigate(ctx, url); err != nil {
			return nil, err
		}
	}

	req := capture.Request{
		Filename:   input.Filename,
		IsFailure:  input.Failure,
		Fullscreen: input.Fullscreen,
		Scope: capture.Scope{
			FeatureFile:  input.FeatureFile,
			FeatureTitle: input.FeatureTitle,
			StepText:     input.StepText,
			StepLine:     input.StepLine,
		},
	}

	var (
		res *capture.Result
		err error
	)
	switch {
	case input.Width > 0:
		res, err = capturer.CaptureSized(ctx, input.Width, input.Height, req)
	case input.Failure:
		res, err = capturer.CaptureOnFailure(ctx, req, false)
	default:
		res, err = capturer.Capture(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &CaptureOutput{Message: "Failure captures are disabled, nothing captured"}, nil
	}
	if !res.Written() {
		return &CaptureOutput{Message: "No page content available, nothing captured"}, nil
	}

	a, err := newArtifact(res, capturer.Dir().Path, cfg, input)
	if err != nil {
		return nil, err
	}
	if err := db.Insert(database, a); err != nil {
		return nil, err
	}

	msg := "Captured content"
	if a.ImagePath != nil {
		msg = "Captured content and screenshot"
	}
	return &CaptureOutput{Written: true, Artifact: a, Message: msg + " as " + a.Base}, nil
}

func newArtifact(res *capture.Result, dir string, cfg *config.Config, input CaptureInput) (*artifact.Artifact, error) {
	id, err := newID(res.Timestamp)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	runID := strings.TrimSpace(input.RunID)
	if runID == "" {
		runID = ProcessRunID()
	}

	a := &artifact.Artifact{
		ID:          id,
		RunID:       runID,
		Base:        res.Base,
		Dir:         dir,
		ContentPath: res.ContentPath,
		URL:         cleanOptionalString(res.URL),
		FeatureFile: cleanOptionalString(input.FeatureFile),
		StepText:    cleanOptionalString(input.StepText),
		StepLine:    input.StepLine,
		Failure:     input.Failure,
		Fullscreen:  res.Fullscreen,
		CreatedAt:   res.Timestamp.Unix(),
	}
	a.ContentBytes = fileSize(res.ContentPath)
	if res.ImagePath != "" {
		a.ImagePath = &res.ImagePath
		a.ImageBytes = fileSize(res.ImagePath)
	}
	if res.Fullscreen {
		a.Algorithm = cleanOptionalString(cfg.FullscreenAlgorithm)
	}
	return a, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

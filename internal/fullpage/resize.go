package fullpage

import (
	"context"
	"errors"
	"log"

	"github.com/hpungsan/snapper/internal/driver"
)

// DefaultWindowWidth is used when the current window width is unknown.
const DefaultWindowWidth = 1440

// resizeHeadroom is added to the document height when growing the window.
const resizeHeadroom = 200

const windowSizeScript = `({width: window.outerWidth || 0, height: window.outerHeight || 0})`

const viewportSizeScript = `({width: window.innerWidth || 0, height: window.innerHeight || 0})`

const scrollSizeScript = `({
	scrollWidth: Math.max(document.body ? document.body.scrollWidth : 0, document.documentElement.scrollWidth),
	scrollHeight: Math.max(document.body ? document.body.scrollHeight : 0, document.documentElement.scrollHeight)
})`

type windowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type scrollSize struct {
	ScrollWidth  int `json:"scrollWidth"`
	ScrollHeight int `json:"scrollHeight"`
}

// Resizer grows the window to the document height, captures once, and puts
// the window back.
type Resizer struct {
	Driver       driver.Driver
	DefaultWidth int
}

// Capture implements Strategy.
func (r *Resizer) Capture(ctx context.Context) ([]byte, error) {
	sizeScript := windowSizeScript
	if r.Driver.Capabilities().ViewportResize {
		sizeScript = viewportSizeScript
	}

	var orig windowSize
	if err := r.Driver.Evaluate(ctx, sizeScript, &orig); err != nil {
		orig = windowSize{}
	}

	var doc scrollSize
	if err := r.Driver.Evaluate(ctx, scrollSizeScript, &doc); err != nil || doc.ScrollHeight <= 0 {
		return r.Driver.Screenshot(ctx)
	}

	width := orig.Width
	if width <= 0 {
		width = r.DefaultWidth
	}
	if width <= 0 {
		width = DefaultWindowWidth
	}

	err := r.Driver.ResizeWindow(ctx, width, doc.ScrollHeight+resizeHeadroom, driver.CurrentWindow)
	if errors.Is(err, driver.ErrUnsupported) {
		return r.Driver.Screenshot(ctx)
	}
	if err != nil {
		return nil, err
	}
	defer r.restore(ctx, orig)

	return r.Driver.Screenshot(ctx)
}

func (r *Resizer) restore(ctx context.Context, orig windowSize) {
	if orig.Width <= 0 || orig.Height <= 0 {
		return
	}
	if err := r.Driver.ResizeWindow(ctx, orig.Width, orig.Height, driver.CurrentWindow); err != nil {
		log.Printf("fullpage: restore window to %dx%d: %v", orig.Width, orig.Height, err)
	}
}

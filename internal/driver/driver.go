// Package driver defines the automation channel a capture runs against.
package driver

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the backend has nothing to return yet, typically
// because no page has been loaded.
var ErrUnavailable = errors.New("driver: unavailable")

// ErrUnsupported reports that the backend categorically cannot perform an operation.
var ErrUnsupported = errors.New("driver: unsupported")

// CurrentWindow is the resize target naming the active window.
const CurrentWindow = "current"

// Capabilities describes what a backend can do. It is queried once per capture.
type Capabilities struct {
	Screenshot bool
	Resize     bool
	Script     bool
	// ViewportResize means ResizeWindow sets the viewport rather than the
	// outer window, so sizes are read from innerWidth/innerHeight.
	ViewportResize bool
}

// Driver is the browser session a capture reads from.
type Driver interface {
	// Content returns the page's textual content (HTML), or ErrUnavailable.
	Content(ctx context.Context) (string, error)
	// Screenshot returns a PNG of the viewport, or ErrUnsupported.
	Screenshot(ctx context.Context) ([]byte, error)
	// CurrentURL returns the loaded URL, or ErrUnavailable before navigation.
	CurrentURL(ctx context.Context) (string, error)
	// Evaluate runs js and decodes its JSON-compatible result into out.
	Evaluate(ctx context.Context, js string, out any) error
	// Execute runs js for its side effects.
	Execute(ctx context.Context, js string) error
	// ResizeWindow resizes the named window, or returns ErrUnsupported.
	ResizeWindow(ctx context.Context, width, height int, target string) error
	Capabilities() Capabilities
}

// URL returns the current URL when the driver can report one.
func URL(ctx context.Context, d Driver) (string, bool) {
	u, err := d.CurrentURL(ctx)
	if err != nil || u == "" {
		return "", false
	}
	return u, true
}

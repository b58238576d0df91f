// Package drivertest provides a scripted driver.Driver for tests.
package drivertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hpungsan/snapper/internal/driver"
)

// ResizeCall records one ResizeWindow invocation.
type ResizeCall struct {
	Width, Height int
	Target        string
}

// Driver is an in-memory driver. Zero-valued fields make the corresponding
// operation unavailable (Content, CurrentURL) or unsupported (Screenshot).
type Driver struct {
	HTML       string
	ContentErr error

	URL    string
	URLErr error

	// Shots are returned in order by Screenshot; the last one repeats.
	Shots         [][]byte
	ScreenshotErr error
	// ScreenshotFunc overrides Shots when set.
	ScreenshotFunc func() ([]byte, error)

	// EvaluateFunc answers Evaluate; the result is JSON round-tripped into out.
	EvaluateFunc func(js string) (any, error)
	ExecuteFunc  func(js string) error
	ResizeFunc   func(width, height int, target string) error

	Caps driver.Capabilities

	mu       sync.Mutex
	shotIdx  int
	Resizes  []ResizeCall
	Executed []string
	Scripts  []string
}

var _ driver.Driver = (*Driver)(nil)

// New returns a driver that supports every capability.
func New() *Driver {
	return &Driver{Caps: driver.Capabilities{Screenshot: true, Resize: true, Script: true}}
}

func (d *Driver) Content(_ context.Context) (string, error) {
	if d.ContentErr != nil {
		return "", d.ContentErr
	}
	if d.HTML == "" {
		return "", driver.ErrUnavailable
	}
	return d.HTML, nil
}

func (d *Driver) Screenshot(_ context.Context) ([]byte, error) {
	if d.ScreenshotErr != nil {
		return nil, d.ScreenshotErr
	}
	if d.ScreenshotFunc != nil {
		return d.ScreenshotFunc()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Shots) == 0 {
		return nil, driver.ErrUnsupported
	}
	shot := d.Shots[min(d.shotIdx, len(d.Shots)-1)]
	d.shotIdx++
	return shot, nil
}

// ShotCount returns how many screenshots have been taken from Shots.
func (d *Driver) ShotCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shotIdx
}

func (d *Driver) CurrentURL(_ context.Context) (string, error) {
	if d.URLErr != nil {
		return "", d.URLErr
	}
	if d.URL == "" {
		return "", driver.ErrUnavailable
	}
	return d.URL, nil
}

func (d *Driver) Evaluate(_ context.Context, js string, out any) error {
	d.mu.Lock()
	d.Scripts = append(d.Scripts, js)
	d.mu.Unlock()

	if d.EvaluateFunc == nil {
		return driver.ErrUnsupported
	}
	result, err := d.EvaluateFunc(js)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal evaluate result: %w", err)
	}
	return json.Unmarshal(b, out)
}

func (d *Driver) Execute(_ context.Context, js string) error {
	d.mu.Lock()
	d.Executed = append(d.Executed, js)
	d.mu.Unlock()

	if d.ExecuteFunc == nil {
		return nil
	}
	return d.ExecuteFunc(js)
}

func (d *Driver) ResizeWindow(_ context.Context, width, height int, target string) error {
	d.mu.Lock()
	d.Resizes = append(d.Resizes, ResizeCall{Width: width, Height: height, Target: target})
	d.mu.Unlock()

	if d.ResizeFunc != nil {
		return d.ResizeFunc(width, height, target)
	}
	if !d.Caps.Resize {
		return driver.ErrUnsupported
	}
	return nil
}

func (d *Driver) Capabilities() driver.Capabilities {
	return d.Caps
}

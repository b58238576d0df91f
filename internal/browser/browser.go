// Package browser drives a Chrome tab over the DevTools protocol and exposes it
// as a capture driver.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/hpungsan/snapper/internal/driver"
	"github.com/hpungsan/snapper/internal/errors"
)

// DefaultActionTimeout bounds a single browser round-trip.
const DefaultActionTimeout = 30 * time.Second

const readyPollInterval = 200 * time.Millisecond

// Options configures Launch.
type Options struct {
	// CDPURL attaches to a running browser (ws:// or http:// DevTools endpoint).
	// Empty launches a local Chrome.
	CDPURL   string
	Headless bool
	ExecPath string

	ActionTimeout time.Duration

	// Width and Height set the initial viewport. Zero leaves the browser default.
	Width  int
	Height int
}

// Browser is a single tab. It is safe for sequential use by one capture at a time.
type Browser struct {
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration

	mu     sync.Mutex
	closed bool
}

var _ driver.Driver = (*Browser)(nil)

// Launch starts or attaches to a browser and opens a tab.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	timeout := opts.ActionTimeout
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}

	allocCtx, allocCancel := newAllocator(opts)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	b := &Browser{
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		timeout:     timeout,
	}

	if err := b.start(ctx); err != nil {
		b.Close()
		return nil, errors.NewBrowser("launch", err)
	}

	if opts.Width > 0 && opts.Height > 0 {
		if err := b.ResizeWindow(ctx, opts.Width, opts.Height, driver.CurrentWindow); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

func newAllocator(opts Options) (context.Context, context.CancelFunc) {
	base := context.Background()
	if cdpURL := strings.TrimSpace(opts.CDPURL); cdpURL != "" {
		return chromedp.NewRemoteAllocator(base, cdpURL)
	}
	return chromedp.NewExecAllocator(base, execOptions(opts)...)
}

func execOptions(opts Options) []chromedp.ExecAllocatorOption {
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", opts.Headless),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	)
	if opts.Width > 0 && opts.Height > 0 {
		execOpts = append(execOpts, chromedp.WindowSize(opts.Width, opts.Height))
	}
	if path := strings.TrimSpace(opts.ExecPath); path != "" {
		execOpts = append(execOpts, chromedp.ExecPath(path))
	}
	return execOpts
}

// Close closes the tab and, for launched browsers, the browser process.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.tabCancel()
	b.allocCancel()
}

// Navigate loads url and waits until the document is interactive.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errorText, _, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errorText != "" {
			return fmt.Errorf("navigate %s: %s", url, errorText)
		}
		return waitReady(ctx)
	}))
	if err != nil {
		return errors.NewBrowser("navigate", err)
	}
	return nil
}

func waitReady(ctx context.Context) error {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		var state string
		if err := chromedp.Evaluate("document.readyState", &state).Do(ctx); err == nil &&
			(state == "interactive" || state == "complete") {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Content returns the page HTML. A tab that has not navigated anywhere has no content.
func (b *Browser) Content(ctx context.Context) (string, error) {
	if _, ok := driver.URL(ctx, b); !ok {
		return "", driver.ErrUnavailable
	}
	var html string
	if err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", errors.NewBrowser("content", err)
	}
	return html, nil
}

// Screenshot captures the viewport as PNG.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, errors.NewBrowser("screenshot", err)
	}
	return buf, nil
}

// CurrentURL returns the tab location, or ErrUnavailable before the first navigation.
func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := b.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", errors.NewBrowser("location", err)
	}
	if loc == "" || loc == "about:blank" {
		return "", driver.ErrUnavailable
	}
	return loc, nil
}

// Evaluate runs js and decodes its result into out.
func (b *Browser) Evaluate(ctx context.Context, js string, out any) error {
	if err := b.run(ctx, chromedp.Evaluate(js, out)); err != nil {
		return errors.NewBrowser("evaluate", err)
	}
	return nil
}

// Execute runs js and discards its result.
func (b *Browser) Execute(ctx context.Context, js string) error {
	if err := b.run(ctx, chromedp.Evaluate(js, nil)); err != nil {
		return errors.NewBrowser("execute", err)
	}
	return nil
}

// ResizeWindow overrides the tab viewport. The tab is the only window, so
// target is accepted for any value.
func (b *Browser) ResizeWindow(ctx context.Context, width, height int, _ string) error {
	if width <= 0 || height <= 0 {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid window size %dx%d", width, height))
	}
	err := b.run(ctx, emulation.SetDeviceMetricsOverride(int64(width), int64(height), 1, false))
	if err != nil {
		return errors.NewBrowser("resize", err)
	}
	return nil
}

// Capabilities reports that a Chrome tab supports every operation.
func (b *Browser) Capabilities() driver.Capabilities {
	return driver.Capabilities{Screenshot: true, Resize: true, Script: true, ViewportResize: true}
}

// runActions is chromedp.Run; tests swap it to observe contexts.
var runActions = chromedp.Run

// start allocates the browser and attaches the tab. The first run must use the
// tab context itself: chromedp binds the browser process (or remote
// connection) to that context, so a derived timeout would stop the browser
// when it expires. The action timeout and ctx instead close the tab while
// starting.
func (b *Browser) start(ctx context.Context) error {
	timer := time.AfterFunc(b.timeout, b.tabCancel)
	defer timer.Stop()
	stop := context.AfterFunc(ctx, b.tabCancel)
	defer stop()

	err := runActions(b.tabCtx)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// run executes actions on the tab, bounded by the action timeout and by ctx.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.tabCtx, b.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := runActions(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

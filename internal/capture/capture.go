// Package capture writes the content and screenshot artifacts of a single
// capture request.
package capture

import (
	"context"
	stderrors "errors"
	"log"
	"strings"
	"time"

	"github.com/hpungsan/snapper/internal/driver"
	"github.com/hpungsan/snapper/internal/filename"
	"github.com/hpungsan/snapper/internal/fullpage"
)

// Artifact extensions.
const (
	ContentExt = "html"
	ImageExt   = "png"
)

// Scope identifies the test step a capture belongs to.
type Scope struct {
	FeatureFile  string
	FeatureTitle string
	StepText     string
	StepLine     int
}

// Request describes one capture.
type Request struct {
	Filename   string // custom pattern; ignored for failures
	IsFailure  bool
	Fullscreen bool
	Scope      Scope
}

// Result reports what a capture wrote. A capture against a page with no
// content writes nothing and returns a zero Result.
type Result struct {
	Base        string
	ContentPath string
	ImagePath   string
	URL         string
	Timestamp   time.Time
	Fullscreen  bool
}

// Written reports whether any artifact was written.
func (r *Result) Written() bool {
	return r != nil && r.ContentPath != ""
}

// Options configures a Capturer.
type Options struct {
	Dir       string
	Builder   filename.Builder
	InfoTypes []string

	AlwaysFullscreen bool
	Algorithm        string
	Compositor       fullpage.Compositor
	Fullpage         fullpage.Options

	// OnFailure enables CaptureOnFailure.
	OnFailure bool
	// ShowPath logs the path of every written artifact.
	ShowPath bool

	WindowWidth  int
	WindowHeight int

	Now func() time.Time
}

// Capturer runs captures against a driver.
type Capturer struct {
	driver driver.Driver
	opts   Options
	dir    Dir
}

// New returns a Capturer writing into opts.Dir.
func New(d driver.Driver, opts Options) *Capturer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Capturer{driver: d, opts: opts, dir: Dir{Path: opts.Dir}}
}

// Dir returns the artifact directory.
func (c *Capturer) Dir() Dir {
	return c.dir
}

// Capture writes the content artifact and, when the driver can take one, a
// screenshot under the same base name.
func (c *Capturer) Capture(ctx context.Context, req Request) (*Result, error) {
	caps := c.driver.Capabilities()

	content, err := c.driver.Content(ctx)
	if stderrors.Is(err, driver.ErrUnavailable) {
		return &Result{}, nil
	}
	if err != nil {
		return nil, err
	}

	url, hasURL := driver.URL(ctx, c.driver)
	fields := filename.Fields{
		FeatureFile: req.Scope.FeatureFile,
		StepText:    req.Scope.StepText,
		StepLine:    req.Scope.StepLine,
		URL:         url,
		HasURL:      hasURL,
		Timestamp:   c.opts.Now(),
	}

	contentName, err := c.opts.Builder.Build(ContentExt, req.Filename, req.IsFailure, fields)
	if err != nil {
		return nil, err
	}

	if len(c.opts.InfoTypes) > 0 {
		info := compileInfo(c.opts.InfoTypes, url, hasURL, req.Scope, fields.Timestamp)
		content = info.Render() + "\n" + content
	}

	res := &Result{
		Base:      strings.TrimSuffix(contentName, "."+ContentExt),
		URL:       url,
		Timestamp: fields.Timestamp,
	}
	if res.ContentPath, err = c.write(contentName, []byte(content)); err != nil {
		return nil, err
	}

	if !caps.Screenshot {
		return res, nil
	}

	fullscreen := req.Fullscreen || c.opts.AlwaysFullscreen
	image, err := c.screenshot(ctx, fullscreen, caps)
	if stderrors.Is(err, driver.ErrUnsupported) {
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	imageName, err := c.opts.Builder.Build(ImageExt, req.Filename, req.IsFailure, fields)
	if err != nil {
		return nil, err
	}
	if res.ImagePath, err = c.write(imageName, image); err != nil {
		return nil, err
	}
	res.Fullscreen = fullscreen
	return res, nil
}

// CaptureSized resizes the window before capturing. Drivers that cannot resize
// capture at their current size. Failure requests return a nil Result when
// failure captures are disabled.
func (c *Capturer) CaptureSized(ctx context.Context, width, height int, req Request) (*Result, error) {
	if req.IsFailure && !c.opts.OnFailure {
		return nil, nil
	}
	err := c.driver.ResizeWindow(ctx, width, height, driver.CurrentWindow)
	if err != nil && !stderrors.Is(err, driver.ErrUnsupported) {
		return nil, err
	}
	return c.Capture(ctx, req)
}

// CaptureOnFailure captures req with the failure pattern when failure captures
// are enabled and the step did not pass. It returns a nil Result otherwise.
func (c *Capturer) CaptureOnFailure(ctx context.Context, req Request, passed bool) (*Result, error) {
	if !c.opts.OnFailure || passed {
		return nil, nil
	}
	req.IsFailure = true
	return c.Capture(ctx, req)
}

// InitWindow sets the configured window size at the start of a scenario.
func (c *Capturer) InitWindow(ctx context.Context) error {
	if c.opts.WindowWidth <= 0 || c.opts.WindowHeight <= 0 {
		return nil
	}
	err := c.driver.ResizeWindow(ctx, c.opts.WindowWidth, c.opts.WindowHeight, driver.CurrentWindow)
	if stderrors.Is(err, driver.ErrUnsupported) {
		return nil
	}
	return err
}

func (c *Capturer) screenshot(ctx context.Context, fullscreen bool, caps driver.Capabilities) ([]byte, error) {
	if !fullscreen || !caps.Script {
		return c.driver.Screenshot(ctx)
	}
	strategy := fullpage.Select(c.opts.Algorithm, c.driver, c.opts.Compositor, c.opts.Fullpage)
	return strategy.Capture(ctx)
}

func (c *Capturer) write(name string, data []byte) (string, error) {
	path, err := c.dir.Write(name, data)
	if err != nil {
		return "", err
	}
	if c.opts.ShowPath {
		log.Printf("capture: saved %s", path)
	}
	return path, nil
}

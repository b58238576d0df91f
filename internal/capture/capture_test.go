package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/snapper/internal/driver"
	"github.com/hpungsan/snapper/internal/driver/drivertest"
	"github.com/hpungsan/snapper/internal/errors"
	"github.com/hpungsan/snapper/internal/filename"
	"github.com/hpungsan/snapper/internal/fullpage"
)

var fixedTime = time.Unix(1710219423, 0)

func testOptions(dir string) Options {
	return Options{
		Dir: dir,
		Builder: filename.Builder{
			Pattern:     "{datetime:U}.{feature_file}.feature_{step_line}.{ext}",
			FailPattern: "{datetime:U}.{failed_prefix}{feature_file}.feature_{step_line}.{ext}",
			FailPrefix:  "failed_",
		},
		Algorithm: fullpage.AlgorithmResize,
		OnFailure: true,
		Now:       func() time.Time { return fixedTime },
	}
}

func testScope() Scope {
	return Scope{
		FeatureFile:  "/tests/features/checkout.feature",
		FeatureTitle: "Checkout",
		StepText:     "I press \"Pay\"",
		StepLine:     7,
	}
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCapture_UnavailableContentWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	d := drivertest.New()
	d.Shots = [][]byte{[]byte("png")}

	res, err := New(d, testOptions(dir)).Capture(context.Background(), Request{Scope: testScope()})
	require.NoError(t, err)
	require.False(t, res.Written())
	require.Empty(t, listFiles(t, dir))
	require.Equal(t, 0, d.ShotCount())
}

func TestCapture_UnsupportedScreenshotWritesContentOnly(t *testing.T) {
	dir := t.TempDir()
	d := drivertest.New()
	d.HTML = "<html>ok</html>"

	res, err := New(d, testOptions(dir)).Capture(context.Background(), Request{Scope: testScope()})
	require.NoError(t, err)
	require.True(t, res.Written())
	require.Empty(t, res.ImagePath)
	require.Equal(t, []string{"1710219423.checkout.feature_7.html"}, listFiles(t, dir))
}

func TestCapture_NoScreenshotCapabilityWritesContentOnly(t *testing.T) {
	dir := t.TempDir()
	d := drivertest.New()
	d.HTML = "<html>ok</html>"
	d.Shots = [][]byte{[]byte("png")}
	d.Caps.Screenshot = false

	_, err := New(d, testOptions(dir)).Capture(context.Background(), Request{Scope: testScope()})
	require.NoError(t, err)
	require.Len(t, listFiles(t, dir), 1)
	require.Equal(t, 0, d.ShotCount())
}

func TestCapture_TwoFilesShareBase(t *testing.T) {
	dir := t.TempDir()
	d := drivertest.New()
	d.HTML = "<html>ok</html>"
	d.URL = "http://example.com/cart"
	d.Shots = [][]byte{[]byte("png-bytes")}

	res, err := New(d, testOptions(dir)).Capture(context.Background(), Request{Scope: testScope()})
	require.NoError(t, err)
	require.Equal(t, "1710219423.checkout.feature_7", res.Base)
	require.Equal(t, filepath.Join(dir, res.Base+".html"), res.ContentPath)
	require.Equal(t, filepath.Join(dir, res.Base+".png"), res.ImagePath)
	require.Equal(t, "http://example.com/cart", res.URL)

	files := listFiles(t, dir)
	require.ElementsMatch(t, []string{res.Base + ".html", res.Base + ".png"}, files)

	data, err := os.ReadFile(res.ImagePath)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))
}

func TestCapture_CustomFilename(t *testing.T) {
	dir := t.TempDir()
	d := drivertest.New()
	d.HTML = "<p/>"
	d.Shots = [][]byte{[]byte("png")}

	res, err := New(d, testOptions(dir)).Capture(context.Background(), Request{
		Filename: "{feature_file}-{step_name}",
		Scope:    testScope(),
	})
	require.NoError(t, err)
	require.Equal(t, "checkout-I_press_Pay", res.Base)
}

func TestCapture_InfoOverlayPrepended(t *testing.T) {
	dir := t.TempDir()
	d := drivertest.New()
	d.HTML = "<html>body</html>"
	opts := testOptions(dir)
	opts.InfoTypes = []string{InfoURL, InfoFeature, InfoStep, InfoDatetime}

	res, err := New(d, opts).Capture(context.Background(), Request{Scope: testScope()})
	require.NoError(t, err)

	data, err := os.ReadFile(res.ContentPath)
	require.NoError(t, err)
	want := strings.Join([]string{
		"Current URL: not available",
		"Feature: Checkout",
		`Step: I press "Pay"`,
		"Datetime: 2024-03-12 04:57:03",
		"<html>body</html>",
	}, "\n")
	require.Equal(t, want, string(data))
}

func TestCapture_ScreenshotErrorPropagates(t *testing.T) {
	d := drivertest.New()
	d.HTML = "<p/>"
	d.ScreenshotErr = fmt.Errorf("browser crashed")

	_, err := New(d, testOptions(t.TempDir())).Capture(context.Background(), Request{Scope: testScope()})
	require.EqualError(t, err, "browser crashed")
}

func TestCapture_ContentErrorPropagates(t *testing.T) {
	d := drivertest.New()
	d.ContentErr = fmt.Errorf("session lost")

	_, err := New(d, testOptions(t.TempDir())).Capture(context.Background(), Request{Scope: testScope()})
	require.EqualError(t, err, "session lost")
}

func TestCapture_InvalidURLFailsWhenPatternUsesIt(t *testing.T) {
	d := drivertest.New()
	d.HTML = "<p/>"
	d.URL = "http:///broken"

	_, err := New(d, testOptions(t.TempDir())).Capture(context.Background(), Request{
		Filename: "{url_path}",
		Scope:    testScope(),
	})
	require.True(t, errors.Is(err, errors.ErrInvalidURL))
}

func TestCapture_WriteFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	d := drivertest.New()
	d.HTML = "<p/>"

	_, err := New(d, testOptions(filepath.Join(blocker, "shots"))).Capture(context.Background(), Request{Scope: testScope()})
	require.True(t, errors.Is(err, errors.ErrWriteFailed))
}

func TestCapture_FullscreenUsesStrategy(t *testing.T) {
	dir := t.TempDir()
	d := drivertest.New()
	d.HTML = "<p/>"
	d.Shots = [][]byte{[]byte("full")}
	d.EvaluateFunc = func(js string) (any, error) {
		if strings.Contains(js, "outerWidth") {
			return map[string]int{"width": 1440, "height": 900}, nil
		}
		return map[string]int{"scrollWidth": 1440, "scrollHeight": 2000}, nil
	}

	res, err := New(d, testOptions(dir)).Capture(context.Background(), Request{Fullscreen: true, Scope: testScope()})
	require.NoError(t, err)
	require.True(t, res.Fullscreen)
	require.Equal(t, []drivertest.ResizeCall{
		{Width: 1440, Height: 2200, Target: driver.CurrentWindow},
		{Width: 1440, Height: 900, Target: driver.CurrentWindow},
	}, d.Resizes)
}

func TestCapture_AlwaysFullscreen(t *testing.T) {
	d := drivertest.New()
	d.HTML = "<p/>"
	d.Shots = [][]byte{[]byte("full")}
	d.EvaluateFunc = func(string) (any, error) { return nil, fmt.Errorf("no metrics") }
	opts := testOptions(t.TempDir())
	opts.AlwaysFullscreen = true

	res, err := New(d, opts).Capture(context.Background(), Request{Scope: testScope()})
	require.NoError(t, err)
	require.True(t, res.Fullscreen)
	require.NotEmpty(t, d.Scripts)
}

func TestCapture_FullscreenWithoutScriptIsPlain(t *testing.T) {
	d := drivertest.New()
	d.HTML = "<p/>"
	d.Shots = [][]byte{[]byte("plain")}
	d.Caps.Script = false

	_, err := New(d, testOptions(t.TempDir())).Capture(context.Background(), Request{Fullscreen: true, Scope: testScope()})
	require.NoError(t, err)
	require.Empty(t, d.Scripts)
	require.Empty(t, d.Resizes)
}

func TestCaptureSized(t *testing.T) {
	dir := t.TempDir()
	d := drivertest.New()
	d.HTML = "<p/>"
	d.Shots = [][]byte{[]byte("png")}

	res, err := New(d, testOptions(dir)).CaptureSized(context.Background(), 800, 600, Request{Scope: testScope()})
	require.NoError(t, err)
	require.NotEmpty(t, res.ImagePath)
	require.Equal(t, []drivertest.ResizeCall{{Width: 800, Height: 600, Target: driver.CurrentWindow}}, d.Resizes)
}

func TestCaptureSized_UnsupportedResizeIgnored(t *testing.T) {
	d := drivertest.New()
	d.HTML = "<p/>"
	d.Caps.Resize = false

	res, err := New(d, testOptions(t.TempDir())).CaptureSized(context.Background(), 800, 600, Request{Scope: testScope()})
	require.NoError(t, err)
	require.True(t, res.Written())
}

func TestCaptureOnFailure(t *testing.T) {
	dir := t.TempDir()
	d := drivertest.New()
	d.HTML = "<p/>"
	d.Shots = [][]byte{[]byte("png")}
	c := New(d, testOptions(dir))

	res, err := c.CaptureOnFailure(context.Background(), Request{Scope: testScope()}, true)
	require.NoError(t, err)
	require.Nil(t, res)

	res, err = c.CaptureOnFailure(context.Background(), Request{Scope: testScope()}, false)
	require.NoError(t, err)
	require.Equal(t, "1710219423.failed_checkout.feature_7", res.Base)
}

func TestCaptureOnFailure_Disabled(t *testing.T) {
	d := drivertest.New()
	d.HTML = "<p/>"
	opts := testOptions(t.TempDir())
	opts.OnFailure = false

	res, err := New(d, opts).CaptureOnFailure(context.Background(), Request{Scope: testScope()}, false)
	require.NoError(t, err)
	require.Nil(t, res)
}

func TestCaptureSized_FailureDisabled(t *testing.T) {
	d := drivertest.New()
	d.HTML = "<p/>"
	opts := testOptions(t.TempDir())
	opts.OnFailure = false

	res, err := New(d, opts).CaptureSized(context.Background(), 800, 600, Request{IsFailure: true, Scope: testScope()})
	require.NoError(t, err)
	require.Nil(t, res)
	require.Empty(t, d.Resizes)
}

func TestInitWindow(t *testing.T) {
	d := drivertest.New()
	opts := testOptions(t.TempDir())
	opts.WindowWidth, opts.WindowHeight = 1440, 900

	require.NoError(t, New(d, opts).InitWindow(context.Background()))
	require.Equal(t, []drivertest.ResizeCall{{Width: 1440, Height: 900, Target: driver.CurrentWindow}}, d.Resizes)

	d.Caps.Resize = false
	require.NoError(t, New(d, opts).InitWindow(context.Background()))
}

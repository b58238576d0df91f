package fullpage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/snapper/internal/driver/drivertest"
	"github.com/hpungsan/snapper/internal/errors"
)

// page simulates a scrollable document whose row k is painted with R=k%256, G=k/256.
type page struct {
	width, viewport, document int
	scrollY                   int
	corrupt                   bool
	scrolls                   []int
}

func (p *page) driver() *drivertest.Driver {
	d := drivertest.New()
	d.EvaluateFunc = func(js string) (any, error) {
		switch js {
		case metricsScript:
			return pageMetrics{
				ViewportWidth:  p.width,
				ViewportHeight: p.viewport,
				DocumentHeight: p.document,
				ScrollY:        p.scrollY,
			}, nil
		case scrollOffsetScript:
			return p.scrollY, nil
		case windowSizeScript:
			return windowSize{Width: p.width, Height: p.viewport}, nil
		case scrollSizeScript:
			return scrollSize{ScrollWidth: p.width, ScrollHeight: p.document}, nil
		}
		return nil, fmt.Errorf("unexpected script %q", js)
	}
	d.ExecuteFunc = func(js string) error {
		rest, ok := strings.CutPrefix(js, "window.scrollTo({top: ")
		if !ok {
			return fmt.Errorf("unexpected script %q", js)
		}
		y, err := strconv.Atoi(rest[:strings.Index(rest, ",")])
		if err != nil {
			return err
		}
		p.scrolls = append(p.scrolls, y)
		p.scrollY = min(max(y, 0), max(p.document-p.viewport, 0))
		return nil
	}
	d.ScreenshotFunc = func() ([]byte, error) {
		if p.corrupt {
			return []byte("not a png"), nil
		}
		return p.render()
	}
	return d
}

func (p *page) render() ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.viewport))
	for y := 0; y < p.viewport; y++ {
		c := rowColor(p.scrollY + y)
		for x := 0; x < p.width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rowColor(k int) color.NRGBA {
	return color.NRGBA{R: uint8(k % 256), G: uint8(k / 256), B: 7, A: 255}
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func requireDocumentRows(t *testing.T, data []byte, rows int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, rows, img.Bounds().Dy())
	for k := 0; k < rows; k++ {
		r, g, _, _ := img.At(0, k).RGBA()
		want := rowColor(k)
		if uint8(r>>8) != want.R || uint8(g>>8) != want.G {
			t.Fatalf("row %d: got r=%d g=%d, want r=%d g=%d", k, r>>8, g>>8, want.R, want.G)
		}
	}
}

func TestStitcher_ComposesDocument(t *testing.T) {
	p := &page{width: 12, viewport: 900, document: 2000, scrollY: 120}
	s := &Stitcher{Driver: p.driver(), Compositor: ImagingCompositor{}, Sleep: noSleep}

	data, err := s.Capture(context.Background())
	require.NoError(t, err)
	requireDocumentRows(t, data, 2000)
	require.Equal(t, []int{0, 850, 1100, 120}, p.scrolls)
	require.Equal(t, 120, p.scrollY, "scroll offset restored")
}

func TestStitcher_ClampedLastFrameAddsNothing(t *testing.T) {
	p := &page{width: 8, viewport: 900, document: 1750}
	s := &Stitcher{Driver: p.driver(), Compositor: ImagingCompositor{}, Sleep: noSleep}

	data, err := s.Capture(context.Background())
	require.NoError(t, err)
	requireDocumentRows(t, data, 1750)
	// The pushed last position is clamped by the page and retried once.
	require.Equal(t, []int{0, 850, 1030, 1030, 0}, p.scrolls)
}

func TestStitcher_SingleFramePassthrough(t *testing.T) {
	d := drivertest.New()
	d.Shots = [][]byte{[]byte("single-frame")}
	d.EvaluateFunc = func(js string) (any, error) {
		if js == metricsScript {
			return pageMetrics{ViewportWidth: 1440, ViewportHeight: 900, DocumentHeight: 600}, nil
		}
		return 0, nil
	}
	s := &Stitcher{Driver: d, Compositor: ImagingCompositor{}, Sleep: noSleep}

	data, err := s.Capture(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("single-frame"), data)
}

func TestStitcher_UnusableMetricsCapturesPlain(t *testing.T) {
	d := drivertest.New()
	d.Shots = [][]byte{[]byte("plain")}
	d.EvaluateFunc = func(string) (any, error) { return nil, fmt.Errorf("no script support") }
	s := &Stitcher{Driver: d, Compositor: ImagingCompositor{}, Sleep: noSleep}

	data, err := s.Capture(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("plain"), data)
	require.Empty(t, d.Executed)
}

func TestStitcher_SettlesAfterEveryScroll(t *testing.T) {
	p := &page{width: 4, viewport: 900, document: 2000}
	var waits []time.Duration
	s := &Stitcher{
		Driver:     p.driver(),
		Compositor: ImagingCompositor{},
		Settle:     DefaultSettle,
		Sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}

	_, err := s.Capture(context.Background())
	require.NoError(t, err)
	require.Equal(t, []time.Duration{DefaultSettle, DefaultSettle, DefaultSettle}, waits)
}

func TestStitcher_CancelledContext(t *testing.T) {
	p := &page{width: 4, viewport: 900, document: 2000}
	s := &Stitcher{Driver: p.driver(), Compositor: ImagingCompositor{}, Settle: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Capture(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStitcher_CompositionFailure(t *testing.T) {
	p := &page{width: 4, viewport: 900, document: 2000, corrupt: true}
	s := &Stitcher{Driver: p.driver(), Compositor: ImagingCompositor{}, Sleep: noSleep}

	_, err := s.Capture(context.Background())
	require.True(t, errors.Is(err, errors.ErrStitchFailed))
}

func TestImagingCompositor_ScalesWithPixelRatio(t *testing.T) {
	// Frames at twice the CSS resolution.
	shot := func(top int) []byte {
		p := &page{width: 6, viewport: 200, scrollY: top}
		data, err := p.render()
		require.NoError(t, err)
		return data
	}
	plan := NewPlan(3, 100, 150)
	frames := []Frame{
		{ScrollPosition: 0, Image: shot(0)},
		{ScrollPosition: 50, Image: shot(100)},
	}

	data, err := ImagingCompositor{}.Compose(frames, plan)
	require.NoError(t, err)
	requireDocumentRows(t, data, 300)
}

func TestImagingCompositor_NoFrames(t *testing.T) {
	_, err := ImagingCompositor{}.Compose(nil, NewPlan(10, 10, 10))
	require.True(t, errors.Is(err, errors.ErrStitchFailed))
}

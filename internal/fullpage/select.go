package fullpage

import (
	"context"
	"log"
	"time"

	"github.com/hpungsan/snapper/internal/driver"
	"github.com/hpungsan/snapper/internal/errors"
)

// Algorithm names accepted by Select.
const (
	AlgorithmResize = "resize"
	AlgorithmStitch = "stitch"
)

// Strategy produces a single full-page raster.
type Strategy interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Options tunes the strategies Select builds.
type Options struct {
	Settle       time.Duration
	DefaultWidth int

	// StitchFallback degrades a failed composition to a resize capture instead
	// of failing the capture.
	StitchFallback bool
}

// Select returns the stitch strategy when algorithm is "stitch" and a compositor
// is available, and the resize strategy otherwise.
func Select(algorithm string, d driver.Driver, c Compositor, opts Options) Strategy {
	resizer := &Resizer{Driver: d, DefaultWidth: opts.DefaultWidth}
	if algorithm != AlgorithmStitch || c == nil {
		return resizer
	}

	stitcher := &Stitcher{Driver: d, Compositor: c, Settle: opts.Settle}
	if opts.StitchFallback {
		return &fallback{primary: stitcher, secondary: resizer}
	}
	return stitcher
}

type fallback struct {
	primary   Strategy
	secondary Strategy
}

func (f *fallback) Capture(ctx context.Context) ([]byte, error) {
	data, err := f.primary.Capture(ctx)
	if errors.Is(err, errors.ErrStitchFailed) {
		log.Printf("fullpage: stitch failed, falling back to resize: %v", err)
		return f.secondary.Capture(ctx)
	}
	return data, err
}

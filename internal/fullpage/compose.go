package fullpage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/hpungsan/snapper/internal/errors"
)

// Compositor merges stitched frames into one PNG.
type Compositor interface {
	Compose(frames []Frame, plan Plan) ([]byte, error)
}

// ImagingCompositor composes frames on a white canvas.
//
// Frames are placed by their actual scroll offset: each later frame contributes
// only the rows below what is already on the canvas. Frame pixels may be larger
// than CSS pixels; the ratio is taken from the first frame.
type ImagingCompositor struct{}

var _ Compositor = ImagingCompositor{}

// Compose implements Compositor.
func (ImagingCompositor) Compose(frames []Frame, plan Plan) ([]byte, error) {
	if len(frames) == 0 {
		return nil, errors.NewStitchFailed(fmt.Errorf("no frames"))
	}
	if plan.ViewportHeight <= 0 {
		return nil, errors.NewStitchFailed(fmt.Errorf("invalid viewport height %d", plan.ViewportHeight))
	}

	first, err := decodeFrame(frames[0], 0)
	if err != nil {
		return nil, err
	}
	width := first.Bounds().Dx()
	scale := float64(first.Bounds().Dy()) / float64(plan.ViewportHeight)
	canvasHeight := int(math.Ceil(float64(plan.CanvasHeight()) * scale))

	canvas := imaging.New(width, canvasHeight, color.White)
	canvas = imaging.Paste(canvas, first, image.Pt(0, 0))
	cursor := min(first.Bounds().Dy(), canvasHeight)

	for i := 1; i < len(frames); i++ {
		img, err := decodeFrame(frames[i], i)
		if err != nil {
			return nil, err
		}
		h := img.Bounds().Dy()
		top := int(math.Round(float64(frames[i].ScrollPosition) * scale))
		skip := max(cursor-top, 0)
		if skip >= h {
			continue
		}
		rows := imaging.Crop(img, image.Rect(0, skip, img.Bounds().Dx(), h))
		canvas = imaging.Paste(canvas, rows, image.Pt(0, cursor))
		cursor = min(cursor+h-skip, canvasHeight)
	}

	var out image.Image = canvas
	if cursor < canvasHeight {
		out = imaging.Crop(canvas, image.Rect(0, 0, width, cursor))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, errors.NewStitchFailed(fmt.Errorf("encode: %w", err))
	}
	return buf.Bytes(), nil
}

func decodeFrame(f Frame, i int) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(f.Image))
	if err != nil {
		return nil, errors.NewStitchFailed(fmt.Errorf("decode frame %d: %w", i, err))
	}
	return img, nil
}

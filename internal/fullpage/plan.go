// Package fullpage captures documents taller than the viewport, either by growing
// the window (resize) or by scrolling and compositing viewport frames (stitch).
package fullpage

// DefaultOverlap is the number of rows consecutive frames share.
const DefaultOverlap = 50

// canvasPadding is added to the preallocated stitch canvas and trimmed afterwards.
const canvasPadding = 100

// minNewContentRatio is the share of the viewport the last frame must add.
const minNewContentRatio = 0.2

// Plan is the frame layout for a stitched capture. It is derived from page
// metrics for one capture and never stored.
type Plan struct {
	ViewportWidth  int
	ViewportHeight int
	DocumentHeight int
	Overlap        int
	FrameCount     int
}

// NewPlan lays out frames for a document of docH rows seen through a vw x vh viewport.
func NewPlan(vw, vh, docH int) Plan {
	p := Plan{
		ViewportWidth:  vw,
		ViewportHeight: vh,
		DocumentHeight: docH,
		Overlap:        DefaultOverlap,
	}
	if p.Overlap >= vh {
		p.Overlap = 0
	}
	step := p.Step()
	p.FrameCount = 1
	if step > 0 && docH > 0 {
		p.FrameCount = max((docH+step-1)/step, 1)
	}
	return p
}

// Step is the scroll distance between consecutive frames.
func (p Plan) Step() int {
	return p.ViewportHeight - p.Overlap
}

// Positions returns the target scroll offset of every frame.
//
// The last frame is aligned with the bottom of the document unless that adds
// less than a fifth of a viewport of new content, in which case it is pushed
// down to add exactly that much and the browser clamps it.
func (p Plan) Positions() []int {
	positions := make([]int, p.FrameCount)
	if p.FrameCount == 1 {
		return positions
	}
	step := p.Step()
	for i := 1; i < p.FrameCount-1; i++ {
		positions[i] = i * step
	}

	prev := positions[p.FrameCount-2]
	last := max(p.DocumentHeight-p.ViewportHeight, 0)
	minNew := int(minNewContentRatio * float64(p.ViewportHeight))
	if last-prev < minNew {
		last = prev + minNew
	}
	positions[p.FrameCount-1] = last
	return positions
}

// CanvasHeight is the preallocated composite height in CSS pixels.
func (p Plan) CanvasHeight() int {
	return p.ViewportHeight + (p.FrameCount-1)*p.Step() + canvasPadding
}

package fullpage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hpungsan/snapper/internal/driver"
)

// DefaultSettle is how long the stitcher waits after each scroll.
const DefaultSettle = 200 * time.Millisecond

// maxDrift is the tolerated difference between the requested and actual scroll offset.
const maxDrift = 2

const metricsScript = `({
	viewportWidth: window.innerWidth || document.documentElement.clientWidth || 0,
	viewportHeight: window.innerHeight || document.documentElement.clientHeight || 0,
	documentHeight: Math.max(document.body ? document.body.scrollHeight : 0, document.documentElement.scrollHeight),
	scrollY: Math.round(window.scrollY || document.documentElement.scrollTop || 0)
})`

const scrollOffsetScript = `Math.round(window.scrollY || document.documentElement.scrollTop || 0)`

func scrollScript(y int) string {
	return fmt.Sprintf(`window.scrollTo({top: %d, left: 0, behavior: "instant"})`, y)
}

type pageMetrics struct {
	ViewportWidth  int `json:"viewportWidth"`
	ViewportHeight int `json:"viewportHeight"`
	DocumentHeight int `json:"documentHeight"`
	ScrollY        int `json:"scrollY"`
}

// Frame is one viewport capture taken at ScrollPosition.
type Frame struct {
	ScrollPosition int
	Image          []byte
	Height         int
}

// Stitcher scrolls through the document capturing overlapping frames and hands
// them to a Compositor.
type Stitcher struct {
	Driver     driver.Driver
	Compositor Compositor
	Settle     time.Duration

	// Sleep waits between a scroll and the next read. Nil uses a timer that
	// honours ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Capture implements Strategy.
func (s *Stitcher) Capture(ctx context.Context) ([]byte, error) {
	var m pageMetrics
	if err := s.Driver.Evaluate(ctx, metricsScript, &m); err != nil || m.ViewportHeight <= 0 || m.DocumentHeight <= 0 {
		return s.Driver.Screenshot(ctx)
	}

	plan := NewPlan(m.ViewportWidth, m.ViewportHeight, m.DocumentHeight)
	frames, err := s.captureFrames(ctx, plan)
	s.restore(ctx, m.ScrollY)
	if err != nil {
		return nil, err
	}

	if len(frames) == 1 {
		return frames[0].Image, nil
	}
	return s.Compositor.Compose(frames, plan)
}

func (s *Stitcher) captureFrames(ctx context.Context, plan Plan) ([]Frame, error) {
	positions := plan.Positions()
	frames := make([]Frame, 0, len(positions))
	for i, pos := range positions {
		actual, err := s.scrollTo(ctx, pos)
		if err != nil {
			return nil, fmt.Errorf("scroll frame %d to %d: %w", i, pos, err)
		}
		shot, err := s.Driver.Screenshot(ctx)
		if err != nil {
			return nil, err
		}
		frames = append(frames, Frame{ScrollPosition: actual, Image: shot, Height: plan.ViewportHeight})
	}
	return frames, nil
}

// scrollTo moves to y, waits, and returns the offset the page actually settled at.
// A drifted offset is retried once.
func (s *Stitcher) scrollTo(ctx context.Context, y int) (int, error) {
	actual, err := s.scrollOnce(ctx, y)
	if err != nil {
		return 0, err
	}
	if abs(actual-y) <= maxDrift {
		return actual, nil
	}

	actual, err = s.scrollOnce(ctx, y)
	if err != nil {
		return 0, err
	}
	if abs(actual-y) > maxDrift {
		log.Printf("fullpage: scroll settled at %d, wanted %d", actual, y)
	}
	return actual, nil
}

func (s *Stitcher) scrollOnce(ctx context.Context, y int) (int, error) {
	if err := s.Driver.Execute(ctx, scrollScript(y)); err != nil {
		return 0, err
	}
	if err := s.sleep(ctx); err != nil {
		return 0, err
	}
	var actual int
	if err := s.Driver.Evaluate(ctx, scrollOffsetScript, &actual); err != nil {
		return y, nil
	}
	return actual, nil
}

func (s *Stitcher) sleep(ctx context.Context) error {
	d := s.Settle
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return waitWithContext(ctx, d)
}

func (s *Stitcher) restore(ctx context.Context, y int) {
	if err := s.Driver.Execute(ctx, scrollScript(y)); err != nil {
		log.Printf("fullpage: restore scroll offset %d: %v", y, err)
	}
}

func waitWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

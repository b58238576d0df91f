package fullpage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPlan_FrameCount(t *testing.T) {
	tests := []struct {
		name     string
		vh, docH int
		frames   int
	}{
		{"document taller than two frames", 900, 2000, 3},
		{"document fits viewport", 900, 600, 1},
		{"document exactly one step", 900, 850, 1},
		{"one row past a step", 900, 851, 2},
		{"zero height", 900, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlan(1440, tt.vh, tt.docH)
			require.Equal(t, tt.frames, p.FrameCount)
			require.Len(t, p.Positions(), tt.frames)
		})
	}
}

func TestNewPlan_OverlapBelowViewport(t *testing.T) {
	p := NewPlan(100, 40, 500)
	require.Less(t, p.Overlap, p.ViewportHeight)
	require.Equal(t, 40, p.Step())
	require.Equal(t, 13, p.FrameCount)
}

func TestPositions_LastAlignedWithBottom(t *testing.T) {
	p := NewPlan(1440, 900, 2000)
	require.Equal(t, []int{0, 850, 1100}, p.Positions())
	require.Equal(t, 900+2*850+100, p.CanvasHeight())
}

func TestPositions_LastPushedForMinimumNewContent(t *testing.T) {
	// Bottom alignment would be 850, the same as the previous frame.
	p := NewPlan(1440, 900, 1750)
	require.Equal(t, 3, p.FrameCount)
	require.Equal(t, []int{0, 850, 1030}, p.Positions())
}

func TestPositions_TwoFrames(t *testing.T) {
	p := NewPlan(1440, 900, 1200)
	require.Equal(t, []int{0, 300}, p.Positions())
}

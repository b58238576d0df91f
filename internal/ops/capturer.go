package ops

import (
	"path/filepath"

	"github.com/hpungsan/snapper/internal/capture"
	"github.com/hpungsan/snapper/internal/config"
	"github.com/hpungsan/snapper/internal/driver"
	"github.com/hpungsan/snapper/internal/filename"
	"github.com/hpungsan/snapper/internal/fullpage"
)

// ArtifactDir returns dir as an absolute path so ledger rows written from
// different working directories agree.
func ArtifactDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	return abs
}

// NewBuilder returns the filename builder described by cfg.
func NewBuilder(cfg *config.Config) filename.Builder {
	return filename.Builder{
		Pattern:     cfg.FilenamePattern,
		FailPattern: cfg.FilenamePatternFailed,
		FailPrefix:  cfg.FailPrefix,
		TokenHost:   cfg.TokenHost,
	}
}

// NewCapturer returns a Capturer for d configured from cfg.
func NewCapturer(d driver.Driver, cfg *config.Config) *capture.Capturer {
	opts := capture.Options{
		Dir:              ArtifactDir(cfg.Dir),
		Builder:          NewBuilder(cfg),
		InfoTypes:        cfg.InfoTypes,
		AlwaysFullscreen: cfg.AlwaysFullscreen,
		Algorithm:        cfg.FullscreenAlgorithm,
		Fullpage: fullpage.Options{
			Settle:         cfg.SettleDelay(),
			DefaultWidth:   cfg.WindowWidth,
			StitchFallback: cfg.StitchFallback,
		},
		OnFailure:    cfg.FailEnabled(),
		ShowPath:     cfg.ShowPath,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
	}
	if cfg.FullscreenAlgorithm == fullpage.AlgorithmStitch {
		opts.Compositor = fullpage.ImagingCompositor{}
	}
	return capture.New(d, opts)
}

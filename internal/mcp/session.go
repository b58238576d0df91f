package mcp

import (
	"context"
	"database/sql"
	"log"
	"sync"

	"github.com/hpungsan/snapper/internal/browser"
	"github.com/hpungsan/snapper/internal/capture"
	"github.com/hpungsan/snapper/internal/config"
	"github.com/hpungsan/snapper/internal/driver"
	"github.com/hpungsan/snapper/internal/ops"
)

// Browser is the page a capture tool drives.
type Browser interface {
	driver.Driver
	ops.Navigator
	Close()
}

// Launcher starts a Browser on first use.
type Launcher func(ctx context.Context) (Browser, error)

// DefaultLauncher launches Chrome, or attaches to cfg.CDPURL.
func DefaultLauncher(cfg *config.Config) Launcher {
	return func(ctx context.Context) (Browser, error) {
		b, err := browser.Launch(ctx, browser.Options{
			CDPURL:        cfg.CDPURL,
			Headless:      cfg.HeadlessEnabled(),
			ActionTimeout: cfg.ActionTimeout(),
			Width:         cfg.WindowWidth,
			Height:        cfg.WindowHeight,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// session owns the lazily started browser. Captures are serialized.
type session struct {
	db     *sql.DB
	cfg    *config.Config
	launch Launcher

	mu       sync.Mutex
	browser  Browser
	capturer *capture.Capturer
}

// acquire locks the session and returns the browser, starting it if needed.
// The caller must call release.
func (s *session) acquire(ctx context.Context) (Browser, *capture.Capturer, error) {
	s.mu.Lock()
	if s.browser != nil {
		return s.browser, s.capturer, nil
	}

	if _, err := ops.PrepareDir(s.db, s.cfg); err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	b, err := s.launch(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	s.browser = b
	s.capturer = ops.NewCapturer(b, s.cfg)
	if err := s.capturer.InitWindow(ctx); err != nil {
		log.Printf("warning: could not set window size: %v", err)
	}
	return s.browser, s.capturer, nil
}

func (s *session) release() {
	s.mu.Unlock()
}

// close shuts the browser down if it was started.
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
		s.capturer = nil
	}
}

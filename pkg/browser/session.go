// Package browser drives a real browser for the suite. It hides the
// automation engine (Playwright or chromedp) behind a narrow Session
// interface so test cases and their tests never touch the engine directly.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"LocalhostSuite/pkg/config"
	"LocalhostSuite/pkg/logger"

	"go.uber.org/zap"
)

// ErrSessionClosed is returned by Session methods called after Close.
var ErrSessionClosed = errors.New("browser session is closed")

// WaitMode selects the navigation completion signal.
type WaitMode int

const (
	// WaitDOMReady completes once the document is parsed, before subresources load.
	WaitDOMReady WaitMode = iota
	// WaitLoad completes on the window load event.
	WaitLoad
	// WaitNetworkIdle completes once the network has been quiet for a while.
	WaitNetworkIdle
)

func (w WaitMode) String() string {
	switch w {
	case WaitDOMReady:
		return "domcontentloaded"
	case WaitLoad:
		return "load"
	case WaitNetworkIdle:
		return "networkidle"
	default:
		return fmt.Sprintf("WaitMode(%d)", int(w))
	}
}

// Session is one live, controllable page.
type Session interface {
	Navigate(ctx context.Context, url string, wait WaitMode) error
	Title(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, path string) error
	Content(ctx context.Context) (string, error)
	// Close releases the page and the browser behind it. Calling it again
	// returns nil.
	Close() error
}

// Launcher starts fully initialised sessions.
type Launcher interface {
	Launch(ctx context.Context, cfg config.SessionConfig) (Session, error)
}

// Options configures both engines.
type Options struct {
	DefaultTimeout time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Stealth        bool
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		DefaultTimeout: 30 * time.Second,
		ViewportWidth:  1280,
		ViewportHeight: 720,
	}
}

// NewLauncher returns the launcher for engine ("playwright" or "chromedp").
func NewLauncher(engine string, log *zap.Logger, opts *Options) (Launcher, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	switch engine {
	case config.EnginePlaywright, "":
		return NewPlaywrightLauncher(log, opts), nil
	case config.EngineChromedp:
		return NewChromedpLauncher(log, opts), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", engine)
	}
}

// CreateSession merges overrides onto defaults and launches a session. The
// engine is fully initialised when it returns; launch errors are returned
// to the caller.
func CreateSession(ctx context.Context, l Launcher, defaults config.SessionConfig, o config.Overrides) (Session, error) {
	if l == nil {
		return nil, errors.New("no browser launcher configured")
	}
	cfg := defaults.Merge(o)
	s, err := l.Launch(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize browser session (headless=%t verbosity=%d): %w", cfg.Headless, cfg.Verbosity, err)
	}
	if cfg.DebugDOM {
		s = WithDOMDebug(s, logger.GetLogger().Named("dom"))
	}
	return s, nil
}

// OpenSession is CreateSession with the defaults read from the environment.
func OpenSession(ctx context.Context, l Launcher, o config.Overrides) (Session, error) {
	return CreateSession(ctx, l, config.DefaultSessionConfig(), o)
}

// CloseSession closes s. The error is returned for the caller to log.
func CloseSession(s Session) error {
	if s == nil {
		return nil
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("close browser session: %w", err)
	}
	return nil
}

// engineLogger returns the per-session engine logger, filtered by verbosity.
// A core that is already stricter than the verbosity level is left alone.
func engineLogger(base *zap.Logger, engine string, cfg config.SessionConfig) *zap.Logger {
	log := base.Named("engine").With(zap.String("engine", engine))
	if level := logger.EngineLevel(cfg.Verbosity); log.Core().Enabled(level) {
		log = log.WithOptions(zap.IncreaseLevel(level))
	}
	return log
}

// budget returns the time left before ctx's deadline, capped at fallback.
func budget(ctx context.Context, fallback time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return fallback
	}
	left := time.Until(deadline)
	if left < time.Millisecond {
		left = time.Millisecond
	}
	if fallback > 0 && fallback < left {
		return fallback
	}
	return left
}

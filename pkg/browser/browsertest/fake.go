// Package browsertest provides in-memory browser sessions for tests that
// must not start a real browser.
package browsertest

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"LocalhostSuite/pkg/browser"
	"LocalhostSuite/pkg/config"
)

// Session is a scripted browser.Session. Set the *Err fields to make the
// matching call fail; NavigateHook, when set, runs instead of the default
// navigation and may block on ctx to simulate a hanging page.
type Session struct {
	PageTitle string
	HTML      string

	NavigateErr   error
	TitleErr      error
	ScreenshotErr error
	ContentErr    error
	CloseErr      error

	NavigateHook func(ctx context.Context, url string) error

	mu          sync.Mutex
	Visited     []string
	WaitModes   []browser.WaitMode
	Screenshots []string
	CloseCalls  int
}

var _ browser.Session = (*Session)(nil)

func (s *Session) Navigate(ctx context.Context, url string, wait browser.WaitMode) error {
	s.mu.Lock()
	s.Visited = append(s.Visited, url)
	s.WaitModes = append(s.WaitModes, wait)
	hook := s.NavigateHook
	s.mu.Unlock()

	if hook != nil {
		return hook(ctx, url)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.NavigateErr
}

func (s *Session) Title(ctx context.Context) (string, error) {
	if s.TitleErr != nil {
		return "", s.TitleErr
	}
	return s.PageTitle, ctx.Err()
}

// Screenshot records path and writes a placeholder file there.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	if s.ScreenshotErr != nil {
		return s.ScreenshotErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte("\x89PNG"), 0644); err != nil {
		return err
	}
	s.mu.Lock()
	s.Screenshots = append(s.Screenshots, path)
	s.mu.Unlock()
	return nil
}

func (s *Session) Content(ctx context.Context) (string, error) {
	if s.ContentErr != nil {
		return "", s.ContentErr
	}
	return s.HTML, ctx.Err()
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
	if s.CloseCalls > 1 {
		return nil
	}
	return s.CloseErr
}

// Closes returns how many times Close was called.
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CloseCalls
}

// Launcher hands out Session (or fails with Err) and records every config
// it was asked to launch with.
type Launcher struct {
	Session *Session
	Err     error

	mu      sync.Mutex
	Configs []config.SessionConfig
}

var _ browser.Launcher = (*Launcher)(nil)

func (l *Launcher) Launch(ctx context.Context, cfg config.SessionConfig) (browser.Session, error) {
	l.mu.Lock()
	l.Configs = append(l.Configs, cfg)
	l.mu.Unlock()

	if l.Err != nil {
		return nil, l.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.Session == nil {
		l.Session = &Session{}
	}
	return l.Session, nil
}

// Launches returns the configs passed to Launch so far.
func (l *Launcher) Launches() []config.SessionConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]config.SessionConfig(nil), l.Configs...)
}

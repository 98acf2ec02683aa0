package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"LocalhostSuite/pkg/config"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// PlaywrightLauncher starts Chromium through the Playwright driver.
type PlaywrightLauncher struct {
	opts *Options
	log  *zap.Logger
}

// NewPlaywrightLauncher creates a launcher. Nothing starts until Launch.
func NewPlaywrightLauncher(log *zap.Logger, opts *Options) *PlaywrightLauncher {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &PlaywrightLauncher{opts: opts, log: log}
}

// Launch starts the driver, a Chromium instance and one page.
func (l *PlaywrightLauncher) Launch(ctx context.Context, cfg config.SessionConfig) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := engineLogger(l.log, config.EnginePlaywright, cfg)

	pw, err := playwright.Run(&playwright.RunOptions{Verbose: cfg.Verbosity >= config.MaxVerbosity})
	if err != nil {
		return nil, fmt.Errorf("could not start playwright (run `suite install` first): %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Timeout:  playwright.Float(float64(budget(ctx, l.opts.DefaultTimeout).Milliseconds())),
	}
	if l.opts.Stealth {
		launchOpts.Args = append(launchOpts.Args, "--disable-blink-features=AutomationControlled")
	}
	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}

	pageOpts := playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: l.opts.ViewportWidth, Height: l.opts.ViewportHeight},
	}
	if l.opts.UserAgent != "" {
		pageOpts.UserAgent = playwright.String(l.opts.UserAgent)
	}
	page, err := b.NewPage(pageOpts)
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	page.SetDefaultTimeout(float64(l.opts.DefaultTimeout.Milliseconds()))
	if l.opts.Stealth {
		if err := page.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
			_ = b.Close()
			_ = pw.Stop()
			return nil, fmt.Errorf("could not install stealth script: %w", err)
		}
	}

	page.On("console", func(msg playwright.ConsoleMessage) {
		log.Debug("page console", zap.String("type", msg.Type()), zap.String("text", msg.Text()))
	})
	page.On("pageerror", func(err error) {
		log.Warn("page error", zap.Error(err))
	})

	log.Info("session ready", zap.Bool("headless", cfg.Headless), zap.Int("verbosity", cfg.Verbosity))
	return &playwrightSession{
		pw:      pw,
		browser: b,
		page:    page,
		log:     log,
		timeout: l.opts.DefaultTimeout,
	}, nil
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	log     *zap.Logger
	timeout time.Duration

	closed atomic.Bool
}

// ready rejects calls on a closed session or a finished context.
func (s *playwrightSession) ready(ctx context.Context) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return ctx.Err()
}

func (s *playwrightSession) timeoutMS(ctx context.Context) *float64 {
	return playwright.Float(float64(budget(ctx, s.timeout).Milliseconds()))
}

func (s *playwrightSession) Navigate(ctx context.Context, url string, wait WaitMode) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	resp, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntil(wait),
		Timeout:   s.timeoutMS(ctx),
	})
	if err != nil {
		return fmt.Errorf("navigate %q: %w", url, err)
	}
	if resp != nil {
		s.log.Debug("navigated", zap.String("url", url), zap.Int("status", resp.Status()), zap.Stringer("wait", wait))
	}
	return nil
}

func (s *playwrightSession) Title(ctx context.Context) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	title, err := s.page.Title()
	if err != nil {
		return "", fmt.Errorf("get title: %w", err)
	}
	return title, nil
}

func (s *playwrightSession) Screenshot(ctx context.Context, path string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create screenshot directory: %w", err)
	}
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
		Timeout:  s.timeoutMS(ctx),
	})
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	return nil
}

func (s *playwrightSession) Content(ctx context.Context) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("get content: %w", err)
	}
	return html, nil
}

// Close shuts the browser and stops the driver.
func (s *playwrightSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	err := errors.Join(errs...)
	s.log.Debug("session closed", zap.Error(err))
	return err
}

func waitUntil(w WaitMode) *playwright.WaitUntilState {
	switch w {
	case WaitLoad:
		return playwright.WaitUntilStateLoad
	case WaitNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	default:
		return playwright.WaitUntilStateDomcontentloaded
	}
}

package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"LocalhostSuite/pkg/config"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ChromedpLauncher starts the system Chrome/Chromium over the DevTools
// protocol. No driver download is needed.
type ChromedpLauncher struct {
	opts *Options
	log  *zap.Logger
}

// NewChromedpLauncher creates a launcher. Chrome is not started until Launch.
func NewChromedpLauncher(log *zap.Logger, opts *Options) *ChromedpLauncher {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &ChromedpLauncher{opts: opts, log: log}
}

// stealthScript removes common automation fingerprints.
const stealthScript = `(function(){
	Object.defineProperty(navigator,'webdriver',{get:()=>undefined});
	window.chrome={runtime:{}};
	Object.defineProperty(navigator,'languages',{get:()=>['en-US','en']});
})();`

// Launch starts Chrome with one tab and waits until the browser answers.
func (l *ChromedpLauncher) Launch(ctx context.Context, cfg config.SessionConfig) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := engineLogger(l.log, config.EngineChromedp, cfg)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(l.opts.ViewportWidth, l.opts.ViewportHeight),
	)
	if l.opts.Stealth {
		allocOpts = append(allocOpts, chromedp.Flag("disable-blink-features", "AutomationControlled"))
	}
	if l.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(l.opts.UserAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	sugar := log.Sugar()
	ctxOpts := []chromedp.ContextOption{
		chromedp.WithLogf(sugar.Infof),
		chromedp.WithErrorf(sugar.Errorf),
	}
	if cfg.Verbosity >= config.MaxVerbosity {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(sugar.Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	// The first Run starts Chrome and must use the tab context itself; a
	// derived timeout context would tie the browser's lifetime to it.
	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx)
	stop()
	if err != nil {
		tabCancel()
		allocCancel()
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, fmt.Errorf("Chrome failed to start (is Google Chrome or Chromium installed?): %w", err)
	}

	log.Info("session ready", zap.Bool("headless", cfg.Headless), zap.Int("verbosity", cfg.Verbosity))
	return &chromedpSession{
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		opts:        l.opts,
		log:         log,
	}, nil
}

type chromedpSession struct {
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	opts        *Options
	log         *zap.Logger

	closed atomic.Bool
}

// run executes actions on the tab, bounded by the default timeout and by ctx.
func (s *chromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.tabCtx.Err(); err != nil {
		return fmt.Errorf("browser tab context expired: %w", err)
	}

	runCtx, cancel := context.WithTimeout(s.tabCtx, budget(ctx, s.opts.DefaultTimeout))
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *chromedpSession) Navigate(ctx context.Context, url string, wait WaitMode) error {
	actions := []chromedp.Action{
		chromedp.EmulateViewport(int64(s.opts.ViewportWidth), int64(s.opts.ViewportHeight)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if s.opts.Stealth {
				return chromedp.Evaluate(stealthScript, nil).Do(ctx)
			}
			return nil
		}),
		navigateAndWait(url, wait),
	}

	start := time.Now()
	if err := s.run(ctx, actions...); err != nil {
		if isTimeout(err) {
			return fmt.Errorf("navigate %q: timed out after %s waiting for %s: %w", url, time.Since(start).Round(time.Millisecond), wait, err)
		}
		return fmt.Errorf("navigate %q: %w", url, err)
	}
	s.log.Debug("navigated", zap.String("url", url), zap.Stringer("wait", wait))
	return nil
}

// navigateAndWait issues Page.navigate directly and returns once the event
// selected by wait fires. chromedp.Navigate always waits for the load event,
// which a single stalled subresource can hold back.
func navigateAndWait(url string, wait WaitMode) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		listenCtx, stopListening := context.WithCancel(ctx)
		defer stopListening()

		// the listener runs on chromedp's event loop and must never block
		signals := make(chan cdp.LoaderID, 16)
		chromedp.ListenTarget(listenCtx, func(ev interface{}) {
			if loader, ok := navigationSignal(ev, wait); ok {
				select {
				case signals <- loader:
				default:
				}
			}
		})

		if wait == WaitNetworkIdle {
			if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
				return fmt.Errorf("enable lifecycle events: %w", err)
			}
		}

		var res page.NavigateReturns
		if err := cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), &res); err != nil {
			return err
		}
		if res.ErrorText != "" {
			return fmt.Errorf("page load error %s", res.ErrorText)
		}

		for {
			select {
			case loader := <-signals:
				if loader == "" || loader == res.LoaderID {
					return nil
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}

// navigationSignal reports whether ev completes a navigation waiting for
// wait. Lifecycle events carry the loader they belong to so that a stale
// networkIdle from the previous document can be told apart; the other
// events return an empty loader.
func navigationSignal(ev interface{}, wait WaitMode) (cdp.LoaderID, bool) {
	switch e := ev.(type) {
	case *page.EventDomContentEventFired:
		return "", wait == WaitDOMReady
	case *page.EventLoadEventFired:
		return "", wait == WaitLoad
	case *page.EventLifecycleEvent:
		return e.LoaderID, wait == WaitNetworkIdle && e.Name == "networkIdle"
	default:
		return "", false
	}
}

func (s *chromedpSession) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("get title: %w", err)
	}
	return title, nil
}

// Screenshot saves a full-page PNG to path.
func (s *chromedpSession) Screenshot(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("path is required")
	}
	var buf []byte
	// quality 100 selects PNG
	if err := s.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if len(buf) == 0 {
		return fmt.Errorf("screenshot produced empty image, page may not have loaded properly")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create screenshot directory: %w", err)
	}
	return os.WriteFile(path, buf, 0644)
}

func (s *chromedpSession) Content(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("get content: %w", err)
	}
	return html, nil
}

// Close shuts the tab and the Chrome process.
func (s *chromedpSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := chromedp.Cancel(s.tabCtx)
	s.tabCancel()
	s.allocCancel()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	s.log.Debug("session closed", zap.Error(err))
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "deadline") || strings.Contains(s, "timeout")
}

// Package scenarios holds the browser test cases run by the suite.
package scenarios

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"LocalhostSuite/pkg/browser"
	"LocalhostSuite/pkg/config"
	"LocalhostSuite/pkg/logger"
	"LocalhostSuite/pkg/runner"
	"LocalhostSuite/pkg/utils"

	"go.uber.org/zap"
)

const (
	BasicNavigationID   = "basic-navigation"
	BasicNavigationName = "Basic navigation to localhost"

	defaultNavTimeout = 30 * time.Second
)

// Deps are the collaborators every test case needs.
type Deps struct {
	Launcher browser.Launcher
	Settings *config.Settings
	// Out receives the console log. Nil means stdout.
	Out io.Writer
}

type phase string

const (
	phaseInit         phase = "INIT"
	phaseSessionReady phase = "SESSION_READY"
	phaseNavigated    phase = "NAVIGATED"
	phaseVerified     phase = "VERIFIED"
	phaseCaptured     phase = "CAPTURED"
	phaseClosed       phase = "CLOSED"
	phaseFailed       phase = "FAILED"
)

// tracer records phase transitions of one test case to the debug log.
type tracer struct {
	log   *zap.Logger
	phase phase
}

func newTracer(id string) *tracer {
	t := &tracer{log: logger.GetLogger().Named("scenario").With(zap.String("test", id)), phase: phaseInit}
	t.log.Debug("phase", zap.String("phase", string(phaseInit)))
	return t
}

func (t *tracer) to(p phase) {
	t.log.Debug("phase", zap.String("from", string(t.phase)), zap.String("phase", string(p)))
	t.phase = p
}

func (t *tracer) fail(err error) {
	t.log.Debug("phase", zap.String("from", string(t.phase)), zap.String("phase", string(phaseFailed)), zap.Error(err))
	t.phase = phaseFailed
}

// navigationOverrides are applied on top of the environment defaults for
// this case: a visible browser with normal engine logging.
func navigationOverrides() config.Overrides {
	headless := false
	verbosity := 1
	return config.Overrides{Headless: &headless, Verbosity: &verbosity}
}

// BasicNavigation opens the configured localhost URL, checks that the page
// loads, reads its title and saves a screenshot.
func BasicNavigation(deps Deps) runner.TestCase {
	return runner.TestCase{
		Name: BasicNavigationName,
		Fn: func(ctx context.Context) (bool, error) {
			if deps.Settings == nil {
				return false, errors.New("basic navigation: no settings")
			}
			return basicNavigation(ctx, deps), nil
		},
	}
}

func basicNavigation(ctx context.Context, deps Deps) (ok bool) {
	log := logger.NewTestLogger(BasicNavigationName, deps.Out)
	trace := newTracer(BasicNavigationID)
	log.Start()

	log.Info("Initializing browser session...")
	session, err := browser.CreateSession(ctx, deps.Launcher, deps.Settings.Session, navigationOverrides())
	if err != nil {
		trace.fail(err)
		log.Error("Error during test:", err)
		log.End(false)
		return false
	}
	trace.to(phaseSessionReady)
	log.Success("Browser session initialized")

	defer func() {
		if err := browser.CloseSession(session); err != nil {
			log.Warning("Failed to close browser session", err)
			return
		}
		if ok {
			trace.to(phaseClosed)
		}
		log.Info("Browser session closed")
	}()

	if err := navigationSteps(ctx, deps.Settings, session, log, trace); err != nil {
		trace.fail(err)
		log.Error("Error during test:", err)
		log.End(false)
		return false
	}

	log.End(true)
	return true
}

func navigationSteps(ctx context.Context, settings *config.Settings, session browser.Session, log *logger.TestLogger, trace *tracer) error {
	url := settings.TargetURL("")
	log.Info(fmt.Sprintf("Navigating to %s...", url))

	timeout := settings.NavTimeout
	if timeout <= 0 {
		timeout = defaultNavTimeout
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	err := session.Navigate(navCtx, url, browser.WaitDOMReady)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("navigate to %s: timed out after %s: %w", url, timeout, err)
		}
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	trace.to(phaseNavigated)
	log.Success("Page loaded")

	title, err := session.Title(ctx)
	if err != nil {
		return fmt.Errorf("read page title: %w", err)
	}
	log.Info(fmt.Sprintf("Page title: %q", title))
	if want := settings.ExpectedTitle; want != "" {
		if !strings.Contains(title, want) {
			return fmt.Errorf("page title %q does not contain %q", title, want)
		}
		log.Success(fmt.Sprintf("Title contains %q", want))
	}
	trace.to(phaseVerified)

	path := filepath.Join(settings.ScreenshotDir, BasicNavigationID+".png")
	if err := session.Screenshot(ctx, path); err != nil {
		return fmt.Errorf("save screenshot: %w", err)
	}
	trace.to(phaseCaptured)
	log.Success("Screenshot saved: " + path)

	if settings.SettleDelay > 0 {
		if err := utils.Sleep(ctx, settings.SettleDelay); err != nil {
			return fmt.Errorf("settle delay: %w", err)
		}
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"LocalhostSuite/pkg/browser"
	"LocalhostSuite/pkg/config"
	"LocalhostSuite/pkg/logger"
	"LocalhostSuite/pkg/runner"
	"LocalhostSuite/pkg/scenarios"
	"LocalhostSuite/pkg/utils"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

type app struct {
	out    io.Writer
	errOut io.Writer

	newLauncher func(engine string, log *zap.Logger, opts *browser.Options) (browser.Launcher, error)
	installer   browser.Installer
	open        func(target string) error

	exitCode int
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:         out,
		errOut:      errOut,
		newLauncher: browser.NewLauncher,
		installer:   browser.DefaultInstaller(),
		open:        utils.OpenPath,
	}
}

var globalFlags = []cli.Flag{
	&cli.StringFlag{Name: "engine", Usage: "browser engine: playwright or chromedp (overrides BROWSER_ENGINE)"},
	&cli.StringFlag{Name: "url", Usage: "base URL under test (overrides LOCALHOST_URL)"},
	&cli.StringFlag{Name: "format", Value: runner.FormatNone, Usage: "extra report after the summary: " + strings.Join(runner.Formats, ", ")},
	&cli.StringFlag{Name: "report-file", Usage: "write the extra report to this file instead of stdout"},
	&cli.DurationFlag{Name: "pause", Usage: "pause between tests (overrides TEST_PAUSE)"},
	&cli.DurationFlag{Name: "settle", Usage: "delay after the screenshot (overrides SETTLE_DELAY)"},
	&cli.StringFlag{Name: "screenshot-dir", Usage: "screenshot directory (overrides SCREENSHOT_DIR)"},
	&cli.StringFlag{Name: "log-level", Usage: "debug log level (overrides LOG_LEVEL)"},
	&cli.StringFlag{Name: "log-file", Usage: "debug log file, JSON encoded (overrides LOG_FILE)"},
	&cli.BoolFlag{Name: "install", Usage: "install the Playwright driver and Chromium before running"},
	&cli.BoolFlag{Name: "stealth", Usage: "hide automation fingerprints from the page (overrides BROWSER_STEALTH)"},
	&cli.StringFlag{Name: "user-agent", Usage: "browser user agent (overrides USER_AGENT)"},
	&cli.BoolFlag{Name: "open", Usage: "open the screenshot directory when the run ends"},
}

func (a *app) cli() *cli.App {
	return &cli.App{
		Name:           "suite",
		Usage:          "end-to-end browser tests against a local web app",
		Version:        strings.TrimSuffix(Version+"-"+GitCommit, "-"),
		Writer:         a.out,
		ErrWriter:      a.errOut,
		Flags:          globalFlags,
		Action:         a.runAction,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run the registered tests (default)",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "only", Usage: "run a single test by id or name"}},
				Action: a.runAction,
			},
			{
				Name:   "list",
				Usage:  "list the registered tests",
				Action: a.listAction,
			},
			{
				Name:  "install",
				Usage: "install the Playwright driver and Chromium",
				Action: func(c *cli.Context) error {
					return a.installer.Install(true)
				},
			},
		},
	}
}

// run executes the CLI and returns the process exit code. Errors that stop
// the suite before any test runs are fatal: no summary is printed.
func (a *app) run(ctx context.Context, args []string) int {
	if err := a.cli().RunContext(ctx, args); err != nil {
		fmt.Fprintf(a.errOut, "fatal error in test suite: %v\n", err)
		return 1
	}
	return a.exitCode
}

func (a *app) listAction(c *cli.Context) error {
	for _, e := range scenarios.Registry {
		fmt.Fprintf(a.out, "%-20s %s\n", e.ID, e.Name)
	}
	return nil
}

func (a *app) runAction(c *cli.Context) error {
	format := strings.ToLower(c.String("format"))
	if !slices.Contains(runner.Formats, format) {
		return fmt.Errorf("unknown report format %q (want one of %s)", format, strings.Join(runner.Formats, ", "))
	}

	settings, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyFlags(c, settings); err != nil {
		return err
	}

	if err := logger.Init(settings.LogLevel, settings.LogFile); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	log := logger.GetLogger()

	if settings.Engine == config.EnginePlaywright || c.Bool("install") {
		if err := a.installer.Ensure(c.Bool("install"), settings.Session.Verbosity > 1); err != nil {
			return err
		}
	}

	opts := browser.DefaultOptions()
	opts.DefaultTimeout = settings.NavTimeout
	opts.Stealth = settings.Stealth
	opts.UserAgent = settings.UserAgent
	launcher, err := a.newLauncher(settings.Engine, log, opts)
	if err != nil {
		return err
	}

	deps := scenarios.Deps{Launcher: launcher, Settings: settings, Out: a.out}
	cases, err := scenarios.Select(deps, c.String("only"))
	if err != nil {
		return err
	}

	log.Info("suite starting",
		zap.String("engine", settings.Engine),
		zap.String("url", settings.BaseURL),
		zap.Int("tests", len(cases)),
	)

	r := runner.New(cases,
		runner.WithPause(settings.Pause),
		runner.WithOutput(a.out),
		runner.WithLogger(log.Named("runner")),
	)
	summary := r.Run(c.Context)
	summary.Print(a.out)
	a.exitCode = summary.ExitCode()

	if err := a.writeReport(c.String("report-file"), summary, format); err != nil {
		log.Error("failed to write report", zap.Error(err))
		fmt.Fprintf(a.errOut, "failed to write report: %v\n", err)
	}
	if c.Bool("open") {
		if err := a.open(settings.ScreenshotDir); err != nil {
			log.Warn("failed to open screenshot directory", zap.String("dir", settings.ScreenshotDir), zap.Error(err))
		}
	}
	return nil
}

func (a *app) writeReport(path string, s *runner.Summary, format string) error {
	if format == runner.FormatNone {
		return nil
	}
	if path == "" {
		return runner.WriteReport(a.out, s, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := runner.WriteReport(f, s, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// applyFlags lets explicitly set flags override the environment.
func applyFlags(c *cli.Context, s *config.Settings) error {
	if c.IsSet("engine") {
		s.Engine = strings.ToLower(c.String("engine"))
	}
	if c.IsSet("url") {
		s.BaseURL = c.String("url")
	}
	if c.IsSet("pause") {
		s.Pause = c.Duration("pause")
	}
	if c.IsSet("settle") {
		s.SettleDelay = c.Duration("settle")
	}
	if c.IsSet("screenshot-dir") {
		s.ScreenshotDir = c.String("screenshot-dir")
	}
	if c.IsSet("log-level") {
		s.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-file") {
		s.LogFile = c.String("log-file")
	}
	if c.IsSet("stealth") {
		s.Stealth = c.Bool("stealth")
	}
	if c.IsSet("user-agent") {
		s.UserAgent = c.String("user-agent")
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

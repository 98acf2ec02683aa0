// Package config derives the suite's settings from the environment: the
// browser session defaults, the target URL and the harness timings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL   = "http://localhost:3000"
	DefaultVerbosity = 1
	MinVerbosity     = 0
	MaxVerbosity     = 2

	EnginePlaywright = "playwright"
	EngineChromedp   = "chromedp"
)

// SessionConfig configures one automation session.
type SessionConfig struct {
	Headless  bool
	Verbosity int
	DebugDOM  bool
}

// Overrides are caller-supplied session settings. Nil fields keep the default.
type Overrides struct {
	Headless  *bool
	Verbosity *int
	DebugDOM  *bool
}

// Merge applies o on top of c field by field and clamps the verbosity.
func (c SessionConfig) Merge(o Overrides) SessionConfig {
	merged := c
	if o.Headless != nil {
		merged.Headless = *o.Headless
	}
	if o.Verbosity != nil {
		merged.Verbosity = *o.Verbosity
	}
	if o.DebugDOM != nil {
		merged.DebugDOM = *o.DebugDOM
	}
	merged.Verbosity = ClampVerbosity(merged.Verbosity)
	return merged
}

// ClampVerbosity saturates v into [MinVerbosity, MaxVerbosity].
func ClampVerbosity(v int) int {
	return min(MaxVerbosity, max(MinVerbosity, v))
}

// Settings holds everything the suite reads from the environment.
type Settings struct {
	Session       SessionConfig
	BaseURL       string
	Engine        string
	ScreenshotDir string
	NavTimeout    time.Duration
	Pause         time.Duration
	SettleDelay   time.Duration
	ExpectedTitle string
	LogLevel      string
	LogFile       string

	// Stealth hides the usual automation fingerprints from the page.
	Stealth   bool
	UserAgent string
}

// TargetURL returns the base URL with path appended verbatim.
func (s *Settings) TargetURL(path string) string {
	return s.BaseURL + path
}

// strictBool is true only for the exact string "true".
type strictBool bool

// lenientInt falls back to DefaultVerbosity when the value is not an integer.
type lenientInt int

// environment mirrors the variables the suite understands.
type environment struct {
	Headless      strictBool    `env:"HEADLESS"`
	Verbose       lenientInt    `env:"VERBOSE" envDefault:"1"`
	DebugDOM      strictBool    `env:"DEBUG_DOM"`
	LocalhostURL  string        `env:"LOCALHOST_URL" envDefault:"http://localhost:3000"`
	Engine        string        `env:"BROWSER_ENGINE" envDefault:"playwright"`
	ScreenshotDir string        `env:"SCREENSHOT_DIR" envDefault:"screenshots"`
	NavTimeout    time.Duration `env:"NAV_TIMEOUT" envDefault:"30s"`
	TestPause     time.Duration `env:"TEST_PAUSE" envDefault:"1s"`
	SettleDelay   time.Duration `env:"SETTLE_DELAY" envDefault:"2s"`
	ExpectedTitle string        `env:"EXPECTED_TITLE"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"WARN"`
	LogFile       string        `env:"LOG_FILE"`
	Stealth       strictBool    `env:"BROWSER_STEALTH"`
	UserAgent     string        `env:"USER_AGENT"`
}

var parsers = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf(strictBool(false)): func(v string) (interface{}, error) {
		return strictBool(v == "true"), nil
	},
	reflect.TypeOf(lenientInt(0)): func(v string) (interface{}, error) {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return lenientInt(DefaultVerbosity), nil
		}
		return lenientInt(n), nil
	},
}

func parseEnvironment() (environment, error) {
	var e environment
	if err := env.ParseWithOptions(&e, env.Options{FuncMap: parsers}); err != nil {
		return environment{}, fmt.Errorf("parse environment: %w", err)
	}
	return e, nil
}

// LoadDotEnv loads ./.env when present. Variables already set in the process
// environment take precedence.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads .env and the environment into Settings and validates them.
func Load() (*Settings, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	e, err := parseEnvironment()
	if err != nil {
		return nil, err
	}

	s := &Settings{
		Session: SessionConfig{
			Headless:  bool(e.Headless),
			Verbosity: int(e.Verbose),
			DebugDOM:  bool(e.DebugDOM),
		},
		BaseURL:       e.LocalhostURL,
		Engine:        strings.ToLower(strings.TrimSpace(e.Engine)),
		ScreenshotDir: e.ScreenshotDir,
		NavTimeout:    e.NavTimeout,
		Pause:         e.TestPause,
		SettleDelay:   e.SettleDelay,
		ExpectedTitle: e.ExpectedTitle,
		LogLevel:      e.LogLevel,
		LogFile:       e.LogFile,
		Stealth:       bool(e.Stealth),
		UserAgent:     e.UserAgent,
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return s, nil
}

// DefaultSessionConfig returns the session defaults derived from HEADLESS,
// VERBOSE and DEBUG_DOM. The verbosity is not clamped here; Merge does that.
func DefaultSessionConfig() SessionConfig {
	e, err := parseEnvironment()
	if err != nil {
		return SessionConfig{Verbosity: DefaultVerbosity}
	}
	return SessionConfig{
		Headless:  bool(e.Headless),
		Verbosity: int(e.Verbose),
		DebugDOM:  bool(e.DebugDOM),
	}
}

// ResolveTargetURL returns LOCALHOST_URL (or the default) with path appended
// verbatim. Slashes are the caller's responsibility.
func ResolveTargetURL(path string) string {
	e, err := parseEnvironment()
	if err != nil || e.LocalhostURL == "" {
		return DefaultBaseURL + path
	}
	return e.LocalhostURL + path
}

// Validate checks the settings for values the suite cannot run with.
func (s *Settings) Validate() error {
	if err := validateURL(s.BaseURL); err != nil {
		return fmt.Errorf("invalid LOCALHOST_URL: %w", err)
	}

	switch s.Engine {
	case EnginePlaywright, EngineChromedp:
	default:
		return fmt.Errorf("unknown browser engine %q (want %q or %q)", s.Engine, EnginePlaywright, EngineChromedp)
	}

	if s.ScreenshotDir == "" {
		return fmt.Errorf("screenshot directory is required")
	}
	if s.NavTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be positive")
	}
	if s.Pause < 0 || s.SettleDelay < 0 {
		return fmt.Errorf("pause and settle delay cannot be negative")
	}
	return nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL is required")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("URL must have a valid host")
	}

	return nil
}

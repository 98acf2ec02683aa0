// Package runner executes registered test cases one at a time and reports
// the outcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"LocalhostSuite/pkg/logger"
	"LocalhostSuite/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPause is the wait inserted between consecutive tests so the
// browser engine can release its resources.
const DefaultPause = time.Second

// TestFunc runs one test case. It reports failure by returning false; a
// returned error (or a panic) means the case broke past its own handling.
type TestFunc func(ctx context.Context) (bool, error)

// TestCase is a named test registered with the runner.
type TestCase struct {
	Name string
	Fn   TestFunc
}

// Result is the recorded outcome of one test case.
type Result struct {
	Name     string        `json:"name"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration_ns"`
	Err      string        `json:"error,omitempty"`
}

// Runner executes test cases sequentially.
type Runner struct {
	cases []TestCase
	pause time.Duration
	out   io.Writer
	log   *zap.Logger
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithPause sets the wait between consecutive tests. Zero disables it.
func WithPause(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.pause = d
		}
	}
}

// WithOutput sets where banners, critical errors and the summary go.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// New creates a runner for cases, run in the given order.
func New(cases []TestCase, opts ...Option) *Runner {
	r := &Runner{
		cases: cases,
		pause: DefaultPause,
		out:   os.Stdout,
		log:   logger.GetLogger().Named("runner"),
		now:   time.Now,
		sleep: utils.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every case in registration order and returns the summary.
// A failing or crashing case never stops the run. Once ctx is done the
// remaining cases are recorded as failed without being started.
func (r *Runner) Run(ctx context.Context) *Summary {
	summary := &Summary{
		RunID:   uuid.New().String(),
		Started: r.now(),
		Results: make([]Result, 0, len(r.cases)),
	}
	log := r.log.With(zap.String("run_id", summary.RunID))
	theme := logger.NewTheme(r.out)

	printBanner(r.out, theme, "LOCALHOST TEST SUITE")
	log.Info("run started", zap.Int("tests", len(r.cases)))

	for i, tc := range r.cases {
		if err := ctx.Err(); err != nil {
			summary.Results = append(summary.Results, Result{Name: tc.Name, Err: err.Error()})
			log.Warn("test skipped", zap.String("test", tc.Name), zap.Error(err))
			continue
		}

		start := r.now()
		ok, err := r.runOne(ctx, tc)
		duration := r.now().Sub(start)

		result := Result{Name: tc.Name, Success: ok && err == nil, Duration: duration}
		if err != nil {
			result.Err = err.Error()
			fmt.Fprintln(r.out)
			fmt.Fprintln(r.out, theme.FailBold.Render(fmt.Sprintf("✗ critical error in %s: %v", tc.Name, err)))
			log.Error("critical test error", zap.String("test", tc.Name), zap.Error(err))
		}
		summary.Results = append(summary.Results, result)
		log.Info("test finished", zap.String("test", tc.Name), zap.Bool("success", result.Success), zap.Duration("duration", duration))

		if i < len(r.cases)-1 {
			if err := r.sleep(ctx, r.pause); err != nil {
				log.Warn("pause interrupted", zap.Error(err))
			}
		}
	}

	log.Info("run finished",
		zap.Int("passed", summary.Passed()),
		zap.Int("failed", summary.Failed()),
		zap.Duration("duration", summary.Duration()),
	)
	return summary
}

// runOne invokes tc, converting a panic into an error.
func (r *Runner) runOne(ctx context.Context, tc TestCase) (ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Debug("test panicked", zap.String("test", tc.Name), zap.ByteString("stack", debug.Stack()))
			ok = false
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	if tc.Fn == nil {
		return false, errors.New("test case has no function")
	}
	return tc.Fn(ctx)
}

// RunAll runs cases, prints the summary and returns the process exit code.
func RunAll(ctx context.Context, cases []TestCase, opts ...Option) int {
	r := New(cases, opts...)
	summary := r.Run(ctx)
	summary.Print(r.out)
	return summary.ExitCode()
}

package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// clock is a manual time source; tests advance it to simulate work.
type clock struct {
	cur time.Time
}

func newClock() *clock {
	return &clock{cur: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time {
	return c.cur
}

func (c *clock) advance(d time.Duration) {
	c.cur = c.cur.Add(d)
}

// pauses records requested pauses and advances the clock by them.
type pauses struct {
	clock *clock
	calls []time.Duration
}

func (p *pauses) sleep(ctx context.Context, d time.Duration) error {
	p.calls = append(p.calls, d)
	p.clock.advance(d)
	return ctx.Err()
}

func newTestRunner(t *testing.T, cases []TestCase, opts ...Option) (*Runner, *clock, *pauses, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := newClock()
	p := &pauses{clock: c}
	r := New(cases, append([]Option{WithOutput(&out), WithLogger(zap.NewNop())}, opts...)...)
	r.now = c.now
	r.sleep = p.sleep
	return r, c, p, &out
}

func timed(c **clock, d time.Duration, ok bool) TestFunc {
	return func(ctx context.Context) (bool, error) {
		(*c).advance(d)
		return ok, nil
	}
}

func TestRunRecordsEveryCaseInOrder(t *testing.T) {
	var c *clock
	cases := []TestCase{
		{Name: "first", Fn: timed(&c, 500*time.Millisecond, true)},
		{Name: "second", Fn: timed(&c, 250*time.Millisecond, false)},
		{Name: "third", Fn: timed(&c, time.Second, true)},
	}
	r, clk, p, _ := newTestRunner(t, cases)
	c = clk

	s := r.Run(context.Background())

	require.Len(t, s.Results, 3)
	assert.Equal(t, []Result{
		{Name: "first", Success: true, Duration: 500 * time.Millisecond},
		{Name: "second", Success: false, Duration: 250 * time.Millisecond},
		{Name: "third", Success: true, Duration: time.Second},
	}, s.Results)
	assert.Equal(t, 3, s.Total())
	assert.Equal(t, 2, s.Passed())
	assert.Equal(t, 1, s.Failed())
	assert.NotEmpty(t, s.RunID)

	// pauses sit between tests only and never count towards durations
	assert.Equal(t, []time.Duration{DefaultPause, DefaultPause}, p.calls)
	assert.Equal(t, 1750*time.Millisecond, s.Duration())
}

func TestRunPause(t *testing.T) {
	noop := func(ctx context.Context) (bool, error) { return true, nil }

	t.Run("custom pause", func(t *testing.T) {
		r, _, p, _ := newTestRunner(t, []TestCase{{"a", noop}, {"b", noop}}, WithPause(250*time.Millisecond))
		r.Run(context.Background())
		assert.Equal(t, []time.Duration{250 * time.Millisecond}, p.calls)
	})

	t.Run("single test has no pause", func(t *testing.T) {
		r, _, p, _ := newTestRunner(t, []TestCase{{"a", noop}})
		r.Run(context.Background())
		assert.Empty(t, p.calls)
	})

	t.Run("negative pause is ignored", func(t *testing.T) {
		r, _, p, _ := newTestRunner(t, []TestCase{{"a", noop}, {"b", noop}}, WithPause(-time.Second))
		r.Run(context.Background())
		assert.Equal(t, []time.Duration{DefaultPause}, p.calls)
	})
}

func TestRunCriticalErrorsDoNotStopTheRun(t *testing.T) {
	var ran []string
	cases := []TestCase{
		{Name: "returns error", Fn: func(ctx context.Context) (bool, error) {
			ran = append(ran, "returns error")
			return true, errors.New("browser crashed")
		}},
		{Name: "panics", Fn: func(ctx context.Context) (bool, error) {
			ran = append(ran, "panics")
			panic("boom")
		}},
		{Name: "no function"},
		{Name: "passes", Fn: func(ctx context.Context) (bool, error) {
			ran = append(ran, "passes")
			return true, nil
		}},
	}

	core, logs := observer.New(zapcore.DebugLevel)
	r, _, _, out := newTestRunner(t, cases, WithLogger(zap.New(core)))
	s := r.Run(context.Background())

	assert.Equal(t, []string{"returns error", "panics", "passes"}, ran)
	require.Len(t, s.Results, 4)
	assert.False(t, s.Results[0].Success)
	assert.Equal(t, "browser crashed", s.Results[0].Err)
	assert.False(t, s.Results[1].Success)
	assert.Equal(t, "panic: boom", s.Results[1].Err)
	assert.False(t, s.Results[2].Success)
	assert.True(t, s.Results[3].Success)

	assert.Contains(t, out.String(), "critical error in returns error: browser crashed")
	assert.Contains(t, out.String(), "critical error in panics: panic: boom")

	critical := logs.FilterMessage("critical test error").All()
	require.Len(t, critical, 3)
	assert.Equal(t, s.RunID, critical[0].ContextMap()["run_id"])
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	cases := []TestCase{
		{Name: "cancels", Fn: func(ctx context.Context) (bool, error) {
			calls++
			cancel()
			return true, nil
		}},
		{Name: "never starts", Fn: func(ctx context.Context) (bool, error) {
			calls++
			return true, nil
		}},
		{Name: "also never starts", Fn: func(ctx context.Context) (bool, error) {
			calls++
			return true, nil
		}},
	}
	r, _, _, _ := newTestRunner(t, cases)
	s := r.Run(ctx)

	assert.Equal(t, 1, calls)
	require.Len(t, s.Results, 3)
	assert.True(t, s.Results[0].Success)
	for _, res := range s.Results[1:] {
		assert.False(t, res.Success)
		assert.Equal(t, context.Canceled.Error(), res.Err)
	}
	assert.Equal(t, 1, s.ExitCode())
}

func TestSummaryExitCode(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    int
	}{
		{"no tests", nil, 0},
		{"all passed", []Result{{Name: "a", Success: true}, {Name: "b", Success: true}}, 0},
		{"one failed", []Result{{Name: "a", Success: true}, {Name: "b"}}, 1},
		{"all failed", []Result{{Name: "a"}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Summary{Results: tt.results}
			assert.Equal(t, tt.want, s.ExitCode())
			assert.Equal(t, tt.want == 0, s.AllPassed())
		})
	}
}

func TestSummaryPrint(t *testing.T) {
	t.Run("mixed results", func(t *testing.T) {
		s := &Summary{Results: []Result{
			{Name: "Basic Navigation", Success: true, Duration: 1230 * time.Millisecond},
			{Name: "Login", Success: true, Duration: 2 * time.Second},
			{Name: "Checkout", Success: false, Duration: 500 * time.Millisecond},
		}}
		var out bytes.Buffer
		s.Print(&out)
		got := out.String()

		assert.Contains(t, got, "TEST SUMMARY")
		assert.Contains(t, got, "✓ PASS │ Basic Navigation"+strings.Repeat(" ", 24)+" │ 1.23s")
		assert.Contains(t, got, "✗ FAIL │ Checkout")
		assert.Contains(t, got, "Total tests:    3\n")
		assert.Contains(t, got, "Passed:         2\n")
		assert.Contains(t, got, "Failed:         1\n")
		assert.Contains(t, got, "Total time:     3.73s\n")
		assert.Contains(t, got, "Success rate:   66.7%\n")
		assert.Contains(t, got, "1 test(s) failed. Check the logs above for details.")
		assert.NotContains(t, got, "All tests passed!")
	})

	t.Run("all passed", func(t *testing.T) {
		s := &Summary{Results: []Result{{Name: "a", Success: true, Duration: time.Second}}}
		var out bytes.Buffer
		s.Print(&out)
		assert.Contains(t, out.String(), "Success rate:   100.0%")
		assert.Contains(t, out.String(), "All tests passed!")
	})

	t.Run("no tests", func(t *testing.T) {
		s := &Summary{}
		var out bytes.Buffer
		s.Print(&out)
		assert.Equal(t, 0, s.Total())
		assert.Equal(t, 100.0, s.SuccessRate())
		assert.Contains(t, out.String(), "Total tests:    0\n")
		assert.Contains(t, out.String(), "Success rate:   100.0%")
		assert.Contains(t, out.String(), "No tests registered.")
	})
}

func TestRunAll(t *testing.T) {
	pass := func(ctx context.Context) (bool, error) { return true, nil }
	fail := func(ctx context.Context) (bool, error) { return false, nil }

	tests := []struct {
		name  string
		cases []TestCase
		want  int
	}{
		{"empty", nil, 0},
		{"passing", []TestCase{{"a", pass}}, 0},
		{"failing", []TestCase{{"a", pass}, {"b", fail}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code := RunAll(context.Background(), tt.cases, WithOutput(&out), WithPause(0), WithLogger(zap.NewNop()))
			assert.Equal(t, tt.want, code)
			assert.Contains(t, out.String(), "LOCALHOST TEST SUITE")
			assert.Contains(t, out.String(), "TEST SUMMARY")
		})
	}
}

func TestWriteReport(t *testing.T) {
	s := &Summary{
		RunID:   "run-1",
		Started: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Results: []Result{
			{Name: "alpha", Success: true, Duration: 500 * time.Millisecond},
			{Name: "beta", Success: false, Duration: time.Second, Err: "timeout"},
		},
	}

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, WriteReport(&out, s, FormatJSON))

		var got jsonReport
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, "run-1", got.RunID)
		assert.Equal(t, 2, got.Total)
		assert.Equal(t, 1, got.Passed)
		assert.Equal(t, 50.0, got.SuccessRate)
		assert.Equal(t, int64(1500*time.Millisecond), got.DurationNs)
		assert.Equal(t, s.Results, got.Results)
	})

	t.Run("csv", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, WriteReport(&out, s, FormatCSV))
		assert.Contains(t, out.String(), "1,alpha,PASS,0.50s,")
		assert.Contains(t, out.String(), "2,beta,FAIL,1.00s,timeout")
	})

	t.Run("markdown", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, WriteReport(&out, s, FormatMarkdown))
		assert.Contains(t, out.String(), "| alpha |")
		assert.Contains(t, out.String(), "| FAIL |")
	})

	t.Run("table", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, WriteReport(&out, s, FormatTable))
		assert.Contains(t, out.String(), "alpha")
		// the default style upper-cases the footer
		assert.Contains(t, strings.ToUpper(out.String()), "1 PASSED, 1 FAILED")
	})

	t.Run("none", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, WriteReport(&out, s, FormatNone))
		assert.Empty(t, out.String())
	})

	t.Run("unknown", func(t *testing.T) {
		err := WriteReport(&bytes.Buffer{}, s, "xml")
		assert.ErrorContains(t, err, `unknown report format "xml"`)
	})
}

// Package logger provides the scoped console logger used by test cases and the
// structured zap debug log that backs it.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"LocalhostSuite/pkg/utils"

	"go.uber.org/zap"
)

type Level string

const (
	INFO    Level = "INFO"
	SUCCESS Level = "SUCCESS"
	WARNING Level = "WARNING"
	ERROR   Level = "ERROR"
)

const borderWidth = 40

// TestLogger prints timestamped, colour-coded lines grouped under one test
// scope. Each test case owns exactly one.
type TestLogger struct {
	name  string
	start time.Time
	out   io.Writer
	theme Theme
	debug *zap.Logger
	now   func() time.Time
}

// NewTestLogger creates a logger for the named scope writing to w.
// A nil w writes to stdout.
func NewTestLogger(name string, w io.Writer) *TestLogger {
	if w == nil {
		w = os.Stdout
	}
	return &TestLogger{
		name:  name,
		out:   w,
		theme: NewTheme(w),
		debug: GetLogger().Named("test").With(zap.String("scope", name)),
		now:   time.Now,
	}
}

// Start records the reference time and prints the scope header.
func (l *TestLogger) Start() {
	l.start = l.now()
	border := strings.Repeat("=", borderWidth)

	fmt.Fprintln(l.out)
	fmt.Fprintln(l.out, l.theme.HeaderBold.Render(border))
	fmt.Fprintln(l.out, l.theme.HeaderBold.Render("Test: "+l.name))
	fmt.Fprintln(l.out, l.theme.Header.Render(border))
	fmt.Fprintln(l.out)

	l.debug.Debug("scope started")
}

// Log prints one line at level. Optional details are pretty-printed beneath it.
func (l *TestLogger) Log(level Level, message string, details ...any) {
	message = utils.SanitizeLog(message)
	style, glyph := l.theme.forLevel(level)
	timestamp := l.now().Format("15:04:05")

	fmt.Fprintln(l.out, style.Render(fmt.Sprintf("%s [%s] %s", glyph, timestamp, message)))

	fields := []zap.Field{zap.String("level", string(level))}
	if len(details) > 0 {
		rendered := formatDetails(details)
		fmt.Fprintln(l.out, l.theme.Dim.Render(rendered))
		fields = append(fields, zap.String("details", rendered))
	}
	l.debug.Debug(message, fields...)
}

func (l *TestLogger) Info(message string, details ...any) {
	l.Log(INFO, message, details...)
}

func (l *TestLogger) Success(message string, details ...any) {
	l.Log(SUCCESS, message, details...)
}

func (l *TestLogger) Warning(message string, details ...any) {
	l.Log(WARNING, message, details...)
}

func (l *TestLogger) Error(message string, details ...any) {
	l.Log(ERROR, message, details...)
}

// End prints the scope footer with the verdict and the time elapsed since
// Start, and returns that duration.
func (l *TestLogger) End(success bool) time.Duration {
	elapsed := l.now().Sub(l.start)
	border := strings.Repeat("=", borderWidth)

	fmt.Fprintln(l.out)
	fmt.Fprintln(l.out, l.theme.Header.Render(border))
	if success {
		fmt.Fprintln(l.out, l.theme.PassBold.Render("✓ Test completed successfully"))
	} else {
		fmt.Fprintln(l.out, l.theme.FailBold.Render("✗ Test failed"))
	}
	fmt.Fprintln(l.out, l.theme.Dim.Render(fmt.Sprintf("Duration: %.2fs", elapsed.Seconds())))
	fmt.Fprintln(l.out, l.theme.Header.Render(border))
	fmt.Fprintln(l.out)

	l.debug.Debug("scope ended", zap.Bool("success", success), zap.Duration("elapsed", elapsed))
	return elapsed
}

// formatDetails renders details as indented JSON. Errors do not marshal
// usefully, so they are rendered by their message.
func formatDetails(details []any) string {
	var v any = details
	if len(details) == 1 {
		v = details[0]
	}
	v = errorsToStrings(v)

	b, err := json.MarshalIndent(v, "  ", "  ")
	if err != nil {
		return "  " + utils.SanitizeLog(fmt.Sprintf("%+v", v))
	}
	return "  " + utils.SanitizeLog(string(b))
}

func errorsToStrings(v any) any {
	switch val := v.(type) {
	case error:
		return val.Error()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = errorsToStrings(item)
		}
		return out
	default:
		return v
	}
}

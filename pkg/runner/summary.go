package runner

import (
	"fmt"
	"io"
	"strings"
	"time"

	"LocalhostSuite/pkg/logger"
)

const bannerWidth = 60

// Summary aggregates the results of one run.
type Summary struct {
	RunID   string
	Started time.Time
	Results []Result
}

// Total returns the number of recorded results.
func (s *Summary) Total() int {
	return len(s.Results)
}

func (s *Summary) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Success {
			n++
		}
	}
	return n
}

func (s *Summary) Failed() int {
	return s.Total() - s.Passed()
}

// Duration is the sum of the per-test durations; pauses are not included.
func (s *Summary) Duration() time.Duration {
	var d time.Duration
	for _, r := range s.Results {
		d += r.Duration
	}
	return d
}

// SuccessRate returns passed/total as a percentage. An empty run is 100%.
func (s *Summary) SuccessRate() float64 {
	if s.Total() == 0 {
		return 100
	}
	return float64(s.Passed()) / float64(s.Total()) * 100
}

// AllPassed reports whether no result failed.
func (s *Summary) AllPassed() bool {
	return s.Failed() == 0
}

// ExitCode is 0 when every test passed (or none ran) and 1 otherwise.
func (s *Summary) ExitCode() int {
	if s.AllPassed() {
		return 0
	}
	return 1
}

// Print writes the human-readable summary to w.
func (s *Summary) Print(w io.Writer) {
	theme := logger.NewTheme(w)
	printBanner(w, theme, "TEST SUMMARY")

	for _, r := range s.Results {
		status := theme.Pass.Render("✓ PASS")
		if !r.Success {
			status = theme.Fail.Render("✗ FAIL")
		}
		fmt.Fprintf(w, "%s │ %-40s │ %s\n", status, r.Name, seconds(r.Duration))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("─", bannerWidth+4))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total tests:    %d\n", s.Total())
	fmt.Fprintf(w, "Passed:         %d\n", s.Passed())
	fmt.Fprintf(w, "Failed:         %d\n", s.Failed())
	fmt.Fprintf(w, "Total time:     %s\n", seconds(s.Duration()))
	fmt.Fprintf(w, "Success rate:   %.1f%%\n", s.SuccessRate())
	fmt.Fprintln(w)

	switch {
	case s.Total() == 0:
		fmt.Fprintln(w, theme.Warn.Render("No tests registered."))
	case s.AllPassed():
		fmt.Fprintln(w, theme.PassBold.Render("All tests passed!"))
	default:
		fmt.Fprintln(w, theme.FailBold.Render(fmt.Sprintf("%d test(s) failed. Check the logs above for details.", s.Failed())))
	}
	fmt.Fprintln(w)
}

func printBanner(w io.Writer, theme logger.Theme, title string) {
	pad := bannerWidth - len(title)
	left := pad / 2
	line := "║" + strings.Repeat(" ", left) + title + strings.Repeat(" ", pad-left) + "║"

	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.HeaderBold.Render("╔"+strings.Repeat("═", bannerWidth)+"╗"))
	fmt.Fprintln(w, theme.HeaderBold.Render(line))
	fmt.Fprintln(w, theme.HeaderBold.Render("╚"+strings.Repeat("═", bannerWidth)+"╝"))
	fmt.Fprintln(w)
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

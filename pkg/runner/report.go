package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Report formats accepted by WriteReport.
const (
	FormatNone     = "none"
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// Formats lists the report formats in the order shown to users.
var Formats = []string{FormatNone, FormatTable, FormatMarkdown, FormatCSV, FormatJSON}

type jsonReport struct {
	RunID       string    `json:"run_id"`
	Started     time.Time `json:"started"`
	Total       int       `json:"total"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	SuccessRate float64   `json:"success_rate"`
	DurationNs  int64     `json:"duration_ns"`
	Results     []Result  `json:"results"`
}

// WriteReport renders s in a machine-friendly format. FormatNone writes
// nothing.
func WriteReport(w io.Writer, s *Summary, format string) error {
	switch strings.ToLower(format) {
	case FormatNone, "":
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonReport{
			RunID:       s.RunID,
			Started:     s.Started,
			Total:       s.Total(),
			Passed:      s.Passed(),
			Failed:      s.Failed(),
			SuccessRate: s.SuccessRate(),
			DurationNs:  int64(s.Duration()),
			Results:     s.Results,
		})
	case FormatTable:
		_, err := fmt.Fprintln(w, resultsTable(s).Render())
		return err
	case FormatMarkdown:
		_, err := fmt.Fprintln(w, resultsTable(s).RenderMarkdown())
		return err
	case FormatCSV:
		_, err := fmt.Fprintln(w, resultsTable(s).RenderCSV())
		return err
	default:
		return fmt.Errorf("unknown report format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

func resultsTable(s *Summary) table.Writer {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Run %s (%s)", s.RunID, seconds(s.Duration())))
	t.AppendHeader(table.Row{"#", "Test", "Result", "Duration", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})

	for i, r := range s.Results {
		result := "PASS"
		if !r.Success {
			result = "FAIL"
		}
		t.AppendRow(table.Row{i + 1, r.Name, result, seconds(r.Duration), r.Err})
	}

	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d passed, %d failed", s.Passed(), s.Failed()),
		fmt.Sprintf("%.1f%%", s.SuccessRate()),
		seconds(s.Duration()),
		"",
	})
	return t
}

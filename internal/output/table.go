package output

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
)

type TableFormatter struct{}

func (t *TableFormatter) Format(w io.Writer, data Data) error {
	fmt.Fprintln(w, "\nCheck Results")
	fmt.Fprintln(w, "=============")
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"File",
		"Claimed",
		"Derived",
		"Status",
		"Bits",
		"Exponent",
		"Time",
		"Error",
	})

	table.SetBorder(false)
	table.SetCenterSeparator("|")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)

	for _, result := range data.Results {
		bits := ""
		if result.KeyBits > 0 {
			bits = fmt.Sprintf("%d", result.KeyBits)
		}
		table.Append([]string{
			filepath.Base(result.Source),
			result.Claimed,
			result.Address,
			string(result.Status),
			bits,
			result.Exponent,
			formatDuration(result.Duration),
			result.Error,
		})
	}

	table.Render()

	s := data.Summary
	fmt.Fprintln(w, "\nSummary")
	fmt.Fprintln(w, "-------")
	fmt.Fprintf(w, "Keys checked: %d\n", s.Total)
	fmt.Fprintf(w, "Passed: %d\n", s.Passed)
	fmt.Fprintf(w, "Mismatched: %d\n", s.Mismatched)
	fmt.Fprintf(w, "Errors: %d\n", s.Errored)
	fmt.Fprintf(w, "Total time: %s\n", formatDuration(s.TotalTime))
	if s.Total > 0 {
		fmt.Fprintf(w, "Average time: %s (min %s, max %s)\n",
			formatDuration(s.AverageTime), formatDuration(s.MinTime), formatDuration(s.MaxTime))
	}

	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/1000)
	} else if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.2fm", d.Minutes())
}

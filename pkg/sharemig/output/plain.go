package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// PlainFormatter formats output as a simple tab-separated table.
// It produces plain text output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, "SUBFOLDER\tSIZE\tFILES\tSTATUS\tCOMPLETED\tFAILED\tDURATION"); err != nil {
		return err
	}

	for _, row := range r.Rows {
		duration := ""
		if row.Duration > 0 {
			duration = formatDuration(row.Duration)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%d\t%s\n",
			row.Subfolder, row.SourceHuman, row.Files,
			row.Status, row.Completed, row.Failed, duration); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)

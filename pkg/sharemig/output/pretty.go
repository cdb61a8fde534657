package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatTable(r))
	w.WriteString(f.formatFooter(r))

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

// formatHeader builds the header box with batch metadata.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	rootLabel := LabelStyle.Render("Root:")
	rootValue := ValueStyle.Render(r.Root)
	lines = append(lines, fmt.Sprintf("%s %s", rootLabel, rootValue))

	countsLabel := LabelStyle.Render("Subfolders:")
	countsValue := ValueStyle.Render(fmt.Sprintf("%d", len(r.Rows)))
	status := fmt.Sprintf("%s  %s  %s  %s",
		SuccessStyle.Render(fmt.Sprintf("%d completed", r.Completed)),
		WarningStyle.Render(fmt.Sprintf("%d with errors", r.WithErrors)),
		ErrorStyle.Render(fmt.Sprintf("%d failed", r.Failed)),
		MutedStyle.Render(fmt.Sprintf("%d pending", r.Pending)))
	lines = append(lines, fmt.Sprintf("%s %s  %s", countsLabel, countsValue, status))

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatTable builds the per-subfolder table.
func (f *PrettyFormatter) formatTable(r *Result) string {
	if len(r.Rows) == 0 {
		return MutedStyle.Render("  No run directories found\n")
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("SUBFOLDER", f.nameWidth(r))),
		TableHeaderStyle.Render(padLeft("SIZE", 10)),
		TableHeaderStyle.Render(padLeft("FILES", 7)),
		TableHeaderStyle.Render("STATUS")))

	for _, row := range r.Rows {
		sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
			ValueStyle.Render(padRight(row.Subfolder, f.nameWidth(r))),
			SizeStyle.Render(padLeft(row.SourceHuman, 10)),
			ValueStyle.Render(padLeft(fmt.Sprintf("%d", row.Files), 7)),
			f.statusStyle(row.Status).Render(row.Status)))
	}
	return sb.String()
}

func (f *PrettyFormatter) nameWidth(r *Result) int {
	width := 12
	for _, row := range r.Rows {
		if len(row.Subfolder) > width {
			width = len(row.Subfolder)
		}
	}
	return width
}

func (f *PrettyFormatter) statusStyle(status string) interface{ Render(...string) string } {
	switch status {
	case "Completed":
		return SuccessStyle
	case "Failed":
		return ErrorStyle
	case "Pending":
		return MutedStyle
	default:
		return WarningStyle
	}
}

// formatFooter builds the footer box with aggregate totals.
func (f *PrettyFormatter) formatFooter(r *Result) string {
	parts := []string{
		fmt.Sprintf("%s %s",
			LabelStyle.Render("Inventoried:"),
			ValueStyle.Render(fmt.Sprintf("%d files / %d folders", r.TotalFiles, r.TotalFolders))),
		fmt.Sprintf("%s %s",
			LabelStyle.Render("Source:"),
			SizeStyle.Render(humanize.IBytes(uint64(r.TotalBytes)))),
		fmt.Sprintf("%s %s",
			LabelStyle.Render("Transferred:"),
			SizeStyle.Render(humanize.IBytes(uint64(r.BytesTransferred)))),
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder

	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

// padLeft pads a string with spaces on the left to achieve the desired width.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// padRight pads a string with spaces on the right to achieve the desired width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)

package main

import (
	"bytes"
	"fmt"

	"github.com/sharemig/sharemig/pkg/sharemig/output"
	"github.com/sharemig/sharemig/pkg/sharemig/report"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Maintain the central transfer-summary CSV",
	Long: `Every upload appends one row to a central transfer-summary CSV shared
by all concurrent workers and processes. These subcommands inspect and
maintain it: show renders it, flush folds queued rows from the pending
directory into the CSV, and dedupe rewrites it keeping only the newest
row per (subfolder, job).`,
}

var reportShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Render the central CSV",
	RunE:  runReportShow,
}

var reportFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Fold pending queue fragments into the central CSV",
	Long: `When an upload could not take the CSV lock within its retry budget, it
parked its row as a fragment in the pending directory next to the CSV.
Flush appends those fragments and removes them.`,
	RunE: runReportFlush,
}

var reportDedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Rewrite the central CSV keeping the newest row per subfolder and job",
	RunE:  runReportDedupe,
}

func init() {
	reportShowCmd.Flags().StringP("output", "o", "plain", "output format")

	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportFlushCmd)
	reportCmd.AddCommand(reportDedupeCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportShow(cmd *cobra.Command, args []string) error {
	outFormat, _ := cmd.Flags().GetString("output")
	formatter, err := output.Get(outFormat)
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v", outFormat, output.Available())
	}

	path := centralReportPath()
	rows, err := report.Read(path)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		printInfo("No summary rows recorded yet (%s).", path)
		return nil
	}

	result := &output.Result{Root: path}
	for _, t := range rows {
		result.Rows = append(result.Rows, output.Row{
			Subfolder:        t.Subfolder,
			Status:           string(t.Status),
			JobID:            t.JobID,
			Completed:        t.Completed,
			Failed:           t.Failed,
			Skipped:          t.Skipped,
			BytesTransferred: t.BytesTransferred,
			Duration:         t.Duration,
		})
		result.BytesTransferred += t.BytesTransferred
		switch t.Status {
		case types.TransferCompleted:
			result.Completed++
		case types.TransferCompletedWithErrors:
			result.WithErrors++
		case types.TransferFailed:
			result.Failed++
		}
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())
	return nil
}

func runReportFlush(cmd *cobra.Command, args []string) error {
	appender, err := newAppender()
	if err != nil {
		return err
	}

	n, err := appender.Drain()
	if err != nil {
		return fmt.Errorf("draining pending rows: %w", err)
	}
	printInfo("Flushed %d pending rows into %s", n, centralReportPath())
	return nil
}

func runReportDedupe(cmd *cobra.Command, args []string) error {
	appender, err := newAppender()
	if err != nil {
		return err
	}

	removed, err := appender.Rewrite()
	if err != nil {
		return fmt.Errorf("rewriting central CSV: %w", err)
	}
	printInfo("Removed %d superseded rows from %s", removed, centralReportPath())
	return nil
}

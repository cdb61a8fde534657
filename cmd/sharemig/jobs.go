package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sharemig/sharemig/pkg/sharemig/ledger"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Query the local upload-job ledger",
	Long: `Every upload records its azcopy job in a local ledger so past runs can
be inspected without digging through run directories.`,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded jobs, newest first",
	RunE:  runJobsList,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one recorded job in full",
	Long: `Prints the recorded job. With --refresh the summary is re-queried from
azcopy jobs show first, so a job whose counts were captured mid-run can be
brought up to date.`,
	Args: cobra.ExactArgs(1),
	RunE: runJobsShow,
}

var jobsRmCmd = &cobra.Command{
	Use:   "rm <job-id>",
	Short: "Remove a job from the ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsRm,
}

func init() {
	jobsListCmd.Flags().Int("limit", 20, "maximum number of jobs to list (0 = all)")
	jobsShowCmd.Flags().Bool("refresh", false, "re-query the job summary from azcopy before printing")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
	jobsCmd.AddCommand(jobsRmCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsList(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := l.List(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printInfo("No jobs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tSUBFOLDER\tSTATUS\tCOMPLETED\tFAILED\tTRANSFERRED\tSTARTED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			e.JobID, e.Subfolder, e.Status,
			e.Summary.Completed, e.Summary.Failed,
			types.FormatSize(e.Summary.BytesTransferred),
			e.StartedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	e, err := l.Get(args[0])
	if err != nil {
		return err
	}

	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		if err := refreshJob(cmd, l, e); err != nil {
			return err
		}
	}

	fmt.Printf("Job:         %s\n", e.JobID)
	fmt.Printf("Subfolder:   %s\n", e.Subfolder)
	fmt.Printf("Source:      %s\n", e.Source)
	fmt.Printf("Dest:        %s\n", e.Dest)
	fmt.Printf("Status:      %s\n", e.Status)
	fmt.Printf("Transfers:   %d total, %d completed, %d failed, %d skipped\n",
		e.Summary.TotalTransfers, e.Summary.Completed, e.Summary.Failed, e.Summary.Skipped)
	fmt.Printf("Transferred: %s\n", types.FormatSize(e.Summary.BytesTransferred))
	fmt.Printf("Duration:    %s\n", e.Summary.Duration.Round(time.Second))
	fmt.Printf("Started:     %s\n", e.StartedAt.Local().Format(time.RFC1123))
	if e.WrapperLog != "" {
		fmt.Printf("Wrapper log: %s\n", e.WrapperLog)
	}
	if e.NativeLog != "" {
		fmt.Printf("azcopy log:  %s\n", e.NativeLog)
	}
	return nil
}

// refreshJob re-queries the job summary via azcopy jobs show and writes the
// updated counts back to the ledger.
func refreshJob(cmd *cobra.Command, l *ledger.Ledger, e *ledger.Entry) error {
	c, err := buildAzcopyClient()
	if err != nil {
		return err
	}

	res, err := c.JobsShow(cmd.Context(), e.JobID)
	if err != nil {
		return fmt.Errorf("refreshing job %s: %w", e.JobID, err)
	}

	e.Status = res.Status
	e.Summary.Status = res.Status
	e.Summary.TotalTransfers = res.TotalTransfers
	e.Summary.Completed = res.Completed
	e.Summary.Failed = res.Failed
	e.Summary.Skipped = res.Skipped
	e.Summary.BytesTransferred = res.BytesTransferred
	if res.NativeLog != "" {
		e.NativeLog = res.NativeLog
	}
	if err := l.Put(e); err != nil {
		return err
	}
	printVerbose("Refreshed job %s from azcopy", e.JobID)
	return nil
}

func runJobsRm(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	if err := l.Delete(args[0]); err != nil {
		return err
	}
	printInfo("Removed job %s", args[0])
	return nil
}

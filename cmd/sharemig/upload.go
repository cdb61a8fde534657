package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sharemig/sharemig/pkg/sharemig/azcopy"
	"github.com/sharemig/sharemig/pkg/sharemig/inventory"
	"github.com/sharemig/sharemig/pkg/sharemig/ledger"
	"github.com/sharemig/sharemig/pkg/sharemig/logging"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [source]",
	Short: "Inventory one folder and upload it with azcopy copy",
	Long: `Run the full single-folder pipeline: inventory the source tree into a
run directory, then upload it to the Azure file share with azcopy copy,
parsing azcopy's JSON output into a summary row for the central
transfer-summary CSV.

The SAS token is read from --sas or the SHAREMIG_SAS environment
variable and is redacted from every log line. azcopy's own logs land in
<run-dir>/azcopy/; the wrapper's capture of azcopy output lands in
<run-dir>/upload-logs-N.txt.

The orchestrator's spawn mode re-invokes this command once per
subfolder.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd, args, false)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync [source]",
	Short: "Inventory one folder and mirror it with azcopy sync",
	Long: `Like upload, but uses azcopy sync so unchanged files are skipped and
re-runs only transfer the delta.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd, args, true)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{uploadCmd, syncCmd} {
		cmd.Flags().String("source", "", "source folder (alternative to the positional argument)")
		cmd.Flags().String("subfolder", "", "row name in the central CSV (default: source base name)")
		cmd.Flags().String("dest", "", "destination path inside the share (default: subfolder name)")
		cmd.Flags().String("out-dir", "", "run directory (default: ./<subfolder>-run-<id>)")
		cmd.Flags().Bool("dry-run", false, "inventory without renames and pass --dry-run to azcopy")
		cmd.Flags().Bool("preserve-permissions", false, "pass --preserve-smb-permissions to azcopy")
		cmd.Flags().Bool("sanitize", false, "rename invalid entries during the inventory pass")
		cmd.Flags().String("replacement", "", "replacement string for invalid characters")
		cmd.Flags().Int("max-depth", 0, "limit inventory descent depth (0 = unlimited)")
		cmd.Flags().StringSlice("exclude", nil, "glob patterns to skip")
		cmd.Flags().Bool("no-ledger", false, "skip recording the job in the local ledger")

		rootCmd.AddCommand(cmd)
	}
}

func runUpload(cmd *cobra.Command, args []string, sync bool) error {
	source, _ := cmd.Flags().GetString("source")
	if len(args) > 0 {
		source = args[0]
	}
	if source == "" {
		return fmt.Errorf("a source folder is required (positional argument or --source)")
	}
	source, err := resolveDir(source)
	if err != nil {
		return err
	}

	account := viper.GetString("account")
	share := viper.GetString("share")
	if account == "" || share == "" {
		return fmt.Errorf("--account and --share are required (or set them in the config file)")
	}
	sas := viper.GetString("sas")

	subfolder, _ := cmd.Flags().GetString("subfolder")
	if subfolder == "" {
		subfolder = filepath.Base(source)
	}
	dest, _ := cmd.Flags().GetString("dest")
	if dest == "" {
		dest = subfolder
	}
	outDir, _ := cmd.Flags().GetString("out-dir")
	if outDir == "" {
		outDir = fmt.Sprintf("%s-run-%s", subfolder, uuid.NewString()[:8])
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	preservePerms, _ := cmd.Flags().GetBool("preserve-permissions")
	noLedger, _ := cmd.Flags().GetBool("no-ledger")

	client, err := buildAzcopyClient()
	if err != nil {
		return fmt.Errorf("azcopy not available: %w", err)
	}

	appender, err := newAppender()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Inventory first: the walk doubles as an access check and, with
	// --sanitize, repairs names azcopy would reject.
	invOpts := inventory.Options{
		Root:        source,
		Sanitize:    flagBool(cmd, "sanitize", "sanitize"),
		Replacement: flagString(cmd, "replacement", "replacement"),
		DryRun:      dryRun,
		MaxDepth:    flagInt(cmd, "max-depth", "max_depth"),
		Exclude:     flagStringSlice(cmd, "exclude", "exclude"),
		ComputeSize: true,
	}

	printInfo("Inventorying %s...", source)
	invSummary, invErr := inventory.Run(ctx, invOpts, outDir)
	if invSummary == nil {
		return fmt.Errorf("inventory of %s failed: %w", source, invErr)
	}
	if invErr != nil {
		printError("Inventory incomplete, uploading anyway: %v", invErr)
	}
	printInfo("Inventoried %d folders, %d files, %s",
		invSummary.TotalFolders, invSummary.TotalFiles, types.FormatSize(invSummary.TotalBytes))

	wrapper, err := logging.NewSequenceWriter(outDir, "upload-logs", ".txt", 0)
	if err != nil {
		return err
	}
	defer wrapper.Close()

	destURL, err := azcopy.FileShareURL(account, share, dest, sas)
	if err != nil {
		return err
	}

	c := *client
	c.LogDir = filepath.Join(outDir, "azcopy")

	copyOpts := azcopy.CopyOptions{
		Source:              source,
		Destination:         destURL,
		PreservePermissions: preservePerms,
		DryRun:              dryRun,
	}
	var azArgs []string
	if sync {
		azArgs = c.SyncArgs(copyOpts)
	} else {
		azArgs = c.CopyArgs(copyOpts)
	}

	printInfo("Uploading %s -> %s...", source, azcopy.Redact(destURL))

	start := time.Now()
	result, runErr := c.Run(ctx, azArgs, wrapper)

	var summary *types.TransferSummary
	if result != nil {
		summary = result.Summary(subfolder, wrapper.Path())
	} else {
		summary = &types.TransferSummary{
			Subfolder:  subfolder,
			Status:     types.TransferFailed,
			Duration:   time.Since(start),
			Timestamp:  time.Now(),
			WrapperLog: wrapper.Path(),
		}
	}

	if err := appender.Append(summary); err != nil {
		printError("Failed to record summary row: %v", err)
	}

	if !noLedger && summary.JobID != "" {
		recordJob(source, azcopy.Redact(destURL), summary, start)
	}

	printInfo("Job %s: %s (%d completed, %d failed, %d skipped, %s in %s)",
		summary.JobID, summary.Status, summary.Completed, summary.Failed,
		summary.Skipped, types.FormatSize(summary.BytesTransferred),
		summary.Duration.Round(time.Second))

	if runErr != nil {
		return fmt.Errorf("upload of %s: %w", subfolder, runErr)
	}
	if summary.Status == types.TransferFailed {
		return fmt.Errorf("upload of %s failed, see %s", subfolder, summary.WrapperLog)
	}
	return nil
}

// recordJob best-effort writes the job outcome to the local ledger.
func recordJob(source, dest string, summary *types.TransferSummary, start time.Time) {
	l, err := openLedger()
	if err != nil {
		printVerbose("Ledger unavailable: %v", err)
		return
	}
	defer l.Close()

	entry := &ledger.Entry{
		JobID:      summary.JobID,
		Subfolder:  summary.Subfolder,
		Source:     source,
		Dest:       dest,
		Status:     summary.Status,
		Summary:    *summary,
		WrapperLog: summary.WrapperLog,
		StartedAt:  start,
	}
	if err := l.Put(entry); err != nil {
		printVerbose("Ledger write failed: %v", err)
	}
}

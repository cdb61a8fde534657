package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sharemig/sharemig/pkg/sharemig/orchestrate"
	"github.com/sharemig/sharemig/pkg/sharemig/output"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var orchestrateCmd = &cobra.Command{
	Use:   "orchestrate <root>",
	Short: "Migrate every subfolder of a share root in parallel",
	Long: `Enumerate the immediate subfolders of the share root and run the full
inventory-then-upload pipeline for each one, in parallel.

Worker mode (the default) runs a bounded pool of in-process workers;
the pool size is --parallel or, when zero, derived from CPU count and
available memory. Spawn mode (--spawn) launches one "sharemig upload"
child process per subfolder instead, pacing launches with
--launch-delay and holding them while system memory usage is above
--ram-limit.

A failing subfolder never stops the batch; every subfolder gets a row
in the central transfer-summary CSV either way. When the batch
finishes, the per-subfolder artifacts and the central CSV are
consolidated into one table.`,
	Args: cobra.ExactArgs(1),
	RunE: runOrchestrate,
}

func init() {
	orchestrateCmd.Flags().String("out-dir", "", "base directory for per-subfolder run directories (default: ./<root>-migration)")
	orchestrateCmd.Flags().String("dest", "", "destination path prefix inside the share")
	orchestrateCmd.Flags().Bool("sync", false, "use azcopy sync instead of copy")
	orchestrateCmd.Flags().Bool("spawn", false, "one child process per subfolder instead of in-process workers")
	orchestrateCmd.Flags().Bool("gather-loose", false, "move loose root-level files into a synthetic subfolder first")
	orchestrateCmd.Flags().Bool("watch", false, "report subfolders as their inventories complete")
	orchestrateCmd.Flags().Int("parallel", 0, "concurrent workers (0 = derive from system resources)")
	orchestrateCmd.Flags().Duration("launch-delay", 0, "pause between spawn-mode process launches")
	orchestrateCmd.Flags().Float64("ram-limit", 0, "hold spawn-mode launches above this memory usage percentage")
	orchestrateCmd.Flags().Bool("dry-run", false, "preview renames and pass --dry-run to azcopy")
	orchestrateCmd.Flags().Bool("preserve-permissions", false, "pass --preserve-smb-permissions to azcopy")
	orchestrateCmd.Flags().Bool("sanitize", false, "rename invalid entries during the inventory pass")
	orchestrateCmd.Flags().String("replacement", "", "replacement string for invalid characters")
	orchestrateCmd.Flags().Int("max-depth", 0, "limit inventory descent depth (0 = unlimited)")
	orchestrateCmd.Flags().StringSlice("exclude", nil, "glob patterns to skip")
	orchestrateCmd.Flags().StringP("output", "o", "pretty", "output format for the consolidated table")

	rootCmd.AddCommand(orchestrateCmd)
}

func runOrchestrate(cmd *cobra.Command, args []string) error {
	root, err := resolveDir(args[0])
	if err != nil {
		return err
	}

	account := viper.GetString("account")
	share := viper.GetString("share")
	if account == "" || share == "" {
		return fmt.Errorf("--account and --share are required (or set them in the config file)")
	}

	outFormat, _ := cmd.Flags().GetString("output")
	formatter, err := output.Get(outFormat)
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v", outFormat, output.Available())
	}

	outDir, _ := cmd.Flags().GetString("out-dir")
	if outDir == "" {
		outDir = filepath.Base(root) + "-migration"
	}

	destPrefix, _ := cmd.Flags().GetString("dest")
	sync, _ := cmd.Flags().GetBool("sync")
	spawn, _ := cmd.Flags().GetBool("spawn")
	gatherLoose, _ := cmd.Flags().GetBool("gather-loose")
	watch, _ := cmd.Flags().GetBool("watch")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	preservePerms, _ := cmd.Flags().GetBool("preserve-permissions")

	opts := orchestrate.Options{
		Root:                root,
		OutDir:              outDir,
		Account:             account,
		Share:               share,
		SAS:                 viper.GetString("sas"),
		DestPrefix:          destPrefix,
		Sync:                sync,
		DryRun:              dryRun,
		GatherLoose:         gatherLoose,
		Parallel:            flagInt(cmd, "parallel", "orchestrate.parallel"),
		Sanitize:            flagBool(cmd, "sanitize", "sanitize"),
		Replacement:         flagString(cmd, "replacement", "replacement"),
		MaxDepth:            flagInt(cmd, "max-depth", "max_depth"),
		Exclude:             flagStringSlice(cmd, "exclude", "exclude"),
		PreservePermissions: preservePerms,
		LaunchDelay:         launchDelay(cmd),
		RAMLimitPercent:     ramLimit(cmd),
	}

	appender, err := newAppender()
	if err != nil {
		return err
	}

	jobLedger, err := openLedger()
	if err != nil {
		printVerbose("Ledger unavailable: %v", err)
		jobLedger = nil
	} else {
		defer jobLedger.Close()
	}

	ctx, cancel := signalContext()
	defer cancel()

	o := orchestrate.New(opts, appender, jobLedger)

	if !spawn {
		client, err := buildAzcopyClient()
		if err != nil {
			return fmt.Errorf("azcopy not available: %w", err)
		}
		o.SetClient(client)
	}

	if watch {
		go func() {
			_ = orchestrate.Watch(ctx, outDir, func(runDir string) {
				printInfo("inventory complete: %s", filepath.Base(runDir))
			})
		}()
	}

	var results []orchestrate.SubfolderResult
	var batchErr error
	if spawn {
		results, batchErr = o.Spawn(ctx)
	} else {
		results, batchErr = o.Run(ctx)
	}

	// Fold in any rows that earlier runs parked in the pending queue.
	if n, err := appender.Drain(); err != nil {
		printVerbose("Draining pending rows failed: %v", err)
	} else if n > 0 {
		printVerbose("Drained %d pending summary rows", n)
	}

	consolidation, err := orchestrate.Consolidate(outDir, centralReportPath())
	if err != nil {
		printError("Consolidation failed: %v", err)
	} else {
		var buf bytes.Buffer
		if err := formatter.Format(&buf, output.FromConsolidation(root, consolidation)); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Print(buf.String())
	}

	if batchErr != nil {
		return batchErr
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil || (r.Transfer != nil && r.Transfer.Status == types.TransferFailed) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d subfolders failed", failed, len(results))
	}
	return nil
}

// launchDelay resolves the spawn-mode launch delay, preferring the flag
// over the configured duration string.
func launchDelay(cmd *cobra.Command) time.Duration {
	if cmd.Flags().Changed("launch-delay") {
		d, _ := cmd.Flags().GetDuration("launch-delay")
		return d
	}
	if d, err := time.ParseDuration(viper.GetString("orchestrate.launch_delay")); err == nil {
		return d
	}
	return 0
}

// ramLimit resolves the spawn-mode RAM throttle percentage.
func ramLimit(cmd *cobra.Command) float64 {
	if cmd.Flags().Changed("ram-limit") {
		v, _ := cmd.Flags().GetFloat64("ram-limit")
		return v
	}
	return viper.GetFloat64("orchestrate.ram_limit_percent")
}

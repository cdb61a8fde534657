package main

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sharemig/sharemig/pkg/sharemig/inventory"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
	"github.com/spf13/cobra"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory <root>",
	Short: "Inventory a folder tree with access probing",
	Long: `Walk a folder tree breadth-first, probing each directory for
listability, and stream one CSV row per entry into a run directory.

Every row is flushed as soon as it is written, so a crash or kill leaves a
usable partial inventory. Inaccessible subtrees are recorded and skipped;
they never abort the run.

Artifacts written to the run directory:
  inventory.csv                      every entry
  inventory-failed-or-denied.csv     only non-OK entries
  inventory.log                      per-run walk log
  folder-info.txt                    aggregate counters`,
	Args: cobra.ExactArgs(1),
	RunE: runInventory,
}

func init() {
	inventoryCmd.Flags().String("out-dir", "", "run directory (default: ./<root>-run-<id>)")
	inventoryCmd.Flags().Bool("sanitize", false, "rename entries whose names are invalid on Azure Files")
	inventoryCmd.Flags().String("replacement", "", "replacement string for invalid characters")
	inventoryCmd.Flags().Bool("dry-run", false, "report sanitization renames without touching the filesystem")
	inventoryCmd.Flags().Int("max-depth", 0, "limit descent depth (0 = unlimited)")
	inventoryCmd.Flags().StringSlice("exclude", nil, "glob patterns to skip")
	inventoryCmd.Flags().Bool("compute-size", true, "accumulate file sizes into the summary")
	inventoryCmd.Flags().Bool("quick-size", false, "parallel size pre-scan only, no inventory")

	rootCmd.AddCommand(inventoryCmd)
}

func runInventory(cmd *cobra.Command, args []string) error {
	root, err := resolveDir(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if quick, _ := cmd.Flags().GetBool("quick-size"); quick {
		size, err := inventory.QuickSize(ctx, root)
		if err != nil {
			return fmt.Errorf("quick size scan failed: %w", err)
		}
		fmt.Printf("%s\t%s\n", types.FormatSize(size), root)
		return nil
	}

	outDir, _ := cmd.Flags().GetString("out-dir")
	if outDir == "" {
		outDir = fmt.Sprintf("%s-run-%s", filepath.Base(root), uuid.NewString()[:8])
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	computeSize, _ := cmd.Flags().GetBool("compute-size")

	opts := inventory.Options{
		Root:        root,
		Sanitize:    flagBool(cmd, "sanitize", "sanitize"),
		Replacement: flagString(cmd, "replacement", "replacement"),
		DryRun:      dryRun,
		MaxDepth:    flagInt(cmd, "max-depth", "max_depth"),
		Exclude:     flagStringSlice(cmd, "exclude", "exclude"),
		ComputeSize: computeSize,
	}

	printInfo("Inventorying %s into %s...", root, outDir)

	summary, walkErr := inventory.Run(ctx, opts, outDir)
	if summary == nil {
		return fmt.Errorf("inventory failed: %w", walkErr)
	}

	if !getQuiet() {
		fmt.Println()
		fmt.Print(summary.Render())
	}
	return walkErr
}

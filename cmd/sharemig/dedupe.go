package main

import (
	"path/filepath"

	"github.com/sharemig/sharemig/pkg/sharemig/dedupe"
	"github.com/spf13/cobra"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <root>",
	Short: "Fix self-duplicated X/X folders",
	Long: `Find immediate subdirectories X of the root that contain a nested
directory of the same name (X/X, a common copy-into-itself accident) and
hoist the nested contents up one level.

Name conflicts are skipped and counted unless --overwrite is given. The
nested folder is removed only once it has been fully emptied. Without
--apply the command only reports what it would do.`,
	Args: cobra.ExactArgs(1),
	RunE: runDedupe,
}

func init() {
	dedupeCmd.Flags().Bool("apply", false, "perform the moves (default is a dry run)")
	dedupeCmd.Flags().Bool("overwrite", false, "replace conflicting entries in the outer folder")

	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, args []string) error {
	root, err := resolveDir(args[0])
	if err != nil {
		return err
	}

	apply, _ := cmd.Flags().GetBool("apply")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	ctx, cancel := signalContext()
	defer cancel()

	summary, err := dedupe.Run(ctx, dedupe.Options{
		Root:      root,
		Apply:     apply,
		Overwrite: overwrite,
	})
	if summary == nil {
		return err
	}

	verb := "would move"
	if apply {
		verb = "moved"
	}
	for _, r := range summary.Results {
		printInfo("%s:", filepath.Base(r.Folder))
		for _, m := range r.Moves {
			switch {
			case m.Conflict && !m.Applied:
				printInfo("  conflict, skipped: %s", m.From)
			default:
				printVerbose("  %s %s -> %s", verb, m.From, m.To)
			}
		}
		if r.Removed {
			printInfo("  removed %s", r.Inner)
		}
	}

	printInfo("Examined %d subfolders: %d affected, %d entries %s, %d conflicts",
		summary.Examined, summary.Affected, summary.Moved, verb, summary.Conflicts)
	if !apply && summary.Affected > 0 {
		printInfo("Re-run with --apply to perform the moves.")
	}
	return err
}

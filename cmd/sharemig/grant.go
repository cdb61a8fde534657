package main

import (
	"github.com/sharemig/sharemig/pkg/sharemig/acl"
	"github.com/spf13/cobra"
)

var grantCmd = &cobra.Command{
	Use:   "grant <path>",
	Short: "Repair access to a folder tree before inventorying it",
	Long: `Grant the running user (or another account) full control over a
folder tree so the inventory walker and azcopy can read it.

On Windows this shells out to the OS tools: an optional recursive
"takeown", then "icacls /grant ... /T /C" which adds a full-control ACE
without replacing the existing ACL and continues past individual
failures. On Unix the equivalent chown/chmod/setfacl sequence is used.

Exit codes of each command are logged; there are no retries and no
rollback.`,
	Args: cobra.ExactArgs(1),
	RunE: runGrant,
}

func init() {
	grantCmd.Flags().String("user", "", "account to grant access to (default: current user)")
	grantCmd.Flags().Bool("take-ownership", false, "take ownership of the tree first")
	grantCmd.Flags().Bool("dry-run", false, "print the commands without running them")

	rootCmd.AddCommand(grantCmd)
}

func runGrant(cmd *cobra.Command, args []string) error {
	path, err := resolveDir(args[0])
	if err != nil {
		return err
	}

	user, _ := cmd.Flags().GetString("user")
	takeOwnership, _ := cmd.Flags().GetBool("take-ownership")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx, cancel := signalContext()
	defer cancel()

	results, err := acl.Grant(ctx, acl.Options{
		Path:          path,
		Account:       user,
		TakeOwnership: takeOwnership,
		DryRun:        dryRun,
	})

	for _, r := range results {
		switch {
		case r.Skipped:
			printInfo("would run: %s", r.Command.String())
		case r.ExitCode == 0:
			printInfo("ok:   %s", r.Command.String())
		default:
			printError("exit %d: %s", r.ExitCode, r.Command.String())
		}
	}
	return err
}

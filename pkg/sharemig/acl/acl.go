// Package acl repairs access to folders the migration user cannot read.
// On Windows it shells out to takeown and icacls, the same commands an
// operator would run by hand; elsewhere it falls back to chmod/setfacl so
// test environments behave equivalently.
package acl

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/sharemig/sharemig/pkg/sharemig/logging"
)

// commandTimeout is the maximum time to wait for a single grant command.
// Recursive icacls over a large tree is slow, so this is generous.
const commandTimeout = 30 * time.Minute

// Options configures a grant operation.
type Options struct {
	// Path is the folder whose tree receives the grant.
	Path string

	// Account is the user or group receiving full control, e.g.
	// "DOMAIN\\svc-migration". Empty means the current user.
	Account string

	// TakeOwnership runs takeown before icacls, for trees whose current
	// owner denies even the administrators group.
	TakeOwnership bool

	// DryRun prints the commands without executing them.
	DryRun bool
}

// Command is one external invocation planned by a grant.
type Command struct {
	Name string
	Args []string
}

// String renders the command the way an operator would type it.
func (c Command) String() string {
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result reports one executed (or previewed) command.
type Result struct {
	Command  Command
	ExitCode int
	Output   string
	Skipped  bool
}

// Plan returns the commands a grant would run, without executing anything.
// The command set depends on the host platform.
func Plan(opts Options) ([]Command, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("grant path is required")
	}
	if runtime.GOOS == "windows" {
		return planWindows(opts), nil
	}
	return planUnix(opts), nil
}

// planWindows builds the takeown/icacls sequence. icacls always runs;
// takeown only when requested, and first, since icacls fails on trees the
// caller does not own.
func planWindows(opts Options) []Command {
	var cmds []Command
	if opts.TakeOwnership {
		cmds = append(cmds, Command{
			Name: "takeown",
			Args: []string{"/F", opts.Path, "/R", "/D", "Y"},
		})
	}
	account := opts.Account
	if account == "" {
		account = os.Getenv("USERNAME")
	}
	cmds = append(cmds, Command{
		Name: "icacls",
		Args: []string{
			opts.Path,
			"/grant", fmt.Sprintf("%s:(OI)(CI)F", account),
			"/T", "/C",
		},
	})
	return cmds
}

// planUnix approximates the Windows grant with chmod, plus setfacl when a
// specific account is named.
func planUnix(opts Options) []Command {
	var cmds []Command
	if opts.TakeOwnership {
		account := opts.Account
		if account == "" {
			account = os.Getenv("USER")
		}
		cmds = append(cmds, Command{
			Name: "chown",
			Args: []string{"-R", account, opts.Path},
		})
	}
	if opts.Account != "" {
		cmds = append(cmds, Command{
			Name: "setfacl",
			Args: []string{"-R", "-m", fmt.Sprintf("u:%s:rwX", opts.Account), opts.Path},
		})
		return cmds
	}
	cmds = append(cmds, Command{
		Name: "chmod",
		Args: []string{"-R", "u+rwX", opts.Path},
	})
	return cmds
}

// Grant plans and executes the permission repair for opts.Path. Each
// command's exit code and output are logged and returned; a non-zero exit
// from one command does not stop the sequence, since icacls /C semantics
// are "continue on error" and partial repair is still progress. The
// returned error is the first execution failure, if any.
func Grant(ctx context.Context, opts Options) ([]Result, error) {
	log := logging.Get("acl")

	cmds, err := Plan(opts)
	if err != nil {
		return nil, err
	}

	var results []Result
	var firstErr error
	for _, c := range cmds {
		if opts.DryRun {
			log.Info("would run", "cmd", c.String())
			results = append(results, Result{Command: c, Skipped: true})
			continue
		}

		res, err := run(ctx, c)
		results = append(results, res)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if res.ExitCode == 0 {
			log.Info("grant command succeeded", "cmd", c.Name, "path", opts.Path)
		} else {
			log.Warn("grant command failed",
				"cmd", c.Name, "path", opts.Path,
				"exit", res.ExitCode, "output", truncate(res.Output, 500))
		}
	}
	return results, firstErr
}

// run executes one command with the shared timeout, capturing combined
// output.
func run(ctx context.Context, c Command) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	res := Result{Command: c, Output: buf.String()}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, fmt.Errorf("%s exited %d", c.Name, res.ExitCode)
		}
		res.ExitCode = -1
		return res, fmt.Errorf("running %s: %w", c.Name, err)
	}
	return res, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

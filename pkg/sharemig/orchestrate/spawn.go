package orchestrate

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sharemig/sharemig/pkg/sharemig/tuner"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// ramPollInterval is how often spawn mode re-reads memory usage while a
// launch is held by the RAM throttle.
const ramPollInterval = 5 * time.Second

// SpawnArgs builds the argument vector for one spawned upload process: the
// current binary re-invoked with the upload command scoped to a single
// subfolder. The SAS token is passed through the environment, not argv,
// so it never shows up in a process listing.
func SpawnArgs(opts Options, sub Subfolder) []string {
	args := []string{
		"upload",
		"--source", sub.Path,
		"--account", opts.Account,
		"--share", opts.Share,
		"--out-dir", filepath.Join(opts.OutDir, sub.Name),
		"--subfolder", sub.Name,
	}
	if opts.DestPrefix != "" {
		args = append(args, "--dest", opts.DestPrefix+"/"+sub.Name)
	} else {
		args = append(args, "--dest", sub.Name)
	}
	if opts.Sync {
		args[0] = "sync"
	}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}
	if opts.PreservePermissions {
		args = append(args, "--preserve-permissions")
	}
	if opts.Sanitize {
		args = append(args, "--sanitize")
	}
	if opts.Replacement != "" {
		args = append(args, "--replacement", opts.Replacement)
	}
	if opts.MaxDepth > 0 {
		args = append(args, "--max-depth", strconv.Itoa(opts.MaxDepth))
	}
	for _, pattern := range opts.Exclude {
		args = append(args, "--exclude", pattern)
	}
	return args
}

// Spawn launches one child process per subfolder, pacing launches with the
// configured delay and holding them while system memory usage is above the
// RAM limit. It waits for all children and reports per-subfolder exit
// status. Child output goes to each child's own run directory, not the
// parent's console.
func (o *Orchestrator) Spawn(ctx context.Context) ([]SubfolderResult, error) {
	if o.opts.GatherLoose {
		if _, err := GatherLoose(o.opts.Root); err != nil {
			o.log.Warn("gathering loose files incomplete", "err", err)
		}
	}

	subs, err := Subfolders(o.opts.Root)
	if err != nil {
		return nil, err
	}

	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolving own executable: %w", err)
	}

	type child struct {
		sub Subfolder
		cmd *exec.Cmd
		err error
	}
	children := make([]child, 0, len(subs))

	for i, sub := range subs {
		if err := tuner.WaitBelow(ctx, o.opts.RAMLimitPercent, ramPollInterval); err != nil {
			break
		}
		if i > 0 && o.opts.LaunchDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(o.opts.LaunchDelay):
			}
		}
		if ctx.Err() != nil {
			break
		}

		runDir := filepath.Join(o.opts.OutDir, sub.Name)
		if err := os.MkdirAll(runDir, 0o755); err != nil {
			children = append(children, child{sub: sub, err: err})
			continue
		}
		console, err := os.Create(filepath.Join(runDir, "console.log"))
		if err != nil {
			children = append(children, child{sub: sub, err: err})
			continue
		}

		cmd := exec.CommandContext(ctx, self, SpawnArgs(o.opts, sub)...)
		cmd.Stdout = console
		cmd.Stderr = console
		cmd.Env = append(os.Environ(), "SHAREMIG_SAS="+o.opts.SAS)

		if err := cmd.Start(); err != nil {
			_ = console.Close()
			children = append(children, child{sub: sub, err: fmt.Errorf("spawning: %w", err)})
			continue
		}
		o.log.Info("spawned upload process", "subfolder", sub.Name, "pid", cmd.Process.Pid)
		children = append(children, child{sub: sub, cmd: cmd})
	}

	results := make([]SubfolderResult, 0, len(children))
	for _, ch := range children {
		res := SubfolderResult{
			Subfolder: ch.sub,
			RunDir:    filepath.Join(o.opts.OutDir, ch.sub.Name),
			Err:       ch.err,
		}
		if ch.cmd != nil {
			if err := ch.cmd.Wait(); err != nil {
				res.Err = fmt.Errorf("upload process for %s: %w", ch.sub.Name, err)
			}
			// The child wrote its own summary artifacts; pick them up.
			if data, err := os.ReadFile(filepath.Join(res.RunDir, "folder-info.txt")); err == nil {
				if s, err := types.ParseFolderSummary(string(data)); err == nil {
					res.Inventory = s
				}
			}
		}
		results = append(results, res)
	}
	return results, ctx.Err()
}

// Package dedupe repairs the self-duplicated folder pattern left behind by
// interrupted copies: a subfolder X whose only meaningful content sits in a
// nested X/X. The fixer hoists X/X's children up into X and removes the
// emptied inner folder. Dry run is the default; nothing moves unless the
// caller opts in.
package dedupe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sharemig/sharemig/pkg/sharemig/logging"
)

// Options configures a dedupe pass.
type Options struct {
	// Root is the directory whose immediate subdirectories are examined.
	Root string

	// Apply performs the moves. When false (the default) the pass only
	// reports what it would do.
	Apply bool

	// Overwrite replaces an existing entry in X when X/X holds one with the
	// same name. When false such conflicts are skipped and counted.
	Overwrite bool
}

// Move records one planned or executed child relocation.
type Move struct {
	From     string
	To       string
	Conflict bool
	Applied  bool
}

// FolderResult reports the dedupe outcome for one X/X pair.
type FolderResult struct {
	// Folder is the outer X directory.
	Folder string

	// Inner is the nested X/X directory.
	Inner string

	Moves     []Move
	Conflicts int

	// Removed is true when the emptied inner folder was deleted.
	Removed bool
}

// Summary aggregates a whole pass.
type Summary struct {
	Examined  int
	Affected  int
	Moved     int
	Conflicts int
	Removed   int
	Results   []FolderResult
}

// Run scans the immediate subdirectories of opts.Root for the X/X pattern
// and fixes each occurrence found. A failure on one folder is logged and the
// scan continues; the first such error is returned after the pass completes.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	log := logging.Get("dedupe")

	if opts.Root == "" {
		return nil, fmt.Errorf("root is required")
	}
	entries, err := os.ReadDir(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("reading root: %w", err)
	}

	summary := &Summary{}
	var firstErr error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if !entry.IsDir() {
			continue
		}
		summary.Examined++

		outer := filepath.Join(opts.Root, entry.Name())
		inner := filepath.Join(outer, entry.Name())
		info, err := os.Lstat(inner)
		if err != nil || !info.IsDir() {
			continue
		}

		summary.Affected++
		res, err := fixFolder(opts, outer, inner, log)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		summary.Results = append(summary.Results, *res)
		summary.Conflicts += res.Conflicts
		if res.Removed {
			summary.Removed++
		}
		for _, m := range res.Moves {
			if m.Applied {
				summary.Moved++
			}
		}
	}

	log.Info("dedupe pass finished",
		"examined", summary.Examined,
		"affected", summary.Affected,
		"moved", summary.Moved,
		"conflicts", summary.Conflicts,
		"apply", opts.Apply)
	return summary, firstErr
}

// fixFolder hoists inner's children into outer. Conflicting names are
// skipped unless Overwrite is set; the inner folder is removed only when the
// hoist left it empty.
func fixFolder(opts Options, outer, inner string, log *logging.Logger) (*FolderResult, error) {
	res := &FolderResult{Folder: outer, Inner: inner}

	children, err := os.ReadDir(inner)
	if err != nil {
		return res, fmt.Errorf("reading %s: %w", inner, err)
	}

	var firstErr error
	for _, child := range children {
		from := filepath.Join(inner, child.Name())
		to := filepath.Join(outer, child.Name())
		move := Move{From: from, To: to}

		if _, err := os.Lstat(to); err == nil {
			if !opts.Overwrite {
				move.Conflict = true
				res.Conflicts++
				res.Moves = append(res.Moves, move)
				log.Warn("name conflict, skipping", "from", from, "to", to)
				continue
			}
			if opts.Apply {
				if err := os.RemoveAll(to); err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("removing %s: %w", to, err)
					}
					res.Moves = append(res.Moves, move)
					continue
				}
			}
		}

		if !opts.Apply {
			log.Info("would move", "from", from, "to", to)
			res.Moves = append(res.Moves, move)
			continue
		}

		if err := os.Rename(from, to); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("moving %s: %w", from, err)
			}
			log.Warn("move failed", "from", from, "err", err)
			res.Moves = append(res.Moves, move)
			continue
		}
		move.Applied = true
		res.Moves = append(res.Moves, move)
	}

	if opts.Apply && res.Conflicts == 0 && firstErr == nil {
		if remaining, err := os.ReadDir(inner); err == nil && len(remaining) == 0 {
			if err := os.Remove(inner); err == nil {
				res.Removed = true
				log.Info("removed emptied duplicate", "path", inner)
			}
		}
	}
	return res, firstErr
}

// Package orchestrate fans a migration out over the immediate subfolders of
// a share root: each subfolder gets its own inventory run, its own azcopy
// invocation and wrapper logs, and one row in the central transfer CSV.
// Workers are isolated; one failing subfolder never stops the batch.
package orchestrate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sharemig/sharemig/pkg/sharemig/config"
	"github.com/sharemig/sharemig/pkg/sharemig/inventory"
	"github.com/sharemig/sharemig/pkg/sharemig/logging"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// Subfolder is one unit of orchestrated work.
type Subfolder struct {
	// Name is the base name, used for the run directory and the central CSV
	// row.
	Name string

	// Path is the absolute source path.
	Path string
}

// Options configures an orchestration batch.
type Options struct {
	// Root is the share root whose immediate subfolders are migrated.
	Root string

	// OutDir is the base directory receiving one run directory per
	// subfolder.
	OutDir string

	// Account, Share and SAS identify the destination file share.
	Account string
	Share   string
	SAS     string

	// DestPrefix is an optional path prefix inside the share.
	DestPrefix string

	// Sync uses azcopy sync instead of copy.
	Sync bool

	// DryRun is threaded into both the inventory (no renames) and azcopy
	// (--dry-run).
	DryRun bool

	// GatherLoose moves root-level loose files into a synthetic subfolder
	// before enumeration so they are migrated like any other.
	GatherLoose bool

	// Parallel bounds concurrent workers; zero derives it from the host.
	Parallel int

	// Inventory walker settings, applied per subfolder.
	Sanitize    bool
	Replacement string
	MaxDepth    int
	Exclude     []string

	// PreservePermissions passes --preserve-smb-permissions to azcopy.
	PreservePermissions bool

	// LaunchDelay paces spawn-mode process starts.
	LaunchDelay time.Duration

	// RAMLimitPercent holds spawn-mode launches while system memory usage
	// is above this percentage. Zero disables the throttle.
	RAMLimitPercent float64
}

// UploadFunc performs the transfer for one subfolder, streaming wrapper
// output to w, and returns the row for the central CSV. The orchestrator's
// default implementation shells out to azcopy; tests substitute their own.
type UploadFunc func(ctx context.Context, sub Subfolder, runDir string, w io.Writer) (*types.TransferSummary, error)

// SubfolderResult is the outcome for one subfolder.
type SubfolderResult struct {
	Subfolder Subfolder
	RunDir    string

	Inventory *types.FolderSummary
	Transfer  *types.TransferSummary

	Err error
}

// Subfolders lists the immediate subdirectories of root in name order.
// Reparse points are excluded; a nested walk of a junction would re-migrate
// a tree that is reachable elsewhere.
func Subfolders(root string) ([]Subfolder, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading root: %w", err)
	}

	var subs []Subfolder
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		subs = append(subs, Subfolder{
			Name: entry.Name(),
			Path: filepath.Join(root, entry.Name()),
		})
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
	return subs, nil
}

// GatherLoose moves root-level regular files into the synthetic loose-files
// subfolder, creating it on first use, and returns the number moved. Name
// collisions inside the target are skipped and reported in the count's
// complement via the error.
func GatherLoose(root string) (int, error) {
	log := logging.Get("orchestrate")

	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, fmt.Errorf("reading root: %w", err)
	}

	target := filepath.Join(root, config.LooseFilesFolder)
	moved := 0
	var firstErr error
	for _, entry := range entries {
		if entry.IsDir() || !entry.Type().IsRegular() {
			continue
		}
		if moved == 0 {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return 0, fmt.Errorf("creating %s: %w", config.LooseFilesFolder, err)
			}
		}

		from := filepath.Join(root, entry.Name())
		to := filepath.Join(target, entry.Name())
		if _, err := os.Lstat(to); err == nil {
			log.Warn("loose file already gathered, skipping", "name", entry.Name())
			continue
		}
		if err := os.Rename(from, to); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("gathering %s: %w", entry.Name(), err)
			}
			continue
		}
		moved++
	}

	if moved > 0 {
		log.Info("gathered loose files", "count", moved, "target", target)
	}
	return moved, firstErr
}

// inventoryOptions builds the per-subfolder walker options.
func (o Options) inventoryOptions(sub Subfolder) inventory.Options {
	return inventory.Options{
		Root:        sub.Path,
		MaxDepth:    o.MaxDepth,
		Sanitize:    o.Sanitize,
		Replacement: o.Replacement,
		DryRun:      o.DryRun,
		ComputeSize: true,
		Exclude:     o.Exclude,
	}
}

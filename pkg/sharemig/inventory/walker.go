// Package inventory implements the recursive file-share inventory walker:
// a breadth-first traversal that probes every directory for listability,
// optionally sanitizes invalid names, and streams one CSV row per visited
// entry so a crash loses at most the entry in flight.
package inventory

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/sharemig/sharemig/pkg/sharemig/logging"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// RowSink receives inventory rows as they are produced. Implementations
// must persist each row before returning so the walk stays crash-resilient.
type RowSink interface {
	WriteRow(row *types.InventoryRow) error
}

// Walker performs the breadth-first inventory traversal. The explicit work
// queue (rather than recursion) keeps deep trees from exhausting the stack;
// depth is tracked per queue item.
type Walker struct {
	opts Options
	sink RowSink
	log  *logging.Logger

	// runLog optionally mirrors row-level events into the per-run
	// inventory.log artifact.
	runLog *charmlog.Logger

	folders             atomic.Int64
	files               atomic.Int64
	accessibleFolders   atomic.Int64
	inaccessibleFolders atomic.Int64
	accessibleFiles     atomic.Int64
	inaccessibleFiles   atomic.Int64
	renamed             atomic.Int64
	invalidNames        atomic.Int64
	totalBytes          atomic.Int64
}

// queueItem is one pending directory in the BFS work queue.
type queueItem struct {
	path  string
	depth int
}

// NewWalker creates a walker over the given options, streaming rows into
// sink. Options are validated and defaults applied.
func NewWalker(opts Options, sink RowSink) *Walker {
	_ = opts.Validate()
	return &Walker{
		opts: opts,
		sink: sink,
		log:  logging.Get("inventory"),
	}
}

// SetRunLog attaches a per-run logger whose output lands in the run
// directory's inventory.log.
func (w *Walker) SetRunLog(l *charmlog.Logger) {
	w.runLog = l
}

// Walk performs the traversal. It blocks until the tree is exhausted or ctx
// is cancelled; on cancellation the partial summary is returned together
// with the context error. A single inaccessible subtree never fails the
// walk: it is recorded and skipped.
func (w *Walker) Walk(ctx context.Context) (*types.FolderSummary, error) {
	start := time.Now()

	root, err := filepath.Abs(w.opts.Root)
	if err != nil {
		return nil, err
	}
	rootInfo, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !rootInfo.IsDir() {
		return nil, os.ErrInvalid
	}

	w.log.Info("walk started", "root", root)

	queue := []queueItem{{path: root, depth: 0}}
	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return w.summary(root, start), ctx.Err()
		default:
		}

		item := queue[0]
		queue = queue[1:]

		children, err := w.visitDir(item)
		if err != nil {
			return w.summary(root, start), err
		}
		queue = append(queue, children...)
	}

	s := w.summary(root, start)
	w.log.Info("walk finished",
		"folders", s.TotalFolders,
		"files", s.TotalFiles,
		"inaccessible", s.InaccessibleFolders+s.InaccessibleFiles,
		"elapsed", s.Elapsed)
	return s, nil
}

// visitDir probes one directory, writes its folder row, and returns the
// child directories to enqueue. Only sink failures are returned as errors;
// filesystem failures become rows.
func (w *Walker) visitDir(item queueItem) ([]queueItem, error) {
	entries, readErr := os.ReadDir(item.path)

	status := types.StatusOK
	errText := ""
	switch {
	case readErr == nil:
	case len(entries) > 0:
		// Partial listing: record the error but walk what we got.
		status = types.StatusPartial
		errText = readErr.Error()
	case errors.Is(readErr, fs.ErrPermission):
		status = types.StatusDenied
		errText = readErr.Error()
	default:
		status = types.StatusEnumError
		errText = readErr.Error()
	}

	row := &types.InventoryRow{
		Type:         types.EntryFolder,
		Name:         filepath.Base(item.path),
		Path:         item.path,
		AccessStatus: status,
		AccessError:  errText,
	}
	if info, err := os.Lstat(item.path); err == nil {
		row.LastWriteTime = info.ModTime()
		row.CreationTime = creationTime(info)
	} else if status == types.StatusOK {
		row.AccessStatus = types.StatusAttrDenied
		row.AccessError = err.Error()
	}
	row.UserHasAccess = row.AccessStatus.Accessible()

	w.countFolder(row.AccessStatus)
	if err := w.writeRow(row); err != nil {
		return nil, err
	}

	if !row.AccessStatus.Accessible() {
		// DENIED or ENUMERATION_ERROR: children are not visited.
		return nil, nil
	}

	var children []queueItem
	for _, entry := range entries {
		child, err := w.visitEntry(item, entry)
		if err != nil {
			return nil, err
		}
		if child != nil {
			children = append(children, *child)
		}
	}
	return children, nil
}

// visitEntry handles one directory entry: sanitization, attribute probing,
// and either a file row or a folder enqueue decision. It returns a non-nil
// queueItem when the entry is a directory that should be walked.
func (w *Walker) visitEntry(parent queueItem, entry os.DirEntry) (*queueItem, error) {
	name := entry.Name()
	if w.isExcluded(filepath.Join(parent.path, name)) {
		return nil, nil
	}

	row := &types.InventoryRow{
		Name: name,
		Type: types.EntryFile,
	}
	if entry.IsDir() {
		row.Type = types.EntryFolder
	}

	// diskName is the name that actually exists on disk; in a dry run the
	// rename is only reported, so the original name is still probed.
	diskName := name
	if w.opts.Sanitize {
		if renamedTo, changed := w.sanitizeEntry(parent.path, name); changed {
			row.OldName = name
			row.NewName = renamedTo
			row.Name = renamedTo
			if !w.opts.DryRun {
				diskName = renamedTo
			}
		}
	}
	path := filepath.Join(parent.path, diskName)
	row.Path = path

	info, err := os.Lstat(path)
	if err != nil {
		row.AccessStatus = types.StatusAttrDenied
		row.AccessError = err.Error()
		w.countEntry(row)
		return nil, w.writeRow(row)
	}

	row.LastWriteTime = info.ModTime()
	row.CreationTime = creationTime(info)

	if isReparsePoint(info) && !w.opts.FollowReparse {
		row.AccessStatus = types.StatusSkippedReparse
		w.countEntry(row)
		return nil, w.writeRow(row)
	}

	if entry.IsDir() {
		depth := parent.depth + 1
		if w.opts.MaxDepth > 0 && depth >= w.opts.MaxDepth {
			// Depth cap reached: record the folder without entering it.
			row.AccessStatus = types.StatusOK
			row.UserHasAccess = true
			w.countFolder(types.StatusOK)
			return nil, w.writeRow(row)
		}
		// The folder row is written when the item is dequeued and probed.
		return &queueItem{path: path, depth: depth}, nil
	}

	row.FileSize = info.Size()
	row.AccessStatus = types.StatusOK
	row.UserHasAccess = true
	if w.opts.ComputeSize {
		w.totalBytes.Add(info.Size())
	}
	w.countEntry(row)
	return nil, w.writeRow(row)
}

// sanitizeEntry renames an invalid name in dir, returning the final name
// and whether it differs from the original. Rename failures are logged and
// leave the entry untouched.
func (w *Walker) sanitizeEntry(dir, name string) (string, bool) {
	sanitized, changed := SanitizeName(name, w.opts.Replacement)
	if !changed {
		return name, false
	}

	w.invalidNames.Add(1)
	sanitized = uniqueName(dir, sanitized)

	if w.opts.DryRun {
		w.log.Info("would rename", "dir", dir, "old", name, "new", sanitized)
		return sanitized, true
	}

	if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, sanitized)); err != nil {
		w.log.Warn("rename failed", "dir", dir, "old", name, "err", err)
		return name, false
	}
	w.renamed.Add(1)
	w.log.Info("renamed", "dir", dir, "old", name, "new", sanitized)
	return sanitized, true
}

// writeRow persists the row and mirrors it to the per-run log.
func (w *Walker) writeRow(row *types.InventoryRow) error {
	if w.runLog != nil {
		if row.AccessStatus.Accessible() {
			w.runLog.Info(string(row.Type), "path", row.Path, "status", row.AccessStatus)
		} else {
			w.runLog.Warn(string(row.Type), "path", row.Path, "status", row.AccessStatus, "err", row.AccessError)
		}
	}
	if w.sink == nil {
		return nil
	}
	if err := w.sink.WriteRow(row); err != nil {
		return err
	}
	return nil
}

func (w *Walker) countFolder(status types.AccessStatus) {
	w.folders.Add(1)
	if status.Accessible() {
		w.accessibleFolders.Add(1)
	} else {
		w.inaccessibleFolders.Add(1)
	}
}

func (w *Walker) countEntry(row *types.InventoryRow) {
	if row.Type == types.EntryFolder {
		w.countFolder(row.AccessStatus)
		return
	}
	w.files.Add(1)
	if row.AccessStatus.Accessible() {
		w.accessibleFiles.Add(1)
	} else {
		w.inaccessibleFiles.Add(1)
	}
}

// summary snapshots the counters into a FolderSummary.
func (w *Walker) summary(root string, start time.Time) *types.FolderSummary {
	return &types.FolderSummary{
		Root:                root,
		TotalFolders:        w.folders.Load(),
		TotalFiles:          w.files.Load(),
		AccessibleFolders:   w.accessibleFolders.Load(),
		InaccessibleFolders: w.inaccessibleFolders.Load(),
		AccessibleFiles:     w.accessibleFiles.Load(),
		InaccessibleFiles:   w.inaccessibleFiles.Load(),
		Renamed:             w.renamed.Load(),
		InvalidNames:        w.invalidNames.Load(),
		TotalBytes:          w.totalBytes.Load(),
		Elapsed:             time.Since(start),
	}
}

// isExcluded checks if a path matches any exclusion pattern.
func (w *Walker) isExcluded(path string) bool {
	for _, pattern := range w.opts.Exclude {
		if pattern == "" {
			continue
		}
		if path == pattern {
			return true
		}
		if len(path) > len(pattern) && path[:len(pattern)+1] == pattern+string(filepath.Separator) {
			return true
		}
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

// Package report maintains the centralized transfer-summary CSV shared by
// every upload worker. Appends are serialized with an advisory file lock so
// concurrent sharemig processes never interleave rows; when the lock cannot
// be won within the retry budget the row is parked in a pending queue
// directory and folded in by a later Drain.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sharemig/sharemig/pkg/sharemig/fslock"
	"github.com/sharemig/sharemig/pkg/sharemig/logging"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// PendingDir is the queue directory, created next to the central CSV, that
// holds rows which lost the lock race.
const PendingDir = "pending"

// pendingExt marks queued row fragments. Each fragment is a one-row CSV
// without a header.
const pendingExt = ".row"

// Appender appends transfer summaries to the central CSV.
type Appender struct {
	// Path is the central CSV file.
	Path string

	// MaxRetries bounds lock attempts before queueing. Zero means a single
	// attempt.
	MaxRetries int

	// Backoff is the initial sleep between attempts; it doubles each retry.
	Backoff time.Duration

	log *logging.Logger
}

// NewAppender creates an appender for the central CSV at path.
func NewAppender(path string, maxRetries int, backoff time.Duration) *Appender {
	return &Appender{
		Path:       path,
		MaxRetries: maxRetries,
		Backoff:    backoff,
		log:        logging.Get("report"),
	}
}

// Append adds one row to the central CSV, creating the file with its header
// on first use. When the lock cannot be acquired within the retry budget the
// row is written to the pending queue instead and a nil error is returned;
// the row is not lost, only deferred.
func (a *Appender) Append(summary *types.TransferSummary) error {
	const maxBackoff = 500 * time.Millisecond

	backoff := a.Backoff
	var lastErr error
	for attempt := 0; attempt <= a.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			if backoff < maxBackoff {
				backoff *= 2
			}
		}
		err := a.tryAppend(summary)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fslock.ErrLocked) {
			return err
		}
		lastErr = err
	}

	a.log.Warn("central csv contended, queueing row",
		"path", a.Path, "subfolder", summary.Subfolder, "err", lastErr)
	return a.queue(summary)
}

// tryAppend performs one locked append attempt.
func (a *Appender) tryAppend(summary *types.TransferSummary) error {
	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	f, err := os.OpenFile(a.Path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("opening central csv: %w", err)
	}
	defer f.Close()

	if err := fslock.TryLock(f); err != nil {
		return err
	}
	defer fslock.Unlock(f)

	// Size is checked under the lock so exactly one process writes the
	// header.
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat central csv: %w", err)
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seeking central csv: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(types.TransferHeader()); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := w.Write(summary.Record()); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing row: %w", err)
	}
	return f.Sync()
}

// queue writes the row into the pending directory as a standalone fragment.
// The fragment name embeds a UUID so concurrent writers never collide.
func (a *Appender) queue(summary *types.TransferSummary) error {
	dir := filepath.Join(filepath.Dir(a.Path), PendingDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating pending directory: %w", err)
	}

	tmp := filepath.Join(dir, uuid.NewString()+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating pending fragment: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(summary.Record()); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing pending fragment: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	// Rename last so readers only ever see complete fragments.
	final := tmp[:len(tmp)-len(".tmp")] + pendingExt
	return os.Rename(tmp, final)
}

// Drain folds every pending fragment into the central CSV, deleting the
// fragments that were applied. It returns the number of rows folded in.
// Fragments that fail to parse are left in place for inspection.
func (a *Appender) Drain() (int, error) {
	dir := filepath.Join(filepath.Dir(a.Path), PendingDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading pending directory: %w", err)
	}

	applied := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != pendingExt {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		summary, err := readFragment(path)
		if err != nil {
			a.log.Warn("skipping unreadable pending fragment", "path", path, "err", err)
			continue
		}
		if err := a.Append(summary); err != nil {
			return applied, err
		}
		if err := os.Remove(path); err != nil {
			return applied, fmt.Errorf("removing applied fragment: %w", err)
		}
		applied++
	}
	return applied, nil
}

func readFragment(path string) (*types.TransferSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rec, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, err
	}
	return types.ParseTransferRecord(rec)
}

// Read returns every row of the central CSV. Malformed rows are skipped; a
// missing file yields an empty slice.
func Read(path string) ([]*types.TransferSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening central csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows []*types.TransferSummary
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("reading central csv: %w", err)
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == types.TransferHeader()[0] {
				continue
			}
		}
		summary, err := types.ParseTransferRecord(rec)
		if err != nil {
			continue
		}
		rows = append(rows, summary)
	}
	return rows, nil
}

// Rewrite compacts the central CSV in place: for each (Subfolder, JobID)
// pair only the newest row by Timestamp survives, and the surviving rows are
// ordered by Timestamp. The file is replaced atomically via a temp file.
func (a *Appender) Rewrite() (int, error) {
	lock, err := os.OpenFile(a.Path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return 0, fmt.Errorf("opening central csv: %w", err)
	}
	defer lock.Close()

	if err := fslock.Lock(lock); err != nil {
		return 0, err
	}
	defer fslock.Unlock(lock)

	rows, err := Read(a.Path)
	if err != nil {
		return 0, err
	}

	type key struct{ subfolder, jobID string }
	latest := make(map[key]*types.TransferSummary, len(rows))
	for _, row := range rows {
		k := key{row.Subfolder, row.JobID}
		if cur, ok := latest[k]; !ok || row.Timestamp.After(cur.Timestamp) {
			latest[k] = row
		}
	}

	kept := make([]*types.TransferSummary, 0, len(latest))
	for _, row := range latest {
		kept = append(kept, row)
	}
	sort.Slice(kept, func(i, j int) bool {
		return kept[i].Timestamp.Before(kept[j].Timestamp)
	})

	tmp := a.Path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("creating temp csv: %w", err)
	}

	w := csv.NewWriter(out)
	if err := w.Write(types.TransferHeader()); err != nil {
		_ = out.Close()
		return 0, err
	}
	for _, row := range kept {
		if err := w.Write(row.Record()); err != nil {
			_ = out.Close()
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = out.Close()
		return 0, err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, err
	}

	if err := os.Rename(tmp, a.Path); err != nil {
		return 0, fmt.Errorf("replacing central csv: %w", err)
	}

	removed := len(rows) - len(kept)
	a.log.Info("central csv compacted", "rows", len(kept), "removed", removed)
	return removed, nil
}

// Package ledger records every azcopy invocation in a local Badger store so
// past jobs can be listed and re-examined after their console output is
// gone. The ledger is advisory bookkeeping; the central CSV remains the
// reconciliation source of truth.
package ledger

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// ErrNotFound is returned when no entry exists for a job ID.
var ErrNotFound = errors.New("job not found in ledger")

// Jobs are keyed job:<jobID>. Newest-first ordering is done in memory by
// List; a handful of jobs per migration does not warrant an index.
var jobPrefix = []byte("job:")

// Entry is one recorded invocation.
type Entry struct {
	JobID      string                `json:"job_id"`
	Subfolder  string                `json:"subfolder"`
	Source     string                `json:"source"`
	Dest       string                `json:"dest"` // SAS-redacted
	Status     types.TransferStatus  `json:"status"`
	Summary    types.TransferSummary `json:"summary"`
	WrapperLog string                `json:"wrapper_log"`
	NativeLog  string                `json:"native_log"`
	StartedAt  time.Time             `json:"started_at"`
}

// Encode serializes the entry for storage.
func (e *Entry) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode deserializes an entry from storage.
func (e *Entry) Decode(data []byte) error {
	return json.Unmarshal(data, e)
}

// Ledger wraps Badger for job bookkeeping.
type Ledger struct {
	db *badger.DB
}

// Open opens or creates the ledger at the given directory.
func Open(path string) (*Ledger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Ledger{db: db}, nil
}

// Close closes the ledger.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func jobKey(jobID string) []byte {
	return append(append([]byte{}, jobPrefix...), jobID...)
}

// Put records an entry, overwriting any previous record for the same job.
// A zero StartedAt is defaulted before the entry is serialized so the
// stored record and the in-memory one agree.
func (l *Ledger) Put(e *Entry) error {
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	value, err := e.Encode()
	if err != nil {
		return err
	}

	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(jobKey(e.JobID), value)
	})
}

// Get retrieves the entry for a job ID.
func (l *Ledger) Get(jobID string) (*Entry, error) {
	var entry Entry
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(jobKey(jobID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(entry.Decode)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns entries newest first. limit <= 0 returns everything.
func (l *Ledger) List(limit int) ([]*Entry, error) {
	var entries []*Entry

	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(jobPrefix); it.ValidForPrefix(jobPrefix); it.Next() {
			var entry Entry
			if err := it.Item().Value(entry.Decode); err != nil {
				return err
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StartedAt.After(entries[j].StartedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Delete removes a job's record. Deleting a job that was never recorded
// returns ErrNotFound.
func (l *Ledger) Delete(jobID string) error {
	return l.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(jobKey(jobID)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(jobKey(jobID))
	})
}

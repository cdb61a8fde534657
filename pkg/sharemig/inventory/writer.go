package inventory

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// Artifact filenames produced in the per-run output directory.
const (
	InventoryFile = "inventory.csv"
	FailedFile    = "inventory-failed-or-denied.csv"
	RunLogFile    = "inventory.log"
	SummaryFile   = "folder-info.txt"
)

// CSVSink streams inventory rows into the per-run CSV files. Every row is
// flushed to disk immediately; the files are truncated fresh per run, so a
// crashed run leaves a readable prefix rather than a corrupt file.
type CSVSink struct {
	allFile    *os.File
	failedFile *os.File
	all        *csv.Writer
	failed     *csv.Writer
}

// NewCSVSink creates inventory.csv and inventory-failed-or-denied.csv in
// dir, truncating previous contents, and writes the canonical headers.
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}

	allFile, err := os.Create(filepath.Join(dir, InventoryFile))
	if err != nil {
		return nil, fmt.Errorf("creating inventory csv: %w", err)
	}
	failedFile, err := os.Create(filepath.Join(dir, FailedFile))
	if err != nil {
		_ = allFile.Close()
		return nil, fmt.Errorf("creating failed csv: %w", err)
	}

	s := &CSVSink{
		allFile:    allFile,
		failedFile: failedFile,
		all:        csv.NewWriter(allFile),
		failed:     csv.NewWriter(failedFile),
	}

	header := types.InventoryHeader()
	if err := s.all.Write(header); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	if err := s.failed.Write(header); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	s.all.Flush()
	s.failed.Flush()
	if err := s.all.Error(); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// WriteRow appends the row to inventory.csv and, for non-OK statuses, to
// the failed-or-denied CSV. Both writers are flushed before returning.
func (s *CSVSink) WriteRow(row *types.InventoryRow) error {
	rec := row.Record()
	if err := s.all.Write(rec); err != nil {
		return fmt.Errorf("writing inventory row: %w", err)
	}
	s.all.Flush()
	if err := s.all.Error(); err != nil {
		return fmt.Errorf("flushing inventory row: %w", err)
	}

	if row.AccessStatus != types.StatusOK {
		if err := s.failed.Write(rec); err != nil {
			return fmt.Errorf("writing failed row: %w", err)
		}
		s.failed.Flush()
		if err := s.failed.Error(); err != nil {
			return fmt.Errorf("flushing failed row: %w", err)
		}
	}
	return nil
}

// Close flushes and closes both CSV files.
func (s *CSVSink) Close() error {
	s.all.Flush()
	s.failed.Flush()

	var firstErr error
	if err := s.all.Error(); err != nil {
		firstErr = err
	}
	if err := s.allFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.failed.Error(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.failedFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

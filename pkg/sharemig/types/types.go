// Package types provides the core row schemas for the sharemig migration
// toolkit: inventory rows streamed by the walker, per-run folder summaries,
// and transfer summary rows appended to the centralized report CSV.
// It also carries size parsing/formatting helpers shared across packages.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// EntryType identifies the kind of filesystem object an inventory row
// describes.
type EntryType string

// Entry types.
const (
	EntryFolder EntryType = "Folder"
	EntryFile   EntryType = "File"
)

// AccessStatus classifies the outcome of probing a filesystem entry.
type AccessStatus string

// Access statuses recorded in inventory rows.
const (
	// StatusOK means the entry was fully readable (and, for folders,
	// listable).
	StatusOK AccessStatus = "OK"

	// StatusPartial means a folder listing returned some entries together
	// with an error; the returned children are still walked.
	StatusPartial AccessStatus = "PARTIAL"

	// StatusDenied means a folder could not be listed at all due to a
	// permission error. Its children are not visited.
	StatusDenied AccessStatus = "DENIED"

	// StatusSkippedReparse means the entry is a reparse point (symlink or
	// junction) and was skipped to avoid traversal cycles.
	StatusSkippedReparse AccessStatus = "SKIPPED_REPARSE"

	// StatusAttrDenied means the entry was listed but its attributes could
	// not be read.
	StatusAttrDenied AccessStatus = "ATTR_DENIED"

	// StatusEnumError means enumeration failed for a reason other than
	// permissions (I/O error, disappeared entry, path too long).
	StatusEnumError AccessStatus = "ENUMERATION_ERROR"
)

// Accessible reports whether the status represents a usable entry.
func (s AccessStatus) Accessible() bool {
	return s == StatusOK || s == StatusPartial
}

// InventoryRow is one line of the inventory CSV: a single filesystem entry
// visited by the walker. Rows are written immediately after the entry is
// visited and are never mutated afterwards.
type InventoryRow struct {
	// Type is Folder or File.
	Type EntryType

	// Name is the entry's base name after any sanitization rename.
	Name string

	// OldName is the pre-rename base name when sanitization renamed the
	// entry; empty otherwise.
	OldName string

	// NewName is the post-rename base name when sanitization renamed the
	// entry; empty otherwise.
	NewName string

	// Path is the full path of the entry (post-rename).
	Path string

	// LastWriteTime is the entry's modification time. Zero when attributes
	// could not be read.
	LastWriteTime time.Time

	// CreationTime is the entry's creation time where the platform exposes
	// one; falls back to the modification time elsewhere.
	CreationTime time.Time

	// FileSize is the size in bytes; zero for folders.
	FileSize int64

	// UserHasAccess mirrors AccessStatus.Accessible for CSV consumers.
	UserHasAccess bool

	// AccessStatus classifies the probe outcome.
	AccessStatus AccessStatus

	// AccessError holds the error text for non-OK statuses.
	AccessError string
}

// csvTimeLayout is the timestamp format used in all CSV files.
const csvTimeLayout = "2006-01-02 15:04:05"

// InventoryHeader returns the canonical inventory CSV header. The column set
// is fixed; consumers must not header-sniff alternative layouts.
func InventoryHeader() []string {
	return []string{
		"Type", "Name", "OldName", "NewName", "Path",
		"LastWriteTime", "CreationTime", "FileSize",
		"UserHasAccess", "AccessStatus", "AccessError",
	}
}

// Record converts the row to a CSV record matching InventoryHeader.
func (r *InventoryRow) Record() []string {
	return []string{
		string(r.Type),
		r.Name,
		r.OldName,
		r.NewName,
		r.Path,
		formatTime(r.LastWriteTime),
		formatTime(r.CreationTime),
		strconv.FormatInt(r.FileSize, 10),
		strconv.FormatBool(r.UserHasAccess),
		string(r.AccessStatus),
		r.AccessError,
	}
}

// FolderSummary aggregates one inventory run. It is computed once at the end
// of the walk and rendered to folder-info.txt.
type FolderSummary struct {
	RunID               string
	Root                string
	TotalFolders        int64
	TotalFiles          int64
	AccessibleFolders   int64
	InaccessibleFolders int64
	AccessibleFiles     int64
	InaccessibleFiles   int64
	Renamed             int64
	InvalidNames        int64
	TotalBytes          int64
	Elapsed             time.Duration
}

// Render produces the folder-info.txt representation.
func (s *FolderSummary) Render() string {
	var b strings.Builder
	w := func(k string, v interface{}) {
		fmt.Fprintf(&b, "%-20s %v\n", k+":", v)
	}
	w("RunID", s.RunID)
	w("Root", s.Root)
	w("TotalFolders", s.TotalFolders)
	w("TotalFiles", s.TotalFiles)
	w("AccessibleFolders", s.AccessibleFolders)
	w("InaccessibleFolders", s.InaccessibleFolders)
	w("AccessibleFiles", s.AccessibleFiles)
	w("InaccessibleFiles", s.InaccessibleFiles)
	w("Renamed", s.Renamed)
	w("InvalidNames", s.InvalidNames)
	w("TotalBytes", fmt.Sprintf("%d (%s)", s.TotalBytes, FormatSize(s.TotalBytes)))
	w("Elapsed", s.Elapsed.Round(time.Millisecond))
	return b.String()
}

// ParseFolderSummary parses a folder-info.txt body back into a summary.
// Unknown keys are ignored so the format can grow without breaking older
// consolidators.
func ParseFolderSummary(text string) (*FolderSummary, error) {
	s := &FolderSummary{}
	seen := false
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		seen = true
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "RunID":
			s.RunID = value
		case "Root":
			s.Root = value
		case "TotalFolders":
			s.TotalFolders = parseCount(value)
		case "TotalFiles":
			s.TotalFiles = parseCount(value)
		case "AccessibleFolders":
			s.AccessibleFolders = parseCount(value)
		case "InaccessibleFolders":
			s.InaccessibleFolders = parseCount(value)
		case "AccessibleFiles":
			s.AccessibleFiles = parseCount(value)
		case "InaccessibleFiles":
			s.InaccessibleFiles = parseCount(value)
		case "Renamed":
			s.Renamed = parseCount(value)
		case "InvalidNames":
			s.InvalidNames = parseCount(value)
		case "TotalBytes":
			// Only the leading integer; the humanized form in parens is
			// informational.
			if n, _, found := strings.Cut(value, " "); found {
				value = n
			}
			s.TotalBytes = parseCount(value)
		case "Elapsed":
			if d, err := time.ParseDuration(value); err == nil {
				s.Elapsed = d
			}
		}
	}
	if !seen {
		return nil, fmt.Errorf("no summary fields found")
	}
	return s, nil
}

func parseCount(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

// TransferStatus is the terminal state of one upload/sync invocation.
type TransferStatus string

// Transfer statuses. Completed means azcopy finished with zero failures;
// CompletedWithErrors means it finished but some transfers failed or were
// skipped; Failed means the job did not complete or azcopy exited before
// producing a summary.
const (
	TransferCompleted           TransferStatus = "Completed"
	TransferCompletedWithErrors TransferStatus = "CompletedWithErrors"
	TransferFailed              TransferStatus = "Failed"
)

// TransferSummary is one row of the centralized transfer-summary CSV,
// appended once per upload/sync invocation. The file is shared between
// concurrent workers and guarded by a cross-process file lock.
type TransferSummary struct {
	// Subfolder is the migrated subfolder (or the source root for direct
	// uploads).
	Subfolder string

	// JobID is azcopy's job identifier, when one was observed.
	JobID string

	// Status is the terminal transfer status.
	Status TransferStatus

	TotalTransfers   int64
	Completed        int64
	Failed           int64
	Skipped          int64
	BytesTransferred int64

	// Duration is the wall-clock time of the azcopy invocation.
	Duration time.Duration

	// Timestamp is when the row was produced; last-write-wins deduplication
	// keys on it.
	Timestamp time.Time

	// WrapperLog is the path of the wrapper log covering this invocation.
	WrapperLog string
}

// TransferHeader returns the canonical transfer-summary CSV header.
func TransferHeader() []string {
	return []string{
		"Subfolder", "JobID", "Status",
		"TotalTransfers", "Completed", "Failed", "Skipped",
		"BytesTransferred", "Duration", "Timestamp", "WrapperLog",
	}
}

// Record converts the summary to a CSV record matching TransferHeader.
func (t *TransferSummary) Record() []string {
	return []string{
		t.Subfolder,
		t.JobID,
		string(t.Status),
		strconv.FormatInt(t.TotalTransfers, 10),
		strconv.FormatInt(t.Completed, 10),
		strconv.FormatInt(t.Failed, 10),
		strconv.FormatInt(t.Skipped, 10),
		strconv.FormatInt(t.BytesTransferred, 10),
		t.Duration.Round(time.Millisecond).String(),
		formatTime(t.Timestamp),
		t.WrapperLog,
	}
}

// ErrBadRecord indicates a CSV record that does not match TransferHeader.
var ErrBadRecord = errors.New("malformed transfer summary record")

// ParseTransferRecord parses a CSV record produced by Record.
func ParseTransferRecord(rec []string) (*TransferSummary, error) {
	if len(rec) != len(TransferHeader()) {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrBadRecord, len(rec), len(TransferHeader()))
	}
	t := &TransferSummary{
		Subfolder:        rec[0],
		JobID:            rec[1],
		Status:           TransferStatus(rec[2]),
		TotalTransfers:   parseCount(rec[3]),
		Completed:        parseCount(rec[4]),
		Failed:           parseCount(rec[5]),
		Skipped:          parseCount(rec[6]),
		BytesTransferred: parseCount(rec[7]),
		WrapperLog:       rec[10],
	}
	if d, err := time.ParseDuration(rec[8]); err == nil {
		t.Duration = d
	}
	if ts, err := time.ParseInLocation(csvTimeLayout, rec[9], time.Local); err == nil {
		t.Timestamp = ts
	}
	return t, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(csvTimeLayout)
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in
// bytes. It supports plain bytes ("1024"), byte suffixes ("512B"), and
// K/M/G/T with optional B or iB suffixes, case-insensitive. Decimal values
// are truncated to the nearest byte.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}

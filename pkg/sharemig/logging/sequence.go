package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
)

// SequenceWriter is an io.WriteCloser that writes numbered files
// (base-1.ext, base-2.ext, ...) in a directory, rolling to the next number
// when the current file exceeds MaxSize. Unlike RotatingWriter it never
// renames or deletes files; each invocation keeps the files it produced,
// which is what the per-run upload wrapper logs need.
type SequenceWriter struct {
	dir     string
	base    string
	ext     string
	maxSize int64

	mu   sync.Mutex
	file *os.File
	size int64
	seq  int
}

// DefaultSequenceMaxSize is the roll threshold applied when none is given.
const DefaultSequenceMaxSize int64 = 10 * 1024 * 1024

// NewSequenceWriter creates a writer producing dir/base-N.ext files.
// Numbering resumes after the highest existing sequence number so re-runs
// into the same directory never overwrite earlier logs.
func NewSequenceWriter(dir, base, ext string, maxSize int64) (*SequenceWriter, error) {
	if maxSize <= 0 {
		maxSize = DefaultSequenceMaxSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &SequenceWriter{
		dir:     dir,
		base:    base,
		ext:     ext,
		maxSize: maxSize,
		seq:     highestSequence(dir, base, ext),
	}
	if err := w.roll(); err != nil {
		return nil, err
	}
	return w, nil
}

// Path returns the path of the file currently being written.
func (w *SequenceWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentPath()
}

func (w *SequenceWriter) currentPath() string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%d%s", w.base, w.seq, w.ext))
}

// Write appends to the current file, rolling to the next sequence number
// when the size threshold is crossed.
func (w *SequenceWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.maxSize {
		if err := w.roll(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("writing wrapper log: %w", err)
	}
	return n, nil
}

// Close closes the current file.
func (w *SequenceWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// roll closes the current file and opens the next numbered one.
// Must be called with w.mu held.
func (w *SequenceWriter) roll() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("closing wrapper log: %w", err)
		}
		w.file = nil
	}

	w.seq++
	file, err := os.OpenFile(w.currentPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening wrapper log: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("stat wrapper log: %w", err)
	}

	w.file = file
	w.size = info.Size()
	return nil
}

// highestSequence returns the largest existing sequence number for
// base-N.ext files in dir, or zero when none exist.
func highestSequence(dir, base, ext string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(base) + `-(\d+)` + regexp.QuoteMeta(ext) + "$")
	highest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

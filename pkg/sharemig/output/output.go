// Package output provides formatters for displaying migration consolidation
// results in various output formats (pretty, plain, json, yaml, csv).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Row is one subfolder's consolidated migration state.
type Row struct {
	// Subfolder is the migrated subfolder name.
	Subfolder string `json:"subfolder" yaml:"subfolder"`

	// Folders and Files come from the subfolder's inventory run.
	Folders int64 `json:"folders" yaml:"folders"`
	Files   int64 `json:"files" yaml:"files"`

	// SourceBytes is the inventoried size of the subfolder.
	SourceBytes int64 `json:"source_bytes" yaml:"source_bytes"`

	// SourceHuman is the human-readable source size (e.g. "1.5 GiB").
	SourceHuman string `json:"source_human" yaml:"source_human"`

	// Status is the latest transfer status; "Pending" when the subfolder
	// has never been uploaded.
	Status string `json:"status" yaml:"status"`

	// JobID is the azcopy job for the latest transfer, if any.
	JobID string `json:"job_id,omitempty" yaml:"job_id,omitempty"`

	Completed int64 `json:"completed" yaml:"completed"`
	Failed    int64 `json:"failed" yaml:"failed"`
	Skipped   int64 `json:"skipped" yaml:"skipped"`

	// BytesTransferred is from the latest transfer summary.
	BytesTransferred int64 `json:"bytes_transferred" yaml:"bytes_transferred"`

	// Duration is the latest transfer's wall-clock time.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Result contains the complete consolidation for formatting.
type Result struct {
	// Root is the share root the batch migrated.
	Root string `json:"root" yaml:"root"`

	// Rows are per-subfolder states, sorted by subfolder name.
	Rows []Row `json:"rows" yaml:"rows"`

	// Status counts across rows.
	Completed  int `json:"completed" yaml:"completed"`
	WithErrors int `json:"with_errors" yaml:"with_errors"`
	Failed     int `json:"failed" yaml:"failed"`
	Pending    int `json:"pending" yaml:"pending"`

	// Aggregates.
	TotalFolders     int64 `json:"total_folders" yaml:"total_folders"`
	TotalFiles       int64 `json:"total_files" yaml:"total_files"`
	TotalBytes       int64 `json:"total_bytes" yaml:"total_bytes"`
	BytesTransferred int64 `json:"bytes_transferred" yaml:"bytes_transferred"`

	// Warnings contains any problems observed while consolidating.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

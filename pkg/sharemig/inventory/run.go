package inventory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// Run performs a complete inventory run: it creates the output directory,
// walks the tree streaming rows into the per-run CSVs and inventory.log,
// and writes folder-info.txt at the end. The returned summary carries the
// run ID that names the artifacts.
func Run(ctx context.Context, opts Options, outDir string) (*types.FolderSummary, error) {
	_ = opts.Validate()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	sink, err := NewCSVSink(outDir)
	if err != nil {
		return nil, err
	}
	defer sink.Close()

	logFile, err := os.Create(filepath.Join(outDir, RunLogFile))
	if err != nil {
		return nil, fmt.Errorf("creating run log: %w", err)
	}
	defer logFile.Close()

	runLog := charmlog.NewWithOptions(logFile, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})

	w := NewWalker(opts, sink)
	w.SetRunLog(runLog)

	summary, walkErr := w.Walk(ctx)
	if summary == nil {
		return nil, walkErr
	}
	summary.RunID = uuid.NewString()

	// Written even for cancelled walks so partial runs remain inspectable.
	summaryPath := filepath.Join(outDir, SummaryFile)
	if err := os.WriteFile(summaryPath, []byte(summary.Render()), 0o644); err != nil {
		return summary, fmt.Errorf("writing folder summary: %w", err)
	}

	return summary, walkErr
}

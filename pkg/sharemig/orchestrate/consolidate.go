package orchestrate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sharemig/sharemig/pkg/sharemig/inventory"
	"github.com/sharemig/sharemig/pkg/sharemig/report"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// ConsolidatedRow joins one subfolder's inventory summary with its latest
// transfer outcome.
type ConsolidatedRow struct {
	Subfolder string

	// From folder-info.txt; nil when the run directory has none.
	Inventory *types.FolderSummary

	// Latest central-CSV row for the subfolder; nil when never uploaded.
	Transfer *types.TransferSummary
}

// Consolidation is the joined view over a whole batch.
type Consolidation struct {
	Rows []ConsolidatedRow

	// Totals across rows that have the relevant side.
	TotalFolders     int64
	TotalFiles       int64
	TotalBytes       int64
	BytesTransferred int64
	Completed        int
	WithErrors       int
	Failed           int
	Pending          int
}

// Consolidate joins every run directory under outDir with the central CSV
// at reportPath. Run directories without a folder summary are skipped;
// transfer rows are matched by subfolder name, newest timestamp winning.
func Consolidate(outDir, reportPath string) (*Consolidation, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("reading output directory: %w", err)
	}

	transfers, err := report.Read(reportPath)
	if err != nil {
		return nil, err
	}
	latest := make(map[string]*types.TransferSummary, len(transfers))
	for _, t := range transfers {
		if cur, ok := latest[t.Subfolder]; !ok || t.Timestamp.After(cur.Timestamp) {
			latest[t.Subfolder] = t
		}
	}

	c := &Consolidation{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		row := ConsolidatedRow{Subfolder: entry.Name()}

		infoPath := filepath.Join(outDir, entry.Name(), inventory.SummaryFile)
		if data, err := os.ReadFile(infoPath); err == nil {
			if s, err := types.ParseFolderSummary(string(data)); err == nil {
				row.Inventory = s
			}
		}
		row.Transfer = latest[entry.Name()]
		if row.Inventory == nil && row.Transfer == nil {
			continue
		}

		if s := row.Inventory; s != nil {
			c.TotalFolders += s.TotalFolders
			c.TotalFiles += s.TotalFiles
			c.TotalBytes += s.TotalBytes
		}
		switch {
		case row.Transfer == nil:
			c.Pending++
		case row.Transfer.Status == types.TransferCompleted:
			c.Completed++
			c.BytesTransferred += row.Transfer.BytesTransferred
		case row.Transfer.Status == types.TransferCompletedWithErrors:
			c.WithErrors++
			c.BytesTransferred += row.Transfer.BytesTransferred
		default:
			c.Failed++
		}
		c.Rows = append(c.Rows, row)
	}
	return c, nil
}

package output

import (
	"github.com/sharemig/sharemig/pkg/sharemig/orchestrate"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// FromConsolidation converts a batch consolidation into a formatter Result.
func FromConsolidation(root string, c *orchestrate.Consolidation) *Result {
	r := &Result{
		Root:             root,
		Completed:        c.Completed,
		WithErrors:       c.WithErrors,
		Failed:           c.Failed,
		Pending:          c.Pending,
		TotalFolders:     c.TotalFolders,
		TotalFiles:       c.TotalFiles,
		TotalBytes:       c.TotalBytes,
		BytesTransferred: c.BytesTransferred,
	}

	for _, row := range c.Rows {
		out := Row{
			Subfolder: row.Subfolder,
			Status:    "Pending",
		}
		if s := row.Inventory; s != nil {
			out.Folders = s.TotalFolders
			out.Files = s.TotalFiles
			out.SourceBytes = s.TotalBytes
			out.SourceHuman = types.FormatSize(s.TotalBytes)
		}
		if t := row.Transfer; t != nil {
			out.Status = string(t.Status)
			out.JobID = t.JobID
			out.Completed = t.Completed
			out.Failed = t.Failed
			out.Skipped = t.Skipped
			out.BytesTransferred = t.BytesTransferred
			out.Duration = t.Duration
		}
		r.Rows = append(r.Rows, out)
	}
	return r
}

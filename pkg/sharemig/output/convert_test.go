package output

import (
	"testing"

	"github.com/sharemig/sharemig/pkg/sharemig/orchestrate"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConsolidation(t *testing.T) {
	c := &orchestrate.Consolidation{
		Rows: []orchestrate.ConsolidatedRow{
			{
				Subfolder: "finance",
				Inventory: &types.FolderSummary{TotalFolders: 2, TotalFiles: 10, TotalBytes: 2048},
				Transfer: &types.TransferSummary{
					JobID:            "job-1",
					Status:           types.TransferCompleted,
					Completed:        10,
					BytesTransferred: 2048,
				},
			},
			{
				Subfolder: "legal",
				Inventory: &types.FolderSummary{TotalFiles: 3},
			},
		},
		Completed:  1,
		Pending:    1,
		TotalFiles: 13,
	}

	r := FromConsolidation("/srv/shares", c)
	require.Len(t, r.Rows, 2)

	assert.Equal(t, "Completed", r.Rows[0].Status)
	assert.Equal(t, "job-1", r.Rows[0].JobID)
	assert.Equal(t, "2.0 KiB", r.Rows[0].SourceHuman)

	assert.Equal(t, "Pending", r.Rows[1].Status)
	assert.Empty(t, r.Rows[1].JobID)

	assert.Equal(t, 1, r.Completed)
	assert.Equal(t, 1, r.Pending)
	assert.Equal(t, int64(13), r.TotalFiles)
}

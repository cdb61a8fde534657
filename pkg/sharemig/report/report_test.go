package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sharemig/sharemig/pkg/sharemig/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSummary(subfolder string) *types.TransferSummary {
	return &types.TransferSummary{
		Subfolder:        subfolder,
		JobID:            "8a3b2c1d-0000-0000-0000-000000000000",
		Status:           types.TransferCompleted,
		TotalTransfers:   10,
		Completed:        10,
		BytesTransferred: 4096,
		Duration:         90 * time.Second,
		Timestamp:        time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local),
		WrapperLog:       "/tmp/upload-logs-1.txt",
	}
}

func TestAppendCreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfer-summary.csv")
	a := NewAppender(path, 3, time.Millisecond)

	require.NoError(t, a.Append(testSummary("finance")))

	rows, err := Read(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "finance", rows[0].Subfolder)
	assert.Equal(t, types.TransferCompleted, rows[0].Status)
	assert.Equal(t, int64(4096), rows[0].BytesTransferred)
}

func TestAppendIsCumulative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfer-summary.csv")
	a := NewAppender(path, 3, time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, a.Append(testSummary(fmt.Sprintf("sub-%d", i))))
	}

	rows, err := Read(path)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfer-summary.csv")
	a := NewAppender(path, 50, time.Millisecond)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := a.Append(testSummary(fmt.Sprintf("sub-%d", i))); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	// Contended rows may land in the pending queue; fold them in.
	drained, err := a.Drain()
	require.NoError(t, err)

	rows, err := Read(path)
	require.NoError(t, err)
	assert.Len(t, rows, n, "drained %d from pending", drained)

	seen := map[string]bool{}
	for _, r := range rows {
		assert.False(t, seen[r.Subfolder], "duplicate row for %s", r.Subfolder)
		seen[r.Subfolder] = true
	}
}

func TestQueueAndDrain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfer-summary.csv")
	a := NewAppender(path, 3, time.Millisecond)

	require.NoError(t, a.queue(testSummary("parked")))

	pending := filepath.Join(filepath.Dir(path), PendingDir)
	entries, err := os.ReadDir(pending)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	drained, err := a.Drain()
	require.NoError(t, err)
	assert.Equal(t, 1, drained)

	rows, err := Read(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "parked", rows[0].Subfolder)

	entries, err = os.ReadDir(pending)
	require.NoError(t, err)
	assert.Empty(t, entries, "applied fragment should be removed")
}

func TestDrainNoPendingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfer-summary.csv")
	a := NewAppender(path, 3, time.Millisecond)

	drained, err := a.Drain()
	require.NoError(t, err)
	assert.Zero(t, drained)
}

func TestRewriteLastWriteWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfer-summary.csv")
	a := NewAppender(path, 3, time.Millisecond)

	old := testSummary("finance")
	old.Status = types.TransferFailed
	old.Timestamp = time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	require.NoError(t, a.Append(old))

	retry := testSummary("finance")
	retry.Status = types.TransferCompleted
	retry.Timestamp = time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)
	require.NoError(t, a.Append(retry))

	other := testSummary("legal")
	other.JobID = "ffffffff-0000-0000-0000-000000000000"
	require.NoError(t, a.Append(other))

	removed, err := a.Rewrite()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	rows, err := Read(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for _, r := range rows {
		if r.Subfolder == "finance" {
			assert.Equal(t, types.TransferCompleted, r.Status, "older row should have been dropped")
		}
	}
}

func TestReadMissingFile(t *testing.T) {
	rows, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Nil(t, rows)
}

package azcopy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/sharemig/sharemig/pkg/sharemig/logging"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJobID = "7b2f9e44-1c3a-4f6d-8a5b-9e0c1d2f3a4b"

const initLine = `{"TimeStamp":"2026-03-14T09:30:00Z","MessageType":"Init","MessageContent":"{\"LogFileLocation\":\"/tmp/azcopy/` + testJobID + `.log\",\"JobID\":\"` + testJobID + `\",\"IsCleanupJob\":false}"}`

const endOfJobLine = `{"TimeStamp":"2026-03-14T09:31:30Z","MessageType":"EndOfJob","MessageContent":"{\"ErrorMsg\":\"\",\"JobID\":\"` + testJobID + `\",\"JobStatus\":\"Completed\",\"TotalTransfers\":\"42\",\"TransfersCompleted\":\"42\",\"TransfersFailed\":\"0\",\"TransfersSkipped\":\"0\",\"TotalBytesTransferred\":\"1048576\"}"}`

const endWithErrorsLine = `{"TimeStamp":"2026-03-14T09:31:30Z","MessageType":"EndOfJob","MessageContent":"{\"JobID\":\"` + testJobID + `\",\"JobStatus\":\"CompletedWithErrors\",\"TotalTransfers\":\"42\",\"TransfersCompleted\":\"40\",\"TransfersFailed\":\"2\",\"TransfersSkipped\":\"0\",\"TotalBytesTransferred\":\"9000\"}"}`

func TestParserJSONStream(t *testing.T) {
	p := &Parser{}
	p.Feed(initLine)
	p.Feed(`{"TimeStamp":"2026-03-14T09:30:05Z","MessageType":"Progress","MessageContent":"{}"}`)
	p.Feed(endOfJobLine)
	p.finish()

	assert.Equal(t, testJobID, p.JobID)
	assert.Equal(t, "/tmp/azcopy/"+testJobID+".log", p.NativeLog)
	require.NotNil(t, p.Summary)
	assert.Equal(t, int64(42), p.Summary.TotalTransfers)
	assert.Equal(t, int64(1048576), p.Summary.TotalBytesTransferred)
	assert.Equal(t, types.TransferCompleted, p.status(nil))
}

func TestParserCompletedWithErrors(t *testing.T) {
	p := &Parser{}
	p.Feed(initLine)
	p.Feed(endWithErrorsLine)
	p.finish()

	require.NotNil(t, p.Summary)
	assert.Equal(t, int64(2), p.Summary.TransfersFailed)
	assert.Equal(t, types.TransferCompletedWithErrors, p.status(nil))
}

func TestParserErrorMessages(t *testing.T) {
	p := &Parser{}
	p.Feed(`{"TimeStamp":"2026-03-14T09:30:00Z","MessageType":"Error","MessageContent":"403 auth failure"}`)
	p.finish()

	assert.Equal(t, []string{"403 auth failure"}, p.Errors)
	assert.Equal(t, types.TransferFailed, p.status(nil))
}

func TestParserTextFallback(t *testing.T) {
	p := &Parser{}
	for _, line := range []string{
		"Job " + testJobID + " has started",
		"",
		"Job " + testJobID + " summary",
		"Elapsed Time (Minutes): 1.5",
		"Number of File Transfers: 40",
		"Number of Folder Property Transfers: 2",
		"Total Number of Transfers: 42",
		"Number of File Transfers Completed: 38",
		"Number of Folder Transfers Completed: 2",
		"Number of File Transfers Failed: 2",
		"Number of Folder Transfers Failed: 0",
		"Number of File Transfers Skipped: 0",
		"Number of Folder Transfers Skipped: 0",
		"Total Number of Bytes Transferred: 1048576",
		"Final Job Status: CompletedWithErrors",
	} {
		p.Feed(line)
	}
	p.finish()

	assert.Equal(t, testJobID, p.JobID)
	require.NotNil(t, p.Summary)
	assert.Equal(t, int64(42), p.Summary.TotalTransfers)
	assert.Equal(t, int64(40), p.Summary.TransfersCompleted)
	assert.Equal(t, int64(2), p.Summary.TransfersFailed)
	assert.Equal(t, int64(1048576), p.Summary.TotalBytesTransferred)
	assert.Equal(t, types.TransferCompletedWithErrors, p.status(nil))
}

func TestParserNoOutput(t *testing.T) {
	p := &Parser{}
	p.finish()
	assert.Nil(t, p.Summary)
	assert.Equal(t, types.TransferFailed, p.status(nil))
}

func TestFileShareURL(t *testing.T) {
	url, err := FileShareURL("contoso", "migrated", `finance\2024`, "sv=2024&sig=SECRET")
	require.NoError(t, err)
	assert.Equal(t,
		"https://contoso.file.core.windows.net/migrated/finance/2024?sv=2024&sig=SECRET", url)

	_, err = FileShareURL("", "migrated", "", "")
	assert.Error(t, err)
	_, err = FileShareURL("contoso", "", "", "")
	assert.Error(t, err)
}

func TestBlobURL(t *testing.T) {
	url, err := BlobURL("contoso", "backups", "", "")
	require.NoError(t, err)
	assert.Equal(t, "https://contoso.blob.core.windows.net/backups", url)
}

func TestRedact(t *testing.T) {
	url := "https://contoso.file.core.windows.net/migrated?sv=2024&sig=SECRET"
	got := Redact(url)
	assert.NotContains(t, got, "SECRET")
	assert.Equal(t, "https://contoso.file.core.windows.net/migrated?<redacted>", got)

	assert.Equal(t, "no-query", Redact("no-query"))
}

func TestRedactWriterLines(t *testing.T) {
	var out bytes.Buffer
	w := newRedactWriter(&out)

	// Lines split across writes are reassembled before redaction.
	_, err := w.Write([]byte("failed: https://contoso.file.core.windows.net/migrated?sv=2024&sig=SEC"))
	require.NoError(t, err)
	_, err = w.Write([]byte("RET\r\nplain line"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	got := out.String()
	assert.NotContains(t, got, "SECRET")
	assert.Contains(t, got, "failed: https://contoso.file.core.windows.net/migrated?<redacted>\n")
	assert.Contains(t, got, "plain line\n")
}

func TestCopyArgs(t *testing.T) {
	c := &Client{Binary: "azcopy", LogLevel: "INFO", CapMbps: 200}
	args := c.CopyArgs(CopyOptions{
		Source:              "/srv/shares/finance",
		Destination:         "https://contoso.file.core.windows.net/migrated?sig=x",
		PreservePermissions: true,
	})

	joined := strings.Join(args, " ")
	assert.Equal(t, "copy", args[0])
	assert.Contains(t, joined, "--recursive")
	assert.Contains(t, joined, "--output-type json")
	assert.Contains(t, joined, "--log-level INFO")
	assert.Contains(t, joined, "--cap-mbps 200")
	assert.Contains(t, joined, "--preserve-smb-permissions")
}

func TestSyncArgs(t *testing.T) {
	c := &Client{Binary: "azcopy"}
	args := c.SyncArgs(CopyOptions{
		Source:            "/srv/shares/finance",
		Destination:       "https://x",
		DeleteDestination: true,
	})

	joined := strings.Join(args, " ")
	assert.Equal(t, "sync", args[0])
	assert.Contains(t, joined, "--delete-destination true")
	assert.NotContains(t, joined, "--cap-mbps")
}

func TestJobsShowArgs(t *testing.T) {
	c := &Client{Binary: "azcopy"}
	assert.Equal(t,
		[]string{"jobs", "show", testJobID, "--output-type", "json"},
		c.JobsShowArgs(testJobID))
}

// fakeAzcopy writes a shell script that replays canned output, standing in
// for the real binary.
func fakeAzcopy(t *testing.T, lines []string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in")
	}

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	for _, line := range lines {
		b.WriteString("printf '%s\\n' '" + strings.ReplaceAll(line, "'", `'\''`) + "'\n")
	}
	fmt.Fprintf(&b, "exit %d\n", exitCode)

	path := filepath.Join(t.TempDir(), "azcopy-fake")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o755))
	return path
}

func TestRunParsesFakeBinary(t *testing.T) {
	bin := fakeAzcopy(t, []string{initLine, endOfJobLine}, 0)
	c := &Client{Binary: bin, log: logging.Get("azcopy")}

	var wrapper bytes.Buffer
	res, err := c.Run(context.Background(), []string{"copy"}, &wrapper)
	require.NoError(t, err)

	assert.Equal(t, testJobID, res.JobID)
	assert.Equal(t, types.TransferCompleted, res.Status)
	assert.Equal(t, int64(42), res.Completed)
	assert.Equal(t, int64(1048576), res.BytesTransferred)
	assert.Zero(t, res.ExitCode)

	// Every output line lands in the wrapper log.
	assert.Contains(t, wrapper.String(), `"MessageType":"Init"`)
	assert.Contains(t, wrapper.String(), `"MessageType":"EndOfJob"`)
}

func TestRunNonZeroExitWithSummary(t *testing.T) {
	bin := fakeAzcopy(t, []string{initLine, endWithErrorsLine}, 1)
	c := &Client{Binary: bin, log: logging.Get("azcopy")}

	res, err := c.Run(context.Background(), []string{"copy"}, io.Discard)
	require.NoError(t, err, "a parsed summary should absorb the exit code")
	assert.Equal(t, types.TransferCompletedWithErrors, res.Status)
	assert.Equal(t, 1, res.ExitCode)
}

func TestRunFailureWithoutSummary(t *testing.T) {
	bin := fakeAzcopy(t, []string{"boom"}, 2)
	c := &Client{Binary: bin, log: logging.Get("azcopy")}

	res, err := c.Run(context.Background(), []string{"copy"}, io.Discard)
	require.Error(t, err)
	assert.Equal(t, types.TransferFailed, res.Status)
	assert.Equal(t, 2, res.ExitCode)
}

func TestRunRedactsStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in")
	}

	// azcopy reports auth failures on stderr with the full destination URL.
	script := "#!/bin/sh\n" +
		"printf '%s\\n' '" + initLine + "'\n" +
		"printf '%s\\n' 'failed to perform copy: https://contoso.file.core.windows.net/migrated?sv=2024&sig=SECRETTOKEN' >&2\n" +
		"exit 1\n"
	bin := filepath.Join(t.TempDir(), "azcopy-fake")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	c := &Client{Binary: bin, log: logging.Get("azcopy")}
	var wrapper bytes.Buffer
	_, err := c.Run(context.Background(), []string{"copy"}, &wrapper)
	require.Error(t, err)

	got := wrapper.String()
	assert.NotContains(t, got, "SECRETTOKEN")
	assert.Contains(t, got, "failed to perform copy: https://contoso.file.core.windows.net/migrated?<redacted>")
}

func TestJobsShowFakeBinary(t *testing.T) {
	bin := fakeAzcopy(t, []string{endOfJobLine}, 0)
	c := &Client{Binary: bin, log: logging.Get("azcopy")}

	res, err := c.JobsShow(context.Background(), testJobID)
	require.NoError(t, err)
	assert.Equal(t, testJobID, res.JobID)
	assert.Equal(t, types.TransferCompleted, res.Status)
	assert.Equal(t, int64(42), res.Completed)
}

func TestResultSummaryRow(t *testing.T) {
	res := &Result{
		JobID:            testJobID,
		Status:           types.TransferCompleted,
		TotalTransfers:   42,
		Completed:        42,
		BytesTransferred: 1048576,
	}
	row := res.Summary("finance", "/runs/finance/upload-logs-1.txt")
	assert.Equal(t, "finance", row.Subfolder)
	assert.Equal(t, testJobID, row.JobID)
	assert.False(t, row.Timestamp.IsZero())
}

func TestFindMissingBinary(t *testing.T) {
	_, err := Find("definitely-not-azcopy-on-path")
	assert.Error(t, err)
}

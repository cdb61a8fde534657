package azcopy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// Result is the distilled outcome of one azcopy invocation.
type Result struct {
	JobID     string
	NativeLog string
	Status    types.TransferStatus

	TotalTransfers   int64
	Completed        int64
	Failed           int64
	Skipped          int64
	BytesTransferred int64

	Duration time.Duration
	ExitCode int

	// Errors holds the Error messages azcopy emitted, SAS-redacted.
	Errors []string
}

// Summary converts the result into a central-CSV row for the given
// subfolder and wrapper log path.
func (r *Result) Summary(subfolder, wrapperLog string) *types.TransferSummary {
	return &types.TransferSummary{
		Subfolder:        subfolder,
		JobID:            r.JobID,
		Status:           r.Status,
		TotalTransfers:   r.TotalTransfers,
		Completed:        r.Completed,
		Failed:           r.Failed,
		Skipped:          r.Skipped,
		BytesTransferred: r.BytesTransferred,
		Duration:         r.Duration,
		Timestamp:        time.Now(),
		WrapperLog:       wrapperLog,
	}
}

// Run executes azcopy with the given arguments, streaming every output line
// into wrapperLog while parsing the JSON stream. It blocks until azcopy
// exits or ctx is cancelled. A non-zero exit does not produce an error when
// a job summary was parsed; the failure is expressed in the result status
// so one bad subfolder never aborts an orchestrated batch.
func (c *Client) Run(ctx context.Context, args []string, wrapperLog io.Writer) (*Result, error) {
	start := time.Now()
	c.log.Info("running azcopy", "args", strings.Join(RedactArgs(args), " "))

	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Env = os.Environ()
	if c.LogDir != "" {
		if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating azcopy log dir: %w", err)
		}
		cmd.Env = append(cmd.Env,
			"AZCOPY_LOG_LOCATION="+c.LogDir,
			"AZCOPY_JOB_PLAN_LOCATION="+c.LogDir)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("piping azcopy stdout: %w", err)
	}
	// Stderr carries azcopy's error messages, which can embed the SAS-bearing
	// destination URL; it must not reach the wrapper log unredacted.
	var stderr *redactWriter
	if wrapperLog != nil {
		stderr = newRedactWriter(wrapperLog)
		cmd.Stderr = stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting azcopy: %w", err)
	}

	parser := &Parser{}
	scanner := bufio.NewScanner(stdout)
	// Progress lines on large jobs can exceed the default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if wrapperLog != nil {
			fmt.Fprintln(wrapperLog, Redact(line))
		}
		parser.Feed(line)
	}
	scanErr := scanner.Err()

	waitErr := cmd.Wait()
	if stderr != nil {
		_ = stderr.Flush()
	}
	parser.finish()

	res := &Result{
		JobID:     parser.JobID,
		NativeLog: parser.NativeLog,
		Status:    parser.status(waitErr),
		Duration:  time.Since(start),
	}
	for _, e := range parser.Errors {
		res.Errors = append(res.Errors, Redact(e))
	}
	if s := parser.Summary; s != nil {
		if res.JobID == "" {
			res.JobID = s.JobID
		}
		res.TotalTransfers = s.TotalTransfers
		res.Completed = s.TransfersCompleted
		res.Failed = s.TransfersFailed
		res.Skipped = s.TransfersSkipped
		res.BytesTransferred = s.TotalBytesTransferred
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		res.ExitCode = exitErr.ExitCode()
	}

	c.log.Info("azcopy finished",
		"job", res.JobID,
		"status", res.Status,
		"completed", res.Completed,
		"failed", res.Failed,
		"exit", res.ExitCode,
		"elapsed", res.Duration.Round(time.Second))

	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if scanErr != nil {
		return res, fmt.Errorf("reading azcopy output: %w", scanErr)
	}
	if waitErr != nil && parser.Summary == nil {
		return res, fmt.Errorf("azcopy failed without summary: %w", waitErr)
	}
	return res, nil
}

// JobsShow re-queries the summary for a finished job via azcopy jobs show.
func (c *Client) JobsShow(ctx context.Context, jobID string) (*Result, error) {
	return c.Run(ctx, c.JobsShowArgs(jobID), io.Discard)
}

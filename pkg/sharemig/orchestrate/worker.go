package orchestrate

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sharemig/sharemig/pkg/sharemig/azcopy"
	"github.com/sharemig/sharemig/pkg/sharemig/inventory"
	"github.com/sharemig/sharemig/pkg/sharemig/ledger"
	"github.com/sharemig/sharemig/pkg/sharemig/logging"
	"github.com/sharemig/sharemig/pkg/sharemig/report"
	"github.com/sharemig/sharemig/pkg/sharemig/tuner"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// Orchestrator runs the worker-mode fan-out: a bounded pool of in-process
// workers, each owning one subfolder end to end.
type Orchestrator struct {
	opts     Options
	upload   UploadFunc
	client   *azcopy.Client
	appender *report.Appender
	ledger   *ledger.Ledger
	log      *logging.Logger
}

// New creates an orchestrator. appender is required; jobLedger may be nil
// when job bookkeeping is disabled.
func New(opts Options, appender *report.Appender, jobLedger *ledger.Ledger) *Orchestrator {
	o := &Orchestrator{
		opts:     opts,
		appender: appender,
		ledger:   jobLedger,
		log:      logging.Get("orchestrate"),
	}
	o.upload = o.azcopyUpload
	return o
}

// SetUploadFunc replaces the transfer implementation.
func (o *Orchestrator) SetUploadFunc(fn UploadFunc) {
	o.upload = fn
}

// SetClient supplies a pre-built azcopy client shared across workers.
// Without one, the default upload resolves azcopy from PATH on first use.
func (o *Orchestrator) SetClient(c *azcopy.Client) {
	o.client = c
}

// Run migrates every subfolder of opts.Root with at most opts.Parallel
// concurrent workers. Per-subfolder failures are captured in the results;
// the returned error covers only batch-level problems (unreadable root,
// cancellation).
func (o *Orchestrator) Run(ctx context.Context) ([]SubfolderResult, error) {
	if o.opts.GatherLoose {
		if _, err := GatherLoose(o.opts.Root); err != nil {
			o.log.Warn("gathering loose files incomplete", "err", err)
		}
	}

	subs, err := Subfolders(o.opts.Root)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}

	parallel := o.opts.Parallel
	if parallel <= 0 {
		parallel = tuner.Detect(ctx).Workers
	}
	o.log.Info("starting batch",
		"root", o.opts.Root, "subfolders", len(subs), "parallel", parallel)

	results := make([]SubfolderResult, len(subs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, sub := range subs {
		g.Go(func() error {
			results[i] = o.runOne(ctx, sub)
			// Worker failures stay in the result; only cancellation stops
			// the batch.
			return ctx.Err()
		})
	}
	err = g.Wait()

	completed, failed := 0, 0
	for _, r := range results {
		if r.Err != nil || (r.Transfer != nil && r.Transfer.Status == types.TransferFailed) {
			failed++
		} else if r.Transfer != nil {
			completed++
		}
	}
	o.log.Info("batch finished", "completed", completed, "failed", failed)
	return results, err
}

// runOne executes the full pipeline for one subfolder: inventory, upload,
// central CSV row, ledger record.
func (o *Orchestrator) runOne(ctx context.Context, sub Subfolder) SubfolderResult {
	res := SubfolderResult{
		Subfolder: sub,
		RunDir:    filepath.Join(o.opts.OutDir, sub.Name),
	}

	invSummary, invErr := inventory.Run(ctx, o.opts.inventoryOptions(sub), res.RunDir)
	res.Inventory = invSummary
	if invErr != nil && invSummary == nil {
		res.Err = fmt.Errorf("inventory of %s: %w", sub.Name, invErr)
		return res
	}
	if invErr != nil {
		o.log.Warn("inventory incomplete, uploading anyway", "subfolder", sub.Name, "err", invErr)
	}

	wrapper, err := logging.NewSequenceWriter(res.RunDir, "upload-logs", ".txt", 0)
	if err != nil {
		res.Err = err
		return res
	}
	defer wrapper.Close()

	start := time.Now()
	summary, upErr := o.upload(ctx, sub, res.RunDir, wrapper)
	if summary == nil {
		summary = &types.TransferSummary{
			Subfolder: sub.Name,
			Status:    types.TransferFailed,
			Duration:  time.Since(start),
			Timestamp: time.Now(),
		}
	}
	if summary.WrapperLog == "" {
		summary.WrapperLog = wrapper.Path()
	}
	res.Transfer = summary
	if upErr != nil {
		res.Err = fmt.Errorf("uploading %s: %w", sub.Name, upErr)
	}

	if err := o.appender.Append(summary); err != nil {
		o.log.Error("appending central csv row failed", "subfolder", sub.Name, "err", err)
		if res.Err == nil {
			res.Err = err
		}
	}

	if o.ledger != nil && summary.JobID != "" {
		entry := &ledger.Entry{
			JobID:      summary.JobID,
			Subfolder:  sub.Name,
			Source:     sub.Path,
			Status:     summary.Status,
			Summary:    *summary,
			WrapperLog: summary.WrapperLog,
			StartedAt:  start,
		}
		if err := o.ledger.Put(entry); err != nil {
			o.log.Warn("ledger write failed", "job", summary.JobID, "err", err)
		}
	}
	return res
}

// azcopyUpload is the default UploadFunc, shelling out to azcopy.
func (o *Orchestrator) azcopyUpload(ctx context.Context, sub Subfolder, runDir string, w io.Writer) (*types.TransferSummary, error) {
	client := o.client
	if client == nil {
		var err error
		client, err = azcopy.NewClient("", "", 0)
		if err != nil {
			return nil, err
		}
	}
	return o.UploadWith(ctx, client, sub, runDir, w)
}

// UploadWith runs the transfer for one subfolder using the given client.
// The cobra layer builds the client once from configuration and shares it
// across workers.
func (o *Orchestrator) UploadWith(ctx context.Context, client *azcopy.Client, sub Subfolder, runDir string, w io.Writer) (*types.TransferSummary, error) {
	dest := sub.Name
	if o.opts.DestPrefix != "" {
		dest = o.opts.DestPrefix + "/" + sub.Name
	}
	destURL, err := azcopy.FileShareURL(o.opts.Account, o.opts.Share, dest, o.opts.SAS)
	if err != nil {
		return nil, err
	}

	// Native azcopy logs for this subfolder land in its run directory.
	c := *client
	c.LogDir = filepath.Join(runDir, "azcopy")

	copyOpts := azcopy.CopyOptions{
		Source:              sub.Path,
		Destination:         destURL,
		PreservePermissions: o.opts.PreservePermissions,
		DryRun:              o.opts.DryRun,
	}
	var args []string
	if o.opts.Sync {
		args = c.SyncArgs(copyOpts)
	} else {
		args = c.CopyArgs(copyOpts)
	}

	result, runErr := c.Run(ctx, args, w)
	if result == nil {
		return nil, runErr
	}
	path := ""
	if sw, ok := w.(*logging.SequenceWriter); ok {
		path = sw.Path()
	}
	return result.Summary(sub.Name, path), runErr
}

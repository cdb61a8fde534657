package azcopy

import "strconv"

// CopyOptions configures one copy or sync invocation.
type CopyOptions struct {
	// Source is the local path to upload.
	Source string

	// Destination is the full storage URL including the SAS token.
	Destination string

	// PreservePermissions passes --preserve-smb-permissions for SMB-aware
	// targets.
	PreservePermissions bool

	// DeleteDestination passes --delete-destination=true on sync runs so
	// the share mirrors the source.
	DeleteDestination bool

	// Overwrite controls the copy --overwrite flag; empty means azcopy's
	// default (true).
	Overwrite string

	// DryRun passes --dry-run; azcopy prints the planned transfers without
	// moving bytes.
	DryRun bool
}

// CopyArgs builds the argument vector for azcopy copy. JSON output is
// always requested; the parser depends on it.
func (c *Client) CopyArgs(opts CopyOptions) []string {
	args := []string{
		"copy", opts.Source, opts.Destination,
		"--recursive",
		"--output-type", "json",
	}
	args = c.appendCommon(args, opts)
	if opts.Overwrite != "" {
		args = append(args, "--overwrite", opts.Overwrite)
	}
	return args
}

// SyncArgs builds the argument vector for azcopy sync.
func (c *Client) SyncArgs(opts CopyOptions) []string {
	args := []string{
		"sync", opts.Source, opts.Destination,
		"--recursive",
		"--output-type", "json",
	}
	args = c.appendCommon(args, opts)
	if opts.DeleteDestination {
		args = append(args, "--delete-destination", "true")
	}
	return args
}

// JobsShowArgs builds the argument vector for azcopy jobs show, used to
// re-query a summary for a finished job.
func (c *Client) JobsShowArgs(jobID string) []string {
	return []string{"jobs", "show", jobID, "--output-type", "json"}
}

func (c *Client) appendCommon(args []string, opts CopyOptions) []string {
	if c.LogLevel != "" {
		args = append(args, "--log-level", c.LogLevel)
	}
	if c.CapMbps > 0 {
		args = append(args, "--cap-mbps", strconv.Itoa(c.CapMbps))
	}
	if opts.PreservePermissions {
		args = append(args, "--preserve-smb-permissions")
	}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}
	return args
}

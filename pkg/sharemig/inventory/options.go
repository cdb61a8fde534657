package inventory

// Options configures an inventory walk.
type Options struct {
	// Root is the directory to walk.
	Root string

	// MaxDepth limits descent, measured in path segments below Root.
	// Zero means unlimited. Folders at the limit are recorded but not
	// entered.
	MaxDepth int

	// Sanitize renames entries whose names contain characters invalid on
	// Azure Files, recording the old and new names in the row.
	Sanitize bool

	// Replacement is the string substituted for invalid characters during
	// sanitization. Defaults to "_".
	Replacement string

	// DryRun previews sanitization renames without touching the
	// filesystem. Rows still carry the would-be OldName/NewName pair.
	DryRun bool

	// ComputeSize accumulates file sizes into the summary's TotalBytes.
	ComputeSize bool

	// Exclude contains glob patterns for paths to skip entirely.
	Exclude []string

	// FollowReparse walks through reparse points instead of skipping
	// them. Off by default to avoid traversal cycles.
	FollowReparse bool
}

// Validate applies defaults for zero or invalid values.
func (o *Options) Validate() error {
	if o.Root == "" {
		o.Root = "."
	}
	if o.Replacement == "" {
		o.Replacement = "_"
	}
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
	return nil
}

// DefaultOptions returns options with all defaults applied.
func DefaultOptions() Options {
	o := Options{}
	_ = o.Validate()
	return o
}

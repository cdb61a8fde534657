// Package config provides configuration management for the sharemig
// migration toolkit.
package config

// Default configuration values for sharemig.
const (
	// DefaultReplacement is the character substituted for invalid filename
	// characters during sanitization.
	DefaultReplacement = "_"

	// DefaultAzCopyLogLevel is the log level passed to azcopy's own
	// --log-level flag.
	DefaultAzCopyLogLevel = "INFO"

	// DefaultReportRetries bounds central CSV append attempts before
	// falling back to the pending queue directory.
	DefaultReportRetries = 5

	// DefaultReportBackoffMs is the initial backoff between central CSV
	// append attempts.
	DefaultReportBackoffMs = 100

	// DefaultRAMLimitPercent pauses spawn-mode launches while system memory
	// usage exceeds this percentage.
	DefaultRAMLimitPercent = 85.0

	// DefaultLaunchDelay is the pause between spawn-mode process launches.
	DefaultLaunchDelay = "3s"

	// LooseFilesFolder is the synthetic subfolder that orchestrate
	// --gather-loose moves root-level files into.
	LooseFilesFolder = "_loose-files"
)

// Package azcopy wraps the external azcopy binary for copy and sync runs
// against Azure Storage. The wrapper constructs the command line, streams
// azcopy's JSON-lines output into the wrapper log while parsing it, and
// distills each invocation into a single transfer summary row. SAS tokens
// are redacted from everything the wrapper logs or reports.
package azcopy

import (
	"fmt"
	"os/exec"

	"github.com/sharemig/sharemig/pkg/sharemig/logging"
)

// DefaultBinary is the executable name resolved from PATH when no explicit
// path is configured.
const DefaultBinary = "azcopy"

// Client runs azcopy invocations with a fixed configuration.
type Client struct {
	// Binary is the resolved azcopy executable path.
	Binary string

	// LogLevel is passed to azcopy's --log-level flag.
	LogLevel string

	// CapMbps caps azcopy's throughput; zero means unlimited.
	CapMbps int

	// LogDir, when set, is exported as AZCOPY_LOG_LOCATION so azcopy's
	// native logs land inside the run directory instead of the user
	// profile.
	LogDir string

	log *logging.Logger
}

// Find resolves the azcopy executable. An explicit path is verified as-is;
// an empty path is looked up on PATH.
func Find(binary string) (string, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("azcopy not found (%q): %w", binary, err)
	}
	return path, nil
}

// NewClient resolves the binary and returns a ready client.
func NewClient(binary, logLevel string, capMbps int) (*Client, error) {
	path, err := Find(binary)
	if err != nil {
		return nil, err
	}
	return &Client{
		Binary:   path,
		LogLevel: logLevel,
		CapMbps:  capMbps,
		log:      logging.Get("azcopy"),
	}, nil
}

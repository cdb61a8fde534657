package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sharemig/sharemig/pkg/sharemig/azcopy"
	"github.com/sharemig/sharemig/pkg/sharemig/config"
	"github.com/sharemig/sharemig/pkg/sharemig/ledger"
	"github.com/sharemig/sharemig/pkg/sharemig/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// signalContext returns a context cancelled on interrupt or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		printInfo("\nInterrupted, stopping...")
		cancel()
	}()

	return ctx, cancel
}

// resolveDir expands ~ in a path, makes it absolute and verifies it is an
// existing directory.
func resolveDir(path string) (string, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", absPath)
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", absPath)
	}

	return absPath, nil
}

// buildAzcopyClient constructs an azcopy client from configuration.
func buildAzcopyClient() (*azcopy.Client, error) {
	return azcopy.NewClient(
		viper.GetString("azcopy.binary"),
		viper.GetString("azcopy.log_level"),
		viper.GetInt("azcopy.cap_mbps"),
	)
}

// centralReportPath returns the configured central transfer-summary CSV
// location.
func centralReportPath() string {
	if p := viper.GetString("report.path"); p != "" {
		return p
	}
	return config.DefaultReportPath()
}

// newAppender builds the central CSV appender from configuration.
func newAppender() (*report.Appender, error) {
	path := centralReportPath()
	if path == config.DefaultReportPath() {
		if err := config.EnsureDataDir(); err != nil {
			return nil, err
		}
	}

	backoff := time.Duration(viper.GetInt("report.retry_backoff_ms")) * time.Millisecond
	return report.NewAppender(path, viper.GetInt("report.max_retries"), backoff), nil
}

// openLedger opens the local job ledger at its default location.
func openLedger() (*ledger.Ledger, error) {
	if err := config.EnsureDataDir(); err != nil {
		return nil, err
	}
	return ledger.Open(config.DefaultLedgerPath())
}

/// Flag helpers: a local flag that was set on the command line wins over the
// config file / environment value of the same key.

func flagBool(cmd *cobra.Command, name, key string) bool {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetBool(name)
		return v
	}
	return viper.GetBool(key)
}

func flagString(cmd *cobra.Command, name, key string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return viper.GetString(key)
}

func flagInt(cmd *cobra.Command, name, key string) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	return viper.GetInt(key)
}

func flagStringSlice(cmd *cobra.Command, name, key string) []string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetStringSlice(name)
		return v
	}
	return viper.GetStringSlice(key)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// Use a temp directory that doesn't have a config file
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Replacement != DefaultReplacement {
		t.Errorf("Replacement = %q, want %q", cfg.Replacement, DefaultReplacement)
	}
	if cfg.Sanitize {
		t.Error("Sanitize = true, want false by default")
	}
	if cfg.AzCopy.LogLevel != DefaultAzCopyLogLevel {
		t.Errorf("AzCopy.LogLevel = %q, want %q", cfg.AzCopy.LogLevel, DefaultAzCopyLogLevel)
	}
	if cfg.Report.MaxRetries != DefaultReportRetries {
		t.Errorf("Report.MaxRetries = %d, want %d", cfg.Report.MaxRetries, DefaultReportRetries)
	}
	if cfg.Report.RetryBackoffMs != DefaultReportBackoffMs {
		t.Errorf("Report.RetryBackoffMs = %d, want %d", cfg.Report.RetryBackoffMs, DefaultReportBackoffMs)
	}
	if cfg.Orchestrate.RAMLimitPercent != DefaultRAMLimitPercent {
		t.Errorf("Orchestrate.RAMLimitPercent = %g, want %g", cfg.Orchestrate.RAMLimitPercent, DefaultRAMLimitPercent)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_FromFile(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, ".config", "sharemig")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configContent := `
account: contosomigration
share: dept-shares
sanitize: true
azcopy:
  binary: /opt/azcopy/azcopy
  cap_mbps: 500
orchestrate:
  parallel: 6
`
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Account != "contosomigration" {
		t.Errorf("Account = %q, want contosomigration", cfg.Account)
	}
	if cfg.Share != "dept-shares" {
		t.Errorf("Share = %q, want dept-shares", cfg.Share)
	}
	if !cfg.Sanitize {
		t.Error("Sanitize = false, want true")
	}
	if cfg.AzCopy.Binary != "/opt/azcopy/azcopy" {
		t.Errorf("AzCopy.Binary = %q", cfg.AzCopy.Binary)
	}
	if cfg.AzCopy.CapMbps != 500 {
		t.Errorf("AzCopy.CapMbps = %d, want 500", cfg.AzCopy.CapMbps)
	}
	if cfg.Orchestrate.Parallel != 6 {
		t.Errorf("Orchestrate.Parallel = %d, want 6", cfg.Orchestrate.Parallel)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/runs", filepath.Join(home, "runs")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got, err := ExpandPath(tt.input)
		if err != nil {
			t.Fatalf("ExpandPath(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestWriteDefault(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)

	if err := WriteDefault(); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	configPath := filepath.Join(tempDir, "sharemig", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("config file is empty")
	}

	// A second call must not fail or truncate the existing file.
	if err := WriteDefault(); err != nil {
		t.Fatalf("second WriteDefault() error = %v", err)
	}
	again, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if string(again) != string(data) {
		t.Error("second WriteDefault() modified existing config")
	}
}

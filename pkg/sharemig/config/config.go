package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// AzCopyConfig configures the external azcopy invocation.
type AzCopyConfig struct {
	// Binary is the azcopy executable path; empty means resolve from PATH.
	Binary string `mapstructure:"binary"`

	// LogLevel is passed to azcopy's own --log-level flag.
	LogLevel string `mapstructure:"log_level"`

	// CapMbps caps azcopy's throughput; zero means unlimited.
	CapMbps int `mapstructure:"cap_mbps"`
}

// ReportConfig configures the centralized transfer-summary CSV.
type ReportConfig struct {
	// Path is the central CSV location; empty means DefaultReportPath.
	Path string `mapstructure:"path"`

	// MaxRetries bounds append attempts against lock contention before the
	// row falls back to the pending queue directory.
	MaxRetries int `mapstructure:"max_retries"`

	// RetryBackoffMs is the initial backoff between append attempts; it
	// doubles on each retry.
	RetryBackoffMs int `mapstructure:"retry_backoff_ms"`
}

// OrchestrateConfig configures subfolder fan-out.
type OrchestrateConfig struct {
	// Parallel is the maximum concurrent subfolder workers (0 = auto).
	Parallel int `mapstructure:"parallel"`

	// RAMLimitPercent pauses spawn-mode launches while system memory usage
	// exceeds this percentage.
	RAMLimitPercent float64 `mapstructure:"ram_limit_percent"`

	// LaunchDelay is the pause between spawn-mode process launches.
	LaunchDelay string `mapstructure:"launch_delay"`
}

// Config represents the application configuration.
type Config struct {
	Account     string            `mapstructure:"account"`
	Share       string            `mapstructure:"share"`
	Sanitize    bool              `mapstructure:"sanitize"`
	Replacement string            `mapstructure:"replacement"`
	MaxDepth    int               `mapstructure:"max_depth"`
	Exclude     []string          `mapstructure:"exclude"`
	AzCopy      AzCopyConfig      `mapstructure:"azcopy"`
	Report      ReportConfig      `mapstructure:"report"`
	Orchestrate OrchestrateConfig `mapstructure:"orchestrate"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/sharemig/config.yaml
//   - $HOME/.config/sharemig/config.yaml
//
// Environment variables are prefixed with SHAREMIG_ (e.g. SHAREMIG_ACCOUNT).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "sharemig"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "sharemig"))

	v.SetEnvPrefix("SHAREMIG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults registers configuration defaults on the given viper instance.
// The cobra layer reuses it for the global instance backing flag binding.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("sanitize", false)
	v.SetDefault("replacement", DefaultReplacement)
	v.SetDefault("max_depth", 0)
	v.SetDefault("exclude", []string{})

	v.SetDefault("azcopy.binary", "")
	v.SetDefault("azcopy.log_level", DefaultAzCopyLogLevel)
	v.SetDefault("azcopy.cap_mbps", 0)

	v.SetDefault("report.path", "")
	v.SetDefault("report.max_retries", DefaultReportRetries)
	v.SetDefault("report.retry_backoff_ms", DefaultReportBackoffMs)

	v.SetDefault("orchestrate.parallel", 0)
	v.SetDefault("orchestrate.ram_limit_percent", DefaultRAMLimitPercent)
	v.SetDefault("orchestrate.launch_delay", DefaultLaunchDelay)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"inventory":   "info",
		"azcopy":      "info",
		"orchestrate": "info",
		"report":      "warn",
	})
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "sharemig"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "sharemig"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# sharemig configuration

# Storage account and file share used when none are given on the command line
account: ""
share: ""

# Inventory walker settings
sanitize: false
replacement: %q
max_depth: 0
exclude: []

# External azcopy settings
azcopy:
  # Absolute path to the azcopy binary (empty: resolve from PATH)
  binary: ""
  log_level: %s
  cap_mbps: 0

# Centralized transfer-summary CSV
report:
  # Path to the central CSV (empty: $XDG_DATA_HOME/sharemig/transfer-summary.csv)
  path: ""
  max_retries: %d
  retry_backoff_ms: %d

# Subfolder fan-out
orchestrate:
  parallel: 0            # 0 = derive from system resources
  ram_limit_percent: %g
  launch_delay: %s

# Logging configuration
logging:
  level: info
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30
    max_backups: 5
    daily: true
  components:
    inventory: info
    azcopy: info
    orchestrate: info
    report: warn
`, DefaultReplacement, DefaultAzCopyLogLevel, DefaultReportRetries,
		DefaultReportBackoffMs, DefaultRAMLimitPercent, DefaultLaunchDelay)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/sharemig/ for the ledger and central CSV.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "sharemig")
}

// StateDir returns $XDG_STATE_HOME/sharemig/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "sharemig")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "sharemig.log")
}

// DefaultReportPath returns the default central transfer-summary CSV path.
func DefaultReportPath() string {
	return filepath.Join(DataDir(), "transfer-summary.csv")
}

// DefaultLedgerPath returns the default Badger ledger directory.
func DefaultLedgerPath() string {
	return filepath.Join(DataDir(), "ledger")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	if err := os.MkdirAll(DataDir(), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}

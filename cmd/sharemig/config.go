package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sharemig/sharemig/pkg/sharemig/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage sharemig configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/sharemig/config.yaml (if set)
  2. ~/.config/sharemig/config.yaml

Environment variables can override config file settings using the SHAREMIG_ prefix:
  SHAREMIG_ACCOUNT=mystorageaccount
  SHAREMIG_SAS='?sv=...'
  SHAREMIG_AZCOPY_BINARY=/opt/azcopy/azcopy`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Show config file being used
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("account:                     %s\n", cfg.Account)
	fmt.Printf("share:                       %s\n", cfg.Share)
	fmt.Printf("sanitize:                    %t\n", cfg.Sanitize)
	fmt.Printf("replacement:                 %q\n", cfg.Replacement)
	fmt.Printf("max_depth:                   %d\n", cfg.MaxDepth)
	fmt.Printf("exclude:                     %v\n", cfg.Exclude)
	fmt.Printf("azcopy.binary:               %s\n", cfg.AzCopy.Binary)
	fmt.Printf("azcopy.log_level:            %s\n", cfg.AzCopy.LogLevel)
	fmt.Printf("azcopy.cap_mbps:             %d\n", cfg.AzCopy.CapMbps)
	fmt.Printf("report.path:                 %s\n", centralReportPath())
	fmt.Printf("report.max_retries:          %d\n", cfg.Report.MaxRetries)
	fmt.Printf("report.retry_backoff_ms:     %d\n", cfg.Report.RetryBackoffMs)
	fmt.Printf("orchestrate.parallel:        %d\n", cfg.Orchestrate.Parallel)
	fmt.Printf("orchestrate.ram_limit:       %g%%\n", cfg.Orchestrate.RAMLimitPercent)
	fmt.Printf("orchestrate.launch_delay:    %s\n", cfg.Orchestrate.LaunchDelay)
	fmt.Printf("logging.level:               %s\n", cfg.Logging.Level)

	// Show any environment overrides
	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []string{
		"SHAREMIG_ACCOUNT",
		"SHAREMIG_SHARE",
		"SHAREMIG_SAS",
		"SHAREMIG_SANITIZE",
		"SHAREMIG_AZCOPY_BINARY",
		"SHAREMIG_AZCOPY_CAP_MBPS",
		"SHAREMIG_REPORT_PATH",
		"SHAREMIG_ORCHESTRATE_PARALLEL",
	}

	anyOverrides := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			// A SAS token is a credential; never echo it.
			if name == "SHAREMIG_SAS" {
				val = "<redacted>"
			}
			fmt.Printf("%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	// Ensure config file exists
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	// Determine editor
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'sharemig config edit' to modify it.")
		return nil
	}

	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	fmt.Println(configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}

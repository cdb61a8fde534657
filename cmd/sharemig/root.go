package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sharemig/sharemig/pkg/sharemig/config"
	"github.com/sharemig/sharemig/pkg/sharemig/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "sharemig",
		Short: "Migrate on-prem file shares to Azure Storage",
		Long: `sharemig supports file-share migrations to Azure Storage: it inventories
share trees with access probing, repairs permissions and duplicated
folders, wraps azcopy for the actual transfer, and reconciles everything
into one central summary CSV.

Examples:
  sharemig inventory /srv/shares/finance          # Inventory one folder
  sharemig grant /srv/shares --take-ownership     # Repair access
  sharemig dedupe /srv/shares --apply             # Fix X/X duplicates
  sharemig upload --source /srv/shares/finance    # Upload one folder
  sharemig orchestrate /srv/shares                # Migrate every subfolder
  sharemig report show                            # Consolidated status`,
		PersistentPreRunE: initializeLogging,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/sharemig/config.yaml)")
	rootCmd.PersistentFlags().String("account", "", "Azure storage account name")
	rootCmd.PersistentFlags().String("share", "", "Azure file share (or blob container) name")
	rootCmd.PersistentFlags().String("sas", "", "SAS token (or set SHAREMIG_SAS)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	// Bind flags to viper
	_ = viper.BindPFlag("account", rootCmd.PersistentFlags().Lookup("account"))
	_ = viper.BindPFlag("share", rootCmd.PersistentFlags().Lookup("share"))
	_ = viper.BindPFlag("sas", rootCmd.PersistentFlags().Lookup("sas"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "sharemig"))
		}
		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "sharemig"))
		}
	}

	viper.SetEnvPrefix("SHAREMIG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// initializeLogging initializes the logging facade from configuration. The
// verbose and quiet flags override the configured console level.
func initializeLogging(cmd *cobra.Command, args []string) error {
	if err := config.EnsureStateDir(); err != nil {
		return err
	}

	level := viper.GetString("logging.level")
	consoleLevel := level
	if viper.GetBool("verbose") {
		consoleLevel = "debug"
	} else if viper.GetBool("quiet") {
		consoleLevel = "error"
	}

	logPath := viper.GetString("logging.path")
	if logPath == "" {
		logPath = config.DefaultLogPath()
	}

	components := map[string]string{}
	_ = viper.UnmarshalKey("logging.components", &components)

	return logging.Init(logging.Config{
		Level:        level,
		ConsoleLevel: consoleLevel,
		Path:         logPath,
		Components:   components,
		Rotation: parseRotationConfig(config.RotationConfig{
			MaxSize:    viper.GetString("logging.rotation.max_size"),
			MaxAge:     viper.GetInt("logging.rotation.max_age"),
			MaxBackups: viper.GetInt("logging.rotation.max_backups"),
			Daily:      viper.GetBool("logging.rotation.daily"),
		}),
	})
}

// Execute runs the root command.
func Execute() error {
	defer logging.Close()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() {
		fmt.Printf(format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

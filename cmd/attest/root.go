package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/attest/pkg/attest/config"
	"github.com/jamesainslie/attest/pkg/attest/logging"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "attest",
		Short: "Maintain per-directory checksum manifests",
		Long: `Attest maintains a SHA-256 checksum manifest in every directory of a
tree and reconciles files against it.

Each directory gets a ` + "`.checksums.sha256`" + ` sumfile listing the digest of
every tracked file. Create records new files, verify checks the tree
against its records, and reset rewrites the records to match the tree.

Examples:
  attest create ~/archive        # Record checksums for untracked files
  attest verify ~/archive        # Check the tree against its records
  attest verify -o json ~/photos # Machine-readable verification report
  attest reset ~/archive         # Accept current state as the new baseline
  attest config show             # Show configuration`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/attest/config.yaml)")
	rootCmd.PersistentFlags().BoolP("include-hidden", "a", false, "include hidden files and directories")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "file name patterns to skip (can be specified multiple times)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "hashing worker count (0=auto)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format: pretty, plain, json, paths")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress output for passing runs")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	// Bind flags to viper
	_ = viper.BindPFlag("include_hidden", rootCmd.PersistentFlags().Lookup("include-hidden"))
	_ = viper.BindPFlag("exclude_files", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
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

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "attest"))
		}
		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "attest"))
		}
	}

	// Set environment variable prefix and enable auto env binding
	viper.SetEnvPrefix("ATTEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()

	initLogging()
}

// initLogging wires file logging from the loaded configuration. Logging
// failures are not fatal; the tool degrades to silent loggers.
func initLogging() {
	cfg := logging.DefaultConfig()
	if level := viper.GetString("logging.level"); level != "" {
		cfg.Level = level
	}
	if path := viper.GetString("logging.path"); path != "" {
		cfg.Path = path
	}
	cfg.Components = viper.GetStringMapString("logging.components")
	if getVerbose() {
		cfg.ConsoleLevel = "debug"
	}

	if err := logging.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()
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
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
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
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

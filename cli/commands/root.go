// Package commands implements the CLI command structure using Cobra.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/petal-labs/dify-go/cli/config"
)

var (
	// Global flags
	cfgFile    string
	app        string
	user       string
	jsonOutput bool
	verbose    bool

	// Loaded configuration
	cfg *config.Config
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "dify",
	Short: "Dify - generative AI application CLI",
	Long: `Dify is a command-line interface for Dify applications.

Use it to manage app API keys, chat with chat apps, run completion apps,
and execute workflows from the terminal.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.dify/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&app, "app", "", "app name from config")
	rootCmd.PersistentFlags().StringVar(&user, "user", "", "end-user identifier (default: random per invocation)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

// initConfig reads in config file and sets defaults.
func initConfig() error {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	var err error
	cfg, err = config.LoadConfig(path)
	if err != nil {
		return err
	}

	// Apply config defaults if flags not set
	if app == "" && cfg.DefaultApp != "" {
		app = cfg.DefaultApp
	}
	if user == "" && cfg.User != "" {
		user = cfg.User
	}

	return nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return cfg
}

// GetApp returns the effective app name (flag or config default).
func GetApp() string {
	return app
}

// IsJSONOutput returns true if JSON output is enabled.
func IsJSONOutput() bool {
	return jsonOutput
}

// IsVerbose returns true if verbose output is enabled.
func IsVerbose() bool {
	return verbose
}

package commands

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/petal-labs/dify-go/cli/config"
	"github.com/petal-labs/dify-go/dify"
)

var (
	initBaseURL string
	initUser    string
)

var initCmd = &cobra.Command{
	Use:   "init <app-name>",
	Short: "Initialize CLI configuration for an app",
	Long: `Initialize the CLI configuration with an app entry.

Creates (or updates) ~/.dify/config.yaml with the app name, sets it as the
default app, and records the base URL when one is given. The API key is
stored separately via 'dify keys set <app-name>'.

Example:
  dify init support
  dify init support --base-url https://dify.internal/v1`,
	Args: cobra.ExactArgs(1),
	RunE: runInitCmd,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initBaseURL, "base-url", "", "API base URL (default "+dify.DefaultBaseURL+")")
	initCmd.Flags().StringVar(&initUser, "default-user", "", "Default end-user identifier")
}

func runInitCmd(cmd *cobra.Command, args []string) error {
	appName := args[0]
	if err := validateAppName(appName); err != nil {
		return err
	}

	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	// PersistentPreRunE already loaded cfg from this path.
	if cfg.DefaultApp == "" {
		cfg.DefaultApp = appName
	}
	if initUser != "" {
		cfg.User = initUser
	}
	cfg.Apps[appName] = config.AppConfig{
		APIKeyRef: appName,
		BaseURL:   initBaseURL,
	}

	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Configured app %q in %s\n\n", appName, path)
	fmt.Println("Next steps:")
	fmt.Printf("  dify keys set %s\n", appName)
	fmt.Printf("  dify chat --app %s --query \"Hello\"\n", appName)
	return nil
}

func validateAppName(name string) error {
	if name == "" {
		return fmt.Errorf("app name cannot be empty")
	}

	validName := regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid app name %q: must start with a letter and contain only letters, numbers, underscores, and hyphens", name)
	}

	return nil
}

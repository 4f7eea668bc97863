package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igcourier/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igcourier configuration files.

Configuration is loaded with this precedence:
  - Environment variables (highest)
  - .env file
  - Configuration file
  - Default values (lowest)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.igcourier.yaml' in the current directory unless
a different path is given with --config.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources. Credentials are
masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# igcourier configuration file
#
# Environment variables prefixed with IGCOURIER_ override these values.
# For example: IGCOURIER_TELEGRAM_TOKEN, IGCOURIER_IG_COOKIE

# Instagram upstream access
instagram:
  # Full browser cookie string; must contain csrftoken=...
  # Leave empty to use a cookie stored via "igcourier auth login".
  cookie: ""

  # Name of the stored cookie account to use when cookie is empty.
  account: ""

# Telegram transport
telegram:
  # Bot token from @BotFather (required)
  token: "YOUR_BOT_TOKEN"

# Feed walking
feed:
  # Default page size when the user omits count
  page_size: 33
  timeout: 240s

# Media downloads
download:
  timeout: 240s
  retry_attempts: 3

# Problem-report storage
reports:
  directory: "report"

# Upstream rate limiting
rate_limit:
  requests_per_minute: 60

# Logging
logging:
  # debug, info, warn, error
  level: "info"
  # Optional log file; console output stays on
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".igcourier.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	masked := *cfg
	masked.Instagram.Cookie = maskValue(cfg.Instagram.Cookie)
	masked.Telegram.Token = maskValue(cfg.Telegram.Token)

	data, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration is invalid:\n%w", err)
	}

	fmt.Println("Configuration is valid.")
	return nil
}

func maskValue(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

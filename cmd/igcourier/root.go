package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igcourier",
	Short: "An Instagram media courier bot for Telegram",
	Long: `igcourier walks Instagram account feeds and delivers the media to a
Telegram chat in fixed-size batches.

Features:
  - All Media, Images, Videos and Link Downloader delivery modes
  - Cursor-based feed pagination with resumable max_id tokens
  - Cooperative stop and Y/N resume mid-delivery
  - Secure cookie storage using the system keychain
  - Smart rate limiting to avoid API restrictions
  - Automatic retry with exponential backoff`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .igcourier.yaml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
}

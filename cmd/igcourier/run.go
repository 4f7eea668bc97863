package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"igcourier/internal/telegram"
	"igcourier/pkg/auth"
	"igcourier/pkg/config"
	"igcourier/pkg/dispatcher"
	"igcourier/pkg/fetcher"
	"igcourier/pkg/instagram"
	"igcourier/pkg/linkresolver"
	"igcourier/pkg/logger"
	"igcourier/pkg/ratelimit"
	"igcourier/pkg/reports"
	"igcourier/pkg/session"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the courier bot",
	Long: `Run the courier bot: connect to Telegram, poll for updates and serve
feature requests until interrupted.

The Instagram cookie is taken from the configuration or, when only an
account name is configured, from the credential store (see "igcourier
auth login").`,
	RunE: runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if cfg.Instagram.Cookie == "" {
		if err := resolveCookie(cfg); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("igcourier starting")

	reportManager, err := reports.NewManager(cfg.Reports.Directory)
	if err != nil {
		return fmt.Errorf("failed to create report manager: %w", err)
	}

	bot, err := telegram.NewBot(cfg.Telegram.Token, reportManager, log)
	if err != nil {
		return err
	}

	client := instagram.NewClient(cfg.Instagram.Cookie, cfg.Feed.Timeout, log)
	resolver := linkresolver.NewWithEndpoint(linkresolver.DefaultEndpoint, cfg.Download.Timeout, log)
	media := fetcher.New(cfg.Download.Timeout, cfg.Download.RetryAttempts, log)
	drainer := dispatcher.New(media, bot, log)
	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)

	controller := session.NewController(client, resolver, drainer, bot, limiter, cfg.Feed.PageSize, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("polling for updates, press Ctrl+C to exit")
	if err := bot.Run(ctx, controller); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("igcourier stopped")
	return nil
}

// resolveCookie fills the Instagram cookie from the credential store when
// the configuration names an account instead of carrying a raw cookie.
func resolveCookie(cfg *config.Config) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	if cfg.Instagram.Account != "" {
		account, err = manager.Retrieve(cfg.Instagram.Account)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil {
		return fmt.Errorf("no Instagram cookie available: %w", err)
	}

	cfg.Instagram.Cookie = account.Cookie
	cfg.Instagram.Account = account.Name
	return nil
}

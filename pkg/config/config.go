package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the courier bot.
type Config struct {
	// Instagram upstream access
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Telegram transport
	Telegram TelegramConfig `yaml:"telegram" json:"telegram"`

	// Feed walking settings
	Feed FeedConfig `yaml:"feed" json:"feed"`

	// Media download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Problem-report storage
	Reports ReportsConfig `yaml:"reports" json:"reports"`

	// Rate limiting for upstream feed calls
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds upstream credentials and anti-bot tokens.
type InstagramConfig struct {
	// Cookie is the full browser cookie string. The csrftoken field is
	// extracted from it when building feed requests.
	Cookie string `yaml:"cookie" json:"cookie"`
	// Account selects which stored cookie credential to load when Cookie
	// is not set directly.
	Account string `yaml:"account" json:"account"`
	AppID   string `yaml:"app_id" json:"app_id"`
	AsbdID  string `yaml:"asbd_id" json:"asbd_id"`
}

// TelegramConfig holds the chat transport credentials.
type TelegramConfig struct {
	Token string `yaml:"token" json:"token"`
}

// FeedConfig holds feed-walking settings.
type FeedConfig struct {
	PageSize int           `yaml:"page_size" json:"page_size"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// DownloadConfig holds media download settings.
type DownloadConfig struct {
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts" json:"retry_attempts"`
}

// ReportsConfig holds problem-report storage settings.
type ReportsConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			AppID:  "936619743392459",
			AsbdID: "129477",
		},
		Feed: FeedConfig{
			PageSize: 33,
			Timeout:  240 * time.Second,
		},
		Download: DownloadConfig{
			Timeout:       240 * time.Second,
			RetryAttempts: 3,
		},
		Reports: ReportsConfig{
			Directory: "report",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	if cookie := os.Getenv("IGCOURIER_IG_COOKIE"); cookie != "" {
		c.Instagram.Cookie = cookie
	}
	if account := os.Getenv("IGCOURIER_IG_ACCOUNT"); account != "" {
		c.Instagram.Account = account
	}
	if token := os.Getenv("IGCOURIER_TELEGRAM_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if pageSize := os.Getenv("IGCOURIER_FEED_PAGE_SIZE"); pageSize != "" {
		var val int
		fmt.Sscanf(pageSize, "%d", &val)
		if val > 0 {
			c.Feed.PageSize = val
		}
	}
	if rpm := os.Getenv("IGCOURIER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if reportDir := os.Getenv("IGCOURIER_REPORT_DIR"); reportDir != "" {
		c.Reports.Directory = reportDir
	}
	if logLevel := os.Getenv("IGCOURIER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".igcourier.yaml",
		".igcourier.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igcourier", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "igcourier", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".igcourier.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram token is required"))
	}
	if c.Instagram.Cookie == "" && c.Instagram.Account == "" {
		errs = append(errs, errors.New("an Instagram cookie or a stored cookie account is required"))
	}
	if c.Feed.PageSize <= 0 {
		errs = append(errs, errors.New("feed page size must be positive"))
	}
	if c.Feed.Timeout <= 0 {
		errs = append(errs, errors.New("feed timeout must be positive"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RetryAttempts < 0 {
		errs = append(errs, errors.New("retry attempts cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence:
// environment variables > .env file > config file > defaults.
func Load(configPath string) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igcourier.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return config, nil
}

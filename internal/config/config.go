// Package config provides configuration management for the tracker.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Scheduler     SchedulerConfig    `mapstructure:"scheduler"`
	Provider      ProviderConfig     `mapstructure:"provider"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	Production bool   `mapstructure:"production"` // disables the manual fetch trigger
}

// DatabaseConfig holds persistence configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SchedulerConfig holds fetch cycle scheduling configuration.
type SchedulerConfig struct {
	CronExpr string `mapstructure:"cron_expr"` // evaluated in UTC
}

// ProviderConfig holds market-data vendor configuration.
type ProviderConfig struct {
	Vendor          string `mapstructure:"vendor"` // "yahoo" or "alphavantage"
	AlphaVantageKey string `mapstructure:"alphavantage_key"`
	// Base URL overrides, primarily for tests. Empty means the vendor default.
	YahooBaseURL        string `mapstructure:"yahoo_base_url"`
	AlphaVantageBaseURL string `mapstructure:"alphavantage_base_url"`
	GoldPageURL         string `mapstructure:"gold_page_url"`
	SilverPageURL       string `mapstructure:"silver_page_url"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Email    EmailConfig    `mapstructure:"email"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// EmailConfig holds email notification configuration.
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Console  bool   `mapstructure:"console"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/daily-tracker"
	}
	return filepath.Join(home, ".config", "daily-tracker")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// No config file: defaults plus env overrides still make a usable config.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":4000")
	v.SetDefault("server.production", false)
	v.SetDefault("database.path", filepath.Join(DefaultConfigDir(), "tracker.db"))
	v.SetDefault("scheduler.cron_expr", "*/30 * * * *")
	v.SetDefault("provider.vendor", "alphavantage")
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.email.smtp_port", 587)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRACKER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TRACKER_PRODUCTION"); v == "1" || v == "true" {
		cfg.Server.Production = true
	}
	if v := os.Getenv("TRACKER_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("CRON_EXPR"); v != "" {
		cfg.Scheduler.CronExpr = v
	}
	if v := os.Getenv("FINANCIAL_DATA_PROVIDER"); v != "" {
		cfg.Provider.Vendor = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.Provider.AlphaVantageKey = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Notifications.Email.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Notifications.Email.SMTPPort = port
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.Notifications.Email.Username = v
		if cfg.Notifications.Email.From == "" {
			cfg.Notifications.Email.From = v
		}
	}
	if v := os.Getenv("SMTP_PASS"); v != "" {
		cfg.Notifications.Email.Password = v
	}
	if v := os.Getenv("ALERT_EMAIL_TO"); v != "" {
		cfg.Notifications.Email.To = v
		cfg.Notifications.Email.Enabled = true
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Provider.Vendor {
	case "yahoo", "alphavantage", "YAHOO_FINANCE", "ALPHA_VANTAGE":
	default:
		return fmt.Errorf("invalid provider vendor: %s (must be 'yahoo' or 'alphavantage')", c.Provider.Vendor)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Scheduler.CronExpr == "" {
		return fmt.Errorf("scheduler.cron_expr must not be empty")
	}
	return nil
}

// VendorName normalizes the configured vendor to its canonical short form.
func (c *Config) VendorName() string {
	switch c.Provider.Vendor {
	case "YAHOO_FINANCE", "yahoo":
		return "yahoo"
	default:
		return "alphavantage"
	}
}

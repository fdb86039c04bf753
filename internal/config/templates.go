package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Daily Tracker Configuration

[server]
# HTTP listen address
addr = ":4000"
# Production mode disables the manual fetch trigger endpoint
production = false

[database]
# SQLite database path. Empty uses ~/.config/daily-tracker/tracker.db
path = ""

[scheduler]
# Fetch cycle schedule, evaluated in UTC
cron_expr = "*/30 * * * *"

[provider]
# Market-data vendor: "yahoo" or "alphavantage"
vendor = "alphavantage"
# Required for the alphavantage vendor
alphavantage_key = ""

[notifications]
# Enable notifications
enabled = true

[notifications.webhook]
enabled = false
url = ""

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""

[notifications.email]
enabled = false
smtp_host = ""
smtp_port = 587
username = ""
password = ""
from = ""
to = ""

[logging]
# Log level: trace, debug, info, warn, error
level = "info"
console = true
file = true
`

// WriteTemplate writes a commented default config.toml into configDir and
// returns its path. Existing files are left untouched.
func WriteTemplate(configDir string) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}
	return path, nil
}

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"daily-tracker/internal/config"
)

// The root command resolves configuration from the --config persistent flag
// before any subcommand runs, so a subcommand executed against a custom
// config directory must pick up that directory's settings.
func TestRootCmdLoadsConfigFromFlag(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tracker.db")
	cfgBody := `
[database]
path = "` + dbPath + `"

[logging]
level = "error"
console = false
file = false
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(cfgBody), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", dir, "assets"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("expected database at configured path %s: %v", dbPath, err)
	}
}

// --debug raises the log level regardless of what the config file says.
func TestNewLoggerDebugOverride(t *testing.T) {
	cfg := &config.Config{}
	cfg.Logging.Level = "error"
	cfg.Logging.Console = false
	cfg.Logging.File = false

	if got := newLogger(cfg, false).GetLevel(); got != zerolog.ErrorLevel {
		t.Errorf("level without --debug = %s, want error", got)
	}
	if got := newLogger(cfg, true).GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("level with --debug = %s, want debug", got)
	}
}

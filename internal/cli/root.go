// Package cli provides the command-line interface for the tracker.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"daily-tracker/internal/alert"
	"daily-tracker/internal/config"
	"daily-tracker/internal/logging"
	"daily-tracker/internal/notify"
	"daily-tracker/internal/provider"
	"daily-tracker/internal/scheduler"
	"daily-tracker/internal/store"
	"daily-tracker/internal/stream"
)

// Version information
const Version = "0.1.0"

// rootOptions carries the config and logger resolved by the root command's
// PersistentPreRunE into the subcommands, which run after it.
type rootOptions struct {
	Config *config.Config
	Logger zerolog.Logger
}

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     store.DataStore
	Hub       *stream.Hub
	Notifier  notify.Notifier
	Provider  *provider.Router
	Scheduler *scheduler.Scheduler
}

// NewApp wires the application's components. The hub is created here, at
// the composition root, and handed to both the dispatcher and the HTTP
// handlers; nothing else owns shared state.
func NewApp(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	dataStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	hub := stream.NewHub()
	notifier := notify.NewMultiNotifier(&cfg.Notifications)
	quoteProvider := provider.NewFromConfig(cfg)
	dispatcher := alert.NewDispatcher(dataStore, notifier, hub, logger)
	sched := scheduler.New(dataStore, quoteProvider, dispatcher, cfg.Scheduler.CronExpr, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     dataStore,
		Hub:       hub,
		Notifier:  notifier,
		Provider:  quoteProvider,
		Scheduler: sched,
	}, nil
}

// Close releases the application's resources.
func (a *App) Close() error {
	return a.Store.Close()
}

// NewRootCmd creates the root command for the CLI. Configuration and the
// logger are resolved from the persistent flags before any subcommand runs.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "daily-tracker",
		Short: "Daily Tracker - asset price polling and threshold alerts",
		Long: `Daily Tracker polls prices for a configured set of assets (indices,
gold, silver, ...), records snapshots, and fires threshold-crossing alerts
to email and live stream subscribers.

Use 'daily-tracker serve' to run the scheduler and HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config")
			debug, _ := cmd.Flags().GetBool("debug")

			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			opts.Config = cfg
			opts.Logger = newLogger(cfg, debug)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/daily-tracker)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newFetchCmd(opts))
	rootCmd.AddCommand(newAssetsCmd(opts))
	rootCmd.AddCommand(newInitCmd())

	return rootCmd
}

// newLogger builds the process logger from the logging config section.
func newLogger(cfg *config.Config, debug bool) zerolog.Logger {
	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = cfg.Logging.Console
	logCfg.File = cfg.Logging.File
	if cfg.Logging.FilePath != "" {
		logCfg.FilePath = cfg.Logging.FilePath
	}
	if debug {
		logCfg.Level = "debug"
	}
	return logging.NewLoggerWithConfig(logCfg)
}

// newInitCmd creates the command that writes a starter config file.
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config.toml",
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config")
			path, err := config.WriteTemplate(configDir)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}

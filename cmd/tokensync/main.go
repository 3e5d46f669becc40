package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/schaermu/tokensync/internal/config"
	"github.com/schaermu/tokensync/internal/sync"
	"github.com/schaermu/tokensync/internal/tokens"
)

var (
	// Set by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
	dryRun    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tokensync",
	Short: "Keep a directory of token-named files in sync with a remote token list",
	Long: `tokensync fetches an ordered token list from a JSON endpoint and derives a set
of file names from every contiguous run of tokens.

It can create a fresh directory holding one placeholder file per name, or update
an existing directory in place: files whose names only differ in field order are
renamed, missing names are created and unmatched files are removed.`,
	SilenceUsage: true,
}

var createCmd = &cobra.Command{
	Use:   "create <dir>",
	Short: "Create a new directory populated with the target files",
	Long: `Create fetches the token list and creates <dir> with one placeholder file per
target name. The directory must not exist yet.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var updateCmd = &cobra.Command{
	Use:   "update <dir>",
	Short: "Reconcile an existing directory with the target files",
	Long: `Update fetches the token list and brings <dir> in line with the target names.
Exact matches are left alone, files whose name fields match a target in a
different order are renamed, missing targets are created and files matching
no target are deleted (unless sync.prune is false).`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tokensync %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/tokensync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	createCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be done without making changes")
	updateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be done without making changes")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	return run(args[0], func(ctx context.Context, engine *sync.Engine, dir string) error {
		return engine.Create(ctx, dir)
	})
}

func runUpdate(cmd *cobra.Command, args []string) error {
	return run(args[0], func(ctx context.Context, engine *sync.Engine, dir string) error {
		return engine.Update(ctx, dir)
	})
}

// run wires the engine and executes op against dir
func run(dir string, op func(context.Context, *sync.Engine, string) error) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	source := tokens.NewHTTPSource(cfg.Source.URL, cfg.Source.Timeout)
	engine := sync.NewEngine(cfg, source, afero.NewOsFs(), logger, dryRun)

	if err := op(ctx, engine, dir); err != nil {
		logger.Error("sync failed", "dir", dir, "error", err)
		return err
	}

	return nil
}

func setupLogger() *slog.Logger {
	// Parse log level
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Create handler based on format
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// loadConfig reads the config file named by --config. Without the flag, the
// default location is optional and built-in defaults apply when it is absent.
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	configPath := cfgFile
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Debug("no home directory, using default configuration", "error", err)
			return config.Default(), nil
		}
		configPath = filepath.Join(home, ".config", "tokensync", "config.yaml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			logger.Debug("no config file found, using default configuration", "path", configPath)
			return config.Default(), nil
		}
	}

	logger.Info("loading configuration", "path", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded",
		"url", cfg.Source.URL,
		"extension", cfg.Naming.Extension,
		"separator", cfg.Naming.Separator,
		"prune", cfg.PruneEnabled())

	return cfg, nil
}

func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

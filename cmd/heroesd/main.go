// heroesd is the heroes background daemon. It owns the hero database and
// serves it over a unix socket (gRPC) and, optionally, the HTTP API.
// Clients spawn it on demand.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/runger/heroes/internal/config"
	"github.com/runger/heroes/internal/daemon"
	"github.com/runger/heroes/internal/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "heroesd: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("heroesd", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default $XDG_CONFIG_HOME/heroes/config.yaml)")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Printf("heroesd %s\n", daemon.Version)
		return nil
	}

	paths := config.DefaultPaths()
	if *configPath == "" {
		*configPath = paths.ConfigFile()
	}
	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	paths = paths.WithConfig(cfg)

	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	// Set up logging. The level can change on SIGHUP.
	var level slog.LevelVar
	if err := level.UnmarshalText([]byte(cfg.Daemon.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logOut, closeLog, err := openLogOutput(cfg.Daemon.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: &level}))

	store, err := storage.NewSQLiteStore(paths.DatabaseFile(), &storage.Options{
		Match:         cfg.Search.Match,
		CaseSensitive: cfg.Search.CaseSensitive,
		Seed:          cfg.Store.Seed,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	serverCfg := &daemon.ServerConfig{
		Store:    store,
		Paths:    paths,
		Logger:   logger,
		HTTPAddr: cfg.Daemon.HTTPAddr,
		ReloadFn: func() error {
			next, err := config.LoadFromFile(*configPath)
			if err != nil {
				return err
			}
			if err := level.UnmarshalText([]byte(next.Daemon.LogLevel)); err != nil {
				return err
			}
			logger.Info("log level updated", "level", level.Level())
			return nil
		},
	}

	// Run the daemon (blocks until shutdown)
	return daemon.Run(context.Background(), serverCfg)
}

// openLogOutput returns the log destination: path when set, else stderr.
func openLogOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stderr, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

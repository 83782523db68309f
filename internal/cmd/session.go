package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/runger/heroes/internal/backend"
	"github.com/runger/heroes/internal/config"
	"github.com/runger/heroes/internal/heroservice"
	"github.com/runger/heroes/internal/ipc"
	"github.com/runger/heroes/internal/messages"
	"github.com/runger/heroes/internal/storage"
)

// session is what a hero command works with: the request gateway, the
// status log it writes to, and the backend behind it.
type session struct {
	cfg     *config.Config
	paths   *config.Paths
	heroes  *heroservice.Service
	status  *messages.Service
	logger  *slog.Logger
	closeFn func() error
}

// loadConfig reads --config, or the default config file, and resolves the
// paths it overrides.
func loadConfig() (*config.Config, *config.Paths, error) {
	paths := config.DefaultPaths()
	path := configFile
	if path == "" {
		path = paths.ConfigFile()
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, paths.WithConfig(cfg), nil
}

// newLogger returns the diagnostic logger: warnings on stderr, everything
// with --debug.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newGateway builds the backend selected by client.backend. The returned
// close function may be nil.
var newGateway = func(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger) (backend.Gateway, func() error, error) {
	switch cfg.Client.Backend {
	case config.BackendHTTP:
		gw, err := backend.NewHTTP(backend.HTTPConfig{
			BaseURL:           cfg.Client.BaseURL,
			Timeout:           cfg.Client.Timeout(),
			RequestsPerSecond: cfg.Client.MaxRequestsPerSec,
			Logger:            logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return gw, nil, nil

	case config.BackendLocal:
		store, err := storage.NewSQLiteStore(paths.DatabaseFile(), &storage.Options{
			Match:         cfg.Search.Match,
			CaseSensitive: cfg.Search.CaseSensitive,
			Seed:          cfg.Store.Seed,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return backend.NewLocal(store), store.Close, nil

	default:
		client, err := ipc.NewClient(ctx, ipc.Options{
			SocketPath: paths.SocketFile(),
			Timeout:    cfg.Client.Timeout(),
			AutoStart:  cfg.Client.AutoStartDaemon,
			LogPath:    paths.LogFile(),
		})
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	}
}

// openSession loads the config and connects the request gateway to the
// configured backend.
func openSession(ctx context.Context) (*session, error) {
	applyColorMode()

	cfg, paths, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := newLogger()
	gw, closeFn, err := newGateway(ctx, cfg, paths, logger)
	if err != nil {
		return nil, err
	}

	status := messages.NewService()
	return &session{
		cfg:     cfg,
		paths:   paths,
		heroes:  heroservice.New(gw, status, logger),
		status:  status,
		logger:  logger,
		closeFn: closeFn,
	}, nil
}

// Close prints the status log unless --quiet and releases the backend.
func (s *session) Close() {
	if !quiet {
		printStatus(os.Stderr, s.status.Messages())
	}
	s.release()
}

// release closes the backend without printing the status log.
func (s *session) release() {
	if s.closeFn != nil {
		if err := s.closeFn(); err != nil {
			s.logger.Debug("failed to close backend", "error", err)
		}
	}
}

// printStatus writes status log lines, dimmed.
func printStatus(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintf(w, "%s%s%s\n", colorDim, line, colorReset)
	}
}

// cmdContext returns the command's context, or Background when the command
// is invoked outside Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

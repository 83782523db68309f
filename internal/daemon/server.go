// Package daemon implements heroesd, the process that owns the heroes
// database. It serves the collection over gRPC on a Unix socket and,
// optionally, as JSON over HTTP.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/runger/heroes/internal/api"
	"github.com/runger/heroes/internal/config"
	"github.com/runger/heroes/internal/metrics"
	"github.com/runger/heroes/internal/rpc"
	"github.com/runger/heroes/internal/storage"
)

// Version is set at build time
var Version = "dev"

const httpShutdownTimeout = 5 * time.Second

// Server is the daemon server. It answers the heroes gRPC service and
// hosts the HTTP API when an address is configured.
type Server struct {
	// Dependencies
	store   storage.Store
	metrics *metrics.Collector

	// Server state
	grpcServer   *grpc.Server
	httpServer   *http.Server
	listener     net.Listener
	httpListener net.Listener
	httpAddr     string
	paths        *config.Paths
	logger       *slog.Logger

	// Lifecycle
	startTime    time.Time
	ready        chan struct{}
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

var _ rpc.HeroesServer = (*Server)(nil)

// ServerConfig contains configuration options for the daemon server.
type ServerConfig struct {
	// Store is the storage backend (required)
	Store storage.Store

	// Paths is the path configuration (optional, uses defaults if nil)
	Paths *config.Paths

	// Logger is the structured logger (optional, uses default if nil)
	Logger *slog.Logger

	// HTTPAddr is the TCP address of the HTTP API. Empty disables it.
	HTTPAddr string

	// Metrics collects request metrics (optional, created if nil)
	Metrics *metrics.Collector

	// ReloadFn is called on SIGHUP to reload configuration.
	// If nil, SIGHUP is ignored.
	ReloadFn ReloadFunc
}

// NewServer creates a new daemon server with the given configuration.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	paths := cfg.Paths
	if paths == nil {
		paths = config.DefaultPaths()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.NewCollector()
	}

	return &Server{
		store:        cfg.Store,
		metrics:      m,
		httpAddr:     cfg.HTTPAddr,
		paths:        paths,
		logger:       logger,
		startTime:    time.Now(),
		ready:        make(chan struct{}),
		shutdownChan: make(chan struct{}),
	}, nil
}

// Ready is closed once the listeners are accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// HTTPAddr returns the bound HTTP address, or "" when HTTP is disabled or
// the server has not started.
func (s *Server) HTTPAddr() string {
	select {
	case <-s.ready:
	default:
		return ""
	}
	if s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Start starts the gRPC server on the Unix socket, plus the HTTP API when
// configured, and blocks until ctx is cancelled, Shutdown is called, or a
// server fails.
func (s *Server) Start(ctx context.Context) error {
	if err := s.paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	// Clean up stale socket
	socketPath := s.paths.SocketFile()
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove stale socket", "path", socketPath, "error", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	s.listener = listener

	// Readable/writable by owner only
	if err := os.Chmod(socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(s.observeUnary))
	rpc.RegisterHeroesServer(s.grpcServer, s)

	if s.httpAddr != "" {
		httpListener, err := net.Listen("tcp", s.httpAddr)
		if err != nil {
			listener.Close()
			return fmt.Errorf("failed to listen on %s: %w", s.httpAddr, err)
		}
		s.httpListener = httpListener
		s.httpServer = &http.Server{
			Handler:           api.NewRouter(s.store, s.metrics, s.logger).Setup(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	if err := s.writePIDFile(); err != nil {
		s.closeListeners()
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	s.logger.Info("daemon starting",
		"socket", socketPath,
		"http", s.httpAddr,
		"pid", os.Getpid(),
		"version", Version,
	)
	close(s.ready)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})

	if s.httpServer != nil {
		g.Go(func() error {
			if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
			s.Shutdown()
		case <-s.shutdownChan:
		}
		return nil
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.logger.Info("daemon shutting down")

		close(s.shutdownChan)

		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
			if err := s.httpServer.Shutdown(ctx); err != nil {
				s.logger.Warn("HTTP shutdown failed", "error", err)
			}
			cancel()
		}

		if s.grpcServer != nil {
			s.grpcServer.GracefulStop()
		}

		s.closeListeners()
		s.cleanup()

		s.logger.Info("daemon stopped", "uptime", time.Since(s.startTime).Round(time.Second))
	})
}

func (s *Server) closeListeners() {
	if s.listener != nil {
		s.listener.Close()
	}
	if s.httpListener != nil {
		s.httpListener.Close()
	}
}

// cleanup removes the socket and PID file.
func (s *Server) cleanup() {
	socketPath := s.paths.SocketFile()
	pidPath := s.paths.PIDFile()

	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove socket", "path", socketPath, "error", err)
	}

	if err := os.Remove(pidPath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove PID file", "path", pidPath, "error", err)
	}
}

// writePIDFile writes the current process ID to the PID file.
func (s *Server) writePIDFile() error {
	pidPath := s.paths.PIDFile()
	pid := os.Getpid()
	return os.WriteFile(pidPath, []byte(fmt.Sprintf("%d\n", pid)), 0600)
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/runger/heroes/internal/config"
)

// ReloadFunc re-reads configuration on SIGHUP.
type ReloadFunc func() error

// stopTimeout bounds how long Stop waits before killing the daemon.
var stopTimeout = 10 * time.Second

// errNotRunning is returned by StopWithPaths when no daemon can be found.
var errNotRunning = errors.New("daemon not running")

// Run holds the single-instance lock, starts the server and blocks until
// the context is cancelled or a signal stops it.
//
//	SIGTERM, SIGINT  graceful shutdown; socket, PID and lock files removed
//	SIGHUP           cfg.ReloadFn
//	SIGPIPE          ignored
func Run(ctx context.Context, cfg *ServerConfig) error {
	if err := CheckNotRoot(); err != nil {
		return err
	}

	paths := cfg.Paths
	if paths == nil {
		paths = config.DefaultPaths()
	}
	if err := secureRuntimeDirs(paths); err != nil {
		return err
	}

	lock := NewLockFile(paths.LockFile())
	if err := lock.Acquire(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Release()

	server, err := NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signal.Ignore(syscall.SIGPIPE)
	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(sigs)

	go server.watchSignals(ctx, sigs, cfg.ReloadFn, cancel)

	return server.Start(ctx)
}

// secureRuntimeDirs creates the runtime and socket directories owner-only.
func secureRuntimeDirs(paths *config.Paths) error {
	if err := EnsureSecureDirectory(paths.RuntimeDir); err != nil {
		return fmt.Errorf("failed to ensure secure runtime directory: %w", err)
	}
	if dir := filepath.Dir(paths.SocketFile()); dir != paths.RuntimeDir {
		if err := EnsureSecureDirectory(dir); err != nil {
			return fmt.Errorf("failed to ensure secure socket directory: %w", err)
		}
	}
	return nil
}

// watchSignals turns process signals into shutdown and reload.
func (s *Server) watchSignals(ctx context.Context, sigs <-chan os.Signal, reload ReloadFunc, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			if sig != syscall.SIGHUP {
				s.logger.Info("received shutdown signal", "signal", sig)
				s.Shutdown()
				cancel()
				return
			}
			if reload == nil {
				s.logger.Debug("SIGHUP ignored, no reload function")
				continue
			}
			if err := reload(); err != nil {
				s.logger.Error("failed to reload configuration", "error", err)
				continue
			}
			s.logger.Info("configuration reloaded")
		}
	}
}

// IsRunningWithPaths reports whether a live daemon owns paths, by PID file
// or, when that is missing or stale, by the lock holder.
func IsRunningWithPaths(paths *config.Paths) bool {
	pid, err := runningPID(paths)
	return err == nil && pid > 0
}

// runningPID finds the PID of the live daemon for paths.
func runningPID(paths *config.Paths) (int, error) {
	if pid, err := ReadPID(paths.PIDFile()); err == nil && isProcessAlive(pid) {
		return pid, nil
	}
	pid, held, err := ReadHeldPID(paths.LockFile())
	if err != nil {
		return 0, fmt.Errorf("failed to read lock holder: %w", err)
	}
	if !held || !isProcessAlive(pid) {
		return 0, errNotRunning
	}
	return pid, nil
}

// ReadPID reads the PID from the PID file.
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID: %w", err)
	}
	return pid, nil
}

// StopWithPaths sends SIGTERM to the daemon and waits for it to exit. After
// stopTimeout it is killed.
func StopWithPaths(paths *config.Paths) error {
	pid, err := runningPID(paths)
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM: %w", err)
	}

	deadline := time.Now().Add(stopTimeout)
	for isProcessAlive(pid) {
		if time.Now().After(deadline) {
			return process.Kill()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

// CleanupStaleWithPaths removes the socket and PID file a dead daemon left
// behind.
func CleanupStaleWithPaths(paths *config.Paths) error {
	if IsRunningWithPaths(paths) {
		return errors.New("daemon is still running")
	}
	for _, path := range []string{paths.SocketFile(), paths.PIDFile()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

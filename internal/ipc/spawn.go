package ipc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sys/execabs"
)

// DaemonBinaryName is the name of the daemon executable
const DaemonBinaryName = "heroesd"

// DaemonPathEnv overrides where the daemon binary is looked up.
const DaemonPathEnv = "HEROES_DAEMON_PATH"

// SpawnConfig describes how to start the daemon.
type SpawnConfig struct {
	// SocketPath is where the daemon will listen. It is passed to the
	// child through HEROES_SOCKET_PATH.
	SocketPath string

	// LogPath receives the daemon's stdout and stderr. Empty discards them.
	LogPath string

	// ReadyTimeout bounds EnsureDaemon's wait for the socket.
	ReadyTimeout time.Duration
}

// errDaemonAlive means a daemon already answers on the socket.
var errDaemonAlive = errors.New("daemon already listening")

var (
	// Test seams for daemon spawn and socket probing behavior.
	probeFn        = Probe
	socketExistsFn = SocketExists
	removeFileFn   = os.Remove
	spawnFn        = SpawnDaemon

	// Retry transient socket dial failures before deleting an existing socket.
	staleSocketDialAttempts = 3
	staleSocketRetryDelay   = 25 * time.Millisecond
)

// EnsureDaemon makes sure a daemon is accepting connections on
// cfg.SocketPath, spawning one and waiting for it if necessary.
func EnsureDaemon(ctx context.Context, cfg SpawnConfig) error {
	// Fast path: socket exists and is connectable
	if socketExistsFn(cfg.SocketPath) && probeFn(ctx, cfg.SocketPath) == nil {
		return nil
	}

	if err := spawnFn(ctx, cfg); err != nil {
		return err
	}

	timeout := cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return WaitForDaemon(ctx, cfg.SocketPath, timeout)
}

// SpawnDaemon starts the daemon process in the background.
// It does not wait for the daemon to be ready.
func SpawnDaemon(ctx context.Context, cfg SpawnConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cfg.SocketPath == "" {
		return fmt.Errorf("socket path is required")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SocketPath), 0o700); err != nil {
		return fmt.Errorf("failed to create run dir: %w", err)
	}

	if err := removeStaleSocket(ctx, cfg.SocketPath); err != nil {
		if errors.Is(err, errDaemonAlive) {
			return nil
		}
		return err
	}

	daemonPath, err := findDaemonBinary()
	if err != nil {
		return err
	}

	logFile := openDaemonLog(cfg.LogPath)
	defer logFile.Close()

	// execabs prevents executing binaries resolved to relative paths.
	cmd := execabs.Command(daemonPath)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.Env = append(os.Environ(), "HEROES_SOCKET_PATH="+cfg.SocketPath)

	// Detach from parent process group (platform-specific)
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// We don't call cmd.Wait() so the daemon outlives this process.
	return cmd.Process.Release()
}

// WaitForDaemon polls socketPath until the daemon accepts connections.
func WaitForDaemon(ctx context.Context, socketPath string, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("daemon did not start within %v", timeout)
		case <-ticker.C:
			if socketExistsFn(socketPath) && probeFn(ctx, socketPath) == nil {
				return nil
			}
		}
	}
}

// openDaemonLog opens path for appending, falling back to the null device.
func openDaemonLog(path string) *os.File {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				return f
			}
		}
	}
	f, _ := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	return f
}

// findDaemonBinary locates the daemon executable
func findDaemonBinary() (string, error) {
	if path := os.Getenv(DaemonPathEnv); path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", DaemonPathEnv, err)
		}
		if _, err := os.Stat(absPath); err == nil {
			return absPath, nil
		}
	}

	// Check same directory as current executable
	if exe, err := os.Executable(); err == nil {
		daemonPath := filepath.Join(filepath.Dir(exe), DaemonBinaryName)
		if _, err := os.Stat(daemonPath); err == nil {
			return daemonPath, nil
		}
	}

	if path, err := exec.LookPath(DaemonBinaryName); err == nil {
		if absPath, absErr := filepath.Abs(path); absErr == nil {
			return absPath, nil
		}
		return path, nil
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		for _, path := range []string{
			filepath.Join(home, ".local", "bin", DaemonBinaryName),
			filepath.Join(home, "go", "bin", DaemonBinaryName),
		} {
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("daemon binary '%s' not found", DaemonBinaryName)
}

// removeStaleSocket deletes socketPath if nothing answers on it.
func removeStaleSocket(ctx context.Context, socketPath string) error {
	if !socketExistsFn(socketPath) {
		return nil
	}

	// Retry dial a few times to avoid deleting an active socket after
	// a transient connection failure.
	for attempt := 0; attempt < staleSocketDialAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if probeFn(ctx, socketPath) == nil {
			return errDaemonAlive
		}
		if attempt < staleSocketDialAttempts-1 {
			timer := time.NewTimer(staleSocketRetryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	if err := removeFileFn(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	return nil
}

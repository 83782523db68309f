package daemon

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/runger/heroes/internal/config"
	"github.com/runger/heroes/internal/storage"
)

func TestReadPID(t *testing.T) {
	t.Parallel()

	pidFile := filepath.Join(t.TempDir(), "heroesd.pid")
	if err := os.WriteFile(pidFile, []byte("12345\n"), 0600); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	pid, err := ReadPID(pidFile)
	if err != nil {
		t.Fatalf("ReadPID failed: %v", err)
	}
	if pid != 12345 {
		t.Errorf("expected PID 12345, got %d", pid)
	}
}

func TestReadPID_Invalid(t *testing.T) {
	t.Parallel()

	pidFile := filepath.Join(t.TempDir(), "heroesd.pid")
	if err := os.WriteFile(pidFile, []byte("not-a-number\n"), 0600); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}
	if _, err := ReadPID(pidFile); err == nil {
		t.Error("expected error for invalid PID")
	}
	if _, err := ReadPID(filepath.Join(t.TempDir(), "missing.pid")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIsRunningWithPaths(t *testing.T) {
	t.Parallel()

	paths := &config.Paths{RuntimeDir: t.TempDir()}

	if IsRunningWithPaths(paths) {
		t.Error("expected false when no PID file exists")
	}

	if err := os.WriteFile(paths.PIDFile(), []byte("999999999\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if IsRunningWithPaths(paths) {
		t.Error("expected false for a stale PID")
	}

	if err := os.WriteFile(paths.PIDFile(), []byte("999999999\n"), 0600); err != nil {
		t.Fatal(err)
	}
	lf := NewLockFile(paths.LockFile())
	if err := lf.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lf.Release()
	if !IsRunningWithPaths(paths) {
		t.Error("expected true while a live process holds the lock")
	}
}

func TestStopWithPaths_NotRunning(t *testing.T) {
	t.Parallel()

	paths := &config.Paths{RuntimeDir: t.TempDir()}
	if err := StopWithPaths(paths); err == nil {
		t.Error("expected error when the daemon is not running")
	}
}

func TestCleanupStaleWithPaths(t *testing.T) {
	t.Parallel()

	paths := &config.Paths{RuntimeDir: t.TempDir()}

	if err := os.WriteFile(paths.SocketFile(), []byte("socket"), 0600); err != nil {
		t.Fatalf("failed to create socket file: %v", err)
	}
	if err := os.WriteFile(paths.PIDFile(), []byte("999999999\n"), 0600); err != nil {
		t.Fatalf("failed to create PID file: %v", err)
	}

	if err := CleanupStaleWithPaths(paths); err != nil {
		t.Fatalf("CleanupStale failed: %v", err)
	}
	if _, err := os.Stat(paths.SocketFile()); !os.IsNotExist(err) {
		t.Error("socket file should be removed")
	}
	if _, err := os.Stat(paths.PIDFile()); !os.IsNotExist(err) {
		t.Error("PID file should be removed")
	}
}

func TestCleanupStaleWithPaths_Running(t *testing.T) {
	t.Parallel()

	paths := &config.Paths{RuntimeDir: t.TempDir()}
	if err := os.WriteFile(paths.PIDFile(), []byte(strconv.Itoa(os.Getpid())+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := CleanupStaleWithPaths(paths); err == nil {
		t.Error("expected error while the daemon is running")
	}
}

func TestRun_HoldsLockUntilCancelled(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("Run refuses to start as root")
	}

	paths := testPaths(t)
	store, err := storage.NewSQLiteStore(paths.DatabaseFile(), nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, &ServerConfig{
			Store:  store,
			Paths:  paths,
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(paths.SocketFile()); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("socket did not appear")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if !IsRunningWithPaths(paths) {
		t.Error("expected IsRunning while Run is active")
	}
	info, err := os.Stat(paths.RuntimeDir)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Errorf("runtime dir mode = %o, want 0700", info.Mode().Perm())
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return")
	}

	if _, err := os.Stat(paths.LockFile()); !os.IsNotExist(err) {
		t.Error("lock file should be removed after Run returns")
	}
}

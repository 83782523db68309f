package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths()

	if paths.ConfigDir == "" {
		t.Error("ConfigDir is empty")
	}
	if paths.DataDir == "" {
		t.Error("DataDir is empty")
	}
	if paths.RuntimeDir == "" {
		t.Error("RuntimeDir is empty")
	}

	// All paths should be absolute
	if !filepath.IsAbs(paths.ConfigDir) {
		t.Errorf("ConfigDir should be absolute: %s", paths.ConfigDir)
	}
	if !filepath.IsAbs(paths.DataDir) {
		t.Errorf("DataDir should be absolute: %s", paths.DataDir)
	}
}

func TestDefaultPaths_XDG(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG test not applicable on Windows")
	}

	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	t.Setenv("XDG_RUNTIME_DIR", "/custom/run")

	paths := DefaultPaths()

	if paths.ConfigDir != "/custom/config/heroes" {
		t.Errorf("ConfigDir = %s, want /custom/config/heroes", paths.ConfigDir)
	}
	if paths.DataDir != "/custom/data/heroes" {
		t.Errorf("DataDir = %s, want /custom/data/heroes", paths.DataDir)
	}
	if paths.RuntimeDir != "/custom/run/heroes" {
		t.Errorf("RuntimeDir = %s, want /custom/run/heroes", paths.RuntimeDir)
	}
}

func TestDefaultPaths_NoRuntimeDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG test not applicable on Windows")
	}

	t.Setenv("XDG_RUNTIME_DIR", "")
	paths := DefaultPaths()

	if !strings.HasSuffix(paths.RuntimeDir, filepath.Join(".heroes", "run")) {
		t.Errorf("RuntimeDir = %s, want ~/.heroes/run", paths.RuntimeDir)
	}
}

func TestPaths_Files(t *testing.T) {
	paths := &Paths{
		ConfigDir:  "/c",
		DataDir:    "/d",
		RuntimeDir: "/r",
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ConfigFile", paths.ConfigFile(), "/c/config.yaml"},
		{"DatabaseFile", paths.DatabaseFile(), "/d/heroes.db"},
		{"SocketFile", paths.SocketFile(), "/r/heroes.sock"},
		{"PIDFile", paths.PIDFile(), "/r/heroesd.pid"},
		{"LockFile", paths.LockFile(), "/r/heroesd.lock"},
		{"LogFile", paths.LogFile(), "/d/logs/daemon.log"},
	}
	for _, tt := range tests {
		if tt.got != filepath.FromSlash(tt.want) {
			t.Errorf("%s() = %s, want %s", tt.name, tt.got, tt.want)
		}
	}
}

func TestPaths_WithConfig(t *testing.T) {
	base := &Paths{ConfigDir: "/c", DataDir: "/d", RuntimeDir: "/r"}

	cfg := DefaultConfig()
	cfg.Daemon.SocketPath = "/tmp/custom.sock"
	cfg.Store.DatabaseFile = "/tmp/custom.db"

	paths := base.WithConfig(cfg)
	if paths.SocketFile() != "/tmp/custom.sock" {
		t.Errorf("SocketFile() = %s", paths.SocketFile())
	}
	if paths.DatabaseFile() != "/tmp/custom.db" {
		t.Errorf("DatabaseFile() = %s", paths.DatabaseFile())
	}

	// The receiver is left untouched.
	if base.SocketFile() != filepath.FromSlash("/r/heroes.sock") {
		t.Errorf("base SocketFile() = %s", base.SocketFile())
	}

	defaults := base.WithConfig(DefaultConfig())
	if defaults.DatabaseFile() != filepath.FromSlash("/d/heroes.db") {
		t.Errorf("DatabaseFile() = %s", defaults.DatabaseFile())
	}
}

func TestPaths_EnsureDirectories(t *testing.T) {
	tmp := t.TempDir()
	paths := &Paths{
		ConfigDir:        filepath.Join(tmp, "config"),
		DataDir:          filepath.Join(tmp, "data"),
		RuntimeDir:       filepath.Join(tmp, "run"),
		DatabaseOverride: filepath.Join(tmp, "elsewhere", "heroes.db"),
	}

	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}

	for _, dir := range []string{paths.ConfigDir, paths.DataDir, paths.RuntimeDir, paths.LogDir(), filepath.Join(tmp, "elsewhere")} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("directory %s not created: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

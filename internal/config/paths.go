// Package config provides configuration management for heroes.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-application directories.
const appName = "heroes"

// Paths holds all the path configurations for heroes.
type Paths struct {
	// ConfigDir is the directory for configuration files (~/.config/heroes)
	ConfigDir string

	// DataDir is the directory for data files (~/.local/share/heroes)
	DataDir string

	// RuntimeDir is the directory for runtime files like sockets and PID files
	RuntimeDir string

	// SocketOverride and DatabaseOverride replace the derived socket and
	// database locations when set.
	SocketOverride   string
	DatabaseOverride string
}

// DefaultPaths returns the XDG Base Directory locations for heroes.
// On Windows, it uses %APPDATA% instead.
func DefaultPaths() *Paths {
	home := homeDir()

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(home, "AppData", "Local")
		}

		return &Paths{
			ConfigDir:  filepath.Join(appData, appName),
			DataDir:    filepath.Join(localAppData, appName),
			RuntimeDir: filepath.Join(localAppData, appName, "run"),
		}
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = filepath.Join(home, "."+appName, "run")
	} else {
		runtimeDir = filepath.Join(runtimeDir, appName)
	}

	return &Paths{
		ConfigDir:  filepath.Join(configHome, appName),
		DataDir:    filepath.Join(dataHome, appName),
		RuntimeDir: runtimeDir,
	}
}

// ConfigFile returns the path to the main configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// DatabaseFile returns the path to the SQLite database.
func (p *Paths) DatabaseFile() string {
	if p.DatabaseOverride != "" {
		return p.DatabaseOverride
	}
	return filepath.Join(p.DataDir, "heroes.db")
}

// SocketFile returns the path to the Unix domain socket.
func (p *Paths) SocketFile() string {
	if p.SocketOverride != "" {
		return p.SocketOverride
	}
	return filepath.Join(p.RuntimeDir, "heroes.sock")
}

// PIDFile returns the path to the daemon PID file.
func (p *Paths) PIDFile() string {
	return filepath.Join(p.RuntimeDir, "heroesd.pid")
}

// LockFile returns the path to the daemon's single-instance lock.
func (p *Paths) LockFile() string {
	return filepath.Join(p.RuntimeDir, "heroesd.lock")
}

// LogDir returns the path to the log directory.
func (p *Paths) LogDir() string {
	return filepath.Join(p.DataDir, "logs")
}

// LogFile returns the path to the daemon log file.
func (p *Paths) LogFile() string {
	return filepath.Join(p.LogDir(), "daemon.log")
}

// WithConfig returns a copy of p with the socket and database locations
// from cfg applied. Empty settings keep the derived defaults.
func (p *Paths) WithConfig(cfg *Config) *Paths {
	out := *p
	if cfg == nil {
		return &out
	}
	if cfg.Daemon.SocketPath != "" {
		out.SocketOverride = cfg.Daemon.SocketPath
	}
	if cfg.Store.DatabaseFile != "" {
		out.DatabaseOverride = cfg.Store.DatabaseFile
	}
	return &out
}

// EnsureDirectories creates all necessary directories.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.ConfigDir,
		p.DataDir,
		p.RuntimeDir,
		p.LogDir(),
		filepath.Dir(p.SocketFile()),
		filepath.Dir(p.DatabaseFile()),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback
		if runtime.GOOS == "windows" {
			return os.Getenv("USERPROFILE")
		}
		return os.Getenv("HOME")
	}
	return home
}

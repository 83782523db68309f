package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Client backends.
const (
	BackendGRPC  = "grpc"
	BackendHTTP  = "http"
	BackendLocal = "local"
)

// Config represents the heroes configuration.
type Config struct {
	Daemon DaemonConfig `yaml:"daemon"`
	Client ClientConfig `yaml:"client"`
	Search SearchConfig `yaml:"search"`
	Store  StoreConfig  `yaml:"store"`
}

// DaemonConfig holds daemon-related settings.
type DaemonConfig struct {
	SocketPath string `yaml:"socket_path"` // Unix socket path (overrides default)
	HTTPAddr   string `yaml:"http_addr"`   // HTTP API listen address (empty = disabled)
	LogLevel   string `yaml:"log_level"`   // debug, info, warn, error
	LogFile    string `yaml:"log_file"`    // Log file path (empty = stderr)
}

// ClientConfig holds client-related settings.
type ClientConfig struct {
	Backend           string  `yaml:"backend"`              // grpc, http or local
	BaseURL           string  `yaml:"base_url"`             // HTTP API base URL
	TimeoutMs         int     `yaml:"timeout_ms"`           // Per-request timeout
	MaxRequestsPerSec float64 `yaml:"max_requests_per_sec"` // Outbound rate limit (0 = unlimited)
	AutoStartDaemon   bool    `yaml:"auto_start_daemon"`    // Auto-start daemon if not running
}

// SearchConfig holds typeahead search settings.
type SearchConfig struct {
	DebounceMs    int    `yaml:"debounce_ms"`    // Quiet period before a query is issued
	Match         string `yaml:"match"`          // contains or prefix
	CaseSensitive bool   `yaml:"case_sensitive"` // Disable case folding
}

// StoreConfig holds backing store settings.
type StoreConfig struct {
	DatabaseFile string `yaml:"database_file"` // SQLite path (overrides default)
	Seed         bool   `yaml:"seed"`          // Seed a new database with the default heroes
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Daemon: DaemonConfig{
			SocketPath: "", // Use default from paths
			HTTPAddr:   "127.0.0.1:7420",
			LogLevel:   "info",
			LogFile:    "",
		},
		Client: ClientConfig{
			Backend:           BackendGRPC,
			BaseURL:           "http://127.0.0.1:7420",
			TimeoutMs:         2000,
			MaxRequestsPerSec: 20,
			AutoStartDaemon:   true,
		},
		Search: SearchConfig{
			DebounceMs:    300,
			Match:         "contains",
			CaseSensitive: false,
		},
		Store: StoreConfig{
			DatabaseFile: "", // Use default from paths
			Seed:         true,
		},
	}
}

// Timeout returns the client timeout as a duration.
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Debounce returns the search quiet period as a duration.
func (s *SearchConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	paths := DefaultPaths()
	return c.SaveToFile(paths.ConfigFile())
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get retrieves a configuration value by dot-separated key.
// For example: "client.backend" or "search.debounce_ms"
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "daemon":
		return c.getDaemonField(field)
	case "client":
		return c.getClientField(field)
	case "search":
		return c.getSearchField(field)
	case "store":
		return c.getStoreField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "daemon":
		return c.setDaemonField(field, value)
	case "client":
		return c.setClientField(field, value)
	case "search":
		return c.setSearchField(field, value)
	case "store":
		return c.setStoreField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func splitKey(key string) (section, field string, err error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", errors.New("key must be in format 'section.key'")
	}
	return parts[0], parts[1], nil
}

func (c *Config) getDaemonField(field string) (string, error) {
	switch field {
	case "socket_path":
		return c.Daemon.SocketPath, nil
	case "http_addr":
		return c.Daemon.HTTPAddr, nil
	case "log_level":
		return c.Daemon.LogLevel, nil
	case "log_file":
		return c.Daemon.LogFile, nil
	default:
		return "", fmt.Errorf("unknown field: daemon.%s", field)
	}
}

func (c *Config) setDaemonField(field, value string) error {
	switch field {
	case "socket_path":
		c.Daemon.SocketPath = value
	case "http_addr":
		c.Daemon.HTTPAddr = value
	case "log_level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", value)
		}
		c.Daemon.LogLevel = value
	case "log_file":
		c.Daemon.LogFile = value
	default:
		return fmt.Errorf("unknown field: daemon.%s", field)
	}
	return nil
}

func (c *Config) getClientField(field string) (string, error) {
	switch field {
	case "backend":
		return c.Client.Backend, nil
	case "base_url":
		return c.Client.BaseURL, nil
	case "timeout_ms":
		return strconv.Itoa(c.Client.TimeoutMs), nil
	case "max_requests_per_sec":
		return strconv.FormatFloat(c.Client.MaxRequestsPerSec, 'g', -1, 64), nil
	case "auto_start_daemon":
		return strconv.FormatBool(c.Client.AutoStartDaemon), nil
	default:
		return "", fmt.Errorf("unknown field: client.%s", field)
	}
}

func (c *Config) setClientField(field, value string) error {
	switch field {
	case "backend":
		if !isValidBackend(value) {
			return fmt.Errorf("invalid backend: %s (must be grpc, http, or local)", value)
		}
		c.Client.Backend = value
	case "base_url":
		c.Client.BaseURL = value
	case "timeout_ms":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for timeout_ms: %w", err)
		}
		if v <= 0 {
			return fmt.Errorf("invalid timeout_ms: must be positive")
		}
		c.Client.TimeoutMs = v
	case "max_requests_per_sec":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for max_requests_per_sec: %w", err)
		}
		if v < 0 {
			return fmt.Errorf("invalid max_requests_per_sec: must be non-negative")
		}
		c.Client.MaxRequestsPerSec = v
	case "auto_start_daemon":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for auto_start_daemon: %w", err)
		}
		c.Client.AutoStartDaemon = v
	default:
		return fmt.Errorf("unknown field: client.%s", field)
	}
	return nil
}

func (c *Config) getSearchField(field string) (string, error) {
	switch field {
	case "debounce_ms":
		return strconv.Itoa(c.Search.DebounceMs), nil
	case "match":
		return c.Search.Match, nil
	case "case_sensitive":
		return strconv.FormatBool(c.Search.CaseSensitive), nil
	default:
		return "", fmt.Errorf("unknown field: search.%s", field)
	}
}

func (c *Config) setSearchField(field, value string) error {
	switch field {
	case "debounce_ms":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for debounce_ms: %w", err)
		}
		if v < 0 {
			return fmt.Errorf("invalid debounce_ms: must be non-negative")
		}
		c.Search.DebounceMs = v
	case "match":
		if !isValidMatch(value) {
			return fmt.Errorf("invalid match: %s (must be contains or prefix)", value)
		}
		c.Search.Match = value
	case "case_sensitive":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for case_sensitive: %w", err)
		}
		c.Search.CaseSensitive = v
	default:
		return fmt.Errorf("unknown field: search.%s", field)
	}
	return nil
}

func (c *Config) getStoreField(field string) (string, error) {
	switch field {
	case "database_file":
		return c.Store.DatabaseFile, nil
	case "seed":
		return strconv.FormatBool(c.Store.Seed), nil
	default:
		return "", fmt.Errorf("unknown field: store.%s", field)
	}
}

func (c *Config) setStoreField(field, value string) error {
	switch field {
	case "database_file":
		c.Store.DatabaseFile = value
	case "seed":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for seed: %w", err)
		}
		c.Store.Seed = v
	default:
		return fmt.Errorf("unknown field: store.%s", field)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !isValidLogLevel(c.Daemon.LogLevel) {
		return fmt.Errorf("daemon.log_level must be debug, info, warn, or error (got: %s)", c.Daemon.LogLevel)
	}

	if !isValidBackend(c.Client.Backend) {
		return fmt.Errorf("client.backend must be grpc, http, or local (got: %s)", c.Client.Backend)
	}

	if c.Client.Backend == BackendHTTP && c.Client.BaseURL == "" {
		return errors.New("client.base_url is required for the http backend")
	}

	if c.Client.TimeoutMs <= 0 {
		return errors.New("client.timeout_ms must be > 0")
	}

	if c.Client.MaxRequestsPerSec < 0 {
		return errors.New("client.max_requests_per_sec must be >= 0")
	}

	if c.Search.DebounceMs < 0 {
		return errors.New("search.debounce_ms must be >= 0")
	}

	if !isValidMatch(c.Search.Match) {
		return fmt.Errorf("search.match must be contains or prefix (got: %s)", c.Search.Match)
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidBackend(backend string) bool {
	switch backend {
	case BackendGRPC, BackendHTTP, BackendLocal:
		return true
	default:
		return false
	}
}

func isValidMatch(match string) bool {
	switch match {
	case "contains", "prefix":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("HEROES_BACKEND"); v != "" {
		if isValidBackend(v) {
			c.Client.Backend = v
		}
	}
	if v := os.Getenv("HEROES_BASE_URL"); v != "" {
		c.Client.BaseURL = v
	}
	if v := os.Getenv("HEROES_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Daemon.LogLevel = "debug"
		}
	}
	if v := os.Getenv("HEROES_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Daemon.LogLevel = v
		}
	}
	if v := os.Getenv("HEROES_SOCKET_PATH"); v != "" {
		c.Daemon.SocketPath = v
	}
	if v := os.Getenv("HEROES_DB"); v != "" {
		c.Store.DatabaseFile = v
	}
}

// ListKeys returns every configuration key.
func ListKeys() []string {
	return []string{
		"daemon.socket_path",
		"daemon.http_addr",
		"daemon.log_level",
		"daemon.log_file",
		"client.backend",
		"client.base_url",
		"client.timeout_ms",
		"client.max_requests_per_sec",
		"client.auto_start_daemon",
		"search.debounce_ms",
		"search.match",
		"search.case_sensitive",
		"store.database_file",
		"store.seed",
	}
}

// Package config provides configuration management for the Framecut service.
// Configuration is loaded from an optional YAML file with environment
// variable overrides and sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort     = 8790
	DefaultLogLevel = "info"
	DefaultDataDir  = ".framecut"

	// Environment variable names
	EnvPort       = "FRAMECUT_PORT"
	EnvLogLevel   = "FRAMECUT_LOG_LEVEL"
	EnvDataDir    = "FRAMECUT_DATA_DIR"
	EnvMediaDir   = "FRAMECUT_MEDIA_DIR"
	EnvConfigFile = "FRAMECUT_CONFIG"

	// Database filename
	DBFilename = "framecut.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	MediaDir() string
}

// fileConfig is the YAML shape of the optional config file.
type fileConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	DataDir  string `yaml:"data_dir"`
	MediaDir string `yaml:"media_dir"`
}

// EnvConfig reads configuration from a YAML file and environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	mediaDir string
}

// New creates a new EnvConfig with defaults, YAML file values, and
// environment variable overrides, in increasing precedence.
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
	}

	if err := cfg.loadFile(); err != nil {
		return nil, err
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	// Override media directory from environment
	if md := os.Getenv(EnvMediaDir); md != "" {
		cfg.mediaDir = md
	}

	return cfg, nil
}

// loadFile reads the YAML config file if one exists. The file path comes
// from FRAMECUT_CONFIG; without it, <dataDir>/config.yaml is tried.
func (c *EnvConfig) loadFile() error {
	path := os.Getenv(EnvConfigFile)
	explicit := path != ""
	if path == "" {
		path = filepath.Join(c.dataDir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		if os.IsNotExist(err) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Port != 0 {
		if fc.Port < 1 || fc.Port > 65535 {
			return fmt.Errorf("invalid port in config file: %d", fc.Port)
		}
		c.port = fc.Port
	}
	if fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	if fc.DataDir != "" {
		c.dataDir = fc.DataDir
	}
	if fc.MediaDir != "" {
		c.mediaDir = fc.MediaDir
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// MediaDir returns the directory asset media files are served from.
// Defaults to <dataDir>/media.
func (c *EnvConfig) MediaDir() string {
	if c.mediaDir != "" {
		return c.mediaDir
	}
	return filepath.Join(c.dataDir, "media")
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

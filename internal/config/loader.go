package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under ~/.config.
	ConfigDir = "hearth"
	// ConfigFile is the config file name.
	ConfigFile = "config.yaml"
)

// FileSystem abstracts file operations for testability.
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
}

// ConfigFileReader implements FileSystem using the real OS.
type ConfigFileReader struct{}

func (ConfigFileReader) UserHomeDir() (string, error)         { return os.UserHomeDir() }
func (ConfigFileReader) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Loader handles configuration loading with injected dependencies.
type Loader struct {
	fs FileSystem
}

// NewLoader creates a production Loader using the real filesystem.
func NewLoader() *Loader {
	return &Loader{fs: ConfigFileReader{}}
}

// NewLoaderWithFS creates a Loader with a custom filesystem (for testing).
func NewLoaderWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// Load reads configuration from path when given, otherwise from
// ~/.config/hearth/config.yaml, and merges it over the defaults. A missing
// file yields the defaults; parse and validation failures are errors.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		homeDir, err := l.fs.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(homeDir, ".config", ConfigDir, ConfigFile)
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	// Unmarshal over the default struct: present keys overwrite defaults
	// (even with zero values), missing keys leave defaults untouched.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is a convenience function using the default loader.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

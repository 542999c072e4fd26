package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config selects a storage backend. It is typically filled from the
// environment via LoadConfig.
type Config struct {
	// Backend is one of memory, file, sqlite.
	Backend string `env:"OFFLINEKIT_STORAGE" envDefault:"memory"`

	// Path is the file or database path for durable backends. When empty,
	// a per-user cache location is used.
	Path string `env:"OFFLINEKIT_STORAGE_PATH"`
}

// LoadConfig reads the storage configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("storage: parse env: %w", err)
	}
	return cfg, nil
}

// Open creates the store selected by the configuration.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil

	case BackendFile:
		path, err := resolvePath(cfg.Path, "store.json")
		if err != nil {
			return nil, err
		}
		return NewFileStore(path)

	case BackendSQLite:
		path, err := resolvePath(cfg.Path, "store.db")
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(path)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// resolvePath returns the explicit path when set, otherwise a default
// location under the user cache directory.
func resolvePath(path, filename string) (string, error) {
	if path != "" {
		return path, nil
	}

	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("storage: resolve cache directory: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}

	return filepath.Join(base, "offlinekit", filename), nil
}

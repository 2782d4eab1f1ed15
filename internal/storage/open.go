package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/abstain/internal/constants"
)

// Open selects a Provider from a --config value. Connection URLs pick their
// backend by scheme; anything else is a SQLite database path.
// The returned provider has not been initialized or loaded.
func Open(config string) (Provider, error) {
	switch {
	case strings.HasPrefix(config, constants.PrefixPostgres), strings.HasPrefix(config, constants.PrefixPostgreSQL):
		if HasEmbeddedCredentials(config) {
			return nil, ErrEmbeddedCredentials
		}
		return NewPostgresStore(config), nil
	case strings.HasPrefix(config, constants.PrefixRedis), strings.HasPrefix(config, constants.PrefixRedisTLS):
		return NewRedisStore(config), nil
	case strings.HasPrefix(config, constants.PrefixBadger):
		dir, err := ExpandPath(strings.TrimPrefix(config, constants.PrefixBadger))
		if err != nil {
			return nil, err
		}
		return NewBadgerStore(dir), nil
	case strings.HasPrefix(config, constants.PrefixFile):
		dir, err := ExpandPath(strings.TrimPrefix(config, constants.PrefixFile))
		if err != nil {
			return nil, err
		}
		return NewFileStore(dir), nil
	case strings.HasPrefix(config, constants.PrefixMemory):
		return NewMemoryStore(), nil
	default:
		path, err := ExpandPath(config)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(path), nil
	}
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("storage path cannot be empty")
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ConfigDir returns the directory that holds logs, backups and the lockfile
// for a --config value. Remote backends use the default config directory.
func ConfigDir(config string) (string, error) {
	switch {
	case strings.Contains(config, "://") && !strings.HasPrefix(config, constants.PrefixBadger) && !strings.HasPrefix(config, constants.PrefixFile):
		path, err := ExpandPath(constants.DefaultConfigPath)
		if err != nil {
			return "", err
		}
		return filepath.Dir(path), nil
	case strings.HasPrefix(config, constants.PrefixBadger), strings.HasPrefix(config, constants.PrefixFile):
		path, err := ExpandPath(config[strings.Index(config, "://")+3:])
		if err != nil {
			return "", err
		}
		return filepath.Dir(path), nil
	default:
		path, err := ExpandPath(config)
		if err != nil {
			return "", err
		}
		return filepath.Dir(path), nil
	}
}

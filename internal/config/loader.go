package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// Load reads a Config from a TOML file. A missing file is not an error and
// yields the zero configuration; a malformed file is reported.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns the default config file location, honoring
// XDG_CONFIG_HOME with a home-directory fallback.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "treegate", "treegate.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "treegate", "treegate.toml")
}

// Package config loads the application configuration from a TOML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Log     LogConfig     `toml:"log"`
	Spotify SpotifyConfig `toml:"spotify"`
	Storage StorageConfig `toml:"storage"`
	Game    GameConfig    `toml:"game"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type SpotifyConfig struct {
	// AccessToken is the user token obtained by the app's auth flow; the
	// OAuth dance itself happens outside this library.
	AccessToken string `toml:"access_token"`
	BaseURL     string `toml:"base_url"`
}

type StorageConfig struct {
	Path string `toml:"path"`
}

type GameConfig struct {
	CatalogPath   string   `toml:"catalog_path"`
	Identity      string   `toml:"identity"`
	TickInterval  Duration `toml:"tick_interval"`
	MaxEncounters int      `toml:"max_encounters"`
}

// Duration decodes TOML strings like "1s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads and decodes the TOML config at path, applying defaults for
// optional fields.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "songswap.db"
	}
	if cfg.Game.CatalogPath == "" {
		cfg.Game.CatalogPath = "catalog.yaml"
	}
	if cfg.Game.TickInterval <= 0 {
		cfg.Game.TickInterval = Duration(time.Second)
	}
	if cfg.Game.MaxEncounters <= 0 {
		cfg.Game.MaxEncounters = 5
	}
	return &cfg, nil
}

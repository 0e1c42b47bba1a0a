package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Sync        SyncConfig        `toml:"sync"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings for the token service.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SyncConfig contains tuning knobs for the sync engine.
//
// PageSize bounds track pagination requests, BatchSize bounds mutation
// payloads (the API caps both at 100 URIs), SelectionLimit caps how many
// playlists may be selected at once, and UndoDepth bounds the undo stack.
type SyncConfig struct {
	PageSize       int     `toml:"page_size"`
	BatchSize      int     `toml:"batch_size"`
	SelectionLimit int     `toml:"selection_limit"`
	UndoDepth      int     `toml:"undo_depth"`
	RateLimit      float64 `toml:"rate_limit"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyDefaults()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyDefaults fills zero-valued sync knobs so a partial config file
// still yields a working engine.
func (c *Config) applyDefaults() {
	if c.Sync.PageSize <= 0 || c.Sync.PageSize > 100 {
		c.Sync.PageSize = 100
	}
	if c.Sync.BatchSize <= 0 || c.Sync.BatchSize > 100 {
		c.Sync.BatchSize = 100
	}
	if c.Sync.SelectionLimit <= 0 {
		c.Sync.SelectionLimit = 9
	}
	if c.Sync.UndoDepth <= 0 {
		c.Sync.UndoDepth = 50
	}
	if c.Sync.RateLimit <= 0 {
		c.Sync.RateLimit = 10
	}
}

package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./nixflix.db" {
			t.Errorf("expected database path ./nixflix.db, got %s", config.Database.Path)
		}
		if config.Sync.BatchSize != MaxBatchSize {
			t.Errorf("expected batch size %d, got %d", MaxBatchSize, config.Sync.BatchSize)
		}
		if config.Sync.Playlist != "My Playlist" {
			t.Errorf("expected default playlist 'My Playlist', got %s", config.Sync.Playlist)
		}
		if config.Nixplay.BaseURL != "https://api.nixplay.com" {
			t.Errorf("expected nixplay base URL https://api.nixplay.com, got %s", config.Nixplay.BaseURL)
		}
		if config.Server.Addr() != "" {
			t.Errorf("expected server to be disabled by default, got %s", config.Server.Addr())
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}
		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[credentials.nixplay]
username = "frame@example.com"
password = "hunter2"

[sync]
playlist = "Kitchen"
album = "Holidays"
poll_interval = 300
batch_size = 10

[server]
host = "0.0.0.0"
port = 8081
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Nixplay.Username != "frame@example.com" {
			t.Errorf("expected username frame@example.com, got %s", config.Credentials.Nixplay.Username)
		}
		if config.Sync.Playlist != "Kitchen" || config.Sync.Album != "Holidays" {
			t.Errorf("unexpected sync pair %s <- %s", config.Sync.Playlist, config.Sync.Album)
		}
		if config.Sync.PollEvery().Seconds() != 300 {
			t.Errorf("expected poll interval 300s, got %v", config.Sync.PollEvery())
		}
		if config.Server.Addr() != "0.0.0.0:8081" {
			t.Errorf("expected server addr 0.0.0.0:8081, got %s", config.Server.Addr())
		}
		if config.Nixplay.BaseURL != "https://api.nixplay.com" {
			t.Errorf("expected omitted keys to keep defaults, got base_url %q", config.Nixplay.BaseURL)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Config)
		}{
			{"batch size zero", func(c *Config) { c.Sync.BatchSize = 0 }},
			{"batch size above api limit", func(c *Config) { c.Sync.BatchSize = MaxBatchSize + 1 }},
			{"negative poll interval", func(c *Config) { c.Sync.PollInterval = -1 }},
			{"negative rate", func(c *Config) { c.Nixplay.RequestsPerSecond = -2 }},
			{"empty base url", func(c *Config) { c.Nixplay.BaseURL = "" }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("RequireCredentials", func(t *testing.T) {
		creds := DefaultConfig().Credentials

		if err := creds.RequireNixplay(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials for empty nixplay login, got %v", err)
		}
		if err := creds.RequireFlickr(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials for empty flickr key, got %v", err)
		}

		creds.Nixplay = NixplayCredentials{Username: "u", Password: "p"}
		creds.Flickr.APIKey, creds.Flickr.APISecret = "k", "s"
		if err := creds.RequireNixplay(); err != nil {
			t.Errorf("expected nixplay credentials to pass, got %v", err)
		}
		if err := creds.RequireFlickr(); err != nil {
			t.Errorf("expected flickr credentials to pass, got %v", err)
		}
	})

	t.Run("SaveConfig", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		config := DefaultConfig()
		config.Credentials.Flickr.OAuthToken = "72157-token"
		config.Sync.Album = "Holidays"
		if err := SaveConfig(path, config); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}

		loaded, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if loaded.Credentials.Flickr.OAuthToken != "72157-token" || loaded.Sync.Album != "Holidays" {
			t.Errorf("config not round-tripped: %+v", loaded)
		}
		if loaded.Sync.BatchSize != config.Sync.BatchSize {
			t.Errorf("expected batch size %d, got %d", config.Sync.BatchSize, loaded.Sync.BatchSize)
		}
	})
}

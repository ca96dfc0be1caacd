package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// MaxBatchSize is the largest page the Nixplay API accepts for slide listing, insertion and deletion.
const MaxBatchSize = 30

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Sync        SyncConfig        `toml:"sync"`
	Nixplay     NixplayConfig     `toml:"nixplay"`
	Flickr      FlickrConfig      `toml:"flickr"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Nixplay NixplayCredentials `toml:"nixplay"`
	Flickr  FlickrCredentials  `toml:"flickr"`
}

// NixplayCredentials is the account login shared by the web and mobile APIs.
type NixplayCredentials struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// FlickrCredentials contains the API key pair and the OAuth 1.0a access token.
type FlickrCredentials struct {
	APIKey           string `toml:"api_key"`
	APISecret        string `toml:"api_secret"`
	OAuthToken       string `toml:"oauth_token"`
	OAuthTokenSecret string `toml:"oauth_token_secret"`
	UserID           string `toml:"user_id"`
}

// SyncConfig holds the defaults for a sync run.
type SyncConfig struct {
	Playlist     string `toml:"playlist"`
	Album        string `toml:"album"`
	Frame        string `toml:"frame"`
	PollInterval int    `toml:"poll_interval"` // seconds, 0 runs once
	BatchSize    int    `toml:"batch_size"`
}

// NixplayConfig contains Nixplay endpoint and client settings.
type NixplayConfig struct {
	BaseURL           string  `toml:"base_url"`
	MobileBaseURL     string  `toml:"mobile_base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Timeout           int     `toml:"timeout"` // seconds
}

// FlickrConfig contains Flickr REST endpoint settings.
type FlickrConfig struct {
	Endpoint string `toml:"endpoint"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the optional health endpoint settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"` // 0 disables the server
}

// Addr returns host:port, or "" when the server is disabled.
func (s ServerConfig) Addr() string {
	if s.Port == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PollEvery returns the poll interval as a [time.Duration].
func (s SyncConfig) PollEvery() time.Duration {
	return time.Duration(s.PollInterval) * time.Second
}

// HTTPTimeout returns the Nixplay request timeout as a [time.Duration].
func (n NixplayConfig) HTTPTimeout() time.Duration {
	return time.Duration(n.Timeout) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML, replacing the file.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate checks the values a sync run depends on.
func (c *Config) Validate() error {
	if c.Sync.BatchSize < 1 || c.Sync.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: batch_size must be between 1 and %d, got %d", ErrInvalidConfig, MaxBatchSize, c.Sync.BatchSize)
	}
	if c.Sync.PollInterval < 0 {
		return fmt.Errorf("%w: poll_interval must not be negative", ErrInvalidConfig)
	}
	if c.Nixplay.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests_per_second must not be negative", ErrInvalidConfig)
	}
	if c.Nixplay.BaseURL == "" {
		return fmt.Errorf("%w: nixplay base_url is empty", ErrInvalidConfig)
	}
	return nil
}

// RequireNixplay reports [ErrMissingCredentials] when the Nixplay login is incomplete.
func (c CredentialsConfig) RequireNixplay() error {
	if c.Nixplay.Username == "" {
		return fmt.Errorf("%w: missing Nixplay username", ErrMissingCredentials)
	}
	if c.Nixplay.Password == "" {
		return fmt.Errorf("%w: missing Nixplay password", ErrMissingCredentials)
	}
	return nil
}

// RequireFlickr reports [ErrMissingCredentials] when the Flickr API key pair is incomplete.
func (c CredentialsConfig) RequireFlickr() error {
	if c.Flickr.APIKey == "" || c.Flickr.APISecret == "" {
		return fmt.Errorf("%w: missing Flickr api_key/api_secret", ErrMissingCredentials)
	}
	return nil
}

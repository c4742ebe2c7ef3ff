package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Summary     SummaryConfig     `toml:"summary"`
	Server      ServerConfig      `toml:"server"`
	Metrics     MetricsConfig     `toml:"metrics"`
	Logging     LoggingConfig     `toml:"logging"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Bluesky  BlueskyConfig  `toml:"bluesky"`
	Mastodon MastodonConfig `toml:"mastodon"`
}

// SpotifyConfig contains Spotify API credentials and the persisted OAuth token.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	TokenType    string    `toml:"token_type"`
	Expiry       time.Time `toml:"expiry,omitempty"`
}

// Token returns the persisted token, or nil when the user never authorized.
func (c SpotifyConfig) Token() *oauth2.Token {
	if c.AccessToken == "" && c.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// Update stores the given token. A refresh token is only replaced when the new token carries one.
func (c *SpotifyConfig) Update(token *oauth2.Token) {
	if token == nil {
		return
	}
	c.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		c.RefreshToken = token.RefreshToken
	}
	c.TokenType = token.TokenType
	c.Expiry = token.Expiry
}

// HasClient reports whether client credentials are present.
func (c SpotifyConfig) HasClient() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// BlueskyConfig contains the handle and app password used to post.
type BlueskyConfig struct {
	Handle    string `toml:"handle"`
	Password  string `toml:"password"`
	Service   string `toml:"service"`
	CharLimit int    `toml:"char_limit"`
}

// MastodonConfig contains the instance URL and access token used to post.
type MastodonConfig struct {
	Instance    string `toml:"instance"`
	AccessToken string `toml:"access_token"`
	Visibility  string `toml:"visibility"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SummaryConfig holds the ingestion and ranking knobs.
type SummaryConfig struct {
	LookbackHours        int `toml:"lookback_hours"`
	TrailingWindowDays   int `toml:"trailing_window_days"`
	TopTrackLimit        int `toml:"top_track_limit"`
	PlaylistCandidateCap int `toml:"playlist_candidate_cap"`
	FetchLimit           int `toml:"fetch_limit"`
}

// ServerConfig contains the OAuth callback listener settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

// LoggingConfig sets the logger verbosity.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Validate checks the summary settings.
func (c *Config) Validate() error {
	s := c.Summary
	switch {
	case s.LookbackHours <= 0:
		return fmt.Errorf("%w: lookback_hours must be positive, got %d", ErrInvalidConfig, s.LookbackHours)
	case s.TrailingWindowDays <= 0:
		return fmt.Errorf("%w: trailing_window_days must be positive, got %d", ErrInvalidConfig, s.TrailingWindowDays)
	case s.TopTrackLimit <= 0:
		return fmt.Errorf("%w: top_track_limit must be positive, got %d", ErrInvalidConfig, s.TopTrackLimit)
	case s.PlaylistCandidateCap <= 0:
		return fmt.Errorf("%w: playlist_candidate_cap must be positive, got %d", ErrInvalidConfig, s.PlaylistCandidateCap)
	case s.FetchLimit <= 0 || s.FetchLimit > 50:
		return fmt.Errorf("%w: fetch_limit must be between 1 and 50, got %d", ErrInvalidConfig, s.FetchLimit)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults of the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
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

// SaveConfig writes the config back to path, replacing the file.
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

// LoadEnv reads KEY=value pairs from the given dotenv files into the process environment.
// Files that do not exist are ignored and variables already set are left alone.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with any of the supported environment variables.
func ApplyEnv(config *Config) error {
	strs := map[string]*string{
		"SPOTIFY_CLIENT_ID":     &config.Credentials.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET": &config.Credentials.Spotify.ClientSecret,
		"SPOTIFY_REDIRECT_URI":  &config.Credentials.Spotify.RedirectURI,
		"SPOTIFY_REFRESH_TOKEN": &config.Credentials.Spotify.RefreshToken,
		"BSKY_HANDLE":           &config.Credentials.Bluesky.Handle,
		"BSKY_PASSWORD":         &config.Credentials.Bluesky.Password,
		"BSKY_SERVICE":          &config.Credentials.Bluesky.Service,
		"MASTODON_INSTANCE":     &config.Credentials.Mastodon.Instance,
		"MASTODON_ACCESS_TOKEN": &config.Credentials.Mastodon.AccessToken,
		"SQLITE_PATH":           &config.Database.Path,
		"METRICS_TEXTFILE":      &config.Metrics.Textfile,
		"LOG_LEVEL":             &config.Logging.Level,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"INGEST_LOOKBACK_HOURS": &config.Summary.LookbackHours,
		"MAX_TOP_TRACKS":        &config.Summary.TopTrackLimit,
		"BSKY_CHAR_LIMIT":       &config.Credentials.Bluesky.CharLimit,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, v)
		}
		*dst = n
	}
	return nil
}

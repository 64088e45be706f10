package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Shuffle-at-start behavior. Sources disagree on whether a session should
// force shuffle on or trust the remote player, so it is a config knob.
const (
	ShuffleRemote = "remote" // leave shuffle as the remote player reports it
	ShuffleOn     = "on"     // enable shuffle when the session starts
	ShuffleOff    = "off"    // disable shuffle when the session starts
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Playback    PlaybackConfig    `toml:"playback"`
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

// PlaybackConfig contains tunables for the interactive playback session.
type PlaybackConfig struct {
	PollIntervalMS int    `toml:"poll_interval_ms"` // snapshot polling interval
	TickRateMS     int    `toml:"tick_rate_ms"`     // session loop tick / key read timeout
	VolumeStep     int    `toml:"volume_step"`      // percent per volume key press
	ShuffleAtStart string `toml:"shuffle_at_start"` // "remote", "on" or "off"
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

// ApplyEnv overlays Spotify credentials from the environment, matching the
// SPOTIPY_* variable names the original tooling used alongside SPOTIFY_*.
func (c *Config) ApplyEnv() {
	for _, key := range []string{"SPOTIFY_CLIENT_ID", "SPOTIPY_CLIENT_ID"} {
		if v := os.Getenv(key); v != "" {
			c.Credentials.Spotify.ClientID = v
			break
		}
	}
	for _, key := range []string{"SPOTIFY_CLIENT_SECRET", "SPOTIPY_CLIENT_SECRET"} {
		if v := os.Getenv(key); v != "" {
			c.Credentials.Spotify.ClientSecret = v
			break
		}
	}
	for _, key := range []string{"SPOTIFY_REDIRECT_URI", "SPOTIPY_REDIRECT_URI"} {
		if v := os.Getenv(key); v != "" {
			c.Credentials.Spotify.RedirectURI = v
			break
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Playback.PollIntervalMS <= 0 {
		c.Playback.PollIntervalMS = 2000
	}
	if c.Playback.TickRateMS <= 0 {
		c.Playback.TickRateMS = 200
	}
	if c.Playback.VolumeStep <= 0 {
		c.Playback.VolumeStep = 5
	}
	switch c.Playback.ShuffleAtStart {
	case ShuffleRemote, ShuffleOn, ShuffleOff:
	default:
		c.Playback.ShuffleAtStart = ShuffleRemote
	}
	if c.Database.Path == "" {
		c.Database.Path = "splay.db"
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

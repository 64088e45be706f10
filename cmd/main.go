package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/splay/internal/services"
	"github.com/desertthunder/splay/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	// A .env next to the binary can carry SPOTIFY_* credentials.
	_ = godotenv.Load()

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}
	config.ApplyEnv()

	var svc services.Service
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		spotify, err := services.NewSpotifyService(map[string]string{
			"client_id":     config.Credentials.Spotify.ClientID,
			"client_secret": config.Credentials.Spotify.ClientSecret,
			"redirect_uri":  config.Credentials.Spotify.RedirectURI,
		})
		if err == nil {
			if path, err := shared.DefaultTokenPath(); err == nil {
				if token, err := shared.LoadToken(path); err == nil {
					spotify.AuthenticateToken(context.Background(), token)
				}
			}
			svc = spotify
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Svc:    svc,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "splay",
		Usage:    "Search Spotify playlists and drive playback from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

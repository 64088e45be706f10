package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/splay/internal/server"
	"github.com/desertthunder/splay/internal/services"
	"github.com/desertthunder/splay/internal/shared"
	"github.com/urfave/cli/v3"
)

const authTimeout = 2 * time.Minute

// AuthLogin performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server on the redirect URI, opens the browser for user
// authorization, and stores the exchanged token for later runs.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	oauthSvc, ok := r.svc.(services.OAuthService)
	if !ok {
		return fmt.Errorf("%w: %s does not support browser authorization", shared.ErrInvalidCredentials, r.svc.Name())
	}

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}

	handler := server.NewOAuthHandler(oauthSvc.OAuthConfig(), state)
	callback, err := server.NewCallbackServer(handler, r.config.Credentials.Spotify.RedirectURI, r.logger)
	if err != nil {
		return err
	}
	callback.Start()

	authURL := oauthSvc.AuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically: %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = authTimeout
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := callback.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	oauthSvc.AuthenticateToken(ctx, result.Token)

	tokenPath, err := shared.DefaultTokenPath()
	if err != nil {
		return err
	}
	if err := shared.SaveToken(tokenPath, result.Token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n\n", tokenPath)
	r.writePlain("You can now run: splay play\n")

	return nil
}

// AuthStatus checks authentication by requesting the user's profile.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	tokenPath, err := shared.DefaultTokenPath()
	if err != nil {
		return err
	}
	if _, err := shared.LoadToken(tokenPath); err != nil {
		r.writePlain("✗ Not authenticated\n")
		r.writePlain("Run 'splay auth login' to connect your account.\n")
		return nil
	}

	spotify, ok := r.svc.(*services.SpotifyService)
	if !ok {
		r.writePlain("✓ Token present at %s\n", tokenPath)
		return nil
	}

	user, err := spotify.UserProfile(ctx)
	if err != nil {
		r.writePlain("✗ Stored token rejected: %v\n", err)
		r.writePlain("Run 'splay auth login' to reauthorize.\n")
		return nil
	}

	r.writePlain("✓ Authenticated as %s\n", user)
	return nil
}

// AuthLogout removes the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	tokenPath, err := shared.DefaultTokenPath()
	if err != nil {
		return err
	}

	if err := os.Remove(tokenPath); err != nil {
		if os.IsNotExist(err) {
			r.writePlain("No stored token.\n")
			return nil
		}
		return fmt.Errorf("failed to remove token: %w", err)
	}

	r.writePlain("✓ Token removed\n")
	return nil
}

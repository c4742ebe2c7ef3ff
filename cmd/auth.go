package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/nowplaying/internal/server"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// AuthSpotify performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server on the redirect URI, opens the browser for user authorization and saves the
// resulting tokens to the config file.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	if !r.config.Credentials.Spotify.HasClient() {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}

	svc, err := r.newSpotifyService()
	if err != nil {
		return err
	}

	addr, path, err := callbackAddr(svc.OAuthConfig().RedirectURL, r.config.Server)
	if err != nil {
		return err
	}

	state := shared.GenerateState()
	handler := server.NewOAuthHandler(svc, state, path)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger), server.Recover(r.logger))
	router.Handler(handler)

	listener, err := server.Listen(addr, router)
	if err != nil {
		return err
	}
	r.logger.Info("started OAuth callback server", "addr", listener.Addr(), "path", path)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := listener.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := svc.GetAuthURL(state)
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("Opening browser for Spotify authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
			r.writeln(ui.Warning("Could not open browser automatically."))
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	timeout := cmd.Duration("timeout")
	r.writePlain("Waiting for authorization (%s timeout)...\n", timeout)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type waited struct {
		token *oauth2.Token
		err   error
	}
	done := make(chan waited, 1)
	go func() {
		token, err := handler.Wait(waitCtx)
		done <- waited{token, err}
	}()

	var token *oauth2.Token
	select {
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("authorization failed: %w", res.err)
		}
		token = res.token
	case err, ok := <-listener.Errors():
		if ok && err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return fmt.Errorf("%w: callback server stopped", shared.ErrAuthFailed)
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.logger.Info("spotify authorized", "expiry", token.Expiry)
	r.writeln(ui.Success("Authorization successful"))
	r.writeln(ui.Success("Tokens saved to %s", r.configPath))
	r.writePlain("\nYou can now run: nowplaying ingest\n")
	return nil
}

// AuthStatus reports which credentials are configured without calling any API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials

	line := func(ok bool, format string, args ...any) {
		if ok {
			r.writeln(ui.Success(format, args...))
		} else {
			r.writeln(ui.Failure(format, args...))
		}
	}

	line(creds.Spotify.HasClient(), "Spotify client credentials")
	switch token := creds.Spotify.Token(); {
	case token == nil:
		line(false, "Spotify authorization (run 'nowplaying auth spotify')")
	case token.Expiry.IsZero() || token.Expiry.After(r.now()):
		line(true, "Spotify authorization")
	default:
		line(true, "Spotify authorization (access token expired %s, will refresh)", token.Expiry.Format(time.RFC3339))
	}
	line(creds.Bluesky.Handle != "" && creds.Bluesky.Password != "", "Bluesky (%s)", orNone(creds.Bluesky.Handle))
	line(creds.Mastodon.Instance != "" && creds.Mastodon.AccessToken != "", "Mastodon (%s)", orNone(creds.Mastodon.Instance))
	return nil
}

// callbackAddr derives the listen address and callback path from the redirect URI.
// The server config is used when the URI carries no port.
func callbackAddr(redirectURI string, fallback shared.ServerConfig) (string, string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return "", "", fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, redirectURI)
	}

	host, port := u.Hostname(), u.Port()
	if port == "" {
		host, port = fallback.Host, strconv.Itoa(fallback.Port)
	}

	path := u.Path
	if path == "" {
		path = "/callback"
	}
	return net.JoinHostPort(host, port), path, nil
}

func orNone(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}

// Spotify Web API implementation of [Source]
//
// Endpoint reference: https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultRedirectURI    = "http://127.0.0.1:3000/callback"
	playlistPageSize      = 50
	defaultRequestsPerSec = 5
)

// expired is used as the expiry of a token that only carries a refresh token.
var expired = time.Unix(1, 0)

// SpotifyScopes are the permissions needed to read history and playlists.
var SpotifyScopes = []string{
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
}

var _ OAuthService = (*SpotifyService)(nil)

// SpotifyService reads listening history through the Spotify Web API.
type SpotifyService struct {
	config  *oauth2.Config
	client  *spotify.Client
	limiter *rate.Limiter
	baseURL string
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL points the API client at another host. The URL must end with a slash.
func WithBaseURL(u string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = u }
}

// WithTokenURL overrides the OAuth token endpoint.
func WithTokenURL(u string) SpotifyOption {
	return func(s *SpotifyService) { s.config.Endpoint.TokenURL = u }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSecond float64) SpotifyOption {
	return func(s *SpotifyService) { s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1) }
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       SpotifyScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSec), 1),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Authenticate builds the API client from stored tokens ("access_token", "refresh_token", "expiry" in RFC 3339)
// or by exchanging an "auth_code".
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if code := credentials["auth_code"]; code != "" {
		_, err := s.Exchange(ctx, code)
		return err
	}

	access, refresh := credentials["access_token"], credentials["refresh_token"]
	if access == "" && refresh == "" {
		return fmt.Errorf("%w: missing access_token, refresh_token or auth_code", shared.ErrMissingCredentials)
	}

	token := &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: credentials["token_type"]}
	if exp := credentials["expiry"]; exp != "" {
		t, err := parseExpiry(exp)
		if err != nil {
			return fmt.Errorf("%w: expiry %q: %w", shared.ErrInvalidCredentials, exp, err)
		}
		token.Expiry = t
	} else if access == "" {
		// Only a refresh token: force a refresh on first use.
		token.Expiry = expired
	}

	s.useToken(ctx, token)
	return nil
}

// AuthenticateToken builds the API client from an existing token.
func (s *SpotifyService) AuthenticateToken(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: no token", shared.ErrMissingCredentials)
	}
	s.useToken(ctx, token)
	return nil
}

// Exchange trades an authorization code for a token and authenticates the service with it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
	}
	s.useToken(ctx, token)
	return token, nil
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OAuthConfig exposes the OAuth2 configuration for callback handlers.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// Token returns the current token, refreshed if the client had to renew it.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.client == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.client.Token()
}

// RecentPlays returns up to limit plays after afterMs, newest first.
func (s *SpotifyService) RecentPlays(ctx context.Context, afterMs int64, limit int) ([]PlayItem, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	items, err := s.client.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{
		Limit:        spotify.Numeric(limit),
		AfterEpochMs: afterMs,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: recently played: %w", shared.ErrAPIRequest, err)
	}

	plays := make([]PlayItem, 0, len(items))
	for _, item := range items {
		plays = append(plays, toPlayItem(item))
	}
	return plays, nil
}

// OwnedPlaylists pages through the current user's playlists. Page tokens are offsets.
func (s *SpotifyService) OwnedPlaylists(ctx context.Context, pageToken string) (*PlaylistPage, error) {
	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: page token %q", shared.ErrInvalidArgument, pageToken)
		}
		offset = n
	}

	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	page, err := s.client.CurrentUsersPlaylists(ctx, spotify.Limit(playlistPageSize), spotify.Offset(offset))
	if err != nil {
		return nil, fmt.Errorf("%w: playlists at offset %d: %w", shared.ErrAPIRequest, offset, err)
	}

	result := &PlaylistPage{Playlists: make([]PlaylistInfo, 0, len(page.Playlists))}
	for _, p := range page.Playlists {
		result.Playlists = append(result.Playlists, PlaylistInfo{
			ID:   p.ID.String(),
			Name: p.Name,
			URL:  p.ExternalURLs["spotify"],
		})
	}

	if page.Next != "" && len(page.Playlists) > 0 {
		result.Next = strconv.Itoa(offset + len(page.Playlists))
	}

	return result, nil
}

// FetchPlaylist retrieves a playlist's name and public URL.
func (s *SpotifyService) FetchPlaylist(ctx context.Context, id string) (*PlaylistInfo, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	p, err := s.client.GetPlaylist(ctx, spotify.ID(id), spotify.Fields("name,external_urls"))
	if err != nil {
		var apiErr spotify.Error
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %s: %w", ErrPlaylistUnavailable, id, err)
		}
		return nil, fmt.Errorf("%w: playlist %s: %w", shared.ErrAPIRequest, id, err)
	}

	return &PlaylistInfo{
		ID:   id,
		Name: p.Name,
		URL:  p.ExternalURLs["spotify"],
	}, nil
}

func (s *SpotifyService) useToken(ctx context.Context, token *oauth2.Token) {
	var opts []spotify.ClientOption
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.baseURL))
	}
	s.client = spotify.New(s.config.Client(ctx, token), opts...)
}

func (s *SpotifyService) ready(ctx context.Context) error {
	if s.client == nil {
		return shared.ErrNotAuthenticated
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

func parseExpiry(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func toPlayItem(item spotify.RecentlyPlayedItem) PlayItem {
	play := PlayItem{
		TrackID:     item.Track.ID.String(),
		TrackName:   item.Track.Name,
		AlbumID:     item.Track.Album.ID.String(),
		AlbumName:   item.Track.Album.Name,
		ContextType: item.PlaybackContext.Type,
		ContextURI:  string(item.PlaybackContext.URI),
	}
	if !item.PlayedAt.IsZero() {
		play.PlayedAt = models.FormatPlayedAt(item.PlayedAt)
	}
	if len(item.Track.Artists) > 0 {
		play.ArtistName = item.Track.Artists[0].Name
	}
	return play
}

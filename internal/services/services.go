// package services defines the upstream listening-history boundary
package services

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// ErrPlaylistUnavailable reports a playlist the user cannot see: deleted, private or region locked.
var ErrPlaylistUnavailable = fmt.Errorf("playlist unavailable")

// Source is the upstream API the engines read from.
type Source interface {
	PlaylistFetcher

	// RecentPlays returns up to limit plays that happened after afterMs (epoch milliseconds).
	RecentPlays(ctx context.Context, afterMs int64, limit int) ([]PlayItem, error)

	// OwnedPlaylists returns one page of the user's playlists. An empty pageToken requests the first page
	// and an empty [PlaylistPage.Next] marks the last.
	OwnedPlaylists(ctx context.Context, pageToken string) (*PlaylistPage, error)
}

// PlaylistFetcher looks up a single playlist's display metadata.
type PlaylistFetcher interface {
	// FetchPlaylist wraps [ErrPlaylistUnavailable] when the playlist is not found or forbidden.
	FetchPlaylist(ctx context.Context, id string) (*PlaylistInfo, error)
}

// OAuthService is a [Source] that authorizes through the OAuth2 authorization code flow.
type OAuthService interface {
	Source
	Authenticate(ctx context.Context, credentials map[string]string) error
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Token() (*oauth2.Token, error)
}

// PlayItem is one recently played entry. Empty strings mark fields the upstream omitted.
type PlayItem struct {
	PlayedAt    string
	TrackID     string
	TrackName   string
	ArtistName  string
	AlbumID     string
	AlbumName   string
	ContextType string
	ContextURI  string
}

// PlaylistInfo is a playlist's display metadata.
type PlaylistInfo struct {
	ID   string
	Name string
	URL  string
}

// PlaylistPage is one page of playlists.
type PlaylistPage struct {
	Playlists []PlaylistInfo
	Next      string
}

// package models defines the data model for the weekly listening summary
package models

import (
	"fmt"
	"strings"
	"time"
)

// PlayedAtLayout is the layout Spotify uses for played_at timestamps.
const PlayedAtLayout = "2006-01-02T15:04:05.000Z"

const (
	UnknownTrack      = "Unknown track"
	UnknownArtist     = "Unknown artist"
	UnnamedPlaylist   = "Unnamed playlist"
	UnknownPlaylist   = "Unknown Playlist"
	PlaylistURIPrefix = "spotify:playlist:"
	ContextPlaylist   = "playlist"
)

// PlayEvent is a single listen. PlayedAt and TrackID together identify it.
type PlayEvent struct {
	ID           int64
	PlayedAt     string
	PlayedAtUnix int64
	TrackID      string
	TrackName    string
	ArtistName   string
	AlbumID      string
	AlbumName    string
	ContextType  string
	ContextURI   string
}

// Validate checks the required fields.
func (p *PlayEvent) Validate() error {
	switch {
	case p.PlayedAt == "":
		return fmt.Errorf("played_at is required")
	case p.TrackID == "":
		return fmt.Errorf("track_id is required")
	case p.TrackName == "":
		return fmt.Errorf("track_name is required")
	case p.ArtistName == "":
		return fmt.Errorf("artist_name is required")
	}
	return nil
}

// PlaylistMeta is cached display metadata for a playlist.
type PlaylistMeta struct {
	PlaylistID string
	Name       string
	URL        string
}

// TrackStat is the per-track aggregate over a window.
type TrackStat struct {
	TrackID        string
	TrackName      string
	ArtistName     string
	PlayCount      int
	LastPlayedUnix int64
}

// AlbumStat is the per-album aggregate over a window.
type AlbumStat struct {
	AlbumID    string
	AlbumName  string
	ArtistName string
	PlayCount  int
}

// ContextStat is the per-context aggregate over a window.
type ContextStat struct {
	ContextURI string
	PlayCount  int
}

// TopTrack is a ranked track.
type TopTrack struct {
	TrackID   string `json:"track_id"`
	Label     string `json:"label"`
	PlayCount int    `json:"play_count"`
}

// URL links to the track on open.spotify.com.
func (t TopTrack) URL() string { return TrackURL(t.TrackID) }

// TopAlbum is the most played album.
type TopAlbum struct {
	AlbumID    string `json:"album_id"`
	AlbumName  string `json:"album_name"`
	ArtistName string `json:"artist_name"`
	PlayCount  int    `json:"play_count"`
}

// Label renders "{album} — {artist}".
func (a TopAlbum) Label() string { return TrackLabel(a.AlbumName, a.ArtistName) }

// URL links to the album on open.spotify.com.
func (a TopAlbum) URL() string { return AlbumURL(a.AlbumID) }

// TopPlaylist is the most played resolvable playlist.
type TopPlaylist struct {
	PlaylistID string `json:"playlist_id"`
	Name       string `json:"name"`
	URL        string `json:"url,omitempty"`
	PlayCount  int    `json:"play_count"`
}

// Summary is everything the renderers need for one post.
type Summary struct {
	Tracks      []TopTrack   `json:"tracks"`
	Album       *TopAlbum    `json:"album"`
	Playlist    *TopPlaylist `json:"playlist"`
	WindowDays  int          `json:"window_days"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Empty reports whether there is nothing to publish.
func (s *Summary) Empty() bool {
	return s == nil || (len(s.Tracks) == 0 && s.Album == nil && s.Playlist == nil)
}

// TrackLabel renders "{name} — {artist}".
func TrackLabel(name, artist string) string {
	return name + " — " + artist
}

// TrackURL returns the open.spotify.com link for a track id.
func TrackURL(id string) string { return "https://open.spotify.com/track/" + id }

// AlbumURL returns the open.spotify.com link for an album id.
func AlbumURL(id string) string { return "https://open.spotify.com/album/" + id }

// PlaylistURL returns the open.spotify.com link for a playlist id.
func PlaylistURL(id string) string { return "https://open.spotify.com/playlist/" + id }

// PlaylistIDFromURI extracts the id of a "spotify:playlist:{id}" context URI.
// Any other URI shape reports false.
func PlaylistIDFromURI(uri string) (string, bool) {
	rest, ok := strings.CutPrefix(uri, PlaylistURIPrefix)
	if !ok {
		return "", false
	}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		rest = rest[i+1:]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

var playedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParsePlayedAt converts an upstream played_at string to epoch seconds.
//
// A trailing "Z" is read as "+00:00" and timestamps without an offset are taken as UTC,
// so the same instant always yields the same value.
func ParsePlayedAt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	if base, ok := strings.CutSuffix(s, "Z"); ok {
		s = base + "+00:00"
	}

	for _, layout := range playedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatPlayedAt renders t in Spotify's played_at layout.
func FormatPlayedAt(t time.Time) string {
	return t.UTC().Format(PlayedAtLayout)
}

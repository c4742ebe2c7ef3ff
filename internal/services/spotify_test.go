package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/nowplaying/internal/shared"
)

var testCredentials = map[string]string{
	"client_id":     "id",
	"client_secret": "secret",
}

// newTestService returns an authenticated service talking to handler.
func newTestService(t *testing.T, handler http.Handler) *SpotifyService {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewSpotifyService(testCredentials, WithBaseURL(srv.URL+"/"), WithRateLimit(1000))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if err := svc.Authenticate(context.Background(), map[string]string{"access_token": "tok"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	return svc
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func TestNewSpotifyService(t *testing.T) {
	tc := []struct {
		name        string
		credentials map[string]string
		wantErr     bool
	}{
		{name: "complete", credentials: testCredentials},
		{name: "missing client id", credentials: map[string]string{"client_secret": "s"}, wantErr: true},
		{name: "missing client secret", credentials: map[string]string{"client_id": "i"}, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSpotifyService(tt.credentials)
			if tt.wantErr && !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	t.Run("auth url carries scopes", func(t *testing.T) {
		svc, _ := NewSpotifyService(testCredentials)
		u := svc.GetAuthURL("xyz")

		for _, want := range []string{"state=xyz", "user-read-recently-played", "playlist-read-private"} {
			if !strings.Contains(u, want) {
				t.Errorf("expected auth url to contain %q, got %s", want, u)
			}
		}
	})
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("unauthenticated", func(t *testing.T) {
		svc, _ := NewSpotifyService(testCredentials)
		if _, err := svc.RecentPlays(ctx, 0, 50); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Authenticate requires a token", func(t *testing.T) {
		svc, _ := NewSpotifyService(testCredentials)
		if err := svc.Authenticate(ctx, map[string]string{}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if err := svc.Authenticate(ctx, map[string]string{"access_token": "a", "expiry": "soon"}); !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("RecentPlays", func(t *testing.T) {
		var gotAfter, gotLimit, gotAuth string
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/player/recently-played" {
				http.NotFound(w, r)
				return
			}
			gotAfter = r.URL.Query().Get("after")
			gotLimit = r.URL.Query().Get("limit")
			gotAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, `{
				"items": [
					{
						"played_at": "2024-05-06T07:08:09.120Z",
						"track": {
							"id": "t1",
							"name": "Song",
							"artists": [{"name": "First"}, {"name": "Second"}],
							"album": {"id": "a1", "name": "Record"}
						},
						"context": {"type": "playlist", "uri": "spotify:playlist:p1"}
					},
					{
						"played_at": "2024-05-06T06:00:00.000Z",
						"track": {"id": "t2", "name": "Other", "artists": []},
						"context": null
					}
				]
			}`)
		}))

		items, err := svc.RecentPlays(ctx, 1714960000000, 50)
		if err != nil {
			t.Fatalf("RecentPlays failed: %v", err)
		}

		if gotAfter != "1714960000000" || gotLimit != "50" {
			t.Errorf("expected after=1714960000000 limit=50, got after=%s limit=%s", gotAfter, gotLimit)
		}
		if gotAuth != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", gotAuth)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}

		first := items[0]
		if first.PlayedAt != "2024-05-06T07:08:09.120Z" {
			t.Errorf("expected played_at in wire layout, got %s", first.PlayedAt)
		}
		if first.ArtistName != "First" {
			t.Errorf("expected first artist only, got %s", first.ArtistName)
		}
		if first.AlbumID != "a1" || first.AlbumName != "Record" {
			t.Errorf("expected album a1/Record, got %s/%s", first.AlbumID, first.AlbumName)
		}
		if first.ContextType != "playlist" || first.ContextURI != "spotify:playlist:p1" {
			t.Errorf("unexpected context %s %s", first.ContextType, first.ContextURI)
		}

		second := items[1]
		if second.ArtistName != "" || second.ContextURI != "" || second.AlbumID != "" {
			t.Errorf("expected missing optional fields to stay empty, got %+v", second)
		}
	})

	t.Run("RecentPlays transport failure", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, `{"error": {"status": 500, "message": "boom"}}`)
		}))

		if _, err := svc.RecentPlays(ctx, 0, 50); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("OwnedPlaylists pages by offset", func(t *testing.T) {
		var offsets []string
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			offset := r.URL.Query().Get("offset")
			offsets = append(offsets, offset)
			switch offset {
			case "0", "":
				writeJSON(w, http.StatusOK, `{
					"items": [
						{"id": "p1", "name": "One", "external_urls": {"spotify": "https://open.spotify.com/playlist/p1"}},
						{"id": "p2", "name": "Two", "external_urls": {}}
					],
					"next": "https://api.spotify.com/v1/me/playlists?offset=2&limit=50"
				}`)
			default:
				writeJSON(w, http.StatusOK, `{"items": [{"id": "p3", "name": "Three"}], "next": null}`)
			}
		}))

		page, err := svc.OwnedPlaylists(ctx, "")
		if err != nil {
			t.Fatalf("first page failed: %v", err)
		}
		if len(page.Playlists) != 2 || page.Next != "2" {
			t.Fatalf("expected 2 playlists and next=2, got %d and %q", len(page.Playlists), page.Next)
		}
		if page.Playlists[0].URL != "https://open.spotify.com/playlist/p1" {
			t.Errorf("expected playlist url, got %q", page.Playlists[0].URL)
		}

		last, err := svc.OwnedPlaylists(ctx, page.Next)
		if err != nil {
			t.Fatalf("second page failed: %v", err)
		}
		if len(last.Playlists) != 1 || last.Next != "" {
			t.Errorf("expected final page with no next token, got %+v", last)
		}
		if len(offsets) != 2 || offsets[1] != "2" {
			t.Errorf("expected requests at offsets 0 and 2, got %v", offsets)
		}
	})

	t.Run("OwnedPlaylists rejects bad token", func(t *testing.T) {
		svc := newTestService(t, http.NotFoundHandler())
		if _, err := svc.OwnedPlaylists(ctx, "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("FetchPlaylist", func(t *testing.T) {
		svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/playlists/found":
				if r.URL.Query().Get("fields") != "name,external_urls" {
					t.Errorf("expected fields filter, got %q", r.URL.RawQuery)
				}
				writeJSON(w, http.StatusOK, `{"name": "Discover Weekly", "external_urls": {"spotify": "https://open.spotify.com/playlist/found"}}`)
			case "/playlists/gone":
				writeJSON(w, http.StatusNotFound, `{"error": {"status": 404, "message": "Not found."}}`)
			case "/playlists/private":
				writeJSON(w, http.StatusForbidden, `{"error": {"status": 403, "message": "Forbidden"}}`)
			default:
				writeJSON(w, http.StatusBadGateway, `{"error": {"status": 502, "message": "Bad gateway"}}`)
			}
		}))

		info, err := svc.FetchPlaylist(ctx, "found")
		if err != nil {
			t.Fatalf("FetchPlaylist failed: %v", err)
		}
		if info.ID != "found" || info.Name != "Discover Weekly" || info.URL == "" {
			t.Errorf("unexpected playlist info %+v", info)
		}

		for _, id := range []string{"gone", "private"} {
			if _, err := svc.FetchPlaylist(ctx, id); !errors.Is(err, ErrPlaylistUnavailable) {
				t.Errorf("expected ErrPlaylistUnavailable for %s, got %v", id, err)
			}
		}

		_, err = svc.FetchPlaylist(ctx, "flaky")
		if errors.Is(err, ErrPlaylistUnavailable) || !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest for a server error, got %v", err)
		}
	})

	t.Run("Token", func(t *testing.T) {
		svc := newTestService(t, http.NotFoundHandler())

		token, err := svc.Token()
		if err != nil {
			t.Fatalf("Token failed: %v", err)
		}
		if token.AccessToken != "tok" {
			t.Errorf("expected access token tok, got %s", token.AccessToken)
		}
	})
}

package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/repositories"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	mocks "github.com/desertthunder/nowplaying/internal/testing"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type store struct {
	plays     *repositories.PlayRepository
	playlists *repositories.PlaylistRepository
}

func newStore(t *testing.T) store {
	db := mocks.NewTestDB(t)
	return store{
		plays:     repositories.NewPlayRepository(db),
		playlists: repositories.NewPlaylistRepository(db),
	}
}

func item(playedAt, trackID string) services.PlayItem {
	return services.PlayItem{
		PlayedAt:   playedAt,
		TrackID:    trackID,
		TrackName:  "Song " + trackID,
		ArtistName: "Artist " + trackID,
	}
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("requests the lookback window", func(t *testing.T) {
		s := newStore(t)
		src := &mocks.MockSource{}
		ing := NewIngester(src, s.plays, s.playlists, IngestOptions{}, WithClock(clock))

		_, err := ing.Ingest(ctx)
		require.NoError(t, err)
		require.Len(t, src.RecentCalls, 1)

		want := fixedNow.Add(-26 * time.Hour).UnixMilli()
		assert.Equal(t, want, src.RecentCalls[0].AfterMs)
		assert.Equal(t, 50, src.RecentCalls[0].Limit)
	})

	t.Run("inserts new plays and skips malformed ones", func(t *testing.T) {
		s := newStore(t)
		metrics := NewMetrics()
		src := &mocks.MockSource{Recent: []services.PlayItem{
			item("2024-05-10T11:00:00.000Z", "t1"),
			item("2024-05-10T10:00:00.000Z", "t2"),
			item("", "t3"),
			item("2024-05-10T09:00:00.000Z", ""),
			item("last tuesday", "t4"),
		}}
		ing := NewIngester(src, s.plays, s.playlists, IngestOptions{}, WithClock(clock), WithMetrics(metrics))

		inserted, err := ing.Ingest(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, inserted)

		count, err := s.plays.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.playsInserted))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.playsSkipped.WithLabelValues("missing_timestamp")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.playsSkipped.WithLabelValues("missing_track_id")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.playsSkipped.WithLabelValues("bad_timestamp")))
	})

	t.Run("is idempotent", func(t *testing.T) {
		s := newStore(t)
		src := &mocks.MockSource{Recent: []services.PlayItem{
			item("2024-05-10T11:00:00.000Z", "t1"),
			item("2024-05-10T10:00:00.000Z", "t2"),
		}}
		ing := NewIngester(src, s.plays, s.playlists, IngestOptions{}, WithClock(clock))

		first, err := ing.Ingest(ctx)
		require.NoError(t, err)
		second, err := ing.Ingest(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, first)
		assert.Equal(t, 0, second)

		count, _ := s.plays.Count(ctx)
		assert.Equal(t, 2, count)
	})

	t.Run("overlapping windows only add the new plays", func(t *testing.T) {
		s := newStore(t)
		src := &mocks.MockSource{Recent: []services.PlayItem{item("2024-05-10T08:00:00.000Z", "t1")}}
		ing := NewIngester(src, s.plays, s.playlists, IngestOptions{}, WithClock(clock))

		_, err := ing.Ingest(ctx)
		require.NoError(t, err)

		src.Recent = append(src.Recent, item("2024-05-10T11:30:00.000Z", "t2"))
		inserted, err := ing.Ingest(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, inserted)
	})

	t.Run("normalizes names and keeps optional fields", func(t *testing.T) {
		s := newStore(t)
		src := &mocks.MockSource{Recent: []services.PlayItem{
			{PlayedAt: "2024-05-10T11:00:00Z", TrackID: "bare"},
			{
				PlayedAt:    "2024-05-10T10:00:00+00:00",
				TrackID:     "full",
				TrackName:   "Full",
				ArtistName:  "Band",
				AlbumID:     "a1",
				AlbumName:   "Record",
				ContextType: "playlist",
				ContextURI:  "spotify:playlist:p1",
			},
		}}
		ing := NewIngester(src, s.plays, s.playlists, IngestOptions{}, WithClock(clock))

		_, err := ing.Ingest(ctx)
		require.NoError(t, err)

		plays, err := s.plays.Recent(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, plays, 2)

		bare, full := plays[0], plays[1]
		assert.Equal(t, models.UnknownTrack, bare.TrackName)
		assert.Equal(t, models.UnknownArtist, bare.ArtistName)
		assert.Empty(t, bare.AlbumID)
		assert.Empty(t, bare.ContextURI)

		assert.Equal(t, "a1", full.AlbumID)
		assert.Equal(t, "spotify:playlist:p1", full.ContextURI)
		assert.Equal(t, fixedNow.Add(-2*time.Hour).Unix(), full.PlayedAtUnix)
		assert.Equal(t, "2024-05-10T10:00:00+00:00", full.PlayedAt, "played_at keeps the upstream string")
	})

	t.Run("Z and +00:00 store the same instant", func(t *testing.T) {
		s := newStore(t)
		src := &mocks.MockSource{Recent: []services.PlayItem{
			item("2024-05-10T11:00:00Z", "z"),
			item("2024-05-10T11:00:00+00:00", "offset"),
		}}
		ing := NewIngester(src, s.plays, s.playlists, IngestOptions{}, WithClock(clock))

		_, err := ing.Ingest(ctx)
		require.NoError(t, err)

		plays, err := s.plays.Recent(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, plays, 2)
		assert.Equal(t, plays[0].PlayedAtUnix, plays[1].PlayedAtUnix)
	})

	t.Run("propagates upstream failure", func(t *testing.T) {
		s := newStore(t)
		src := &mocks.MockSource{RecentErr: fmt.Errorf("%w: connection reset", shared.ErrAPIRequest)}
		ing := NewIngester(src, s.plays, s.playlists, IngestOptions{}, WithClock(clock))

		inserted, err := ing.Ingest(ctx)
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
		assert.Zero(t, inserted)
	})

	t.Run("reports progress without blocking", func(t *testing.T) {
		s := newStore(t)
		progress := make(chan ProgressUpdate, 1)
		src := &mocks.MockSource{Recent: []services.PlayItem{
			item("2024-05-10T11:00:00.000Z", "t1"),
			item("2024-05-10T10:00:00.000Z", "t2"),
		}}
		ing := NewIngester(src, s.plays, s.playlists, IngestOptions{}, WithClock(clock), WithProgress(progress))

		inserted, err := ing.Ingest(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, inserted)

		update := <-progress
		assert.Equal(t, FetchRecent, update.Phase)
		assert.True(t, strings.Contains(update.String(), "26 hours"))
	})
}

func TestRefreshPlaylistCache(t *testing.T) {
	ctx := context.Background()

	t.Run("walks every page", func(t *testing.T) {
		s := newStore(t)
		src := &mocks.MockSource{Pages: []services.PlaylistPage{
			{
				Playlists: []services.PlaylistInfo{
					{ID: "p1", Name: "Mornings", URL: "https://open.spotify.com/playlist/p1"},
					{ID: "", Name: "ghost"},
				},
				Next: "2",
			},
			{Playlists: []services.PlaylistInfo{{ID: "p2"}}},
		}}
		ing := NewIngester(src, s.plays, s.playlists, IngestOptions{}, WithClock(clock))

		n, err := ing.RefreshPlaylistCache(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"", "2"}, src.PageTokens)

		p2, err := s.playlists.Get(ctx, "p2")
		require.NoError(t, err)
		assert.Equal(t, models.UnnamedPlaylist, p2.Name)
		assert.Empty(t, p2.URL)
	})

	t.Run("keeps earlier pages when a later page fails", func(t *testing.T) {
		s := newStore(t)
		src := &mocks.MockSource{
			Pages: []services.PlaylistPage{
				{Playlists: []services.PlaylistInfo{{ID: "p1", Name: "One"}}, Next: "1"},
			},
			PageErrs: map[int]error{1: errors.New("timeout")},
		}
		ing := NewIngester(src, s.plays, s.playlists, IngestOptions{}, WithClock(clock))

		n, err := ing.RefreshPlaylistCache(ctx)
		require.Error(t, err)
		assert.Equal(t, 1, n)

		p1, err := s.playlists.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "One", p1.Name)
	})

	t.Run("later fetch wins", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.playlists.Upsert(ctx, models.PlaylistMeta{PlaylistID: "p1", Name: "Old"}))

		src := &mocks.MockSource{Pages: []services.PlaylistPage{
			{Playlists: []services.PlaylistInfo{{ID: "p1", Name: "Renamed"}}},
		}}
		ing := NewIngester(src, s.plays, s.playlists, IngestOptions{}, WithClock(clock))

		_, err := ing.RefreshPlaylistCache(ctx)
		require.NoError(t, err)

		p1, err := s.playlists.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", p1.Name)
	})
}

func TestMetricsTextfile(t *testing.T) {
	m := NewMetrics()
	m.inserted()
	m.lookup(LookupCacheHit)
	m.Posted("bluesky", nil)
	m.Posted("mastodon", errors.New("nope"))

	path := filepath.Join(t.TempDir(), "nowplaying.prom")
	require.NoError(t, m.WriteTextfile(path, fixedNow))

	out := mocks.MustReadFile(t, path)
	assert.Contains(t, out, "nowplaying_plays_inserted_total 1")
	assert.Contains(t, out, `nowplaying_playlist_lookups_total{result="cache_hit"} 1`)
	assert.Contains(t, out, `nowplaying_posts_total{platform="mastodon",result="error"} 1`)
	assert.Contains(t, out, "nowplaying_last_run_timestamp_seconds ")

	var nilMetrics *Metrics
	assert.NoError(t, nilMetrics.WriteTextfile(path, fixedNow))
	nilMetrics.inserted()
}

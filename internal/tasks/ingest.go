package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/services"
)

// IngestOptions controls the lookback window and upstream page size.
type IngestOptions struct {
	LookbackHours int
	FetchLimit    int
}

// Ingester copies recent plays and owned playlists from a [services.Source] into the store.
type Ingester struct {
	engine
	source    services.Source
	plays     PlayStore
	playlists PlaylistCache
	opts      IngestOptions
}

// NewIngester creates an Ingester. Zero options fall back to a 26 hour lookback and 50 items.
func NewIngester(source services.Source, plays PlayStore, playlists PlaylistCache, opts IngestOptions, o ...Option) *Ingester {
	if opts.LookbackHours <= 0 {
		opts.LookbackHours = DefaultLookbackHours
	}
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = DefaultFetchLimit
	}
	return &Ingester{
		engine:    newEngine(o),
		source:    source,
		plays:     plays,
		playlists: playlists,
		opts:      opts,
	}
}

// Ingest fetches the plays of the lookback window and stores the ones not seen before.
// It returns how many rows were actually inserted.
func (i *Ingester) Ingest(ctx context.Context) (int, error) {
	since := i.now().Add(-time.Duration(i.opts.LookbackHours) * time.Hour)

	i.sendProgress(fetchRecentUpdate(i.opts.LookbackHours))
	items, err := i.source.RecentPlays(ctx, since.UnixMilli(), i.opts.FetchLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch recent plays: %w", err)
	}

	inserted, duplicates, skipped := 0, 0, 0
	for n, item := range items {
		play, reason := normalizePlay(item)
		if play == nil {
			skipped++
			i.metrics.skipped(reason)
			i.logger.Debug("skipping play", "reason", reason, "played_at", item.PlayedAt, "track_id", item.TrackID)
			continue
		}

		ok, err := i.plays.Insert(ctx, play)
		if err != nil {
			return inserted, fmt.Errorf("failed to store play %s at %s: %w", play.TrackID, play.PlayedAt, err)
		}
		if ok {
			inserted++
			i.metrics.inserted()
		} else {
			duplicates++
			i.metrics.duplicate()
		}
		i.sendProgress(storePlaysUpdate(n+1, len(items)))
	}

	i.logger.Info("ingest complete",
		"fetched", len(items), "inserted", inserted, "duplicates", duplicates, "skipped", skipped,
		"since", since.UTC().Format(time.RFC3339))
	return inserted, nil
}

// RefreshPlaylistCache walks every page of the user's playlists and upserts each one.
// Rows written before a failing page stay committed; the count so far is returned with the error.
func (i *Ingester) RefreshPlaylistCache(ctx context.Context) (int, error) {
	upserted := 0
	token := ""

	for page := 1; ; page++ {
		result, err := i.source.OwnedPlaylists(ctx, token)
		if err != nil {
			return upserted, fmt.Errorf("failed to fetch playlists page %d: %w", page, err)
		}

		for _, p := range result.Playlists {
			if p.ID == "" {
				continue
			}
			name := p.Name
			if name == "" {
				name = models.UnnamedPlaylist
			}
			meta := models.PlaylistMeta{PlaylistID: p.ID, Name: name, URL: p.URL}
			if err := i.playlists.Upsert(ctx, meta); err != nil {
				return upserted, fmt.Errorf("failed to cache playlist %s: %w", p.ID, err)
			}
			upserted++
			i.metrics.cached()
		}

		i.sendProgress(refreshPlaylistsUpdate(page, upserted))

		if result.Next == "" {
			break
		}
		token = result.Next
	}

	i.logger.Info("playlist cache refreshed", "playlists", upserted)
	return upserted, nil
}

// normalizePlay converts an upstream item into a storable play.
// A nil play comes with the reason it was rejected.
func normalizePlay(item services.PlayItem) (*models.PlayEvent, string) {
	if item.PlayedAt == "" {
		return nil, "missing_timestamp"
	}
	if item.TrackID == "" {
		return nil, "missing_track_id"
	}

	unix, err := models.ParsePlayedAt(item.PlayedAt)
	if err != nil {
		return nil, "bad_timestamp"
	}

	play := &models.PlayEvent{
		PlayedAt:     item.PlayedAt,
		PlayedAtUnix: unix,
		TrackID:      item.TrackID,
		TrackName:    item.TrackName,
		ArtistName:   item.ArtistName,
		AlbumID:      item.AlbumID,
		AlbumName:    item.AlbumName,
		ContextType:  item.ContextType,
		ContextURI:   item.ContextURI,
	}
	if play.TrackName == "" {
		play.TrackName = models.UnknownTrack
	}
	if play.ArtistName == "" {
		play.ArtistName = models.UnknownArtist
	}
	return play, ""
}

package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// RankOptions sizes the trailing window and the result lists.
type RankOptions struct {
	WindowDays           int
	TopTrackLimit        int
	PlaylistCandidateCap int
}

// Ranker derives the weekly top tracks, album and playlist from the play log.
type Ranker struct {
	engine
	plays     PlayStore
	playlists PlaylistCache
	fetcher   services.PlaylistFetcher
	opts      RankOptions
}

// NewRanker creates a Ranker. fetcher may be nil, in which case playlists missing from the cache are skipped.
func NewRanker(plays PlayStore, playlists PlaylistCache, fetcher services.PlaylistFetcher, opts RankOptions, o ...Option) *Ranker {
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.TopTrackLimit <= 0 {
		opts.TopTrackLimit = DefaultTopTrackLimit
	}
	if opts.PlaylistCandidateCap <= 0 {
		opts.PlaylistCandidateCap = DefaultPlaylistCandidateCap
	}
	return &Ranker{
		engine:    newEngine(o),
		plays:     plays,
		playlists: playlists,
		fetcher:   fetcher,
		opts:      opts,
	}
}

// Since returns the inclusive lower bound of the trailing window in epoch seconds.
func (r *Ranker) Since() int64 {
	return r.now().Add(-time.Duration(r.opts.WindowDays) * 24 * time.Hour).Unix()
}

// TopTracks returns up to limit tracks of the trailing window.
//
// When some track was played more than once, tracks are ordered by play count and then by most recent
// play. When every track was played exactly once the list is ordered by recency alone and each count
// is reported as 1. Remaining ties fall back to track id.
func (r *Ranker) TopTracks(ctx context.Context, limit int) ([]models.TopTrack, error) {
	r.sendProgress(ProgressUpdate{Phase: RankTracks, Message: "Ranking tracks..."})

	stats, err := r.plays.TrackStats(ctx, r.Since())
	if err != nil {
		return nil, fmt.Errorf("failed to load track stats: %w", err)
	}
	if len(stats) == 0 || limit <= 0 {
		return []models.TopTrack{}, nil
	}

	maxCount := 0
	for _, s := range stats {
		maxCount = max(maxCount, s.PlayCount)
	}
	byCount := maxCount > 1

	sort.Slice(stats, func(a, b int) bool {
		sa, sb := stats[a], stats[b]
		if byCount && sa.PlayCount != sb.PlayCount {
			return sa.PlayCount > sb.PlayCount
		}
		if sa.LastPlayedUnix != sb.LastPlayedUnix {
			return sa.LastPlayedUnix > sb.LastPlayedUnix
		}
		return sa.TrackID < sb.TrackID
	})

	stats = stats[:min(limit, len(stats))]
	tracks := make([]models.TopTrack, 0, len(stats))
	for _, s := range stats {
		count := s.PlayCount
		if !byCount {
			count = 1
		}
		tracks = append(tracks, models.TopTrack{
			TrackID:   s.TrackID,
			Label:     models.TrackLabel(s.TrackName, s.ArtistName),
			PlayCount: count,
		})
	}
	return tracks, nil
}

// TopAlbum returns the most played album of the trailing window, or nil when no play carries an album.
func (r *Ranker) TopAlbum(ctx context.Context) (*models.TopAlbum, error) {
	r.sendProgress(ProgressUpdate{Phase: RankAlbum, Message: "Ranking albums..."})

	albums, err := r.plays.TopAlbums(ctx, r.Since(), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to load album stats: %w", err)
	}
	if len(albums) == 0 {
		return nil, nil
	}

	a := albums[0]
	return &models.TopAlbum{
		AlbumID:    a.AlbumID,
		AlbumName:  a.AlbumName,
		ArtistName: a.ArtistName,
		PlayCount:  a.PlayCount,
	}, nil
}

// TopAlbums returns up to limit albums of the trailing window, most played first.
func (r *Ranker) TopAlbums(ctx context.Context, limit int) ([]models.AlbumStat, error) {
	albums, err := r.plays.TopAlbums(ctx, r.Since(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load album stats: %w", err)
	}
	return albums, nil
}

// TopPlaylist returns the most played playlist of the trailing window that can be named.
//
// Candidates are tried in play count order. A candidate resolves from the cache, or from the
// fetcher on a miss (the result is cached). Candidates with a non-playlist URI, or that the
// upstream reports unavailable, are skipped. Nil means no candidate resolved.
func (r *Ranker) TopPlaylist(ctx context.Context) (*models.TopPlaylist, error) {
	candidates, err := r.plays.PlaylistContexts(ctx, r.Since(), r.opts.PlaylistCandidateCap)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist contexts: %w", err)
	}

	for n, c := range candidates {
		r.sendProgress(resolvePlaylistUpdate(n+1, len(candidates), c.ContextURI))

		id, ok := models.PlaylistIDFromURI(c.ContextURI)
		if !ok {
			r.metrics.lookup(LookupInvalidURI)
			r.logger.Debug("skipping context", "uri", c.ContextURI)
			continue
		}

		meta, err := r.resolvePlaylist(ctx, id)
		if err != nil {
			return nil, err
		}
		if meta == nil {
			continue
		}

		return &models.TopPlaylist{
			PlaylistID: meta.PlaylistID,
			Name:       meta.Name,
			URL:        meta.URL,
			PlayCount:  c.PlayCount,
		}, nil
	}

	return nil, nil
}

// resolvePlaylist returns nil metadata for a playlist that should be skipped.
func (r *Ranker) resolvePlaylist(ctx context.Context, id string) (*models.PlaylistMeta, error) {
	meta, err := r.playlists.Get(ctx, id)
	if err == nil {
		r.metrics.lookup(LookupCacheHit)
		return meta, nil
	}
	if !errors.Is(err, shared.ErrPlaylistNotFound) {
		return nil, fmt.Errorf("failed to read playlist cache: %w", err)
	}

	if r.fetcher == nil {
		r.metrics.lookup(LookupNoSource)
		return nil, nil
	}

	info, err := r.fetcher.FetchPlaylist(ctx, id)
	if errors.Is(err, services.ErrPlaylistUnavailable) {
		r.metrics.lookup(LookupUnavailable)
		r.logger.Warn("playlist unavailable", "playlist_id", id, "err", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist %s: %w", id, err)
	}

	name := info.Name
	if name == "" {
		name = models.UnknownPlaylist
	}
	fetched := &models.PlaylistMeta{PlaylistID: id, Name: name, URL: info.URL}
	if err := r.playlists.Upsert(ctx, *fetched); err != nil {
		return nil, fmt.Errorf("failed to cache playlist %s: %w", id, err)
	}
	r.metrics.lookup(LookupFetched)
	return fetched, nil
}

// Summarize runs every ranking with the configured limits.
func (r *Ranker) Summarize(ctx context.Context) (*models.Summary, error) {
	tracks, err := r.TopTracks(ctx, r.opts.TopTrackLimit)
	if err != nil {
		return nil, err
	}

	album, err := r.TopAlbum(ctx)
	if err != nil {
		return nil, err
	}

	playlist, err := r.TopPlaylist(ctx)
	if err != nil {
		return nil, err
	}

	return &models.Summary{
		Tracks:      tracks,
		Album:       album,
		Playlist:    playlist,
		WindowDays:  r.opts.WindowDays,
		GeneratedAt: r.now(),
	}, nil
}

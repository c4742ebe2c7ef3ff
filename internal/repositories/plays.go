package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/nowplaying/internal/models"
)

// PlayRepository persists [models.PlayEvent] rows.
type PlayRepository struct {
	db *sql.DB
}

// NewPlayRepository creates a new PlayRepository with the given database connection
func NewPlayRepository(db *sql.DB) *PlayRepository {
	return &PlayRepository{db: db}
}

// Insert stores a play unless one with the same (played_at, track_id) exists.
// It reports whether a new row was written.
func (r *PlayRepository) Insert(ctx context.Context, play *models.PlayEvent) (bool, error) {
	if err := play.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT OR IGNORE INTO plays (
			played_at, played_at_unix, track_id, track_name, artist_name,
			album_id, album_name, context_type, context_uri
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		play.PlayedAt,
		play.PlayedAtUnix,
		play.TrackID,
		play.TrackName,
		play.ArtistName,
		nullable(play.AlbumID),
		nullable(play.AlbumName),
		nullable(play.ContextType),
		nullable(play.ContextURI),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert play: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 1 {
		if id, err := result.LastInsertId(); err == nil {
			play.ID = id
		}
	}

	return rows == 1, nil
}

// Count returns the number of stored plays.
func (r *PlayRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM plays").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count plays: %w", err)
	}
	return n, nil
}

// Recent lists plays at or after since, newest first.
func (r *PlayRepository) Recent(ctx context.Context, since int64, limit int) ([]*models.PlayEvent, error) {
	query := `
		SELECT id, played_at, played_at_unix, track_id, track_name, artist_name,
			album_id, album_name, context_type, context_uri
		FROM plays
		WHERE played_at_unix >= ?
		ORDER BY played_at_unix DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	var plays []*models.PlayEvent
	for rows.Next() {
		play, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		plays = append(plays, play)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return plays, nil
}

// TrackStats groups plays at or after since by track.
//
// Name and artist come from the most recent play of each track.
func (r *PlayRepository) TrackStats(ctx context.Context, since int64) ([]models.TrackStat, error) {
	query := `
		SELECT track_id, track_name, artist_name, COUNT(*) AS play_count, MAX(played_at_unix) AS last_played
		FROM plays
		WHERE played_at_unix >= ?
		GROUP BY track_id
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query track stats: %w", err)
	}
	defer rows.Close()

	var stats []models.TrackStat
	for rows.Next() {
		var s models.TrackStat
		if err := rows.Scan(&s.TrackID, &s.TrackName, &s.ArtistName, &s.PlayCount, &s.LastPlayedUnix); err != nil {
			return nil, fmt.Errorf("failed to scan track stat: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return stats, nil
}

// TopAlbums groups plays with an album at or after since, most played first.
// Equal counts are ordered by album id. Album and artist names come from the
// group's most recent play; with a single max() SQLite reads bare columns from that row.
func (r *PlayRepository) TopAlbums(ctx context.Context, since int64, limit int) ([]models.AlbumStat, error) {
	query := `
		SELECT album_id, album_name, artist_name, COUNT(*) AS play_count, MAX(played_at_unix) AS last_played
		FROM plays
		WHERE played_at_unix >= ? AND album_id IS NOT NULL AND album_id != ''
		GROUP BY album_id
		ORDER BY play_count DESC, album_id ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query album stats: %w", err)
	}
	defer rows.Close()

	var stats []models.AlbumStat
	for rows.Next() {
		var (
			s          models.AlbumStat
			albumName  sql.NullString
			lastPlayed int64
		)
		if err := rows.Scan(&s.AlbumID, &albumName, &s.ArtistName, &s.PlayCount, &lastPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan album stat: %w", err)
		}
		s.AlbumName = text(albumName)
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return stats, nil
}

// PlaylistContexts groups playlist-context plays at or after since by context URI,
// most played first. Equal counts are ordered by URI.
func (r *PlayRepository) PlaylistContexts(ctx context.Context, since int64, limit int) ([]models.ContextStat, error) {
	query := `
		SELECT context_uri, COUNT(*) AS play_count
		FROM plays
		WHERE played_at_unix >= ? AND context_type = ? AND context_uri IS NOT NULL
		GROUP BY context_uri
		ORDER BY play_count DESC, context_uri ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, since, models.ContextPlaylist, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist contexts: %w", err)
	}
	defer rows.Close()

	var stats []models.ContextStat
	for rows.Next() {
		var s models.ContextStat
		if err := rows.Scan(&s.ContextURI, &s.PlayCount); err != nil {
			return nil, fmt.Errorf("failed to scan context stat: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return stats, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PlayEvent]
func (r *PlayRepository) scanRow(rows *sql.Rows) (*models.PlayEvent, error) {
	var (
		play                                         models.PlayEvent
		albumID, albumName, contextType, contextURI sql.NullString
	)

	err := rows.Scan(
		&play.ID, &play.PlayedAt, &play.PlayedAtUnix, &play.TrackID, &play.TrackName, &play.ArtistName,
		&albumID, &albumName, &contextType, &contextURI,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan play: %w", err)
	}

	play.AlbumID = text(albumID)
	play.AlbumName = text(albumName)
	play.ContextType = text(contextType)
	play.ContextURI = text(contextURI)

	return &play, nil
}

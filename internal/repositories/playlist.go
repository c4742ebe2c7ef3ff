package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// PlaylistRepository caches playlist display metadata keyed by playlist id.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Upsert inserts the playlist or replaces its name and url.
func (r *PlaylistRepository) Upsert(ctx context.Context, playlist models.PlaylistMeta) error {
	if playlist.PlaylistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO playlists (playlist_id, name, url)
		VALUES (?, ?, ?)
		ON CONFLICT(playlist_id) DO UPDATE SET
			name = excluded.name,
			url = excluded.url
	`

	if _, err := r.db.ExecContext(ctx, query, playlist.PlaylistID, playlist.Name, nullable(playlist.URL)); err != nil {
		return fmt.Errorf("failed to upsert playlist: %w", err)
	}

	return nil
}

// Get retrieves a cached playlist, returning [shared.ErrPlaylistNotFound] on a miss.
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.PlaylistMeta, error) {
	query := `SELECT playlist_id, name, url FROM playlists WHERE playlist_id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// List returns every cached playlist ordered by name.
func (r *PlaylistRepository) List(ctx context.Context) ([]*models.PlaylistMeta, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT playlist_id, name, url FROM playlists ORDER BY name ASC, playlist_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.PlaylistMeta
	for rows.Next() {
		var (
			p   models.PlaylistMeta
			url sql.NullString
		)
		if err := rows.Scan(&p.PlaylistID, &p.Name, &url); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		p.URL = text(url)
		playlists = append(playlists, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// scanOne scans a single row into a [models.PlaylistMeta]
func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.PlaylistMeta, error) {
	var (
		p   models.PlaylistMeta
		url sql.NullString
	)

	err := row.Scan(&p.PlaylistID, &p.Name, &url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	p.URL = text(url)
	return &p, nil
}

// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// MockSource is a test double for [services.Source].
//
// Pages are served in order: the first call to OwnedPlaylists returns Pages[0] and so on.
// PageErrs[i], when set, fails the i-th page instead.
type MockSource struct {
	Recent    []services.PlayItem
	RecentErr error

	Pages    []services.PlaylistPage
	PageErrs map[int]error

	Playlists   map[string]services.PlaylistInfo
	PlaylistErr map[string]error

	RecentCalls []RecentCall
	PageTokens  []string
	FetchedIDs  []string
}

// RecentCall records the arguments of a RecentPlays call.
type RecentCall struct {
	AfterMs int64
	Limit   int
}

func (m *MockSource) RecentPlays(ctx context.Context, afterMs int64, limit int) ([]services.PlayItem, error) {
	m.RecentCalls = append(m.RecentCalls, RecentCall{AfterMs: afterMs, Limit: limit})
	if m.RecentErr != nil {
		return nil, m.RecentErr
	}
	return m.Recent, nil
}

func (m *MockSource) OwnedPlaylists(ctx context.Context, pageToken string) (*services.PlaylistPage, error) {
	i := len(m.PageTokens)
	m.PageTokens = append(m.PageTokens, pageToken)

	if err := m.PageErrs[i]; err != nil {
		return nil, err
	}
	if i >= len(m.Pages) {
		return &services.PlaylistPage{}, nil
	}
	page := m.Pages[i]
	return &page, nil
}

func (m *MockSource) FetchPlaylist(ctx context.Context, id string) (*services.PlaylistInfo, error) {
	m.FetchedIDs = append(m.FetchedIDs, id)
	if err := m.PlaylistErr[id]; err != nil {
		return nil, err
	}
	info, ok := m.Playlists[id]
	if !ok {
		return nil, services.ErrPlaylistUnavailable
	}
	return &info, nil
}

// NewTestDB opens an in-memory database with migrations applied and closes it when the test ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

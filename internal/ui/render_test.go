package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

func TestSummary(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		out := Summary(&models.Summary{
			Tracks:     []models.TopTrack{{TrackID: "t1", Label: "Song — Band", PlayCount: 3}},
			Album:      &models.TopAlbum{AlbumID: "a1", AlbumName: "Record", ArtistName: "Band", PlayCount: 1},
			Playlist:   &models.TopPlaylist{Name: "Mornings", PlayCount: 2},
			WindowDays: 7,
		})

		for _, want := range []string{
			"Top tracks, last 7 days",
			"1. Song — Band",
			"(3 plays)",
			"https://open.spotify.com/track/t1",
			"📀 Record — Band",
			"(1 play)",
			"📂 Mornings",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("missing %q in:\n%s", want, out)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		out := Summary(&models.Summary{WindowDays: 7})
		if !strings.Contains(out, "No plays in the window") {
			t.Errorf("unexpected output: %s", out)
		}
	})
}

func TestProgress(t *testing.T) {
	tc := []struct {
		update tasks.ProgressUpdate
		want   string
	}{
		{tasks.ProgressUpdate{Phase: tasks.FetchRecent, Message: "Fetching plays"}, "Fetching plays"},
		{tasks.ProgressUpdate{Phase: tasks.StorePlays, Step: 2, Total: 5}, "Storing plays (2/5)"},
		{tasks.ProgressUpdate{Phase: tasks.RefreshPlaylists, Step: 3}, "page 3"},
		{tasks.ProgressUpdate{Phase: tasks.ResolvePlaylist, Step: 1, Total: 4}, "Resolving playlist 1/4"},
		{tasks.ProgressUpdate{Phase: tasks.Phase(99)}, "Processing..."},
	}

	for _, tt := range tc {
		t.Run(tt.update.Phase.String(), func(t *testing.T) {
			if got := Progress(tt.update); !strings.Contains(got, tt.want) {
				t.Errorf("Progress() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestStatusLines(t *testing.T) {
	if got := Success("Posted to %s", "bluesky"); !strings.Contains(got, "✓ Posted to bluesky") {
		t.Errorf("unexpected success line %q", got)
	}
	if got := Failure("%s: %v", "mastodon", errors.New("nope")); !strings.Contains(got, "✗ mastodon: nope") {
		t.Errorf("unexpected failure line %q", got)
	}
	if got := Warning("dry run"); !strings.Contains(got, "⚠ dry run") {
		t.Errorf("unexpected warning line %q", got)
	}
}

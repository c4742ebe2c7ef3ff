package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

// Summary renders a summary for the terminal.
func Summary(s *models.Summary) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Top tracks, last %d days", s.WindowDays)))
	b.WriteString("\n")

	if s.Empty() {
		b.WriteString(styles.warn.Render("No plays in the window. Run `nowplaying ingest` first."))
		b.WriteString("\n")
		return b.String()
	}

	for i, t := range s.Tracks {
		b.WriteString(fmt.Sprintf("%s %s %s\n", styles.rank.Render(fmt.Sprintf("%d.", i+1)), t.Label, styles.count.Render(plays(t.PlayCount))))
		b.WriteString(styles.help.Render("   "+t.URL()) + "\n")
	}

	if s.Album != nil {
		b.WriteString(fmt.Sprintf("\n📀 %s %s\n", styles.album.Render(s.Album.Label()), styles.count.Render(plays(s.Album.PlayCount))))
		b.WriteString(styles.help.Render("   "+s.Album.URL()) + "\n")
	}

	if s.Playlist != nil {
		b.WriteString(fmt.Sprintf("\n📂 %s %s\n", styles.playlist.Render(s.Playlist.Name), styles.count.Render(plays(s.Playlist.PlayCount))))
		if s.Playlist.URL != "" {
			b.WriteString(styles.help.Render("   "+s.Playlist.URL) + "\n")
		}
	}

	return b.String()
}

// Progress renders one progress update as a status line.
func Progress(u tasks.ProgressUpdate) string {
	var phase string
	switch u.Phase {
	case tasks.FetchRecent, tasks.RankTracks, tasks.RankAlbum:
		phase = u.Message
	case tasks.StorePlays:
		phase = fmt.Sprintf("Storing plays (%d/%d)", u.Step, u.Total)
	case tasks.RefreshPlaylists:
		phase = fmt.Sprintf("Refreshing playlists (page %d)", u.Step)
	case tasks.ResolvePlaylist:
		phase = fmt.Sprintf("Resolving playlist %d/%d", u.Step, u.Total)
	default:
		phase = "Processing..."
	}
	return styles.help.Render("→ " + phase)
}

// Success renders a check-marked line.
func Success(format string, args ...any) string {
	return styles.ok.Render("✓ " + fmt.Sprintf(format, args...))
}

// Failure renders a cross-marked line.
func Failure(format string, args ...any) string {
	return styles.err.Render("✗ " + fmt.Sprintf(format, args...))
}

// Warning renders a warning line.
func Warning(format string, args ...any) string {
	return styles.warn.Render("⚠ " + fmt.Sprintf(format, args...))
}

func plays(n int) string {
	if n == 1 {
		return "(1 play)"
	}
	return fmt.Sprintf("(%d plays)", n)
}

// package formatter renders weekly summaries and play history (plain text, rich text, Markdown, JSON, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
)

const (
	summaryHeader  = "Top 🎵 This week:"
	albumMarker    = "📀 "
	playlistMarker = "📂 "
)

// Text renders a summary as plain text. URLs are left bare so the receiving platform can linkify them.
func Text(s *models.Summary) string {
	lines := []string{summaryHeader, ""}

	for _, t := range s.Tracks {
		line := fmt.Sprintf("%s %s", t.Label, t.URL())
		line += repeatSuffix(t.PlayCount)
		lines = append(lines, line)
	}

	if s.Album != nil {
		lines = append(lines, "", fmt.Sprintf("%s%s %s", albumMarker, s.Album.Label(), s.Album.URL()))
	}

	if s.Playlist != nil {
		line := playlistMarker + s.Playlist.Name
		if s.Playlist.URL != "" {
			line += " " + s.Playlist.URL
		}
		lines = append(lines, "", line)
	}

	lines = append(lines, "", "#NowPlaying #Music #Spotify")
	return strings.Join(lines, "\n")
}

// Rich renders a summary as text with link facets over each label and tag facets for the hashtags.
func Rich(s *models.Summary) RichText {
	var b richBuilder
	b.text(summaryHeader + "\n\n")

	for _, t := range s.Tracks {
		b.link(t.Label, t.URL())
		b.text(repeatSuffix(t.PlayCount))
		b.text("\n")
	}

	if s.Album != nil {
		b.text("\n" + albumMarker)
		b.link(s.Album.Label(), s.Album.URL())
	}

	if s.Playlist != nil {
		b.text("\n" + playlistMarker)
		if s.Playlist.URL != "" {
			b.link(s.Playlist.Name, s.Playlist.URL)
		} else {
			b.text(s.Playlist.Name)
		}
	}

	b.text("\n\n")
	b.tag("#NowPlaying", "NowPlaying")
	b.text(" ")
	b.tag("#Music", "Music")

	return b.build()
}

// Markdown renders a summary for previews and files.
func Markdown(s *models.Summary) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Top tracks this week\n\n")
	if s.Empty() {
		buf.WriteString(fmt.Sprintf("_No plays in the last %d days._\n", s.WindowDays))
		return buf.Bytes()
	}

	for i, t := range s.Tracks {
		buf.WriteString(fmt.Sprintf("%d. [%s](%s)%s\n", i+1, t.Label, t.URL(), repeatSuffix(t.PlayCount)))
	}

	if s.Album != nil || s.Playlist != nil {
		buf.WriteString("\n")
	}
	if s.Album != nil {
		buf.WriteString(fmt.Sprintf("**Album**: [%s](%s) (%s)\n", s.Album.Label(), s.Album.URL(), plays(s.Album.PlayCount)))
	}
	if s.Playlist != nil {
		name := s.Playlist.Name
		if s.Playlist.URL != "" {
			name = fmt.Sprintf("[%s](%s)", name, s.Playlist.URL)
		}
		buf.WriteString(fmt.Sprintf("**Playlist**: %s (%s)\n", name, plays(s.Playlist.PlayCount)))
	}

	buf.WriteString(fmt.Sprintf("\n_Last %d days, generated %s_\n", s.WindowDays, s.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")))
	return buf.Bytes()
}

// JSON renders a summary as indented JSON.
func JSON(s *models.Summary) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	return append(data, '\n'), nil
}

// AlbumReport lists the top albums and the most recent plays of a window.
func AlbumReport(albums []models.AlbumStat, recent []*models.PlayEvent, windowDays int) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("=== Top Albums (Last %d Days) ===\n\n", windowDays))
	if len(albums) == 0 {
		buf.WriteString("No plays with album info.\n")
	}
	for _, a := range albums {
		buf.WriteString(fmt.Sprintf("%dx %s\n", a.PlayCount, a.AlbumName))
		buf.WriteString(fmt.Sprintf("   Artist: %s\n", a.ArtistName))
		buf.WriteString(fmt.Sprintf("   Album ID: %s\n", a.AlbumID))
		buf.WriteString(fmt.Sprintf("   URL: %s\n\n", models.AlbumURL(a.AlbumID)))
	}

	buf.WriteString("\n=== Recent Plays with Album Info ===\n\n")
	for _, p := range recent {
		album := p.AlbumName
		if album == "" {
			album = "none"
		}
		played := time.Unix(p.PlayedAtUnix, 0).UTC().Format(time.DateTime)
		buf.WriteString(fmt.Sprintf("%s: %s - %s (Album: %s)\n", played, p.TrackName, p.ArtistName, album))
	}

	return buf.Bytes()
}

// PlaysToCSV converts plays to CSV with columns: PlayedAt, TrackID, Track, Artist, AlbumID, Album, Context
func PlaysToCSV(plays []*models.PlayEvent) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"PlayedAt", "PlayedAtUnix", "TrackID", "Track", "Artist", "AlbumID", "Album", "Context"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range plays {
		record := []string{
			p.PlayedAt,
			strconv.FormatInt(p.PlayedAtUnix, 10),
			p.TrackID,
			p.TrackName,
			p.ArtistName,
			p.AlbumID,
			p.AlbumName,
			p.ContextURI,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteExport writes rendered output to path.
//
// Defaults to nowplaying_{date}.{ext} when path is empty.
func WriteExport(data []byte, path, ext string, now time.Time) (string, error) {
	if path == "" {
		path = fmt.Sprintf("nowplaying_%s.%s", now.UTC().Format(time.DateOnly), ext)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func repeatSuffix(n int) string {
	if n > 1 {
		return fmt.Sprintf(" (x%d)", n)
	}
	return ""
}

func plays(n int) string {
	if n == 1 {
		return "1 play"
	}
	return fmt.Sprintf("%d plays", n)
}

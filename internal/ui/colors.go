package ui

import "github.com/charmbracelet/lipgloss"

const (
	spotifyGreen = lipgloss.Color("#1DB954")
	okGreen      = lipgloss.Color("#04B575")
	errRed       = lipgloss.Color("#FF5F56")
	warnOrange   = lipgloss.Color("#FFA500")
	muted        = lipgloss.Color("#626262")
	albumBlue    = lipgloss.Color("#5FAFFF")
	playlistPink = lipgloss.Color("#FF87D7")
)

var styles = newPalette()

// palette holds one style per kind of line the CLI prints.
type palette struct {
	title    lipgloss.Style
	rank     lipgloss.Style
	album    lipgloss.Style
	playlist lipgloss.Style
	ok       lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	help     lipgloss.Style
	count    lipgloss.Style
}

func newPalette() palette {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return palette{
		title:    fg(spotifyGreen).Bold(true).MarginBottom(1),
		rank:     fg(spotifyGreen).Bold(true),
		album:    fg(albumBlue).Bold(true),
		playlist: fg(playlistPink).Bold(true),
		ok:       fg(okGreen).Bold(true),
		err:      fg(errRed).Bold(true),
		warn:     fg(warnOrange),
		help:     fg(muted).Italic(true),
		count:    fg(muted),
	}
}

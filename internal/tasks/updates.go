package tasks

import "fmt"

// ProgressUpdate represents a progress event during a run.
//
// Used to send updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
}

func (u ProgressUpdate) String() string {
	if u.Total > 0 {
		return fmt.Sprintf("[%s %d/%d] %s", u.Phase, u.Step, u.Total, u.Message)
	}
	return fmt.Sprintf("[%s] %s", u.Phase, u.Message)
}

// Operation phase enumeration
type Phase int

const (
	FetchRecent Phase = iota
	StorePlays
	RefreshPlaylists
	RankTracks
	RankAlbum
	ResolvePlaylist
)

func (p Phase) String() string {
	switch p {
	case FetchRecent:
		return "fetch_recent"
	case StorePlays:
		return "store_plays"
	case RefreshPlaylists:
		return "refresh_playlists"
	case RankTracks:
		return "rank_tracks"
	case RankAlbum:
		return "rank_album"
	case ResolvePlaylist:
		return "resolve_playlist"
	default:
		return ""
	}
}

func fetchRecentUpdate(lookbackHours int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRecent,
		Message: fmt.Sprintf("Fetching plays from the last %d hours...", lookbackHours),
	}
}

func storePlaysUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StorePlays,
		Step:    step,
		Total:   total,
		Message: "Storing plays...",
	}
}

func refreshPlaylistsUpdate(page, cached int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RefreshPlaylists,
		Step:    page,
		Message: fmt.Sprintf("Cached %d playlists after page %d", cached, page),
	}
}

func resolvePlaylistUpdate(step, total int, uri string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvePlaylist,
		Step:    step,
		Total:   total,
		Message: "Resolving " + uri,
	}
}

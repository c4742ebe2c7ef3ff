// Package tasks implements the ingestion and ranking engines behind the weekly listening summary.
//
// # Ingestion
//
// [Ingester] pulls the most recent plays from a [services.Source] over a sliding lookback window and
// writes them to a [PlayStore]. The store's (played_at, track_id) constraint makes overlapping runs
// harmless, so the window deliberately exceeds the run interval. [Ingester.RefreshPlaylistCache]
// mirrors the user's own playlists into the [PlaylistCache].
//
// # Ranking
//
// [Ranker] reads the trailing window from the store and produces the top tracks, the top album and
// the most played resolvable playlist. Playlist names come from the cache first and the source on a
// miss; unavailable playlists are skipped rather than failing the run.
//
// # Progress and Metrics
//
// Both engines emit [ProgressUpdate] values on an optional channel without blocking, and count
// inserts, skips and lookups in an optional [Metrics] registry that can be written as a
// Prometheus textfile.
package tasks

// Package models defines the listening-history entities shared by the store, the engines and the renderers.
//
// The package contains three categories of types:
//
// 1. Persistent Entities: rows of the SQLite store
//   - [PlayEvent] : one listen of one track at one instant
//   - [PlaylistMeta] : cached display metadata for a playlist
//
// 2. Aggregates: grouped rows returned by the store for a time window
//   - [TrackStat], [AlbumStat], [ContextStat]
//
// 3. Ranking Results: what the summary renderers consume
//   - [TopTrack], [TopAlbum], [TopPlaylist], collected into a [Summary]
//
// Optional columns are represented as empty strings; the repositories map them to SQL NULL.
package models

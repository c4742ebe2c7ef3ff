// Package services defines the [Source] boundary to the upstream listening-history API and implements it for Spotify.
//
// # Source Interface
//
// The ingestion and ranking engines only see [Source]: recently played items, the user's own playlists
// (paged by an opaque token) and single playlist lookups. Upstream shapes are flattened into [PlayItem]
// and [PlaylistInfo] so the engines stay independent of the client library.
//
// # Spotify Implementation
//
// [SpotifyService] wraps a zmb3/spotify client built on an [oauth2.Config] HTTP client, which refreshes
// expired access tokens with the stored refresh token. Calls are paced by a token-bucket limiter.
//
// # Error Handling
//
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrAPIRequest] : transport or non-2xx failure
//   - [ErrPlaylistUnavailable] : playlist lookup answered 404 or 403
package services

// Package server runs the short-lived HTTP listener that completes the Spotify OAuth flow.
//
// # Router
//
// [BasicRouter] wraps [http.ServeMux] with method filtering and a [Middleware] stack.
// Middleware is applied in reverse order (last added executes first), following the standard Go pattern.
// [Logging] and [Recover] are the two middlewares the callback listener uses.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback. It validates the state parameter, exchanges the
// code for a token through an [Exchanger], and delivers exactly one result. Later requests are rejected.
//
// # Listener
//
// [Listen] binds the address before returning, so the browser can be opened as soon as it succeeds.
// `nowplaying auth spotify` starts one on the host and port of the redirect URI, waits for the callback and
// shuts it down.
package server

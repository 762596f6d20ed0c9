// Package services defines the [Remote] interface the daemon uses to drive the music service
// and implements it for Spotify.
//
// # Remote Interface
//
// Handlers, the bookmark manager and the poll loop each declare the narrow subset of [Remote]
// they call, so tests can substitute small fakes.
//
// # Spotify Implementation
//
// [SpotifyService] wraps the zmb3/spotify client. Authentication uses OAuth2 with automatic
// token refresh; refreshed tokens are handed to a callback so they can be persisted.
// Every request is paced by a [rate.Limiter] installed on the HTTP transport.
//
// # Error Handling
//
// Remote failures are classified onto sentinels from the shared package:
//   - [shared.ErrNotAuthenticated] : no token, or the service answered 401
//   - [shared.ErrRateLimited] : the service answered 429
//   - [shared.ErrNotFound] : the service answered 404
//   - [shared.ErrAPIRequest] : anything else
package services

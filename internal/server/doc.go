// Package server provides the daemon's local HTTP surface: routing, middleware, the OAuth
// callback and the websocket status indicator.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow. It validates the state
// parameter, exchanges the code for a token and sends the result through a channel. Only the
// first callback is processed.
//
// # Server
//
// [Server] binds a router to the configured loopback address for the lifetime of a context.
// `spotkey auth` runs one just long enough to receive the callback; `spotkey run` keeps one up
// for the indicator overlay and for re-authorization.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

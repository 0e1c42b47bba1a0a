// Package server provides HTTP routing, middleware, and the OAuth
// surfaces the playlist manager needs.
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
// OAuthHandler implements the OAuth2 authorization code callback flow
// with PKCE. The handler validates the state parameter (CSRF
// protection), exchanges the authorization code for tokens using the
// code verifier, and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// When the user runs the login command, a temporary HTTP server starts
// on the configured loopback redirect address, handles the callback,
// and shuts down after receiving the OAuth token.
//
// # Token Backend
//
// [TokenHandler] is a small backend for browser-based clients that
// cannot hold the client secret: it forwards authorization codes to the
// account service's token endpoint, attaching the secret server-side,
// and exposes the public client configuration at /config.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

// Package services defines the [Gateway] interface for the remote playlist API and implements it for Spotify.
//
// # Gateway Interface
//
// The sync engine talks to the remote API only through [Gateway], so
// tests and demo mode can substitute a fake without touching the engine.
//
// # Spotify Implementation
//
// [SpotifyGateway] makes raw bearer-authenticated HTTP calls against the
// Web API. Pagination is handled inside the gateway: playlist listing
// follows the response's next cursor URL, track listing advances
// offset/limit pages until a short page signals completion. Callers only
// ever see complete lists.
//
// Requests pass through a [rate.Limiter] so bursts of per-playlist
// fetches stay inside the API's rate budget.
//
// # Token Handling
//
// Gateways never hold a token directly. A [TokenSource] is injected at
// construction; [FileTokenStore] implements it over a JSON token file
// with oauth2 refresh, and Invalidate clears stored credentials after a
// 401.
//
// # Error Handling
//
// Non-2xx responses become a [StatusError], which unwraps to the shared
// sentinels so callers can branch with errors.Is:
//   - [shared.ErrUnauthorized] : HTTP 401, token invalid, credentials must be cleared
//   - [shared.ErrForbidden] : HTTP 403, access not provisioned for this account
//   - [shared.ErrAPIRequest] : any other non-OK status
package services

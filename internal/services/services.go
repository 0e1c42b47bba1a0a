// package services defines the Gateway interface for the remote playlist API
package services

import (
	"context"
	"fmt"

	"github.com/zayatsoff/spm/internal/models"
	"github.com/zayatsoff/spm/internal/shared"
)

// Gateway defines the remote playlist API surface the sync engine consumes.
type Gateway interface {
	// Me retrieves the authenticated user's profile.
	Me(ctx context.Context) (*models.User, error)

	// Playlists retrieves the user's complete playlist list, following
	// pagination until exhausted.
	Playlists(ctx context.Context) ([]models.Playlist, error)

	// PlaylistTracks retrieves a playlist's complete track list, paging
	// until a short page signals completion.
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// AddTracks adds track URIs to a playlist. Callers batch URIs; the
	// API caps a single call at 100.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// RemoveTracks removes track URIs from a playlist.
	RemoveTracks(ctx context.Context, playlistID string, uris []string) error

	// CreatePlaylist creates a playlist for the user and returns it.
	CreatePlaylist(ctx context.Context, userID, name string) (*models.Playlist, error)

	// RenamePlaylist changes a playlist's name.
	RenamePlaylist(ctx context.Context, playlistID, name string) error

	// UnfollowPlaylist removes the playlist from the user's library.
	UnfollowPlaylist(ctx context.Context, playlistID string) error

	// SearchTracks searches the catalog for tracks matching the query.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)
}

// TokenSource supplies bearer tokens for gateway calls. Implementations
// own refresh and storage; Invalidate discards stored credentials after
// the API reports them invalid.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate() error
}

// StatusError reports a non-OK HTTP response from the remote API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Body)
	}

	return fmt.Sprintf("spotify API error: status %d", e.Status)
}

// Unwrap maps the status onto the shared sentinel errors so callers can
// branch with errors.Is.
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case 401:
		return shared.ErrUnauthorized
	case 403:
		return shared.ErrForbidden
	case 404:
		return shared.ErrPlaylistNotFound
	default:
		return shared.ErrAPIRequest
	}
}

// Spotify API implementation of [Gateway]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zayatsoff/spm/internal/models"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// defaultPageSize is the API's maximum page for track listings.
const defaultPageSize = 100

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	PreviewURL string          `json:"preview_url"`
	URI        string          `json:"uri"`
}

// Owner represents a playlist owner.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Owner  Owner               `json:"owner"`
	Tracks simplePlaylistTrack `json:"tracks"`
	Images []SpotifyImage      `json:"images"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of playlist tracks.
type SpotifyPaginatedTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
}

// SpotifyGateway implements [Gateway] against the Spotify Web API with
// raw HTTP calls. A [rate.Limiter] paces requests so concurrent
// per-playlist fetches stay inside the API's rate budget.
type SpotifyGateway struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	pageSize   int
}

// NewSpotifyGateway creates a gateway. An empty baseURL targets the
// production API; rps bounds requests per second (0 disables limiting);
// pageSize caps track pagination requests at the API maximum of 100.
func NewSpotifyGateway(baseURL string, tokens TokenSource, client *http.Client, rps float64, pageSize int) *SpotifyGateway {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}

	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &SpotifyGateway{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: client,
		limiter:    limiter,
		pageSize:   pageSize,
	}
}

// maxRetryAfterAttempts bounds how many 429 responses a single request
// will wait out before surfacing the error.
const maxRetryAfterAttempts = 2

// maxRetryAfterWait caps the honored Retry-After delay.
const maxRetryAfterWait = 30 * time.Second

// doRequest performs an authenticated HTTP request. endpoint may be a
// path relative to the base URL or an absolute URL (pagination cursors
// come back absolute). A 429 response is retried after the server's
// Retry-After delay, capped by [maxRetryAfterWait].
func (g *SpotifyGateway) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	token, err := g.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain token: %w", err)
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		apiURL = g.baseURL + endpoint
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetryAfterAttempts {
			resp.Body.Close()
			if err := waitContext(ctx, retryAfter(resp.Header)); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				resp.Body.Close()
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}

		resp.Body.Close()
		return nil
	}
}

// retryAfter parses the Retry-After header in seconds, defaulting to
// one second when absent or malformed.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs < 1 {
		return time.Second
	}

	wait := time.Duration(secs) * time.Second
	if wait > maxRetryAfterWait {
		return maxRetryAfterWait
	}
	return wait
}

func waitContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Me retrieves the current authenticated user's profile.
func (g *SpotifyGateway) Me(ctx context.Context) (*models.User, error) {
	var user SpotifyUser
	if err := g.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}

	return &models.User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
	}, nil
}

// Playlists retrieves all of the user's playlists, following the next
// cursor URL until the listing is exhausted.
func (g *SpotifyGateway) Playlists(ctx context.Context) ([]models.Playlist, error) {
	playlists := []models.Playlist{}
	endpoint := fmt.Sprintf("/me/playlists?limit=%d", 50)

	for endpoint != "" {
		var page SpotifyPaginatedPlaylists
		if err := g.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			playlists = append(playlists, mapPlaylist(sp))
		}

		if page.Next == nil {
			break
		}
		endpoint = *page.Next
	}

	return playlists, nil
}

// PlaylistTracks retrieves a playlist's full track list, advancing
// offset pages until a short page signals completion. Only the complete
// concatenation is returned, never a partial page.
func (g *SpotifyGateway) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	tracks := []models.Track{}
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, g.pageSize, offset)

		var page SpotifyPaginatedTracks
		if err := g.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track.ID == "" {
				continue
			}
			tracks = append(tracks, mapTrack(item.Track))
		}

		if len(page.Items) < g.pageSize {
			break
		}
		offset += g.pageSize
	}

	return tracks, nil
}

// AddTracks adds track URIs to a playlist in a single call.
func (g *SpotifyGateway) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	body := map[string]any{"uris": uris}

	return g.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

// RemoveTracks removes track URIs from a playlist in a single call.
func (g *SpotifyGateway) RemoveTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}

	items := make([]map[string]string, 0, len(uris))
	for _, uri := range uris {
		items = append(items, map[string]string{"uri": uri})
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	body := map[string]any{"tracks": items}

	return g.doRequest(ctx, http.MethodDelete, endpoint, body, nil)
}

// CreatePlaylist creates a private playlist for the user.
func (g *SpotifyGateway) CreatePlaylist(ctx context.Context, userID, name string) (*models.Playlist, error) {
	endpoint := fmt.Sprintf("/users/%s/playlists", userID)
	body := map[string]any{"name": name, "public": false}

	var created SpotifySimplePlaylist
	if err := g.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	playlist := mapPlaylist(created)

	return &playlist, nil
}

// RenamePlaylist changes a playlist's name.
func (g *SpotifyGateway) RenamePlaylist(ctx context.Context, playlistID, name string) error {
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	body := map[string]any{"name": name}

	return g.doRequest(ctx, http.MethodPut, endpoint, body, nil)
}

// UnfollowPlaylist removes the playlist from the user's library. The API
// has no hard delete; unfollowing is how a playlist is removed.
func (g *SpotifyGateway) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/followers", playlistID)

	return g.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// SearchTracks searches the catalog for tracks matching the query.
func (g *SpotifyGateway) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}

	if err := g.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, st := range response.Tracks.Items {
		tracks = append(tracks, mapTrack(st))
	}

	return tracks, nil
}

func mapPlaylist(sp SpotifySimplePlaylist) models.Playlist {
	images := make([]models.Image, 0, len(sp.Images))
	for _, img := range sp.Images {
		images = append(images, models.Image{URL: img.URL, Height: img.Height, Width: img.Width})
	}

	return models.Playlist{
		ID:         sp.ID,
		Name:       sp.Name,
		Images:     images,
		OwnerID:    sp.Owner.ID,
		TrackCount: sp.Tracks.Total,
	}
}

func mapTrack(st SpotifyTrack) models.Track {
	artists := make([]models.Artist, 0, len(st.Artists))
	for _, a := range st.Artists {
		artists = append(artists, models.Artist{ID: a.ID, Name: a.Name})
	}

	albumImage := ""
	if len(st.Album.Images) > 0 {
		albumImage = st.Album.Images[0].URL
	}

	return models.Track{
		ID:            st.ID,
		Name:          st.Name,
		Artists:       artists,
		AlbumImageURL: albumImage,
		PreviewURL:    st.PreviewURL,
	}
}

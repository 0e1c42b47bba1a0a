// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/zayatsoff/spm/internal/models"
)

// FakeGateway is a configurable test double for services.Gateway. Each
// operation can be scripted with a function; unscripted operations
// succeed with zero values. Calls records every invocation for
// assertions.
type FakeGateway struct {
	mu    sync.Mutex
	Calls []string

	MeFunc             func(ctx context.Context) (*models.User, error)
	PlaylistsFunc      func(ctx context.Context) ([]models.Playlist, error)
	PlaylistTracksFunc func(ctx context.Context, playlistID string) ([]models.Track, error)
	AddTracksFunc      func(ctx context.Context, playlistID string, uris []string) error
	RemoveTracksFunc   func(ctx context.Context, playlistID string, uris []string) error
	CreatePlaylistFunc func(ctx context.Context, userID, name string) (*models.Playlist, error)
	RenameFunc         func(ctx context.Context, playlistID, name string) error
	UnfollowFunc       func(ctx context.Context, playlistID string) error
	SearchFunc         func(ctx context.Context, query string, limit int) ([]models.Track, error)
}

func (f *FakeGateway) recordCall(format string, args ...any) {
	f.mu.Lock()
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
	f.mu.Unlock()
}

// CallCount returns how many recorded calls start with the given prefix.
func (f *FakeGateway) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, c := range f.Calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			count++
		}
	}

	return count
}

func (f *FakeGateway) Me(ctx context.Context) (*models.User, error) {
	f.recordCall("Me")
	if f.MeFunc != nil {
		return f.MeFunc(ctx)
	}
	return &models.User{ID: "test-user", DisplayName: "Test User"}, nil
}

func (f *FakeGateway) Playlists(ctx context.Context) ([]models.Playlist, error) {
	f.recordCall("Playlists")
	if f.PlaylistsFunc != nil {
		return f.PlaylistsFunc(ctx)
	}
	return []models.Playlist{}, nil
}

func (f *FakeGateway) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	f.recordCall("PlaylistTracks(%s)", playlistID)
	if f.PlaylistTracksFunc != nil {
		return f.PlaylistTracksFunc(ctx, playlistID)
	}
	return []models.Track{}, nil
}

func (f *FakeGateway) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	f.recordCall("AddTracks(%s,%d)", playlistID, len(uris))
	if f.AddTracksFunc != nil {
		return f.AddTracksFunc(ctx, playlistID, uris)
	}
	return nil
}

func (f *FakeGateway) RemoveTracks(ctx context.Context, playlistID string, uris []string) error {
	f.recordCall("RemoveTracks(%s,%d)", playlistID, len(uris))
	if f.RemoveTracksFunc != nil {
		return f.RemoveTracksFunc(ctx, playlistID, uris)
	}
	return nil
}

func (f *FakeGateway) CreatePlaylist(ctx context.Context, userID, name string) (*models.Playlist, error) {
	f.recordCall("CreatePlaylist(%s,%s)", userID, name)
	if f.CreatePlaylistFunc != nil {
		return f.CreatePlaylistFunc(ctx, userID, name)
	}
	return &models.Playlist{ID: "created-" + name, Name: name, OwnerID: userID}, nil
}

func (f *FakeGateway) RenamePlaylist(ctx context.Context, playlistID, name string) error {
	f.recordCall("RenamePlaylist(%s,%s)", playlistID, name)
	if f.RenameFunc != nil {
		return f.RenameFunc(ctx, playlistID, name)
	}
	return nil
}

func (f *FakeGateway) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	f.recordCall("UnfollowPlaylist(%s)", playlistID)
	if f.UnfollowFunc != nil {
		return f.UnfollowFunc(ctx, playlistID)
	}
	return nil
}

func (f *FakeGateway) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	f.recordCall("SearchTracks(%s)", query)
	if f.SearchFunc != nil {
		return f.SearchFunc(ctx, query, limit)
	}
	return []models.Track{}, nil
}

// FakeTokenSource is a test double for services.TokenSource that tracks
// invalidation.
type FakeTokenSource struct {
	AccessToken string
	Err         error
	Invalidated bool
}

func (f *FakeTokenSource) Token(ctx context.Context) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.AccessToken, nil
}

func (f *FakeTokenSource) Invalidate() error {
	f.Invalidated = true
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

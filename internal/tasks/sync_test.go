package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/zayatsoff/spm/internal/models"
	"github.com/zayatsoff/spm/internal/repositories"
	"github.com/zayatsoff/spm/internal/services"
	"github.com/zayatsoff/spm/internal/shared"
	"github.com/zayatsoff/spm/internal/store"
	testhelpers "github.com/zayatsoff/spm/internal/testing"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newTestEngine(t *testing.T, gateway *testhelpers.FakeGateway, tokens services.TokenSource) (*Engine, *repositories.SessionCache) {
	t.Helper()

	db := setupTestDB(t)
	cache := repositories.NewSessionCache(repositories.NewCacheRepository(db), "test-session")

	engine := NewEngine(EngineOpts{
		Gateway:   gateway,
		Tokens:    tokens,
		Cache:     cache,
		History:   repositories.NewHistoryRepository(db),
		UndoDepth: 50,
		BatchSize: 100,
		Logger:    shared.NewLogger(io.Discard),
	})

	return engine, cache
}

func testPlaylists() []models.Playlist {
	return []models.Playlist{
		{ID: "p1", Name: "First", OwnerID: "test-user", TrackCount: 2},
		{ID: "p2", Name: "Second", OwnerID: "test-user", TrackCount: 1},
	}
}

func testTracks(prefix string, n int) []models.Track {
	tracks := make([]models.Track, 0, n)
	for i := range n {
		tracks = append(tracks, models.Track{
			ID:      fmt.Sprintf("%s%d", prefix, i),
			Name:    fmt.Sprintf("Track %s%d", prefix, i),
			Artists: []models.Artist{{Name: "Artist"}},
		})
	}
	return tracks
}

func TestEngineLoadPlaylists(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches remotely and caches on a cold cache", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return testPlaylists(), nil
			},
		}
		engine, cache := newTestEngine(t, gateway, &testhelpers.FakeTokenSource{AccessToken: "tok"})

		if err := engine.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("failed to load playlists: %v", err)
		}

		state := engine.Store().State()
		if len(state.Playlists) != 2 {
			t.Errorf("expected 2 playlists in store, got %d", len(state.Playlists))
		}
		if cached, ok := cache.Playlists(); !ok || len(cached) != 2 {
			t.Errorf("expected playlists cached, got ok=%v len=%d", ok, len(cached))
		}
	})

	t.Run("cache hit short-circuits the remote call", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				t.Error("remote call should not happen on cache hit")
				return nil, nil
			},
		}
		engine, cache := newTestEngine(t, gateway, &testhelpers.FakeTokenSource{AccessToken: "tok"})

		if err := cache.SetPlaylists(testPlaylists()); err != nil {
			t.Fatalf("failed to seed cache: %v", err)
		}

		if err := engine.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("failed to load playlists: %v", err)
		}

		if gateway.CallCount("Playlists") != 0 {
			t.Errorf("expected no remote calls, got %v", gateway.Calls)
		}
		if len(engine.Store().State().Playlists) != 2 {
			t.Error("expected cached playlists dispatched")
		}
	})

	t.Run("403 switches to demo mode with the sample dataset and a one-time notice", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return nil, &services.StatusError{Status: 403}
			},
		}
		engine, _ := newTestEngine(t, gateway, &testhelpers.FakeTokenSource{AccessToken: "tok"})

		if err := engine.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("expected fallback, not error: %v", err)
		}

		if engine.Mode() != Demo {
			t.Errorf("expected demo mode, got %s", engine.Mode())
		}

		state := engine.Store().State()
		wantNames := []string{"Today's Top Hits", "RapCaviar", "Rock Classics", "lofi beats"}
		if len(state.Playlists) != len(wantNames) {
			t.Fatalf("expected %d sample playlists, got %d", len(wantNames), len(state.Playlists))
		}
		for i, name := range wantNames {
			if state.Playlists[i].Name != name {
				t.Errorf("expected playlist %d to be %q, got %q", i, name, state.Playlists[i].Name)
			}
		}

		if _, ok := engine.Notice(); !ok {
			t.Error("expected a one-time notice")
		}
		if _, ok := engine.Notice(); ok {
			t.Error("expected notice to be consumed on first read")
		}
	})

	t.Run("401 clears credentials and surfaces the error", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return nil, &services.StatusError{Status: 401}
			},
		}
		tokens := &testhelpers.FakeTokenSource{AccessToken: "tok"}
		engine, _ := newTestEngine(t, gateway, tokens)

		err := engine.LoadPlaylists(ctx, nil)
		if !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
		if !tokens.Invalidated {
			t.Error("expected stored credentials cleared")
		}
		if engine.Mode() != Live {
			t.Error("expected mode unchanged on auth failure")
		}
	})

	t.Run("transient failure falls back to sample data without leaving live mode", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return nil, errors.New("connection reset")
			},
		}
		engine, _ := newTestEngine(t, gateway, &testhelpers.FakeTokenSource{AccessToken: "tok"})

		if err := engine.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("expected fallback, not error: %v", err)
		}
		if engine.Mode() != Live {
			t.Error("expected live mode retained on transient failure")
		}
		if len(engine.Store().State().Playlists) != 4 {
			t.Error("expected sample playlists dispatched")
		}
	})
}

func TestEngineEnsureTracks(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches once and dispatches a single complete list", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return testPlaylists(), nil
			},
			PlaylistTracksFunc: func(ctx context.Context, playlistID string) ([]models.Track, error) {
				return testTracks("a", 5), nil
			},
		}
		engine, cache := newTestEngine(t, gateway, &testhelpers.FakeTokenSource{AccessToken: "tok"})

		if err := engine.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("failed to load playlists: %v", err)
		}
		if err := engine.SelectPlaylist(ctx, "p1", nil); err != nil {
			t.Fatalf("failed to select playlist: %v", err)
		}

		state := engine.Store().State()
		if got := len(state.Tracks["p1"].Tracks); got != 5 {
			t.Errorf("expected 5 tracks, got %d", got)
		}
		if state.LoadState("p1") != store.Loaded {
			t.Errorf("expected Loaded, got %v", state.LoadState("p1"))
		}
		if list, ok := cache.Tracks("p1"); !ok || len(list.Tracks) != 5 {
			t.Error("expected tracks cached after fetch")
		}

		// Second call is a no-op, not a refetch.
		if err := engine.EnsureTracks(ctx, "p1", nil); err != nil {
			t.Fatalf("unexpected error on loaded playlist: %v", err)
		}
		if gateway.CallCount("PlaylistTracks") != 1 {
			t.Errorf("expected a single fetch, got %v", gateway.Calls)
		}
	})

	t.Run("cache hit dispatches without touching the network", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return testPlaylists(), nil
			},
			PlaylistTracksFunc: func(ctx context.Context, playlistID string) ([]models.Track, error) {
				t.Error("remote call should not happen on cache hit")
				return nil, nil
			},
		}
		engine, cache := newTestEngine(t, gateway, &testhelpers.FakeTokenSource{AccessToken: "tok"})

		if err := engine.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("failed to load playlists: %v", err)
		}
		if err := cache.SetTracks("p1", models.NewTrackList(testTracks("c", 3))); err != nil {
			t.Fatalf("failed to seed cache: %v", err)
		}

		if err := engine.SelectPlaylist(ctx, "p1", nil); err != nil {
			t.Fatalf("failed to select playlist: %v", err)
		}

		if got := len(engine.Store().State().Tracks["p1"].Tracks); got != 3 {
			t.Errorf("expected cached tracks dispatched, got %d", got)
		}
	})

	t.Run("refuses a re-entrant fetch while loading", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return testPlaylists(), nil
			},
		}
		engine, _ := newTestEngine(t, gateway, &testhelpers.FakeTokenSource{AccessToken: "tok"})

		if err := engine.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("failed to load playlists: %v", err)
		}

		engine.Store().Dispatch(store.MarkTracksLoading{PlaylistID: "p1"})

		if err := engine.EnsureTracks(ctx, "p1", nil); !errors.Is(err, shared.ErrFetchInFlight) {
			t.Errorf("expected ErrFetchInFlight, got %v", err)
		}
	})

	t.Run("fetch failure lands in the fallback terminal state and is not cached", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return testPlaylists(), nil
			},
			PlaylistTracksFunc: func(ctx context.Context, playlistID string) ([]models.Track, error) {
				return nil, errors.New("boom")
			},
		}
		engine, cache := newTestEngine(t, gateway, &testhelpers.FakeTokenSource{AccessToken: "tok"})

		if err := engine.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("failed to load playlists: %v", err)
		}
		if err := engine.EnsureTracks(ctx, "p1", nil); err != nil {
			t.Fatalf("expected fallback, not error: %v", err)
		}

		state := engine.Store().State()
		if state.LoadState("p1") != store.FailedFallback {
			t.Errorf("expected FailedFallback, got %v", state.LoadState("p1"))
		}
		if _, ok := cache.Tracks("p1"); ok {
			t.Error("expected failed list kept out of the cache")
		}
	})
}

func TestEngineToggleTrack(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, gateway *testhelpers.FakeGateway) (*Engine, *repositories.SessionCache) {
		t.Helper()

		if gateway.PlaylistsFunc == nil {
			gateway.PlaylistsFunc = func(ctx context.Context) ([]models.Playlist, error) {
				return testPlaylists(), nil
			}
		}
		if gateway.PlaylistTracksFunc == nil {
			gateway.PlaylistTracksFunc = func(ctx context.Context, playlistID string) ([]models.Track, error) {
				return testTracks("a", 2), nil
			}
		}

		engine, cache := newTestEngine(t, gateway, &testhelpers.FakeTokenSource{AccessToken: "tok"})
		if err := engine.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("failed to load playlists: %v", err)
		}
		if err := engine.SelectPlaylist(ctx, "p1", nil); err != nil {
			t.Fatalf("failed to select playlist: %v", err)
		}

		return engine, cache
	}

	t.Run("adds an absent track optimistically and records undo", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{}
		engine, cache := seed(t, gateway)

		track := models.Track{ID: "new", Name: "New Track"}
		if err := engine.ToggleTrack(ctx, "p1", track); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}

		state := engine.Store().State()
		if got := len(state.Tracks["p1"].Tracks); got != 3 {
			t.Errorf("expected 3 tracks after add, got %d", got)
		}
		if gateway.CallCount("AddTracks") != 1 {
			t.Errorf("expected one remote add, got %v", gateway.Calls)
		}
		if engine.UndoDepth() != 1 {
			t.Errorf("expected one undo entry, got %d", engine.UndoDepth())
		}
		if list, ok := cache.Tracks("p1"); !ok || len(list.Tracks) != 3 {
			t.Error("expected cache refreshed after confirmed mutation")
		}
	})

	t.Run("removes a present track", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{}
		engine, _ := seed(t, gateway)

		if err := engine.ToggleTrack(ctx, "p1", models.Track{ID: "a0", Name: "Track a0"}); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}

		if got := len(engine.Store().State().Tracks["p1"].Tracks); got != 1 {
			t.Errorf("expected 1 track after remove, got %d", got)
		}
		if gateway.CallCount("RemoveTracks") != 1 {
			t.Errorf("expected one remote remove, got %v", gateway.Calls)
		}
	})

	t.Run("remote failure rolls the optimistic add back", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{
			AddTracksFunc: func(ctx context.Context, playlistID string, uris []string) error {
				return errors.New("boom")
			},
		}
		engine, _ := seed(t, gateway)

		before := engine.Store().State().Tracks["p1"]

		err := engine.ToggleTrack(ctx, "p1", models.Track{ID: "new", Name: "New Track"})
		if err == nil {
			t.Fatal("expected toggle to fail")
		}

		after := engine.Store().State().Tracks["p1"]
		if len(after.Tracks) != len(before.Tracks) {
			t.Errorf("expected rollback to %d tracks, got %d", len(before.Tracks), len(after.Tracks))
		}
		if engine.UndoDepth() != 0 {
			t.Error("expected no undo entry for a failed mutation")
		}
	})

	t.Run("concurrent toggle on the same pair is refused", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		gateway := &testhelpers.FakeGateway{
			AddTracksFunc: func(ctx context.Context, playlistID string, uris []string) error {
				close(started)
				<-release
				return nil
			},
		}
		engine, _ := seed(t, gateway)

		done := make(chan error, 1)
		go func() {
			done <- engine.ToggleTrack(ctx, "p1", models.Track{ID: "new", Name: "New Track"})
		}()

		<-started
		err := engine.ToggleTrack(ctx, "p1", models.Track{ID: "new", Name: "New Track"})
		close(release)

		if !errors.Is(err, shared.ErrMutationInFlight) {
			t.Errorf("expected ErrMutationInFlight, got %v", err)
		}
		if err := <-done; err != nil {
			t.Errorf("first toggle should succeed: %v", err)
		}
	})
}

func TestEngineUndo(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, gateway *testhelpers.FakeGateway) *Engine {
		t.Helper()

		gateway.PlaylistsFunc = func(ctx context.Context) ([]models.Playlist, error) {
			return testPlaylists(), nil
		}
		gateway.PlaylistTracksFunc = func(ctx context.Context, playlistID string) ([]models.Track, error) {
			return testTracks("a", 2), nil
		}

		engine, _ := newTestEngine(t, gateway, &testhelpers.FakeTokenSource{AccessToken: "tok"})
		if err := engine.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("failed to load playlists: %v", err)
		}
		if err := engine.SelectPlaylist(ctx, "p1", nil); err != nil {
			t.Fatalf("failed to select playlist: %v", err)
		}

		return engine
	}

	t.Run("reverts exactly the most recent mutation", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{}
		engine := seed(t, gateway)

		first := models.Track{ID: "x1", Name: "X1"}
		second := models.Track{ID: "x2", Name: "X2"}
		if err := engine.ToggleTrack(ctx, "p1", first); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if err := engine.ToggleTrack(ctx, "p1", second); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}

		if err := engine.Undo(ctx); err != nil {
			t.Fatalf("undo failed: %v", err)
		}

		tracks := engine.Store().State().Tracks["p1"].Tracks
		hasFirst, hasSecond := false, false
		for _, tr := range tracks {
			if tr.ID == "x1" {
				hasFirst = true
			}
			if tr.ID == "x2" {
				hasSecond = true
			}
		}
		if !hasFirst || hasSecond {
			t.Errorf("expected only the last add reverted, got first=%v second=%v", hasFirst, hasSecond)
		}
		if gateway.CallCount("RemoveTracks") != 1 {
			t.Errorf("expected inverse remote call, got %v", gateway.Calls)
		}
	})

	t.Run("empty stack returns ErrNothingToUndo", func(t *testing.T) {
		engine := seed(t, &testhelpers.FakeGateway{})

		if err := engine.Undo(ctx); !errors.Is(err, shared.ErrNothingToUndo) {
			t.Errorf("expected ErrNothingToUndo, got %v", err)
		}
	})

	t.Run("failed inverse call restores the entry to the stack", func(t *testing.T) {
		gateway := &testhelpers.FakeGateway{
			RemoveTracksFunc: func(ctx context.Context, playlistID string, uris []string) error {
				return errors.New("boom")
			},
		}
		engine := seed(t, gateway)

		if err := engine.ToggleTrack(ctx, "p1", models.Track{ID: "x1", Name: "X1"}); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}

		if err := engine.Undo(ctx); err == nil {
			t.Fatal("expected undo to fail")
		}
		if engine.UndoDepth() != 1 {
			t.Errorf("expected entry restored, depth=%d", engine.UndoDepth())
		}

		// The optimistic removal must have been rolled back too.
		tracks := engine.Store().State().Tracks["p1"].Tracks
		found := false
		for _, tr := range tracks {
			if tr.ID == "x1" {
				found = true
			}
		}
		if !found {
			t.Error("expected track still present after failed undo")
		}
	})
}

func TestEngineMergeAndDuplicate(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, gateway *testhelpers.FakeGateway, batchSize int) *Engine {
		t.Helper()

		db := setupTestDB(t)
		cache := repositories.NewSessionCache(repositories.NewCacheRepository(db), "test-session")

		engine := NewEngine(EngineOpts{
			Gateway:   gateway,
			Tokens:    &testhelpers.FakeTokenSource{AccessToken: "tok"},
			Cache:     cache,
			History:   repositories.NewHistoryRepository(db),
			BatchSize: batchSize,
			Logger:    shared.NewLogger(io.Discard),
		})

		if err := engine.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("failed to load playlists: %v", err)
		}

		return engine
	}

	t.Run("merge submits the deduplicated union in sequential batches", func(t *testing.T) {
		shared5 := testTracks("s", 5)
		batches := [][]string{}

		gateway := &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return testPlaylists(), nil
			},
			PlaylistTracksFunc: func(ctx context.Context, playlistID string) ([]models.Track, error) {
				if playlistID == "p1" {
					return append(testTracks("a", 8), shared5...), nil
				}
				return append(shared5, testTracks("b", 7)...), nil
			},
			AddTracksFunc: func(ctx context.Context, playlistID string, uris []string) error {
				if playlistID == "merged-id" {
					batches = append(batches, uris)
				}
				return nil
			},
			CreatePlaylistFunc: func(ctx context.Context, userID, name string) (*models.Playlist, error) {
				return &models.Playlist{ID: "merged-id", Name: name, OwnerID: userID}, nil
			},
		}

		engine := seed(t, gateway, 10)
		if err := engine.SelectPlaylist(ctx, "p1", nil); err != nil {
			t.Fatalf("failed to select: %v", err)
		}
		if err := engine.SelectPlaylist(ctx, "p2", nil); err != nil {
			t.Fatalf("failed to select: %v", err)
		}

		result, err := engine.Merge(ctx, "Merged", nil)
		if err != nil {
			t.Fatalf("merge failed: %v", err)
		}

		// 8 + 5 shared + 7 unique = 20 unique tracks, batch size 10.
		if result.TracksAdded != 20 {
			t.Errorf("expected 20 unique tracks submitted, got %d", result.TracksAdded)
		}
		if len(batches) != 2 || len(batches[0]) != 10 || len(batches[1]) != 10 {
			t.Errorf("expected two batches of 10, got %d batches", len(batches))
		}
		if !result.Complete() {
			t.Errorf("expected complete result, got %v", result.Err)
		}

		state := engine.Store().State()
		if _, ok := state.Playlist("merged-id"); !ok {
			t.Error("expected merged playlist in the store")
		}
	})

	t.Run("merge with nothing selected is refused", func(t *testing.T) {
		engine := seed(t, &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return testPlaylists(), nil
			},
		}, 100)

		if _, err := engine.Merge(ctx, "Merged", nil); !errors.Is(err, shared.ErrNoSelection) {
			t.Errorf("expected ErrNoSelection, got %v", err)
		}
	})

	t.Run("a failed batch leaves the playlist partial and surfaces counts", func(t *testing.T) {
		calls := 0
		gateway := &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return testPlaylists(), nil
			},
			PlaylistTracksFunc: func(ctx context.Context, playlistID string) ([]models.Track, error) {
				return testTracks("a", 25), nil
			},
			AddTracksFunc: func(ctx context.Context, playlistID string, uris []string) error {
				calls++
				if calls == 2 {
					return errors.New("boom")
				}
				return nil
			},
		}

		engine := seed(t, gateway, 10)
		if err := engine.SelectPlaylist(ctx, "p1", nil); err != nil {
			t.Fatalf("failed to select: %v", err)
		}

		result, err := engine.Merge(ctx, "Merged", nil)
		if err != nil {
			t.Fatalf("best-effort merge should not error: %v", err)
		}

		if result.Complete() {
			t.Error("expected incomplete result")
		}
		if result.BatchesDone != 1 || result.BatchesTotal != 3 {
			t.Errorf("expected 1/3 batches done, got %d/%d", result.BatchesDone, result.BatchesTotal)
		}
		if result.TracksAdded != 10 {
			t.Errorf("expected 10 tracks added before failure, got %d", result.TracksAdded)
		}
	})

	t.Run("duplicate copies a single playlist under a (Copy) name", func(t *testing.T) {
		var createdName string
		gateway := &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return testPlaylists(), nil
			},
			PlaylistTracksFunc: func(ctx context.Context, playlistID string) ([]models.Track, error) {
				return testTracks("a", 3), nil
			},
			CreatePlaylistFunc: func(ctx context.Context, userID, name string) (*models.Playlist, error) {
				createdName = name
				return &models.Playlist{ID: "copy-id", Name: name, OwnerID: userID}, nil
			},
		}

		engine := seed(t, gateway, 100)

		result, err := engine.Duplicate(ctx, "p1", nil)
		if err != nil {
			t.Fatalf("duplicate failed: %v", err)
		}

		if createdName != "First (Copy)" {
			t.Errorf("expected copy suffix, got %q", createdName)
		}
		if result.TracksAdded != 3 {
			t.Errorf("expected 3 tracks copied, got %d", result.TracksAdded)
		}
	})
}

func TestEngineDemoMode(t *testing.T) {
	ctx := context.Background()

	newDemoEngine := func(t *testing.T) (*Engine, *testhelpers.FakeGateway) {
		t.Helper()

		gateway := &testhelpers.FakeGateway{}
		engine := NewEngine(EngineOpts{
			Gateway: gateway,
			Mode:    Demo,
			Logger:  shared.NewLogger(io.Discard),
		})

		if err := engine.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("failed to load playlists: %v", err)
		}

		return engine, gateway
	}

	t.Run("serves sample data without remote calls", func(t *testing.T) {
		engine, gateway := newDemoEngine(t)

		state := engine.Store().State()
		if len(state.Playlists) != 4 {
			t.Fatalf("expected 4 sample playlists, got %d", len(state.Playlists))
		}

		if err := engine.SelectPlaylist(ctx, state.Playlists[0].ID, nil); err != nil {
			t.Fatalf("failed to select: %v", err)
		}

		if got := len(engine.Store().State().Tracks[state.Playlists[0].ID].Tracks); got != 6 {
			t.Errorf("expected 6 sample tracks, got %d", got)
		}
		if len(gateway.Calls) != 0 {
			t.Errorf("expected no remote calls in demo mode, got %v", gateway.Calls)
		}
	})

	t.Run("mutations are simulated locally", func(t *testing.T) {
		engine, gateway := newDemoEngine(t)

		pid := engine.Store().State().Playlists[0].ID
		if err := engine.SelectPlaylist(ctx, pid, nil); err != nil {
			t.Fatalf("failed to select: %v", err)
		}

		if err := engine.ToggleTrack(ctx, pid, models.Track{ID: "demo-new", Name: "Demo"}); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if got := len(engine.Store().State().Tracks[pid].Tracks); got != 7 {
			t.Errorf("expected local add, got %d tracks", got)
		}

		result, err := engine.Merge(ctx, "Demo Merge", nil)
		if err != nil {
			t.Fatalf("demo merge failed: %v", err)
		}
		if !result.Complete() || result.TracksAdded != 7 {
			t.Errorf("expected simulated merge of 7 tracks, got %+v", result)
		}

		if len(gateway.Calls) != 0 {
			t.Errorf("expected no remote calls in demo mode, got %v", gateway.Calls)
		}
	})

	t.Run("demo mutations never touch the session cache", func(t *testing.T) {
		db := setupTestDB(t)
		cache := repositories.NewSessionCache(repositories.NewCacheRepository(db), "shared-session")

		demo := NewEngine(EngineOpts{
			Gateway: &testhelpers.FakeGateway{},
			Cache:   cache,
			Mode:    Demo,
			Logger:  shared.NewLogger(io.Discard),
		})
		if err := demo.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("failed to load playlists: %v", err)
		}
		pid := demo.Store().State().Playlists[0].ID
		if err := demo.SelectPlaylist(ctx, pid, nil); err != nil {
			t.Fatalf("failed to select: %v", err)
		}
		if err := demo.ToggleTrack(ctx, pid, models.Track{ID: "demo-new", Name: "Demo"}); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		if _, err := demo.Merge(ctx, "Demo Merge", nil); err != nil {
			t.Fatalf("demo merge failed: %v", err)
		}

		if _, ok := cache.Playlists(); ok {
			t.Fatal("expected no cached playlists after demo mutations")
		}
		if _, ok := cache.Tracks(pid); ok {
			t.Fatal("expected no cached tracks after demo mutations")
		}

		gateway := &testhelpers.FakeGateway{
			PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return testPlaylists(), nil
			},
		}
		live := NewEngine(EngineOpts{
			Gateway: gateway,
			Cache:   cache,
			Logger:  shared.NewLogger(io.Discard),
		})
		if err := live.LoadPlaylists(ctx, nil); err != nil {
			t.Fatalf("failed to load playlists: %v", err)
		}

		if gateway.CallCount("Playlists") != 1 {
			t.Errorf("expected the live session to fetch remotely, got %d calls", gateway.CallCount("Playlists"))
		}
		if got := len(live.Store().State().Playlists); got != 2 {
			t.Errorf("expected 2 live playlists, got %d", got)
		}
	})

	t.Run("search scans the sample dataset", func(t *testing.T) {
		engine, _ := newDemoEngine(t)

		results, err := engine.Search(ctx, "weeknd", 10)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("expected 2 sample matches for weeknd, got %d", len(results))
		}
	})
}

package repositories

import (
	"database/sql"
	"testing"

	"github.com/zayatsoff/spm/internal/models"
	"github.com/zayatsoff/spm/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestCacheRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCacheRepository(db)
		entry := models.NewCacheEntry(0, "session-1", "cachedPlaylists", `[]`)

		if err := repo.Create(entry); err != nil {
			t.Fatalf("failed to create cache entry: %v", err)
		}

		if entry.ID() == "" {
			t.Error("cache entry ID should be set after creation")
		}
		if entry.Sequence() == 0 {
			t.Error("cache entry sequence should be set after creation")
		}
	})

	t.Run("Create rejects missing key", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCacheRepository(db)
		entry := models.NewCacheEntry(0, "session-1", "", `[]`)

		if err := repo.Create(entry); err == nil {
			t.Error("expected validation error for empty key")
		}
	})

	t.Run("GetByKey", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCacheRepository(db)
		if err := repo.Create(models.NewCacheEntry(0, "session-1", "cachedTracks_p1", `{"status":"ok"}`)); err != nil {
			t.Fatalf("failed to create cache entry: %v", err)
		}

		got, err := repo.GetByKey("session-1", "cachedTracks_p1")
		if err != nil {
			t.Fatalf("failed to get cache entry: %v", err)
		}
		if got.Value() != `{"status":"ok"}` {
			t.Errorf("unexpected value: %s", got.Value())
		}

		if _, err := repo.GetByKey("session-2", "cachedTracks_p1"); err == nil {
			t.Error("expected miss for a different session")
		}
	})

	t.Run("Upsert replaces an existing payload", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCacheRepository(db)

		if err := repo.Upsert("session-1", "cachedPlaylists", `["a"]`); err != nil {
			t.Fatalf("first upsert failed: %v", err)
		}
		if err := repo.Upsert("session-1", "cachedPlaylists", `["b"]`); err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}

		got, err := repo.GetByKey("session-1", "cachedPlaylists")
		if err != nil {
			t.Fatalf("failed to get cache entry: %v", err)
		}
		if got.Value() != `["b"]` {
			t.Errorf("expected latest payload to win, got %s", got.Value())
		}

		entries, err := repo.List(map[string]any{"session_id": "session-1"})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected a single row per key, got %d", len(entries))
		}
	})

	t.Run("DeleteSession clears only that session", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCacheRepository(db)
		if err := repo.Upsert("session-1", "cachedPlaylists", `[]`); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
		if err := repo.Upsert("session-2", "cachedPlaylists", `[]`); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		if err := repo.DeleteSession("session-1"); err != nil {
			t.Fatalf("failed to clear session: %v", err)
		}

		if _, err := repo.GetByKey("session-1", "cachedPlaylists"); err == nil {
			t.Error("expected session-1 entry to be gone")
		}
		if _, err := repo.GetByKey("session-2", "cachedPlaylists"); err != nil {
			t.Errorf("expected session-2 entry to survive: %v", err)
		}
	})
}

func TestSessionCache(t *testing.T) {
	playlists := []models.Playlist{
		{ID: "p1", Name: "First", OwnerID: "me", TrackCount: 2},
		{ID: "p2", Name: "Second", OwnerID: "me", TrackCount: 0},
	}
	tracks := []models.Track{
		{ID: "t1", Name: "One", Artists: []models.Artist{{Name: "A"}}},
		{ID: "t2", Name: "Two", Artists: []models.Artist{{Name: "B"}}},
	}

	t.Run("playlists round-trip", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		cache := NewSessionCache(NewCacheRepository(db), "session-1")

		if _, ok := cache.Playlists(); ok {
			t.Error("expected cold cache miss")
		}

		if err := cache.SetPlaylists(playlists); err != nil {
			t.Fatalf("failed to cache playlists: %v", err)
		}

		got, ok := cache.Playlists()
		if !ok {
			t.Fatal("expected cache hit")
		}
		if len(got) != 2 || got[0].ID != "p1" || got[1].Name != "Second" {
			t.Errorf("unexpected playlists: %+v", got)
		}
	})

	t.Run("empty playlist list reads as a miss", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		cache := NewSessionCache(NewCacheRepository(db), "session-1")
		if err := cache.SetPlaylists([]models.Playlist{}); err != nil {
			t.Fatalf("failed to cache playlists: %v", err)
		}

		if _, ok := cache.Playlists(); ok {
			t.Error("expected empty cached list to be treated as a miss")
		}
	})

	t.Run("track lists keep their status tag", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		cache := NewSessionCache(NewCacheRepository(db), "session-1")

		if err := cache.SetTracks("p1", models.NewTrackList(tracks)); err != nil {
			t.Fatalf("failed to cache tracks: %v", err)
		}
		if err := cache.SetTracks("p2", models.NewTrackList(nil)); err != nil {
			t.Fatalf("failed to cache empty list: %v", err)
		}

		got, ok := cache.Tracks("p1")
		if !ok || got.Status != models.TrackListOK || len(got.Tracks) != 2 {
			t.Errorf("unexpected p1 list: %+v ok=%v", got, ok)
		}

		empty, ok := cache.Tracks("p2")
		if !ok || empty.Status != models.TrackListEmpty {
			t.Errorf("expected confirmed-empty hit, got %+v ok=%v", empty, ok)
		}
	})

	t.Run("failed lists are never cached", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		cache := NewSessionCache(NewCacheRepository(db), "session-1")

		if err := cache.SetTracks("p1", models.FailedTrackList(tracks)); err == nil {
			t.Error("expected refusal to cache a failed list")
		}
		if _, ok := cache.Tracks("p1"); ok {
			t.Error("expected miss after refused write")
		}
	})

	t.Run("invalidation drops single keys", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		cache := NewSessionCache(NewCacheRepository(db), "session-1")
		if err := cache.SetPlaylists(playlists); err != nil {
			t.Fatalf("failed to cache playlists: %v", err)
		}
		if err := cache.SetTracks("p1", models.NewTrackList(tracks)); err != nil {
			t.Fatalf("failed to cache tracks: %v", err)
		}

		if err := cache.InvalidateTracks("p1"); err != nil {
			t.Fatalf("failed to invalidate tracks: %v", err)
		}
		if _, ok := cache.Tracks("p1"); ok {
			t.Error("expected track miss after invalidation")
		}
		if _, ok := cache.Playlists(); !ok {
			t.Error("expected playlist entry to survive track invalidation")
		}

		if err := cache.Clear(); err != nil {
			t.Fatalf("failed to clear cache: %v", err)
		}
		if _, ok := cache.Playlists(); ok {
			t.Error("expected playlist miss after clear")
		}
	})
}

func TestHistoryRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		entry := models.NewHistoryEntry(0, "session-1", "add_track", `{"playlistId":"p1","trackId":"t1"}`)

		if err := repo.Create(entry); err != nil {
			t.Fatalf("failed to create history entry: %v", err)
		}
		if entry.ID() == "" {
			t.Error("history entry ID should be set after creation")
		}

		got, err := repo.Get(entry.ID())
		if err != nil {
			t.Fatalf("failed to get history entry: %v", err)
		}
		if got.Action() != "add_track" {
			t.Errorf("unexpected action: %s", got.Action())
		}
	})

	t.Run("List returns newest first", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		actions := []string{"add_track", "remove_track", "merge"}
		for _, a := range actions {
			if err := repo.Create(models.NewHistoryEntry(0, "session-1", a, `{}`)); err != nil {
				t.Fatalf("failed to create history entry: %v", err)
			}
		}

		entries, err := repo.List(map[string]any{"session_id": "session-1"})
		if err != nil {
			t.Fatalf("failed to list history: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		if entries[0].Action() != "merge" || entries[2].Action() != "add_track" {
			t.Errorf("expected newest-first ordering, got %s .. %s", entries[0].Action(), entries[2].Action())
		}
	})

	t.Run("Update is rejected", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewHistoryRepository(db)
		entry := models.NewHistoryEntry(0, "session-1", "add_track", `{}`)
		if err := repo.Create(entry); err != nil {
			t.Fatalf("failed to create history entry: %v", err)
		}

		if err := repo.Update(entry); err == nil {
			t.Error("expected append-only rejection")
		}
	})
}

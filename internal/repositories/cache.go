package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zayatsoff/spm/internal/models"
	"github.com/zayatsoff/spm/internal/shared"
)

// CacheRepository implements models.Repository[*models.CacheEntry] for the session cache.
//
// Each (session_id, key) pair holds one JSON payload. Upsert writes the
// newest payload in place so cache writes are last-write-wins.
type CacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a new CacheRepository with the given database connection
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Create inserts a new [models.CacheEntry] into the database with generated ID and sequence
func (r *CacheRepository) Create(entry *models.CacheEntry) error {
	sequence, err := NextSequence(r.db, "session_cache")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	entry.SetSequence(sequence)

	id := shared.GenerateID()
	entry.SetID(id)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO session_cache (id, sequence, session_id, key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		entry.SessionID(),
		entry.Key(),
		entry.Value(),
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Get retrieves a cache entry by ID, excluding soft-deleted entries
func (r *CacheRepository) Get(id string) (*models.CacheEntry, error) {
	query := `
		SELECT id, sequence, session_id, key, value, created_at, updated_at, deleted_at
		FROM session_cache
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByKey retrieves a cache entry by session and key
func (r *CacheRepository) GetByKey(sessionID, key string) (*models.CacheEntry, error) {
	query := `
		SELECT id, sequence, session_id, key, value, created_at, updated_at, deleted_at
		FROM session_cache
		WHERE session_id = ? AND key = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, sessionID, key))
}

// Upsert writes the payload for (session, key), replacing any prior value
func (r *CacheRepository) Upsert(sessionID, key, value string) error {
	existing, err := r.GetByKey(sessionID, key)
	if err == nil {
		existing.SetValue(value)
		return r.Update(existing)
	}

	entry := models.NewCacheEntry(0, sessionID, key, value)
	return r.Create(entry)
}

// Update modifies an existing cache entry in the database
func (r *CacheRepository) Update(entry *models.CacheEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	entry.SetUpdatedAt(now)

	query := `
		UPDATE session_cache
		SET value = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, entry.Value(), now, entry.ID())
	if err != nil {
		return fmt.Errorf("failed to update cache entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("cache entry not found or already deleted: %s", entry.ID())
	}

	return nil
}

// Delete soft-deletes a cache entry by ID
func (r *CacheRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE session_cache
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("cache entry not found or already deleted: %s", id)
	}

	return nil
}

// DeleteSession soft-deletes every cache entry belonging to a session
func (r *CacheRepository) DeleteSession(sessionID string) error {
	query := `
		UPDATE session_cache
		SET deleted_at = ?
		WHERE session_id = ? AND deleted_at IS NULL
	`

	if _, err := r.db.Exec(query, time.Now(), sessionID); err != nil {
		return fmt.Errorf("failed to clear session cache: %w", err)
	}

	return nil
}

// List retrieves all cache entries matching the given criteria, excluding soft-deleted entries
func (r *CacheRepository) List(criteria map[string]any) ([]*models.CacheEntry, error) {
	query := `
		SELECT id, sequence, session_id, key, value, created_at, updated_at, deleted_at
		FROM session_cache
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if sessionID, ok := criteria["session_id"].(string); ok && sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.CacheEntry
	for rows.Next() {
		entry, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// scanOne scans a single [sql.Row] into a [models.CacheEntry]
func (r *CacheRepository) scanOne(row *sql.Row) (*models.CacheEntry, error) {
	var (
		id        string
		sequence  int
		sessionID string
		key       string
		value     string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &sessionID, &key, &value, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cache entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cache entry: %w", err)
	}

	entry := models.NewCacheEntry(sequence, sessionID, key, value)
	entry.SetID(id)
	entry.SetCreatedAt(createdAt)
	entry.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		entry.SetDeletedAt(&deletedAt.Time)
	}

	return entry, nil
}

// scanRow scans a row from [sql.Rows] into a [models.CacheEntry]
func (r *CacheRepository) scanRow(rows *sql.Rows) (*models.CacheEntry, error) {
	var (
		id        string
		sequence  int
		sessionID string
		key       string
		value     string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &sessionID, &key, &value, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan cache entry: %w", err)
	}

	entry := models.NewCacheEntry(sequence, sessionID, key, value)
	entry.SetID(id)
	entry.SetCreatedAt(createdAt)
	entry.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		entry.SetDeletedAt(&deletedAt.Time)
	}

	return entry, nil
}

// Session cache key layout.
const (
	playlistsKey   = "cachedPlaylists"
	tracksKeyStart = "cachedTracks_"
)

// TracksKey returns the cache key for a playlist's track list.
func TracksKey(playlistID string) string {
	return tracksKeyStart + playlistID
}

// SessionCache is the typed facade over the cache table for one session.
//
// Payloads are JSON: the playlist list under cachedPlaylists and one
// tagged track list per playlist under cachedTracks_<id>. A cache entry,
// once read, is treated as authoritative until an explicit mutation
// invalidates it.
type SessionCache struct {
	repo      *CacheRepository
	sessionID string
}

// NewSessionCache creates a SessionCache bound to the given session.
func NewSessionCache(repo *CacheRepository, sessionID string) *SessionCache {
	return &SessionCache{repo: repo, sessionID: sessionID}
}

// SessionID returns the bound session identifier.
func (c *SessionCache) SessionID() string {
	return c.sessionID
}

// Playlists reads the cached playlist list. The second return is false
// when no usable entry exists; an empty cached list is treated as a miss
// so callers refetch rather than trusting an ambiguous result.
func (c *SessionCache) Playlists() ([]models.Playlist, bool) {
	entry, err := c.repo.GetByKey(c.sessionID, playlistsKey)
	if err != nil {
		return nil, false
	}

	var playlists []models.Playlist
	if err := json.Unmarshal([]byte(entry.Value()), &playlists); err != nil {
		return nil, false
	}
	if len(playlists) == 0 {
		return nil, false
	}

	return playlists, true
}

// SetPlaylists caches the playlist list.
func (c *SessionCache) SetPlaylists(playlists []models.Playlist) error {
	data, err := json.Marshal(playlists)
	if err != nil {
		return fmt.Errorf("failed to encode playlists: %w", err)
	}

	return c.repo.Upsert(c.sessionID, playlistsKey, string(data))
}

// Tracks reads the cached track list for a playlist. Misses, decode
// failures, and lists tagged failed all report false; a list tagged
// empty is a valid hit, distinguishing "confirmed empty" from "never
// fetched".
func (c *SessionCache) Tracks(playlistID string) (models.TrackList, bool) {
	entry, err := c.repo.GetByKey(c.sessionID, TracksKey(playlistID))
	if err != nil {
		return models.TrackList{}, false
	}

	var list models.TrackList
	if err := json.Unmarshal([]byte(entry.Value()), &list); err != nil {
		return models.TrackList{}, false
	}
	if list.Status == models.TrackListFailed {
		return models.TrackList{}, false
	}

	return list, true
}

// SetTracks caches a playlist's track list. Failed lists are refused so
// fallback data never masquerades as real on the next read.
func (c *SessionCache) SetTracks(playlistID string, list models.TrackList) error {
	if !list.Cacheable() {
		return fmt.Errorf("refusing to cache failed track list for %s", playlistID)
	}

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode track list: %w", err)
	}

	return c.repo.Upsert(c.sessionID, TracksKey(playlistID), string(data))
}

// InvalidateTracks drops the cached track list for a playlist.
func (c *SessionCache) InvalidateTracks(playlistID string) error {
	entry, err := c.repo.GetByKey(c.sessionID, TracksKey(playlistID))
	if err != nil {
		return nil
	}

	return c.repo.Delete(entry.ID())
}

// InvalidatePlaylists drops the cached playlist list.
func (c *SessionCache) InvalidatePlaylists() error {
	entry, err := c.repo.GetByKey(c.sessionID, playlistsKey)
	if err != nil {
		return nil
	}

	return c.repo.Delete(entry.ID())
}

// Clear drops every cached entry for the session.
func (c *SessionCache) Clear() error {
	return c.repo.DeleteSession(c.sessionID)
}

// Entries lists the session's live cache entries for inspection.
func (c *SessionCache) Entries() ([]*models.CacheEntry, error) {
	return c.repo.List(map[string]any{"session_id": c.sessionID})
}

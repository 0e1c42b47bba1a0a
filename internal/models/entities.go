package models

import (
	"fmt"
	"time"
)

// CacheEntry is a persisted session cache record. Each entry stores a
// JSON-encoded payload under a key scoped to a session, mirroring the
// cachedPlaylists / cachedTracks_<id> keys the sync layer reads.
type CacheEntry struct {
	id        string
	sequence  int
	sessionID string
	key       string
	value     string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewCacheEntry creates a cache entry for the given session and key.
// The value is the JSON encoding of the cached payload.
func NewCacheEntry(sequence int, sessionID, key, value string) *CacheEntry {
	now := time.Now()
	return &CacheEntry{
		sequence:  sequence,
		sessionID: sessionID,
		key:       key,
		value:     value,
		createdAt: now,
		updatedAt: now,
	}
}

func (e *CacheEntry) ID() string            { return e.id }
func (e *CacheEntry) Sequence() int         { return e.sequence }
func (e *CacheEntry) SessionID() string     { return e.sessionID }
func (e *CacheEntry) Key() string           { return e.key }
func (e *CacheEntry) Value() string         { return e.value }
func (e *CacheEntry) CreatedAt() time.Time  { return e.createdAt }
func (e *CacheEntry) UpdatedAt() time.Time  { return e.updatedAt }
func (e *CacheEntry) DeletedAt() *time.Time { return e.deletedAt }

func (e *CacheEntry) SetID(id string)             { e.id = id }
func (e *CacheEntry) SetValue(value string)       { e.value = value }
func (e *CacheEntry) SetUpdatedAt(t time.Time)    { e.updatedAt = t }
func (e *CacheEntry) SetDeletedAt(t *time.Time)   { e.deletedAt = t }
func (e *CacheEntry) SetCreatedAt(t time.Time)    { e.createdAt = t }
func (e *CacheEntry) SetSequence(sequence int)    { e.sequence = sequence }
func (e *CacheEntry) SetSessionID(session string) { e.sessionID = session }

// Validate checks that the entry has a session and a key
func (e *CacheEntry) Validate() error {
	if e.sessionID == "" {
		return fmt.Errorf("cache entry session_id is required")
	}
	if e.key == "" {
		return fmt.Errorf("cache entry key is required")
	}

	return nil
}

// HistoryEntry records a completed mutation for the history log. The
// payload holds the JSON-encoded details of the operation (playlist,
// track, batch counts) so the history command can render them later.
type HistoryEntry struct {
	id        string
	sequence  int
	sessionID string
	action    string
	payload   string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewHistoryEntry creates a history record for the given session and action.
func NewHistoryEntry(sequence int, sessionID, action, payload string) *HistoryEntry {
	now := time.Now()
	return &HistoryEntry{
		sequence:  sequence,
		sessionID: sessionID,
		action:    action,
		payload:   payload,
		createdAt: now,
		updatedAt: now,
	}
}

func (h *HistoryEntry) ID() string            { return h.id }
func (h *HistoryEntry) Sequence() int         { return h.sequence }
func (h *HistoryEntry) SessionID() string     { return h.sessionID }
func (h *HistoryEntry) Action() string        { return h.action }
func (h *HistoryEntry) Payload() string       { return h.payload }
func (h *HistoryEntry) CreatedAt() time.Time  { return h.createdAt }
func (h *HistoryEntry) UpdatedAt() time.Time  { return h.updatedAt }
func (h *HistoryEntry) DeletedAt() *time.Time { return h.deletedAt }

func (h *HistoryEntry) SetID(id string)           { h.id = id }
func (h *HistoryEntry) SetUpdatedAt(t time.Time)  { h.updatedAt = t }
func (h *HistoryEntry) SetDeletedAt(t *time.Time) { h.deletedAt = t }
func (h *HistoryEntry) SetSequence(sequence int)  { h.sequence = sequence }

// Validate checks that the entry has a session and an action
func (h *HistoryEntry) Validate() error {
	if h.sessionID == "" {
		return fmt.Errorf("history entry session_id is required")
	}
	if h.action == "" {
		return fmt.Errorf("history entry action is required")
	}

	return nil
}

package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/zayatsoff/spm/internal/models"
	"github.com/zayatsoff/spm/internal/shared"
)

// HistoryRepository implements models.Repository[*models.HistoryEntry] for the mutation log.
//
// History is append-only: completed mutations (toggle, undo, merge,
// duplicate, rename, delete) are recorded with a JSON payload so the
// history command can replay what happened in a session.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a new [models.HistoryEntry] into the database with generated ID and sequence
func (r *HistoryRepository) Create(entry *models.HistoryEntry) error {
	sequence, err := NextSequence(r.db, "history")
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
		INSERT INTO history (id, sequence, session_id, action, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		entry.SessionID(),
		entry.Action(),
		entry.Payload(),
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	return nil
}

// Get retrieves a history entry by ID, excluding soft-deleted entries
func (r *HistoryRepository) Get(id string) (*models.HistoryEntry, error) {
	query := `
		SELECT id, sequence, session_id, action, payload, created_at, updated_at, deleted_at
		FROM history
		WHERE id = ? AND deleted_at IS NULL
	`

	var (
		entryID   string
		sequence  int
		sessionID string
		action    string
		payload   string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := r.db.QueryRow(query, id).Scan(&entryID, &sequence, &sessionID, &action, &payload, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("history entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan history entry: %w", err)
	}

	entry := models.NewHistoryEntry(sequence, sessionID, action, payload)
	entry.SetID(entryID)
	entry.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		entry.SetDeletedAt(&deletedAt.Time)
	}

	return entry, nil
}

// Update modifies an existing history entry. History is append-only, so
// updates are rejected.
func (r *HistoryRepository) Update(entry *models.HistoryEntry) error {
	return fmt.Errorf("history entries are append-only: %w", shared.ErrInvalidInput)
}

// Delete soft-deletes a history entry by ID
func (r *HistoryRepository) Delete(id string) error {
	query := `
		UPDATE history
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("history entry not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all history entries matching the given criteria, newest first
func (r *HistoryRepository) List(criteria map[string]any) ([]*models.HistoryEntry, error) {
	query := `
		SELECT id, sequence, session_id, action, payload, created_at, updated_at, deleted_at
		FROM history
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if sessionID, ok := criteria["session_id"].(string); ok && sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}

	if action, ok := criteria["action"].(string); ok && action != "" {
		query += " AND action = ?"
		args = append(args, action)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var (
			id        string
			sequence  int
			sessionID string
			action    string
			payload   string
			createdAt time.Time
			updatedAt time.Time
			deletedAt sql.NullTime
		)

		if err := rows.Scan(&id, &sequence, &sessionID, &action, &payload, &createdAt, &updatedAt, &deletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		entry := models.NewHistoryEntry(sequence, sessionID, action, payload)
		entry.SetID(id)
		entry.SetUpdatedAt(updatedAt)
		if deletedAt.Valid {
			entry.SetDeletedAt(&deletedAt.Time)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

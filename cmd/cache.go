package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// CacheShow lists the cache entries bound to the current session.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.ensureEngine(cmd); err != nil {
		return err
	}

	entries, err := r.cache.Entries()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(entries))
		for _, entry := range entries {
			rows = append(rows, map[string]any{
				"key":       entry.Key(),
				"bytes":     len(entry.Value()),
				"updatedAt": entry.UpdatedAt(),
			})
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	r.writePlain("Session: %s\n", r.cache.SessionID())
	r.writePlain("Entries: %d\n\n", len(entries))
	for _, entry := range entries {
		r.writePlain("  %s (%d bytes, updated %s)\n",
			entry.Key(), len(entry.Value()), entry.UpdatedAt().Format("2006-01-02 15:04:05"))
	}

	return nil
}

// CacheClear drops every cache entry for the current session.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.ensureEngine(cmd); err != nil {
		return err
	}

	if err := r.cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	r.logger.Info("cache cleared", "session", r.cache.SessionID())
	r.writePlain("✓ Cache cleared for session %s\n", r.cache.SessionID())

	return nil
}

// History prints the mutation log for the current session, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.ensureEngine(cmd); err != nil {
		return err
	}

	entries, err := r.history.List(map[string]any{"session_id": r.cache.SessionID()})
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if limit := cmd.Int("limit"); limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(entries))
		for _, entry := range entries {
			rows = append(rows, map[string]any{
				"sequence":  entry.Sequence(),
				"action":    entry.Action(),
				"payload":   entry.Payload(),
				"createdAt": entry.CreatedAt(),
			})
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(entries) == 0 {
		r.writePlain("No recorded mutations for this session.\n")
		return nil
	}

	r.writePlain("Showing %d entries:\n\n", len(entries))
	for _, entry := range entries {
		r.writePlain("%4d. [%s] %s\n", entry.Sequence(),
			entry.CreatedAt().Format("2006-01-02 15:04:05"), entry.Action())
		r.writePlain("      %s\n", entry.Payload())
	}

	return nil
}

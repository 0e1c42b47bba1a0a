package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/zayatsoff/spm/internal/models"
	"github.com/zayatsoff/spm/internal/shared"
	"github.com/zayatsoff/spm/internal/tasks"
)

// progressPrinter drains a progress channel onto plain output. The
// returned channel must be closed once the engine call returns.
func (r *Runner) progressPrinter() chan tasks.ProgressUpdate {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.CreatePlaylist:
				r.writePlain("📝 %s\n", update.Message)
			case tasks.SubmitBatch:
				r.writePlain("   %s\n", update.Message)
			default:
				r.writePlain("📥 %s\n", update.Message)
			}
		}
	}()

	return progressCh
}

func (r *Runner) writeBatchResult(result *tasks.BatchResult) {
	r.writePlain("\n")
	if result.Complete() {
		r.writePlain("✓ Created %s (%d tracks)\n", result.Playlist.Name, result.TracksAdded)
	} else {
		r.writePlain("⚠ Created %s but only %d/%d tracks were added (%d/%d batches)\n",
			result.Playlist.Name, result.TracksAdded, result.TracksTotal,
			result.BatchesDone, result.BatchesTotal)
		r.writePlain("  %v\n", result.Err)
	}
	r.writePlain("  ID: %s\n", result.Playlist.ID)
}

// Toggle adds a track to a playlist, or removes it when already present.
func (r *Runner) Toggle(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("playlist")
	trackID := cmd.String("track")

	engine, err := r.ensureEngine(cmd)
	if err != nil {
		return err
	}

	if err := engine.LoadPlaylists(ctx, nil); err != nil {
		return err
	}
	if err := engine.EnsureTracks(ctx, playlistID, nil); err != nil {
		return err
	}
	r.flushNotice(engine)

	track := models.Track{ID: trackID, Name: cmd.String("name")}
	present := false
	for _, t := range engine.Store().State().Tracks[playlistID].Tracks {
		if t.ID == trackID {
			track = t
			present = true
			break
		}
	}

	if err := engine.ToggleTrack(ctx, playlistID, track); err != nil {
		return err
	}

	if present {
		r.writePlain("✓ Removed %s from %s\n", trackLabel(track), playlistID)
	} else {
		r.writePlain("✓ Added %s to %s\n", trackLabel(track), playlistID)
	}
	r.writePlain("  Run 'spm undo' to revert.\n")

	return nil
}

func trackLabel(track models.Track) string {
	if track.Name != "" {
		return track.Name
	}
	return track.ID
}

// Merge creates a new playlist from the union of the given playlists.
func (r *Runner) Merge(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringArgs("ids")
	if len(ids) < 2 {
		return fmt.Errorf("%w: at least two playlist ids", shared.ErrMissingArgument)
	}

	engine, err := r.ensureEngine(cmd)
	if err != nil {
		return err
	}

	if err := engine.LoadPlaylists(ctx, nil); err != nil {
		return err
	}
	for _, id := range ids {
		if err := engine.SelectPlaylist(ctx, id, nil); err != nil {
			return err
		}
	}
	r.flushNotice(engine)

	progressCh := r.progressPrinter()
	result, err := engine.Merge(ctx, cmd.String("name"), progressCh)
	close(progressCh)
	if err != nil {
		return err
	}

	r.writeBatchResult(result)

	return nil
}

// Duplicate copies a playlist under a "(Copy)" name.
func (r *Runner) Duplicate(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.ensureEngine(cmd)
	if err != nil {
		return err
	}

	if err := engine.LoadPlaylists(ctx, nil); err != nil {
		return err
	}
	r.flushNotice(engine)

	progressCh := r.progressPrinter()
	result, err := engine.Duplicate(ctx, cmd.String("id"), progressCh)
	close(progressCh)
	if err != nil {
		return err
	}

	r.writeBatchResult(result)

	return nil
}

// Rename changes a playlist's name.
func (r *Runner) Rename(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.ensureEngine(cmd)
	if err != nil {
		return err
	}

	if err := engine.LoadPlaylists(ctx, nil); err != nil {
		return err
	}
	r.flushNotice(engine)

	playlistID := cmd.String("id")
	name := cmd.String("name")
	if err := engine.Rename(ctx, playlistID, name); err != nil {
		return err
	}

	r.writePlain("✓ Renamed %s to %s\n", playlistID, name)

	return nil
}

// Delete removes a playlist from the user's library.
func (r *Runner) Delete(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.ensureEngine(cmd)
	if err != nil {
		return err
	}

	if err := engine.LoadPlaylists(ctx, nil); err != nil {
		return err
	}
	r.flushNotice(engine)

	playlistID := cmd.String("id")
	playlist, _ := engine.Store().State().Playlist(playlistID)

	if err := engine.Delete(ctx, playlistID); err != nil {
		return err
	}

	r.writePlain("✓ Removed %s from your library\n", playlist.Name)

	return nil
}

// Undo reverts the most recent track add or remove. The in-process undo
// stack is empty on a fresh invocation, so the history log backs it:
// the newest toggle entry is replayed, which flips the track back.
func (r *Runner) Undo(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.ensureEngine(cmd)
	if err != nil {
		return err
	}

	if err := engine.Undo(ctx); err == nil {
		r.writePlain("✓ Reverted the last track change\n")
		return nil
	} else if !errors.Is(err, shared.ErrNothingToUndo) {
		return err
	}

	entry, err := r.lastToggleEntry()
	if err != nil {
		return err
	}

	var payload struct {
		PlaylistID string `json:"playlistId"`
		TrackID    string `json:"trackId"`
		TrackName  string `json:"trackName"`
	}
	if err := json.Unmarshal([]byte(entry.Payload()), &payload); err != nil {
		return fmt.Errorf("failed to decode history payload: %w", err)
	}

	if err := engine.LoadPlaylists(ctx, nil); err != nil {
		return err
	}
	if err := engine.EnsureTracks(ctx, payload.PlaylistID, nil); err != nil {
		return err
	}
	r.flushNotice(engine)

	track := models.Track{ID: payload.TrackID, Name: payload.TrackName}
	for _, t := range engine.Store().State().Tracks[payload.PlaylistID].Tracks {
		if t.ID == payload.TrackID {
			track = t
			break
		}
	}

	if err := engine.ToggleTrack(ctx, payload.PlaylistID, track); err != nil {
		return err
	}

	r.writePlain("✓ Reverted %s of %s in %s\n", entry.Action(), trackLabel(track), payload.PlaylistID)

	return nil
}

// lastToggleEntry finds the newest add_track or remove_track entry for
// the current session.
func (r *Runner) lastToggleEntry() (*models.HistoryEntry, error) {
	if r.history == nil || r.cache == nil {
		return nil, shared.ErrNothingToUndo
	}

	entries, err := r.history.List(map[string]any{"session_id": r.cache.SessionID()})
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	for _, entry := range entries {
		if entry.Action() == "add_track" || entry.Action() == "remove_track" {
			return entry, nil
		}
	}

	return nil, shared.ErrNothingToUndo
}

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/zayatsoff/spm/internal/shared"
	"github.com/zayatsoff/spm/internal/store"
)

// Playlists lists the user's playlists, cache-first.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.ensureEngine(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("refresh") && r.cache != nil {
		if err := r.cache.InvalidatePlaylists(); err != nil {
			r.logger.Warn("failed to invalidate playlist cache", "error", err)
		}
	}

	if err := engine.LoadPlaylists(ctx, nil); err != nil {
		return err
	}
	r.flushNotice(engine)

	playlists := engine.Store().State().Playlists

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Owner: %s\n", p.OwnerID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		r.writePlain("\n")
	}

	return nil
}

// Tracks shows a playlist's complete track list.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")

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

	state := engine.Store().State()
	playlist, _ := state.Playlist(playlistID)
	list := state.Tracks[playlistID]

	if cmd.Bool("json") {
		return r.writeJSON(list, cmd.Bool("pretty"))
	}

	r.writePlain("Playlist: %s\n", playlist.Name)
	if state.LoadState(playlistID) == store.FailedFallback {
		r.writePlain("⚠ Showing fallback data; the track listing could not be fetched.\n")
	}
	r.writePlain("Tracks: %d\n\n", len(list.Tracks))

	for i, track := range list.Tracks {
		r.writePlain("%d. %s - %s\n", i+1, track.ArtistNames(), track.Name)
	}

	return nil
}

// Union selects the given playlists and prints their de-duplicated union.
func (r *Runner) Union(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringArgs("ids")
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one playlist id", shared.ErrMissingArgument)
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

	state := engine.Store().State()
	union := store.UnionTracks(state)
	sources := store.TrackSources(state)

	if cmd.Bool("json") {
		return r.writeJSON(union, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Union of %d playlists (%d tracks)", len(ids), len(union)))
	for i, track := range union {
		r.writePlain("%d. %s - %s", i+1, track.ArtistNames(), track.Name)
		if len(sources[track.ID]) > 1 {
			r.writePlain("  (in %d playlists)", len(sources[track.ID]))
		}
		r.writePlain("\n")
	}

	return nil
}

// Search looks up catalog tracks.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	engine, err := r.ensureEngine(cmd)
	if err != nil {
		return err
	}

	results, err := engine.Search(ctx, query, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d tracks:\n\n", len(results))
	for i, track := range results {
		r.writePlain("%d. %s - %s\n", i+1, track.ArtistNames(), track.Name)
		r.writePlain("   ID: %s\n", track.ID)
	}

	return nil
}

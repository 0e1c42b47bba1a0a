// package tasks implements the sync engine bridging the library state
// machine to the remote playlist API and the session cache.
//
// The core abstraction is Engine, which orchestrates playlist and track
// fetches, optimistic mutations with rollback, undo, merge, and
// duplicate operations. Operations emit progress updates via channels
// for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/zayatsoff/spm/internal/models"
	"github.com/zayatsoff/spm/internal/repositories"
	"github.com/zayatsoff/spm/internal/sample"
	"github.com/zayatsoff/spm/internal/services"
	"github.com/zayatsoff/spm/internal/shared"
	"github.com/zayatsoff/spm/internal/store"
)

// Mode selects where the engine sources its data.
type Mode int

const (
	// Live talks to the remote API.
	Live Mode = iota
	// Demo serves the bundled sample dataset and simulates mutations
	// locally; no remote calls are ever made.
	Demo
)

func (m Mode) String() string {
	if m == Demo {
		return "demo"
	}
	return "live"
}

// BatchResult reports how a batched submission (merge, duplicate) went.
// Batches are submitted sequentially and a failure partway through
// leaves the target partially populated; the counts surface that.
type BatchResult struct {
	Playlist     *models.Playlist // Created target playlist
	TracksTotal  int              // Tracks that should be submitted
	TracksAdded  int              // Tracks actually submitted
	BatchesTotal int              // Planned batches
	BatchesDone  int              // Batches that succeeded
	Err          error            // First batch failure, nil when complete
}

// Complete reports whether every batch succeeded.
func (r *BatchResult) Complete() bool {
	return r.Err == nil
}

// Engine orchestrates playlist state against the remote gateway and the
// session cache. Live reads prefer the cache; a cache entry, once read,
// is trusted for the session's lifetime. Demo mode bypasses the cache
// entirely, in both directions. Failure policy: 401 clears
// credentials and surfaces [shared.ErrUnauthorized], 403 switches the
// session into [Demo] mode with a one-time notice, and transient
// failures fall back to sample data without leaving Live mode.
type Engine struct {
	mu      sync.Mutex
	store   *store.Store
	gateway services.Gateway
	tokens  services.TokenSource
	cache   *repositories.SessionCache
	history *repositories.HistoryRepository
	undo    *store.UndoStack
	logger  *log.Logger

	batchSize int
	mode      Mode
	notice    string
	noticeNew bool

	user             *models.User
	inflightMutation map[string]bool
}

// EngineOpts configures an Engine.
type EngineOpts struct {
	Store     *store.Store
	Gateway   services.Gateway
	Tokens    services.TokenSource
	Cache     *repositories.SessionCache
	History   *repositories.HistoryRepository
	UndoDepth int
	BatchSize int
	Mode      Mode
	Logger    *log.Logger
}

// NewEngine creates a sync engine.
func NewEngine(opts EngineOpts) *Engine {
	if opts.BatchSize <= 0 || opts.BatchSize > 100 {
		opts.BatchSize = 100
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Store == nil {
		opts.Store = store.New(9)
	}

	return &Engine{
		store:            opts.Store,
		gateway:          opts.Gateway,
		tokens:           opts.Tokens,
		cache:            opts.Cache,
		history:          opts.History,
		undo:             store.NewUndoStack(opts.UndoDepth),
		logger:           opts.Logger,
		batchSize:        opts.BatchSize,
		mode:             opts.Mode,
		inflightMutation: map[string]bool{},
	}
}

// Store exposes the engine's state store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// SetLogger swaps the engine's logger.
func (e *Engine) SetLogger(logger *log.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger = logger
}

// Mode returns the current operating mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.mode
}

// cacheWritable reports whether the session cache may be written.
// Demo data never lands in the cache so a later Live run on the same
// session starts from the remote listing, not sample artifacts.
func (e *Engine) cacheWritable() bool {
	return e.cache != nil && e.Mode() != Demo
}

// Notice returns the pending one-time notice, if any, and clears it.
// Subsequent calls return false until a new notice is recorded.
func (e *Engine) Notice() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.noticeNew {
		return "", false
	}
	e.noticeNew = false

	return e.notice, true
}

// UndoDepth returns the number of undoable mutations.
func (e *Engine) UndoDepth() int {
	return e.undo.Len()
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// enterDemoMode flips the session into Demo mode exactly once, loading
// the sample dataset and recording the one-time notice.
func (e *Engine) enterDemoMode(reason string) {
	e.mu.Lock()
	already := e.mode == Demo
	if !already {
		e.mode = Demo
		e.notice = reason
		e.noticeNew = true
	}
	e.mu.Unlock()

	if already {
		return
	}

	e.logger.Warn("switching to demo mode", "reason", reason)
	e.store.Dispatch(store.Reset{})
	e.store.Dispatch(store.SetPlaylists{Playlists: sample.Playlists()})
}

// LoadPlaylists populates the store's playlist list: from the sample set
// in Demo mode, from the session cache when a non-empty entry exists,
// otherwise by paging through the remote listing.
func (e *Engine) LoadPlaylists(ctx context.Context, progress chan<- ProgressUpdate) error {
	if e.Mode() == Demo {
		e.store.Dispatch(store.SetPlaylists{Playlists: sample.Playlists()})
		return nil
	}

	if e.cache != nil {
		if cached, ok := e.cache.Playlists(); ok {
			e.store.Dispatch(store.SetPlaylists{Playlists: cached})
			e.sendProgress(progress, playlistsLoadedUpdate(len(cached), true))
			return nil
		}
	}

	e.sendProgress(progress, fetchingPlaylistsUpdate())

	playlists, err := e.gateway.Playlists(ctx)
	if err != nil {
		return e.handleReadFailure(err, "playlist listing failed")
	}

	if e.cacheWritable() {
		if err := e.cache.SetPlaylists(playlists); err != nil {
			e.logger.Warn("failed to cache playlists", "error", err)
		}
	}

	e.store.Dispatch(store.SetPlaylists{Playlists: playlists})
	e.sendProgress(progress, playlistsLoadedUpdate(len(playlists), false))

	return nil
}

// handleReadFailure applies the read failure policy: 401 invalidates
// credentials and propagates, 403 enters demo mode permanently, and
// anything else falls back to the sample dataset while staying Live.
func (e *Engine) handleReadFailure(err error, msg string) error {
	if errors.Is(err, shared.ErrUnauthorized) {
		e.logger.Error("session expired, clearing credentials", "error", err)
		if e.tokens != nil {
			if invErr := e.tokens.Invalidate(); invErr != nil {
				e.logger.Warn("failed to clear credentials", "error", invErr)
			}
		}
		return fmt.Errorf("%s: %w", msg, err)
	}

	if errors.Is(err, shared.ErrForbidden) {
		e.enterDemoMode("Spotify access is not provisioned for this account; showing sample playlists instead.")
		return nil
	}

	e.logger.Warn(msg+", falling back to sample data", "error", err)
	e.store.Dispatch(store.SetPlaylists{Playlists: sample.Playlists()})
	e.recordNotice("Could not reach Spotify; showing sample playlists instead.")

	return nil
}

func (e *Engine) recordNotice(notice string) {
	e.mu.Lock()
	e.notice = notice
	e.noticeNew = true
	e.mu.Unlock()
}

// SelectPlaylist toggles a playlist in the selection set. Newly selected
// playlists get their tracks loaded; deselection leaves any cached
// tracks in place.
func (e *Engine) SelectPlaylist(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) error {
	before := e.store.State()
	after := e.store.Dispatch(store.ToggleSelection{PlaylistID: playlistID})

	if len(after.Selected) <= len(before.Selected) {
		if !before.IsSelected(playlistID) && !after.IsSelected(playlistID) {
			if _, ok := before.Playlist(playlistID); !ok {
				return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
			}
			return fmt.Errorf("%w: at most %d playlists", shared.ErrSelectionLimit, e.store.SelectionLimit())
		}
		return nil
	}

	return e.EnsureTracks(ctx, playlistID, progress)
}

// EnsureTracks makes sure a playlist's complete track list is in the
// store: cache first, then the remote listing. A playlist already
// Loading is refused so two fetches never target the same playlist; a
// playlist already Loaded is a no-op.
func (e *Engine) EnsureTracks(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) error {
	state := e.store.State()

	playlist, ok := state.Playlist(playlistID)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	switch state.LoadState(playlistID) {
	case store.Loading:
		return fmt.Errorf("%w: %s", shared.ErrFetchInFlight, playlistID)
	case store.Loaded, store.FailedFallback:
		return nil
	}

	if e.Mode() == Demo {
		list := sample.TrackList(playlistID)
		e.store.Dispatch(store.SetTracks{PlaylistID: playlistID, List: list})
		return nil
	}

	if e.cache != nil {
		if list, ok := e.cache.Tracks(playlistID); ok {
			e.store.Dispatch(store.SetTracks{PlaylistID: playlistID, List: list})
			e.sendProgress(progress, tracksLoadedUpdate(playlist, len(list.Tracks), true))
			return nil
		}
	}

	e.store.Dispatch(store.MarkTracksLoading{PlaylistID: playlistID})
	e.sendProgress(progress, fetchingTracksUpdate(playlist))

	tracks, err := e.gateway.PlaylistTracks(ctx, playlistID)
	if err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			// Leave the playlist unfetched so a re-login can retry it.
			e.store.Dispatch(store.SetTracks{PlaylistID: playlistID, List: models.FailedTrackList(nil)})
			return e.handleReadFailure(err, "track listing failed")
		}

		e.logger.Warn("track listing failed, using fallback", "playlist", playlistID, "error", err)
		e.store.Dispatch(store.SetTracks{PlaylistID: playlistID, List: models.FailedTrackList(sample.Tracks(playlistID))})
		return nil
	}

	list := models.NewTrackList(tracks)
	if e.cacheWritable() {
		if err := e.cache.SetTracks(playlistID, list); err != nil {
			e.logger.Warn("failed to cache tracks", "playlist", playlistID, "error", err)
		}
	}

	e.store.Dispatch(store.SetTracks{PlaylistID: playlistID, List: list})
	e.sendProgress(progress, tracksLoadedUpdate(playlist, len(tracks), false))

	return nil
}

func mutationKey(playlistID, trackID string) string {
	return playlistID + "\x00" + trackID
}

// beginMutation marks a (playlist, track) pair as having a mutation in
// flight. A second toggle on the same pair before the first resolves is
// refused rather than queued.
func (e *Engine) beginMutation(playlistID, trackID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := mutationKey(playlistID, trackID)
	if e.inflightMutation[key] {
		return fmt.Errorf("%w: %s", shared.ErrMutationInFlight, trackID)
	}
	e.inflightMutation[key] = true

	return nil
}

func (e *Engine) endMutation(playlistID, trackID string) {
	e.mu.Lock()
	delete(e.inflightMutation, mutationKey(playlistID, trackID))
	e.mu.Unlock()
}

// ToggleTrack adds the track to the playlist when absent, or removes it
// when present. The local transition is dispatched optimistically before
// the remote call; a remote failure dispatches the inverse transition so
// local and remote state never silently diverge. On success the mutation
// is pushed onto the undo stack.
func (e *Engine) ToggleTrack(ctx context.Context, playlistID string, track models.Track) error {
	if err := e.beginMutation(playlistID, track.ID); err != nil {
		return err
	}
	defer e.endMutation(playlistID, track.ID)

	state := e.store.State()
	list, ok := state.Tracks[playlistID]
	if !ok {
		return fmt.Errorf("%w: tracks not loaded for %s", shared.ErrPlaylistNotFound, playlistID)
	}

	present := false
	for _, t := range list.Tracks {
		if t.ID == track.ID {
			present = true
			break
		}
	}

	entry := models.UndoEntry{Kind: models.UndoAdd, PlaylistID: playlistID, Track: track}
	if present {
		entry.Kind = models.UndoRemove
	}

	if err := e.applyMutation(ctx, entry); err != nil {
		return err
	}

	e.undo.Push(entry)
	e.record(string(entry.Kind)+"_track", map[string]string{
		"playlistId": playlistID,
		"trackId":    track.ID,
		"trackName":  track.Name,
	})

	return nil
}

// applyMutation dispatches the optimistic local transition, issues the
// remote call, and rolls the local state back if the call fails. Demo
// mode applies only the local transition.
func (e *Engine) applyMutation(ctx context.Context, entry models.UndoEntry) error {
	var action, inverse store.Action
	if entry.Kind == models.UndoAdd {
		action = store.AddTrack{PlaylistID: entry.PlaylistID, Track: entry.Track}
		inverse = store.RemoveTrack{PlaylistID: entry.PlaylistID, TrackID: entry.Track.ID}
	} else {
		action = store.RemoveTrack{PlaylistID: entry.PlaylistID, TrackID: entry.Track.ID}
		inverse = store.AddTrack{PlaylistID: entry.PlaylistID, Track: entry.Track}
	}

	e.store.Dispatch(action)

	if e.Mode() != Demo {
		var err error
		if entry.Kind == models.UndoAdd {
			err = e.gateway.AddTracks(ctx, entry.PlaylistID, []string{entry.Track.URI()})
		} else {
			err = e.gateway.RemoveTracks(ctx, entry.PlaylistID, []string{entry.Track.URI()})
		}
		if err != nil {
			e.store.Dispatch(inverse)
			e.logger.Error("mutation failed, rolled back", "playlist", entry.PlaylistID, "track", entry.Track.ID, "error", err)
			return fmt.Errorf("%s track failed: %w", entry.Kind, err)
		}
	}

	e.syncTrackCache(entry.PlaylistID)

	return nil
}

// syncTrackCache writes the store's current track list for a playlist
// back to the session cache after a confirmed mutation.
func (e *Engine) syncTrackCache(playlistID string) {
	if !e.cacheWritable() {
		return
	}

	state := e.store.State()
	list, ok := state.Tracks[playlistID]
	if !ok || !list.Cacheable() {
		return
	}

	if err := e.cache.SetTracks(playlistID, list); err != nil {
		e.logger.Warn("failed to update track cache", "playlist", playlistID, "error", err)
	}
}

// Undo reverts the most recent successful mutation. If the inverse
// remote call fails the entry is restored to the stack so the user can
// retry.
func (e *Engine) Undo(ctx context.Context) error {
	entry, ok := e.undo.Pop()
	if !ok {
		return shared.ErrNothingToUndo
	}

	if err := e.applyMutation(ctx, entry.Inverse()); err != nil {
		e.undo.Push(entry)
		return fmt.Errorf("undo failed: %w", err)
	}

	e.record("undo", map[string]string{
		"playlistId": entry.PlaylistID,
		"trackId":    entry.Track.ID,
		"undone":     string(entry.Kind),
	})

	return nil
}

// Merge creates a new playlist holding the de-duplicated union of every
// selected playlist's tracks. URIs are submitted sequentially in batches
// of at most the configured batch size; a failure partway through leaves
// the new playlist partially populated, which the result surfaces.
func (e *Engine) Merge(ctx context.Context, name string, progress chan<- ProgressUpdate) (*BatchResult, error) {
	state := e.store.State()
	if len(state.Selected) == 0 {
		return nil, shared.ErrNoSelection
	}

	for _, id := range state.Selected {
		if err := e.EnsureTracks(ctx, id, progress); err != nil {
			return nil, err
		}
	}

	union := store.UnionTracks(e.store.State())
	if name == "" {
		name = "Merged playlist"
	}

	result, err := e.populateNewPlaylist(ctx, name, union, progress)
	if err != nil {
		return result, err
	}

	e.record("merge", map[string]any{
		"playlistId":  result.Playlist.ID,
		"name":        name,
		"tracksAdded": result.TracksAdded,
		"sources":     state.Selected,
	})

	return result, nil
}

// Duplicate copies a single playlist into a new one named after the
// original with a "(Copy)" suffix, using the same batching as Merge.
func (e *Engine) Duplicate(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) (*BatchResult, error) {
	state := e.store.State()
	playlist, ok := state.Playlist(playlistID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	if err := e.EnsureTracks(ctx, playlistID, progress); err != nil {
		return nil, err
	}

	tracks := e.store.State().Tracks[playlistID].Tracks
	name := playlist.Name + " (Copy)"

	result, err := e.populateNewPlaylist(ctx, name, tracks, progress)
	if err != nil {
		return result, err
	}

	e.record("duplicate", map[string]any{
		"sourceId":    playlistID,
		"playlistId":  result.Playlist.ID,
		"name":        name,
		"tracksAdded": result.TracksAdded,
	})

	return result, nil
}

// populateNewPlaylist creates a playlist and submits tracks to it in
// sequential batches, best-effort.
func (e *Engine) populateNewPlaylist(ctx context.Context, name string, tracks []models.Track, progress chan<- ProgressUpdate) (*BatchResult, error) {
	e.sendProgress(progress, creatingPlaylistUpdate(name))

	var created *models.Playlist
	if e.Mode() == Demo {
		created = &models.Playlist{
			ID:         "local-" + shared.GenerateID(),
			Name:       name,
			OwnerID:    "spotify",
			TrackCount: len(tracks),
		}
	} else {
		user, err := e.currentUser(ctx)
		if err != nil {
			return nil, err
		}

		created, err = e.gateway.CreatePlaylist(ctx, user.ID, name)
		if err != nil {
			return nil, fmt.Errorf("failed to create playlist: %w", err)
		}
	}

	batches := chunkTracks(tracks, e.batchSize)
	result := &BatchResult{
		Playlist:     created,
		TracksTotal:  len(tracks),
		BatchesTotal: len(batches),
	}

	for i, batch := range batches {
		e.sendProgress(progress, batchUpdate(i+1, len(batches), name))

		if e.Mode() != Demo {
			uris := make([]string, 0, len(batch))
			for _, t := range batch {
				uris = append(uris, t.URI())
			}
			if err := e.gateway.AddTracks(ctx, created.ID, uris); err != nil {
				result.Err = fmt.Errorf("batch %d/%d failed: %w", i+1, len(batches), err)
				e.logger.Error("batch submission failed, playlist left partial",
					"playlist", created.ID, "batch", i+1, "total", len(batches), "error", err)
				break
			}
		}

		result.BatchesDone++
		result.TracksAdded += len(batch)
	}

	created.TrackCount = result.TracksAdded

	state := e.store.State()
	e.store.Dispatch(store.SetPlaylists{Playlists: append(state.Playlists, *created)})
	e.store.Dispatch(store.SetTracks{PlaylistID: created.ID, List: models.NewTrackList(tracks[:result.TracksAdded])})

	if e.cacheWritable() {
		if err := e.cache.SetPlaylists(e.store.State().Playlists); err != nil {
			e.logger.Warn("failed to refresh playlist cache", "error", err)
		}
		e.syncTrackCache(created.ID)
	}

	return result, nil
}

func chunkTracks(tracks []models.Track, size int) [][]models.Track {
	if len(tracks) == 0 {
		return nil
	}

	var batches [][]models.Track
	for start := 0; start < len(tracks); start += size {
		end := start + size
		if end > len(tracks) {
			end = len(tracks)
		}
		batches = append(batches, tracks[start:end])
	}

	return batches
}

// Rename changes a playlist's name remotely, then locally.
func (e *Engine) Rename(ctx context.Context, playlistID, name string) error {
	if _, ok := e.store.State().Playlist(playlistID); !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	if name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrInvalidInput)
	}

	if e.Mode() != Demo {
		if err := e.gateway.RenamePlaylist(ctx, playlistID, name); err != nil {
			return fmt.Errorf("rename failed: %w", err)
		}
	}

	e.store.Dispatch(store.RenamePlaylist{PlaylistID: playlistID, Name: name})

	if e.cacheWritable() {
		if err := e.cache.SetPlaylists(e.store.State().Playlists); err != nil {
			e.logger.Warn("failed to refresh playlist cache", "error", err)
		}
	}

	e.record("rename", map[string]string{"playlistId": playlistID, "name": name})

	return nil
}

// Delete unfollows a playlist remotely, then purges it locally.
func (e *Engine) Delete(ctx context.Context, playlistID string) error {
	if _, ok := e.store.State().Playlist(playlistID); !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	if e.Mode() != Demo {
		if err := e.gateway.UnfollowPlaylist(ctx, playlistID); err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
	}

	e.store.Dispatch(store.DeletePlaylist{PlaylistID: playlistID})

	if e.cacheWritable() {
		if err := e.cache.InvalidateTracks(playlistID); err != nil {
			e.logger.Warn("failed to invalidate track cache", "playlist", playlistID, "error", err)
		}
		if err := e.cache.SetPlaylists(e.store.State().Playlists); err != nil {
			e.logger.Warn("failed to refresh playlist cache", "error", err)
		}
	}

	e.record("delete", map[string]string{"playlistId": playlistID})

	return nil
}

// Search looks up catalog tracks. Demo mode searches the sample dataset
// by name substring instead of calling out.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", shared.ErrInvalidInput)
	}

	if e.Mode() == Demo {
		return sample.Search(query, limit), nil
	}

	return e.gateway.SearchTracks(ctx, query, limit)
}

// currentUser fetches and memoizes the authenticated profile.
func (e *Engine) currentUser(ctx context.Context) (*models.User, error) {
	e.mu.Lock()
	cached := e.user
	e.mu.Unlock()

	if cached != nil {
		return cached, nil
	}

	user, err := e.gateway.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	e.mu.Lock()
	e.user = user
	e.mu.Unlock()

	return user, nil
}

// record appends a history entry, best-effort.
func (e *Engine) record(action string, payload any) {
	if e.history == nil || e.cache == nil {
		return
	}

	data, err := shared.MarshalJSON(payload, false)
	if err != nil {
		e.logger.Warn("failed to encode history payload", "action", action, "error", err)
		return
	}

	entry := models.NewHistoryEntry(0, e.cache.SessionID(), action, string(data))
	if err := e.history.Create(entry); err != nil {
		e.logger.Warn("failed to record history", "action", action, "error", err)
	}
}

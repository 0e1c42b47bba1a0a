package store

import (
	"sync"

	"github.com/zayatsoff/spm/internal/models"
)

// LoadState tracks a single playlist's track fetch lifecycle.
type LoadState int

const (
	NotRequested LoadState = iota
	Loading
	Loaded
	FailedFallback
)

// String returns a human readable label for the load state.
func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case FailedFallback:
		return "failed"
	default:
		return "not requested"
	}
}

// State is the full library state. Values are treated as immutable:
// [Reduce] copies what it changes and shares the rest.
type State struct {
	Playlists  []models.Playlist
	Selected   []string
	Tracks     map[string]models.TrackList
	LoadStates map[string]LoadState
}

// NewState returns the empty initial state.
func NewState() State {
	return State{
		Playlists:  []models.Playlist{},
		Selected:   []string{},
		Tracks:     map[string]models.TrackList{},
		LoadStates: map[string]LoadState{},
	}
}

// Playlist looks up a playlist by id.
func (s State) Playlist(id string) (models.Playlist, bool) {
	for _, p := range s.Playlists {
		if p.ID == id {
			return p, true
		}
	}

	return models.Playlist{}, false
}

// IsSelected reports whether the playlist id is in the selection set.
func (s State) IsSelected(id string) bool {
	for _, sel := range s.Selected {
		if sel == id {
			return true
		}
	}

	return false
}

// LoadState returns the track fetch state for a playlist, defaulting to
// [NotRequested] for playlists never fetched.
func (s State) LoadState(id string) LoadState {
	return s.LoadStates[id]
}

// Action is the closed set of state transitions. Each variant carries its
// own typed payload; the reducer handles every variant and ignores
// unknown ones rather than failing.
type Action interface {
	isAction()
}

// SetPlaylists replaces the playlist list. Selection entries, track lists
// and load states for playlists no longer present are pruned.
type SetPlaylists struct {
	Playlists []models.Playlist
}

// ToggleSelection adds the playlist to the selection set, or removes it
// when already selected. Selecting past the limit is a no-op; removal
// preserves the order of the remaining entries.
type ToggleSelection struct {
	PlaylistID string
}

// MarkTracksLoading moves a playlist's load state to [Loading]. The
// orchestrator dispatches it before starting a fetch so re-entrant
// fetches for the same playlist can be refused.
type MarkTracksLoading struct {
	PlaylistID string
}

// SetTracks upserts a playlist's complete track list. Only full lists are
// ever dispatched; partial pages never reach the store. A failed list
// moves the load state to [FailedFallback], anything else to [Loaded].
type SetTracks struct {
	PlaylistID string
	List       models.TrackList
}

// AddTrack appends a track to a playlist's list (optimistic path).
type AddTrack struct {
	PlaylistID string
	Track      models.Track
}

// RemoveTrack removes the first occurrence of a track id from a
// playlist's list (optimistic path).
type RemoveTrack struct {
	PlaylistID string
	TrackID    string
}

// RenamePlaylist updates a playlist's name in place.
type RenamePlaylist struct {
	PlaylistID string
	Name       string
}

// DeletePlaylist removes a playlist and purges its selection entry,
// track list, and load state.
type DeletePlaylist struct {
	PlaylistID string
}

// Reset returns the state to its initial empty value. Used when
// switching between live and demo sessions.
type Reset struct{}

func (SetPlaylists) isAction()      {}
func (ToggleSelection) isAction()   {}
func (MarkTracksLoading) isAction() {}
func (SetTracks) isAction()         {}
func (AddTrack) isAction()          {}
func (RemoveTrack) isAction()       {}
func (RenamePlaylist) isAction()    {}
func (DeletePlaylist) isAction()    {}
func (Reset) isAction()             {}

// Reduce applies an action to a state and returns the next state. It is
// total: no action can fail, and unknown actions return the state
// unchanged. selectionLimit caps how many playlists may be selected.
func Reduce(s State, action Action, selectionLimit int) State {
	switch a := action.(type) {
	case SetPlaylists:
		return reduceSetPlaylists(s, a)
	case ToggleSelection:
		return reduceToggleSelection(s, a, selectionLimit)
	case MarkTracksLoading:
		next := s
		next.LoadStates = cloneLoadStates(s.LoadStates)
		next.LoadStates[a.PlaylistID] = Loading
		return next
	case SetTracks:
		next := s
		next.Tracks = cloneTracks(s.Tracks)
		next.Tracks[a.PlaylistID] = a.List
		next.LoadStates = cloneLoadStates(s.LoadStates)
		if a.List.Status == models.TrackListFailed {
			next.LoadStates[a.PlaylistID] = FailedFallback
		} else {
			next.LoadStates[a.PlaylistID] = Loaded
		}
		return next
	case AddTrack:
		return reduceAddTrack(s, a)
	case RemoveTrack:
		return reduceRemoveTrack(s, a)
	case RenamePlaylist:
		return reduceRename(s, a)
	case DeletePlaylist:
		return reduceDelete(s, a)
	case Reset:
		return NewState()
	default:
		return s
	}
}

func reduceSetPlaylists(s State, a SetPlaylists) State {
	next := s
	next.Playlists = append([]models.Playlist{}, a.Playlists...)

	known := make(map[string]bool, len(a.Playlists))
	for _, p := range a.Playlists {
		known[p.ID] = true
	}

	next.Selected = []string{}
	for _, id := range s.Selected {
		if known[id] {
			next.Selected = append(next.Selected, id)
		}
	}

	next.Tracks = map[string]models.TrackList{}
	next.LoadStates = map[string]LoadState{}
	for id, list := range s.Tracks {
		if known[id] {
			next.Tracks[id] = list
		}
	}
	for id, ls := range s.LoadStates {
		if known[id] {
			next.LoadStates[id] = ls
		}
	}

	return next
}

func reduceToggleSelection(s State, a ToggleSelection, limit int) State {
	next := s

	if s.IsSelected(a.PlaylistID) {
		next.Selected = []string{}
		for _, id := range s.Selected {
			if id != a.PlaylistID {
				next.Selected = append(next.Selected, id)
			}
		}
		return next
	}

	if limit > 0 && len(s.Selected) >= limit {
		return s
	}

	if _, ok := s.Playlist(a.PlaylistID); !ok {
		return s
	}

	next.Selected = append(append([]string{}, s.Selected...), a.PlaylistID)

	return next
}

func reduceAddTrack(s State, a AddTrack) State {
	list, ok := s.Tracks[a.PlaylistID]
	if !ok {
		return s
	}

	next := s
	next.Tracks = cloneTracks(s.Tracks)
	next.Tracks[a.PlaylistID] = models.NewTrackList(append(append([]models.Track{}, list.Tracks...), a.Track))
	next.Playlists = adjustTrackCount(s.Playlists, a.PlaylistID, 1)

	return next
}

func reduceRemoveTrack(s State, a RemoveTrack) State {
	list, ok := s.Tracks[a.PlaylistID]
	if !ok {
		return s
	}

	tracks := []models.Track{}
	removed := false
	for _, t := range list.Tracks {
		if !removed && t.ID == a.TrackID {
			removed = true
			continue
		}
		tracks = append(tracks, t)
	}

	if !removed {
		return s
	}

	next := s
	next.Tracks = cloneTracks(s.Tracks)
	next.Tracks[a.PlaylistID] = models.NewTrackList(tracks)
	next.Playlists = adjustTrackCount(s.Playlists, a.PlaylistID, -1)

	return next
}

func reduceRename(s State, a RenamePlaylist) State {
	next := s
	next.Playlists = append([]models.Playlist{}, s.Playlists...)
	for i, p := range next.Playlists {
		if p.ID == a.PlaylistID {
			next.Playlists[i].Name = a.Name
		}
	}

	return next
}

func reduceDelete(s State, a DeletePlaylist) State {
	next := s

	next.Playlists = []models.Playlist{}
	for _, p := range s.Playlists {
		if p.ID != a.PlaylistID {
			next.Playlists = append(next.Playlists, p)
		}
	}

	next.Selected = []string{}
	for _, id := range s.Selected {
		if id != a.PlaylistID {
			next.Selected = append(next.Selected, id)
		}
	}

	next.Tracks = cloneTracks(s.Tracks)
	delete(next.Tracks, a.PlaylistID)

	next.LoadStates = cloneLoadStates(s.LoadStates)
	delete(next.LoadStates, a.PlaylistID)

	return next
}

func adjustTrackCount(playlists []models.Playlist, id string, delta int) []models.Playlist {
	out := append([]models.Playlist{}, playlists...)
	for i, p := range out {
		if p.ID == id {
			out[i].TrackCount += delta
			if out[i].TrackCount < 0 {
				out[i].TrackCount = 0
			}
		}
	}

	return out
}

func cloneTracks(m map[string]models.TrackList) map[string]models.TrackList {
	out := make(map[string]models.TrackList, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

func cloneLoadStates(m map[string]LoadState) map[string]LoadState {
	out := make(map[string]LoadState, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

// Store wraps the reducer with a mutex so multiple goroutines (CLI
// command, TUI event loop, fetch callbacks) can share one state.
type Store struct {
	mu             sync.RWMutex
	state          State
	selectionLimit int
}

// New creates a Store with the given selection limit.
func New(selectionLimit int) *Store {
	return &Store{state: NewState(), selectionLimit: selectionLimit}
}

// Dispatch applies an action and returns the resulting state snapshot.
func (st *Store) Dispatch(action Action) State {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.state = Reduce(st.state, action, st.selectionLimit)

	return st.state
}

// State returns the current state snapshot.
func (st *Store) State() State {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return st.state
}

// SelectionLimit returns the configured selection cap.
func (st *Store) SelectionLimit() int {
	return st.selectionLimit
}

package store

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/zayatsoff/spm/internal/models"
)

// UnionTracks derives the de-duplicated union of all selected playlists'
// track lists. Each track id appears at most once; order is first-seen
// order scanning playlists in selection order, then each playlist's own
// track order. The view is derived on every call and never stored.
func UnionTracks(s State) []models.Track {
	seen := mapset.NewThreadUnsafeSet[string]()
	union := []models.Track{}

	for _, id := range s.Selected {
		list, ok := s.Tracks[id]
		if !ok {
			continue
		}
		for _, t := range list.Tracks {
			if seen.Add(t.ID) {
				union = append(union, t)
			}
		}
	}

	return union
}

// TrackSources maps each track id in the union view to the selected
// playlist ids that contain it, in selection order. The board view uses
// it to render membership columns.
func TrackSources(s State) map[string][]string {
	sources := map[string][]string{}

	for _, id := range s.Selected {
		list, ok := s.Tracks[id]
		if !ok {
			continue
		}
		seen := mapset.NewThreadUnsafeSet[string]()
		for _, t := range list.Tracks {
			if seen.Add(t.ID) {
				sources[t.ID] = append(sources[t.ID], id)
			}
		}
	}

	return sources
}

// Package sample bundles the fixture dataset used when the remote
// gateway denies access or demo mode is requested. The data mirrors a
// handful of well known editorial playlists so the board stays usable
// offline.
package sample

import (
	"strings"

	"github.com/zayatsoff/spm/internal/models"
)

func track(id, name string, artists ...string) models.Track {
	t := models.Track{ID: id, Name: name}
	for _, a := range artists {
		t.Artists = append(t.Artists, models.Artist{Name: a})
	}

	return t
}

// Playlists returns the fixed demo playlist list. Callers receive fresh
// slices and may mutate them freely.
func Playlists() []models.Playlist {
	return []models.Playlist{
		{ID: "sample-top-hits", Name: "Today's Top Hits", OwnerID: "spotify", TrackCount: 6},
		{ID: "sample-rapcaviar", Name: "RapCaviar", OwnerID: "spotify", TrackCount: 6},
		{ID: "sample-rock-classics", Name: "Rock Classics", OwnerID: "spotify", TrackCount: 6},
		{ID: "sample-lofi-beats", Name: "lofi beats", OwnerID: "spotify", TrackCount: 6},
	}
}

// Tracks returns the demo track list for a sample playlist id, or an
// empty slice for ids outside the fixture set.
func Tracks(playlistID string) []models.Track {
	switch playlistID {
	case "sample-top-hits":
		return []models.Track{
			track("sample-t1", "Blinding Lights", "The Weeknd"),
			track("sample-t2", "Levitating", "Dua Lipa"),
			track("sample-t3", "Watermelon Sugar", "Harry Styles"),
			track("sample-t4", "good 4 u", "Olivia Rodrigo"),
			track("sample-t5", "Peaches", "Justin Bieber"),
			track("sample-t6", "Save Your Tears", "The Weeknd"),
		}
	case "sample-rapcaviar":
		return []models.Track{
			track("sample-t7", "God's Plan", "Drake"),
			track("sample-t8", "HUMBLE.", "Kendrick Lamar"),
			track("sample-t9", "SICKO MODE", "Travis Scott"),
			track("sample-t10", "Circles", "Post Malone"),
			track("sample-t11", "Lose Yourself", "Eminem"),
			track("sample-t12", "Stronger", "Kanye West"),
		}
	case "sample-rock-classics":
		return []models.Track{
			track("sample-t13", "Bohemian Rhapsody", "Queen"),
			track("sample-t14", "Hotel California", "Eagles"),
			track("sample-t15", "Sweet Child o' Mine", "Guns N' Roses"),
			track("sample-t16", "Back in Black", "AC/DC"),
			track("sample-t17", "Stairway to Heaven", "Led Zeppelin"),
			track("sample-t18", "Smoke on the Water", "Deep Purple"),
		}
	case "sample-lofi-beats":
		return []models.Track{
			track("sample-t19", "The Less I Know The Better", "Tame Impala"),
			track("sample-t20", "Do I Wanna Know?", "Arctic Monkeys"),
			track("sample-t21", "Electric Feel", "MGMT"),
			track("sample-t22", "The Sound", "The 1975"),
			track("sample-t23", "Mr. Brightside", "The Killers"),
			track("sample-t24", "Dog Days Are Over", "Florence + The Machine"),
		}
	default:
		return []models.Track{}
	}
}

// TrackList returns the demo tracks wrapped in a tagged list.
func TrackList(playlistID string) models.TrackList {
	return models.NewTrackList(Tracks(playlistID))
}

// Search scans the fixture tracks for a case-insensitive name or artist
// substring match, standing in for catalog search in demo mode.
func Search(query string, limit int) []models.Track {
	if limit <= 0 {
		limit = 20
	}

	q := strings.ToLower(query)
	results := []models.Track{}

	for _, p := range Playlists() {
		for _, t := range Tracks(p.ID) {
			if len(results) >= limit {
				return results
			}
			if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.ArtistNames()), q) {
				results = append(results, t)
			}
		}
	}

	return results
}

package models

// Image represents a playlist or album artwork at a given resolution.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// Artist is the minimal artist projection carried on a track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Playlist is the summary view of a playlist as returned by the library
// listing endpoint. TrackCount reflects the server-side total, which may
// diverge from the cached track list until the next fetch.
type Playlist struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Images     []Image `json:"images,omitempty"`
	OwnerID    string  `json:"ownerId"`
	TrackCount int     `json:"trackCount"`
}

// Image returns the URL of the first playlist image, or an empty string
// when the playlist has no artwork.
func (p Playlist) Image() string {
	if len(p.Images) == 0 {
		return ""
	}

	return p.Images[0].URL
}

// Track is a single playlist item.
type Track struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Artists       []Artist `json:"artists"`
	AlbumImageURL string   `json:"albumImageUrl,omitempty"`
	PreviewURL    string   `json:"previewUrl,omitempty"`
}

// URI returns the Spotify track URI used by mutation endpoints.
func (t Track) URI() string {
	return "spotify:track:" + t.ID
}

// PrimaryArtist returns the first artist's name, or an empty string for
// tracks with no artist data.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}

	return t.Artists[0].Name
}

// ArtistNames joins all artist names with a comma separator.
func (t Track) ArtistNames() string {
	names := ""
	for i, a := range t.Artists {
		if i > 0 {
			names += ", "
		}

		names += a.Name
	}

	return names
}

// PlaylistExport pairs a playlist with its complete track listing for
// export and formatting.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}

// User is the authenticated profile returned by the /me endpoint.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
}

// TrackListStatus tags a TrackList with how its contents were obtained.
type TrackListStatus string

const (
	// TrackListOK marks a list fetched successfully from the API or cache.
	TrackListOK TrackListStatus = "ok"
	// TrackListEmpty marks a playlist confirmed to have no tracks.
	TrackListEmpty TrackListStatus = "empty"
	// TrackListFailed marks a list substituted after a fetch failure.
	// Its tracks are a fallback and must not be written back to the cache.
	TrackListFailed TrackListStatus = "failed"
)

// TrackList is a tagged track collection for a single playlist. The status
// distinguishes a genuinely empty playlist from a failed fetch, so the
// sync layer never caches fallback data as real.
type TrackList struct {
	Status TrackListStatus `json:"status"`
	Tracks []Track         `json:"tracks"`
}

// NewTrackList builds a TrackList from fetched tracks, tagging empty
// results as TrackListEmpty.
func NewTrackList(tracks []Track) TrackList {
	if len(tracks) == 0 {
		return TrackList{Status: TrackListEmpty, Tracks: []Track{}}
	}

	return TrackList{Status: TrackListOK, Tracks: tracks}
}

// FailedTrackList wraps fallback tracks after a fetch failure.
func FailedTrackList(fallback []Track) TrackList {
	if fallback == nil {
		fallback = []Track{}
	}

	return TrackList{Status: TrackListFailed, Tracks: fallback}
}

// Cacheable reports whether the list may be persisted to the session cache.
func (l TrackList) Cacheable() bool {
	return l.Status != TrackListFailed
}

// UndoKind identifies the type of mutation recorded in an UndoEntry.
type UndoKind string

const (
	UndoAdd    UndoKind = "add"
	UndoRemove UndoKind = "remove"
)

// UndoEntry records a single reversible track mutation.
type UndoEntry struct {
	Kind       UndoKind `json:"kind"`
	PlaylistID string   `json:"playlistId"`
	Track      Track    `json:"track"`
}

// Inverse returns the entry that reverses this mutation.
func (e UndoEntry) Inverse() UndoEntry {
	inv := e
	if e.Kind == UndoAdd {
		inv.Kind = UndoRemove
	} else {
		inv.Kind = UndoAdd
	}

	return inv
}

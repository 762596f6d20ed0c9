package models

// DefaultPlaylistName is shown when a bookmark's context name cannot be resolved.
const DefaultPlaylistName = "Unknown Playlist"

// Bookmark is a saved playback position bound to a chord key.
//
// A bookmark with an empty TrackRef is an empty slot and cannot be loaded.
type Bookmark struct {
	Slot         int
	Key          string
	PlaylistRef  string
	PlaylistName string
	TrackRef     string
	PositionMS   int
}

// Empty reports whether the slot holds no track.
func (b Bookmark) Empty() bool {
	return b.TrackRef == ""
}

// PlayRequest builds the request that resumes this bookmark: the saved context at the saved
// track, or the bare track when there is no context.
func (b Bookmark) PlayRequest() PlayRequest {
	if b.PlaylistRef != "" {
		return PlayRequest{ContextURI: b.PlaylistRef, OffsetTrack: TrackURI(b.TrackRef)}
	}
	return PlayRequest{URIs: []string{TrackURI(b.TrackRef)}}
}

package models

import "strings"

// RepeatMode is the remote player's repeat setting.
type RepeatMode string

const (
	RepeatTrack   RepeatMode = "track"
	RepeatContext RepeatMode = "context"
	RepeatOff     RepeatMode = "off"
)

// Next returns the mode that follows m in the cycle track -> context -> off -> track.
// Unknown values restart the cycle at track.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatTrack:
		return RepeatContext
	case RepeatContext:
		return RepeatOff
	default:
		return RepeatTrack
	}
}

// ParseRepeatMode maps a remote repeat state string onto a [RepeatMode].
func ParseRepeatMode(s string) RepeatMode {
	switch RepeatMode(strings.ToLower(strings.TrimSpace(s))) {
	case RepeatTrack:
		return RepeatTrack
	case RepeatContext:
		return RepeatContext
	default:
		return RepeatOff
	}
}

// Track is the subset of track metadata the daemon displays and stores.
type Track struct {
	ID        string
	URI       string
	Name      string
	Album     string
	Artists   []string
	ArtistIDs []string
}

// ArtistNames joins the credited artists with commas.
func (t *Track) ArtistNames() string {
	if t == nil {
		return ""
	}
	return strings.Join(t.Artists, ", ")
}

// FirstArtist returns the first credited artist's ID and name, if any.
func (t *Track) FirstArtist() (id, name string) {
	if t == nil {
		return "", ""
	}
	if len(t.ArtistIDs) > 0 {
		id = t.ArtistIDs[0]
	}
	if len(t.Artists) > 0 {
		name = t.Artists[0]
	}
	return id, name
}

// Snapshot is the full playback state at one instant.
//
// It is never cached beyond a single handler invocation.
type Snapshot struct {
	IsPlaying  bool
	ProgressMS int
	Repeat     RepeatMode
	Shuffle    bool
	ContextRef string
	DeviceID   string
	Track      *Track
}

// HasTrack reports whether a track is loaded in the player.
func (s *Snapshot) HasTrack() bool {
	return s != nil && s.Track != nil && s.Track.ID != ""
}

// TrackContext is the "currently playing" read: context, track, progress and play flag.
type TrackContext struct {
	IsPlaying  bool
	ProgressMS int
	ContextRef string
	Track      *Track
}

// HasTrack reports whether a track is loaded in the player.
func (c *TrackContext) HasTrack() bool {
	return c != nil && c.Track != nil && c.Track.ID != ""
}

// PlaylistID returns the bare playlist ID when the context is a playlist.
func (c *TrackContext) PlaylistID() (string, bool) {
	if c == nil {
		return "", false
	}
	return PlaylistID(c.ContextRef)
}

// Device is a playback target known to the remote service.
type Device struct {
	ID         string
	Name       string
	Type       string
	Active     bool
	Restricted bool
}

// Album is an album credited to an artist.
type Album struct {
	ID   string
	Name string
}

// TrackPage is one page of a playlist's items.
type TrackPage struct {
	Tracks []Track
	Offset int
	Next   bool
}

// PlayRequest describes what the player should start.
//
// With a ContextURI the player starts in that context at OffsetTrack.
// Without one, URIs are played as a bare queue. A zero request resumes playback.
type PlayRequest struct {
	ContextURI  string
	OffsetTrack string
	URIs        []string
}

// Empty reports whether the request is a plain resume.
func (r PlayRequest) Empty() bool {
	return r.ContextURI == "" && len(r.URIs) == 0
}

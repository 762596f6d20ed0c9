package models

import (
	"net/url"
	"strings"
)

// ParseID reduces a reference to its bare ID.
//
// Accepts a bare ID, a "spotify:<kind>:<id>" URI or an open.spotify.com URL.
func ParseID(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	if strings.HasPrefix(ref, "spotify:") {
		parts := strings.Split(ref, ":")
		return parts[len(parts)-1]
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		u, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		return segments[len(segments)-1]
	}

	return ref
}

// RefKind returns the kind segment of a reference ("playlist", "album", ...), or "" for bare IDs.
func RefKind(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "spotify:") {
		parts := strings.Split(ref, ":")
		if len(parts) >= 3 {
			return parts[len(parts)-2]
		}
		return ""
	}

	if u, err := url.Parse(ref); err == nil && u.Host != "" {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segments) >= 2 {
			return segments[len(segments)-2]
		}
	}
	return ""
}

// PlaylistID returns the bare playlist ID when ref points at a playlist.
func PlaylistID(ref string) (string, bool) {
	if RefKind(ref) != "playlist" {
		return "", false
	}
	id := ParseID(ref)
	return id, id != ""
}

// TrackURI builds a track URI from a bare ID or passes an existing URI through.
func TrackURI(ref string) string {
	return uriFor("track", ref)
}

// PlaylistURI builds a playlist URI from a bare ID or passes an existing URI through.
func PlaylistURI(ref string) string {
	return uriFor("playlist", ref)
}

func uriFor(kind, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "spotify:") {
		return ref
	}
	return "spotify:" + kind + ":" + ParseID(ref)
}

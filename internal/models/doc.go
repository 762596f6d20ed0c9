// Package models defines the domain entities shared by the spotkey daemon.
//
// The package contains two categories of types:
//
// 1. Playback values read from or sent to the remote service:
//   - [Snapshot] : full playback state (device, repeat, shuffle, context, track)
//   - [TrackContext] : the lighter "currently playing" read
//   - [Track], [Album], [Device], [TrackPage] : catalog and device data
//   - [PlayRequest] : what to start playing
//
// 2. Local state:
//   - [Bookmark] : a saved (context, track, offset) slot bound to a chord key
//   - [HistoryEntry] : a persisted journal row of track changes and bookmark use
//
// Persistent entities implement [Model]; [Repository] is the append-only access contract for them.
package models

// Package tasks implements the command handlers bound to hotkeys.
//
// # Handlers
//
// [Controller] methods each map one chord to one or a few remote calls:
//
//  1. Playback: [Controller.TogglePlayback], [Controller.Next], [Controller.Previous],
//     [Controller.CycleRepeat], [Controller.ToggleShuffle], [Controller.SeekStart] and
//     [Controller.SeekRelative].
//  2. Library: [Controller.LikeTrack] and [Controller.UnlikeTrack] refresh the indicator glyph.
//  3. Playlists: the "playlist 1" target ([Controller.SetTargetPlaylist],
//     [Controller.AddToTargetPlaylist], [Controller.MoveToTargetPlaylist]), the discards flow
//     ([Controller.Discard]) and [Controller.RemoveFromCurrentPlaylist].
//  4. [Controller.MakeDiscographyPlaylist] collects every track credited to the playing artist
//     into a new playlist.
//
// Handlers never change local state before the remote outcome is known. They return errors
// to the binding wrapper built by [Controller.Bindings], which logs them; a failed handler
// never stops the dispatch loop.
//
// # Progress Reporting
//
// The discography builder reports progress through a non-blocking [ProgressUpdate] channel,
// which may be nil.
package tasks

package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/spotkey/internal/hotkeys"
	"github.com/desertthunder/spotkey/internal/shared"
)

// Bindings returns the fixed command chords under prefix.
func (c *Controller) Bindings(prefix string) []hotkeys.Binding {
	prefix = strings.TrimSpace(prefix)
	chord := func(key string) string {
		if prefix == "" {
			return key
		}
		return fmt.Sprintf("%s + %s", prefix, key)
	}

	return []hotkeys.Binding{
		{Chord: chord("home"), Name: "toggle playback", Handler: c.handle("toggle playback", c.TogglePlayback)},
		{Chord: chord("s"), Name: "like track", Handler: c.handle("like track", c.LikeTrack)},
		{Chord: chord("u"), Name: "unlike track", Handler: c.handle("unlike track", c.UnlikeTrack)},
		{Chord: chord("page_up"), Name: "previous track", Handler: c.handle("previous track", c.Previous)},
		{Chord: chord("page_down"), Name: "next track", Handler: c.handle("next track", c.Next)},
		{Chord: chord("r"), Name: "cycle repeat", Handler: c.handle("cycle repeat", c.CycleRepeat)},
		{Chord: chord("f"), Name: "toggle shuffle", Handler: c.handle("toggle shuffle", c.ToggleShuffle)},
		{Chord: chord("insert"), Name: "seek to start", Handler: c.handle("seek to start", c.SeekStart)},
		{Chord: chord("left"), Name: "seek back", Handler: c.handle("seek back", c.SeekBack)},
		{Chord: chord("right"), Name: "seek forward", Handler: c.handle("seek forward", c.SeekForward)},
		{Chord: chord("d"), Name: "remove from playlist", Handler: c.handle("remove from playlist", c.RemoveFromCurrentPlaylist)},
		{Chord: chord("x"), Name: "discard track", Handler: c.handle("discard track", c.Discard)},
		{Chord: chord("1"), Name: "set playlist 1", Handler: c.handle("set playlist 1", c.SetTargetPlaylist)},
		{Chord: chord("a"), Name: "add to playlist 1", Handler: c.handle("add to playlist 1", func(ctx context.Context) error {
			_, err := c.AddToTargetPlaylist(ctx)
			return err
		})},
		{Chord: chord("m"), Name: "move to playlist 1", Handler: c.handle("move to playlist 1", c.MoveToTargetPlaylist)},
		{Chord: chord("c"), Name: "discography playlist", Handler: c.handle("discography playlist", c.MakeDiscographyPlaylist)},
		{Chord: chord("i"), Name: "print information", Handler: c.handle("print information", func(ctx context.Context) error {
			_, err := c.PrintInformation(ctx)
			return err
		})},
		{Chord: chord("q"), Name: "exit", Handler: c.handle("exit", c.Exit)},
	}
}

// handle wraps fn with local error logging. Missing context is routine and logged at info.
func (c *Controller) handle(name string, fn func(context.Context) error) hotkeys.Handler {
	return func(ctx context.Context) {
		err := fn(ctx)
		switch {
		case err == nil:
		case errors.Is(err, shared.ErrNoContext), errors.Is(err, shared.ErrNotAPlaylist):
			c.logger.Info(name+": nothing to do", "reason", err)
		default:
			c.logger.Error(name+" failed", "error", err)
		}
	}
}

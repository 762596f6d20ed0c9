package commands

import (
	"context"

	"github.com/desertthunder/spotkey/internal/bookmarks"
	"github.com/desertthunder/spotkey/internal/formatter"
	"github.com/desertthunder/spotkey/internal/shared"
	"github.com/desertthunder/spotkey/internal/store"
	"github.com/urfave/cli/v3"
)

// chordList is a registrar that accepts every chord without grabbing keys.
type chordList struct {
	chords []string
}

func (l *chordList) Register(chord string, _ func(context.Context)) bool {
	l.chords = append(l.chords, chord)
	return true
}

func (l *chordList) Unregister(string) bool { return true }

// offlineBookmarks reads the bookmark slots from st without touching the remote.
func (r *Runner) offlineBookmarks(ctx context.Context, st *store.File, config *shared.Config) *bookmarks.Manager {
	m := bookmarks.NewManager(bookmarks.Options{
		Store:     st,
		Registrar: &chordList{},
		Logger:    r.logger,
		Prefix:    config.Hotkeys.Prefix,
	})
	m.Reload(ctx)
	return m
}

// Bookmarks prints every bookmark slot.
func (r *Runner) Bookmarks(ctx context.Context, cmd *cli.Command) error {
	st, config, err := r.openStore(cmd.String("config"))
	if err != nil {
		return err
	}

	data, err := formatter.Bookmarks(r.offlineBookmarks(ctx, st, config).List(), cmd.String("format"))
	if err != nil {
		return err
	}
	return r.emit(cmd, data)
}

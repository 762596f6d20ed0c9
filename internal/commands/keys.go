package commands

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotkey/internal/hotkeys"
	"github.com/desertthunder/spotkey/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Keys lists the command chords followed by the bookmark chords.
func (r *Runner) Keys(ctx context.Context, cmd *cli.Command) error {
	st, config, err := r.openStore(cmd.String("config"))
	if err != nil {
		return err
	}

	controller := tasks.NewController(tasks.Options{Logger: r.logger})
	bindings := controller.Bindings(config.Hotkeys.Prefix)

	manager := r.offlineBookmarks(ctx, st, config)
	seen := make(map[string]bool)
	for _, b := range manager.List() {
		if b.Key == "" || seen[b.Key] {
			continue
		}
		seen[b.Key] = true
		bindings = append(bindings,
			hotkeys.Binding{Chord: manager.SaveChord(b.Key), Name: fmt.Sprintf("save bookmark %d", b.Slot)},
			hotkeys.Binding{Chord: manager.LoadChord(b.Key), Name: fmt.Sprintf("load bookmark %d", b.Slot)},
		)
	}

	if cmd.Bool("json") {
		type chordJSON struct {
			Chord string `json:"chord"`
			Name  string `json:"name"`
		}
		out := make([]chordJSON, len(bindings))
		for i, b := range bindings {
			out[i] = chordJSON{b.Chord, b.Name}
		}
		return r.writeJSON(out, true)
	}

	r.writePlainHeader("spotkey chords")
	return r.writePlain("%s", hotkeys.Describe(bindings))
}

package commands

import (
	"context"
	"time"

	"github.com/desertthunder/spotkey/internal/formatter"
	"github.com/desertthunder/spotkey/internal/repositories"
	"github.com/desertthunder/spotkey/internal/shared"
	"github.com/urfave/cli/v3"
)

// History prints the listening journal, or the most played tracks with --top.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	_, config, err := r.openStore(cmd.String("config"))
	if err != nil {
		return err
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	repo := repositories.NewHistoryRepository(db)

	var data []byte
	if cmd.Bool("top") {
		counts, err := repo.PlayCounts(cmd.Int("limit"))
		if err != nil {
			return err
		}
		data, err = formatter.PlayCounts(counts, cmd.String("format"))
		if err != nil {
			return err
		}
		return r.emit(cmd, data)
	}

	criteria := map[string]any{
		"kind":  cmd.String("kind"),
		"limit": cmd.Int("limit"),
	}
	if since := cmd.Duration("since"); since > 0 {
		criteria["since"] = time.Now().Add(-since)
	}

	entries, err := repo.List(criteria)
	if err != nil {
		return err
	}
	r.logger.Debug("history loaded", "rows", len(entries))

	data, err = formatter.History(entries, cmd.String("format"))
	if err != nil {
		return err
	}
	return r.emit(cmd, data)
}

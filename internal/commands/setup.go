package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/spotkey/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the template when it is missing, asks for missing
// required values and migrates the history database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrPersistence, err)
		}
		r.logger.Info("config file created", "path", configPath)
	}

	st, config, err := r.openStore(configPath)
	if err != nil {
		return err
	}

	if !cmd.Bool("no-prompt") {
		if err := r.ensureSettings(st); err != nil {
			return err
		}
	} else if missing := shared.MissingSettings(st); len(missing) > 0 {
		r.logger.Warn("required settings missing", "count", len(missing))
	}

	r.logger.Info("initializing database", "path", config.Database.Path)
	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := shared.AppliedVersions(db)
	if err != nil {
		return err
	}

	r.writePlainHeader("spotkey setup")
	r.writePlain("Config:     %s\n", configPath)
	r.writePlain("Database:   %s\n", config.Database.Path)
	r.writePlain("Migrations: %d applied\n", len(applied))
	if config.Credentials.Token() == nil {
		r.writePlainln("Next: run `spotkey auth` to connect your Spotify account.")
	}
	return nil
}

// Package commands defines the spotkey CLI: a [Runner] holding shared dependencies and one
// builder per command.
package commands

import (
	"github.com/desertthunder/spotkey/internal/formatter"
	"github.com/desertthunder/spotkey/internal/shared"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   shared.DefaultConfigPath(),
		Sources: cli.EnvVars("SPOTKEY_CONFIG"),
	}
}

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (table, csv, json, markdown)",
			Value:   formatter.FormatTable,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to a file instead of stdout",
		},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Also write logs to a rotating file",
		},
		&cli.StringFlag{
			Name:  "sinks",
			Usage: "Comma separated status indicator sinks (log, terminal, socket); overrides the config",
		},
	}
}

// runCommand starts the hotkey daemon.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Start the hotkey daemon",
		Flags:  runFlags(),
		Action: r.Run,
	}
}

// setupCommand creates the configuration file and the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the configuration file, prompt for missing values and migrate the database",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "no-prompt",
				Usage: "Skip interactive prompts",
			},
		},
		Action: r.Setup,
	}
}

// authCommand runs the Spotify OAuth2 flow and stores the token.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize spotkey with Spotify",
		Flags: []cli.Flag{
			configFlag(),
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: defaultAuthTimeout,
			},
		},
		Action: r.Auth,
	}
}

// bookmarksCommand lists the bookmark slots.
func bookmarksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "bookmarks",
		Aliases: []string{"bm"},
		Usage:   "List bookmark slots",
		Flags:   append([]cli.Flag{configFlag()}, formatFlags()...),
		Action:  r.Bookmarks,
	}
}

// historyCommand reads the listening journal.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show the local listening journal",
		Flags: append([]cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Only show entries of this kind (track_change, bookmark_save, bookmark_load)",
			},
			&cli.DurationFlag{
				Name:  "since",
				Usage: "Only show entries newer than this",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of rows",
				Value:   50,
			},
			&cli.BoolFlag{
				Name:  "top",
				Usage: "Show the most played tracks instead",
			},
		}, formatFlags()...),
		Action: r.History,
	}
}

// keysCommand prints every chord the daemon binds.
func keysCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "keys",
		Usage:  "List hotkey chords",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Keys,
	}
}

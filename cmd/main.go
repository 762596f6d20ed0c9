package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/spotkey/internal/commands"
	"github.com/desertthunder/spotkey/internal/hotkeys"
	"github.com/desertthunder/spotkey/internal/hotkeys/system"
	"github.com/desertthunder/spotkey/internal/shared"
	"github.com/joho/godotenv"
	"golang.design/x/hotkey/mainthread"
)

// exitRequested is the status used when the exit chord stops the daemon.
const exitRequested = 3

func main() {
	mainthread.Init(run)
}

func run() {
	logger := shared.NewLogger(nil)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}

	runner := commands.NewRunner(commands.RunnerOpts{
		Logger:  logger,
		Backend: func() hotkeys.Backend { return system.New() },
	})
	app := runner.App("0.1.0")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrExitRequested):
			stop()
			os.Exit(exitRequested)
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented", "error", err)
		default:
			stop()
			logger.Fatalf("application error: %v", err)
		}
	}
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotkey/internal/bookmarks"
	"github.com/desertthunder/spotkey/internal/hotkeys"
	"github.com/desertthunder/spotkey/internal/indicator"
	"github.com/desertthunder/spotkey/internal/poll"
	"github.com/desertthunder/spotkey/internal/repositories"
	"github.com/desertthunder/spotkey/internal/server"
	"github.com/desertthunder/spotkey/internal/shared"
	"github.com/desertthunder/spotkey/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// sinks is the set of status indicators selected for one run.
type sinks struct {
	all      indicator.Multi
	terminal *indicator.Terminal
	socket   *indicator.Socket
}

func newSinks(names []string, logger *log.Logger) (sinks, error) {
	var s sinks
	for _, name := range names {
		switch name {
		case "log":
			s.all = append(s.all, indicator.NewLog(shared.WithLogger(logger, "component", "indicator")))
		case "terminal":
			s.terminal = indicator.NewTerminal()
			s.all = append(s.all, s.terminal)
		case "socket":
			s.socket = indicator.NewSocket(shared.WithLogger(logger, "component", "socket"))
			s.all = append(s.all, s.socket)
		default:
			return s, fmt.Errorf("%w: unknown indicator sink %q", shared.ErrInvalidConfig, name)
		}
	}
	return s, nil
}

// Run starts the daemon: hotkeys, bookmarks, the keepalive and track loops, the status
// indicators and the config watcher. It returns [shared.ErrExitRequested] when the exit chord
// was pressed and nil on SIGINT/SIGTERM.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	st, config, err := r.openStore(cmd.String("config"))
	if err != nil {
		return err
	}
	if err := r.ensureSettings(st); err != nil {
		return err
	}
	if config, err = shared.LoadConfig(st); err != nil {
		r.logger.Warn("using defaults for invalid settings", "error", err)
	}

	sinkNames := config.Indicator.SinkList()
	if v := cmd.String("sinks"); v != "" {
		sinkNames = shared.IndicatorConfig{Sinks: v}.SinkList()
	}

	logger, closeLog := r.daemonLogger(cmd, sinkNames)
	defer closeLog()

	out, err := newSinks(sinkNames, logger)
	if err != nil {
		return err
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	journal := repositories.NewJournal(repositories.NewHistoryRepository(db))

	svc, err := r.newSpotifyService(config, st)
	if err != nil {
		return err
	}
	if err := r.connect(ctx, config, st, svc, logger); err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	if r.backend == nil {
		return fmt.Errorf("%w: no hotkey backend", shared.ErrNotImplemented)
	}
	backend := r.backend()
	defer backend.Close()
	table := hotkeys.NewTable(backend, shared.WithLogger(logger, "component", "hotkeys"), config.Hotkeys.FollowUpWindow)

	state := poll.NewState(config.Poll.IdleThreshold)
	loop := poll.NewLoop(poll.Options{
		Remote:            svc,
		State:             state,
		Indicator:         out.all,
		Logger:            shared.WithLogger(logger, "component", "poll"),
		Journal:           journal,
		KeepaliveInterval: config.Poll.KeepaliveInterval,
		TrackInterval:     config.Poll.TrackInterval,
		WiggleMS:          config.Poll.WiggleMS,
		WigglePause:       config.Poll.WigglePause,
	})

	controller := tasks.NewController(tasks.Options{
		Remote:    svc,
		Store:     st,
		Playback:  state,
		Refresher: loop,
		Indicator: out.all,
		Logger:    shared.WithLogger(logger, "component", "tasks"),
		User:      config.User,
		Quit:      func() { cancel(shared.ErrExitRequested) },
		Discography: tasks.DiscographyOpts{
			RateLimit: config.Server.RequestsPerSecond,
		},
	})
	if failed := table.RegisterAll(controller.Bindings(config.Hotkeys.Prefix)); len(failed) > 0 {
		logger.Warn("some command chords could not be registered", "chords", strings.Join(failed, "; "))
	}

	manager := bookmarks.NewManager(bookmarks.Options{
		Remote:          svc,
		Store:           st,
		Registrar:       table,
		Logger:          shared.WithLogger(logger, "component", "bookmarks"),
		Prefix:          config.Hotkeys.Prefix,
		OnPlaybackStart: state.Resume,
		Journal:         journal,
	})
	manager.Init(ctx)

	var srv *server.Server
	if out.socket != nil {
		router := server.NewBasicRouter()
		router.Use(server.Recover(logger), server.Logging(logger), server.LoopbackOnly)
		router.Mount(out.socket)
		srv = server.NewServer(config.Server.Addr(), router, shared.WithLogger(logger, "component", "http"))
		if err := srv.Listen(); err != nil {
			return err
		}
		logger.Info("overlay available", "url", "http://"+srv.Addr()+indicator.OverlayRoute)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return table.Listen(gctx) })
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error {
		return st.Watch(gctx, shared.WithLogger(logger, "component", "store"), func() {
			reloaded, err := shared.LoadConfig(st)
			if err != nil {
				logger.Warn("using defaults for invalid settings", "error", err)
			}
			controller.SetUser(reloaded.User)
			manager.Reload(gctx)
		})
	})

	if srv != nil {
		g.Go(func() error { return srv.Run(gctx) })
	}
	if out.terminal != nil {
		g.Go(func() error { return out.terminal.Run(gctx) })
	}

	logger.Info("spotkey running", "chords", len(table.Chords()), "sinks", strings.Join(sinkNames, ","))

	err = g.Wait()
	if cause := context.Cause(ctx); errors.Is(cause, shared.ErrExitRequested) {
		logger.Info("exit requested")
		return shared.ErrExitRequested
	}
	if errors.Is(err, indicator.ErrClosed) {
		logger.Info("status view closed")
		return nil
	}
	return err
}

// daemonLogger applies --debug and --log-file. With the terminal sink active, logs go only to
// the file so they do not tear the status view.
func (r *Runner) daemonLogger(cmd *cli.Command, sinkNames []string) (*log.Logger, func()) {
	level := log.InfoLevel
	if cmd.Bool("debug") {
		level = log.DebugLevel
	}

	path := cmd.String("log-file")
	terminal := false
	for _, name := range sinkNames {
		terminal = terminal || name == "terminal"
	}
	if terminal && path == "" {
		path = filepath.Join(filepath.Dir(cmd.String("config")), "spotkey.log")
	}

	if path == "" {
		shared.SetLogLevel(r.logger, level)
		return r.logger, func() {}
	}

	var console io.Writer = os.Stderr
	if terminal {
		console = io.Discard
	}
	logger, closer := shared.NewFileLogger(console, shared.LogFileOptions{Path: path})
	shared.SetLogLevel(logger, level)
	r.SetLogger(logger)
	return logger, func() { closer.Close() }
}

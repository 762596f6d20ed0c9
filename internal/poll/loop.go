package poll

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotkey/internal/indicator"
	"github.com/desertthunder/spotkey/internal/models"
	"github.com/desertthunder/spotkey/internal/services"
	"github.com/desertthunder/spotkey/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Defaults taken from the poll section of the example configuration.
const (
	DefaultKeepaliveInterval = 55 * time.Second
	DefaultTrackInterval     = 5 * time.Second
	DefaultWiggleMS          = 64
	DefaultWigglePause       = 20 * time.Millisecond
)

// SuspendedNotice is shown when idle playback suspends polling.
const SuspendedNotice = "playback idle, polling suspended until play"

// Remote is the subset of the remote service the loops call.
type Remote interface {
	CurrentPlayback(ctx context.Context) (*models.Snapshot, error)
	CurrentlyPlaying(ctx context.Context) (*models.TrackContext, error)
	Seek(ctx context.Context, positionMS int) error
	IsTrackSaved(ctx context.Context, id string) (bool, error)
	Devices(ctx context.Context) ([]models.Device, error)
	TransferPlayback(ctx context.Context, deviceID string) error
}

// Journal records track changes.
type Journal interface {
	Record(ctx context.Context, entry *models.HistoryEntry) error
}

// Options configures a [Loop]. Zero durations use the package defaults.
type Options struct {
	Remote            Remote
	State             *State
	Indicator         indicator.Indicator
	Logger            *log.Logger
	Journal           Journal
	KeepaliveInterval time.Duration
	TrackInterval     time.Duration
	WiggleMS          int
	WigglePause       time.Duration
}

// Loop owns the keepalive and track tickers.
type Loop struct {
	remote    Remote
	state     *State
	indicator indicator.Indicator
	logger    *log.Logger
	journal   Journal

	keepalive time.Duration
	track     time.Duration
	wiggle    int
	pause     time.Duration

	// spawn runs the indicator refresh; tests replace it to run inline.
	spawn func(func())
	sleep func(context.Context, time.Duration)
}

func NewLoop(opts Options) *Loop {
	l := &Loop{
		remote:    opts.Remote,
		state:     opts.State,
		indicator: opts.Indicator,
		logger:    opts.Logger,
		journal:   opts.Journal,
		keepalive: opts.KeepaliveInterval,
		track:     opts.TrackInterval,
		wiggle:    opts.WiggleMS,
		pause:     opts.WigglePause,
		spawn:     func(f func()) { go f() },
		sleep:     sleep,
	}

	if l.state == nil {
		l.state = NewState(DefaultIdleThreshold)
	}
	if l.indicator == nil {
		l.indicator = indicator.Discard
	}
	if l.logger == nil {
		l.logger = shared.NewLogger(nil)
	}
	if l.keepalive <= 0 {
		l.keepalive = DefaultKeepaliveInterval
	}
	if l.track <= 0 {
		l.track = DefaultTrackInterval
	}
	if l.wiggle <= 0 {
		l.wiggle = DefaultWiggleMS
	}
	if l.pause <= 0 {
		l.pause = DefaultWigglePause
	}
	return l
}

// State returns the shared poll state.
func (l *Loop) State() *State { return l.state }

// Run drives both tickers until ctx is cancelled. Remote errors never end the loop.
func (l *Loop) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return l.every(ctx, l.keepalive, l.KeepaliveTick)
	})
	g.Go(func() error {
		l.TrackTick(ctx)
		return l.every(ctx, l.track, l.TrackTick)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (l *Loop) every(ctx context.Context, d time.Duration, tick func(context.Context)) error {
	ticker := time.NewTicker(d)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// KeepaliveTick runs one keepalive step.
func (l *Loop) KeepaliveTick(ctx context.Context) {
	if !l.state.Enabled() {
		return
	}

	snapshot, err := l.remote.CurrentPlayback(ctx)
	if err != nil {
		l.logger.Warn("keepalive: playback read failed", "error", err)
		return
	}

	if snapshot == nil {
		device, err := services.Reactivate(ctx, l.remote)
		if err != nil {
			l.logger.Warn("keepalive: no active device", "error", err)
			return
		}
		l.logger.Info("keepalive: transferred playback", "device", device.Name)
		return
	}

	if snapshot.IsPlaying {
		l.state.recordPlaying()
		return
	}

	count, suspended := l.state.recordIdle()
	if suspended {
		l.logger.Warn(SuspendedNotice, "idle_ticks", count)
		l.indicator.SetText(indicator.Notice(SuspendedNotice))
		return
	}

	l.logger.Debug("keepalive: idle", "idle_ticks", count)
	l.nudge(ctx, snapshot.ProgressMS)
}

// nudge seeks forward by a few milliseconds and back so the session stays alive.
func (l *Loop) nudge(ctx context.Context, progress int) {
	if err := l.remote.Seek(ctx, progress+l.wiggle); err != nil {
		l.logger.Warn("keepalive: seek failed", "error", err)
		return
	}
	l.sleep(ctx, l.pause)
	if err := l.remote.Seek(ctx, progress); err != nil {
		l.logger.Warn("keepalive: seek back failed", "error", err)
	}
}

// TrackTick runs one track-change check.
func (l *Loop) TrackTick(ctx context.Context) {
	if !l.state.Enabled() {
		return
	}

	current, err := l.remote.CurrentlyPlaying(ctx)
	if err != nil {
		l.logger.Warn("track check failed", "error", err)
		return
	}
	if !current.HasTrack() {
		return
	}

	if !l.state.observeTrack(current.Track.ID) {
		return
	}

	l.logger.Info("track changed", "track", current.Track.Name, "artists", current.Track.ArtistNames())
	track := *current.Track
	l.spawn(func() { l.Refresh(ctx, &track) })

	if l.journal != nil {
		entry := models.NewHistoryEntry(models.HistoryTrackChange, &track, current.ContextRef)
		entry.PositionMS = max(current.ProgressMS, 0)
		if err := l.journal.Record(ctx, entry); err != nil {
			l.logger.Warn("failed to journal track change", "error", err)
		}
	}
}

// Refresh shows track with its liked glyph on the indicator.
func (l *Loop) Refresh(ctx context.Context, track *models.Track) {
	var liked *bool
	if track != nil {
		saved, err := l.remote.IsTrackSaved(ctx, track.ID)
		if err != nil {
			l.logger.Debug("liked state unavailable", "track", track.ID, "error", err)
		} else {
			liked = &saved
		}
	}
	l.indicator.SetText(indicator.TrackText(track, liked))
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

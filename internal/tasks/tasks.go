package tasks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotkey/internal/indicator"
	"github.com/desertthunder/spotkey/internal/models"
	"github.com/desertthunder/spotkey/internal/services"
	"github.com/desertthunder/spotkey/internal/shared"
)

// PlaybackHook is told when a handler started playback.
type PlaybackHook interface {
	Resume()
}

// Refresher redraws the indicator for a track.
type Refresher interface {
	Refresh(ctx context.Context, track *models.Track)
}

// Setter persists a configuration value.
type Setter interface {
	SetValue(section, key, value string) error
}

// Options configures a [Controller].
type Options struct {
	Remote    services.Remote
	Store     Setter
	Playback  PlaybackHook
	Refresher Refresher
	Indicator indicator.Indicator
	Logger    *log.Logger
	User      shared.UserConfig
	// Quit is called by the exit chord.
	Quit func()
	// Discography tunes the discography worker pool.
	Discography DiscographyOpts
}

// Controller holds the dependencies shared by every handler.
type Controller struct {
	remote    services.Remote
	store     Setter
	playback  PlaybackHook
	refresher Refresher
	indicator indicator.Indicator
	logger    *log.Logger
	quit      func()
	discog    DiscographyOpts

	mu   sync.RWMutex
	user shared.UserConfig

	// intn picks playlist name glyphs.
	intn func(n int) int
	// spawn runs indicator refreshes off the hotkey thread.
	spawn func(func())
}

func NewController(opts Options) *Controller {
	c := &Controller{
		remote:    opts.Remote,
		store:     opts.Store,
		playback:  opts.Playback,
		refresher: opts.Refresher,
		indicator: opts.Indicator,
		logger:    opts.Logger,
		quit:      opts.Quit,
		discog:    opts.Discography,
		user:      opts.User,
		intn:      rand.IntN,
		spawn:     func(f func()) { go f() },
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	if c.indicator == nil {
		c.indicator = indicator.Discard
	}
	return c
}

// User returns the current user preferences.
func (c *Controller) User() shared.UserConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// SetUser replaces the user preferences, e.g. after the store was edited by hand.
func (c *Controller) SetUser(u shared.UserConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = u
}

func (c *Controller) resumed() {
	if c.playback != nil {
		c.playback.Resume()
	}
}

// playing returns the current track context or [shared.ErrNoContext].
func (c *Controller) playing(ctx context.Context) (*models.TrackContext, error) {
	current, err := c.remote.CurrentlyPlaying(ctx)
	if err != nil {
		return nil, err
	}
	if !current.HasTrack() {
		return nil, shared.ErrNoContext
	}
	return current, nil
}

// snapshot returns the current playback or [shared.ErrNoDevice].
func (c *Controller) snapshot(ctx context.Context) (*models.Snapshot, error) {
	snap, err := c.remote.CurrentPlayback(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, shared.ErrNoDevice
	}
	return snap, nil
}

// TogglePlayback pauses a playing player or starts a paused one, waking a device first when
// none is active.
func (c *Controller) TogglePlayback(ctx context.Context) error {
	snap, err := c.remote.CurrentPlayback(ctx)
	if err != nil {
		return err
	}

	if snap == nil {
		c.logger.Info("no active player, searching for devices")
		device, err := services.Reactivate(ctx, c.remote)
		if err != nil {
			return err
		}
		c.logger.Info("playback transferred", "device", device.Name)
	} else if snap.IsPlaying {
		return c.remote.Pause(ctx)
	}

	if err := c.remote.Play(ctx, models.PlayRequest{}); err != nil {
		return err
	}
	c.resumed()
	return nil
}

func (c *Controller) Next(ctx context.Context) error {
	return c.remote.Next(ctx)
}

func (c *Controller) Previous(ctx context.Context) error {
	return c.remote.Previous(ctx)
}

// CycleRepeat moves the repeat mode one step along track, context, off.
func (c *Controller) CycleRepeat(ctx context.Context) error {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return err
	}

	next := snap.Repeat.Next()
	if err := c.remote.SetRepeat(ctx, next); err != nil {
		return err
	}
	c.logger.Info("repeat mode", "from", snap.Repeat, "to", next)
	return nil
}

func (c *Controller) ToggleShuffle(ctx context.Context) error {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return err
	}
	if err := c.remote.SetShuffle(ctx, !snap.Shuffle); err != nil {
		return err
	}
	c.logger.Info("shuffle", "on", !snap.Shuffle)
	return nil
}

func (c *Controller) SeekStart(ctx context.Context) error {
	return c.remote.Seek(ctx, 0)
}

// SeekRelative seeks by deltaMS from the current position, never before the start.
func (c *Controller) SeekRelative(ctx context.Context, deltaMS int) error {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return err
	}
	if !snap.HasTrack() {
		return shared.ErrNoContext
	}
	return c.remote.Seek(ctx, max(snap.ProgressMS+deltaMS, 0))
}

// SeekBack seeks by the configured back step.
func (c *Controller) SeekBack(ctx context.Context) error {
	return c.SeekRelative(ctx, c.User().BackSeekMS)
}

// SeekForward seeks by the configured forward step.
func (c *Controller) SeekForward(ctx context.Context) error {
	return c.SeekRelative(ctx, c.User().ForwardSeekMS)
}

// LikeTrack saves the playing track to the library.
func (c *Controller) LikeTrack(ctx context.Context) error {
	current, err := c.playing(ctx)
	if err != nil {
		return err
	}
	if err := c.remote.SaveTracks(ctx, current.Track.ID); err != nil {
		return err
	}
	c.logger.Info("saved track to library", "track", current.Track.Name)
	c.refresh(ctx, current.Track)
	return nil
}

// UnlikeTrack removes the playing track from the library.
func (c *Controller) UnlikeTrack(ctx context.Context) error {
	current, err := c.playing(ctx)
	if err != nil {
		return err
	}
	if err := c.remote.RemoveSavedTracks(ctx, current.Track.ID); err != nil {
		return err
	}
	c.logger.Info("removed track from library", "track", current.Track.Name)
	c.refresh(ctx, current.Track)
	return nil
}

// refresh re-reads the liked state in the background; the lookup is a remote call.
func (c *Controller) refresh(ctx context.Context, track *models.Track) {
	if c.refresher == nil {
		return
	}
	c.spawn(func() { c.refresher.Refresh(ctx, track) })
}

// Exit asks the process to stop with the exit-chord status.
func (c *Controller) Exit(ctx context.Context) error {
	c.logger.Info("exit requested")
	if c.quit != nil {
		c.quit()
	}
	return nil
}

// playlistSuffix returns four random block glyphs for generated playlist names.
func (c *Controller) playlistSuffix() string {
	glyphs := []rune(" ▔▀▆▄▂▌▐█▊▎░▒▓▖▗▘▙▚▛▜▝▞▟")
	out := make([]rune, 4)
	for i := range out {
		out[i] = glyphs[c.intn(len(glyphs))]
	}
	return string(out)
}

func describe(track *models.Track) string {
	if track == nil {
		return ""
	}
	return fmt.Sprintf("%s - %s", track.ArtistNames(), track.Name)
}

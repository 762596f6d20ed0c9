package tasks

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/spotkey/internal/models"
	"github.com/desertthunder/spotkey/internal/shared"
)

// PageSize is the playlist page size used when scanning for duplicates.
const PageSize = 100

// Info is the information dump printed by [Controller.PrintInformation].
type Info struct {
	ContextRef   string
	PlaylistName string
	Track        *models.Track
	TargetID     string
	TargetName   string
	DiscardsID   string
	DiscardsName string
}

// RemoveFromCurrentPlaylist removes the playing track from the playlist it plays in.
func (c *Controller) RemoveFromCurrentPlaylist(ctx context.Context) error {
	current, err := c.playing(ctx)
	if err != nil {
		return err
	}
	playlistID, ok := current.PlaylistID()
	if !ok {
		return fmt.Errorf("%w: cannot remove %s", shared.ErrNotAPlaylist, current.Track.Name)
	}

	if err := c.remote.RemovePlaylistTracks(ctx, playlistID, current.Track.ID); err != nil {
		return err
	}
	c.logger.Info("removed track from current playlist", "track", describe(current.Track), "playlist", playlistID)
	return nil
}

// Discard adds the playing track to the discards playlist, removes it from the library and
// from the current playlist, then skips to the next track.
func (c *Controller) Discard(ctx context.Context) error {
	discards := c.User().DiscardsPlaylistID
	if discards == "" {
		return fmt.Errorf("%w: discards playlist is not configured", shared.ErrNoTarget)
	}

	current, err := c.playing(ctx)
	if err != nil {
		return err
	}
	playlistID, ok := current.PlaylistID()
	if !ok {
		return fmt.Errorf("%w: cannot discard %s", shared.ErrNotAPlaylist, current.Track.Name)
	}

	id := current.Track.ID
	if err := c.remote.AddPlaylistTracks(ctx, discards, id); err != nil {
		return fmt.Errorf("failed to add to discards: %w", err)
	}
	if err := c.remote.RemoveSavedTracks(ctx, id); err != nil {
		return fmt.Errorf("failed to unsave: %w", err)
	}
	if err := c.remote.RemovePlaylistTracks(ctx, playlistID, id); err != nil {
		return fmt.Errorf("failed to remove from current playlist: %w", err)
	}

	c.logger.Info("discarded track", "track", describe(current.Track), "from", playlistID)
	return c.remote.Next(ctx)
}

// SetTargetPlaylist makes the playing playlist "playlist 1" when the current user owns it.
func (c *Controller) SetTargetPlaylist(ctx context.Context) error {
	current, err := c.remote.CurrentlyPlaying(ctx)
	if err != nil {
		return err
	}
	playlistID, ok := current.PlaylistID()
	if !ok {
		return fmt.Errorf("%w: cannot set playlist 1", shared.ErrNotAPlaylist)
	}

	owner, err := c.remote.PlaylistOwner(ctx, playlistID)
	if err != nil {
		return err
	}
	user, err := c.remote.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	if owner != user {
		return fmt.Errorf("%w: %s belongs to %s", shared.ErrNotOwner, playlistID, owner)
	}

	c.mu.Lock()
	c.user.TargetPlaylistID = playlistID
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SetValue("user", "playlist_id_1", playlistID); err != nil {
			c.logger.Error("failed to persist playlist 1", "error", fmt.Errorf("%w: %w", shared.ErrPersistence, err))
		}
	}
	c.logger.Info("set playlist 1", "playlist", playlistID)
	return nil
}

// AddToTargetPlaylist adds the playing track to playlist 1 unless it is already there.
// It reports whether the track was added.
func (c *Controller) AddToTargetPlaylist(ctx context.Context) (bool, error) {
	target := c.User().TargetPlaylistID
	if target == "" {
		return false, fmt.Errorf("%w: playlist 1 is not set", shared.ErrNoTarget)
	}

	current, err := c.playing(ctx)
	if err != nil {
		return false, err
	}

	id := current.Track.ID
	found, err := c.contains(ctx, target, id)
	if err != nil {
		return false, err
	}
	if found {
		c.logger.Info("track already in playlist 1, not adding", "track", describe(current.Track))
		return false, nil
	}

	if err := c.remote.AddPlaylistTracks(ctx, target, id); err != nil {
		return false, err
	}
	c.logger.Info("added track to playlist 1", "track", describe(current.Track), "playlist", target)
	return true, nil
}

// contains pages through playlistID and stops at the first page holding trackID.
func (c *Controller) contains(ctx context.Context, playlistID, trackID string) (bool, error) {
	offset := 0
	for {
		page, err := c.remote.PlaylistTracks(ctx, playlistID, offset, PageSize)
		if err != nil {
			return false, err
		}
		if slices.ContainsFunc(page.Tracks, func(t models.Track) bool { return t.ID == trackID }) {
			return true, nil
		}
		if !page.Next || len(page.Tracks) == 0 {
			return false, nil
		}
		offset += len(page.Tracks)
	}
}

// MoveToTargetPlaylist adds the playing track to playlist 1 and, only when that added it,
// removes it from the current playlist. The two steps are not atomic.
func (c *Controller) MoveToTargetPlaylist(ctx context.Context) error {
	added, err := c.AddToTargetPlaylist(ctx)
	if err != nil {
		return fmt.Errorf("move aborted: %w", err)
	}
	if !added {
		c.logger.Info("nothing added to playlist 1, not moving")
		return nil
	}
	return c.RemoveFromCurrentPlaylist(ctx)
}

// PrintInformation logs the playing context, the track and the configured playlists.
func (c *Controller) PrintInformation(ctx context.Context) (*Info, error) {
	current, err := c.playing(ctx)
	if err != nil {
		return nil, err
	}

	user := c.User()
	info := &Info{
		ContextRef: current.ContextRef,
		Track:      current.Track,
		TargetID:   user.TargetPlaylistID,
		DiscardsID: user.DiscardsPlaylistID,
	}

	if id, ok := current.PlaylistID(); ok {
		info.PlaylistName = c.nameOf(ctx, id)
	}
	if info.TargetID != "" {
		info.TargetName = c.nameOf(ctx, info.TargetID)
	}
	if info.DiscardsID != "" {
		info.DiscardsName = c.nameOf(ctx, info.DiscardsID)
	}

	c.logger.Info("current context", "ref", info.ContextRef, "name", info.PlaylistName)
	c.logger.Info("current track", "id", current.Track.ID, "track", current.Track.Name,
		"album", current.Track.Album, "artists", current.Track.ArtistNames())
	if info.TargetID == "" {
		c.logger.Info("no playlist 1 is set")
	} else {
		c.logger.Info("playlist 1", "id", info.TargetID, "name", info.TargetName)
	}
	if info.DiscardsID == "" {
		c.logger.Warn("no discards playlist is set")
	} else {
		c.logger.Info("discards playlist", "id", info.DiscardsID, "name", info.DiscardsName)
	}
	return info, nil
}

func (c *Controller) nameOf(ctx context.Context, playlistID string) string {
	name, err := c.remote.PlaylistName(ctx, playlistID)
	if err != nil {
		c.logger.Debug("playlist name lookup failed", "playlist", playlistID, "error", err)
		return models.DefaultPlaylistName
	}
	return name
}

// package services defines the remote playback interface and its Spotify implementation
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotkey/internal/models"
	"github.com/desertthunder/spotkey/internal/shared"
)

// Remote is the full set of remote playback operations used by the daemon.
type Remote interface {
	// CurrentPlayback returns the full playback state, or nil when no device is active.
	CurrentPlayback(ctx context.Context) (*models.Snapshot, error)
	// CurrentlyPlaying returns the lighter currently-playing read, or nil when nothing is loaded.
	CurrentlyPlaying(ctx context.Context) (*models.TrackContext, error)

	Play(ctx context.Context, req models.PlayRequest) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Seek(ctx context.Context, positionMS int) error
	SetRepeat(ctx context.Context, mode models.RepeatMode) error
	SetShuffle(ctx context.Context, on bool) error

	SaveTracks(ctx context.Context, ids ...string) error
	RemoveSavedTracks(ctx context.Context, ids ...string) error
	IsTrackSaved(ctx context.Context, id string) (bool, error)

	// PlaylistTracks returns one page of a playlist starting at offset.
	PlaylistTracks(ctx context.Context, playlistID string, offset, limit int) (*models.TrackPage, error)
	AddPlaylistTracks(ctx context.Context, playlistID string, ids ...string) error
	RemovePlaylistTracks(ctx context.Context, playlistID string, ids ...string) error
	// CreatePlaylist creates a public playlist owned by userID and returns its ID.
	CreatePlaylist(ctx context.Context, userID, name, description string) (string, error)
	PlaylistName(ctx context.Context, playlistID string) (string, error)
	PlaylistOwner(ctx context.Context, playlistID string) (string, error)
	CurrentUserID(ctx context.Context) (string, error)

	Devices(ctx context.Context) ([]models.Device, error)
	TransferPlayback(ctx context.Context, deviceID string) error

	ArtistAlbums(ctx context.Context, artistID string) ([]models.Album, error)
	AlbumTracks(ctx context.Context, albumID string) ([]models.Track, error)
}

// DeviceSwitcher is the subset of [Remote] needed to wake a player.
type DeviceSwitcher interface {
	Devices(ctx context.Context) ([]models.Device, error)
	TransferPlayback(ctx context.Context, deviceID string) error
}

// Reactivate picks an available device and transfers playback to it.
//
// An already active device wins, otherwise the first unrestricted one.
func Reactivate(ctx context.Context, r DeviceSwitcher) (models.Device, error) {
	devices, err := r.Devices(ctx)
	if err != nil {
		return models.Device{}, err
	}

	device, ok := pickDevice(devices)
	if !ok {
		return models.Device{}, shared.ErrNoDevice
	}

	if err := r.TransferPlayback(ctx, device.ID); err != nil {
		return device, fmt.Errorf("failed to transfer playback to %s: %w", device.Name, err)
	}
	return device, nil
}

func pickDevice(devices []models.Device) (models.Device, bool) {
	for _, d := range devices {
		if d.Active && d.ID != "" {
			return d, true
		}
	}
	for _, d := range devices {
		if !d.Restricted && d.ID != "" {
			return d, true
		}
	}
	return models.Device{}, false
}

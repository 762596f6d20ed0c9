package testing

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/spotkey/internal/models"
)

// Call is one recorded invocation on [FakeRemote].
type Call struct {
	Method string
	Args   []any
}

// FakeRemote is a scriptable in-memory stand-in for the remote playback service.
//
// Snapshots and Playing are consumed in order; once exhausted the last element keeps being
// returned. Errs injects an error per method name.
type FakeRemote struct {
	mu sync.Mutex

	Snapshots []*models.Snapshot
	Playing   []*models.TrackContext

	Playlists      map[string][]models.Track
	PlaylistNames  map[string]string
	PlaylistOwners map[string]string
	UserID         string
	Saved          map[string]bool
	DeviceList     []models.Device
	Albums         map[string][]models.Album
	AlbumTrackList map[string][]models.Track

	Errs map[string]error

	calls   []Call
	snapIdx int
	playIdx int
	created int
}

// NewFakeRemote returns a FakeRemote with empty maps.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		Playlists:      make(map[string][]models.Track),
		PlaylistNames:  make(map[string]string),
		PlaylistOwners: make(map[string]string),
		Saved:          make(map[string]bool),
		Albums:         make(map[string][]models.Album),
		AlbumTrackList: make(map[string][]models.Track),
		Errs:           make(map[string]error),
	}
}

func (f *FakeRemote) record(method string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: method, Args: args})
	return f.Errs[method]
}

// SetErr injects err for method.
func (f *FakeRemote) SetErr(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errs[method] = err
}

// Calls returns every recorded call.
func (f *FakeRemote) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsTo returns the recorded calls to method.
func (f *FakeRemote) CallsTo(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many times method was called.
func (f *FakeRemote) Count(method string) int {
	return len(f.CallsTo(method))
}

// Reset forgets recorded calls.
func (f *FakeRemote) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeRemote) CurrentPlayback(ctx context.Context) (*models.Snapshot, error) {
	if err := f.record("CurrentPlayback"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Snapshots) == 0 {
		return nil, nil
	}
	i := min(f.snapIdx, len(f.Snapshots)-1)
	f.snapIdx++
	return f.Snapshots[i], nil
}

func (f *FakeRemote) CurrentlyPlaying(ctx context.Context) (*models.TrackContext, error) {
	if err := f.record("CurrentlyPlaying"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Playing) == 0 {
		return nil, nil
	}
	i := min(f.playIdx, len(f.Playing)-1)
	f.playIdx++
	return f.Playing[i], nil
}

func (f *FakeRemote) Play(ctx context.Context, req models.PlayRequest) error {
	return f.record("Play", req)
}

func (f *FakeRemote) Pause(ctx context.Context) error    { return f.record("Pause") }
func (f *FakeRemote) Next(ctx context.Context) error     { return f.record("Next") }
func (f *FakeRemote) Previous(ctx context.Context) error { return f.record("Previous") }

func (f *FakeRemote) Seek(ctx context.Context, positionMS int) error {
	return f.record("Seek", positionMS)
}

func (f *FakeRemote) SetRepeat(ctx context.Context, mode models.RepeatMode) error {
	return f.record("SetRepeat", mode)
}

func (f *FakeRemote) SetShuffle(ctx context.Context, on bool) error {
	return f.record("SetShuffle", on)
}

func (f *FakeRemote) SaveTracks(ctx context.Context, ids ...string) error {
	if err := f.record("SaveTracks", toAny(ids)...); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.Saved[id] = true
	}
	return nil
}

func (f *FakeRemote) RemoveSavedTracks(ctx context.Context, ids ...string) error {
	if err := f.record("RemoveSavedTracks", toAny(ids)...); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.Saved, id)
	}
	return nil
}

func (f *FakeRemote) IsTrackSaved(ctx context.Context, id string) (bool, error) {
	if err := f.record("IsTrackSaved", id); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Saved[id], nil
}

func (f *FakeRemote) PlaylistTracks(ctx context.Context, playlistID string, offset, limit int) (*models.TrackPage, error) {
	if err := f.record("PlaylistTracks", playlistID, offset, limit); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	tracks, ok := f.Playlists[playlistID]
	if !ok {
		return nil, fmt.Errorf("playlist %s not found", playlistID)
	}
	end := min(offset+limit, len(tracks))
	page := &models.TrackPage{Offset: offset, Next: end < len(tracks)}
	if offset < len(tracks) {
		page.Tracks = slices.Clone(tracks[offset:end])
	}
	return page, nil
}

func (f *FakeRemote) AddPlaylistTracks(ctx context.Context, playlistID string, ids ...string) error {
	if err := f.record("AddPlaylistTracks", append([]any{playlistID}, toAny(ids)...)...); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.Playlists[playlistID] = append(f.Playlists[playlistID], models.Track{ID: id})
	}
	return nil
}

func (f *FakeRemote) RemovePlaylistTracks(ctx context.Context, playlistID string, ids ...string) error {
	if err := f.record("RemovePlaylistTracks", append([]any{playlistID}, toAny(ids)...)...); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Playlists[playlistID] = slices.DeleteFunc(f.Playlists[playlistID], func(t models.Track) bool {
		return slices.Contains(ids, t.ID)
	})
	return nil
}

func (f *FakeRemote) CreatePlaylist(ctx context.Context, userID, name, description string) (string, error) {
	if err := f.record("CreatePlaylist", userID, name, description); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	id := fmt.Sprintf("created-%d", f.created)
	f.Playlists[id] = nil
	f.PlaylistNames[id] = name
	f.PlaylistOwners[id] = userID
	return id, nil
}

func (f *FakeRemote) PlaylistName(ctx context.Context, playlistID string) (string, error) {
	if err := f.record("PlaylistName", playlistID); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.PlaylistNames[playlistID]
	if !ok {
		return "", fmt.Errorf("playlist %s not found", playlistID)
	}
	return name, nil
}

func (f *FakeRemote) PlaylistOwner(ctx context.Context, playlistID string) (string, error) {
	if err := f.record("PlaylistOwner", playlistID); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	owner, ok := f.PlaylistOwners[playlistID]
	if !ok {
		return "", fmt.Errorf("playlist %s not found", playlistID)
	}
	return owner, nil
}

func (f *FakeRemote) CurrentUserID(ctx context.Context) (string, error) {
	if err := f.record("CurrentUserID"); err != nil {
		return "", err
	}
	return f.UserID, nil
}

func (f *FakeRemote) Devices(ctx context.Context) ([]models.Device, error) {
	if err := f.record("Devices"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.DeviceList), nil
}

func (f *FakeRemote) TransferPlayback(ctx context.Context, deviceID string) error {
	return f.record("TransferPlayback", deviceID)
}

func (f *FakeRemote) ArtistAlbums(ctx context.Context, artistID string) ([]models.Album, error) {
	if err := f.record("ArtistAlbums", artistID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Albums[artistID]), nil
}

func (f *FakeRemote) AlbumTracks(ctx context.Context, albumID string) ([]models.Track, error) {
	if err := f.record("AlbumTracks", albumID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.AlbumTrackList[albumID]), nil
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

package tasks

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/spotkey/internal/models"
	"golang.org/x/time/rate"
)

// BatchSize is the maximum number of tracks added to a playlist in one request.
const BatchSize = 100

// DiscographyOpts contains configuration for discography builds.
type DiscographyOpts struct {
	NumWorkers  int     // Concurrent album fetchers (default: 4)
	RateLimit   float64 // Album fetches per second (default: 5)
	Description string  // Playlist description
}

// DiscographyResult summarizes one discography build.
type DiscographyResult struct {
	ArtistID     string
	ArtistName   string
	PlaylistID   string
	PlaylistName string
	Albums       int
	Tracks       int
	FailedAlbums int
	FailedAdds   int
}

type albumJob struct {
	index int
	album models.Album
}

type albumResult struct {
	index  int
	album  models.Album
	tracks []models.Track
	err    error
}

// MakeDiscographyPlaylist builds a discography playlist for every artist of the playing track.
func (c *Controller) MakeDiscographyPlaylist(ctx context.Context) error {
	current, err := c.playing(ctx)
	if err != nil {
		return err
	}

	track := current.Track
	for i, artistID := range track.ArtistIDs {
		name := artistID
		if i < len(track.Artists) {
			name = track.Artists[i]
		}

		res, err := c.buildWithProgress(ctx, artistID, name)
		if err != nil {
			return fmt.Errorf("discography for %s failed: %w", name, err)
		}
		c.logger.Info("discography playlist ready",
			"artist", res.ArtistName, "playlist", res.PlaylistName, "tracks", res.Tracks, "albums", res.Albums)
	}
	return nil
}

// buildWithProgress runs [Controller.BuildDiscography] and mirrors its progress on the indicator.
func (c *Controller) buildWithProgress(ctx context.Context, artistID, name string) (*DiscographyResult, error) {
	prog := make(chan ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			if text := progressText(name, update); text != "" {
				c.indicator.SetText(text)
			}
		}
	}()

	res, err := c.BuildDiscography(ctx, prog, artistID, name)
	close(prog)
	<-done
	return res, err
}

// progressText renders update for the indicator. Playlist creation is not shown.
func progressText(artist string, update ProgressUpdate) string {
	switch update.Phase {
	case FetchAlbums:
		return "building discography for " + artist
	case FetchTracks:
		return fmt.Sprintf("building discography %d/%d", update.Step, update.Total)
	case AddTracks:
		return fmt.Sprintf("adding tracks %d/%d", update.Step, update.Total)
	default:
		return ""
	}
}

// BuildDiscography collects every track credited to the artist across their albums into a
// new public playlist.
//
// Album tracks are fetched by a rate-limited worker pool; albums that fail are skipped. Tracks
// keep album order and appear once.
func (c *Controller) BuildDiscography(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	artistID, artistName string,
) (*DiscographyResult, error) {
	opts := c.discog
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Description == "" {
		opts.Description = fmt.Sprintf("Everything by %s, collected by spotkey", artistName)
	}

	result := &DiscographyResult{ArtistID: artistID, ArtistName: artistName}

	sendProgress(prog, fetchingAlbumsUpdate(artistName))
	albums, err := c.remote.ArtistAlbums(ctx, artistID)
	if err != nil {
		return result, fmt.Errorf("failed to fetch albums: %w", err)
	}
	result.Albums = len(albums)

	fetched := c.fetchAlbums(ctx, prog, albums, opts)
	if err := ctx.Err(); err != nil {
		return result, err
	}

	var uris []string
	seen := make(map[string]bool)
	for _, res := range fetched {
		if res.err != nil {
			result.FailedAlbums++
			c.logger.Warn("skipping album", "album", res.album.Name, "error", res.err)
			continue
		}
		for _, t := range res.tracks {
			if seen[t.ID] || !credited(t, artistID, artistName) {
				continue
			}
			seen[t.ID] = true
			uris = append(uris, models.TrackURI(t.ID))
		}
	}
	result.Tracks = len(uris)

	user, err := c.remote.CurrentUserID(ctx)
	if err != nil {
		return result, err
	}

	result.PlaylistName = artistName + " ~" + c.playlistSuffix()
	result.PlaylistID, err = c.remote.CreatePlaylist(ctx, user, result.PlaylistName, opts.Description)
	if err != nil {
		return result, fmt.Errorf("failed to create playlist: %w", err)
	}
	sendProgress(prog, createPlaylistUpdate(result.PlaylistName, result.PlaylistID))

	batches := slices.Collect(slices.Chunk(uris, BatchSize))
	for i, batch := range batches {
		if err := c.remote.AddPlaylistTracks(ctx, result.PlaylistID, batch...); err != nil {
			result.FailedAdds += len(batch)
			c.logger.Warn("failed to add batch", "playlist", result.PlaylistID, "batch", i+1, "error", err)
			continue
		}
		sendProgress(prog, addTracksUpdate(i+1, len(batches), len(batch)))
	}
	return result, nil
}

// fetchAlbums fetches album tracks with a worker pool and returns results in album order.
func (c *Controller) fetchAlbums(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	albums []models.Album,
	opts DiscographyOpts,
) []albumResult {
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan albumJob, len(albums))
	results := make(chan albumResult, len(albums))

	var wg sync.WaitGroup
	for range min(opts.NumWorkers, max(len(albums), 1)) {
		wg.Add(1)
		go c.albumWorker(ctx, &wg, limiter, jobs, results)
	}

	for i, album := range albums {
		jobs <- albumJob{index: i, album: album}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]albumResult, len(albums))
	completed := 0
	for res := range results {
		completed++
		out[res.index] = res
		if res.err != nil {
			sendProgress(prog, albumFailedUpdate(completed, len(albums), res.album.Name, res.err))
		} else {
			sendProgress(prog, albumFetchedUpdate(completed, len(albums), res.album.Name, len(res.tracks)))
		}
	}
	return out
}

// albumWorker is a worker goroutine that fetches album tracks from the jobs channel.
func (c *Controller) albumWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan albumJob,
	results chan<- albumResult,
) {
	defer wg.Done()

	for job := range jobs {
		res := albumResult{index: job.index, album: job.album}
		if err := limiter.Wait(ctx); err != nil {
			res.err = err
			results <- res
			continue
		}

		res.tracks, res.err = c.remote.AlbumTracks(ctx, job.album.ID)
		results <- res
	}
}

// credited reports whether the artist is credited on t, by ID or by name.
func credited(t models.Track, artistID, artistName string) bool {
	return slices.Contains(t.ArtistIDs, artistID) || slices.Contains(t.Artists, artistName)
}

// sendProgress sends update without blocking; a nil or full channel drops it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Spotify Web API implementation of [Remote] on top of github.com/zmb3/spotify/v2
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/spotkey/internal/models"
	"github.com/desertthunder/spotkey/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultRedirectURI = "http://127.0.0.1:8080/callback"

// Scopes requested by the daemon.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserLibraryModify,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
}

// SpotifyService implements [Remote] for the Spotify Web API.
type SpotifyService struct {
	mu             sync.RWMutex
	config         *oauth2.Config
	token          *oauth2.Token
	client         *spotify.Client
	base           *http.Client
	limiter        *rate.Limiter
	baseURL        string
	onTokenRefresh func(*oauth2.Token)
}

// Option configures a [SpotifyService].
type Option func(*SpotifyService)

// WithRateLimit paces outgoing requests to rps per second.
func WithRateLimit(rps float64) Option {
	return func(s *SpotifyService) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithBaseURL points the API client at another host. Used by tests.
func WithBaseURL(u string) Option {
	return func(s *SpotifyService) { s.baseURL = u }
}

// WithHTTPClient sets the HTTP client underneath the OAuth2 transport.
func WithHTTPClient(c *http.Client) Option {
	return func(s *SpotifyService) { s.base = c }
}

// NewSpotifyService creates a new SpotifyService from the credential map (client_id,
// client_secret, redirect_uri).
func NewSpotifyService(credentials map[string]string, opts ...Option) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}

	s := &SpotifyService{
		config:  config,
		base:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the consent page URL for the given state.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// GetOAuthConfig exposes the OAuth2 configuration for the callback handler.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetTokenRefreshCallback registers fn to receive every new token, including refreshes.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTokenRefresh = fn
}

// Token returns the token the client was built with.
func (s *SpotifyService) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticate builds the API client from a stored token (access_token, refresh_token, expiry)
// or by exchanging an auth_code.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if access, refresh := credentials["access_token"], credentials["refresh_token"]; access != "" || refresh != "" {
		tok := &oauth2.Token{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    credentials["token_type"],
		}
		if expiry, err := time.Parse(time.RFC3339, credentials["expiry"]); err == nil {
			tok.Expiry = expiry
		}
		s.connect(ctx, tok)
		return nil
	}

	if code := credentials["auth_code"]; code != "" {
		tok, err := s.config.Exchange(s.httpContext(ctx), code)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.connect(ctx, tok)
		if cb := s.callback(); cb != nil {
			cb(tok)
		}
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// Connect builds the API client from an already exchanged token.
func (s *SpotifyService) Connect(ctx context.Context, tok *oauth2.Token) {
	s.connect(ctx, tok)
}

func (s *SpotifyService) connect(ctx context.Context, tok *oauth2.Token) {
	ctx = s.httpContext(context.WithoutCancel(ctx))
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, tok),
		callback: s.callback(),
		last:     tok.AccessToken,
	}
	httpClient := oauth2.NewClient(ctx, source)

	opts := []spotify.ClientOption{spotify.WithRetry(false)}
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.baseURL))
	}

	s.mu.Lock()
	s.token = tok
	s.client = spotify.New(httpClient, opts...)
	s.mu.Unlock()
}

// httpContext carries the paced base client so both API calls and token refreshes use it.
func (s *SpotifyService) httpContext(ctx context.Context) context.Context {
	base := *s.base
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	base.Transport = &limitedTransport{base: transport, limiter: s.limiter}
	return context.WithValue(ctx, oauth2.HTTPClient, &base)
}

func (s *SpotifyService) callback() func(*oauth2.Token) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.onTokenRefresh == nil {
		return nil
	}
	fn := s.onTokenRefresh
	return func(t *oauth2.Token) {
		s.mu.Lock()
		s.token = t
		s.mu.Unlock()
		fn(t)
	}
}

func (s *SpotifyService) api() (*spotify.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.client, nil
}

// CurrentPlayback returns the full player state, or nil when no device is active.
func (s *SpotifyService) CurrentPlayback(ctx context.Context) (*models.Snapshot, error) {
	c, err := s.api()
	if err != nil {
		return nil, err
	}

	state, err := c.PlayerState(ctx)
	if err != nil {
		return nil, classify("get playback state", err)
	}
	if state == nil || (state.Device.ID == "" && state.Item == nil) {
		return nil, nil
	}

	return &models.Snapshot{
		IsPlaying:  state.Playing,
		ProgressMS: int(state.Progress),
		Repeat:     models.ParseRepeatMode(state.RepeatState),
		Shuffle:    state.ShuffleState,
		ContextRef: string(state.PlaybackContext.URI),
		DeviceID:   string(state.Device.ID),
		Track:      fromFullTrack(state.Item),
	}, nil
}

// CurrentlyPlaying returns the currently loaded track and its context, or nil.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context) (*models.TrackContext, error) {
	c, err := s.api()
	if err != nil {
		return nil, err
	}

	cp, err := c.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return nil, classify("get currently playing", err)
	}
	if cp == nil || cp.Item == nil {
		return nil, nil
	}

	return &models.TrackContext{
		IsPlaying:  cp.Playing,
		ProgressMS: int(cp.Progress),
		ContextRef: string(cp.PlaybackContext.URI),
		Track:      fromFullTrack(cp.Item),
	}, nil
}

// Play starts or resumes playback.
func (s *SpotifyService) Play(ctx context.Context, req models.PlayRequest) error {
	c, err := s.api()
	if err != nil {
		return err
	}

	if req.Empty() {
		return classify("start playback", c.Play(ctx))
	}

	opts := &spotify.PlayOptions{}
	if req.ContextURI != "" {
		uri := spotify.URI(req.ContextURI)
		opts.PlaybackContext = &uri
		if req.OffsetTrack != "" {
			opts.PlaybackOffset = &spotify.PlaybackOffset{URI: spotify.URI(models.TrackURI(req.OffsetTrack))}
		}
	} else {
		for _, u := range req.URIs {
			opts.URIs = append(opts.URIs, spotify.URI(models.TrackURI(u)))
		}
	}
	return classify("start playback", c.PlayOpt(ctx, opts))
}

func (s *SpotifyService) Pause(ctx context.Context) error {
	return s.do(ctx, "pause playback", func(c *spotify.Client) error { return c.Pause(ctx) })
}

func (s *SpotifyService) Next(ctx context.Context) error {
	return s.do(ctx, "skip to next", func(c *spotify.Client) error { return c.Next(ctx) })
}

func (s *SpotifyService) Previous(ctx context.Context) error {
	return s.do(ctx, "skip to previous", func(c *spotify.Client) error { return c.Previous(ctx) })
}

func (s *SpotifyService) Seek(ctx context.Context, positionMS int) error {
	if positionMS < 0 {
		positionMS = 0
	}
	return s.do(ctx, "seek", func(c *spotify.Client) error { return c.Seek(ctx, positionMS) })
}

func (s *SpotifyService) SetRepeat(ctx context.Context, mode models.RepeatMode) error {
	return s.do(ctx, "set repeat", func(c *spotify.Client) error { return c.Repeat(ctx, string(mode)) })
}

func (s *SpotifyService) SetShuffle(ctx context.Context, on bool) error {
	return s.do(ctx, "set shuffle", func(c *spotify.Client) error { return c.Shuffle(ctx, on) })
}

func (s *SpotifyService) SaveTracks(ctx context.Context, ids ...string) error {
	return s.do(ctx, "save tracks", func(c *spotify.Client) error {
		return c.AddTracksToLibrary(ctx, toIDs(ids)...)
	})
}

func (s *SpotifyService) RemoveSavedTracks(ctx context.Context, ids ...string) error {
	return s.do(ctx, "remove saved tracks", func(c *spotify.Client) error {
		return c.RemoveTracksFromLibrary(ctx, toIDs(ids)...)
	})
}

// IsTrackSaved reports whether the track is in the user's library.
func (s *SpotifyService) IsTrackSaved(ctx context.Context, id string) (bool, error) {
	c, err := s.api()
	if err != nil {
		return false, err
	}

	saved, err := c.UserHasTracks(ctx, spotify.ID(models.ParseID(id)))
	if err != nil {
		return false, classify("check saved track", err)
	}
	return len(saved) > 0 && saved[0], nil
}

// PlaylistTracks returns one page of playlist items. Episodes and removed tracks are skipped.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, offset, limit int) (*models.TrackPage, error) {
	c, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := c.GetPlaylistItems(ctx, spotify.ID(models.ParseID(playlistID)), spotify.Limit(limit), spotify.Offset(offset))
	if err != nil {
		return nil, classify("get playlist items", err)
	}

	out := &models.TrackPage{Offset: offset, Next: page.Next != ""}
	for _, item := range page.Items {
		if t := fromFullTrack(item.Track.Track); t != nil {
			out.Tracks = append(out.Tracks, *t)
		}
	}
	return out, nil
}

func (s *SpotifyService) AddPlaylistTracks(ctx context.Context, playlistID string, ids ...string) error {
	return s.do(ctx, "add playlist items", func(c *spotify.Client) error {
		_, err := c.AddTracksToPlaylist(ctx, spotify.ID(models.ParseID(playlistID)), toIDs(ids)...)
		return err
	})
}

func (s *SpotifyService) RemovePlaylistTracks(ctx context.Context, playlistID string, ids ...string) error {
	return s.do(ctx, "remove playlist items", func(c *spotify.Client) error {
		_, err := c.RemoveTracksFromPlaylist(ctx, spotify.ID(models.ParseID(playlistID)), toIDs(ids)...)
		return err
	})
}

// CreatePlaylist creates a public, non-collaborative playlist and returns its ID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string) (string, error) {
	c, err := s.api()
	if err != nil {
		return "", err
	}

	pl, err := c.CreatePlaylistForUser(ctx, userID, name, description, true, false)
	if err != nil {
		return "", classify("create playlist", err)
	}
	return string(pl.ID), nil
}

func (s *SpotifyService) PlaylistName(ctx context.Context, playlistID string) (string, error) {
	c, err := s.api()
	if err != nil {
		return "", err
	}

	pl, err := c.GetPlaylist(ctx, spotify.ID(models.ParseID(playlistID)), spotify.Fields("name"))
	if err != nil {
		return "", classify("get playlist", err)
	}
	return pl.Name, nil
}

func (s *SpotifyService) PlaylistOwner(ctx context.Context, playlistID string) (string, error) {
	c, err := s.api()
	if err != nil {
		return "", err
	}

	pl, err := c.GetPlaylist(ctx, spotify.ID(models.ParseID(playlistID)), spotify.Fields("owner(id)"))
	if err != nil {
		return "", classify("get playlist", err)
	}
	return pl.Owner.ID, nil
}

func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	c, err := s.api()
	if err != nil {
		return "", err
	}

	user, err := c.CurrentUser(ctx)
	if err != nil {
		return "", classify("get current user", err)
	}
	return user.ID, nil
}

func (s *SpotifyService) Devices(ctx context.Context) ([]models.Device, error) {
	c, err := s.api()
	if err != nil {
		return nil, err
	}

	devices, err := c.PlayerDevices(ctx)
	if err != nil {
		return nil, classify("list devices", err)
	}

	out := make([]models.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, models.Device{
			ID:         string(d.ID),
			Name:       d.Name,
			Type:       d.Type,
			Active:     d.Active,
			Restricted: d.Restricted,
		})
	}
	return out, nil
}

func (s *SpotifyService) TransferPlayback(ctx context.Context, deviceID string) error {
	return s.do(ctx, "transfer playback", func(c *spotify.Client) error {
		return c.TransferPlayback(ctx, spotify.ID(deviceID), true)
	})
}

// ArtistAlbums returns every album (not singles or compilations) credited to the artist.
func (s *SpotifyService) ArtistAlbums(ctx context.Context, artistID string) ([]models.Album, error) {
	c, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := c.GetArtistAlbums(ctx, spotify.ID(models.ParseID(artistID)), []spotify.AlbumType{spotify.AlbumTypeAlbum}, spotify.Limit(50))
	if err != nil {
		return nil, classify("get artist albums", err)
	}

	var albums []models.Album
	for {
		for _, a := range page.Albums {
			albums = append(albums, models.Album{ID: string(a.ID), Name: a.Name})
		}
		err := c.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return albums, classify("get artist albums", err)
		}
	}
	return albums, nil
}

// AlbumTracks returns every track on the album.
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string) ([]models.Track, error) {
	c, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := c.GetAlbumTracks(ctx, spotify.ID(models.ParseID(albumID)), spotify.Limit(50))
	if err != nil {
		return nil, classify("get album tracks", err)
	}

	var tracks []models.Track
	for {
		for i := range page.Tracks {
			tracks = append(tracks, fromSimpleTrack(&page.Tracks[i]))
		}
		err := c.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return tracks, classify("get album tracks", err)
		}
	}
	return tracks, nil
}

func (s *SpotifyService) do(ctx context.Context, op string, fn func(*spotify.Client) error) error {
	c, err := s.api()
	if err != nil {
		return err
	}
	return classify(op, fn(c))
}

// classify maps a client error onto the shared sentinels by HTTP status.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s: %s", shared.ErrNotAuthenticated, op, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %s", shared.ErrNotFound, op, apiErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s: %s", shared.ErrRateLimited, op, apiErr.Message)
		}
		return fmt.Errorf("%w: %s: %d %s", shared.ErrAPIRequest, op, apiErr.Status, apiErr.Message)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %s: %v", shared.ErrRefreshFailed, op, err)
	}

	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, 0, len(ids))
	for _, id := range ids {
		out = append(out, spotify.ID(models.ParseID(id)))
	}
	return out
}

func fromFullTrack(t *spotify.FullTrack) *models.Track {
	if t == nil || t.ID == "" {
		return nil
	}
	track := fromSimpleTrack(&t.SimpleTrack)
	track.Album = t.Album.Name
	return &track
}

func fromSimpleTrack(t *spotify.SimpleTrack) models.Track {
	track := models.Track{ID: string(t.ID), URI: string(t.URI), Name: t.Name}
	for _, a := range t.Artists {
		track.Artists = append(track.Artists, a.Name)
		track.ArtistIDs = append(track.ArtistIDs, string(a.ID))
	}
	return track
}

package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")
	ErrExitRequested  = fmt.Errorf("exit requested")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrPersistence        = fmt.Errorf("failed to persist configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest   = fmt.Errorf("API request failed")
	ErrRateLimited  = fmt.Errorf("rate limited by remote service")
	ErrNotFound     = fmt.Errorf("not found")
	ErrNoDevice     = fmt.Errorf("no playback device available")
	ErrNoContext    = fmt.Errorf("nothing is currently playing")
	ErrNotOwner     = fmt.Errorf("playlist is not owned by the current user")
	ErrNoTarget     = fmt.Errorf("no target playlist set")
	ErrNotAPlaylist = fmt.Errorf("current context is not a playlist")

	// Bookmark errors
	ErrNoBookmark   = fmt.Errorf("no bookmark found")
	ErrUnknownSlot  = fmt.Errorf("no bookmark slot for key")
	ErrDuplicateKey = fmt.Errorf("bookmark key already in use")

	// Hotkey errors
	ErrInvalidChord = fmt.Errorf("invalid chord")
	ErrChordBound   = fmt.Errorf("chord already bound")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// package poll runs the two periodic tasks of the daemon: a keepalive that stops idle
// players from dropping their session, and a track watcher that refreshes the indicator.
package poll

import "sync"

// DefaultIdleThreshold is the number of consecutive idle keepalive ticks that suspend polling.
const DefaultIdleThreshold = 6

// State is the poll state shared by both loops and the playback-start handlers.
type State struct {
	mu        sync.Mutex
	lastSeen  string
	idle      int
	enabled   bool
	threshold int
}

// View is a copy of [State] at one instant.
type View struct {
	LastSeenTrackID string
	IdleCount       int
	Enabled         bool
}

func NewState(threshold int) *State {
	if threshold <= 0 {
		threshold = DefaultIdleThreshold
	}
	return &State{enabled: true, threshold: threshold}
}

// Enabled reports whether the loops may call the remote service.
func (s *State) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Resume re-enables polling and clears the idle count.
func (s *State) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
	s.idle = 0
}

// Snapshot returns a copy of the state.
func (s *State) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{LastSeenTrackID: s.lastSeen, IdleCount: s.idle, Enabled: s.enabled}
}

// recordIdle counts an idle tick and reports whether this tick suspended polling.
func (s *State) recordIdle() (count int, suspended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle++
	if s.idle >= s.threshold && s.enabled {
		s.enabled = false
		return s.idle, true
	}
	return s.idle, false
}

func (s *State) recordPlaying() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle = 0
}

// observeTrack records id and reports whether it differs from the last seen track.
func (s *State) observeTrack(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.lastSeen {
		return false
	}
	s.lastSeen = id
	s.idle = 0
	return true
}

// package bookmarks keeps a fixed set of playback bookmarks in the configuration store and
// binds a save and a load chord to each of them.
package bookmarks

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotkey/internal/models"
	"github.com/desertthunder/spotkey/internal/shared"
)

const (
	// DefaultSlots is the number of pre-allocated bookmark sections.
	DefaultSlots = 10
	// SectionPrefix names bookmark sections in the store ("bookmark-0", ...).
	SectionPrefix = "bookmark-"
	// DefaultPrefix is the modifier combo that precedes the save and load leaders.
	DefaultPrefix = "control + alt + shift"
)

// Store keys of a bookmark section.
const (
	KeyPlaylistID   = "playlist_id"
	KeyPlaylistName = "playlist_name"
	KeyTrackID      = "track_id"
	KeyPositionMS   = "position_ms"
	KeyChord        = "key"
)

// Remote is the subset of the remote service bookmarks need.
type Remote interface {
	CurrentPlayback(ctx context.Context) (*models.Snapshot, error)
	PlaylistName(ctx context.Context, playlistID string) (string, error)
	Play(ctx context.Context, req models.PlayRequest) error
	Seek(ctx context.Context, positionMS int) error
}

// Store is the configuration store holding bookmark sections.
type Store interface {
	GetValue(section, key string) (string, bool)
	SetValues(section string, values map[string]string) error
	ListSections(prefix string) []string
}

// Registrar binds chords to handlers.
type Registrar interface {
	Register(chord string, handler func(ctx context.Context)) bool
	Unregister(chord string) bool
}

// Journal records bookmark use.
type Journal interface {
	Record(ctx context.Context, entry *models.HistoryEntry) error
}

// Options configures a [Manager].
type Options struct {
	Remote    Remote
	Store     Store
	Registrar Registrar
	Logger    *log.Logger
	// Prefix is the modifier combo of every bookmark chord. Empty uses [DefaultPrefix].
	Prefix string
	// Slots is the number of bookmark sections. Zero uses [DefaultSlots].
	Slots int
	// OnPlaybackStart runs after a bookmark started playback.
	OnPlaybackStart func()
	// Journal is optional.
	Journal Journal
}

// Manager owns the bookmark slots and their chords.
type Manager struct {
	remote    Remote
	store     Store
	registrar Registrar
	logger    *log.Logger
	prefix    string
	size      int
	onStart   func()
	journal   Journal

	mu    sync.RWMutex
	slots []models.Bookmark

	regMu      sync.Mutex
	registered map[string]struct{}
}

// NewManager creates a manager. Call [Manager.Init] before use.
func NewManager(opts Options) *Manager {
	m := &Manager{
		remote:     opts.Remote,
		store:      opts.Store,
		registrar:  opts.Registrar,
		logger:     opts.Logger,
		prefix:     strings.TrimSpace(opts.Prefix),
		size:       opts.Slots,
		onStart:    opts.OnPlaybackStart,
		journal:    opts.Journal,
		registered: make(map[string]struct{}),
	}
	if m.prefix == "" {
		m.prefix = DefaultPrefix
	}
	if m.size <= 0 {
		m.size = DefaultSlots
	}
	if m.logger == nil {
		m.logger = shared.NewLogger(nil)
	}
	return m
}

// Section returns the store section name of slot.
func Section(slot int) string {
	return SectionPrefix + strconv.Itoa(slot)
}

// SaveChord returns the chord that saves the bookmark bound to key.
func (m *Manager) SaveChord(key string) string {
	return fmt.Sprintf("%s + b, %s", m.prefix, key)
}

// LoadChord returns the chord that loads the bookmark bound to key.
func (m *Manager) LoadChord(key string) string {
	return fmt.Sprintf("%s + l, %s", m.prefix, key)
}

// Init creates missing slots with keys "0".."9", reads every slot and registers chords.
func (m *Manager) Init(ctx context.Context) {
	existing := m.store.ListSections(SectionPrefix)
	for slot := range m.size {
		section := Section(slot)
		if slices.Contains(existing, section) {
			continue
		}

		m.logger.Debug("creating bookmark slot", "section", section)
		m.write(models.Bookmark{Slot: slot, Key: strconv.Itoa(slot)})
	}

	m.Reload(ctx)
}

// Reload re-reads every slot from the store and re-runs the chord diff.
func (m *Manager) Reload(ctx context.Context) {
	slots := make([]models.Bookmark, m.size)
	for slot := range m.size {
		slots[slot] = m.read(slot)
	}

	m.mu.Lock()
	m.slots = slots
	m.mu.Unlock()

	m.RegisterDynamicHotkeys()
}

// List returns a copy of every slot.
func (m *Manager) List() []models.Bookmark {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.slots)
}

// Lookup returns the first slot bound to key.
func (m *Manager) Lookup(key string) (models.Bookmark, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.index(key)
	if i < 0 {
		return models.Bookmark{}, false
	}
	return m.slots[i], true
}

// index returns the first slot bound to key, or -1. Callers hold mu.
func (m *Manager) index(key string) int {
	key = normalizeKey(key)
	if key == "" {
		return -1
	}
	return slices.IndexFunc(m.slots, func(b models.Bookmark) bool { return b.Key == key })
}

// Save stores the current playback position in the slot bound to key and refreshes chords.
func (m *Manager) Save(ctx context.Context, key string) error {
	key = normalizeKey(key)

	m.mu.RLock()
	i := m.index(key)
	var target models.Bookmark
	var conflict bool
	if i >= 0 {
		target = m.slots[i]
		for _, other := range m.slots[i+1:] {
			if other.Key == key && !other.Empty() {
				conflict = true
			}
		}
	}
	m.mu.RUnlock()

	if i < 0 {
		m.logger.Warn("no bookmark slot", "key", key)
		return fmt.Errorf("%w: %q", shared.ErrUnknownSlot, key)
	}
	if conflict {
		m.logger.Warn("bookmark key is used by more than one slot", "key", key)
		return fmt.Errorf("%w: %q", shared.ErrDuplicateKey, key)
	}

	snapshot, err := m.remote.CurrentPlayback(ctx)
	if err != nil {
		m.logger.Error("cannot save bookmark", "key", key, "error", err)
		return err
	}
	if !snapshot.HasTrack() {
		m.logger.Warn("cannot save: nothing is playing", "key", key)
		return fmt.Errorf("%w: cannot save bookmark %q", shared.ErrNoContext, key)
	}

	bookmark := models.Bookmark{
		Slot:         target.Slot,
		Key:          key,
		PlaylistRef:  snapshot.ContextRef,
		PlaylistName: m.playlistName(ctx, snapshot.ContextRef),
		TrackRef:     snapshot.Track.ID,
		PositionMS:   max(snapshot.ProgressMS, 0),
	}

	m.mu.Lock()
	m.slots[bookmark.Slot] = bookmark
	m.mu.Unlock()

	m.write(bookmark)
	m.logger.Info("bookmark saved",
		"key", key, "track", snapshot.Track.Name, "playlist", bookmark.PlaylistName, "position", bookmark.PositionMS)

	entry := models.NewHistoryEntry(models.HistoryBookmarkSave, snapshot.Track, snapshot.ContextRef)
	entry.PositionMS = bookmark.PositionMS
	entry.Slot = bookmark.Slot
	m.record(ctx, entry)

	m.RegisterDynamicHotkeys()
	return nil
}

// Load starts playback at the bookmark bound to key.
func (m *Manager) Load(ctx context.Context, key string) error {
	bookmark, ok := m.Lookup(key)
	if !ok || bookmark.Empty() {
		m.logger.Warn("no bookmark found", "key", key)
		return fmt.Errorf("%w: %q", shared.ErrNoBookmark, key)
	}

	if err := m.remote.Play(ctx, bookmark.PlayRequest()); err != nil {
		m.logger.Error("failed to start bookmark playback", "key", bookmark.Key, "error", err)
		return err
	}
	if m.onStart != nil {
		m.onStart()
	}

	if err := m.remote.Seek(ctx, bookmark.PositionMS); err != nil {
		m.logger.Error("failed to seek to bookmark position", "key", bookmark.Key, "error", err)
		return err
	}

	m.logger.Info("bookmark loaded",
		"key", bookmark.Key, "playlist", bookmark.PlaylistName, "position", bookmark.PositionMS)

	entry := models.NewHistoryEntry(models.HistoryBookmarkLoad, &models.Track{ID: bookmark.TrackRef}, bookmark.PlaylistRef)
	entry.PositionMS = bookmark.PositionMS
	entry.Slot = bookmark.Slot
	m.record(ctx, entry)
	return nil
}

// RegisterDynamicHotkeys brings the registered chords in line with the current slots.
//
// Every slot with a key gets a save and a load chord. Chords no longer wanted are
// unregistered; chords already registered are left alone.
func (m *Manager) RegisterDynamicHotkeys() {
	desired := m.desired()

	m.regMu.Lock()
	defer m.regMu.Unlock()

	var stale []string
	for chord := range m.registered {
		if _, ok := desired[chord]; !ok {
			stale = append(stale, chord)
		}
	}
	slices.Sort(stale)
	for _, chord := range stale {
		m.registrar.Unregister(chord)
		delete(m.registered, chord)
	}

	var added []string
	for chord := range desired {
		if _, ok := m.registered[chord]; !ok {
			added = append(added, chord)
		}
	}
	slices.Sort(added)
	for _, chord := range added {
		if !m.registrar.Register(chord, desired[chord]) {
			m.logger.Warn("failed to register bookmark chord", "chord", chord)
			continue
		}
		m.registered[chord] = struct{}{}
	}

	if len(stale)+len(added) > 0 {
		m.logger.Debug("bookmark chords updated", "removed", len(stale), "added", len(added))
	}
}

// Chords returns the registered bookmark chords, sorted.
func (m *Manager) Chords() []string {
	m.regMu.Lock()
	defer m.regMu.Unlock()
	chords := make([]string, 0, len(m.registered))
	for c := range m.registered {
		chords = append(chords, c)
	}
	slices.Sort(chords)
	return chords
}

func (m *Manager) desired() map[string]func(context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := make(map[string]func(context.Context))
	seen := make(map[string]int)
	for _, b := range m.slots {
		if b.Key == "" {
			continue
		}
		if first, ok := seen[b.Key]; ok {
			m.logger.Warn("duplicate bookmark key, keeping first slot", "key", b.Key, "slot", b.Slot, "first", first)
			continue
		}
		seen[b.Key] = b.Slot

		key := b.Key
		want[m.SaveChord(key)] = func(ctx context.Context) { _ = m.Save(ctx, key) }
		want[m.LoadChord(key)] = func(ctx context.Context) { _ = m.Load(ctx, key) }
	}
	return want
}

func (m *Manager) playlistName(ctx context.Context, contextRef string) string {
	id, ok := models.PlaylistID(contextRef)
	if !ok {
		return models.DefaultPlaylistName
	}

	name, err := m.remote.PlaylistName(ctx, id)
	if err != nil || name == "" {
		m.logger.Debug("playlist name lookup failed", "playlist", id, "error", err)
		return models.DefaultPlaylistName
	}
	return name
}

func (m *Manager) read(slot int) models.Bookmark {
	section := Section(slot)
	b := models.Bookmark{
		Slot:         slot,
		Key:          normalizeKey(m.value(section, KeyChord)),
		PlaylistRef:  m.value(section, KeyPlaylistID),
		PlaylistName: m.value(section, KeyPlaylistName),
		TrackRef:     m.value(section, KeyTrackID),
	}

	if raw := m.value(section, KeyPositionMS); raw != "" {
		pos, err := strconv.Atoi(raw)
		if err != nil || pos < 0 {
			m.logger.Warn("invalid bookmark position", "section", section, "value", raw)
			pos = 0
		}
		b.PositionMS = pos
	}
	if !b.Empty() && b.PlaylistName == "" {
		b.PlaylistName = models.DefaultPlaylistName
	}
	return b
}

func (m *Manager) value(section, key string) string {
	v, ok := m.store.GetValue(section, key)
	if !ok {
		return ""
	}
	v = strings.TrimSpace(v)
	if v == "None" {
		return ""
	}
	return v
}

// write persists b in one store call so a failure never leaves a half-written slot.
// Failures are logged; the in-memory slot is kept either way.
func (m *Manager) write(b models.Bookmark) {
	section := Section(b.Slot)
	values := map[string]string{
		KeyChord:        b.Key,
		KeyPlaylistID:   b.PlaylistRef,
		KeyPlaylistName: b.PlaylistName,
		KeyTrackID:      b.TrackRef,
		KeyPositionMS:   strconv.Itoa(b.PositionMS),
	}

	if err := m.store.SetValues(section, values); err != nil {
		m.logger.Error("failed to persist bookmark", "section", section, "error", err)
	}
}

func (m *Manager) record(ctx context.Context, entry *models.HistoryEntry) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Record(ctx, entry); err != nil {
		m.logger.Warn("failed to journal bookmark", "error", err)
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

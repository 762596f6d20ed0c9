package bookmarks

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotkey/internal/models"
	"github.com/desertthunder/spotkey/internal/shared"
	tu "github.com/desertthunder/spotkey/internal/testing"
)

type journal struct {
	entries []*models.HistoryEntry
}

func (j *journal) Record(ctx context.Context, e *models.HistoryEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

type fixture struct {
	remote    *tu.FakeRemote
	store     *tu.MemoryStore
	registrar *tu.RecordingRegistrar
	journal   *journal
	starts    int
	manager   *Manager
}

func newFixture(t *testing.T, seed map[string]map[string]string) *fixture {
	t.Helper()
	f := &fixture{
		remote:    tu.NewFakeRemote(),
		store:     tu.NewMemoryStore(seed),
		registrar: tu.NewRecordingRegistrar(),
		journal:   &journal{},
	}
	f.manager = NewManager(Options{
		Remote:          f.remote,
		Store:           f.store,
		Registrar:       f.registrar,
		Logger:          log.New(io.Discard),
		Prefix:          "control + alt + shift",
		OnPlaybackStart: func() { f.starts++ },
		Journal:         f.journal,
	})
	f.manager.Init(context.Background())
	return f
}

func playing(trackID, contextRef string, progress int) *models.Snapshot {
	return &models.Snapshot{
		IsPlaying:  true,
		ProgressMS: progress,
		ContextRef: contextRef,
		Track:      &models.Track{ID: trackID, Name: "Song " + trackID, Album: "Record"},
	}
}

func TestInit(t *testing.T) {
	t.Run("creates ten slots with numeric keys", func(t *testing.T) {
		f := newFixture(t, nil)

		slots := f.manager.List()
		if len(slots) != DefaultSlots {
			t.Fatalf("expected %d slots, got %d", DefaultSlots, len(slots))
		}
		for i, b := range slots {
			if !b.Empty() {
				t.Errorf("slot %d should be empty", i)
			}
			if key, _ := f.store.GetValue(Section(i), KeyChord); key != b.Key {
				t.Errorf("slot %d key %q not persisted", i, b.Key)
			}
		}
		if got := len(f.registrar.Chords()); got != 2*DefaultSlots {
			t.Errorf("expected %d chords, got %d", 2*DefaultSlots, got)
		}
	})

	t.Run("keeps existing slots", func(t *testing.T) {
		f := newFixture(t, map[string]map[string]string{
			"bookmark-3": {
				KeyChord: "q", KeyTrackID: "t9", KeyPositionMS: "1500",
				KeyPlaylistID: "None", KeyPlaylistName: "",
			},
		})

		b, ok := f.manager.Lookup("q")
		if !ok {
			t.Fatal("expected slot bound to q")
		}
		if b.Slot != 3 || b.TrackRef != "t9" || b.PositionMS != 1500 {
			t.Errorf("unexpected bookmark %+v", b)
		}
		if b.PlaylistRef != "" {
			t.Errorf("None should read as empty, got %q", b.PlaylistRef)
		}
		if b.PlaylistName != models.DefaultPlaylistName {
			t.Errorf("expected fallback name, got %q", b.PlaylistName)
		}
		if _, ok := f.manager.Lookup("3"); ok {
			t.Error("slot 3 should no longer be bound to its default key")
		}
	})

	t.Run("invalid position reads as zero", func(t *testing.T) {
		f := newFixture(t, map[string]map[string]string{
			"bookmark-0": {KeyChord: "0", KeyTrackID: "t1", KeyPositionMS: "soon"},
		})
		if b, _ := f.manager.Lookup("0"); b.PositionMS != 0 {
			t.Errorf("expected 0, got %d", b.PositionMS)
		}
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("save then load plays the saved track at the saved offset", func(t *testing.T) {
		f := newFixture(t, nil)
		f.remote.PlaylistNames["p1"] = "Morning"
		f.remote.Snapshots = []*models.Snapshot{playing("t1", "spotify:playlist:p1", 83_000)}

		if err := f.manager.Save(ctx, "3"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		f.remote.Reset()

		if err := f.manager.Load(ctx, "3"); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		plays := f.remote.CallsTo("Play")
		if len(plays) != 1 {
			t.Fatalf("expected 1 play, got %d", len(plays))
		}
		req := plays[0].Args[0].(models.PlayRequest)
		if req.ContextURI != "spotify:playlist:p1" || req.OffsetTrack != "spotify:track:t1" {
			t.Errorf("unexpected play request %+v", req)
		}

		seeks := f.remote.CallsTo("Seek")
		if len(seeks) != 1 || seeks[0].Args[0] != 83_000 {
			t.Errorf("expected seek to 83000, got %+v", seeks)
		}
		if f.starts != 1 {
			t.Errorf("expected playback start hook once, got %d", f.starts)
		}

		b, _ := f.manager.Lookup("3")
		if b.PlaylistName != "Morning" {
			t.Errorf("expected playlist name Morning, got %q", b.PlaylistName)
		}
		if v, _ := f.store.GetValue("bookmark-3", KeyPositionMS); v != "83000" {
			t.Errorf("position not persisted, got %q", v)
		}
		if len(f.journal.entries) != 2 {
			t.Errorf("expected save and load journaled, got %d", len(f.journal.entries))
		}
	})

	t.Run("without a track writes nothing and registers nothing", func(t *testing.T) {
		f := newFixture(t, nil)
		f.remote.Snapshots = []*models.Snapshot{{IsPlaying: false}}
		writes := f.store.Writes()
		f.registrar.ResetOps()

		err := f.manager.Save(ctx, "3")
		if !errors.Is(err, shared.ErrNoContext) {
			t.Errorf("expected ErrNoContext, got %v", err)
		}
		if f.store.Writes() != writes {
			t.Errorf("expected no store writes, got %d", f.store.Writes()-writes)
		}
		if ops := f.registrar.Ops(); len(ops) != 0 {
			t.Errorf("expected no hotkey calls, got %v", ops)
		}
	})

	t.Run("no active device is treated as nothing playing", func(t *testing.T) {
		f := newFixture(t, nil)
		writes := f.store.Writes()

		if err := f.manager.Save(ctx, "1"); err == nil {
			t.Error("expected error")
		}
		if f.store.Writes() != writes {
			t.Error("expected no store writes")
		}
	})

	t.Run("non-playlist context keeps the fallback name", func(t *testing.T) {
		f := newFixture(t, nil)
		f.remote.Snapshots = []*models.Snapshot{playing("t1", "spotify:album:a1", 10)}

		if err := f.manager.Save(ctx, "0"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if f.remote.Count("PlaylistName") != 0 {
			t.Error("album contexts should not be looked up")
		}
		if b, _ := f.manager.Lookup("0"); b.PlaylistName != models.DefaultPlaylistName {
			t.Errorf("expected fallback, got %q", b.PlaylistName)
		}
	})

	t.Run("failed name lookup keeps the fallback name", func(t *testing.T) {
		f := newFixture(t, nil)
		f.remote.Snapshots = []*models.Snapshot{playing("t1", "spotify:playlist:gone", 10)}

		if err := f.manager.Save(ctx, "0"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if b, _ := f.manager.Lookup("0"); b.PlaylistName != models.DefaultPlaylistName {
			t.Errorf("expected fallback, got %q", b.PlaylistName)
		}
	})

	t.Run("saving twice overwrites the slot", func(t *testing.T) {
		f := newFixture(t, nil)
		f.remote.Snapshots = []*models.Snapshot{playing("t1", "", 10), playing("t2", "", 20)}

		f.manager.Save(ctx, "5")
		f.manager.Save(ctx, "5")

		b, _ := f.manager.Lookup("5")
		if b.TrackRef != "t2" || b.PositionMS != 20 {
			t.Errorf("expected latest save, got %+v", b)
		}
	})

	t.Run("store failure still updates memory", func(t *testing.T) {
		f := newFixture(t, nil)
		f.store.Err = errors.New("disk full")
		f.remote.Snapshots = []*models.Snapshot{playing("t1", "", 10)}

		if err := f.manager.Save(ctx, "2"); err != nil {
			t.Fatalf("Save should succeed best effort, got %v", err)
		}
		if b, _ := f.manager.Lookup("2"); b.TrackRef != "t1" {
			t.Errorf("expected in-memory update, got %+v", b)
		}
	})

	t.Run("failed write leaves the stored slot whole", func(t *testing.T) {
		f := newFixture(t, nil)
		f.remote.Snapshots = []*models.Snapshot{
			playing("old", "spotify:album:A", 1000),
			playing("new", "spotify:album:B", 9000),
		}
		if err := f.manager.Save(ctx, "4"); err != nil {
			t.Fatalf("first Save failed: %v", err)
		}

		f.store.FailKey = KeyTrackID
		if err := f.manager.Save(ctx, "4"); err != nil {
			t.Fatalf("second Save should succeed best effort, got %v", err)
		}
		f.store.FailKey = ""
		f.manager.Reload(ctx)

		b, _ := f.manager.Lookup("4")
		if b.PlaylistRef != "spotify:album:A" || b.TrackRef != "old" || b.PositionMS != 1000 {
			t.Errorf("expected the first save intact, got %+v", b)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		f := newFixture(t, nil)
		if err := f.manager.Save(ctx, "z"); !errors.Is(err, shared.ErrUnknownSlot) {
			t.Errorf("expected ErrUnknownSlot, got %v", err)
		}
		if f.remote.Count("CurrentPlayback") != 0 {
			t.Error("unknown slot should not reach the remote")
		}
	})

	t.Run("key held by another populated slot is rejected", func(t *testing.T) {
		f := newFixture(t, map[string]map[string]string{
			"bookmark-1": {KeyChord: "k"},
			"bookmark-2": {KeyChord: "k", KeyTrackID: "t2"},
		})
		f.remote.Snapshots = []*models.Snapshot{playing("t1", "", 10)}

		if err := f.manager.Save(ctx, "k"); !errors.Is(err, shared.ErrDuplicateKey) {
			t.Errorf("expected ErrDuplicateKey, got %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("empty slot makes no remote call", func(t *testing.T) {
		f := newFixture(t, nil)
		if err := f.manager.Load(ctx, "4"); !errors.Is(err, shared.ErrNoBookmark) {
			t.Errorf("expected ErrNoBookmark, got %v", err)
		}
		if calls := f.remote.Calls(); len(calls) != 0 {
			t.Errorf("expected no remote calls, got %v", calls)
		}
	})

	t.Run("unknown key makes no remote call", func(t *testing.T) {
		f := newFixture(t, nil)
		f.manager.Load(ctx, "nope")
		if calls := f.remote.Calls(); len(calls) != 0 {
			t.Errorf("expected no remote calls, got %v", calls)
		}
	})

	t.Run("bare track without context", func(t *testing.T) {
		f := newFixture(t, map[string]map[string]string{
			"bookmark-7": {KeyChord: "7", KeyTrackID: "t7", KeyPositionMS: "42"},
		})

		if err := f.manager.Load(ctx, "7"); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		req := f.remote.CallsTo("Play")[0].Args[0].(models.PlayRequest)
		if !slices.Equal(req.URIs, []string{"spotify:track:t7"}) || req.ContextURI != "" {
			t.Errorf("unexpected play request %+v", req)
		}
	})

	t.Run("play failure stops before seek", func(t *testing.T) {
		f := newFixture(t, map[string]map[string]string{
			"bookmark-7": {KeyChord: "7", KeyTrackID: "t7"},
		})
		f.remote.SetErr("Play", shared.ErrNoDevice)

		if err := f.manager.Load(ctx, "7"); !errors.Is(err, shared.ErrNoDevice) {
			t.Errorf("expected play error, got %v", err)
		}
		if f.remote.Count("Seek") != 0 {
			t.Error("seek should not run after a failed play")
		}
		if f.starts != 0 {
			t.Error("playback start hook should not run")
		}
	})

	t.Run("seek failure after play", func(t *testing.T) {
		f := newFixture(t, map[string]map[string]string{
			"bookmark-7": {KeyChord: "7", KeyTrackID: "t7", KeyPositionMS: "42"},
		})
		f.remote.SetErr("Seek", shared.ErrAPIRequest)

		if err := f.manager.Load(ctx, "7"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected seek error, got %v", err)
		}
		if f.remote.Count("Play") != 1 {
			t.Errorf("expected one play, got %d", f.remote.Count("Play"))
		}
		if f.starts != 1 {
			t.Errorf("playback already started, expected hook once, got %d", f.starts)
		}
		if len(f.journal.entries) != 0 {
			t.Errorf("expected nothing journaled, got %d", len(f.journal.entries))
		}
	})

	t.Run("load chord triggers load", func(t *testing.T) {
		f := newFixture(t, map[string]map[string]string{
			"bookmark-7": {KeyChord: "7", KeyTrackID: "t7"},
		})
		if !f.registrar.Trigger(ctx, f.manager.LoadChord("7")) {
			t.Fatal("load chord not registered")
		}
		if f.remote.Count("Play") != 1 {
			t.Error("expected play from chord")
		}
	})
}

func TestRegisterDynamicHotkeys(t *testing.T) {
	t.Run("second run makes no calls", func(t *testing.T) {
		f := newFixture(t, nil)
		before := f.registrar.Chords()
		f.registrar.ResetOps()

		f.manager.RegisterDynamicHotkeys()

		if ops := f.registrar.Ops(); len(ops) != 0 {
			t.Errorf("expected no churn, got %v", ops)
		}
		if !slices.Equal(before, f.registrar.Chords()) {
			t.Error("chord set changed")
		}
	})

	t.Run("changed key replaces its chords", func(t *testing.T) {
		f := newFixture(t, nil)
		f.store.SetValue("bookmark-2", KeyChord, "w")
		f.registrar.ResetOps()

		f.manager.Reload(context.Background())

		want := []string{
			"unregister control + alt + shift + b, 2",
			"unregister control + alt + shift + l, 2",
			"register control + alt + shift + b, w",
			"register control + alt + shift + l, w",
		}
		if ops := f.registrar.Ops(); !slices.Equal(ops, want) {
			t.Errorf("unexpected ops:\n got %v\nwant %v", ops, want)
		}
	})

	t.Run("duplicate keys register once", func(t *testing.T) {
		f := newFixture(t, map[string]map[string]string{
			"bookmark-1": {KeyChord: "k"},
			"bookmark-2": {KeyChord: "k"},
		})
		chords := f.registrar.Chords()
		if len(chords) != 2*(DefaultSlots-1) {
			t.Errorf("expected %d chords, got %d", 2*(DefaultSlots-1), len(chords))
		}
	})

	t.Run("rejected chord is retried on the next run", func(t *testing.T) {
		f := newFixture(t, nil)
		chord := f.manager.SaveChord("9")
		f.registrar.Unregister(chord)
		delete(f.manager.registered, chord)
		f.registrar.Reject = map[string]bool{chord: true}
		f.registrar.ResetOps()

		f.manager.RegisterDynamicHotkeys()
		if slices.Contains(f.manager.Chords(), chord) {
			t.Error("rejected chord should not be recorded")
		}

		f.registrar.Reject = nil
		f.manager.RegisterDynamicHotkeys()
		if !slices.Contains(f.manager.Chords(), chord) {
			t.Error("chord should be registered on retry")
		}
	})
}

package poll

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

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

func newLoop(remote *tu.FakeRemote, ind *tu.RecordingIndicator, j Journal) *Loop {
	l := NewLoop(Options{
		Remote:    remote,
		State:     NewState(DefaultIdleThreshold),
		Indicator: ind,
		Logger:    log.New(io.Discard),
		Journal:   j,
	})
	l.spawn = func(f func()) { f() }
	l.sleep = func(context.Context, time.Duration) {}
	return l
}

func idle(progress int) *models.Snapshot {
	return &models.Snapshot{IsPlaying: false, ProgressMS: progress, Track: &models.Track{ID: "t1"}}
}

func playingTrack(id string) *models.TrackContext {
	return &models.TrackContext{
		IsPlaying:  true,
		ContextRef: "spotify:playlist:p1",
		Track:      &models.Track{ID: id, Name: "Song " + id, Album: "Album " + id},
	}
}

func TestState(t *testing.T) {
	t.Run("threshold suspends once", func(t *testing.T) {
		s := NewState(3)
		var suspensions int
		for range 5 {
			if _, suspended := s.recordIdle(); suspended {
				suspensions++
			}
		}
		if suspensions != 1 {
			t.Errorf("expected 1 suspension, got %d", suspensions)
		}
		if s.Enabled() {
			t.Error("expected disabled")
		}
	})

	t.Run("resume clears idle count", func(t *testing.T) {
		s := NewState(2)
		s.recordIdle()
		s.recordIdle()
		s.Resume()

		v := s.Snapshot()
		if !v.Enabled || v.IdleCount != 0 {
			t.Errorf("unexpected state %+v", v)
		}
	})

	t.Run("observe track", func(t *testing.T) {
		s := NewState(0)
		s.recordIdle()
		if !s.observeTrack("a") {
			t.Error("first track should be new")
		}
		if s.observeTrack("a") {
			t.Error("same track should not be new")
		}
		if s.Snapshot().IdleCount != 0 {
			t.Error("new track should reset idle count")
		}
	})
}

func TestKeepaliveTick(t *testing.T) {
	ctx := context.Background()

	t.Run("six idle snapshots disable polling once", func(t *testing.T) {
		remote := tu.NewFakeRemote()
		remote.Snapshots = []*models.Snapshot{idle(1000)}
		ind := &tu.RecordingIndicator{}
		l := newLoop(remote, ind, nil)

		for range 6 {
			l.KeepaliveTick(ctx)
		}

		if l.State().Enabled() {
			t.Fatal("expected polling disabled")
		}
		if got := remote.Count("CurrentPlayback"); got != 6 {
			t.Errorf("expected 6 reads, got %d", got)
		}
		if got := remote.Count("Seek"); got != 10 {
			t.Errorf("expected 5 wiggles (10 seeks), got %d", got)
		}
		if texts := ind.Texts(); len(texts) != 1 || !strings.Contains(texts[0], SuspendedNotice) {
			t.Errorf("expected one suspension notice, got %v", texts)
		}

		remote.Reset()
		l.KeepaliveTick(ctx)
		l.TrackTick(ctx)
		if calls := remote.Calls(); len(calls) != 0 {
			t.Errorf("expected no remote calls while suspended, got %v", calls)
		}
		if len(ind.Texts()) != 1 {
			t.Error("notice should be emitted once")
		}

		l.State().Resume()
		l.KeepaliveTick(ctx)
		if remote.Count("CurrentPlayback") != 1 {
			t.Error("expected polling after resume")
		}
	})

	t.Run("five idle and one playing stay enabled", func(t *testing.T) {
		remote := tu.NewFakeRemote()
		playing := idle(0)
		playing.IsPlaying = true
		remote.Snapshots = []*models.Snapshot{idle(0), idle(0), idle(0), idle(0), idle(0), playing}
		l := newLoop(remote, &tu.RecordingIndicator{}, nil)

		for range 6 {
			l.KeepaliveTick(ctx)
		}

		v := l.State().Snapshot()
		if !v.Enabled || v.IdleCount != 0 {
			t.Errorf("unexpected state %+v", v)
		}
	})

	t.Run("wiggle seeks forward then back", func(t *testing.T) {
		remote := tu.NewFakeRemote()
		remote.Snapshots = []*models.Snapshot{idle(5000)}
		l := newLoop(remote, &tu.RecordingIndicator{}, nil)

		l.KeepaliveTick(ctx)

		seeks := remote.CallsTo("Seek")
		if len(seeks) != 2 || seeks[0].Args[0] != 5064 || seeks[1].Args[0] != 5000 {
			t.Errorf("unexpected seeks %+v", seeks)
		}
	})

	t.Run("failed wiggle skips the seek back", func(t *testing.T) {
		remote := tu.NewFakeRemote()
		remote.Snapshots = []*models.Snapshot{idle(5000)}
		remote.SetErr("Seek", shared.ErrNoDevice)
		slept := 0
		l := newLoop(remote, &tu.RecordingIndicator{}, nil)
		l.sleep = func(context.Context, time.Duration) { slept++ }

		l.KeepaliveTick(ctx)

		if seeks := remote.CallsTo("Seek"); len(seeks) != 1 || seeks[0].Args[0] != 5064 {
			t.Errorf("expected a single forward seek, got %+v", seeks)
		}
		if slept != 0 {
			t.Error("should not pause after a failed seek")
		}
		if v := l.State().Snapshot(); v.IdleCount != 1 || !v.Enabled {
			t.Errorf("idle tick should still count, got %+v", v)
		}
	})

	t.Run("remote error leaves state unchanged", func(t *testing.T) {
		remote := tu.NewFakeRemote()
		remote.SetErr("CurrentPlayback", shared.ErrRateLimited)
		l := newLoop(remote, &tu.RecordingIndicator{}, nil)

		l.KeepaliveTick(ctx)

		if v := l.State().Snapshot(); v.IdleCount != 0 || !v.Enabled {
			t.Errorf("unexpected state %+v", v)
		}
	})

	t.Run("no active device transfers playback", func(t *testing.T) {
		remote := tu.NewFakeRemote()
		remote.DeviceList = []models.Device{{ID: "d1", Name: "Laptop"}}
		l := newLoop(remote, &tu.RecordingIndicator{}, nil)

		l.KeepaliveTick(ctx)

		transfers := remote.CallsTo("TransferPlayback")
		if len(transfers) != 1 || transfers[0].Args[0] != "d1" {
			t.Errorf("expected transfer to d1, got %+v", transfers)
		}
		if v := l.State().Snapshot(); v.IdleCount != 0 {
			t.Errorf("state should be unchanged, got %+v", v)
		}
	})
}

func TestTrackTick(t *testing.T) {
	ctx := context.Background()

	t.Run("A A B B A updates the indicator twice", func(t *testing.T) {
		remote := tu.NewFakeRemote()
		remote.Saved["B"] = true
		remote.Playing = []*models.TrackContext{
			playingTrack("A"), playingTrack("A"), playingTrack("B"), playingTrack("B"), playingTrack("A"),
		}
		ind := &tu.RecordingIndicator{}
		j := &journal{}
		l := newLoop(remote, ind, j)
		l.state.observeTrack("A")

		for range 5 {
			l.TrackTick(ctx)
		}

		want := []string{"♥ Album B · Song B", "♡ Album A · Song A"}
		texts := ind.Texts()
		if len(texts) != len(want) {
			t.Fatalf("expected %d updates, got %v", len(want), texts)
		}
		for i := range want {
			if texts[i] != want[i] {
				t.Errorf("update %d = %q, want %q", i, texts[i], want[i])
			}
		}
		if len(j.entries) != 2 {
			t.Errorf("expected 2 journal entries, got %d", len(j.entries))
		}
	})

	t.Run("error and empty reads change nothing", func(t *testing.T) {
		remote := tu.NewFakeRemote()
		ind := &tu.RecordingIndicator{}
		l := newLoop(remote, ind, nil)

		l.TrackTick(ctx)
		remote.SetErr("CurrentlyPlaying", errors.New("boom"))
		l.TrackTick(ctx)

		if len(ind.Texts()) != 0 {
			t.Errorf("expected no indicator updates, got %v", ind.Texts())
		}
		if l.State().Snapshot().LastSeenTrackID != "" {
			t.Error("last seen should be unchanged")
		}
	})

	t.Run("liked lookup failure shows unknown glyph", func(t *testing.T) {
		remote := tu.NewFakeRemote()
		remote.Playing = []*models.TrackContext{playingTrack("C")}
		remote.SetErr("IsTrackSaved", shared.ErrAPIRequest)
		ind := &tu.RecordingIndicator{}
		l := newLoop(remote, ind, nil)

		l.TrackTick(ctx)

		if texts := ind.Texts(); len(texts) != 1 || texts[0] != "? Album C · Song C" {
			t.Errorf("unexpected texts %v", texts)
		}
	})
}

func TestRun(t *testing.T) {
	remote := tu.NewFakeRemote()
	remote.Playing = []*models.TrackContext{playingTrack("A")}
	l := NewLoop(Options{
		Remote:            remote,
		Logger:            log.New(io.Discard),
		KeepaliveInterval: time.Hour,
		TrackInterval:     time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for remote.Count("CurrentlyPlaying") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected an immediate track check")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

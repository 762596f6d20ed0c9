package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestFile(t *testing.T) {
	t.Run("missing file opens empty", func(t *testing.T) {
		f, err := Open(filepath.Join(t.TempDir(), "config.toml"))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if got := f.ListSections(""); len(got) != 0 {
			t.Errorf("expected no sections, got %v", got)
		}
		if _, ok := f.GetValue("user", "username"); ok {
			t.Error("expected missing value")
		}
	})

	t.Run("typed values read as strings", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[poll]
idle_threshold = 6
enabled = true
ratio = 1.5

[user]
username = "someone"
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		f, err := Open(path)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}

		tc := []struct {
			section, key, want string
		}{
			{"poll", "idle_threshold", "6"},
			{"poll", "enabled", "true"},
			{"poll", "ratio", "1.5"},
			{"user", "username", "someone"},
		}
		for _, tt := range tc {
			got, ok := f.GetValue(tt.section, tt.key)
			if !ok || got != tt.want {
				t.Errorf("GetValue(%s, %s) = (%q, %v), want %q", tt.section, tt.key, got, ok, tt.want)
			}
		}
	})

	t.Run("SetValue writes through", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.toml")
		f, err := Open(path)
		if err != nil {
			t.Fatal(err)
		}

		if err := f.SetValue("bookmark-0", "track_id", "abc"); err != nil {
			t.Fatalf("SetValue() error = %v", err)
		}

		reopened, err := Open(path)
		if err != nil {
			t.Fatalf("reopen error = %v", err)
		}
		if got, _ := reopened.GetValue("bookmark-0", "track_id"); got != "abc" {
			t.Errorf("got %q, want abc", got)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("permissions = %v, want 0600", info.Mode().Perm())
		}
	})

	t.Run("SetValues and Section", func(t *testing.T) {
		f, err := Open(filepath.Join(t.TempDir(), "config.toml"))
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetValues("bookmark-3", map[string]string{"key": "3", "position_ms": "10"}); err != nil {
			t.Fatal(err)
		}
		section, ok := f.Section("bookmark-3")
		if !ok {
			t.Fatal("expected section")
		}
		if section["key"] != "3" || section["position_ms"] != "10" {
			t.Errorf("unexpected section %v", section)
		}
	})

	t.Run("ListSections filters and sorts", func(t *testing.T) {
		f, err := Open(filepath.Join(t.TempDir(), "config.toml"))
		if err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"bookmark-2", "user", "bookmark-0", "bookmark-1"} {
			if err := f.SetValue(name, "key", "x"); err != nil {
				t.Fatal(err)
			}
		}
		got := f.ListSections("bookmark-")
		want := []string{"bookmark-0", "bookmark-1", "bookmark-2"}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("got %v, want %v", got, want)
			}
		}
	})

	t.Run("invalid document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[broken"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.SetValue("user", "username", "before"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- f.Watch(ctx, log.New(os.Stderr), func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[user]\nusername = \"after\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("expected reload callback")
	}

	if got, _ := f.GetValue("user", "username"); got != "after" {
		t.Errorf("got %q, want after", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

package shared

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	tu "github.com/desertthunder/spotkey/internal/testing"
)

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want log.Level
	}{
		{name: "debug", in: "debug", want: log.DebugLevel},
		{name: "mixed case", in: " WARN ", want: log.WarnLevel},
		{name: "unknown defaults to info", in: "chatty", want: log.InfoLevel},
		{name: "empty defaults to info", in: "", want: log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggers(t *testing.T) {
	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "poll")
		logger.Info("tick")

		if !strings.Contains(buf.String(), "component=poll") {
			t.Errorf("expected component field in %q", buf.String())
		}
	})

	t.Run("NewFileLogger writes both sinks", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "spotkey.log")

		logger, closer := NewFileLogger(&buf, LogFileOptions{Path: path})
		logger.Info("hello", "key", "value")
		if err := closer.Close(); err != nil {
			t.Fatalf("close error = %v", err)
		}

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected message on writer, got %q", buf.String())
		}
		data := tu.MustReadFile(t, path)
		if !strings.Contains(data, "key=value") {
			t.Errorf("expected logfmt line in file, got %q", data)
		}
	})

	t.Run("GenerateID is unique", func(t *testing.T) {
		if GenerateID() == GenerateID() {
			t.Error("expected distinct ids")
		}
	})
}

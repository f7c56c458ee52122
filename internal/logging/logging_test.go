package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"Warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseLevel(tc.input); got != tc.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn)
	l.SetOutput(&buf)

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warn("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("below-level messages written: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 3") || !strings.Contains(out, "[ERROR] shown 4") {
		t.Errorf("missing messages: %q", out)
	}
}

func TestLogger_Named(t *testing.T) {
	var buf bytes.Buffer
	root := New(LevelDebug)
	root.SetOutput(&buf)

	feed := root.Named("feed").Named("iss")
	feed.Info("fetched in %dms", 12)

	if !strings.Contains(buf.String(), "[INFO] feed.iss: fetched in 12ms") {
		t.Errorf("named output = %q", buf.String())
	}

	// Children follow the parent's level.
	buf.Reset()
	root.SetLevel(LevelError)
	feed.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("child ignored parent level: %q", buf.String())
	}
	if feed.Enabled(LevelWarn) || !feed.Enabled(LevelError) {
		t.Error("Enabled does not reflect shared level")
	}
}

func TestLogger_NilAndDiscard(t *testing.T) {
	var l *Logger
	l.Info("no panic")
	l.Named("x").Error("still no panic")
	l.SetLevel(LevelDebug)

	d := Discard()
	d.Error("nothing")
	if d.Enabled(LevelError) {
		t.Error("Discard logger should not be enabled")
	}
}

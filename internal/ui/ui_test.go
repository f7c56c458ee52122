package ui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-spacelight/internal/dashboard"
	"github.com/litescript/ls-spacelight/internal/location"
)

type fakeSource struct {
	mu        sync.Mutex
	snap      dashboard.Snapshot
	fix       location.Fix
	relocated int
}

func (f *fakeSource) Snapshot() dashboard.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSource) Relocate(ctx context.Context) location.Fix {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relocated++
	return f.fix
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModel_InitialView(t *testing.T) {
	m := New(&fakeSource{})
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View before size = %q", got)
	}
	if m.Init() == nil {
		t.Error("Init should schedule ticks and a snapshot read")
	}
}

func TestModel_SnapshotMsg(t *testing.T) {
	m := sized(t, New(&fakeSource{}))
	snap := testSnapshot()

	next, _ := m.Update(SnapshotMsg{Snapshot: snap})
	m = next.(Model)

	out := m.View()
	for _, want := range []string{"LS-SPACELIGHT", "using your location", "Boulder", "Jupiter", "[1] Dashboard"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_IgnoresOlderSnapshot(t *testing.T) {
	m := sized(t, New(&fakeSource{}))
	newer := testSnapshot()
	older := testSnapshot()
	older.At = newer.At.Add(-time.Minute)
	older.Fix = location.GeocentricFix("location denied", older.At)

	next, _ := m.Update(SnapshotMsg{Snapshot: newer})
	next, _ = next.Update(SnapshotMsg{Snapshot: older})
	m = next.(Model)

	if !m.snapshot.Fix.Located() {
		t.Error("an older snapshot replaced a newer one")
	}
}

func TestModel_GeocentricLabel(t *testing.T) {
	m := sized(t, New(&fakeSource{}))
	snap := testSnapshot()
	snap.Fix = location.GeocentricFix("location timed out", snap.At)

	next, _ := m.Update(SnapshotMsg{Snapshot: snap})
	out := next.(Model).View()
	if !strings.Contains(out, "using geocentric view") || !strings.Contains(out, "location timed out") {
		t.Errorf("header should show geocentric mode and reason\n%s", out)
	}
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			_, cmd := press(t, New(&fakeSource{}), key)
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("command did not quit")
			}
		})
	}
}

func TestModel_SwitchViews(t *testing.T) {
	m := sized(t, New(&fakeSource{}))

	m, _ = press(t, m, "2")
	if m.viewMode != ViewSky {
		t.Errorf("viewMode = %v, want sky", m.viewMode)
	}
	m, _ = press(t, m, "tab")
	if m.viewMode != ViewDashboard {
		t.Errorf("viewMode = %v, want dashboard after tab", m.viewMode)
	}
	m, _ = press(t, m, "tab")
	if m.viewMode != ViewSky {
		t.Errorf("viewMode = %v, want sky after second tab", m.viewMode)
	}
	m, _ = press(t, m, "1")
	if m.viewMode != ViewDashboard {
		t.Errorf("viewMode = %v, want dashboard", m.viewMode)
	}
}

func TestModel_Relocate(t *testing.T) {
	src := &fakeSource{
		fix: location.Fix{Observer: testObserver, Mode: location.ModeLocated},
	}
	m := sized(t, New(src))

	m, cmd := press(t, m, "r")
	if !m.relocating || cmd == nil {
		t.Fatal("r should start a relocation")
	}

	// A second press while relocating is ignored.
	_, again := press(t, m, "r")
	if again != nil {
		t.Error("relocation started twice")
	}

	msg := cmd()
	if src.relocated != 1 {
		t.Errorf("Relocate called %d times, want 1", src.relocated)
	}

	next, follow := m.Update(msg)
	m = next.(Model)
	if m.relocating {
		t.Error("relocating flag not cleared")
	}
	if !strings.Contains(m.statusMsg, "Boulder") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
	if follow == nil {
		t.Error("relocation should trigger a snapshot refresh")
	}
}

func TestModel_RelocateFailure(t *testing.T) {
	src := &fakeSource{fix: location.GeocentricFix("location denied", time.Now())}
	m := sized(t, New(src))

	m, cmd := press(t, m, "r")
	next, _ := m.Update(cmd())
	m = next.(Model)
	if m.statusMsg != "Still geocentric: location denied" {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestModel_FooterShowsSkyError(t *testing.T) {
	m := sized(t, New(&fakeSource{}))
	snap := testSnapshot()
	snap.Sky.LastError = context.DeadlineExceeded

	next, _ := m.Update(SnapshotMsg{Snapshot: snap})
	if out := next.(Model).View(); !strings.Contains(out, "ERROR: context deadline exceeded") {
		t.Errorf("footer should show the sky error\n%s", out)
	}
}

func TestSendSnapshot(t *testing.T) {
	snap := testSnapshot()
	msg := SendSnapshot(snap)()
	got, ok := msg.(SnapshotMsg)
	if !ok || !got.Snapshot.At.Equal(snap.At) {
		t.Errorf("SendSnapshot produced %#v", msg)
	}
}

func TestGradientColor(t *testing.T) {
	if got := gradientColor(0, 10); got != "#3B82F6" {
		t.Errorf("start color = %s, want #3B82F6", got)
	}
	if got := gradientColor(9, 10); got != "#EC4899" {
		t.Errorf("end color = %s, want #EC4899", got)
	}
	if got := gradientColor(0, 1); got != "#3B82F6" {
		t.Errorf("single-rune color = %s", got)
	}
}

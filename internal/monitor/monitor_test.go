package monitor

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/luki/gpumon/internal/chart"
	"github.com/luki/gpumon/internal/clock"
	"github.com/luki/gpumon/internal/config"
	"github.com/luki/gpumon/internal/sensor"
	"github.com/luki/gpumon/internal/snapshot"
)

type stubSource struct {
	adapters []sensor.AdapterIdentity
	sensors  sensor.Collection
}

func (s stubSource) AcquireIdentities(context.Context) []sensor.AdapterIdentity { return s.adapters }
func (s stubSource) AcquireSensors(context.Context) sensor.Collection          { return s.sensors }

func newTestModel(t *testing.T, src stubSource) (Model, *snapshot.Scheduler) {
	t.Helper()
	c := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := snapshot.New(src, config.Default(), c, nil)
	m := New(context.Background(), s)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	return updated.(Model), s
}

func deliver(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	msg := cmd()
	snap, ok := msg.(snapshotMsg)
	if !ok {
		t.Fatalf("expected snapshotMsg, got %T", msg)
	}
	updated, _ := m.Update(snap)
	return updated.(Model)
}

func TestViewBeforeFirstSnapshot(t *testing.T) {
	m, _ := newTestModel(t, stubSource{})
	if got := ansi.Strip(m.View()); !strings.Contains(got, "Querying GPU tools") {
		t.Errorf("expected waiting message, got:\n%s", got)
	}
}

func TestViewRendersReadings(t *testing.T) {
	src := stubSource{
		adapters: []sensor.AdapterIdentity{{
			Name:          "NVIDIA GeForce RTX 3070",
			Memory:        "8.0 GB",
			DriverVersion: "31.0.15.3623",
			Processor:     "NVIDIA GeForce RTX 3070",
			Status:        "OK",
		}},
		sensors: sensor.Collection{
			sensor.LabelVendor: {
				Temperature: sensor.Some(45),
				Utilization: sensor.Some(30),
				FanSpeed:    sensor.Some(60),
				PowerDraw:   sensor.Some(120.5),
				MemoryUsed:  sensor.Some(2048),
				MemoryTotal: sensor.Some(8192),
			},
		},
	}
	m, _ := newTestModel(t, src)
	m = deliver(t, m, m.fetchCmd(false))

	got := ansi.Strip(m.View())
	for _, want := range []string{
		"GPU MONITOR",
		"NVIDIA",
		"RTX 3070",
		"31.0.15.3623",
		sensor.LabelVendor,
		"45.0°C",
		"30.0%",
		"120.5 W",
		"2048 / 8192 MB",
		"25.0%",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("view missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, chart.Unavailable) {
		t.Errorf("fully populated view should not mark anything unavailable:\n%s", got)
	}
}

func TestViewMarksAbsentReadings(t *testing.T) {
	src := stubSource{
		adapters: []sensor.AdapterIdentity{{Name: "Intel(R) UHD Graphics 630"}},
		sensors: sensor.Collection{
			sensor.LabelPlatform: {Temperature: sensor.Some(44.95)},
		},
	}
	m, _ := newTestModel(t, src)
	m = deliver(t, m, m.fetchCmd(false))

	got := ansi.Strip(m.View())
	if !strings.Contains(got, "45.0°C") && !strings.Contains(got, "44.9°C") {
		t.Errorf("expected platform temperature in view:\n%s", got)
	}
	// Utilization, memory, fan, power and four adapter fields are absent.
	if n := strings.Count(got, chart.Unavailable); n < 8 {
		t.Errorf("expected at least 8 unavailable markers, got %d:\n%s", n, got)
	}
}

func TestViewNoAdapters(t *testing.T) {
	m, _ := newTestModel(t, stubSource{sensors: sensor.Collection{}})
	m = deliver(t, m, m.fetchCmd(false))

	if got := ansi.Strip(m.View()); !strings.Contains(got, "no adapters reported") {
		t.Errorf("expected empty adapter message:\n%s", got)
	}
}

func TestSnapshotRecordsPresentHistoryOnly(t *testing.T) {
	src := stubSource{
		sensors: sensor.Collection{
			sensor.LabelPlatform: {Temperature: sensor.Some(50)},
		},
	}
	m, _ := newTestModel(t, src)
	m = deliver(t, m, m.fetchCmd(false))

	if m.history.Get(tempKey(sensor.LabelPlatform)) == nil {
		t.Error("expected temperature history")
	}
	if m.history.Get(usageKey(sensor.LabelPlatform)) != nil {
		t.Error("absent utilization should not create history")
	}
}

func TestPauseSkipsFetch(t *testing.T) {
	m, _ := newTestModel(t, stubSource{})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = updated.(Model)
	if !m.paused {
		t.Fatal("expected paused after p")
	}

	updated, _ = m.Update(tickMsg(time.Now()))
	m = updated.(Model)
	if m.fetching {
		t.Error("paused tick should not start a fetch")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = updated.(Model)
	updated, _ = m.Update(tickMsg(time.Now()))
	m = updated.(Model)
	if !m.fetching {
		t.Error("unpaused tick should start a fetch")
	}
}

func TestRefreshKeyForcesRefresh(t *testing.T) {
	m, s := newTestModel(t, stubSource{sensors: sensor.Collection{}})
	m = deliver(t, m, m.fetchCmd(false))
	if s.Stale() {
		t.Fatal("scheduler should be fresh after first fetch")
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = updated.(Model)
	if cmd == nil || !m.fetching {
		t.Fatal("expected r to start a fetch")
	}
	m = deliver(t, m, cmd)
	if m.fetching {
		t.Error("fetching should clear once the snapshot arrives")
	}
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t, stubSource{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected q to quit")
	}
}

func TestFmtDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "0m42s"},
		{3*time.Minute + 5*time.Second, "3m05s"},
		{2*time.Hour + time.Minute + time.Second, "2h01m01s"},
	}
	for _, tt := range tests {
		if got := fmtDuration(tt.d); got != tt.want {
			t.Errorf("fmtDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

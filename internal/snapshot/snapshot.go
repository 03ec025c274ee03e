// Package snapshot owns the latest view of the GPUs and decides when it
// is stale. Reads refresh lazily: a read that finds the data older than
// the refresh interval re-acquires it before returning.
package snapshot

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/luki/gpumon/internal/clock"
	"github.com/luki/gpumon/internal/config"
	"github.com/luki/gpumon/internal/sensor"
)

// Snapshot is a consistent copy of adapter identity and sensor data.
// Each value handed out is independent of the scheduler's state.
type Snapshot struct {
	Adapters    []sensor.AdapterIdentity `json:"adapters"`
	Sensors     sensor.Collection        `json:"sensors"`
	RefreshedAt time.Time                `json:"refreshed_at"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{RefreshedAt: s.RefreshedAt}
	if s.Adapters != nil {
		out.Adapters = append([]sensor.AdapterIdentity(nil), s.Adapters...)
	}
	if s.Sensors != nil {
		out.Sensors = s.Sensors.Clone()
	}
	return out
}

// Source acquires identity and sensor data. *sensor.Coordinator is the
// production implementation.
type Source interface {
	AcquireIdentities(ctx context.Context) []sensor.AdapterIdentity
	AcquireSensors(ctx context.Context) sensor.Collection
}

// Scheduler holds the current snapshot and refreshes it when stale.
// A single mutex guards the whole snapshot, so readers never see a
// partially replaced one. Safe for concurrent use.
type Scheduler struct {
	source Source
	cfg    config.AppConfig
	clock  clock.Clock
	logger *slog.Logger

	mu        sync.Mutex
	current   Snapshot
	refreshed bool
}

// New returns a Scheduler with no data yet; the first read refreshes.
func New(source Source, cfg config.AppConfig, c clock.Clock, logger *slog.Logger) *Scheduler {
	if c == nil {
		c = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{
		source: source,
		cfg:    cfg,
		clock:  c,
		logger: logger,
	}
}

// Snapshot returns the current snapshot, refreshing it first if it is
// stale. A snapshot is stale when it has never been taken or its age has
// reached the refresh interval.
func (s *Scheduler) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.staleLocked() {
		s.refreshLocked(ctx)
	}
	return s.current.Clone()
}

// Refresh re-acquires the snapshot regardless of its age.
func (s *Scheduler) Refresh(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked(ctx)
	return s.current.Clone()
}

// Stale reports whether the next Snapshot call will refresh.
func (s *Scheduler) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staleLocked()
}

// Config returns a copy of the configuration the scheduler was built
// with.
func (s *Scheduler) Config() config.AppConfig {
	return s.cfg.Clone()
}

func (s *Scheduler) staleLocked() bool {
	if !s.refreshed {
		return true
	}
	return s.clock.Now().Sub(s.current.RefreshedAt) >= s.cfg.RefreshInterval
}

func (s *Scheduler) refreshLocked(ctx context.Context) {
	start := s.clock.Now()

	next := Snapshot{
		Adapters: s.source.AcquireIdentities(ctx),
		Sensors:  s.source.AcquireSensors(ctx),
	}
	next.RefreshedAt = s.clock.Now()

	s.current = next
	s.refreshed = true

	s.logger.Debug("snapshot refreshed",
		"adapters", len(next.Adapters),
		"sources", len(next.Sensors),
		"took", next.RefreshedAt.Sub(start),
	)
}

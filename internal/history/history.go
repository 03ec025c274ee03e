// Package history keeps a short in-memory ring buffer of recent readings
// per series, with min/peak/avg statistics for the live display. Nothing
// here is written to disk.
package history

import (
	"math"
	"time"
)

// Point is a single sample.
type Point struct {
	Value float64
	Time  time.Time
}

// Buffer is a fixed-capacity ring of samples for one series.
type Buffer struct {
	Points []Point
	Max    int // capacity
	Min    float64
	Peak   float64
}

// NewBuffer creates a buffer holding at most capacity samples.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		Points: make([]Point, 0, capacity),
		Max:    capacity,
		Min:    math.MaxFloat64,
		Peak:   -math.MaxFloat64,
	}
}

// Push appends a sample, dropping the oldest one when full. Min and Peak
// cover every sample ever pushed, not just the retained ones.
func (b *Buffer) Push(v float64, t time.Time) {
	p := Point{Value: v, Time: t}
	if len(b.Points) >= b.Max {
		copy(b.Points, b.Points[1:])
		b.Points[len(b.Points)-1] = p
	} else {
		b.Points = append(b.Points, p)
	}

	if v < b.Min {
		b.Min = v
	}
	if v > b.Peak {
		b.Peak = v
	}
}

// Last returns the most recent value, or 0 if empty.
func (b *Buffer) Last() float64 {
	if len(b.Points) == 0 {
		return 0
	}
	return b.Points[len(b.Points)-1].Value
}

// Avg returns the mean of the retained samples.
func (b *Buffer) Avg() float64 {
	if len(b.Points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range b.Points {
		sum += p.Value
	}
	return sum / float64(len(b.Points))
}

// LastN returns the last n values.
func (b *Buffer) LastN(n int) []float64 {
	if n <= 0 || len(b.Points) == 0 {
		return nil
	}
	start := len(b.Points) - n
	if start < 0 {
		start = 0
	}
	vals := make([]float64, 0, n)
	for _, p := range b.Points[start:] {
		vals = append(vals, p.Value)
	}
	return vals
}

// LastNPoints returns a copy of the last n samples with timestamps.
func (b *Buffer) LastNPoints(n int) []Point {
	if n <= 0 || len(b.Points) == 0 {
		return nil
	}
	start := len(b.Points) - n
	if start < 0 {
		start = 0
	}
	out := make([]Point, len(b.Points[start:]))
	copy(out, b.Points[start:])
	return out
}

// Store holds one buffer per series key.
type Store struct {
	Data     map[string]*Buffer
	Capacity int
}

// NewStore creates a store with the given per-series capacity.
func NewStore(capacity int) *Store {
	return &Store{
		Data:     make(map[string]*Buffer),
		Capacity: capacity,
	}
}

// Record adds a sample to the series for key. Timestamps that do not
// move forward are ignored, so re-reading an unchanged snapshot does not
// duplicate samples.
func (s *Store) Record(key string, v float64, t time.Time) {
	b, ok := s.Data[key]
	if !ok {
		b = NewBuffer(s.Capacity)
		s.Data[key] = b
	}
	if n := len(b.Points); n > 0 && !t.After(b.Points[n-1].Time) {
		return
	}
	b.Push(v, t)
}

// Get returns the buffer for key, or nil.
func (s *Store) Get(key string) *Buffer {
	return s.Data[key]
}

// Retain drops every series whose key is not in keep.
func (s *Store) Retain(keep map[string]bool) {
	for k := range s.Data {
		if !keep[k] {
			delete(s.Data, k)
		}
	}
}

// Package sensor acquires GPU identity and live sensor readings from
// external tools. It combines nvidia-smi, the WMI thermal zone and the
// GPU engine performance counter into one record per source, falling back
// in order when a source is missing.
package sensor

import (
	"encoding/json"
	"strconv"
)

// Metric is a reading that a source may or may not have reported. The
// zero value is absent, which is distinct from a measured zero.
type Metric struct {
	Value   float64
	Present bool
}

// Some returns a present Metric holding v.
func Some(v float64) Metric {
	return Metric{Value: v, Present: true}
}

// Get returns the value and whether it was reported.
func (m Metric) Get() (float64, bool) {
	return m.Value, m.Present
}

// MarshalJSON encodes an absent Metric as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Present {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts a number or null.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric{}
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*m = Some(v)
	return nil
}

// Record is one source's view of a GPU at one point in time.
type Record struct {
	Temperature Metric `json:"temperature_celsius"`
	Utilization Metric `json:"utilization_percent"`
	FanSpeed    Metric `json:"fan_speed_percent"`
	PowerDraw   Metric `json:"power_draw_watts"`
	MemoryUsed  Metric `json:"memory_used_mb"`
	MemoryTotal Metric `json:"memory_total_mb"`
}

// MemoryPercent returns used/total as a percentage when both are present
// and total is non-zero.
func (r Record) MemoryPercent() Metric {
	used, ok := r.MemoryUsed.Get()
	if !ok {
		return Metric{}
	}
	total, ok := r.MemoryTotal.Get()
	if !ok || total <= 0 {
		return Metric{}
	}
	return Some(used / total * 100)
}

// Collection maps a source label to that source's record.
type Collection map[string]Record

// Clone returns an independent copy of c.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

package chart

import (
	"strings"
	"testing"
	"time"

	"github.com/luki/gpumon/internal/config"
	"github.com/luki/gpumon/internal/history"
	"github.com/luki/gpumon/internal/sensor"
)

var thresholds = config.Thresholds{Warning: 75, Critical: 85}

func TestSparkline(t *testing.T) {
	var pts []history.Point
	for _, v := range []float64{30, 35, 40, 50, 60, 70, 80, 90, 100} {
		pts = append(pts, history.Point{Value: v})
	}
	result := RenderSparklinePoints(pts, 20, 20, 110, TempColorFunc(thresholds))
	if len(result) == 0 {
		t.Error("sparkline should not be empty")
	}
	t.Logf("Sparkline: %s", result)
}

func TestSparklineMinuteTicks(t *testing.T) {
	base := time.Date(2026, 2, 21, 14, 0, 50, 0, time.Local)
	var pts []history.Point
	for i := 0; i < 20; i++ {
		pts = append(pts, history.Point{
			Value: float64(40 + i%5),
			Time:  base.Add(time.Duration(i) * time.Second),
		})
	}

	result := RenderSparklinePoints(pts, 20, 30, 55, UsageColor)
	if !strings.Contains(result, "│") {
		t.Error("expected minute tick mark in sparkline")
	}

	timeline := RenderTimeline(pts, 20)
	if !strings.Contains(timeline, "14:01") {
		t.Errorf("expected 14:01 label in timeline, got %q", timeline)
	}
}

func TestTempColor(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{40, string(ColorOk)},
		{64, string(ColorWarm)},
		{75, string(ColorWarn)},
		{84.9, string(ColorWarn)},
		{85, string(ColorCrit)},
		{100, string(ColorCrit)},
	}
	for _, tt := range tests {
		if got := TempColor(tt.v, thresholds); string(got) != tt.want {
			t.Errorf("TempColor(%.1f) = %s, want %s", tt.v, got, tt.want)
		}
	}
}

func TestRenderValueUnavailable(t *testing.T) {
	if got := RenderTempValue(sensor.Metric{}, thresholds); !strings.Contains(got, Unavailable) {
		t.Errorf("absent temperature: got %q", got)
	}
	if got := RenderValue(sensor.Metric{}, "%.0f%%"); !strings.Contains(got, Unavailable) {
		t.Errorf("absent value: got %q", got)
	}

	// A measured zero is a value, not a missing reading.
	if got := RenderTempValue(sensor.Some(0), thresholds); strings.Contains(got, Unavailable) || !strings.Contains(got, "0.0") {
		t.Errorf("zero temperature: got %q", got)
	}
	if got := RenderValue(sensor.Some(120.5), "%.1f W"); !strings.Contains(got, "120.5 W") {
		t.Errorf("power: got %q", got)
	}
}

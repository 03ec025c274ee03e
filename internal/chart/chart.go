// Package chart renders sparklines and threshold-coloured readings for
// the live monitor.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/gpumon/internal/config"
	"github.com/luki/gpumon/internal/history"
	"github.com/luki/gpumon/internal/sensor"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Palette shared with the monitor.
var (
	ColorOk          = lipgloss.Color("78")  // soft green
	ColorWarm        = lipgloss.Color("220") // yellow
	ColorWarn        = lipgloss.Color("208") // orange
	ColorCrit        = lipgloss.Color("196") // red
	ColorUnavailable = lipgloss.Color("241")
	ColorUsage       = lipgloss.Color("75")
)

// Unavailable is the marker shown in place of a value a source did not
// report.
const Unavailable = "unavailable"

// ColorFunc picks a colour for a value.
type ColorFunc func(v float64) lipgloss.Color

// TempColor returns the colour for a temperature given the configured
// thresholds. Values within 15% below the warning level are shown warm.
func TempColor(v float64, th config.Thresholds) lipgloss.Color {
	switch {
	case v >= th.Critical:
		return ColorCrit
	case v >= th.Warning:
		return ColorWarn
	case v >= th.Warning*0.85:
		return ColorWarm
	default:
		return ColorOk
	}
}

// TempColorFunc binds thresholds into a ColorFunc.
func TempColorFunc(th config.Thresholds) ColorFunc {
	return func(v float64) lipgloss.Color { return TempColor(v, th) }
}

// UsageColor colours percentages with a single hue.
func UsageColor(float64) lipgloss.Color { return ColorUsage }

// RenderSparklinePoints renders a sparkline with a subtle pipe at each
// minute boundary. Missing history on the left is padded with dashes.
func RenderSparklinePoints(points []history.Point, width int, rangeMin, rangeMax float64, color ColorFunc) string {
	if width <= 0 {
		return ""
	}

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	if len(points) == 0 {
		return dim.Render(strings.Repeat("╌", width))
	}

	if len(points) > width {
		points = points[len(points)-width:]
	}

	padLen := width - len(points)
	span := rangeMax - rangeMin
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder
	for i := 0; i < padLen; i++ {
		sb.WriteString(dim.Render("╌"))
	}

	tickStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	for i, p := range points {
		if isMinuteTick(points, i) {
			sb.WriteString(tickStyle.Render("│"))
			continue
		}

		norm := (p.Value - rangeMin) / span
		norm = math.Max(0, math.Min(1, norm))
		idx := int(norm * 7)
		if idx > 7 {
			idx = 7
		}

		style := lipgloss.NewStyle().Foreground(color(p.Value))
		sb.WriteString(style.Render(string(sparkBlocks[idx])))
	}

	return sb.String()
}

func isMinuteTick(points []history.Point, i int) bool {
	p := points[i]
	if p.Time.IsZero() {
		return false
	}
	if p.Time.Second() == 0 {
		return true
	}
	if i > 0 && !points[i-1].Time.IsZero() {
		return p.Time.Minute() != points[i-1].Time.Minute()
	}
	return false
}

// RenderTimeline renders HH:MM labels under the minute ticks of a
// sparkline of the same width.
func RenderTimeline(points []history.Point, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}

	if len(points) > width {
		points = points[len(points)-width:]
	}

	padLen := width - len(points)

	line := make([]rune, width)
	for i := range line {
		line[i] = ' '
	}

	lastEnd := -1
	for i, p := range points {
		if !isMinuteTick(points, i) {
			continue
		}
		label := p.Time.Format("15:04")
		start := padLen + i - 2
		if start < 0 {
			start = 0
		}
		end := start + len(label)
		if end > width || start <= lastEnd+1 {
			continue
		}
		for j, ch := range label {
			line[start+j] = ch
		}
		lastEnd = end
	}

	return lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Render(string(line))
}

// RenderUnavailable renders the marker for an absent value.
func RenderUnavailable() string {
	return lipgloss.NewStyle().Foreground(ColorUnavailable).Italic(true).Render(Unavailable)
}

// RenderTempValue renders a temperature coloured by threshold, or the
// unavailable marker when absent.
func RenderTempValue(m sensor.Metric, th config.Thresholds) string {
	v, ok := m.Get()
	if !ok {
		return RenderUnavailable()
	}
	style := lipgloss.NewStyle().Foreground(TempColor(v, th))
	if v >= th.Critical {
		style = style.Bold(true)
	}
	return style.Render(fmt.Sprintf("%5.1f°C", v))
}

// RenderValue renders m with format, or the unavailable marker when
// absent.
func RenderValue(m sensor.Metric, format string) string {
	v, ok := m.Get()
	if !ok {
		return RenderUnavailable()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Render(fmt.Sprintf(format, v))
}

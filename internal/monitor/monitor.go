// Package monitor implements the live GPU monitor TUI using BubbleTea.
// It polls the snapshot scheduler on the render interval and shows
// adapter identity, sensor readings with bars and sparklines, and an
// explicit marker for readings a source did not report.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/luki/gpumon/internal/chart"
	"github.com/luki/gpumon/internal/config"
	"github.com/luki/gpumon/internal/history"
	"github.com/luki/gpumon/internal/sensor"
	"github.com/luki/gpumon/internal/snapshot"
)

const historySize = 600

// ── Messages ─────────────────────────────────────────────────────────

type tickMsg time.Time

type snapshotMsg struct {
	snap snapshot.Snapshot
}

// ── Model ────────────────────────────────────────────────────────────

// Model is the BubbleTea model for the live monitor.
type Model struct {
	ctx       context.Context
	scheduler *snapshot.Scheduler
	cfg       config.AppConfig
	keys      KeyMap
	snap      snapshot.Snapshot
	hasSnap   bool
	fetching  bool
	history   *history.Store
	width     int
	height    int
	scroll    int
	startTime time.Time
	paused    bool
}

// New creates the initial model reading from s.
func New(ctx context.Context, s *snapshot.Scheduler) Model {
	return Model{
		ctx:       ctx,
		scheduler: s,
		cfg:       s.Config(),
		keys:      DefaultKeyMap,
		history:   history.NewStore(historySize),
		startTime: time.Now(),
	}
}

// Run starts the monitor and blocks until the user quits or ctx ends.
func Run(ctx context.Context, s *snapshot.Scheduler) error {
	p := tea.NewProgram(
		New(ctx, s),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

// ── Commands ─────────────────────────────────────────────────────────

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.cfg.RenderInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCmd reads the scheduler off the update loop. Forced fetches
// bypass the staleness check.
func (m Model) fetchCmd(forced bool) tea.Cmd {
	ctx, s := m.ctx, m.scheduler
	return func() tea.Msg {
		if forced {
			return snapshotMsg{snap: s.Refresh(ctx)}
		}
		return snapshotMsg{snap: s.Snapshot(ctx)}
	}
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(false), m.tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.scroll > 0 {
				m.scroll--
			}
		case key.Matches(msg, m.keys.Down):
			m.scroll++
		case key.Matches(msg, m.keys.Home):
			m.scroll = 0
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Refresh):
			if !m.fetching {
				m.fetching = true
				return m, m.fetchCmd(true)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if m.paused || m.fetching {
			return m, m.tickCmd()
		}
		m.fetching = true
		return m, tea.Batch(m.fetchCmd(false), m.tickCmd())

	case snapshotMsg:
		m.fetching = false
		m.snap = msg.snap
		m.hasSnap = true
		m.recordHistory()
	}

	return m, nil
}

func tempKey(label string) string  { return label + "/temp" }
func usageKey(label string) string { return label + "/usage" }

// recordHistory appends the present readings of the current snapshot.
// Absent readings leave a gap rather than a zero.
func (m Model) recordHistory() {
	keep := make(map[string]bool)
	at := m.snap.RefreshedAt
	for label, rec := range m.snap.Sensors {
		if v, ok := rec.Temperature.Get(); ok {
			m.history.Record(tempKey(label), v, at)
			keep[tempKey(label)] = true
		}
		if v, ok := rec.Utilization.Get(); ok {
			m.history.Record(usageKey(label), v, at)
			keep[usageKey(label)] = true
		}
	}
	m.history.Retain(keep)
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorHeading  = lipgloss.Color("147")
	colorAdapter  = lipgloss.Color("243")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorPaused   = lipgloss.Color("196")
	colorMemory   = lipgloss.Color("134")
)

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := m.width - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string
	sections = append(sections, m.renderTitleBar(contentWidth))

	if !m.hasSnap {
		waiting := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(contentWidth).
			Align(lipgloss.Center).
			Padding(2, 0).
			Render("Querying GPU tools...")
		sections = append(sections, waiting)
	} else {
		sections = append(sections, m.renderAdapters(contentWidth))
		sections = append(sections, m.renderSensorPanels(contentWidth)...)
	}

	sections = append(sections, m.renderFooter(contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	lines := strings.Split(content, "\n")
	visibleLines := m.height
	if visibleLines < 5 {
		visibleLines = 5
	}
	maxScroll := len(lines) - visibleLines
	if maxScroll < 0 {
		maxScroll = 0
	}
	start := m.scroll
	if start > maxScroll {
		start = maxScroll
	}
	end := start + visibleLines
	if end > len(lines) {
		end = len(lines)
	}

	return strings.Join(lines[start:end], "\n")
}

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("GPU MONITOR")

	dimS := lipgloss.NewStyle().Foreground(colorDim)

	statusParts := []string{
		dimS.Render(fmt.Sprintf("up %s", fmtDuration(time.Since(m.startTime)))),
		dimS.Render(fmt.Sprintf("every %s", m.cfg.RefreshInterval)),
	}
	if m.hasSnap {
		statusParts = append(statusParts, dimS.Render("updated "+m.snap.RefreshedAt.Local().Format("15:04:05")))
	}
	if m.paused {
		statusParts = append(statusParts, lipgloss.NewStyle().
			Foreground(colorPaused).
			Bold(true).
			Render("PAUSED"))
	}

	sep := dimS.Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + right)
}

func (m Model) renderAdapters(totalWidth int) string {
	headingS := lipgloss.NewStyle().Bold(true).Foreground(colorHeading)
	labelS := lipgloss.NewStyle().Foreground(colorAdapter).Width(12)
	valueS := lipgloss.NewStyle().Foreground(colorLabel)

	innerWidth := totalWidth - 4
	rows := []string{headingS.Render("Adapters")}

	if len(m.snap.Adapters) == 0 {
		rows = append(rows, lipgloss.NewStyle().Foreground(colorDim).Render("no adapters reported"))
	}

	field := func(name, value string) string {
		if value == "" {
			return labelS.Render(name) + chart.RenderUnavailable()
		}
		return labelS.Render(name) + valueS.Render(ansi.Truncate(value, innerWidth-12, "…"))
	}

	for i, a := range m.snap.Adapters {
		if i > 0 {
			rows = append(rows, "")
		}
		vendor := lipgloss.NewStyle().Bold(true).Foreground(colorLabel).Render(sensor.Vendor(a.Name))
		name := lipgloss.NewStyle().Foreground(colorAdapter).
			Render(ansi.Truncate(a.Name, innerWidth-lipgloss.Width(vendor)-2, "…"))
		rows = append(rows,
			vendor+"  "+name,
			field("Memory", a.Memory),
			field("Driver", a.DriverVersion),
			field("Processor", a.Processor),
			field("Status", a.Status),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(totalWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderSensorPanels(totalWidth int) []string {
	labels := make([]string, 0, len(m.snap.Sensors))
	for label := range m.snap.Sensors {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	innerWidth := totalWidth - 4
	labelW := 13
	valueW := 24
	barW := 20
	chartWidth := innerWidth - labelW - valueW - barW - 6
	if chartWidth < 10 {
		chartWidth = 10
	}
	if chartWidth > 120 {
		chartWidth = 120
	}

	th := m.cfg.Thresholds
	labelS := lipgloss.NewStyle().Foreground(colorLabel).Width(labelW)
	valueS := lipgloss.NewStyle().Width(valueW)
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	spark := func(key string, rangeMin, rangeMax float64, color chart.ColorFunc) string {
		b := m.history.Get(key)
		if b == nil {
			return ""
		}
		return frameL + chart.RenderSparklinePoints(b.LastNPoints(chartWidth), chartWidth, rangeMin, rangeMax, color) + frameR
	}

	var panels []string
	for _, label := range labels {
		rec := m.snap.Sensors[label]

		heading := lipgloss.NewStyle().Bold(true).Foreground(colorHeading).Render(label)
		rows := []string{heading}

		// Temperature
		row := labelS.Render("Temperature") + valueS.Render(chart.RenderTempValue(rec.Temperature, th))
		if v, ok := rec.Temperature.Get(); ok {
			row += bar(v/100, chart.TempColor(v, th), barW) + " " +
				spark(tempKey(label), 0, 100, chart.TempColorFunc(th))
		}
		rows = append(rows, row)
		if b := m.history.Get(tempKey(label)); b != nil {
			if tl := chart.RenderTimeline(b.LastNPoints(chartWidth), chartWidth); strings.TrimSpace(ansi.Strip(tl)) != "" {
				pad := strings.Repeat(" ", labelW+valueW+barW+2)
				rows = append(rows, pad+tl)
			}
			stats := fmt.Sprintf("min %.1f°  avg %.1f°  peak %.1f°", b.Min, b.Avg(), b.Peak)
			rows = append(rows, labelS.Render("")+lipgloss.NewStyle().Foreground(colorDim).Render(stats))
		}

		// Utilization
		row = labelS.Render("Utilization") + valueS.Render(chart.RenderValue(rec.Utilization, "%.1f%%"))
		if v, ok := rec.Utilization.Get(); ok {
			row += bar(v/100, chart.ColorUsage, barW) + " " +
				spark(usageKey(label), 0, 100, chart.UsageColor)
		}
		rows = append(rows, row)

		// Memory
		row = labelS.Render("Memory") + valueS.Render(renderMemory(rec))
		if pct, ok := rec.MemoryPercent().Get(); ok {
			row += bar(pct/100, colorMemory, barW)
		}
		rows = append(rows, row)

		rows = append(rows,
			labelS.Render("Fan")+valueS.Render(chart.RenderValue(rec.FanSpeed, "%.0f%%")),
			labelS.Render("Power")+valueS.Render(chart.RenderValue(rec.PowerDraw, "%.1f W")),
		)

		panels = append(panels, lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(totalWidth).
			Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	}

	return panels
}

// renderMemory shows "used / total MB (pct)", or whichever half is known.
func renderMemory(rec sensor.Record) string {
	used, hasUsed := rec.MemoryUsed.Get()
	total, hasTotal := rec.MemoryTotal.Get()
	valueS := lipgloss.NewStyle().Foreground(colorLabel)

	switch {
	case hasUsed && hasTotal:
		s := fmt.Sprintf("%.0f / %.0f MB", used, total)
		if pct, ok := rec.MemoryPercent().Get(); ok {
			s += fmt.Sprintf(" (%.1f%%)", pct)
		}
		return valueS.Render(s)
	case hasUsed:
		return valueS.Render(fmt.Sprintf("%.0f MB", used)) + " / " + chart.RenderUnavailable()
	case hasTotal:
		return chart.RenderUnavailable() + valueS.Render(fmt.Sprintf(" / %.0f MB", total))
	default:
		return chart.RenderUnavailable()
	}
}

// bar renders a fraction in [0, 1] as a solid progress bar.
func bar(fraction float64, color lipgloss.Color, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	p := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	return p.ViewAs(fraction)
}

func (m Model) renderFooter(width int) string {
	th := m.cfg.Thresholds
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	swatch := func(c lipgloss.Color) string {
		return lipgloss.NewStyle().Foreground(c).Render("██")
	}

	legend := swatch(chart.ColorOk) + dimS.Render(" ok ") +
		swatch(chart.ColorWarn) + dimS.Render(fmt.Sprintf(" ≥%.0f° ", th.Warning)) +
		swatch(chart.ColorCrit) + dimS.Render(fmt.Sprintf(" ≥%.0f°", th.Critical))

	keyS := lipgloss.NewStyle().Foreground(colorLabel)
	var keyParts []string
	for _, b := range m.keys.footerBindings() {
		h := b.Help()
		keyParts = append(keyParts, dimS.Render(h.Key)+keyS.Render(":"+h.Desc))
	}
	keys := strings.Join(keyParts, "  ")

	gap := width - lipgloss.Width(legend) - lipgloss.Width(keys) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(legend + strings.Repeat(" ", gap) + keys)
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	mins := d / time.Minute
	d -= mins * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, mins, s)
	}
	return fmt.Sprintf("%dm%02ds", mins, s)
}

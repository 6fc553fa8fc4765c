// Package monitor implements the live reductiond statistics dashboard.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/reductiond/pkg/client"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
	fetchTimeout    = 5 * time.Second
)

// Model is the BubbleTea dashboard model.
type Model struct {
	source     StatsSource
	interval   time.Duration
	lastUpdate time.Time
	snapshot   Snapshot
	polled     bool
	err        error
	quitting   bool

	savingsProgress progress.Model
	loadProgress    progress.Model
}

// k9s-like color scheme
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// NewModel creates a dashboard polling source every interval.
func NewModel(source StatsSource, interval time.Duration) Model {
	return Model{
		source:   source,
		interval: interval,
		savingsProgress: progress.New(
			progress.WithGradient("#ff0000", "#00ff00"),
			progress.WithWidth(40),
		),
		loadProgress: progress.New(
			progress.WithGradient("#00ffff", "#ff00ff"),
			progress.WithWidth(40),
		),
		snapshot: Snapshot{
			SavingsHistory:    make([]float64, 0, historySize),
			LatencyHistory:    make([]float64, 0, historySize),
			ThroughputHistory: make([]float64, 0, historySize),
		},
	}
}

// latencyBadge grades the most recent strategy latency.
func latencyBadge(ms float64) string {
	if ms < 1 {
		return healthyStyle.Render("[✓]")
	} else if ms < 10 {
		return warningStyle.Render("[⚠]")
	}
	return errorStyle.Render("[✗]")
}

// savingsBadge grades the overall savings ratio.
func savingsBadge(ratio float64) string {
	if ratio >= 0.2 {
		return healthyStyle.Render("[✓]")
	} else if ratio >= 0.05 {
		return warningStyle.Render("[⚠]")
	}
	return dimStyle.Render("[·]")
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}
	return sparklineStyle.Render(spark.View())
}

type tickMsg time.Time

type statsMsg struct {
	stats *client.Stats
	at    time.Time
}

type errMsg error

// Init starts polling.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		fetchStats(m.source),
	)
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchStats(source StatsSource) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		st, err := source.Stats(ctx)
		if err != nil {
			return errMsg(err)
		}
		return statsMsg{stats: st, at: time.Now()}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetchStats(m.source)
		}

	case tickMsg:
		return m, tea.Batch(
			tick(m.interval),
			fetchStats(m.source),
		)

	case statsMsg:
		m.apply(msg)
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// apply folds a poll into the snapshot, carrying the histories forward.
func (m *Model) apply(msg statsMsg) {
	prev := m.snapshot
	next := snapshotFromStats(msg.stats)

	if m.polled && next.TotalChars >= prev.TotalChars {
		if elapsed := msg.at.Sub(m.lastUpdate).Seconds(); elapsed > 0 {
			next.Throughput = float64(next.TotalChars-prev.TotalChars) / elapsed
		}
	}

	next.SavingsHistory = appendToHistory(prev.SavingsHistory, next.SavedRatio()*100)
	next.LatencyHistory = appendToHistory(prev.LatencyHistory, next.LastLatencyMs)
	next.ThroughputHistory = appendToHistory(prev.ThroughputHistory, next.Throughput)

	next.ThroughputPeak = prev.ThroughputPeak
	if next.Throughput > next.ThroughputPeak {
		next.ThroughputPeak = next.Throughput
	}

	m.snapshot = next
	m.lastUpdate = msg.at
	m.polled = true
	m.err = nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return m.renderError()
	}
	return m.renderDashboard()
}

func (m Model) renderError() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(" reductiond Monitor ") + "\n\n")
	b.WriteString(errorStyle.Render("⚠ Cannot reach reductiond") + "\n\n")
	b.WriteString(dimStyle.Render("URL: ") + valueStyle.Render(m.source.BaseURL()) + "\n")
	b.WriteString(dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n\n")
	b.WriteString(dimStyle.Render("Check that the server is running and the API key is set.") + "\n")
	b.WriteString(footerStyle.Render("[q] quit  [r] retry") + "\n")
	return containerStyle.Render(b.String())
}

func (m Model) renderDashboard() string {
	s := m.snapshot
	var b strings.Builder

	lastUpdate := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdate = m.lastUpdate.Format("3:04:05 PM")
	}

	b.WriteString(headerStyle.Render(" reductiond Monitor ") + "\n")
	b.WriteString(fmt.Sprintf("%s   %s   %s\n",
		dimStyle.Render(m.source.BaseURL()),
		dimStyle.Render("Updated:"),
		valueStyle.Render(lastUpdate)))

	// Savings
	ratio := s.SavedRatio()
	b.WriteString("\n" + sectionStyle.Render("┃ Savings") + "\n")
	b.WriteString(labelStyle.Render("  Saved: ") +
		valueStyle.Render(FormatChars(s.SavedChars)) +
		dimStyle.Render(" of ") +
		valueStyle.Render(FormatChars(s.TotalChars)) +
		dimStyle.Render(" chars") +
		" " + savingsBadge(ratio) +
		"   " + createSparkline(s.SavingsHistory) + "\n")
	b.WriteString(labelStyle.Render("  Ratio: ") +
		m.savingsProgress.ViewAs(ratio) +
		" " + dimStyle.Render(FormatPercentage(ratio)) + "\n")

	// Latency
	b.WriteString("\n" + sectionStyle.Render("┃ Latency") + "\n")
	b.WriteString(labelStyle.Render("  Last: ") +
		valueStyle.Render(FormatLatency(s.LastLatencyMs)) +
		" " + latencyBadge(s.LastLatencyMs) +
		"   " + createSparkline(s.LatencyHistory) + "\n")
	b.WriteString(labelStyle.Render("  Per char: ") +
		valueStyle.Render(fmt.Sprintf("%.4fms", s.AvgLatencyMs)) + "\n")

	// Throughput
	load := 0.0
	if s.ThroughputPeak > 0 {
		load = s.Throughput / s.ThroughputPeak
	}
	b.WriteString("\n" + sectionStyle.Render("┃ Throughput") + "\n")
	b.WriteString(labelStyle.Render("  Rate: ") +
		valueStyle.Render(FormatThroughput(s.Throughput)) +
		"   " + createSparkline(s.ThroughputHistory) + "\n")
	b.WriteString(labelStyle.Render("  Load: ") +
		m.loadProgress.ViewAs(load) +
		" " + dimStyle.Render(fmt.Sprintf("%.0f%% of peak", load*100)) + "\n")

	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))
	b.WriteString("\n" + footer)

	return containerStyle.Render(b.String())
}

// Package monitor renders the admin dashboard as a terminal UI.
//
// The dashboard mirrors the hosted admin view: usage metrics, AI accuracy,
// response time trends, active users, and the system log tail, refreshed on
// a fixed interval.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Ajaypalvai07/ai-help-center/internal/api"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
	logTailSize     = 8
)

// AdminAPI is the slice of the API client the dashboard fetches from.
type AdminAPI interface {
	AdminMetrics(ctx context.Context) (*api.Metrics, error)
	AdminUsers(ctx context.Context) ([]api.AdminUser, error)
	AdminLogs(ctx context.Context) ([]api.LogEntry, error)
}

// Model is the BubbleTea model for the admin dashboard.
type Model struct {
	api        AdminAPI
	interval   time.Duration
	lastUpdate time.Time
	snapshot   Snapshot
	err        error
	quitting   bool
	showUsers  bool

	healthProgress   progress.Model
	accuracyProgress progress.Model
}

// Snapshot is the dashboard state fetched in one refresh.
type Snapshot struct {
	Metrics api.Metrics
	Users   []api.AdminUser
	Logs    []api.LogEntry

	// Trailing windows for the sparklines.
	ResponseTimeHistory []float64
	ActiveUserHistory   []float64
	AccuracyHistory     []float64
}

// Lipgloss styles (k9s-inspired color scheme).
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

// NewModel creates a dashboard model refreshing every interval.
func NewModel(a AdminAPI, interval time.Duration) Model {
	healthProg := progress.New(
		progress.WithGradient("#ff0000", "#00ff00"),
		progress.WithWidth(40),
	)
	accuracyProg := progress.New(
		progress.WithGradient("#00ffff", "#00ff00"),
		progress.WithWidth(40),
	)

	return Model{
		api:              a,
		interval:         interval,
		healthProgress:   healthProg,
		accuracyProgress: accuracyProg,
		snapshot: Snapshot{
			ResponseTimeHistory: make([]float64, 0, historySize),
			ActiveUserHistory:   make([]float64, 0, historySize),
			AccuracyHistory:     make([]float64, 0, historySize),
		},
	}
}

// healthBadge maps the reported health percentage to a status badge.
func healthBadge(healthPercent float64) string {
	if healthPercent >= 90 {
		return healthyStyle.Render("✓ HEALTHY")
	} else if healthPercent >= 70 {
		return warningStyle.Render("⚠ DEGRADED")
	}
	return errorStyle.Render("✗ UNHEALTHY")
}

// responseBadge maps average response time in ms to a status badge.
func responseBadge(responseMS float64) string {
	if responseMS < 500 {
		return healthyStyle.Render("[✓]")
	} else if responseMS < 2000 {
		return warningStyle.Render("[⚠]")
	}
	return errorStyle.Render("[✗]")
}

func levelStyle(level string) lipgloss.Style {
	switch level {
	case "error", "fatal":
		return errorStyle
	case "warn", "warning":
		return warningStyle
	default:
		return dimStyle
	}
}

// appendToHistory appends a value, keeping at most historySize points.
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// createSparkline renders a sparkline chart from trailing data.
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

// Message types.
type tickMsg time.Time
type snapshotMsg Snapshot
type errMsg error

// Init starts the refresh loop and fires the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		fetchSnapshot(m.api),
	)
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchSnapshot pulls the admin endpoints for one refresh. Metrics are
// required; users and logs degrade to empty sections on error.
func fetchSnapshot(a AdminAPI) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		metrics, err := a.AdminMetrics(ctx)
		if err != nil {
			return errMsg(err)
		}

		users, err := a.AdminUsers(ctx)
		if err != nil {
			users = nil
		}

		logs, err := a.AdminLogs(ctx)
		if err != nil {
			logs = nil
		}

		return snapshotMsg{
			Metrics: *metrics,
			Users:   users,
			Logs:    logs,
		}
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
			return m, fetchSnapshot(m.api)
		case "u":
			m.showUsers = !m.showUsers
			return m, nil
		}

	case tickMsg:
		return m, tea.Batch(
			tick(m.interval),
			fetchSnapshot(m.api),
		)

	case snapshotMsg:
		next := Snapshot(msg)
		next.ResponseTimeHistory = appendToHistory(m.snapshot.ResponseTimeHistory, next.Metrics.AverageResponseTime)
		next.ActiveUserHistory = appendToHistory(m.snapshot.ActiveUserHistory, float64(next.Metrics.ActiveUsers))
		next.AccuracyHistory = appendToHistory(m.snapshot.AccuracyHistory, next.Metrics.AIAccuracy)

		m.snapshot = next
		m.lastUpdate = time.Now()
		m.err = nil
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
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
	header := headerStyle.Render(" Help Center Admin ")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Cannot reach the backend") + "\n"
	content += "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += dimStyle.Render("Check that the API is running and your session is valid.") + "\n"
	content += "\n"
	content += footerStyle.Render("[q] quit  [r] retry") + "\n"

	return containerStyle.Render(header + "\n" + content)
}

func (m Model) renderDashboard() string {
	var content string

	lastUpdateStr := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("3:04:05 PM")
	}

	header := headerStyle.Render(" Help Center Admin ")
	headerLine := fmt.Sprintf("%s   %s %s   %s",
		healthBadge(m.snapshot.Metrics.SystemHealth),
		dimStyle.Render("Updated:"),
		valueStyle.Render(lastUpdateStr),
		dimStyle.Render(fmt.Sprintf("every %v", m.interval)))

	content += header + "\n"
	content += headerLine + "\n"

	// Usage section.
	content += "\n" + sectionStyle.Render("┃ Usage") + "\n"

	activeSparkline := createSparkline(m.snapshot.ActiveUserHistory)
	content += labelStyle.Render("  Users: ") +
		valueStyle.Render(FormatCount(m.snapshot.Metrics.TotalUsers)) +
		dimStyle.Render(" total  ") +
		valueStyle.Render(FormatCount(m.snapshot.Metrics.ActiveUsers)) +
		dimStyle.Render(" active") +
		"   " + activeSparkline + "\n"

	content += labelStyle.Render("  Messages: ") +
		valueStyle.Render(FormatCount(m.snapshot.Metrics.TotalMessages)) + "\n"

	// Assistant section.
	content += "\n" + sectionStyle.Render("┃ Assistant") + "\n"

	respSparkline := createSparkline(m.snapshot.ResponseTimeHistory)
	content += labelStyle.Render("  Response: ") +
		valueStyle.Render(FormatLatencyMS(m.snapshot.Metrics.AverageResponseTime)) +
		" " + responseBadge(m.snapshot.Metrics.AverageResponseTime) +
		"   " + respSparkline + "\n"

	accuracyRatio := clampRatio(m.snapshot.Metrics.AIAccuracy / 100)
	content += labelStyle.Render("  Accuracy: ") +
		m.accuracyProgress.ViewAs(accuracyRatio) +
		" " + dimStyle.Render(FormatPercent(m.snapshot.Metrics.AIAccuracy)) + "\n"

	healthRatio := clampRatio(m.snapshot.Metrics.SystemHealth / 100)
	content += labelStyle.Render("  Health: ") +
		m.healthProgress.ViewAs(healthRatio) +
		" " + dimStyle.Render(FormatPercent(m.snapshot.Metrics.SystemHealth)) + "\n"

	// Users section, toggled with "u".
	if m.showUsers && len(m.snapshot.Users) > 0 {
		content += "\n" + sectionStyle.Render("┃ Recent Users") + "\n"
		for _, u := range m.snapshot.Users {
			content += labelStyle.Render("  "+u.Email) +
				dimStyle.Render("  "+string(u.Role)) +
				dimStyle.Render("  last seen "+FormatSince(u.LastSeen, time.Now())) + "\n"
		}
	}

	// Log tail.
	content += "\n" + sectionStyle.Render("┃ System Log") + "\n"
	logs := m.snapshot.Logs
	if len(logs) > logTailSize {
		logs = logs[len(logs)-logTailSize:]
	}
	if len(logs) == 0 {
		content += dimStyle.Render("  no recent entries") + "\n"
	}
	for _, e := range logs {
		content += dimStyle.Render("  "+e.Timestamp.Format("15:04:05")) +
			" " + levelStyle(e.Level).Render(fmt.Sprintf("%-5s", e.Level)) +
			" " + valueStyle.Render(e.Message) + "\n"
	}

	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerKeyStyle.Render("[u]") + footerStyle.Render(" users  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))

	content += "\n" + footer

	return containerStyle.Render(content)
}

func clampRatio(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// Package tui renders the live usage dashboard for the watch command. It is
// a thin read-only view over the daemon read model: all polling and token
// handling stays in the scheduler.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/janekbaraniewski/claudewatch/internal/core"
	"github.com/janekbaraniewski/claudewatch/internal/daemon"
	"github.com/janekbaraniewski/claudewatch/internal/sensor"
)

// Fetcher supplies the read model. Satisfied by *daemon.Client.
type Fetcher interface {
	ReadModel(ctx context.Context) (daemon.ReadModel, error)
}

const refreshEvery = 2 * time.Second

type tickMsg time.Time

type readModelMsg struct {
	model daemon.ReadModel
	err   error
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type Model struct {
	fetcher Fetcher
	account string

	model    daemon.ReadModel
	fetchErr error
	hasData  bool

	width  int
	height int
}

func NewModel(fetcher Fetcher, account string) Model {
	return Model{fetcher: fetcher, account: account}
}

func (m Model) fetchCmd() tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		model, err := fetcher.ReadModel(ctx)
		return readModelMsg{model: model, err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetchCmd()
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), tickCmd())

	case readModelMsg:
		m.fetchErr = msg.err
		if msg.err == nil {
			m.model = msg.model
			m.hasData = true
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if m.width < 30 || m.height < 8 {
		return dimStyle.Render("\n  Terminal too small. Resize to at least 30x8.")
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.fetchErr != nil && !m.hasData:
		b.WriteString(errorStyle.Render("  daemon unreachable: "))
		b.WriteString(valueStyle.Render(m.fetchErr.Error()))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  start the watcher with `claudewatch run`"))
	case !m.hasData:
		b.WriteString(dimStyle.Render("  connecting..."))
	default:
		b.WriteString(m.renderBody())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := brandStyle.Render("claudewatch")
	if m.account != "" {
		title += dimStyle.Render(" · ") + headerStyle.Render(m.account)
	}
	return ansi.Truncate(" "+title, m.width, "…")
}

func (m Model) renderBody() string {
	outcome := m.model.Outcome
	metrics := outcome.Metrics

	var b strings.Builder
	if outcome.Failed() {
		b.WriteString(m.renderFailureBanner(outcome))
		// Fall back to the last good metrics so the dashboard keeps showing data.
		metrics = m.model.LastGood
	}

	nameWidth := 0
	values := sensor.Resolve(metrics)
	for _, v := range values {
		if len(v.Definition.Name) > nameWidth {
			nameWidth = len(v.Definition.Name)
		}
	}

	gaugeWidth := min(30, max(10, m.width-nameWidth-14))
	for _, v := range values {
		b.WriteString(m.renderSensorRow(v, metrics, nameWidth, gaugeWidth))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderFailureBanner(outcome core.Outcome) string {
	style := errorStyle
	label := "poll failed"
	if outcome.Status == core.StatusAuth {
		style = authStyle
		label = "authentication required"
	}
	line := fmt.Sprintf("  %s %s", style.Render(label), dimStyle.Render(outcome.Message))
	return ansi.Truncate(line, m.width, "…") + "\n\n"
}

func (m Model) renderSensorRow(v sensor.Value, metrics core.MetricMap, nameWidth, gaugeWidth int) string {
	name := labelStyle.Render(fmt.Sprintf("  %-*s", nameWidth, v.Definition.Name))

	var state string
	if pct, ok := metrics[v.Definition.Key].(float64); ok && v.Definition.Unit == "%" {
		state = RenderUsageGauge(pct, gaugeWidth)
	} else if v.Available {
		state = valueStyle.Render(v.Display())
	} else {
		state = dimStyle.Render(v.Display())
	}

	return ansi.Truncate(name+"  "+state, m.width, "…")
}

func (m Model) renderFooter() string {
	parts := []string{
		helpStyle.Render("q quit · r refresh"),
	}
	if m.hasData {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("interval %ds", m.model.IntervalSeconds)))
		if !m.model.Outcome.Timestamp.IsZero() {
			parts = append(parts, dimStyle.Render("updated "+m.model.Outcome.Timestamp.Local().Format("15:04:05")))
		}
	}
	if m.fetchErr != nil && m.hasData {
		parts = append(parts, errorStyle.Render("daemon unreachable"))
	}
	return ansi.Truncate(" "+strings.Join(parts, dimStyle.Render("  ·  ")), m.width, "…")
}

// Run starts the dashboard on the current terminal.
func Run(fetcher Fetcher, account string) error {
	program := tea.NewProgram(NewModel(fetcher, account), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

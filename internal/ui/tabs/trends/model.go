// Package trends provides the trends tab: per-period charts and the top models
// for the active filters.
package trends

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/usage-dashboard-tui/internal/app"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/components"
)

type keyMap struct {
	Refresh key.Binding
	Metric  key.Binding
	Up      key.Binding
	Down    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Metric: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "quota/requests"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// metric selects which series the main chart plots.
type metric int

const (
	metricQuota metric = iota
	metricRequests
)

// Model represents the trends tab state.
type Model struct {
	state    *app.State
	commands *app.Commands
	keys     keyMap
	metric   metric

	viewport viewport.Model
	spinner  components.LoadingSpinner
	width    int
	height   int
}

// New creates the trends tab.
func New(state *app.State, commands *app.Commands) *Model {
	return &Model{
		state:    state,
		commands: commands,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		spinner:  components.NewSpinner("Aggregating usage..."),
	}
}

// Init does nothing; the trend is loaded when the tab is first shown.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the trends tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.TabSwitchMsg:
		if msg.Tab != app.TabTrends {
			return m, nil
		}
		return m, tea.Batch(m.spinner.Tick(), m.loadIfStale())

	case app.ConfigReloadedMsg, app.StatisticsLoadedMsg:
		// filters may have changed while this tab was visible
		return m, m.loadIfStale()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			return m, tea.Batch(m.spinner.Tick(), m.commands.LoadTrend())
		case key.Matches(msg, m.keys.Metric):
			m.metric = (m.metric + 1) % 2
			return m, nil
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m *Model) loadIfStale() tea.Cmd {
	if !m.state.TrendStale() || m.state.TrendLoading() {
		return nil
	}
	return m.commands.LoadTrend()
}

// SetSize sets the available size for the trends tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-4, 20)
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Refresh, m.keys.Metric}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Refresh, m.keys.Metric},
		{m.keys.Up, m.keys.Down},
	}
}

// Package usage provides the usage statistics tab: summary, search form and paginated table.
package usage

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/usage-dashboard-tui/internal/app"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/components"
)

// keyMap defines the key bindings specific to the usage tab.
type keyMap struct {
	Search      key.Binding
	Submit      key.Binding
	Close       key.Binding
	NextField   key.Binding
	PrevField   key.Binding
	Reset       key.Binding
	Refresh     key.Binding
	NextPage    key.Binding
	PrevPage    key.Binding
	Bigger      key.Binding
	Smaller     key.Binding
	Compact     key.Binding
	Granularity key.Binding
	Up          key.Binding
	Down        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Search:      key.NewBinding(key.WithKeys("/", "f"), key.WithHelp("/", "search")),
		Submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		Close:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close form")),
		NextField:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Reset:       key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reset filters")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		NextPage:    key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next page")),
		PrevPage:    key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p", "prev page")),
		Bigger:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "larger pages")),
		Smaller:     key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "smaller pages")),
		Compact:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "compact mode")),
		Granularity: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "monthly/daily")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	}
}

// Model represents the usage tab state.
type Model struct {
	state    *app.State
	commands *app.Commands
	keys     keyMap

	form      components.SearchForm
	searching bool

	viewport viewport.Model
	spinner  components.LoadingSpinner
	width    int
	height   int

	// now is replaced in tests.
	now func() time.Time
}

// New creates the usage tab.
func New(state *app.State, commands *app.Commands) *Model {
	return &Model{
		state:    state,
		commands: commands,
		keys:     defaultKeyMap(),
		form:     components.NewSearchForm(),
		viewport: viewport.New(0, 0),
		spinner:  components.NewSpinner("Loading statistics..."),
		now:      time.Now,
	}
}

// Init loads the first page and the token options.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick(),
		m.commands.LoadStatistics(),
		m.commands.LoadTokens(),
	)
}

// CapturingInput reports whether the search form owns the keyboard.
func (m *Model) CapturingInput() bool {
	return m.searching
}

// Update handles messages for the usage tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m, m.updateForm(msg)
		}
		return m, m.handleKey(msg)

	case app.TokensLoadedMsg:
		m.form.SetTokens(msg.Tokens.Tokens)

	case app.StatisticsLoadedMsg:
		m.viewport.GotoTop()

	case app.TabSwitchMsg:
		return m, m.spinner.Tick()

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Search):
		return m.openForm()

	case key.Matches(msg, m.keys.Reset):
		return m.reset()

	case key.Matches(msg, m.keys.Refresh):
		return m.refresh()

	case key.Matches(msg, m.keys.NextPage):
		if m.state.SetPage(m.state.Query().Page + 1) {
			return m.commands.LoadStatistics()
		}

	case key.Matches(msg, m.keys.PrevPage):
		if m.state.SetPage(m.state.Query().Page - 1) {
			return m.commands.LoadStatistics()
		}

	case key.Matches(msg, m.keys.Bigger):
		m.state.SetPageSize(models.NextPageSize(m.state.Query().PageSize))
		return m.commands.Reload()

	case key.Matches(msg, m.keys.Smaller):
		m.state.SetPageSize(models.PrevPageSize(m.state.Query().PageSize))
		return m.commands.Reload()

	case key.Matches(msg, m.keys.Compact):
		m.state.ToggleCompact()
		return m.commands.SavePreferences()

	case key.Matches(msg, m.keys.Granularity):
		g := m.state.ToggleGranularity(m.now())
		m.form.ClearEdits()
		return tea.Batch(m.commands.Reload(), m.commands.NotifyInfo(g.Label()+" statistics"))

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// openForm fills the form from the active query. Without filters the form
// offers the default window instead of empty bounds.
func (m *Model) openForm() tea.Cmd {
	g := m.state.Granularity()
	q := m.state.Query()
	if !q.HasFilters() {
		q.StartDate, q.EndDate = models.DefaultWindow(g, m.now())
	}
	m.form.SetTokens(m.state.Tokens().Tokens)
	if !m.form.Edited() {
		m.form.Load(g, q)
	}
	m.searching = true
	m.updateViewportSize()
	return m.form.Focus()
}

func (m *Model) closeForm() {
	m.searching = false
	m.form.Blur()
	m.updateViewportSize()
}

// reset clears the filters and reloads every row.
func (m *Model) reset() tea.Cmd {
	m.state.ResetFilters()
	m.form.ClearEdits()
	return m.commands.Reload()
}

// refresh reloads the current page. Form edits that were closed without
// submitting are applied first.
func (m *Model) refresh() tea.Cmd {
	if !m.form.Edited() {
		return m.commands.LoadStatistics()
	}
	q, err := m.form.Query()
	if err != nil {
		return m.commands.NotifyWarning("Search form: " + err.Error())
	}
	m.state.ApplyFilters(q)
	m.form.ClearEdits()
	return m.commands.LoadStatistics()
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.closeForm()
		return nil

	case key.Matches(msg, m.keys.Reset):
		cmd := m.reset()
		m.closeForm()
		return cmd

	case key.Matches(msg, m.keys.NextField):
		m.form.NextField()
		return nil

	case key.Matches(msg, m.keys.PrevField):
		m.form.PrevField()
		return nil

	case key.Matches(msg, m.keys.Submit):
		q, err := m.form.Query()
		if err != nil {
			return nil
		}
		m.state.Search(q)
		m.form.ClearEdits()
		m.closeForm()
		return m.commands.Reload()
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return cmd
}

// SetSize sets the available size for the usage tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.updateViewportSize()
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.searching {
		return []key.Binding{m.keys.NextField, m.keys.Submit, m.keys.Close}
	}
	return []key.Binding{m.keys.Search, m.keys.NextPage, m.keys.PrevPage, m.keys.Refresh}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Search, m.keys.Reset, m.keys.Refresh},
		{m.keys.NextPage, m.keys.PrevPage, m.keys.Bigger, m.keys.Smaller},
		{m.keys.Compact, m.keys.Granularity, m.keys.Up, m.keys.Down},
	}
}

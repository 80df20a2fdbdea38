package usage

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// EmptyMessage is shown when the filters match no statistics.
const EmptyMessage = "No statistics yet, make some API requests or adjust the filters"

// View renders the usage tab.
func (m *Model) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()

	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 3)
	m.viewport.Height = bodyHeight
	m.viewport.SetContent(m.renderBody(bodyHeight))

	sections := []string{header, m.viewport.View()}
	if footer != "" {
		sections = append(sections, footer)
	}

	return styles.DocStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.MarginBottom(0).Render(m.state.Granularity().Label() + " usage statistics")
	lines := []string{title, styles.HelpStyle.Render(m.describeFilters())}

	if m.searching {
		lines = append(lines, m.form.View())
	} else if m.form.Edited() {
		lines = append(lines, styles.HelpStyle.Render("Search edits not applied, press r to apply or / to continue"))
	}

	if page := m.state.Page(); page != nil {
		if summary := components.RenderSummary(page.Summary, m.quotaDisplay(), m.contentWidth()); summary != "" {
			lines = append(lines, summary)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) describeFilters() string {
	q := m.state.Query()
	if !q.HasFilters() {
		return "All periods · all tokens · all models"
	}

	start, end := q.StartDate, q.EndDate
	if start == "" {
		start = "…"
	}
	if end == "" {
		end = "…"
	}
	parts := []string{start + " → " + end}

	if q.TokenID > 0 {
		parts = append(parts, "token "+m.state.TokenName(q.TokenID))
	} else {
		parts = append(parts, "all tokens")
	}
	if q.ModelName != "" {
		parts = append(parts, "model "+q.ModelName)
	} else {
		parts = append(parts, "all models")
	}
	return strings.Join(parts, " · ")
}

func (m *Model) renderBody(height int) string {
	page := m.state.Page()
	width := m.contentWidth()

	if err := m.state.LoadError(); err != nil && page == nil {
		return styles.CenterBoth(styles.ErrorTextStyle.Render(fmt.Sprintf("Could not load statistics: %v", err)), width, height)
	}
	if page == nil {
		if m.state.IsLoading() {
			return m.spinner.ViewCentered(width, height)
		}
		return styles.CenterBoth(styles.HelpStyle.Render("Press r to load statistics"), width, height)
	}
	if page.IsEmpty() {
		return styles.CenterBoth(styles.HelpStyle.Render(EmptyMessage), width, height)
	}

	return components.RenderUsageTable(page.Items, components.TableOptions{
		Granularity: m.state.Granularity(),
		Quota:       m.quotaDisplay(),
		Compact:     m.state.Compact(),
	})
}

func (m *Model) renderFooter() string {
	page := m.state.Page()
	if page == nil || page.IsEmpty() {
		return ""
	}

	footer := components.RenderPagination(page)
	if m.state.IsLoading() {
		footer += "  " + m.spinner.View()
	}
	if m.state.Compact() {
		footer += styles.HelpStyle.Render(" · compact")
	}
	return footer
}

func (m *Model) quotaDisplay() components.QuotaDisplay {
	cfg := m.state.Config()
	if cfg == nil {
		return components.QuotaDisplay{}
	}
	return components.QuotaDisplay{PerUnit: cfg.QuotaPerUnit, InCurrency: cfg.DisplayInCurrency}
}

// contentWidth is the width inside DocStyle's margin and padding.
func (m *Model) contentWidth() int {
	return max(m.width-4, 20)
}

func (m *Model) updateViewportSize() {
	m.viewport.Width = m.contentWidth()
}

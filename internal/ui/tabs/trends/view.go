package trends

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// View renders the trends tab.
func (m *Model) View() string {
	m.viewport.SetContent(m.renderContent())
	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) renderContent() string {
	width := max(m.width-4, 20)
	trend := m.state.Trend()

	if !trend.HasData() {
		var body string
		switch {
		case m.state.TrendLoading():
			body = m.spinner.View()
		case trend != nil:
			body = styles.HelpStyle.Render("No usage in the selected range")
		default:
			body = styles.HelpStyle.Render("Press r to aggregate usage for the current filters")
		}
		return styles.CenterBoth(body, width, max(m.height-2, 3))
	}

	quota := m.quotaDisplay()
	sections := []string{
		styles.TitleStyle.Render(fmt.Sprintf("%s trends", trend.Granularity.Label())),
		m.renderRange(trend),
		"",
		m.renderMainChart(trend, width),
		"",
		styles.CardTitleStyle.Render("Top models by quota"),
		m.renderTopModels(trend, quota, width),
	}
	if trend.Truncated {
		sections = append(sections, "",
			styles.WarningTextStyle.Render(fmt.Sprintf(
				"Showing the first %s of %s rows, narrow the filters for a complete view",
				components.FormatCount(int64(trend.Rows)), components.FormatCount(trend.Total))))
	}
	if m.state.TrendStale() {
		sections = append(sections, styles.HelpStyle.Render("Filters changed, press r to refresh"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderRange(t *models.Trend) string {
	first, last := t.Points[0], t.Points[len(t.Points)-1]
	var requests, quota int64
	for _, p := range t.Points {
		requests += p.TotalRequests
		quota += p.TotalQuota
	}
	return styles.HelpStyle.Render(fmt.Sprintf("%s → %s · %d periods · %s requests · %s quota",
		first.Period, last.Period, len(t.Points),
		components.FormatCount(requests), m.quotaDisplay().Render(quota)))
}

func (m *Model) renderMainChart(t *models.Trend, width int) string {
	chartHeight := max(m.height/3, 5)
	if m.metric == metricRequests {
		return components.RenderLineChart(t.Requests(), width-10, chartHeight, "Requests per period")
	}

	series := t.Quotas()
	caption := "Quota per period"
	if d := m.quotaDisplay(); d.InCurrency && d.PerUnit > 0 {
		for i := range series {
			series[i] /= d.PerUnit
		}
		caption = "Quota per period ($)"
	}
	return components.RenderLineChart(series, width-10, chartHeight, caption)
}

func (m *Model) renderTopModels(t *models.Trend, quota components.QuotaDisplay, width int) string {
	if len(t.TopModels) == 0 {
		return styles.HelpStyle.Render("No models")
	}
	bars := make([]components.Bar, 0, len(t.TopModels))
	for _, s := range t.TopModels {
		bars = append(bars, components.Bar{
			Label: s.ModelName,
			Value: float64(s.TotalQuota),
			Text:  fmt.Sprintf("%s · %s req", quota.Render(s.TotalQuota), components.FormatCount(s.TotalRequests)),
		})
	}
	return components.RenderBarChart(bars, width)
}

func (m *Model) quotaDisplay() components.QuotaDisplay {
	cfg := m.state.Config()
	if cfg == nil {
		return components.QuotaDisplay{}
	}
	return components.QuotaDisplay{PerUnit: cfg.QuotaPerUnit, InCurrency: cfg.DisplayInCurrency}
}

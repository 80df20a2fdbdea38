package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// RenderSummary renders the totals of the filtered result set as a row of
// stat boxes. It returns an empty string when there is no summary.
func RenderSummary(s *models.Summary, quota QuotaDisplay, width int) string {
	if s == nil {
		return ""
	}

	stats := []struct {
		label string
		value string
	}{
		{"Total requests", styles.ValueStyle.Render(FormatCount(s.TotalRequests))},
		{"Successful", styles.SuccessTextStyle.Bold(true).Render(FormatCount(s.SuccessfulRequests))},
		{"Success rate", RateBadge(s.SuccessRate)},
		{"Total tokens", styles.ValueStyle.Render(FormatCount(s.TotalTokens))},
		{"Total quota", styles.ValueStyle.Render(quota.Render(s.TotalQuota))},
	}

	boxWidth := 0
	if width > 0 {
		boxWidth = max(width/len(stats)-4, 14)
	}

	boxes := make([]string, 0, len(stats))
	for _, st := range stats {
		content := lipgloss.JoinVertical(lipgloss.Left,
			styles.LabelStyle.Render(st.label),
			st.value,
		)
		box := styles.CardStyle
		if boxWidth > 0 {
			box = box.Width(boxWidth)
		}
		boxes = append(boxes, box.Render(content))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

package components

import (
	"fmt"
	"strings"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// RenderPagination renders the footer under the usage table,
// e.g. "Showing 11-20 of 42 · Page 2/5 · 10 / page".
func RenderPagination(p *models.Page) string {
	if p == nil {
		return ""
	}

	start, end := p.Range()
	parts := []string{
		fmt.Sprintf("Showing %s-%s of %s",
			FormatCount(start), FormatCount(end), FormatCount(p.Total)),
		fmt.Sprintf("Page %d/%d", max(p.Page, 1), p.TotalPages()),
		fmt.Sprintf("%d / page", p.PageSize),
	}
	return styles.HelpStyle.Render(strings.Join(parts, " · "))
}

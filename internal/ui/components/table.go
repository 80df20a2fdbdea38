package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// UnknownToken is shown for rows whose token has no name.
const UnknownToken = "Unknown token"

var (
	periodStyle   = lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimary)
	modelTagStyle = lipgloss.NewStyle().Foreground(styles.Secondary)
	mutedStyle    = lipgloss.NewStyle().Foreground(styles.TextSecondary)
)

// TableOptions controls how the usage table is rendered.
type TableOptions struct {
	Granularity models.Granularity
	Quota       QuotaDisplay
	// Compact drops the token breakdown and the update time.
	Compact bool
	Width   int
}

// UsageHeaders returns the column headers for the given mode.
func UsageHeaders(compact bool) []string {
	if compact {
		return []string{"Period", "Token", "Model", "Requests", "Success", "Tokens", "Quota"}
	}
	return []string{"Period", "Token", "Model", "Requests", "Success", "Tokens", "Quota", "Updated"}
}

// UsageRow renders the cells of one record.
func UsageRow(r models.UsageRecord, opts TableOptions) []string {
	name := r.TokenName
	if name == "" {
		name = UnknownToken
	}

	if opts.Compact {
		return []string{
			periodStyle.Render(r.Period(opts.Granularity)),
			name,
			modelTagStyle.Render(r.ModelName),
			FormatCount(r.TotalRequests),
			RateBadge(r.SuccessRate()),
			FormatCount(r.TotalTokens),
			opts.Quota.Render(r.TotalQuota),
		}
	}

	return []string{
		periodStyle.Render(r.Period(opts.Granularity)),
		name + "\n" + mutedStyle.Render(fmt.Sprintf("ID: %d", r.TokenID)),
		modelTagStyle.Render(r.ModelName),
		FormatCount(r.TotalRequests) + "\n" +
			styles.SuccessTextStyle.Render(FormatCount(r.SuccessfulRequests)) + " / " +
			styles.ErrorTextStyle.Render(FormatCount(r.FailedRequests)),
		RateBadge(r.SuccessRate()),
		FormatCount(r.TotalTokens) + "\n" +
			mutedStyle.Render(FormatCount(r.PromptTokens)+" / "+FormatCount(r.CompletionTokens)),
		opts.Quota.Render(r.TotalQuota),
		mutedStyle.Render(FormatTimestamp(r.Updated())),
	}
}

// RenderUsageTable renders statistics rows as a bordered table.
func RenderUsageTable(records []models.UsageRecord, opts TableOptions) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, UsageRow(r, opts))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.TableBorderStyle).
		BorderRow(!opts.Compact).
		Headers(UsageHeaders(opts.Compact)...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeaderStyle
			}
			return styles.TableCellStyle
		})
	if opts.Width > 0 {
		t = t.Width(opts.Width)
	}
	return t.Render()
}

package info

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
	"github.com/j-veylop/usage-dashboard-tui/internal/version"
)

var (
	rowLabelStyle = lipgloss.NewStyle().Width(18).Foreground(styles.TextMuted)
	rowValueStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{m.renderTitle()}

	if cfg := m.state.Config(); cfg != nil {
		sections = append(sections,
			m.renderConnectionCard(cfg),
			m.renderDisplayCard(cfg),
			m.renderStorageCard(cfg),
		)
	} else {
		sections = append(sections, m.card("Configuration", []string{
			styles.HelpStyle.Render("Configuration not loaded"),
		}))
	}
	sections = append(sections, m.renderAboutCard())

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Gateway connection, settings and build information")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderConnectionCard(cfg *config.Config) string {
	rows := []string{
		row("Base URL", cfg.BaseURL),
		row("Access token", maskToken(cfg.AccessToken)),
		row("Role setting", cfg.Role.String()),
		row("Scope", m.state.Scope().String()),
	}
	if cfg.UserID != "" {
		rows = append(rows, row("User ID header", cfg.UserID))
	}
	if u := m.state.User(); u != nil {
		name := u.DisplayName
		if name == "" {
			name = u.Username
		}
		rows = append(rows,
			row("Signed in as", fmt.Sprintf("%s (#%d, role %d)", name, u.ID, u.Role)),
			row("Used quota", components.QuotaDisplay{PerUnit: cfg.QuotaPerUnit, InCurrency: cfg.DisplayInCurrency}.Render(u.UsedQuota)),
		)
	}
	rows = append(rows, "", styles.HelpStyle.Render("Press 'c' to copy the base URL"))
	return m.card("Connection", rows)
}

func (m *Model) renderDisplayCard(cfg *config.Config) string {
	prefs := m.state.Preferences()
	return m.card("Display", []string{
		row("Granularity", prefs.Granularity.Label()),
		row("Page size", strconv.Itoa(prefs.PageSize)),
		row("Compact mode", onOff(prefs.Compact)),
		row("Currency", onOff(cfg.DisplayInCurrency)),
		row("Quota per unit", strconv.FormatFloat(cfg.QuotaPerUnit, 'f', -1, 64)),
		row("Desktop alerts", onOff(cfg.DesktopNotifications)),
		row("Request timeout", cfg.RequestTimeout.String()),
	})
}

func (m *Model) renderStorageCard(cfg *config.Config) string {
	envFile := cfg.EnvFile
	if envFile == "" {
		envFile = "(environment only, hot reload off)"
	}
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "(disabled)"
	}

	rows := []string{
		row("Database", cfg.DatabasePath),
		row("Env file", envFile),
		row("Log file", logFile),
		row("Log level", cfg.LogLevel),
	}
	if tokens := m.state.Tokens(); tokens.FromCache() {
		rows = append(rows, row("Token list", "cached "+components.FormatSince(tokens.CachedAt)))
	}
	return m.card("Storage", rows)
}

func (m *Model) renderAboutCard() string {
	return m.card("About "+version.Name, []string{
		row("Version", version.GetVersion()),
		row("Commit", version.GetCommit()),
		row("Build date", version.GetDate()),
		row("Go version", runtime.Version()),
		row("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	})
}

func (m *Model) card(title string, rows []string) string {
	cardWidth := min(max(m.width-6, 50), 90)
	content := append([]string{styles.CardTitleStyle.Render(title), ""}, rows...)
	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}

func row(label, value string) string {
	if value == "" {
		value = "-"
	}
	return rowLabelStyle.Render(label+":") + " " + rowValueStyle.Render(value)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// maskToken keeps the last four characters of a secret.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	r := []rune(token)
	if len(r) <= 4 {
		return "****"
	}
	return "****" + string(r[len(r)-4:])
}

package app

import (
	"time"

	"github.com/j-veylop/usage-dashboard-tui/internal/api"
	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/services"
	"github.com/j-veylop/usage-dashboard-tui/internal/services/usage"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StatisticsLoadedMsg carries the response of one statistics request.
type StatisticsLoadedMsg struct {
	Seq  uint64
	Page *models.Page
	Err  error
}

// TokensLoadedMsg carries the token filter options.
type TokensLoadedMsg struct {
	Tokens usage.TokenList
}

// TrendLoadedMsg carries the aggregated trend.
type TrendLoadedMsg struct {
	Seq   uint64
	Trend *models.Trend
	Err   error
}

// ScopeResolvedMsg reports the statistics scope in use.
type ScopeResolvedMsg struct {
	Scope api.Scope
	User  *api.User
}

// PreferencesSavedMsg reports the result of persisting preferences.
type PreferencesSavedMsg struct {
	Err error
}

// ConfigReloadedMsg is delivered to the active tab after the .env file was re-applied.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

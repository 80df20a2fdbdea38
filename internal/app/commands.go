package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/usage-dashboard-tui/internal/api"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadStatisticsCmd fetches one page of statistics tagged with the request sequence.
func loadStatisticsCmd(mgr *services.Manager, seq uint64, g models.Granularity, q models.Query) tea.Cmd {
	return func() tea.Msg {
		page, err := mgr.LoadStatistics(context.Background(), g, q)
		return StatisticsLoadedMsg{Seq: seq, Page: page, Err: err}
	}
}

// loadTokensCmd fetches the token filter options. It never fails.
func loadTokensCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return TokensLoadedMsg{Tokens: mgr.Tokens(context.Background())}
	}
}

func loadTrendCmd(mgr *services.Manager, seq uint64, g models.Granularity, q models.Query) tea.Cmd {
	return func() tea.Msg {
		trend, err := mgr.Trend(context.Background(), g, q)
		return TrendLoadedMsg{Seq: seq, Trend: trend, Err: err}
	}
}

func resolveScopeCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		scope := mgr.Scope(context.Background())
		return ScopeResolvedMsg{Scope: scope, User: mgr.Usage().User()}
	}
}

func savePreferencesCmd(mgr *services.Manager, prefs models.Preferences) tea.Cmd {
	return func() tea.Msg {
		return PreferencesSavedMsg{Err: mgr.SavePreferences(prefs)}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(t NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

func notifySuccessCmd(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

func notifyErrorCmd(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

func notifyWarningCmd(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

func notifyInfoCmd(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}

// StatisticsErrorText turns a failed statistics request into toast text.
// Server-side rejections carry their own message.
func StatisticsErrorText(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fmt.Sprintf("Failed to load statistics: %v", err)
}

// Commands lets tabs start requests against the shared state.
type Commands struct {
	manager *services.Manager
	state   *State
}

// NewCommands creates a new Commands instance. mgr may be nil in tests,
// in which case data commands are no-ops.
func NewCommands(mgr *services.Manager, state *State) *Commands {
	return &Commands{manager: mgr, state: state}
}

// LoadStatistics fetches the page described by the current query.
// Any response of an earlier request still in flight will be dropped.
func (c *Commands) LoadStatistics() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	seq := c.state.BeginStatistics()
	return loadStatisticsCmd(c.manager, seq, c.state.Granularity(), c.state.Query())
}

// LoadTokens fetches the token filter options.
func (c *Commands) LoadTokens() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	c.state.SetTokensLoading()
	return loadTokensCmd(c.manager)
}

// LoadTrend aggregates the current filters into the trends view.
func (c *Commands) LoadTrend() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	seq := c.state.BeginTrend()
	return loadTrendCmd(c.manager, seq, c.state.Granularity(), c.state.Query())
}

// SavePreferences persists the current view preferences.
func (c *Commands) SavePreferences() tea.Cmd {
	if c.manager == nil {
		return nil
	}
	return savePreferencesCmd(c.manager, c.state.Preferences())
}

// Reload fetches statistics and persists preferences in one go.
func (c *Commands) Reload() tea.Cmd {
	return tea.Batch(c.LoadStatistics(), c.SavePreferences())
}

// NotifySuccess returns a command that adds a success notification.
func (c *Commands) NotifySuccess(message string) tea.Cmd {
	return notifySuccessCmd(message)
}

// NotifyError returns a command that adds an error notification.
func (c *Commands) NotifyError(message string) tea.Cmd {
	return notifyErrorCmd(message)
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}

// Tick returns a tick command with the specified interval.
func (c *Commands) Tick(interval time.Duration) tea.Cmd {
	return tickCmd(interval)
}

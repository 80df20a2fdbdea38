// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/usage-dashboard-tui/internal/api"
	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/db"
	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/services/envwatch"
	"github.com/j-veylop/usage-dashboard-tui/internal/services/usage"
)

type (
	// ConfigReloadedEvent is emitted after the .env file changed and was applied.
	ConfigReloadedEvent struct {
		Config *config.Config
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (ConfigReloadedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()          {}

// notify sends a desktop notification.
var notify = func(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	database    *db.DB
	client      *api.Client
	usage       *usage.Service
	watcher     *envwatch.Service
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
	lastBand    *rateBaseline
	closeOnce   sync.Once
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.client = api.NewClient(credentialsFor(cfg), nil, cfg.RequestTimeout)
	m.usage = usage.New(m.client, m.database, cfg.Role)

	m.watcher, err = envwatch.New(cfg.EnvFile, nil)
	if err != nil {
		// Hot reload is optional; the dashboard works without it.
		logger.Warn("env file watcher disabled", "error", err)
		m.watcher, _ = envwatch.New("", nil)
	}

	go m.routeEvents()

	return m, nil
}

func credentialsFor(cfg *config.Config) api.Credentials {
	return api.Credentials{
		BaseURL:     cfg.BaseURL,
		AccessToken: cfg.AccessToken,
		UserID:      cfg.UserID,
	}
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.watcher.Events():
			m.handleWatchEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleWatchEvent(event envwatch.Event) {
	switch event.Type {
	case envwatch.EventReloaded:
		m.ApplyConfig(event.Config)
		m.broadcast(ConfigReloadedEvent{Config: m.Config()})

	case envwatch.EventError:
		m.broadcast(ErrorEvent{
			Service: "config",
			Error:   event.Error,
		})
	}
}

// ApplyConfig swaps the gateway credentials and display settings in place.
// The database path cannot change while running.
func (m *Manager) ApplyConfig(next *config.Config) {
	if next == nil {
		return
	}

	m.mu.Lock()
	updated := *next
	updated.DatabasePath = m.cfg.DatabasePath
	roleChanged := updated.Role != m.cfg.Role
	hostChanged := updated.BaseURL != m.cfg.BaseURL || updated.AccessToken != m.cfg.AccessToken
	m.cfg = &updated
	m.lastBand = nil
	m.mu.Unlock()

	m.client.SetCredentials(credentialsFor(&updated))
	if roleChanged || hostChanged {
		m.usage.SetRole(updated.Role)
	}
}

// Config returns the active configuration.
func (m *Manager) Config() *config.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// LoadStatistics fetches one page of statistics and raises desktop notifications
// for load failures and success-rate drops.
func (m *Manager) LoadStatistics(ctx context.Context, g models.Granularity, q models.Query) (*models.Page, error) {
	page, err := m.usage.Load(ctx, g, q)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.desktopNotify("Usage statistics", fmt.Sprintf("Failed to load statistics: %v", err))
		}
		return nil, err
	}
	m.checkSuccessRate(g, q, page.Summary)
	return page, nil
}

// rateBaseline is the last seen success-rate band for one filter set.
type rateBaseline struct {
	granularity models.Granularity
	filters     models.Query
	band        models.RateBand
}

// checkSuccessRate notifies when the success rate crosses down into the poor
// band. Bands are only compared within the same granularity and filters, so
// narrowing a search to a failing model is not reported as a drop.
func (m *Manager) checkSuccessRate(g models.Granularity, q models.Query, summary *models.Summary) {
	if summary == nil || summary.TotalRequests == 0 {
		return
	}
	current := rateBaseline{
		granularity: g,
		filters:     q.Filters(),
		band:        models.RateBandFor(summary.SuccessRate),
	}

	m.mu.Lock()
	previous := m.lastBand
	m.lastBand = &current
	m.mu.Unlock()

	if previous == nil || previous.granularity != g || previous.filters != current.filters {
		return
	}
	if previous.band == models.RatePoor || current.band != models.RatePoor {
		return
	}

	m.desktopNotify("Low success rate",
		fmt.Sprintf("Success rate dropped to %.1f%% (%d of %d requests)",
			models.RoundRate(summary.SuccessRate), summary.SuccessfulRequests, summary.TotalRequests))
}

func (m *Manager) desktopNotify(title, body string) {
	if !m.Config().DesktopNotifications {
		return
	}
	if err := notify(title, body); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

// Tokens returns the token filter options.
func (m *Manager) Tokens(ctx context.Context) usage.TokenList {
	return m.usage.Tokens(ctx)
}

// Trend returns aggregated statistics for the trends view.
func (m *Manager) Trend(ctx context.Context, g models.Granularity, q models.Query) (*models.Trend, error) {
	return m.usage.Trend(ctx, g, q)
}

// Scope returns the resolved statistics scope.
func (m *Manager) Scope(ctx context.Context) api.Scope {
	return m.usage.Scope(ctx)
}

// LoadPreferences returns the stored view preferences, falling back to defaults.
func (m *Manager) LoadPreferences() models.Preferences {
	defaults := models.DefaultPreferences(m.Config().PageSize)
	prefs, err := m.database.LoadPreferences(defaults)
	if err != nil {
		logger.Warn("failed to load preferences", "error", err)
		return defaults
	}
	return prefs
}

// SavePreferences persists view preferences.
func (m *Manager) SavePreferences(prefs models.Preferences) error {
	return m.database.SavePreferences(prefs)
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
// It yields nil once the channel is closed.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Client returns the gateway client.
func (m *Manager) Client() *api.Client {
	return m.client
}

// Usage returns the usage service.
func (m *Manager) Usage() *usage.Service {
	return m.usage
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if err := m.watcher.Close(); err != nil {
			errs = append(errs, err)
		}

		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	return errors.Join(errs...)
}

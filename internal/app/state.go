// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/usage-dashboard-tui/internal/api"
	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/services/usage"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Statistics bool
	Tokens     bool
	Trend      bool
}

// State is shared by the root model and all tabs. It is only mutated from
// the Bubble Tea update loop but read from commands, hence the lock.
type State struct {
	mu sync.RWMutex

	cfg   *config.Config
	scope api.Scope
	user  *api.User

	prefs models.Preferences
	query models.Query

	page    *models.Page
	loadErr error
	tokens  usage.TokenList

	trend      *models.Trend
	trendStale bool

	// statsSeq identifies the latest statistics request; responses
	// carrying an older sequence are dropped.
	statsSeq uint64
	trendSeq uint64

	Loading     LoadingState
	lastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates the shared state with default preferences and a default query.
func NewState() *State {
	prefs := models.DefaultPreferences(models.DefaultPageSize)
	return &State{
		prefs:         prefs,
		query:         models.DefaultQuery(prefs.Granularity, time.Now(), prefs.PageSize),
		tokens:        usage.TokenList{Tokens: []models.TokenOption{}},
		trendStale:    true,
		notifications: make([]Notification, 0),
	}
}

// SetConfig stores the active configuration.
func (s *State) SetConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Config returns the active configuration, nil before one is set.
func (s *State) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetScope records the resolved statistics scope and the detected user, if any.
func (s *State) SetScope(scope api.Scope, user *api.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = scope
	s.user = user
}

// Scope returns the resolved statistics scope.
func (s *State) Scope() api.Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope
}

// User returns the user detected during scope resolution.
func (s *State) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// ApplyPreferences replaces the preferences and rebuilds the query from them.
// A stored filter is restored, otherwise the default window is used.
func (s *State) ApplyPreferences(prefs models.Preferences, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs.PageSize = models.NormalizePageSize(prefs.PageSize)
	s.prefs = prefs
	if prefs.Filter != nil {
		q := *prefs.Filter
		q.Page = 1
		q.PageSize = prefs.PageSize
		s.query = q
	} else {
		s.query = models.DefaultQuery(prefs.Granularity, now, prefs.PageSize)
	}
	s.trendStale = true
}

// Preferences returns the current preferences, with the filter reflecting the active query.
func (s *State) Preferences() models.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefs := s.prefs
	if prefs.Filter != nil {
		f := *prefs.Filter
		prefs.Filter = &f
	}
	return prefs
}

// Granularity returns the active granularity.
func (s *State) Granularity() models.Granularity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Granularity
}

// Query returns the active query.
func (s *State) Query() models.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// Search replaces the filters, jumps to page one and remembers the filter.
func (s *State) Search(q models.Query) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q.Page = 1
	q.PageSize = s.prefs.PageSize
	s.query = q
	filter := q
	s.prefs.Filter = &filter
	s.trendStale = true
}

// ApplyFilters replaces the filters but keeps the current page and page size.
func (s *State) ApplyFilters(q models.Query) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q.Page = s.query.Page
	q.PageSize = s.query.PageSize
	if q.Filters() != s.query.Filters() {
		s.trendStale = true
	}
	s.query = q
	filter := q
	s.prefs.Filter = &filter
}

// ResetFilters restores the default window and forgets the stored filter.
// Reset deliberately queries without the default dates so every row is shown.
func (s *State) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query = models.Query{Page: 1, PageSize: s.prefs.PageSize}
	s.prefs.Filter = nil
	s.trendStale = true
}

// SetPage moves to another page, clamped to the known page count.
func (s *State) SetPage(page int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := s.page.TotalPages()
	page = min(max(page, 1), last)
	if page == s.query.Page {
		return false
	}
	s.query.Page = page
	return true
}

// SetPageSize changes the page size and goes back to page one.
func (s *State) SetPageSize(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size = models.NormalizePageSize(size)
	s.prefs.PageSize = size
	s.query.PageSize = size
	s.query.Page = 1
}

// ToggleCompact flips compact mode and returns the new value.
func (s *State) ToggleCompact() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Compact = !s.prefs.Compact
	return s.prefs.Compact
}

// Compact reports whether compact mode is on.
func (s *State) Compact() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Compact
}

// ToggleGranularity switches between monthly and daily. The date filters are
// reset to the new granularity's default window since their format differs.
func (s *State) ToggleGranularity(now time.Time) models.Granularity {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.prefs.Granularity.Next()
	s.prefs.Granularity = g
	start, end := models.DefaultWindow(g, now)
	s.query.StartDate = start
	s.query.EndDate = end
	s.query.Page = 1
	if s.prefs.Filter != nil {
		filter := s.query
		s.prefs.Filter = &filter
	}
	s.page = nil
	s.trendStale = true
	return g
}

// BeginStatistics starts a statistics request and returns its sequence number.
func (s *State) BeginStatistics() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statsSeq++
	s.Loading.Statistics = true
	return s.statsSeq
}

// ApplyStatistics stores a statistics response. It returns false when the
// response belongs to a superseded request and was dropped.
func (s *State) ApplyStatistics(msg StatisticsLoadedMsg) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Seq != s.statsSeq {
		return false
	}
	s.Loading.Statistics = false
	if msg.Err != nil {
		s.loadErr = msg.Err
		return true
	}

	s.loadErr = nil
	s.page = msg.Page
	s.lastUpdated = time.Now()
	// the server may clamp pagination, keep what it actually served
	if msg.Page != nil {
		if msg.Page.Page > 0 {
			s.query.Page = msg.Page.Page
		}
		if msg.Page.PageSize > 0 {
			s.query.PageSize = msg.Page.PageSize
			s.prefs.PageSize = models.NormalizePageSize(msg.Page.PageSize)
		}
	}
	return true
}

// Page returns the last loaded page, nil before the first response.
func (s *State) Page() *models.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// LoadError returns the error of the last statistics request.
func (s *State) LoadError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// SetTokens stores the token filter options.
func (s *State) SetTokens(list usage.TokenList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if list.Tokens == nil {
		list.Tokens = []models.TokenOption{}
	}
	s.tokens = list
	s.Loading.Tokens = false
}

// Tokens returns the token filter options.
func (s *State) Tokens() usage.TokenList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// TokenName returns the name of a token from the option list.
func (s *State) TokenName(id int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tokens.Tokens {
		if t.ID == id {
			return t.Name
		}
	}
	return fmt.Sprintf("#%d", id)
}

// BeginTrend starts a trend request and returns its sequence number.
func (s *State) BeginTrend() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trendSeq++
	s.Loading.Trend = true
	return s.trendSeq
}

// ApplyTrend stores a trend response, dropping superseded ones.
func (s *State) ApplyTrend(msg TrendLoadedMsg) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Seq != s.trendSeq {
		return false
	}
	s.Loading.Trend = false
	if msg.Err == nil {
		s.trend = msg.Trend
		s.trendStale = false
	}
	return true
}

// Trend returns the last aggregated trend.
func (s *State) Trend() *models.Trend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trend
}

// TrendStale reports whether filters changed since the trend was loaded.
func (s *State) TrendStale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trendStale
}

// InvalidateTrend forces the next trends view to reload.
func (s *State) InvalidateTrend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trendStale = true
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Statistics || s.Loading.Tokens || s.Loading.Trend
}

// IsLoading reports whether statistics are being fetched.
func (s *State) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Statistics
}

// TrendLoading reports whether the trend is being aggregated.
func (s *State) TrendLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Trend
}

// SetTokensLoading marks the token list as loading.
func (s *State) SetTokensLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Loading.Tokens = true
}

// GetLastUpdated returns the time statistics were last applied.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := fmt.Sprintf("%s-%d", time.Now().Format("150405"), s.notificationSeq)

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeNotification(id)
}

func (s *State) removeNotification(id string) {
	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = activeNotifications(s.notifications)
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return activeNotifications(s.notifications)
}

func activeNotifications(all []Notification) []Notification {
	active := make([]Notification, 0, len(all))
	for _, n := range all {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeNotification(LoadingNotificationID)
}

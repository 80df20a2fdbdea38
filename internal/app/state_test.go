package app

import (
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/services/usage"
)

var fixedNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.Local)

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	q := s.Query()
	if q.Page != 1 || q.PageSize != models.DefaultPageSize {
		t.Errorf("unexpected default query: %+v", q)
	}
	if q.StartDate == "" || q.EndDate == "" {
		t.Error("default query should carry the look-back window")
	}
	if s.Tokens().Tokens == nil {
		t.Error("token list should be empty, not nil")
	}
	if !s.TrendStale() {
		t.Error("trend should start stale")
	}
}

func TestState_ApplyPreferences(t *testing.T) {
	s := NewState()

	s.ApplyPreferences(models.Preferences{PageSize: 50, Granularity: models.Daily}, fixedNow)
	q := s.Query()
	if q.PageSize != 50 || q.StartDate != "2024-05-08" || q.EndDate != "2024-05-15" {
		t.Errorf("query = %+v", q)
	}
	if s.Granularity() != models.Daily {
		t.Error("granularity not applied")
	}

	filter := &models.Query{Page: 7, StartDate: "2024-01", ModelName: "gpt-4o", TokenID: 3}
	s.ApplyPreferences(models.Preferences{PageSize: 500, Filter: filter}, fixedNow)
	q = s.Query()
	if q.Page != 1 || q.PageSize != models.DefaultPageSize || q.ModelName != "gpt-4o" || q.TokenID != 3 {
		t.Errorf("restored query = %+v", q)
	}
}

func TestState_SearchAndReset(t *testing.T) {
	s := NewState()
	s.ApplyPreferences(models.DefaultPreferences(20), fixedNow)
	s.ApplyTrend(TrendLoadedMsg{Seq: s.BeginTrend(), Trend: &models.Trend{}})
	if s.TrendStale() {
		t.Fatal("trend should be fresh after loading")
	}

	s.Search(models.Query{Page: 4, PageSize: 100, StartDate: "2024-02", ModelName: "claude"})
	q := s.Query()
	if q.Page != 1 || q.PageSize != 20 || q.StartDate != "2024-02" {
		t.Errorf("search query = %+v", q)
	}
	if prefs := s.Preferences(); prefs.Filter == nil || prefs.Filter.ModelName != "claude" {
		t.Errorf("filter not remembered: %+v", prefs.Filter)
	}
	if !s.TrendStale() {
		t.Error("search should invalidate the trend")
	}

	s.ResetFilters()
	q = s.Query()
	if q.HasFilters() || q.Page != 1 || q.PageSize != 20 {
		t.Errorf("reset query = %+v", q)
	}
	if s.Preferences().Filter != nil {
		t.Error("reset should forget the filter")
	}
}

func TestState_ApplyFilters(t *testing.T) {
	s := NewState()
	s.ApplyPreferences(models.DefaultPreferences(20), fixedNow)
	s.ApplyStatistics(StatisticsLoadedMsg{Seq: s.BeginStatistics(), Page: &models.Page{Total: 100, Page: 3, PageSize: 20}})
	s.ApplyTrend(TrendLoadedMsg{Seq: s.BeginTrend(), Trend: &models.Trend{}})

	same := s.Query()
	s.ApplyFilters(same.Filters())
	if s.TrendStale() {
		t.Error("unchanged filters should keep the trend")
	}

	s.ApplyFilters(models.Query{Page: 1, PageSize: 100, ModelName: "claude"})
	q := s.Query()
	if q.Page != 3 || q.PageSize != 20 || q.ModelName != "claude" {
		t.Errorf("ApplyFilters query = %+v, want model claude on page 3 of size 20", q)
	}
	if prefs := s.Preferences(); prefs.Filter == nil || prefs.Filter.ModelName != "claude" {
		t.Errorf("filter not remembered: %+v", prefs.Filter)
	}
	if !s.TrendStale() {
		t.Error("changed filters should invalidate the trend")
	}
}

func TestState_Preferences_CopiesFilter(t *testing.T) {
	s := NewState()
	s.Search(models.Query{ModelName: "a"})

	prefs := s.Preferences()
	prefs.Filter.ModelName = "b"
	if s.Preferences().Filter.ModelName != "a" {
		t.Error("Preferences should return a copy of the filter")
	}
}

func TestState_Paging(t *testing.T) {
	s := NewState()

	if s.SetPage(2) {
		t.Error("cannot move past the last page before anything is loaded")
	}

	seq := s.BeginStatistics()
	s.ApplyStatistics(StatisticsLoadedMsg{Seq: seq, Page: &models.Page{Total: 35, Page: 1, PageSize: 10}})

	tests := []struct {
		page    int
		want    int
		changed bool
	}{
		{2, 2, true},
		{2, 2, false},
		{9, 4, true},
		{0, 1, true},
	}
	for _, tt := range tests {
		if got := s.SetPage(tt.page); got != tt.changed {
			t.Errorf("SetPage(%d) = %v, want %v", tt.page, got, tt.changed)
		}
		if s.Query().Page != tt.want {
			t.Errorf("after SetPage(%d) page = %d, want %d", tt.page, s.Query().Page, tt.want)
		}
	}

	s.SetPageSize(50)
	if q := s.Query(); q.Page != 1 || q.PageSize != 50 {
		t.Errorf("SetPageSize query = %+v", q)
	}
	if s.Preferences().PageSize != 50 {
		t.Error("page size should be persisted in preferences")
	}
}

func TestState_ApplyStatistics_DropsStale(t *testing.T) {
	s := NewState()

	first := s.BeginStatistics()
	second := s.BeginStatistics()

	if s.ApplyStatistics(StatisticsLoadedMsg{Seq: first, Page: &models.Page{Total: 1}}) {
		t.Error("older response should be dropped")
	}
	if s.Page() != nil {
		t.Error("stale page should not be stored")
	}
	if !s.IsLoading() {
		t.Error("still waiting for the latest request")
	}

	if !s.ApplyStatistics(StatisticsLoadedMsg{Seq: second, Page: &models.Page{Total: 2, Page: 1, PageSize: 10}}) {
		t.Error("latest response should be applied")
	}
	if s.Page().Total != 2 || s.IsLoading() {
		t.Errorf("page = %+v loading = %v", s.Page(), s.IsLoading())
	}
	if s.GetLastUpdated().IsZero() {
		t.Error("last updated should be set")
	}
}

func TestState_ApplyStatistics_EchoedPagination(t *testing.T) {
	s := NewState()
	s.SetPageSize(100)

	seq := s.BeginStatistics()
	s.ApplyStatistics(StatisticsLoadedMsg{Seq: seq, Page: &models.Page{Total: 500, Page: 3, PageSize: 50}})

	q := s.Query()
	if q.Page != 3 || q.PageSize != 50 {
		t.Errorf("query = %+v, want the server's page 3 size 50", q)
	}
	if s.Preferences().PageSize != 50 {
		t.Error("preferences should follow the echoed page size")
	}
}

func TestState_ApplyStatistics_Error(t *testing.T) {
	s := NewState()
	seq := s.BeginStatistics()
	s.ApplyStatistics(StatisticsLoadedMsg{Seq: seq, Page: &models.Page{Total: 3}})

	seq = s.BeginStatistics()
	boom := errors.New("boom")
	s.ApplyStatistics(StatisticsLoadedMsg{Seq: seq, Err: boom})

	if !errors.Is(s.LoadError(), boom) {
		t.Errorf("LoadError() = %v", s.LoadError())
	}
	if s.Page() == nil || s.Page().Total != 3 {
		t.Error("previous page should be kept on error")
	}
}

func TestState_ToggleGranularity(t *testing.T) {
	s := NewState()
	s.Search(models.Query{StartDate: "2024-01", EndDate: "2024-03", ModelName: "m"})

	if g := s.ToggleGranularity(fixedNow); g != models.Daily {
		t.Fatalf("ToggleGranularity() = %v", g)
	}
	q := s.Query()
	if q.StartDate != "2024-05-08" || q.EndDate != "2024-05-15" || q.ModelName != "m" {
		t.Errorf("query = %+v", q)
	}
	if f := s.Preferences().Filter; f == nil || f.StartDate != "2024-05-08" {
		t.Errorf("filter = %+v", f)
	}

	if g := s.ToggleGranularity(fixedNow); g != models.Monthly {
		t.Errorf("ToggleGranularity() = %v", g)
	}
	if q := s.Query(); q.StartDate != "2023-11" || q.EndDate != "2024-05" {
		t.Errorf("query = %+v", q)
	}
}

func TestState_Compact(t *testing.T) {
	s := NewState()
	if s.Compact() {
		t.Error("compact should default to off")
	}
	if !s.ToggleCompact() || !s.Compact() {
		t.Error("ToggleCompact should turn compact on")
	}
}

func TestState_Tokens(t *testing.T) {
	s := NewState()
	s.SetTokensLoading()
	if !s.AnyLoading() {
		t.Error("tokens should be loading")
	}

	s.SetTokens(usage.TokenList{Tokens: []models.TokenOption{{ID: 1, Name: "ci"}}})
	if s.AnyLoading() {
		t.Error("loading should be cleared")
	}
	if s.TokenName(1) != "ci" || s.TokenName(2) != "#2" {
		t.Errorf("TokenName() = %q, %q", s.TokenName(1), s.TokenName(2))
	}

	s.SetTokens(usage.TokenList{})
	if s.Tokens().Tokens == nil {
		t.Error("nil token list should be normalized")
	}
}

func TestState_Trend(t *testing.T) {
	s := NewState()
	first := s.BeginTrend()
	second := s.BeginTrend()

	if s.ApplyTrend(TrendLoadedMsg{Seq: first, Trend: &models.Trend{Rows: 1}}) {
		t.Error("stale trend should be dropped")
	}
	s.ApplyTrend(TrendLoadedMsg{Seq: second, Err: errors.New("x")})
	if !s.TrendStale() || s.Trend() != nil {
		t.Error("failed trend should stay stale")
	}

	third := s.BeginTrend()
	s.ApplyTrend(TrendLoadedMsg{Seq: third, Trend: &models.Trend{Rows: 5}})
	if s.TrendStale() || s.Trend().Rows != 5 {
		t.Error("trend should be stored")
	}

	s.InvalidateTrend()
	if !s.TrendStale() {
		t.Error("InvalidateTrend should mark the trend stale")
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationInfo, "Test", time.Second)
	if id == "" {
		t.Error("AddNotification returned empty ID")
	}
	if len(s.GetNotifications()) != 1 {
		t.Error("Should have 1 notification")
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 0 {
		t.Error("Should have 0 notifications")
	}

	s.AddNotification(NotificationInfo, "Expired", time.Nanosecond)
	time.Sleep(time.Millisecond)
	s.ClearExpiredNotifications()
	if len(s.GetNotifications()) != 0 {
		t.Error("Should have cleared expired notification")
	}

	for i := 0; i < 15; i++ {
		s.AddNotification(NotificationWarning, "n", 0)
	}
	if len(s.GetNotifications()) != maxNotifications {
		t.Errorf("notifications = %d, want %d", len(s.GetNotifications()), maxNotifications)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("Loading...")
	s.SetLoadingNotification("Still loading...")
	notifs := s.GetNotifications()
	if len(notifs) != 1 || notifs[0].Message != "Still loading..." || notifs[0].Type != NotificationLoading {
		t.Errorf("notifications = %+v", notifs)
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("loading notification should be removed")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		t    NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
		{NotificationLoading, "loading"},
		{NotificationType(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %v, want %v", got, tt.want)
		}
	}
}

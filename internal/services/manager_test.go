package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/j-veylop/usage-dashboard-tui/internal/api"
	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

// stubNotify captures desktop notifications for the duration of a test.
func stubNotify(t *testing.T) *[]string {
	t.Helper()
	var sent []string
	orig := notify
	notify = func(title, body string) error {
		sent = append(sent, title+": "+body)
		return nil
	}
	t.Cleanup(func() { notify = orig })
	return &sent
}

func newTestManager(t *testing.T, handler http.HandlerFunc) *Manager {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		BaseURL:              srv.URL,
		AccessToken:          "tok",
		Role:                 config.RoleUser,
		DatabasePath:         filepath.Join(t.TempDir(), "test.db"),
		PageSize:             10,
		RequestTimeout:       5 * time.Second,
		QuotaPerUnit:         500000,
		DesktopNotifications: true,
	}
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestNewManager(t *testing.T) {
	mgr := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {})

	if mgr.Database() == nil {
		t.Error("Database should be initialized")
	}
	if mgr.Client() == nil {
		t.Error("Client should be initialized")
	}
	if mgr.Usage() == nil {
		t.Error("Usage service should be initialized")
	}
	if mgr.Scope(context.Background()) != api.ScopeSelf {
		t.Error("configured user role should use the self scope")
	}
}

func TestNewManager_BadDatabasePath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{BaseURL: "http://x", DatabasePath: filepath.Join(file, "sub", "test.db")}
	if _, err := NewManager(cfg); err == nil {
		t.Error("NewManager should fail when the database directory cannot be created")
	}
}

func TestManager_Subscription(t *testing.T) {
	mgr := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {})

	ch, cmd := mgr.Subscribe()
	if ch == nil {
		t.Error("Subscribe returned nil channel")
	}
	if cmd == nil {
		t.Error("Subscribe returned nil command")
	}

	mgr.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Channel should be closed")
		}
	default:
		t.Error("Channel should be closed")
	}

	if msg := cmd(); msg != nil {
		t.Errorf("WaitForEvent on closed channel = %v, want nil", msg)
	}
}

func TestManager_Broadcast(t *testing.T) {
	mgr := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {})

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	event := ErrorEvent{Service: "config", Error: errors.New("bad")}
	mgr.broadcast(event)

	select {
	case e := <-ch:
		if got, ok := e.(ErrorEvent); !ok || got.Service != "config" {
			t.Errorf("Got event %v, want %v", e, event)
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for broadcast")
	}
}

func TestManager_LoadStatistics(t *testing.T) {
	sent := stubNotify(t)
	var rate atomic.Value
	rate.Store(99.0)

	mgr := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/usage_statistics_monthly/self" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprintf(w, `{"success":true,"data":{"items":[],"total":0,"page":1,"page_size":10,`+
			`"summary":{"total_requests":100,"successful_requests":50,"success_rate":%v,"total_quota":0}}}`, rate.Load())
	})

	ctx := context.Background()
	q := models.Query{Page: 1, PageSize: 10}

	if _, err := mgr.LoadStatistics(ctx, models.Monthly, q); err != nil {
		t.Fatalf("LoadStatistics() error = %v", err)
	}
	rate.Store(50.0)
	if _, err := mgr.LoadStatistics(ctx, models.Monthly, q); err != nil {
		t.Fatalf("LoadStatistics() error = %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("notifications = %v, want one low success rate alert", *sent)
	}

	// staying in the poor band does not repeat the alert
	if _, err := mgr.LoadStatistics(ctx, models.Monthly, q); err != nil {
		t.Fatalf("LoadStatistics() error = %v", err)
	}
	if len(*sent) != 1 {
		t.Errorf("notifications = %v, want no repeat", *sent)
	}
}

func TestManager_LoadStatistics_FilterChangeIsNotADrop(t *testing.T) {
	sent := stubNotify(t)
	mgr := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		rate := 99.0
		if r.URL.Query().Get("model_name") == "broken" {
			rate = 10.0
		}
		fmt.Fprintf(w, `{"success":true,"data":{"items":[],"total":0,"page":1,"page_size":10,`+
			`"summary":{"total_requests":100,"successful_requests":10,"success_rate":%v,"total_quota":0}}}`, rate)
	})

	ctx := context.Background()
	all := models.Query{Page: 1, PageSize: 10}
	narrowed := models.Query{Page: 1, PageSize: 10, ModelName: "broken"}

	for _, q := range []models.Query{all, narrowed, narrowed.WithPage(2)} {
		if _, err := mgr.LoadStatistics(ctx, models.Monthly, q); err != nil {
			t.Fatalf("LoadStatistics() error = %v", err)
		}
	}
	if len(*sent) != 0 {
		t.Errorf("notifications = %v, want none when only the filters changed", *sent)
	}

	// switching granularity starts a new baseline too
	if _, err := mgr.LoadStatistics(ctx, models.Monthly, all); err != nil {
		t.Fatalf("LoadStatistics() error = %v", err)
	}
	if _, err := mgr.LoadStatistics(ctx, models.Daily, narrowed); err != nil {
		t.Fatalf("LoadStatistics() error = %v", err)
	}
	if len(*sent) != 0 {
		t.Errorf("notifications = %v, want none across granularities", *sent)
	}
}

func TestManager_LoadStatistics_Failure(t *testing.T) {
	sent := stubNotify(t)
	mgr := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"message":"permission denied"}`)
	})

	_, err := mgr.LoadStatistics(context.Background(), models.Monthly, models.Query{Page: 1})
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "permission denied" {
		t.Fatalf("LoadStatistics() error = %v", err)
	}
	if len(*sent) != 1 {
		t.Errorf("notifications = %v, want one", *sent)
	}

	cfg := *mgr.Config()
	cfg.DesktopNotifications = false
	mgr.ApplyConfig(&cfg)
	_, _ = mgr.LoadStatistics(context.Background(), models.Monthly, models.Query{Page: 1})
	if len(*sent) != 1 {
		t.Errorf("notifications should be disabled, got %v", *sent)
	}
}

func TestManager_ApplyConfig(t *testing.T) {
	var gotAuth atomic.Value
	mgr := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"success":true,"data":{"items":[],"total":0,"page":1,"page_size":10}}`)
	})

	origDB := mgr.Config().DatabasePath
	next := *mgr.Config()
	next.AccessToken = "rotated"
	next.Role = config.RoleAdmin
	next.DatabasePath = "/elsewhere.db"
	mgr.ApplyConfig(&next)
	mgr.ApplyConfig(nil)

	if mgr.Config().DatabasePath != origDB {
		t.Error("DatabasePath should not change on reload")
	}
	if mgr.Scope(context.Background()) != api.ScopeAll {
		t.Error("role change should reset the scope")
	}
	if _, err := mgr.LoadStatistics(context.Background(), models.Monthly, models.Query{Page: 1}); err != nil {
		t.Fatalf("LoadStatistics() error = %v", err)
	}
	if gotAuth.Load() != "Bearer rotated" {
		t.Errorf("Authorization = %v, want rotated token", gotAuth.Load())
	}
}

func TestManager_EnvReload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "ONEAPI_BASE_URL=" + srv.URL + "\nONEAPI_ACCESS_TOKEN=one\nDATABASE_PATH=" + filepath.Join(dir, "test.db") + "\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ONEAPI_BASE_URL", "")
	t.Setenv("ONEAPI_ACCESS_TOKEN", "")
	t.Setenv("DATABASE_PATH", "")

	cfg, err := config.LoadFrom(envPath)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer mgr.Close()

	ch, _ := mgr.Subscribe()

	updated := strings.Replace(content, "ONEAPI_ACCESS_TOKEN=one", "ONEAPI_ACCESS_TOKEN=two", 1)
	if err := os.WriteFile(envPath, []byte(updated), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case e := <-ch:
		ev, ok := e.(ConfigReloadedEvent)
		if !ok {
			t.Fatalf("event = %#v, want ConfigReloadedEvent", e)
		}
		if ev.Config.AccessToken != "two" {
			t.Errorf("AccessToken = %q, want two", ev.Config.AccessToken)
		}
		if mgr.Client().Credentials().AccessToken != "two" {
			t.Error("client credentials were not swapped")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestManager_Preferences(t *testing.T) {
	mgr := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {})

	prefs := mgr.LoadPreferences()
	if prefs.PageSize != 10 || prefs.Compact {
		t.Errorf("unexpected defaults: %+v", prefs)
	}

	prefs.Compact = true
	prefs.PageSize = 50
	if err := mgr.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences() error = %v", err)
	}
	if got := mgr.LoadPreferences(); !got.Compact || got.PageSize != 50 {
		t.Errorf("LoadPreferences() = %+v", got)
	}
}

func TestManager_Tokens(t *testing.T) {
	mgr := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":{"items":[{"id":4,"name":"ci"}]}}`)
	})
	list := mgr.Tokens(context.Background())
	if len(list.Tokens) != 1 || list.Tokens[0].ID != 4 {
		t.Errorf("Tokens() = %+v", list)
	}
}

func TestManager_Close(t *testing.T) {
	mgr := newTestManager(t, func(w http.ResponseWriter, r *http.Request) {})
	if err := mgr.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestServiceEvent_Interface(t *testing.T) {
	var _ ServiceEvent = ConfigReloadedEvent{}
	var _ ServiceEvent = ErrorEvent{}

	ConfigReloadedEvent{}.isServiceEvent()
	ErrorEvent{}.isServiceEvent()
}

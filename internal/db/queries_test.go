package db

import (
	"testing"
	"time"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

func TestPreference_SetGetDelete(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if _, ok, err := db.GetPreference("missing"); err != nil || ok {
		t.Errorf("GetPreference(missing) = %v, %v", ok, err)
	}

	if err := db.SetPreference("page_size", "20"); err != nil {
		t.Fatalf("SetPreference() error = %v", err)
	}
	if err := db.SetPreference("page_size", "50"); err != nil {
		t.Fatalf("SetPreference() overwrite error = %v", err)
	}

	value, ok, err := db.GetPreference("page_size")
	if err != nil || !ok || value != "50" {
		t.Errorf("GetPreference() = %q, %v, %v, want 50", value, ok, err)
	}

	if err := db.DeletePreference("page_size"); err != nil {
		t.Fatalf("DeletePreference() error = %v", err)
	}
	if _, ok, _ := db.GetPreference("page_size"); ok {
		t.Error("preference should be deleted")
	}
}

func TestLoadPreferences_Defaults(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	defaults := models.DefaultPreferences(20)
	prefs, err := db.LoadPreferences(defaults)
	if err != nil {
		t.Fatalf("LoadPreferences() error = %v", err)
	}
	if prefs.PageSize != 20 || prefs.Compact || prefs.Granularity != models.Monthly || prefs.Filter != nil {
		t.Errorf("unexpected defaults: %+v", prefs)
	}
}

func TestSavePreferences_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	saved := models.Preferences{
		PageSize:    50,
		Compact:     true,
		Granularity: models.Daily,
		Filter: &models.Query{
			StartDate: "2024-03-01",
			EndDate:   "2024-03-07",
			TokenID:   9,
			ModelName: "gpt-4o",
		},
	}
	if err := db.SavePreferences(saved); err != nil {
		t.Fatalf("SavePreferences() error = %v", err)
	}

	prefs, err := db.LoadPreferences(models.DefaultPreferences(10))
	if err != nil {
		t.Fatalf("LoadPreferences() error = %v", err)
	}
	if prefs.PageSize != 50 || !prefs.Compact || prefs.Granularity != models.Daily {
		t.Errorf("unexpected preferences: %+v", prefs)
	}
	if prefs.Filter == nil || *prefs.Filter != *saved.Filter {
		t.Errorf("Filter = %+v, want %+v", prefs.Filter, saved.Filter)
	}

	saved.Filter = nil
	if err := db.SavePreferences(saved); err != nil {
		t.Fatalf("SavePreferences() clear error = %v", err)
	}
	prefs, _ = db.LoadPreferences(models.DefaultPreferences(10))
	if prefs.Filter != nil {
		t.Errorf("Filter should be cleared, got %+v", prefs.Filter)
	}
}

func TestLoadPreferences_IgnoresMalformed(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	_ = db.SetPreference(prefPageSize, "lots")
	_ = db.SetPreference(prefCompact, "maybe")
	_ = db.SetPreference(prefFilter, "{not json")
	_ = db.SetPreference("unknown", "x")

	prefs, err := db.LoadPreferences(models.DefaultPreferences(10))
	if err != nil {
		t.Fatalf("LoadPreferences() error = %v", err)
	}
	if prefs.PageSize != 10 || prefs.Compact || prefs.Filter != nil {
		t.Errorf("malformed values should be ignored: %+v", prefs)
	}
}

func TestTokenCache(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	tokens, cachedAt, err := db.GetCachedTokens("https://a.example")
	if err != nil || len(tokens) != 0 || !cachedAt.IsZero() {
		t.Fatalf("empty cache = %v, %v, %v", tokens, cachedAt, err)
	}

	first := []models.TokenOption{{ID: 3, Name: "zeta"}, {ID: 1, Name: "alpha"}}
	if err := db.SaveTokens("https://a.example", first); err != nil {
		t.Fatalf("SaveTokens() error = %v", err)
	}
	if err := db.SaveTokens("https://b.example", []models.TokenOption{{ID: 7, Name: "other"}}); err != nil {
		t.Fatalf("SaveTokens() error = %v", err)
	}

	before := time.Now().Add(-time.Minute)
	tokens, cachedAt, err = db.GetCachedTokens("https://a.example")
	if err != nil {
		t.Fatalf("GetCachedTokens() error = %v", err)
	}
	if len(tokens) != 2 || tokens[0].ID != 3 || tokens[1].Name != "alpha" {
		t.Errorf("tokens = %+v, want server order", tokens)
	}
	if cachedAt.Before(before) {
		t.Errorf("cachedAt = %v, want recent", cachedAt)
	}

	if err := db.SaveTokens("https://a.example", []models.TokenOption{{ID: 5, Name: "new"}}); err != nil {
		t.Fatalf("SaveTokens() replace error = %v", err)
	}
	tokens, _, _ = db.GetCachedTokens("https://a.example")
	if len(tokens) != 1 || tokens[0].ID != 5 {
		t.Errorf("tokens after replace = %+v", tokens)
	}

	other, _, _ := db.GetCachedTokens("https://b.example")
	if len(other) != 1 || other[0].ID != 7 {
		t.Errorf("other gateway cache = %+v", other)
	}
}

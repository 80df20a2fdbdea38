package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

// filterRecord is the stored form of the last submitted search.
type filterRecord struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	ModelName string `json:"model_name"`
	TokenID   int    `json:"token_id"`
}

// SetPreference stores a single preference value.
func (db *DB) SetPreference(key, value string) error {
	query := `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(context.Background(), query, key, value, time.Now().Format(sqlTimeFormat)); err != nil {
		return fmt.Errorf("failed to set preference %s: %w", key, err)
	}
	return nil
}

// GetPreference returns a preference value and whether it was set.
func (db *DB) GetPreference(key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(context.Background(), "SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get preference %s: %w", key, err)
	}
	return value, true, nil
}

// DeletePreference removes a preference.
func (db *DB) DeletePreference(key string) error {
	if _, err := db.ExecContext(context.Background(), "DELETE FROM preferences WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete preference %s: %w", key, err)
	}
	return nil
}

// LoadPreferences reads stored preferences on top of defaults. Malformed values are ignored.
func (db *DB) LoadPreferences(defaults models.Preferences) (models.Preferences, error) {
	prefs := defaults

	rows, err := db.QueryContext(context.Background(), "SELECT key, value FROM preferences")
	if err != nil {
		return prefs, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return defaults, fmt.Errorf("failed to scan preference: %w", err)
		}
		applyPreference(&prefs, key, value)
	}

	if err := rows.Err(); err != nil {
		return defaults, fmt.Errorf("failed to iterate preferences: %w", err)
	}

	return prefs, nil
}

func applyPreference(prefs *models.Preferences, key, value string) {
	switch key {
	case prefPageSize:
		if n, err := strconv.Atoi(value); err == nil {
			prefs.PageSize = models.NormalizePageSize(n)
		}
	case prefCompact:
		if b, err := strconv.ParseBool(value); err == nil {
			prefs.Compact = b
		}
	case prefGranularity:
		prefs.Granularity = models.ParseGranularity(value)
	case prefFilter:
		var rec filterRecord
		if err := json.Unmarshal([]byte(value), &rec); err != nil {
			logger.Warn("ignoring malformed stored filter", "error", err)
			return
		}
		prefs.Filter = &models.Query{
			StartDate: rec.StartDate,
			EndDate:   rec.EndDate,
			TokenID:   rec.TokenID,
			ModelName: rec.ModelName,
		}
	}
}

// SavePreferences writes all preferences in one transaction.
func (db *DB) SavePreferences(prefs models.Preferences) error {
	values := map[string]string{
		prefPageSize:    strconv.Itoa(models.NormalizePageSize(prefs.PageSize)),
		prefCompact:     strconv.FormatBool(prefs.Compact),
		prefGranularity: prefs.Granularity.String(),
	}

	if prefs.Filter != nil {
		data, err := json.Marshal(filterRecord{
			StartDate: prefs.Filter.StartDate,
			EndDate:   prefs.Filter.EndDate,
			TokenID:   prefs.Filter.TokenID,
			ModelName: prefs.Filter.ModelName,
		})
		if err != nil {
			return fmt.Errorf("failed to encode filter: %w", err)
		}
		values[prefFilter] = string(data)
	}

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Format(sqlTimeFormat)
	stmt := `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	for key, value := range values {
		if _, err := tx.ExecContext(context.Background(), stmt, key, value, now); err != nil {
			return fmt.Errorf("failed to save preference %s: %w", key, err)
		}
	}

	if prefs.Filter == nil {
		if _, err := tx.ExecContext(context.Background(), "DELETE FROM preferences WHERE key = ?", prefFilter); err != nil {
			return fmt.Errorf("failed to clear filter: %w", err)
		}
	}

	return tx.Commit()
}

// SaveTokens replaces the cached token list for a gateway.
func (db *DB) SaveTokens(baseURL string, tokens []models.TokenOption) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(context.Background(), "DELETE FROM token_cache WHERE base_url = ?", baseURL); err != nil {
		return fmt.Errorf("failed to clear token cache: %w", err)
	}

	now := time.Now().Format(sqlTimeFormat)
	for i, tok := range tokens {
		_, err := tx.ExecContext(context.Background(), `
			INSERT OR REPLACE INTO token_cache (base_url, token_id, name, position, cached_at)
			VALUES (?, ?, ?, ?, ?)
		`, baseURL, tok.ID, tok.Name, i, now)
		if err != nil {
			return fmt.Errorf("failed to cache token %d: %w", tok.ID, err)
		}
	}

	return tx.Commit()
}

// GetCachedTokens returns the cached token list for a gateway in server order,
// along with the time it was cached. A zero time means nothing is cached.
func (db *DB) GetCachedTokens(baseURL string) ([]models.TokenOption, time.Time, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT token_id, name, cached_at FROM token_cache
		WHERE base_url = ?
		ORDER BY position
	`, baseURL)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query token cache: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tokens []models.TokenOption
	var cachedAt time.Time
	for rows.Next() {
		var tok models.TokenOption
		var ts string
		if err := rows.Scan(&tok.ID, &tok.Name, &ts); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan cached token: %w", err)
		}
		if t, err := time.ParseInLocation(sqlTimeFormat, ts, time.Local); err == nil && cachedAt.IsZero() {
			cachedAt = t
		}
		tokens = append(tokens, tok)
	}

	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to iterate token cache: %w", err)
	}

	return tokens, cachedAt, nil
}

package api

import (
	"context"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

// Scope selects between the caller's own statistics and the site-wide ones.
type Scope int

const (
	// ScopeSelf lists only the caller's statistics.
	ScopeSelf Scope = iota
	// ScopeAll lists statistics of every user and requires the admin role.
	ScopeAll
)

// String returns the string representation of the scope.
func (s Scope) String() string {
	if s == ScopeAll {
		return "all users"
	}
	return "self"
}

const (
	monthlyStatisticsPath = "/api/usage_statistics_monthly/"
	dailyStatisticsPath   = "/api/usage_statistics/"
)

// StatisticsPath returns the endpoint for a scope and granularity.
func StatisticsPath(scope Scope, g models.Granularity) string {
	base := monthlyStatisticsPath
	if g == models.Daily {
		base = dailyStatisticsPath
	}
	if scope == ScopeAll {
		return base
	}
	return base + "self"
}

// ListStatistics fetches one page of usage statistics.
func (c *Client) ListStatistics(ctx context.Context, scope Scope, g models.Granularity, q models.Query) (*models.Page, error) {
	var page models.Page
	if err := c.get(ctx, StatisticsPath(scope, g), q.Values(), &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []models.UsageRecord{}
	}
	return &page, nil
}

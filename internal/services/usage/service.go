// Package usage loads usage statistics and token lists for the dashboard.
package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/usage-dashboard-tui/internal/api"
	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

const (
	// trendPageSize and trendMaxPages bound how many rows the trends view aggregates.
	trendPageSize = models.MaxPageSize
	trendMaxPages = 10
	topModelCount = 8
)

// Gateway is the subset of the API client the service depends on.
type Gateway interface {
	ListStatistics(ctx context.Context, scope api.Scope, g models.Granularity, q models.Query) (*models.Page, error)
	ListTokens(ctx context.Context) ([]models.TokenOption, error)
	GetSelf(ctx context.Context) (*api.User, error)
	Credentials() api.Credentials
}

// TokenStore caches the token list between runs.
type TokenStore interface {
	SaveTokens(baseURL string, tokens []models.TokenOption) error
	GetCachedTokens(baseURL string) ([]models.TokenOption, time.Time, error)
}

// TokenList is the token filter options and where they came from.
type TokenList struct {
	Tokens []models.TokenOption
	// CachedAt is set when the list came from the local cache.
	CachedAt time.Time
}

// FromCache reports whether the list was served from the local cache.
func (l TokenList) FromCache() bool {
	return !l.CachedAt.IsZero()
}

// Service fetches statistics with a resolved scope.
type Service struct {
	gateway Gateway
	store   TokenStore
	role    config.Role

	mu       sync.Mutex
	scope    api.Scope
	resolved bool
	user     *api.User
}

// New creates a usage service. store may be nil.
func New(gateway Gateway, store TokenStore, role config.Role) *Service {
	return &Service{
		gateway: gateway,
		store:   store,
		role:    role,
	}
}

// SetRole changes the role override and forces the scope to be resolved again.
func (s *Service) SetRole(role config.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = role
	s.resolved = false
	s.user = nil
}

// Scope returns the statistics scope, resolving it on first use.
// A configured role wins; otherwise the gateway is asked and failures fall back to self.
func (s *Service) Scope(ctx context.Context) api.Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolved {
		return s.scope
	}

	switch s.role {
	case config.RoleAdmin:
		s.scope = api.ScopeAll
	case config.RoleUser:
		s.scope = api.ScopeSelf
	default:
		user, err := s.gateway.GetSelf(ctx)
		if err != nil {
			logger.Warn("role detection failed, using self scope", "error", err)
			s.scope = api.ScopeSelf
		} else {
			s.user = user
			s.scope = user.Scope()
			logger.Info("detected gateway role", "role", user.Role, "scope", s.scope.String())
		}
	}

	s.resolved = true
	return s.scope
}

// User returns the user fetched during role detection, if any.
func (s *Service) User() *api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Load fetches one page of statistics.
func (s *Service) Load(ctx context.Context, g models.Granularity, q models.Query) (*models.Page, error) {
	scope := s.Scope(ctx)
	page, err := s.gateway.ListStatistics(ctx, scope, g, q)
	if err != nil {
		return nil, err
	}
	logger.Debug("statistics loaded",
		"granularity", g.String(), "scope", scope.String(), "page", page.Page, "total", page.Total)
	return page, nil
}

// Tokens returns the token list. The list is cached on success; on failure the cached
// list is returned instead and the error is only logged.
func (s *Service) Tokens(ctx context.Context) TokenList {
	baseURL := s.gateway.Credentials().BaseURL

	tokens, err := s.gateway.ListTokens(ctx)
	if err == nil {
		if s.store != nil {
			if saveErr := s.store.SaveTokens(baseURL, tokens); saveErr != nil {
				logger.Warn("failed to cache token list", "error", saveErr)
			}
		}
		return TokenList{Tokens: tokens}
	}

	logger.Debug("token list unavailable", "error", err)

	if s.store == nil {
		return TokenList{Tokens: []models.TokenOption{}}
	}

	cached, cachedAt, cacheErr := s.store.GetCachedTokens(baseURL)
	if cacheErr != nil {
		logger.Warn("failed to read token cache", "error", cacheErr)
		return TokenList{Tokens: []models.TokenOption{}}
	}
	if cached == nil {
		cached = []models.TokenOption{}
	}
	return TokenList{Tokens: cached, CachedAt: cachedAt}
}

// Trend walks the filtered statistics in large pages and aggregates them per period.
func (s *Service) Trend(ctx context.Context, g models.Granularity, q models.Query) (*models.Trend, error) {
	scope := s.Scope(ctx)

	q.PageSize = trendPageSize
	var records []models.UsageRecord
	var total int64

	for p := 1; p <= trendMaxPages; p++ {
		page, err := s.gateway.ListStatistics(ctx, scope, g, q.WithPage(p))
		if err != nil {
			return nil, fmt.Errorf("trend page %d: %w", p, err)
		}
		total = page.Total
		records = append(records, page.Items...)
		if len(page.Items) < trendPageSize || int64(len(records)) >= total {
			break
		}
	}

	return &models.Trend{
		Granularity: g,
		Points:      models.AggregateTrend(g, records),
		TopModels:   models.TopModels(records, topModelCount),
		Rows:        len(records),
		Total:       total,
		Truncated:   int64(len(records)) < total,
	}, nil
}

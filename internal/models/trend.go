package models

import (
	"sort"
)

// TrendPoint is the usage of one period across all tokens and models.
type TrendPoint struct {
	Period             string
	TotalRequests      int64
	SuccessfulRequests int64
	TotalTokens        int64
	TotalQuota         int64
}

// SuccessRate returns the percentage of successful requests in the period.
func (p TrendPoint) SuccessRate() float64 {
	return successRate(p.SuccessfulRequests, p.TotalRequests)
}

// ModelShare is the usage of one model across the whole range.
type ModelShare struct {
	ModelName     string
	TotalRequests int64
	TotalQuota    int64
}

// Trend is the aggregated view rendered by the trends tab.
type Trend struct {
	Granularity Granularity
	Points      []TrendPoint
	TopModels   []ModelShare
	// Rows is the number of records aggregated; Total is what the server reported.
	Rows      int
	Total     int64
	Truncated bool
}

// HasData reports whether the trend has at least one point.
func (t *Trend) HasData() bool {
	return t != nil && len(t.Points) > 0
}

// Quotas returns the per-period quota series.
func (t *Trend) Quotas() []float64 {
	out := make([]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = float64(p.TotalQuota)
	}
	return out
}

// Requests returns the per-period request series.
func (t *Trend) Requests() []float64 {
	out := make([]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = float64(p.TotalRequests)
	}
	return out
}

// AggregateTrend sums records per period, ordered by period ascending.
func AggregateTrend(g Granularity, records []UsageRecord) []TrendPoint {
	byPeriod := make(map[string]*TrendPoint)
	for _, r := range records {
		period := r.Period(g)
		p, ok := byPeriod[period]
		if !ok {
			p = &TrendPoint{Period: period}
			byPeriod[period] = p
		}
		p.TotalRequests += r.TotalRequests
		p.SuccessfulRequests += r.SuccessfulRequests
		p.TotalTokens += r.TotalTokens
		p.TotalQuota += r.TotalQuota
	}

	points := make([]TrendPoint, 0, len(byPeriod))
	for _, p := range byPeriod {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Period < points[j].Period
	})
	return points
}

// TopModels ranks models by quota, then requests, keeping at most n entries.
func TopModels(records []UsageRecord, n int) []ModelShare {
	byModel := make(map[string]*ModelShare)
	for _, r := range records {
		s, ok := byModel[r.ModelName]
		if !ok {
			s = &ModelShare{ModelName: r.ModelName}
			byModel[r.ModelName] = s
		}
		s.TotalRequests += r.TotalRequests
		s.TotalQuota += r.TotalQuota
	}

	shares := make([]ModelShare, 0, len(byModel))
	for _, s := range byModel {
		shares = append(shares, *s)
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].TotalQuota != shares[j].TotalQuota {
			return shares[i].TotalQuota > shares[j].TotalQuota
		}
		if shares[i].TotalRequests != shares[j].TotalRequests {
			return shares[i].TotalRequests > shares[j].TotalRequests
		}
		return shares[i].ModelName < shares[j].ModelName
	})
	if n > 0 && len(shares) > n {
		shares = shares[:n]
	}
	return shares
}

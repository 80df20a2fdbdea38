// Package models defines the data structures exchanged with the gateway and shown in the TUI.
package models

import (
	"math"
	"time"
)

// UsageRecord is one aggregated usage-statistics row as returned by the gateway.
// Rows are grouped by period, token and model.
type UsageRecord struct {
	ID                 int    `json:"id"`
	Date               string `json:"date"`
	TokenID            int    `json:"token_id"`
	TokenName          string `json:"token_name"`
	ModelName          string `json:"model_name"`
	TotalRequests      int64  `json:"total_requests"`
	SuccessfulRequests int64  `json:"successful_requests"`
	FailedRequests     int64  `json:"failed_requests"`
	TotalTokens        int64  `json:"total_tokens"`
	PromptTokens       int64  `json:"prompt_tokens"`
	CompletionTokens   int64  `json:"completion_tokens"`
	TotalQuota         int64  `json:"total_quota"`
	CreatedTime        int64  `json:"created_time,omitempty"`
	UpdatedTime        int64  `json:"updated_time"`
}

// Period returns the date truncated to the granularity's period ("YYYY-MM" or "YYYY-MM-DD").
func (r UsageRecord) Period(g Granularity) string {
	n := g.PeriodLen()
	if len(r.Date) <= n {
		return r.Date
	}
	return r.Date[:n]
}

// SuccessRate returns the percentage of successful requests, 0 when there were none.
func (r UsageRecord) SuccessRate() float64 {
	return successRate(r.SuccessfulRequests, r.TotalRequests)
}

// Updated returns the last update time of the row.
func (r UsageRecord) Updated() time.Time {
	if r.UpdatedTime <= 0 {
		return time.Time{}
	}
	return time.Unix(r.UpdatedTime, 0)
}

// Summary aggregates the whole filtered result set, not just the current page.
type Summary struct {
	TotalRequests      int64   `json:"total_requests"`
	SuccessfulRequests int64   `json:"successful_requests"`
	FailedRequests     int64   `json:"failed_requests"`
	SuccessRate        float64 `json:"success_rate"`
	TotalTokens        int64   `json:"total_tokens"`
	TotalQuota         int64   `json:"total_quota"`
}

// Page is one page of statistics plus the summary for the same filters.
type Page struct {
	Items    []UsageRecord `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Summary  *Summary      `json:"summary"`
}

// IsEmpty reports whether the server has no rows for the filters.
func (p *Page) IsEmpty() bool {
	return p == nil || p.Total == 0
}

// Range returns the 1-based index of the first and last row on the page.
func (p *Page) Range() (start, end int64) {
	if p == nil || len(p.Items) == 0 {
		return 0, 0
	}
	page := max(p.Page, 1)
	start = int64(page-1)*int64(p.PageSize) + 1
	end = start + int64(len(p.Items)) - 1
	return start, end
}

// TotalPages returns the number of pages for the current page size.
func (p *Page) TotalPages() int {
	if p == nil || p.PageSize <= 0 || p.Total <= 0 {
		return 1
	}
	return int((p.Total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// TokenOption is an entry of the token filter dropdown.
type TokenOption struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RateBand classifies a success rate for colouring.
type RateBand int

const (
	// RatePoor is below 80%.
	RatePoor RateBand = iota
	// RateFair is at least 80% and below 95%.
	RateFair
	// RateGood is 95% and above.
	RateGood
)

// String returns the string representation of the band.
func (b RateBand) String() string {
	switch b {
	case RateGood:
		return "good"
	case RateFair:
		return "fair"
	default:
		return "poor"
	}
}

// RateBandFor maps a success rate to its band. The rate is rounded to one
// decimal first so the band always agrees with the displayed value.
func RateBandFor(rate float64) RateBand {
	rounded := RoundRate(rate)
	switch {
	case rounded >= 95:
		return RateGood
	case rounded >= 80:
		return RateFair
	default:
		return RatePoor
	}
}

// RoundRate rounds a percentage to one decimal.
func RoundRate(rate float64) float64 {
	return math.Round(rate*10) / 10
}

func successRate(successful, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(successful) / float64(total) * 100
}

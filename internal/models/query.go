package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Granularity selects the statistics period size.
type Granularity int

const (
	// Monthly groups statistics by calendar month.
	Monthly Granularity = iota
	// Daily groups statistics by day.
	Daily
)

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"

	// DefaultMonthlyLookback is the default number of months before the current one.
	DefaultMonthlyLookback = 6
	// DefaultDailyLookback is the default number of days before today.
	DefaultDailyLookback = 7

	// MaxPageSize is the largest page size the gateway accepts.
	MaxPageSize = 100
	// DefaultPageSize matches the gateway web UI.
	DefaultPageSize = 10
)

// PageSizes are the page sizes offered by the size changer.
var PageSizes = []int{10, 20, 50, 100}

// String returns the string representation of the granularity.
func (g Granularity) String() string {
	if g == Daily {
		return "daily"
	}
	return "monthly"
}

// Label returns a title-cased label for the granularity.
func (g Granularity) Label() string {
	if g == Daily {
		return "Daily"
	}
	return "Monthly"
}

// Next returns the other granularity.
func (g Granularity) Next() Granularity {
	if g == Daily {
		return Monthly
	}
	return Daily
}

// Layout returns the time layout of a period.
func (g Granularity) Layout() string {
	if g == Daily {
		return dayLayout
	}
	return monthLayout
}

// PeriodLen returns the length of a formatted period.
func (g Granularity) PeriodLen() int {
	return len(g.Layout())
}

// ParseGranularity parses "monthly" or "daily"; anything else is monthly.
func ParseGranularity(s string) Granularity {
	if strings.EqualFold(strings.TrimSpace(s), "daily") {
		return Daily
	}
	return Monthly
}

// Query holds the filters and pagination of a statistics request.
type Query struct {
	Page      int
	PageSize  int
	StartDate string
	EndDate   string
	TokenID   int
	ModelName string
}

// DefaultQuery returns page one with the default look-back window for the granularity.
func DefaultQuery(g Granularity, now time.Time, pageSize int) Query {
	start, end := DefaultWindow(g, now)
	return Query{
		Page:      1,
		PageSize:  NormalizePageSize(pageSize),
		StartDate: start,
		EndDate:   end,
	}
}

// DefaultWindow returns the default start and end periods relative to now.
func DefaultWindow(g Granularity, now time.Time) (start, end string) {
	if g == Daily {
		return now.AddDate(0, 0, -DefaultDailyLookback).Format(dayLayout), now.Format(dayLayout)
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, -DefaultMonthlyLookback, 0).Format(monthLayout), now.Format(monthLayout)
}

// NormalizePageSize clamps a page size into the accepted range.
func NormalizePageSize(size int) int {
	if size < 1 || size > MaxPageSize {
		return DefaultPageSize
	}
	return size
}

// NextPageSize returns the size after current in PageSizes, wrapping around.
func NextPageSize(current int) int {
	for i, s := range PageSizes {
		if s == current {
			return PageSizes[(i+1)%len(PageSizes)]
		}
	}
	return PageSizes[0]
}

// PrevPageSize returns the size before current in PageSizes, wrapping around.
func PrevPageSize(current int) int {
	for i, s := range PageSizes {
		if s == current {
			return PageSizes[(i-1+len(PageSizes))%len(PageSizes)]
		}
	}
	return PageSizes[len(PageSizes)-1]
}

// WithPage returns a copy of the query pointing at another page.
func (q Query) WithPage(page int) Query {
	q.Page = max(page, 1)
	return q
}

// HasFilters reports whether any filter beyond pagination is set.
func (q Query) HasFilters() bool {
	return q.StartDate != "" || q.EndDate != "" || q.TokenID > 0 || q.ModelName != ""
}

// Filters returns the query without its pagination, for comparing filter sets.
func (q Query) Filters() Query {
	q.Page, q.PageSize = 0, 0
	return q
}

// Values encodes the query parameters understood by the statistics endpoints.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("p", strconv.Itoa(max(q.Page, 1)))
	v.Set("size", strconv.Itoa(NormalizePageSize(q.PageSize)))
	if q.StartDate != "" {
		v.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("end_date", q.EndDate)
	}
	if q.TokenID > 0 {
		v.Set("token_id", strconv.Itoa(q.TokenID))
	}
	if name := strings.TrimSpace(q.ModelName); name != "" {
		v.Set("model_name", name)
	}
	return v
}

// ParsePeriod validates a period typed into the search form. An empty value is accepted.
func ParsePeriod(g Granularity, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	t, err := time.Parse(g.Layout(), text)
	if err != nil {
		return "", fmt.Errorf("invalid %s period %q, expected %s", g, text, g.Layout())
	}
	return t.Format(g.Layout()), nil
}

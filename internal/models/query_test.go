package models

import (
	"testing"
	"time"
)

func TestGranularity(t *testing.T) {
	if Monthly.String() != "monthly" || Daily.String() != "daily" {
		t.Error("unexpected String()")
	}
	if Monthly.Next() != Daily || Daily.Next() != Monthly {
		t.Error("Next() should toggle")
	}
	if Monthly.PeriodLen() != 7 || Daily.PeriodLen() != 10 {
		t.Error("unexpected PeriodLen()")
	}
	if ParseGranularity(" Daily ") != Daily || ParseGranularity("weekly") != Monthly {
		t.Error("unexpected ParseGranularity()")
	}
}

func TestDefaultWindow(t *testing.T) {
	tests := []struct {
		name      string
		g         Granularity
		now       time.Time
		wantStart string
		wantEnd   string
	}{
		{"Monthly", Monthly, time.Date(2024, 9, 15, 12, 0, 0, 0, time.Local), "2024-03", "2024-09"},
		{"MonthlyYearWrap", Monthly, time.Date(2024, 2, 29, 0, 0, 0, 0, time.Local), "2023-08", "2024-02"},
		{"MonthlyEndOfMonth", Monthly, time.Date(2024, 8, 31, 23, 0, 0, 0, time.Local), "2024-02", "2024-08"},
		{"Daily", Daily, time.Date(2024, 3, 3, 8, 0, 0, 0, time.Local), "2024-02-25", "2024-03-03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := DefaultWindow(tt.g, tt.now)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("DefaultWindow() = %s..%s, want %s..%s", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestDefaultQuery(t *testing.T) {
	q := DefaultQuery(Monthly, time.Date(2024, 9, 1, 0, 0, 0, 0, time.Local), 500)
	if q.Page != 1 {
		t.Errorf("Page = %d, want 1", q.Page)
	}
	if q.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want %d", q.PageSize, DefaultPageSize)
	}
	if q.TokenID != 0 || q.ModelName != "" {
		t.Error("default query should have no token or model filter")
	}
}

func TestNormalizePageSize(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 10}, {-5, 10}, {1, 1}, {20, 20}, {100, 100}, {101, 10},
	}
	for _, tt := range tests {
		if got := NormalizePageSize(tt.in); got != tt.want {
			t.Errorf("NormalizePageSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPageSizeCycling(t *testing.T) {
	if got := NextPageSize(10); got != 20 {
		t.Errorf("NextPageSize(10) = %d, want 20", got)
	}
	if got := NextPageSize(100); got != 10 {
		t.Errorf("NextPageSize(100) = %d, want 10", got)
	}
	if got := NextPageSize(33); got != 10 {
		t.Errorf("NextPageSize(33) = %d, want 10", got)
	}
	if got := PrevPageSize(10); got != 100 {
		t.Errorf("PrevPageSize(10) = %d, want 100", got)
	}
	if got := PrevPageSize(50); got != 20 {
		t.Errorf("PrevPageSize(50) = %d, want 20", got)
	}
}

func TestQuery_Values(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{
			name: "PaginationOnly",
			q:    Query{Page: 2, PageSize: 20},
			want: "p=2&size=20",
		},
		{
			name: "AllFilters",
			q: Query{Page: 1, PageSize: 10, StartDate: "2024-01", EndDate: "2024-06",
				TokenID: 7, ModelName: " gpt-4o "},
			want: "end_date=2024-06&model_name=gpt-4o&p=1&size=10&start_date=2024-01&token_id=7",
		},
		{
			name: "ClampsPagination",
			q:    Query{Page: 0, PageSize: 1000},
			want: "p=1&size=10",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Values().Encode(); got != tt.want {
				t.Errorf("Values() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuery_WithPage(t *testing.T) {
	q := Query{Page: 3, TokenID: 4}
	if got := q.WithPage(0); got.Page != 1 || got.TokenID != 4 {
		t.Errorf("WithPage(0) = %+v", got)
	}
	if q.Page != 3 {
		t.Error("WithPage should not mutate the receiver")
	}
	if !q.HasFilters() || (Query{Page: 2}).HasFilters() {
		t.Error("unexpected HasFilters()")
	}
	a := Query{Page: 1, PageSize: 10, ModelName: "gpt-4o"}
	b := Query{Page: 3, PageSize: 50, ModelName: "gpt-4o"}
	if a.Filters() != b.Filters() {
		t.Error("Filters() should ignore pagination")
	}
	if b.ModelName = "claude"; a.Filters() == b.Filters() {
		t.Error("Filters() should compare the model name")
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name    string
		g       Granularity
		in      string
		want    string
		wantErr bool
	}{
		{"EmptyMonthly", Monthly, "", "", false},
		{"Month", Monthly, " 2024-03 ", "2024-03", false},
		{"MonthWithDay", Monthly, "2024-03-01", "", true},
		{"BadMonth", Monthly, "2024-13", "", true},
		{"Day", Daily, "2024-02-29", "2024-02-29", false},
		{"BadDay", Daily, "2023-02-29", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeriod(tt.g, tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePeriod() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePeriod() = %q, want %q", got, tt.want)
			}
		})
	}
}

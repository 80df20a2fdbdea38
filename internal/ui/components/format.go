package components

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// TimestampLayout is how update times are shown, in local time.
const TimestampLayout = "2006-01-02 15:04:05"

// QuotaDisplay renders gateway quota units the way the gateway web UI does.
type QuotaDisplay struct {
	// PerUnit is how many quota units make one currency unit.
	PerUnit    float64
	InCurrency bool
}

// Render formats a quota amount. In currency mode a positive amount that would
// round to $0.00 is shown as $0.01 so usage never looks free.
func (d QuotaDisplay) Render(quota int64) string {
	if !d.InCurrency || d.PerUnit <= 0 {
		return AbbreviateNumber(float64(quota))
	}

	amount := float64(quota) / d.PerUnit
	text := fmt.Sprintf("%.2f", amount)
	if quota > 0 && text == "0.00" {
		text = "0.01"
	}
	return "$" + text
}

// AbbreviateNumber shortens large numbers with k/M/B suffixes. A mantissa
// that rounds up to 1000 moves to the next suffix.
func AbbreviateNumber(n float64) string {
	abs := math.Abs(n)
	if abs < 1e4 {
		return fmt.Sprintf("%.0f", n)
	}

	units := []struct {
		div    float64
		suffix string
	}{{1e3, "k"}, {1e6, "M"}, {1e9, "B"}}

	i := 0
	for i < len(units)-1 && abs >= units[i+1].div {
		i++
	}
	for i < len(units)-1 && math.Abs(math.Round(n/units[i].div*10)/10) >= 1000 {
		i++
	}
	return trimZero(fmt.Sprintf("%.1f", n/units[i].div)) + units[i].suffix
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatRate renders a success rate with one decimal.
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", models.RoundRate(rate))
}

// RateBadge renders a success rate coloured by its band.
func RateBadge(rate float64) string {
	return styles.GetRateStyle(rate).Render(FormatRate(rate))
}

// FormatTimestamp renders a local timestamp, or "-" for the zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(TimestampLayout)
}

// FormatSince renders how long ago something happened, e.g. "3 minutes ago".
func FormatSince(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// Truncate shortens s to width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

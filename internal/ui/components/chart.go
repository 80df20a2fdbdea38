// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)

	// asciigraph needs two points to draw a line.
	if len(data) == 1 {
		data = []float64{data[0], data[0]}
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Blue),
	)
}

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value float64
	// Text is shown after the bar; the raw value is used when empty.
	Text string
}

// RenderBarChart creates a horizontal bar chart scaled to the largest value.
func RenderBarChart(bars []Bar, width int) string {
	if len(bars) == 0 {
		return ""
	}

	maxVal := 0.0
	labelWidth := 0
	for _, b := range bars {
		maxVal = max(maxVal, b.Value)
		labelWidth = max(labelWidth, len([]rune(b.Label)))
	}
	if maxVal == 0 {
		maxVal = 1
	}
	labelWidth = min(labelWidth, 28)

	barWidth := max(width-labelWidth-14, 10)

	lines := make([]string, 0, len(bars))
	for _, b := range bars {
		label := fmt.Sprintf("%-*s", labelWidth, Truncate(b.Label, labelWidth))
		barLen := max(int(b.Value/maxVal*float64(barWidth)), 0)
		if b.Value > 0 && barLen == 0 {
			barLen = 1
		}

		text := b.Text
		if text == "" {
			text = AbbreviateNumber(b.Value)
		}

		lines = append(lines, label+" │"+styles.BarStyle.Render(strings.Repeat("█", barLen))+" "+text)
	}
	return strings.Join(lines, "\n")
}

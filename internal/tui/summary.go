package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"vid2audio/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
	// Color overrides the value color when set.
	Color lipgloss.TerminalColor
}

// SummaryRows describes a finished batch.
func SummaryRows(s processor.Summary, elapsed time.Duration) []SummaryRow {
	var failedColor lipgloss.TerminalColor
	if s.Failed > 0 {
		failedColor = ColorError
	}
	return []SummaryRow{
		{Label: "Files considered", Value: fmt.Sprintf("%d", s.Total)},
		{Label: "Converted", Value: fmt.Sprintf("%d", s.Succeeded), Color: ColorSuccess},
		{Label: "Skipped (output exists)", Value: fmt.Sprintf("%d", s.Skipped), Color: ColorWarn},
		{Label: "Failed", Value: fmt.Sprintf("%d", s.Failed), Color: failedColor},
		{Label: "Audio written", Value: humanize.Bytes(uint64(s.OutputBytes))},
		{Label: "Elapsed", Value: elapsed.Round(time.Millisecond).String()},
	}
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if w := lipgloss.Width(row.Label); w > labelWidth {
			labelWidth = w
		}
		if w := lipgloss.Width(row.Value); w > valueWidth {
			valueWidth = w
		}
	}

	hline := dimStyle.Render(strings.Repeat("-", labelWidth+valueWidth+3))
	lines := []string{hline}

	for _, row := range rows {
		style := valueStyle
		if row.Color != nil {
			style = style.Foreground(row.Color)
		}
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		line := fmt.Sprintf("%s | %s", labelStyle.Render(label), style.Render(value))
		lines = append(lines, line)
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
)

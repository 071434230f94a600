package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	warnUsedPercent = 70
	critUsedPercent = 90
)

// RenderUsageGauge produces a text gauge that fills left to right as usage
// climbs (0=empty, 100=full). Colors shift green → yellow → red.
func RenderUsageGauge(usedPercent float64, width int) string {
	if width < 5 {
		width = 5
	}
	if usedPercent < 0 {
		return dimStyle.Render(strings.Repeat("─", width) + " N/A")
	}
	clamped := usedPercent
	if clamped > 100 {
		clamped = 100
	}

	filled := int(clamped / 100 * float64(width))
	empty := width - filled

	var color lipgloss.Color
	switch {
	case clamped >= critUsedPercent:
		color = colorRed
	case clamped >= warnUsedPercent:
		color = colorYellow
	default:
		color = colorGreen
	}

	filledStyle := lipgloss.NewStyle().Foreground(color)
	trackStyle := lipgloss.NewStyle().Foreground(colorSurface1)

	bar := filledStyle.Render(strings.Repeat("━", filled)) +
		trackStyle.Render(strings.Repeat("━", empty))

	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	return fmt.Sprintf("%s %s", bar, pctStyle.Render(fmt.Sprintf("%5.1f%%", usedPercent)))
}

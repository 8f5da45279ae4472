package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"splitrelay/internal/layout"
)

const (
	minNameWidth = 12
	columnWidth  = 10
)

// renderFrame draws one frame of the timer window. width is the terminal
// width; zero means unknown.
func renderFrame(state layout.RenderableState, width int) string {
	var b strings.Builder

	title := state.Title
	if state.Attempts > 0 {
		title = fmt.Sprintf("%s  %s", title, subtleStyle.Render(fmt.Sprintf("#%d", state.Attempts)))
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteByte('\n')

	nameWidth := minNameWidth
	for _, row := range state.Rows {
		nameWidth = max(nameWidth, lipgloss.Width(row.Name)+1)
	}
	if width > 0 {
		columns := 1
		if state.Settings.ShowDelta {
			columns++
		}
		if state.Settings.ShowComparison {
			columns++
		}
		if state.Settings.ShowBestSegment {
			columns++
		}
		// 4 = panel border plus padding.
		if limit := width - 4 - columns*columnWidth; limit >= minNameWidth && nameWidth > limit {
			nameWidth = limit
		}
	}

	if state.FirstRow > 0 {
		b.WriteString(subtleStyle.Render(fmt.Sprintf("  ↑ %d more", state.FirstRow)))
		b.WriteByte('\n')
	}
	for _, row := range state.Rows {
		b.WriteString(renderRow(row, state.Settings, nameWidth))
		b.WriteByte('\n')
	}
	if remaining := state.TotalSplits - state.FirstRow - len(state.Rows); remaining > 0 {
		b.WriteString(subtleStyle.Render(fmt.Sprintf("  ↓ %d more", remaining)))
		b.WriteByte('\n')
	}

	timerStyle, ok := timerStyles[state.Phase]
	if !ok {
		timerStyle = defaultStyle.Bold(true)
	}
	b.WriteByte('\n')
	b.WriteString(lipgloss.PlaceHorizontal(nameWidth+columnWidth*2, lipgloss.Right, timerStyle.Render(state.Timer)))
	b.WriteByte('\n')

	footer := fmt.Sprintf("%s · %s", state.Comparison, state.TimingMethod)
	b.WriteString(subtleStyle.Render(footer))

	return panelStyle.Render(b.String())
}

func renderRow(row layout.Row, settings layout.Settings, nameWidth int) string {
	name := truncate(row.Name, nameWidth-1)
	cells := []string{lipgloss.NewStyle().Width(nameWidth).Render(name)}

	if settings.ShowDelta {
		delta := row.Delta
		switch row.DeltaSign {
		case -1:
			delta = aheadStyle.Render(delta)
		case 1:
			delta = behindStyle.Render(delta)
		}
		cells = append(cells, lipgloss.NewStyle().Width(columnWidth).Align(lipgloss.Right).Render(delta))
	}
	if settings.ShowBestSegment {
		cells = append(cells, lipgloss.NewStyle().Width(columnWidth).Align(lipgloss.Right).Render(row.BestSegment))
	}
	value := row.Split
	// Splits not reached yet show the comparison time instead of "-".
	if value == "-" && settings.ShowComparison {
		value = row.Comparison
	}
	cells = append(cells, lipgloss.NewStyle().Width(columnWidth).Align(lipgloss.Right).Render(value))

	line := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	if row.Current {
		return currentStyle.Render(line)
	}
	return line
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}

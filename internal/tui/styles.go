package tui

import (
	"github.com/charmbracelet/lipgloss"

	"splitrelay/internal/timer"
)

var (
	gold     = lipgloss.Color("#FFD700")
	green    = lipgloss.Color("#00CC66")
	red      = lipgloss.Color("#E0474C")
	blue     = lipgloss.Color("#3B82F6")
	darkGrey = lipgloss.Color("#333333")
	dimGrey  = lipgloss.Color("242")

	defaultStyle = lipgloss.NewStyle()

	panelStyle = defaultStyle.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1)

	titleStyle   = defaultStyle.Bold(true).Foreground(gold)
	subtleStyle  = defaultStyle.Foreground(dimGrey)
	currentStyle = defaultStyle.Background(darkGrey).Bold(true)
	aheadStyle   = defaultStyle.Foreground(green)
	behindStyle  = defaultStyle.Foreground(red)

	timerStyles = map[timer.Phase]lipgloss.Style{
		timer.NotRunning: defaultStyle.Bold(true),
		timer.Running:    defaultStyle.Bold(true).Foreground(green),
		timer.Paused:     defaultStyle.Bold(true).Foreground(dimGrey),
		timer.Ended:      defaultStyle.Bold(true).Foreground(gold),
	}

	statusStyle = defaultStyle.Foreground(red)
	promptStyle = defaultStyle.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(gold).
			Padding(0, 1)
)

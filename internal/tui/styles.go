package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7C6FE0")
	colorActive  = lipgloss.Color("#3BB8A8")
	colorMuted   = lipgloss.Color("#6B6F80")
	colorSuccess = lipgloss.Color("#5BC06E")
	colorError   = lipgloss.Color("#E0605A")
	colorText    = lipgloss.Color("#CDD3EA")
	colorBorder  = lipgloss.Color("#3E4458")
	colorAccent  = lipgloss.Color("#86A8F0")
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Underline(true).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)

	// Panels holding a running session or an open form.
	focusPanelStyle = panelStyle.BorderForeground(colorActive)

	// Idle shows the configured length, muted.
	countdownIdleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorMuted).
				Align(lipgloss.Center)

	countdownRunningStyle = countdownIdleStyle.Foreground(colorActive)

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	okStyle     = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	accentStyle = lipgloss.NewStyle().Foreground(colorAccent)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = mutedStyle.Padding(0, 1)

	// Tree rows.
	cursorStyle        = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	activeProjectStyle = lipgloss.NewStyle().Foreground(colorActive)
	rowStyle           = lipgloss.NewStyle().Foreground(colorText)
)

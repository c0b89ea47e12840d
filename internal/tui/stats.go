package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/hourtree/internal/stats"
)

type statsModel struct {
	sh     *shared
	width  int
	height int

	days   []stats.Day // newest first
	offset int         // weeks back from the current logical day (0 = this week)

	chart barchart.Model
}

func newStatsModel(sh *shared) statsModel {
	return statsModel{
		sh:    sh,
		chart: barchart.New(60, 12),
	}
}

func (m *statsModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.buildChart()
}

// load fetches the seven logical days ending offset weeks before today.
func (m *statsModel) load() error {
	days, err := stats.LastWeek(m.sh.store, m.weekEnd(), m.sh.cfg.DayOffset)
	if err != nil {
		return err
	}
	m.days = days
	m.buildChart()
	return nil
}

func (m statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionRecordedMsg:
		if err := m.load(); err != nil {
			return m, errCmd(err)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			m.offset++
		case key.Matches(msg, keys.Right):
			if m.offset == 0 {
				return m, nil
			}
			m.offset--
		default:
			return m, nil
		}
		if err := m.load(); err != nil {
			return m, errCmd(err)
		}
	}
	return m, nil
}

func (m *statsModel) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if m.height > 30 {
		chartHeight = 16
	}

	m.chart = barchart.New(chartWidth, chartHeight)

	barStyle := lipgloss.NewStyle().Foreground(colorPrimary)
	todayStyle := lipgloss.NewStyle().Foreground(colorActive)

	// Oldest on the left.
	var bars []barchart.BarData
	for i := len(m.days) - 1; i >= 0; i-- {
		d := m.days[i]
		style := barStyle
		if i == 0 && m.offset == 0 {
			style = todayStyle
		}
		bars = append(bars, barchart.BarData{
			Label:  d.Label(),
			Values: []barchart.BarValue{{Name: d.Label(), Value: d.Hours, Style: style}},
		})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m statsModel) view() string {
	w := m.width - 4

	header := titleStyle.Render("Stats")
	if len(m.days) > 0 {
		from := m.days[len(m.days)-1].Date
		to := m.days[0].Date
		dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.Format("Jan 02, 2006")))
		header = lipgloss.JoinHorizontal(lipgloss.Bottom, header, "  ", dateLabel)
	}

	nav := mutedStyle.Render("  ←/→: previous/next week")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", m.chart.View(), "", m.renderTable(w), "", nav,
		),
	)
}

func (m statsModel) renderTable(w int) string {
	if stats.Total(m.days) == 0 {
		return mutedStyle.Render("  No sessions recorded in this week")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-14s %8s", "Day", "Hours")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 23))))
	for _, d := range m.days {
		rows = append(rows, fmt.Sprintf("  %-14s %8s", d.Date.Format("Mon Jan 02"), formatHours(d.Hours)))
	}
	total := stats.Total(m.days)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 23))))
	rows = append(rows, titleStyle.Render(fmt.Sprintf("  %-14s %8s", "Total", formatHours(total))))
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-14s %8s", "Daily average", formatHours(total/float64(len(m.days))))))
	return strings.Join(rows, "\n")
}

// weekEnd is the instant the stats window is computed from.
func (m statsModel) weekEnd() time.Time {
	return m.sh.now().AddDate(0, 0, -7*m.offset)
}

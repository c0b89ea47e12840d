package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/hourtree/internal/tasks"
)

// timerModel shows the countdown together with the active project's progress
// and its tasks.
type timerModel struct {
	sh     *shared
	width  int
	height int

	todayHours float64
	tasks      *tasks.List
}

func newTimerModel(sh *shared) (timerModel, error) {
	l, err := tasks.New(sh.store, sh.tree.Active())
	if err != nil {
		return timerModel{}, err
	}
	t := timerModel{sh: sh, tasks: l}
	if err := t.load(); err != nil {
		return timerModel{}, err
	}
	return t, nil
}

func (t *timerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

// load re-reads today's hours and makes the task list follow the active project.
func (t *timerModel) load() error {
	hours, err := t.sh.today()
	if err != nil {
		return err
	}
	t.todayHours = hours

	if sameID(t.sh.tree.Active(), t.tasks.ProjectID()) {
		return t.tasks.Fetch()
	}
	return t.tasks.SwitchProject(t.sh.tree.Active())
}

func (t timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	switch msg.(type) {
	case sessionRecordedMsg:
		if err := t.load(); err != nil {
			return t, errCmd(err)
		}
		return t, nil
	}
	return t, nil
}

// toggle starts or cancels the session. It works from every view.
func (t timerModel) toggle() tea.Cmd {
	t.sh.rec.Toggle()
	if t.sh.rec.Running() {
		return statusCmd("Session started for "+t.sh.activeLabel(), false)
	}
	return statusCmd("Session cancelled", false)
}

func (t timerModel) cancel() tea.Cmd {
	if !t.sh.rec.Running() {
		return nil
	}
	t.sh.rec.Cancel()
	return statusCmd("Session cancelled", false)
}

func (t timerModel) view() string {
	w := t.width - 4
	rec := t.sh.rec

	var countdown, state string
	if rec.Running() {
		countdown = countdownRunningStyle.Width(w - 6).Render(rec.Countdown())
		state = okStyle.Bold(true).Render("FOCUS")
	} else {
		countdown = countdownIdleStyle.Width(w - 6).Render(formatMinutes(rec.Length()))
		state = mutedStyle.Render("Ready to start")
	}

	project := mutedStyle.Render("No active project. Sessions are recorded unattributed.")
	if p := t.sh.tree.ActiveProject(); p != nil {
		project = accentStyle.Render(t.sh.tree.Path(p.ID)) + "  " + renderProgress(p.TotalHours, p.TargetHours)
	}

	today := fmt.Sprintf("Today: %s", okStyle.Render(formatHours(t.todayHours)))

	controls := mutedStyle.Render("space: start/cancel  x: cancel")
	if !rec.Running() {
		controls = mutedStyle.Render("space: start  2: pick project")
	}

	top := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Session"),
		"",
		countdown,
		state,
		"",
		project,
		today,
		"",
		controls,
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Width(w).Render(top),
		t.renderTasks(w),
	)
}

func (t timerModel) renderTasks(w int) string {
	if t.sh.tree.Active() == nil {
		return ""
	}
	title := titleStyle.Render("Tasks")
	items := t.tasks.All()
	if len(items) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No tasks. Add some from the project list with t."),
		))
	}

	rows := []string{title, ""}
	for _, task := range items {
		rows = append(rows, rowStyle.Render("  • "+truncate(task.Name, w-8)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// renderProgress shows hours against the goal, or just the hours without one.
func renderProgress(hours float64, target *float64) string {
	if target == nil || *target <= 0 {
		return mutedStyle.Render(formatHours(hours))
	}
	const width = 20
	ratio := hours / *target
	filled := int(ratio * width)
	if filled > width {
		filled = width
	}
	bar := okStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
	label := fmt.Sprintf(" %s / %s", formatHours(hours), formatHours(*target))
	if ratio >= 1 {
		return bar + okStyle.Render(label)
	}
	return bar + mutedStyle.Render(label)
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}


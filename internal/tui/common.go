package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/hourtree/internal/config"
	"github.com/sadopc/hourtree/internal/projects"
	"github.com/sadopc/hourtree/internal/session"
	"github.com/sadopc/hourtree/internal/stats"
	"github.com/sadopc/hourtree/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewProjects
	viewStats
	viewSettings
)

var viewNames = []string{"Timer", "Projects", "Stats", "Settings"}

// shared is the state every view reads. Pointers survive the value copies
// bubbletea makes of the models.
type shared struct {
	store   *store.Store
	tree    *projects.Projects
	rec     *session.Recorder
	cfg     *config.Config
	cfgPath string
	now     func() time.Time
}

// today returns the hours recorded in the current logical day.
func (sh *shared) today() (float64, error) {
	now := sh.now()
	return sh.store.GetWorkHoursForDay(stats.LogicalDate(now, sh.cfg.DayOffset), sh.cfg.DayOffset)
}

func (sh *shared) activeLabel() string {
	if id := sh.tree.Active(); id != nil {
		return sh.tree.Path(*id)
	}
	return "no project"
}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// settingsSavedMsg tells the views that the day offset or length may have changed.
type settingsSavedMsg struct{}

// sessionRecordedMsg is sent to the views after a countdown was written.
type sessionRecordedMsg struct{}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

func errCmd(err error) tea.Cmd {
	return statusCmd("Error: "+err.Error(), true)
}

// --- Helpers ---

// formatMinutes renders a countdown length as MM:SS.
func formatMinutes(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

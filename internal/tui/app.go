package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/hourtree/internal/config"
	"github.com/sadopc/hourtree/internal/export"
	"github.com/sadopc/hourtree/internal/logging"
	"github.com/sadopc/hourtree/internal/projects"
	"github.com/sadopc/hourtree/internal/session"
	"github.com/sadopc/hourtree/internal/store"
)

// Deps is what the TUI runs on. Now defaults to time.Now.
type Deps struct {
	Store      *store.Store
	Config     *config.Config
	ConfigPath string
	Now        func() time.Time
}

type exportFormat struct {
	name  string
	ext   string
	write func([]store.WorkSession, map[int64]string, string) error
}

var exportFormats = []exportFormat{
	{"CSV", "csv", export.ToCSV},
	{"JSON", "json", export.ToJSON},
	{"Excel", "xlsx", export.ToXLSX},
}

// App is the root Bubble Tea model.
type App struct {
	sh     *shared
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	timer    timerModel
	projects projectsModel
	stats    statsModel
	settings settingsModel

	help        help.Model
	status      string
	statusError bool
}

// NewApp loads the project tree and builds the views. It fails when the initial
// snapshot cannot be read.
func NewApp(d Deps) (App, error) {
	now := d.Now
	if now == nil {
		now = time.Now
	}

	tree, err := projects.New(d.Store)
	if err != nil {
		return App{}, fmt.Errorf("load project tree: %w", err)
	}
	sh := &shared{
		store:   d.Store,
		tree:    tree,
		rec:     session.New(d.Store, tree, d.Config.SessionDuration(), session.WithClock(now)),
		cfg:     d.Config,
		cfgPath: d.ConfigPath,
		now:     now,
	}

	timer, err := newTimerModel(sh)
	if err != nil {
		return App{}, err
	}
	projectsView, err := newProjectsModel(sh)
	if err != nil {
		return App{}, err
	}
	statsView := newStatsModel(sh)
	if err := statsView.load(); err != nil {
		return App{}, err
	}

	h := help.New()
	h.ShowAll = false

	return App{
		sh:         sh,
		activeView: viewTimer,
		timer:      timer,
		projects:   projectsView,
		stats:      statsView,
		settings:   newSettingsModel(sh),
		help:       h,
	}, nil
}

func (a App) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timer.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Toggle):
			return a, a.timer.toggle()
		case key.Matches(msg, keys.Cancel):
			return a, a.timer.cancel()
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewTimer)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewProjects)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewStats)
		case key.Matches(msg, keys.Tab4):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		return a, tea.Batch(tickCmd(), a.tick())

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case sessionRecordedMsg, settingsSavedMsg:
		return a.broadcast(msg)

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// tick polls the recorder. A completed session is announced to every view.
func (a App) tick() tea.Cmd {
	length := a.sh.rec.Length()
	label := a.sh.activeLabel()

	recorded, err := a.sh.rec.Tick()
	if err != nil {
		logging.Logger().Error("tick failed", "recorded", recorded, "error", err)
	}
	switch {
	case recorded:
		text := fmt.Sprintf("Recorded %s for %s", formatMinutes(length), label)
		if err != nil {
			text += " (refresh failed: " + err.Error() + ")"
		}
		return tea.Batch(
			statusCmd(text, err != nil),
			func() tea.Msg { return sessionRecordedMsg{} },
		)
	case err != nil:
		return statusCmd("Error: "+err.Error()+" (will retry)", true)
	}
	return nil
}

// broadcast forwards a message to every view, not only the visible one.
func (a App) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	a.timer, cmd = a.timer.update(msg)
	cmds = append(cmds, cmd)
	a.projects, cmd = a.projects.update(msg)
	cmds = append(cmds, cmd)

	if _, ok := msg.(settingsSavedMsg); ok {
		// The day offset may have moved every bucket.
		if err := a.stats.load(); err != nil {
			cmds = append(cmds, errCmd(err))
		}
		if err := a.timer.load(); err != nil {
			cmds = append(cmds, errCmd(err))
		}
	} else {
		a.stats, cmd = a.stats.update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	var err error
	switch v {
	case viewTimer:
		err = a.timer.load()
	case viewProjects:
		err = a.projects.reload()
	case viewStats:
		err = a.stats.load()
	}
	if err != nil {
		return a, errCmd(err)
	}
	return a, nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewProjects:
		return a.projects.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.timer.view()
	case viewProjects:
		content = a.projects.view()
	case viewStats:
		content = a.stats.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("hourtree")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Countdown indicator in footer
	timerInfo := ""
	if a.sh.rec.Running() {
		timerInfo = okStyle.Render(" ● " + a.sh.rec.Countdown())
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := rowStyle
		if i == a.exportCursor {
			cursor = "> "
			style = cursorStyle
		}
		rows = append(rows, style.Render(cursor+f.name))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return focusPanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		home, err := os.UserHomeDir()
		if err != nil {
			return a, statusCmd("Export error: "+err.Error(), true)
		}
		return a, a.doExport(exportFormats[a.exportCursor], home)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes every recorded session to dir as hourtree-export-DATE.ext.
func (a App) doExport(f exportFormat, dir string) tea.Cmd {
	s := a.sh.store
	date := a.sh.now().Format("2006-01-02")
	return func() tea.Msg {
		sessions, err := s.ListWorkSessions(nil, nil)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		all, err := s.ListProjects(true)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		path := filepath.Join(dir, fmt.Sprintf("hourtree-export-%s.%s", date, f.ext))
		if err := f.write(sessions, export.ProjectPaths(all), path); err != nil {
			return statusMsg{text: fmt.Sprintf("%s error: %v", f.name, err), isError: true}
		}
		logging.Logger().Info("exported sessions", "path", path, "count", len(sessions))
		return exportDoneMsg{path: path}
	}
}

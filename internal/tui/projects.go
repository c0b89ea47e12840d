package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/hourtree/internal/projects"
	"github.com/sadopc/hourtree/internal/store"
	"github.com/sadopc/hourtree/internal/tasks"
)

type projectsModel struct {
	sh     *shared
	width  int
	height int

	cursor       int
	viewingTasks bool // true = viewing tasks of the project under the cursor
	tasks        *tasks.List
	taskCursor   int

	formActive bool
	form       *huh.Form
	formType   string // "new_project", "edit_project", "archive", "task", "edit_task"

	// Form field pointers (survive value copies)
	formName    *string
	formTarget  *string
	formParent  *int64 // 0 = top level
	formConfirm *bool

	editingTaskID int64
}

func newProjectsModel(sh *shared) (projectsModel, error) {
	l, err := tasks.New(sh.store, nil)
	if err != nil {
		return projectsModel{}, err
	}
	name, target, parent, confirm := "", "", int64(0), false
	return projectsModel{
		sh:          sh,
		tasks:       l,
		formName:    &name,
		formTarget:  &target,
		formParent:  &parent,
		formConfirm: &confirm,
	}, nil
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p projectsModel) listing() []projects.Entry {
	return p.sh.tree.TreeListing()
}

// selected is the project under the cursor, or nil for an empty tree.
func (p projectsModel) selected() *store.Project {
	l := p.listing()
	if p.cursor < 0 || p.cursor >= len(l) {
		return nil
	}
	return l[p.cursor].Project
}

func (p *projectsModel) clampCursor() {
	n := len(p.listing())
	if p.cursor >= n {
		p.cursor = max(0, n-1)
	}
	if p.taskCursor >= len(p.tasks.All()) {
		p.taskCursor = max(0, len(p.tasks.All())-1)
	}
}

func (p *projectsModel) moveCursorTo(id int64) {
	for i, e := range p.listing() {
		if e.Project.ID == id {
			p.cursor = i
			return
		}
	}
}

// reload refetches the tree, for example after a session was recorded.
func (p *projectsModel) reload() error {
	if err := p.sh.tree.Refresh(); err != nil {
		return err
	}
	p.clampCursor()
	return nil
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case sessionRecordedMsg:
		p.clampCursor()
		return p, nil

	case tea.KeyMsg:
		if p.viewingTasks {
			return p.updateTaskView(msg)
		}
		return p.updateProjectList(msg)
	}
	return p, nil
}

func (p projectsModel) updateProjectList(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	tree := p.sh.tree
	sel := p.selected()

	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.listing())-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Select):
		if sel != nil && tree.SetActive(&sel.ID) {
			return p, statusCmd("Active: "+tree.Path(sel.ID), false)
		}
	case key.Matches(msg, keys.Clear):
		tree.SetActive(nil)
		return p, statusCmd("No active project", false)
	case key.Matches(msg, keys.New):
		return p.addProject(nil)
	case key.Matches(msg, keys.AddChild):
		if sel != nil {
			return p.addProject(&sel.ID)
		}
	case key.Matches(msg, keys.Edit):
		if sel != nil {
			tree.BeginEdit(&sel.ID)
			return p.showProjectForm("edit_project")
		}
	case key.Matches(msg, keys.Delete):
		if sel != nil {
			tree.BeginEdit(&sel.ID)
			return p.showArchiveForm()
		}
	case key.Matches(msg, keys.Tasks):
		if sel != nil {
			if err := p.tasks.SwitchProject(&sel.ID); err != nil {
				return p, errCmd(err)
			}
			p.viewingTasks = true
			p.taskCursor = 0
		}
	}
	return p, nil
}

func (p projectsModel) addProject(parent *int64) (projectsModel, tea.Cmd) {
	id, err := p.sh.tree.Add(parent)
	if err != nil {
		return p, errCmd(err)
	}
	p.moveCursorTo(id)
	return p.showProjectForm("new_project")
}

func (p projectsModel) updateTaskView(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	items := p.tasks.All()

	switch {
	case key.Matches(msg, keys.Back):
		p.viewingTasks = false
		return p, nil
	case key.Matches(msg, keys.Up):
		if p.taskCursor > 0 {
			p.taskCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.taskCursor < len(items)-1 {
			p.taskCursor++
		}
	case key.Matches(msg, keys.New):
		*p.formName = ""
		return p.showTaskForm("task")
	case key.Matches(msg, keys.Edit):
		if len(items) > 0 {
			task := items[p.taskCursor]
			*p.formName = task.Name
			p.editingTaskID = task.ID
			return p.showTaskForm("edit_task")
		}
	case key.Matches(msg, keys.Delete):
		if len(items) > 0 {
			if err := p.tasks.Delete(items[p.taskCursor].ID); err != nil {
				return p, errCmd(err)
			}
			p.clampCursor()
			return p, statusCmd("Task deleted", false)
		}
	}
	return p, nil
}

func (p projectsModel) showProjectForm(formType string) (projectsModel, tea.Cmd) {
	edit := p.sh.tree.Editing()
	if edit == nil {
		return p, nil
	}
	*p.formName = edit.Name
	*p.formTarget = ""
	if edit.TargetHours != nil {
		*p.formTarget = strconv.FormatFloat(*edit.TargetHours, 'f', -1, 64)
	}
	*p.formParent = 0
	if edit.Parent != nil {
		*p.formParent = *edit.Parent
	}
	p.formType = formType

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(p.formName),
			huh.NewInput().Title("Target (hours)").
				Description("Leave empty for no goal").
				Validate(validateHours).
				Value(p.formTarget),
			huh.NewSelect[int64]().Title("Parent").
				Options(p.parentOptions(edit.ID)...).
				Value(p.formParent),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

// parentOptions lists every place the project can move to: the top level or any
// listed project outside its own subtree.
func (p projectsModel) parentOptions(id int64) []huh.Option[int64] {
	own := map[int64]bool{}
	for _, e := range p.sh.tree.Subtree(id) {
		own[e.Project.ID] = true
	}
	opts := []huh.Option[int64]{huh.NewOption("(top level)", int64(0))}
	for _, e := range p.listing() {
		if own[e.Project.ID] {
			continue
		}
		label := strings.Repeat("  ", e.Depth) + projects.DisplayName(e.Project)
		opts = append(opts, huh.NewOption(label, e.Project.ID))
	}
	return opts
}

func (p projectsModel) showArchiveForm() (projectsModel, tea.Cmd) {
	edit := p.sh.tree.Editing()
	if edit == nil {
		return p, nil
	}
	*p.formConfirm = false
	p.formType = "archive"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Archive %s and everything under it?", p.sh.tree.Path(edit.ID))).
				Description("Projects with no recorded time are deleted instead.").
				Affirmative("Archive").
				Negative("Keep").
				Value(p.formConfirm),
		),
	).WithShowHelp(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showTaskForm(formType string) (projectsModel, tea.Cmd) {
	p.formType = formType
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task Name").Value(p.formName),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.closeForm(true)
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.closeForm(false)
		return p.submit(p.formType)
	}

	return p, cmd
}

// closeForm hides the form. A cancelled form also drops the project edit buffer.
func (p *projectsModel) closeForm(cancelled bool) {
	p.formActive = false
	p.form = nil
	if cancelled {
		p.sh.tree.BeginEdit(nil)
	}
}

func (p projectsModel) submit(formType string) (projectsModel, tea.Cmd) {
	tree := p.sh.tree

	switch formType {
	case "new_project", "edit_project":
		if tree.Editing() == nil {
			return p, nil
		}
		tree.SetEditName(strings.TrimSpace(*p.formName))
		tree.SetEditTargetHours(*p.formTarget)
		if *p.formParent == 0 {
			tree.SetEditParent(nil)
		} else {
			tree.SetEditParent(p.formParent)
		}
		id := tree.Editing().ID
		err := tree.CommitEdit()
		if errors.Is(err, store.ErrInvalidParent) {
			tree.BeginEdit(nil)
			return p, statusCmd("Cannot move a project under itself", true)
		}
		if err != nil {
			return p, errCmd(err)
		}
		p.moveCursorTo(id)
		return p, statusCmd("Saved "+tree.Path(id), false)

	case "archive":
		if !*p.formConfirm {
			tree.BeginEdit(nil)
			return p, nil
		}
		err := tree.ArchiveEdit()
		p.clampCursor()
		if err != nil {
			return p, errCmd(err)
		}
		return p, statusCmd("Project archived", false)

	case "task":
		if strings.TrimSpace(*p.formName) == "" {
			return p, nil
		}
		if _, err := p.tasks.Add(strings.TrimSpace(*p.formName)); err != nil {
			return p, errCmd(err)
		}
		p.taskCursor = len(p.tasks.All()) - 1

	case "edit_task":
		if strings.TrimSpace(*p.formName) == "" {
			return p, nil
		}
		if err := p.tasks.Edit(p.editingTaskID, strings.TrimSpace(*p.formName)); err != nil {
			return p, errCmd(err)
		}
	}
	return p, nil
}

func validateHours(s string) error {
	if _, err := projects.ParseTargetHours(s); err != nil {
		return errors.New("enter a number of hours, or leave empty")
	}
	return nil
}

func (p projectsModel) view() string {
	if p.formActive && p.form != nil {
		var title string
		switch p.formType {
		case "new_project":
			title = titleStyle.Render("New Project")
		case "edit_project":
			title = titleStyle.Render("Edit Project")
		case "archive":
			title = titleStyle.Render("Archive Project")
		case "task":
			title = titleStyle.Render("New Task")
		case "edit_task":
			title = titleStyle.Render("Rename Task")
		}
		formView := p.form.View()
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", formView)
		return panelStyle.Width(p.width - 4).Render(content)
	}

	if p.viewingTasks {
		return p.renderTaskView()
	}
	return p.renderProjectList()
}

func (p projectsModel) renderProjectList() string {
	w := p.width - 4
	title := titleStyle.Render("Projects")
	listing := p.listing()

	if len(listing) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	active := p.sh.tree.Active()
	nameWidth := max(16, w-36)

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-*s %10s %10s", nameWidth, "Name", "Total", "Target")))

	for i, e := range listing {
		cursor := "  "
		style := rowStyle
		if i == p.cursor {
			cursor = "> "
			style = cursorStyle
		}
		marker := "  "
		if active != nil && *active == e.Project.ID {
			marker = activeProjectStyle.Render("● ")
			if i != p.cursor {
				style = activeProjectStyle
			}
		}

		name := truncate(strings.Repeat("  ", e.Depth)+projects.DisplayName(e.Project), nameWidth)
		target := "-"
		if e.Project.TargetHours != nil {
			target = formatHours(*e.Project.TargetHours)
		}
		row := style.Render(fmt.Sprintf("%s%-*s %10s %10s", cursor, nameWidth, name, formatHours(e.Project.TotalHours), target))
		rows = append(rows, marker+row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: set active  c: clear  n: new  a: add child  e: edit  d: archive  t: tasks"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p projectsModel) renderTaskView() string {
	w := p.width - 4
	label := "Tasks"
	if id := p.tasks.ProjectID(); id != nil {
		label = p.sh.tree.Path(*id) + ": Tasks"
	}
	title := titleStyle.Render(label)
	items := p.tasks.All()

	if len(items) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, task := range items {
		cursor := "  "
		style := rowStyle
		if i == p.taskCursor {
			cursor = "> "
			style = cursorStyle
		}
		rows = append(rows, style.Render(cursor+truncate(task.Name, w-8)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new task  e: rename  d: delete  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

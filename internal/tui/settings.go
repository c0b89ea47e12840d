package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/hourtree/internal/config"
)

type settingsModel struct {
	sh     *shared
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	sessionLength *string
	dayOffset     *int
}

func newSettingsModel(sh *shared) settingsModel {
	length, offset := "", 0
	return settingsModel{
		sh:            sh,
		sessionLength: &length,
		dayOffset:     &offset,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.sessionLength = strconv.FormatFloat(s.sh.cfg.SessionLength, 'f', -1, 64)
	*s.dayOffset = s.sh.cfg.DayOffset

	hours := make([]huh.Option[int], 24)
	for h := range hours {
		hours[h] = huh.NewOption(fmt.Sprintf("%02d:00", h), h)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Session length (min)").
				Validate(func(v string) error {
					return config.Default().SetSessionLength(v)
				}).
				Value(s.sessionLength),
			huh.NewSelect[int]().Title("Day starts at").
				Description("Work before this hour counts toward the previous day").
				Options(hours...).
				Value(s.dayOffset),
		).Title("Timer"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.save(); err != nil {
			return s, errCmd(err)
		}
		return s, tea.Batch(statusCmd("Settings saved", false), func() tea.Msg { return settingsSavedMsg{} })
	}

	return s, cmd
}

// save writes the form values to the config file and applies them. The file is
// re-read without environment overrides so those are never persisted.
func (s settingsModel) save() error {
	onDisk, err := config.LoadFile(s.sh.cfgPath)
	if err != nil {
		return err
	}
	if err := onDisk.SetSessionLength(*s.sessionLength); err != nil {
		return err
	}
	if err := onDisk.SetDayOffset(strconv.Itoa(*s.dayOffset)); err != nil {
		return err
	}
	if err := config.Save(s.sh.cfgPath, onDisk); err != nil {
		return err
	}

	s.sh.cfg.SessionLength = onDisk.SessionLength
	s.sh.cfg.DayOffset = onDisk.DayOffset
	s.sh.rec.SetLength(s.sh.cfg.SessionDuration())
	return nil
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	cfg := s.sh.cfg
	settings := []struct{ label, value string }{
		{"Session length", fmt.Sprintf("%s min", strconv.FormatFloat(cfg.SessionLength, 'f', -1, 64))},
		{"Day starts at", fmt.Sprintf("%02d:00", cfg.DayOffset)},
		{"Database", cfg.Database()},
		{"Config file", s.sh.cfgPath},
		{"Log file", cfg.LogPath()},
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for _, setting := range settings {
		label := lipgloss.NewStyle().Width(18).Render(setting.label)
		rows = append(rows, fmt.Sprintf("  %s %s", label, accentStyle.Render(truncate(setting.value, w-24))))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

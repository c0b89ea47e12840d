// Package cli wires hourtree's cobra commands. Without a subcommand the
// interactive TUI is started when stdout is a terminal.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/hourtree/internal/config"
	"github.com/sadopc/hourtree/internal/logging"
	"github.com/sadopc/hourtree/internal/projects"
	"github.com/sadopc/hourtree/internal/store"
	"github.com/sadopc/hourtree/internal/tui"
)

// Version is set at build time.
var Version = "dev"

type App struct {
	ConfigPath string
	DBPath     string
	JSON       bool
	Verbose    bool

	cfg     *config.Config
	store   *store.Store
	logFile *os.File
	now     func() time.Time
}

// Execute runs the root command against the process arguments.
func Execute() error {
	app := &App{}
	defer app.close()
	return newRootCmd(app).Execute()
}

func newRootCmd(app *App) *cobra.Command {
	if app.now == nil {
		app.now = time.Now
	}

	cmd := &cobra.Command{
		Use:          "hourtree",
		Short:        "Countdown work sessions on a tree of projects",
		Version:      Version,
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  hourtree

  # Scriptable commands
  hourtree projects add "Client work"
  hourtree projects add API --parent 1 --target 40
  hourtree stats --day yesterday
  hourtree export --format xlsx --out week.xlsx --from "7 days ago"
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if isTerminal(cmd.OutOrStdout()) {
				return runTUI(app)
			}
			return runProjectsList(cmd, app, false)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.load(cmd.ErrOrStderr())
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.close()
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Config file (default: "+config.DefaultPath()+")")
	cmd.PersistentFlags().StringVar(&app.DBPath, "db", "", "SQLite database file (overrides db_path)")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print JSON instead of text")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newStatsCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newTimerCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// load reads the configuration and sets up stderr logging for one-shot commands.
func (a *App) load(stderr io.Writer) error {
	if a.ConfigPath == "" {
		a.ConfigPath = config.DefaultPath()
	}
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return err
	}
	if a.DBPath != "" {
		cfg.DBPath = a.DBPath
	}
	a.cfg = cfg

	// Info records would interleave with command output.
	level, _ := logging.ParseLevel(cfg.LogLevel)
	level = max(level, slog.LevelWarn)
	if a.Verbose {
		level = slog.LevelDebug
	}
	logging.Init(logging.Config{Level: level, Output: stderr})
	return nil
}

// open returns the store, opening it on first use.
func (a *App) open() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.New(a.cfg.Database())
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// tree opens the store and loads the project tree.
func (a *App) tree() (*store.Store, *projects.Projects, error) {
	s, err := a.open()
	if err != nil {
		return nil, nil, err
	}
	tree, err := projects.New(s)
	if err != nil {
		return nil, nil, fmt.Errorf("load projects: %w", err)
	}
	return s, tree, nil
}

func (a *App) close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
	return err
}

func runTUI(app *App) error {
	// The terminal belongs to bubbletea from here on, so logs go to a file.
	f, err := logging.OpenFile(app.cfg.LogPath())
	if err != nil {
		return err
	}
	app.logFile = f
	level, _ := logging.ParseLevel(app.cfg.LogLevel)
	if app.Verbose {
		level = slog.LevelDebug
	}
	logging.Init(logging.Config{Level: level, Output: f})

	s, err := app.open()
	if err != nil {
		return err
	}
	m, err := tui.NewApp(tui.Deps{Store: s, Config: app.cfg, ConfigPath: app.ConfigPath})
	if err != nil {
		return err
	}

	logging.Logger().Info("tui started", "db", app.cfg.Database())
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

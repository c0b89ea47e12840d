package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/hourtree/internal/store"
	"github.com/sadopc/hourtree/internal/tasks"
)

type taskOutput struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ProjectID *int64 `json:"project_id"`
}

func newTasksCmd(app *App) *cobra.Command {
	var project int64

	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "Manage to-do tasks of a project (or unattributed tasks)",
	}
	cmd.PersistentFlags().Int64VarP(&project, "project", "p", 0, "Project id (default: unattributed tasks)")

	// list opens the task list for the --project flag.
	list := func() (*tasks.List, error) {
		s, tree, err := app.tree()
		if err != nil {
			return nil, err
		}
		var pid *int64
		if project != 0 {
			if tree.Get(project) == nil {
				return nil, fmt.Errorf("project %d: %w", project, store.ErrNotFound)
			}
			pid = &project
		}
		return tasks.New(s, pid)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := list()
			if err != nil {
				return err
			}
			return printTasks(cmd, app, l)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := list()
			if err != nil {
				return err
			}
			if _, err := l.Add(strings.Join(args, " ")); err != nil {
				return err
			}
			return printTasks(cmd, app, l)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			l, err := list()
			if err != nil {
				return err
			}
			if err := l.Edit(id, strings.Join(args[1:], " ")); err != nil {
				return err
			}
			return printTasks(cmd, app, l)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"done", "delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			l, err := list()
			if err != nil {
				return err
			}
			if err := l.Delete(id); err != nil {
				return err
			}
			return printTasks(cmd, app, l)
		},
	})

	return cmd
}

func printTasks(cmd *cobra.Command, app *App, l *tasks.List) error {
	all := l.All()
	if app.JSON {
		out := make([]taskOutput, 0, len(all))
		for _, t := range all {
			out = append(out, taskOutput{ID: t.ID, Name: t.Name, ProjectID: t.ProjectID})
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	p := newPrinter(cmd.OutOrStdout())
	if len(all) == 0 {
		p.line("%s", p.muted("No tasks"))
		return nil
	}
	for _, t := range all {
		p.line("%s %s", p.muted(fmt.Sprintf("%4d", t.ID)), t.Name)
	}
	return nil
}

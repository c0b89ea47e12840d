package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/hourtree/internal/projects"
	"github.com/sadopc/hourtree/internal/store"
)

type projectOutput struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Path        string   `json:"path,omitempty"`
	Parent      *int64   `json:"parent"`
	Depth       int      `json:"depth"`
	Children    []int64  `json:"children"`
	TotalHours  float64  `json:"total_hours"`
	TargetHours *float64 `json:"target_hours"`
	Archived    bool     `json:"archived"`
}

func newProjectOutput(p *store.Project, depth int, path string) projectOutput {
	return projectOutput{
		ID:          p.ID,
		Name:        p.Name,
		Path:        path,
		Parent:      p.Parent,
		Depth:       depth,
		Children:    p.Children,
		TotalHours:  p.TotalHours,
		TargetHours: p.TargetHours,
		Archived:    p.Archived,
	}
}

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Manage the project tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsList(cmd, app, false)
		},
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsAddCmd(app))
	cmd.AddCommand(newProjectsRenameCmd(app))
	cmd.AddCommand(newProjectsTargetCmd(app))
	cmd.AddCommand(newProjectsMoveCmd(app))
	cmd.AddCommand(newProjectsArchiveCmd(app))
	return cmd
}

func newProjectsListCmd(app *App) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the project tree with recursive totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsList(cmd, app, all)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include archived projects (flat list)")
	return cmd
}

func runProjectsList(cmd *cobra.Command, app *App, all bool) error {
	s, tree, err := app.tree()
	if err != nil {
		return err
	}

	var out []projectOutput
	if all {
		rows, err := s.ListProjects(true)
		if err != nil {
			return err
		}
		for i := range rows {
			out = append(out, newProjectOutput(&rows[i], 0, ""))
		}
	} else {
		for _, e := range tree.TreeListing() {
			out = append(out, newProjectOutput(e.Project, e.Depth, tree.Path(e.Project.ID)))
		}
	}

	if app.JSON {
		if out == nil {
			out = []projectOutput{}
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	p := newPrinter(cmd.OutOrStdout())
	if len(out) == 0 {
		p.line("No projects yet. Add one with: hourtree projects add NAME")
		return nil
	}
	for _, o := range out {
		name := o.Name
		if name == "" {
			name = "(unnamed)"
		}
		line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", o.Depth), name, p.muted(fmt.Sprintf("#%d", o.ID)))
		hours := formatHours(o.TotalHours)
		if o.TargetHours != nil {
			hours += " / " + formatHours(*o.TargetHours)
		}
		line += "  " + p.value(hours)
		if o.Archived {
			line += " " + p.muted("[archived]")
		}
		p.line("%s", line)
	}
	return nil
}

func newProjectsAddCmd(app *App) *cobra.Command {
	var parent int64
	var target string
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tree, err := app.tree()
			if err != nil {
				return err
			}

			if _, err := projects.ParseTargetHours(target); err != nil {
				return err
			}
			var parentID *int64
			if parent != 0 {
				if tree.Get(parent) == nil {
					return fmt.Errorf("parent %d: %w", parent, store.ErrNotFound)
				}
				parentID = &parent
			}

			id, err := tree.Add(parentID)
			if err != nil {
				return err
			}
			tree.SetEditName(strings.TrimSpace(args[0]))
			tree.SetEditTargetHours(target)
			if err := tree.CommitEdit(); err != nil {
				return err
			}
			return reportProject(cmd, app, tree, id, "Added")
		},
	}
	cmd.Flags().Int64Var(&parent, "parent", 0, "Parent project id")
	cmd.Flags().StringVar(&target, "target", "", "Target hours")
	return cmd
}

func newProjectsRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editProject(cmd, app, args[0], "Renamed", func(tree *projects.Projects) error {
				tree.SetEditName(strings.TrimSpace(args[1]))
				return nil
			})
		},
	}
}

func newProjectsTargetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "target ID HOURS",
		Short: "Set or clear (with \"\") a project's target hours",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editProject(cmd, app, args[0], "Updated", func(tree *projects.Projects) error {
				if _, err := projects.ParseTargetHours(args[1]); err != nil {
					return err
				}
				tree.SetEditTargetHours(args[1])
				return nil
			})
		},
	}
}

func newProjectsMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move ID [PARENT]",
		Short: "Move a project under PARENT, or to the top level",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var parent *int64
			if len(args) == 2 {
				pid, err := parseID(args[1])
				if err != nil {
					return err
				}
				parent = &pid
			}
			return editProject(cmd, app, args[0], "Moved", func(tree *projects.Projects) error {
				tree.SetEditParent(parent)
				return nil
			})
		},
	}
}

func newProjectsArchiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "archive ID",
		Short: "Archive a project and its subtree; projects with no history are deleted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, tree, err := app.tree()
			if err != nil {
				return err
			}
			proj := tree.Get(id)
			if proj == nil {
				return fmt.Errorf("project %d: %w", id, store.ErrNotFound)
			}
			name := projects.DisplayName(proj)
			n := len(tree.Subtree(id))

			tree.BeginEdit(&id)
			if err := tree.ArchiveEdit(); err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"id": id, "removed": n})
			}
			newPrinter(cmd.OutOrStdout()).line("Removed %s and %d descendant(s) from the tree", name, n-1)
			return nil
		},
	}
}

// editProject opens id in the tree's edit buffer, applies change and commits.
func editProject(cmd *cobra.Command, app *App, rawID, verb string, change func(*projects.Projects) error) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	_, tree, err := app.tree()
	if err != nil {
		return err
	}
	tree.BeginEdit(&id)
	if tree.Editing() == nil {
		return fmt.Errorf("project %d: %w", id, store.ErrNotFound)
	}
	if err := change(tree); err != nil {
		return err
	}
	if err := tree.CommitEdit(); err != nil {
		return err
	}
	return reportProject(cmd, app, tree, id, verb)
}

func reportProject(cmd *cobra.Command, app *App, tree *projects.Projects, id int64, verb string) error {
	proj := tree.Get(id)
	if proj == nil {
		return fmt.Errorf("project %d: %w", id, store.ErrNotFound)
	}
	if app.JSON {
		return writeJSON(cmd.OutOrStdout(), newProjectOutput(proj, 0, tree.Path(id)))
	}
	p := newPrinter(cmd.OutOrStdout())
	p.line("%s %s %s", verb, tree.Path(id), p.muted(fmt.Sprintf("#%d", id)))
	return nil
}

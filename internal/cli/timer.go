package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/hourtree/internal/projects"
	"github.com/sadopc/hourtree/internal/session"
	"github.com/sadopc/hourtree/internal/store"
)

func newTimerCmd(app *App) *cobra.Command {
	var project int64
	var minutes float64

	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run one countdown session without the TUI",
		Long: `Run one countdown session in the foreground. The session is recorded when
the countdown reaches zero; interrupting it (Ctrl-C) records nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, tree, err := app.tree()
			if err != nil {
				return err
			}
			if project != 0 && !tree.SetActive(&project) {
				return fmt.Errorf("project %d: %w", project, store.ErrNotFound)
			}

			length := app.cfg.SessionDuration()
			if cmd.Flags().Changed("minutes") {
				c := *app.cfg
				if err := c.SetSessionLength(fmt.Sprint(minutes)); err != nil {
					return err
				}
				length = c.SessionDuration()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rec := session.New(s, tree, length, session.WithClock(app.now))
			return runTimer(ctx, cmd, tree, rec, time.Second)
		},
	}
	cmd.Flags().Int64VarP(&project, "project", "p", 0, "Project to record the session on")
	cmd.Flags().Float64VarP(&minutes, "minutes", "m", 0, "Session length for this run (default: session_length)")
	return cmd
}

// runTimer polls rec until it records a session or ctx is cancelled.
func runTimer(ctx context.Context, cmd *cobra.Command, tree *projects.Projects, rec *session.Recorder, every time.Duration) error {
	p := newPrinter(cmd.OutOrStdout())
	label := "no project"
	if id := tree.Active(); id != nil {
		label = tree.Path(*id)
	}

	rec.Start()
	p.line("Session started on %s for %s", label, rec.Length())

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		done, err := rec.Tick()
		if err != nil {
			return err
		}
		if done {
			p.line("\nSession recorded on %s", label)
			return nil
		}
		if p.color {
			fmt.Fprintf(p.w, "\r%s ", p.value(rec.Countdown()))
		}

		select {
		case <-ctx.Done():
			rec.Cancel()
			p.line("\nSession cancelled, nothing recorded")
			return nil
		case <-ticker.C:
		}
	}
}

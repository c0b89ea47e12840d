package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/hourtree/internal/export"
	"github.com/sadopc/hourtree/internal/store"
)

func newExportCmd(app *App) *cobra.Command {
	var format, out, from, to string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded work sessions to CSV, JSON or XLSX",
		Example: strings.TrimSpace(`
  hourtree export --out sessions.csv
  hourtree export --format xlsx --out week.xlsx --from "7 days ago"
  hourtree export --out may.json --from 2024-05-01 --to 2024-06-01`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
			}
			write, ok := exporters[format]
			if !ok {
				return fmt.Errorf("unknown export format %q (want csv, json or xlsx)", format)
			}

			now := app.now()
			var fromT, toT *time.Time
			if from != "" {
				t, err := parseWhen(from, now)
				if err != nil {
					return err
				}
				fromT = &t
			}
			if to != "" {
				t, err := parseWhen(to, now)
				if err != nil {
					return err
				}
				toT = &t
			}

			s, err := app.open()
			if err != nil {
				return err
			}
			all, err := s.ListProjects(true)
			if err != nil {
				return err
			}
			sessions, err := s.ListWorkSessions(fromT, toT)
			if err != nil {
				return err
			}
			if err := write(sessions, export.ProjectPaths(all), out); err != nil {
				return err
			}

			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"path": out, "format": format, "sessions": len(sessions)})
			}
			newPrinter(cmd.OutOrStdout()).line("Exported %d session(s) to %s", len(sessions), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "csv, json or xlsx (default: from --out extension)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file")
	cmd.Flags().StringVar(&from, "from", "", "Only sessions starting at or after this date")
	cmd.Flags().StringVar(&to, "to", "", "Only sessions starting before this date")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

var exporters = map[string]func([]store.WorkSession, map[int64]string, string) error{
	"csv":  export.ToCSV,
	"json": export.ToJSON,
	"xlsx": export.ToXLSX,
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/hourtree/internal/stats"
)

type dayOutput struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

func newStatsCmd(app *App) *cobra.Command {
	var day string
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Hours worked per logical day",
		Long: `Show hours worked for the last seven logical days, or for a single day.

A logical day starts day_boundary_offset_hours after midnight, so work done
shortly after midnight can still count towards the previous day.`,
		Example: strings.TrimSpace(`
  hourtree stats
  hourtree stats --day yesterday
  hourtree stats --day "last friday"
  hourtree stats --days 30`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			s, err := app.open()
			if err != nil {
				return err
			}
			offset := app.cfg.DayOffset
			now := app.now()

			var result []stats.Day
			if day != "" {
				when, err := parseWhen(day, now)
				if err != nil {
					return err
				}
				date := stats.LogicalDate(when, 0)
				hours, err := s.GetWorkHoursForDay(date, offset)
				if err != nil {
					return err
				}
				result = []stats.Day{{Date: date, Hours: hours}}
			} else {
				result, err = stats.LastDays(s, now, offset, days)
				if err != nil {
					return err
				}
			}

			if app.JSON {
				out := make([]dayOutput, len(result))
				for i, d := range result {
					out[i] = dayOutput{Date: d.Date.Format("2006-01-02"), Hours: d.Hours}
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			p := newPrinter(cmd.OutOrStdout())
			for _, d := range result {
				p.line("%s  %s", p.muted(d.Date.Format("Mon 2006-01-02")), p.value(formatHours(d.Hours)))
			}
			if len(result) > 1 {
				p.line("%s  %s", p.muted("Total         "), p.value(formatHours(stats.Total(result))))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", `Single day, e.g. "yesterday" or 2024-05-10`)
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to show")
	return cmd
}

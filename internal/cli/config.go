package cli

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/sadopc/hourtree/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), app.cfg)
			}
			data, err := toml.Marshal(app.cfg)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			p.line("%s", p.muted("# "+app.ConfigPath))
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change session_length (minutes) or day_boundary_offset_hours",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(app.ConfigPath)
			if err != nil {
				return err
			}
			switch args[0] {
			case "session_length":
				err = cfg.SetSessionLength(args[1])
			case "day_boundary_offset_hours":
				err = cfg.SetDayOffset(args[1])
			default:
				return fmt.Errorf("unknown setting %q", args[0])
			}
			if err != nil {
				return err
			}
			if err := config.Save(app.ConfigPath, cfg); err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).line("%s = %s", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.ConfigPath)
		},
	})

	return cmd
}

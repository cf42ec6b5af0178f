package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/northgate/atrium/internal/config"
	"github.com/northgate/atrium/internal/logtail"
)

func logsCmd(g *globals) *cobra.Command {
	var (
		lines int
		raw   bool
		color bool
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the tail of the atrium log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return fmt.Errorf("load atrium config: %w", err)
			}
			path := cfg.LogPath()
			entries, err := logtail.Read(path, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "no log entries in %s\n", path)
				return nil
			}
			for _, line := range entries {
				switch {
				case raw:
				case color:
					line = logtail.ColorizeLine(line)
				default:
					line = logtail.FormatLine(line)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines, 0 for all")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the JSON lines as written")
	cmd.Flags().BoolVar(&color, "color", false, "color levels, loggers and field keys")
	return cmd
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jerrinot/jfrlens/internal/report"
)

func newEventsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "events <file>",
		Short: "Count the events of each type in a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(cmd.Context(), args[0], 0)
			if err != nil {
				return err
			}
			a.printer(cmd.OutOrStdout()).PrintCensus(report.Census(s.Context))
			return nil
		},
	}
}

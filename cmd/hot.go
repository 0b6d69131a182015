package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jerrinot/jfrlens/internal/jfr/flame"
	"github.com/jerrinot/jfrlens/internal/report"
)

func newHotCmd(a *app) *cobra.Command {
	var (
		sel         selection
		top         int
		fqn         bool
		assertBelow float64
	)
	cmd := &cobra.Command{
		Use:   "hot <file>",
		Short: "Rank methods by self and total weight across the selected threads",
		Example: `  jfrlens hot profile.jfr --top 20
  jfrlens hot profile.jfr -t http-nio --assert-below 15.0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dr, err := a.dimension(cmd.Context(), args[0], sel.dim)
			if err != nil {
				return err
			}
			tasks, err := sel.tasks(cmd, dr)
			if err != nil {
				return err
			}
			stacks, total := merged(tasks)
			ranked := report.Hot(stacks, fqn)
			a.printer(cmd.OutOrStdout()).PrintHot(dr.Dimension, ranked, total, top)

			if assertBelow > 0 && len(ranked) > 0 && total > 0 {
				if pct := 100 * float64(ranked[0].Self) / float64(total); pct >= assertBelow {
					return fmt.Errorf("assertion failed: %s self=%s%% >= %.1f%%",
						ranked[0].Name, flame.Percent(ranked[0].Self, total), assertBelow)
				}
			}
			return nil
		},
	}
	sel.register(cmd, true)
	cmd.Flags().IntVar(&top, "top", 10, "Methods per ranking, 0 for all")
	cmd.Flags().BoolVar(&fqn, "fqn", false, "Show fully-qualified names")
	cmd.Flags().Float64Var(&assertBelow, "assert-below", 0, "Fail when the top method's self share reaches this percentage")
	return cmd
}

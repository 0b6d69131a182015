package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/report"
)

func newDiffCmd(a *app) *cobra.Command {
	var (
		sel      selection
		minDelta float64
		top      int
		fqn      bool
	)
	cmd := &cobra.Command{
		Use:   "diff <before> <after>",
		Short: "Compare leaf shares between two recordings",
		Long: `diff compares the exclusive share of every leaf frame between two recordings
of the same dimension and lists regressions, improvements, new and gone
frames. Thread ids differ between runs, so only the name filter applies.`,
		Example: `  jfrlens diff before.jfr after.jfr --min-delta 0.5
  jfrlens diff before.jfr after.jfr -d alloc -t http-nio`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			shares := make([]map[string]float64, 2)
			for i, path := range args {
				dr, err := a.dimension(cmd.Context(), path, sel.dim)
				if err != nil {
					return err
				}
				tasks, err := sel.tasks(cmd, dr)
				if err != nil {
					return err
				}
				shares[i] = leafShares(tasks, fqn)
			}
			d := report.CompareShares(shares[0], shares[1], minDelta, top)
			a.printer(cmd.OutOrStdout()).PrintDiff(d)
			return nil
		},
	}
	sel.register(cmd, false)
	cmd.Flags().Float64Var(&minDelta, "min-delta", 0.5, "Hide changes below this many percentage points")
	cmd.Flags().IntVar(&top, "top", 0, "Entries per section, 0 for all")
	cmd.Flags().BoolVar(&fqn, "fqn", false, "Show fully-qualified names")
	return cmd
}

// leafShares is the exclusive share of every leaf across the tasks.
func leafShares(tasks []*analysis.TaskResult, fqn bool) map[string]float64 {
	stacks, total := merged(tasks)
	return report.LeafShares(stacks, total, fqn)
}

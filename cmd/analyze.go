package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/flame"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		dims []string
		top  int
	)
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Per-thread totals for each dimension",
		Example: `  jfrlens analyze profile.jfr
  jfrlens analyze recording.jsonl -d cpu,wall,file-io-time --top 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := a.dims
			if len(dims) > 0 {
				var err error
				if d, err = analysis.ParseDimensions(dims); err != nil {
					return err
				}
			}
			s, err := a.load(cmd.Context(), args[0], d)
			if err != nil {
				return err
			}
			a.printer(cmd.OutOrStdout()).Summary(s.Result, top)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&dims, "dim", "d", nil, "Dimensions to compute (default: from the config file)")
	cmd.Flags().IntVar(&top, "top", 10, "Threads listed per dimension, 0 for all")
	return cmd
}

func newThreadsCmd(a *app) *cobra.Command {
	var (
		sel selection
		top int
	)
	cmd := &cobra.Command{
		Use:   "threads <file>",
		Short: "Rank the threads of one dimension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dr, err := a.dimension(cmd.Context(), args[0], sel.dim)
			if err != nil {
				return err
			}
			a.printer(cmd.OutOrStdout()).Tasks(dr, dr.Filter(sel.thread), top)
			return nil
		},
	}
	sel.register(cmd, false)
	cmd.Flags().IntVar(&top, "top", 0, "Threads listed, 0 for all")
	return cmd
}

func newLeavesCmd(a *app) *cobra.Command {
	var (
		sel selection
		n   int
		fqn bool
	)
	cmd := &cobra.Command{
		Use:   "leaves <file>",
		Short: "Frames with the most exclusive weight, per thread",
		Example: `  jfrlens leaves profile.jfr -d cpu -t http-nio -n 20
  jfrlens leaves recording.jsonl -d file-read-size --tid 42`,
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
			out := cmd.OutOrStdout()
			p := a.printer(out)
			for i, t := range tasks {
				if i > 0 {
					fmt.Fprintln(out)
				}
				p.Leaves(dr.Dimension, t, flame.Build(t.Stacks, t.Value).Leaves(n), fqn)
			}
			return nil
		},
	}
	sel.register(cmd, true)
	cmd.Flags().IntVarP(&n, "top", "n", 10, "Leaves per thread, 0 for all")
	cmd.Flags().BoolVar(&fqn, "fqn", false, "Show fully-qualified names")
	return cmd
}

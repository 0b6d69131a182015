package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/script"
)

func newScriptCmd(a *app) *cobra.Command {
	var dims []string
	cmd := &cobra.Command{
		Use:   "script <file> <script.star>",
		Short: "Run a Starlark script over the analysis result",
		Long: `script analyzes the recording and runs a Starlark program with these
predeclared names:

  result                  dict: dimension name -> list of thread dicts
                          (id, os_id, name, value; user and system for cpu),
                          None for dimensions that do not apply
  dimensions              list of the computed dimension names
  gc_cpu_time             GC thread CPU time in ns, or None
  leaves(dim, tid, n=0)   top exclusive frames of one thread, n=0 for all
  percent(value, total)   "12.34" style percentage`,
		Example: `  jfrlens script profile.jfr report.star -d cpu,alloc`,
		Args:    cobra.ExactArgs(2),
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
			return script.Run(cmd.Context(), cmd.OutOrStdout(), args[1], nil, s.Result)
		},
	}
	cmd.Flags().StringSliceVarP(&dims, "dim", "d", nil, "Dimensions to compute (default: from the config file)")
	return cmd
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jerrinot/jfrlens/internal/jfr/flame"
)

// treeFlags are shared by tree, callers and trace.
type treeFlags struct {
	sel     selection
	method  string
	minPct  float64
	fqn     bool
	callers bool
}

func (f *treeFlags) register(cmd *cobra.Command, minPct float64) {
	f.sel.register(cmd, true)
	cmd.Flags().StringVarP(&f.method, "method", "m", "", "Start the tree at frames matching this substring")
	cmd.Flags().Float64Var(&f.minPct, "min-pct", minPct, "Hide nodes below this percentage")
	cmd.Flags().BoolVar(&f.fqn, "fqn", false, "Show fully-qualified names")
}

// build merges the selected threads into one tree. Percentages stay
// relative to all their stacks even when a method focus cuts some away.
func (f *treeFlags) build(a *app, cmd *cobra.Command, path string) (*flame.Tree, error) {
	dr, err := a.dimension(cmd.Context(), path, f.sel.dim)
	if err != nil {
		return nil, err
	}
	tasks, err := f.sel.tasks(cmd, dr)
	if err != nil {
		return nil, err
	}
	stacks, total := merged(tasks)
	if f.callers {
		stacks = flame.Callers(stacks, f.method)
		if len(stacks) == 0 {
			return nil, fmt.Errorf("no frame matches %q", f.method)
		}
	} else if f.method != "" {
		var matched []string
		stacks, matched = flame.Focus(stacks, f.method)
		if len(matched) == 0 {
			return nil, fmt.Errorf("no frame matches %q", f.method)
		}
		if len(matched) > 1 {
			names := make([]string, len(matched))
			for i, m := range matched {
				names[i] = flame.DisplayName(m, f.fqn)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "note: %q matches %d frames: %s\n", f.method, len(matched), strings.Join(names, ", "))
		}
	}
	return flame.Build(flame.Shorten(stacks, f.fqn), total), nil
}

func newTreeCmd(a *app) *cobra.Command {
	var (
		f     treeFlags
		depth int
	)
	cmd := &cobra.Command{
		Use:   "tree <file>",
		Short: "Merged call tree of the selected threads",
		Example: `  jfrlens tree profile.jfr -m HashMap.resize --depth 6 --min-pct 0.5
  jfrlens tree recording.jsonl -d wall -t worker`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := f.build(a, cmd, args[0])
			if err != nil {
				return err
			}
			a.printer(cmd.OutOrStdout()).PrintTree(t, depth, f.minPct)
			return nil
		},
	}
	f.register(cmd, 1.0)
	cmd.Flags().IntVar(&depth, "depth", 4, "Maximum depth, 0 for unlimited")
	return cmd
}

func newTraceCmd(a *app) *cobra.Command {
	var f treeFlags
	cmd := &cobra.Command{
		Use:   "trace <file>",
		Short: "Follow the hottest path from each root down to a leaf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := f.build(a, cmd, args[0])
			if err != nil {
				return err
			}
			a.printer(cmd.OutOrStdout()).PrintHottestPath(t, f.minPct)
			return nil
		},
	}
	f.register(cmd, 0.5)
	return cmd
}

func newCallersCmd(a *app) *cobra.Command {
	var (
		f     treeFlags
		depth int
	)
	f.callers = true
	cmd := &cobra.Command{
		Use:     "callers <file>",
		Short:   "Inverted call tree from a method up to its callers",
		Example: `  jfrlens callers profile.jfr -m HashMap.resize --depth 6`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := f.build(a, cmd, args[0])
			if err != nil {
				return err
			}
			a.printer(cmd.OutOrStdout()).PrintTree(t, depth, f.minPct)
			return nil
		},
	}
	f.register(cmd, 1.0)
	_ = cmd.MarkFlagRequired("method")
	cmd.Flags().IntVar(&depth, "depth", 4, "Maximum depth, 0 for unlimited")
	return cmd
}

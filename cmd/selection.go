package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
)

// selection is the dimension and thread filter shared by the query
// commands.
type selection struct {
	dim    string
	thread string
	tid    int64
	tidSet bool
}

func (s *selection) register(cmd *cobra.Command, withTID bool) {
	f := cmd.Flags()
	f.StringVarP(&s.dim, "dim", "d", "cpu", "Dimension to query")
	f.StringVarP(&s.thread, "thread", "t", "", "Only threads whose name contains this substring")
	if withTID {
		f.Int64Var(&s.tid, "tid", 0, "Only the thread with this id")
	}
	_ = cmd.RegisterFlagCompletionFunc("dim", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return analysis.Names(), cobra.ShellCompDirectiveNoFileComp
	})
}

// tasks applies the thread filter. It fails when the dimension failed or
// does not apply to the recording, or when nothing matches.
func (s *selection) tasks(cmd *cobra.Command, dr *analysis.DimensionResult) ([]*analysis.TaskResult, error) {
	if dr.Err != nil {
		return nil, dr.Err
	}
	if dr.NotApplicable {
		return nil, fmt.Errorf("%s is not applicable to this recording", dr.Dimension)
	}
	var tid *int64
	if f := cmd.Flags().Lookup("tid"); f != nil && f.Changed {
		tid = &s.tid
	}
	tasks := dr.Select(s.thread, tid)
	if len(tasks) == 0 {
		switch {
		case tid != nil:
			return nil, fmt.Errorf("no %s data for tid %d", dr.Dimension, *tid)
		case s.thread != "":
			return nil, fmt.Errorf("no %s data for threads matching %q", dr.Dimension, s.thread)
		default:
			return nil, fmt.Errorf("no %s data in this recording", dr.Dimension)
		}
	}
	return tasks, nil
}

// merged concatenates the stacks of tasks and sums their weights.
func merged(tasks []*analysis.TaskResult) ([]analysis.StackWeight, int64) {
	var stacks []analysis.StackWeight
	var total int64
	for _, t := range tasks {
		stacks = append(stacks, t.Stacks...)
		total += t.StackTotal()
	}
	return stacks, total
}

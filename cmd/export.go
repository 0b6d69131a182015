package cmd

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jerrinot/jfrlens/internal/export"
	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/flame"
	"github.com/jerrinot/jfrlens/internal/jfr/source"
)

// output opens path for writing; "" and "-" mean stdout. With compress set
// a ".gz" suffix gzips the stream.
func output(cmd *cobra.Command, path string, compress bool) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	if !compress || !strings.HasSuffix(path, ".gz") {
		return f, f.Close, nil
	}
	gz := gzip.NewWriter(f)
	return gz, func() error {
		if err := gz.Close(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}, nil
}

func newExportCmd(a *app) *cobra.Command {
	var (
		sel            selection
		format         string
		out            string
		threads        bool
		method         string
		includeCallers bool
	)
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write one dimension as pprof, collapsed stacks or flame graph JSON",
		Example: `  jfrlens export profile.jfr -d cpu --format pprof -o cpu.pb.gz
  jfrlens export profile.jfr -d wall --format collapsed | flamegraph.pl > wall.svg
  jfrlens export recording.jsonl -d alloc --format json -t worker`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(*cobra.Command, []string) error {
			switch format {
			case "pprof", "collapsed", "json":
				return nil
			}
			return fmt.Errorf("invalid format %q, valid: pprof, collapsed, json", format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dr, err := a.dimension(cmd.Context(), args[0], sel.dim)
			if err != nil {
				return err
			}
			tasks, err := sel.tasks(cmd, dr)
			if err != nil {
				return err
			}
			if method != "" {
				if tasks = filterStacks(tasks, method, includeCallers); len(tasks) == 0 {
					return fmt.Errorf("no frame matches %q", method)
				}
			}
			// pprof profiles are gzipped already.
			w, done, err := output(cmd, out, format != "pprof")
			if err != nil {
				return err
			}
			switch format {
			case "pprof":
				err = export.WritePProf(w, dr.Dimension, tasks)
			case "collapsed":
				err = export.WriteCollapsed(w, tasks, threads)
			case "json":
				err = export.WriteGraph(w, tasks)
			}
			if cerr := done(); err == nil {
				err = cerr
			}
			return err
		},
	}
	sel.register(cmd, true)
	cmd.Flags().StringVarP(&format, "format", "f", "collapsed", "Output format: pprof, collapsed, json")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&threads, "threads", false, "Collapsed format: prefix every stack with its thread")
	cmd.Flags().StringVarP(&method, "method", "m", "", "Only stacks through frames matching this substring, cut at the match")
	cmd.Flags().BoolVar(&includeCallers, "include-callers", false, "With --method, keep the frames above the match")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"pprof", "collapsed", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// filterStacks narrows every task to its stacks through method. Task
// values are left as they are, so shares stay relative to the whole thread.
func filterStacks(tasks []*analysis.TaskResult, method string, includeCallers bool) []*analysis.TaskResult {
	var out []*analysis.TaskResult
	for _, t := range tasks {
		var stacks []analysis.StackWeight
		if includeCallers {
			stacks = flame.Through(t.Stacks, method)
		} else {
			stacks, _ = flame.Focus(t.Stacks, method)
		}
		if len(stacks) == 0 {
			continue
		}
		c := *t
		c.Stacks = stacks
		out = append(out, &c)
	}
	return out
}

func newConvertCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Rewrite a recording as a JSON-lines event dump",
		Long: `convert writes every event jfrlens reads from a recording as one JSON object
per line. The dump reads back faster than the binary file and can be edited
or generated by other tools.`,
		Example: `  jfrlens convert profile.jfr -o profile.jsonl.gz`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(cmd.Context(), args[0], 0)
			if err != nil {
				return err
			}
			w, done, err := output(cmd, out, true)
			if err != nil {
				return err
			}
			err = source.WriteDump(w, s.Context)
			if cerr := done(); err == nil {
				err = cerr
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file, .gz to compress (default: stdout)")
	return cmd
}

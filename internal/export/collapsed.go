package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/flame"
)

// WriteCollapsed writes one "frame;frame;... weight" line per stack, root
// first, the format flamegraph.pl and async-profiler's converter read.
// With threads set every line starts with a "[name tid=N]" frame.
func WriteCollapsed(w io.Writer, tasks []*analysis.TaskResult, threads bool) error {
	bw := bufio.NewWriter(w)
	for _, t := range tasks {
		prefix := ""
		if threads {
			prefix = fmt.Sprintf("[%s tid=%d];", t.Task.Name, t.Task.ID)
		}
		for _, s := range t.Stacks {
			if s.Weight <= 0 {
				continue
			}
			if _, err := fmt.Fprintf(bw, "%s%s %d\n", prefix, strings.Join(s.Frames, ";"), s.Weight); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteGraph writes the flame graph of the tasks as JSON.
func WriteGraph(w io.Writer, tasks []*analysis.TaskResult) error {
	values := make([]analysis.TaskResult, len(tasks))
	for i, t := range tasks {
		values[i] = *t
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(flame.NewGraph(values))
}

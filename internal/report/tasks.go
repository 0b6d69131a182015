package report

import (
	"fmt"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/flame"
)

// Tasks prints a dimension's tasks ranked by value. CPU-time results also
// show the user and system split.
func (p *Printer) Tasks(dr *analysis.DimensionResult, tasks []*analysis.TaskResult, top int) {
	p.println(p.paint(p.header, "=== "+dr.Dimension.String()+" ==="))
	if dr.Err != nil {
		p.println(p.paint(p.hot, "failed: "+dr.Err.Error()))
		return
	}
	if dr.NotApplicable {
		p.println(p.paint(p.muted, "not applicable to this recording"))
		return
	}
	if len(tasks) == 0 {
		p.println(p.paint(p.muted, "no data"))
		return
	}
	total := dr.Total()
	cpu := dr.Dimension == analysis.CPUTime

	if cpu {
		p.printf("%-30s %9s %14s %14s %14s %8s\n", "THREAD", "TID", "TOTAL", "USER", "SYSTEM", "PCT")
	} else {
		p.printf("%-30s %9s %14s %8s\n", "THREAD", "TID", "TOTAL", "PCT")
	}
	for _, t := range tasks[:truncate(len(tasks), top)] {
		pct := flame.Percent(t.Value, total) + "%"
		value := FormatValue(dr.Dimension, t.Value)
		if cpu && t.CPU != nil {
			p.printf("%-30s %9d %14s %14s %14s %8s\n", t.Task.Name, t.Task.ID, value,
				FormatValue(dr.Dimension, t.CPU.User), FormatValue(dr.Dimension, t.CPU.System), pct)
			continue
		}
		p.printf("%-30s %9d %14s %8s\n", t.Task.Name, t.Task.ID, value, pct)
	}
	if n := len(tasks) - truncate(len(tasks), top); n > 0 {
		p.println(p.paint(p.muted, fmt.Sprintf("(%d more)", n)))
	}
}

// Summary prints the total and top tasks of every dimension in res.
func (p *Printer) Summary(res *analysis.Result, top int) {
	for i, d := range res.Dimensions() {
		if i > 0 {
			p.println("")
		}
		dr, _ := res.Get(d)
		tasks := dr.Filter("")
		p.Tasks(dr, tasks, top)
		if dr.Err == nil && !dr.NotApplicable && len(tasks) > 0 {
			p.printf("%-30s %9s %14s\n", "(total)", "", FormatValue(d, dr.Total()))
		}
		if d == analysis.CPUTime && res.HasGCCPUTime {
			p.printf("%-30s %9s %14s\n", "(gc threads)", "", FormatValue(d, res.GCCPUTime))
		}
	}
}

// Leaves prints the leaf table of one task.
func (p *Printer) Leaves(d analysis.Dimension, t *analysis.TaskResult, leaves []flame.Leaf, fqn bool) {
	p.println(p.paint(p.header, fmt.Sprintf("=== %s: %s (tid %d) total=%s ===",
		d, t.Task.Name, t.Task.ID, FormatValue(d, t.Value))))
	if len(leaves) == 0 {
		p.println(p.paint(p.muted, "no leaves"))
		return
	}
	p.printf("%-60s %14s %8s\n", "LEAF", "SELF", "PCT")
	for i, l := range leaves {
		line := fmt.Sprintf("%-60s %14s %7s%%", flame.DisplayName(l.Name, fqn), FormatValue(d, l.Value), l.Percent)
		if i == 0 {
			line = p.paint(p.hot, line)
		}
		p.println(line)
	}
}

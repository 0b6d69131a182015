package report

import (
	"fmt"
	"sort"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/event"
)

// TypeCount is the number of events of one type in a recording.
type TypeCount struct {
	Name  string
	Kind  event.Kind
	Count int
}

// Census counts the recorded events per type, most frequent first.
func Census(ctx *analysis.Context) []TypeCount {
	counts := make(map[int64]int)
	for _, e := range ctx.Events() {
		counts[e.Type().ID]++
	}
	var out []TypeCount
	for _, t := range ctx.Types() {
		if n := counts[t.ID]; n > 0 {
			out = append(out, TypeCount{Name: t.Name, Kind: t.Kind, Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// PrintCensus prints the event census. Types no dimension reads are
// marked.
func (p *Printer) PrintCensus(counts []TypeCount) {
	if len(counts) == 0 {
		p.println("no events found")
		return
	}
	p.printf("%-40s %9s\n", "EVENT", "COUNT")
	for _, c := range counts {
		if c.Kind == event.KindUnknown {
			p.printf("%s %9d\n", p.paint(p.muted, fmt.Sprintf("%-40s", c.Name+" (unused)")), c.Count)
			continue
		}
		p.printf("%-40s %9d\n", c.Name, c.Count)
	}
}

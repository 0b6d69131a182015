package report

import (
	"fmt"
	"sort"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/flame"
)

// HotEntry is one method's exclusive and inclusive weight.
type HotEntry struct {
	Name  string
	Self  int64
	Total int64
}

// Hot ranks methods by self weight, then name. A method that recurses
// counts once per stack toward its total.
func Hot(stacks []analysis.StackWeight, fqn bool) []HotEntry {
	index := make(map[string]int)
	var out []HotEntry
	entry := func(name string) *HotEntry {
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, HotEntry{Name: name})
		}
		return &out[i]
	}
	for _, s := range stacks {
		if len(s.Frames) == 0 {
			continue
		}
		seen := make(map[string]bool, len(s.Frames))
		for _, f := range s.Frames {
			name := flame.DisplayName(f, fqn)
			if !seen[name] {
				seen[name] = true
				entry(name).Total += s.Weight
			}
		}
		entry(flame.DisplayName(s.Frames[len(s.Frames)-1], fqn)).Self += s.Weight
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Self != out[j].Self {
			return out[i].Self > out[j].Self
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// PrintHot prints the self-weight ranking and the total-weight ranking.
func (p *Printer) PrintHot(d analysis.Dimension, entries []HotEntry, total int64, top int) {
	if len(entries) == 0 {
		p.println(p.paint(p.muted, "no samples"))
		return
	}
	bySelf := entries[:truncate(len(entries), top)]
	p.hotTable("=== RANK BY SELF ===", d, bySelf, total, func(e HotEntry) int64 { return e.Self })

	byTotal := make([]HotEntry, len(entries))
	copy(byTotal, entries)
	sort.SliceStable(byTotal, func(i, j int) bool { return byTotal[i].Total > byTotal[j].Total })
	p.println("")
	p.hotTable("=== RANK BY TOTAL ===", d, byTotal[:truncate(len(byTotal), top)], total, func(e HotEntry) int64 { return e.Total })
}

func (p *Printer) hotTable(title string, d analysis.Dimension, entries []HotEntry, total int64, value func(HotEntry) int64) {
	p.println(p.paint(p.header, title))
	p.printf("%-50s %8s %8s %14s\n", "METHOD", "SELF%", "TOTAL%", "VALUE")
	for i, e := range entries {
		line := fmt.Sprintf("%-50s %7s%% %7s%% %14s", e.Name,
			flame.Percent(e.Self, total), flame.Percent(e.Total, total), FormatValue(d, value(e)))
		if i == 0 {
			line = p.paint(p.hot, line)
		}
		p.println(line)
	}
}

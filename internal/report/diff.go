package report

import (
	"math"
	"sort"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/flame"
)

// LeafShares returns each leaf frame's exclusive share of total, in
// percent, keyed by display name.
func LeafShares(stacks []analysis.StackWeight, total int64, fqn bool) map[string]float64 {
	counts := make(map[string]int64)
	var sum int64
	for _, s := range stacks {
		if len(s.Frames) > 0 {
			counts[flame.DisplayName(s.Frames[len(s.Frames)-1], fqn)] += s.Weight
		}
		sum += s.Weight
	}
	if total <= 0 {
		total = sum
	}
	pcts := make(map[string]float64, len(counts))
	for name, c := range counts {
		pcts[name] = share(c, total)
	}
	return pcts
}

// DiffEntry is one frame whose share moved.
type DiffEntry struct {
	Name   string
	Before float64
	After  float64
	Delta  float64
}

// Diff groups the share changes between two profiles.
type Diff struct {
	Regressions  []DiffEntry
	Improvements []DiffEntry
	New          []DiffEntry
	Gone         []DiffEntry
}

// Empty reports whether nothing moved by at least the threshold.
func (d *Diff) Empty() bool {
	return len(d.Regressions)+len(d.Improvements)+len(d.New)+len(d.Gone) == 0
}

// CompareShares lists the frames whose share changed by at least minDelta
// percentage points, keeping the top entries of each group.
func CompareShares(before, after map[string]float64, minDelta float64, top int) *Diff {
	names := make(map[string]bool)
	for m := range before {
		names[m] = true
	}
	for m := range after {
		names[m] = true
	}

	d := &Diff{}
	for m := range names {
		b, inBefore := before[m]
		a, inAfter := after[m]
		delta := a - b
		switch {
		case inBefore && inAfter:
			if math.Abs(delta) < minDelta {
				continue
			}
			if delta > 0 {
				d.Regressions = append(d.Regressions, DiffEntry{m, b, a, delta})
			} else {
				d.Improvements = append(d.Improvements, DiffEntry{m, b, a, delta})
			}
		case inAfter:
			if a >= minDelta {
				d.New = append(d.New, DiffEntry{m, 0, a, a})
			}
		default:
			if b >= minDelta {
				d.Gone = append(d.Gone, DiffEntry{m, b, 0, -b})
			}
		}
	}

	byName := func(s []DiffEntry, less func(i, j int) bool) {
		sort.Slice(s, func(i, j int) bool {
			if less(i, j) {
				return true
			}
			if less(j, i) {
				return false
			}
			return s[i].Name < s[j].Name
		})
	}
	byName(d.Regressions, func(i, j int) bool { return d.Regressions[i].Delta > d.Regressions[j].Delta })
	byName(d.Improvements, func(i, j int) bool { return d.Improvements[i].Delta < d.Improvements[j].Delta })
	byName(d.New, func(i, j int) bool { return d.New[i].After > d.New[j].After })
	byName(d.Gone, func(i, j int) bool { return d.Gone[i].Before > d.Gone[j].Before })

	d.Regressions = d.Regressions[:truncate(len(d.Regressions), top)]
	d.Improvements = d.Improvements[:truncate(len(d.Improvements), top)]
	d.New = d.New[:truncate(len(d.New), top)]
	d.Gone = d.Gone[:truncate(len(d.Gone), top)]
	return d
}

// PrintDiff prints the groups of d.
func (p *Printer) PrintDiff(d *Diff) {
	if d.Empty() {
		p.println("no significant changes")
		return
	}
	if len(d.Regressions) > 0 {
		p.println(p.paint(p.hot, "REGRESSION"))
		for _, e := range d.Regressions {
			p.printf("  %-50s %5.1f%% -> %5.1f%%  (+%.1f%%)\n", e.Name, e.Before, e.After, e.Delta)
		}
	}
	if len(d.Improvements) > 0 {
		p.println(p.paint(p.good, "IMPROVEMENT"))
		for _, e := range d.Improvements {
			p.printf("  %-50s %5.1f%% -> %5.1f%%  (%.1f%%)\n", e.Name, e.Before, e.After, e.Delta)
		}
	}
	if len(d.New) > 0 {
		p.println(p.paint(p.header, "NEW"))
		for _, e := range d.New {
			p.printf("  %-50s %.1f%%\n", e.Name, e.After)
		}
	}
	if len(d.Gone) > 0 {
		p.println(p.paint(p.muted, "GONE"))
		for _, e := range d.Gone {
			p.printf("  %-50s %.1f%%\n", e.Name, e.Before)
		}
	}
}

package report

import (
	"fmt"
	"strings"

	"github.com/jerrinot/jfrlens/internal/jfr/flame"
)

func share(v, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return 100.0 * float64(v) / float64(total)
}

// PrintTree prints the call tree down to maxDepth levels, skipping nodes
// below minPct of the total. Nodes with exclusive weight carry a self
// annotation. A maxDepth of zero or less means unlimited.
func (p *Printer) PrintTree(t *flame.Tree, maxDepth int, minPct float64) {
	if t.Root.Value == 0 {
		p.println(p.paint(p.muted, "no samples"))
		return
	}
	t.Walk(func(n *flame.Node, depth int) bool {
		if share(n.Value, t.Total) < minPct {
			return false
		}
		suffix := ""
		if n.Self > 0 && share(n.Self, t.Total) >= minPct {
			suffix = p.paint(p.hot, fmt.Sprintf("  ← self=%s%%", flame.Percent(n.Self, t.Total)))
		}
		p.printf("%s[%s%%] %s%s\n", strings.Repeat("  ", depth), flame.Percent(n.Value, t.Total), n.Name, suffix)
		return maxDepth <= 0 || depth+1 < maxDepth
	})
}

// PrintHottestPath follows the hottest child from every top-level frame
// down to a leaf, noting the runner-up at each step.
func (p *Printer) PrintHottestPath(t *flame.Tree, minPct float64) {
	if t.Root.Value == 0 {
		p.println(p.paint(p.muted, "no samples"))
		return
	}
	for _, root := range t.Root.Children() {
		p.tracePath(t, root, minPct)
	}
}

func (p *Printer) tracePath(t *flame.Tree, n *flame.Node, minPct float64) {
	annotation := ""
	for depth := 0; ; depth++ {
		if share(n.Value, t.Total) < minPct {
			return
		}
		var children []*flame.Node
		for _, c := range n.Children() {
			if share(c.Value, t.Total) >= minPct {
				children = append(children, c)
			}
		}
		line := fmt.Sprintf("%s[%s%%] %s%s", strings.Repeat("  ", depth), flame.Percent(n.Value, t.Total), n.Name, annotation)

		if len(children) == 0 {
			if n.Self > 0 && share(n.Self, t.Total) >= minPct {
				line += fmt.Sprintf("  ← self=%s%%", flame.Percent(n.Self, t.Total))
			}
			p.println(line)
			p.println(p.paint(p.hot, fmt.Sprintf("Hottest leaf: %s (self=%s%%)", n.Name, flame.Percent(n.Self, t.Total))))
			return
		}
		p.println(line)

		annotation = ""
		if len(children) > 1 {
			next := children[1]
			word := "siblings"
			if len(children) == 2 {
				word = "sibling"
			}
			annotation = p.paint(p.muted, fmt.Sprintf("  (+%d %s, next: %s%% %s)",
				len(children)-1, word, flame.Percent(next.Value, t.Total), next.Name))
		}
		n = children[0]
	}
}

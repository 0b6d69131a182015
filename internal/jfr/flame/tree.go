// Package flame merges one task's stack weights into a call tree and
// answers leaf queries over it.
package flame

import (
	"sort"
	"strings"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
)

// RootName labels the synthetic root of every tree.
const RootName = "all"

// Node is one frame on a merged call path. Value is the cumulative weight
// of every stack passing through the node; Self is the weight of stacks
// ending at it.
type Node struct {
	Name     string
	Value    int64
	Self     int64
	parent   *Node
	children map[string]*Node
}

func newNode(name string, parent *Node) *Node {
	return &Node{Name: name, parent: parent, children: make(map[string]*Node)}
}

func (n *Node) child(name string) *Node {
	c, ok := n.children[name]
	if !ok {
		c = newNode(name, n)
		n.children[name] = c
	}
	return c
}

// Child returns the child with the given frame label.
func (n *Node) Child(name string) (*Node, bool) {
	c, ok := n.children[name]
	return c, ok
}

// Children returns the children sorted by value, descending, then name.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Path returns the frame labels from the top frame down to n. The root
// has an empty path.
func (n *Node) Path() []string {
	var path []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		path = append(path, cur.Name)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Tree is the merged call tree of one task.
type Tree struct {
	Root *Node
	// Total is the value percentages are computed against.
	Total int64
}

// Build merges stacks, each given root first, into a tree. A total of zero
// or less means the sum of the stack weights.
func Build(stacks []analysis.StackWeight, total int64) *Tree {
	root := newNode(RootName, nil)
	for _, s := range stacks {
		if s.Weight == 0 {
			continue
		}
		cur := root
		cur.Value += s.Weight
		for _, f := range s.Frames {
			cur = cur.child(f)
			cur.Value += s.Weight
		}
		cur.Self += s.Weight
	}
	if total <= 0 {
		total = root.Value
	}
	return &Tree{Root: root, Total: total}
}

// Walk visits every node below the root depth first, children in
// Children order. Returning false skips the node's subtree.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		for _, c := range n.Children() {
			if fn(c, depth) {
				walk(c, depth+1)
			}
		}
	}
	walk(t.Root, 0)
}

// Leaf is a node with exclusive weight.
type Leaf struct {
	Name    string
	Path    []string
	Value   int64
	Percent string
}

// Key joins the leaf's path with ';'.
func (l Leaf) Key() string { return strings.Join(l.Path, ";") }

// Leaves returns the n nodes with the largest exclusive weight, or all of
// them when n <= 0. Ties are ordered by path.
func (t *Tree) Leaves(n int) []Leaf {
	var out []Leaf
	t.Walk(func(node *Node, _ int) bool {
		if node.Self != 0 {
			out = append(out, Leaf{Name: node.Name, Path: node.Path(), Value: node.Self})
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Key() < out[j].Key()
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	for i := range out {
		out[i].Percent = Percent(out[i].Value, t.Total)
	}
	return out
}

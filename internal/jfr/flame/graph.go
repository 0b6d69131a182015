package flame

import "github.com/jerrinot/jfrlens/internal/jfr/analysis"

// Graph is the serialized form of a dimension's flame graph: every frame
// label once, stacks as indexes into it, and the total of each task.
type Graph struct {
	Symbols     []string `json:"symbols"`
	Data        []Row    `json:"data"`
	ThreadSplit []Split  `json:"threadSplit"`
}

// Row is one stack of one task, root first.
type Row struct {
	Frames []int `json:"frames"`
	Weight int64 `json:"weight"`
	Task   int64 `json:"task"`
}

// Split is one task's share of the graph.
type Split struct {
	TaskID int64  `json:"taskId"`
	Name   string `json:"name"`
	Total  int64  `json:"total"`
}

// NewGraph serializes the stacks of tasks in order.
func NewGraph(tasks []analysis.TaskResult) *Graph {
	g := &Graph{Symbols: []string{}, Data: []Row{}, ThreadSplit: []Split{}}
	index := make(map[string]int)
	for _, t := range tasks {
		for _, s := range t.Stacks {
			row := Row{Frames: make([]int, len(s.Frames)), Weight: s.Weight, Task: t.Task.ID}
			for i, f := range s.Frames {
				id, ok := index[f]
				if !ok {
					id = len(g.Symbols)
					index[f] = id
					g.Symbols = append(g.Symbols, f)
				}
				row.Frames[i] = id
			}
			g.Data = append(g.Data, row)
		}
		g.ThreadSplit = append(g.ThreadSplit, Split{TaskID: t.Task.ID, Name: t.Task.Name, Total: t.Value})
	}
	return g
}

// Stacks expands the rows of one task back into stack weights.
func (g *Graph) Stacks(taskID int64) []analysis.StackWeight {
	var out []analysis.StackWeight
	for _, r := range g.Data {
		if r.Task != taskID {
			continue
		}
		frames := make([]string, len(r.Frames))
		for i, id := range r.Frames {
			frames[i] = g.Symbols[id]
		}
		out = append(out, analysis.StackWeight{Frames: frames, Weight: r.Weight})
	}
	return out
}

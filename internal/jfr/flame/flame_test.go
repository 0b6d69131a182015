package flame

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/event"
)

func sw(path string, w int64) analysis.StackWeight {
	return analysis.StackWeight{Frames: strings.Split(path, ";"), Weight: w}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		v, total int64
		want     string
	}{
		{13663, 13674, "99.92"},
		{5352, 6651, "80.47"},
		{766, 10000, "7.66"},
		{1, 3, "33.33"},
		{2, 3, "66.67"},
		{1, 20000, "0.01"}, // 0.005 rounds up
		{1, 20001, "0.00"},
		{5, 5, "100.00"},
		{0, 5, "0.00"},
		{3, 0, "0.00"},
		{-1, 4, "-25.00"},
		{math.MaxInt64, math.MaxInt64, "100.00"},
		{math.MaxInt64 - 1, math.MaxInt64, "100.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percent(tt.v, tt.total), "%d/%d", tt.v, tt.total)
	}
}

func TestBuildMergesSharedPrefixes(t *testing.T) {
	tree := Build([]analysis.StackWeight{
		sw("main;App.run;App.work", 6),
		sw("main;App.run;App.idle", 3),
		sw("main;App.run", 1),
		sw("main;Other.x", 0),
	}, 0)

	assert.Equal(t, int64(10), tree.Total)
	assert.Equal(t, int64(10), tree.Root.Value)
	main, ok := tree.Root.Child("main")
	require.True(t, ok)
	assert.Equal(t, int64(10), main.Value)
	_, ok = main.Child("Other.x")
	assert.False(t, ok)

	run, _ := main.Child("App.run")
	assert.Equal(t, int64(10), run.Value)
	assert.Equal(t, int64(1), run.Self)
	names := []string{}
	for _, c := range run.Children() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"App.work", "App.idle"}, names)
	work, _ := run.Child("App.work")
	assert.Equal(t, []string{"main", "App.run", "App.work"}, work.Path())
	assert.Empty(t, tree.Root.Path())
}

func TestLeaves(t *testing.T) {
	tree := Build([]analysis.StackWeight{
		sw("a;b;c", 5),
		sw("a;b", 2),
		sw("a;d", 5),
		sw("e", 1),
	}, 20)

	all := tree.Leaves(0)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"a", "b", "c"}, all[0].Path)
	assert.Equal(t, "c", all[0].Name)
	assert.Equal(t, "25.00", all[0].Percent)
	assert.Equal(t, "a;d", all[1].Key())
	assert.Equal(t, "a;b", all[2].Key())
	assert.Equal(t, int64(2), all[2].Value)
	assert.Equal(t, "e", all[3].Key())

	assert.Len(t, tree.Leaves(2), 2)
	assert.Len(t, tree.Leaves(100), 4)
}

func TestLeafValuesSumToTotal(t *testing.T) {
	stacks := []analysis.StackWeight{
		sw("x;y;z", 17),
		sw("x;y", 4),
		sw("x;w;z", 9),
		sw("q", 70),
		sw(analysis.NoStackTrace, 3),
	}
	var total int64
	for _, s := range stacks {
		total += s.Weight
	}
	tree := Build(stacks, total)
	var sum int64
	for _, l := range tree.Leaves(0) {
		sum += l.Value
	}
	assert.Equal(t, total, sum)
}

func TestWalkSkipsSubtrees(t *testing.T) {
	tree := Build([]analysis.StackWeight{sw("a;b;c", 2), sw("d;e", 1)}, 0)
	var seen []string
	tree.Walk(func(n *Node, depth int) bool {
		seen = append(seen, n.Name)
		return depth < 1
	})
	assert.Equal(t, []string{"a", "b", "d", "e"}, seen)
}

func TestNewGraph(t *testing.T) {
	t1 := &event.Task{ID: 7, Name: "main"}
	t2 := &event.Task{ID: 9, Name: "worker"}
	tasks := []analysis.TaskResult{
		{Task: t1, Value: 8, Stacks: []analysis.StackWeight{sw("a;b", 5), sw("a;c", 3)}},
		{Task: t2, Value: 2, Stacks: []analysis.StackWeight{sw("a;b", 2)}},
	}
	g := NewGraph(tasks)
	assert.Equal(t, []string{"a", "b", "c"}, g.Symbols)
	assert.Equal(t, []Row{
		{Frames: []int{0, 1}, Weight: 5, Task: 7},
		{Frames: []int{0, 2}, Weight: 3, Task: 7},
		{Frames: []int{0, 1}, Weight: 2, Task: 9},
	}, g.Data)
	assert.Equal(t, []Split{{7, "main", 8}, {9, "worker", 2}}, g.ThreadSplit)
	assert.Equal(t, tasks[0].Stacks, g.Stacks(7))

	raw, err := json.Marshal(g)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"threadSplit":[{"taskId":7,"name":"main","total":8}`)
}

func TestNewGraphEmpty(t *testing.T) {
	raw, err := json.Marshal(NewGraph(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbols":[],"data":[],"threadSplit":[]}`, string(raw))
}

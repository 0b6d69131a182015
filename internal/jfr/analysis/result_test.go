package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jerrinot/jfrlens/internal/jfr/event"
)

func TestDimensionResultQueries(t *testing.T) {
	dr := &DimensionResult{Dimension: CPUSample, Tasks: []TaskResult{
		{Task: &event.Task{ID: 1, Name: "worker-1"}, Value: 5},
		{Task: &event.Task{ID: 2, Name: "worker-2"}, Value: 3},
		{Task: &event.Task{ID: 3, Name: "main"}, Value: 1},
	}}

	assert.Equal(t, int64(9), dr.Total())
	assert.Len(t, dr.Filter(""), 3)
	assert.Len(t, dr.Filter("worker"), 2)

	two := int64(2)
	got := dr.Select("worker", &two)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "worker-2", got[0].Task.Name)
	}
	assert.Empty(t, dr.Select("main", &two))
	assert.Len(t, dr.Select("", nil), 3)

	task, ok := dr.Task(3)
	assert.True(t, ok)
	assert.Equal(t, "main", task.Task.Name)
	_, ok = dr.Task(4)
	assert.False(t, ok)
}

func TestStackTotal(t *testing.T) {
	tr := TaskResult{Stacks: []StackWeight{{Frames: []string{"a"}, Weight: 2}, {Frames: []string{"a", "b"}, Weight: 5}}}
	assert.Equal(t, int64(7), tr.StackTotal())
	assert.Equal(t, "a;b", tr.Stacks[1].Key())
}

package analysis

import (
	"errors"
	"sort"
	"strings"

	"github.com/jerrinot/jfrlens/internal/jfr/event"
)

// NoStackTrace labels weight recorded without a stack.
const NoStackTrace = "<no stack trace>"

// StackWeight is one formatted call path, root first, and its weight.
type StackWeight struct {
	Frames []string
	Weight int64
}

// Key joins the frames with ';'.
func (s StackWeight) Key() string { return strings.Join(s.Frames, ";") }

// CPUSplit is the user and system part of a CPU-time value.
type CPUSplit struct {
	User   int64
	System int64
}

// TaskResult is one task's record in a dimension.
type TaskResult struct {
	Task  *event.Task
	Value int64
	// CPU is set for the cpu dimension only.
	CPU    *CPUSplit
	Stacks []StackWeight
}

// StackTotal sums the stack weights.
func (t *TaskResult) StackTotal() int64 {
	var sum int64
	for _, s := range t.Stacks {
		sum += s.Weight
	}
	return sum
}

// DimensionResult holds one dimension's tasks sorted by Value, descending.
type DimensionResult struct {
	Dimension Dimension
	Tasks     []TaskResult
	// NotApplicable is set when the recording's profiling mode rules the
	// dimension out, as opposed to it having no weight.
	NotApplicable bool
	// Err is set when the dimension could not be computed. Tasks is then
	// empty; the other dimensions of the pass are unaffected.
	Err error
}

// Task finds a task by id.
func (d *DimensionResult) Task(id int64) (*TaskResult, bool) {
	for i := range d.Tasks {
		if d.Tasks[i].Task.ID == id {
			return &d.Tasks[i], true
		}
	}
	return nil, false
}

// TasksNamed returns every task whose name equals name.
func (d *DimensionResult) TasksNamed(name string) []*TaskResult {
	var out []*TaskResult
	for i := range d.Tasks {
		if d.Tasks[i].Task.Name == name {
			out = append(out, &d.Tasks[i])
		}
	}
	return out
}

// Filter returns the tasks whose name contains substr. An empty substr
// matches everything.
func (d *DimensionResult) Filter(substr string) []*TaskResult {
	var out []*TaskResult
	for i := range d.Tasks {
		if substr == "" || strings.Contains(d.Tasks[i].Task.Name, substr) {
			out = append(out, &d.Tasks[i])
		}
	}
	return out
}

// Select narrows Filter(substr) to the task with id *tid when tid is set.
func (d *DimensionResult) Select(substr string, tid *int64) []*TaskResult {
	tasks := d.Filter(substr)
	if tid == nil {
		return tasks
	}
	var out []*TaskResult
	for _, t := range tasks {
		if t.Task.ID == *tid {
			out = append(out, t)
		}
	}
	return out
}

// Total sums Value over all tasks.
func (d *DimensionResult) Total() int64 {
	var sum int64
	for _, t := range d.Tasks {
		sum += t.Value
	}
	return sum
}

// Result collects the dimension results of one pass.
type Result struct {
	dims map[Dimension]*DimensionResult
	// GCCPUTime is the estimated CPU time spent in GC threads, in
	// nanoseconds. It is only known for JVM-sampled CPU recordings.
	GCCPUTime    int64
	HasGCCPUTime bool
}

func newResult() *Result {
	return &Result{dims: make(map[Dimension]*DimensionResult)}
}

func (r *Result) set(d *DimensionResult) { r.dims[d.Dimension] = d }

// Get returns the result for a single dimension.
func (r *Result) Get(d Dimension) (*DimensionResult, bool) {
	dr, ok := r.dims[d]
	return dr, ok
}

// Dimensions lists the dimensions present, in declaration order.
func (r *Result) Dimensions() []Dimension {
	var set Dimension
	for d := range r.dims {
		set |= d
	}
	return set.Each()
}

// Err joins the errors of the failed dimensions, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, d := range r.Dimensions() {
		if err := r.dims[d].Err; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sortTasks drops zero-valued tasks and orders the rest by Value,
// descending. Ties keep first-reference order.
func sortTasks(tasks []TaskResult) []TaskResult {
	out := tasks[:0]
	for _, t := range tasks {
		if t.Value != 0 {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// Millis converts nanoseconds to milliseconds, rounding half up.
func Millis(ns int64) int64 {
	return (ns + 500_000) / 1_000_000
}

// Package script runs Starlark programs over an analysis result.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/flame"
)

// fileOptions lets scripts loop and branch at top level.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Run executes the program in src with these predeclared names:
//
//	result       dict of dimension name to a list of task dicts, or None
//	             when the dimension does not apply or failed
//	errors       dict of failed dimension name to its error message
//	dimensions   list of the analyzed dimension names
//	gc_cpu_time  estimated GC CPU nanoseconds, or None
//	leaves(dim, task_id, n=0)  top exclusive-weight leaves of one task
//	percent(value, total)      two-decimal percentage string
//
// print writes to w. Cancelling ctx stops the program.
func Run(ctx context.Context, w io.Writer, filename string, src any, res *analysis.Result) error {
	thread := &starlark.Thread{
		Name:  filename,
		Print: func(_ *starlark.Thread, msg string) { fmt.Fprintln(w, msg) },
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	_, err := starlark.ExecFileOptions(fileOptions, thread, filename, src, predeclared(res))
	if err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			return errors.New(evalErr.Backtrace())
		}
		return err
	}
	return nil
}

func predeclared(res *analysis.Result) starlark.StringDict {
	result := starlark.NewDict(len(res.Dimensions()))
	failed := starlark.NewDict(0)
	var names []starlark.Value
	for _, d := range res.Dimensions() {
		dr, _ := res.Get(d)
		names = append(names, starlark.String(d.String()))
		if dr.Err != nil {
			_ = failed.SetKey(starlark.String(d.String()), starlark.String(dr.Err.Error()))
		}
		if dr.Err != nil || dr.NotApplicable {
			_ = result.SetKey(starlark.String(d.String()), starlark.None)
			continue
		}
		tasks := make([]starlark.Value, 0, len(dr.Tasks))
		for i := range dr.Tasks {
			tasks = append(tasks, taskDict(&dr.Tasks[i]))
		}
		_ = result.SetKey(starlark.String(d.String()), starlark.NewList(tasks))
	}
	result.Freeze()
	failed.Freeze()

	var gc starlark.Value = starlark.None
	if res.HasGCCPUTime {
		gc = starlark.MakeInt64(res.GCCPUTime)
	}
	return starlark.StringDict{
		"result":      result,
		"dimensions":  starlark.NewList(names),
		"errors":      failed,
		"gc_cpu_time": gc,
		"leaves":      starlark.NewBuiltin("leaves", leavesBuiltin(res)),
		"percent":     starlark.NewBuiltin("percent", percentBuiltin),
	}
}

func taskDict(t *analysis.TaskResult) *starlark.Dict {
	d := starlark.NewDict(6)
	_ = d.SetKey(starlark.String("id"), starlark.MakeInt64(t.Task.ID))
	_ = d.SetKey(starlark.String("os_id"), starlark.MakeInt64(t.Task.OSID))
	_ = d.SetKey(starlark.String("name"), starlark.String(t.Task.Name))
	_ = d.SetKey(starlark.String("value"), starlark.MakeInt64(t.Value))
	if t.CPU != nil {
		_ = d.SetKey(starlark.String("user"), starlark.MakeInt64(t.CPU.User))
		_ = d.SetKey(starlark.String("system"), starlark.MakeInt64(t.CPU.System))
	}
	return d
}

func leavesBuiltin(res *analysis.Result) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var (
			dimName string
			taskID  int64
			n       int
		)
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "dim", &dimName, "task_id", &taskID, "n?", &n); err != nil {
			return nil, err
		}
		d, err := analysis.ParseDimension(dimName)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		dr, ok := res.Get(d)
		if !ok {
			return nil, fmt.Errorf("%s: dimension %s was not analyzed", b.Name(), d)
		}
		t, ok := dr.Task(taskID)
		if !ok {
			return starlark.NewList(nil), nil
		}
		leaves := flame.Build(t.Stacks, t.Value).Leaves(n)
		out := make([]starlark.Value, len(leaves))
		for i, l := range leaves {
			path := make([]starlark.Value, len(l.Path))
			for j, f := range l.Path {
				path[j] = starlark.String(f)
			}
			ld := starlark.NewDict(4)
			_ = ld.SetKey(starlark.String("name"), starlark.String(l.Name))
			_ = ld.SetKey(starlark.String("path"), starlark.NewList(path))
			_ = ld.SetKey(starlark.String("value"), starlark.MakeInt64(l.Value))
			_ = ld.SetKey(starlark.String("percent"), starlark.String(l.Percent))
			out[i] = ld
		}
		return starlark.NewList(out), nil
	}
}

func percentBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value, total int64
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "value", &value, "total", &total); err != nil {
		return nil, err
	}
	return starlark.String(flame.Percent(value, total)), nil
}

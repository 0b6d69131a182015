package analysis

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jerrinot/jfrlens/internal/jfr/event"
	"github.com/jerrinot/jfrlens/internal/jfr/symbol"
)

const ms = int64(1_000_000)

// recording builds a Context event by event.
type recording struct {
	t    *testing.T
	ctx  *Context
	logs *observer.ObservedLogs
}

func newRecording(t *testing.T) *recording {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := NewContext(Options{Logger: zap.New(core)})
	// Recordings declare their types up front; tests mimic that so that
	// setting events can refer to type ids.
	ctx.DeclareType(101, event.ExecutionSample)
	ctx.DeclareType(102, event.ThreadCPULoad)
	return &recording{t: t, ctx: ctx, logs: logs}
}

func (r *recording) thread(id int64, name string) *event.Task {
	return r.ctx.Task(id, id+1000, name)
}

// stack builds a stack from root-first "pkg.Class.method" names.
func (r *recording) stack(rootFirst ...string) *symbol.Stack {
	frames := make([]*symbol.Frame, len(rootFirst))
	for i, name := range rootFirst {
		class, method := "", name
		if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
			class, method = name[:dot], name[dot+1:]
		}
		frames[len(rootFirst)-1-i] = r.ctx.Symbols().Frame(class, method, "", 0, 0, "JIT compiled")
	}
	return r.ctx.Symbols().Stack(frames)
}

func (r *recording) add(typ string, start, dur int64, th *event.Task, st *symbol.Stack, fields event.Fields) {
	if fields == nil {
		fields = event.Fields{}
	}
	r.ctx.Add(event.New(r.ctx.Type(typ), start, dur, th, st, fields))
}

func (r *recording) setting(typ, name, value string) {
	r.add(event.ActiveSetting, 0, 0, nil, nil, event.Fields{
		"id":    event.Long(r.ctx.Type(typ).ID),
		"name":  event.String(name),
		"value": event.String(value),
	})
}

func (r *recording) run(dims Dimension) *Result {
	r.t.Helper()
	res, err := Run(r.ctx, dims)
	if err != nil {
		r.t.Fatalf("Run: %v", err)
	}
	return res
}

func (r *recording) warnings() []string {
	var out []string
	for _, e := range r.logs.FilterLevelExact(zapcore.WarnLevel).All() {
		out = append(out, e.Message)
	}
	return out
}

func dim(t *testing.T, res *Result, d Dimension) *DimensionResult {
	t.Helper()
	dr, ok := res.Get(d)
	if !ok {
		t.Fatalf("no %s result", d)
	}
	return dr
}

func only(t *testing.T, dr *DimensionResult, name string) *TaskResult {
	t.Helper()
	tasks := dr.TasksNamed(name)
	if len(tasks) != 1 {
		t.Fatalf("%s: want one task named %q, got %d", dr.Dimension, name, len(tasks))
	}
	return tasks[0]
}

package analysis

import (
	"go.uber.org/zap"

	"github.com/jerrinot/jfrlens/internal/jfr/event"
)

// weigher returns the weight one event contributes and declares the
// fields it reads.
type weigher struct {
	weigh func(e *event.Event) int64
	reads []event.Field
}

var (
	one      = weigher{weigh: func(*event.Event) int64 { return 1 }}
	duration = weigher{weigh: func(e *event.Event) int64 { return e.Duration() }}
)

func longField(name string) weigher {
	return weigher{
		weigh: func(e *event.Event) int64 { return e.Long(name) },
		reads: []event.Field{{Name: name, Kind: event.FieldLong}},
	}
}

type countTask struct {
	total  int64
	stacks stackMap
}

// countExtractor accumulates a constant or a per-event value per task and
// stack. It serves every count, duration-sum and size-sum dimension.
type countExtractor struct {
	visitor
	tasks taskMap[countTask]
}

func newCountExtractor(ctx *Context, dim Dimension, weights map[event.Kind]weigher) *countExtractor {
	x := &countExtractor{visitor: newVisitor(ctx, dim), tasks: newTaskMap[countTask]()}
	for kind, w := range weights {
		x.on(kind, x.accumulate(w.weigh), w.reads...)
	}
	return x
}

func (x *countExtractor) accumulate(weigh func(*event.Event) int64) handler {
	return func(e *event.Event) {
		v := weigh(e)
		if v < 0 {
			x.anomaly("negative event weight skipped", zap.String("type", e.Type().Name), zap.Int64("weight", v))
			return
		}
		a := x.tasks.get(x.ctx.taskOf(e))
		a.total += v
		a.stacks.add(x.stackOf(e), v)
	}
}

func (x *countExtractor) fillResult(r *Result) error {
	out := make([]TaskResult, 0, x.tasks.len())
	x.tasks.each(func(t *event.Task, a *countTask) {
		tr := TaskResult{Task: t, Value: a.total, Stacks: a.stacks.format()}
		if tr.Value == 0 && len(tr.Stacks) > 0 {
			x.anomaly("stack weight without task total", zap.Stringer("task", t))
		}
		if tr.Value != 0 {
			x.checkIntegrity(&tr)
		}
		out = append(out, tr)
	})
	r.set(&DimensionResult{Dimension: x.dim, Tasks: sortTasks(out)})
	return nil
}

// countDimensions maps each count or sum dimension to the kinds it reads and
// how each kind is weighed.
var countDimensions = map[Dimension]map[event.Kind]weigher{
	NativeExecutionSamples: {event.KindNativeMethodSample: one},
	Allocations: {
		event.KindAllocationInNewTLAB:   one,
		event.KindAllocationOutsideTLAB: one,
	},
	AllocatedMemory: {
		event.KindAllocationInNewTLAB:   longField("tlabSize"),
		event.KindAllocationOutsideTLAB: longField("allocationSize"),
	},
	FileIOTime: {
		event.KindFileRead:  duration,
		event.KindFileWrite: duration,
		event.KindFileForce: duration,
	},
	FileReadSize:        {event.KindFileRead: longField("bytesRead")},
	FileWriteSize:       {event.KindFileWrite: longField("bytesWritten")},
	SocketReadSize:      {event.KindSocketRead: longField("bytesRead")},
	SocketReadTime:      {event.KindSocketRead: duration},
	SocketWriteSize:     {event.KindSocketWrite: longField("bytesWritten")},
	SocketWriteTime:     {event.KindSocketWrite: duration},
	LockWaitTime:        {event.KindMonitorEnter: duration},
	LockAcquire:         {event.KindMonitorEnter: one},
	SynchronizationWait: {event.KindMonitorWait: duration},
	ThreadParkTime:      {event.KindThreadPark: duration},
	ClassLoadCount:      {event.KindClassLoad: one},
	ClassLoadWallTime:   {event.KindClassLoad: duration},
	ThreadSleepTime:     {event.KindThreadSleep: duration},
}

package analysis

import (
	"go.uber.org/zap"

	"github.com/jerrinot/jfrlens/internal/jfr/event"
)

// socketConnect is the frame wall time inside a connect is attributed to.
const socketConnect = "java.net.Socket.connect"

// sampleSpan tracks the samples of one task: their weight per stack and the
// first and last timestamps.
type sampleSpan struct {
	stacks      stackMap
	events      int64
	first, last int64
}

func (s *sampleSpan) observe(start int64) {
	if s.events == 0 || start < s.first {
		s.first = start
	}
	if s.events == 0 || start > s.last {
		s.last = start
	}
	s.events++
}

// duration is the wall time the samples cover: the span between first and
// last sample, or one interval when that span is unknown.
func (s *sampleSpan) duration(interval int64) int64 {
	if s.events > 1 {
		if d := s.last - s.first; d > 0 {
			return d
		}
	}
	return interval
}

// weighted spreads duration across the sampled stacks in proportion to
// their weight, so that the parts sum exactly to duration.
func (s *sampleSpan) weighted(duration int64) *stackMap {
	weights := make([]int64, len(s.stacks.order))
	for i, st := range s.stacks.order {
		weights[i] = s.stacks.weights[st]
	}
	parts := apportion(duration, weights)
	out := &stackMap{}
	for i, st := range s.stacks.order {
		out.add(st, parts[i])
	}
	return out
}

type wallTask struct {
	wallSamples sampleSpan
	execSamples sampleSpan
	connect     stackMap
	connectTime int64
}

// wallClockExtractor estimates per-task wall time from wall-clock samples
// plus the time spent inside socket connects.
type wallClockExtractor struct {
	visitor
	settings       samplingSettings
	tasks          taskMap[wallTask]
	sawWallSamples bool
}

func newWallClockExtractor(ctx *Context) *wallClockExtractor {
	x := &wallClockExtractor{
		visitor:  newVisitor(ctx, WallClock),
		settings: samplingSettings{ctx: ctx},
		tasks:    newTaskMap[wallTask](),
	}
	x.on(event.KindActiveSetting, x.settings.onSetting, catalogue(event.KindActiveSetting)...)
	x.on(event.KindWallClockSample, x.onWallSample, catalogue(event.KindWallClockSample)...)
	x.on(event.KindExecutionSample, x.onExecutionSample)
	x.on(event.KindSocketConnect, x.onConnect)
	return x
}

func (x *wallClockExtractor) onWallSample(e *event.Event) {
	w := int64(1)
	if n, err := e.LookupInt("samples"); err == nil {
		w = int64(n)
	}
	if w <= 0 {
		x.anomaly("non-positive wall sample weight skipped", zap.Int64("samples", w))
		return
	}
	x.sawWallSamples = true
	a := x.tasks.get(x.ctx.taskOf(e))
	a.wallSamples.observe(e.Start())
	a.wallSamples.stacks.add(x.stackOf(e), w)
}

func (x *wallClockExtractor) onExecutionSample(e *event.Event) {
	a := x.tasks.get(x.ctx.taskOf(e))
	a.execSamples.observe(e.Start())
	a.execSamples.stacks.add(x.stackOf(e), 1)
}

func (x *wallClockExtractor) onConnect(e *event.Event) {
	d := e.Duration()
	if d < 0 {
		x.anomaly("negative socket connect duration skipped", zap.Int64("duration", d))
		return
	}
	stack := x.stackOf(e)
	if i := stack.Index(socketConnect); i >= 0 {
		stack = stack.Truncate(i)
	}
	a := x.tasks.get(x.ctx.taskOf(e))
	a.connect.add(stack, d)
	a.connectTime += d
}

func (x *wallClockExtractor) fillResult(r *Result) error {
	s := &x.settings
	// CPU and wall accounting are exclusive: a recording the cpu extractor
	// accepts has no wall result, whatever wall samples it carries.
	if !s.wallMode {
		if x.sawWallSamples {
			x.ctx.log.Debug("wall samples in a cpu-mode recording ignored")
		}
		r.set(&DimensionResult{Dimension: WallClock, NotApplicable: true})
		return nil
	}
	interval := s.wallInterval
	if interval == 0 {
		interval = s.asyncInterval
	}
	if interval == 0 {
		x.ctx.log.Debug("wall sampling interval unknown, wall clock not applicable")
		r.set(&DimensionResult{Dimension: WallClock, NotApplicable: true})
		return nil
	}

	out := make([]TaskResult, 0, x.tasks.len())
	x.tasks.each(func(t *event.Task, a *wallTask) {
		samples := &a.execSamples
		if x.sawWallSamples {
			samples = &a.wallSamples
		}
		stacks := &stackMap{}
		var total int64
		if samples.events > 0 {
			d := samples.duration(interval)
			stacks = samples.weighted(d)
			total = d
		}
		stacks.merge(&a.connect)
		total += a.connectTime

		tr := TaskResult{Task: t, Value: total, Stacks: stacks.format()}
		if total != 0 {
			x.checkIntegrity(&tr)
		}
		out = append(out, tr)
	})
	r.set(&DimensionResult{Dimension: WallClock, Tasks: sortTasks(out)})
	return nil
}

package analysis

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/jerrinot/jfrlens/internal/jfr/event"
)

// ErrInsufficientCalibration is returned when the ThreadCPULoad period has
// to be derived from the events and no task has two of them.
var ErrInsufficientCalibration = errors.New("insufficient ThreadCPULoad events to derive the load period")

// handshakeOneThread runs on one thread, so its duration is not scaled by
// the core count.
const handshakeOneThread = "HandshakeOneThread"

// hardware collects the configuration events that size the machine and the
// GC thread pools. The first usable value of each wins.
type hardware struct {
	cores             int64
	parallelGCThreads int64
	concGCThreads     int64
}

func (h *hardware) setCores(n int64) {
	if h.cores == 0 && n > 0 {
		h.cores = n
	}
}

func (h *hardware) setGCThreads(parallel, concurrent int64) {
	if h.parallelGCThreads == 0 && parallel > 0 {
		h.parallelGCThreads = parallel
	}
	if h.concGCThreads == 0 && concurrent > 0 {
		h.concGCThreads = concurrent
	}
}

func (h *hardware) register(v *visitor) {
	v.on(event.KindCPUInformation, func(e *event.Event) {
		h.setCores(int64(e.Int("hwThreads")))
	}, catalogue(event.KindCPUInformation)...)
	v.on(event.KindContainerConfiguration, func(e *event.Event) {
		h.setCores(e.Long("effectiveCpuCount"))
	}, catalogue(event.KindContainerConfiguration)...)
	v.on(event.KindIntFlag, func(e *event.Event) {
		if e.StringField("name") == "ActiveProcessorCount" {
			h.setCores(e.Long("value"))
		}
	}, catalogue(event.KindIntFlag)...)
	v.on(event.KindUnsignedIntFlag, func(e *event.Event) {
		switch e.StringField("name") {
		case "ParallelGCThreads":
			h.setGCThreads(e.Long("value"), 0)
		case "ConcGCThreads":
			h.setGCThreads(0, e.Long("value"))
		}
	}, catalogue(event.KindUnsignedIntFlag)...)
	v.on(event.KindGCConfiguration, func(e *event.Event) {
		h.setGCThreads(int64(e.Int("parallelGCThreads")), int64(e.Int("concurrentGCThreads")))
	}, catalogue(event.KindGCConfiguration)...)
}

func orOne(n int64) int64 {
	if n <= 0 {
		return 1
	}
	return n
}

// gcKind buckets collector names by how many threads do the work.
type gcKind int

const (
	gcParallel gcKind = iota
	gcConcurrent
	gcSerial
)

var gcKinds = map[string]gcKind{
	"DefNew":              gcSerial,
	"SerialOld":           gcSerial,
	"G1Old":               gcConcurrent,
	"ConcurrentMarkSweep": gcConcurrent,
	"Z":                   gcConcurrent,
	"ZMinor":              gcConcurrent,
	"ZMajor":              gcConcurrent,
	"Shenandoah":          gcConcurrent,
	"G1New":               gcParallel,
	"G1Full":              gcParallel,
	"ParallelScavenge":    gcParallel,
	"ParallelOld":         gcParallel,
	"ParNew":              gcParallel,
}

type cpuTask struct {
	samples    stackMap
	count      int64
	loads      int
	loadUser   float64
	loadSystem float64
	loadStarts [2]int64
	vmScaled   int64
	vmSerial   int64
}

// cpuTimeExtractor estimates per-task CPU time from execution samples,
// clipped by the measured thread CPU load when the JVM did the sampling.
type cpuTimeExtractor struct {
	visitor
	settings   samplingSettings
	hw         hardware
	tasks      taskMap[cpuTask]
	gcWall     [3]int64
	loadEvents int
	vmOps      int
}

func newCPUTimeExtractor(ctx *Context) *cpuTimeExtractor {
	x := &cpuTimeExtractor{
		visitor:  newVisitor(ctx, CPUTime),
		settings: samplingSettings{ctx: ctx},
		tasks:    newTaskMap[cpuTask](),
	}
	x.on(event.KindActiveSetting, x.settings.onSetting, catalogue(event.KindActiveSetting)...)
	x.hw.register(&x.visitor)
	x.on(event.KindExecutionSample, x.onSample)
	x.on(event.KindThreadCPULoad, x.onLoad, catalogue(event.KindThreadCPULoad)...)
	x.on(event.KindGarbageCollection, x.onGC, catalogue(event.KindGarbageCollection)...)
	x.on(event.KindExecuteVMOperation, x.onVMOperation, catalogue(event.KindExecuteVMOperation)...)
	return x
}

func (x *cpuTimeExtractor) onSample(e *event.Event) {
	a := x.tasks.get(x.ctx.taskOf(e))
	a.samples.add(x.stackOf(e), 1)
	a.count++
}

func (x *cpuTimeExtractor) onLoad(e *event.Event) {
	user, system := e.Double("user"), e.Double("system")
	if user < 0 || system < 0 {
		x.anomaly("negative thread CPU load skipped", zap.Float64("user", user), zap.Float64("system", system))
		return
	}
	a := x.tasks.get(x.ctx.taskOf(e))
	if a.loads < len(a.loadStarts) {
		a.loadStarts[a.loads] = e.Start()
	}
	a.loads++
	a.loadUser += user
	a.loadSystem += system
	x.loadEvents++
}

func (x *cpuTimeExtractor) onGC(e *event.Event) {
	kind, ok := gcKinds[e.StringField("name")]
	if !ok {
		x.ctx.log.Debug("unclassified collector counted as parallel", zap.String("name", e.StringField("name")))
	}
	if e.Duration() < 0 {
		x.anomaly("negative GC duration skipped", zap.Int64("duration", e.Duration()))
		return
	}
	x.gcWall[kind] += e.Duration()
}

func (x *cpuTimeExtractor) onVMOperation(e *event.Event) {
	caller, _ := e.LookupThread("caller")
	if caller == nil {
		caller = x.ctx.taskOf(e)
	}
	d := e.Duration()
	if d < 0 {
		x.anomaly("negative VM operation duration skipped", zap.Int64("duration", d))
		return
	}
	a := x.tasks.get(caller)
	if e.StringField("operation") == handshakeOneThread {
		a.vmSerial += d
	} else {
		a.vmScaled += d
	}
	x.vmOps++
}

// loadPeriod returns the ThreadCPULoad period: the setting when present,
// otherwise the gap between the first two loads of the first task that
// has two.
func (x *cpuTimeExtractor) loadPeriod() (int64, error) {
	if x.settings.loadPeriod > 0 {
		return x.settings.loadPeriod, nil
	}
	var period int64
	x.tasks.each(func(_ *event.Task, a *cpuTask) {
		if period == 0 && a.loads >= 2 {
			if d := a.loadStarts[1] - a.loadStarts[0]; d > 0 {
				period = d
			}
		}
	})
	if period == 0 {
		return 0, fmt.Errorf("%d ThreadCPULoad events, no task with two: %w", x.loadEvents, ErrInsufficientCalibration)
	}
	return period, nil
}

func (x *cpuTimeExtractor) cores(needed bool) int64 {
	if x.hw.cores == 0 && needed {
		x.ctx.log.Warn("core count not recorded, assuming 1")
	}
	return orOne(x.hw.cores)
}

func (x *cpuTimeExtractor) fillResult(r *Result) error {
	s := &x.settings
	if s.wallMode {
		r.set(&DimensionResult{Dimension: CPUTime, NotApplicable: true})
		return nil
	}
	jvm := s.sawJVMPeriod && s.asyncInterval == 0
	if jvm && s.jvmPeriod == 0 {
		x.ctx.log.Debug("JVM sampling without a usable period, cpu time not applicable")
		r.set(&DimensionResult{Dimension: CPUTime, NotApplicable: true})
		return nil
	}

	interval := s.jvmPeriod
	if !jvm {
		interval = s.asyncInterval
		if interval == 0 {
			interval = int64(x.ctx.opts.AsyncProfilerInterval)
		}
	}
	clip := jvm && x.loadEvents > 0
	var period int64
	if clip {
		var err error
		if period, err = x.loadPeriod(); err != nil {
			return err
		}
	}
	cores := x.cores(clip || x.vmOps > 0)

	out := make([]TaskResult, 0, x.tasks.len())
	x.tasks.each(func(t *event.Task, a *cpuTask) {
		estimate := a.count * interval
		user, system := estimate, int64(0)
		if clip && a.loads > 0 {
			scale := float64(period) * float64(cores)
			ceilUser := int64(math.Round(a.loadUser * scale))
			ceilSystem := int64(math.Round(a.loadSystem * scale))
			total := min(estimate, ceilUser+ceilSystem)
			user, system = 0, 0
			if ceilUser+ceilSystem > 0 {
				user = mulDiv(total, ceilUser, ceilUser+ceilSystem)
				system = total - user
			}
		}
		system += a.vmScaled*cores + a.vmSerial

		tr := TaskResult{
			Task:   t,
			Value:  user + system,
			CPU:    &CPUSplit{User: user, System: system},
			Stacks: a.samples.scaled(interval).format(),
		}
		if tr.Value == 0 && len(tr.Stacks) > 0 {
			x.anomaly("samples clipped to zero CPU time", zap.Stringer("task", t), zap.Int64("samples", a.count))
		}
		out = append(out, tr)
	})
	r.set(&DimensionResult{Dimension: CPUTime, Tasks: sortTasks(out)})

	if jvm {
		r.GCCPUTime = x.gcWall[gcParallel]*orOne(x.hw.parallelGCThreads) +
			x.gcWall[gcConcurrent]*orOne(x.hw.concGCThreads) +
			x.gcWall[gcSerial]
		r.HasGCCPUTime = true
	}
	return nil
}

// cpuSampleExtractor counts execution samples per task. Wall-mode
// recordings have no CPU samples.
type cpuSampleExtractor struct {
	visitor
	settings samplingSettings
	tasks    taskMap[countTask]
}

func newCPUSampleExtractor(ctx *Context) *cpuSampleExtractor {
	x := &cpuSampleExtractor{
		visitor:  newVisitor(ctx, CPUSample),
		settings: samplingSettings{ctx: ctx},
		tasks:    newTaskMap[countTask](),
	}
	x.on(event.KindActiveSetting, x.settings.onSetting, catalogue(event.KindActiveSetting)...)
	x.on(event.KindExecutionSample, func(e *event.Event) {
		a := x.tasks.get(x.ctx.taskOf(e))
		a.total++
		a.stacks.add(x.stackOf(e), 1)
	})
	return x
}

func (x *cpuSampleExtractor) fillResult(r *Result) error {
	if x.settings.wallMode {
		r.set(&DimensionResult{Dimension: CPUSample, NotApplicable: true})
		return nil
	}
	out := make([]TaskResult, 0, x.tasks.len())
	x.tasks.each(func(t *event.Task, a *countTask) {
		tr := TaskResult{Task: t, Value: a.total, Stacks: a.stacks.format()}
		x.checkIntegrity(&tr)
		out = append(out, tr)
	})
	r.set(&DimensionResult{Dimension: CPUSample, Tasks: sortTasks(out)})
	return nil
}

package source

import (
	"fmt"
	"io"
	"math/bits"
	"strings"

	"github.com/grafana/jfr-parser/parser"
	"github.com/grafana/jfr-parser/parser/types"
	"go.uber.org/zap"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/event"
	"github.com/jerrinot/jfrlens/internal/jfr/symbol"
)

// profilerSettings are the async-profiler settings that describe how
// execution samples were taken.
var profilerSettings = map[string]bool{
	"event":    true,
	"interval": true,
	"wall":     true,
}

// jfrReader translates the events grafana/jfr-parser decodes.
type jfrReader struct {
	p       *parser.Parser
	ctx     *analysis.Context
	threads map[types.ThreadRef]*event.Task
	skipped int
}

// ReadJFR decodes a binary recording into ctx. Only the event types the
// parser materializes are read: execution, wall-clock, allocation, monitor
// enter and thread park events plus the async-profiler settings.
func ReadJFR(buf []byte, ctx *analysis.Context) error {
	r := &jfrReader{
		p:       parser.NewParser(buf, parser.Options{}),
		ctx:     ctx,
		threads: make(map[types.ThreadRef]*event.Task),
	}
	n := 0
	for {
		typ, err := r.p.ParseEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("parse event %d: %w", n, err)
		}
		n++
		p := r.p
		switch typ {
		case p.TypeMap.T_EXECUTION_SAMPLE:
			s := &p.ExecutionSample
			r.add(event.ExecutionSample, uint64(s.StartTime), 0, s.SampledThread, s.StackTrace, event.Fields{})
		case p.TypeMap.T_WALL_CLOCK_SAMPLE:
			s := &p.WallClockSample
			r.add(event.WallClockSample, uint64(s.StartTime), 0, s.SampledThread, s.StackTrace, event.Fields{
				"samples": event.Int(int32(s.Samples)),
			})
		case p.TypeMap.T_ALLOC_IN_NEW_TLAB:
			s := &p.ObjectAllocationInNewTLAB
			r.add(event.AllocationInNewTLAB, uint64(s.StartTime), 0, s.EventThread, s.StackTrace, event.Fields{
				"tlabSize":       event.Long(int64(s.TlabSize)),
				"allocationSize": event.Long(int64(s.AllocationSize)),
			})
		case p.TypeMap.T_ALLOC_OUTSIDE_TLAB:
			s := &p.ObjectAllocationOutsideTLAB
			r.add(event.AllocationOutsideTLAB, uint64(s.StartTime), 0, s.EventThread, s.StackTrace, event.Fields{
				"allocationSize": event.Long(int64(s.AllocationSize)),
			})
		case p.TypeMap.T_MONITOR_ENTER:
			s := &p.JavaMonitorEnter
			r.add(event.MonitorEnter, uint64(s.StartTime), uint64(s.Duration), s.EventThread, s.StackTrace, event.Fields{})
		case p.TypeMap.T_THREAD_PARK:
			s := &p.ThreadPark
			r.add(event.ThreadPark, uint64(s.StartTime), uint64(s.Duration), s.EventThread, s.StackTrace, event.Fields{})
		case p.TypeMap.T_ACTIVE_SETTING:
			r.setting(p.ActiveSetting.Name, p.ActiveSetting.Value)
		default:
			r.skipped++
		}
	}
	ctx.Logger().Debug("jfr decoded", zap.Int("parsed", n), zap.Int("skipped", r.skipped))
	return nil
}

// setting records an async-profiler setting against jdk.ExecutionSample,
// the type those settings describe.
func (r *jfrReader) setting(name, value string) {
	if !profilerSettings[name] {
		r.skipped++
		return
	}
	target := r.ctx.Type(event.ExecutionSample).ID
	r.ctx.Add(event.New(r.ctx.Type(event.ActiveSetting), 0, 0, nil, nil, event.Fields{
		"id":    event.Long(target),
		"name":  event.String(name),
		"value": event.String(value),
	}))
}

func (r *jfrReader) add(name string, start, duration uint64, th types.ThreadRef, st types.StackTraceRef, fields event.Fields) {
	e := event.New(r.ctx.Type(name), r.nanos(start), r.duration(duration), r.thread(th), r.stack(st), fields)
	r.ctx.Add(e)
}

// nanos converts a chunk-relative tick count to epoch nanoseconds.
func (r *jfrReader) nanos(ticks uint64) int64 {
	h := r.p.ChunkHeader()
	perSecond, base := uint64(h.TicksPerSecond), uint64(h.StartTicks)
	if perSecond == 0 {
		return int64(ticks)
	}
	if ticks >= base {
		return int64(h.StartNanos) + ticksToNanos(ticks-base, perSecond)
	}
	return int64(h.StartNanos) - ticksToNanos(base-ticks, perSecond)
}

func (r *jfrReader) duration(ticks uint64) int64 {
	perSecond := uint64(r.p.ChunkHeader().TicksPerSecond)
	if perSecond == 0 {
		return int64(ticks)
	}
	return ticksToNanos(ticks, perSecond)
}

// ticksToNanos computes ticks*1e9/perSecond without overflowing.
func ticksToNanos(ticks, perSecond uint64) int64 {
	hi, lo := bits.Mul64(ticks, 1_000_000_000)
	if hi >= perSecond {
		return int64(^uint64(0) >> 1)
	}
	q, _ := bits.Div64(hi, lo, perSecond)
	return int64(q)
}

func (r *jfrReader) thread(ref types.ThreadRef) *event.Task {
	if t, ok := r.threads[ref]; ok {
		return t
	}
	name := ""
	if idx, ok := r.p.Threads.IDMap[ref]; ok {
		th := &r.p.Threads.Thread[idx]
		name = th.JavaName
		if name == "" {
			name = th.OsName
		}
	}
	t := r.ctx.Task(int64(ref), 0, name)
	r.threads[ref] = t
	return t
}

// stack resolves a stack trace. Frames stay leaf first.
func (r *jfrReader) stack(ref types.StackTraceRef) *symbol.Stack {
	syms := r.ctx.Symbols()
	st := r.p.GetStacktrace(ref)
	if st == nil || len(st.Frames) == 0 {
		return syms.Empty()
	}
	frames := make([]*symbol.Frame, len(st.Frames))
	for i, f := range st.Frames {
		class, method := "", "<unknown>"
		if m := r.p.GetMethod(f.Method); m != nil {
			method = r.p.GetSymbolString(m.Name)
			if c := r.p.GetClass(m.Type); c != nil {
				class = strings.ReplaceAll(r.p.GetSymbolString(c.Name), "/", ".")
			}
		}
		frames[i] = syms.Frame(class, method, "", int32(f.LineNumber), 0, "")
	}
	return syms.Stack(frames)
}

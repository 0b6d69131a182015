package analysis

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jerrinot/jfrlens/internal/jfr/event"
	"github.com/jerrinot/jfrlens/internal/jfr/symbol"
)

// ErrUnsupportedEvent is returned when an extractor is handed an event kind
// it never declared.
var ErrUnsupportedEvent = errors.New("unsupported event")

type handler func(e *event.Event)

// extractor is one dimension's single-pass visitor.
type extractor interface {
	base() *visitor
	fillResult(r *Result) error
}

// visitor is the dispatch table every extractor embeds. Kinds without a
// handler are rejected.
type visitor struct {
	ctx      *Context
	dim      Dimension
	handlers map[event.Kind]handler
	schemas  map[event.Kind]event.Schema
}

func newVisitor(ctx *Context, dim Dimension) visitor {
	return visitor{
		ctx:      ctx,
		dim:      dim,
		handlers: make(map[event.Kind]handler),
		schemas:  make(map[event.Kind]event.Schema),
	}
}

func (v *visitor) base() *visitor { return v }

// on registers h for a kind. Events of that kind are validated against the
// fields h reads before h sees them.
func (v *visitor) on(kind event.Kind, h handler, reads ...event.Field) {
	v.handlers[kind] = h
	v.schemas[kind] = event.Schema{Type: kind.String(), Fields: reads}
}

// catalogue returns every field the catalogue declares for kind.
func catalogue(kind event.Kind) []event.Field {
	s, ok := event.SchemaFor(kind.String())
	if !ok {
		panic(fmt.Sprintf("no schema for %s", kind))
	}
	return s.Fields
}

// kinds lists the registered kinds in ascending order.
func (v *visitor) kinds() []event.Kind {
	out := make([]event.Kind, 0, len(v.handlers))
	for k := range v.handlers {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (v *visitor) visit(e *event.Event) error {
	h, ok := v.handlers[e.Kind()]
	if !ok {
		return fmt.Errorf("%s extractor: %s: %w", v.dim, e.Type().Name, ErrUnsupportedEvent)
	}
	if err := v.schemas[e.Kind()].Validate(e); err != nil {
		return fmt.Errorf("%s extractor: %w", v.dim, err)
	}
	h(e)
	return nil
}

// anomaly logs and counts a data-integrity problem.
func (v *visitor) anomaly(msg string, fields ...zap.Field) {
	v.ctx.log.Warn(msg, append([]zap.Field{zap.Stringer("dimension", v.dim)}, fields...)...)
	v.ctx.opts.Metrics.Anomaly(v.dim.String())
}

// stackOf returns the event's stack, or the canonical empty stack.
func (v *visitor) stackOf(e *event.Event) *symbol.Stack {
	if s := e.Stack(); s != nil {
		return s
	}
	return v.ctx.symbols.Empty()
}

// taskMap holds one accumulator per task, keyed by task id, in
// first-reference order.
type taskMap[A any] struct {
	byID  map[int64]*A
	tasks []*event.Task
}

func newTaskMap[A any]() taskMap[A] {
	return taskMap[A]{byID: make(map[int64]*A)}
}

func (m *taskMap[A]) get(t *event.Task) *A {
	if a, ok := m.byID[t.ID]; ok {
		return a
	}
	a := new(A)
	m.byID[t.ID] = a
	m.tasks = append(m.tasks, t)
	return a
}

func (m *taskMap[A]) each(fn func(*event.Task, *A)) {
	for _, t := range m.tasks {
		fn(t, m.byID[t.ID])
	}
}

func (m *taskMap[A]) len() int { return len(m.tasks) }

// stackMap accumulates weight per canonical stack in first-seen order.
type stackMap struct {
	weights map[*symbol.Stack]int64
	order   []*symbol.Stack
}

func (m *stackMap) add(s *symbol.Stack, w int64) {
	if m.weights == nil {
		m.weights = make(map[*symbol.Stack]int64)
	}
	if _, ok := m.weights[s]; !ok {
		m.order = append(m.order, s)
	}
	m.weights[s] += w
}

// scaled returns a copy with every weight multiplied by f.
func (m *stackMap) scaled(f int64) *stackMap {
	out := &stackMap{}
	for _, s := range m.order {
		out.add(s, m.weights[s]*f)
	}
	return out
}

// merge adds every entry of o.
func (m *stackMap) merge(o *stackMap) {
	for _, s := range o.order {
		m.add(s, o.weights[s])
	}
}

// format resolves the stacks to labels, merging stacks that format alike.
// Zero weights are dropped. The result is sorted by weight, descending,
// then by path.
func (m *stackMap) format() []StackWeight {
	byKey := make(map[string]int, len(m.order))
	var out []StackWeight
	for _, s := range m.order {
		w := m.weights[s]
		if w == 0 {
			continue
		}
		frames := s.Labels()
		if len(frames) == 0 {
			frames = []string{NoStackTrace}
		}
		k := s.Key()
		if s.Empty() {
			k = NoStackTrace
		}
		if i, ok := byKey[k]; ok {
			out[i].Weight += w
			continue
		}
		byKey[k] = len(out)
		out = append(out, StackWeight{Frames: frames, Weight: w})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

// checkIntegrity logs a task whose total disagrees with its stack weights.
func (v *visitor) checkIntegrity(t *TaskResult) {
	sum := t.StackTotal()
	switch {
	case t.Value < 0:
		v.anomaly("negative task total", zap.Stringer("task", t.Task), zap.Int64("value", t.Value))
	case t.Value != sum:
		v.anomaly("task total differs from stack weights", zap.Stringer("task", t.Task), zap.Int64("value", t.Value), zap.Int64("stacks", sum))
	}
}

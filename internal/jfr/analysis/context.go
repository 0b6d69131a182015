// Package analysis runs the per-dimension extractors over the events of one
// recording and assembles their per-task results.
package analysis

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jerrinot/jfrlens/internal/jfr/event"
	"github.com/jerrinot/jfrlens/internal/jfr/symbol"
	"github.com/jerrinot/jfrlens/internal/telemetry"
)

// DefaultAsyncProfilerInterval is the sampling interval assumed for external
// profiler recordings that carry no interval setting.
const DefaultAsyncProfilerInterval = 10 * time.Millisecond

// Options configure a Context.
type Options struct {
	Logger  *zap.Logger
	Metrics *telemetry.Metrics
	// AsyncProfilerInterval overrides DefaultAsyncProfilerInterval.
	AsyncProfilerInterval time.Duration
}

// Context holds everything one analysis pass reads: the ordered events, the
// type table, the task cache and the symbol table. A Context belongs to one
// recording and is not safe for concurrent use.
type Context struct {
	opts    Options
	log     *zap.Logger
	symbols *symbol.Table

	typeByName map[string]event.Type
	typeByID   map[int64]event.Type
	nextID     int64

	tasks     map[int64]*event.Task
	taskOrder []*event.Task
	noThread  *event.Task

	events []*event.Event
}

// NoThreadID is the id of the task events without a thread are charged to.
const NoThreadID int64 = -1

// NewContext returns an empty context.
func NewContext(opts Options) *Context {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.AsyncProfilerInterval <= 0 {
		opts.AsyncProfilerInterval = DefaultAsyncProfilerInterval
	}
	return &Context{
		opts:       opts,
		log:        opts.Logger,
		symbols:    symbol.NewTable(),
		typeByName: make(map[string]event.Type),
		typeByID:   make(map[int64]event.Type),
		nextID:     1,
		tasks:      make(map[int64]*event.Task),
		noThread:   &event.Task{ID: NoThreadID, Name: "<no thread>"},
	}
}

// Logger returns the context's logger.
func (c *Context) Logger() *zap.Logger { return c.log }

// Symbols returns the shared symbol table.
func (c *Context) Symbols() *symbol.Table { return c.symbols }

// DeclareType records the numeric id of a type name. The first id declared
// for a name is the one TypeID reports; every declared id resolves.
func (c *Context) DeclareType(id int64, name string) event.Type {
	t := event.NewType(id, name)
	c.typeByID[id] = t
	if _, ok := c.typeByName[name]; !ok {
		c.typeByName[name] = t
	}
	if id >= c.nextID {
		c.nextID = id + 1
	}
	return t
}

// Type returns the declared type for name, declaring it with a fresh id if
// the recording never did.
func (c *Context) Type(name string) event.Type {
	if t, ok := c.typeByName[name]; ok {
		return t
	}
	return c.DeclareType(c.nextID, name)
}

// TypeByID resolves a declared id.
func (c *Context) TypeByID(id int64) (event.Type, bool) {
	t, ok := c.typeByID[id]
	return t, ok
}

// TypeID returns the id declared for name.
func (c *Context) TypeID(name string) (int64, bool) {
	t, ok := c.typeByName[name]
	return t.ID, ok
}

// IsExecutionSample reports whether id denotes jdk.ExecutionSample.
func (c *Context) IsExecutionSample(id int64) bool {
	t, ok := c.typeByID[id]
	return ok && t.Kind == event.KindExecutionSample
}

// Types lists every declared type ordered by id.
func (c *Context) Types() []event.Type {
	out := make([]event.Type, 0, len(c.typeByID))
	for _, t := range c.typeByID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Task returns the task with the given id, creating it on first reference.
// A later call may supply a name or OS id the first one lacked.
func (c *Context) Task(id, osID int64, name string) *event.Task {
	if t, ok := c.tasks[id]; ok {
		if t.Name == "" {
			t.Name = name
		}
		if t.OSID == 0 {
			t.OSID = osID
		}
		return t
	}
	t := &event.Task{ID: id, OSID: osID, Name: name}
	c.tasks[id] = t
	c.taskOrder = append(c.taskOrder, t)
	return t
}

// Tasks lists the tasks in first-reference order.
func (c *Context) Tasks() []*event.Task { return c.taskOrder }

// taskOf returns the event's thread, or the shared no-thread task.
func (c *Context) taskOf(e *event.Event) *event.Task {
	if t := e.Thread(); t != nil {
		return t
	}
	return c.noThread
}

// Add appends an event. Events must be added in recording order.
func (c *Context) Add(e *event.Event) {
	c.events = append(c.events, e)
}

// Events returns the events in recording order.
func (c *Context) Events() []*event.Event { return c.events }

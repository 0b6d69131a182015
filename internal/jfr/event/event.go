package event

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jerrinot/jfrlens/internal/jfr/symbol"
)

var (
	// ErrFieldMissing is returned when an event lacks a requested field.
	ErrFieldMissing = errors.New("field missing")
	// ErrFieldKind is returned when a field is read as the wrong kind.
	ErrFieldKind = errors.New("field kind mismatch")
)

// FieldKind is the declared type of an event field.
type FieldKind uint8

const (
	FieldInt FieldKind = iota + 1
	FieldLong
	FieldFloat
	FieldDouble
	FieldString
	FieldBool
	FieldThread
)

var fieldKindNames = map[FieldKind]string{
	FieldInt:    "int",
	FieldLong:   "long",
	FieldFloat:  "float",
	FieldDouble: "double",
	FieldString: "string",
	FieldBool:   "bool",
	FieldThread: "thread",
}

func (k FieldKind) String() string {
	if s, ok := fieldKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("FieldKind(%d)", uint8(k))
}

// accepts reports whether a value stored as have can be read as k.
// Integers and floats widen; nothing narrows.
func (k FieldKind) accepts(have FieldKind) bool {
	switch {
	case k == have:
		return true
	case k == FieldLong && have == FieldInt:
		return true
	case k == FieldDouble && have == FieldFloat:
		return true
	}
	return false
}

// Task is a thread identity. Tasks compare by ID; Name is a display label
// and may be shared by distinct tasks.
type Task struct {
	ID   int64
	OSID int64
	Name string
}

func (t *Task) String() string {
	if t == nil {
		return "<no thread>"
	}
	return fmt.Sprintf("%s [%d]", t.Name, t.ID)
}

// Value is a tagged field value.
type Value struct {
	kind FieldKind
	i    int64
	f    float64
	s    string
	t    *Task
}

func Int(v int32) Value      { return Value{kind: FieldInt, i: int64(v)} }
func Long(v int64) Value     { return Value{kind: FieldLong, i: v} }
func Float(v float32) Value  { return Value{kind: FieldFloat, f: float64(v)} }
func Double(v float64) Value { return Value{kind: FieldDouble, f: v} }
func String(v string) Value  { return Value{kind: FieldString, s: v} }
func Thread(v *Task) Value   { return Value{kind: FieldThread, t: v} }
func Bool(v bool) Value {
	if v {
		return Value{kind: FieldBool, i: 1}
	}
	return Value{kind: FieldBool}
}

// Kind returns the stored kind.
func (v Value) Kind() FieldKind { return v.kind }

// Interface returns the value as a plain Go value.
func (v Value) Interface() any {
	switch v.kind {
	case FieldInt:
		return int32(v.i)
	case FieldLong:
		return v.i
	case FieldFloat:
		return float32(v.f)
	case FieldDouble:
		return v.f
	case FieldString:
		return v.s
	case FieldBool:
		return v.i != 0
	case FieldThread:
		return v.t
	}
	return nil
}

// Fields is the field bag of an event.
type Fields map[string]Value

// Event is an immutable typed record.
type Event struct {
	typ      Type
	start    int64
	duration int64
	thread   *Task
	stack    *symbol.Stack
	fields   Fields
}

// New builds an event. The field bag is owned by the event afterwards.
func New(typ Type, start, duration int64, thread *Task, stack *symbol.Stack, fields Fields) *Event {
	return &Event{
		typ:      typ,
		start:    start,
		duration: duration,
		thread:   thread,
		stack:    stack,
		fields:   fields,
	}
}

func (e *Event) Type() Type           { return e.typ }
func (e *Event) Kind() Kind           { return e.typ.Kind }
func (e *Event) Start() int64         { return e.start }
func (e *Event) Duration() int64      { return e.duration }
func (e *Event) Thread() *Task        { return e.thread }
func (e *Event) Stack() *symbol.Stack { return e.stack }

// Field returns the raw value of a field.
func (e *Event) Field(name string) (Value, bool) {
	v, ok := e.fields[name]
	return v, ok
}

// FieldNames returns the names of all fields, sorted.
func (e *Event) FieldNames() []string {
	names := make([]string, 0, len(e.fields))
	for n := range e.fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (e *Event) lookup(name string, want FieldKind) (Value, error) {
	v, ok := e.fields[name]
	if !ok {
		return Value{}, fmt.Errorf("%s.%s: %w", e.typ.Name, name, ErrFieldMissing)
	}
	if !want.accepts(v.kind) {
		return Value{}, fmt.Errorf("%s.%s is %s, read as %s: %w", e.typ.Name, name, v.kind, want, ErrFieldKind)
	}
	return v, nil
}

func (e *Event) LookupInt(name string) (int32, error) {
	v, err := e.lookup(name, FieldInt)
	return int32(v.i), err
}

func (e *Event) LookupLong(name string) (int64, error) {
	v, err := e.lookup(name, FieldLong)
	return v.i, err
}

func (e *Event) LookupFloat(name string) (float32, error) {
	v, err := e.lookup(name, FieldFloat)
	return float32(v.f), err
}

func (e *Event) LookupDouble(name string) (float64, error) {
	v, err := e.lookup(name, FieldDouble)
	return v.f, err
}

func (e *Event) LookupString(name string) (string, error) {
	v, err := e.lookup(name, FieldString)
	return v.s, err
}

func (e *Event) LookupBool(name string) (bool, error) {
	v, err := e.lookup(name, FieldBool)
	return v.i != 0, err
}

func (e *Event) LookupThread(name string) (*Task, error) {
	v, err := e.lookup(name, FieldThread)
	return v.t, err
}

// The accessors below panic when the field is absent or of another kind.
// Extractors only read fields their schema declares, and events are
// validated against that schema before dispatch, so a panic here is a bug.

func (e *Event) Int(name string) int32          { return must(e.LookupInt(name)) }
func (e *Event) Long(name string) int64         { return must(e.LookupLong(name)) }
func (e *Event) Float(name string) float32      { return must(e.LookupFloat(name)) }
func (e *Event) Double(name string) float64     { return must(e.LookupDouble(name)) }
func (e *Event) StringField(name string) string { return must(e.LookupString(name)) }
func (e *Event) Bool(name string) bool          { return must(e.LookupBool(name)) }
func (e *Event) ThreadField(name string) *Task  { return must(e.LookupThread(name)) }

// Has reports whether the field is present.
func (e *Event) Has(name string) bool {
	_, ok := e.fields[name]
	return ok
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

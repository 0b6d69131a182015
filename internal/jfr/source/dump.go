package source

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/event"
	"github.com/jerrinot/jfrlens/internal/jfr/symbol"
)

// ErrBadRecord is returned for dump lines that do not decode.
var ErrBadRecord = errors.New("bad dump record")

const (
	recordType  = "type"
	recordEvent = "event"
)

// record is one line of a JSON-lines event dump.
type record struct {
	Kind string `json:"kind"`

	// type records
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`

	// event records
	Type       int64                      `json:"type,omitempty"`
	StartTime  int64                      `json:"startTime,omitempty"`
	Duration   int64                      `json:"duration,omitempty"`
	Thread     *threadRecord              `json:"thread,omitempty"`
	StackTrace []frameRecord              `json:"stackTrace,omitempty"`
	Fields     map[string]json.RawMessage `json:"fields,omitempty"`
}

type threadRecord struct {
	ID   int64  `json:"id"`
	OSID int64  `json:"osId,omitempty"`
	Name string `json:"name,omitempty"`
}

// frameRecord is one frame, leaf first within a stack.
type frameRecord struct {
	Class      string `json:"class,omitempty"`
	Method     string `json:"method"`
	Descriptor string `json:"descriptor,omitempty"`
	Line       int32  `json:"line,omitempty"`
	BCI        int32  `json:"bci,omitempty"`
	Type       string `json:"type,omitempty"`
}

// ReadDump decodes a JSON-lines event dump into ctx. Types must be
// declared before the events that use them.
func ReadDump(r io.Reader, ctx *analysis.Context) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("line %d: %w: %v", line, ErrBadRecord, err)
		}
		if err := decode(ctx, &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return scanner.Err()
}

func decode(ctx *analysis.Context, rec *record) error {
	switch rec.Kind {
	case recordType:
		if rec.Name == "" {
			return fmt.Errorf("%w: type %d has no name", ErrBadRecord, rec.ID)
		}
		ctx.DeclareType(rec.ID, rec.Name)
		return nil
	case recordEvent:
		typ, ok := ctx.TypeByID(rec.Type)
		if !ok {
			return fmt.Errorf("%w: undeclared type %d", ErrBadRecord, rec.Type)
		}
		var thread *event.Task
		if rec.Thread != nil {
			thread = ctx.Task(rec.Thread.ID, rec.Thread.OSID, rec.Thread.Name)
		}
		fields, err := decodeFields(ctx, typ.Name, rec.Fields)
		if err != nil {
			return err
		}
		ctx.Add(event.New(typ, rec.StartTime, rec.Duration, thread, decodeStack(ctx.Symbols(), rec.StackTrace), fields))
		return nil
	}
	return fmt.Errorf("%w: kind %q", ErrBadRecord, rec.Kind)
}

func decodeStack(syms *symbol.Table, frames []frameRecord) *symbol.Stack {
	if len(frames) == 0 {
		return nil
	}
	out := make([]*symbol.Frame, len(frames))
	for i, f := range frames {
		out[i] = syms.Frame(f.Class, f.Method, f.Descriptor, f.Line, f.BCI, f.Type)
	}
	return syms.Stack(out)
}

// decodeFields converts raw values to the kinds the catalogue declares.
// Fields the catalogue does not know are typed from their JSON shape.
func decodeFields(ctx *analysis.Context, typ string, raw map[string]json.RawMessage) (event.Fields, error) {
	fields := make(event.Fields, len(raw))
	for name, msg := range raw {
		kind, ok := event.FieldKindOf(typ, name)
		if !ok {
			kind = guessKind(msg)
		}
		v, err := decodeValue(ctx, kind, msg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrBadRecord, typ, name, err)
		}
		fields[name] = v
	}
	return fields, nil
}

func guessKind(msg json.RawMessage) event.FieldKind {
	var v any
	if err := json.Unmarshal(msg, &v); err != nil {
		return event.FieldString
	}
	switch x := v.(type) {
	case bool:
		return event.FieldBool
	case float64:
		if x == math.Trunc(x) {
			return event.FieldLong
		}
		return event.FieldDouble
	case map[string]any:
		return event.FieldThread
	}
	return event.FieldString
}

func decodeValue(ctx *analysis.Context, kind event.FieldKind, msg json.RawMessage) (event.Value, error) {
	switch kind {
	case event.FieldInt:
		var v int32
		err := json.Unmarshal(msg, &v)
		return event.Int(v), err
	case event.FieldLong:
		var v int64
		err := json.Unmarshal(msg, &v)
		return event.Long(v), err
	case event.FieldFloat:
		var v float32
		err := json.Unmarshal(msg, &v)
		return event.Float(v), err
	case event.FieldDouble:
		var v float64
		err := json.Unmarshal(msg, &v)
		return event.Double(v), err
	case event.FieldBool:
		var v bool
		err := json.Unmarshal(msg, &v)
		return event.Bool(v), err
	case event.FieldThread:
		var t *threadRecord
		if err := json.Unmarshal(msg, &t); err != nil {
			return event.Value{}, err
		}
		if t == nil {
			return event.Thread(nil), nil
		}
		return event.Thread(ctx.Task(t.ID, t.OSID, t.Name)), nil
	default:
		var v string
		err := json.Unmarshal(msg, &v)
		return event.String(v), err
	}
}

// WriteDump writes every type and event of ctx as a JSON-lines dump that
// ReadDump reads back.
func WriteDump(w io.Writer, ctx *analysis.Context) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, t := range ctx.Types() {
		if err := enc.Encode(record{Kind: recordType, ID: t.ID, Name: t.Name}); err != nil {
			return err
		}
	}
	for _, e := range ctx.Events() {
		rec, err := encodeEvent(e)
		if err != nil {
			return err
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func encodeEvent(e *event.Event) (*record, error) {
	rec := &record{
		Kind:      recordEvent,
		Type:      e.Type().ID,
		StartTime: e.Start(),
		Duration:  e.Duration(),
	}
	if t := e.Thread(); t != nil {
		rec.Thread = &threadRecord{ID: t.ID, OSID: t.OSID, Name: t.Name}
	}
	if st := e.Stack(); st != nil {
		for _, f := range st.Frames() {
			rec.StackTrace = append(rec.StackTrace, frameRecord{
				Class: f.Class, Method: f.Method, Descriptor: f.Descriptor,
				Line: f.Line, BCI: f.BCI, Type: f.Type,
			})
		}
	}
	names := e.FieldNames()
	if len(names) > 0 {
		rec.Fields = make(map[string]json.RawMessage, len(names))
	}
	for _, name := range names {
		v, _ := e.Field(name)
		var raw any = v.Interface()
		if t, ok := raw.(*event.Task); ok {
			raw = nil
			if t != nil {
				raw = threadRecord{ID: t.ID, OSID: t.OSID, Name: t.Name}
			}
		}
		msg, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", e.Type().Name, name, err)
		}
		rec.Fields[name] = msg
	}
	return rec, nil
}

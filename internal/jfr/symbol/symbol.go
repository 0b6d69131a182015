// Package symbol interns stack frames and stack traces so that structurally
// identical frames and stacks share one canonical object. Pointer equality on
// *Frame and *Stack is structural equality within one Table.
package symbol

import (
	"strconv"
	"strings"
)

// Frame is one canonical call frame.
type Frame struct {
	Class      string
	Method     string
	Descriptor string
	Line       int32
	BCI        int32
	Type       string

	id    int
	label string
}

// ID is the frame's index in its table.
func (f *Frame) ID() int { return f.id }

// Label formats the frame as class.method. The result is memoized.
func (f *Frame) Label() string {
	if f.label == "" {
		switch {
		case f.Class == "" && f.Method == "":
			f.label = "<unknown>"
		case f.Class == "":
			f.label = f.Method
		default:
			f.label = f.Class + "." + f.Method
		}
	}
	return f.label
}

// Stack is one canonical stack trace. Frames are held leaf-first, the order
// JFR records them in.
type Stack struct {
	table  *Table
	frames []*Frame
	id     int
	labels []string
}

// ID is the stack's index in its table. The empty stack is always 0.
func (s *Stack) ID() int { return s.id }

// Len returns the number of frames.
func (s *Stack) Len() int { return len(s.frames) }

// Empty reports whether the stack has no frames.
func (s *Stack) Empty() bool { return len(s.frames) == 0 }

// Frame returns frame i, counting from the leaf.
func (s *Stack) Frame(i int) *Frame { return s.frames[i] }

// Frames returns the frames leaf-first. The slice must not be modified.
func (s *Stack) Frames() []*Frame { return s.frames }

// Leaf returns the innermost frame, or nil for an empty stack.
func (s *Stack) Leaf() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[0]
}

// Truncate returns the interned stack made of frames[i:], i.e. frame i
// becomes the new leaf and everything above it is dropped.
func (s *Stack) Truncate(i int) *Stack {
	if i <= 0 {
		return s
	}
	if i >= len(s.frames) {
		return s.table.empty
	}
	return s.table.Stack(s.frames[i:])
}

// Index returns the position of the first frame, leaf-first, whose label
// equals label, or -1.
func (s *Stack) Index(label string) int {
	for i, f := range s.frames {
		if f.Label() == label {
			return i
		}
	}
	return -1
}

// Labels returns the frame labels root-first. The result is memoized and
// must not be modified.
func (s *Stack) Labels() []string {
	if s.labels == nil {
		n := len(s.frames)
		s.labels = make([]string, n)
		for i, f := range s.frames {
			s.labels[n-1-i] = f.Label()
		}
	}
	return s.labels
}

// Key joins the root-first labels with ';', the collapsed-stack notation.
// Stacks that differ only in line or bytecode index share a key.
func (s *Stack) Key() string {
	return strings.Join(s.Labels(), ";")
}

type frameKey struct {
	class, method, descriptor string
	line, bci                 int32
	typ                       string
}

// Table interns frames and stacks for one analysis. It is not safe for
// concurrent use.
type Table struct {
	frames     []*Frame
	frameByKey map[frameKey]*Frame
	stacks     []*Stack
	stackByKey map[string]*Stack
	empty      *Stack
}

// NewTable returns an empty table.
func NewTable() *Table {
	t := &Table{
		frameByKey: make(map[frameKey]*Frame),
		stackByKey: make(map[string]*Stack),
	}
	t.empty = &Stack{table: t, frames: []*Frame{}, labels: []string{}}
	t.stacks = append(t.stacks, t.empty)
	t.stackByKey[""] = t.empty
	return t
}

// Frame returns the canonical frame for the given identity.
func (t *Table) Frame(class, method, descriptor string, line, bci int32, frameType string) *Frame {
	k := frameKey{class, method, descriptor, line, bci, frameType}
	if f, ok := t.frameByKey[k]; ok {
		return f
	}
	f := &Frame{
		Class:      class,
		Method:     method,
		Descriptor: descriptor,
		Line:       line,
		BCI:        bci,
		Type:       frameType,
		id:         len(t.frames),
	}
	t.frames = append(t.frames, f)
	t.frameByKey[k] = f
	return f
}

// Stack returns the canonical stack for frames, given leaf-first. All frames
// must come from this table.
func (t *Table) Stack(frames []*Frame) *Stack {
	if len(frames) == 0 {
		return t.empty
	}
	var b strings.Builder
	for i, f := range frames {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(f.id))
	}
	k := b.String()
	if s, ok := t.stackByKey[k]; ok {
		return s
	}
	s := &Stack{
		table:  t,
		frames: append([]*Frame(nil), frames...),
		id:     len(t.stacks),
	}
	t.stacks = append(t.stacks, s)
	t.stackByKey[k] = s
	return s
}

// Empty returns the canonical empty stack.
func (t *Table) Empty() *Stack { return t.empty }

// NumFrames returns the number of distinct frames interned so far.
func (t *Table) NumFrames() int { return len(t.frames) }

// NumStacks returns the number of distinct stacks interned so far, including
// the empty stack.
func (t *Table) NumStacks() int { return len(t.stacks) }

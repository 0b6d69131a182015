package event

import "fmt"

// Field declares one field of an event type.
type Field struct {
	Name     string
	Kind     FieldKind
	Optional bool
}

// Schema lists the fields a consumer reads from one event type.
type Schema struct {
	Type   string
	Fields []Field
}

// Validate checks that e carries every required field with an acceptable
// kind, and that optional fields, when present, have an acceptable kind.
func (s Schema) Validate(e *Event) error {
	for _, f := range s.Fields {
		v, ok := e.fields[f.Name]
		if !ok {
			if f.Optional {
				continue
			}
			return fmt.Errorf("%s.%s: %w", s.Type, f.Name, ErrFieldMissing)
		}
		if !f.Kind.accepts(v.kind) {
			return fmt.Errorf("%s.%s is %s, want %s: %w", s.Type, f.Name, v.kind, f.Kind, ErrFieldKind)
		}
	}
	return nil
}

// Field returns the declaration of the named field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func req(name string, kind FieldKind) Field { return Field{Name: name, Kind: kind} }
func opt(name string, kind FieldKind) Field { return Field{Name: name, Kind: kind, Optional: true} }

var catalogue = map[string]Schema{}

func declare(typ string, fields ...Field) {
	catalogue[typ] = Schema{Type: typ, Fields: fields}
}

func init() {
	declare(ExecutionSample)
	declare(WallClockSample, opt("samples", FieldInt))
	declare(NativeMethodSample)
	declare(AllocationInNewTLAB, req("tlabSize", FieldLong))
	declare(AllocationOutsideTLAB, req("allocationSize", FieldLong))
	declare(FileRead, req("bytesRead", FieldLong))
	declare(FileWrite, req("bytesWritten", FieldLong))
	declare(FileForce)
	declare(SocketRead, req("bytesRead", FieldLong))
	declare(SocketWrite, req("bytesWritten", FieldLong))
	declare(SocketConnect)
	declare(MonitorEnter)
	declare(MonitorWait)
	declare(ThreadPark)
	declare(ThreadSleep)
	declare(ClassLoad)
	declare(ActiveSetting, req("id", FieldLong), req("name", FieldString), req("value", FieldString))
	declare(CPUInformation, req("hwThreads", FieldInt))
	declare(ContainerConfiguration, req("effectiveCpuCount", FieldLong))
	declare(IntFlag, req("name", FieldString), req("value", FieldLong))
	declare(UnsignedIntFlag, req("name", FieldString), req("value", FieldLong))
	declare(GCConfiguration, req("parallelGCThreads", FieldInt), req("concurrentGCThreads", FieldInt))
	declare(GarbageCollection, req("name", FieldString))
	declare(ThreadCPULoad, req("user", FieldFloat), req("system", FieldFloat))
	declare(ThreadStart, req("thread", FieldThread))
	declare(ThreadEnd, req("thread", FieldThread))
	declare(ExecuteVMOperation, req("operation", FieldString), opt("caller", FieldThread))
}

// SchemaFor returns the catalogue schema of a JFR type.
func SchemaFor(typ string) (Schema, bool) {
	s, ok := catalogue[typ]
	return s, ok
}

// FieldKindOf returns the declared kind of a catalogue field.
func FieldKindOf(typ, field string) (FieldKind, bool) {
	s, ok := catalogue[typ]
	if !ok {
		return 0, false
	}
	f, ok := s.Field(field)
	return f.Kind, ok
}

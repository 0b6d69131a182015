package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"jdk.ExecutionSample", KindExecutionSample},
		{"profiler.WallClockSample", KindWallClockSample},
		{"jdk.ObjectAllocationOutsideTLAB", KindAllocationOutsideTLAB},
		{"jdk.ThreadCPULoad", KindThreadCPULoad},
		{"jdk.Unheard", KindUnknown},
		{"", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.name))
		})
	}
	assert.Equal(t, "jdk.FileRead", KindFileRead.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestTypedAccessors(t *testing.T) {
	task := &Task{ID: 7, Name: "main"}
	e := New(NewType(1, GCConfiguration), 10, 0, task, nil, Fields{
		"parallelGCThreads": Int(4),
		"size":              Long(1 << 40),
		"user":              Float(0.5),
		"name":              String("G1New"),
		"flag":              Bool(true),
		"caller":            Thread(task),
	})

	assert.Equal(t, int32(4), e.Int("parallelGCThreads"))
	assert.Equal(t, int64(4), e.Long("parallelGCThreads"), "int widens to long")
	assert.Equal(t, int64(1<<40), e.Long("size"))
	assert.InDelta(t, 0.5, e.Double("user"), 1e-9, "float widens to double")
	assert.Equal(t, "G1New", e.StringField("name"))
	assert.True(t, e.Bool("flag"))
	assert.Same(t, task, e.ThreadField("caller"))
	assert.Equal(t, []string{"caller", "flag", "name", "parallelGCThreads", "size", "user"}, e.FieldNames())

	_, err := e.LookupInt("size")
	require.ErrorIs(t, err, ErrFieldKind, "long does not narrow to int")

	_, err = e.LookupString("absent")
	require.ErrorIs(t, err, ErrFieldMissing)
	assert.Contains(t, err.Error(), "jdk.GCConfiguration.absent")

	assert.Panics(t, func() { e.Long("absent") })
	assert.Panics(t, func() { e.StringField("size") })
}

func TestSchemaValidate(t *testing.T) {
	s, ok := SchemaFor(WallClockSample)
	require.True(t, ok)

	plain := New(NewType(2, WallClockSample), 0, 0, nil, nil, Fields{})
	assert.NoError(t, s.Validate(plain), "samples is optional")

	bad := New(NewType(2, WallClockSample), 0, 0, nil, nil, Fields{"samples": String("x")})
	assert.ErrorIs(t, s.Validate(bad), ErrFieldKind)

	s, ok = SchemaFor(FileRead)
	require.True(t, ok)
	missing := New(NewType(3, FileRead), 0, 0, nil, nil, Fields{})
	assert.ErrorIs(t, s.Validate(missing), ErrFieldMissing)

	k, ok := FieldKindOf(ThreadCPULoad, "user")
	assert.True(t, ok)
	assert.Equal(t, FieldFloat, k)
	_, ok = FieldKindOf(ThreadCPULoad, "nope")
	assert.False(t, ok)
}

func TestValueInterface(t *testing.T) {
	assert.Equal(t, int32(3), Int(3).Interface())
	assert.Equal(t, int64(3), Long(3).Interface())
	assert.Equal(t, "x", String("x").Interface())
	assert.Equal(t, false, Bool(false).Interface())
	assert.Nil(t, Value{}.Interface())
}

package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/event"
	"github.com/jerrinot/jfrlens/internal/jfr/flame"
)

func tasks() []*analysis.TaskResult {
	return []*analysis.TaskResult{
		{Task: &event.Task{ID: 3, Name: "Thread-3"}, Value: 6651, Stacks: []analysis.StackWeight{
			{Frames: []string{"App.run", "java.io.FileInputStream.read"}, Weight: 5352},
			{Frames: []string{"App.run", "java.io.RandomAccessFile.read"}, Weight: 1299},
		}},
		{Task: &event.Task{ID: 4, Name: "Thread-4"}, Value: 10, Stacks: []analysis.StackWeight{
			{Frames: []string{"App.run", "java.io.FileInputStream.read"}, Weight: 10},
		}},
	}
}

func TestPProfRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePProf(&buf, analysis.FileReadSize, tasks()))

	p, err := profile.Parse(&buf)
	require.NoError(t, err)
	require.Len(t, p.SampleType, 1)
	assert.Equal(t, "file-read-size", p.SampleType[0].Type)
	assert.Equal(t, "bytes", p.SampleType[0].Unit)
	require.Len(t, p.Sample, 3)
	assert.Len(t, p.Location, 3)
	assert.Len(t, p.Function, 3)

	first := p.Sample[0]
	assert.Equal(t, []int64{5352}, first.Value)
	assert.Equal(t, []string{"Thread-3"}, first.Label["thread"])
	assert.Equal(t, []int64{3}, first.NumLabel["tid"])
	require.Len(t, first.Location, 2)
	assert.Equal(t, "java.io.FileInputStream.read", first.Location[0].Line[0].Function.Name)
	assert.Equal(t, "java.io.FileInputStream", first.Location[0].Line[0].Function.Filename)
	assert.Equal(t, "App.run", first.Location[1].Line[0].Function.Name)
	assert.Same(t, first.Location[0], p.Sample[2].Location[0])
}

func TestPProfUnits(t *testing.T) {
	assert.Equal(t, "nanoseconds", PProf(analysis.CPUTime, nil).SampleType[0].Unit)
	assert.Equal(t, "count", PProf(analysis.LockAcquire, nil).SampleType[0].Unit)
}

func TestWriteCollapsed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCollapsed(&buf, tasks(), true))
	assert.Equal(t, strings.Join([]string{
		"[Thread-3 tid=3];App.run;java.io.FileInputStream.read 5352",
		"[Thread-3 tid=3];App.run;java.io.RandomAccessFile.read 1299",
		"[Thread-4 tid=4];App.run;java.io.FileInputStream.read 10",
		"",
	}, "\n"), buf.String())

	buf.Reset()
	require.NoError(t, WriteCollapsed(&buf, tasks()[1:], false))
	assert.Equal(t, "App.run;java.io.FileInputStream.read 10\n", buf.String())
}

func TestWriteGraph(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGraph(&buf, tasks()))
	assert.Contains(t, buf.String(), `"symbols": [`)
	assert.Contains(t, buf.String(), `"taskId": 4`)

	var g flame.Graph
	require.NoError(t, json.Unmarshal(buf.Bytes(), &g))
	assert.Equal(t, []string{"App.run", "java.io.FileInputStream.read", "java.io.RandomAccessFile.read"}, g.Symbols)
	assert.Len(t, g.Data, 3)
}

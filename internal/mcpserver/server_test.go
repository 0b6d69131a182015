package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/event"
	"github.com/jerrinot/jfrlens/internal/jfr/source"
	"github.com/jerrinot/jfrlens/internal/jfr/symbol"
	"github.com/jerrinot/jfrlens/internal/session"
)

// writeRecording dumps two threads allocating from different call sites.
func writeRecording(t *testing.T) string {
	t.Helper()
	ctx := analysis.NewContext(analysis.Options{})
	syms := ctx.Symbols()
	main := ctx.Task(1, 0, "main")
	worker := ctx.Task(2, 0, "worker-1")
	app := syms.Frame("App", "main", "()V", 3, 0, "Interpreted")
	str := syms.Frame("java.lang.String", "<init>", "()V", 10, 0, "JIT compiled")
	run := syms.Frame("Worker", "run", "()V", 7, 0, "Interpreted")
	ctor := syms.Stack([]*symbol.Frame{str, app})
	work := syms.Stack([]*symbol.Frame{run})
	typ := ctx.Type(event.AllocationInNewTLAB)
	for i := 0; i < 3; i++ {
		ctx.Add(event.New(typ, int64(i), 0, main, ctor, event.Fields{"tlabSize": event.Long(100)}))
	}
	ctx.Add(event.New(typ, 5, 0, main, syms.Stack([]*symbol.Frame{app}), event.Fields{"tlabSize": event.Long(100)}))
	ctx.Add(event.New(typ, 6, 0, worker, work, event.Fields{"tlabSize": event.Long(100)}))

	path := filepath.Join(t.TempDir(), "rec.jsonl")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, source.WriteDump(f, ctx))
	require.NoError(t, f.Close())
	return path
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return tc.Text
}

func newServer() *Server {
	return New(session.New(session.Options{}), analysis.Allocations|analysis.AllocatedMemory, "test", nil)
}

func TestAnalyzeProfile(t *testing.T) {
	s := newServer()
	path := writeRecording(t)

	res, err := s.handleAnalyze(context.Background(), call("analyze_profile", map[string]any{"path": path}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	out := text(t, res)
	assert.Contains(t, out, "=== alloc ===")
	assert.Contains(t, out, "=== mem ===")
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "80.00%")

	res, err = s.handleAnalyze(context.Background(), call("analyze_profile", map[string]any{"path": path, "dimensions": "alloc"}))
	require.NoError(t, err)
	assert.NotContains(t, text(t, res), "=== mem ===")
}

func TestAnalyzeProfileErrors(t *testing.T) {
	s := newServer()
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing path", map[string]any{}, "path"},
		{"bad dimension", map[string]any{"path": "x.jsonl", "dimensions": "gpu"}, "gpu"},
		{"missing file", map[string]any{"path": filepath.Join(t.TempDir(), "nope.jsonl")}, "nope.jsonl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleAnalyze(context.Background(), call("analyze_profile", tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, text(t, res), tt.want)
		})
	}
}

func TestTopLeaves(t *testing.T) {
	s := newServer()
	path := writeRecording(t)

	res, err := s.handleTopLeaves(context.Background(), call("top_leaves", map[string]any{
		"path": path, "dimension": "alloc", "thread": "main",
	}))
	require.NoError(t, err)
	out := text(t, res)
	assert.Contains(t, out, "=== alloc: main (tid 1) total=4 ===")
	assert.Contains(t, out, "java.lang.String.<init>")
	assert.Contains(t, out, "75.00%")
	assert.NotContains(t, out, "worker-1")

	res, err = s.handleTopLeaves(context.Background(), call("top_leaves", map[string]any{
		"path": path, "dimension": "alloc", "tid": float64(2), "n": float64(1),
	}))
	require.NoError(t, err)
	out = text(t, res)
	assert.Contains(t, out, "Worker.run")
	assert.NotContains(t, out, "main")

	res, err = s.handleTopLeaves(context.Background(), call("top_leaves", map[string]any{
		"path": path, "dimension": "alloc", "thread": "gc",
	}))
	require.NoError(t, err)
	assert.Equal(t, "no matching threads", text(t, res))
}

func TestTopLeavesNotApplicable(t *testing.T) {
	s := newServer()
	res, err := s.handleTopLeaves(context.Background(), call("top_leaves", map[string]any{
		"path": writeRecording(t), "dimension": "wall",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "wall is not applicable to this recording", text(t, res))
}

func TestListTasks(t *testing.T) {
	s := newServer()
	path := writeRecording(t)

	res, err := s.handleListTasks(context.Background(), call("list_tasks", map[string]any{
		"path": path, "dimension": "alloc",
	}))
	require.NoError(t, err)
	out := text(t, res)
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "worker-1")
	assert.Less(t, strings.Index(out, "main"), strings.Index(out, "worker-1"))

	res, err = s.handleListTasks(context.Background(), call("list_tasks", map[string]any{"path": path}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

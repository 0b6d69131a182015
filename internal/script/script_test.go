package script

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/event"
	"github.com/jerrinot/jfrlens/internal/jfr/symbol"
)

func allocResult(t *testing.T) *analysis.Result {
	t.Helper()
	ctx := analysis.NewContext(analysis.Options{})
	main := ctx.Task(1, 0, "main")
	syms := ctx.Symbols()
	ctor := syms.Stack([]*symbol.Frame{syms.Frame("java.lang.String", "<init>", "", 0, 0, ""), syms.Frame("App", "main", "", 0, 0, "")})
	for i := 0; i < 3; i++ {
		ctx.Add(event.New(ctx.Type(event.AllocationInNewTLAB), 0, 0, main, ctor, event.Fields{}))
	}
	ctx.Add(event.New(ctx.Type(event.AllocationInNewTLAB), 0, 0, main, nil, event.Fields{}))
	res, err := analysis.Run(ctx, analysis.Allocations|analysis.WallClock)
	require.NoError(t, err)
	return res
}

func TestRunScript(t *testing.T) {
	src := `
for t in result["alloc"]:
    print(t["name"], t["value"])
for l in leaves("alloc", 1, 1):
    print(l["name"], l["value"], l["percent"], ";".join(l["path"]))
print(result["wall"], dimensions, gc_cpu_time)
print(percent(13663, 13674))
`
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), &out, "q.star", src, allocResult(t)))
	assert.Equal(t, "main 4\n"+
		"java.lang.String.<init> 3 75.00 App.main;java.lang.String.<init>\n"+
		"None [\"wall\", \"alloc\"] None\n"+
		"99.92\n", out.String())
}

func TestRunScriptErrors(t *testing.T) {
	res := allocResult(t)
	tests := []struct {
		name, src, want string
	}{
		{"syntax", "def", "q.star:1"},
		{"unknown dimension", `leaves("gpu", 1)`, "unknown dimension"},
		{"not analyzed", `leaves("cpu", 1)`, "was not analyzed"},
		{"frozen result", `result["alloc"] = []`, "frozen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Run(context.Background(), &bytes.Buffer{}, "q.star", tt.src, res)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunScriptUnknownTask(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), &out, "q.star", `print(leaves("alloc", 99))`, allocResult(t)))
	assert.Equal(t, "[]\n", out.String())
}

func TestRunScriptCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := Run(ctx, &bytes.Buffer{}, "loop.star", "def f():\n    for i in range(1 << 40):\n        pass\nf()\n", allocResult(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancel")
}

func TestRunScriptFailedDimension(t *testing.T) {
	ctx := analysis.NewContext(analysis.Options{})
	ctx.DeclareType(101, event.ExecutionSample)
	ctx.Add(event.New(ctx.Type(event.ActiveSetting), 0, 0, nil, nil, event.Fields{
		"id":    event.Long(101),
		"name":  event.String("period"),
		"value": event.String("20 ms"),
	}))
	main := ctx.Task(1, 0, "main")
	ctx.Add(event.New(ctx.Type(event.ThreadCPULoad), 0, 0, main, nil, event.Fields{
		"user":   event.Float(0.5),
		"system": event.Float(0),
	}))
	ctx.Add(event.New(ctx.Type(event.AllocationInNewTLAB), 0, 0, main, nil, event.Fields{}))
	res, err := analysis.Run(ctx, analysis.CPUTime|analysis.Allocations)
	require.NoError(t, err)

	src := `
print(result["cpu"], len(result["alloc"]))
print("cpu" in errors, "alloc" in errors)
`
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), &out, "q.star", src, res))
	assert.Equal(t, "None 1\nTrue False\n", out.String())
}

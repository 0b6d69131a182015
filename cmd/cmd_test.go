package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/event"
	"github.com/jerrinot/jfrlens/internal/jfr/source"
	"github.com/jerrinot/jfrlens/internal/jfr/symbol"
)

// writeRecording dumps allocations: ctor events from main inside
// String.<init>, one from main in App.main itself, and work events from
// worker-1 in Worker.run.
func writeRecording(t *testing.T, name string, ctor, work int) string {
	t.Helper()
	ctx := analysis.NewContext(analysis.Options{})
	syms := ctx.Symbols()
	main := ctx.Task(1, 0, "main")
	worker := ctx.Task(2, 0, "worker-1")
	app := syms.Frame("App", "main", "()V", 3, 0, "Interpreted")
	str := syms.Frame("java.lang.String", "<init>", "()V", 10, 0, "JIT compiled")
	run := syms.Frame("Worker", "run", "()V", 7, 0, "Interpreted")
	typ := ctx.Type(event.AllocationInNewTLAB)
	add := func(th *event.Task, st *symbol.Stack, n int) {
		for i := 0; i < n; i++ {
			ctx.Add(event.New(typ, int64(i), 0, th, st, event.Fields{"tlabSize": event.Long(100)}))
		}
	}
	add(main, syms.Stack([]*symbol.Frame{str, app}), ctor)
	add(main, syms.Stack([]*symbol.Frame{app}), 1)
	add(worker, syms.Stack([]*symbol.Frame{run}), work)

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, source.WriteDump(f, ctx))
	require.NoError(t, f.Close())
	return path
}

func execute(args ...string) (string, error) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute("version")
	require.NoError(t, err)
	assert.Equal(t, "jfrlens version dev\n", out)
}

func TestAnalyze(t *testing.T) {
	path := writeRecording(t, "rec.jsonl", 3, 1)
	out, err := execute("analyze", path, "-d", "alloc,mem")
	require.NoError(t, err)
	assert.Contains(t, out, "=== alloc ===")
	assert.Contains(t, out, "=== mem ===")
	assert.Contains(t, out, "80.00%")
	assert.Contains(t, out, "400 B")
	assert.Less(t, strings.Index(out, "main"), strings.Index(out, "worker-1"))

	_, err = execute("analyze", path, "-d", "gpu")
	assert.ErrorIs(t, err, analysis.ErrUnknownDimension)
}

func TestAnalyzeDimensionsFromConfig(t *testing.T) {
	path := writeRecording(t, "rec.jsonl", 3, 1)
	cfg := filepath.Join(t.TempDir(), "jfrlens.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("analysis:\n  dimensions: [alloc]\n"), 0o644))

	out, err := execute("--config", cfg, "analyze", path)
	require.NoError(t, err)
	assert.Contains(t, out, "=== alloc ===")
	assert.NotContains(t, out, "=== cpu ===")
}

func TestBadLogLevel(t *testing.T) {
	_, err := execute("--log-level", "loud", "analyze", writeRecording(t, "rec.jsonl", 1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestThreads(t *testing.T) {
	path := writeRecording(t, "rec.jsonl", 3, 1)
	out, err := execute("threads", path, "-d", "alloc", "-t", "worker")
	require.NoError(t, err)
	assert.Contains(t, out, "worker-1")
	assert.NotContains(t, out, "main")
}

func TestLeaves(t *testing.T) {
	path := writeRecording(t, "rec.jsonl", 3, 1)
	out, err := execute("leaves", path, "-d", "alloc", "-t", "main", "--fqn")
	require.NoError(t, err)
	assert.Contains(t, out, "=== alloc: main (tid 1) total=4 ===")
	assert.Contains(t, out, "java.lang.String.<init>")
	assert.Contains(t, out, "75.00%")
	assert.Contains(t, out, "25.00%")

	out, err = execute("leaves", path, "-d", "alloc", "--tid", "2", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Worker.run")
	assert.NotContains(t, out, "String")
}

func TestLeavesErrors(t *testing.T) {
	path := writeRecording(t, "rec.jsonl", 3, 1)
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-d", "alloc", "--tid", "99"}, "no alloc data for tid 99"},
		{[]string{"-d", "alloc", "-t", "gc"}, `no alloc data for threads matching "gc"`},
		{[]string{"-d", "lock-acquire"}, "no lock-acquire data in this recording"},
		{[]string{"-d", "wall"}, "wall is not applicable to this recording"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			_, err := execute(append([]string{"leaves", path}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestTree(t *testing.T) {
	path := writeRecording(t, "rec.jsonl", 3, 1)
	out, err := execute("tree", path, "-d", "alloc")
	require.NoError(t, err)
	assert.Equal(t, "[80.00%] App.main  ← self=20.00%\n"+
		"  [60.00%] String.<init>  ← self=60.00%\n"+
		"[20.00%] Worker.run  ← self=20.00%\n", out)

	out, err = execute("tree", path, "-d", "alloc", "-m", "String", "--fqn")
	require.NoError(t, err)
	assert.Equal(t, "[60.00%] java.lang.String.<init>  ← self=60.00%\n", out)

	_, err = execute("tree", path, "-d", "alloc", "-m", "HashMap")
	assert.EqualError(t, err, `no frame matches "HashMap"`)
}

func TestTrace(t *testing.T) {
	path := writeRecording(t, "rec.jsonl", 3, 1)
	out, err := execute("trace", path, "-d", "alloc", "-t", "main")
	require.NoError(t, err)
	assert.Contains(t, out, "[100.00%] App.main")
	assert.Contains(t, out, "Hottest leaf: String.<init> (self=75.00%)")
}

func TestExport(t *testing.T) {
	path := writeRecording(t, "rec.jsonl", 3, 1)
	out, err := execute("export", path, "-d", "alloc", "--format", "collapsed", "--threads")
	require.NoError(t, err)
	assert.Contains(t, out, "[main tid=1];App.main;java.lang.String.<init> 3\n")
	assert.Contains(t, out, "[worker-1 tid=2];Worker.run 1\n")

	pb := filepath.Join(t.TempDir(), "alloc.pb.gz")
	_, err = execute("export", path, "-d", "alloc", "--format", "pprof", "-o", pb)
	require.NoError(t, err)
	f, err := os.Open(pb)
	require.NoError(t, err)
	defer f.Close()
	prof, err := profile.Parse(f)
	require.NoError(t, err)
	var total int64
	for _, s := range prof.Sample {
		total += s.Value[0]
	}
	assert.Equal(t, int64(5), total)

	out, err = execute("export", path, "-d", "alloc", "--format", "json", "--tid", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `"Worker.run"`)
	assert.NotContains(t, out, "String")

	_, err = execute("export", path, "--format", "svg")
	assert.EqualError(t, err, `invalid format "svg", valid: pprof, collapsed, json`)
}

func TestDiff(t *testing.T) {
	before := writeRecording(t, "before.jsonl", 3, 1)
	after := writeRecording(t, "after.jsonl", 1, 3)
	out, err := execute("diff", before, after, "-d", "alloc")
	require.NoError(t, err)
	assert.Contains(t, out, "REGRESSION\n  Worker.run")
	assert.Contains(t, out, "(+40.0%)")
	assert.Contains(t, out, "IMPROVEMENT\n  String.<init>")

	out, err = execute("diff", before, before, "-d", "alloc")
	require.NoError(t, err)
	assert.Equal(t, "no significant changes\n", out)
}

func TestEvents(t *testing.T) {
	out, err := execute("events", writeRecording(t, "rec.jsonl", 3, 1))
	require.NoError(t, err)
	assert.Contains(t, out, "EVENT")
	assert.Contains(t, out, event.AllocationInNewTLAB)
	assert.True(t, strings.HasSuffix(out, " 5\n"), out)
}

func TestConvert(t *testing.T) {
	path := writeRecording(t, "rec.jsonl", 3, 1)
	dst := filepath.Join(t.TempDir(), "copy.jsonl.gz")
	_, err := execute("convert", path, "-o", dst)
	require.NoError(t, err)

	out, err := execute("leaves", dst, "-d", "alloc", "-t", "main")
	require.NoError(t, err)
	assert.Contains(t, out, "75.00%")
}

func TestScript(t *testing.T) {
	path := writeRecording(t, "rec.jsonl", 3, 1)
	star := filepath.Join(t.TempDir(), "top.star")
	require.NoError(t, os.WriteFile(star, []byte(`
for task in result["alloc"]:
    print(task["name"], task["value"])
`), 0o644))

	out, err := execute("script", path, star, "-d", "alloc")
	require.NoError(t, err)
	assert.Equal(t, "main 4\nworker-1 1\n", out)
}

func TestHot(t *testing.T) {
	path := writeRecording(t, "rec.jsonl", 3, 1)
	out, err := execute("hot", path, "-d", "alloc")
	require.NoError(t, err)
	assert.Contains(t, out, "=== RANK BY SELF ===")
	assert.Contains(t, out, "String.<init>")

	_, err = execute("hot", path, "-d", "alloc", "--assert-below", "50")
	assert.EqualError(t, err, "assertion failed: String.<init> self=60.00% >= 50.0%")

	_, err = execute("hot", path, "-d", "alloc", "--assert-below", "61")
	assert.NoError(t, err)
}

func TestCallers(t *testing.T) {
	path := writeRecording(t, "rec.jsonl", 3, 1)
	out, err := execute("callers", path, "-d", "alloc", "-m", "String")
	require.NoError(t, err)
	assert.Equal(t, "[60.00%] String.<init>\n"+
		"  [60.00%] App.main  ← self=60.00%\n", out)

	_, err = execute("callers", path, "-d", "alloc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method")
}

func TestExportMethodFilter(t *testing.T) {
	path := writeRecording(t, "rec.jsonl", 3, 1)
	out, err := execute("export", path, "-d", "alloc", "-m", "String")
	require.NoError(t, err)
	assert.Equal(t, "java.lang.String.<init> 3\n", out)

	out, err = execute("export", path, "-d", "alloc", "-m", "String", "--include-callers")
	require.NoError(t, err)
	assert.Equal(t, "App.main;java.lang.String.<init> 3\n", out)

	_, err = execute("export", path, "-d", "alloc", "-m", "Nope")
	assert.EqualError(t, err, `no frame matches "Nope"`)
}

package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onedim/types"
)

const stackFile = "../../../config/testdata/stack.yaml"

func run(args ...string) (string, error) {
	cmd := newRootCommand("test", "none")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestSolveShowPlot(t *testing.T) {
	dir := t.TempDir()
	sol := filepath.Join(dir, "solution.yaml")
	t.Setenv("ONEDIM_OUTPUT_FILE", sol)
	t.Setenv("ONEDIM_OUTPUT_PLOT", filepath.Join(dir, "T.png"))
	t.Setenv("ONEDIM_OUTPUT_METRICS", filepath.Join(dir, "metrics.prom"))

	out, err := run("solve", "-c", stackFile, "--print", "--trace", filepath.Join(dir, "trace.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "> flow (reaction")
	assert.Contains(t, out, "newton")

	png, err := os.ReadFile(filepath.Join(dir, "T.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
	prom, err := os.ReadFile(filepath.Join(dir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "onedim_solves_total")
	trace, err := os.ReadFile(filepath.Join(dir, "trace.json"))
	require.NoError(t, err)
	assert.Contains(t, string(trace), "snapshots")

	out, err = run("show", sol)
	require.NoError(t, err)
	assert.Contains(t, out, "linear conduction")

	out, err = run("show", sol, "linear")
	require.NoError(t, err)
	assert.Contains(t, out, "> flow (reaction")

	_, err = run("plot", sol, "linear", "-o", filepath.Join(dir, "p.png"))
	require.NoError(t, err)

	_, err = run("show", sol, "missing")
	assert.ErrorIs(t, err, types.ErrNameNotFound)
	_, err = run("plot", sol, "linear", "--component", "Y", "-o", filepath.Join(dir, "y.png"))
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "y.png"), "失败时删除输出文件")
}

func TestSolveRequiresConfig(t *testing.T) {
	_, err := run("solve")
	assert.Error(t, err)
	_, err = run("solve", "-c", filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTypes(t *testing.T) {
	out, err := run("types")
	require.NoError(t, err)
	for _, typ := range []string{"fixed", "interface", "outlet", "reaction"} {
		assert.Contains(t, out, typ)
	}
}

func TestSolveSpans(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ONEDIM_OUTPUT_FILE", filepath.Join(dir, "solution.yaml"))
	spans := filepath.Join(dir, "spans.json")

	_, err := run("solve", "-c", stackFile, "--spans", spans)
	require.NoError(t, err)
	data, err := os.ReadFile(spans)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Name":"solve"`)
	assert.Contains(t, string(data), `"Name":"refine"`)
}

func TestSolveTraceCounts(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ONEDIM_OUTPUT_FILE", filepath.Join(dir, "solution.yaml"))

	var out, logs bytes.Buffer
	f := solveFlags{configPath: stackFile, tracePath: filepath.Join(dir, "trace.json")}
	require.NoError(t, runSolve(context.Background(), f, &out, &logs))
	assert.Contains(t, logs.String(), "写出求解快照")
	for _, stage := range []types.Stage{types.StageSteady, types.StageRefine} {
		assert.Contains(t, logs.String(), stage.String())
	}
	assert.FileExists(t, f.tracePath)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(stackFile)
	require.NoError(t, err)
	cfg := filepath.Join(dir, "stack.yaml")
	require.NoError(t, os.WriteFile(cfg, src, 0o644))
	sol := filepath.Join(dir, "solution.yaml")
	t.Setenv("ONEDIM_OUTPUT_FILE", sol)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, solveFlags{configPath: cfg}, 2, &buf, io.Discard)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(sol)
		return err == nil
	}, 10*time.Second, 20*time.Millisecond, "首次求解写出解文件")
	require.NoError(t, os.WriteFile(cfg, src, 0o644))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("配置变化后未重新求解")
	}
	assert.Equal(t, 2, strings.Count(buf.String(), ": ok\n"))
}

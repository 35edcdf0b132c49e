package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingRun = `{"Action":"start","Package":"example.com/pkg"}
{"Action":"run","Package":"example.com/pkg","Test":"TestA"}
{"Action":"pass","Package":"example.com/pkg","Test":"TestA","Elapsed":0.1}
{"Action":"skip","Package":"example.com/pkg","Test":"TestB"}
{"Action":"pass","Package":"example.com/pkg","Elapsed":0.2}
`

const failingRun = `{"Action":"run","Package":"example.com/pkg","Test":"TestA"}
{"Action":"fail","Package":"example.com/pkg","Test":"TestA","Elapsed":0.1}
{"Action":"run","Package":"example.com/pkg","Test":"TestB"}
{"Action":"output","Package":"example.com/pkg","Test":"TestB","Output":"WARNING: slow\n"}
{"Action":"fail","Package":"example.com/pkg","Elapsed":0.2}
`

// runTally runs the CLI with an isolated config lookup.
func runTally(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	return runTallyContext(t, context.Background(), strings.NewReader(stdin), args...)
}

func runTallyContext(t *testing.T, ctx context.Context, stdin io.Reader, args ...string) (int, string, string) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	var stdout, stderr bytes.Buffer
	code := run(ctx, append([]string{"tally"}, args...), stdin, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_PassingRunExitsClean(t *testing.T) {
	code, out, errOut := runTally(t, passingRun, "--format", "plain")

	assert.Equal(t, ExitClean, code, errOut)
	assert.Equal(t, "total=2 skipped=1 passed=1\n", out)
}

func TestRun_FailOnCategoryExitsOne(t *testing.T) {
	code, out, _ := runTally(t, failingRun, "--format", "plain")

	assert.Equal(t, ExitFailures, code)
	assert.Contains(t, out, "total=2 warned=1 failed=1")
	assert.Contains(t, out, "FAILED example.com/pkg/TestA")
}

func TestRun_FailOnOverride(t *testing.T) {
	code, _, _ := runTally(t, failingRun, "--format", "plain", "--fail-on", "errored")
	assert.Equal(t, ExitClean, code)

	code, _, _ = runTally(t, failingRun, "--format", "plain", "--fail-on", "errored,warned")
	assert.Equal(t, ExitFailures, code)
}

func TestRun_UnknownFailOnCategory(t *testing.T) {
	code, _, errOut := runTally(t, passingRun, "--fail-on", "flaky")

	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "unknown category")
}

func TestRun_UnknownFormat(t *testing.T) {
	code, _, errOut := runTally(t, passingRun, "--format", "html")

	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "unknown format")
}

func TestRun_JSONIncludesRunID(t *testing.T) {
	code, out, _ := runTally(t, passingRun, "--format", "json", "--env", "linux/amd64")
	require.Equal(t, ExitClean, code)

	var got struct {
		RunID  string         `json:"run_id"`
		Counts map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.RunID, 36)
	assert.Equal(t, map[string]int{"total": 2, "passed": 1, "skipped": 1}, got.Counts)
}

func TestRun_ReadsInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(failingRun), 0o600))

	code, out, _ := runTally(t, "", "--format", "plain", "--input", path)

	assert.Equal(t, ExitFailures, code)
	assert.Contains(t, out, "failed=1")
}

func TestRun_MissingInputFile(t *testing.T) {
	code, _, errOut := runTally(t, "", "--input", filepath.Join(t.TempDir(), "missing.json"))

	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "opening input")
}

func TestRun_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: plain\nfail_on: []\n"), 0o600))

	code, out, _ := runTally(t, failingRun, "--config", path)

	assert.Equal(t, ExitClean, code)
	assert.Contains(t, out, "failed=1")
}

func TestRun_InvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: html\n"), 0o600))

	code, _, errOut := runTally(t, passingRun, "--config", path)

	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "invalid config")
}

func TestRun_MalformedLinesAreSkipped(t *testing.T) {
	code, out, errOut := runTally(t, "not json\n"+passingRun, "--format", "plain", "--log-level", "warn")

	assert.Equal(t, ExitClean, code)
	assert.Equal(t, "total=2 skipped=1 passed=1\n", out)
	assert.Contains(t, errOut, "skipped malformed lines")
}

func TestRun_UpdateMode(t *testing.T) {
	input := `{"Action":"output","Package":"p","Test":"TestG","Output":"updated golden file testdata/g.golden\n"}
{"Action":"pass","Package":"p","Test":"TestG"}
{"Action":"pass","Package":"p","Test":"TestH"}
`
	code, out, _ := runTally(t, input, "--format", "plain", "--update")

	assert.Equal(t, ExitClean, code)
	assert.Equal(t, "total=2 updated=1 passed=1\n", out)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"failed", "errored", "warned"}, splitList([]string{"failed, errored", "warned", ""}))
	assert.Empty(t, splitList(nil))
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	_, err := newLogger("loud", &bytes.Buffer{})
	require.Error(t, err)
}

func TestRun_RejectsEmptyInput(t *testing.T) {
	code, _, errOut := runTally(t, "")

	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "no input")
}

func TestRun_RejectsNonTestInput(t *testing.T) {
	code, _, errOut := runTally(t, `{"version":"2.1.0","runs":[]}`)

	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "unrecognized input format SARIF")
}

func TestRun_InStreamBuildFailure(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		sb.WriteString(`{"ImportPath":"example.com/broken [example.com/broken.test]","Action":"build-output","Output":"broken.go:3:1: syntax error\n"}` + "\n")
	}
	sb.WriteString(`{"ImportPath":"example.com/broken [example.com/broken.test]","Action":"build-fail"}` + "\n")
	sb.WriteString(`{"Action":"start","Package":"example.com/broken"}` + "\n")
	sb.WriteString(`{"Action":"output","Package":"example.com/broken","Output":"FAIL\texample.com/broken [build failed]\n"}` + "\n")
	sb.WriteString(`{"Action":"fail","Package":"example.com/broken","Elapsed":0,"FailedBuild":"example.com/broken [example.com/broken.test]"}` + "\n")

	code, out, errOut := runTally(t, sb.String(), "--format", "plain")

	assert.Equal(t, ExitFailures, code, errOut)
	assert.Equal(t, "total=1 errored=1\nERRORED example.com/broken\n", out)
}

func TestRun_InterruptedMidStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pr, pw := io.Pipe()
	defer pw.Close()

	go func() {
		// More than the format peek, so the run is streaming when cancelled.
		_, _ = pw.Write([]byte(strings.Repeat(passingRun, 40)))
		cancel()
	}()

	code, out, errOut := runTallyContext(t, ctx, pr, "--format", "plain")

	assert.Equal(t, ExitInterrupted, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "interrupted")
}

func TestRun_UnreadableInput(t *testing.T) {
	code, _, errOut := runTally(t, "", "--input", t.TempDir())

	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "opening input")
	assert.NotContains(t, errOut, "no input")
}

func TestRun_UnknownTheme(t *testing.T) {
	code, _, errOut := runTally(t, passingRun, "--theme", "neon")

	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, `unknown theme "neon"`)
}

package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aretw0/foundry/internal/testutils"
	"github.com/aretw0/foundry/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shoutAlignment = `---
instruction: hello
operations:
  - type: ingress
    next: shout
    prompt_addr: r0
  - type: process
    opcode: shout
    load_addr: r0
    save_addr: r1
    exit: true
  - type: egress
    result:
      out: r1
---
`

const shoutTools = `apparatuses:
  - name: shout
    kind: processor
    command: sh
    args: ["-c", "tr a-z A-Z"]
`

func setupRepo(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("CLI tests use a POSIX shell")
	}
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"shout.md":       shoutAlignment,
		DefaultToolsFile: shoutTools,
		"files/local.yaml": "instruction: from file\noperations:\n" +
			"  - {type: ingress, next: shout, prompt_addr: r0}\n" +
			"  - {type: process, opcode: shout, load_addr: r0, save_addr: r1, next: nowhere}\n" +
			"  - {type: egress, result: {out: r1}}\n",
	})
	return dir
}

func TestRun_JSON(t *testing.T) {
	dir := setupRepo(t)

	var out bytes.Buffer
	err := Run(context.Background(), RunOptions{
		Options:   Options{RepoPath: dir},
		Alignment: "shout",
		RunID:     "r-1",
		JSON:      true,
	}, &out)
	require.NoError(t, err)

	var record domain.RunRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	assert.Equal(t, "r-1", record.ID)
	assert.Equal(t, "shout", record.Alignment)
	assert.Equal(t, domain.RunSucceeded, record.Status)
	assert.Equal(t, map[string]any{"out": "HELLO"}, record.Output)
}

func TestRun_Markdown(t *testing.T) {
	dir := setupRepo(t)
	instruction := "quiet please"

	var out bytes.Buffer
	err := Run(context.Background(), RunOptions{
		Options:     Options{RepoPath: dir},
		Alignment:   "shout",
		Instruction: &instruction,
	}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "# shout")
	assert.Contains(t, out.String(), "QUIET PLEASE")
	assert.Contains(t, out.String(), "> quiet please")
}

func TestRun_Failure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("CLI tests use a POSIX shell")
	}
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"shout.md": shoutAlignment,
		"tools.yaml": `apparatuses:
  - name: shout
    kind: processor
    command: sh
    args: ["-c", "echo nope >&2; exit 3"]
`,
	})

	var out bytes.Buffer
	err := Run(context.Background(), RunOptions{
		Options:   Options{RepoPath: dir, ToolsPath: filepath.Join(dir, "tools.yaml")},
		Alignment: "shout",
		JSON:      true,
	}, &out)
	require.ErrorIs(t, err, ErrRunFailed)
	assert.Contains(t, err.Error(), "nope")

	var record domain.RunRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	assert.Equal(t, domain.RunFailed, record.Status)
}

func TestRun_RejectsInvalidAlignment(t *testing.T) {
	dir := setupRepo(t)

	var out bytes.Buffer
	err := Run(context.Background(), RunOptions{
		Options:   Options{RepoPath: dir},
		Alignment: filepath.Join(dir, "files", "local.yaml"),
	}, &out)
	require.ErrorIs(t, err, domain.ErrStructural)
	assert.Empty(t, out.String())
}

func TestRun_LogFile(t *testing.T) {
	dir := setupRepo(t)
	logFile := filepath.Join(t.TempDir(), "foundry.log")

	var out bytes.Buffer
	err := Run(context.Background(), RunOptions{
		Options:   Options{RepoPath: dir, LogFile: logFile},
		Alignment: "shout",
	}, &out)
	require.NoError(t, err)

	assert.FileExists(t, logFile)
	data := testutils.ReadFile(t, logFile)
	assert.Contains(t, data, `"msg":"operation_enter"`)
	assert.Contains(t, data, `"opcode":"shout"`)
}

func TestResolveAlignment(t *testing.T) {
	dir := setupRepo(t)
	eng, err := createEngine(Options{RepoPath: dir}, nil)
	require.NoError(t, err)

	a, err := resolveAlignment(eng, "shout")
	require.NoError(t, err)
	assert.Equal(t, "shout", a.Name)

	a, err = resolveAlignment(eng, filepath.Join(dir, "files", "local.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "local", a.Name)
	assert.Equal(t, "from file", a.Instruction)

	_, err = resolveAlignment(eng, "missing")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := setupRepo(t)

	var out bytes.Buffer
	require.NoError(t, Validate(Options{RepoPath: dir}, "shout", &out))
	assert.Contains(t, out.String(), `Alignment "shout" is valid.`)

	out.Reset()
	err := Validate(Options{RepoPath: dir}, filepath.Join(dir, "files", "local.yaml"), &out)
	require.ErrorIs(t, err, domain.ErrStructural)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestGraphAndList(t *testing.T) {
	dir := setupRepo(t)

	var out bytes.Buffer
	require.NoError(t, Graph(Options{RepoPath: dir}, "shout", &out))
	assert.Contains(t, out.String(), "graph TD")
	assert.Contains(t, out.String(), "op_shout")

	out.Reset()
	require.NoError(t, List(Options{RepoPath: dir}, &out))
	assert.Contains(t, out.String(), "shout\n")
}

func TestToolsPath(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, toolsPath(Options{RepoPath: dir}))
	assert.Equal(t, "custom.yaml", toolsPath(Options{RepoPath: dir, ToolsPath: "custom.yaml"}))

	testutils.WriteFiles(t, dir, map[string]string{DefaultToolsFile: "apparatuses: []\n"})
	assert.Equal(t, filepath.Join(dir, DefaultToolsFile), toolsPath(Options{RepoPath: dir}))
}

func TestRun_PersistsToRunsDir(t *testing.T) {
	dir := setupRepo(t)
	runsDir := filepath.Join(t.TempDir(), "runs")
	opts := RunOptions{
		Options:   Options{RepoPath: dir, RunsDir: runsDir, Mask: []string{"^out$"}},
		Alignment: "shout",
		RunID:     "kept",
		JSON:      true,
	}

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), opts, &out))
	assert.Contains(t, testutils.ReadFile(t, filepath.Join(runsDir, "kept.json")), `"out": "***"`)

	// A finished run is served from the store without running again.
	instruction := "ignored"
	opts.Instruction = &instruction
	out.Reset()
	require.NoError(t, Run(context.Background(), opts, &out))

	var record domain.RunRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	assert.Equal(t, "hello", record.Instruction)
}

func TestRun_EncryptsPersistedRuns(t *testing.T) {
	dir := setupRepo(t)
	runsDir := t.TempDir()
	t.Setenv(EnvEncryptionKey, base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32)))

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), RunOptions{
		Options:   Options{RepoPath: dir, RunsDir: runsDir},
		Alignment: "shout",
		RunID:     "sealed",
	}, &out))

	stored := testutils.ReadFile(t, filepath.Join(runsDir, "sealed.json"))
	assert.Contains(t, stored, "__encrypted__")
	assert.NotContains(t, stored, "HELLO")

	t.Setenv(EnvEncryptionKey, "c2hvcnQ=")
	err := Run(context.Background(), RunOptions{
		Options:   Options{RepoPath: dir, RunsDir: runsDir},
		Alignment: "shout",
	}, &out)
	assert.ErrorContains(t, err, EnvEncryptionKey)
}

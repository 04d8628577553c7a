package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/foundry"
	"github.com/aretw0/foundry/pkg/adapters/memory"
	"github.com/aretw0/foundry/pkg/domain"
	"github.com/aretw0/foundry/pkg/registry"
	"github.com/aretw0/foundry/pkg/run"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const echoYAML = `
instruction: hello
operations:
  - {type: ingress, next: shout, prompt_addr: r0}
  - {type: process, opcode: shout, load_addr: r0, save_addr: r1, exit: true}
  - {type: egress, result: {out: r1}}
`

const danglingYAML = `
instruction: x
operations:
  - {type: ingress, next: nowhere, prompt_addr: r0}
  - {type: egress, result: {}}
`

func newTestEngine(t *testing.T) *foundry.Engine {
	t.Helper()
	f, err := registry.New(
		registry.WithProcessor("shout", func(ctx context.Context, m domain.Medium) (any, error) {
			s, _ := m.Value.(string)
			if s == "fail" {
				return nil, errors.New("cannot shout")
			}
			return strings.ToUpper(s), nil
		}),
	)
	require.NoError(t, err)

	eng, err := foundry.New(
		foundry.WithFoundry(f),
		foundry.WithLoader(memory.NewLoader(map[string]string{"echo": echoYAML, "dangling": danglingYAML})),
	)
	require.NoError(t, err)
	return eng
}

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestListAlignments(t *testing.T) {
	s := NewServer(newTestEngine(t))

	res, err := s.handleListAlignments(context.Background(), toolRequest("list_alignments", nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `["dangling", "echo"]`, resultText(t, res))
}

func TestRunAlignment(t *testing.T) {
	s := NewServer(newTestEngine(t))
	ctx := context.Background()

	args := map[string]any{"alignment_id": "echo"}
	resp, err := s.handleRunAlignment(ctx, toolRequest("run_alignment", args), args)
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, resp.Status)
	assert.Equal(t, map[string]any{"out": "HELLO"}, resp.Output)
	assert.Equal(t, 2, resp.Steps)
	assert.Empty(t, resp.RunID)

	args = map[string]any{"alignment_id": "echo", "instruction": "fail"}
	resp, err = s.handleRunAlignment(ctx, toolRequest("run_alignment", args), args)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, resp.Status)
	assert.Contains(t, resp.Error, "cannot shout")
}

func TestRunAlignment_Rejected(t *testing.T) {
	s := NewServer(newTestEngine(t))
	ctx := context.Background()

	args := map[string]any{"alignment_id": "missing"}
	_, err := s.handleRunAlignment(ctx, toolRequest("run_alignment", args), args)
	assert.Error(t, err)

	args = map[string]any{"alignment_id": "dangling"}
	_, err = s.handleRunAlignment(ctx, toolRequest("run_alignment", args), args)
	assert.ErrorIs(t, err, domain.ErrStructural)
}

func TestRunAlignment_Persisted(t *testing.T) {
	store := memory.NewStore()
	s := NewServer(newTestEngine(t), WithRunManager(run.NewManager(store)))
	ctx := context.Background()

	args := map[string]any{"alignment_id": "echo", "run_id": "r-1"}
	resp, err := s.handleRunAlignment(ctx, toolRequest("run_alignment", args), args)
	require.NoError(t, err)
	assert.Equal(t, "r-1", resp.RunID)
	assert.Equal(t, domain.RunSucceeded, resp.Status)

	record, err := store.Load(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"out": "HELLO"}, record.Output)

	// Same run ID with another instruction returns the stored record.
	args = map[string]any{"alignment_id": "echo", "run_id": "r-1", "instruction": "fail"}
	resp, err = s.handleRunAlignment(ctx, toolRequest("run_alignment", args), args)
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, resp.Status)
	assert.Equal(t, map[string]any{"out": "HELLO"}, resp.Output)
}

func TestValidateAlignment(t *testing.T) {
	s := NewServer(newTestEngine(t))
	ctx := context.Background()

	res, err := s.handleValidateAlignment(ctx, toolRequest("validate_alignment", map[string]any{"alignment_id": "echo"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "ok", resultText(t, res))

	res, err = s.handleValidateAlignment(ctx, toolRequest("validate_alignment", map[string]any{"alignment_id": "dangling"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "nowhere")

	res, err = s.handleValidateAlignment(ctx, toolRequest("validate_alignment", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetGraph(t *testing.T) {
	s := NewServer(newTestEngine(t))

	res, err := s.handleGetGraph(context.Background(), toolRequest("get_graph", map[string]any{"alignment_id": "echo"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "graph TD")
}

func TestApparatusesResource(t *testing.T) {
	s := NewServer(newTestEngine(t))

	contents, err := s.readApparatuses(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, ApparatusesURI, text.URI)

	var apparatuses []domain.Apparatus
	require.NoError(t, json.Unmarshal([]byte(text.Text), &apparatuses))
	assert.Equal(t, []domain.Apparatus{{Name: "shout", Kind: domain.ApparatusProcessor}}, apparatuses)
}

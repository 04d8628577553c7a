package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/foundry"
	"github.com/aretw0/foundry/internal/logging"
	"github.com/aretw0/foundry/internal/presentation/graph"
	"github.com/aretw0/foundry/internal/sanitize"
	"github.com/aretw0/foundry/pkg/domain"
	"github.com/aretw0/foundry/pkg/ports"
	"github.com/aretw0/foundry/pkg/run"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ApparatusesURI is the resource describing the bound Foundry.
const ApparatusesURI = "foundry://apparatuses"

// RunResponse is the structured result of run_alignment.
type RunResponse struct {
	RunID  string           `json:"run_id,omitempty" jsonschema_description:"Identifier of the persisted run, when runs are persisted"`
	Status domain.RunStatus `json:"status" jsonschema_description:"succeeded or failed"`
	Output map[string]any   `json:"output,omitempty" jsonschema_description:"The Egress mapping of the run"`
	Steps  int              `json:"steps" jsonschema_description:"Number of executed operations"`
	Error  string           `json:"error,omitempty" jsonschema_description:"Failure reason of a failed run"`
}

// Server wraps a Foundry engine and exposes it as an MCP Server.
type Server struct {
	engine    ports.Engine
	runs      *run.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithRunManager persists runs started through run_alignment.
func WithRunManager(m *run.Manager) Option {
	return func(s *Server) {
		s.runs = m
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("foundry-mcp", strings.TrimSpace(foundry.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_alignments",
		mcp.WithDescription("List the IDs of the available alignments."),
	), s.handleListAlignments)

	s.mcpServer.AddTool(mcp.NewTool("run_alignment",
		mcp.WithDescription("Run an alignment and return its output mapping."),
		mcp.WithString("alignment_id", mcp.Required(), mcp.Description("ID of the alignment to run")),
		mcp.WithString("instruction", mcp.Description("Replaces the instruction stored in the alignment")),
		mcp.WithString("run_id", mcp.Description("Idempotency key; a finished run with this ID is returned as is")),
		mcp.WithOutputSchema[RunResponse](),
	), mcp.NewStructuredToolHandler(s.handleRunAlignment))

	s.mcpServer.AddTool(mcp.NewTool("validate_alignment",
		mcp.WithDescription("Statically check an alignment against the available apparatuses."),
		mcp.WithString("alignment_id", mcp.Required(), mcp.Description("ID of the alignment to check")),
	), s.handleValidateAlignment)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Render an alignment as a Mermaid flowchart."),
		mcp.WithString("alignment_id", mcp.Required(), mcp.Description("ID of the alignment to render")),
	), s.handleGetGraph)
}

func (s *Server) handleListAlignments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.engine.List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if ids == nil {
		ids = []string{}
	}
	jsonBytes, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleRunAlignment(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	id, _ := args["alignment_id"].(string)
	a, err := s.engine.Load(id)
	if err != nil {
		return RunResponse{}, err
	}
	if instruction, ok := args["instruction"].(string); ok {
		clean, err := sanitize.Instruction(instruction)
		if err != nil {
			s.logger.WarnContext(ctx, "MCP instruction rejected", "err", err, "size", len(instruction))
			return RunResponse{}, err
		}
		a = a.WithInstruction(clean)
	}
	if err := s.engine.Validate(a); err != nil {
		return RunResponse{}, err
	}

	if s.runs != nil {
		runID, _ := args["run_id"].(string)
		record, err := s.runs.Run(ctx, s.engine, runID, a)
		if record == nil {
			return RunResponse{}, fmt.Errorf("run failed: %w", err)
		}
		return RunResponse{
			RunID:  record.ID,
			Status: record.Status,
			Output: record.Output,
			Steps:  record.Steps,
			Error:  record.Error,
		}, nil
	}

	res, err := s.engine.Run(ctx, a)
	if err != nil {
		s.logger.WarnContext(ctx, "MCP run failed", "alignment", id, "err", err)
		return RunResponse{Status: domain.RunFailed, Error: err.Error()}, nil
	}
	return RunResponse{Status: domain.RunSucceeded, Output: res.Output(), Steps: res.Steps}, nil
}

func (s *Server) handleValidateAlignment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.loadFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.engine.Validate(a); err != nil {
		var structural *domain.StructuralError
		if errors.As(err, &structural) {
			return mcp.NewToolResultError(structural.Reason), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.loadFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(a, nil)), nil
}

func (s *Server) loadFromRequest(request mcp.CallToolRequest) (*domain.Alignment, error) {
	id, err := request.RequireString("alignment_id")
	if err != nil {
		return nil, err
	}
	return s.engine.Load(id)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ApparatusesURI, "Available apparatuses",
		mcp.WithMIMEType("application/json"),
	), s.readApparatuses)
}

func (s *Server) readApparatuses(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	apparatuses := s.engine.Apparatuses()
	if apparatuses == nil {
		apparatuses = []domain.Apparatus{}
	}
	jsonBytes, err := json.Marshal(apparatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to encode apparatuses: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ApparatusesURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

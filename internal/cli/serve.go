package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/foundry/internal/presentation/tui"
	httpAdapter "github.com/aretw0/foundry/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/foundry/pkg/adapters/mcp"
	"github.com/aretw0/foundry/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the HTTP API until ctx is done.
func Serve(ctx context.Context, opts ServeOptions, w io.Writer) error {
	logger, cleanup, err := createLogger(opts.Options)
	if err != nil {
		return err
	}
	defer cleanup()

	metrics := observability.NewMetrics()
	eng, err := createEngine(opts.Options, logger, metrics.Hooks())
	if err != nil {
		return err
	}
	manager, closeStore, err := createRunManager(ctx, opts.Options, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", opts.Port),
		Handler: httpAdapter.NewHandler(eng, manager,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetrics(metrics.Handler()),
		),
	}

	serverErrors := make(chan error, 1)
	tui.PrintBanner(w)
	go func() {
		printSystemMessage(w, "Starting Foundry server on %s", srv.Addr)
		printSystemMessage(w, "Serving alignments from: %s", opts.RepoPath)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		printSystemMessage(w, "Foundry server stopped gracefully")
		return nil
	}
}

// ServeMCP runs the MCP server on stdio or SSE.
// Nothing but JSON-RPC may be written to stdout in stdio mode.
func ServeMCP(ctx context.Context, opts ServeOptions) error {
	logger, cleanup, err := createLogger(opts.Options)
	if err != nil {
		return err
	}
	defer cleanup()

	eng, err := createEngine(opts.Options, logger)
	if err != nil {
		return err
	}
	manager, closeStore, err := createRunManager(ctx, opts.Options, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := mcpAdapter.NewServer(eng,
		mcpAdapter.WithRunManager(manager),
		mcpAdapter.WithLogger(logger),
	)

	switch opts.Transport {
	case "", "stdio":
		logger.Info("Starting Foundry MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		if err := srv.ServeSSE(ctx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", opts.Transport)
	}
}

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/foundry"
	"github.com/aretw0/foundry/pkg/adapters/process"
	"github.com/aretw0/foundry/pkg/domain"
	"github.com/aretw0/foundry/pkg/observability"
	"github.com/aretw0/foundry/pkg/registry"
)

// createEngine initializes an engine with standard CLI conventions.
// extraHooks are combined with the debug tracing hooks.
func createEngine(opts Options, logger *slog.Logger, extraHooks ...domain.LifecycleHooks) (*foundry.Engine, error) {
	f, err := loadFoundry(opts)
	if err != nil {
		return nil, err
	}

	hooks := extraHooks
	if opts.Debug || opts.LogFile != "" {
		hooks = append(hooks, observability.LoggingHooks(logger))
	}

	engineOpts := []foundry.Option{
		foundry.WithFoundry(f),
		foundry.WithLogger(logger),
		foundry.WithLifecycleHooks(observability.Combine(hooks...)),
		foundry.WithMaxSteps(opts.MaxSteps),
	}
	if opts.RepoPath != "" {
		engineOpts = append(engineOpts, foundry.WithRepository(opts.RepoPath))
	}

	engine, err := foundry.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// loadFoundry builds the apparatus registry from the tools file.
// Commands run relative to the directory holding that file.
func loadFoundry(opts Options) (*registry.Foundry, error) {
	path := toolsPath(opts)
	if path == "" {
		return registry.New()
	}

	configs, err := process.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	runner := process.NewRunner(process.WithBaseDir(filepath.Dir(path)))
	regOpts, err := runner.Options(configs)
	if err != nil {
		return nil, fmt.Errorf("invalid tools file %s: %w", path, err)
	}
	return registry.New(regOpts...)
}

// toolsPath returns the explicit --tools value, or apparatus.yaml from the
// repository when it exists.
func toolsPath(opts Options) string {
	if opts.ToolsPath != "" {
		return opts.ToolsPath
	}
	candidate := filepath.Join(opts.RepoPath, DefaultToolsFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

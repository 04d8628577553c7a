package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/foundry/pkg/domain"
)

// DefaultMaxSteps is the step budget used when none is configured.
const DefaultMaxSteps = 1000

// Apparatuses resolves opcodes to callables. *registry.Foundry implements it.
type Apparatuses interface {
	Processor(name string) (domain.Processor, error)
	Switcher(name string) (domain.Switcher, error)
}

// Engine is the alignment interpreter.
// It holds no per-run state and may execute many runs concurrently.
type Engine struct {
	maxSteps int
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithMaxSteps sets the step budget of every run.
// Non-positive values keep DefaultMaxSteps: a run is never unbounded.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		maxSteps: DefaultMaxSteps,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxSteps returns the configured step budget.
func (e *Engine) MaxSteps() int {
	return e.maxSteps
}

// Execute runs the alignment to completion.
// On success the result medium holds a map from each Egress key to its register value.
// Any failure aborts the run: there is no partial result.
func (e *Engine) Execute(ctx context.Context, foundry Apparatuses, alignment *domain.Alignment) (*domain.Result, error) {
	prog, err := compile(alignment)
	if err != nil {
		return nil, err
	}

	name := alignment.Name
	logger := e.logger.With("alignment", name)
	e.emitRunStart(ctx, name)

	start := time.Now()
	result, steps, err := e.trampoline(ctx, foundry, prog, logger)

	e.emitRunFinish(ctx, name, steps, err)
	if err != nil {
		logger.WarnContext(ctx, "run failed", "steps", steps, "err", err)
		return nil, err
	}
	logger.InfoContext(ctx, "run completed", "steps", steps, "duration", time.Since(start))
	return result, nil
}

// trampoline drives the state machine iteratively: the step budget, not the
// native stack, bounds execution.
func (e *Engine) trampoline(ctx context.Context, foundry Apparatuses, p *program, logger *slog.Logger) (*domain.Result, int, error) {
	env := domain.NewEnvironment()
	var current domain.Operation = p.ingress
	steps := 0

	for {
		if egress, ok := current.(*domain.Egress); ok {
			output, err := e.stepEgress(egress, env)
			if err != nil {
				return nil, steps, err
			}
			return &domain.Result{
				Medium:      domain.NewMedium(output),
				Steps:       steps,
				Environment: env,
			}, steps, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, steps, fmt.Errorf("run canceled after %d steps: %w", steps, err)
		}
		if steps >= e.maxSteps {
			return nil, steps, &domain.ResourceExhaustionError{
				Limit:  e.maxSteps,
				Steps:  steps,
				Opcode: domain.Opcode(current),
			}
		}
		steps++

		logger.DebugContext(ctx, "executing operation", "step", steps, "kind", current.Kind(), "opcode", domain.Opcode(current))
		e.emitOperationEnter(ctx, p.alignment.Name, steps, current)

		next, nextEnv, err := e.step(ctx, foundry, p, current, env)
		if err != nil {
			return nil, steps, err
		}

		e.emitOperationLeave(ctx, p.alignment.Name, steps, current)
		current, env = next, nextEnv
	}
}

// step is the single dispatch point over the non-terminal operation kinds.
func (e *Engine) step(ctx context.Context, foundry Apparatuses, p *program, op domain.Operation, env domain.Environment) (domain.Operation, domain.Environment, error) {
	switch o := op.(type) {
	case *domain.Ingress:
		return e.stepIngress(p, o, env)
	case *domain.Process:
		return e.stepProcess(ctx, foundry, p, o, env)
	case *domain.Switch:
		return e.stepSwitch(ctx, foundry, p, o, env)
	default:
		return nil, env, &domain.StructuralError{
			Stage:  domain.StageAlignment,
			Reason: fmt.Sprintf("cannot execute operation of kind %T", op),
		}
	}
}

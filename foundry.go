package foundry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/foundry/internal/compiler"
	"github.com/aretw0/foundry/internal/logging"
	"github.com/aretw0/foundry/internal/runtime"
	"github.com/aretw0/foundry/internal/validator"
	loamAdapter "github.com/aretw0/foundry/pkg/adapters/loam"
	"github.com/aretw0/foundry/pkg/domain"
	"github.com/aretw0/foundry/pkg/ports"
	"github.com/aretw0/foundry/pkg/registry"
	"golang.org/x/sync/errgroup"
)

// ErrNoLoader is returned by Load and List when the engine has no alignment source.
var ErrNoLoader = errors.New("no alignment loader configured")

// Engine is the high-level entry point of the library.
// It binds a Foundry to the runtime and resolves alignments through a loader.
type Engine struct {
	runtime  *runtime.Engine
	foundry  *registry.Foundry
	loader   ports.AlignmentLoader
	parser   *compiler.Parser
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	maxSteps int
	repoPath string
}

var _ ports.Engine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithFoundry binds the apparatus registry. Defaults to an empty Foundry.
func WithFoundry(f *registry.Foundry) Option {
	return func(e *Engine) {
		e.foundry = f
	}
}

// WithLoader injects an alignment source.
func WithLoader(l ports.AlignmentLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithRepository reads alignments from a directory through Loam.
// Ignored when WithLoader is also given.
func WithRepository(path string) Option {
	return func(e *Engine) {
		e.repoPath = path
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxSteps bounds the number of operations a single run may execute.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// New initializes a new Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{parser: compiler.NewParser()}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.foundry == nil {
		f, err := registry.New()
		if err != nil {
			return nil, err
		}
		eng.foundry = f
	}

	if eng.loader == nil && eng.repoPath != "" {
		l, err := loamAdapter.Open(eng.repoPath)
		if err != nil {
			return nil, err
		}
		eng.loader = l
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	eng.runtime = runtime.NewEngine(
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithMaxSteps(eng.maxSteps),
	)
	return eng, nil
}

// Run executes the alignment against the bound Foundry.
func (e *Engine) Run(ctx context.Context, alignment *domain.Alignment) (*domain.Result, error) {
	return e.runtime.Execute(ctx, e.foundry, alignment)
}

// RunByID loads the alignment and runs it.
func (e *Engine) RunByID(ctx context.Context, id string) (*domain.Result, error) {
	a, err := e.Load(id)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, a)
}

// Load fetches and parses an alignment; its name defaults to the ID.
func (e *Engine) Load(id string) (*domain.Alignment, error) {
	if e.loader == nil {
		return nil, ErrNoLoader
	}
	data, err := e.loader.GetAlignment(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load alignment %s: %w", id, err)
	}
	a, err := e.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse alignment %s: %w: %w", id, domain.ErrInvalidAlignment, err)
	}
	if a.Name == "" {
		a.Name = id
	}
	return a, nil
}

// List returns the IDs known to the loader.
func (e *Engine) List() ([]string, error) {
	if e.loader == nil {
		return nil, ErrNoLoader
	}
	return e.loader.ListAlignments()
}

// Validate statically checks the alignment against the bound Foundry.
func (e *Engine) Validate(alignment *domain.Alignment) error {
	return validator.ValidateAlignment(alignment, e.foundry)
}

// Report returns every structural finding, warnings included.
func (e *Engine) Report(alignment *domain.Alignment) *validator.Report {
	return validator.Validate(alignment, e.foundry)
}

// Apparatuses describes the bound Foundry.
func (e *Engine) Apparatuses() []domain.Apparatus {
	return e.foundry.Apparatuses()
}

// Foundry returns the bound apparatus registry.
func (e *Engine) Foundry() *registry.Foundry {
	return e.foundry
}

// Loader returns the alignment source, or nil.
func (e *Engine) Loader() ports.AlignmentLoader {
	return e.loader
}

// BatchResult is the outcome of one instruction in a batch.
type BatchResult struct {
	Instruction string
	Result      *domain.Result
	Err         error
}

// RunBatch runs the alignment once per instruction, at most concurrency runs
// at a time (unbounded when concurrency <= 0). Results keep the input order.
// Item failures are reported per item; the returned error is set only when
// ctx ends before every item was started, or when alignment is nil.
func (e *Engine) RunBatch(ctx context.Context, alignment *domain.Alignment, instructions []string, concurrency int) ([]BatchResult, error) {
	if alignment == nil {
		return nil, &domain.StructuralError{Stage: domain.StageAlignment, Reason: "alignment is nil"}
	}
	results := make([]BatchResult, len(instructions))

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	var interrupted error
	for i, instruction := range instructions {
		results[i].Instruction = instruction
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			interrupted = err
			continue
		}
		g.Go(func() error {
			res, err := e.Run(ctx, alignment.WithInstruction(instruction))
			results[i].Result = res
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	e.logger.DebugContext(ctx, "batch finished", "alignment", alignment.Name, "size", len(instructions))
	return results, interrupted
}

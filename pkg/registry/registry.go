package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/foundry/pkg/domain"
)

// ErrDuplicateApparatus is returned when two apparatuses share a name.
var ErrDuplicateApparatus = errors.New("duplicate apparatus name")

// Foundry is the registry of Processors and Switchers available to an alignment.
// A Foundry is read-only once built and safe to share across concurrent runs.
type Foundry struct {
	processors map[string]domain.Processor
	switchers  map[string]domain.Switcher
}

// Option registers an apparatus during New.
type Option func(*Builder)

// WithProcessor registers a named Processor.
func WithProcessor(name string, fn domain.Processor) Option {
	return func(b *Builder) {
		b.Processor(name, fn)
	}
}

// WithSwitcher registers a named Switcher.
func WithSwitcher(name string, fn domain.Switcher) Option {
	return func(b *Builder) {
		b.Switcher(name, fn)
	}
}

// New builds a Foundry from options.
// Names must be unique across processors and switchers.
func New(opts ...Option) (*Foundry, error) {
	b := NewBuilder()
	for _, opt := range opts {
		opt(b)
	}
	return b.Build()
}

// Builder collects apparatuses before freezing them into a Foundry.
// It is safe for concurrent registration (adapters may discover apparatuses in parallel).
type Builder struct {
	mu         sync.Mutex
	processors map[string]domain.Processor
	switchers  map[string]domain.Switcher
	errs       []error
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		processors: make(map[string]domain.Processor),
		switchers:  make(map[string]domain.Switcher),
	}
}

// Processor adds a processor. Problems are reported by Build.
func (b *Builder) Processor(name string, fn domain.Processor) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(name, fn == nil); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.processors[name] = fn
	return b
}

// Switcher adds a switcher. Problems are reported by Build.
func (b *Builder) Switcher(name string, fn domain.Switcher) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(name, fn == nil); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.switchers[name] = fn
	return b
}

func (b *Builder) check(name string, isNil bool) error {
	if name == "" {
		return fmt.Errorf("apparatus name cannot be empty")
	}
	if isNil {
		return fmt.Errorf("apparatus '%s' has no implementation", name)
	}
	_, isProcessor := b.processors[name]
	_, isSwitcher := b.switchers[name]
	if isProcessor || isSwitcher {
		return fmt.Errorf("%w: '%s'", ErrDuplicateApparatus, name)
	}
	return nil
}

// Build freezes the registered apparatuses into a Foundry.
func (b *Builder) Build() (*Foundry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	f := &Foundry{
		processors: make(map[string]domain.Processor, len(b.processors)),
		switchers:  make(map[string]domain.Switcher, len(b.switchers)),
	}
	for name, fn := range b.processors {
		f.processors[name] = fn
	}
	for name, fn := range b.switchers {
		f.switchers[name] = fn
	}
	return f, nil
}

// Processor looks up a processor by exact name.
func (f *Foundry) Processor(name string) (domain.Processor, error) {
	if f != nil {
		if fn, ok := f.processors[name]; ok {
			return fn, nil
		}
	}
	return nil, &domain.LookupError{Stage: domain.StageProcessor, Opcode: name}
}

// Switcher looks up a switcher by exact name.
func (f *Foundry) Switcher(name string) (domain.Switcher, error) {
	if f != nil {
		if fn, ok := f.switchers[name]; ok {
			return fn, nil
		}
	}
	return nil, &domain.LookupError{Stage: domain.StageSwitcher, Opcode: name}
}

// Apparatuses returns the inventory sorted by name.
func (f *Foundry) Apparatuses() []domain.Apparatus {
	if f == nil {
		return nil
	}
	list := make([]domain.Apparatus, 0, len(f.processors)+len(f.switchers))
	for name := range f.processors {
		list = append(list, domain.Apparatus{Name: name, Kind: domain.ApparatusProcessor})
	}
	for name := range f.switchers {
		list = append(list, domain.Apparatus{Name: name, Kind: domain.ApparatusSwitcher})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

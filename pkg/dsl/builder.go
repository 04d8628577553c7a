package dsl

import (
	"fmt"

	"github.com/aretw0/foundry/internal/validator"
	"github.com/aretw0/foundry/pkg/adapters/memory"
	"github.com/aretw0/foundry/pkg/domain"
)

// Builder manages the alignment construction.
// Operations are emitted in the order they are first added.
type Builder struct {
	name        string
	instruction string
	ingress     *IngressBuilder
	egress      *EgressBuilder
	ops         map[string]domain.Operation
	order       []domain.Operation
}

// New creates a new alignment builder.
func New(name string) *Builder {
	return &Builder{
		name: name,
		ops:  make(map[string]domain.Operation),
	}
}

// Instruction sets the instruction seeded by Ingress.
func (b *Builder) Instruction(s string) *Builder {
	b.instruction = s
	return b
}

// Ingress creates the entry operation writing the instruction to prompt.
// Calling it again returns the existing builder.
func (b *Builder) Ingress(prompt domain.Address) *IngressBuilder {
	if b.ingress == nil {
		b.ingress = &IngressBuilder{op: &domain.Ingress{}}
		b.order = append(b.order, b.ingress.op)
	}
	b.ingress.op.Prompt = prompt
	return b.ingress
}

// Process adds a Process operation.
// If the opcode already names a Process, it returns a builder for it.
func (b *Builder) Process(opcode string) *ProcessBuilder {
	if op, ok := b.ops[opcode].(*domain.Process); ok {
		return &ProcessBuilder{op: op}
	}
	op := &domain.Process{Opcode: opcode}
	b.add(opcode, op)
	return &ProcessBuilder{op: op}
}

// Switch adds a Switch operation.
// If the opcode already names a Switch, it returns a builder for it.
func (b *Builder) Switch(opcode string) *SwitchBuilder {
	if op, ok := b.ops[opcode].(*domain.Switch); ok {
		return &SwitchBuilder{op: op}
	}
	op := &domain.Switch{Opcode: opcode}
	b.add(opcode, op)
	return &SwitchBuilder{op: op}
}

// Egress creates the terminal operation.
func (b *Builder) Egress() *EgressBuilder {
	if b.egress == nil {
		b.egress = &EgressBuilder{op: &domain.Egress{Result: make(map[string]domain.Address)}}
		b.order = append(b.order, b.egress.op)
	}
	return b.egress
}

// add registers the operation; an opcode reused across kinds is kept twice so
// that Build reports it.
func (b *Builder) add(opcode string, op domain.Operation) {
	if _, exists := b.ops[opcode]; !exists {
		b.ops[opcode] = op
	}
	b.order = append(b.order, op)
}

// Alignment returns the alignment without checking it.
func (b *Builder) Alignment() *domain.Alignment {
	ops := make([]domain.Operation, len(b.order))
	copy(ops, b.order)
	return &domain.Alignment{
		Name:        b.name,
		Instruction: b.instruction,
		Operations:  ops,
	}
}

// Build returns the alignment after a static validation pass.
func (b *Builder) Build() (*domain.Alignment, error) {
	a := b.Alignment()
	if err := validator.ValidateAlignment(a, nil); err != nil {
		return nil, fmt.Errorf("invalid alignment %q: %w", b.name, err)
	}
	return a, nil
}

// Loader builds the alignment and serves it from a memory.Loader under its name.
func (b *Builder) Loader() (*memory.Loader, error) {
	a, err := b.Build()
	if err != nil {
		return nil, err
	}
	loader, err := memory.NewFromAlignments(map[string]*domain.Alignment{b.name: a})
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

// IngressBuilder configures the Ingress operation.
type IngressBuilder struct {
	op *domain.Ingress
}

// Go sets the first internal operation.
func (i *IngressBuilder) Go(opcode string) *IngressBuilder {
	i.op.Next = opcode
	return i
}

// ProcessBuilder provides a fluent API for configuring a Process.
type ProcessBuilder struct {
	op *domain.Process
}

// Load sets the register passed to the Processor.
func (p *ProcessBuilder) Load(addr domain.Address) *ProcessBuilder {
	p.op.Load = addr
	return p
}

// LoadAs sets the register and the type it must hold.
func (p *ProcessBuilder) LoadAs(addr domain.Address, typ string) *ProcessBuilder {
	p.op.Load = addr
	p.op.LoadType = typ
	return p
}

// Save sets the register receiving the Processor result.
func (p *ProcessBuilder) Save(addr domain.Address) *ProcessBuilder {
	p.op.Save = addr
	return p
}

// Go sets the next operation.
func (p *ProcessBuilder) Go(opcode string) *ProcessBuilder {
	p.op.Next = opcode
	p.op.Exit = false
	return p
}

// Exit makes the operation transition to Egress.
func (p *ProcessBuilder) Exit() *ProcessBuilder {
	p.op.Exit = true
	p.op.Next = ""
	return p
}

// SwitchBuilder provides a fluent API for configuring a Switch.
type SwitchBuilder struct {
	op *domain.Switch
}

// Load sets the register passed to the Switcher.
func (s *SwitchBuilder) Load(addr domain.Address) *SwitchBuilder {
	s.op.Load = addr
	return s
}

// LoadAs sets the register and the type it must hold.
func (s *SwitchBuilder) LoadAs(addr domain.Address, typ string) *SwitchBuilder {
	s.op.Load = addr
	s.op.LoadType = typ
	return s
}

// WhenTrue sets the branch taken on a valid verdict and where its payload goes.
func (s *SwitchBuilder) WhenTrue(opcode string, save domain.Address) *SwitchBuilder {
	s.op.NextWhenTrue = opcode
	s.op.SaveTrue = save
	return s
}

// WhenFalse sets the branch taken on an invalid verdict and where its payload goes.
func (s *SwitchBuilder) WhenFalse(opcode string, save domain.Address) *SwitchBuilder {
	s.op.NextWhenFalse = opcode
	s.op.SaveFalse = save
	return s
}

// EgressBuilder configures the result mapping.
type EgressBuilder struct {
	op *domain.Egress
}

// Bind exposes the register addr under key in the run output.
func (e *EgressBuilder) Bind(key string, addr domain.Address) *EgressBuilder {
	e.op.Result[key] = addr
	return e
}

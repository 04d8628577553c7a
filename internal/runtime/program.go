package runtime

import (
	"fmt"

	"github.com/aretw0/foundry/pkg/domain"
	"github.com/aretw0/foundry/pkg/schema"
)

// FindIngress returns the unique Ingress of the alignment.
func FindIngress(a *domain.Alignment) (*domain.Ingress, error) {
	var found *domain.Ingress
	count := 0
	for _, op := range a.Operations {
		if in, ok := op.(*domain.Ingress); ok {
			found = in
			count++
		}
	}
	if count != 1 {
		return nil, &domain.StructuralError{
			Stage:  domain.StageIngress,
			Reason: fmt.Sprintf("alignment must have exactly one ingress, found %d", count),
		}
	}
	return found, nil
}

// FindEgress returns the unique Egress of the alignment.
func FindEgress(a *domain.Alignment) (*domain.Egress, error) {
	var found *domain.Egress
	count := 0
	for _, op := range a.Operations {
		if eg, ok := op.(*domain.Egress); ok {
			found = eg
			count++
		}
	}
	if count != 1 {
		return nil, &domain.StructuralError{
			Stage:  domain.StageEgress,
			Reason: fmt.Sprintf("alignment must have exactly one egress, found %d", count),
		}
	}
	return found, nil
}

// FindOperation returns the Process or Switch with the given opcode.
func FindOperation(a *domain.Alignment, opcode string) (domain.Operation, error) {
	for _, op := range a.Operations {
		if opcode != "" && domain.Opcode(op) == opcode {
			return op, nil
		}
	}
	return nil, &domain.StructuralError{
		Stage:  domain.StageAlignment,
		Opcode: opcode,
		Reason: "no operation with this opcode",
	}
}

// program is the per-run index of an alignment: the entry and exit operations,
// an opcode map for O(1) transitions and the parsed register load types.
type program struct {
	alignment *domain.Alignment
	ingress   *domain.Ingress
	egress    *domain.Egress
	ops       map[string]domain.Operation
	loadTypes map[string]schema.Type
}

// compile indexes the alignment. Only whole-program defects are reported here
// (cardinality, duplicate or empty opcodes, unknown load types); dangling
// transitions surface when they are taken.
func compile(a *domain.Alignment) (*program, error) {
	if a == nil {
		return nil, &domain.StructuralError{Stage: domain.StageAlignment, Reason: "alignment is nil"}
	}

	ingress, err := FindIngress(a)
	if err != nil {
		return nil, err
	}
	egress, err := FindEgress(a)
	if err != nil {
		return nil, err
	}

	p := &program{
		alignment: a,
		ingress:   ingress,
		egress:    egress,
		ops:       make(map[string]domain.Operation),
		loadTypes: make(map[string]schema.Type),
	}

	for i, op := range a.Operations {
		var opcode, loadType string
		switch o := op.(type) {
		case *domain.Ingress, *domain.Egress:
			continue
		case *domain.Process:
			opcode, loadType = o.Opcode, o.LoadType
		case *domain.Switch:
			opcode, loadType = o.Opcode, o.LoadType
		default:
			return nil, &domain.StructuralError{
				Stage:  domain.StageAlignment,
				Reason: fmt.Sprintf("operation #%d has unsupported kind %T", i, op),
			}
		}

		if opcode == "" {
			return nil, &domain.StructuralError{
				Stage:  domain.StageOf(op),
				Reason: fmt.Sprintf("operation #%d has no opcode", i),
			}
		}
		if _, exists := p.ops[opcode]; exists {
			return nil, &domain.StructuralError{
				Stage:  domain.StageOf(op),
				Opcode: opcode,
				Reason: "opcode is defined more than once",
			}
		}
		p.ops[opcode] = op

		if loadType != "" {
			t, err := schema.ParseType(loadType)
			if err != nil {
				return nil, &domain.StructuralError{
					Stage:  domain.StageOf(op),
					Opcode: opcode,
					Reason: fmt.Sprintf("invalid load_type: %v", err),
				}
			}
			p.loadTypes[opcode] = t
		}
	}

	return p, nil
}

// resolve maps a transition target to its operation.
func (p *program) resolve(from domain.Operation, target string) (domain.Operation, error) {
	if target == "" {
		return nil, &domain.StructuralError{
			Stage:  domain.StageOf(from),
			Opcode: domain.Opcode(from),
			Reason: "transition has no target opcode",
		}
	}
	op, ok := p.ops[target]
	if !ok {
		return nil, &domain.StructuralError{
			Stage:  domain.StageOf(from),
			Opcode: domain.Opcode(from),
			Reason: fmt.Sprintf("next opcode '%s' not found", target),
		}
	}
	return op, nil
}

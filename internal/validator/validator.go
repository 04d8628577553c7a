package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/foundry/pkg/domain"
	"github.com/aretw0/foundry/pkg/schema"
)

// Apparatuses is the subset of the Foundry the validator checks opcodes against.
type Apparatuses interface {
	Processor(name string) (domain.Processor, error)
	Switcher(name string) (domain.Switcher, error)
}

// Report collects the findings of a validation pass.
// Errors make an alignment unrunnable; Warnings flag likely mistakes.
type Report struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Err returns nil if the report has no errors.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return &domain.StructuralError{
		Stage:  domain.StageAlignment,
		Reason: fmt.Sprintf("found %d errors:\n- %s", len(r.Errors), strings.Join(r.Errors, "\n- ")),
	}
}

// ValidateAlignment checks the alignment and returns an aggregated error.
// foundry may be nil, in which case apparatus names are not checked.
func ValidateAlignment(a *domain.Alignment, foundry Apparatuses) error {
	return Validate(a, foundry).Err()
}

// Validate walks the whole alignment and reports every problem it finds.
func Validate(a *domain.Alignment, foundry Apparatuses) *Report {
	r := &Report{}
	if a == nil {
		r.errorf("alignment is nil")
		return r
	}

	var ingress *domain.Ingress
	var ingresses, egresses int
	ops := make(map[string]domain.Operation)
	written := make(map[domain.Address]bool)

	for i, op := range a.Operations {
		switch o := op.(type) {
		case *domain.Ingress:
			ingresses++
			ingress = o
			written[o.Prompt] = true
			if o.Next == "" {
				r.errorf("ingress has no next opcode")
			}
		case *domain.Egress:
			egresses++
		case *domain.Process:
			written[o.Save] = true
			if !o.Exit && o.Next == "" {
				r.errorf("process '%s' has neither next nor exit", o.Opcode)
			}
		case *domain.Switch:
			written[o.SaveTrue] = true
			written[o.SaveFalse] = true
			if o.NextWhenTrue == "" || o.NextWhenFalse == "" {
				r.errorf("switch '%s' must name both branches", o.Opcode)
			}
		default:
			r.errorf("operation #%d has unsupported kind %T", i, op)
			continue
		}

		opcode := domain.Opcode(op)
		if opcode == "" {
			if k := op.Kind(); k == domain.KindProcess || k == domain.KindSwitch {
				r.errorf("%s operation #%d has no opcode", k, i)
			}
			continue
		}
		if _, dup := ops[opcode]; dup {
			r.errorf("opcode '%s' is defined more than once", opcode)
			continue
		}
		ops[opcode] = op
	}

	if ingresses != 1 {
		r.errorf("alignment must have exactly one ingress, found %d", ingresses)
	}
	if egresses != 1 {
		r.errorf("alignment must have exactly one egress, found %d", egresses)
	}

	for _, opcode := range sortedKeys(ops) {
		op := ops[opcode]
		checkOperation(r, op, ops, foundry)
		if load, ok := loadOf(op); ok && !written[load] {
			r.warnf("register '%s' read by '%s' is never written", load, opcode)
		}
	}
	if ingress != nil && ingress.Next != "" {
		if _, ok := ops[ingress.Next]; !ok {
			r.errorf("ingress: next opcode '%s' not found", ingress.Next)
		}
	}

	for _, op := range a.Operations {
		if eg, ok := op.(*domain.Egress); ok {
			for _, key := range sortedKeys(eg.Result) {
				if !written[eg.Result[key]] {
					r.warnf("register '%s' bound to result '%s' is never written", eg.Result[key], key)
				}
			}
		}
	}

	if ingress != nil {
		reachable, exits := walk(ingress, ops)
		for _, opcode := range sortedKeys(ops) {
			if !reachable[opcode] {
				r.warnf("operation '%s' is unreachable from ingress", opcode)
			}
		}
		if egresses == 1 && !exits {
			r.warnf("egress is unreachable: no reachable process has exit set")
		}
	}

	return r
}

func checkOperation(r *Report, op domain.Operation, ops map[string]domain.Operation, foundry Apparatuses) {
	opcode := domain.Opcode(op)
	for _, target := range domain.Targets(op) {
		if target == "" {
			continue
		}
		if _, ok := ops[target]; !ok {
			r.errorf("%s '%s': next opcode '%s' not found", op.Kind(), opcode, target)
		}
	}

	var loadType string
	switch o := op.(type) {
	case *domain.Process:
		loadType = o.LoadType
		if foundry != nil {
			if _, err := foundry.Processor(opcode); err != nil {
				r.errorf("process '%s': %v", opcode, err)
			}
		}
	case *domain.Switch:
		loadType = o.LoadType
		if foundry != nil {
			if _, err := foundry.Switcher(opcode); err != nil {
				r.errorf("switch '%s': %v", opcode, err)
			}
		}
	}
	if loadType != "" {
		if _, err := schema.ParseType(loadType); err != nil {
			r.errorf("%s '%s': invalid load_type: %v", op.Kind(), opcode, err)
		}
	}
}

// walk returns the opcodes reachable from ingress and whether any of them exits.
func walk(ingress *domain.Ingress, ops map[string]domain.Operation) (map[string]bool, bool) {
	visited := make(map[string]bool)
	exits := false
	queue := []string{ingress.Next}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		op, ok := ops[current]
		if !ok {
			continue
		}
		visited[current] = true

		if p, ok := op.(*domain.Process); ok && p.Exit {
			exits = true
		}
		for _, target := range domain.Targets(op) {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}
	return visited, exits
}

func loadOf(op domain.Operation) (domain.Address, bool) {
	switch o := op.(type) {
	case *domain.Process:
		return o.Load, true
	case *domain.Switch:
		return o.Load, true
	}
	return "", false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/foundry/pkg/domain"
)

func (e *Engine) stepIngress(p *program, op *domain.Ingress, env domain.Environment) (domain.Operation, domain.Environment, error) {
	env = env.Set(op.Prompt, domain.NewMedium(p.alignment.Instruction))
	next, err := p.resolve(op, op.Next)
	if err != nil {
		return nil, env, err
	}
	return next, env, nil
}

func (e *Engine) stepProcess(ctx context.Context, foundry Apparatuses, p *program, op *domain.Process, env domain.Environment) (domain.Operation, domain.Environment, error) {
	processor, err := foundry.Processor(op.Opcode)
	if err != nil {
		return nil, env, err
	}
	input, err := e.load(p, op.Opcode, op.Load, env)
	if err != nil {
		return nil, env, err
	}

	e.emitApparatusCall(ctx, p.alignment.Name, domain.ApparatusProcessor, op.Opcode)
	start := time.Now()
	datum, err := invokeProcessor(ctx, processor, input)
	e.emitApparatusReturn(ctx, p.alignment.Name, domain.ApparatusProcessor, op.Opcode, time.Since(start), nil, err != nil)
	if err != nil {
		return nil, env, &domain.ApparatusError{Stage: domain.StageProcess, Opcode: op.Opcode, Err: err}
	}

	env = env.Set(op.Save, domain.NewMedium(datum))

	if op.Exit {
		return p.egress, env, nil
	}
	next, err := p.resolve(op, op.Next)
	if err != nil {
		return nil, env, err
	}
	return next, env, nil
}

func (e *Engine) stepSwitch(ctx context.Context, foundry Apparatuses, p *program, op *domain.Switch, env domain.Environment) (domain.Operation, domain.Environment, error) {
	switcher, err := foundry.Switcher(op.Opcode)
	if err != nil {
		return nil, env, err
	}
	input, err := e.load(p, op.Opcode, op.Load, env)
	if err != nil {
		return nil, env, err
	}

	e.emitApparatusCall(ctx, p.alignment.Name, domain.ApparatusSwitcher, op.Opcode)
	start := time.Now()
	valid, payload, err := invokeSwitcher(ctx, switcher, input)
	e.emitApparatusReturn(ctx, p.alignment.Name, domain.ApparatusSwitcher, op.Opcode, time.Since(start), &valid, err != nil)
	if err != nil {
		return nil, env, &domain.ApparatusError{Stage: domain.StageSwitch, Opcode: op.Opcode, Err: err}
	}

	saveTo, target := op.SaveFalse, op.NextWhenFalse
	if valid {
		saveTo, target = op.SaveTrue, op.NextWhenTrue
	}
	env = env.Set(saveTo, domain.NewMedium(payload))

	next, err := p.resolve(op, target)
	if err != nil {
		return nil, env, err
	}
	return next, env, nil
}

// stepEgress assembles the run output from the registers named by the Egress.
func (e *Engine) stepEgress(op *domain.Egress, env domain.Environment) (map[string]any, error) {
	output := make(map[string]any, len(op.Result))
	for key, addr := range op.Result {
		m, err := env.Get(addr)
		if err != nil {
			return nil, &domain.LookupError{Stage: domain.StageRegister, Opcode: string(domain.KindEgress), Address: addr}
		}
		output[key] = m.Value
	}
	return output, nil
}

// load reads a register and checks it against the declared load type, if any.
func (e *Engine) load(p *program, opcode string, addr domain.Address, env domain.Environment) (domain.Medium, error) {
	m, err := env.Get(addr)
	if err != nil {
		return domain.Medium{}, &domain.LookupError{Stage: domain.StageRegister, Opcode: opcode, Address: addr}
	}
	if t, ok := p.loadTypes[opcode]; ok {
		if err := t.Validate(m.Value); err != nil {
			return domain.Medium{}, &domain.TypeMismatchError{
				Opcode:   opcode,
				Address:  addr,
				Expected: t.Name(),
				Err:      err,
			}
		}
	}
	return m, nil
}

// invokeProcessor calls the apparatus, converting a panic into an error.
func invokeProcessor(ctx context.Context, fn domain.Processor, m domain.Medium) (datum any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, m)
}

// invokeSwitcher calls the apparatus, converting a panic into an error.
func invokeSwitcher(ctx context.Context, fn domain.Switcher, m domain.Medium) (valid bool, payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, m)
}

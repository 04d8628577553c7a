package runtime

import (
	"context"
	"time"

	"github.com/aretw0/foundry/pkg/domain"
)

// guard runs a lifecycle hook; a panicking hook is logged and does not abort the run.
func (e *Engine) guard(ctx context.Context, hook string, call func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WarnContext(ctx, "lifecycle hook panicked", "hook", hook, "panic", r)
		}
	}()
	call()
}

func (e *Engine) emitRunStart(ctx context.Context, alignment string) {
	if e.hooks.OnRunStart == nil {
		return
	}
	e.guard(ctx, "OnRunStart", func() {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRunStart, Alignment: alignment},
		})
	})
}

func (e *Engine) emitRunFinish(ctx context.Context, alignment string, steps int, err error) {
	if e.hooks.OnRunFinish == nil {
		return
	}
	e.guard(ctx, "OnRunFinish", func() {
		e.hooks.OnRunFinish(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRunFinish, Alignment: alignment},
			Steps:     steps,
			Err:       err,
		})
	})
}

func (e *Engine) emitOperationEnter(ctx context.Context, alignment string, step int, op domain.Operation) {
	if e.hooks.OnOperationEnter == nil {
		return
	}
	e.guard(ctx, "OnOperationEnter", func() {
		e.hooks.OnOperationEnter(ctx, &domain.OperationEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventOperationEnter, Alignment: alignment},
			Step:      step,
			Kind:      op.Kind(),
			Opcode:    domain.Opcode(op),
		})
	})
}

func (e *Engine) emitOperationLeave(ctx context.Context, alignment string, step int, op domain.Operation) {
	if e.hooks.OnOperationLeave == nil {
		return
	}
	e.guard(ctx, "OnOperationLeave", func() {
		e.hooks.OnOperationLeave(ctx, &domain.OperationEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventOperationLeave, Alignment: alignment},
			Step:      step,
			Kind:      op.Kind(),
			Opcode:    domain.Opcode(op),
		})
	})
}

func (e *Engine) emitApparatusCall(ctx context.Context, alignment string, kind domain.ApparatusKind, opcode string) {
	if e.hooks.OnApparatusCall == nil {
		return
	}
	e.guard(ctx, "OnApparatusCall", func() {
		e.hooks.OnApparatusCall(ctx, &domain.ApparatusEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventApparatusCall, Alignment: alignment},
			Kind:      kind,
			Opcode:    opcode,
		})
	})
}

func (e *Engine) emitApparatusReturn(ctx context.Context, alignment string, kind domain.ApparatusKind, opcode string, d time.Duration, verdict *bool, isError bool) {
	if e.hooks.OnApparatusReturn == nil {
		return
	}
	e.guard(ctx, "OnApparatusReturn", func() {
		e.hooks.OnApparatusReturn(ctx, &domain.ApparatusEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventApparatusReturn, Alignment: alignment},
			Kind:      kind,
			Opcode:    opcode,
			Duration:  d,
			Verdict:   verdict,
			IsError:   isError,
		})
	})
}

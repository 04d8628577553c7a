package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/foundry/pkg/domain"
)

// LoggingHooks traces the engine lifecycle at debug level.
// Failed runs and apparatus errors are logged as warnings.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.DebugContext(ctx, "run_start", "alignment", e.Alignment)
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "run_finish", "alignment", e.Alignment, "steps", e.Steps, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "run_finish", "alignment", e.Alignment, "steps", e.Steps)
		},
		OnOperationEnter: func(ctx context.Context, e *domain.OperationEvent) {
			logger.DebugContext(ctx, "operation_enter", "step", e.Step, "kind", e.Kind, "opcode", e.Opcode)
		},
		OnApparatusReturn: func(ctx context.Context, e *domain.ApparatusEvent) {
			attrs := []any{"kind", e.Kind, "opcode", e.Opcode, "duration", e.Duration}
			if e.Verdict != nil {
				attrs = append(attrs, "verdict", *e.Verdict)
			}
			if e.IsError {
				logger.WarnContext(ctx, "apparatus_return", append(attrs, "is_error", true)...)
				return
			}
			logger.DebugContext(ctx, "apparatus_return", attrs...)
		},
	}
}

// Combine merges hook sets; each callback fans out in argument order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range hooks {
		out.OnRunStart = chain(out.OnRunStart, h.OnRunStart)
		out.OnRunFinish = chain(out.OnRunFinish, h.OnRunFinish)
		out.OnOperationEnter = chain(out.OnOperationEnter, h.OnOperationEnter)
		out.OnOperationLeave = chain(out.OnOperationLeave, h.OnOperationLeave)
		out.OnApparatusCall = chain(out.OnApparatusCall, h.OnApparatusCall)
		out.OnApparatusReturn = chain(out.OnApparatusReturn, h.OnApparatusReturn)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

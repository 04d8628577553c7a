package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart        EventType = "run_start"
	EventRunFinish       EventType = "run_finish"
	EventOperationEnter  EventType = "operation_enter"
	EventOperationLeave  EventType = "operation_leave"
	EventApparatusCall   EventType = "apparatus_call"
	EventApparatusReturn EventType = "apparatus_return"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Alignment string    `json:"alignment,omitempty"`
}

// RunEvent marks the start or the end of a run.
type RunEvent struct {
	EventBase
	Steps int   `json:"steps"`
	Err   error `json:"-"`
}

// OperationEvent represents entry into or exit from an operation.
type OperationEvent struct {
	EventBase
	Step   int           `json:"step"`
	Kind   OperationKind `json:"kind"`
	Opcode string        `json:"opcode,omitempty"`
}

// ApparatusEvent represents a Processor or Switcher invocation.
type ApparatusEvent struct {
	EventBase
	Kind     ApparatusKind `json:"kind"`
	Opcode   string        `json:"opcode"`
	Duration time.Duration `json:"duration,omitempty"`
	Verdict  *bool         `json:"verdict,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Every field is optional.
type LifecycleHooks struct {
	OnRunStart        func(context.Context, *RunEvent)
	OnRunFinish       func(context.Context, *RunEvent)
	OnOperationEnter  func(context.Context, *OperationEvent)
	OnOperationLeave  func(context.Context, *OperationEvent)
	OnApparatusCall   func(context.Context, *ApparatusEvent)
	OnApparatusReturn func(context.Context, *ApparatusEvent)
}

package domain

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	// ErrStructural marks a malformed alignment (cardinality, dangling transitions).
	ErrStructural = errors.New("structural error")
	// ErrLookup marks a reference that cannot be resolved (register or apparatus).
	ErrLookup = errors.New("lookup error")
	// ErrApparatus marks a failure raised by a Processor or Switcher.
	ErrApparatus = errors.New("apparatus error")
	// ErrResourceExhausted marks a run that hit its step budget.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrRunNotFound is returned when a run ID cannot be found in the store.
	ErrRunNotFound = errors.New("run not found")
	// ErrAlignmentNotFound is returned by loaders for an unknown alignment ID.
	ErrAlignmentNotFound = errors.New("alignment not found")
	// ErrInvalidAlignment marks a stored alignment document that cannot be parsed.
	ErrInvalidAlignment = errors.New("invalid alignment document")
)

// Stage names the part of the machine an error originates from.
type Stage string

const (
	StageAlignment Stage = "alignment"
	StageIngress   Stage = "ingress"
	StageProcess   Stage = "process"
	StageSwitch    Stage = "switch"
	StageEgress    Stage = "egress"
	StageRegister  Stage = "register"
	StageProcessor Stage = "processor"
	StageSwitcher  Stage = "switcher"
)

// StageOf maps an operation to its stage.
func StageOf(op Operation) Stage {
	switch op.(type) {
	case *Ingress:
		return StageIngress
	case *Process:
		return StageProcess
	case *Switch:
		return StageSwitch
	case *Egress:
		return StageEgress
	}
	return StageAlignment
}

// StructuralError reports an alignment that violates the shape the engine requires.
type StructuralError struct {
	Stage  Stage
	Opcode string
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Opcode != "" {
		return fmt.Sprintf("structural error at %s '%s': %s", e.Stage, e.Opcode, e.Reason)
	}
	return fmt.Sprintf("structural error at %s: %s", e.Stage, e.Reason)
}

func (e *StructuralError) Is(target error) bool { return target == ErrStructural }

// LookupError reports an unresolvable register or apparatus.
// Stage is StageRegister for registers, StageProcessor/StageSwitcher for apparatuses.
type LookupError struct {
	Stage   Stage
	Opcode  string
	Address Address
}

func (e *LookupError) Error() string {
	switch e.Stage {
	case StageRegister:
		if e.Opcode != "" {
			return fmt.Sprintf("lookup error: register '%s' read by '%s' was never written", e.Address, e.Opcode)
		}
		return fmt.Sprintf("lookup error: register '%s' was never written", e.Address)
	default:
		return fmt.Sprintf("lookup error: no %s named '%s' in foundry", e.Stage, e.Opcode)
	}
}

func (e *LookupError) Is(target error) bool { return target == ErrLookup }

// TypeMismatchError reports a register whose content does not match the type
// declared by the operation reading it. It is a flavour of lookup failure.
type TypeMismatchError struct {
	Opcode   string
	Address  Address
	Expected string
	Err      error
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("lookup error: register '%s' read by '%s' is not a %s: %v", e.Address, e.Opcode, e.Expected, e.Err)
}

func (e *TypeMismatchError) Unwrap() error { return e.Err }

func (e *TypeMismatchError) Is(target error) bool { return target == ErrLookup }

// ApparatusError wraps a failure returned (or panicked) by a Processor or Switcher.
type ApparatusError struct {
	Stage  Stage
	Opcode string
	Err    error
}

func (e *ApparatusError) Error() string {
	return fmt.Sprintf("apparatus error at %s '%s': %v", e.Stage, e.Opcode, e.Err)
}

func (e *ApparatusError) Unwrap() error { return e.Err }

func (e *ApparatusError) Is(target error) bool { return target == ErrApparatus }

// ResourceExhaustionError reports a run aborted by its step budget.
// Opcode is the operation that would have run next.
type ResourceExhaustionError struct {
	Limit  int
	Steps  int
	Opcode string
}

func (e *ResourceExhaustionError) Error() string {
	return fmt.Sprintf("resource exhausted: step limit %d reached before egress (next: '%s')", e.Limit, e.Opcode)
}

func (e *ResourceExhaustionError) Is(target error) bool { return target == ErrResourceExhausted }

package domain

// Alignment is the executable program of one workflow: an ordered list of
// operations plus the instruction seeded by Ingress.
// It is never modified by the engine and may be reused across runs.
type Alignment struct {
	Name        string      `json:"name,omitempty"`
	Instruction string      `json:"instruction"`
	Operations  []Operation `json:"operations"`
}

// WithInstruction returns a shallow copy of the alignment with a different instruction.
// Operations are shared since they are read-only during execution.
func (a *Alignment) WithInstruction(instruction string) *Alignment {
	clone := *a
	clone.Instruction = instruction
	return &clone
}

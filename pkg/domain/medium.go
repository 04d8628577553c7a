package domain

// Medium wraps one payload flowing through the pipeline.
// A Medium is created once (by ingress or by an apparatus call) and never mutated.
type Medium struct {
	Value any `json:"value"`
}

// NewMedium wraps a payload.
func NewMedium(value any) Medium {
	return Medium{Value: value}
}

// Address names a register in the Environment.
type Address string

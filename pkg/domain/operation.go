package domain

import "encoding/json"

// OperationKind discriminates the four operation variants.
type OperationKind string

const (
	// KindIngress seeds the instruction and jumps to the first internal operation.
	KindIngress OperationKind = "ingress"
	// KindProcess runs a Processor and moves on unconditionally.
	KindProcess OperationKind = "process"
	// KindSwitch runs a Switcher and branches on its verdict.
	KindSwitch OperationKind = "switch"
	// KindEgress is the terminal operation that assembles the run result.
	KindEgress OperationKind = "egress"
)

// Operation is a sealed sum type implemented by *Ingress, *Process, *Switch and *Egress.
type Operation interface {
	Kind() OperationKind
	operation()
}

// Ingress is the unique entry point of an Alignment.
type Ingress struct {
	Next   string  `json:"next" mapstructure:"next"`
	Prompt Address `json:"prompt_addr" mapstructure:"prompt_addr"`
}

// Process invokes the Processor named by Opcode on the register Load and stores
// the result in Save. If Exit is set the run proceeds to Egress regardless of Next.
type Process struct {
	Opcode string  `json:"opcode" mapstructure:"opcode"`
	Load   Address `json:"load_addr" mapstructure:"load_addr"`
	Save   Address `json:"save_addr" mapstructure:"save_addr"`
	Next   string  `json:"next,omitempty" mapstructure:"next"`
	Exit   bool    `json:"exit,omitempty" mapstructure:"exit"`

	// LoadType optionally declares the type expected in Load (see package schema).
	LoadType string `json:"load_type,omitempty" mapstructure:"load_type"`
}

// Switch invokes the Switcher named by Opcode and branches on its verdict,
// saving the payload to the register of the branch taken.
type Switch struct {
	Opcode        string  `json:"opcode" mapstructure:"opcode"`
	Load          Address `json:"load_addr" mapstructure:"load_addr"`
	NextWhenTrue  string  `json:"next_when_true" mapstructure:"next_when_true"`
	NextWhenFalse string  `json:"next_when_false" mapstructure:"next_when_false"`
	SaveTrue      Address `json:"save_addr_true" mapstructure:"save_addr_true"`
	SaveFalse     Address `json:"save_addr_false" mapstructure:"save_addr_false"`

	LoadType string `json:"load_type,omitempty" mapstructure:"load_type"`
}

// Egress is the unique terminal operation. Result maps output keys to registers.
type Egress struct {
	Result map[string]Address `json:"result" mapstructure:"result"`
}

func (*Ingress) Kind() OperationKind { return KindIngress }
func (*Process) Kind() OperationKind { return KindProcess }
func (*Switch) Kind() OperationKind  { return KindSwitch }
func (*Egress) Kind() OperationKind  { return KindEgress }

func (*Ingress) operation() {}
func (*Process) operation() {}
func (*Switch) operation()  {}
func (*Egress) operation()  {}

// Opcode returns the opcode of an internal operation (Process or Switch), or "".
func Opcode(op Operation) string {
	switch o := op.(type) {
	case *Process:
		return o.Opcode
	case *Switch:
		return o.Opcode
	}
	return ""
}

// Targets lists the opcodes an operation may transition to.
func Targets(op Operation) []string {
	switch o := op.(type) {
	case *Ingress:
		return []string{o.Next}
	case *Process:
		if o.Exit || o.Next == "" {
			return nil
		}
		return []string{o.Next}
	case *Switch:
		return []string{o.NextWhenTrue, o.NextWhenFalse}
	}
	return nil
}

// MarshalJSON emits the authoring shape {"type": "ingress", ...}.
func (o *Ingress) MarshalJSON() ([]byte, error) {
	type alias Ingress
	return json.Marshal(struct {
		Type OperationKind `json:"type"`
		*alias
	}{KindIngress, (*alias)(o)})
}

// MarshalJSON emits the authoring shape {"type": "process", ...}.
func (o *Process) MarshalJSON() ([]byte, error) {
	type alias Process
	return json.Marshal(struct {
		Type OperationKind `json:"type"`
		*alias
	}{KindProcess, (*alias)(o)})
}

// MarshalJSON emits the authoring shape {"type": "switch", ...}.
func (o *Switch) MarshalJSON() ([]byte, error) {
	type alias Switch
	return json.Marshal(struct {
		Type OperationKind `json:"type"`
		*alias
	}{KindSwitch, (*alias)(o)})
}

// MarshalJSON emits the authoring shape {"type": "egress", ...}.
func (o *Egress) MarshalJSON() ([]byte, error) {
	type alias Egress
	return json.Marshal(struct {
		Type OperationKind `json:"type"`
		*alias
	}{KindEgress, (*alias)(o)})
}

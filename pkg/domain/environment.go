package domain

import "sort"

// Environment is a persistent mapping from Address to Medium.
//
// Set never mutates the receiver: it returns a new Environment holding every
// previous binding plus the new one, so a caller retaining an older Environment
// keeps observing the pre-update registers. The zero value is an empty Environment.
type Environment struct {
	registers map[Address]Medium
}

// NewEnvironment creates an empty Environment.
func NewEnvironment() Environment {
	return Environment{}
}

// Get reads a register. Reading an address that was never written is an error.
func (e Environment) Get(addr Address) (Medium, error) {
	m, ok := e.registers[addr]
	if !ok {
		return Medium{}, &LookupError{Stage: StageRegister, Address: addr}
	}
	return m, nil
}

// Has reports whether the address was written.
func (e Environment) Has(addr Address) bool {
	_, ok := e.registers[addr]
	return ok
}

// Set returns a copy of the environment with addr bound to m.
func (e Environment) Set(addr Address, m Medium) Environment {
	next := make(map[Address]Medium, len(e.registers)+1)
	for k, v := range e.registers {
		next[k] = v
	}
	next[addr] = m
	return Environment{registers: next}
}

// Len returns the number of bound registers.
func (e Environment) Len() int {
	return len(e.registers)
}

// Addresses returns the bound addresses in lexical order.
func (e Environment) Addresses() []Address {
	addrs := make([]Address, 0, len(e.registers))
	for k := range e.registers {
		addrs = append(addrs, k)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Snapshot flattens the registers into plain values, e.g. for reporting.
func (e Environment) Snapshot() map[Address]any {
	out := make(map[Address]any, len(e.registers))
	for k, v := range e.registers {
		out[k] = v.Value
	}
	return out
}

/*
Package domain contains the core domain models of the Foundry interpreter.

It defines the program being executed (an Alignment of typed Operations), the data
flowing through it (Medium values held in a register-addressed Environment), the
contract of the pluggable apparatuses (Processor and Switcher), and the error
taxonomy shared by every layer. This package is kept pure and free of I/O.

# Key Entities

  - Alignment: the executable operation graph plus its initial instruction.
  - Operation: one of Ingress, Process, Switch or Egress.
  - Medium: a single value flowing between operations.
  - Environment: a persistent mapping from register Address to Medium.
  - Processor / Switcher: the callables an Operation dispatches to by opcode.
  - RunRecord: the persisted outcome of one execution.
*/
package domain

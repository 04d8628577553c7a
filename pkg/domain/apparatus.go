package domain

import "context"

// Processor is a named transformation stage: it receives the Medium read from
// the operation's load register and returns the datum to store.
// Asynchronous work (e.g. a model call) simply blocks; ctx carries cancellation.
type Processor func(ctx context.Context, m Medium) (any, error)

// Switcher is a named conditional stage: it returns the branch verdict and the
// payload propagated on the selected branch.
type Switcher func(ctx context.Context, m Medium) (bool, any, error)

// ApparatusKind distinguishes processors from switchers in introspection.
type ApparatusKind string

const (
	ApparatusProcessor ApparatusKind = "processor"
	ApparatusSwitcher  ApparatusKind = "switcher"
)

// Apparatus describes one registered callable.
type Apparatus struct {
	Name string        `json:"name"`
	Kind ApparatusKind `json:"kind"`
}

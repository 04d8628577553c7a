package ports

import (
	"context"

	"github.com/aretw0/foundry/pkg/domain"
)

// AlignmentRunner executes an alignment against an already bound Foundry.
type AlignmentRunner interface {
	Run(ctx context.Context, alignment *domain.Alignment) (*domain.Result, error)
}

// Engine is the surface adapters (HTTP, MCP) drive.
type Engine interface {
	AlignmentRunner

	// Load fetches and parses an alignment by ID.
	Load(id string) (*domain.Alignment, error)

	// List returns the IDs of the alignments known to the loader.
	List() ([]string, error)

	// Validate performs a static check of the alignment against the bound Foundry.
	Validate(alignment *domain.Alignment) error

	// Apparatuses describes the Foundry the engine is bound to.
	Apparatuses() []domain.Apparatus
}

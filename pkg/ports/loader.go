package ports

// AlignmentLoader defines how the engine retrieves alignment definitions.
// This allows the storage layer (Loam, Memory) to be decoupled.
type AlignmentLoader interface {
	// GetAlignment retrieves the raw definition of an alignment by ID.
	// It returns the raw bytes (which the compiler will parse) or an error.
	GetAlignment(id string) ([]byte, error)

	// ListAlignments returns the IDs of all available alignments, sorted.
	ListAlignments() ([]string, error)
}

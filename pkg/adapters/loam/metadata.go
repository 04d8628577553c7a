package loam

// AlignmentMetadata represents the frontmatter (or JSON/YAML body) of an alignment document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type AlignmentMetadata struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Instruction string `json:"instruction" mapstructure:"instruction"`

	// Operations are kept loose; the compiler decodes them by their "type".
	Operations []any `json:"operations" mapstructure:"operations"`
}

package loam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/foundry/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts the Loam library to the Foundry AlignmentLoader interface.
// Each document is one alignment. When the metadata has no instruction, the
// document body (e.g. the markdown below the frontmatter) is used instead.
type Loader struct {
	Repo *loam.TypedRepository[AlignmentMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[AlignmentMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir and wraps it.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve alignment directory: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open alignment repository %s: %w", absPath, err)
	}
	return New(loam.NewTypedRepository[AlignmentMetadata](repo)), nil
}

// GetAlignment retrieves an alignment and re-encodes it as a JSON document.
func (l *Loader) GetAlignment(id string) ([]byte, error) {
	ctx := context.Background()

	// Loam resolves "cat" to cat.md / cat.json / cat.yaml.
	doc, err := l.Repo.Get(ctx, id)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlignmentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	name := doc.Data.Name
	if name == "" {
		name = documentID(doc.ID, doc.Data)
	}
	instruction := doc.Data.Instruction
	if instruction == "" {
		instruction = strings.TrimSpace(doc.Content)
	}

	operations := make([]any, 0, len(doc.Data.Operations))
	for _, op := range doc.Data.Operations {
		operations = append(operations, stringKeys(op))
	}

	bytes, err := json.Marshal(map[string]any{
		"name":        name,
		"instruction": instruction,
		"operations":  operations,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal alignment %s: %w", id, err)
	}
	return bytes, nil
}

// ListAlignments lists all alignments in the repository.
func (l *Loader) ListAlignments() ([]string, error) {
	ctx := context.Background()
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		id := documentID(doc.ID, doc.Data)

		// Collision Detection
		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// documentID prefers the ID from metadata, falling back to the file ID.
func documentID(docID string, meta AlignmentMetadata) string {
	rawID := meta.ID
	if rawID == "" {
		rawID = docID
	}
	return trimExtension(rawID)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// stringKeys converts YAML-decoded map[any]any values so they can be JSON encoded.
func stringKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[k] = stringKeys(sub)
		}
		return out
	case map[any]any: // YAML often decodes to this
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[fmt.Sprintf("%v", k)] = stringKeys(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = stringKeys(sub)
		}
		return out
	default:
		return v
	}
}

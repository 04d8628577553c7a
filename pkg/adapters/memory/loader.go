package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/foundry/pkg/domain"
)

// Loader implements ports.AlignmentLoader using an in-memory map.
// Safe for concurrent use.
type Loader struct {
	mu         sync.RWMutex
	alignments map[string][]byte
}

// NewLoader creates a new Loader with the provided raw documents (JSON or YAML).
func NewLoader(data map[string]string) *Loader {
	alignments := make(map[string][]byte, len(data))
	for k, v := range data {
		alignments[k] = []byte(v)
	}
	return &Loader{alignments: alignments}
}

// NewFromAlignments creates a new Loader from domain objects.
// This handles serialization automatically, improving DX for tests.
func NewFromAlignments(alignments map[string]*domain.Alignment) (*Loader, error) {
	l := &Loader{alignments: make(map[string][]byte, len(alignments))}
	for id, a := range alignments {
		if err := l.Put(id, a); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Put stores (or replaces) an alignment under id.
func (l *Loader) Put(id string, a *domain.Alignment) error {
	if id == "" {
		return fmt.Errorf("alignment missing ID")
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal alignment %s: %w", id, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.alignments[id] = data
	return nil
}

// GetAlignment retrieves the raw definition of an alignment by ID.
func (l *Loader) GetAlignment(id string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	content, ok := l.alignments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlignmentNotFound, id)
	}
	return content, nil
}

// ListAlignments returns all available alignment IDs.
func (l *Loader) ListAlignments() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.alignments))
	for k := range l.alignments {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}

package compiler

import (
	"errors"
	"fmt"

	"github.com/aretw0/foundry/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when the input holds no alignment.
var ErrEmptyDocument = errors.New("empty alignment document")

// aliases maps the camelCase authoring names onto the canonical field names.
var aliases = map[string]string{
	"promptAddr":    "prompt_addr",
	"loadAddr":      "load_addr",
	"saveAddr":      "save_addr",
	"loadType":      "load_type",
	"nextWhenTrue":  "next_when_true",
	"nextWhenFalse": "next_when_false",
	"saveAddrTrue":  "save_addr_true",
	"saveAddrFalse": "save_addr_false",
}

// document is the top-level authoring shape.
type document struct {
	Name        string           `mapstructure:"name"`
	Instruction string           `mapstructure:"instruction"`
	Operations  []map[string]any `mapstructure:"operations"`
}

// Parser is responsible for converting raw bytes into an Alignment.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a JSON or YAML alignment document.
// Operations are decoded by their "type" field; unknown types and unknown
// fields are rejected.
func (p *Parser) Parse(data []byte) (*domain.Alignment, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse alignment: %w", err)
	}
	if raw == nil {
		return nil, ErrEmptyDocument
	}
	return p.FromMap(raw)
}

// FromMap decodes an already unmarshalled document, such as loam frontmatter.
func (p *Parser) FromMap(raw map[string]any) (*domain.Alignment, error) {
	var doc document
	if err := decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode alignment: %w", err)
	}

	a := &domain.Alignment{
		Name:        doc.Name,
		Instruction: doc.Instruction,
		Operations:  make([]domain.Operation, 0, len(doc.Operations)),
	}
	for i, m := range doc.Operations {
		op, err := p.ParseOperation(m)
		if err != nil {
			return nil, fmt.Errorf("operation #%d: %w", i, err)
		}
		a.Operations = append(a.Operations, op)
	}
	return a, nil
}

// ParseOperation decodes a single operation map.
func (p *Parser) ParseOperation(m map[string]any) (domain.Operation, error) {
	fields, err := normalize(m)
	if err != nil {
		return nil, err
	}

	kind, _ := fields["type"].(string)
	delete(fields, "type")

	var op domain.Operation
	switch domain.OperationKind(kind) {
	case domain.KindIngress:
		op = &domain.Ingress{}
	case domain.KindProcess:
		op = &domain.Process{}
	case domain.KindSwitch:
		op = &domain.Switch{}
	case domain.KindEgress:
		op = &domain.Egress{}
	case "":
		return nil, fmt.Errorf("operation missing type")
	default:
		return nil, fmt.Errorf("unknown operation type %q", kind)
	}

	if err := decode(fields, op); err != nil {
		return nil, fmt.Errorf("invalid %s operation: %w", kind, err)
	}
	return op, nil
}

// normalize copies the map, rewriting aliased keys.
func normalize(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		key := k
		if canonical, ok := aliases[k]; ok {
			key = canonical
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("field %q is given more than once", key)
		}
		out[key] = v
	}
	return out, nil
}

func decode(input any, result any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      result,
		TagName:     "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

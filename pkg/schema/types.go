package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Type defines the contract for register validation.
type Type interface {
	// Name returns the declaration name (e.g., "string", "[int]").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type stringType struct{}

func (t stringType) Name() string { return "string" }

func (t stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return mismatch(t, value, "not a string")
	}
	return nil
}

type intType struct{}

func (t intType) Name() string { return "int" }

func (t intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// Whole floats come from JSON decoding.
		if v == float64(int64(v)) {
			return nil
		}
		return mismatch(t, value, "float is not a whole number")
	case json.Number:
		if _, err := v.Int64(); err != nil {
			return mismatch(t, value, "number is not an integer")
		}
		return nil
	default:
		return mismatch(t, value, "not an integer")
	}
}

type floatType struct{}

func (t floatType) Name() string { return "float" }

func (t floatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return nil
	default:
		return mismatch(t, value, "not a number")
	}
}

type boolType struct{}

func (t boolType) Name() string { return "bool" }

func (t boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return mismatch(t, value, "not a boolean")
	}
	return nil
}

type anyType struct{}

func (t anyType) Name() string { return "any" }

func (t anyType) Validate(value any) error { return nil }

type mapType struct{}

func (t mapType) Name() string { return "map" }

func (t mapType) Validate(value any) error {
	if value == nil {
		return mismatch(t, value, "nil")
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return mismatch(t, value, "not a string-keyed map")
	}
	return nil
}

type sliceType struct {
	elem Type
}

func (t sliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elem.Name())
}

func (t sliceType) Validate(value any) error {
	if value == nil {
		return mismatch(t, value, "nil")
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return mismatch(t, value, "not a list")
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// String creates a string type.
func String() Type { return stringType{} }

// Int creates an integer type.
func Int() Type { return intType{} }

// Float creates a numeric type.
func Float() Type { return floatType{} }

// Bool creates a boolean type.
func Bool() Type { return boolType{} }

// Any accepts every value.
func Any() Type { return anyType{} }

// Map accepts string-keyed maps (JSON objects).
func Map() Type { return mapType{} }

// Slice creates a list type for elements of the given type.
func Slice(elem Type) Type { return sliceType{elem: elem} }

// ParseType converts a declaration into a Type.
// The empty string parses to Any.
func ParseType(decl string) (Type, error) {
	decl = strings.TrimSpace(decl)
	if len(decl) > 2 && decl[0] == '[' && decl[len(decl)-1] == ']' {
		elem, err := ParseType(decl[1 : len(decl)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}

	switch decl {
	case "", "any":
		return Any(), nil
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "map", "object":
		return Map(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", decl)
	}
}

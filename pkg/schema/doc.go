// Package schema provides the declared types an operation can attach to the
// register it reads.
//
// Registers carry no type of their own: a Process or Switch may declare a
// load_type and the engine validates the register content against it before
// calling the apparatus, failing fast instead of handing malformed data on.
//
//	typ, err := schema.ParseType("[string]")
//	if err != nil {
//	    // unsupported declaration
//	}
//	if err := typ.Validate([]any{"a", "b"}); err != nil {
//	    // mismatch
//	}
//
// Supported names: string, int, float, bool, map, any, and [T] for slices.
package schema

/*
Package dsl provides a Go DSL for programmatically constructing Foundry alignments.

It lets developers define pipelines with a fluent builder instead of authoring
JSON or YAML documents, which is handy for generated alignments and for tests.

Example usage:

	b := dsl.New("haiku").Instruction("write a haiku about rain")

	b.Ingress("prompt").Go("gen")
	b.Process("gen").Load("prompt").Save("draft").Go("review")
	b.Switch("review").Load("draft").
		WhenTrue("publish", "approved").
		WhenFalse("gen", "prompt")
	b.Process("publish").Load("approved").Save("final").Exit()
	b.Egress().Bind("poem", "final")

	alignment, err := b.Build()
*/
package dsl

/*
Package foundry interprets alignments: declarative programs that move a value
through a register file by calling user-supplied apparatuses.

An alignment is a list of operations. Exactly one Ingress stores the
instruction and jumps to the first internal operation, Process operations call
a Processor and move on, Switch operations call a Switcher and branch on its
verdict, and exactly one Egress collects the output. Each run owns its
environment; the Foundry and the alignment are shared read-only, so many runs
may execute concurrently.

# Usage

	f, err := registry.New(
		registry.WithProcessor("plan", plan),
		registry.WithProcessor("gen", generate),
	)
	if err != nil {
		log.Fatal(err)
	}

	eng, err := foundry.New(foundry.WithFoundry(f), foundry.WithRepository("./alignments"))
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.RunByID(ctx, "draw-cat")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Output())

Alignments can also be built in code with package dsl, or decoded from YAML or
JSON documents.
*/
package foundry

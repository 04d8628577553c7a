package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/foundry/internal/logging"
	"github.com/aretw0/foundry/internal/presentation/graph"
)

// Validate statically checks an alignment and prints its warnings.
// It returns the structural error, if any.
func Validate(opts Options, ref string, w io.Writer) error {
	logger, cleanup, err := createLogger(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	eng, err := createEngine(opts, logger)
	if err != nil {
		return err
	}
	a, err := resolveAlignment(eng, ref)
	if err != nil {
		return err
	}

	report := eng.Report(a)
	for _, warning := range report.Warnings {
		printSystemMessage(w, "warning: %s", warning)
	}
	if err := report.Err(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Alignment %q is valid.\n", a.Name)
	return nil
}

// Graph prints the alignment as a Mermaid flowchart.
func Graph(opts Options, ref string, w io.Writer) error {
	eng, err := createEngine(opts, logging.NewNop())
	if err != nil {
		return err
	}
	a, err := resolveAlignment(eng, ref)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, graph.GenerateMermaid(a, nil))
	return err
}

// List prints the alignment IDs of the repository.
func List(opts Options, w io.Writer) error {
	eng, err := createEngine(opts, logging.NewNop())
	if err != nil {
		return err
	}
	ids, err := eng.List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/foundry/internal/presentation/tui"
	"github.com/aretw0/foundry/internal/sanitize"
	"github.com/aretw0/foundry/pkg/domain"
)

// ErrRunFailed reports that the run finished with a failure already rendered
// to the output.
var ErrRunFailed = errors.New("run failed")

// Run executes one alignment and writes the run record to w.
func Run(ctx context.Context, opts RunOptions, w io.Writer) error {
	logger, cleanup, err := createLogger(opts.Options)
	if err != nil {
		return err
	}
	defer cleanup()

	eng, err := createEngine(opts.Options, logger)
	if err != nil {
		return err
	}

	a, err := resolveAlignment(eng, opts.Alignment)
	if err != nil {
		return err
	}
	if opts.Instruction != nil {
		instruction, err := sanitize.Instruction(*opts.Instruction)
		if err != nil {
			return err
		}
		a = a.WithInstruction(instruction)
	}
	if err := eng.Validate(a); err != nil {
		return err
	}

	manager, closeStore, err := createRunManager(ctx, opts.Options, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	record, runErr := manager.Run(ctx, eng, opts.RunID, a)
	if record == nil {
		return runErr
	}
	if err := writeRecord(w, record, opts.JSON); err != nil {
		return err
	}
	if runErr != nil {
		logger.Debug("run failed", "run_id", record.ID, "err", runErr)
		return fmt.Errorf("%w: %s", ErrRunFailed, record.Error)
	}
	return nil
}

func writeRecord(w io.Writer, record *domain.RunRecord, jsonMode bool) error {
	if jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}

	md := tui.ResultMarkdown(record)
	if tui.IsTerminal(w) {
		if out, err := tui.NewRenderer()(md); err == nil {
			md = out
		}
	}
	_, err := io.WriteString(w, md)
	return err
}

package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/foundry/pkg/domain"
	"github.com/aretw0/foundry/pkg/registry"
)

// EnvOpcode carries the apparatus name to the child process.
const EnvOpcode = "FOUNDRY_OPCODE"

// waitDelay bounds how long a killed command may hold its output pipes open.
const waitDelay = 2 * time.Second

// Runner turns configured commands into apparatuses.
// Only commands listed in the configuration can run (Allow-Listing).
//
// Protocol: the medium value is written to stdin as JSON. A processor's stdout
// is decoded as JSON when it looks like JSON and is otherwise used as a trimmed
// string. A switcher must print {"valid": bool, "payload": any}.
// A non-zero exit status is an apparatus failure.
type Runner struct {
	baseDir string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Options converts the configuration into registry options.
func (r *Runner) Options(configs []ApparatusConfig) ([]registry.Option, error) {
	opts := make([]registry.Option, 0, len(configs))
	for _, c := range configs {
		if err := c.validate(); err != nil {
			return nil, err
		}
		switch c.Kind {
		case domain.ApparatusProcessor:
			opts = append(opts, registry.WithProcessor(c.Name, r.Processor(c)))
		case domain.ApparatusSwitcher:
			opts = append(opts, registry.WithSwitcher(c.Name, r.Switcher(c)))
		}
	}
	return opts, nil
}

// Processor wraps the command as a Processor.
func (r *Runner) Processor(c ApparatusConfig) domain.Processor {
	return func(ctx context.Context, m domain.Medium) (any, error) {
		out, err := r.run(ctx, c, m)
		if err != nil {
			return nil, err
		}
		return decodeOutput(out), nil
	}
}

type verdict struct {
	Valid   *bool `json:"valid"`
	Payload any   `json:"payload"`
}

// Switcher wraps the command as a Switcher.
func (r *Runner) Switcher(c ApparatusConfig) domain.Switcher {
	return func(ctx context.Context, m domain.Medium) (bool, any, error) {
		out, err := r.run(ctx, c, m)
		if err != nil {
			return false, nil, err
		}
		var v verdict
		if err := json.Unmarshal(bytes.TrimSpace(out), &v); err != nil {
			return false, nil, fmt.Errorf("switcher %s: output is not a verdict object: %w", c.Name, err)
		}
		if v.Valid == nil {
			return false, nil, fmt.Errorf("switcher %s: verdict missing \"valid\"", c.Name)
		}
		return *v.Valid, v.Payload, nil
	}
}

func (r *Runner) run(ctx context.Context, c ApparatusConfig, m domain.Medium) ([]byte, error) {
	timeout, err := c.timeout()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	input, err := json.Marshal(m.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input for %s: %w", c.Name, err)
	}

	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Dir = r.baseDir
	cmd.WaitDelay = waitDelay
	cmd.Stdin = bytes.NewReader(input)

	env := []string{EnvOpcode + "=" + c.Name}
	for k, v := range c.Environment {
		env = append(env, k+"="+v)
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s timed out: %w", c.Name, ctx.Err())
		}
		return nil, fmt.Errorf("execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// decodeOutput auto-detects JSON and falls back to the trimmed text.
func decodeOutput(out []byte) any {
	trimmed := strings.TrimSpace(string(out))

	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var result any
		if err := json.Unmarshal([]byte(trimmed), &result); err == nil {
			return result
		}
	}
	return trimmed
}

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/foundry"
	"github.com/aretw0/foundry/internal/compiler"
	"github.com/aretw0/foundry/internal/logging"
	"github.com/aretw0/foundry/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// Unlike signal.NotifyContext it remembers which signal fired.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger.
// Debug mode writes text to Stderr; a log file always receives JSON at debug level.
// The returned cleanup closes the log file.
func createLogger(opts Options) (*slog.Logger, func(), error) {
	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelDebug
	}
	if opts.LogFile == "" {
		if !opts.Debug {
			return logging.NewNop(), func() {}, nil
		}
		return logging.New(level), func() {}, nil
	}

	f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logging.New(level, logging.NewJSONHandler(f, slog.LevelDebug)), func() { f.Close() }, nil
}

// resolveAlignment treats ref as a file path when such a file exists, and as
// a repository ID otherwise.
func resolveAlignment(eng *foundry.Engine, ref string) (*domain.Alignment, error) {
	info, err := os.Stat(ref)
	if err != nil || info.IsDir() {
		return eng.Load(ref)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read alignment file: %w", err)
	}
	a, err := compiler.NewParser().Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ref, err)
	}
	if a.Name == "" {
		a.Name = strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
	}
	return a, nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

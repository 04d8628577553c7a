// Package sanitize cleans instructions supplied from outside the alignment.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxSize bounds an instruction, in bytes.
const DefaultMaxSize = 64 << 10

// EnvMaxSize overrides DefaultMaxSize.
const EnvMaxSize = "FOUNDRY_MAX_INSTRUCTION_SIZE"

var (
	ErrTooLarge    = errors.New("instruction exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("instruction contains invalid UTF-8 sequences")
)

// Instruction enforces the size limit, requires valid UTF-8 and strips control
// characters other than newline, tab and carriage return.
// Oversized input is rejected, never truncated.
func Instruction(s string) (string, error) {
	if limit := MaxSize(); len(s) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTooLarge, len(s), limit)
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(s, unsafeControl) < 0 {
		return s, nil
	}
	return strings.Map(func(r rune) rune {
		if unsafeControl(r) {
			return -1
		}
		return r
	}, s), nil
}

// MaxSize returns the configured limit.
func MaxSize() int {
	if val := os.Getenv(EnvMaxSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxSize
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

// Package simerr defines the error taxonomy of the simulation engine.
// Callers classify failures with errors.Is against the sentinel values.
package simerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks scenario construction failures: duplicate asset names,
	// missing references, out-of-range radar parameters.
	ErrConfig = errors.New("config error")
	// ErrRange marks degenerate geometry during a physics solve.
	ErrRange = errors.New("range error")
	// ErrResource marks output sink open or write failures.
	ErrResource = errors.New("resource error")
	// ErrInternal marks engine invariant violations, such as sampling a path
	// before finalize.
	ErrInternal = errors.New("internal error")
)

// Config wraps a formatted message as a configuration error.
func Config(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// Range wraps a formatted message as a range error.
func Range(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRange, fmt.Sprintf(format, args...))
}

// Resource wraps a formatted message as a resource error.
func Resource(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrResource, fmt.Sprintf(format, args...))
}

// Internal wraps a formatted message as an internal error.
func Internal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}

// Class returns the taxonomy tag of err, or "unknown".
func Class(err error) string {
	switch {
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrRange):
		return "range"
	case errors.Is(err, ErrResource):
		return "resource"
	case errors.Is(err, ErrInternal):
		return "internal"
	}
	return "unknown"
}

package collectors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks a metric family whose source does not exist on
	// this host (missing device, driver library or debug interface). It is an
	// expected construction outcome, not a user-facing error.
	ErrUnavailable = errors.New("metric source unavailable")

	// ErrTransient marks a single failed read of a source that exists. The
	// affected streams keep their previous values for this tick.
	ErrTransient = errors.New("transient read failure")
)

// ParseError reports structured counter data that does not have the
// expected shape, such as a /proc/stat summary line with too few fields.
type ParseError struct {
	// Source is the file or command the data came from.
	Source string
	// Line is the offending line, if any.
	Line string
	// Reason describes what was wrong.
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("parse %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("parse %s: %s: %q", e.Source, e.Reason, e.Line)
}

// Transient wraps err so that errors.Is(result, ErrTransient) holds while the
// original cause stays reachable through errors.Is/As.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Unavailable wraps err so that errors.Is(result, ErrUnavailable) holds.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

package helper

import (
	"errors"
	"fmt"
)

// Error kinds shared across the consensus core and its collaborators.
// Use errors.Is to classify an error returned anywhere in the module.
var (
	// ErrInvalidInput marks empty caption sets, empty candidate lists and missing image data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDependencyInit marks an external capability (embedding model, captioning model) that could not be constructed.
	ErrDependencyInit = errors.New("dependency initialization failure")
	// ErrDependencyCall marks a capability call that failed at call time.
	ErrDependencyCall = errors.New("dependency call failure")
)

// Error wraps an error with the operation that produced it
type Error struct {
	Op  string
	Err error
}

// NewError wraps err with an operation label, keeping errors.Is/As intact
func NewError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInput returns an ErrInvalidInput carrying a message
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// DependencyInit wraps err as an ErrDependencyInit for the named dependency
func DependencyInit(dependency string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDependencyInit, dependency, err)
}

// DependencyCall wraps err as an ErrDependencyCall for the named dependency
func DependencyCall(dependency string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDependencyCall, dependency, err)
}

// SourceError attributes a failure to one caption source
type SourceError struct {
	Source string
	Err    error
}

// NewSourceError wraps err with the source that produced it
func NewSourceError(source string, err error) error {
	if err == nil {
		return nil
	}
	return &SourceError{Source: source, Err: err}
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

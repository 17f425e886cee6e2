package modelsync

import (
	"errors"
	"fmt"
)

// Sentinel errors for descriptor operations.
// All use prefix "modelsync:" for identification. Callers should use errors.Is/errors.As.
var (
	ErrInvalidDescriptor = errors.New("modelsync: descriptor is invalid")
	ErrInvalidName       = errors.New("modelsync: invalid registered name")
	ErrTemplateParse     = errors.New("modelsync: template parsing failed")
	ErrMissingVariable   = errors.New("modelsync: required template variable not provided")
)

// VariableError wraps a sentinel error with variable and descriptor context.
// Use errors.Is(err, ErrMissingVariable) and errors.As(err, &variableErr) to inspect.
type VariableError struct {
	Variable   string
	Descriptor string
	Err        error
}

// Error implements error.
func (e *VariableError) Error() string {
	return fmt.Sprintf("modelsync: variable %q in descriptor %q: %v", e.Variable, e.Descriptor, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/errors.As.
func (e *VariableError) Unwrap() error { return e.Err }

// Compile-time check that VariableError implements error.
var _ error = (*VariableError)(nil)

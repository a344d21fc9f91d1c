package model

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrInputNotFound indicates that a required input file does not exist
var ErrInputNotFound = errors.New("input file not found")

// InputError describes a required input that could not be opened
type InputError struct {
	Role string // "context", "output", ...
	Path string
	Err  error
}

// Error implements the error interface
func (e *InputError) Error() string {
	return fmt.Sprintf("%s file %s: %v", e.Role, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *InputError) Unwrap() error {
	return e.Err
}

// Is reports ErrInputNotFound for inputs that do not exist on disk
func (e *InputError) Is(target error) bool {
	return target == ErrInputNotFound && errors.Is(e.Err, fs.ErrNotExist)
}

// NewInputError creates a new InputError
func NewInputError(role, path string, err error) *InputError {
	return &InputError{Role: role, Path: path, Err: err}
}

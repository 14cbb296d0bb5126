package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported operation")
	ErrInternal     = errors.New("internal error")
	ErrUnavailable  = errors.New("service unavailable")
)

// Specific errors.
var (
	ErrInputNotFound      = fmt.Errorf("input path: %w", ErrNotFound)
	ErrLayerNotFound      = fmt.Errorf("layer: %w", ErrNotFound)
	ErrNoLayers           = fmt.Errorf("no vector layers could be opened: %w", ErrNotFound)
	ErrUnsupportedInput   = fmt.Errorf("input format: %w", ErrUnsupported)
	ErrInvalidBoundingBox = fmt.Errorf("bounding box: %w", ErrInvalidInput)
	ErrStorageUnavailable = fmt.Errorf("storage: %w", ErrUnavailable)
	ErrOverpassResponse   = fmt.Errorf("overpass response: %w", ErrUnavailable)
)

// ValidationError represents a detailed validation error.
type ValidationError struct {
	Field      string      // Field that failed validation
	Value      interface{} // The invalid value
	Constraint string      // The constraint that was violated
	Message    string      // Human-readable message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v, constraint: %s)",
		e.Field, e.Message, e.Value, e.Constraint)
}

// Unwrap returns the underlying error type.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// InputError reports an input path that cannot be audited.
type InputError struct {
	Path string // Offending path
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *InputError) Unwrap() error {
	return e.Err
}

// LayerError represents a failure to open or read a layer.
type LayerError struct {
	Source string // Dataset file
	Layer  string // Layer name
	Err    error  // Underlying error
}

// Error implements the error interface.
func (e *LayerError) Error() string {
	if e.Layer != "" {
		return fmt.Sprintf("layer error in %s, layer %s: %v",
			e.Source, e.Layer, e.Err)
	}
	return fmt.Sprintf("layer error in %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *LayerError) Unwrap() error {
	return e.Err
}

// StorageError represents an error during storage operations.
type StorageError struct {
	Operation string // Operation that failed (download, list, etc.)
	Key       string // Object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s for %s: %v",
			e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// WriteError represents a failure to persist a report file.
type WriteError struct {
	Path string // Output file
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidInput
}

// Package errors provides custom error types for the zonewatch engine.
// These errors let callers tell a rejected filter mutation apart from a
// recovered per-axis fetch failure, and let the HTTP layer map each kind
// to a status code without string matching.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the zonewatch engine
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownZone indicates that a zone key is absent from the catalog
	ErrUnknownZone = errors.New("unknown zone")

	// ErrInvalidWindow indicates a time window outside the configured set
	ErrInvalidWindow = errors.New("invalid window")

	// ErrAxisFetch indicates that one metric axis could not be fetched
	ErrAxisFetch = errors.New("axis fetch failure")

	// ErrMalformedRecord indicates a live record missing its key or value
	ErrMalformedRecord = errors.New("malformed record")

	// ErrSuperseded indicates that a generation was replaced by a newer one
	ErrSuperseded = errors.New("generation superseded")

	// ErrDuplicateGeneration indicates a second refresh for the same generation
	ErrDuplicateGeneration = errors.New("generation already reconciled")

	// ErrProviderUnavailable indicates that a metric endpoint is temporarily unavailable
	ErrProviderUnavailable = errors.New("endpoint unavailable")

	// ErrRateLimited indicates that the endpoint rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// UnknownZoneError rejects a filter mutation naming a zone the catalog does not hold.
type UnknownZoneError struct {
	Key string
}

// Error implements the error interface
func (e *UnknownZoneError) Error() string {
	return fmt.Sprintf("unknown zone %q", e.Key)
}

// Is implements errors.Is support
func (e *UnknownZoneError) Is(target error) bool {
	return target == ErrUnknownZone || target == ErrNotFound
}

// NewUnknownZoneError creates a new UnknownZoneError
func NewUnknownZoneError(key string) *UnknownZoneError {
	return &UnknownZoneError{Key: key}
}

// InvalidWindowError rejects a filter mutation with an unsupported window.
type InvalidWindowError struct {
	Hours   int
	Allowed []int
}

// Error implements the error interface
func (e *InvalidWindowError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("invalid window %dh: must be one of %v", e.Hours, e.Allowed)
	}
	return fmt.Sprintf("invalid window %dh", e.Hours)
}

// Is implements errors.Is support
func (e *InvalidWindowError) Is(target error) bool {
	return target == ErrInvalidWindow || target == ErrInvalidInput
}

// NewInvalidWindowError creates a new InvalidWindowError
func NewInvalidWindowError(hours int, allowed []int) *InvalidWindowError {
	return &InvalidWindowError{Hours: hours, Allowed: allowed}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// AxisFetchError is a per-axis network or parse failure. The engine
// recovers from it by falling back to catalog values for that axis only.
type AxisFetchError struct {
	Axis string
	Zone string
	Err  error
}

// Error implements the error interface
func (e *AxisFetchError) Error() string {
	if e.Zone != "" {
		return fmt.Sprintf("fetch %s for zone %q: %v", e.Axis, e.Zone, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Axis, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *AxisFetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AxisFetchError) Is(target error) bool {
	return target == ErrAxisFetch
}

// NewAxisFetchError creates a new AxisFetchError
func NewAxisFetchError(axis, zone string, err error) *AxisFetchError {
	return &AxisFetchError{Axis: axis, Zone: zone, Err: err}
}

// MalformedRecordError describes a live record that was dropped.
type MalformedRecordError struct {
	Axis   string
	Index  int
	Reason string
}

// Error implements the error interface
func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record at index %d: %s", e.Axis, e.Index, e.Reason)
}

// Is implements errors.Is support
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// NewMalformedRecordError creates a new MalformedRecordError
func NewMalformedRecordError(axis string, index int, reason string) *MalformedRecordError {
	return &MalformedRecordError{Axis: axis, Index: index, Reason: reason}
}

// APIError represents an error response from a metric endpoint
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrRateLimited
	}
	if e.StatusCode >= 500 {
		return target == ErrProviderUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(endpoint string, statusCode int, message string) *APIError {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents a failed operation on a named resource
type ResourceError struct {
	Operation string // "load", "create"
	Resource  string // "catalog", "client", "config"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUnknownZone checks if an error rejects an unknown zone
func IsUnknownZone(err error) bool {
	return errors.Is(err, ErrUnknownZone)
}

// IsInvalidWindow checks if an error rejects an unsupported window
func IsInvalidWindow(err error) bool {
	return errors.Is(err, ErrInvalidWindow)
}

// IsAxisFetch checks if an error is a recovered per-axis failure
func IsAxisFetch(err error) bool {
	return errors.Is(err, ErrAxisFetch)
}

// IsMalformedRecord checks if an error describes a dropped record
func IsMalformedRecord(err error) bool {
	return errors.Is(err, ErrMalformedRecord)
}

// IsSuperseded checks if an error reports a superseded generation
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}


// Package errors provides error handling for globi.
//
// This package re-exports github.com/cockroachdb/errors so every package
// gets stack traces, wrapping and hints from one import, and defines the
// error kinds the ingestion engine distinguishes:
//
//	ErrValidation       record failed mandatory-field checks (record skipped)
//	ErrExternalService  DOI or geocoding capability failed (enrichment skipped)
//	ErrMalformedField   unparseable date or out-of-range coordinate (field unset)
//	ErrStoreFailure     persistence failure (fatal for the current transaction)
//
// Only store failures escalate past a single record; everything else is
// recovered where it happens and logged.
//
// Usage:
//
//	if err := tx.Exec(...); err != nil {
//	    return errors.MarkStoreFailure(err, "insert node")
//	}
//
//	if errors.IsStoreFailure(err) {
//	    // abort the batch
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// GetStack returns the reportable stack trace attached to err, if any.
var GetStack = crdb.GetReportableStackTrace

// Common sentinel errors.
var (
	// ErrNotFound indicates the requested node, edge or entity does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the caller passed malformed arguments
	ErrInvalidRequest = New("invalid request")

	// ErrConflict indicates a uniqueness conflict in the store
	ErrConflict = New("resource conflict")
)

// Ingestion error kinds.
var (
	// ErrValidation marks a record rejected by the validator.
	ErrValidation = New("validation failed")

	// ErrExternalService marks a failed DOI or geocoding lookup.
	ErrExternalService = New("external service failure")

	// ErrMalformedField marks a field value that could not be interpreted.
	ErrMalformedField = New("malformed field")

	// ErrStoreFailure marks an I/O failure of the underlying graph store.
	ErrStoreFailure = New("store failure")
)

// MarkStoreFailure wraps err with msg and marks it as a store failure.
// Returns nil when err is nil.
func MarkStoreFailure(err error, msg string) error {
	if err == nil {
		return nil
	}
	return Mark(Wrap(err, msg), ErrStoreFailure)
}

// MarkExternal wraps err with msg and marks it as an external service failure.
func MarkExternal(err error, msg string) error {
	if err == nil {
		return nil
	}
	return Mark(Wrap(err, msg), ErrExternalService)
}

// NewMalformedField creates an error marked as ErrMalformedField.
func NewMalformedField(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrMalformedField)
}

// IsStoreFailure reports whether err is or wraps ErrStoreFailure.
func IsStoreFailure(err error) bool {
	return err != nil && Is(err, ErrStoreFailure)
}

// IsExternalServiceError reports whether err is or wraps ErrExternalService.
func IsExternalServiceError(err error) bool {
	return err != nil && Is(err, ErrExternalService)
}

// IsMalformedField reports whether err is or wraps ErrMalformedField.
func IsMalformedField(err error) bool {
	return err != nil && Is(err, ErrMalformedField)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}

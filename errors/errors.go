// Package errors provides error handling for geodex.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints surfaced to CLI users
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrNoCandidates) {
//	    // handle empty crawl
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
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
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Common sentinel errors for use across geodex.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNoCandidates indicates the crawl produced zero candidate files.
	// This is the only fatal condition of an indexing run.
	ErrNoCandidates = New("no candidate files found")

	// ErrNoCRS indicates a dataset carries no usable coordinate reference system
	ErrNoCRS = New("no coordinate reference system")

	// ErrUnsupportedFormat indicates a file extension has no registered handler
	ErrUnsupportedFormat = New("unsupported format")

	// ErrNoGeometry indicates a source was readable but contained no geometry
	ErrNoGeometry = New("no geometry present")
)

// IsNoCandidates checks if an error is or wraps ErrNoCandidates
func IsNoCandidates(err error) bool {
	return err != nil && Is(err, ErrNoCandidates)
}

// IsNoCRS checks if an error is or wraps ErrNoCRS
func IsNoCRS(err error) bool {
	return err != nil && Is(err, ErrNoCRS)
}

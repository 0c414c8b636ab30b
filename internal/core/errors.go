// Package core defines the fundamental types and errors for VitalGraph.
package core

import (
	"errors"
	"fmt"
)

// Errors that can occur across the system. Insufficient data is never an
// error: scorers and classifiers return their documented zero/empty default
// instead.
var (
	// Storage errors
	ErrPersistence    = errors.New("persistence failed")
	ErrRecordNotFound = errors.New("record not found")

	// Producer-side input errors, rejected before any partial persistence
	ErrMalformedInput = errors.New("malformed input")

	// Remote collaborator errors, non-fatal to the core
	ErrUpstreamFetch = errors.New("upstream fetch failed")
)

// ErrMissingRequired is a malformed-input refinement: callers matching
// ErrMalformedInput catch missing-field rejections too.
var ErrMissingRequired = fmt.Errorf("%w: missing required field", ErrMalformedInput)

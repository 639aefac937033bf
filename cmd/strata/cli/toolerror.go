// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command failures for programmatic callers.
// Scripts and wrappers that drive strata can branch on the category
// (fix the input, retry later, report a bug) instead of matching
// message text.
type ErrorCategory string

const (
	// CategoryValidation: the caller's input was bad. Missing
	// arguments, malformed references, unparseable flag values. Fix
	// the invocation and rerun.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: something the caller named does not exist.
	// An unregistered store path, a missing generation, an alias the
	// registry does not define. Rerunning unchanged will not help.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryConflict: the operation contradicts existing state,
	// like two packages claiming the same file in the merged tree.
	CategoryConflict ErrorCategory = "conflict"

	// CategoryTransient: a temporary failure, typically the network
	// during resolution or fetch. Worth retrying after a backoff.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: a failure the caller cannot fix. Builder
	// crashes, I/O errors, corrupt data the engine itself wrote.
	// Report it rather than retry.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError attaches an [ErrorCategory] to an error. The message the
// user sees is the wrapped error's; the category rides along as
// metadata and is never part of the displayed text. errors.Is and
// errors.As see through the wrapper.
//
// Construct through the per-category helpers ([Validation],
// [NotFound], ...); they accept fmt verbs, including %w to preserve
// an existing chain.
type ToolError struct {
	Category ErrorCategory
	Err      error
}

func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

func categorized(category ErrorCategory, format string, args []any) *ToolError {
	return &ToolError{Category: category, Err: fmt.Errorf(format, args...)}
}

// Validation builds a CategoryValidation error.
func Validation(format string, args ...any) *ToolError {
	return categorized(CategoryValidation, format, args)
}

// NotFound builds a CategoryNotFound error.
func NotFound(format string, args ...any) *ToolError {
	return categorized(CategoryNotFound, format, args)
}

// Conflict builds a CategoryConflict error.
func Conflict(format string, args ...any) *ToolError {
	return categorized(CategoryConflict, format, args)
}

// Transient builds a CategoryTransient error.
func Transient(format string, args ...any) *ToolError {
	return categorized(CategoryTransient, format, args)
}

// Internal builds a CategoryInternal error.
func Internal(format string, args ...any) *ToolError {
	return categorized(CategoryInternal, format, args)
}

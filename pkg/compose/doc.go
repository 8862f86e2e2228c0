// Package compose renders template files by merging tokens, raw partials and
// an optional rendered content template into a single evaluation context.
//
// Every call builds its own Context: tokens first, partials second, the
// rendered content placeholder last, with later entries replacing earlier
// ones of the same name. Caller maps are never written to. Failures are
// returned as *Error and match one of ErrInvalidArgument, ErrNotFound,
// ErrParse, ErrRender or ErrCancelled under errors.Is.
package compose

// Package template defines the engine-agnostic contract the composition
// pipeline renders through. Engines parse template text into an opaque
// Parsed value and execute it against a flat name to value mapping.
//
// Two value types carry meaning across every engine: Text is emitted verbatim
// (no escaping, no re-evaluation) and TextFunc is a zero-argument binding that
// produces Text when called from a template.
package template

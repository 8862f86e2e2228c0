package template

import (
	"context"
	"fmt"
	"strings"
)

// Text is raw output. Engines must write it as-is, without escaping and
// without treating it as template source.
type Text string

// TextFunc is a zero-argument binding returning raw text, e.g. {{ Header() }}.
type TextFunc func() Text

// Parsed is an engine-specific compiled template. It is only valid for the
// engine that produced it.
type Parsed interface {
	Name() string
}

// Engine is the seam between the composer and a concrete template language.
// Parse must return a *ParseError when the text has diagnostics and Execute a
// *RenderError when evaluation fails. Cancellation is reported through the
// context's error rather than a RenderError.
type Engine interface {
	Parse(name, text string) (Parsed, error)
	Execute(ctx context.Context, tpl Parsed, data map[string]any) (string, error)
}

// Diagnostic is a single message reported by an engine parser.
type Diagnostic struct {
	Line    int
	Column  int
	Message string
}

func (d Diagnostic) String() string {
	if d.Line <= 0 {
		return d.Message
	}
	return fmt.Sprintf("line %d, column %d: %s", d.Line, d.Column, d.Message)
}

// ParseError aggregates every diagnostic produced while parsing Name.
type ParseError struct {
	Name        string
	Diagnostics []Diagnostic
}

func (e *ParseError) Error() string {
	if e == nil || len(e.Diagnostics) == 0 {
		return "unknown parse error"
	}
	messages := make([]string, 0, len(e.Diagnostics))
	for _, diag := range e.Diagnostics {
		messages = append(messages, diag.String())
	}
	return strings.Join(messages, ", ")
}

// RenderError reports an evaluation failure for a template that parsed.
type RenderError struct {
	Name string
	Err  error
}

func (e *RenderError) Error() string {
	if e.Err == nil {
		return "render failed"
	}
	return e.Err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

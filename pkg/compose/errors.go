package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors callers branch on with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrParse           = errors.New("parse error")
	ErrRender          = errors.New("render failure")
	ErrCancelled       = errors.New("cancelled")
)

// Kind classifies a composition failure.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotFound
	KindParse
	KindRender
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindParse:
		return "parse"
	case KindRender:
		return "render"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindNotFound:
		return ErrNotFound
	case KindParse:
		return ErrParse
	case KindRender:
		return ErrRender
	case KindCancelled:
		return ErrCancelled
	default:
		return nil
	}
}

// Role names which file of a composition failed.
type Role string

const (
	RoleTemplate Role = "template"
	RoleContent  Role = "content"
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageValidate Stage = "validate"
	StageTheme    Stage = "theme"
	StageRead     Stage = "read"
	StageParse    Stage = "parse"
	StageRender   Stage = "render"
)

// Error is returned by every Composer operation.
type Error struct {
	Kind  Kind
	Role  Role
	Stage Stage
	Path  string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("compose: ")
	b.WriteString(string(e.Role))
	if e.Path != "" {
		fmt.Fprintf(&b, " %q", e.Path)
	}
	if e.Stage != "" {
		b.WriteString(": ")
		b.WriteString(string(e.Stage))
	}
	if e.Kind == KindParse {
		if e.Role == RoleContent {
			b.WriteString(": content template parse errors")
		} else {
			b.WriteString(": template parse errors")
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's Kind.
func (e *Error) Is(target error) bool {
	sentinel := e.Kind.sentinel()
	return sentinel != nil && target == sentinel
}

// KindOf returns the Kind of err, or KindUnknown when err did not come from
// this package.
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return KindUnknown
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

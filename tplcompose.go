// Package tplcompose renders HTML and text documents from template files,
// runtime tokens, raw partial fragments and an optional content template
// composed into a layout placeholder.
//
//	out, err := tplcompose.RenderWithContent(ctx,
//	    "layouts/email.html", tplcompose.Tokens{"name": "Ann"},
//	    "emails/welcome.html", "Body", nil)
//
// The heavy lifting lives in pkg/compose; this package re-exports the types
// and adds one-shot helpers.
package tplcompose

import (
	"context"

	"github.com/goliatone/go-tplcompose/pkg/compose"
)

// Tokens aliases compose.Tokens.
type Tokens = compose.Tokens

// Partials aliases compose.Partials.
type Partials = compose.Partials

// Job aliases compose.Job for batch rendering.
type Job = compose.Job

// Result aliases compose.Result.
type Result = compose.Result

// Option aliases compose.Option.
type Option = compose.Option

// New exposes the composer constructor from the top-level module.
func New(options ...Option) (*compose.Composer, error) {
	return compose.New(options...)
}

// Render builds a composer from options and renders templatePath once.
func Render(ctx context.Context, templatePath string, tokens Tokens, partials Partials, options ...Option) (string, error) {
	c, err := compose.New(options...)
	if err != nil {
		return "", err
	}
	return c.Render(ctx, templatePath, tokens, partials)
}

// RenderWithContent builds a composer from options and renders contentPath
// into placeholderKey of templatePath once.
func RenderWithContent(ctx context.Context, templatePath string, tokens Tokens, contentPath, placeholderKey string, partials Partials, options ...Option) (string, error) {
	c, err := compose.New(options...)
	if err != nil {
		return "", err
	}
	return c.RenderWithContent(ctx, templatePath, tokens, contentPath, placeholderKey, partials)
}

// RenderBatch builds a composer from options and renders jobs concurrently.
func RenderBatch(ctx context.Context, jobs []Job, limit int, options ...Option) ([]Result, error) {
	c, err := compose.New(options...)
	if err != nil {
		return nil, err
	}
	return c.RenderBatch(ctx, jobs, limit)
}

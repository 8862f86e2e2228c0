package compose

import (
	"github.com/goliatone/go-tplcompose/pkg/render/template"
)

// Tokens are caller-supplied values addressed by name from templates.
type Tokens map[string]any

// Partials maps a partial name to raw fragment text.
type Partials map[string]string

// Context is the flat mapping handed to the engine for one render pass.
type Context map[string]any

// BuildContext merges tokens and partials into a new Context. Tokens are
// inserted first and partials second, so a partial replaces a token of the
// same name. Each partial is bound as a template.TextFunc returning its text
// verbatim. Neither argument is modified.
func BuildContext(tokens Tokens, partials Partials) Context {
	out := make(Context, len(tokens)+len(partials)+1)
	for key, value := range tokens {
		out[key] = value
	}
	for key, raw := range partials {
		out[key] = rawPartial(raw)
	}
	return out
}

func rawPartial(raw string) template.TextFunc {
	return func() template.Text {
		return template.Text(raw)
	}
}

// With returns a copy of c with key bound to value. The new binding replaces
// any existing entry.
func (c Context) With(key string, value any) Context {
	out := make(Context, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[key] = value
	return out
}

// merge returns a copy of base overlaid with over.
func merge(base, over Context) Context {
	out := make(Context, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

package pongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-tplcompose/pkg/render/template"
)

// Option configures the pongo2 adapter before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	templateFn map[string]any
	globalData map[string]any
	autoescape bool
}

const (
	autoescapeOff = "{% autoescape off %}"
	autoescapeEnd = "{% endautoescape %}"
)

// WithBaseDir resolves {% include %} and {% extends %} tags against a
// directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS resolves {% include %} and {% extends %} tags against an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithTemplateFunc registers helper functions or filters when the engine loads.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFn == nil {
			cfg.templateFn = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFn[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds values visible to every template. Per-render data wins
// over globals with the same name.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithAutoescape turns on pongo2's HTML autoescaping of string values. It is
// off by default so token values are emitted exactly as supplied.
func WithAutoescape(enabled bool) Option {
	return func(cfg *config) {
		cfg.autoescape = enabled
	}
}

// Engine satisfies template.Engine using a pongo2 template set.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	autoescape  bool
}

// Ensure Engine implements the Engine interface.
var _ template.Engine = (*Engine)(nil)

type parsed struct {
	name string
	tpl  *pongo2.Template
}

func (p *parsed) Name() string {
	return p.name
}

// New constructs an Engine using the provided configuration options. Without
// a base dir or fs.FS, includes resolve relative to the working directory.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	var loaders []pongo2.TemplateLoader
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	if cfg.baseDir != "" || cfg.templates == nil {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if !cfg.autoescape {
		for i, loader := range loaders {
			loaders[i] = rawLoader{TemplateLoader: loader}
		}
	}

	engine := &Engine{
		templateSet: pongo2.NewSet("tplcompose", loaders...),
		autoescape:  cfg.autoescape,
	}
	registerDefaultFilters()

	if err := engine.GlobalContext(cfg.globalData); err != nil {
		return nil, fmt.Errorf("pongo: apply global data: %w", err)
	}
	for name, fn := range cfg.templateFn {
		if err := engine.registerTemplateFunc(name, fn); err != nil {
			return nil, fmt.Errorf("pongo: register template func %q: %w", name, err)
		}
	}

	return engine, nil
}

// Parse compiles text. Syntax errors are returned as *template.ParseError.
func (e *Engine) Parse(name, text string) (template.Parsed, error) {
	if e == nil || e.templateSet == nil {
		return nil, errors.New("pongo: engine is nil")
	}

	source, offset := text, 0
	if !e.autoescape {
		source, offset = autoescapeOff+text+autoescapeEnd, len(autoescapeOff)
	}

	tpl, err := e.templateSet.FromString(source)
	if err != nil {
		return nil, &template.ParseError{
			Name:        name,
			Diagnostics: diagnosticsFrom(err, offset),
		}
	}
	return &parsed{name: name, tpl: tpl}, nil
}

// Execute renders tpl with data. The render runs on its own goroutine so a
// cancelled context returns immediately; output produced after cancellation
// is discarded.
func (e *Engine) Execute(ctx context.Context, tpl template.Parsed, data map[string]any) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}
	p, ok := tpl.(*parsed)
	if !ok || p == nil || p.tpl == nil {
		return "", fmt.Errorf("pongo: unsupported parsed template %T", tpl)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	viewContext, err := convertToContext(data)
	if err != nil {
		return "", &template.RenderError{Name: p.name, Err: fmt.Errorf("convert data: %w", err)}
	}

	type outcome struct {
		rendered string
		err      error
	}
	done := make(chan outcome, 1)

	go func() {
		var buf bytes.Buffer

		e.mu.RLock()
		err := p.tpl.ExecuteWriterUnbuffered(viewContext, contextWriter{ctx: ctx, w: &buf})
		e.mu.RUnlock()

		done <- outcome{rendered: buf.String(), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if res.err != nil {
			return "", &template.RenderError{Name: p.name, Err: res.err}
		}
		return res.rendered, nil
	}
}

// RenderString parses and executes templateContent in one step, writing the
// result to any supplied writers.
func (e *Engine) RenderString(ctx context.Context, templateContent string, data map[string]any, out ...io.Writer) (string, error) {
	tpl, err := e.Parse("<string>", templateContent)
	if err != nil {
		return "", err
	}
	rendered, err := e.Execute(ctx, tpl, data)
	if err != nil {
		return "", err
	}
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

// RegisterFilter registers a template filter. Filters are process-wide in
// pongo2, so registering an existing name fails.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("pongo: filter name and function required")
	}

	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "custom_filter", OrigError: err}
		}
		if text, ok := result.(template.Text); ok {
			return pongo2.AsSafeValue(string(text)), nil
		}
		return pongo2.AsValue(result), nil
	}

	if pongo2.FilterExists(name) {
		return fmt.Errorf("pongo: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, filter)
}

// GlobalContext seeds global data on the template set.
func (e *Engine) GlobalContext(data map[string]any) error {
	if e == nil || e.templateSet == nil {
		return errors.New("pongo: engine is nil")
	}
	if data == nil {
		return nil
	}

	globalCtx, err := convertToContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals.Update(globalCtx)
	return nil
}

func (e *Engine) registerTemplateFunc(name string, fn any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return nil
	}

	if filter, ok := fn.(pongo2.FilterFunction); ok {
		if pongo2.FilterExists(trimmed) {
			return nil
		}
		return pongo2.RegisterFilter(trimmed, filter)
	}

	if !isCallable(fn) {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals[trimmed] = fn
	return nil
}

// diagnosticsFrom converts a pongo2 error. offset is the length of the
// wrapper prepended to the first line of the source.
func diagnosticsFrom(err error, offset int) []template.Diagnostic {
	var perr *pongo2.Error
	if errors.As(err, &perr) && perr != nil {
		message := perr.Error()
		if perr.OrigError != nil {
			message = perr.OrigError.Error()
		}
		column := perr.Column
		if perr.Line == 1 && column > offset {
			column -= offset
		}
		return []template.Diagnostic{{
			Line:    perr.Line,
			Column:  column,
			Message: message,
		}}
	}
	return []template.Diagnostic{{Message: err.Error()}}
}

// contextWriter stops accepting output once ctx is done.
type contextWriter struct {
	ctx context.Context
	w   io.Writer
}

func (cw contextWriter) Write(p []byte) (int, error) {
	if err := cw.ctx.Err(); err != nil {
		return 0, err
	}
	return cw.w.Write(p)
}

// rawLoader wraps every loaded template in an autoescape-off block so that
// included and extended templates emit values unescaped as well.
type rawLoader struct {
	pongo2.TemplateLoader
}

func (l rawLoader) Get(path string) (io.Reader, error) {
	r, err := l.TemplateLoader.Get(path)
	if err != nil {
		return nil, err
	}
	return io.MultiReader(strings.NewReader(autoescapeOff), r, strings.NewReader(autoescapeEnd)), nil
}

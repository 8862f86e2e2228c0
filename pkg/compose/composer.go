package compose

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/goliatone/go-tplcompose/internal/loader"
	"github.com/goliatone/go-tplcompose/pkg/render/template"
	"github.com/goliatone/go-tplcompose/pkg/render/template/pongo"
)

// Composer renders template files, optionally composing a content template
// into a placeholder of the primary template. It keeps no per-call state and
// is safe for concurrent use.
type Composer struct {
	engine         template.Engine
	files          FileSystem
	loaderOptions  LoaderOptions
	logger         hclog.Logger
	placeholderKey string
	theme          *themeConfig
}

// New constructs a Composer. Missing collaborators are filled with the
// built-in pongo2 engine and file loader.
func New(options ...Option) (*Composer, error) {
	c := &Composer{
		logger:         hclog.NewNullLogger(),
		placeholderKey: DefaultPlaceholderKey,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}

	if c.engine == nil {
		engine, err := pongo.New()
		if err != nil {
			return nil, fmt.Errorf("compose: default engine: %w", err)
		}
		c.engine = engine
	}
	if c.files == nil {
		c.files = loader.New(loader.Options{
			FileSystem:     c.loaderOptions.FileSystem,
			HTTPClient:     c.loaderOptions.HTTPClient,
			AllowHTTP:      c.loaderOptions.AllowHTTP,
			RequestTimeout: c.loaderOptions.RequestTimeout,
		})
	}
	return c, nil
}

// Render renders the template at templatePath with tokens and partials.
func (c *Composer) Render(ctx context.Context, templatePath string, tokens Tokens, partials Partials) (string, error) {
	if err := validate(ctx, RoleTemplate, templatePath); err != nil {
		return "", err
	}

	base, err := c.baseContext(ctx, tokens, partials)
	if err != nil {
		return "", err
	}
	return c.renderFile(ctx, RoleTemplate, templatePath, base)
}

// RenderWithContent renders the template at contentPath, binds the result as
// raw text under placeholderKey (DefaultPlaceholderKey when blank) and then
// renders the template at templatePath. The content template sees tokens and
// partials but never its own placeholder. The injected value wins over a
// token or partial with the same name.
func (c *Composer) RenderWithContent(ctx context.Context, templatePath string, tokens Tokens, contentPath, placeholderKey string, partials Partials) (string, error) {
	if err := validate(ctx, RoleContent, contentPath); err != nil {
		return "", err
	}
	if err := validate(ctx, RoleTemplate, templatePath); err != nil {
		return "", err
	}

	key := strings.TrimSpace(placeholderKey)
	if key == "" {
		key = c.placeholderKey
	}

	base, err := c.baseContext(ctx, tokens, partials)
	if err != nil {
		return "", err
	}

	content, err := c.renderFile(ctx, RoleContent, contentPath, base)
	if err != nil {
		return "", err
	}

	return c.renderFile(ctx, RoleTemplate, templatePath, base.With(key, template.Text(content)))
}

func validate(ctx context.Context, role Role, path string) error {
	if ctx == nil {
		return &Error{Kind: KindInvalidArgument, Role: role, Stage: StageValidate, Err: errors.New("context is required")}
	}
	if strings.TrimSpace(path) == "" {
		return &Error{Kind: KindInvalidArgument, Role: role, Stage: StageValidate, Err: errors.New("path is required")}
	}
	return nil
}

func (c *Composer) baseContext(ctx context.Context, tokens Tokens, partials Partials) (Context, error) {
	base := BuildContext(tokens, partials)
	if c.theme == nil {
		return base, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, c.fail(KindCancelled, RoleTemplate, StageTheme, "", err)
	}

	binding, err := c.theme.binding()
	if err != nil {
		return nil, c.fail(KindRender, RoleTemplate, StageTheme, "", err)
	}
	return merge(Context{c.theme.key: binding}, base), nil
}

func (c *Composer) renderFile(ctx context.Context, role Role, path string, data Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", c.fail(KindCancelled, role, StageRead, path, err)
	}

	exists, err := c.files.Exists(ctx, path)
	if err != nil {
		return "", c.fail(KindRender, role, StageRead, path, err)
	}
	if !exists {
		return "", c.fail(KindNotFound, role, StageRead, path, fmt.Errorf("%s file not found: %w", role, fs.ErrNotExist))
	}

	text, err := c.files.Read(ctx, path)
	if err != nil {
		kind := KindRender
		if errors.Is(err, fs.ErrNotExist) {
			kind = KindNotFound
		}
		return "", c.fail(kind, role, StageRead, path, err)
	}

	parsed, err := c.engine.Parse(path, text)
	if err != nil {
		return "", c.fail(KindParse, role, StageParse, path, err)
	}

	out, err := c.engine.Execute(ctx, parsed, data)
	if err != nil {
		return "", c.fail(KindRender, role, StageRender, path, err)
	}

	c.logger.Trace("rendered template", "role", role, "path", path, "bytes", len(out))
	return out, nil
}

func (c *Composer) fail(kind Kind, role Role, stage Stage, path string, err error) error {
	if isCancellation(err) {
		kind = KindCancelled
	}
	cerr := &Error{Kind: kind, Role: role, Stage: stage, Path: path, Err: err}

	if kind == KindCancelled {
		c.logger.Debug("render cancelled", "role", role, "stage", stage, "path", path)
	} else {
		c.logger.Error("failed to render template", "role", role, "stage", stage, "path", path, "error", err)
	}
	return cerr
}

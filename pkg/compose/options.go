package compose

import (
	"context"
	"io/fs"
	"net/http"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"
	"github.com/hashicorp/go-hclog"

	"github.com/goliatone/go-tplcompose/pkg/render/template"
)

// DefaultPlaceholderKey is the binding rendered content is injected under
// when RenderWithContent is called with a blank key.
const DefaultPlaceholderKey = "Body"

// DefaultThemeKey is the binding that carries the selected theme.
const DefaultThemeKey = "Theme"

// FileSystem is the file capability the Composer reads templates through.
// Exists must report a missing file as (false, nil); Read should return an
// error matching fs.ErrNotExist for missing files.
type FileSystem interface {
	Exists(ctx context.Context, path string) (bool, error)
	Read(ctx context.Context, path string) (string, error)
}

// LoaderOptions configures the built-in FileSystem used when WithFileSystem
// is not supplied.
type LoaderOptions struct {
	// FileSystem resolves paths inside an fs.FS instead of local disk.
	FileSystem fs.FS
	// HTTPClient serves http(s) paths. Optional.
	HTTPClient *http.Client
	// AllowHTTP enables http(s) paths.
	AllowHTTP bool
	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration
}

// Option customises the Composer configuration.
type Option func(*Composer)

// WithEngine injects the template engine. Defaults to the pongo2 adapter.
func WithEngine(engine template.Engine) Option {
	return func(c *Composer) {
		c.engine = engine
	}
}

// WithFileSystem injects the file capability. Defaults to the built-in loader.
func WithFileSystem(files FileSystem) Option {
	return func(c *Composer) {
		c.files = files
	}
}

// WithLoaderOptions configures the built-in loader. Ignored when
// WithFileSystem is also supplied.
func WithLoaderOptions(options LoaderOptions) Option {
	return func(c *Composer) {
		c.loaderOptions = options
	}
}

// WithLogger sets the logger failures and renders are reported to.
func WithLogger(logger hclog.Logger) Option {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPlaceholderKey overrides DefaultPlaceholderKey.
func WithPlaceholderKey(key string) Option {
	return func(c *Composer) {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			c.placeholderKey = trimmed
		}
	}
}

// WithThemeSelector resolves name/variant through selector on every render
// and binds the selection under DefaultThemeKey, beneath caller tokens.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(c *Composer) {
		if selector == nil {
			c.theme = nil
			return
		}
		c.theme = &themeConfig{
			selector: selector,
			name:     strings.TrimSpace(name),
			variant:  strings.TrimSpace(variant),
			key:      DefaultThemeKey,
		}
	}
}

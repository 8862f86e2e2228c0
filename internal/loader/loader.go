package loader

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// Options selects where template paths resolve.
type Options struct {
	// FileSystem, when set, resolves every non-URL path inside it instead of
	// on local disk.
	FileSystem fs.FS
	// HTTPClient is used for http(s) paths. A pooled go-cleanhttp client is
	// created when AllowHTTP is set and no client is given.
	HTTPClient *http.Client
	// AllowHTTP enables http(s) paths.
	AllowHTTP bool
	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration
}

type sourceKind string

const (
	sourceKindFile sourceKind = "file"
	sourceKindFS   sourceKind = "fs"
	sourceKindURL  sourceKind = "url"
)

// Loader resolves template paths against local files, an fs.FS, or HTTP.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
}

// New constructs a Loader from pre-resolved options.
func New(options Options) *Loader {
	timeout := options.RequestTimeout

	var httpClient *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		httpClient = &clone
	case options.AllowHTTP:
		httpClient = cleanhttp.DefaultPooledClient()
		httpClient.Timeout = timeout
	}

	return &Loader{
		fs:        options.FileSystem,
		http:      httpClient,
		allowHTTP: options.AllowHTTP && httpClient != nil,
		timeout:   timeout,
	}
}

// Exists reports whether path resolves to a readable template. A missing file
// is not an error.
func (l *Loader) Exists(ctx context.Context, path string) (bool, error) {
	switch l.kindOf(path) {
	case sourceKindURL:
		if !l.allowHTTP {
			return false, errors.New("loader: http support disabled")
		}
		return existsHTTP(ctx, l.http, path, l.timeout)
	case sourceKindFS:
		return existsInFS(ctx, l.fs, path)
	default:
		return existsFile(ctx, path)
	}
}

// Read returns the template text at path. Missing files produce an error
// matching fs.ErrNotExist.
func (l *Loader) Read(ctx context.Context, path string) (string, error) {
	var (
		data []byte
		err  error
	)

	switch l.kindOf(path) {
	case sourceKindURL:
		if !l.allowHTTP {
			return "", errors.New("loader: http support disabled")
		}
		data, err = loadHTTP(ctx, l.http, path, l.timeout)
	case sourceKindFS:
		data, err = loadFromFS(ctx, l.fs, path)
	default:
		data, err = loadFile(ctx, path)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (l *Loader) kindOf(path string) sourceKind {
	lower := strings.ToLower(strings.TrimSpace(path))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return sourceKindURL
	}
	if l.fs != nil {
		return sourceKindFS
	}
	return sourceKindFile
}

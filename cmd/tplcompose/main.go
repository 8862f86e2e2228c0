package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-tplcompose/pkg/compose"
	"github.com/goliatone/go-tplcompose/pkg/render/template/pongo"
)

const usage = `usage: tplcompose <command> [flags]

commands:
  render   render one template, optionally composing a content template
  batch    render every job listed in a YAML manifest`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "render":
		return runRender(ctx, args[1:], stdout, stderr)
	case "batch":
		return runBatch(ctx, args[1:], stdout, stderr)
	case "-h", "-help", "--help", "help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

type commonFlags struct {
	baseDir   string
	allowHTTP bool
	timeout   time.Duration
	logLevel  string
}

func (cf *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&cf.baseDir, "base-dir", "", "resolve template, content, partial and include paths inside this directory")
	fs.BoolVar(&cf.allowHTTP, "allow-http", false, "allow http(s) template paths")
	fs.DurationVar(&cf.timeout, "timeout", 10*time.Second, "per-request timeout for http(s) templates")
	fs.StringVar(&cf.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
}

func (cf *commonFlags) composer(stderr io.Writer) (*compose.Composer, hclog.Logger, error) {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "tplcompose",
		Level:  hclog.LevelFromString(cf.logLevel),
		Output: stderr,
	})

	var engineOpts []pongo.Option
	loaderOpts := compose.LoaderOptions{
		AllowHTTP:      cf.allowHTTP,
		RequestTimeout: cf.timeout,
	}
	if cf.baseDir != "" {
		engineOpts = append(engineOpts, pongo.WithBaseDir(cf.baseDir))
		loaderOpts.FileSystem = os.DirFS(cf.baseDir)
	}

	engine, err := pongo.New(engineOpts...)
	if err != nil {
		return nil, nil, err
	}
	c, err := compose.New(
		compose.WithEngine(engine),
		compose.WithLoaderOptions(loaderOpts),
		compose.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	return c, logger, nil
}

func runRender(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		common   commonFlags
		sets     assignments
		partials assignments
	)
	common.register(fs)
	templatePath := fs.String("template", "", "primary template path (required)")
	contentPath := fs.String("content", "", "content template rendered into the placeholder")
	placeholder := fs.String("placeholder", compose.DefaultPlaceholderKey, "placeholder key for the rendered content")
	tokensFile := fs.String("tokens", "", "YAML or JSON file with tokens")
	prompt := fs.String("prompt", "", "comma separated token names to ask for interactively when missing")
	output := fs.String("output", "", "output file (stdout if empty)")
	fs.Var(&sets, "set", "token assignment name=value (repeatable)")
	fs.Var(&partials, "partial", "partial assignment Name=path (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, logger, err := common.composer(stderr)
	if err != nil {
		return err
	}

	tokens, err := loadTokens(*tokensFile)
	if err != nil {
		return err
	}
	for key, value := range sets.values() {
		tokens[key] = value
	}
	if err := promptTokens(ctx, newPrompter(), tokens, splitList(*prompt)); err != nil {
		return err
	}

	partialSet, err := loadPartials(common.baseDir, partials.values())
	if err != nil {
		return err
	}

	var out string
	if strings.TrimSpace(*contentPath) != "" {
		out, err = c.RenderWithContent(ctx, *templatePath, tokens, *contentPath, *placeholder, partialSet)
	} else {
		out, err = c.Render(ctx, *templatePath, tokens, partialSet)
	}
	if err != nil {
		return err
	}

	if *output == "" {
		_, err = io.WriteString(stdout, out)
		return err
	}
	if err := writeOutput(*output, out); err != nil {
		return err
	}
	logger.Info("wrote output", "path", *output, "bytes", len(out))
	return nil
}

func runBatch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var common commonFlags
	common.register(fs)
	manifestPath := fs.String("manifest", "", "YAML batch manifest (required)")
	concurrency := fs.Int("concurrency", 0, "maximum concurrent renders (manifest value or unbounded when 0)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *manifestPath == "" {
		return errors.New("batch: -manifest is required")
	}

	m, err := loadManifest(*manifestPath)
	if err != nil {
		return err
	}
	if common.baseDir == "" && m.BaseDir != "" {
		common.baseDir = m.BaseDir
		if !filepath.IsAbs(common.baseDir) {
			common.baseDir = filepath.Join(filepath.Dir(*manifestPath), common.baseDir)
		}
	}
	limit := m.Concurrency
	if *concurrency > 0 {
		limit = *concurrency
	}

	c, logger, err := common.composer(stderr)
	if err != nil {
		return err
	}

	jobs, err := m.jobs(common.baseDir)
	if err != nil {
		return err
	}
	results, renderErr := c.RenderBatch(ctx, jobs, limit)

	for i, res := range results {
		if res.Err != nil {
			continue
		}
		target := m.Jobs[i].Output
		if target == "" {
			fmt.Fprintf(stdout, "==> %s <==\n%s\n", res.Name, res.Output)
			continue
		}
		if err := writeOutput(target, res.Output); err != nil {
			return err
		}
		logger.Info("wrote output", "job", res.Name, "path", target, "bytes", len(res.Output))
	}
	return renderErr
}

func loadTokens(path string) (compose.Tokens, error) {
	tokens := compose.Tokens{}
	if path == "" {
		return tokens, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}
	// YAML is a superset of JSON, so one decoder serves both.
	if err := yaml.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("decode tokens %s: %w", path, err)
	}
	if tokens == nil {
		tokens = compose.Tokens{}
	}
	return tokens, nil
}

func loadPartials(baseDir string, paths map[string]string) (compose.Partials, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	partials := make(compose.Partials, len(paths))
	for name, path := range paths {
		if baseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read partial %s: %w", name, err)
		}
		partials[name] = string(data)
	}
	return partials, nil
}

func writeOutput(path, contents string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// assignments collects repeatable name=value flags.
type assignments []string

func (a *assignments) String() string {
	return strings.Join(*a, ",")
}

func (a *assignments) Set(raw string) error {
	name, _, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("expected name=value, got %q", raw)
	}
	*a = append(*a, raw)
	return nil
}

func (a assignments) values() map[string]string {
	out := make(map[string]string, len(a))
	for _, raw := range a {
		name, value, _ := strings.Cut(raw, "=")
		out[strings.TrimSpace(name)] = value
	}
	return out
}

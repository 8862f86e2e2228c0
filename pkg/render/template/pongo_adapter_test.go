package template_test

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-tplcompose/pkg/render/template"
	"github.com/goliatone/go-tplcompose/pkg/render/template/pongo"
	"github.com/goliatone/go-tplcompose/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func TestPongoEngine_Execute(t *testing.T) {
	engine := newEngine(t)

	result := mustRender(t, engine, "Hello {{ name }}", map[string]any{"name": "Ada"})

	assertGolden(t, "hello.golden", result)
}

func TestPongoEngine_IncludeFromFS(t *testing.T) {
	engine := newEngine(t)

	result := mustRender(t, engine, `{% include "layout.tpl" %}`, map[string]any{"name": "Ada"})

	assertGolden(t, "layout.golden", result)
}

func TestPongoEngine_RenderStringWritesToWriters(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderString(testsupport.Context(), "Hello {{ name }}", map[string]any{"name": "Ada"}, w)
	})
	if result != "Hello Ada" || written != "Hello Ada" {
		t.Fatalf("unexpected output result=%q written=%q", result, written)
	}
}

func TestPongoEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result := mustRender(t, engine, `{% include "use-global.tpl" %}`, nil)

	assertGolden(t, "use-global.golden", result)
}

func TestPongoEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("register filter: %v", err)
	}

	result := mustRender(t, engine, "{{ name|shout }}", map[string]any{"name": "Ada"})
	if result != "ADA!" {
		t.Fatalf("expected filtered output, got %q", result)
	}
}

func TestPongoEngine_ValuesAreNotEscapedByDefault(t *testing.T) {
	engine := newEngine(t)

	value := `Tom & "Jerry" <x>`
	result := mustRender(t, engine, "{{ plain }}|{{ user.name }}|{% for n in names %}{{ n }};{% endfor %}", map[string]any{
		"plain": value,
		"user":  map[string]any{"name": value},
		"names": []string{value, "<y>"},
	})
	want := value + "|" + value + "|" + value + ";<y>;"
	if result != want {
		t.Fatalf("values were altered\nwant: %q\n got: %q", want, result)
	}
}

func TestPongoEngine_IncludedTemplatesAreNotEscaped(t *testing.T) {
	engine := newEngine(t)

	result := mustRender(t, engine, `{% include "hello.tpl" %}`, map[string]any{"name": "<Ada & Co>"})
	if result != "Hello <Ada & Co>" {
		t.Fatalf("unexpected output %q", result)
	}
}

func TestPongoEngine_WithAutoescape(t *testing.T) {
	engine, err := pongo.New(pongo.WithBaseDir(t.TempDir()), pongo.WithAutoescape(true))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result := mustRender(t, engine, "{{ raw }}|{{ plain }}", map[string]any{
		"raw":   template.Text("<b>x</b>"),
		"plain": "<b>x</b>",
	})
	if result != "<b>x</b>|&lt;b&gt;x&lt;/b&gt;" {
		t.Fatalf("unexpected escaping: %q", result)
	}
}

func TestPongoEngine_FloatsUseShortestForm(t *testing.T) {
	engine := newEngine(t)

	result := mustRender(t, engine, "{{ price }} {{ ratio }} {{ whole }} {{ list.0 }} {% if price > 3 %}big{% endif %}", map[string]any{
		"price": 3.5,
		"ratio": float32(0.25),
		"whole": 2.0,
		"list":  []float64{1.75},
	})
	if result != "3.5 0.25 2 1.75 big" {
		t.Fatalf("unexpected output %q", result)
	}
}

func TestPongoEngine_DefaultFilters(t *testing.T) {
	engine := newEngine(t)

	tests := []struct {
		name  string
		text  string
		value string
		want  string
	}{
		{name: "trim", text: "[{{ v|trim }}]", value: "  padded \n", want: "[padded]"},
		{name: "trim empty", text: "[{{ v|trim }}]", value: "", want: "[]"},
		{name: "lowerfirst", text: "{{ v|lowerfirst }}", value: "Hello World", want: "hello World"},
		{name: "lowerfirst keeps leading space", text: "{{ v|lowerfirst }}", value: "  Ärger", want: "  ärger"},
		{name: "lowerfirst blank", text: "[{{ v|lowerfirst }}]", value: "   ", want: "[   ]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mustRender(t, engine, tc.text, map[string]any{"v": tc.value})
			if got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPongoEngine_ParseErrorColumn(t *testing.T) {
	engine := newEngine(t)

	_, err := engine.Parse("bad.tpl", "ok {{ name| }}")
	var perr *template.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *template.ParseError, got %v", err)
	}
	d := perr.Diagnostics[0]
	if d.Line != 1 || d.Column < 1 || d.Column > len("ok {{ name| }}") {
		t.Fatalf("diagnostic should point into the source line, got %+v", d)
	}
}

func TestPongoEngine_TextFuncIsCallable(t *testing.T) {
	engine := newEngine(t)

	header := template.TextFunc(func() template.Text { return "<h1>{{ name }}</h1>" })
	result := mustRender(t, engine, "{{ Header() }}", map[string]any{
		"Header": header,
		"name":   "ignored",
	})
	if result != "<h1>{{ name }}</h1>" {
		t.Fatalf("expected verbatim partial, got %q", result)
	}
}

func TestPongoEngine_ConvertsStructsAndNumbers(t *testing.T) {
	engine := newEngine(t)

	type user struct {
		FirstName string `json:"first_name"`
		Visits    int    `json:"visits"`
	}
	result := mustRender(t, engine, "{{ user.first_name }} {{ user.visits }} {{ count }}", map[string]any{
		"user":  user{FirstName: "Ada", Visits: 7},
		"count": 3,
	})
	if result != "Ada 7 3" {
		t.Fatalf("unexpected output: %q", result)
	}
}

func TestPongoEngine_SanitizeFilter(t *testing.T) {
	engine := newEngine(t)

	result := mustRender(t, engine, "{{ html|sanitize }}", map[string]any{
		"html": `<p onclick="steal()">hi</p><script>bad()</script>`,
	})
	if result != "<p>hi</p>" {
		t.Fatalf("unexpected sanitized output: %q", result)
	}
}

func TestPongoEngine_ParseError(t *testing.T) {
	engine := newEngine(t)

	_, err := engine.Parse("broken.tpl", "{% if name %}never closed")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	var perr *template.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *template.ParseError, got %T", err)
	}
	if perr.Name != "broken.tpl" {
		t.Fatalf("expected name broken.tpl, got %q", perr.Name)
	}
	if len(perr.Diagnostics) == 0 || perr.Error() == "" {
		t.Fatalf("expected diagnostics, got %+v", perr)
	}
}

func TestPongoEngine_RenderError(t *testing.T) {
	engine := newEngine(t)

	tpl, err := engine.Parse("fail.tpl", "{{ explode() }}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	boom := errors.New("boom")
	_, err = engine.Execute(testsupport.Context(), tpl, map[string]any{
		"explode": func() (string, error) { return "", boom },
	})
	var rerr *template.RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *template.RenderError, got %T (%v)", err, err)
	}
	if rerr.Name != "fail.tpl" {
		t.Fatalf("expected name fail.tpl, got %q", rerr.Name)
	}
}

func TestPongoEngine_CancelledContext(t *testing.T) {
	engine := newEngine(t)

	tpl, err := engine.Parse("hello.tpl", "Hello {{ name }}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.Execute(ctx, tpl, map[string]any{"name": "Ada"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var rerr *template.RenderError
	if errors.As(err, &rerr) {
		t.Fatalf("cancellation must not be reported as a render error")
	}
}

func TestPongoEngine_TemplateFuncsAndGlobals(t *testing.T) {
	engine, err := pongo.New(
		pongo.WithBaseDir(t.TempDir()),
		pongo.WithTemplateFunc(map[string]any{
			"greet": func(name string) string { return "hi " + name },
		}),
		pongo.WithGlobalData(map[string]any{"site": "Acme", "name": "global"}),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result := mustRender(t, engine, "{{ greet(name) }} @ {{ site }}", map[string]any{"name": "Ada"})
	if result != "hi Ada @ Acme" {
		t.Fatalf("unexpected output %q", result)
	}
}

func assertGolden(t *testing.T, name, got string) {
	t.Helper()

	path := filepath.Join("testdata", name)
	if testsupport.WriteMaybeGolden(t, path, []byte(got)) {
		return
	}
	want := testsupport.MustReadGoldenString(t, path)
	if diff := testsupport.CompareGolden(want, got); diff != "" {
		t.Fatalf("%s mismatch (-want +got):\n%s", name, diff)
	}
}

func mustRender(t *testing.T, engine *pongo.Engine, text string, data map[string]any) string {
	t.Helper()

	tpl, err := engine.Parse("inline.tpl", text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := engine.Execute(testsupport.Context(), tpl, data)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	return out
}

func newEngine(t *testing.T) *pongo.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	engine, err := pongo.New(pongo.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

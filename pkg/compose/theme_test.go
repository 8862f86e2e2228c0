package compose_test

import (
	"errors"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-tplcompose/pkg/compose"
	"github.com/goliatone/go-tplcompose/pkg/testsupport"
)

type selectorCall struct {
	name    string
	variant string
}

type stubThemeSelector struct {
	selection *theme.Selection
	err       error
	calls     []selectorCall
}

func (s *stubThemeSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls = append(s.calls, selectorCall{name: name, variant: variant})
	return s.selection, s.err
}

func acmeSelection() *theme.Selection {
	return &theme.Selection{
		Theme:   "acme",
		Variant: "dark",
		Manifest: &theme.Manifest{
			Name:    "acme",
			Version: "1.0.0",
			Tokens: map[string]string{
				"brand":  "#123456",
				"accent": "#ffcc00",
			},
			Variants: map[string]theme.Variant{
				"dark": {
					Tokens: map[string]string{
						"brand": "#654321",
					},
				},
			},
		},
	}
}

func TestComposer_ThemeBinding(t *testing.T) {
	files := testsupport.NewMemoryFiles(map[string]string{
		"layout.html":  `<body style="color:{{ Theme.tokens.brand }}">{{ Body }}</body>`,
		"content.html": `<a style="color:{{ Theme.tokens.accent }}">{{ Theme.name }}/{{ Theme.variant }}</a>`,
	})
	selector := &stubThemeSelector{selection: acmeSelection()}
	c := newComposer(t, files, compose.WithThemeSelector(selector, "acme", "dark"))

	got, err := c.RenderWithContent(testsupport.Context(), "layout.html", nil, "content.html", "", nil)
	if err != nil {
		t.Fatalf("render with content: %v", err)
	}
	want := `<body style="color:#654321"><a style="color:#ffcc00">acme/dark</a></body>`
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
	if len(selector.calls) != 1 {
		t.Fatalf("expected selector called once per render, got %d", len(selector.calls))
	}
	if selector.calls[0].name != "acme" || selector.calls[0].variant != "dark" {
		t.Fatalf("unexpected selector args: %+v", selector.calls[0])
	}
}

func TestComposer_CallerTokenShadowsTheme(t *testing.T) {
	files := testsupport.NewMemoryFiles(map[string]string{
		"page.html": "{{ Theme }}",
	})
	selector := &stubThemeSelector{selection: acmeSelection()}
	c := newComposer(t, files, compose.WithThemeSelector(selector, "acme", "dark"))

	got, err := c.Render(testsupport.Context(), "page.html", compose.Tokens{"Theme": "caller"}, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "caller" {
		t.Fatalf("expected caller token to win, got %q", got)
	}
}

func TestComposer_ThemeSelectionFailure(t *testing.T) {
	files := testsupport.NewMemoryFiles(map[string]string{
		"page.html": "x",
	})
	missing := errors.New("theme not registered")
	selector := &stubThemeSelector{err: missing}
	c := newComposer(t, files, compose.WithThemeSelector(selector, "ghost", ""))

	_, err := c.Render(testsupport.Context(), "page.html", nil, nil)
	if !errors.Is(err, compose.ErrRender) || !errors.Is(err, missing) {
		t.Fatalf("expected wrapped theme failure, got %v", err)
	}
	var cerr *compose.Error
	if !errors.As(err, &cerr) || cerr.Stage != compose.StageTheme {
		t.Fatalf("unexpected error detail %#v", cerr)
	}
	if calls := files.Calls(); len(calls) != 0 {
		t.Fatalf("expected no file access after theme failure, got %v", calls)
	}
}

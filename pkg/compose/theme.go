package compose

import (
	"fmt"

	theme "github.com/goliatone/go-theme"
)

type themeConfig struct {
	selector theme.ThemeSelector
	name     string
	variant  string
	key      string
}

// binding selects the configured theme and flattens it into a map with name,
// variant and tokens. Variant tokens override the manifest's base tokens.
func (tc *themeConfig) binding() (map[string]any, error) {
	selection, err := tc.selector.Select(tc.name, tc.variant)
	if err != nil {
		return nil, fmt.Errorf("select theme %q: %w", tc.name, err)
	}
	if selection == nil {
		return nil, fmt.Errorf("select theme %q: empty selection", tc.name)
	}

	tokens := map[string]string{}
	if manifest := selection.Manifest; manifest != nil {
		for key, value := range manifest.Tokens {
			tokens[key] = value
		}
		if variant, ok := manifest.Variants[selection.Variant]; ok {
			for key, value := range variant.Tokens {
				tokens[key] = value
			}
		}
	}

	return map[string]any{
		"name":    selection.Theme,
		"variant": selection.Variant,
		"tokens":  tokens,
	}, nil
}

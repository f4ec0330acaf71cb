package html

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// DefaultThemeName and the variants below describe the built-in look of the
// preview.
const (
	DefaultThemeName    = "formbuilder"
	DefaultThemeVariant = "light"
)

// DefaultManifest returns the built-in theme: a light base palette and a dark
// variant.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"fb-surface":    "#ffffff",
			"fb-text":       "#1f2933",
			"fb-muted":      "#616e7c",
			"fb-border":     "#cbd2d9",
			"fb-accent":     "#2563eb",
			"fb-danger":     "#dc2626",
			"fb-radius":     "6px",
			"fb-font":       "system-ui, sans-serif",
			"fb-field-gap":  "1rem",
			"fb-max-width":  "40rem",
			"fb-accent-ink": "#ffffff",
		},
		Templates: map[string]string{
			PagePartial: DefaultTemplate,
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"fb-surface": "#111827",
					"fb-text":    "#f9fafb",
					"fb-muted":   "#9ca3af",
					"fb-border":  "#374151",
					"fb-accent":  "#60a5fa",
				},
			},
		},
	}
}

// StaticSelector resolves themes from a fixed set of manifests.
type StaticSelector struct {
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*StaticSelector)(nil)

// NewStaticSelector indexes manifests by name. The first manifest is the
// default theme.
func NewStaticSelector(defaultVariant string, manifests ...*theme.Manifest) *StaticSelector {
	s := &StaticSelector{
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultVariant: defaultVariant,
	}
	for _, m := range manifests {
		if m == nil || m.Name == "" {
			continue
		}
		if s.defaultTheme == "" {
			s.defaultTheme = m.Name
		}
		s.manifests[m.Name] = m
	}
	return s
}

// DefaultSelector serves the built-in manifest.
func DefaultSelector() *StaticSelector {
	return NewStaticSelector(DefaultThemeVariant, DefaultManifest())
}

// Select returns the named theme and variant. Empty names pick the defaults;
// an unknown variant is an error, the base variant (the default variant name
// or "") always resolves.
func (s *StaticSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if strings.TrimSpace(name) == "" {
		name = s.defaultTheme
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("html renderer: theme %q not registered", name)
	}
	if strings.TrimSpace(variant) == "" {
		variant = s.defaultVariant
	}
	if variant != s.defaultVariant {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("html renderer: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// RendererConfig flattens a selection: base tokens, templates and assets
// overlaid with the variant's, tokens mirrored as CSS custom properties.
func RendererConfig(selection *theme.Selection) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest
	variant := manifest.Variants[selection.Variant]

	tokens := mergeStrings(manifest.Tokens, variant.Tokens)
	partials := mergeStrings(manifest.Templates, variant.Templates)
	files := mergeStrings(manifest.Assets.Files, variant.Assets.Files)
	prefix := manifest.Assets.Prefix
	if variant.Assets.Prefix != "" {
		prefix = variant.Assets.Prefix
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+key] = value
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if prefix == "" {
				return file
			}
			return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
		},
	}
}

type cssVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func sortedCSSVars(vars map[string]string) []cssVar {
	out := make([]cssVar, 0, len(vars))
	for name, value := range vars {
		out = append(out, cssVar{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func mergeStrings(base, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

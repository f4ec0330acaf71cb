package formbuilder

import (
	"context"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/orchestrator"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
)

// Element aliases model.Element so callers building collections by hand do
// not need a second import.
type Element = model.Element

// RenderOptions describes per-request overrides that renderers can use to
// prefill values or surface server-side validation errors.
type RenderOptions = render.RenderOptions

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML renders elements with the default HTML renderer. It is the
// simplest entry point for callers that just want a preview page.
func GenerateHTML(ctx context.Context, elements []model.Element, title string, options ...orchestrator.Option) ([]byte, error) {
	result, err := orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Elements: elements,
		Title:    title,
		Renderer: html.Name,
	})
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// GenerateHTMLFromDocument renders an OpenAPI document produced by the
// openapi export.
func GenerateHTMLFromDocument(ctx context.Context, document []byte, title string, options ...orchestrator.Option) ([]byte, error) {
	result, err := orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Document: document,
		Title:    title,
		Renderer: html.Name,
	})
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// WithTheme picks the theme and variant of the built-in HTML renderer.
func WithTheme(name, variant string) orchestrator.Option {
	return orchestrator.WithHTMLOptions(html.WithTheme(name, variant))
}

// WithThemeSelector passes a go-theme selector through to the HTML renderer
// so custom manifests can be resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) orchestrator.Option {
	return orchestrator.WithHTMLOptions(html.WithThemeSelector(selector))
}

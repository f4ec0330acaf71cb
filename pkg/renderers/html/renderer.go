// Package html renders the live preview of a form as a standalone HTML page.
// Templates are pongo2 (see render/template/gotemplate), labels and options
// are stripped of markup before they reach the template, and theme tokens are
// emitted as CSS custom properties.
package html

import (
	"context"
	"fmt"
	stdhtml "html"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render"
	rendertemplate "github.com/goliatone/go-formbuilder/pkg/render/template"
	"github.com/goliatone/go-formbuilder/pkg/render/template/gotemplate"
)

// Name is the registry name of the renderer.
const Name = "html"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	selector         theme.ThemeSelector
	themeName        string
	themeVariant     string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithThemeSelector replaces the built-in theme selector.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(cfg *config) {
		if selector != nil {
			cfg.selector = selector
		}
	}
}

// WithTheme picks the theme and variant used for every render.
func WithTheme(name, variant string) Option {
	return func(cfg *config) {
		cfg.themeName = strings.TrimSpace(name)
		cfg.themeVariant = strings.TrimSpace(variant)
	}
}

// Renderer implements render.Renderer for HTML previews.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	theme     *theme.RendererConfig
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer and resolves its theme once.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS(), selector: DefaultSelector()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	templates := cfg.templateRenderer
	if templates == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		templates = engine
	}

	selection, err := cfg.selector.Select(cfg.themeName, cfg.themeVariant)
	if err != nil {
		return nil, fmt.Errorf("html renderer: select theme: %w", err)
	}

	return &Renderer{templates: templates, theme: RendererConfig(selection)}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Theme returns the resolved theme configuration.
func (r *Renderer) Theme() *theme.RendererConfig {
	return r.theme
}

// Render produces the preview page for form.
func (r *Renderer) Render(ctx context.Context, form render.Form, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}

	page := DefaultTemplate
	if r.theme != nil {
		if partial := strings.TrimSpace(r.theme.Partials[PagePartial]); partial != "" {
			page = partial
		}
	}

	result, err := r.templates.RenderTemplate(page, buildView(form, options, r.theme))
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}

type pageView struct {
	Title       string               `json:"title"`
	Action      string               `json:"action"`
	Method      string               `json:"method"`
	SubmitLabel string               `json:"submit_label"`
	Fields      []fieldView          `json:"fields"`
	Hidden      []render.HiddenField `json:"hidden"`
	FormErrors  []string             `json:"form_errors"`
	Theme       themeView            `json:"theme"`
	Empty       bool                 `json:"empty"`
}

type themeView struct {
	Name       string   `json:"name"`
	Variant    string   `json:"variant"`
	Vars       []cssVar `json:"vars"`
	Stylesheet string   `json:"stylesheet"`
}

type fieldView struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	InputType string       `json:"input_type"`
	Label     string       `json:"label"`
	Required  bool         `json:"required"`
	Value     string       `json:"value"`
	Checked   bool         `json:"checked"`
	Options   []optionView `json:"options"`
	Errors    []string     `json:"errors"`
}

type optionView struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

func buildView(form render.Form, options render.RenderOptions, cfg *theme.RendererConfig) pageView {
	method := strings.ToUpper(strings.TrimSpace(options.Method))
	if method == "" {
		method = "POST"
	}

	mapping := render.MapErrorPayload(form, options.Errors)

	view := pageView{
		Title:       sanitizeText(form.Title),
		Action:      options.Action,
		Method:      method,
		SubmitLabel: sanitizeText(form.SubmitLabel()),
		Hidden:      render.SortedHiddenFields(options.HiddenFields),
		FormErrors:  mapping.Form,
	}
	if view.Title == "" {
		view.Title = "Form preview"
	}
	if cfg != nil {
		view.Theme = themeView{
			Name:    cfg.Theme,
			Variant: cfg.Variant,
			Vars:    sortedCSSVars(cfg.CSSVars),
		}
		if cfg.AssetURL != nil {
			view.Theme.Stylesheet = cfg.AssetURL("preview.stylesheet")
		}
	}

	for _, el := range form.Fields() {
		view.Fields = append(view.Fields, buildField(el, options.ValueFor(el.ID, el.Value()), mapping.Fields[el.ID]))
	}
	view.Empty = len(view.Fields) == 0
	return view
}

func buildField(el model.Element, value any, errs []string) fieldView {
	field := fieldView{
		ID:       el.ID,
		Type:     string(el.Type),
		Label:    sanitizeText(el.Label),
		Required: el.Required,
		Errors:   errs,
	}
	switch el.Type {
	case model.TypeEmail:
		field.InputType = "email"
	case model.TypeNumber:
		field.InputType = "number"
	default:
		field.InputType = "text"
	}

	if el.Type == model.TypeCheckbox {
		field.Checked = truthy(value)
		return field
	}
	field.Value = displayValue(value)

	if el.HasOptions() {
		for _, opt := range el.Options {
			clean := sanitizeText(opt)
			field.Options = append(field.Options, optionView{
				Value:    clean,
				Selected: clean == field.Value,
			})
		}
	}
	return field
}

func displayValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case model.Number:
		return v.String()
	case []string:
		if len(v) == 0 {
			return ""
		}
		return v[0]
	default:
		return fmt.Sprint(v)
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "1", "yes":
			return true
		}
	case []string:
		return len(v) > 0 && truthy(v[len(v)-1])
	}
	return false
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// sanitizeText strips markup from user supplied text. The result is plain
// text; escaping is left to the template engine.
func sanitizeText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(stdhtml.UnescapeString(textPolicy.Sanitize(trimmed)))
}

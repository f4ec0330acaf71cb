package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/goliatone/go-formbuilder/pkg/export"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
)

const defaultRendererName = html.Name

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithTransformer registers a Transformer that can rewrite the collection
// before it is rendered.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithHTMLOptions configures the built-in HTML renderer registered when no
// registry is injected.
func WithHTMLOptions(opts ...html.Option) Option {
	return func(o *Orchestrator) {
		o.htmlOptions = append(o.htmlOptions, opts...)
	}
}

// WithLogger sets the logger used for pipeline diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the preview pipeline. It applies sensible defaults
// (HTML renderer, embedded templates) while remaining open to dependency
// injection for advanced callers.
type Orchestrator struct {
	registry        *render.Registry
	defaultRenderer string
	transformer     Transformer
	htmlOptions     []html.Option
	logger          *slog.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one preview.
type Request struct {
	// Elements is the collection to render.
	Elements []model.Element

	// Document is an OpenAPI document previously produced by the OpenAPI
	// export. When set it replaces Elements.
	Document []byte

	// Title is shown as the page heading by renderers that have one.
	Title string

	// Renderer names the renderer to use. If empty, the orchestrator falls back
	// to the configured default renderer.
	Renderer string

	// RenderOptions carries per-request instructions such as prefilled values
	// or server-side errors.
	RenderOptions render.RenderOptions

	// Versioned adds the collection fingerprint as a hidden field so a later
	// submission can be matched against the collection it was rendered from.
	Versioned bool
}

// Result is a rendered preview.
type Result struct {
	Body        []byte
	ContentType string
	Renderer    string
	Version     string
}

// Generate resolves the collection, applies the transformer and renders it.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := o.initialiseErr; err != nil {
		return Result{}, err
	}

	elements, err := o.resolveElements(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if err := o.applyTransformer(ctx, &elements); err != nil {
		return Result{}, err
	}
	if err := model.ValidateCollection(elements); err != nil {
		return Result{}, fmt.Errorf("orchestrator: invalid collection: %w", err)
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return Result{}, err
	}

	opts := req.RenderOptions
	result := Result{ContentType: renderer.ContentType(), Renderer: renderer.Name()}
	if req.Versioned {
		field := render.VersionField(elements)
		opts.HiddenFields = render.MergeHiddenFields(opts.HiddenFields, field)
		result.Version = field.Value
	}

	output, err := renderer.Render(ctx, render.NewForm(req.Title, elements), opts)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: render output: %w", err)
	}
	o.logger.Debug("preview rendered",
		"renderer", renderer.Name(),
		"elements", len(elements),
		"bytes", len(output),
	)
	result.Body = output
	return result, nil
}

// Registry exposes the renderer registry.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

func (o *Orchestrator) resolveElements(ctx context.Context, req Request) ([]model.Element, error) {
	if len(req.Document) > 0 {
		elements, err := export.ParseOpenAPI(ctx, req.Document)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load document: %w", err)
		}
		return elements, nil
	}
	if len(req.Elements) == 0 {
		return nil, errors.New("orchestrator: elements or document is required")
	}
	return model.CloneAll(req.Elements), nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, elements *[]model.Element) error {
	if o.transformer == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, elements); err != nil {
		return fmt.Errorf("orchestrator: transform elements: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.registry != nil {
		return
	}
	o.registry = render.NewRegistry()
	renderer, err := html.New(o.htmlOptions...)
	if err != nil {
		o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		return
	}
	o.registry.MustRegister(renderer)
}

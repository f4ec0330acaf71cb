// Package tui previews a form in the terminal: every field is prompted in
// canvas order, checked as the user leaves it and the captured submission is
// serialized the way an HTTP client would post it.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/validation"
)

// Name is the registry name of the renderer.
const Name = "tui"

// noSelection is offered first for optional select and radio fields.
const noSelection = "(no selection)"

// Renderer implements render.Renderer for terminal-driven sessions.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	theme             Theme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	if _, err := ParseOutputFormat(string(r.outputFormat)); err != nil {
		return nil, err
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts for every field of form and returns the serialized
// submission. Values in opts seed the prompts; errors in opts are printed
// before the field they belong to.
func (r *Renderer) Render(ctx context.Context, form render.Form, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	fields := form.Fields()
	rules := validation.Build(form.Elements)
	mapping := render.MapErrorPayload(form, opts.Errors)

	for _, msg := range mapping.Form {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
			return nil, err
		}
	}

	values := make(map[string]any, len(fields))
	for _, el := range fields {
		for _, msg := range mapping.Fields[el.ID] {
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
				return nil, err
			}
		}
		rule, ok := rules.Rule(el.ID)
		if !ok {
			continue
		}
		value, err := r.promptField(ctx, el, rule, opts.ValueFor(el.ID, el.Value()))
		if err != nil {
			return nil, err
		}
		values[el.ID] = value
	}

	result := rules.Submit(values)
	if !result.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSubmission, result.Errors)
	}

	data := map[string]any(result.Data)
	if r.submitTransformer != nil {
		var err error
		data, err = r.submitTransformer(data)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(fields, data)
}

func (r *Renderer) promptField(ctx context.Context, el model.Element, rule validation.Rule, current any) (any, error) {
	switch el.Type {
	case model.TypeCheckbox:
		return r.promptCheckbox(ctx, el, rule, current)
	case model.TypeSelect, model.TypeRadio:
		return r.promptChoice(ctx, el, rule, current)
	default:
		return r.promptText(ctx, el, rule, current)
	}
}

// promptText covers text, textarea, email and number fields. The raw answer is
// run through the field rule; failures are reported and the prompt repeats.
func (r *Renderer) promptText(ctx context.Context, el model.Element, rule validation.Rule, current any) (any, error) {
	label := displayLabel(el)
	defaultVal := displayValue(current)
	check := func(s string) error {
		if _, msg := rule.Check(s); msg != "" {
			return errors.New(msg)
		}
		return nil
	}

	for {
		var (
			response string
			err      error
		)
		if el.Type == model.TypeTextarea {
			response, err = r.driver.TextArea(ctx, TextAreaConfig{
				Message:   label,
				Default:   defaultVal,
				Help:      helpFor(el),
				Validator: check,
			})
		} else {
			response, err = r.driver.Input(ctx, InputConfig{
				Message:   label,
				Default:   defaultVal,
				Help:      helpFor(el),
				Validator: check,
			})
		}
		if err != nil {
			return nil, err
		}

		value, msg := rule.Check(response)
		if msg != "" {
			if err := r.info(ctx, msg); err != nil {
				return nil, err
			}
			continue
		}
		return value, nil
	}
}

func (r *Renderer) promptCheckbox(ctx context.Context, el model.Element, rule validation.Rule, current any) (any, error) {
	defaultVal, _ := current.(bool)
	for {
		resp, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: displayLabel(el),
			Default: defaultVal,
			Help:    helpFor(el),
		})
		if err != nil {
			return nil, err
		}
		value, msg := rule.Check(resp)
		if msg != "" {
			if err := r.info(ctx, msg); err != nil {
				return nil, err
			}
			continue
		}
		return value, nil
	}
}

func (r *Renderer) promptChoice(ctx context.Context, el model.Element, rule validation.Rule, current any) (any, error) {
	options := append([]string(nil), el.Options...)
	if !el.Required {
		options = append([]string{noSelection}, options...)
	}
	defaultIdx := -1
	if s, ok := current.(string); ok && s != "" {
		defaultIdx = indexOf(options, s)
	}

	for {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      displayLabel(el),
			Options:      options,
			DefaultIndex: defaultIdx,
			Help:         helpFor(el),
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(options) {
			if err := r.info(ctx, fmt.Sprintf("Invalid %s selection", el.Label)); err != nil {
				return nil, err
			}
			continue
		}
		selected := options[idx]
		if !el.Required && idx == 0 {
			selected = ""
		}
		value, msg := rule.Check(selected)
		if msg != "" {
			if err := r.info(ctx, msg); err != nil {
				return nil, err
			}
			continue
		}
		return value, nil
	}
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) serialize(fields []model.Element, values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(fields, values)), nil
	default:
		return json.Marshal(values)
	}
}

func displayLabel(el model.Element) string {
	label := strings.TrimSpace(el.Label)
	if label == "" {
		label = el.ID
	}
	if el.Required {
		label += " *"
	}
	return label
}

func helpFor(el model.Element) string {
	switch el.Type {
	case model.TypeEmail:
		return "Enter an email address"
	case model.TypeNumber:
		return "Enter a number, leave empty for none"
	case model.TypeTextarea:
		return "Multi-line input"
	default:
		return ""
	}
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
	default:
		return fmt.Sprint(v)
	}
}

func formatValue(value any) string {
	if value == nil {
		return ""
	}
	return displayValue(value)
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	for key, val := range values {
		flattened.Set(key, formatValue(val))
	}
	return flattened.Encode()
}

// prettyPrint lists fields in canvas order. Keys added by a submit
// transformer follow in sorted order.
func prettyPrint(fields []model.Element, values map[string]any) string {
	var b strings.Builder
	seen := make(map[string]struct{}, len(fields))
	for _, el := range fields {
		val, ok := values[el.ID]
		if !ok {
			continue
		}
		seen[el.ID] = struct{}{}
		fmt.Fprintf(&b, "%s: %s\n", el.Label, formatValue(val))
	}
	var extra []string
	for key := range values {
		if _, ok := seen[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		fmt.Fprintf(&b, "%s: %s\n", key, formatValue(values[key]))
	}
	return b.String()
}

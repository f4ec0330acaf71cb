package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

const (
	// SubmitPath is the path of the operation describing a form submission.
	SubmitPath = "/submit"
	// SubmitOperationID identifies that operation.
	SubmitOperationID = "submitForm"

	// ElementExtension is attached to every property and to the operation so
	// a generated document can be imported back without losing element
	// types, order or the submit label.
	ElementExtension = "x-formbuilder"
)

// Info carries document metadata.
type Info struct {
	Title       string
	Version     string
	Description string
}

func (i Info) withDefaults() Info {
	if strings.TrimSpace(i.Title) == "" {
		i.Title = "Form submission"
	}
	if strings.TrimSpace(i.Version) == "" {
		i.Version = "1.0.0"
	}
	return i
}

// OpenAPI builds and validates an OpenAPI 3.0.3 document describing the JSON
// body the form submits: an object keyed by element id.
func OpenAPI(ctx context.Context, elements []model.Element, info Info) (*openapi3.T, error) {
	info = info.withDefaults()

	body := SubmissionSchema(elements)

	submitLabel := model.DefaultSubmitLabel
	if submit, ok := model.Submit(elements); ok {
		submitLabel = submit.Label
	}

	responses := openapi3.NewResponsesWithCapacity(2)
	responses.Set("200", &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription("Submission accepted").
			WithJSONSchema(envelopeSchema("data", body)),
	})
	responses.Set("422", &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription("Validation failed").
			WithJSONSchema(envelopeSchema("errors", errorsSchema(elements))),
	})

	op := &openapi3.Operation{
		OperationID: SubmitOperationID,
		Summary:     submitLabel,
		RequestBody: &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithRequired(true).
				WithJSONSchema(body),
		},
		Responses:  responses,
		Extensions: map[string]any{ElementExtension: map[string]any{"submitLabel": submitLabel}},
	}

	paths := openapi3.NewPathsWithCapacity(1)
	paths.Set(SubmitPath, &openapi3.PathItem{Post: op})

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: paths,
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("export: validate openapi: %w", err)
	}
	return doc, nil
}

// SubmissionSchema describes the submission body for elements.
func SubmissionSchema(elements []model.Element) *openapi3.Schema {
	schema := &openapi3.Schema{
		Type:       &openapi3.Types{openapi3.TypeObject},
		Properties: openapi3.Schemas{},
	}
	position := 0
	for _, el := range elements {
		if el.IsSubmit() {
			continue
		}
		schema.Properties[el.ID] = &openapi3.SchemaRef{Value: propertySchema(el, position)}
		if el.Required {
			schema.Required = append(schema.Required, el.ID)
		}
		position++
	}
	return schema
}

func propertySchema(el model.Element, position int) *openapi3.Schema {
	meta := map[string]any{
		"type":  string(el.Type),
		"order": position,
	}
	if el.HasOptions() {
		meta["options"] = append([]string(nil), el.Options...)
	}
	prop := &openapi3.Schema{
		Title:      el.Label,
		Extensions: map[string]any{ElementExtension: meta},
	}
	switch el.Type.ValueKind() {
	case model.ValueText:
		prop.Type = &openapi3.Types{openapi3.TypeString}
		if el.Type == model.TypeEmail {
			prop.Format = "email"
		}
		if el.Required {
			prop.MinLength = 1
		}
		if el.HasOptions() {
			prop.Enum = enumOf(el.Options)
		}
		if defaultAllowed(el) {
			prop.Default = el.Text
		}
	case model.ValueNumber:
		prop.Type = &openapi3.Types{openapi3.TypeNumber}
		prop.Nullable = !el.Required
		if el.Number.Valid {
			prop.Default = el.Number.Value
		}
	case model.ValueBool:
		prop.Type = &openapi3.Types{openapi3.TypeBoolean}
		prop.Default = el.Checked
	}
	return prop
}

// defaultAllowed reports whether the current text value can be advertised as
// the property default without failing schema validation.
func defaultAllowed(el model.Element) bool {
	if el.Text == "" || el.Type == model.TypeEmail {
		return false
	}
	if !el.HasOptions() {
		return true
	}
	for _, opt := range el.Options {
		if opt == el.Text {
			return true
		}
	}
	return false
}

func enumOf(options []string) []any {
	seen := make(map[string]struct{}, len(options))
	out := make([]any, 0, len(options))
	for _, opt := range options {
		if _, dup := seen[opt]; dup {
			continue
		}
		seen[opt] = struct{}{}
		out = append(out, opt)
	}
	return out
}

func envelopeSchema(key string, inner *openapi3.Schema) *openapi3.Schema {
	return &openapi3.Schema{
		Type:       &openapi3.Types{openapi3.TypeObject},
		Properties: openapi3.Schemas{key: &openapi3.SchemaRef{Value: inner}},
		Required:   []string{key},
	}
}

func errorsSchema(elements []model.Element) *openapi3.Schema {
	schema := &openapi3.Schema{
		Type:       &openapi3.Types{openapi3.TypeObject},
		Properties: openapi3.Schemas{},
	}
	for _, el := range elements {
		if el.IsSubmit() {
			continue
		}
		schema.Properties[el.ID] = &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type: &openapi3.Types{openapi3.TypeString},
		}}
	}
	return schema
}

// ParseOpenAPI reads a document produced by OpenAPI back into a collection.
// Properties carrying the element extension keep their type and position;
// plain properties are mapped from their schema type and sorted by name.
func ParseOpenAPI(ctx context.Context, data []byte) ([]model.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("export: openapi document is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("export: load openapi: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("export: validate openapi: %w", err)
	}

	op := findSubmitOperation(doc)
	if op == nil {
		return nil, errors.New("export: openapi document has no submit operation")
	}
	body := requestSchema(op.RequestBody)
	if body == nil {
		return nil, errors.New("export: submit operation has no JSON request body")
	}

	required := make(map[string]bool, len(body.Required))
	for _, name := range body.Required {
		required[name] = true
	}

	type entry struct {
		order int
		el    model.Element
	}
	entries := make([]entry, 0, len(body.Properties))
	for name, ref := range body.Properties {
		if ref == nil || ref.Value == nil {
			continue
		}
		el, order, err := elementFromSchema(name, ref.Value, required[name])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{order: order, el: el})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].order != entries[j].order {
			return entries[i].order < entries[j].order
		}
		return entries[i].el.ID < entries[j].el.ID
	})

	submit := model.NewSubmit()
	if label := submitLabel(op); label != "" {
		submit.Label = label
	}

	elements := make([]model.Element, 0, len(entries)+1)
	for _, e := range entries {
		elements = append(elements, e.el)
	}
	elements = append(elements, submit)
	if err := model.ValidateCollection(elements); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return elements, nil
}

func findSubmitOperation(doc *openapi3.T) *openapi3.Operation {
	if doc.Paths == nil {
		return nil
	}
	if item := doc.Paths.Value(SubmitPath); item != nil && item.Post != nil {
		return item.Post
	}
	for _, item := range doc.Paths.Map() {
		if item != nil && item.Post != nil && item.Post.OperationID == SubmitOperationID {
			return item.Post
		}
	}
	return nil
}

func requestSchema(ref *openapi3.RequestBodyRef) *openapi3.Schema {
	if ref == nil || ref.Value == nil {
		return nil
	}
	mt := ref.Value.Content.Get("application/json")
	if mt == nil || mt.Schema == nil {
		return nil
	}
	return mt.Schema.Value
}

func elementFromSchema(name string, schema *openapi3.Schema, required bool) (model.Element, int, error) {
	meta, _ := schema.Extensions[ElementExtension].(map[string]any)
	order := int(^uint(0) >> 1)
	if raw, ok := meta["order"].(float64); ok {
		order = int(raw)
	}

	typ := model.Type("")
	if raw, ok := meta["type"].(string); ok {
		typ = model.Type(raw)
	}
	if !typ.Addable() {
		typ = inferType(schema)
	}

	el, err := model.Defaults(typ)
	if err != nil {
		return model.Element{}, 0, fmt.Errorf("export: property %q: %w", name, err)
	}
	el.ID = name
	el.Required = required
	if schema.Title != "" {
		el.Label = schema.Title
	} else {
		el.Label = name
	}
	if el.HasOptions() {
		if options := metaOptions(meta); len(options) > 0 {
			el.Options = options
		} else if len(schema.Enum) > 0 {
			el.Options = make([]string, 0, len(schema.Enum))
			for _, v := range schema.Enum {
				el.Options = append(el.Options, fmt.Sprint(v))
			}
		}
	}

	switch v := schema.Default.(type) {
	case string:
		if el.Type.ValueKind() == model.ValueText {
			el.Text = v
		}
	case float64:
		if el.Type == model.TypeNumber {
			el.Number = model.NumberOf(v)
		}
	case bool:
		if el.Type == model.TypeCheckbox {
			el.Checked = v
		}
	}
	return el, order, nil
}

// metaOptions reads the option list kept in the element extension. The enum
// only carries distinct values, the extension keeps duplicates and order.
func metaOptions(meta map[string]any) []string {
	switch raw := meta["options"].(type) {
	case []string:
		return append([]string(nil), raw...)
	case []any:
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}

func inferType(schema *openapi3.Schema) model.Type {
	switch {
	case schema.Type.Is(openapi3.TypeBoolean):
		return model.TypeCheckbox
	case schema.Type.Is(openapi3.TypeNumber), schema.Type.Is(openapi3.TypeInteger):
		return model.TypeNumber
	case schema.Format == "email":
		return model.TypeEmail
	case len(schema.Enum) > 0:
		return model.TypeSelect
	default:
		return model.TypeText
	}
}

func submitLabel(op *openapi3.Operation) string {
	if meta, ok := op.Extensions[ElementExtension].(map[string]any); ok {
		if label, ok := meta["submitLabel"].(string); ok && label != "" {
			return label
		}
	}
	return strings.TrimSpace(op.Summary)
}

package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Transformer rewrites the collection before it is rendered. Implementations
// can relabel fields, toggle requirements or perform arbitrary rewrites; the
// result must still be a valid collection.
type Transformer interface {
	Transform(ctx context.Context, elements *[]model.Element) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, elements *[]model.Element) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, elements *[]model.Element) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, elements)
}

// Chain runs transformers in order, stopping at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, elements *[]model.Element) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := t.Transform(ctx, elements); err != nil {
				return err
			}
		}
		return nil
	})
}

// JSONPresetTransformer applies declarative overrides loaded from a JSON file,
// typically to localise a form without touching the stored collection:
//
//	{
//	  "submitLabel": "Enviar",
//	  "fields": {
//	    "3f1c...": {"label": "Nombre", "required": true, "options": ["Sí", "No"]}
//	  }
//	}
type JSONPresetTransformer struct {
	document jsonTransformDocument
}

type jsonTransformDocument struct {
	SubmitLabel string                    `json:"submitLabel"`
	Fields      map[string]jsonFieldPatch `json:"fields"`
}

type jsonFieldPatch struct {
	Label    string   `json:"label"`
	Required *bool    `json:"required"`
	Options  []string `json:"options"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonTransformDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the declarative patches onto the collection. Unknown ids
// are an error so stale presets are noticed.
func (t *JSONPresetTransformer) Transform(ctx context.Context, elements *[]model.Element) error {
	if elements == nil {
		return errors.New("json preset transformer: elements are nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	current := *elements
	if label := strings.TrimSpace(t.document.SubmitLabel); label != "" {
		if idx := model.Position(current, model.SubmitID); idx >= 0 && current[idx].IsSubmit() {
			current[idx] = current[idx].Apply(model.SetLabel(label))
		}
	}

	for id, patch := range t.document.Fields {
		idx := model.Position(current, id)
		if idx < 0 || current[idx].IsSubmit() {
			return fmt.Errorf("json preset transformer: element %q not found", id)
		}
		next, err := applyFieldPatch(current[idx], patch)
		if err != nil {
			return fmt.Errorf("json preset transformer: element %q: %w", id, err)
		}
		current[idx] = next
	}
	*elements = current
	return nil
}

func applyFieldPatch(el model.Element, patch jsonFieldPatch) (model.Element, error) {
	if patch.Label != "" {
		el = el.Apply(model.SetLabel(patch.Label))
	}
	if patch.Required != nil {
		el = el.Apply(model.SetRequired(*patch.Required))
	}
	if len(patch.Options) > 0 {
		if !el.HasOptions() {
			return el, errors.New("options on an element without options")
		}
		el = el.Apply(model.SetOptions(patch.Options...))
	}
	return el, nil
}

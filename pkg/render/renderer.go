package render

import (
	"context"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Form is the input handed to renderers: the current collection plus an
// optional title.
type Form struct {
	Title    string
	Elements []model.Element
}

// NewForm copies elements into a Form.
func NewForm(title string, elements []model.Element) Form {
	return Form{Title: title, Elements: model.CloneAll(elements)}
}

// Fields returns the non-submit elements in order.
func (f Form) Fields() []model.Element {
	return model.Fields(f.Elements)
}

// SubmitLabel returns the label of the submit element, falling back to the
// default label.
func (f Form) SubmitLabel() string {
	if submit, ok := model.Submit(f.Elements); ok && submit.Label != "" {
		return submit.Label
	}
	return model.DefaultSubmitLabel
}

// Renderer converts a Form into a byte representation (HTML, terminal
// transcript, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form Form, options RenderOptions) ([]byte, error)
}

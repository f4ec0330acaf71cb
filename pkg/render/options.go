package render

// RenderOptions describe per-request data that renderers can use to customise
// their output without touching the element collection.
type RenderOptions struct {
	// Action is the URL the rendered form submits to.
	Action string
	// Method overrides the submission method (defaults to POST).
	Method string
	// Values pre-populates controls keyed by element id. When nil the
	// elements' own values are used.
	Values map[string]any
	// Errors surfaces validation feedback keyed by element id.
	Errors map[string][]string
	// HiddenFields are emitted as hidden inputs alongside the visible fields.
	HiddenFields map[string]string
}

// ValueFor returns the value to show for el: the override from Values when
// present, the element's own value otherwise.
func (o RenderOptions) ValueFor(id string, fallback any) any {
	if o.Values != nil {
		if v, ok := o.Values[id]; ok {
			return v
		}
	}
	return fallback
}

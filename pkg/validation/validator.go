// Package validation derives a per-field ruleset from the current element
// collection and checks submitted values against it. Build is a pure function
// of the elements it receives; callers rebuild whenever the collection
// changes.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Errors maps element ids to a human readable message.
type Errors map[string]string

// Submission is the captured snapshot of field values keyed by element id.
// Numbers are float64 (nil when left empty), checkboxes are bool and every
// other field is a string.
type Submission map[string]any

// Result is the outcome of a submit-time check. Data is only populated when
// no field failed.
type Result struct {
	Valid  bool       `json:"valid"`
	Data   Submission `json:"data,omitempty"`
	Errors Errors     `json:"errors,omitempty"`
}

// Rule is the validation rule derived from a single element.
type Rule struct {
	ID       string
	Label    string
	Type     model.Type
	Required bool
}

// Validator holds the rules derived from one collection, in element order.
type Validator struct {
	rules []Rule
	index map[string]int
}

// Build derives the ruleset for elements. The submit element is excluded.
func Build(elements []model.Element) *Validator {
	v := &Validator{index: make(map[string]int, len(elements))}
	for _, el := range elements {
		if el.IsSubmit() || !el.Type.Valid() {
			continue
		}
		v.index[el.ID] = len(v.rules)
		v.rules = append(v.rules, Rule{
			ID:       el.ID,
			Label:    el.Label,
			Type:     el.Type,
			Required: el.Required,
		})
	}
	return v
}

// Rules returns the rules in element order.
func (v *Validator) Rules() []Rule {
	return append([]Rule(nil), v.rules...)
}

// Rule returns the rule for id.
func (v *Validator) Rule(id string) (Rule, bool) {
	idx, ok := v.index[id]
	if !ok {
		return Rule{}, false
	}
	return v.rules[idx], true
}

// ValidateField checks a single value, the way a field is checked when the
// user leaves it. It returns "" when the value passes or id is unknown.
func (v *Validator) ValidateField(id string, value any) string {
	rule, ok := v.Rule(id)
	if !ok {
		return ""
	}
	_, msg := rule.Check(value)
	return msg
}

// Validate checks every rule against values. Missing entries are treated as
// empty input.
func (v *Validator) Validate(values map[string]any) Errors {
	errs := Errors{}
	for _, rule := range v.rules {
		if _, msg := rule.Check(values[rule.ID]); msg != "" {
			errs[rule.ID] = msg
		}
	}
	return errs
}

// Submit validates values and, when nothing fails, captures the typed
// snapshot of every field.
func (v *Validator) Submit(values map[string]any) Result {
	data := make(Submission, len(v.rules))
	errs := Errors{}
	for _, rule := range v.rules {
		coerced, msg := rule.Check(values[rule.ID])
		if msg != "" {
			errs[rule.ID] = msg
			continue
		}
		data[rule.ID] = coerced
	}
	if len(errs) > 0 {
		return Result{Valid: false, Errors: errs}
	}
	return Result{Valid: true, Data: data}
}

// Check coerces raw into the rule's value kind and applies the rule. It
// returns the coerced value and an empty message on success.
func (r Rule) Check(raw any) (any, string) {
	switch r.Type {
	case model.TypeText, model.TypeTextarea, model.TypeSelect, model.TypeRadio:
		s, ok := asString(raw)
		if !ok {
			return nil, r.Label + " must be text"
		}
		if r.Required && s == "" {
			return nil, r.Label + " is required"
		}
		return s, ""
	case model.TypeEmail:
		s, ok := asString(raw)
		if !ok {
			return nil, r.Label + " must be text"
		}
		if s == "" {
			if r.Required {
				return nil, r.Label + " is required"
			}
			return s, ""
		}
		if !IsEmail(s) {
			return nil, r.Label + " must be a valid email"
		}
		return s, ""
	case model.TypeNumber:
		n, ok := asNumber(raw)
		if !ok {
			return nil, r.Label + " must be a number"
		}
		if !n.Valid {
			if r.Required {
				return nil, r.Label + " is required"
			}
			return nil, ""
		}
		return n.Value, ""
	case model.TypeCheckbox:
		b, ok := asBool(raw)
		if !ok {
			return nil, r.Label + " must be a boolean"
		}
		if r.Required && !b {
			return nil, r.Label + " must be checked"
		}
		return b, ""
	default:
		return nil, fmt.Sprintf("%s has unsupported type %q", r.Label, r.Type)
	}
}

// ValuesFrom collects the current value of every non-submit element, keyed by
// id, in the shape Submit expects.
func ValuesFrom(elements []model.Element) map[string]any {
	out := make(map[string]any, len(elements))
	for _, el := range elements {
		if el.IsSubmit() {
			continue
		}
		out[el.ID] = el.Value()
	}
	return out
}

var (
	emailOnce     sync.Once
	emailValidate *playground.Validate
)

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	emailOnce.Do(func() {
		emailValidate = playground.New()
	})
	if strings.TrimSpace(s) != s {
		return false
	}
	return emailValidate.Var(s, "required,email") == nil
}

func asString(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case []string:
		if len(v) == 0 {
			return "", true
		}
		return v[0], true
	default:
		return "", false
	}
}

func asNumber(raw any) (model.Number, bool) {
	switch v := raw.(type) {
	case nil:
		return model.Number{}, true
	case model.Number:
		return v, true
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return model.NumberOf(float64(v)), true
	case int64:
		return model.NumberOf(float64(v)), true
	case int32:
		return model.NumberOf(float64(v)), true
	case json.Number:
		return parseNumber(v.String())
	case string:
		return parseNumber(v)
	case []string:
		if len(v) == 0 {
			return model.Number{}, true
		}
		return parseNumber(v[0])
	default:
		return model.Number{}, false
	}
}

func finite(f float64) (model.Number, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return model.Number{}, false
	}
	return model.NumberOf(f), true
}

func parseNumber(s string) (model.Number, bool) {
	n, err := model.ParseNumber(s)
	if err != nil {
		return model.Number{}, false
	}
	return n, true
}

func asBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case nil:
		return false, true
	case bool:
		return v, true
	case string:
		return parseBool(v)
	case []string:
		if len(v) == 0 {
			return false, true
		}
		return parseBool(v[len(v)-1])
	default:
		return false, false
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "off", "0", "no":
		return false, true
	case "true", "on", "1", "yes":
		return true, true
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b, true
	}
	return false, false
}

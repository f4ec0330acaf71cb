package model

import "fmt"

// MinOptions is the floor enforced on select/radio option lists so the
// control always has something to pick.
const MinOptions = 1

// WithOptionAdded appends "Option <n+1>" to the option list. Elements without
// options are returned unchanged with ok=false.
func (e Element) WithOptionAdded() (Element, bool) {
	if !e.HasOptions() {
		return e, false
	}
	out := e.Clone()
	out.Options = append(out.Options, fmt.Sprintf("Option %d", len(e.Options)+1))
	return out, true
}

// WithOption replaces the option at index.
func (e Element) WithOption(index int, value string) (Element, bool) {
	if !e.HasOptions() || index < 0 || index >= len(e.Options) {
		return e, false
	}
	out := e.Clone()
	out.Options[index] = value
	return out, true
}

// WithoutOption removes the option at index unless that would leave fewer
// than MinOptions entries.
func (e Element) WithoutOption(index int) (Element, bool) {
	if !e.HasOptions() || index < 0 || index >= len(e.Options) || len(e.Options) <= MinOptions {
		return e, false
	}
	out := e.Clone()
	out.Options = append(out.Options[:index:index], e.Options[index+1:]...)
	return out, true
}

// Package model defines the form-definition element model shared by the store,
// the validator builder, exporters and renderers. An Element is a tagged
// variant: Type is the discriminant and only the value fields that belong to
// that variant are meaningful (Text for text/textarea/email/select/radio,
// Number for number, Checked for checkbox, nothing for submit). Options is
// carried by select and radio only.
//
// Collections of elements keep a single submit element pinned as the last
// entry; ValidateCollection reports violations of that rule together with
// duplicate or empty ids so persisted state can be checked before use.
package model

package tui

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	selectCfgs   []SelectConfig
	inputCfgs    []InputConfig
	inputPos     int
	selectPos    int
	confirmPos   int
	textPos      int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.inputCfgs = append(s.inputCfgs, cfg)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selectCfgs = append(s.selectCfgs, cfg)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

type abortingDriver struct{ stubDriver }

func (a *abortingDriver) Input(context.Context, InputConfig) (string, error) {
	return "", ErrAborted
}

func sampleForm() render.Form {
	return render.NewForm("Signup", []model.Element{
		{ID: "name", Type: model.TypeText, Label: "Name", Required: true},
		{ID: "mail", Type: model.TypeEmail, Label: "Mail"},
		{ID: "age", Type: model.TypeNumber, Label: "Age"},
		{ID: "bio", Type: model.TypeTextarea, Label: "Bio"},
		{ID: "terms", Type: model.TypeCheckbox, Label: "Terms", Required: true},
		{ID: "color", Type: model.TypeSelect, Label: "Color", Options: []string{"Red", "Blue"}},
		{ID: "size", Type: model.TypeRadio, Label: "Size", Required: true, Options: []string{"S", "M"}},
		model.NewSubmit(),
	})
}

func TestRender_CollectsEveryField(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada", "ada@example.com", "36"},
		textAreas: []string{"Hello"},
		confirm:   []bool{true},
		selectIdx: []int{2, 1},
	}
	r, err := New(WithPromptDriver(driver))
	require.NoError(t, err)
	require.Equal(t, "application/json", r.ContentType())

	out, err := r.Render(context.Background(), sampleForm(), render.RenderOptions{})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	want := map[string]any{
		"name":  "Ada",
		"mail":  "ada@example.com",
		"age":   float64(36),
		"bio":   "Hello",
		"terms": true,
		"color": "Blue",
		"size":  "M",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, driver.infoMessages)

	require.Equal(t, []string{noSelection, "Red", "Blue"}, driver.selectCfgs[0].Options)
	require.Equal(t, []string{"S", "M"}, driver.selectCfgs[1].Options)
	require.Equal(t, "Name *", driver.inputCfgs[0].Message)
}

func TestRender_RepromptsInvalidAnswers(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"", "Ada", "not-an-email", "", "abc", ""},
		textAreas: []string{""},
		confirm:   []bool{false, true},
		selectIdx: []int{0, 0},
	}
	r, err := New(WithPromptDriver(driver))
	require.NoError(t, err)

	out, err := r.Render(context.Background(), sampleForm(), render.RenderOptions{})
	require.NoError(t, err)

	require.Equal(t, []string{
		"Name is required",
		"Mail must be a valid email",
		"Age must be a number",
		"Terms must be checked",
	}, driver.infoMessages)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	require.Equal(t, "", got["mail"])
	require.Nil(t, got["age"])
	require.Contains(t, got, "age")
	require.Equal(t, "", got["color"])
	require.Equal(t, "S", got["size"])
}

func TestRender_PrefillAndServerErrors(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Grace", "", ""},
		textAreas: []string{""},
		confirm:   []bool{true},
		selectIdx: []int{1, 0},
	}
	r, err := New(WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "! "}))
	require.NoError(t, err)

	_, err = r.Render(context.Background(), sampleForm(), render.RenderOptions{
		Values: map[string]any{"name": "Ada", "color": "Red", "age": 7.5},
		Errors: map[string][]string{
			"name": {"Name is taken"},
			"":     {"Try again later"},
		},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"! Try again later", "! Name is taken"}, driver.infoMessages)
	require.Equal(t, "Ada", driver.inputCfgs[0].Default)
	require.Equal(t, "7.5", driver.inputCfgs[2].Default)
	require.Equal(t, 1, driver.selectCfgs[0].DefaultIndex)
}

func TestRender_OutputFormats(t *testing.T) {
	form := render.NewForm("", []model.Element{
		{ID: "name", Type: model.TypeText, Label: "Name"},
		{ID: "age", Type: model.TypeNumber, Label: "Age"},
		model.NewSubmit(),
	})

	cases := []struct {
		format OutputFormat
		want   string
		ctype  string
	}{
		{OutputFormatJSON, `{"age":3,"name":"Ada Lovelace"}`, "application/json"},
		{OutputFormatFormURLEncoded, "age=3&name=Ada+Lovelace", "application/x-www-form-urlencoded"},
		{OutputFormatPrettyText, "Name: Ada Lovelace\nAge: 3\n", "text/plain; charset=utf-8"},
	}
	for _, tc := range cases {
		driver := &stubDriver{inputs: []string{"Ada Lovelace", "3"}}
		r, err := New(WithPromptDriver(driver), WithOutputFormat(tc.format))
		require.NoError(t, err)
		require.Equal(t, tc.ctype, r.ContentType())

		out, err := r.Render(context.Background(), form, render.RenderOptions{})
		require.NoError(t, err)
		require.Equal(t, tc.want, string(out), tc.format)
	}
}

func TestRender_SubmitTransformer(t *testing.T) {
	driver := &stubDriver{inputs: []string{"Ada"}}
	r, err := New(
		WithPromptDriver(driver),
		WithOutputFormat(OutputFormatPrettyText),
		WithSubmitTransformer(func(values map[string]any) (map[string]any, error) {
			values["source"] = "terminal"
			return values, nil
		}),
	)
	require.NoError(t, err)

	form := render.NewForm("", []model.Element{
		{ID: "name", Type: model.TypeText, Label: "Name"},
		model.NewSubmit(),
	})
	out, err := r.Render(context.Background(), form, render.RenderOptions{})
	require.NoError(t, err)
	require.Equal(t, "Name: Ada\nsource: terminal\n", string(out))
}

func TestRender_Aborted(t *testing.T) {
	r, err := New(WithPromptDriver(&abortingDriver{}))
	require.NoError(t, err)
	_, err = r.Render(context.Background(), sampleForm(), render.RenderOptions{})
	require.ErrorIs(t, err, ErrAborted)
}

func TestParseOutputFormat(t *testing.T) {
	got, err := ParseOutputFormat(" Pretty ")
	require.NoError(t, err)
	require.Equal(t, OutputFormatPrettyText, got)

	got, err = ParseOutputFormat("")
	require.NoError(t, err)
	require.Equal(t, OutputFormatJSON, got)

	_, err = ParseOutputFormat("xml")
	require.Error(t, err)

	_, err = New(WithOutputFormat("xml"))
	require.Error(t, err)
}

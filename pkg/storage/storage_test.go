package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/storage"
)

func TestEncodeDecodeState_RoundTrip(t *testing.T) {
	elements := []model.Element{
		{ID: "t1", Type: model.TypeText, Label: "Text Input 1", Required: true},
		{ID: "n1", Type: model.TypeNumber, Label: "Number 1", Number: model.NumberOf(3)},
		model.NewSubmit(),
	}
	data, err := storage.EncodeState(elements)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := storage.DecodeState(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(elements, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeState_Envelope(t *testing.T) {
	data, err := storage.EncodeState(model.Initial())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"state":{"elements":[{"id":"submit-button","type":"submit","label":"Submit"}]},"version":0}`
	if string(data) != want {
		t.Fatalf("envelope mismatch\nwant: %s\n got: %s", want, data)
	}
}

func TestDecodeState_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{{`,
		"bare array":      `[{"id":"submit-button","type":"submit","label":"Submit"}]`,
		"missing version": `{"state":{"elements":[{"id":"submit-button","type":"submit","label":"Submit"}]}}`,
		"future version":  `{"state":{"elements":[{"id":"submit-button","type":"submit","label":"Submit"}]},"version":3}`,
		"no submit":       `{"state":{"elements":[{"id":"a","type":"text","label":"A","value":""}]},"version":0}`,
		"unknown type":    `{"state":{"elements":[{"id":"a","type":"date","label":"A"},{"id":"submit-button","type":"submit","label":"Submit"}]},"version":0}`,
		"empty elements":  `{"state":{"elements":[]},"version":0}`,
	}
	for name, raw := range cases {
		if _, err := storage.DecodeState([]byte(raw)); !errors.Is(err, storage.ErrMalformedState) {
			t.Errorf("%s: expected ErrMalformedState, got %v", name, err)
		}
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	if _, err := mem.Load(ctx, storage.DefaultKey); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	payload := []byte("hello")
	if err := mem.Save(ctx, storage.DefaultKey, payload); err != nil {
		t.Fatalf("save: %v", err)
	}
	payload[0] = 'j'

	got, err := mem.Load(ctx, storage.DefaultKey)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("memory persister aliased caller bytes: %q", got)
	}
}

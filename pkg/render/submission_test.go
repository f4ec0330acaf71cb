package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render"
)

func TestMergeAndSortHiddenFields(t *testing.T) {
	base := map[string]string{
		" existing ": "keep",
		"":           "ignored",
	}

	merged := render.MergeHiddenFields(base,
		render.Hidden("_csrf", "token123"),
		render.Hidden(" version ", 4),
		render.Hidden("  ", "skip"),
	)

	wantMerged := map[string]string{
		"existing": "keep",
		"_csrf":    "token123",
		"version":  "4",
	}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	sorted := render.SortedHiddenFields(merged)
	wantSorted := []render.HiddenField{
		{Name: "_csrf", Value: "token123"},
		{Name: "existing", Value: "keep"},
		{Name: "version", Value: "4"},
	}
	if diff := cmp.Diff(wantSorted, sorted); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFingerprint(t *testing.T) {
	initial := model.Initial()
	a := render.Fingerprint(initial)
	if a == "" || len(a) != 16 {
		t.Fatalf("unexpected fingerprint %q", a)
	}
	if b := render.Fingerprint(model.Initial()); a != b {
		t.Fatalf("fingerprint not stable: %q vs %q", a, b)
	}

	changed := model.Initial()
	changed[0].Label = "Send"
	if render.Fingerprint(changed) == a {
		t.Fatalf("fingerprint ignored a label change")
	}

	field := render.VersionField(initial)
	if field.Name != render.VersionFieldName || field.Value != a {
		t.Fatalf("unexpected version field %+v", field)
	}
}

func TestRegistry(t *testing.T) {
	reg := render.NewRegistry()
	if _, err := reg.Get(""); err == nil {
		t.Fatalf("expected error from empty registry")
	}
	reg.MustRegister(stubRenderer{name: "html"})
	reg.MustRegister(stubRenderer{name: "tui"})

	if err := reg.Register(stubRenderer{name: "html"}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	got, err := reg.Get("")
	if err != nil || got.Name() != "html" {
		t.Fatalf("default renderer = %v, %v", got, err)
	}
	if err := reg.SetDefault("tui"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	got, _ = reg.Get("")
	if got.Name() != "tui" {
		t.Fatalf("default renderer = %q, want tui", got.Name())
	}
	if diff := cmp.Diff([]string{"html", "tui"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if reg.Has("json") {
		t.Fatalf("unexpected renderer")
	}
}

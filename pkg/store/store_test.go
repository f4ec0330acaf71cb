package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/storage"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("el-%d", n)
	}
}

func newStore(t *testing.T, opts ...store.Option) (*store.Store, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	opts = append([]store.Option{store.WithPersister(mem), store.WithIDGenerator(sequentialIDs())}, opts...)
	return store.New(context.Background(), opts...), mem
}

func ids(elements []model.Element) []string {
	out := make([]string, len(elements))
	for i, el := range elements {
		out[i] = el.ID
	}
	return out
}

func requireSubmitLast(t *testing.T, elements []model.Element) {
	t.Helper()
	require.NoError(t, model.ValidateCollection(elements))
}

func TestNew_InitialState(t *testing.T) {
	s, _ := newStore(t)
	require.Equal(t, model.Initial(), s.Elements())
	require.False(t, s.CanExport())
}

func TestAdd_KeepsSubmitLastAndUnique(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		for _, typ := range model.AddableTypes() {
			_, err := s.Add(ctx, typ)
			require.NoError(t, err)
			requireSubmitLast(t, s.Elements())
		}
	}
	require.Len(t, s.Elements(), 3*len(model.AddableTypes())+1)
	require.True(t, s.CanExport())
}

func TestAdd_LabelsAndDefaults(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	first, err := s.Add(ctx, model.TypeText)
	require.NoError(t, err)
	second, err := s.Add(ctx, model.TypeText)
	require.NoError(t, err)
	sel, err := s.Add(ctx, model.TypeSelect)
	require.NoError(t, err)

	require.Equal(t, "Text Input 1", first.Label)
	require.Equal(t, "Text Input 2", second.Label)
	require.Equal(t, "Select Dropdown 1", sel.Label)
	require.Equal(t, []string{"Option 1", "Option 2"}, sel.Options)
	require.False(t, first.Required)
	require.Equal(t, []string{"el-1", "el-2", "el-3", model.SubmitID}, ids(s.Elements()))

	require.True(t, s.Remove(ctx, first.ID))
	third, err := s.Add(ctx, model.TypeText)
	require.NoError(t, err)
	require.Equal(t, "Text Input 2", third.Label, "count is computed from current elements")
	require.Equal(t, "el-4", third.ID, "ids are never reused")
}

func TestAdd_RejectsSubmitAndUnknown(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Add(context.Background(), model.TypeSubmit)
	require.ErrorIs(t, err, model.ErrUnknownType)
	_, err = s.Add(context.Background(), model.Type("date"))
	require.ErrorIs(t, err, model.ErrUnknownType)
	require.Len(t, s.Elements(), 1)
}

func TestAddFromPayload(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	el, ok := s.AddFromPayload(ctx, "checkbox")
	require.True(t, ok)
	require.Equal(t, "Checkbox 1", el.Label)

	for _, payload := range []string{"", "submit", "button", "TEXT"} {
		_, ok := s.AddFromPayload(ctx, payload)
		require.False(t, ok, "payload %q", payload)
	}
	require.Len(t, s.Elements(), 2)
}

func TestUpdate(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	text, _ := s.Add(ctx, model.TypeText)
	num, _ := s.Add(ctx, model.TypeNumber)

	require.True(t, s.Update(ctx, text.ID, model.SetRequired(true)))
	require.True(t, s.Update(ctx, num.ID, model.SetNumber(model.NumberOf(7))))
	require.True(t, s.Update(ctx, model.SubmitID, model.SetLabel("Send")))
	require.False(t, s.Update(ctx, "missing", model.SetLabel("x")))

	got, ok := s.Find(text.ID)
	require.True(t, ok)
	require.True(t, got.Required)
	require.Equal(t, model.TypeText, got.Type)

	got, _ = s.Find(num.ID)
	require.Equal(t, model.NumberOf(7), got.Number)
	require.False(t, got.Required, "other fields untouched")

	submit, _ := s.Find(model.SubmitID)
	require.Equal(t, "Send", submit.Label)
}

func TestRemove(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	a, _ := s.Add(ctx, model.TypeText)
	b, _ := s.Add(ctx, model.TypeEmail)

	require.False(t, s.Remove(ctx, "missing"))
	require.False(t, s.Remove(ctx, model.SubmitID))
	require.True(t, s.Remove(ctx, a.ID))
	require.Equal(t, []string{b.ID, model.SubmitID}, ids(s.Elements()))
}

func TestReorder(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := s.Add(ctx, model.TypeText)
		require.NoError(t, err)
	}

	require.NoError(t, s.Reorder(ctx, 0, 3))
	require.Equal(t, []string{"el-2", "el-3", "el-4", "el-1", model.SubmitID}, ids(s.Elements()))

	require.NoError(t, s.Reorder(ctx, 2, 2))
	require.Equal(t, []string{"el-2", "el-3", "el-4", "el-1", model.SubmitID}, ids(s.Elements()))

	err := s.Reorder(ctx, 0, 4)
	require.True(t, errors.Is(err, store.ErrIndexOutOfRange))
	require.Equal(t, []string{"el-2", "el-3", "el-4", "el-1", model.SubmitID}, ids(s.Elements()))
}

func TestReorder_Property(t *testing.T) {
	ctx := context.Background()
	const n = 5
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s, _ := newStore(t)
			for k := 0; k < n; k++ {
				_, err := s.Add(ctx, model.TypeNumber)
				require.NoError(t, err)
			}
			before := model.Fields(s.Elements())
			require.NoError(t, s.Reorder(ctx, i, j))
			after := s.Elements()
			requireSubmitLast(t, after)
			require.Equal(t, before[i].ID, after[j].ID)
			require.ElementsMatch(t, ids(before), ids(model.Fields(after)))
		}
	}
}

func TestReorderByID(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = s.Add(ctx, model.TypeText)
	}

	require.True(t, s.ReorderByID(ctx, "el-3", "el-1"))
	require.Equal(t, []string{"el-3", "el-1", "el-2", model.SubmitID}, ids(s.Elements()))

	require.False(t, s.ReorderByID(ctx, "el-1", "el-1"))
	require.False(t, s.ReorderByID(ctx, "el-1", "missing"))
	require.False(t, s.ReorderByID(ctx, "el-1", model.SubmitID))
	require.Equal(t, []string{"el-3", "el-1", "el-2", model.SubmitID}, ids(s.Elements()))
}

func TestReset(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	for _, typ := range model.AddableTypes() {
		_, _ = s.Add(ctx, typ)
	}
	s.Update(ctx, model.SubmitID, model.SetLabel("Go"))
	s.Reset(ctx)
	require.Equal(t, model.Initial(), s.Elements())
}

func TestReplace(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()

	imported := []model.Element{
		{ID: "a", Type: model.TypeText, Label: "A"},
		{ID: model.SubmitID, Type: model.TypeSubmit, Label: "Send"},
	}
	require.NoError(t, s.Replace(ctx, imported))
	require.Equal(t, imported, s.Elements())
	imported[0].Label = "mutated"
	got, _ := s.Find("a")
	require.Equal(t, "A", got.Label)

	data, err := mem.Load(ctx, storage.DefaultKey)
	require.NoError(t, err)
	persisted, err := storage.DecodeState(data)
	require.NoError(t, err)
	require.Equal(t, s.Elements(), persisted)

	err = s.Replace(ctx, []model.Element{{ID: "b", Type: model.TypeText, Label: "B"}})
	require.Error(t, err)
	require.Equal(t, []string{"a", model.SubmitID}, ids(s.Elements()))
}

func TestOptionEditing(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	radio, _ := s.Add(ctx, model.TypeRadio)
	text, _ := s.Add(ctx, model.TypeText)

	require.True(t, s.AddOption(ctx, radio.ID))
	require.True(t, s.SetOption(ctx, radio.ID, 0, "Yes"))
	require.False(t, s.SetOption(ctx, radio.ID, 9, "No"))
	require.False(t, s.AddOption(ctx, text.ID))

	got, _ := s.Find(radio.ID)
	require.Equal(t, []string{"Yes", "Option 2", "Option 3"}, got.Options)

	require.True(t, s.RemoveOption(ctx, radio.ID, 1))
	require.True(t, s.RemoveOption(ctx, radio.ID, 1))
	require.False(t, s.RemoveOption(ctx, radio.ID, 0), "last option is kept")

	got, _ = s.Find(radio.ID)
	require.Equal(t, []string{"Yes"}, got.Options)
}

func TestPersistenceAndHydration(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	s := store.New(ctx, store.WithPersister(mem), store.WithIDGenerator(sequentialIDs()))
	_, _ = s.Add(ctx, model.TypeEmail)
	s.Update(ctx, "el-1", model.SetText("a@b.co"))
	_, _ = s.Add(ctx, model.TypeCheckbox)

	reloaded := store.New(ctx, store.WithPersister(mem))
	if diff := cmp.Diff(s.Elements(), reloaded.Elements()); diff != "" {
		t.Fatalf("hydrated state mismatch (-want +got):\n%s", diff)
	}
}

func TestHydration_MalformedFallsBackToInitial(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.Save(ctx, storage.DefaultKey, []byte(`{"state":{"elements":[{"id":"x","type":"text","label":"X","value":""}]},"version":0}`)))

	s := store.New(ctx, store.WithPersister(mem))
	require.Equal(t, model.Initial(), s.Elements())

	err := s.Hydrate(ctx)
	require.ErrorIs(t, err, storage.ErrMalformedState)
}

func TestStorageKey(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	s := store.New(ctx, store.WithPersister(mem), store.WithStorageKey("custom"))
	_, _ = s.Add(ctx, model.TypeText)

	_, err := mem.Load(ctx, "custom")
	require.NoError(t, err)
	_, err = mem.Load(ctx, storage.DefaultKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

type failingPersister struct{ saves int }

func (f *failingPersister) Load(context.Context, string) ([]byte, error) {
	return nil, storage.ErrNotFound
}

func (f *failingPersister) Save(context.Context, string, []byte) error {
	f.saves++
	return errors.New("disk full")
}

func TestPersistenceFailureIsBestEffort(t *testing.T) {
	ctx := context.Background()
	p := &failingPersister{}
	s := store.New(ctx, store.WithPersister(p))

	_, err := s.Add(ctx, model.TypeText)
	require.NoError(t, err)
	require.Len(t, s.Elements(), 2)
	require.Equal(t, 1, p.saves)
}

func TestSubscribe(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	var seen [][]string
	unsubscribe := s.Subscribe(func(elements []model.Element) {
		seen = append(seen, ids(elements))
	})

	_, _ = s.Add(ctx, model.TypeText)
	s.Remove(ctx, "missing")
	s.Reset(ctx)
	unsubscribe()
	_, _ = s.Add(ctx, model.TypeText)

	want := [][]string{
		{"el-1", model.SubmitID},
		{model.SubmitID},
	}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestElementsReturnsCopy(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	sel, _ := s.Add(ctx, model.TypeSelect)

	snapshot := s.Elements()
	snapshot[0].Options[0] = "mutated"
	snapshot[0].Label = "mutated"

	got, _ := s.Find(sel.ID)
	require.Equal(t, "Option 1", got.Options[0])
	require.Equal(t, "Select Dropdown 1", got.Label)
}

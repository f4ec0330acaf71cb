package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/storage"
	"github.com/goliatone/go-formbuilder/pkg/storage/filestore"
)

func TestStore_LoadMissing(t *testing.T) {
	s := filestore.New(t.TempDir())
	_, err := s.Load(context.Background(), storage.DefaultKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := filestore.New(dir)
	ctx := context.Background()

	data, err := storage.EncodeState(model.Initial())
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, storage.DefaultKey, data))

	require.Equal(t, filepath.Join(dir, "form-builder-storage.json"), s.Path(storage.DefaultKey))
	_, err = os.Stat(s.Path(storage.DefaultKey) + ".tmp")
	require.True(t, os.IsNotExist(err), "temporary file must not survive a save")

	got, err := s.Load(ctx, storage.DefaultKey)
	require.NoError(t, err)
	require.Equal(t, data, got)

	elements, err := storage.DecodeState(got)
	require.NoError(t, err)
	require.Len(t, elements, 1)
	require.True(t, elements[0].IsSubmit())
}

func TestStore_Overwrite(t *testing.T) {
	s := filestore.New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "k", []byte("one")))
	require.NoError(t, s.Save(ctx, "k", []byte("two")))

	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "two", string(got))
}

func TestStore_KeyIsConfinedToDir(t *testing.T) {
	dir := t.TempDir()
	s := filestore.New(dir)
	require.Equal(t, dir, filepath.Dir(s.Path("../../etc/passwd")))
	require.Equal(t, filepath.Join(dir, storage.DefaultKey+".json"), s.Path("  "))
}

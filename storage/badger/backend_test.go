package badger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/patternsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
	assert.False(t, backend.ReadOnly())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "address")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := OpenBackend(path, false)
	assert.Error(t, err)

	_, err = OpenReadOnlyBackend(path)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestReadOnlyBackendRejectsWrites(t *testing.T) {
	dir := t.TempDir()
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NoError(t, backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return tx.Commit()
	}, true))
	require.NoError(t, backend.Close())

	ro, err := OpenReadOnlyBackend(dir)
	require.NoError(t, err)
	defer ro.Close()
	assert.True(t, ro.ReadOnly())

	err = ro.WithTx(func(tx *badger.Txn) error { return nil }, true)
	assert.ErrorIs(t, err, storage.ErrReadOnly)

	err = ro.WithWriteBatch(func(wb *badger.WriteBatch) error { return nil })
	assert.ErrorIs(t, err, storage.ErrReadOnly)

	var value []byte
	require.NoError(t, ro.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte("k"))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	}, false))
	assert.Equal(t, []byte("v"), value)
}

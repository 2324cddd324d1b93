package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "graph")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := OpenBackend(file, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	repo, err := NewEntityRepository(backend)
	require.NoError(t, err)
	_, err = repo.GetEntity(context.Background(), 1)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestConstructorsRequireBackend(t *testing.T) {
	_, err := NewEntityRepository(nil)
	assert.ErrorIs(t, err, ErrBackendRequired)
	_, err = NewRelationRepository(nil)
	assert.ErrorIs(t, err, ErrBackendRequired)
	_, err = NewVectorIndex(nil)
	assert.ErrorIs(t, err, ErrBackendRequired)
	_, err = NewTripleStore(nil)
	assert.ErrorIs(t, err, ErrBackendRequired)
	_, err = NewCheckpointRepository(nil)
	assert.ErrorIs(t, err, ErrBackendRequired)
}

func TestCheckpointRepository(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	loaded, err := stores.Checkpoints.LoadCheckpoint(ctx, "reembed")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	require.NoError(t, stores.Checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Name: "reembed", LastID: 42, Processed: 7}))

	loaded, err = stores.Checkpoints.LoadCheckpoint(ctx, "reembed")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, core.ID(42), loaded.LastID)
	assert.Equal(t, 7, loaded.Processed)
	assert.False(t, loaded.UpdatedAt.IsZero())

	require.NoError(t, stores.Checkpoints.DeleteCheckpoint(ctx, "reembed"))
	loaded, err = stores.Checkpoints.LoadCheckpoint(ctx, "reembed")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	assert.NoError(t, stores.Checkpoints.DeleteCheckpoint(ctx, "missing"))
}

func newTestStores(t *testing.T) *Stores {
	t.Helper()
	stores, err := NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })
	return stores
}

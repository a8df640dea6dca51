package blob_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/nfrecon/internal/blob"
)

func TestLocal_PutGet(t *testing.T) {
	ctx := context.Background()

	store, err := blob.NewLocal(t.TempDir())
	require.NoError(t, err)

	uri, err := store.Put(ctx, "tenant/abc/nf.pdf", []byte("fake pdf"), "application/pdf")
	require.NoError(t, err)
	assert.Contains(t, uri, "file://")

	got, err := store.Get(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, "fake pdf", string(got))
}

func TestLocal_RejectsEscapingKeys(t *testing.T) {
	store, err := blob.NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../outside.pdf", []byte("x"), "")
	assert.Error(t, err)

	_, err = store.Get(context.Background(), "file:///etc/passwd")
	assert.Error(t, err)
}

func TestLocal_GetMissing(t *testing.T) {
	dir := t.TempDir()

	store, err := blob.NewLocal(dir)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "file://"+dir+"/missing.pdf")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

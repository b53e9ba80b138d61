package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/jfk9w-go/flu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskBackend_roundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	id, err := uuid.NewV4()
	require.Nil(t, err)

	ref := Ref{
		MediaID: id,
		Variant: SourceVariant,
		Path:    filepath.Join(dir, "image", "2021", "05", "01", "cat.jpg"),
	}

	data := flu.Bytes("not really a jpeg")
	backend := DiskBackend{}
	require.Nil(t, backend.Store(ctx, ref, data))

	info, err := os.Stat(ref.Path)
	require.Nil(t, err)
	assert.Equal(t, int64(len(data)), info.Size())

	restored, err := backend.Retrieve(ctx, ref)
	require.Nil(t, err)
	assert.Equal(t, data, restored)
}

func TestDiskBackend_overwrite(t *testing.T) {
	ctx := context.Background()
	ref := Ref{Variant: "medium", Path: filepath.Join(t.TempDir(), "cat-medium.jpg")}

	backend := DiskBackend{}
	require.Nil(t, backend.Store(ctx, ref, flu.Bytes("first")))
	require.Nil(t, backend.Store(ctx, ref, flu.Bytes("second")))

	restored, err := backend.Retrieve(ctx, ref)
	require.Nil(t, err)
	assert.Equal(t, "second", string(restored))
}

func TestDiskBackend_noPath(t *testing.T) {
	backend := DiskBackend{}
	assert.NotNil(t, backend.Store(context.Background(), Ref{Variant: "source"}, flu.Bytes("data")))

	_, err := backend.Retrieve(context.Background(), Ref{Variant: "source", Path: "/nonexistent/cat.jpg"})
	assert.NotNil(t, err)
}

func TestStrategy_validate(t *testing.T) {
	assert.Nil(t, Disk.Validate())
	assert.Nil(t, Database.Validate())
	assert.NotNil(t, Strategy("s3").Validate())
}

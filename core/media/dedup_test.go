package media_test

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/jfk9w-go/flu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediakit/core/media"
	"mediakit/core/rendition"
	"mediakit/core/storage"
	gormutil "mediakit/util/gorm"
)

func solidBytes(t *testing.T, width, height int) flu.Bytes {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 40, G: 40, B: 40, A: 255})
		}
	}

	data, err := rendition.Encode(img, "png")
	require.Nil(t, err)
	return data
}

func newDeduplicator(t *testing.T) (*media.Deduplicator, func()) {
	db := gormutil.NewTestSQLite(t)
	dedup := &media.Deduplicator{
		Clock:   testClock,
		Storage: (*media.SQLHashStorage)(db.DB),
	}

	require.Nil(t, dedup.Init(context.Background()))
	return dedup, func() { _ = db.Close() }
}

func TestDeduplicator_md5(t *testing.T) {
	ctx := context.Background()
	dedup, done := newDeduplicator(t)
	defer done()

	ok, err := dedup.Check(ctx, "audio", "upload", flu.Bytes("RIFF"))
	require.Nil(t, err)
	assert.True(t, ok)

	ok, err = dedup.Check(ctx, "audio", "upload", flu.Bytes("RIFF"))
	require.Nil(t, err)
	assert.False(t, ok)

	// same bytes under another subtype are new
	ok, err = dedup.Check(ctx, "video", "upload", flu.Bytes("RIFF"))
	require.Nil(t, err)
	assert.True(t, ok)

	ok, err = dedup.Check(ctx, "audio", "upload", flu.Bytes("WAVE"))
	require.Nil(t, err)
	assert.True(t, ok)
}

func TestDeduplicator_images(t *testing.T) {
	ctx := context.Background()
	dedup, done := newDeduplicator(t)
	defer done()

	first := pngBytes(t, 200, 100)
	ok, err := dedup.Check(ctx, "image", "upload", first)
	require.Nil(t, err)
	assert.True(t, ok)

	ok, err = dedup.Check(ctx, "image", "upload", first)
	require.Nil(t, err)
	assert.False(t, ok)

	ok, err = dedup.Check(ctx, "image", "upload", solidBytes(t, 200, 100))
	require.Nil(t, err)
	assert.True(t, ok)
}

func TestService_create_duplicate(t *testing.T) {
	ctx := context.Background()
	service, done := newService(t, &media.Type{
		Name:                  "audio",
		SourceStorageStrategy: storage.Database,
	})
	defer done()

	db := service.DB
	service.Dedup = &media.Deduplicator{
		Clock:   testClock,
		Storage: (*media.SQLHashStorage)(db),
	}
	require.Nil(t, service.Dedup.Init(ctx))

	_, err := service.Create(ctx, media.CreateIn{Type: "audio", Bytes: flu.Bytes("RIFF"), Filename: "a.wav"})
	require.Nil(t, err)

	_, err = service.Create(ctx, media.CreateIn{Type: "audio", Bytes: flu.Bytes("RIFF"), Filename: "b.wav"})
	assert.ErrorIs(t, err, media.ErrDuplicate)

	_, err = service.Create(ctx, media.CreateIn{Type: "audio", Bytes: flu.Bytes("WAVE"), Filename: "c.wav"})
	assert.Nil(t, err)
}

func TestService_create_retryAfterFailure(t *testing.T) {
	ctx := context.Background()
	typ := &media.Type{
		Name:                     "photo",
		SourceStorageStrategy:    storage.Disk,
		SourceDiskStoragePattern: "{bogus}/{filename}.{extension}",
	}

	service, done := newService(t, typ)
	defer done()
	service.Dedup = &media.Deduplicator{
		Clock:   testClock,
		Storage: (*media.SQLHashStorage)(service.DB),
	}
	require.Nil(t, service.Dedup.Init(ctx))

	data := pngBytes(t, 120, 80)
	_, err := service.Create(ctx, media.CreateIn{Type: "photo", Bytes: data, Filename: "cat.png"})
	require.NotNil(t, err)

	// a create that failed after the duplicate check must not reject
	// a retry of the same bytes
	typ.SourceDiskStoragePattern = "{source_path_prefix}/{filename}.{extension}"
	record, err := service.Create(ctx, media.CreateIn{Type: "photo", Bytes: data, Filename: "cat.png"})
	require.Nil(t, err)
	assert.Equal(t, "cat.png", record.Filename)

	// while stored fingerprints still reject true duplicates
	_, err = service.Create(ctx, media.CreateIn{Type: "photo", Bytes: data, Filename: "cat.png"})
	assert.ErrorIs(t, err, media.ErrDuplicate)
}

package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "my-cat-photo", Slugify("My Cat  Photo!"))
	assert.Equal(t, "caf-2021", Slugify("Café 2021"))
	assert.Equal(t, "", Slugify("___"))
}

func TestSlugifyFilename(t *testing.T) {
	assert.Equal(t, "my-cat-photo.jpg", SlugifyFilename("My Cat Photo.JPG", false))
	assert.Equal(t, "noext", SlugifyFilename("NoExt", false))

	unique := SlugifyFilename("cat.jpg", true)
	assert.True(t, strings.HasPrefix(unique, "cat-"))
	assert.True(t, strings.HasSuffix(unique, ".jpg"))
	assert.Len(t, unique, len("cat-123456.jpg"))
}

func TestSplitFilename(t *testing.T) {
	name, ext := SplitFilename("cat-medium.jpg")
	assert.Equal(t, "cat-medium", name)
	assert.Equal(t, "jpg", ext)

	name, ext = SplitFilename("cat")
	assert.Equal(t, "cat", name)
	assert.Equal(t, "", ext)
}

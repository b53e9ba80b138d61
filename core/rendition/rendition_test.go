package rendition

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}

	return img
}

func TestTransform_resize(t *testing.T) {
	out := Transform(testImage(400, 200), Spec{Width: 100, Height: 100, Mode: Resize})
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 50, out.Bounds().Dy())

	out = Transform(testImage(200, 400), Spec{Width: 100, Height: 100, Mode: Resize})
	assert.Equal(t, 50, out.Bounds().Dx())
	assert.Equal(t, 100, out.Bounds().Dy())
}

func TestTransform_crop(t *testing.T) {
	for _, size := range [][2]int{{400, 200}, {200, 400}, {50, 50}} {
		out := Transform(testImage(size[0], size[1]), Spec{Width: 120, Height: 80, Mode: Crop})
		assert.Equal(t, 120, out.Bounds().Dx())
		assert.Equal(t, 80, out.Bounds().Dy())
	}
}

func TestTransform_preserve(t *testing.T) {
	src := testImage(60, 40)
	out := Transform(src, Spec{Width: 100, Height: 100, Mode: Preserve})
	assert.Equal(t, src.Bounds(), out.Bounds())

	out = Transform(testImage(300, 150), Spec{Width: 100, Height: 100, Mode: Preserve})
	assert.True(t, out.Bounds().Dx() <= 100)
	assert.True(t, out.Bounds().Dy() <= 100)
}

func TestGenerate_roundTrip(t *testing.T) {
	data, err := Generate(testImage(200, 100), Spec{Width: 64, Height: 64, Format: "png", Mode: Crop})
	require.Nil(t, err)

	img, err := Decode(data)
	require.Nil(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())
}

func TestGenerate_unsupportedFormat(t *testing.T) {
	_, err := Generate(testImage(10, 10), Spec{Width: 5, Height: 5, Format: "tiff", Mode: Resize})
	unsupported := new(UnsupportedFormatError)
	assert.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "tiff", unsupported.Format)
}

func TestCatalog_validate(t *testing.T) {
	catalog := Catalog{
		"wide":         {Width: 1200, Height: 600, Extension: "jpg", Format: "jpeg", Mode: Crop},
		"square-small": {Width: 200, Height: 200, Extension: "jpg", Format: "jpeg", Mode: Crop},
		"medium":       {Width: 800, Height: 600, Extension: "png", Format: "png", Mode: Preserve},
	}
	assert.Nil(t, catalog.Validate())

	assert.NotNil(t, Catalog{"bad": {Width: 0, Height: 10, Format: "png", Mode: Resize}}.Validate())
	assert.NotNil(t, Catalog{"bad": {Width: 10, Height: 10, Format: "png", Mode: "stretch"}}.Validate())
	assert.NotNil(t, Catalog{"bad": {Width: 10, Height: 10, Format: "webp", Mode: Resize}}.Validate())
	assert.NotNil(t, Catalog{"": {Width: 10, Height: 10, Format: "png", Mode: Resize}}.Validate())
}

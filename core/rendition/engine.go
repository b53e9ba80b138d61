package rendition

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/jfk9w-go/flu"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

type encodeFunc func(io.Writer, image.Image) error

var encoders = map[string]encodeFunc{
	"jpeg": func(w io.Writer, img image.Image) error { return jpeg.Encode(w, img, &jpeg.Options{Quality: 90}) },
	"png":  png.Encode,
	"gif":  func(w io.Writer, img image.Image) error { return gif.Encode(w, img, nil) },
	"bmp":  bmp.Encode,
}

// Decode reads an image from in. jpeg, png, gif and bmp sources
// are supported.
func Decode(in flu.Input) (image.Image, error) {
	reader, err := in.Reader()
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}

	defer flu.CloseQuietly(reader)
	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}

	return img, nil
}

// Transform applies the spec's transformation mode to src and
// returns the derived image.
func Transform(src image.Image, spec Spec) image.Image {
	bounds := src.Bounds()
	sw, sh := bounds.Dx(), bounds.Dy()
	switch spec.Mode {
	case Crop:
		return scale(src, cropRect(bounds, spec.Width, spec.Height), spec.Width, spec.Height)
	case Preserve:
		if sw <= spec.Width && sh <= spec.Height {
			return src
		}

		fallthrough
	default:
		w, h := fit(sw, sh, spec.Width, spec.Height)
		return scale(src, bounds, w, h)
	}
}

// Encode serializes the image in the given output format.
// An *UnsupportedFormatError is returned for unknown formats.
func Encode(img image.Image, format string) (flu.Bytes, error) {
	encode, ok := encoders[format]
	if !ok {
		return nil, &UnsupportedFormatError{Format: format}
	}

	buf := new(flu.ByteBuffer)
	if err := encode(buf.Unmask(), img); err != nil {
		return nil, errors.Wrapf(err, "encode %s", format)
	}

	return buf.Bytes(), nil
}

// Generate transforms src according to the spec and encodes the result.
func Generate(src image.Image, spec Spec) (flu.Bytes, error) {
	return Encode(Transform(src, spec), spec.Format)
}

func scale(src image.Image, from image.Rectangle, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, from, draw.Src, nil)
	return dst
}

// fit shrinks or grows (sw, sh) to the largest size which fits
// within (bw, bh) while preserving aspect ratio.
func fit(sw, sh, bw, bh int) (int, int) {
	if sw*bh > sh*bw {
		h := sh * bw / sw
		if h < 1 {
			h = 1
		}

		return bw, h
	}

	w := sw * bh / sh
	if w < 1 {
		w = 1
	}

	return w, bh
}

// cropRect selects the largest centered region of bounds matching
// the target aspect ratio.
func cropRect(bounds image.Rectangle, width, height int) image.Rectangle {
	sw, sh := bounds.Dx(), bounds.Dy()
	if sw*height > sh*width {
		w := sh * width / height
		offset := (sw - w) / 2
		return image.Rect(bounds.Min.X+offset, bounds.Min.Y, bounds.Min.X+offset+w, bounds.Max.Y)
	}

	h := sw * height / width
	offset := (sh - h) / 2
	return image.Rect(bounds.Min.X, bounds.Min.Y+offset, bounds.Max.X, bounds.Min.Y+offset+h)
}

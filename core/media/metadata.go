package media

import (
	"bytes"

	"github.com/dhowden/tag"
	"github.com/jfk9w-go/flu"
	"github.com/rwcarlsen/goexif/exif"
)

var exifKeys = map[string]exif.FieldName{
	"datetime": exif.DateTimeOriginal,
	"creator":  exif.Artist,
	"rights":   exif.Copyright,
}

// contentMeta reads metadata embedded in the source bytes: EXIF for
// images, ID3/MP4/FLAC/OGG tags for audio and video. Unrecognized or
// untagged content yields nil.
func contentMeta(data flu.Bytes) map[string]interface{} {
	meta := make(map[string]interface{})
	if x, err := exif.Decode(bytes.NewReader(data)); err == nil {
		for key, field := range exifKeys {
			if value, err := x.Get(field); err == nil {
				if str, err := value.StringVal(); err == nil && str != "" {
					meta[key] = str
				}
			}
		}
	} else if m, err := tag.ReadFrom(bytes.NewReader(data)); err == nil {
		for key, value := range map[string]string{
			"title":  m.Title(),
			"artist": m.Artist(),
			"album":  m.Album(),
			"genres": m.Genre(),
		} {
			if value != "" {
				meta[key] = value
			}
		}

		if year := m.Year(); year != 0 {
			meta["year"] = year
		}
	}

	if len(meta) == 0 {
		return nil
	}

	return meta
}

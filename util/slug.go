package util

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"
)

// Slugify lowercases the value and replaces every run of
// non-alphanumeric characters with a single dash.
func Slugify(value string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(value) {
		if unicode.IsLetter(r) && r < unicode.MaxASCII || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}

			dash = false
			b.WriteRune(r)
		} else {
			dash = true
		}
	}

	return b.String()
}

// SlugifyFilename returns a clean filename, preserving the extension.
// With randomSuffix a six-digit suffix is appended to the name part
// to make it unique.
func SlugifyFilename(filename string, randomSuffix bool) string {
	name := strings.ToLower(filename)
	extension := ""
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		extension = name[dot+1:]
		name = name[:dot]
	}

	name = Slugify(name)
	if randomSuffix {
		name = fmt.Sprintf("%s-%d", name, 100000+rand.Intn(900000))
	}

	if extension == "" {
		return name
	}

	return name + "." + Slugify(extension)
}

// SplitFilename splits a filename into name and extension parts.
func SplitFilename(filename string) (name, extension string) {
	if dot := strings.LastIndexByte(filename, '.'); dot >= 0 {
		return filename[:dot], filename[dot+1:]
	}

	return filename, ""
}

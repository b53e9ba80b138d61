// Package rendition generates derived image variants from a catalog
// of named transformation presets.
package rendition

import (
	"fmt"

	"github.com/pkg/errors"
)

// Mode selects how the source image is mapped onto the target box.
type Mode string

const (
	// Resize scales the image to fit within the target box,
	// preserving aspect ratio.
	Resize Mode = "resize"

	// Crop scales and center-crops the image to exactly the target box.
	Crop Mode = "crop"

	// Preserve scales down only if the image exceeds the target box.
	// The image is never upscaled.
	Preserve Mode = "preserve"
)

func (m Mode) Validate() error {
	switch m {
	case Resize, Crop, Preserve:
		return nil
	default:
		return errors.Errorf("unknown transformation mode %q", m)
	}
}

// Spec describes a single rendition preset.
// The preset name is the key in the enclosing Catalog.
type Spec struct {
	Width     int    `yaml:"width" json:"width"`
	Height    int    `yaml:"height" json:"height"`
	Extension string `yaml:"extension" json:"extension"`
	Format    string `yaml:"format" json:"format"`
	Mode      Mode   `yaml:"mode" json:"mode"`
}

func (s Spec) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return errors.Errorf("target size %dx%d must be positive", s.Width, s.Height)
	}

	if err := s.Mode.Validate(); err != nil {
		return err
	}

	if _, ok := encoders[s.Format]; !ok {
		return &UnsupportedFormatError{Format: s.Format}
	}

	return nil
}

// Catalog maps rendition names to presets. Names are unique within
// a media subtype by construction.
type Catalog map[string]Spec

func (c Catalog) Validate() error {
	for name, spec := range c {
		if name == "" {
			return errors.New("rendition name must not be empty")
		}

		if err := spec.Validate(); err != nil {
			return errors.Wrapf(err, "rendition %q", name)
		}
	}

	return nil
}

// UnsupportedFormatError is returned when an output format
// has no registered encoder.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported image format %q", e.Format)
}

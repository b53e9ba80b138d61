package media

import (
	"github.com/pkg/errors"

	"mediakit/core/rendition"
	"mediakit/core/storage"
)

// Type declares a media subtype. Instances are configuration-time
// constants: set once at startup and only read afterwards.
type Type struct {
	// Name discriminates records of this subtype ("image", "audio",
	// "video" or a custom value).
	Name string

	// SourceStorageStrategy selects where source bytes live.
	SourceStorageStrategy storage.Strategy

	// SourceDiskStoragePattern computes the source file location for
	// the disk strategy. Placeholders: source_path_prefix,
	// media_path_prefix, year, month, day, filename, extension.
	SourceDiskStoragePattern string

	// DestinationPathPattern computes rendition file locations.
	// Additionally binds name (the rendition key), width and height.
	DestinationPathPattern string

	// URLPattern computes the URL under which a rendition is served.
	URLPattern string

	// ProcessParams is the rendition catalog. Only image-like
	// subtypes have one; for others Process only publishes the record.
	ProcessParams rendition.Catalog
}

func (t *Type) Validate() error {
	if t.Name == "" {
		return errors.New("subtype name must not be empty")
	}

	if err := t.SourceStorageStrategy.Validate(); err != nil {
		return errors.Wrapf(err, "subtype %q", t.Name)
	}

	if t.SourceStorageStrategy == storage.Disk && t.SourceDiskStoragePattern == "" {
		return errors.Errorf("subtype %q uses disk strategy without a source pattern", t.Name)
	}

	if len(t.ProcessParams) > 0 {
		if t.DestinationPathPattern == "" {
			return errors.Errorf("subtype %q has renditions without a destination pattern", t.Name)
		}

		if err := t.ProcessParams.Validate(); err != nil {
			return errors.Wrapf(err, "subtype %q", t.Name)
		}
	}

	return nil
}

// Registry holds declared subtypes by name.
type Registry map[string]*Type

func (r Registry) Register(t *Type) error {
	if err := t.Validate(); err != nil {
		return err
	}

	if _, ok := r[t.Name]; ok {
		return errors.Errorf("subtype %q is already registered", t.Name)
	}

	r[t.Name] = t
	return nil
}

func (r Registry) Get(name string) (*Type, error) {
	t, ok := r[name]
	if !ok {
		return nil, errors.Errorf("unknown media subtype %q", name)
	}

	return t, nil
}

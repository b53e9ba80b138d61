// Package storage persists source and derived media bytes under
// a configurable strategy: on disk at pattern-resolved paths, or
// in a database blob table.
package storage

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/jfk9w-go/flu"
	"github.com/pkg/errors"
)

// Strategy selects where media bytes are persisted.
// A media subtype uses exactly one strategy for its source.
type Strategy string

const (
	Disk     Strategy = "disk"
	Database Strategy = "database"
)

func (s Strategy) Validate() error {
	switch s {
	case Disk, Database:
		return nil
	default:
		return errors.Errorf("unknown storage strategy %q", s)
	}
}

// SourceVariant is the variant name of original media bytes.
// Renditions use their catalog name as the variant.
const SourceVariant = "source"

// Ref identifies a stored variant of a media record.
type Ref struct {
	MediaID uuid.UUID

	// Variant is SourceVariant or a rendition name.
	Variant string

	// Path is the pattern-resolved location. It is authoritative
	// for the disk backend and informational for the database one.
	Path string
}

func (r Ref) String() string {
	return r.MediaID.String() + "/" + r.Variant
}

// Backend stores and retrieves media bytes.
// Retrieve(Store(data)) returns bytes identical to data.
type Backend interface {
	Store(ctx context.Context, ref Ref, data flu.Bytes) error
	Retrieve(ctx context.Context, ref Ref) (flu.Bytes, error)
}

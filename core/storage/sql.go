package storage

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jfk9w-go/flu"
	"github.com/jfk9w-go/flu/gormf"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Blob is a database-resident media variant.
type Blob struct {
	MediaID   uuid.UUID `gorm:"primaryKey;column:media_id;type:uuid"`
	Variant   string    `gorm:"primaryKey;column:variant"`
	Data      []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (b *Blob) TableName() string {
	return "media_blob"
}

// SQLBackend keeps media bytes in the media_blob table,
// keyed by media ID and variant name.
type SQLBackend gorm.DB

func (b *SQLBackend) Unmask() *gorm.DB {
	return (*gorm.DB)(b)
}

func (b *SQLBackend) Init(ctx context.Context) error {
	return b.Unmask().WithContext(ctx).AutoMigrate(new(Blob))
}

func (b *SQLBackend) Store(ctx context.Context, ref Ref, data flu.Bytes) error {
	blob := &Blob{
		MediaID: ref.MediaID,
		Variant: ref.Variant,
		Data:    data,
	}

	return b.Unmask().WithContext(ctx).
		Clauses(gormf.OnConflictClause(blob, "primaryKey", true, nil)).
		Create(blob).
		Error
}

func (b *SQLBackend) Retrieve(ctx context.Context, ref Ref) (flu.Bytes, error) {
	blob := new(Blob)
	if err := b.Unmask().WithContext(ctx).
		First(blob, "media_id = ? and variant = ?", ref.MediaID, ref.Variant).
		Error; err != nil {
		return nil, errors.Wrapf(err, "find %s", ref)
	}

	return blob.Data, nil
}

package media

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"image"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/jfk9w-go/flu"
	"github.com/jfk9w-go/flu/gormf"
	"github.com/jfk9w-go/flu/syncf"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Hash is a fingerprint of source bytes seen for a media subtype.
// Collisions counts repeated submissions of the same fingerprint.
type Hash struct {
	MediaType  string    `gorm:"primaryKey;column:media_type"`
	Type       string    `gorm:"primaryKey;column:hash_type"`
	Value      string    `gorm:"primaryKey;column:hash"`
	Origin     string    `gorm:"not null"`
	FirstSeen  time.Time `gorm:"not null"`
	LastSeen   time.Time `gorm:"not null"`
	Collisions int64     `gorm:"not null"`
}

func (h *Hash) TableName() string {
	return "media_hash"
}

type HashStorage interface {
	Check(ctx context.Context, hash *Hash) (bool, error)
	Delete(ctx context.Context, hash *Hash) error
}

// SQLHashStorage records fingerprints in the media_hash table.
// Check returns false when the fingerprint was seen before and
// increments its collision counter.
type SQLHashStorage gorm.DB

func (s *SQLHashStorage) Unmask() *gorm.DB {
	return (*gorm.DB)(s)
}

func (s *SQLHashStorage) Init(ctx context.Context) error {
	return s.Unmask().WithContext(ctx).AutoMigrate(new(Hash))
}

func (s *SQLHashStorage) Check(ctx context.Context, hash *Hash) (bool, error) {
	update := clause.Set{
		clause.Assignment{Column: clause.Column{Name: "collisions"}, Value: gorm.Expr("media_hash.collisions + 1")},
		clause.Assignment{Column: clause.Column{Name: "origin"}, Value: hash.Origin},
		clause.Assignment{Column: clause.Column{Name: "last_seen"}, Value: hash.LastSeen},
	}

	err := s.Unmask().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(gormf.OnConflictClause(hash, "primaryKey", false, update)).
			Create(hash).
			Error; err != nil {
			return errors.Wrap(err, "create")
		}

		if err := tx.First(hash).Error; err != nil {
			return errors.Wrap(err, "find")
		}

		return nil
	})

	return err == nil && hash.Collisions == 0, err
}

func (s *SQLHashStorage) Delete(ctx context.Context, hash *Hash) error {
	return s.Unmask().WithContext(ctx).Delete(hash).Error
}

// Deduplicator detects repeated source submissions. Decodable images
// are fingerprinted with a difference hash, anything else with md5.
type Deduplicator struct {
	Clock   syncf.Clock
	Storage HashStorage
}

func (d *Deduplicator) Init(ctx context.Context) error {
	if storage, ok := d.Storage.(*SQLHashStorage); ok {
		return storage.Init(ctx)
	}

	return nil
}

// Check reports whether the source bytes are new for the subtype
// and records their fingerprint.
func (d *Deduplicator) Check(ctx context.Context, mediaType, origin string, data flu.Bytes) (bool, error) {
	hash, err := d.fingerprint(mediaType, origin, data)
	if err != nil {
		return false, err
	}

	return d.Storage.Check(ctx, hash)
}

// Forget removes the fingerprint recorded for the source bytes so
// the same content may be submitted again.
func (d *Deduplicator) Forget(ctx context.Context, mediaType string, data flu.Bytes) error {
	hash, err := d.fingerprint(mediaType, "", data)
	if err != nil {
		return err
	}

	return d.Storage.Delete(ctx, hash)
}

func (d *Deduplicator) fingerprint(mediaType, origin string, data flu.Bytes) (*Hash, error) {
	now := time.Now()
	if d.Clock != nil {
		now = d.Clock.Now()
	}

	hash := &Hash{
		MediaType: mediaType,
		Origin:    origin,
		FirstSeen: now,
		LastSeen:  now,
	}

	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		dhash, err := goimagehash.DifferenceHash(img)
		if err != nil {
			return nil, errors.Wrap(err, "get diff hash")
		}

		hash.Type = "dhash"
		hash.Value = fmt.Sprintf("%x", dhash.GetHash())
	} else {
		hash.Type = "md5"
		hash.Value = fmt.Sprintf("%x", md5.Sum(data))
	}

	return hash, nil
}

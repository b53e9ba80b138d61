// Package media implements polymorphic media records (image, audio,
// video) with per-subtype storage strategies, pattern-derived file
// locations and image rendition processing.
package media

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"gopkg.in/guregu/null.v3"

	"mediakit/core/rendition"
	gormutil "mediakit/util/gorm"
)

// State is a media workflow state. Draft records may be published or
// archived, published records may go back to draft or be archived,
// archived is terminal.
type State string

const (
	Draft     State = "draft"
	Published State = "published"
	Archived  State = "archived"
)

var transitions = map[State][]State{
	Draft:     {Published, Archived},
	Published: {Draft, Archived},
	Archived:  {},
}

func (s State) CanAdvance(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}

	return false
}

// Media is a single media record. The source reference (file bytes,
// path or URL) is immutable once stored; renditions are derived
// afterwards and may be regenerated.
type Media struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:uuid"`
	MediaType string    `gorm:"not null;index;column:media_type"`
	State     State     `gorm:"not null"`

	Filename string `gorm:"not null"`
	Filesize int64  `gorm:"not null"`

	// File holds source bytes for the database storage strategy.
	File []byte

	// FilePath points at the source file for the disk strategy.
	FilePath null.String

	// FileURL is the remote origin when the source was downloaded.
	FileURL null.String

	Meta       gormutil.Jsonb
	Properties gormutil.Jsonb

	Tags []Tag `gorm:"many2many:media_tag;"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *Media) TableName() string {
	return "media"
}

func (m *Media) String() string {
	return m.MediaType + " " + m.Filename + " " + string(m.State)
}

// Property describes one generated rendition of an image record.
// The full set is kept in Media.Properties keyed by rendition name.
type Property struct {
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Path      string         `json:"path"`
	URL       string         `json:"url"`
	Format    string         `json:"format"`
	Extension string         `json:"extension"`
	Mode      rendition.Mode `json:"mode"`
}

type Properties map[string]Property

// Tag is a label attached to media records of a single subtype.
type Tag struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:uuid"`
	Name      string    `gorm:"not null;uniqueIndex:media_tag_name"`
	MediaType string    `gorm:"not null;uniqueIndex:media_tag_name;column:media_type"`
	CreatedAt time.Time `gorm:"not null"`
}

func (t *Tag) TableName() string {
	return "tag"
}

var (
	// ErrNoSource is returned by Create when no source field is set.
	ErrNoSource = errors.New("no source file set")

	// ErrAmbiguousSource is returned by Create when more than one
	// source field is set.
	ErrAmbiguousSource = errors.New("too many source file fields set")

	// ErrDuplicate is returned by Create when the deduplicator has
	// already seen the source bytes for this subtype.
	ErrDuplicate = errors.New("duplicate media")
)

package media

import (
	"context"
	"net/http"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jfk9w-go/flu"
	"github.com/jfk9w-go/flu/syncf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"
	"gorm.io/gorm"

	"mediakit/core/pattern"
	"mediakit/core/rendition"
	"mediakit/core/storage"
	"mediakit/util"
	gormutil "mediakit/util/gorm"
)

// Config carries directory roots supplied by the host environment.
type Config struct {
	SourcePathPrefix string `yaml:"source_path_prefix"`
	MediaPathPrefix  string `yaml:"media_path_prefix"`
	SourcePathTmp    string `yaml:"source_path_tmp,omitempty"`
}

// Service manages media records. All fields are read-only after Init;
// operations are independent and safe to run concurrently.
type Service struct {
	Clock  syncf.Clock
	DB     *gorm.DB
	Config Config
	Types  Registry

	// Dedup rejects already-seen source bytes when set.
	Dedup *Deduplicator

	// Client downloads remote sources. http.DefaultClient when nil.
	Client *http.Client
}

func (s *Service) Init(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).AutoMigrate(new(Media), new(Tag)); err != nil {
		return errors.Wrap(err, "migrate media tables")
	}

	if err := (*storage.SQLBackend)(s.DB).Init(ctx); err != nil {
		return errors.Wrap(err, "migrate blob table")
	}

	if s.Dedup != nil {
		if err := s.Dedup.Init(ctx); err != nil {
			return errors.Wrap(err, "migrate hash table")
		}
	}

	return nil
}

// CreateIn describes a new media record. Exactly one of Bytes,
// FilePath and FileURL must be set.
type CreateIn struct {
	Type         string
	Bytes        flu.Bytes
	FilePath     string
	FileURL      string
	Filename     string
	Meta         map[string]interface{}
	RandomSuffix bool
}

// Create ingests a source file and inserts a draft media record.
// Source bytes are persisted according to the subtype's storage
// strategy; for the disk strategy the location is resolved from the
// subtype's source pattern with the current date. Metadata embedded
// in the source content (EXIF, ID3 and friends) is merged under any
// caller-supplied meta.
func (s *Service) Create(ctx context.Context, in CreateIn) (*Media, error) {
	typ, err := s.Types.Get(in.Type)
	if err != nil {
		return nil, err
	}

	sources := 0
	if len(in.Bytes) > 0 {
		sources++
	}
	if in.FilePath != "" {
		sources++
	}
	if in.FileURL != "" {
		sources++
	}

	switch {
	case sources == 0:
		return nil, ErrNoSource
	case sources > 1:
		return nil, ErrAmbiguousSource
	}

	data := in.Bytes
	filename := in.Filename
	origin := "upload"
	switch {
	case in.FileURL != "":
		origin = in.FileURL
		if data, err = s.download(ctx, in.FileURL); err != nil {
			return nil, errors.Wrapf(err, "download %s", in.FileURL)
		}

		if filename == "" {
			filename = path.Base(in.FileURL)
		}

	case in.FilePath != "":
		origin = in.FilePath
		if data, err = os.ReadFile(in.FilePath); err != nil {
			return nil, errors.Wrapf(err, "read %s", in.FilePath)
		}

		if filename == "" {
			filename = path.Base(in.FilePath)
		}
	}

	if filename == "" {
		return nil, errors.New("no filename set")
	}

	filename = util.SlugifyFilename(filename, in.RandomSuffix)
	meta := in.Meta
	if content := contentMeta(data); content != nil {
		for key, value := range meta {
			content[key] = value
		}

		meta = content
	}

	if s.Dedup != nil {
		ok, err := s.Dedup.Check(ctx, typ.Name, origin, data)
		if err != nil {
			return nil, errors.Wrap(err, "check duplicate")
		}

		if !ok {
			return nil, ErrDuplicate
		}
	}

	media, err := s.insert(ctx, typ, in, filename, data, meta)
	if err != nil {
		// a failed create must not block re-imports of the same bytes
		if s.Dedup != nil {
			if ferr := s.Dedup.Forget(ctx, typ.Name, data); ferr != nil {
				logrus.Warnf("forget %s fingerprint: %s", filename, ferr)
			}
		}

		return nil, err
	}

	logrus.WithFields(logrus.Fields{"id": media.ID, "type": media.MediaType}).
		Infof("created %s", media)
	return media, nil
}

func (s *Service) insert(ctx context.Context, typ *Type, in CreateIn, filename string, data flu.Bytes, meta map[string]interface{}) (*Media, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, errors.Wrap(err, "generate id")
	}

	var jsonb gormutil.Jsonb
	if meta != nil {
		if jsonb, err = gormutil.ToJsonb(meta); err != nil {
			return nil, errors.Wrap(err, "encode meta")
		}
	}

	now := s.now()
	media := &Media{
		ID:        id,
		MediaType: typ.Name,
		State:     Draft,
		Filename:  filename,
		Filesize:  int64(len(data)),
		Meta:      jsonb,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if in.FileURL != "" {
		media.FileURL = null.StringFrom(in.FileURL)
	}

	switch typ.SourceStorageStrategy {
	case storage.Database:
		media.File = data

	case storage.Disk:
		name, extension := util.SplitFilename(filename)
		resolved, err := pattern.Resolve(typ.SourceDiskStoragePattern, s.patternContext().
			WithDate(now).
			WithFile(name, extension))
		if err != nil {
			return nil, err
		}

		ref := storage.Ref{MediaID: id, Variant: storage.SourceVariant, Path: resolved}
		if err := (storage.DiskBackend{}).Store(ctx, ref, data); err != nil {
			return nil, err
		}

		media.FilePath = null.StringFrom(resolved)
	}

	if err := s.DB.WithContext(ctx).Create(media).Error; err != nil {
		return nil, errors.Wrap(err, "insert media")
	}

	return media, nil
}

// Process generates renditions for image-like subtypes (those with a
// catalog), synchronizes tags from metadata, and publishes the record.
// Re-running it regenerates renditions at the same locations.
func (s *Service) Process(ctx context.Context, media *Media) error {
	typ, err := s.Types.Get(media.MediaType)
	if err != nil {
		return err
	}

	if len(typ.ProcessParams) > 0 {
		if err := s.generate(ctx, typ, media); err != nil {
			return err
		}
	}

	if err := s.syncTags(ctx, media); err != nil {
		return errors.Wrap(err, "sync tags")
	}

	if media.State != Published {
		if !media.State.CanAdvance(Published) {
			return errors.Errorf("cannot publish %s record", media.State)
		}

		media.State = Published
	}

	if err := s.DB.WithContext(ctx).
		Omit("Tags").
		Save(media).
		Error; err != nil {
		return errors.Wrap(err, "save media")
	}

	logrus.WithFields(logrus.Fields{"id": media.ID, "type": media.MediaType}).
		Infof("processed %s", media)
	return nil
}

func (s *Service) generate(ctx context.Context, typ *Type, media *Media) error {
	data, err := s.SourceBytes(ctx, media)
	if err != nil {
		return errors.Wrap(err, "get source bytes")
	}

	img, err := rendition.Decode(data)
	if err != nil {
		return errors.Wrap(err, "decode source image")
	}

	backend := s.backend(typ)
	name, _ := util.SplitFilename(media.Filename)
	base := s.patternContext().WithDate(media.CreatedAt)

	names := make([]string, 0, len(typ.ProcessParams))
	for key := range typ.ProcessParams {
		names = append(names, key)
	}
	sort.Strings(names)

	properties := make(Properties, len(names))
	for _, key := range names {
		spec := typ.ProcessParams[key]
		generated := rendition.Transform(img, spec)
		encoded, err := rendition.Encode(generated, spec.Format)
		if err != nil {
			return errors.Wrapf(err, "rendition %q", key)
		}

		pctx := base.
			WithFile(name, spec.Extension).
			With("name", key).
			With("width", strconv.Itoa(generated.Bounds().Dx())).
			With("height", strconv.Itoa(generated.Bounds().Dy()))

		resolved, err := pattern.Resolve(typ.DestinationPathPattern, pctx)
		if err != nil {
			return errors.Wrapf(err, "rendition %q", key)
		}

		url := ""
		if typ.URLPattern != "" {
			if url, err = pattern.Resolve(typ.URLPattern, pctx); err != nil {
				return errors.Wrapf(err, "rendition %q", key)
			}
		}

		ref := storage.Ref{MediaID: media.ID, Variant: key, Path: resolved}
		if err := backend.Store(ctx, ref, encoded); err != nil {
			return errors.Wrapf(err, "store rendition %q", key)
		}

		properties[key] = Property{
			Width:     generated.Bounds().Dx(),
			Height:    generated.Bounds().Dy(),
			Path:      resolved,
			URL:       url,
			Format:    spec.Format,
			Extension: spec.Extension,
			Mode:      spec.Mode,
		}
	}

	if media.Properties, err = gormutil.ToJsonb(properties); err != nil {
		return errors.Wrap(err, "encode properties")
	}

	return nil
}

// SourceBytes returns the original media bytes from whichever source
// reference the record carries.
func (s *Service) SourceBytes(ctx context.Context, media *Media) (flu.Bytes, error) {
	switch {
	case len(media.File) > 0:
		return media.File, nil
	case media.FilePath.Valid:
		ref := storage.Ref{MediaID: media.ID, Variant: storage.SourceVariant, Path: media.FilePath.String}
		return storage.DiskBackend{}.Retrieve(ctx, ref)
	case media.FileURL.Valid:
		return s.download(ctx, media.FileURL.String)
	default:
		return nil, ErrNoSource
	}
}

// Retrieve returns the bytes of a stored rendition.
func (s *Service) Retrieve(ctx context.Context, media *Media, name string) (flu.Bytes, error) {
	typ, err := s.Types.Get(media.MediaType)
	if err != nil {
		return nil, err
	}

	var properties Properties
	if err := media.Properties.Unmarshal(&properties); err != nil {
		return nil, errors.Wrap(err, "decode properties")
	}

	property, ok := properties[name]
	if !ok {
		return nil, errors.Errorf("no %q rendition generated for %s", name, media.ID)
	}

	ref := storage.Ref{MediaID: media.ID, Variant: name, Path: property.Path}
	return s.backend(typ).Retrieve(ctx, ref)
}

// Advance moves the record to the given workflow state.
func (s *Service) Advance(ctx context.Context, media *Media, to State) error {
	if !media.State.CanAdvance(to) {
		return errors.Errorf("transition %s -> %s is not allowed", media.State, to)
	}

	media.State = to
	return s.DB.WithContext(ctx).
		Omit("Tags").
		Save(media).
		Error
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Media, error) {
	media := new(Media)
	if err := s.DB.WithContext(ctx).
		Preload("Tags").
		First(media, "id = ?", id).
		Error; err != nil {
		return nil, err
	}

	return media, nil
}

func (s *Service) syncTags(ctx context.Context, media *Media) error {
	var meta map[string]interface{}
	if err := media.Meta.Unmarshal(&meta); err != nil {
		return errors.Wrap(err, "decode meta")
	}

	genres := genreList(meta["genres"])
	if len(genres) == 0 {
		return nil
	}

	tags := make([]Tag, len(genres))
	for i, genre := range genres {
		tag := Tag{Name: genre, MediaType: media.MediaType}
		err := s.DB.WithContext(ctx).
			First(&tag, "name = ? and media_type = ?", genre, media.MediaType).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if tag.ID, err = uuid.NewV4(); err != nil {
				return err
			}

			err = s.DB.WithContext(ctx).Create(&tag).Error
		}

		if err != nil {
			return err
		}

		tags[i] = tag
	}

	if err := s.DB.WithContext(ctx).
		Model(media).
		Association("Tags").
		Replace(tags); err != nil {
		return err
	}

	media.Tags = tags
	return nil
}

// genreList normalizes the genres metadata entry: either a
// comma-separated string or a list of such strings.
func genreList(value interface{}) []string {
	var items []string
	switch value := value.(type) {
	case string:
		items = strings.Split(value, ",")
	case []interface{}:
		for _, item := range value {
			if item, ok := item.(string); ok {
				items = append(items, strings.Split(item, ",")...)
			}
		}
	}

	genres := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			genres = append(genres, item)
		}
	}

	return genres
}

func (s *Service) backend(typ *Type) storage.Backend {
	if typ.SourceStorageStrategy == storage.Database {
		return (*storage.SQLBackend)(s.DB)
	}

	return storage.DiskBackend{}
}

func (s *Service) patternContext() pattern.Context {
	return pattern.Context{
		"source_path_prefix": s.Config.SourcePathPrefix,
		"media_path_prefix":  s.Config.MediaPathPrefix,
	}
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}

	return time.Now()
}

func (s *Service) download(ctx context.Context, url string) (flu.Bytes, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	defer flu.CloseQuietly(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("invalid HTTP status: %d", resp.StatusCode)
	}

	if s.Config.SourcePathTmp != "" {
		file, err := os.CreateTemp(s.Config.SourcePathTmp, "source-")
		if err != nil {
			return nil, errors.Wrap(err, "create staging file")
		}

		defer func() {
			_ = os.Remove(file.Name())
		}()

		if _, err := flu.Copy(flu.IO{R: resp.Body}, flu.IO{W: file}); err != nil {
			_ = file.Close()
			return nil, errors.Wrap(err, "stage download")
		}

		if err := file.Close(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(file.Name())
		if err != nil {
			return nil, errors.Wrap(err, "read staged download")
		}

		return data, nil
	}

	buf := new(flu.ByteBuffer)
	if _, err := flu.Copy(flu.IO{R: resp.Body}, buf); err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	return buf.Bytes(), nil
}

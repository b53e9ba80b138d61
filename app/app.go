// Package app wires configuration into a ready media service.
package app

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"mediakit/core/media"
	"mediakit/core/rendition"
	"mediakit/core/storage"
	gormutil "mediakit/util/gorm"
)

// TypeConfig declares a media subtype in the configuration file,
// mirroring the per-subtype constants of the media model.
type TypeConfig struct {
	SourceStorageStrategy    storage.Strategy  `yaml:"source_storage_strategy"`
	SourceDiskStoragePattern string            `yaml:"source_disk_storage_pattern,omitempty"`
	DestinationPathPattern   string            `yaml:"destination_path_pattern,omitempty"`
	URLPattern               string            `yaml:"url_pattern,omitempty"`
	ProcessParams            rendition.Catalog `yaml:"process_params,omitempty"`
}

type Config struct {
	Media media.Config `yaml:"media"`

	Db struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"db"`

	Logging struct {
		Level string `yaml:"level,omitempty"`
	} `yaml:"logging,omitempty"`

	Types map[string]TypeConfig `yaml:"types"`

	Dedup       bool `yaml:"dedup,omitempty"`
	Concurrency int  `yaml:"concurrency,omitempty"`
}

// Registry builds the subtype registry from configuration.
func (c *Config) Registry() (media.Registry, error) {
	registry := make(media.Registry, len(c.Types))
	for name, tc := range c.Types {
		err := registry.Register(&media.Type{
			Name:                     name,
			SourceStorageStrategy:    tc.SourceStorageStrategy,
			SourceDiskStoragePattern: tc.SourceDiskStoragePattern,
			DestinationPathPattern:   tc.DestinationPathPattern,
			URLPattern:               tc.URLPattern,
			ProcessParams:            tc.ProcessParams,
		})
		if err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// Service constructs the media service backed by the configured database.
func (c *Config) Service(db *gorm.DB) (*media.Service, error) {
	registry, err := c.Registry()
	if err != nil {
		return nil, err
	}

	service := &media.Service{
		DB:     db,
		Config: c.Media,
		Types:  registry,
	}

	if c.Dedup {
		service.Dedup = &media.Deduplicator{Storage: (*media.SQLHashStorage)(db)}
	}

	return service, nil
}

// Connect opens the configured database.
func (c *Config) Connect() (*gorm.DB, error) {
	return gormutil.Connect(c.Db.Driver, c.Db.DSN)
}

// ConfigureLogging applies the configured logrus level.
func (c *Config) ConfigureLogging() error {
	if c.Logging.Level == "" {
		return nil
	}

	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", c.Logging.Level)
	}

	logrus.SetLevel(level)
	return nil
}

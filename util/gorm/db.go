package gorm

import (
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DefaultConfig = &gorm.Config{Logger: LogrusLogger}

// Drivers maps driver names accepted in configuration
// to gorm dialector constructors.
var Drivers = map[string]func(dsn string) gorm.Dialector{
	"postgres": postgres.Open,
	"sqlite":   sqlite.Open,
}

func NewPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), DefaultConfig)
}

func NewSQLite(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), DefaultConfig)
}

// Connect opens a database connection for the given driver name.
func Connect(driver, dsn string) (*gorm.DB, error) {
	open, ok := Drivers[driver]
	if !ok {
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}

	return gorm.Open(open(dsn), DefaultConfig)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

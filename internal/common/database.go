package common

import (
	"fmt"

	"github.com/lgulliver/galleon/pkg/config"
	"github.com/lgulliver/galleon/pkg/types"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM database connection
type Database struct {
	*gorm.DB
}

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	dsn := cfg.DatabaseURL()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Migrate creates or updates the schema for all registry entities.
// The (registration_id, version) unique index on packages is part of
// the entity definitions; it backs the duplicate-version guarantee
// under concurrent ingests.
func (db *Database) Migrate() error {
	return db.AutoMigrate(
		&types.User{},
		&types.PackageRegistration{},
		&types.Package{},
		&types.PackageAuthor{},
		&types.PackageDependency{},
		&types.PackageReview{},
	)
}

// Close closes the database connection
func (db *Database) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

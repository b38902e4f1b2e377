// Package testing provides test utilities and database setup for the
// warehouse and pipeline tests.
package testing

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/opendata-pt/indicator-hub/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB is a file-backed SQLite database with the full warehouse schema
// migrated, isolated per test.
type TestDB struct {
	DB   *gorm.DB
	path string
}

// SetupTestDB creates a fresh database in a temporary file and runs the
// schema migration.
func SetupTestDB() (*TestDB, error) {
	dir, err := os.MkdirTemp("", "indicator-hub-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	path := filepath.Join(dir, "warehouse.db")

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open test database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return &TestDB{DB: db, path: path}, nil
}

// Migrate creates every warehouse, staging and API table.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Nuts{},
		&models.GeoLevel{},
		&models.GeoData{},
		&models.Indicator{},
		&models.Attribute{},
		&models.Tag{},
		&models.DataValue{},
		&models.ValueAttribute{},
		&models.IndicatorTag{},
		&models.StagingRecord{},
		&models.Checkpoint{},
		&models.User{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Cleanup closes the connection and removes the database file.
func (t *TestDB) Cleanup() error {
	if sqlDB, err := t.DB.DB(); err == nil {
		sqlDB.Close()
	}
	return os.RemoveAll(filepath.Dir(t.path))
}

// TruncateAllTables empties every table while keeping the schema, for reuse
// of one database across subtests.
func (t *TestDB) TruncateAllTables() error {
	tables := []string{
		"value_attributes", "indicator_tags", "data_values",
		"geodata", "nuts", "geolevels",
		"attributes", "tags", "indicators",
		"stg_records", "checkpoints", "users",
	}
	for _, table := range tables {
		if err := t.DB.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

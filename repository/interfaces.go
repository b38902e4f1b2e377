// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/opendata-pt/indicator-hub/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
}

// NutsRepository defines operations for the nuts dimension
type NutsRepository interface {
	Repository[models.Nuts, models.NutsFilter]
	ByLevels(ctx context.Context, nuts1, nuts2, nuts3 string) (*models.Nuts, error)
	FindOrCreate(ctx context.Context, nuts1, nuts2, nuts3 string) (*models.Nuts, error)
}

// GeoLevelRepository defines operations for the geolevel dimension
type GeoLevelRepository interface {
	Repository[models.GeoLevel, models.GeoLevelFilter]
	ByDivisions(ctx context.Context, distrito, concelho, freguesia string) (*models.GeoLevel, error)
	FindOrCreate(ctx context.Context, distrito, concelho, freguesia string) (*models.GeoLevel, error)
}

// GeoDataRepository defines operations for the geodata dimension
type GeoDataRepository interface {
	Repository[models.GeoData, models.GeoDataFilter]
	FindOrCreate(ctx context.Context, nutsID, geoLevelID uint, geocode, geocodeType string) (*models.GeoData, error)
}

// IndicatorRepository defines operations for the indicator dimension
type IndicatorRepository interface {
	Repository[models.Indicator, models.IndicatorFilter]
	ByNameAndSourceCode(ctx context.Context, name, sourceCode string) (*models.Indicator, error)
	FindOrCreate(ctx context.Context, ind *models.Indicator) (*models.Indicator, error)
	LinkTag(ctx context.Context, indicatorID, tagID uint) error
}

// AttributeRepository defines operations for the attribute dimension
type AttributeRepository interface {
	Repository[models.Attribute, models.AttributeFilter]
	FindOrCreate(ctx context.Context, name, value string) (*models.Attribute, error)
	LinkValue(ctx context.Context, dataValueID, attributeID uint) error
}

// TagRepository defines operations for tags
type TagRepository interface {
	Repository[models.Tag, models.TagFilter]
	ByValue(ctx context.Context, value string) (*models.Tag, error)
	FindOrCreate(ctx context.Context, value string) (*models.Tag, error)
}

// DataValueRepository defines operations for fact rows
type DataValueRepository interface {
	Repository[models.DataValue, models.DataValueFilter]
	Exists(ctx context.Context, geoDataID, indicatorID uint, timecode string) (bool, error)
	ByFilter(ctx context.Context, filter models.DataValueFilter, limit, offset int) ([]*models.DataValue, error)
}

// StagingRepository defines operations for the staging table
type StagingRepository interface {
	Repository[models.StagingRecord, models.StagingRecordFilter]
	ListAll(ctx context.Context) ([]*models.StagingRecord, error)
	CountBySourceCode(ctx context.Context, sourceCode string) (int64, error)
	Truncate(ctx context.Context) error
}

// CheckpointRepository defines operations for staging resume checkpoints
type CheckpointRepository interface {
	Get(ctx context.Context, source, filename string) (*models.Checkpoint, error)
	Upsert(ctx context.Context, source, filename, lastRow string) error
}

// UserRepository defines operations for API users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
}

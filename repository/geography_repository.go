package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/opendata-pt/indicator-hub/models"
	"gorm.io/gorm"
)

// NutsRepositoryImpl implements NutsRepository
type NutsRepositoryImpl struct {
	*BaseRepository[models.Nuts, models.NutsFilter]
}

// NewNutsRepository creates a new nuts repository
func NewNutsRepository(db *gorm.DB) NutsRepository {
	return &NutsRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Nuts, models.NutsFilter](db),
	}
}

// ByLevels retrieves a nuts row by its natural key
func (r *NutsRepositoryImpl) ByLevels(ctx context.Context, nuts1, nuts2, nuts3 string) (*models.Nuts, error) {
	db := r.getDB(ctx)
	var row models.Nuts
	err := db.Where("nuts1 = ? AND nuts2 = ? AND nuts3 = ?", nuts1, nuts2, nuts3).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// FindOrCreate resolves a nuts row by natural key, inserting it on first sight.
// A concurrent insert surfacing as a duplicate key is treated as success and
// resolved by re-reading.
func (r *NutsRepositoryImpl) FindOrCreate(ctx context.Context, nuts1, nuts2, nuts3 string) (*models.Nuts, error) {
	db := r.getDB(ctx)
	row := models.Nuts{Nuts1: nuts1, Nuts2: nuts2, Nuts3: nuts3}
	err := db.Where("nuts1 = ? AND nuts2 = ? AND nuts3 = ?", nuts1, nuts2, nuts3).FirstOrCreate(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.ByLevels(ctx, nuts1, nuts2, nuts3)
		}
		return nil, fmt.Errorf("failed to resolve nuts (%s, %s, %s): %w", nuts1, nuts2, nuts3, err)
	}
	return &row, nil
}

// GeoLevelRepositoryImpl implements GeoLevelRepository
type GeoLevelRepositoryImpl struct {
	*BaseRepository[models.GeoLevel, models.GeoLevelFilter]
}

// NewGeoLevelRepository creates a new geolevel repository
func NewGeoLevelRepository(db *gorm.DB) GeoLevelRepository {
	return &GeoLevelRepositoryImpl{
		BaseRepository: NewBaseRepository[models.GeoLevel, models.GeoLevelFilter](db),
	}
}

// ByDivisions retrieves a geolevel row by its natural key
func (r *GeoLevelRepositoryImpl) ByDivisions(ctx context.Context, distrito, concelho, freguesia string) (*models.GeoLevel, error) {
	db := r.getDB(ctx)
	var row models.GeoLevel
	err := db.Where("distrito = ? AND concelho = ? AND freguesia = ?", distrito, concelho, freguesia).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// FindOrCreate resolves a geolevel row by natural key, inserting it on first sight
func (r *GeoLevelRepositoryImpl) FindOrCreate(ctx context.Context, distrito, concelho, freguesia string) (*models.GeoLevel, error) {
	db := r.getDB(ctx)
	row := models.GeoLevel{Distrito: distrito, Concelho: concelho, Freguesia: freguesia}
	err := db.Where("distrito = ? AND concelho = ? AND freguesia = ?", distrito, concelho, freguesia).FirstOrCreate(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.ByDivisions(ctx, distrito, concelho, freguesia)
		}
		return nil, fmt.Errorf("failed to resolve geolevel (%s, %s, %s): %w", distrito, concelho, freguesia, err)
	}
	return &row, nil
}

// GeoDataRepositoryImpl implements GeoDataRepository
type GeoDataRepositoryImpl struct {
	*BaseRepository[models.GeoData, models.GeoDataFilter]
}

// NewGeoDataRepository creates a new geodata repository
func NewGeoDataRepository(db *gorm.DB) GeoDataRepository {
	return &GeoDataRepositoryImpl{
		BaseRepository: NewBaseRepository[models.GeoData, models.GeoDataFilter](db),
	}
}

// FindOrCreate resolves a geodata row by its natural quadruple, inserting it on first sight
func (r *GeoDataRepositoryImpl) FindOrCreate(ctx context.Context, nutsID, geoLevelID uint, geocode, geocodeType string) (*models.GeoData, error) {
	db := r.getDB(ctx)
	row := models.GeoData{NutsID: nutsID, GeoLevelID: geoLevelID, Geocode: geocode, GeocodeType: geocodeType}
	err := db.Where("nuts_id = ? AND geolevel_id = ? AND geocode = ? AND geocode_type = ?",
		nutsID, geoLevelID, geocode, geocodeType).FirstOrCreate(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.GeoData
			if err := db.Where("nuts_id = ? AND geolevel_id = ? AND geocode = ? AND geocode_type = ?",
				nutsID, geoLevelID, geocode, geocodeType).First(&existing).Error; err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to resolve geodata (%d, %d, %s, %s): %w", nutsID, geoLevelID, geocode, geocodeType, err)
	}
	return &row, nil
}

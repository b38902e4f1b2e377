package repository

import (
	"context"

	"github.com/opendata-pt/indicator-hub/models"
	"gorm.io/gorm"
)

// DataValueRepositoryImpl implements DataValueRepository
type DataValueRepositoryImpl struct {
	*BaseRepository[models.DataValue, models.DataValueFilter]
}

// NewDataValueRepository creates a new fact repository
func NewDataValueRepository(db *gorm.DB) DataValueRepository {
	return &DataValueRepositoryImpl{
		BaseRepository: NewBaseRepository[models.DataValue, models.DataValueFilter](db),
	}
}

// Exists reports whether a fact with the same observation key is already
// present. The promoter checks this before inserting so a duplicate skips the
// row without poisoning the surrounding transaction.
func (r *DataValueRepositoryImpl) Exists(ctx context.Context, geoDataID, indicatorID uint, timecode string) (bool, error) {
	db := r.getDB(ctx)
	var count int64
	err := db.Model(&models.DataValue{}).
		Where("geodata_id = ? AND indicator_id = ? AND timecode = ?", geoDataID, indicatorID, timecode).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *DataValueRepositoryImpl) applyFilter(query *gorm.DB, filter models.DataValueFilter) *gorm.DB {
	if filter.IndicatorID != nil {
		query = query.Where("data_values.indicator_id = ?", *filter.IndicatorID)
	}
	if filter.GeoDataID != nil {
		query = query.Where("data_values.geodata_id = ?", *filter.GeoDataID)
	}
	if filter.Timecode != nil {
		query = query.Where("data_values.timecode = ?", *filter.Timecode)
	}
	if filter.TimecodeFrom != nil {
		query = query.Where("data_values.timecode >= ?", *filter.TimecodeFrom)
	}
	if filter.TimecodeTo != nil {
		query = query.Where("data_values.timecode <= ?", *filter.TimecodeTo)
	}
	if filter.Geocode != nil {
		query = query.Joins("JOIN geodata ON geodata.id = data_values.geodata_id").
			Where("geodata.geocode = ?", *filter.Geocode)
	}
	return query
}

// ByFilter retrieves fact rows with optional timecode range and geocode filters.
// Timecodes are canonical sortable strings, so range filtering is plain string
// comparison.
func (r *DataValueRepositoryImpl) ByFilter(ctx context.Context, filter models.DataValueFilter, limit, offset int) ([]*models.DataValue, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.DataValue{}).
		Preload("GeoData.Nuts").
		Preload("GeoData.GeoLevel")
	query = r.applyFilter(query, filter)
	query = query.Order("data_values.timecode ASC, data_values.id ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.DataValue
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

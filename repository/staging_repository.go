package repository

import (
	"context"
	"fmt"

	"github.com/opendata-pt/indicator-hub/models"
	"gorm.io/gorm"
)

// StagingRepositoryImpl implements StagingRepository
type StagingRepositoryImpl struct {
	*BaseRepository[models.StagingRecord, models.StagingRecordFilter]
}

// NewStagingRepository creates a new staging repository
func NewStagingRepository(db *gorm.DB) StagingRepository {
	return &StagingRepositoryImpl{
		BaseRepository: NewBaseRepository[models.StagingRecord, models.StagingRecordFilter](db),
	}
}

// ListAll returns every staged row in insertion order
func (r *StagingRepositoryImpl) ListAll(ctx context.Context) ([]*models.StagingRecord, error) {
	db := r.getDB(ctx)
	var rows []*models.StagingRecord
	if err := db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list staging records: %w", err)
	}
	return rows, nil
}

// CountBySourceCode returns the number of staged rows for one indicator
func (r *StagingRepositoryImpl) CountBySourceCode(ctx context.Context, sourceCode string) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	err := db.Model(&models.StagingRecord{}).Where("source_code = ?", sourceCode).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Truncate removes every staged row. Operator-invoked between runs, never
// automatic.
func (r *StagingRepositoryImpl) Truncate(ctx context.Context) error {
	db := r.getDB(ctx)
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.StagingRecord{}).Error; err != nil {
		return fmt.Errorf("failed to truncate staging table: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/opendata-pt/indicator-hub/models"
	"gorm.io/gorm"
)

// IndicatorRepositoryImpl implements IndicatorRepository
type IndicatorRepositoryImpl struct {
	*BaseRepository[models.Indicator, models.IndicatorFilter]
}

// NewIndicatorRepository creates a new indicator repository
func NewIndicatorRepository(db *gorm.DB) IndicatorRepository {
	return &IndicatorRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Indicator, models.IndicatorFilter](db),
	}
}

// ByNameAndSourceCode retrieves an indicator by its natural key
func (r *IndicatorRepositoryImpl) ByNameAndSourceCode(ctx context.Context, name, sourceCode string) (*models.Indicator, error) {
	db := r.getDB(ctx)
	var row models.Indicator
	err := db.Where("name = ? AND source_code = ?", name, sourceCode).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// FindOrCreate resolves an indicator by (name, source_code), inserting the
// full metadata row on first sight. Dimension rows are never updated in place:
// the first metadata seen for a natural key wins.
func (r *IndicatorRepositoryImpl) FindOrCreate(ctx context.Context, ind *models.Indicator) (*models.Indicator, error) {
	db := r.getDB(ctx)
	existing, err := r.ByNameAndSourceCode(ctx, ind.Name, ind.SourceCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	if err := db.Create(ind).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.ByNameAndSourceCode(ctx, ind.Name, ind.SourceCode)
		}
		return nil, fmt.Errorf("failed to create indicator (%s, %s): %w", ind.Name, ind.SourceCode, err)
	}
	return ind, nil
}

// LinkTag attaches a tag to an indicator; re-linking an existing pair is a no-op
func (r *IndicatorRepositoryImpl) LinkTag(ctx context.Context, indicatorID, tagID uint) error {
	db := r.getDB(ctx)
	link := models.IndicatorTag{IndicatorID: indicatorID, TagID: tagID}
	err := db.Where("indicator_id = ? AND tag_id = ?", indicatorID, tagID).FirstOrCreate(&link).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("failed to link tag %d to indicator %d: %w", tagID, indicatorID, err)
	}
	return nil
}

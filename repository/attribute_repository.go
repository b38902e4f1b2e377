package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/opendata-pt/indicator-hub/models"
	"gorm.io/gorm"
)

// AttributeRepositoryImpl implements AttributeRepository
type AttributeRepositoryImpl struct {
	*BaseRepository[models.Attribute, models.AttributeFilter]
}

// NewAttributeRepository creates a new attribute repository
func NewAttributeRepository(db *gorm.DB) AttributeRepository {
	return &AttributeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Attribute, models.AttributeFilter](db),
	}
}

// FindOrCreate resolves an attribute by (name, value), inserting it on first sight
func (r *AttributeRepositoryImpl) FindOrCreate(ctx context.Context, name, value string) (*models.Attribute, error) {
	db := r.getDB(ctx)
	row := models.Attribute{Name: name, Value: value}
	err := db.Where("name = ? AND value = ?", name, value).FirstOrCreate(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.Attribute
			if err := db.Where("name = ? AND value = ?", name, value).First(&existing).Error; err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to resolve attribute (%s, %s): %w", name, value, err)
	}
	return &row, nil
}

// LinkValue attaches an attribute to a fact row; re-linking is a no-op
func (r *AttributeRepositoryImpl) LinkValue(ctx context.Context, dataValueID, attributeID uint) error {
	db := r.getDB(ctx)
	link := models.ValueAttribute{DataValueID: dataValueID, AttributeID: attributeID}
	err := db.Where("data_value_id = ? AND attribute_id = ?", dataValueID, attributeID).FirstOrCreate(&link).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("failed to link attribute %d to value %d: %w", attributeID, dataValueID, err)
	}
	return nil
}

// TagRepositoryImpl implements TagRepository
type TagRepositoryImpl struct {
	*BaseRepository[models.Tag, models.TagFilter]
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &TagRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Tag, models.TagFilter](db),
	}
}

// ByValue retrieves a tag by value
func (r *TagRepositoryImpl) ByValue(ctx context.Context, value string) (*models.Tag, error) {
	db := r.getDB(ctx)
	var row models.Tag
	err := db.Where("value = ?", value).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// FindOrCreate resolves a tag by value, inserting it on first sight
func (r *TagRepositoryImpl) FindOrCreate(ctx context.Context, value string) (*models.Tag, error) {
	db := r.getDB(ctx)
	row := models.Tag{Value: value}
	err := db.Where("value = ?", value).FirstOrCreate(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.ByValue(ctx, value)
		}
		return nil, fmt.Errorf("failed to resolve tag %q: %w", value, err)
	}
	return &row, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opendata-pt/indicator-hub/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckpointRepositoryImpl implements CheckpointRepository
type CheckpointRepositoryImpl struct {
	*BaseRepository[models.Checkpoint, models.CheckpointFilter]
}

// NewCheckpointRepository creates a new checkpoint repository
func NewCheckpointRepository(db *gorm.DB) CheckpointRepository {
	return &CheckpointRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Checkpoint, models.CheckpointFilter](db),
	}
}

// Get retrieves the checkpoint for one source file, nil when the file has
// never been staged
func (r *CheckpointRepositoryImpl) Get(ctx context.Context, source, filename string) (*models.Checkpoint, error) {
	db := r.getDB(ctx)
	var row models.Checkpoint
	err := db.Where("source = ? AND filename = ?", source, filename).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Upsert atomically replaces the stored row snapshot for one source file.
// The snapshot is the file's first data row as of the last staging run.
func (r *CheckpointRepositoryImpl) Upsert(ctx context.Context, source, filename, lastRow string) error {
	db := r.getDB(ctx)
	row := models.Checkpoint{
		Source:    source,
		Filename:  filename,
		LastRow:   lastRow,
		UpdatedAt: time.Now().UTC(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "filename"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_row", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert checkpoint for %s/%s: %w", source, filename, err)
	}
	return nil
}

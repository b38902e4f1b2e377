package models

import "time"

// Checkpoint stores the last staged data row per source file so repeat
// staging runs resume after the previously seen row instead of re-inserting
// from scratch. One row per (source, filename), upserted wholesale each run.
// Table: checkpoints
type Checkpoint struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Source    string    `gorm:"size:64;not null;uniqueIndex:uk_checkpoints_file,priority:1" json:"source"`
	Filename  string    `gorm:"size:255;not null;uniqueIndex:uk_checkpoints_file,priority:2" json:"filename"`
	LastRow   string    `gorm:"type:text" json:"last_row"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Checkpoint) TableName() string { return "checkpoints" }

// CheckpointFilter represents filter criteria for checkpoint queries
type CheckpointFilter struct {
	ID       *uint
	Source   *string
	Filename *string
}

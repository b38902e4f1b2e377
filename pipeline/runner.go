package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/opendata-pt/indicator-hub/repository"
	"gorm.io/gorm"
)

// Runner executes the full pipeline, one source at a time. Sources are
// isolated failure domains: a failing source is logged and the next one
// still runs. Stages within one source are strictly sequential; the
// dimension resolve-or-insert pattern is not safe for concurrent writers.
type Runner struct {
	db          *gorm.DB
	geo         *GeoResolver
	staging     repository.StagingRepository
	checkpoints repository.CheckpointRepository
	promoter    *Promoter
	configs     []*SourceConfig
	dataDir     string
}

// NewRunner creates a runner over the loaded source configs.
func NewRunner(
	db *gorm.DB,
	geo *GeoResolver,
	staging repository.StagingRepository,
	checkpoints repository.CheckpointRepository,
	promoter *Promoter,
	configs []*SourceConfig,
	dataDir string,
) *Runner {
	return &Runner{
		db:          db,
		geo:         geo,
		staging:     staging,
		checkpoints: checkpoints,
		promoter:    promoter,
		configs:     configs,
		dataDir:     dataDir,
	}
}

// SourceDirs returns the per-source directory layout under the data dir.
func (r *Runner) SourceDirs(cfg *SourceConfig) (raw, merged, processed string) {
	base := filepath.Join(r.dataDir, cfg.Code)
	return filepath.Join(base, "raw"), filepath.Join(base, "merged"), filepath.Join(base, "processed")
}

// RunAll runs every configured source to completion, in config order. The
// returned error joins the per-source failures; a nil return means every
// source landed.
func (r *Runner) RunAll(ctx context.Context) error {
	runID := uuid.New().String()
	log.Printf("pipeline run %s: %d sources", runID, len(r.configs))

	var failures []error
	for _, cfg := range r.configs {
		if err := r.runSource(ctx, cfg); err != nil {
			log.Printf("pipeline run %s: source %s failed: %v", runID, cfg.Code, err)
			failures = append(failures, err)
			continue
		}
		log.Printf("pipeline run %s: source %s done", runID, cfg.Code)
	}
	return errors.Join(failures...)
}

// RunSource runs one source's pipeline by code.
func (r *Runner) RunSource(ctx context.Context, code string) error {
	cfg := r.findConfig(code)
	if cfg == nil {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, code)
	}
	return r.runSource(ctx, cfg)
}

func (r *Runner) runSource(ctx context.Context, cfg *SourceConfig) error {
	rawDir, mergedDir, processedDir := r.SourceDirs(cfg)

	if _, err := NewMerger(cfg).Run(rawDir, mergedDir); err != nil {
		return NewStageError(cfg.Code, "merge", err)
	}

	if err := NewFormatter(cfg, r.geo).Run(mergedDir, processedDir); err != nil {
		return NewStageError(cfg.Code, "format", err)
	}

	if _, err := NewStager(r.db, r.staging, r.checkpoints, cfg).Run(ctx, processedDir); err != nil {
		return err
	}

	if _, err := r.promoter.Promote(ctx); err != nil {
		return err
	}
	return nil
}

func (r *Runner) findConfig(code string) *SourceConfig {
	for _, cfg := range r.configs {
		if cfg.Code == code {
			return cfg
		}
	}
	return nil
}

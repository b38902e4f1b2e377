package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/opendata-pt/indicator-hub/models"
	"github.com/opendata-pt/indicator-hub/repository"
	"gorm.io/gorm"
)

// StageStats summarizes one staging run.
type StageStats struct {
	Files    int
	Staged   int
	Rejected int
}

// Stager lands processed rows in the staging table. Each file carries a
// checkpoint keyed by (source, filename) holding the first data row seen on
// the previous run; sources prepend fresh rows, so insertion stops when the
// stored row reappears. The whole run is one transaction: any row or file
// error rolls back everything staged so far.
type Stager struct {
	db          *gorm.DB
	staging     repository.StagingRepository
	checkpoints repository.CheckpointRepository
	cfg         *SourceConfig
}

// NewStager creates a stager for one source.
func NewStager(db *gorm.DB, staging repository.StagingRepository, checkpoints repository.CheckpointRepository, cfg *SourceConfig) *Stager {
	return &Stager{db: db, staging: staging, checkpoints: checkpoints, cfg: cfg}
}

// Run stages every processed CSV file in processedDir.
func (s *Stager) Run(ctx context.Context, processedDir string) (*StageStats, error) {
	files, err := listCSVFiles(processedDir)
	if err != nil {
		return nil, err
	}

	stats := &StageStats{}
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		for _, filename := range files {
			if err := s.stageFile(txCtx, filepath.Join(processedDir, filename), filename, stats); err != nil {
				return err
			}
			stats.Files++
		}
		return nil
	})
	if err != nil {
		return nil, NewStageError(s.cfg.Code, "staging", err)
	}

	log.Printf("[%s] staging done: %d files, %d rows staged, %d rejected", s.cfg.Code, stats.Files, stats.Staged, stats.Rejected)
	return stats, nil
}

func (s *Stager) stageFile(ctx context.Context, path, filename string, stats *StageStats) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open processed file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = s.cfg.Comma()
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse processed file %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil
	}

	mapping := s.resolveMapping(rows[0])

	checkpoint, err := s.checkpoints.Get(ctx, s.cfg.Code, filename)
	if err != nil {
		return err
	}
	stored := ""
	if checkpoint != nil {
		stored = checkpoint.LastRow
	}

	delim := string(s.cfg.Comma())
	snapshot := strings.Join(rows[1], delim)

	var batch []*models.StagingRecord
	for _, row := range rows[1:] {
		if stored != "" && strings.Join(row, delim) == stored {
			log.Printf("[%s] %s: reached previously staged row, stopping", s.cfg.Code, filename)
			break
		}

		records, reason := s.mapRow(row, mapping)
		if reason != "" {
			log.Printf("[%s] %s: skipping row: %s", s.cfg.Code, filename, reason)
			rowsRejected.WithLabelValues(s.cfg.Code).Inc()
			stats.Rejected++
			continue
		}
		batch = append(batch, records...)
	}

	if err := s.staging.SaveBatch(ctx, batch); err != nil {
		return err
	}
	rowsStaged.WithLabelValues(s.cfg.Code).Add(float64(len(batch)))
	stats.Staged += len(batch)

	return s.checkpoints.Upsert(ctx, s.cfg.Code, filename, snapshot)
}

// rowMapping holds the per-file resolved column indices; -1 marks absence.
type rowMapping struct {
	timecode int

	distrito, concelho, freguesia int
	nuts1, nuts2, nuts3           int
	geoIdx                        int
	geoType                       string

	name, description, units, unitsDesc, calculation, source, sourceCode int

	value       int
	valueHeader string

	attributes []attributeIndices
	tag        int
}

type attributeIndices struct {
	name  int
	value int
}

func (s *Stager) resolveMapping(headers []string) rowMapping {
	one := func(name string) int {
		if name == "" {
			return -1
		}
		return findHeader(headers, []string{name})
	}

	m := rowMapping{
		timecode:    one("timecode"),
		distrito:    one("distrito"),
		concelho:    one("concelho"),
		freguesia:   one("freguesia"),
		nuts1:       one("nuts1"),
		nuts2:       one("nuts2"),
		nuts3:       one("nuts3"),
		name:        one(s.cfg.Mapping.Name),
		description: one(s.cfg.Mapping.Description),
		units:       one(s.cfg.Mapping.Units),
		unitsDesc:   one(s.cfg.Mapping.UnitsDesc),
		calculation: one(s.cfg.Mapping.Calculation),
		source:      one(s.cfg.Mapping.Source),
		sourceCode:  one(s.cfg.Mapping.SourceCode),
		value:       findHeader(headers, s.cfg.Mapping.Value),
		tag:         one(s.cfg.TagColumn),
	}

	if idx := findHeader(headers, s.cfg.Geo.Zipcode); idx >= 0 {
		m.geoIdx, m.geoType = idx, models.GeocodeTypeZipcode
	} else if idx := findHeader(headers, s.cfg.Geo.Dicofre); idx >= 0 {
		m.geoIdx, m.geoType = idx, models.GeocodeTypeDicofre
	} else {
		m.geoIdx = -1
	}

	if m.value >= 0 {
		m.valueHeader = cleanHeader(headers[m.value])
	}

	for _, pair := range s.cfg.Attributes {
		m.attributes = append(m.attributes, attributeIndices{name: one(pair.Name), value: one(pair.Value)})
	}
	return m
}

// mapRow maps one processed row to staging records: one per attribute pair,
// or a single record with sentinel attribute fields when the row carries
// none. A non-empty reason means the row is structurally unusable.
func (s *Stager) mapRow(row []string, m rowMapping) ([]*models.StagingRecord, string) {
	base := models.NewStagingRecord()

	base.Nuts1 = headerValue(row, m.nuts1, models.UndefinedField)
	base.Nuts2 = headerValue(row, m.nuts2, models.UndefinedField)
	base.Nuts3 = headerValue(row, m.nuts3, models.UndefinedField)
	base.Distrito = headerValue(row, m.distrito, models.UndefinedField)
	base.Concelho = headerValue(row, m.concelho, models.UndefinedField)
	base.Freguesia = headerValue(row, m.freguesia, models.UndefinedField)

	if m.geoIdx >= 0 && m.geoIdx < len(row) && !isUndefined(row[m.geoIdx]) {
		base.Geocode = row[m.geoIdx]
		base.GeocodeType = m.geoType
	}

	// Blank timecodes are kept as-is; an unresolved period is not a reason
	// to drop the observation.
	if m.timecode >= 0 && m.timecode < len(row) {
		base.Timecode = row[m.timecode]
	}

	base.Value = headerValue(row, m.value, models.UndefinedField)
	base.Name = headerValue(row, m.name, "")
	base.Description = headerValue(row, m.description, models.UndefinedField)
	base.Units = s.resolveUnits(row, m)
	base.UnitsDesc = headerValue(row, m.unitsDesc, models.UndefinedField)
	base.Calculation = headerValue(row, m.calculation, models.UndefinedField)
	base.Source = s.resolveSource(row, m)
	base.SourceCode = headerValue(row, m.sourceCode, "")
	base.TagValue = headerValue(row, m.tag, models.UndefinedField)

	if base.SourceCode == "" {
		return nil, "missing source code"
	}
	if base.Name == "" {
		return nil, "missing indicator name"
	}

	names, values := s.attributePairs(row, m)
	if len(names) == 0 {
		return []*models.StagingRecord{&base}, ""
	}

	base.Attributes = strings.Join(names, ", ")
	records := make([]*models.StagingRecord, 0, len(names))
	for i := range names {
		rec := base
		rec.AttributeName = names[i]
		rec.AttributeValue = values[i]
		records = append(records, &rec)
	}
	return records, ""
}

// resolveUnits prefers an explicit units column, then header-substring
// inference against the known-units table, then the sentinel.
func (s *Stager) resolveUnits(row []string, m rowMapping) string {
	if m.units >= 0 {
		return headerValue(row, m.units, models.UndefinedField)
	}
	if m.valueHeader != "" {
		for _, rule := range s.cfg.KnownUnits {
			if strings.Contains(m.valueHeader, rule.Match) {
				return rule.Units
			}
		}
	}
	return models.UndefinedField
}

func (s *Stager) resolveSource(row []string, m rowMapping) string {
	if m.source >= 0 {
		return headerValue(row, m.source, models.UndefinedField)
	}
	if s.cfg.Mapping.SourceLiteral != "" {
		return s.cfg.Mapping.SourceLiteral
	}
	return models.UndefinedField
}

func (s *Stager) attributePairs(row []string, m rowMapping) (names, values []string) {
	for _, pair := range m.attributes {
		if pair.name < 0 || pair.name >= len(row) || isUndefined(row[pair.name]) {
			continue
		}
		names = append(names, row[pair.name])
		value := models.UndefinedField
		if pair.value >= 0 && pair.value < len(row) && !isUndefined(row[pair.value]) {
			value = row[pair.value]
		}
		values = append(values, value)
	}
	return names, values
}

func isUndefined(v string) bool {
	return v == "" || strings.EqualFold(v, models.UndefinedGeo)
}

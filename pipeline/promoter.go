package pipeline

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/opendata-pt/indicator-hub/models"
	"github.com/opendata-pt/indicator-hub/repository"
	"gorm.io/gorm"
)

// PromoteStats summarizes one promotion run.
type PromoteStats struct {
	Rows       int
	Facts      int
	Duplicates int
	BadValues  int
}

// Promoter moves staging rows into the warehouse: dimensions are resolved or
// created by natural key, then one fact row is inserted per staging row.
// The whole run is one transaction; the only per-row exception to
// all-or-nothing is the logged duplicate-fact skip.
type Promoter struct {
	db         *gorm.DB
	staging    repository.StagingRepository
	nuts       repository.NutsRepository
	geoLevels  repository.GeoLevelRepository
	geoData    repository.GeoDataRepository
	indicators repository.IndicatorRepository
	attributes repository.AttributeRepository
	tags       repository.TagRepository
	dataValues repository.DataValueRepository
}

// NewPromoter creates a promoter over the warehouse repositories.
func NewPromoter(
	db *gorm.DB,
	staging repository.StagingRepository,
	nuts repository.NutsRepository,
	geoLevels repository.GeoLevelRepository,
	geoData repository.GeoDataRepository,
	indicators repository.IndicatorRepository,
	attributes repository.AttributeRepository,
	tags repository.TagRepository,
	dataValues repository.DataValueRepository,
) *Promoter {
	return &Promoter{
		db:         db,
		staging:    staging,
		nuts:       nuts,
		geoLevels:  geoLevels,
		geoData:    geoData,
		indicators: indicators,
		attributes: attributes,
		tags:       tags,
		dataValues: dataValues,
	}
}

// Promote processes every staging row inside one transaction. Any unhandled
// database error rolls the whole batch back.
func (p *Promoter) Promote(ctx context.Context) (*PromoteStats, error) {
	stats := &PromoteStats{}

	err := repository.WithTransaction(ctx, p.db, func(txCtx context.Context) error {
		rows, err := p.staging.ListAll(txCtx)
		if err != nil {
			return err
		}
		stats.Rows = len(rows)

		for _, row := range rows {
			if err := p.promoteRow(txCtx, row, stats); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewStageError("warehouse", "promotion", err)
	}

	log.Printf("promotion done: %d staging rows, %d facts inserted, %d duplicates skipped, %d bad values",
		stats.Rows, stats.Facts, stats.Duplicates, stats.BadValues)
	return stats, nil
}

func (p *Promoter) promoteRow(ctx context.Context, row *models.StagingRecord, stats *PromoteStats) error {
	nuts, err := p.nuts.FindOrCreate(ctx, row.Nuts1, row.Nuts2, row.Nuts3)
	if err != nil {
		return err
	}

	geoLevel, err := p.geoLevels.FindOrCreate(ctx, row.Distrito, row.Concelho, row.Freguesia)
	if err != nil {
		return err
	}

	geoData, err := p.geoData.FindOrCreate(ctx, nuts.ID, geoLevel.ID, row.Geocode, row.GeocodeType)
	if err != nil {
		return err
	}

	indicator, err := p.indicators.FindOrCreate(ctx, &models.Indicator{
		Name:        row.Name,
		Description: row.Description,
		Units:       row.Units,
		UnitsDesc:   row.UnitsDesc,
		Calculation: row.Calculation,
		Source:      row.Source,
		SourceCode:  row.SourceCode,
	})
	if err != nil {
		return err
	}

	value, ok := parseValue(row.Value)
	if !ok {
		log.Printf("skipping staging row %d: value %q is not numeric", row.ID, row.Value)
		stats.BadValues++
		return nil
	}

	// The uniqueness pre-check keeps duplicate facts out without tripping a
	// constraint violation, which would poison the surrounding transaction
	// on postgres.
	exists, err := p.dataValues.Exists(ctx, geoData.ID, indicator.ID, row.Timecode)
	if err != nil {
		return err
	}
	if exists {
		log.Printf("skipping duplicate fact: geodata=%d indicator=%d timecode=%s", geoData.ID, indicator.ID, row.Timecode)
		duplicateFacts.Inc()
		stats.Duplicates++
		return nil
	}

	fact := &models.DataValue{
		GeoDataID:   geoData.ID,
		IndicatorID: indicator.ID,
		Timecode:    row.Timecode,
		Value:       value,
		Attributes:  row.Attributes,
	}
	if err := p.dataValues.Save(ctx, fact); err != nil {
		return err
	}
	factsInserted.Inc()
	stats.Facts++

	if row.AttributeName != models.UndefinedField && row.AttributeName != "" {
		attribute, err := p.attributes.FindOrCreate(ctx, row.AttributeName, row.AttributeValue)
		if err != nil {
			return err
		}
		if err := p.attributes.LinkValue(ctx, fact.ID, attribute.ID); err != nil {
			return err
		}
	}

	if row.TagValue != models.UndefinedField && row.TagValue != "" {
		tag, err := p.tags.FindOrCreate(ctx, row.TagValue)
		if err != nil {
			return err
		}
		if err := p.indicators.LinkTag(ctx, indicator.ID, tag.ID); err != nil {
			return err
		}
	}

	return nil
}

// parseValue parses the raw textual value; blanks and the sentinel become
// NULL rather than an error. A non-blank, non-numeric value is unusable.
func parseValue(raw string) (*float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == models.UndefinedField {
		return nil, true
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

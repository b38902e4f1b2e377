package businessflow

import (
	"context"
	"fmt"

	"github.com/opendata-pt/indicator-hub/app/dto"
	"github.com/opendata-pt/indicator-hub/models"
	"github.com/opendata-pt/indicator-hub/repository"
	"github.com/opendata-pt/indicator-hub/utils"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// IndicatorFlow defines the interface for warehouse query workflows
type IndicatorFlow interface {
	GetIndicator(ctx context.Context, indicatorID uint) (*dto.IndicatorDTO, error)
	GetIndicatorData(ctx context.Context, indicatorID uint, query *dto.DataQuery) (*dto.IndicatorDataResponse, error)
}

// IndicatorFlowImpl implements the warehouse query workflows
type IndicatorFlowImpl struct {
	indicatorRepo repository.IndicatorRepository
	dataValueRepo repository.DataValueRepository
}

// NewIndicatorFlow creates a new indicator query flow
func NewIndicatorFlow(indicatorRepo repository.IndicatorRepository, dataValueRepo repository.DataValueRepository) IndicatorFlow {
	return &IndicatorFlowImpl{
		indicatorRepo: indicatorRepo,
		dataValueRepo: dataValueRepo,
	}
}

// GetIndicator fetches indicator metadata by id
func (f *IndicatorFlowImpl) GetIndicator(ctx context.Context, indicatorID uint) (*dto.IndicatorDTO, error) {
	ind, err := f.indicatorRepo.ByID(ctx, indicatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find indicator: %w", err)
	}
	if ind == nil {
		return nil, ErrIndicatorNotFound
	}
	result := ToIndicatorDTO(*ind)
	return &result, nil
}

// GetIndicatorData fetches fact rows for an indicator with optional timecode
// range and geocode filters. Timecodes sort lexicographically, so the range
// bounds are applied as plain string comparisons.
func (f *IndicatorFlowImpl) GetIndicatorData(ctx context.Context, indicatorID uint, query *dto.DataQuery) (*dto.IndicatorDataResponse, error) {
	ind, err := f.indicatorRepo.ByID(ctx, indicatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find indicator: %w", err)
	}
	if ind == nil {
		return nil, ErrIndicatorNotFound
	}

	page := query.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}
	pageSize := query.PageSize
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return nil, ErrInvalidPageSize
	}
	if query.From != "" && query.To != "" && query.From > query.To {
		return nil, ErrInvalidRange
	}

	filter := models.DataValueFilter{IndicatorID: utils.ToPtr(ind.ID)}
	if query.From != "" {
		filter.TimecodeFrom = utils.ToPtr(query.From)
	}
	if query.To != "" {
		filter.TimecodeTo = utils.ToPtr(query.To)
	}
	if query.Geocode != "" {
		filter.Geocode = utils.ToPtr(query.Geocode)
	}

	rows, err := f.dataValueRepo.ByFilter(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query data values: %w", err)
	}

	points := make([]dto.DataPointDTO, 0, len(rows))
	for _, row := range rows {
		points = append(points, ToDataPointDTO(*row))
	}

	return &dto.IndicatorDataResponse{
		Indicator: ToIndicatorDTO(*ind),
		Points:    points,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

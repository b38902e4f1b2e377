package handlers

import (
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/opendata-pt/indicator-hub/app/dto"
	businessflow "github.com/opendata-pt/indicator-hub/business_flow"
)

// IndicatorHandlerInterface defines the contract for warehouse query handlers
type IndicatorHandlerInterface interface {
	GetIndicator(c fiber.Ctx) error
	GetIndicatorData(c fiber.Ctx) error
}

// IndicatorHandler handles warehouse query HTTP requests
type IndicatorHandler struct {
	indicatorFlow businessflow.IndicatorFlow
	validator     *validator.Validate
}

// NewIndicatorHandler creates a new indicator query handler
func NewIndicatorHandler(indicatorFlow businessflow.IndicatorFlow) *IndicatorHandler {
	return &IndicatorHandler{
		indicatorFlow: indicatorFlow,
		validator:     validator.New(),
	}
}

// GetIndicator handles fetching indicator metadata by id
func (h *IndicatorHandler) GetIndicator(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid indicator id", "INVALID_INDICATOR_ID", nil)
	}

	result, err := h.indicatorFlow.GetIndicator(createRequestContext(c, "/api/v1/indicators/:id"), uint(id))
	if err != nil {
		if businessflow.IsIndicatorNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Indicator not found", "INDICATOR_NOT_FOUND", nil)
		}

		log.Println("Get indicator failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Get indicator failed", "GET_INDICATOR_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Indicator found", result)
}

// GetIndicatorData handles fetching fact rows for an indicator with optional
// timecode range and geocode filters
func (h *IndicatorHandler) GetIndicatorData(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid indicator id", "INVALID_INDICATOR_ID", nil)
	}

	var query dto.DataQuery
	if err := c.Bind().Query(&query); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_QUERY", err.Error())
	}
	if err := h.validator.Struct(&query); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.indicatorFlow.GetIndicatorData(createRequestContext(c, "/api/v1/indicators/:id/data"), uint(id), &query)
	if err != nil {
		if businessflow.IsIndicatorNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Indicator not found", "INDICATOR_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidRange(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid timecode range", "INVALID_TIMECODE_RANGE", nil)
		}

		log.Println("Get indicator data failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Get indicator data failed", "GET_INDICATOR_DATA_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Indicator data", result)
}

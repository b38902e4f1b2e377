// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/opendata-pt/indicator-hub/app/dto"
	"github.com/opendata-pt/indicator-hub/models"
)

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// ToAuthUserDTO converts a user model to AuthUserDTO for authentication responses
func ToAuthUserDTO(user models.User) dto.AuthUserDTO {
	return dto.AuthUserDTO{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

// ToIndicatorDTO converts an indicator model to its API representation
func ToIndicatorDTO(ind models.Indicator) dto.IndicatorDTO {
	return dto.IndicatorDTO{
		ID:          ind.ID,
		Name:        ind.Name,
		Description: ind.Description,
		Units:       ind.Units,
		UnitsDesc:   ind.UnitsDesc,
		Calculation: ind.Calculation,
		Source:      ind.Source,
		SourceCode:  ind.SourceCode,
	}
}

// ToDataPointDTO converts a fact row with preloaded geography to its API
// representation
func ToDataPointDTO(dv models.DataValue) dto.DataPointDTO {
	return dto.DataPointDTO{
		Timecode:   dv.Timecode,
		Value:      dv.Value,
		Geocode:    dv.GeoData.Geocode,
		Distrito:   dv.GeoData.GeoLevel.Distrito,
		Concelho:   dv.GeoData.GeoLevel.Concelho,
		Freguesia:  dv.GeoData.GeoLevel.Freguesia,
		Nuts1:      dv.GeoData.Nuts.Nuts1,
		Nuts2:      dv.GeoData.Nuts.Nuts2,
		Nuts3:      dv.GeoData.Nuts.Nuts3,
		Attributes: dv.Attributes,
	}
}

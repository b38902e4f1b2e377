package dto

// IndicatorDTO represents indicator metadata in API responses
type IndicatorDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Units       string `json:"units"`
	UnitsDesc   string `json:"units_desc"`
	Calculation string `json:"calculation"`
	Source      string `json:"source"`
	SourceCode  string `json:"source_code"`
}

// DataQuery represents the query parameters for indicator data requests.
// From and To bound the timecode lexicographically; Geocode narrows to a
// single geography.
type DataQuery struct {
	From     string `query:"from" validate:"omitempty,max=32"`
	To       string `query:"to" validate:"omitempty,max=32"`
	Geocode  string `query:"geocode" validate:"omitempty,max=32"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=1000"`
}

// DataPointDTO represents a single fact row in API responses
type DataPointDTO struct {
	Timecode   string   `json:"timecode"`
	Value      *float64 `json:"value"`
	Geocode    string   `json:"geocode"`
	Distrito   string   `json:"distrito"`
	Concelho   string   `json:"concelho"`
	Freguesia  string   `json:"freguesia"`
	Nuts1      string   `json:"nuts1"`
	Nuts2      string   `json:"nuts2"`
	Nuts3      string   `json:"nuts3"`
	Attributes string   `json:"attributes,omitempty"`
}

// IndicatorDataResponse represents indicator data with its metadata
type IndicatorDataResponse struct {
	Indicator IndicatorDTO   `json:"indicator"`
	Points    []DataPointDTO `json:"points"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
}

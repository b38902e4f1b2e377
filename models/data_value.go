package models

// DataValue is the fact table: one observed value for an indicator at a
// geography and period
// Table: data_values
// Unique on (geodata_id, indicator_id, timecode) so promotion re-runs cannot
// double-insert facts; value is NULL when the source published a blank
type DataValue struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	GeoDataID   uint     `gorm:"column:geodata_id;not null;uniqueIndex:uk_data_values_obs,priority:1;index:idx_data_values_geodata" json:"geodata_id"`
	IndicatorID uint     `gorm:"not null;uniqueIndex:uk_data_values_obs,priority:2;index:idx_data_values_indicator" json:"indicator_id"`
	Timecode    string   `gorm:"size:32;not null;uniqueIndex:uk_data_values_obs,priority:3;index:idx_data_values_timecode" json:"timecode"`
	Value       *float64 `json:"value"`
	Attributes  string   `gorm:"size:512" json:"attributes"`

	GeoData   GeoData   `gorm:"foreignKey:GeoDataID" json:"geodata,omitempty"`
	Indicator Indicator `gorm:"foreignKey:IndicatorID" json:"indicator,omitempty"`
}

func (DataValue) TableName() string { return "data_values" }

// DataValueFilter represents filter criteria for fact queries
type DataValueFilter struct {
	ID           *uint
	GeoDataID    *uint
	IndicatorID  *uint
	Timecode     *string
	TimecodeFrom *string
	TimecodeTo   *string
	Geocode      *string
}

// ValueAttribute links a fact row to an attribute dimension row
// Table: value_attributes
type ValueAttribute struct {
	DataValueID uint `gorm:"primaryKey;autoIncrement:false" json:"data_value_id"`
	AttributeID uint `gorm:"primaryKey;autoIncrement:false" json:"attribute_id"`
}

func (ValueAttribute) TableName() string { return "value_attributes" }

// IndicatorTag links an indicator to a tag
// Table: indicator_tags
type IndicatorTag struct {
	IndicatorID uint `gorm:"primaryKey;autoIncrement:false" json:"indicator_id"`
	TagID       uint `gorm:"primaryKey;autoIncrement:false" json:"tag_id"`
}

func (IndicatorTag) TableName() string { return "indicator_tags" }

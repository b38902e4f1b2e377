package models

// StagingRecord is one flat, denormalized row landed by the stager: one row
// per indicator x geography x time x value x attribute combination. Rows are
// transient per run; the promoter reads them and the operator truncates the
// table between runs.
// Table: stg_records
type StagingRecord struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Nuts1       string `gorm:"size:255" json:"nuts1"`
	Nuts2       string `gorm:"size:255" json:"nuts2"`
	Nuts3       string `gorm:"size:255" json:"nuts3"`
	Geocode     string `gorm:"size:64" json:"geocode"`
	GeocodeType string `gorm:"size:32" json:"geocode_type"`
	Distrito    string `gorm:"size:255" json:"distrito"`
	Concelho    string `gorm:"size:255" json:"concelho"`
	Freguesia   string `gorm:"size:255" json:"freguesia"`
	Timecode    string `gorm:"size:32" json:"timecode"`
	// Value is the raw textual numeric value; parsing happens at promotion
	Value          string `gorm:"size:255" json:"value"`
	Name           string `gorm:"size:512;not null" json:"name"`
	Description    string `gorm:"type:text" json:"description"`
	Units          string `gorm:"size:255" json:"units"`
	UnitsDesc      string `gorm:"size:255" json:"units_desc"`
	Calculation    string `gorm:"size:255" json:"calculation"`
	Source         string `gorm:"size:255" json:"source"`
	SourceCode     string `gorm:"size:128;not null;index:idx_stg_records_source_code" json:"source_code"`
	Attributes     string `gorm:"size:512" json:"attributes"`
	AttributeName  string `gorm:"size:255" json:"attribute_name"`
	AttributeValue string `gorm:"size:255" json:"attribute_value"`
	TagValue       string `gorm:"size:255" json:"tag_value"`
}

func (StagingRecord) TableName() string { return "stg_records" }

// StagingRecordFilter represents filter criteria for staging queries
type StagingRecordFilter struct {
	ID         *uint
	SourceCode *string
	Source     *string
}

// NewStagingRecord returns a staging record with every field set to its
// sentinel, ready to be overwritten by the per-source column mapping.
func NewStagingRecord() StagingRecord {
	return StagingRecord{
		Nuts1:          UndefinedField,
		Nuts2:          UndefinedField,
		Nuts3:          UndefinedField,
		Geocode:        UndefinedField,
		GeocodeType:    UndefinedField,
		Distrito:       UndefinedField,
		Concelho:       UndefinedField,
		Freguesia:      UndefinedField,
		Timecode:       UndefinedField,
		Value:          UndefinedField,
		Name:           UndefinedField,
		Description:    UndefinedField,
		Units:          UndefinedField,
		UnitsDesc:      UndefinedField,
		Calculation:    UndefinedField,
		Source:         UndefinedField,
		SourceCode:     UndefinedField,
		Attributes:     UndefinedField,
		AttributeName:  UndefinedField,
		AttributeValue: UndefinedField,
		TagValue:       UndefinedField,
	}
}

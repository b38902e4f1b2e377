package models

// Indicator represents one statistical indicator as published by a source
// Table: indicators
// Unique on (name, source_code); dimension rows are created once and reused
type Indicator struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:512;not null;uniqueIndex:uk_indicators_name_source,priority:1;index:idx_indicators_name" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Units       string `gorm:"size:255" json:"units"`
	UnitsDesc   string `gorm:"size:255" json:"units_desc"`
	Calculation string `gorm:"size:255" json:"calculation"`
	Source      string `gorm:"size:255;index:idx_indicators_source" json:"source"`
	SourceCode  string `gorm:"size:128;not null;uniqueIndex:uk_indicators_name_source,priority:2" json:"source_code"`
}

func (Indicator) TableName() string { return "indicators" }

// IndicatorFilter represents filter criteria for indicator queries
type IndicatorFilter struct {
	ID         *uint
	Name       *string
	Source     *string
	SourceCode *string
}

// Attribute represents a named dimension value attached to facts
// Table: attributes
// Unique on the (name, value) pair
type Attribute struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:255;not null;uniqueIndex:uk_attributes_name_value,priority:1" json:"name"`
	Value string `gorm:"size:255;not null;uniqueIndex:uk_attributes_name_value,priority:2" json:"value"`
}

func (Attribute) TableName() string { return "attributes" }

// AttributeFilter represents filter criteria for attribute queries
type AttributeFilter struct {
	ID    *uint
	Name  *string
	Value *string
}

// Tag represents a free-text classification label linked to indicators
// Table: tags
// Unique on value
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Value string `gorm:"size:255;not null;uniqueIndex:uk_tags_value" json:"value"`
}

func (Tag) TableName() string { return "tags" }

// TagFilter represents filter criteria for tag queries
type TagFilter struct {
	ID    *uint
	Value *string
}

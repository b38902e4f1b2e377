// Package models defines the warehouse schema: dimension, fact and staging tables
package models

// UndefinedGeo is the sentinel stored for geography fields that could not be
// resolved. Keeping it a real string (not NULL) keeps natural-key lookups
// total functions.
const UndefinedGeo = "undefined"

// UndefinedField is the sentinel for unmapped indicator/attribute fields.
const UndefinedField = "Undefined"

// Geocode kinds carried on staging rows and geodata dimension rows.
const (
	GeocodeTypeDicofre = "dicofre"
	GeocodeTypeZipcode = "zipcode"
)

// Nuts represents one combination of statistical region levels
// Table: nuts
// Unique on the (nuts1, nuts2, nuts3) triple; rows are append-only
type Nuts struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Nuts1 string `gorm:"size:255;not null;uniqueIndex:uk_nuts_levels,priority:1" json:"nuts1"`
	Nuts2 string `gorm:"size:255;not null;uniqueIndex:uk_nuts_levels,priority:2" json:"nuts2"`
	Nuts3 string `gorm:"size:255;not null;uniqueIndex:uk_nuts_levels,priority:3" json:"nuts3"`
}

func (Nuts) TableName() string { return "nuts" }

// NutsFilter represents filter criteria for nuts queries
type NutsFilter struct {
	ID    *uint
	Nuts1 *string
	Nuts2 *string
	Nuts3 *string
}

// GeoLevel represents one combination of local administrative divisions
// Table: geolevels
// Unique on the (distrito, concelho, freguesia) triple; rows are append-only
type GeoLevel struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Distrito  string `gorm:"size:255;not null;uniqueIndex:uk_geolevels_divisions,priority:1" json:"distrito"`
	Concelho  string `gorm:"size:255;not null;uniqueIndex:uk_geolevels_divisions,priority:2" json:"concelho"`
	Freguesia string `gorm:"size:255;not null;uniqueIndex:uk_geolevels_divisions,priority:3" json:"freguesia"`
}

func (GeoLevel) TableName() string { return "geolevels" }

// GeoLevelFilter represents filter criteria for geolevel queries
type GeoLevelFilter struct {
	ID        *uint
	Distrito  *string
	Concelho  *string
	Freguesia *string
}

// GeoData links a local administrative unit to its statistical region and
// carries the raw source location key it was resolved from
// Table: geodata
// Unique on (nuts_id, geolevel_id, geocode, geocode_type)
type GeoData struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	NutsID      uint   `gorm:"not null;uniqueIndex:uk_geodata_key,priority:1;index:idx_geodata_nuts" json:"nuts_id"`
	GeoLevelID  uint   `gorm:"column:geolevel_id;not null;uniqueIndex:uk_geodata_key,priority:2;index:idx_geodata_geolevel" json:"geolevel_id"`
	Geocode     string `gorm:"size:64;not null;uniqueIndex:uk_geodata_key,priority:3;index:idx_geodata_geocode" json:"geocode"`
	GeocodeType string `gorm:"size:32;not null;uniqueIndex:uk_geodata_key,priority:4" json:"geocode_type"`

	Nuts     Nuts     `gorm:"foreignKey:NutsID" json:"nuts,omitempty"`
	GeoLevel GeoLevel `gorm:"foreignKey:GeoLevelID" json:"geolevel,omitempty"`
}

func (GeoData) TableName() string { return "geodata" }

// GeoDataFilter represents filter criteria for geodata queries
type GeoDataFilter struct {
	ID          *uint
	NutsID      *uint
	GeoLevelID  *uint
	Geocode     *string
	GeocodeType *string
}

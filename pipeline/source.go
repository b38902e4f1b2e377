package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// SourceConfig describes one ingestion source: file formats, the column
// aliases each stage needs, and the mapping from source columns to the
// staging record shape. Each source is a YAML file, not a code file.
type SourceConfig struct {
	// Name is the human-readable source name, e.g. "E-REDES".
	Name string `koanf:"name"`
	// Code is the short identifier used in paths, checkpoints and logs.
	Code string `koanf:"code"`
	// Delimiter for the source's data CSV files; defaults to ";".
	Delimiter string `koanf:"delimiter"`

	Metadata MetadataConfig `koanf:"metadata"`

	// RemovedFiles lists raw files to discard before merging.
	RemovedFiles []string `koanf:"removed_files"`

	Timecode TimecodeAliases `koanf:"timecode"`
	Geo      GeoColumns      `koanf:"geo"`
	Mapping  ColumnMapping   `koanf:"mapping"`

	// KnownUnits maps substrings of the value column header to unit
	// descriptions, for sources that encode units in the header itself.
	// Rules are tried in order so the more specific match can come first.
	KnownUnits []UnitRule `koanf:"known_units"`

	// Attributes lists optional dimension/filter column pairs that become
	// attribute rows in staging.
	Attributes []AttributeColumns `koanf:"attributes"`

	// TagColumn names an optional free-text tag column.
	TagColumn string `koanf:"tag_column"`

	// CountryLevel marks sources publishing country-level series only; their
	// rows carry the "Portugal (all)" NUTS1 sentinel instead of resolved
	// geography.
	CountryLevel bool `koanf:"country_level"`
}

// MetadataConfig locates the per-source metadata file and its join key.
type MetadataConfig struct {
	// File is the metadata file path relative to the source's raw directory.
	File string `koanf:"file"`
	// Delimiter for the metadata CSV; defaults to ",".
	Delimiter string `koanf:"delimiter"`
	// KeyColumn is the zero-based index of the source code column.
	KeyColumn int `koanf:"key_column"`
}

// TimecodeAliases lists the accepted header names per time concept,
// matched case-insensitively.
type TimecodeAliases struct {
	Date     []string `koanf:"date"`
	Year     []string `koanf:"year"`
	Month    []string `koanf:"month"`
	Semester []string `koanf:"semester"`
	Quarter  []string `koanf:"quarter"`
}

// GeoColumns lists the accepted header names for each location key kind.
type GeoColumns struct {
	Zipcode []string `koanf:"zipcode"`
	Dicofre []string `koanf:"dicofre"`
}

// ColumnMapping maps source columns to staging record fields. Empty entries
// default to the "Undefined" sentinel at staging time.
type ColumnMapping struct {
	Name        string `koanf:"name"`
	Description string `koanf:"description"`
	Units       string `koanf:"units"`
	UnitsDesc   string `koanf:"units_desc"`
	Calculation string `koanf:"calculation"`
	// Source names the column carrying the publisher; SourceLiteral is used
	// instead when the source publishes no such column.
	Source        string `koanf:"source"`
	SourceLiteral string `koanf:"source_literal"`
	SourceCode    string `koanf:"source_code"`
	// Value lists the possible value column headers; the first present wins.
	Value []string `koanf:"value"`
}

// UnitRule infers a unit description from the value column header.
type UnitRule struct {
	Match string `koanf:"match"`
	Units string `koanf:"units"`
}

// AttributeColumns pairs a dimension-name column with its filter-value column.
type AttributeColumns struct {
	Name  string `koanf:"name"`
	Value string `koanf:"value"`
}

// Comma returns the data delimiter as a rune.
func (c *SourceConfig) Comma() rune {
	if c.Delimiter == "" {
		return ';'
	}
	return rune(c.Delimiter[0])
}

// MetadataComma returns the metadata delimiter as a rune.
func (c *SourceConfig) MetadataComma() rune {
	if c.Metadata.Delimiter == "" {
		return ','
	}
	return rune(c.Metadata.Delimiter[0])
}

func (c *SourceConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("source config is missing name")
	}
	if c.Code == "" {
		return fmt.Errorf("source config %s is missing code", c.Name)
	}
	if c.Mapping.SourceCode == "" {
		return fmt.Errorf("source config %s is missing mapping.source_code", c.Code)
	}
	return nil
}

// LoadSourceConfig loads one per-source YAML mapping file.
func LoadSourceConfig(path string) (*SourceConfig, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load source config %s: %w", path, err)
	}

	var cfg SourceConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSourceConfigs loads every *.yaml file in dir, sorted by filename so the
// runner processes sources in a stable order.
func LoadSourceConfigs(dir string) ([]*SourceConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source config dir %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no source configs found in %s", dir)
	}

	configs := make([]*SourceConfig, 0, len(paths))
	for _, path := range paths {
		cfg, err := LoadSourceConfig(path)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

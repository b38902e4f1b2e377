package pipeline

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/opendata-pt/indicator-hub/models"
)

// geoHeaders are appended to every processed file, in this order.
var geoHeaders = []string{"distrito", "concelho", "freguesia", "nuts1", "nuts2", "nuts3"}

// Formatter runs the timecode and geography passes over merged files,
// producing the processed files the stager consumes. Each output file gains
// a leading "timecode" column and six trailing geography columns.
type Formatter struct {
	cfg *SourceConfig
	geo *GeoResolver
}

// NewFormatter creates a formatter for one source.
func NewFormatter(cfg *SourceConfig, geo *GeoResolver) *Formatter {
	return &Formatter{cfg: cfg, geo: geo}
}

// Run formats every merged CSV file in inDir into outDir. Output naming is
// deterministic: processed_<input name>.
func (f *Formatter) Run(inDir, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create processed dir: %w", err)
	}

	files, err := listCSVFiles(inDir)
	if err != nil {
		return err
	}

	for _, filename := range files {
		if err := f.formatFile(filepath.Join(inDir, filename), filepath.Join(outDir, "processed_"+filename)); err != nil {
			return err
		}
		log.Printf("[%s] formatted %s", f.cfg.Code, filename)
	}
	return nil
}

func (f *Formatter) formatFile(inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("failed to open merged file: %w", err)
	}
	defer in.Close()

	reader := csv.NewReader(in)
	reader.Comma = f.cfg.Comma()
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse merged file %s: %w", inPath, err)
	}
	if len(rows) == 0 {
		return nil
	}

	headers := rows[0]
	for i, header := range headers {
		headers[i] = cleanHeader(header)
	}

	timeCols := ResolveTimecodeColumns(headers, f.cfg.Timecode)
	geoIdx, geoType := f.locateGeoColumn(headers)
	if geoIdx < 0 && !f.cfg.CountryLevel {
		log.Printf("[%s] no geography column in %s, rows stay undefined", f.cfg.Code, filepath.Base(inPath))
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create processed file: %w", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	writer.Comma = f.cfg.Comma()

	outHeaders := append([]string{"timecode"}, headers...)
	outHeaders = append(outHeaders, geoHeaders...)
	if err := writer.Write(outHeaders); err != nil {
		return fmt.Errorf("failed to write processed header: %w", err)
	}

	for _, row := range rows[1:] {
		res := f.resolveRow(row, geoIdx, geoType)
		outRow := append([]string{BuildTimecode(row, timeCols)}, row...)
		outRow = append(outRow, res.Distrito, res.Concelho, res.Freguesia, res.Nuts1, res.Nuts2, res.Nuts3)
		if err := writer.Write(outRow); err != nil {
			return fmt.Errorf("failed to write processed row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush processed file %s: %w", outPath, err)
	}
	return nil
}

func (f *Formatter) resolveRow(row []string, geoIdx int, geoType string) GeoResolution {
	if f.cfg.CountryLevel {
		return CountryResolution()
	}
	if geoIdx < 0 || geoIdx >= len(row) {
		geoUnresolved.WithLabelValues(f.cfg.Code).Inc()
		return UndefinedResolution()
	}
	res := f.geo.Resolve(row[geoIdx], geoType)
	if res.Distrito == models.UndefinedGeo && res.Nuts1 == models.UndefinedGeo {
		geoUnresolved.WithLabelValues(f.cfg.Code).Inc()
	}
	return res
}

// locateGeoColumn finds the row's location key column; postal code aliases
// win over administrative code aliases when a file carries both.
func (f *Formatter) locateGeoColumn(headers []string) (int, string) {
	if idx := findHeader(headers, f.cfg.Geo.Zipcode); idx >= 0 {
		return idx, models.GeocodeTypeZipcode
	}
	if idx := findHeader(headers, f.cfg.Geo.Dicofre); idx >= 0 {
		return idx, models.GeocodeTypeDicofre
	}
	return -1, ""
}

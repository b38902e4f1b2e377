package pipeline

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MergeStats summarizes one merge pass.
type MergeStats struct {
	Merged  int
	Skipped int
}

// Merger joins each raw per-indicator data file with its metadata row, keyed
// by the source code extracted from the data filename. Files without a
// metadata match are skipped whole; the batch continues.
type Merger struct {
	cfg *SourceConfig
}

// NewMerger creates a merger for one source.
func NewMerger(cfg *SourceConfig) *Merger {
	return &Merger{cfg: cfg}
}

// Run merges every raw CSV file in rawDir into outDir. Output naming is
// deterministic: merged_<input name>.
func (m *Merger) Run(rawDir, outDir string) (*MergeStats, error) {
	if err := m.removeConfiguredFiles(rawDir); err != nil {
		return nil, err
	}

	metadataHeaders, metadataRows, err := m.loadMetadata(filepath.Join(rawDir, m.cfg.Metadata.File))
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create merge output dir: %w", err)
	}

	files, err := listCSVFiles(rawDir)
	if err != nil {
		return nil, err
	}

	stats := &MergeStats{}
	for _, filename := range files {
		if filename == filepath.Base(m.cfg.Metadata.File) {
			continue
		}

		sourceCode := strings.TrimSuffix(filename, ".csv")
		metadataRow, ok := metadataRows[sourceCode]
		if !ok {
			log.Printf("[%s] no metadata for %s, skipping file", m.cfg.Code, filename)
			filesSkipped.WithLabelValues(m.cfg.Code).Inc()
			stats.Skipped++
			continue
		}

		if err := m.mergeFile(filepath.Join(rawDir, filename), filepath.Join(outDir, "merged_"+filename), metadataHeaders, metadataRow); err != nil {
			return nil, err
		}
		filesMerged.WithLabelValues(m.cfg.Code).Inc()
		stats.Merged++
	}

	log.Printf("[%s] merge done: %d files merged, %d skipped", m.cfg.Code, stats.Merged, stats.Skipped)
	return stats, nil
}

// removeConfiguredFiles discards raw files known to be unusable before the
// merge touches them.
func (m *Merger) removeConfiguredFiles(rawDir string) error {
	for _, filename := range m.cfg.RemovedFiles {
		path := filepath.Join(rawDir, filename)
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		log.Printf("[%s] removed configured raw file %s", m.cfg.Code, filename)
	}
	return nil
}

// loadMetadata reads the metadata file into a map keyed by source code.
func (m *Merger) loadMetadata(path string) ([]string, map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrMetadataNotFound, path)
		}
		return nil, nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = m.cfg.MetadataComma()
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse metadata file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("metadata file %s is empty", path)
	}

	headers := rows[0]
	key := m.cfg.Metadata.KeyColumn
	if key >= len(headers) {
		return nil, nil, fmt.Errorf("%w: index %d out of range", ErrNoMetadataKey, key)
	}

	byCode := make(map[string][]string, len(rows)-1)
	for _, row := range rows[1:] {
		if key < len(row) {
			byCode[row[key]] = row
		}
	}
	return headers, byCode, nil
}

// mergeFile appends the metadata row to every data row of one file.
func (m *Merger) mergeFile(inPath, outPath string, metadataHeaders, metadataRow []string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("failed to open raw file: %w", err)
	}
	defer in.Close()

	reader := csv.NewReader(in)
	reader.Comma = m.cfg.Comma()
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse raw file %s: %w", inPath, err)
	}
	if len(rows) == 0 {
		return nil
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create merged file: %w", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	writer.Comma = m.cfg.Comma()

	if err := writer.Write(append(append([]string{}, rows[0]...), metadataHeaders...)); err != nil {
		return fmt.Errorf("failed to write merged header: %w", err)
	}
	for _, row := range rows[1:] {
		if err := writer.Write(append(append([]string{}, row...), metadataRow...)); err != nil {
			return fmt.Errorf("failed to write merged row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush merged file %s: %w", outPath, err)
	}
	return nil
}

// listCSVFiles returns the CSV filenames in dir in sorted order.
func listCSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dir %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".csv") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergerJoinsDataWithMetadata(t *testing.T) {
	cfg := eredesTestConfig()
	rawDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "merged")

	writeFile(t, rawDir, "metadata.csv",
		"title,description,src_code,Publisher\n"+
			"Active Energy,Energy delivered,E-001,E-REDES\n"+
			"Installations,Grid connections,E-002,E-REDES\n")
	writeFile(t, rawDir, "E-001.csv",
		"Zip Code;Year;Month;Active Energy (kWh)\n"+
			"1000-001;2020;5;42.5\n"+
			"4000-007;2020;5;17.0\n")
	// No metadata entry for this code: the whole file must be skipped.
	writeFile(t, rawDir, "E-999.csv",
		"Zip Code;Year;Month;Active Energy (kWh)\n"+
			"1000-001;2020;6;1.0\n")

	stats, err := NewMerger(cfg).Run(rawDir, outDir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Merged)
	assert.Equal(t, 1, stats.Skipped)

	merged, err := os.ReadFile(filepath.Join(outDir, "merged_E-001.csv"))
	require.NoError(t, err)
	content := string(merged)
	assert.Contains(t, content, "Zip Code;Year;Month;Active Energy (kWh);title;description;src_code;Publisher")
	assert.Contains(t, content, "1000-001;2020;5;42.5;Active Energy;Energy delivered;E-001;E-REDES")

	_, err = os.Stat(filepath.Join(outDir, "merged_E-999.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestMergerRemovesConfiguredFiles(t *testing.T) {
	cfg := eredesTestConfig()
	cfg.RemovedFiles = []string{"broken.csv"}
	rawDir := t.TempDir()

	writeFile(t, rawDir, "metadata.csv", "title,description,src_code,Publisher\n")
	writeFile(t, rawDir, "broken.csv", "garbage\n")

	_, err := NewMerger(cfg).Run(rawDir, filepath.Join(t.TempDir(), "merged"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(rawDir, "broken.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestMergerMissingMetadataFile(t *testing.T) {
	cfg := eredesTestConfig()
	_, err := NewMerger(cfg).Run(t.TempDir(), filepath.Join(t.TempDir(), "merged"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMetadataNotFound)
}

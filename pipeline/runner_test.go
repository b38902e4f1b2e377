package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/opendata-pt/indicator-hub/models"
	"github.com/opendata-pt/indicator-hub/repository"
	apptesting "github.com/opendata-pt/indicator-hub/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, configs []*SourceConfig, dataDir string) (*Runner, *apptesting.TestDB) {
	t.Helper()
	testDB, err := apptesting.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Cleanup() })

	staging := repository.NewStagingRepository(testDB.DB)
	promoter := NewPromoter(
		testDB.DB,
		staging,
		repository.NewNutsRepository(testDB.DB),
		repository.NewGeoLevelRepository(testDB.DB),
		repository.NewGeoDataRepository(testDB.DB),
		repository.NewIndicatorRepository(testDB.DB),
		repository.NewAttributeRepository(testDB.DB),
		repository.NewTagRepository(testDB.DB),
		repository.NewDataValueRepository(testDB.DB),
	)

	runner := NewRunner(
		testDB.DB,
		newTestResolver(t),
		staging,
		repository.NewCheckpointRepository(testDB.DB),
		promoter,
		configs,
		dataDir,
	)
	return runner, testDB
}

func TestRunnerEndToEnd(t *testing.T) {
	cfg := eredesTestConfig()
	dataDir := t.TempDir()
	rawDir := filepath.Join(dataDir, cfg.Code, "raw")

	writeFile(t, rawDir, "metadata.csv",
		"title,description,src_code,Publisher\n"+
			"Test Indicator,Synthetic series,T1,E-REDES\n")
	writeFile(t, rawDir, "T1.csv",
		"Zip Code;Year;Month;Active Energy (kWh)\n"+
			"1000-001;2020;5;42.5\n")

	runner, testDB := newTestRunner(t, []*SourceConfig{cfg}, dataDir)
	require.NoError(t, runner.RunAll(context.Background()))

	var fact models.DataValue
	require.NoError(t, testDB.DB.Preload("GeoData.GeoLevel").Preload("Indicator").First(&fact).Error)
	require.NotNil(t, fact.Value)
	assert.Equal(t, 42.5, *fact.Value)
	assert.Equal(t, "202005", fact.Timecode)
	assert.Equal(t, "Test Indicator", fact.Indicator.Name)
	assert.Equal(t, "T1", fact.Indicator.SourceCode)

	// The well-known Lisbon postal prefix resolves a real geography.
	assert.NotEqual(t, models.UndefinedGeo, fact.GeoData.GeoLevel.Distrito)
	assert.NotEqual(t, models.UndefinedGeo, fact.GeoData.GeoLevel.Concelho)
	assert.Equal(t, "Lisboa", fact.GeoData.GeoLevel.Distrito)
}

func TestRunnerRerunInsertsNothingNew(t *testing.T) {
	cfg := eredesTestConfig()
	dataDir := t.TempDir()
	rawDir := filepath.Join(dataDir, cfg.Code, "raw")

	writeFile(t, rawDir, "metadata.csv",
		"title,description,src_code,Publisher\n"+
			"Test Indicator,Synthetic series,T1,E-REDES\n")
	writeFile(t, rawDir, "T1.csv",
		"Zip Code;Year;Month;Active Energy (kWh)\n"+
			"1000-001;2020;5;42.5\n"+
			"1000-001;2020;6;43.0\n")

	runner, testDB := newTestRunner(t, []*SourceConfig{cfg}, dataDir)
	require.NoError(t, runner.RunAll(context.Background()))
	require.NoError(t, runner.RunAll(context.Background()))

	var facts, stagingRows int64
	require.NoError(t, testDB.DB.Model(&models.DataValue{}).Count(&facts).Error)
	require.NoError(t, testDB.DB.Model(&models.StagingRecord{}).Count(&stagingRows).Error)
	assert.EqualValues(t, 2, facts)
	assert.EqualValues(t, 2, stagingRows)
}

func TestRunnerIsolatesFailingSources(t *testing.T) {
	broken := eredesTestConfig()
	broken.Code = "broken"

	healthy := eredesTestConfig()
	dataDir := t.TempDir()

	// The broken source has no raw directory at all; the healthy one lands.
	rawDir := filepath.Join(dataDir, healthy.Code, "raw")
	writeFile(t, rawDir, "metadata.csv",
		"title,description,src_code,Publisher\n"+
			"Test Indicator,Synthetic series,T1,E-REDES\n")
	writeFile(t, rawDir, "T1.csv",
		"Zip Code;Year;Month;Active Energy (kWh)\n"+
			"1000-001;2020;5;42.5\n")

	runner, testDB := newTestRunner(t, []*SourceConfig{broken, healthy}, dataDir)
	err := runner.RunAll(context.Background())
	require.Error(t, err)

	var facts int64
	require.NoError(t, testDB.DB.Model(&models.DataValue{}).Count(&facts).Error)
	assert.EqualValues(t, 1, facts)
}

func TestRunnerUnknownSource(t *testing.T) {
	runner, _ := newTestRunner(t, []*SourceConfig{eredesTestConfig()}, t.TempDir())
	err := runner.RunSource(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestRunnerCountryLevelSource(t *testing.T) {
	cfg := &SourceConfig{
		Name:      "World Bank",
		Code:      "worldbank",
		Delimiter: ",",
		Metadata: MetadataConfig{
			File:      "metadata.csv",
			Delimiter: ",",
			KeyColumn: 0,
		},
		Timecode: TimecodeAliases{Year: []string{"year"}},
		Mapping: ColumnMapping{
			Name:          "name",
			Description:   "description",
			SourceLiteral: "World Bank",
			SourceCode:    "code",
			Value:         []string{"value"},
		},
		CountryLevel: true,
	}

	dataDir := t.TempDir()
	rawDir := filepath.Join(dataDir, cfg.Code, "raw")
	writeFile(t, rawDir, "metadata.csv",
		"code,name,description\n"+
			"WB1,GDP,Gross domestic product\n")
	writeFile(t, rawDir, "WB1.csv",
		"year,value\n"+
			"2020,211000000\n")

	runner, testDB := newTestRunner(t, []*SourceConfig{cfg}, dataDir)
	require.NoError(t, runner.RunAll(context.Background()))

	var fact models.DataValue
	require.NoError(t, testDB.DB.Preload("GeoData.Nuts").First(&fact).Error)
	assert.Equal(t, "2020", fact.Timecode)
	assert.Equal(t, Nuts1Country, fact.GeoData.Nuts.Nuts1)
	assert.Equal(t, models.UndefinedGeo, fact.GeoData.Nuts.Nuts3)
}

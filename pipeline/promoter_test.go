package pipeline

import (
	"context"
	"testing"

	"github.com/opendata-pt/indicator-hub/models"
	"github.com/opendata-pt/indicator-hub/repository"
	apptesting "github.com/opendata-pt/indicator-hub/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPromoter(t *testing.T) (*Promoter, *apptesting.TestDB, *apptesting.TestFixtures) {
	t.Helper()
	testDB, err := apptesting.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Cleanup() })

	promoter := NewPromoter(
		testDB.DB,
		repository.NewStagingRepository(testDB.DB),
		repository.NewNutsRepository(testDB.DB),
		repository.NewGeoLevelRepository(testDB.DB),
		repository.NewGeoDataRepository(testDB.DB),
		repository.NewIndicatorRepository(testDB.DB),
		repository.NewAttributeRepository(testDB.DB),
		repository.NewTagRepository(testDB.DB),
		repository.NewDataValueRepository(testDB.DB),
	)
	return promoter, testDB, apptesting.NewTestFixtures(testDB)
}

func TestPromoterCreatesDimensionsAndFact(t *testing.T) {
	promoter, testDB, fixtures := newTestPromoter(t)

	_, err := fixtures.CreateStagingRecord(func(r *models.StagingRecord) {
		r.SourceCode = "E-001"
		r.TagValue = "energia"
	})
	require.NoError(t, err)

	stats, err := promoter.Promote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rows)
	assert.Equal(t, 1, stats.Facts)
	assert.Zero(t, stats.Duplicates)

	var fact models.DataValue
	require.NoError(t, testDB.DB.Preload("GeoData").Preload("Indicator").First(&fact).Error)
	require.NotNil(t, fact.Value)
	assert.Equal(t, 42.5, *fact.Value)
	assert.Equal(t, "202001", fact.Timecode)
	assert.Equal(t, "110601", fact.GeoData.Geocode)
	assert.Equal(t, "E-001", fact.Indicator.SourceCode)

	// The tag landed on the indicator, not the fact.
	var link models.IndicatorTag
	require.NoError(t, testDB.DB.First(&link).Error)
	assert.Equal(t, fact.IndicatorID, link.IndicatorID)
}

func TestPromoterReusesDimensionsByNaturalKey(t *testing.T) {
	promoter, testDB, fixtures := newTestPromoter(t)

	for _, timecode := range []string{"202001", "202002"} {
		tc := timecode
		_, err := fixtures.CreateStagingRecord(func(r *models.StagingRecord) {
			r.SourceCode = "E-001"
			r.Timecode = tc
		})
		require.NoError(t, err)
	}
	// Different geography triple, same indicator.
	_, err := fixtures.CreateStagingRecord(func(r *models.StagingRecord) {
		r.SourceCode = "E-001"
		r.Distrito = "Porto"
		r.Concelho = "Porto"
		r.Freguesia = "Bonfim"
		r.Geocode = "131201"
	})
	require.NoError(t, err)

	stats, err := promoter.Promote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Facts)

	var nutsCount, levelCount, indicatorCount int64
	require.NoError(t, testDB.DB.Model(&models.Nuts{}).Count(&nutsCount).Error)
	require.NoError(t, testDB.DB.Model(&models.GeoLevel{}).Count(&levelCount).Error)
	require.NoError(t, testDB.DB.Model(&models.Indicator{}).Count(&indicatorCount).Error)
	assert.EqualValues(t, 1, nutsCount)
	assert.EqualValues(t, 2, levelCount)
	assert.EqualValues(t, 1, indicatorCount)
}

func TestPromoterSkipsDuplicateFacts(t *testing.T) {
	promoter, testDB, fixtures := newTestPromoter(t)

	for i := 0; i < 2; i++ {
		_, err := fixtures.CreateStagingRecord(func(r *models.StagingRecord) {
			r.SourceCode = "E-001"
		})
		require.NoError(t, err)
	}

	stats, err := promoter.Promote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Facts)
	assert.Equal(t, 1, stats.Duplicates)

	var count int64
	require.NoError(t, testDB.DB.Model(&models.DataValue{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPromoterBlankValueBecomesNull(t *testing.T) {
	promoter, testDB, fixtures := newTestPromoter(t)

	_, err := fixtures.CreateStagingRecord(func(r *models.StagingRecord) {
		r.SourceCode = "E-001"
		r.Value = "  "
	})
	require.NoError(t, err)

	stats, err := promoter.Promote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Facts)

	var fact models.DataValue
	require.NoError(t, testDB.DB.First(&fact).Error)
	assert.Nil(t, fact.Value)
}

func TestPromoterSkipsNonNumericValue(t *testing.T) {
	promoter, testDB, fixtures := newTestPromoter(t)

	_, err := fixtures.CreateStagingRecord(func(r *models.StagingRecord) {
		r.SourceCode = "E-001"
		r.Value = "not-a-number"
	})
	require.NoError(t, err)

	stats, err := promoter.Promote(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Facts)
	assert.Equal(t, 1, stats.BadValues)

	var count int64
	require.NoError(t, testDB.DB.Model(&models.DataValue{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPromoterLinksAttributes(t *testing.T) {
	promoter, testDB, fixtures := newTestPromoter(t)

	_, err := fixtures.CreateStagingRecord(func(r *models.StagingRecord) {
		r.SourceCode = "I-1"
		r.AttributeName = "Sexo"
		r.AttributeValue = "Feminino"
		r.Attributes = "Sexo"
	})
	require.NoError(t, err)

	_, err = promoter.Promote(context.Background())
	require.NoError(t, err)

	var attribute models.Attribute
	require.NoError(t, testDB.DB.First(&attribute).Error)
	assert.Equal(t, "Sexo", attribute.Name)
	assert.Equal(t, "Feminino", attribute.Value)

	var link models.ValueAttribute
	require.NoError(t, testDB.DB.First(&link).Error)
	assert.Equal(t, attribute.ID, link.AttributeID)

	var fact models.DataValue
	require.NoError(t, testDB.DB.First(&fact).Error)
	assert.Equal(t, fact.ID, link.DataValueID)
	assert.Equal(t, "Sexo", fact.Attributes)
}

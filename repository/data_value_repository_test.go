package repository_test

import (
	"context"
	"testing"

	"github.com/opendata-pt/indicator-hub/models"
	"github.com/opendata-pt/indicator-hub/repository"
	apptesting "github.com/opendata-pt/indicator-hub/testing"
	"github.com/opendata-pt/indicator-hub/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactRepo(t *testing.T) (repository.DataValueRepository, *apptesting.TestFixtures) {
	t.Helper()
	testDB, err := apptesting.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Cleanup() })
	return repository.NewDataValueRepository(testDB.DB), apptesting.NewTestFixtures(testDB)
}

// Exists keys on the same observation columns the schema migration creates;
// the promoter relies on it to skip duplicates inside an open transaction.
func TestDataValueExistsByObservationKey(t *testing.T) {
	repo, fixtures := newFactRepo(t)
	ctx := context.Background()

	fact, err := fixtures.CreateObservation("E0001", "202005", 42.5)
	require.NoError(t, err)

	found, err := repo.Exists(ctx, fact.GeoDataID, fact.IndicatorID, "202005")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.Exists(ctx, fact.GeoDataID, fact.IndicatorID, "202006")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDataValueByFilterGeocodeJoin(t *testing.T) {
	repo, fixtures := newFactRepo(t)
	ctx := context.Background()

	fact, err := fixtures.CreateObservation("E0002", "202005", 17.0)
	require.NoError(t, err)

	rows, err := repo.ByFilter(ctx, models.DataValueFilter{
		IndicatorID: utils.ToPtr(fact.IndicatorID),
		Geocode:     utils.ToPtr("4000"),
	}, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, fact.ID, rows[0].ID)
	assert.Equal(t, "Porto", rows[0].GeoData.GeoLevel.Distrito)

	rows, err = repo.ByFilter(ctx, models.DataValueFilter{
		IndicatorID: utils.ToPtr(fact.IndicatorID),
		Geocode:     utils.ToPtr("9999"),
	}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

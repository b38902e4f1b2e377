package repository_test

import (
	"context"
	"testing"

	"github.com/opendata-pt/indicator-hub/models"
	"github.com/opendata-pt/indicator-hub/repository"
	apptesting "github.com/opendata-pt/indicator-hub/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The geodata natural-key lookup runs raw column names against the migrated
// schema, so it must resolve (and stay idempotent) on a fresh database.
func TestGeoDataFindOrCreateResolvesNaturalKey(t *testing.T) {
	testDB, err := apptesting.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Cleanup() })

	ctx := context.Background()
	nutsRepo := repository.NewNutsRepository(testDB.DB)
	levelRepo := repository.NewGeoLevelRepository(testDB.DB)
	geoRepo := repository.NewGeoDataRepository(testDB.DB)

	nuts, err := nutsRepo.FindOrCreate(ctx, "Continente", "Norte", "Área Metropolitana do Porto")
	require.NoError(t, err)
	level, err := levelRepo.FindOrCreate(ctx, "Porto", "Porto", models.UndefinedGeo)
	require.NoError(t, err)

	first, err := geoRepo.FindOrCreate(ctx, nuts.ID, level.ID, "4000", models.GeocodeTypeZipcode)
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	again, err := geoRepo.FindOrCreate(ctx, nuts.ID, level.ID, "4000", models.GeocodeTypeZipcode)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := geoRepo.FindOrCreate(ctx, nuts.ID, level.ID, "4100", models.GeocodeTypeZipcode)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

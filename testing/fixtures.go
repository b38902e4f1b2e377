// Package testing provides test utilities and database setup for the
// warehouse and pipeline tests.
package testing

import (
	"fmt"
	"math/rand"

	"github.com/opendata-pt/indicator-hub/models"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates an API user with a bcrypt-hashed password.
func (tf *TestFixtures) CreateTestUser(password string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        fmt.Sprintf("analyst.%09d@example.com", rand.Intn(900000000)+100000000),
		PasswordHash: string(hashed),
	}
	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}
	return user, nil
}

// CreateStagingRecord lands one staging row with sensible defaults; the
// overrides hook mutates it before insert.
func (tf *TestFixtures) CreateStagingRecord(overrides func(*models.StagingRecord)) (*models.StagingRecord, error) {
	rec := models.NewStagingRecord()
	rec.Nuts1 = "Continente"
	rec.Nuts2 = "Área Metropolitana de Lisboa"
	rec.Nuts3 = "Grande Lisboa"
	rec.Distrito = "Lisboa"
	rec.Concelho = "Lisboa"
	rec.Freguesia = "Alvalade"
	rec.Geocode = "110601"
	rec.GeocodeType = models.GeocodeTypeDicofre
	rec.Timecode = "202001"
	rec.Value = "42.5"
	rec.Name = "Test Indicator"
	rec.Description = "Synthetic indicator for tests"
	rec.Units = "kilowatt-hour"
	rec.Source = "E-REDES"
	rec.SourceCode = fmt.Sprintf("T%04d", rand.Intn(10000))

	if overrides != nil {
		overrides(&rec)
	}
	if err := tf.DB.DB.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create staging record: %w", err)
	}
	return &rec, nil
}

// CreateIndicator inserts one indicator dimension row.
func (tf *TestFixtures) CreateIndicator(name, sourceCode string) (*models.Indicator, error) {
	ind := &models.Indicator{
		Name:        name,
		Description: "Synthetic indicator for tests",
		Units:       "kWh",
		Source:      "E-REDES",
		SourceCode:  sourceCode,
	}
	if err := tf.DB.DB.Create(ind).Error; err != nil {
		return nil, fmt.Errorf("failed to create indicator: %w", err)
	}
	return ind, nil
}

// CreateObservation wires a full dimension chain and one fact row, returning
// the fact.
func (tf *TestFixtures) CreateObservation(sourceCode, timecode string, value float64) (*models.DataValue, error) {
	nuts := &models.Nuts{Nuts1: "Continente", Nuts2: "Norte", Nuts3: "Área Metropolitana do Porto"}
	if err := tf.DB.DB.Create(nuts).Error; err != nil {
		return nil, err
	}
	level := &models.GeoLevel{Distrito: "Porto", Concelho: "Porto", Freguesia: models.UndefinedGeo}
	if err := tf.DB.DB.Create(level).Error; err != nil {
		return nil, err
	}
	geo := &models.GeoData{NutsID: nuts.ID, GeoLevelID: level.ID, Geocode: "4000", GeocodeType: models.GeocodeTypeZipcode}
	if err := tf.DB.DB.Create(geo).Error; err != nil {
		return nil, err
	}
	ind, err := tf.CreateIndicator("Observation Indicator "+sourceCode, sourceCode)
	if err != nil {
		return nil, err
	}

	fact := &models.DataValue{
		GeoDataID:   geo.ID,
		IndicatorID: ind.ID,
		Timecode:    timecode,
		Value:       &value,
	}
	if err := tf.DB.DB.Create(fact).Error; err != nil {
		return nil, fmt.Errorf("failed to create fact: %w", err)
	}
	return fact, nil
}

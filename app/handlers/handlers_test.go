package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/opendata-pt/indicator-hub/app/handlers"
	"github.com/opendata-pt/indicator-hub/app/middleware"
	"github.com/opendata-pt/indicator-hub/app/router"
	"github.com/opendata-pt/indicator-hub/app/services"
	businessflow "github.com/opendata-pt/indicator-hub/business_flow"
	"github.com/opendata-pt/indicator-hub/config"
	"github.com/opendata-pt/indicator-hub/repository"
	testhelpers "github.com/opendata-pt/indicator-hub/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) (*fiber.App, *testhelpers.TestFixtures) {
	t.Helper()

	testDB, err := testhelpers.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Cleanup() })

	cfg := &config.Config{
		Server: config.ServerConfig{
			BodyLimit:    1024 * 1024,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		Metrics: config.MetricsConfig{Path: "/metrics"},
	}

	tokenService, err := services.NewTokenService(time.Hour, "indicator-hub", "indicator-hub-api", "test-secret-key-which-is-long-enough")
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB.DB)
	indicatorRepo := repository.NewIndicatorRepository(testDB.DB)
	dataValueRepo := repository.NewDataValueRepository(testDB.DB)

	authFlow := businessflow.NewAuthFlow(userRepo, tokenService, 3600)
	indicatorFlow := businessflow.NewIndicatorFlow(indicatorRepo, dataValueRepo)

	r := router.NewFiberRouter(
		cfg,
		handlers.NewAuthHandler(authFlow),
		handlers.NewIndicatorHandler(indicatorFlow),
		middleware.NewAuthMiddleware(tokenService),
	)
	r.SetupRoutes()

	return r.GetApp(), testhelpers.NewTestFixtures(testDB)
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, apiEnvelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var envelope apiEnvelope
	require.NoError(t, json.Unmarshal(raw, &envelope), "body: %s", raw)
	return resp, envelope
}

func loginToken(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()

	resp, envelope := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &login))
	require.Equal(t, "Bearer", login.TokenType)
	require.NotEmpty(t, login.AccessToken)
	return login.AccessToken
}

func TestCreateUserAndLogin(t *testing.T) {
	app, _ := newTestApp(t)

	resp, envelope := doJSON(t, app, http.MethodPost, "/api/v1/users", "", fiber.Map{
		"email":    "analyst@example.pt",
		"password": "warehouse-pass-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, envelope.Success)

	// Same email again conflicts
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/users", "", fiber.Map{
		"email":    "analyst@example.pt",
		"password": "warehouse-pass-1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	token := loginToken(t, app, "analyst@example.pt", "warehouse-pass-1")
	assert.NotEmpty(t, token)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/users", "", fiber.Map{
		"email":    "analyst@example.pt",
		"password": "warehouse-pass-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, envelope := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    "analyst@example.pt",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, envelope.Success)

	// Unknown email gets the same answer as a wrong password
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    "nobody@example.pt",
		"password": "whatever-pass-1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateUserValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/users", "", fiber.Map{
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIndicatorEndpointsRequireAuth(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/indicators/1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/indicators/1", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetIndicatorAndData(t *testing.T) {
	app, fixtures := newTestApp(t)

	fact, err := fixtures.CreateObservation("E0001", "202005", 42.5)
	require.NoError(t, err)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/users", "", fiber.Map{
		"email":    "reader@example.pt",
		"password": "warehouse-pass-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := loginToken(t, app, "reader@example.pt", "warehouse-pass-1")

	resp, envelope := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/indicators/%d", fact.IndicatorID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ind struct {
		ID         uint   `json:"id"`
		SourceCode string `json:"source_code"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &ind))
	assert.Equal(t, fact.IndicatorID, ind.ID)
	assert.Equal(t, "E0001", ind.SourceCode)

	resp, envelope = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/indicators/%d/data?from=202001&to=202012", fact.IndicatorID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data struct {
		Points []struct {
			Timecode string   `json:"timecode"`
			Value    *float64 `json:"value"`
			Distrito string   `json:"distrito"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	require.Len(t, data.Points, 1)
	assert.Equal(t, "202005", data.Points[0].Timecode)
	require.NotNil(t, data.Points[0].Value)
	assert.InDelta(t, 42.5, *data.Points[0].Value, 0.0001)
	assert.Equal(t, "Porto", data.Points[0].Distrito)

	// Range outside the observation returns no points
	resp, envelope = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/indicators/%d/data?from=202101", fact.IndicatorID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Empty(t, data.Points)

	// Inverted range is rejected
	resp, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/indicators/%d/data?from=202012&to=202001", fact.IndicatorID), token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown indicator
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/indicators/99999", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetUserByID(t *testing.T) {
	app, _ := newTestApp(t)

	resp, envelope := doJSON(t, app, http.MethodPost, "/api/v1/users", "", fiber.Map{
		"email":    "owner@example.pt",
		"password": "warehouse-pass-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &created))

	token := loginToken(t, app, "owner@example.pt", "warehouse-pass-1")

	resp, envelope = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", created.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "owner@example.pt", fetched.Email)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/users/99999", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

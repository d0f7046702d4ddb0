package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"productapi/internal/models"
	"productapi/internal/repositories"
	"productapi/internal/server"
	"productapi/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(ping server.Pinger) server.Deps {
	store := repositories.NewMemoryStore()
	return server.Deps{
		AppName:        "product-api-test",
		ProductService: services.NewProductService(store, nil, nil),
		StockService:   services.NewStockService(store, nil, nil),
		Ping:           ping,
		DocsFile:       "./does-not-exist.json",
	}
}

func TestHealth(t *testing.T) {
	app := server.NewApp(newTestApp(func(context.Context) error { return nil }))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "up", body["database"])
	assert.NotEmpty(t, body["time"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestHealth_StoreDown(t *testing.T) {
	app := server.NewApp(newTestApp(func(context.Context) error { return errors.New("connection refused") }))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body["status"])
}

func TestUnknownRoute(t *testing.T) {
	app := server.NewApp(newTestApp(nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/docs", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "not_found", body.Code)
}

func TestAPIRoutesMounted(t *testing.T) {
	app := server.NewApp(newTestApp(nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/products", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.ProductResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Empty(t, products)
}

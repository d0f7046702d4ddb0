package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"productapi/internal/config"
	"productapi/pkg/logger"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(driver, dsn string) *config.Config {
	return &config.Config{
		AppName:              "product-api-test",
		Env:                  "test",
		DBDriver:             driver,
		DatabaseDSN:          dsn,
		DBMaxOpenConns:       1,
		ProductIDMaxAttempts: 10,
	}
}

func TestBuildApp_Memory(t *testing.T) {
	app, cleanup, err := buildApp(testConfig(config.DriverMemory, ""), logger.Nop(), nil)
	require.NoError(t, err)
	defer cleanup()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"status":"healthy"`)
}

func TestBuildApp_SQLite(t *testing.T) {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	app, cleanup, err := buildApp(testConfig(config.DriverSQLite, dsn), logger.Nop(), nil)
	require.NoError(t, err)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/api/products",
		bytes.NewBufferString(`{"name":"Laptop","price":1200,"stock":10}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBuildApp_UnsupportedDriver(t *testing.T) {
	_, _, err := buildApp(testConfig("oracle", "x"), logger.Nop(), nil)
	assert.Error(t, err)
}

func TestLogEvent(t *testing.T) {
	handle := logEvent(logger.Nop())

	assert.NoError(t, handle(amqp.Delivery{Body: []byte(`{"id":"1","type":"stock.added","product_id":100001,"delta":5}`)}))
	assert.NoError(t, handle(amqp.Delivery{Body: []byte(`not json`)}))
}

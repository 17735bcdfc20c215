package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatch-crm/hatch/internal/interfaces/http/handlers/testutil"
)

func TestHealthCheck_AllHealthy(t *testing.T) {
	h := NewHealthHandler("1.2.3", testutil.NewMockLogger())
	h.AddCheck("database", func(context.Context) error { return nil })

	c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
	h.HealthCheck(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, testutil.ParseResponse(w, &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]interface{}{"database": "ok"}, body["checks"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	h := NewHealthHandler("1.2.3", testutil.NewMockLogger())
	h.AddCheck("database", func(context.Context) error { return nil })
	h.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })

	c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
	h.HealthCheck(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]interface{}
	require.NoError(t, testutil.ParseResponse(w, &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]interface{}{"database": "ok", "redis": "unavailable"}, body["checks"])
}

func TestVersion(t *testing.T) {
	h := NewHealthHandler("1.2.3", testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/version", nil)
	h.Version(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"version":"1.2.3"}`, w.Body.String())
}

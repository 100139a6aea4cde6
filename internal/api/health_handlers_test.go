package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_EmptyIndexDegrades(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var health HealthResponse
	decodeData(t, resp, &health)
	assert.Equal(t, statusDegraded, health.Status)
	assert.Equal(t, statusHealthy, health.Components["database"].Status)
	assert.Equal(t, statusDegraded, health.Components["search"].Status)
	assert.Equal(t, "0 connected clients", health.Components["sse"].Message)
	assert.Equal(t, "idle", health.Components["sync"].Message)
}

func TestHealth_Healthy(t *testing.T) {
	ts := setupTestServer(t)
	seedBuiltInSpell(t, ts.store, "spell-b1", "Zap")

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var health HealthResponse
	decodeData(t, resp, &health)
	assert.Equal(t, statusHealthy, health.Status)
	assert.Equal(t, "1 documents", health.Components["search"].Message)
}

func TestHealth_MissingServices(t *testing.T) {
	srv := &Server{services: &Services{}}

	health := srv.checkSearchIndex()
	assert.Equal(t, statusDegraded, health.Status)
	assert.Equal(t, statusDegraded, srv.checkSync().Status)
	assert.Equal(t, statusDegraded, srv.checkSSEManager().Status)
}

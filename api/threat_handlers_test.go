package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadowagent/core"
)

func TestHealthCheck(t *testing.T) {
	a := setupTestAPI(t)

	rec := doJSON(t, a, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestCreateAndGetThreat(t *testing.T) {
	a := setupTestAPI(t)

	rec := doJSON(t, a, http.MethodPost, "/threats", map[string]interface{}{
		"type":        "leak",
		"title":       "Credential dump",
		"description": "40k credentials on paste site",
		"source":      "pastebin",
		"alerts": []map[string]string{
			{"severity": "high", "message": "Dump references target domain"},
		},
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created core.Threat
	decodeBody(t, rec, &created)
	require.NotZero(t, created.ID)
	assert.Equal(t, core.ThreatTypeLeak, created.Type)
	assert.False(t, created.DiscoveredAt.IsZero())
	require.Len(t, created.Alerts, 1)
	assert.Equal(t, created.ID, created.Alerts[0].ThreatID)

	rec = doJSON(t, a, http.MethodGet, fmt.Sprintf("/threats/%d", created.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched core.Threat
	decodeBody(t, rec, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Title, fetched.Title)
	assert.True(t, fetched.DiscoveredAt.Equal(created.DiscoveredAt))
	require.Len(t, fetched.Alerts, 1)
	assert.Equal(t, "high", fetched.Alerts[0].Severity)
}

func TestCreateThreatValidation(t *testing.T) {
	a := setupTestAPI(t)

	// Unknown type value.
	rec := doJSON(t, a, http.MethodPost, "/threats", map[string]interface{}{
		"type":  "meteor",
		"title": "Sky is falling",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Missing title.
	rec = doJSON(t, a, http.MethodPost, "/threats", map[string]interface{}{
		"type": "leak",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Nested alert without a message.
	rec = doJSON(t, a, http.MethodPost, "/threats", map[string]interface{}{
		"type":  "leak",
		"title": "Valid title",
		"alerts": []map[string]string{
			{"severity": "high"},
		},
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetThreatNotFound(t *testing.T) {
	a := setupTestAPI(t)

	rec := doJSON(t, a, http.MethodGet, "/threats/999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "Threat not found", body["detail"])
}

func TestGetThreatInvalidID(t *testing.T) {
	a := setupTestAPI(t)

	rec := doJSON(t, a, http.MethodGet, "/threats/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListThreatsPagination(t *testing.T) {
	a := setupTestAPI(t)

	for i := 0; i < 5; i++ {
		rec := doJSON(t, a, http.MethodPost, "/threats", map[string]interface{}{
			"type":  "chatter",
			"title": fmt.Sprintf("Thread %d", i),
		}, "")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, a, http.MethodGet, "/threats?skip=2&limit=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page []core.Threat
	decodeBody(t, rec, &page)
	require.Len(t, page, 2)
	assert.Equal(t, "Thread 2", page[0].Title)
	assert.Equal(t, "Thread 3", page[1].Title)

	rec = doJSON(t, a, http.MethodGet, "/threats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &page)
	assert.Len(t, page, 5)
}

func TestDeleteThreat(t *testing.T) {
	a := setupTestAPI(t)

	rec := doJSON(t, a, http.MethodPost, "/threats", map[string]interface{}{
		"type":  "breach",
		"title": "To be removed",
		"alerts": []map[string]string{
			{"severity": "low", "message": "Goes away with the threat"},
		},
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created core.Threat
	decodeBody(t, rec, &created)

	rec = doJSON(t, a, http.MethodDelete, fmt.Sprintf("/threats/%d", created.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "deleted", body["status"])

	rec = doJSON(t, a, http.MethodGet, fmt.Sprintf("/threats/%d", created.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The cascade took the alert with it.
	rec = doJSON(t, a, http.MethodGet, "/alerts", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var alerts []core.Alert
	decodeBody(t, rec, &alerts)
	assert.Empty(t, alerts)

	rec = doJSON(t, a, http.MethodDelete, fmt.Sprintf("/threats/%d", created.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAlertForThreat(t *testing.T) {
	a := setupTestAPI(t)

	rec := doJSON(t, a, http.MethodPost, "/threats", map[string]interface{}{
		"type":  "chatter",
		"title": "Watched thread",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created core.Threat
	decodeBody(t, rec, &created)

	rec = doJSON(t, a, http.MethodPost, fmt.Sprintf("/threats/%d/alerts", created.ID), map[string]string{
		"severity": "medium",
		"message":  "Actor replied",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var alert core.Alert
	decodeBody(t, rec, &alert)
	assert.NotZero(t, alert.ID)
	assert.Equal(t, created.ID, alert.ThreatID)
	assert.Equal(t, "medium", alert.Severity)
	assert.False(t, alert.Timestamp.IsZero())
}

func TestCreateAlertMissingThreat(t *testing.T) {
	a := setupTestAPI(t)

	rec := doJSON(t, a, http.MethodPost, "/threats/404/alerts", map[string]string{
		"severity": "high",
		"message":  "No home",
	}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAlertsAcrossThreats(t *testing.T) {
	a := setupTestAPI(t)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, a, http.MethodPost, "/threats", map[string]interface{}{
			"type":  "other",
			"title": "Holder",
			"alerts": []map[string]string{
				{"severity": "low", "message": "One each"},
			},
		}, "")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, a, http.MethodGet, "/alerts", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var alerts []core.Alert
	decodeBody(t, rec, &alerts)
	require.Len(t, alerts, 2)
	assert.NotEqual(t, alerts[0].ThreatID, alerts[1].ThreatID)

	rec = doJSON(t, a, http.MethodGet, "/alerts?limit=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &alerts)
	assert.Len(t, alerts, 1)
}

func TestCORSHeaders(t *testing.T) {
	a := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	// Unlisted origins get no allow-origin header.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	// Preflight short-circuits with 200.
	req = httptest.NewRequest(http.MethodOptions, "/threats", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

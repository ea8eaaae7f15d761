package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Adi-Sumardi/tenjo-server/internal/api/http/dto"
	"github.com/Adi-Sumardi/tenjo-server/internal/tracking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, engine *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest("POST", path, bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func strp(s string) *string { return &s }

func intp(i int) *int { return &i }

// TestIngestFlow walks the agent happy path against a real database:
// register, heartbeat, batch ingest, dedup on repeat pings.
func TestIngestFlow(t *testing.T, engine *gin.Engine) {
	w := postJSON(t, engine, "/api/clients/register", dto.RegisterClientRequest{
		ClientID:  "st-client-1",
		Hostname:  "finance-pc-01",
		IPAddress: "10.0.0.12",
		Username:  "siti",
		OsInfo:    map[string]any{"name": "Windows", "version": "11"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, engine, "/api/clients/heartbeat", dto.HeartbeatRequest{ClientID: "st-client-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, engine, "/api/browser-tracking", dto.BrowserTrackingRequest{
		ClientID: "st-client-1",
		BrowserSessions: []dto.SessionPayload{
			{BrowserName: "Chrome", WindowCount: intp(1), TabCount: intp(4)},
		},
		URLActivities: []dto.ActivityPayload{
			{URL: "https://mail.google.com/inbox", BrowserName: "Chrome", Title: strp("Inbox")},
			{URL: "https://sbobet88.com/live", BrowserName: "Chrome"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var batchResp dto.BrowserTrackingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batchResp))
	assert.Equal(t, 1, batchResp.Processed.BrowserSessions)
	assert.Equal(t, 2, batchResp.Processed.URLActivities)

	// repeat ping inside the dedup window updates the existing row
	first := postJSON(t, engine, "/api/url-activities", dto.ActivityPayload{
		ClientID:    "st-client-1",
		URL:         "https://mail.google.com/inbox",
		BrowserName: "Chrome",
		Duration:    intp(5),
	})
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSON(t, engine, "/api/url-activities", dto.ActivityPayload{
		ClientID:    "st-client-1",
		URL:         "https://mail.google.com/inbox",
		BrowserName: "Chrome",
		Duration:    intp(10),
	})
	require.Equal(t, http.StatusOK, second.Code)

	var firstResp, secondResp dto.ActivityStoredResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))
	assert.Equal(t, firstResp.ActivityID, secondResp.ActivityID)
	assert.Equal(t, tracking.CategoryWork, secondResp.Category)

	// unknown client is rejected by the batch endpoint
	w = postJSON(t, engine, "/api/browser-tracking", dto.BrowserTrackingRequest{ClientID: "ghost"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

// TestBrowserSummary checks the aggregation endpoint over the rows ingested
// by TestIngestFlow.
func TestBrowserSummary(t *testing.T, engine *gin.Engine) {
	req, err := http.NewRequest("GET", "/api/browser-tracking/st-client-1/summary", nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ClientID string           `json:"client_id"`
		Summary  tracking.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "st-client-1", resp.ClientID)
	assert.NotEmpty(t, resp.Summary.BrowserSessions)
	assert.NotEmpty(t, resp.Summary.TopDomains)
	assert.NotEmpty(t, resp.Summary.RecentActivities)
	assert.NotEmpty(t, resp.Summary.DailyStats)
	assert.GreaterOrEqual(t, resp.Summary.Totals.TotalVisits, 2)
}

package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Adi-Sumardi/tenjo-server/internal/api/http/dto"
	"github.com/Adi-Sumardi/tenjo-server/internal/clients"
	"github.com/Adi-Sumardi/tenjo-server/internal/tracking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&clients.Client{},
		&tracking.BrowserSession{},
		&tracking.UrlActivity{},
	))
	return gdb
}

func setupClientsRouter(clientService *clients.Service) *gin.Engine {
	h := NewClientsHandler(clientService)
	r := gin.New()
	r.POST("/api/clients/register", h.Register)
	r.POST("/api/clients/heartbeat", h.Heartbeat)
	r.GET("/api/clients", h.List)
	r.GET("/api/clients/:clientId", h.Show)
	r.DELETE("/api/clients/:clientId", h.Delete)
	return r
}

func postJSON(r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerTestClient(t *testing.T, r *gin.Engine, clientID string) {
	t.Helper()

	w := postJSON(r, "/api/clients/register", dto.RegisterClientRequest{
		ClientID:  clientID,
		Hostname:  "finance-pc-01",
		IPAddress: "10.0.0.12",
		Username:  "siti",
		OsInfo:    map[string]any{"name": "Windows"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestRegisterClient(t *testing.T) {
	svc := clients.NewService(newTestDB(t), nil)
	r := setupClientsRouter(svc)

	w := postJSON(r, "/api/clients/register", dto.RegisterClientRequest{
		ClientID:  "c1",
		Hostname:  "finance-pc-01",
		IPAddress: "10.0.0.12",
		Username:  "siti",
		OsInfo:    map[string]any{"name": "Windows"},
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.RegisterClientResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "c1", resp.ClientID)
}

func TestRegisterClientAgainReturnsOK(t *testing.T) {
	svc := clients.NewService(newTestDB(t), nil)
	r := setupClientsRouter(svc)
	registerTestClient(t, r, "c1")

	w := postJSON(r, "/api/clients/register", dto.RegisterClientRequest{
		ClientID:  "c1",
		Hostname:  "finance-pc-01",
		IPAddress: "10.0.0.99",
		Username:  "siti",
		OsInfo:    map[string]any{"name": "Windows"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterClientValidation(t *testing.T) {
	svc := clients.NewService(newTestDB(t), nil)
	r := setupClientsRouter(svc)

	// missing hostname and a malformed IP
	w := postJSON(r, "/api/clients/register", map[string]any{
		"client_id":  "c1",
		"ip_address": "not-an-ip",
		"username":   "siti",
		"os_info":    map[string]any{"name": "Windows"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHeartbeat(t *testing.T) {
	svc := clients.NewService(newTestDB(t), nil)
	r := setupClientsRouter(svc)
	registerTestClient(t, r, "c1")

	w := postJSON(r, "/api/clients/heartbeat", dto.HeartbeatRequest{ClientID: "c1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHeartbeatUnknownClient(t *testing.T) {
	svc := clients.NewService(newTestDB(t), nil)
	r := setupClientsRouter(svc)

	w := postJSON(r, "/api/clients/heartbeat", dto.HeartbeatRequest{ClientID: "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListClients(t *testing.T) {
	svc := clients.NewService(newTestDB(t), nil)
	r := setupClientsRouter(svc)
	registerTestClient(t, r, "c1")

	req, _ := http.NewRequest("GET", "/api/clients", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.ClientListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Clients, 1)
	assert.Equal(t, "c1", resp.Clients[0].ClientID)
	assert.True(t, resp.Clients[0].IsOnline)
}

func TestShowClientNotFound(t *testing.T) {
	svc := clients.NewService(newTestDB(t), nil)
	r := setupClientsRouter(svc)

	req, _ := http.NewRequest("GET", "/api/clients/ghost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteClient(t *testing.T) {
	svc := clients.NewService(newTestDB(t), nil)
	r := setupClientsRouter(svc)
	registerTestClient(t, r, "c1")

	req, _ := http.NewRequest("DELETE", "/api/clients/c1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req, _ = http.NewRequest("DELETE", "/api/clients/c1", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adi-Sumardi/tenjo-server/internal/api/http/dto"
	"github.com/Adi-Sumardi/tenjo-server/internal/clients"
	"github.com/Adi-Sumardi/tenjo-server/internal/tracking"
	"github.com/gin-gonic/gin"
)

const clientIDHeader = "X-Client-ID"

type TrackingHandler struct {
	trackingService *tracking.Service
	clientService   *clients.Service
}

func NewTrackingHandler(trackingService *tracking.Service, clientService *clients.Service) *TrackingHandler {
	return &TrackingHandler{
		trackingService: trackingService,
		clientService:   clientService,
	}
}

// StoreBrowserTracking ingests a batch of session and activity pings. Unlike
// the single-payload endpoints it rejects unregistered clients.
func (h *TrackingHandler) StoreBrowserTracking(ctx *gin.Context) {
	var req dto.BrowserTrackingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	clientID := resolveClientID(ctx, req.ClientID)
	if clientID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Client ID required"})
		return
	}

	known, err := h.clientService.Exists(ctx.Request.Context(), clientID)
	if err != nil {
		slog.Error("Browser tracking error", "client_id", clientID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}
	if !known {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}

	sessions := make([]tracking.SessionPayload, len(req.BrowserSessions))
	for i, sp := range req.BrowserSessions {
		sessions[i] = sp.ToDomain()
	}
	activities := make([]tracking.ActivityPayload, len(req.URLActivities))
	for i, ap := range req.URLActivities {
		activities[i] = ap.ToDomain()
	}

	processed, err := h.trackingService.ProcessBatch(ctx.Request.Context(), clientID, sessions, activities)
	if err != nil {
		slog.Error("Browser tracking error",
			"client_id", clientID,
			"sessions", len(req.BrowserSessions),
			"activities", len(req.URLActivities),
			"error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	ctx.JSON(http.StatusOK, dto.BrowserTrackingResponse{
		Status:    "success",
		Processed: processed,
		Timestamp: time.Now().UTC(),
	})
}

func (h *TrackingHandler) StoreBrowserSession(ctx *gin.Context) {
	var req dto.SessionPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	clientID := resolveClientID(ctx, req.ClientID)
	if clientID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Client ID required"})
		return
	}

	session, err := h.trackingService.ResolveSession(ctx.Request.Context(), clientID, req.ToDomain())
	if err != nil {
		slog.Error("Browser session error", "client_id", clientID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	ctx.JSON(http.StatusOK, dto.SessionStoredResponse{
		Status:    "success",
		SessionID: session.ID,
		Timestamp: time.Now().UTC(),
	})
}

func (h *TrackingHandler) StoreURLActivity(ctx *gin.Context) {
	var req dto.ActivityPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	clientID := resolveClientID(ctx, req.ClientID)
	if clientID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Client ID required"})
		return
	}

	activity, err := h.trackingService.RecordActivity(ctx.Request.Context(), clientID, req.ToDomain())
	if err != nil {
		if errors.Is(err, tracking.ErrURLRequired) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("URL activity error",
			"client_id", clientID,
			"url", req.URL,
			"error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	ctx.JSON(http.StatusOK, dto.ActivityStoredResponse{
		Status:     "success",
		ActivityID: activity.ID,
		Category:   activity.ActivityCategory,
		Timestamp:  time.Now().UTC(),
	})
}

// BrowserSummary returns aggregated browsing stats for a client over a date
// range, defaulting to the last 7 days.
func (h *TrackingHandler) BrowserSummary(ctx *gin.Context) {
	clientID := ctx.Param("clientId")

	known, err := h.clientService.Exists(ctx.Request.Context(), clientID)
	if err != nil {
		slog.Error("Browser summary error", "client_id", clientID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}
	if !known {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}

	end := time.Now()
	start := end.AddDate(0, 0, -7)
	if raw := ctx.Query("start_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date"})
			return
		}
		start = parsed
	}
	if raw := ctx.Query("end_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date"})
			return
		}
		end = parsed
	}

	summary, err := h.trackingService.Summarize(ctx.Request.Context(), clientID, start, end)
	if err != nil {
		slog.Error("Browser summary error", "client_id", clientID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get summary"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"client_id": clientID,
		"period":    gin.H{"start": start, "end": end},
		"summary":   summary,
	})
}

// resolveClientID prefers the body field, then the X-Client-ID header.
func resolveClientID(ctx *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return ctx.GetHeader(clientIDHeader)
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

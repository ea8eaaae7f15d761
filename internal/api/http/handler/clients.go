package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adi-Sumardi/tenjo-server/internal/api/http/dto"
	"github.com/Adi-Sumardi/tenjo-server/internal/clients"
	"github.com/gin-gonic/gin"
)

type ClientsHandler struct {
	clientService *clients.Service
}

func NewClientsHandler(clientService *clients.Service) *ClientsHandler {
	return &ClientsHandler{clientService: clientService}
}

func (h *ClientsHandler) Register(ctx *gin.Context) {
	var req dto.RegisterClientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, created, err := h.clientService.Register(ctx.Request.Context(), clients.RegisterInput{
		ClientID:  req.ClientID,
		Hostname:  req.Hostname,
		IPAddress: req.IPAddress,
		Username:  req.Username,
		OsInfo:    req.OsInfo,
		Timezone:  req.Timezone,
	})
	if err != nil {
		slog.Error("Client registration failed",
			"client_id", req.ClientID,
			"hostname", req.Hostname,
			"error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	status := http.StatusOK
	message := "Client already registered and updated"
	if created {
		status = http.StatusCreated
		message = "Client registered successfully"
	}
	ctx.JSON(status, dto.RegisterClientResponse{
		Success:  true,
		ClientID: client.ClientID,
		Message:  message,
	})
}

func (h *ClientsHandler) Heartbeat(ctx *gin.Context) {
	var req dto.HeartbeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.clientService.Heartbeat(ctx.Request.Context(), req.ClientID); err != nil {
		if errors.Is(err, clients.ErrClientNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		slog.Error("Heartbeat failed", "client_id", req.ClientID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Heartbeat received"})
}

func (h *ClientsHandler) List(ctx *gin.Context) {
	infos, err := h.clientService.List(ctx.Request.Context())
	if err != nil {
		slog.Error("Failed to list clients", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	ctx.JSON(http.StatusOK, dto.ClientListResponse{Clients: infos, Count: len(infos)})
}

func (h *ClientsHandler) Show(ctx *gin.Context) {
	clientID := ctx.Param("clientId")

	info, err := h.clientService.Get(ctx.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, clients.ErrClientNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		slog.Error("Failed to get client", "client_id", clientID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	ctx.JSON(http.StatusOK, info)
}

func (h *ClientsHandler) UpdateUsername(ctx *gin.Context) {
	clientID := ctx.Param("clientId")

	var req dto.UpdateUsernameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.clientService.UpdateUsername(ctx.Request.Context(), clientID, req.CustomUsername); err != nil {
		if errors.Is(err, clients.ErrClientNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		slog.Error("Failed to update username", "client_id", clientID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Username updated"})
}

func (h *ClientsHandler) Delete(ctx *gin.Context) {
	clientID := ctx.Param("clientId")

	if err := h.clientService.Delete(ctx.Request.Context(), clientID); err != nil {
		if errors.Is(err, clients.ErrClientNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		slog.Error("Failed to delete client", "client_id", clientID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Client deleted"})
}

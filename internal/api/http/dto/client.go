package dto

import "github.com/Adi-Sumardi/tenjo-server/internal/clients"

type RegisterClientRequest struct {
	ClientID  string         `json:"client_id"`
	Hostname  string         `json:"hostname" binding:"required"`
	IPAddress string         `json:"ip_address" binding:"required,ip"`
	Username  string         `json:"username" binding:"required"`
	OsInfo    map[string]any `json:"os_info" binding:"required"`
	Timezone  string         `json:"timezone"`
}

type RegisterClientResponse struct {
	Success  bool   `json:"success"`
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

type HeartbeatRequest struct {
	ClientID string `json:"client_id" binding:"required"`
	Status   string `json:"status" binding:"omitempty,oneof=active inactive"`
}

type ClientListResponse struct {
	Clients []clients.ClientInfo `json:"clients"`
	Count   int                  `json:"count"`
}

type UpdateUsernameRequest struct {
	CustomUsername string `json:"custom_username" binding:"required"`
}

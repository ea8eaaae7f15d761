package http

import (
	"github.com/Adi-Sumardi/tenjo-server/internal/api/http/handler"
	"github.com/Adi-Sumardi/tenjo-server/internal/api/http/middleware"
	"github.com/Adi-Sumardi/tenjo-server/internal/clients"
	"github.com/Adi-Sumardi/tenjo-server/internal/tracking"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Clients  *clients.Service
	Tracking *tracking.Service
}

func SetupRoute(engine *gin.Engine, srvs *Services) {
	engine.Use(middleware.RequestLogger())

	healthHandler := handler.NewHealthHandler()
	engine.GET("/health", healthHandler.Check)

	api := engine.Group("/api")

	clientsHandler := handler.NewClientsHandler(srvs.Clients)
	clientRoutes := api.Group("/clients")
	clientRoutes.POST("/register", clientsHandler.Register)
	clientRoutes.POST("/heartbeat", clientsHandler.Heartbeat)
	clientRoutes.GET("", clientsHandler.List)
	clientRoutes.GET("/:clientId", clientsHandler.Show)
	clientRoutes.PUT("/:clientId/username", clientsHandler.UpdateUsername)
	clientRoutes.DELETE("/:clientId", clientsHandler.Delete)

	trackingHandler := handler.NewTrackingHandler(srvs.Tracking, srvs.Clients)
	api.POST("/browser-tracking", trackingHandler.StoreBrowserTracking)
	api.GET("/browser-tracking/:clientId/summary", trackingHandler.BrowserSummary)
	api.POST("/browser-sessions", trackingHandler.StoreBrowserSession)
	api.POST("/url-activities", trackingHandler.StoreURLActivity)
}

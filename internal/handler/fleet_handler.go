package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"boat-safety-go/internal/fleet"
	"boat-safety-go/internal/service"
	"boat-safety-go/pkg/models"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// FleetHandler serves the fleet safety REST API.
type FleetHandler struct {
	fleetService *service.FleetService
	hub          *service.AlertHub
	dbCheck      func() error
	logger       *logrus.Logger
}

// NewFleetHandler creates a FleetHandler. dbCheck may be nil when storage is
// disabled.
func NewFleetHandler(fleetService *service.FleetService, hub *service.AlertHub, dbCheck func() error, logger *logrus.Logger) *FleetHandler {
	return &FleetHandler{
		fleetService: fleetService,
		hub:          hub,
		dbCheck:      dbCheck,
		logger:       logger,
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (h *FleetHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/boats", h.ReplaceBoats)
		api.GET("/boats", h.ListBoats)
		api.PUT("/boats/:id", h.UpsertBoat)
		api.DELETE("/boats/:id", h.RemoveBoat)
		api.POST("/boats/:id/undock", h.RequestUndocking)
		api.POST("/boats/:id/dock", h.RequestDocking)
		api.GET("/boats/:id/recommended-dock", h.RecommendedDock)

		api.PUT("/docks", h.ReplaceDocks)
		api.GET("/docks", h.ListDocks)
		api.PUT("/routes", h.ReplaceRoutes)
		api.GET("/routes", h.ListRoutes)

		api.GET("/alerts", h.DetectAlerts)
		api.GET("/alerts/latest", h.LatestAlerts)
		api.GET("/alerts/stream", h.StreamAlerts)

		api.GET("/status", h.Status)
		api.GET("/health", h.CheckHealth)
	}
}

// UndockRequest is the body of an undocking request.
type UndockRequest struct {
	DockID *int `json:"dock_id" binding:"required"`
}

// ReplaceBoats replaces the whole fleet with the posted array.
func (h *FleetHandler) ReplaceBoats(c *gin.Context) {
	var boats []models.BoatState
	if err := c.ShouldBindJSON(&boats); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid boat array: " + err.Error()})
		return
	}
	if err := h.fleetService.UpdateBoatStates(boats); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(boats)})
}

func (h *FleetHandler) ListBoats(c *gin.Context) {
	boats := h.fleetService.Boats()
	c.JSON(http.StatusOK, gin.H{"boats": boats, "total": len(boats)})
}

// UpsertBoat updates a single vessel. The body sysid, when present, must
// match the path.
func (h *FleetHandler) UpsertBoat(c *gin.Context) {
	id, ok := h.boatID(c)
	if !ok {
		return
	}
	var boat models.BoatState
	if err := c.ShouldBindJSON(&boat); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid boat state: " + err.Error()})
		return
	}
	if boat.SysID == 0 {
		boat.SysID = id
	}
	if boat.SysID != id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sysid does not match path"})
		return
	}
	if err := h.fleetService.UpdateBoatState(boat); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, boat)
}

func (h *FleetHandler) RemoveBoat(c *gin.Context) {
	id, ok := h.boatID(c)
	if !ok {
		return
	}
	if err := h.fleetService.RemoveBoat(id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FleetHandler) RequestUndocking(c *gin.Context) {
	id, ok := h.boatID(c)
	if !ok {
		return
	}
	var req UndockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dock_id is required"})
		return
	}
	decision, err := h.fleetService.RequestUndocking(id, *req.DockID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h *FleetHandler) RequestDocking(c *gin.Context) {
	id, ok := h.boatID(c)
	if !ok {
		return
	}
	decision, err := h.fleetService.RequestDocking(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h *FleetHandler) RecommendedDock(c *gin.Context) {
	id, ok := h.boatID(c)
	if !ok {
		return
	}
	dock, err := h.fleetService.RecommendedDock(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dock)
}

func (h *FleetHandler) ReplaceDocks(c *gin.Context) {
	var docks []models.DockInfo
	if err := c.ShouldBindJSON(&docks); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dock array: " + err.Error()})
		return
	}
	if err := h.fleetService.InitializeDocks(c.Request.Context(), docks); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(docks)})
}

func (h *FleetHandler) ListDocks(c *gin.Context) {
	docks := h.fleetService.Docks()
	c.JSON(http.StatusOK, gin.H{"docks": docks, "total": len(docks)})
}

func (h *FleetHandler) ReplaceRoutes(c *gin.Context) {
	var routes []models.RouteInfo
	if err := c.ShouldBindJSON(&routes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid route array: " + err.Error()})
		return
	}
	if err := h.fleetService.InitializeRoutes(c.Request.Context(), routes); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(routes)})
}

func (h *FleetHandler) ListRoutes(c *gin.Context) {
	routes := h.fleetService.Routes()
	c.JSON(http.StatusOK, gin.H{"routes": routes, "total": len(routes)})
}

// DetectAlerts runs a detection pass on demand.
func (h *FleetHandler) DetectAlerts(c *gin.Context) {
	alerts := h.fleetService.DetectCollisions()
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "total": len(alerts)})
}

// LatestAlerts returns the monitor's most recent batch.
func (h *FleetHandler) LatestAlerts(c *gin.Context) {
	batch, ok := h.fleetService.LatestAlerts()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no scan completed yet"})
		return
	}
	c.JSON(http.StatusOK, batch)
}

// StreamAlerts pushes alert batches as server-sent events until the client
// disconnects or the hub shuts down.
func (h *FleetHandler) StreamAlerts(c *gin.Context) {
	batches, unsubscribe := h.hub.Subscribe(16)
	defer unsubscribe()

	h.logger.Infof("Alert stream opened by %s", c.ClientIP())
	c.Stream(func(w io.Writer) bool {
		select {
		case batch, ok := <-batches:
			if !ok {
				return false
			}
			c.SSEvent("alerts", batch)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
	h.logger.Infof("Alert stream closed by %s", c.ClientIP())
}

func (h *FleetHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.fleetService.Status())
}

// CheckHealth reports unhealthy while the monitor is down or storage is
// unreachable.
func (h *FleetHandler) CheckHealth(c *gin.Context) {
	resp := models.HealthResponse{
		Status:        "healthy",
		MonitorActive: h.fleetService.MonitorActive(),
		Version:       Version,
	}

	if !resp.MonitorActive {
		resp.Status = "unhealthy"
	}
	if h.dbCheck != nil {
		if err := h.dbCheck(); err != nil {
			h.logger.Errorf("Database health check failed: %v", err)
			resp.Status = "unhealthy"
		}
	}

	statusCode := http.StatusOK
	if resp.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, resp)
}

func (h *FleetHandler) boatID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "boat id must be a positive integer"})
		return 0, false
	}
	return id, true
}

// fail maps service errors onto HTTP status codes.
func (h *FleetHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidBoat), errors.Is(err, service.ErrInvalidRoute):
		status = http.StatusBadRequest
	case errors.Is(err, fleet.ErrFleetFull):
		status = http.StatusConflict
	case errors.Is(err, fleet.ErrUnknownBoat), errors.Is(err, service.ErrUnknownDock), errors.Is(err, service.ErrNoDocks):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	} else {
		h.logger.Warnf("%s %s rejected: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

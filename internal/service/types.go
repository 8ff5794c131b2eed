package service

import (
	"time"

	"boat-safety-go/internal/monitor"
)

// VesselRouteStatus describes how far a vessel sits from the nearest route
// of its assigned direction.
type VesselRouteStatus struct {
	SysID    int     `json:"sysid"`
	RouteID  int     `json:"route_id"`
	Segment  int     `json:"segment"`
	OffsetM  float64 `json:"offset_m"`
	OffRoute bool    `json:"off_route"`
	NoRoute  bool    `json:"no_route,omitempty"` // no route registered for the vessel's direction
}

// StatusReport is the fleet safety summary.
type StatusReport struct {
	GeneratedAt   time.Time           `json:"generated_at"`
	BoatCount     int                 `json:"boat_count"`
	BoatsByStatus map[string]int      `json:"boats_by_status"`
	AlertsByLevel map[string]int      `json:"alerts_by_level"`
	DockCount     int                 `json:"dock_count"`
	RouteCount    int                 `json:"route_count"`
	MonitorActive bool                `json:"monitor_active"`
	Monitor       *monitor.Stats      `json:"monitor,omitempty"`
	Vessels       []VesselRouteStatus `json:"vessels"`
}

// HubStats counts alert fan-out activity.
type HubStats struct {
	Delivered       uint64 `json:"delivered"`
	Published       uint64 `json:"published"`
	PublishFailures uint64 `json:"publish_failures"`
	Subscribers     int    `json:"subscribers"`
}

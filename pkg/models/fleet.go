package models

import (
	"fmt"
	"time"
)

// GeoPoint is a WGS-84 coordinate in decimal degrees. The collision-time
// primitive also uses it as a per-second velocity vector in the same units.
type GeoPoint struct {
	Lat float64 `json:"lat"` // Latitude
	Lng float64 `json:"lng"` // Longitude
}

// BoatStatus is the manoeuvre a vessel is currently performing.
type BoatStatus int

const (
	StatusUndocking  BoatStatus = 1 // leaving a dock
	StatusNormalSail BoatStatus = 2 // sailing on a route
	StatusDocking    BoatStatus = 3 // approaching a dock
)

// String returns the wire name of the status.
func (s BoatStatus) String() string {
	switch s {
	case StatusUndocking:
		return "UNDOCKING"
	case StatusNormalSail:
		return "NORMAL_SAIL"
	case StatusDocking:
		return "DOCKING"
	default:
		return fmt.Sprintf("BoatStatus(%d)", int(s))
	}
}

// Valid reports whether s is one of the known statuses.
func (s BoatStatus) Valid() bool {
	return s == StatusUndocking || s == StatusNormalSail || s == StatusDocking
}

// Priority returns the right-of-way rank of the status. Docking vessels
// outrank sailing vessels, which outrank undocking vessels.
func (s BoatStatus) Priority() int {
	switch s {
	case StatusDocking:
		return 3
	case StatusNormalSail:
		return 2
	case StatusUndocking:
		return 1
	default:
		return 0
	}
}

// RouteDirection is the patrol direction a vessel is assigned to.
type RouteDirection int

const (
	Clockwise        RouteDirection = 1
	Counterclockwise RouteDirection = 2
)

// String returns the wire name of the direction.
func (d RouteDirection) String() string {
	switch d {
	case Clockwise:
		return "CLOCKWISE"
	case Counterclockwise:
		return "COUNTERCLOCKWISE"
	default:
		return fmt.Sprintf("RouteDirection(%d)", int(d))
	}
}

// Valid reports whether d is one of the known directions.
func (d RouteDirection) Valid() bool {
	return d == Clockwise || d == Counterclockwise
}

// AlertLevel is the severity of a predicted collision.
type AlertLevel int

const (
	LevelNormal    AlertLevel = 0
	LevelWarning   AlertLevel = 1
	LevelEmergency AlertLevel = 2
)

// String returns the wire name of the level.
func (l AlertLevel) String() string {
	switch l {
	case LevelNormal:
		return "NORMAL"
	case LevelWarning:
		return "WARNING"
	case LevelEmergency:
		return "EMERGENCY"
	default:
		return fmt.Sprintf("AlertLevel(%d)", int(l))
	}
}

// BoatState is the latest dynamic report of a single vessel.
type BoatState struct {
	SysID          int            `json:"sysid"`           // Vessel system id
	Timestamp      float64        `json:"timestamp"`       // Unix seconds
	Lat            float64        `json:"lat"`             // Latitude
	Lng            float64        `json:"lng"`             // Longitude
	Heading        float64        `json:"heading"`         // Degrees, 0 = north, clockwise
	Speed          float64        `json:"speed"`           // m/s
	Status         BoatStatus     `json:"status"`          // Manoeuvre in progress
	RouteDirection RouteDirection `json:"route_direction"` // Assigned patrol direction
}

// Position returns the vessel position.
func (b BoatState) Position() GeoPoint {
	return GeoPoint{Lat: b.Lat, Lng: b.Lng}
}

// Validate checks field ranges. It is called at the ingestion boundary; the
// detection core assumes validated input.
func (b BoatState) Validate() error {
	if b.SysID <= 0 {
		return fmt.Errorf("sysid must be positive, got %d", b.SysID)
	}
	if b.Lat < -90 || b.Lat > 90 {
		return fmt.Errorf("lat must be in [-90, 90], got %f", b.Lat)
	}
	if b.Lng < -180 || b.Lng > 180 {
		return fmt.Errorf("lng must be in [-180, 180], got %f", b.Lng)
	}
	if b.Heading < 0 || b.Heading >= 360 {
		return fmt.Errorf("heading must be in [0, 360), got %f", b.Heading)
	}
	if b.Speed < 0 {
		return fmt.Errorf("speed must be non-negative, got %f", b.Speed)
	}
	if !b.Status.Valid() {
		return fmt.Errorf("unknown status %d", int(b.Status))
	}
	if !b.RouteDirection.Valid() {
		return fmt.Errorf("unknown route_direction %d", int(b.RouteDirection))
	}
	return nil
}

// DockInfo is a static dock location.
type DockInfo struct {
	DockID int     `json:"dock_id"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// Position returns the dock position.
func (d DockInfo) Position() GeoPoint {
	return GeoPoint{Lat: d.Lat, Lng: d.Lng}
}

// RouteInfo is a static patrol polyline.
type RouteInfo struct {
	RouteID   int            `json:"route_id"`
	Direction RouteDirection `json:"direction"`
	Points    []GeoPoint     `json:"points"`
}

// BoatDimensions holds the hull size shared by every vessel in the fleet.
type BoatDimensions struct {
	Length float64 `json:"length" mapstructure:"length"` // metres
	Width  float64 `json:"width" mapstructure:"width"`   // metres
}

// SystemConfig holds the detection parameters. A detector keeps the value it
// was built with for its whole lifetime.
type SystemConfig struct {
	Boat                BoatDimensions `json:"boat" mapstructure:"boat"`
	EmergencyThresholdS float64        `json:"emergency_threshold_s" mapstructure:"emergency_threshold_s"`
	WarningThresholdS   float64        `json:"warning_threshold_s" mapstructure:"warning_threshold_s"`
	MaxBoats            int            `json:"max_boats" mapstructure:"max_boats"`
	MinRouteGapM        float64        `json:"min_route_gap_m" mapstructure:"min_route_gap_m"`
}

// DefaultSystemConfig returns the reference harbour configuration.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		Boat:                BoatDimensions{Length: 0.75, Width: 0.47},
		EmergencyThresholdS: 5.0,
		WarningThresholdS:   30.0,
		MaxBoats:            30,
		MinRouteGapM:        10.0,
	}
}

// CollisionAlert is a point-in-time collision prediction for one vessel.
type CollisionAlert struct {
	Level             AlertLevel `json:"level"`
	CurrentBoatID     int        `json:"current_boat_id"`
	FrontBoatIDs      []int      `json:"front_boat_ids"`    // nearest vessel ahead, at most one
	OncomingBoatIDs   []int      `json:"oncoming_boat_ids"` // every oncoming vessel on a collision course
	CollisionPosition GeoPoint   `json:"collision_position"`
	CollisionTime     float64    `json:"collision_time"` // seconds
	CurrentHeading    float64    `json:"current_heading"`
	OtherHeading      float64    `json:"other_heading"`
	DecisionAdvice    string     `json:"decision_advice"`
}

// AlertBatch groups the alerts produced by one detection tick.
type AlertBatch struct {
	ScanID      string           `json:"scan_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Alerts      []CollisionAlert `json:"alerts"`
}

// AdmissionDecision is the answer to an undocking or docking request.
type AdmissionDecision struct {
	ID        string    `json:"id"`
	BoatID    int       `json:"boat_id"`
	DockID    int       `json:"dock_id"`
	Granted   bool      `json:"granted"`
	Reason    string    `json:"reason"`
	DecidedAt time.Time `json:"decided_at"`
}

// HealthResponse describes the service state.
type HealthResponse struct {
	Status        string `json:"status"`         // healthy/unhealthy
	MonitorActive bool   `json:"monitor_active"` // safety loop running
	Version       string `json:"version"`
}

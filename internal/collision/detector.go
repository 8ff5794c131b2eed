// Package collision predicts and classifies collision risk across the fleet.
package collision

import (
	"boat-safety-go/internal/fleet"
	"boat-safety-go/internal/geo"
	"boat-safety-go/pkg/models"
)

const (
	// frontConeDeg is the half-angle around a vessel's heading in which
	// another vessel counts as ahead.
	frontConeDeg = 45.0
	// oncomingMinDiffDeg is the smallest heading difference treated as
	// opposing traffic (45 degrees of tolerance around exact opposition).
	oncomingMinDiffDeg = 135.0
)

// Detector runs the collision passes over a fleet State. Its configuration
// is fixed at construction.
type Detector struct {
	cfg   models.SystemConfig
	state *fleet.State
}

// NewDetector creates a Detector with its own empty fleet state.
func NewDetector(cfg models.SystemConfig) *Detector {
	return NewDetectorWithState(cfg, fleet.NewState(cfg.MaxBoats))
}

// NewDetectorWithState creates a Detector reading from an existing State.
func NewDetectorWithState(cfg models.SystemConfig, state *fleet.State) *Detector {
	return &Detector{cfg: cfg, state: state}
}

// Config returns the detector configuration.
func (d *Detector) Config() models.SystemConfig {
	return d.cfg
}

// State returns the fleet state the detector reads.
func (d *Detector) State() *fleet.State {
	return d.state
}

// UpdateBoatStates replaces the tracked vessels wholesale.
func (d *Detector) UpdateBoatStates(boats []models.BoatState) error {
	return d.state.ReplaceBoats(boats)
}

// SetDockInfo replaces the dock list.
func (d *Detector) SetDockInfo(docks []models.DockInfo) {
	d.state.SetDocks(docks)
}

// SetRouteInfo replaces the route list.
func (d *Detector) SetRouteInfo(routes []models.RouteInfo) {
	d.state.SetRoutes(routes)
}

// CollisionRadius is the safety radius used for every pair: twice the hull
// length.
func (d *Detector) CollisionRadius() float64 {
	return 2 * d.cfg.Boat.Length
}

// DetectCollisions runs every pass against a fresh snapshot of the fleet.
func (d *Detector) DetectCollisions() []models.CollisionAlert {
	return d.Detect(d.state.Snapshot())
}

// Detect runs the undocking, docking, following and oncoming passes over snap
// and concatenates their alerts in that order. A vessel matching several
// patterns appears once per pass.
func (d *Detector) Detect(snap fleet.Snapshot) []models.CollisionAlert {
	alerts := make([]models.CollisionAlert, 0)
	alerts = append(alerts, d.detectUndocking(snap)...)
	alerts = append(alerts, d.detectDocking(snap)...)
	alerts = append(alerts, d.detectFollowing(snap)...)
	alerts = append(alerts, d.detectOncoming(snap)...)
	return alerts
}

// SameRoute reports whether two vessels share a route grouping. Only the
// route direction is compared.
func SameRoute(b1, b2 models.BoatState) bool {
	return b1.RouteDirection == b2.RouteDirection
}

// Oncoming reports whether two vessels on different route groupings are
// heading within 45 degrees of exactly opposite directions.
func Oncoming(b1, b2 models.BoatState) bool {
	if SameRoute(b1, b2) {
		return false
	}
	return geo.AngleDifference(b1.Heading, b2.Heading) >= oncomingMinDiffDeg
}

// InFrontCone reports whether other lies ahead of boat.
func InFrontCone(boat, other models.BoatState) bool {
	bearing := geo.Bearing(boat.Position(), other.Position())
	return geo.AngleDifference(boat.Heading, bearing) < frontConeDeg
}

type encounter struct {
	other models.BoatState
	time  float64
}

// timeTo predicts when other comes within the safety radius of boat.
func (d *Detector) timeTo(boat, other models.BoatState) float64 {
	p1, p2 := boat.Position(), other.Position()
	return geo.CollisionTime(
		p1, geo.VelocityVector(p1, boat.Heading, boat.Speed),
		p2, geo.VelocityVector(p2, other.Heading, other.Speed),
		d.CollisionRadius(),
	)
}

func (d *Detector) detectUndocking(snap fleet.Snapshot) []models.CollisionAlert {
	var alerts []models.CollisionAlert
	for _, boat := range snap.Boats {
		if boat.Status != models.StatusUndocking {
			continue
		}

		var front, oncoming []encounter
		for _, other := range snap.Boats {
			if other.SysID == boat.SysID {
				continue
			}
			// an undocking vessel yields to anything already under way
			if other.Status != models.StatusDocking && other.Status != models.StatusNormalSail {
				continue
			}
			t := d.timeTo(boat, other)
			if !geo.HasCollision(t) {
				continue
			}
			if Oncoming(boat, other) {
				oncoming = append(oncoming, encounter{other, t})
			} else {
				front = append(front, encounter{other, t})
			}
		}

		if alert, ok := d.buildAlert(boat, front, oncoming); ok {
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

func (d *Detector) detectDocking(snap fleet.Snapshot) []models.CollisionAlert {
	var alerts []models.CollisionAlert
	for _, boat := range snap.Boats {
		if boat.Status != models.StatusDocking {
			continue
		}

		var front []encounter
		for _, other := range snap.Boats {
			if other.SysID == boat.SysID || !SameRoute(boat, other) {
				continue
			}
			if t := d.timeTo(boat, other); geo.HasCollision(t) {
				front = append(front, encounter{other, t})
			}
		}

		if alert, ok := d.buildAlert(boat, front, nil); ok {
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

func (d *Detector) detectFollowing(snap fleet.Snapshot) []models.CollisionAlert {
	var alerts []models.CollisionAlert
	for _, boat := range snap.Boats {
		if boat.Status != models.StatusNormalSail {
			continue
		}

		var front []encounter
		for _, other := range snap.Boats {
			if other.SysID == boat.SysID {
				continue
			}
			if !SameRoute(boat, other) || Oncoming(boat, other) || !InFrontCone(boat, other) {
				continue
			}
			if t := d.timeTo(boat, other); geo.HasCollision(t) {
				front = append(front, encounter{other, t})
			}
		}

		if alert, ok := d.buildAlert(boat, front, nil); ok {
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

func (d *Detector) detectOncoming(snap fleet.Snapshot) []models.CollisionAlert {
	var alerts []models.CollisionAlert
	for _, boat := range snap.Boats {
		if boat.Status != models.StatusNormalSail {
			continue
		}

		var oncoming []encounter
		for _, other := range snap.Boats {
			if other.SysID == boat.SysID || !Oncoming(boat, other) {
				continue
			}
			if t := d.timeTo(boat, other); geo.HasCollision(t) {
				oncoming = append(oncoming, encounter{other, t})
			}
		}

		if alert, ok := d.buildAlert(boat, nil, oncoming); ok {
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

// buildAlert turns the encounters of one vessel into an alert. Only the
// nearest front encounter is reported; every oncoming encounter is. Time,
// position, counterpart heading and advice follow the most imminent
// encounter, which also carries the most severe level.
func (d *Detector) buildAlert(boat models.BoatState, front, oncoming []encounter) (models.CollisionAlert, bool) {
	alert := models.CollisionAlert{
		Level:           models.LevelNormal,
		CurrentBoatID:   boat.SysID,
		FrontBoatIDs:    []int{},
		OncomingBoatIDs: []int{},
		CurrentHeading:  boat.Heading,
	}

	var nearest *encounter
	consider := func(e *encounter) {
		alert.Level = MoreSevere(alert.Level, AlertLevelFor(e.time, d.cfg))
		if nearest == nil || e.time < nearest.time {
			nearest = e
		}
	}

	var nearestFront *encounter
	for i := range front {
		if nearestFront == nil || front[i].time < nearestFront.time {
			nearestFront = &front[i]
		}
	}
	if nearestFront != nil {
		alert.FrontBoatIDs = append(alert.FrontBoatIDs, nearestFront.other.SysID)
		consider(nearestFront)
	}
	for i := range oncoming {
		alert.OncomingBoatIDs = append(alert.OncomingBoatIDs, oncoming[i].other.SysID)
		consider(&oncoming[i])
	}

	// no counterpart on a collision course: the vessel is safe
	if nearest == nil {
		return models.CollisionAlert{}, false
	}

	alert.CollisionTime = nearest.time
	alert.CollisionPosition = geo.Destination(boat.Position(), boat.Heading, boat.Speed*nearest.time)
	alert.OtherHeading = nearest.other.Heading
	alert.DecisionAdvice = DecisionAdvice(alert, boat.Status, nearest.other.Status)
	return alert, true
}

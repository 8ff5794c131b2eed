package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"boat-safety-go/internal/collision"
	"boat-safety-go/internal/fleet"
	"boat-safety-go/internal/geo"
	"boat-safety-go/internal/model"
	"boat-safety-go/internal/monitor"
	"boat-safety-go/internal/repository"
	"boat-safety-go/pkg/models"
)

var (
	ErrInvalidBoat  = errors.New("invalid boat state")
	ErrInvalidRoute = errors.New("invalid route")
	ErrUnknownDock  = errors.New("unknown dock")
	ErrNoDocks      = errors.New("no dock available")
)

// Admission reasons.
const (
	ReasonClear          = "no collision risk"
	ReasonDockingPrecede = "docking vessels have right of way"
	ReasonNoDock         = "no dock available"
)

// MonitorView is the part of the safety monitor the service reads.
type MonitorView interface {
	Latest() (models.AlertBatch, bool)
	Period() time.Duration
	Stats() monitor.Stats
	Running() bool
}

// FleetService ties fleet state, detection, admission and static dock/route
// storage together.
type FleetService struct {
	detector  *collision.Detector
	dockRepo  repository.DockRepository
	routeRepo repository.RouteRepository
	monitor   MonitorView
	logger    *logrus.Logger
	now       func() time.Time
}

// NewFleetService creates a FleetService. The repositories may be nil, in
// which case docks and routes live in memory only.
func NewFleetService(detector *collision.Detector, dockRepo repository.DockRepository, routeRepo repository.RouteRepository, logger *logrus.Logger) *FleetService {
	return &FleetService{
		detector:  detector,
		dockRepo:  dockRepo,
		routeRepo: routeRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// AttachMonitor lets admission and status reuse the monitor's latest scan.
func (s *FleetService) AttachMonitor(m MonitorView) {
	s.monitor = m
}

// MonitorActive reports whether an attached monitor loop is running.
func (s *FleetService) MonitorActive() bool {
	return s.monitor != nil && s.monitor.Running()
}

// Config returns the detection parameters in force.
func (s *FleetService) Config() models.SystemConfig {
	return s.detector.Config()
}

// UpdateBoatStates validates boats and replaces the fleet with them.
func (s *FleetService) UpdateBoatStates(boats []models.BoatState) error {
	for _, b := range boats {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%w: boat %d: %v", ErrInvalidBoat, b.SysID, err)
		}
	}
	if err := s.detector.UpdateBoatStates(boats); err != nil {
		s.logger.Warnf("Rejected fleet update of %d boats: %v", len(boats), err)
		return err
	}
	return nil
}

// UpdateBoatState validates b and upserts it, leaving other vessels as they are.
func (s *FleetService) UpdateBoatState(b models.BoatState) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%w: boat %d: %v", ErrInvalidBoat, b.SysID, err)
	}
	return s.detector.State().UpsertBoat(b)
}

// RemoveBoat stops tracking a vessel.
func (s *FleetService) RemoveBoat(id int) error {
	if err := s.detector.State().RemoveBoat(id); err != nil {
		return err
	}
	s.logger.Infof("Boat %d removed from fleet", id)
	return nil
}

// Boats returns the tracked vessels ordered by id.
func (s *FleetService) Boats() []models.BoatState {
	return s.detector.State().Snapshot().Boats
}

func (s *FleetService) Docks() []models.DockInfo {
	return s.detector.State().Snapshot().Docks
}

func (s *FleetService) Routes() []models.RouteInfo {
	return s.detector.State().Snapshot().Routes
}

// InitializeDocks persists docks, when storage is configured, and replaces
// the in-memory list.
func (s *FleetService) InitializeDocks(ctx context.Context, docks []models.DockInfo) error {
	if s.dockRepo != nil {
		records := make([]model.Dock, 0, len(docks))
		for _, d := range docks {
			records = append(records, model.DockFromInfo(d))
		}
		if err := s.dockRepo.ReplaceAll(ctx, records); err != nil {
			s.logger.Errorf("Failed to store docks: %v", err)
			return fmt.Errorf("failed to store docks: %w", err)
		}
	}
	s.detector.SetDockInfo(docks)
	s.logger.Infof("Dock list replaced, %d docks", len(docks))
	return nil
}

// InitializeRoutes persists routes, when storage is configured, and replaces
// the in-memory list.
func (s *FleetService) InitializeRoutes(ctx context.Context, routes []models.RouteInfo) error {
	for _, r := range routes {
		if !r.Direction.Valid() {
			return fmt.Errorf("%w: route %d: unknown direction %d", ErrInvalidRoute, r.RouteID, int(r.Direction))
		}
	}
	if s.routeRepo != nil {
		records := make([]model.Route, 0, len(routes))
		for _, r := range routes {
			records = append(records, model.RouteFromInfo(r))
		}
		if err := s.routeRepo.ReplaceAll(ctx, records); err != nil {
			s.logger.Errorf("Failed to store routes: %v", err)
			return fmt.Errorf("failed to store routes: %w", err)
		}
	}
	s.detector.SetRouteInfo(routes)
	s.logger.Infof("Route list replaced, %d routes", len(routes))
	return nil
}

// LoadStatic fills the in-memory dock and route lists from storage.
func (s *FleetService) LoadStatic(ctx context.Context) error {
	if s.dockRepo != nil {
		records, err := s.dockRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to load docks: %w", err)
		}
		docks := make([]models.DockInfo, 0, len(records))
		for _, r := range records {
			docks = append(docks, r.Info())
		}
		s.detector.SetDockInfo(docks)
		s.logger.Infof("Loaded %d docks from storage", len(docks))
	}
	if s.routeRepo != nil {
		records, err := s.routeRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to load routes: %w", err)
		}
		routes := make([]models.RouteInfo, 0, len(records))
		for _, r := range records {
			routes = append(routes, r.Info())
		}
		s.detector.SetRouteInfo(routes)
		s.logger.Infof("Loaded %d routes from storage", len(routes))
	}
	return nil
}

// DetectCollisions runs a fresh detection pass.
func (s *FleetService) DetectCollisions() []models.CollisionAlert {
	return s.detector.DetectCollisions()
}

// LatestAlerts returns the monitor's most recent batch.
func (s *FleetService) LatestAlerts() (models.AlertBatch, bool) {
	if s.monitor == nil {
		return models.AlertBatch{}, false
	}
	return s.monitor.Latest()
}

// currentAlerts returns the monitor's latest batch while it is younger than
// two periods, otherwise the result of a fresh pass.
func (s *FleetService) currentAlerts() []models.CollisionAlert {
	if s.monitor != nil {
		if batch, ok := s.monitor.Latest(); ok && s.now().Sub(batch.GeneratedAt) < 2*s.monitor.Period() {
			return batch.Alerts
		}
	}
	return s.detector.DetectCollisions()
}

func (s *FleetService) findDock(dockID int) (models.DockInfo, bool) {
	for _, d := range s.detector.State().Snapshot().Docks {
		if d.DockID == dockID {
			return d, true
		}
	}
	return models.DockInfo{}, false
}

// CanUndock reports whether boatID may leave dockID now. It is denied while
// any alert for the vessel is above NORMAL; the returned reason carries the
// advice of the first such alert.
func (s *FleetService) CanUndock(boatID, dockID int) (bool, string, error) {
	if _, ok := s.detector.State().Boat(boatID); !ok {
		return false, "", fmt.Errorf("boat %d: %w", boatID, fleet.ErrUnknownBoat)
	}
	if _, ok := s.findDock(dockID); !ok {
		return false, "", fmt.Errorf("dock %d: %w", dockID, ErrUnknownDock)
	}

	for _, alert := range s.currentAlerts() {
		if alert.CurrentBoatID == boatID && alert.Level != models.LevelNormal {
			return false, fmt.Sprintf("%s collision risk: %s", alert.Level, alert.DecisionAdvice), nil
		}
	}
	return true, ReasonClear, nil
}

// CanDock always grants a known vessel: docking traffic has right of way and
// other vessels are told to yield through their own alerts.
func (s *FleetService) CanDock(boatID, dockID int) (bool, string, error) {
	if _, ok := s.detector.State().Boat(boatID); !ok {
		return false, "", fmt.Errorf("boat %d: %w", boatID, fleet.ErrUnknownBoat)
	}
	if _, ok := s.findDock(dockID); !ok {
		return false, "", fmt.Errorf("dock %d: %w", dockID, ErrUnknownDock)
	}
	return true, ReasonDockingPrecede, nil
}

// RequestUndocking runs CanUndock and records the decision.
func (s *FleetService) RequestUndocking(boatID, dockID int) (models.AdmissionDecision, error) {
	granted, reason, err := s.CanUndock(boatID, dockID)
	if err != nil {
		return models.AdmissionDecision{}, err
	}
	return s.decide("undock", boatID, dockID, granted, reason), nil
}

// RequestDocking assigns the nearest dock and runs CanDock. With no docks
// registered the request is denied rather than failed.
func (s *FleetService) RequestDocking(boatID int) (models.AdmissionDecision, error) {
	dock, err := s.RecommendedDock(boatID)
	if errors.Is(err, ErrNoDocks) {
		return s.decide("dock", boatID, 0, false, ReasonNoDock), nil
	}
	if err != nil {
		return models.AdmissionDecision{}, err
	}

	granted, reason, err := s.CanDock(boatID, dock.DockID)
	if err != nil {
		return models.AdmissionDecision{}, err
	}
	return s.decide("dock", boatID, dock.DockID, granted, reason), nil
}

func (s *FleetService) decide(kind string, boatID, dockID int, granted bool, reason string) models.AdmissionDecision {
	decision := models.AdmissionDecision{
		ID:        uuid.NewString(),
		BoatID:    boatID,
		DockID:    dockID,
		Granted:   granted,
		Reason:    reason,
		DecidedAt: s.now().UTC(),
	}
	s.logger.WithFields(logrus.Fields{
		"decision_id": decision.ID,
		"request":     kind,
		"boat_id":     boatID,
		"dock_id":     dockID,
		"granted":     granted,
	}).Info(reason)
	return decision
}

// RecommendedDock returns the dock nearest to the vessel.
func (s *FleetService) RecommendedDock(boatID int) (models.DockInfo, error) {
	snap := s.detector.State().Snapshot()
	boat, ok := snap.Boat(boatID)
	if !ok {
		return models.DockInfo{}, fmt.Errorf("boat %d: %w", boatID, fleet.ErrUnknownBoat)
	}
	if len(snap.Docks) == 0 {
		return models.DockInfo{}, ErrNoDocks
	}

	best := snap.Docks[0]
	bestDist := math.Inf(1)
	for _, d := range snap.Docks {
		if dist := geo.Distance(boat.Position(), d.Position()); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best, nil
}

// Status builds the fleet safety summary. A vessel is off route when its
// lateral offset from the nearest route of its direction exceeds the
// configured minimum route gap.
func (s *FleetService) Status() StatusReport {
	snap := s.detector.State().Snapshot()
	cfg := s.detector.Config()

	report := StatusReport{
		GeneratedAt:   s.now().UTC(),
		BoatCount:     len(snap.Boats),
		BoatsByStatus: make(map[string]int),
		AlertsByLevel: make(map[string]int),
		DockCount:     len(snap.Docks),
		RouteCount:    len(snap.Routes),
		Vessels:       make([]VesselRouteStatus, 0, len(snap.Boats)),
	}

	for _, b := range snap.Boats {
		report.BoatsByStatus[b.Status.String()]++
		report.Vessels = append(report.Vessels, routeStatus(b, snap.Routes, cfg.MinRouteGapM))
	}
	for _, a := range s.currentAlerts() {
		report.AlertsByLevel[a.Level.String()]++
	}

	if s.monitor != nil {
		stats := s.monitor.Stats()
		report.Monitor = &stats
		report.MonitorActive = s.monitor.Running()
	}
	return report
}

func routeStatus(b models.BoatState, routes []models.RouteInfo, gap float64) VesselRouteStatus {
	status := VesselRouteStatus{SysID: b.SysID, Segment: -1, NoRoute: true}
	best := math.Inf(1)
	for _, r := range routes {
		if r.Direction != b.RouteDirection || len(r.Points) == 0 {
			continue
		}
		if d, seg := geo.DistanceToRoute(b.Position(), r.Points); d < best {
			best = d
			status.RouteID = r.RouteID
			status.Segment = seg
			status.NoRoute = false
		}
	}
	if !status.NoRoute {
		status.OffsetM = best
		status.OffRoute = best > gap
	}
	return status
}

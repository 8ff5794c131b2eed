// Package fleet holds the authoritative, concurrently updated picture of the
// fleet: the latest report per vessel plus the static dock and route lists.
package fleet

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"boat-safety-go/pkg/models"
)

var (
	// ErrFleetFull is returned when a new vessel would exceed max_boats.
	ErrFleetFull = errors.New("fleet is at capacity")
	// ErrUnknownBoat is returned when a vessel id is not tracked.
	ErrUnknownBoat = errors.New("unknown boat")
)

// Snapshot is an internally consistent copy of the fleet state. Boats are
// ordered by sysid. A Snapshot shares no memory with the State it came from.
type Snapshot struct {
	Boats  []models.BoatState
	Docks  []models.DockInfo
	Routes []models.RouteInfo
}

// Boat returns the vessel with the given id from the snapshot.
func (s Snapshot) Boat(id int) (models.BoatState, bool) {
	i := sort.Search(len(s.Boats), func(i int) bool { return s.Boats[i].SysID >= id })
	if i < len(s.Boats) && s.Boats[i].SysID == id {
		return s.Boats[i], true
	}
	return models.BoatState{}, false
}

// State is the single synchronization point for fleet data. All writers go
// through its methods; readers take Snapshots.
type State struct {
	mu       sync.RWMutex
	maxBoats int
	boats    map[int]models.BoatState
	docks    []models.DockInfo
	routes   []models.RouteInfo
}

// NewState creates an empty State. maxBoats <= 0 means unlimited.
func NewState(maxBoats int) *State {
	return &State{
		maxBoats: maxBoats,
		boats:    make(map[int]models.BoatState),
	}
}

// ReplaceBoats replaces every tracked vessel with boats. If boats holds the
// same id more than once the last entry wins. The state is left unchanged
// when the distinct ids exceed max_boats.
func (s *State) ReplaceBoats(boats []models.BoatState) error {
	next := make(map[int]models.BoatState, len(boats))
	for _, b := range boats {
		next[b.SysID] = b
	}
	if s.maxBoats > 0 && len(next) > s.maxBoats {
		return fmt.Errorf("%w: %d boats, limit %d", ErrFleetFull, len(next), s.maxBoats)
	}

	s.mu.Lock()
	s.boats = next
	s.mu.Unlock()
	return nil
}

// UpsertBoat stores the latest report for one vessel, keeping the others.
func (s *State) UpsertBoat(b models.BoatState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.boats[b.SysID]; !exists && s.maxBoats > 0 && len(s.boats) >= s.maxBoats {
		return fmt.Errorf("%w: cannot add boat %d, limit %d", ErrFleetFull, b.SysID, s.maxBoats)
	}
	s.boats[b.SysID] = b
	return nil
}

// RemoveBoat stops tracking a vessel.
func (s *State) RemoveBoat(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.boats[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBoat, id)
	}
	delete(s.boats, id)
	return nil
}

// Boat returns the latest report for a vessel.
func (s *State) Boat(id int) (models.BoatState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boats[id]
	return b, ok
}

// SetDocks replaces the dock list.
func (s *State) SetDocks(docks []models.DockInfo) {
	cp := append([]models.DockInfo(nil), docks...)
	s.mu.Lock()
	s.docks = cp
	s.mu.Unlock()
}

// SetRoutes replaces the route list.
func (s *State) SetRoutes(routes []models.RouteInfo) {
	cp := copyRoutes(routes)
	s.mu.Lock()
	s.routes = cp
	s.mu.Unlock()
}

// Len returns the number of tracked vessels.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.boats)
}

// Snapshot copies the current state under the read lock.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	boats := make([]models.BoatState, 0, len(s.boats))
	for _, b := range s.boats {
		boats = append(boats, b)
	}
	docks := append([]models.DockInfo(nil), s.docks...)
	routes := copyRoutes(s.routes)
	s.mu.RUnlock()

	sort.Slice(boats, func(i, j int) bool { return boats[i].SysID < boats[j].SysID })
	return Snapshot{Boats: boats, Docks: docks, Routes: routes}
}

func copyRoutes(routes []models.RouteInfo) []models.RouteInfo {
	if routes == nil {
		return nil
	}
	cp := make([]models.RouteInfo, len(routes))
	for i, r := range routes {
		cp[i] = r
		cp[i].Points = append([]models.GeoPoint(nil), r.Points...)
	}
	return cp
}

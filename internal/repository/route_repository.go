package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"boat-safety-go/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// RouteRepository stores patrol routes.
type RouteRepository interface {
	ReplaceAll(ctx context.Context, routes []model.Route) error
	List(ctx context.Context) ([]model.Route, error)
	GetByID(ctx context.Context, id int) (*model.Route, error)
}

// routeRepository implements RouteRepository on gorm.
type routeRepository struct {
	db *gorm.DB
}

// NewRouteRepository creates a RouteRepository.
func NewRouteRepository(db *gorm.DB) RouteRepository {
	return &routeRepository{
		db: db,
	}
}

// ReplaceAll swaps the stored route set for routes in one transaction.
func (r *routeRepository) ReplaceAll(ctx context.Context, routes []model.Route) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := tx.Where("1 = 1").Delete(&model.RoutePoint{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete route points: %w", err)
	}
	if err := tx.Where("1 = 1").Delete(&model.Route{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete routes: %w", err)
	}

	for i := range routes {
		if err := tx.Omit("Points").Create(&routes[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create route %d: %w", routes[i].ID, err)
		}

		for j := range routes[i].Points {
			routes[i].Points[j].ID = 0
			routes[i].Points[j].RouteID = routes[i].ID
			routes[i].Points[j].Seq = j
		}
		if len(routes[i].Points) == 0 {
			continue
		}
		if err := tx.Create(&routes[i].Points).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create points of route %d: %w", routes[i].ID, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List returns every route ordered by id, points ordered by sequence.
func (r *routeRepository) List(ctx context.Context) ([]model.Route, error) {
	var routes []model.Route
	err := r.db.WithContext(ctx).
		Preload("Points", orderBySeq).
		Order("id ASC").
		Find(&routes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return routes, nil
}

// GetByID returns one route with its points.
func (r *routeRepository) GetByID(ctx context.Context, id int) (*model.Route, error) {
	var route model.Route
	err := r.db.WithContext(ctx).Preload("Points", orderBySeq).Where("id = ?", id).First(&route).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("route %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return &route, nil
}

func orderBySeq(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

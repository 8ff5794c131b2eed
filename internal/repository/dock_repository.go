package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"boat-safety-go/internal/model"
)

// DockRepository stores dock locations.
type DockRepository interface {
	ReplaceAll(ctx context.Context, docks []model.Dock) error
	List(ctx context.Context) ([]model.Dock, error)
	GetByID(ctx context.Context, id int) (*model.Dock, error)
}

type dockRepository struct {
	db *gorm.DB
}

// NewDockRepository creates a DockRepository.
func NewDockRepository(db *gorm.DB) DockRepository {
	return &dockRepository{db: db}
}

// ReplaceAll swaps the stored dock set for docks in one transaction.
func (r *dockRepository) ReplaceAll(ctx context.Context, docks []model.Dock) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := tx.Where("1 = 1").Delete(&model.Dock{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete docks: %w", err)
	}
	if len(docks) > 0 {
		if err := tx.Create(&docks).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create docks: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *dockRepository) List(ctx context.Context) ([]model.Dock, error) {
	var docks []model.Dock
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&docks).Error; err != nil {
		return nil, fmt.Errorf("failed to list docks: %w", err)
	}
	return docks, nil
}

func (r *dockRepository) GetByID(ctx context.Context, id int) (*model.Dock, error) {
	var dock model.Dock
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("dock %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get dock: %w", err)
	}
	return &dock, nil
}

package model

import (
	"time"

	"boat-safety-go/pkg/models"
)

// Dock is a stored dock location.
type Dock struct {
	ID   int     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Lat  float64 `gorm:"not null" json:"lat"`
	Lng  float64 `gorm:"not null" json:"lng"`
	Name string  `gorm:"type:varchar(255)" json:"name"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for Dock.
func (Dock) TableName() string {
	return "docks"
}

func DockFromInfo(d models.DockInfo) Dock {
	return Dock{ID: d.DockID, Lat: d.Lat, Lng: d.Lng}
}

func (d Dock) Info() models.DockInfo {
	return models.DockInfo{DockID: d.ID, Lat: d.Lat, Lng: d.Lng}
}

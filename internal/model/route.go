package model

import (
	"time"

	"boat-safety-go/pkg/models"
)

// Route is a stored patrol polyline.
type Route struct {
	ID        int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Direction int    `gorm:"not null" json:"direction"`
	Name      string `gorm:"type:varchar(255)" json:"name"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Ordered by Seq
	Points []RoutePoint `gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE" json:"points"`
}

// RoutePoint is one vertex of a route.
type RoutePoint struct {
	ID      uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	RouteID int     `gorm:"not null;index" json:"route_id"`
	Seq     int     `gorm:"not null" json:"seq"`
	Lat     float64 `gorm:"not null" json:"lat"`
	Lng     float64 `gorm:"not null" json:"lng"`
}

// TableName sets the table name for Route.
func (Route) TableName() string {
	return "routes"
}

// TableName sets the table name for RoutePoint.
func (RoutePoint) TableName() string {
	return "route_points"
}

// RouteFromInfo converts a domain route into a record.
func RouteFromInfo(r models.RouteInfo) Route {
	rec := Route{ID: r.RouteID, Direction: int(r.Direction)}
	for i, p := range r.Points {
		rec.Points = append(rec.Points, RoutePoint{RouteID: r.RouteID, Seq: i, Lat: p.Lat, Lng: p.Lng})
	}
	return rec
}

// Info converts the record back into a domain route. Points must already be
// ordered by Seq.
func (r Route) Info() models.RouteInfo {
	info := models.RouteInfo{
		RouteID:   r.ID,
		Direction: models.RouteDirection(r.Direction),
		Points:    make([]models.GeoPoint, 0, len(r.Points)),
	}
	for _, p := range r.Points {
		info.Points = append(info.Points, models.GeoPoint{Lat: p.Lat, Lng: p.Lng})
	}
	return info
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boat-safety-go/pkg/models"
)

func TestRouteConversion(t *testing.T) {
	info := models.RouteInfo{
		RouteID:   4,
		Direction: models.Counterclockwise,
		Points:    []models.GeoPoint{{Lat: 30.5498, Lng: 114.3429}, {Lat: 30.5499, Lng: 114.3431}},
	}

	rec := RouteFromInfo(info)
	require.Len(t, rec.Points, 2)
	assert.Equal(t, 1, rec.Points[1].Seq)
	assert.Equal(t, 4, rec.Points[1].RouteID)
	assert.Equal(t, info, rec.Info())
}

func TestDockConversion(t *testing.T) {
	info := models.DockInfo{DockID: 2, Lat: 30.5497, Lng: 114.3428}
	assert.Equal(t, info, DockFromInfo(info).Info())
}

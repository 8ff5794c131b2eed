package geo

import (
	"math"

	"boat-safety-go/pkg/models"
)

// RouteLength returns the length of a polyline in metres.
func RouteLength(points []models.GeoPoint) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// DistanceToRoute returns the lateral distance in metres from point to the
// nearest segment of a polyline and the index of that segment's first
// vertex. A single-point route degenerates to a point distance. An empty
// route returns +Inf and -1.
func DistanceToRoute(point models.GeoPoint, points []models.GeoPoint) (float64, int) {
	switch len(points) {
	case 0:
		return math.Inf(1), -1
	case 1:
		return Distance(point, points[0]), 0
	}

	best := math.Inf(1)
	bestIdx := -1
	for i := 0; i < len(points)-1; i++ {
		d := PointToSegmentDistance(point, points[i], points[i+1])
		if d < best {
			best = d
			bestIdx = i
		}
	}
	return best, bestIdx
}

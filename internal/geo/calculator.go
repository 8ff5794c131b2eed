package geo

import (
	"math"

	"boat-safety-go/pkg/models"
)

// EarthRadiusM is the mean Earth radius in metres.
const EarthRadiusM = 6371000.0

// NoCollision is returned by CollisionTime when the two tracks never come
// within the safety radius.
const NoCollision = -1.0

// minRelativeSpeed is the relative speed in m/s, per axis, below which two
// vessels are considered to move together. It is compared after projection to
// the local metric plane, so it is far tighter than the same 1e-6 read as
// degrees per second (about 0.11 m/s): slowly diverging pairs still get a
// collision time here.
const minRelativeSpeed = 1e-6

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Distance returns the great-circle distance between two points in metres.
// Uses the haversine formula.
func Distance(p1, p2 models.GeoPoint) float64 {
	lat1Rad := toRadians(p1.Lat)
	lat2Rad := toRadians(p2.Lat)
	deltaLat := toRadians(p2.Lat - p1.Lat)
	deltaLng := toRadians(p2.Lng - p1.Lng)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	chord := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * chord
}

// Bearing returns the initial great-circle bearing from one point to another
// in degrees [0, 360). 0 is north, clockwise positive.
func Bearing(from, to models.GeoPoint) float64 {
	lat1Rad := toRadians(from.Lat)
	lat2Rad := toRadians(to.Lat)
	deltaLng := toRadians(to.Lng - from.Lng)

	y := math.Sin(deltaLng) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLng)

	return NormalizeAngle(toDegrees(math.Atan2(y, x)))
}

// Destination returns the point reached by travelling distance metres from
// start along the given initial bearing.
func Destination(start models.GeoPoint, bearing, distance float64) models.GeoPoint {
	lat1Rad := toRadians(start.Lat)
	lng1Rad := toRadians(start.Lng)
	bearingRad := toRadians(bearing)
	angular := distance / EarthRadiusM

	lat2Rad := math.Asin(math.Sin(lat1Rad)*math.Cos(angular) +
		math.Cos(lat1Rad)*math.Sin(angular)*math.Cos(bearingRad))

	lng2Rad := lng1Rad + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angular)*math.Cos(lat1Rad),
		math.Cos(angular)-math.Sin(lat1Rad)*math.Sin(lat2Rad),
	)

	return models.GeoPoint{Lat: toDegrees(lat2Rad), Lng: toDegrees(lng2Rad)}
}

// NormalizeAngle maps an angle in degrees to [0, 360).
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// AngleDifference returns the minimal absolute separation between two
// angles, always in [0, 180].
func AngleDifference(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// PointToSegmentDistance returns the distance in metres from point to the
// segment [segStart, segEnd]. The perpendicular case uses the height of the
// triangle from Heron's formula; when the foot of the perpendicular falls
// outside the segment the nearer endpoint is used.
func PointToSegmentDistance(point, segStart, segEnd models.GeoPoint) float64 {
	a := Distance(point, segStart)
	b := Distance(point, segEnd)
	c := Distance(segStart, segEnd)

	if c == 0 {
		return a
	}
	// obtuse angle at one end of the segment
	if b*b > a*a+c*c {
		return a
	}
	if a*a > b*b+c*c {
		return b
	}

	s := (a + b + c) / 2
	area := math.Sqrt(math.Max(0, s*(s-a)*(s-b)*(s-c)))
	return 2 * area / c
}

// VelocityVector converts a heading and speed into a per-second displacement
// expressed in degrees at the vessel's position, the form CollisionTime
// expects.
func VelocityVector(pos models.GeoPoint, heading, speed float64) models.GeoPoint {
	next := Destination(pos, heading, speed)
	return models.GeoPoint{Lat: next.Lat - pos.Lat, Lng: next.Lng - pos.Lng}
}

// HasCollision reports whether t is a collision time rather than NoCollision.
func HasCollision(t float64) bool {
	return t >= 0
}

// CollisionTime returns the earliest time in seconds at which two points
// moving with constant velocities come within radius metres of each other,
// or NoCollision. Velocities are per-second displacements in degrees as
// produced by VelocityVector. Positions are projected onto a local plane
// centred on pos1, which holds for harbour-scale separations.
//
// Zero relative velocity, a negative discriminant and roots that all lie in
// the past each yield NoCollision. Points already inside the radius get the
// positive root, the time at which they leave it.
func CollisionTime(pos1, vel1, pos2, vel2 models.GeoPoint, radius float64) float64 {
	mPerDegLat := EarthRadiusM * math.Pi / 180
	mPerDegLng := mPerDegLat * math.Cos(toRadians(pos1.Lat))

	dx := (pos2.Lng - pos1.Lng) * mPerDegLng
	dy := (pos2.Lat - pos1.Lat) * mPerDegLat
	dvx := (vel2.Lng - vel1.Lng) * mPerDegLng
	dvy := (vel2.Lat - vel1.Lat) * mPerDegLat

	if math.Abs(dvx) < minRelativeSpeed && math.Abs(dvy) < minRelativeSpeed {
		return NoCollision
	}

	// |d + dv*t|^2 = radius^2
	a := dvx*dvx + dvy*dvy
	b := 2 * (dx*dvx + dy*dvy)
	c := dx*dx + dy*dy - radius*radius

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return NoCollision
	}

	sq := math.Sqrt(discriminant)
	t1 := (-b - sq) / (2 * a)
	t2 := (-b + sq) / (2 * a)

	if t1 >= 0 {
		return t1
	}
	if t2 >= 0 {
		return t2
	}
	return NoCollision
}

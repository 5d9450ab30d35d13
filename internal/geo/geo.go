package geo

import (
	"math"

	"github.com/TheoAsp/happybox-go/internal/models"
)

// earthRadiusMeters is the spherical Earth model radius. Geodesic accuracy
// is not needed here; the error is well under any checkpoint radius.
const earthRadiusMeters = 6371000

// Point is a WGS84 coordinate pair
type Point struct {
	Lat float64
	Lon float64
}

// Result reports whether a position falls inside a checkpoint's geofence
type Result struct {
	Inside         bool
	DistanceMeters int
	RadiusMeters   int
}

// Distance returns the great-circle distance between two points in meters
// using the haversine formula.
func Distance(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)

	x := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(x))
}

// Check compares a claimed position against a geo checkpoint. The boundary
// is inclusive: exactly radius meters away counts as inside. An outside
// position is a normal outcome, not an error.
func Check(pos Point, cp *models.Checkpoint) Result {
	d := Distance(pos, Point{Lat: cp.Lat, Lon: cp.Lon})
	return Result{
		Inside:         d <= cp.RadiusMeters,
		DistanceMeters: int(math.Round(d)),
		RadiusMeters:   int(math.Round(cp.RadiusMeters)),
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

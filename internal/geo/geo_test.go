package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TheoAsp/happybox-go/internal/models"
)

var museum = models.Checkpoint{
	ID:           "museum",
	Kind:         models.CheckpointGeo,
	Lat:          38.03316613755724,
	Lon:          22.110534198887482,
	RadiusMeters: 200,
}

func TestDistanceKnownPair(t *testing.T) {
	// Museum to Petmezaion Square, a couple hundred meters apart
	square := Point{Lat: 38.03179458833854, Lon: 22.110687574022126}
	d := Distance(Point{Lat: museum.Lat, Lon: museum.Lon}, square)

	assert.Greater(t, d, 100.0)
	assert.Less(t, d, 300.0)
}

func TestDistanceZero(t *testing.T) {
	p := Point{Lat: museum.Lat, Lon: museum.Lon}
	assert.Equal(t, 0.0, Distance(p, p))
}

func TestDistanceSymmetric(t *testing.T) {
	a := Point{Lat: 38.0405, Lon: 22.1082}
	b := Point{Lat: 38.03316613755724, Lon: 22.110534198887482}
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestCheckInside(t *testing.T) {
	res := Check(Point{Lat: museum.Lat, Lon: museum.Lon}, &museum)
	assert.True(t, res.Inside)
	assert.Equal(t, 0, res.DistanceMeters)
	assert.Equal(t, 200, res.RadiusMeters)
}

func TestCheckBoundaryInclusive(t *testing.T) {
	// Walk north until the distance is just at the radius; exactly on the
	// boundary still counts as inside.
	cp := museum
	cp.RadiusMeters = Distance(
		Point{Lat: cp.Lat, Lon: cp.Lon},
		Point{Lat: cp.Lat + 0.0018, Lon: cp.Lon},
	)
	res := Check(Point{Lat: cp.Lat + 0.0018, Lon: cp.Lon}, &cp)
	assert.True(t, res.Inside)
}

func TestCheckOutside(t *testing.T) {
	// Roughly 5 km north of a 200 m checkpoint
	pos := Point{Lat: museum.Lat + 0.0449, Lon: museum.Lon}
	res := Check(pos, &museum)

	assert.False(t, res.Inside)
	assert.Equal(t, 200, res.RadiusMeters)
	assert.Greater(t, res.DistanceMeters, 4800)
	assert.Less(t, res.DistanceMeters, 5200)

	// Reported distance stays within a meter of the true haversine value
	truth := haversineReference(pos, Point{Lat: museum.Lat, Lon: museum.Lon})
	assert.InDelta(t, truth, float64(res.DistanceMeters), 1.0)
}

// haversineReference is an independent rendering of the formula used to
// cross-check the reported distances.
func haversineReference(a, b Point) float64 {
	const r = 6371000
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * r * math.Asin(math.Sqrt(s))
}

package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rtennill/scmconv/geom"
)

func TestLonLatRoundTrip(t *testing.T) {
	dir := geom.Vec3{X: 0, Y: 0, Z: -1}
	lon, lat := LonLat(dir)
	assert.InDelta(t, 0, lon, 1e-9)
	assert.InDelta(t, 0, lat, 1e-9)
}

func TestEquirectangularCenterMapsToReferencePixel(t *testing.T) {
	d := Descriptor{Kind: Equirectangular, Scale: 1, Radius: 1, L0: 100, S0: 200, Latp: 0, Lonp: 0}
	dir := geom.Vec3{X: 0, Y: 0, Z: -1} // lon=0, lat=0
	l, s, w := Project(d, dir)
	assert.InDelta(t, 100, l, 1e-9)
	assert.InDelta(t, 200, s, 1e-9)
	assert.Equal(t, 1.0, w)
}

func TestOrthographicFalloffVanishesNearLimb(t *testing.T) {
	d := Descriptor{Kind: Orthographic, Scale: 1, Radius: 1, Latp: 0, Lonp: 0}
	near := geom.Vector(5, 0, 0)     // sub-point, lon=lat=0
	far := geom.Vector(4, 0.99, 0.0) // large angular offset from the sub-point
	_, _, wNear := Project(d, near)
	_, _, wFar := Project(d, far)
	assert.Greater(t, wNear, wFar)
}

// dirAt builds the unit direction LonLat would report as (lon, lat).
func dirAt(lon, lat float64) geom.Vec3 {
	return geom.Vec3{X: math.Cos(lat) * math.Sin(lon), Y: math.Sin(lat), Z: -math.Cos(lat) * math.Cos(lon)}
}

func TestStereographicNorthPoleSignMatchesReferenceFormula(t *testing.T) {
	d := Descriptor{Kind: Stereographic, Scale: 1, Radius: 1, Latp: 0.1, Lonp: 0}
	l, s, _ := Project(d, dirAt(0, 0))
	rho := 2 * d.Radius * math.Tan(math.Pi/4)
	assert.InDelta(t, d.L0+rho/d.Scale, l, 1e-9)
	assert.InDelta(t, d.S0, s, 1e-9)
}

func TestStereographicFalloffUsesTwentyThirtyDegreeWindow(t *testing.T) {
	d := Descriptor{Kind: Stereographic, Scale: 1, Radius: 1, Latp: 0, Lonp: 0}
	near := dirAt(0, 10*math.Pi/180)
	far := dirAt(0, 35*math.Pi/180)
	_, _, wNear := Project(d, near)
	_, _, wFar := Project(d, far)
	assert.Equal(t, 1.0, wNear)
	assert.Equal(t, 0.0, wFar)
}

func TestWindowZeroValueAlwaysOne(t *testing.T) {
	var w Window
	assert.Equal(t, 1.0, w.Weight(0.3, 1.2))
}

func TestWindowFeathersToZeroOutsideOuterBound(t *testing.T) {
	w := Window{
		Lat0: -math.Pi / 4, Lat1: math.Pi / 4,
		Lon0: -math.Pi / 2, Lon1: math.Pi / 2,
		DLat0: -math.Pi / 6, DLat1: math.Pi / 6,
		DLon0: -math.Pi / 3, DLon1: math.Pi / 3,
	}
	assert.Equal(t, 1.0, w.Weight(0, 0))
	assert.Equal(t, 0.0, w.Weight(math.Pi/3, 0))
}

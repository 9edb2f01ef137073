// Package projection implements the map-projection functions that turn a
// sphere direction into an input-image (line, sample) coordinate (§4.C):
// equirectangular, orthographic, stereographic, cylindrical and the default
// spheremap, plus the smoothstep-based blending window the caller applies
// to feather image edges.
package projection

import (
	"math"

	"github.com/rtennill/scmconv/geom"
)

// Kind selects one of the five supported projections.
type Kind int

const (
	Equirectangular Kind = iota
	Orthographic
	Stereographic
	Cylindrical
	Default
)

// Descriptor carries the geodetic parameters of one input image's
// projection (§3.2): reference pole latitude/longitude, the line/sample of
// the reference pixel, the sample scale, the projection radius, and (for
// cylindrical/default) the resolution and source dimensions.
type Descriptor struct {
	Kind Kind

	Latp, Lonp float64 // reference pole latitude/longitude, radians
	L0, S0     float64 // line/sample of the reference pixel
	Scale      float64 // projected units per sample (x and y are divided by it)
	Radius     float64 // projection radius R

	Res           float64 // cylindrical resolution, pixels per degree
	Width, Height int     // source dimensions, used by the default spheremap
}

// Window is the blending window (§3.2): an outer rectangle in lat/lon past
// which an input image contributes nothing, feathered inward to full
// weight at the inner rectangle. A zero-value Window (every bound 0, the
// CLI default, §6.1) disables feathering entirely — the whole image
// contributes at full weight.
type Window struct {
	Lat0, Lat1, Lon0, Lon1     float64 // outer bound, radians
	DLat0, DLat1, DLon0, DLon1 float64 // inner bound, radians
}

// isZero reports whether w is the CLI's all-zero default, in which case no
// feathering is applied (Open Question decision, DESIGN.md).
func (w Window) isZero() bool {
	return w == Window{}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// smoothstep is the 3t²−2t³ Hermite ramp spec.md's orthographic/
// stereographic falloff names explicitly.
func smoothstep(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

// blend returns 1 when angle is within innerDeg of the reference point, 0
// once it exceeds outerDeg, and a smoothstep ramp between — the falloff
// spec.md's orthographic/stereographic formulas apply, expressed in
// degrees since the spec states the falloff angles that way (orthographic
// longitude/latitude windows of 20°/40° and 60°/70°, stereographic 20°/30°).
func blend(innerDeg, outerDeg, angleRad float64) float64 {
	angleDeg := angleRad * 180 / math.Pi
	return 1 - smoothstep(innerDeg, outerDeg, angleDeg)
}

// rampOneSide ramps from 0 at outer to 1 at inner, moving inward; used by
// Window.Weight for each of the four edges of the blending rectangle.
func rampOneSide(x, outer, inner float64) float64 {
	if inner == outer {
		return 1
	}
	if inner > outer {
		return smoothstep(outer, inner, x)
	}
	return 1 - smoothstep(inner, outer, x)
}

// Weight returns the blending window's feather factor in [0,1] for a given
// lat/lon, both radians. A zero-value Window always returns 1.
func (w Window) Weight(lat, lon float64) float64 {
	if w.isZero() {
		return 1
	}
	latLo := rampOneSide(lat, w.Lat0, w.DLat0)
	latHi := rampOneSide(lat, w.Lat1, w.DLat1)
	lonLo := rampOneSide(lon, w.Lon0, w.DLon0)
	lonHi := rampOneSide(lon, w.Lon1, w.DLon1)
	return clamp01(latLo) * clamp01(latHi) * clamp01(lonLo) * clamp01(lonHi)
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// LonLat derives longitude (normalized to [0,2π)) and latitude from a unit
// sphere direction, per spec.md §4.C.
func LonLat(dir geom.Vec3) (lon, lat float64) {
	lon = math.Atan2(dir.X, -dir.Z)
	if lon < 0 {
		lon += 2 * math.Pi
	}
	lat = math.Asin(clampUnit(dir.Y))
	return lon, lat
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Project returns the input-image (line, sample) coordinate for a sphere
// direction under the descriptor's projection (§4.C), plus the
// projection's own intrinsic coverage weight in [0,1] — 1 for the
// projections with no inherent falloff, the angular blend for orthographic
// and stereographic.
func Project(d Descriptor, dir geom.Vec3) (l, s, weight float64) {
	lon, lat := LonLat(dir)
	switch d.Kind {
	case Orthographic:
		x := d.Radius * math.Cos(lat) * math.Sin(lon-d.Lonp)
		y := d.Radius * math.Sin(lat)
		weight = blend(20, 40, math.Abs(lon-d.Lonp)) * blend(60, 70, math.Abs(lat-d.Latp))
		l = d.L0 - y/d.Scale
		s = d.S0 + x/d.Scale
	case Stereographic:
		var x, y float64
		if d.Latp > 0 {
			rho := 2 * d.Radius * math.Tan(math.Pi/4-lat/2)
			x = rho * math.Sin(lon-d.Lonp)
			y = -rho * math.Cos(lon-d.Lonp)
		} else {
			rho := 2 * d.Radius * math.Tan(math.Pi/4+lat/2)
			x = rho * math.Sin(lon-d.Lonp)
			y = rho * math.Cos(lon-d.Lonp)
		}
		weight = blend(20, 30, math.Abs(lat-d.Latp))
		l = d.L0 - y/d.Scale
		s = d.S0 + x/d.Scale
	case Cylindrical:
		s = d.S0 + d.Res*(degrees(lon)-degrees(d.Lonp))
		l = d.L0 - d.Res*(degrees(lat)-degrees(d.Latp))
		weight = 1
	case Default:
		// The sample formula spans the image width for lon in [-π, π), so
		// LonLat's [0, 2π) longitude is shifted back into that range first.
		if lon >= math.Pi {
			lon -= 2 * math.Pi
		}
		l = float64(d.Height-1) * (math.Pi/2 - lat) / math.Pi
		s = float64(d.Width) * (lon + math.Pi) / (2 * math.Pi)
		weight = 1
	default: // Equirectangular
		x := d.Radius * (lon - d.Lonp) * math.Cos(d.Latp)
		y := d.Radius * lat
		l = d.L0 - y/d.Scale
		s = d.S0 + x/d.Scale
		weight = 1
	}
	return l, s, weight
}

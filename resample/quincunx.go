// Package resample implements the five-tap quincunx resampling kernel
// (§4.D): for each output pixel it builds a '+'-shaped set of sphere
// directions from the page's corners, projects each through the input
// image's projection descriptor, and accumulates the bilinear samples.
package resample

import (
	"github.com/rtennill/scmconv/decode"
	"github.com/rtennill/scmconv/geom"
	"github.com/rtennill/scmconv/projection"
)

// bilinear interpolates across a page's four corner directions — in the
// (u0,v0),(u1,v0),(u0,v1),(u1,v1) order geom.Corners stores them — at
// fractional position (u,v) in [0,1]^2 using two nested Slerps.
func bilinear(c geom.Corners, u, v float64) geom.Vec3 {
	top := c[0].Slerp(c[1], u)
	bottom := c[2].Slerp(c[3], u)
	return top.Slerp(bottom, v)
}

// taps builds the five quincunx sample directions for output pixel
// (row i, column j) of an n x n grid with page corners c (§4.D): the
// spherical midpoint of the pixel's four corners, plus each corner
// replaced by its own midpoint with that center.
func taps(c geom.Corners, n, i, j int) [5]geom.Vec3 {
	u0 := float64(j) / float64(n)
	u1 := float64(j+1) / float64(n)
	v0 := float64(i) / float64(n)
	v1 := float64(i+1) / float64(n)

	corners := [4]geom.Vec3{
		bilinear(c, u0, v0),
		bilinear(c, u1, v0),
		bilinear(c, u0, v1),
		bilinear(c, u1, v1),
	}
	center := geom.Midpoint(corners[0], corners[1], corners[2], corners[3])

	var t [5]geom.Vec3
	t[0] = center
	for k := 0; k < 4; k++ {
		t[k+1] = geom.Midpoint(corners[k], center)
	}
	return t
}

// Pixel runs the quincunx kernel for output pixel (i, j) of an n x n page
// with corner directions c, sampling img through its projection and blend
// window. It returns the number of taps that hit the input image (0..5)
// and the accumulated, already-averaged channel values.
func Pixel(img decode.Image, c geom.Corners, n, i, j int) (hits int, values []float64) {
	desc := img.Projection()
	win := img.Blend()
	channels := img.Channels()
	values = make([]float64, channels)

	for _, dir := range taps(c, n, i, j) {
		l, s, pweight := projection.Project(desc, dir)
		coverage, sampled := decode.Linear(img, l, s)
		if coverage <= 0 {
			continue
		}
		hits++
		lon, lat := projection.LonLat(dir)
		w := pweight * win.Weight(lat, lon)
		for k := 0; k < channels && k < len(sampled); k++ {
			values[k] += sampled[k] * w / 5
		}
	}
	return hits, values
}

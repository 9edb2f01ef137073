package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageCountMatchesFormula(t *testing.T) {
	for d := 0; d < 5; d++ {
		want := int64(6 * (ipow4(d+1) - 1) / 3)
		assert.Equal(t, want, PageCount(d))
	}
}

func TestQuadTreeIndices(t *testing.T) {
	for d := 0; d < 4; d++ {
		lo, hi := PageCount(d-1), PageCount(d)
		for x := lo; x < hi; x++ {
			assert.Equal(t, d, PageDepth(x))
			for k := 0; k < 4; k++ {
				child := PageChild(x, k)
				assert.Equal(t, x, PageParent(child))
				assert.Equal(t, d+1, PageDepth(child))
			}
		}
	}
	// Depth d has exactly 6*4^d pages.
	for d := 0; d < 4; d++ {
		assert.Equal(t, int64(6)*ipow4(d), PageCount(d)-PageCount(d-1))
	}
}

func TestVectorIsUnit(t *testing.T) {
	for face := 0; face < 6; face++ {
		for _, uv := range [][2]float64{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}, {0, 0}} {
			v := Vector(face, uv[0], uv[1])
			assert.InDelta(t, 1.0, v.Length(), 1e-9)
		}
	}
}

func TestSlerpEndpoints(t *testing.T) {
	a := Vector(4, -1, -1)
	b := Vector(4, 1, 1)
	assert.InDelta(t, 0.0, a.Slerp(b, 0).Add(a.Scale(-1)).Length(), 1e-9)
	assert.InDelta(t, 0.0, a.Slerp(b, 1).Add(b.Scale(-1)).Length(), 1e-9)
}

func TestSlerpFallsBackToLerpWhenNearlyParallel(t *testing.T) {
	a := Vector(0, 0, 0)
	b := Vector(0, 1e-9, 0)
	got := a.Slerp(b, 0.5)
	assert.InDelta(t, 1.0, got.Length(), 1e-9)
}

func TestMidpointIsNormalized(t *testing.T) {
	c := PageCorners(0)
	m := Midpoint(c[0], c[1], c[2], c[3])
	assert.InDelta(t, 1.0, m.Length(), 1e-9)
}

func TestPageCornersNarrowsWithDepth(t *testing.T) {
	// A depth-1 child's corners must span a proper quadrant of its parent
	// face, not the parent's full -1..1 rectangle.
	root := PageCorners(0)
	child := PageCorners(PageChild(0, 0))
	rootSpan := root[3].Add(root[0].Scale(-1)).Length()
	childSpan := child[3].Add(child[0].Scale(-1)).Length()
	assert.Less(t, childSpan, rootSpan)
}

func TestPageCornersFace(t *testing.T) {
	// Root page 0's four corners must be pairwise distinct.
	c := PageCorners(0)
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			assert.False(t, math.Abs(c[i].Dot(c[j])-1) < 1e-12, "corners %d and %d coincide", i, j)
		}
	}
}

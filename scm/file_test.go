package scm

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtennill/scmconv/geom"
	"github.com/rtennill/scmconv/tiff"
)

func tmpPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "test.scm.tif")
}

func samplePage(n, channels int, fill float64) []float64 {
	side := n + 2
	page := make([]float64, side*side*channels)
	for i := range page {
		page[i] = fill
	}
	return page
}

func TestAppendRoundTrip(t *testing.T) {
	path := tmpPath(t)
	g := Geometry{N: 2, Channels: 1, Bits: 8, RowsPerStrip: 2, Norm0: 0, Norm1: 1}
	f, err := Create(path, g, "test preface")
	require.NoError(t, err)

	page := samplePage(2, 1, 0.75)
	off, err := f.Append(6, page)
	require.NoError(t, err)
	assert.NotZero(t, off)
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Sample(6, 1, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.75, got[0], 1.0/255)
}

func TestChainIntegrity(t *testing.T) {
	path := tmpPath(t)
	g := Geometry{N: 2, Channels: 1, Bits: 8, RowsPerStrip: 2}
	f, err := Create(path, g, "")
	require.NoError(t, err)

	indices := []int64{6, 7, 8}
	for _, idx := range indices {
		_, err := f.Append(idx, samplePage(2, 1, 0.1*float64(idx)))
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	entries, err := r.ScanCatalog()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	seen := map[int64]bool{}
	for _, e := range entries {
		seen[e.Index] = true
	}
	for _, idx := range indices {
		assert.True(t, seen[idx])
	}
}

func TestCatalogLaw(t *testing.T) {
	path := tmpPath(t)
	g := Geometry{N: 2, Channels: 1, Bits: 8, RowsPerStrip: 2}
	f, err := Create(path, g, "")
	require.NoError(t, err)

	appended := map[int64]uint64{}
	for _, idx := range []int64{6, 9, 7} {
		off, err := f.Append(idx, samplePage(2, 1, 0.2))
		require.NoError(t, err)
		appended[idx] = off
	}
	require.NoError(t, f.MakeCatalog())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	for idx, off := range appended {
		got, ok, err := r.SearchCatalog(idx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, off, got)
	}
	_, ok, err := r.SearchCatalog(12345)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtremaMonotonicity(t *testing.T) {
	path := tmpPath(t)
	g := Geometry{N: 2, Channels: 1, Bits: 32, RowsPerStrip: 2}
	f, err := Create(path, g, "")
	require.NoError(t, err)

	parent := int64(0)
	children := [4]int64{
		geom.PageChild(parent, 0),
		geom.PageChild(parent, 1),
		geom.PageChild(parent, 2),
		geom.PageChild(parent, 3),
	}
	values := []float64{0.2, 0.9, 0.4, 0.6}
	for i, c := range children {
		_, err := f.Append(c, samplePage(2, 1, values[i]))
		require.NoError(t, err)
	}
	parentOff, err := f.Append(parent, samplePage(2, 1, 0.5))
	require.NoError(t, err)

	require.NoError(t, f.MakeCatalog())
	require.NoError(t, f.MakeExtrema())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	fields, _, err := tiff.ReadIFD(r.f, r.order, parentOff)
	require.NoError(t, err)
	minArr, err := tiff.ReadArray(r.f, r.order, fields[tiff.TagPageMinima])
	require.NoError(t, err)
	maxArr, err := tiff.ReadArray(r.f, r.order, fields[tiff.TagPageMaxima])
	require.NoError(t, err)
	require.Len(t, minArr, 1)
	require.Len(t, maxArr, 1)

	parentMin := math.Float32frombits(uint32(minArr[0]))
	parentMax := math.Float32frombits(uint32(maxArr[0]))

	// The parent's merged extrema must bound every child's own value.
	for _, v := range values {
		assert.LessOrEqual(t, float64(parentMin), v+1e-6)
		assert.GreaterOrEqual(t, float64(parentMax), v-1e-6)
	}
}

func TestOpenPreservesGeometry(t *testing.T) {
	path := tmpPath(t)
	g := Geometry{N: 4, Channels: 3, Bits: 16, RowsPerStrip: 2}
	f, err := Create(path, g, "")
	require.NoError(t, err)
	_, err = f.Append(0, samplePage(4, 3, 0.3))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	info, err := r.Info()
	require.NoError(t, err)
	assert.Equal(t, 4, info.N)
	assert.Equal(t, 3, info.Channels)
	assert.Equal(t, 16, info.Bits)
	assert.Equal(t, 1, info.PageCount)
}

func TestRepeatRejectsGeometryMismatch(t *testing.T) {
	srcPath := filepath.Join(os.TempDir(), "scm-repeat-src.tif")
	defer os.Remove(srcPath)
	src, err := Create(srcPath, Geometry{N: 2, Channels: 1, Bits: 8, RowsPerStrip: 2}, "")
	require.NoError(t, err)
	off, err := src.Append(6, samplePage(2, 1, 0.5))
	require.NoError(t, err)
	require.NoError(t, src.Close())

	src, err = Open(srcPath)
	require.NoError(t, err)
	defer src.Close()

	dstPath := tmpPath(t)
	dst, err := Create(dstPath, Geometry{N: 2, Channels: 2, Bits: 8, RowsPerStrip: 2}, "")
	require.NoError(t, err)
	defer dst.Close()

	_, err = dst.Repeat(src, off)
	assert.Error(t, err)
}

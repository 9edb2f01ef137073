package convert

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtennill/scmconv/decode"
	"github.com/rtennill/scmconv/projection"
	"github.com/rtennill/scmconv/scm"
)

type nopLogger struct{}

func (nopLogger) Infow(string, ...interface{})  {}
func (nopLogger) Errorw(string, ...interface{}) {}

func sphereMapImage(w, h int, fill byte) *decode.Mapped {
	buf := make([]byte, w*h)
	for i := range buf {
		buf[i] = fill
	}
	return &decode.Mapped{
		Buf: buf, W: w, H: h, C: 1, Bits: 8, OrderV: binary.BigEndian,
		ProjV: projection.Descriptor{Kind: projection.Default, Width: w, Height: h},
	}
}

func TestRunWritesReadableFile(t *testing.T) {
	img := sphereMapImage(32, 16, 180)
	outPath := filepath.Join(t.TempDir(), "out.scm.tif")

	err := Run(nopLogger{}, img, Options{
		OutputPath: outPath, N: 4, Depth: 0, Bits: 8, RowsPerStrip: 2,
		Norm0: 0, Norm1: 1, Parallelism: 2, WithCatalog: true, WithExtrema: true,
	})
	require.NoError(t, err)

	f, err := scm.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	info, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, 6, info.PageCount) // all six root faces hit a full-sphere image
}

func TestRunLeavesNoTempFileOnSuccess(t *testing.T) {
	img := sphereMapImage(32, 16, 100)
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.scm.tif")

	require.NoError(t, Run(nopLogger{}, img, Options{
		OutputPath: outPath, N: 4, Depth: 0, Bits: 8, RowsPerStrip: 2,
		Norm0: 0, Norm1: 1,
	}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "out.scm.tif", entries[0].Name())
}

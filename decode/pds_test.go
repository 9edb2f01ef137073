package decode

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLabel = `PDS_VERSION_ID = PDS3
LINES = 2
LINE_SAMPLES = 2
SAMPLE_BITS = 8
SAMPLE_TYPE = MSB_UNSIGNED_INTEGER
CENTER_LATITUDE = 10.0 <DEG>
CENTER_LONGITUDE = 20.0 <DEG>
MAP_PROJECTION_TYPE = "ORTHOGRAPHIC"
END
`

func TestParseLabel(t *testing.T) {
	kv, err := parseLabel(stringReader(sampleLabel))
	require.NoError(t, err)
	assert.Equal(t, "PDS3", kv["PDS_VERSION_ID"])
	lat, ok := labelFloat(kv, "CENTER_LATITUDE")
	assert.True(t, ok)
	assert.InDelta(t, 10.0, lat, 1e-9)
}

func TestOpenPDSDecodesImageAndProjection(t *testing.T) {
	dir := t.TempDir()
	lblPath := filepath.Join(dir, "test.lbl")
	imgPath := filepath.Join(dir, "test.img")
	require.NoError(t, os.WriteFile(lblPath, []byte(sampleLabel), 0644))
	require.NoError(t, os.WriteFile(imgPath, []byte{1, 2, 3, 4}, 0644))

	m, err := OpenPDS(imgPath, lblPath, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Width())
	assert.Equal(t, 2, m.Height())
	assert.Equal(t, 1, m.Channels())
	desc := m.Projection()
	assert.InDelta(t, 10.0*3.14159265358979/180, desc.Latp, 1e-6)
}

type strReader struct {
	s   string
	pos int
}

func (r *strReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.s) {
		return 0, io.EOF
	}
	n := copy(p, r.s[r.pos:])
	r.pos += n
	return n, nil
}

func stringReader(s string) *strReader { return &strReader{s: s} }

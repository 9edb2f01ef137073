package decode

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	gtiff "github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"

	"github.com/rtennill/scmconv/projection"
	"github.com/rtennill/scmconv/scmerr"
)

// tiffIFD mirrors the teacher's struct-tag IFD unmarshaling style (cog.go,
// field.go): the fields gtiff.UnmarshalIFD fills directly from tag values.
type tiffIFD struct {
	ImageWidth      uint64   `tiff:"field,tag=256"`
	ImageLength     uint64   `tiff:"field,tag=257"`
	BitsPerSample   []uint16 `tiff:"field,tag=258"`
	Compression     uint16   `tiff:"field,tag=259"`
	SamplesPerPixel uint16   `tiff:"field,tag=277"`
	RowsPerStrip    uint32   `tiff:"field,tag=278"`
	StripOffsets    []uint64 `tiff:"field,tag=273"`
	StripByteCounts []uint64 `tiff:"field,tag=279"`
	SampleFormat    []uint16 `tiff:"field,tag=339"`
}

// OpenTIFF decodes a single-band or multi-band, strip-organized TIFF or
// BigTIFF input raster into a Mapped plane, using github.com/google/tiff —
// the teacher's own dependency for parsing input TIFFs (loader.go). Plain
// input TIFFs carry no SCM projection metadata, so they get the default
// full-image spheremap descriptor, same as JPEG/PNG.
func OpenTIFF(path string, win projection.Window, norm0, norm1 float64) (*Mapped, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, scmerr.New(scmerr.KindIO, "open tiff", err)
	}

	tif, err := gtiff.Parse(f, nil, nil)
	if err != nil {
		f.Close()
		return nil, scmerr.New(scmerr.KindFormat, "parse tiff", err)
	}
	ifds := tif.IFDs()
	if len(ifds) == 0 {
		f.Close()
		return nil, scmerr.New(scmerr.KindFormat, "parse tiff", fmt.Errorf("no IFDs"))
	}

	var info tiffIFD
	if err := gtiff.UnmarshalIFD(ifds[0], &info); err != nil {
		f.Close()
		return nil, scmerr.New(scmerr.KindFormat, "unmarshal tiff ifd", err)
	}
	if len(info.BitsPerSample) == 0 {
		f.Close()
		return nil, scmerr.New(scmerr.KindFormat, "unmarshal tiff ifd", fmt.Errorf("missing bits-per-sample"))
	}

	order := binary.ByteOrder(binary.BigEndian)
	if tif.Order() == "II" {
		order = binary.LittleEndian
	}

	width := int(info.ImageWidth)
	height := int(info.ImageLength)
	channels := int(info.SamplesPerPixel)
	if channels == 0 {
		channels = len(info.BitsPerSample)
	}
	bits := int(info.BitsPerSample[0])
	signed := len(info.SampleFormat) > 0 && info.SampleFormat[0] == 2

	rowsPerStrip := int(info.RowsPerStrip)
	if rowsPerStrip <= 0 {
		rowsPerStrip = height
	}
	bpp := bits / 8
	rowBytes := width * channels * bpp
	buf := make([]byte, height*rowBytes)
	reader := tif.R()

	for s, off := range info.StripOffsets {
		n := int(info.StripByteCounts[s])
		raw := make([]byte, n)
		if _, err := reader.ReadAt(raw, int64(off)); err != nil {
			f.Close()
			return nil, scmerr.New(scmerr.KindIO, "read tiff strip", err)
		}
		rowStart := s * rowsPerStrip
		rows := rowsPerStrip
		if rowStart+rows > height {
			rows = height - rowStart
		}
		if rows <= 0 {
			continue
		}
		dst := buf[rowStart*rowBytes : (rowStart+rows)*rowBytes]
		switch info.Compression {
		case 1:
			copy(dst, raw)
		case 8, 32946:
			zr, err := zlib.NewReader(bytes.NewReader(raw))
			if err != nil {
				f.Close()
				return nil, scmerr.New(scmerr.KindCodec, "inflate tiff strip", err)
			}
			_, err = io.ReadFull(zr, dst)
			zr.Close()
			if err != nil {
				f.Close()
				return nil, scmerr.New(scmerr.KindCodec, "inflate tiff strip", err)
			}
		default:
			f.Close()
			return nil, scmerr.New(scmerr.KindFormat, "read tiff strip", fmt.Errorf("unsupported compression %d", info.Compression))
		}
	}

	return &Mapped{
		Buf: buf, W: width, H: height, C: channels,
		Bits: bits, SignedV: signed, OrderV: order,
		ProjV:  projection.Descriptor{Kind: projection.Default, Width: width, Height: height},
		BlendV: win, Norm0: norm0, Norm1: norm1,
		closer: f.Close,
	}, nil
}

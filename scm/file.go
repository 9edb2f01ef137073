// Package scm implements the page store: the SCM container's append-only
// TIFF/BigTIFF page chain, its sibling linked list, catalog, and extrema
// regions (spec.md §3.3, §4.F). It is grounded on original_source/scm.c's
// scm_append/scm_repeat/scm_make_catalog/scm_make_extrema control flow,
// re-expressed as ordered fallible composition (§9) over the tiff package.
package scm

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/rtennill/scmconv/geom"
	"github.com/rtennill/scmconv/scmerr"
	"github.com/rtennill/scmconv/tiff"
)

// DefaultRowsPerStrip is the default rows-per-strip value (§3.3).
const DefaultRowsPerStrip = 16

// Geometry describes the parameters every page of a file shares.
type Geometry struct {
	N            int // page side in samples
	Channels     int
	Bits         int // 8, 16, or 32
	Signed       bool
	RowsPerStrip int
	Norm0, Norm1 float64
}

func (g Geometry) tiffGeometry(order binary.ByteOrder) tiff.Geometry {
	return tiff.Geometry{
		N: g.N, Channels: g.Channels, Bits: g.Bits, Signed: g.Signed,
		RowsPerStrip: g.RowsPerStrip, Norm0: g.Norm0, Norm1: g.Norm1, Order: order,
	}
}

// minimaType returns the TIFF field type used to store this geometry's
// minima/maxima arrays: the integer width matching the container's own
// sample width, since spec.md §4.E only names {byte, ascii, short, long,
// long8} as supported field types and 32f samples are stored bit-for-bit
// in a LONG.
func (g Geometry) minimaType() uint16 {
	switch g.Bits {
	case 8:
		return tiff.TByte
	case 16:
		return tiff.TShort
	default:
		return tiff.TLong
	}
}

// CatalogEntry is one (page index, IFD offset) pair.
type CatalogEntry struct {
	Index  int64
	Offset uint64
}

// File is an open SCM container, exclusively owned by its caller (§5: "The
// output file handle is exclusively owned by the convert driver").
type File struct {
	f        *os.File
	order    binary.ByteOrder
	geom     Geometry
	tg       tiff.Geometry
	minType  uint16
	firstIFD uint64 // 0 if no pages yet
	lastIFD  uint64 // 0 if no pages yet

	catalog []CatalogEntry // lazily populated cache (§12.3 open question)
}

// Create creates a new, empty SCM file with the given page geometry and
// preface description string, and writes its BigTIFF header.
func Create(path string, g Geometry, description string) (*File, error) {
	if g.RowsPerStrip <= 0 {
		g.RowsPerStrip = DefaultRowsPerStrip
	}
	if (g.N+2)%g.RowsPerStrip != 0 {
		return nil, scmerr.New(scmerr.KindPrecondition, "scm.Create",
			fmt.Errorf("rows-per-strip %d does not divide page side+2 (%d)", g.RowsPerStrip, g.N+2))
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, scmerr.New(scmerr.KindIO, "scm.Create", err)
	}
	order := binary.LittleEndian
	if err := tiff.WriteHeader(f, order, 0); err != nil {
		f.Close()
		return nil, err
	}
	if description != "" {
		if _, err := f.Write(append([]byte(description), 0)); err != nil {
			f.Close()
			return nil, scmerr.New(scmerr.KindIO, "scm.Create", err)
		}
	}
	return &File{
		f: f, order: order, geom: g,
		tg:      g.tiffGeometry(order),
		minType: g.minimaType(),
	}, nil
}

// Open opens an existing SCM file, reading its header and first page's IFD
// to recover the shared geometry.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, scmerr.New(scmerr.KindIO, "scm.Open", err)
	}
	h, err := tiff.ReadHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	sf := &File{f: f, order: h.Order, firstIFD: h.FirstIFDOffs, lastIFD: h.FirstIFDOffs}
	if h.FirstIFDOffs == 0 {
		return sf, nil
	}
	fields, _, err := tiff.ReadIFD(f, h.Order, h.FirstIFDOffs)
	if err != nil {
		f.Close()
		return nil, err
	}
	width := fields[tiff.TagImageWidth].Value
	bps, err := tiff.ReadArray(f, h.Order, fields[tiff.TagBitsPerSample])
	if err != nil {
		f.Close()
		return nil, err
	}
	sampleFormat, err := tiff.ReadArray(f, h.Order, fields[tiff.TagSampleFormat])
	if err != nil {
		f.Close()
		return nil, err
	}
	sf.geom = Geometry{
		N:            int(width) - 2,
		Channels:     len(bps),
		Bits:         int(bps[0]),
		Signed:       len(sampleFormat) > 0 && sampleFormat[0] == 2,
		RowsPerStrip: int(fields[tiff.TagRowsPerStrip].Value),
		Norm0:        0,
		Norm1:        1,
	}
	sf.tg = sf.geom.tiffGeometry(h.Order)
	sf.minType = sf.geom.minimaType()
	// Walk to the tail of the chain so Append knows where to link.
	last := h.FirstIFDOffs
	for {
		_, next, err := tiff.ReadIFD(f, h.Order, last)
		if err != nil {
			f.Close()
			return nil, err
		}
		if next == 0 {
			break
		}
		last = next
	}
	sf.lastIFD = last
	return sf, nil
}

// Close closes the underlying file handle.
func (s *File) Close() error {
	return scmerr.New(scmerr.KindIO, "scm.Close", s.f.Close())
}

// Geometry returns the file's shared page geometry.
func (s *File) Geometry() Geometry { return s.geom }

// Info summarizes a file's shared parameters and current page count,
// supplementing the spec with scm.c's scm_get_n/c/b/g/r accessors (§7 of
// SPEC_FULL.md).
type Info struct {
	N, Channels, Bits int
	Signed            bool
	RowsPerStrip      int
	PageCount         int
}

// Info reads back the file's geometry and the number of pages currently
// appended.
func (s *File) Info() (Info, error) {
	entries, err := s.ScanCatalog()
	if err != nil {
		return Info{}, err
	}
	return Info{
		N: s.geom.N, Channels: s.geom.Channels, Bits: s.geom.Bits,
		Signed: s.geom.Signed, RowsPerStrip: s.geom.RowsPerStrip,
		PageCount: len(entries),
	}, nil
}

func buildTemplate(g Geometry, tg tiff.Geometry, minType uint16, pageIndex int64) *tiff.PageIFD {
	sc := tg.StripCount()
	sampleFormat := tg.SampleFormatTag()
	p := &tiff.PageIFD{
		ImageWidth:                uint32(tg.Side()),
		ImageLength:               uint32(tg.Side()),
		BitsPerSample:             repeatU16(uint16(g.Bits), g.Channels),
		Compression:               tiff.CompressionZlib,
		PhotometricInterpretation: tiff.PhotometricBlackIsZero,
		StripOffsets:              make([]uint64, sc),
		Orientation:               tiff.OrientationTopLeft,
		SamplesPerPixel:           uint16(g.Channels),
		RowsPerStrip:              uint16(g.RowsPerStrip),
		StripByteCounts:           make([]uint32, sc),
		PlanarConfiguration:       tiff.PlanarConfigContig,
		SampleFormat:              repeatU16(sampleFormat, g.Channels),
		PageIndex:                 uint32(pageIndex),
		MinimaType:                minType,
		MaximaType:                minType,
	}
	return p
}

func repeatU16(v uint16, n int) []uint16 {
	out := make([]uint16, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Append writes a new page at the end of the file, with the given page
// index and (n+2)x(n+2)xC float samples in row-major, channel-interleaved
// order. It returns the new IFD's absolute file offset.
func (s *File) Append(pageIndex int64, page []float64) (uint64, error) {
	offset, err := s.f.Seek(0, 2)
	if err != nil {
		return 0, scmerr.New(scmerr.KindIO, "scm.Append", err)
	}
	uoffset := uint64(offset)

	p := buildTemplate(s.geom, s.tg, s.minType, pageIndex)

	// Placeholder write: establishes the IFD's final byte size so the
	// strip data that immediately follows lands at a known, stable
	// location (§4.F).
	if err := tiff.WriteIFD(s.f, s.order, p, uoffset); err != nil {
		return 0, err
	}

	strips, err := s.tg.EncodeStrips(page)
	if err != nil {
		return 0, err
	}
	dataStart, err := s.f.Seek(0, 1)
	if err != nil {
		return 0, scmerr.New(scmerr.KindIO, "scm.Append", err)
	}
	offsets := make([]uint64, len(strips))
	counts := make([]uint32, len(strips))
	cur := uint64(dataStart)
	for i, strip := range strips {
		offsets[i] = cur
		counts[i] = uint32(len(strip))
		if _, err := s.f.Write(strip); err != nil {
			return 0, scmerr.New(scmerr.KindIO, "scm.Append", err)
		}
		cur += uint64(len(strip))
	}
	if err := s.align(); err != nil {
		return 0, err
	}

	p.StripOffsets = offsets
	p.StripByteCounts = counts
	p.Next = 0

	if _, err := s.f.Seek(int64(uoffset), 0); err != nil {
		return 0, scmerr.New(scmerr.KindIO, "scm.Append", err)
	}
	if err := tiff.WriteIFD(s.f, s.order, p, uoffset); err != nil {
		return 0, err
	}
	if err := s.link(uoffset); err != nil {
		return 0, err
	}
	if _, err := s.f.Seek(0, 2); err != nil {
		return 0, scmerr.New(scmerr.KindIO, "scm.Append", err)
	}
	// A new page invalidates the cached catalog; the next search rescans.
	s.catalog = nil
	return uoffset, nil
}

// align pads the file with a single zero byte if its current length is
// odd, so the next IFD starts on a 2-byte boundary (§4.E).
func (s *File) align() error {
	pos, err := s.f.Seek(0, 1)
	if err != nil {
		return scmerr.New(scmerr.KindIO, "scm.align", err)
	}
	if pos%2 != 0 {
		if _, err := s.f.Write([]byte{0}); err != nil {
			return scmerr.New(scmerr.KindIO, "scm.align", err)
		}
	}
	return nil
}

// link threads the newly written IFD at offset into the sibling list: it
// patches either the previous IFD's next-pointer, or the file header if
// this is the first page.
func (s *File) link(offset uint64) error {
	if s.lastIFD == 0 {
		s.firstIFD = offset
		if err := tiff.PatchFirstIFD(s.f, s.order, offset); err != nil {
			return err
		}
	} else {
		prev := buildTemplate(s.geom, s.tg, s.minType, 0) // only field layout matters
		nextOff := prev.NextFieldOffset(s.lastIFD)
		var buf [8]byte
		s.order.PutUint64(buf[:], offset)
		if _, err := s.f.WriteAt(buf[:], int64(nextOff)); err != nil {
			return scmerr.New(scmerr.KindIO, "scm.link", err)
		}
	}
	s.lastIFD = offset
	return nil
}

// Repeat copies a page's strip data verbatim from src (at srcIFDOffset)
// into s, without inflating or deflating it, provided the two files' page
// geometry matches identically; otherwise this is a fatal precondition
// violation (§4.F, §7).
func (s *File) Repeat(src *File, srcIFDOffset uint64) (uint64, error) {
	if s.geom.N != src.geom.N || s.geom.Channels != src.geom.Channels ||
		s.geom.Bits != src.geom.Bits || s.geom.Signed != src.geom.Signed ||
		s.geom.RowsPerStrip != src.geom.RowsPerStrip {
		return 0, scmerr.New(scmerr.KindPrecondition, "scm.Repeat",
			fmt.Errorf("geometry mismatch: %+v vs %+v", s.geom, src.geom))
	}
	fields, _, err := tiff.ReadIFD(src.f, src.order, srcIFDOffset)
	if err != nil {
		return 0, err
	}
	srcOffsets, err := tiff.ReadArray(src.f, src.order, fields[tiff.TagStripOffsets])
	if err != nil {
		return 0, err
	}
	srcCounts, err := tiff.ReadArray(src.f, src.order, fields[tiff.TagStripByteCounts])
	if err != nil {
		return 0, err
	}
	pageIndex := int64(fields[tiff.TagPageIndex].Value)

	offset, err := s.f.Seek(0, 2)
	if err != nil {
		return 0, scmerr.New(scmerr.KindIO, "scm.Repeat", err)
	}
	uoffset := uint64(offset)

	p := buildTemplate(s.geom, s.tg, s.minType, pageIndex)
	if err := tiff.WriteIFD(s.f, s.order, p, uoffset); err != nil {
		return 0, err
	}

	dataStart, err := s.f.Seek(0, 1)
	if err != nil {
		return 0, scmerr.New(scmerr.KindIO, "scm.Repeat", err)
	}
	offsets := make([]uint64, len(srcOffsets))
	counts := make([]uint32, len(srcCounts))
	cur := uint64(dataStart)
	buf := make([]byte, 1<<20)
	for i := range srcOffsets {
		n := srcCounts[i]
		if _, err := src.f.ReadAt(ensureCap(&buf, int(n))[:n], int64(srcOffsets[i])); err != nil {
			return 0, scmerr.New(scmerr.KindIO, "scm.Repeat", err)
		}
		if _, err := s.f.Write(buf[:n]); err != nil {
			return 0, scmerr.New(scmerr.KindIO, "scm.Repeat", err)
		}
		offsets[i] = cur
		counts[i] = uint32(n)
		cur += uint64(n)
	}
	if err := s.align(); err != nil {
		return 0, err
	}

	p.StripOffsets = offsets
	p.StripByteCounts = counts
	p.Next = 0
	if _, err := s.f.Seek(int64(uoffset), 0); err != nil {
		return 0, scmerr.New(scmerr.KindIO, "scm.Repeat", err)
	}
	if err := tiff.WriteIFD(s.f, s.order, p, uoffset); err != nil {
		return 0, err
	}
	if err := s.link(uoffset); err != nil {
		return 0, err
	}
	if _, err := s.f.Seek(0, 2); err != nil {
		return 0, scmerr.New(scmerr.KindIO, "scm.Repeat", err)
	}
	// A new page invalidates the cached catalog; the next search rescans.
	s.catalog = nil
	return uoffset, nil
}

func ensureCap(buf *[]byte, n int) []byte {
	if cap(*buf) < n {
		*buf = make([]byte, n)
	}
	return (*buf)[:n]
}

// ScanCatalog walks the IFD chain from the file header and returns the
// (page index, offset) of every page, sorted by ascending index. O(n log n).
func (s *File) ScanCatalog() ([]CatalogEntry, error) {
	var entries []CatalogEntry
	for off := s.firstIFD; off != 0; {
		fields, next, err := tiff.ReadIFD(s.f, s.order, off)
		if err != nil {
			return nil, err
		}
		entries = append(entries, CatalogEntry{Index: int64(fields[tiff.TagPageIndex].Value), Offset: off})
		off = next
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })
	s.catalog = entries
	return entries, nil
}

// SearchCatalog performs an O(log n) binary search for page index x in the
// cached (or freshly scanned) sorted catalog, returning its IFD offset, or
// false if x has not been appended.
func (s *File) SearchCatalog(x int64) (uint64, bool, error) {
	if s.catalog == nil {
		if _, err := s.ScanCatalog(); err != nil {
			return 0, false, err
		}
	}
	entries := s.catalog
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Index >= x })
	if i < len(entries) && entries[i].Index == x {
		return entries[i].Offset, true, nil
	}
	return 0, false, nil
}

// MakeCatalog appends the sorted (page_index, ifd_offset) pairs at EOF as a
// flat LONG8 array and patches every written IFD's page_catalog field to
// point at it. Two file passes: one to build the catalog in memory (via
// ScanCatalog), one to patch IFDs (§4.F).
func (s *File) MakeCatalog() error {
	entries, err := s.ScanCatalog()
	if err != nil {
		return err
	}
	offset, err := s.f.Seek(0, 2)
	if err != nil {
		return scmerr.New(scmerr.KindIO, "scm.MakeCatalog", err)
	}
	uoffset := uint64(offset)
	flat := make([]byte, 16*len(entries))
	for i, e := range entries {
		s.order.PutUint64(flat[i*16:], uint64(e.Index))
		s.order.PutUint64(flat[i*16+8:], e.Offset)
	}
	if _, err := s.f.Write(flat); err != nil {
		return scmerr.New(scmerr.KindIO, "scm.MakeCatalog", err)
	}
	if err := s.align(); err != nil {
		return err
	}

	count := uint64(2 * len(entries))
	p := buildTemplate(s.geom, s.tg, s.minType, 0)
	for _, e := range entries {
		if err := tiff.PatchArrayField(s.f, s.order, p, e.Offset, tiff.TagPageCatalog, count, uoffset); err != nil {
			return err
		}
	}
	if _, err := s.f.Seek(0, 2); err != nil {
		return scmerr.New(scmerr.KindIO, "scm.MakeCatalog", err)
	}
	return nil
}

// readPage decodes the complete (n+2)x(n+2)xC float page stored at the IFD
// written at offset.
func (s *File) readPage(offset uint64) ([]float64, error) {
	fields, _, err := tiff.ReadIFD(s.f, s.order, offset)
	if err != nil {
		return nil, err
	}
	offsets, err := tiff.ReadArray(s.f, s.order, fields[tiff.TagStripOffsets])
	if err != nil {
		return nil, err
	}
	counts, err := tiff.ReadArray(s.f, s.order, fields[tiff.TagStripByteCounts])
	if err != nil {
		return nil, err
	}
	strips := make([][]byte, len(offsets))
	for i := range offsets {
		buf := make([]byte, counts[i])
		if _, err := s.f.ReadAt(buf, int64(offsets[i])); err != nil {
			return nil, scmerr.New(scmerr.KindIO, "scm.readPage", err)
		}
		strips[i] = buf
	}
	return s.tg.DecodeStrips(strips)
}

// channelExtrema returns the per-channel min and max over a row-major,
// channel-interleaved float page.
func channelExtrema(page []float64, channels int) (min, max []float64) {
	min = make([]float64, channels)
	max = make([]float64, channels)
	for c := 0; c < channels; c++ {
		min[c] = math.Inf(1)
		max[c] = math.Inf(-1)
	}
	for i := 0; i+channels <= len(page); i += channels {
		for c := 0; c < channels; c++ {
			v := page[i+c]
			if v < min[c] {
				min[c] = v
			}
			if v > max[c] {
				max[c] = v
			}
		}
	}
	return min, max
}

// MakeExtrema computes every page's per-channel (minima, maxima). Catalog
// entries are processed deepest-last-first: for a page whose four children
// are all present in the catalog, its extrema are the channel-wise min/max
// of its children's already-computed extrema; otherwise the page's strips
// are decoded and scanned pixel-by-pixel (§4.F). The two resulting arrays
// are encoded in the container's native sample width and appended at EOF.
// Each IFD's page_minima/page_maxima fields hold that page's own per-channel
// values: inline when they fit in 8 bytes, otherwise as an offset into the
// appended arrays.
func (s *File) MakeExtrema() error {
	entries, err := s.ScanCatalog()
	if err != nil {
		return err
	}
	n := len(entries)
	channels := s.geom.Channels
	byIndex := make(map[int64]int, n)
	for i, e := range entries {
		byIndex[e.Index] = i
	}

	minima := make([][]float64, n)
	maxima := make([][]float64, n)
	for i := n - 1; i >= 0; i-- {
		e := entries[i]
		positions := make([]int, 0, 4)
		complete := true
		for k := 0; k < 4; k++ {
			pos, ok := byIndex[geom.PageChild(e.Index, k)]
			if !ok {
				complete = false
				break
			}
			positions = append(positions, pos)
		}
		var mn, mx []float64
		if complete {
			mn = append([]float64(nil), minima[positions[0]]...)
			mx = append([]float64(nil), maxima[positions[0]]...)
			for _, pos := range positions[1:] {
				for c := 0; c < channels; c++ {
					if minima[pos][c] < mn[c] {
						mn[c] = minima[pos][c]
					}
					if maxima[pos][c] > mx[c] {
						mx[c] = maxima[pos][c]
					}
				}
			}
		} else {
			page, err := s.readPage(e.Offset)
			if err != nil {
				return err
			}
			mn, mx = channelExtrema(page, channels)
		}
		minima[i] = mn
		maxima[i] = mx
	}

	elemSize := int(tiff.TypeSize(s.minType))
	minBytes := make([]byte, n*channels*elemSize)
	maxBytes := make([]byte, n*channels*elemSize)
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			copy(minBytes[(i*channels+c)*elemSize:], s.tg.EncodeValue(minima[i][c]))
			copy(maxBytes[(i*channels+c)*elemSize:], s.tg.EncodeValue(maxima[i][c]))
		}
	}

	minOffset, err := s.f.Seek(0, 2)
	if err != nil {
		return scmerr.New(scmerr.KindIO, "scm.MakeExtrema", err)
	}
	if _, err := s.f.Write(minBytes); err != nil {
		return scmerr.New(scmerr.KindIO, "scm.MakeExtrema", err)
	}
	if err := s.align(); err != nil {
		return err
	}
	maxOffset, err := s.f.Seek(0, 2)
	if err != nil {
		return scmerr.New(scmerr.KindIO, "scm.MakeExtrema", err)
	}
	if _, err := s.f.Write(maxBytes); err != nil {
		return scmerr.New(scmerr.KindIO, "scm.MakeExtrema", err)
	}
	if err := s.align(); err != nil {
		return err
	}

	p := buildTemplate(s.geom, s.tg, s.minType, 0)
	size := channels * elemSize
	for i, e := range entries {
		minVal := uint64(minOffset) + uint64(i*size)
		maxVal := uint64(maxOffset) + uint64(i*size)
		if size <= 8 {
			// Arrays of at most 8 bytes live inline in the entry, as
			// tiff.ReadArray expects.
			var mb, xb [8]byte
			copy(mb[:], minBytes[i*size:(i+1)*size])
			copy(xb[:], maxBytes[i*size:(i+1)*size])
			minVal, maxVal = s.order.Uint64(mb[:]), s.order.Uint64(xb[:])
		}
		if err := tiff.PatchArrayField(s.f, s.order, p, e.Offset, tiff.TagPageMinima, uint64(channels), minVal); err != nil {
			return err
		}
		if err := tiff.PatchArrayField(s.f, s.order, p, e.Offset, tiff.TagPageMaxima, uint64(channels), maxVal); err != nil {
			return err
		}
	}
	if _, err := s.f.Seek(0, 2); err != nil {
		return scmerr.New(scmerr.KindIO, "scm.MakeExtrema", err)
	}
	return nil
}

// Finalize optionally builds the catalog and/or extrema regions. Never
// invoked automatically by the convert driver; callers opt in explicitly
// (§12.1 of the design notes).
func (s *File) Finalize(withCatalog, withExtrema bool) error {
	if withCatalog {
		if err := s.MakeCatalog(); err != nil {
			return err
		}
	}
	if withExtrema {
		if err := s.MakeExtrema(); err != nil {
			return err
		}
	}
	return nil
}

// Sample reads a single (page, row, col) sample without decoding the whole
// page: only the one strip containing that row is inflated, supplementing
// the page store with scm.c's scm_get_sample (§7 of SPEC_FULL.md).
func (s *File) Sample(x int64, row, col int) ([]float64, error) {
	offset, ok, err := s.SearchCatalog(x)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, scmerr.New(scmerr.KindPrecondition, "scm.Sample", fmt.Errorf("page %d not present", x))
	}
	fields, _, err := tiff.ReadIFD(s.f, s.order, offset)
	if err != nil {
		return nil, err
	}
	offsets, err := tiff.ReadArray(s.f, s.order, fields[tiff.TagStripOffsets])
	if err != nil {
		return nil, err
	}
	counts, err := tiff.ReadArray(s.f, s.order, fields[tiff.TagStripByteCounts])
	if err != nil {
		return nil, err
	}
	side := s.tg.Side()
	rows := s.geom.RowsPerStrip
	stripIdx := row / rows
	if row < 0 || stripIdx >= len(offsets) || col < 0 || col >= side {
		return nil, scmerr.New(scmerr.KindPrecondition, "scm.Sample", fmt.Errorf("row %d col %d out of range", row, col))
	}
	buf := make([]byte, counts[stripIdx])
	if _, err := s.f.ReadAt(buf, int64(offsets[stripIdx])); err != nil {
		return nil, scmerr.New(scmerr.KindIO, "scm.Sample", err)
	}
	strip, err := s.tg.DecodeStrips([][]byte{buf})
	if err != nil {
		return nil, err
	}
	localRow := row % rows
	channels := s.geom.Channels
	base := (localRow*side + col) * channels
	return append([]float64(nil), strip[base:base+channels]...), nil
}

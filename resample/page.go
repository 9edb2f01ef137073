package resample

import (
	"sync/atomic"

	"github.com/tbonfort/gobs"

	"github.com/rtennill/scmconv/decode"
	"github.com/rtennill/scmconv/geom"
)

// Page assembles one (n+2)x(n+2)xC output page buffer for a page with the
// given corner directions, running the quincunx kernel over every interior
// cell in parallel via a gobs worker pool (§4.G, §5.1): the inner loop is
// embarrassingly parallel, with no shared writes besides a single
// commutative hit counter. The one-sample border ring is left zeroed, and
// nothing downstream fills it: the page store writes it as zeros.
func Page(img decode.Image, n int, corners geom.Corners, parallelism int) (buf []float64, hits int64) {
	channels := img.Channels()
	side := n + 2
	buf = make([]float64, side*side*channels)

	pool := gobs.NewPool(parallelism)
	batch := pool.Batch()
	var hitCount int64

	for r := 0; r < n; r++ {
		r := r
		batch.Submit(func() error {
			for c := 0; c < n; c++ {
				h, values := Pixel(img, corners, n, r, c)
				if h > 0 {
					atomic.AddInt64(&hitCount, 1)
				}
				base := ((r+1)*side + (c + 1)) * channels
				for k := 0; k < channels; k++ {
					buf[base+k] = values[k]
				}
			}
			return nil
		})
	}
	// Pixel never returns an error; Wait only surfaces ctx-cancellation
	// style failures a future caller might plumb through Submit.
	_ = batch.Wait()

	return buf, hitCount
}

// Package convert implements the conversion driver (§4.G): for a chosen
// output depth it iterates the page range, runs the quincunx kernel over
// each page via resample, and threads successfully-covered pages into the
// SCM container via scm, finalizing the catalog/extrema regions when the
// options ask for them.
package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"

	"github.com/rtennill/scmconv/decode"
	"github.com/rtennill/scmconv/geom"
	"github.com/rtennill/scmconv/resample"
	"github.com/rtennill/scmconv/scm"
	"github.com/rtennill/scmconv/scmerr"
)

// Logger is the subset of *zap.SugaredLogger the driver calls. It is
// passed in explicitly rather than held on a package global, so cmd/scmconv
// controls its own sink and fields (§5.1).
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// Options configures one conversion run (§4.G, §6.1's flag table).
type Options struct {
	OutputPath   string
	N            int
	Depth        int
	Bits         int
	Signed       bool
	RowsPerStrip int
	Norm0, Norm1 float64
	Description  string
	Parallelism  int
	WithCatalog  bool
	WithExtrema  bool
}

// Run converts img into a new SCM file at opts.OutputPath. It writes to a
// sibling temp file named with a random uuid and renames it into place
// only once every page and the requested finalize pass has succeeded, so a
// crash mid-conversion never leaves a half-written file at the requested
// path — the same write-then-rename discipline the teacher's cmd/cogger
// driver applies around its single os.Create/Close.
func Run(log Logger, img decode.Image, opts Options) error {
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}

	g := scm.Geometry{
		N: opts.N, Channels: img.Channels(), Bits: opts.Bits, Signed: opts.Signed,
		RowsPerStrip: opts.RowsPerStrip, Norm0: opts.Norm0, Norm1: opts.Norm1,
	}

	tmpPath := filepath.Join(filepath.Dir(opts.OutputPath), "."+uuid.NewString()+".scm.tmp")
	f, err := scm.Create(tmpPath, g, opts.Description)
	if err != nil {
		return err
	}

	lo := geom.PageCount(opts.Depth - 1)
	hi := geom.PageCount(opts.Depth)
	log.Infow("convert: starting", "depth", opts.Depth, "pages", hi-lo, "n", opts.N, "workers", opts.Parallelism)

	written := 0
	for x := lo; x < hi; x++ {
		corners := geom.PageCorners(x)
		buf, hits := resample.Page(img, opts.N, corners, opts.Parallelism)
		if hits == 0 {
			continue
		}
		if _, err := f.Append(x, buf); err != nil {
			log.Errorw("convert: append failed", "page", x, "err", err)
			f.Close()
			os.Remove(tmpPath)
			return err
		}
		written++
	}
	log.Infow("convert: pages written", "count", written)

	if opts.WithCatalog || opts.WithExtrema {
		if err := f.Finalize(opts.WithCatalog, opts.WithExtrema); err != nil {
			log.Errorw("convert: finalize failed", "err", err)
			f.Close()
			os.Remove(tmpPath)
			return err
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, opts.OutputPath); err != nil {
		os.Remove(tmpPath)
		return scmerr.New(scmerr.KindIO, "convert.Run", fmt.Errorf("rename %s -> %s: %w", tmpPath, opts.OutputPath, err))
	}
	log.Infow("convert: done", "output", opts.OutputPath)
	return nil
}

// Command scmconv converts a mapped planetary raster (JPEG, PNG, TIFF, or
// a PDS3 image/label pair) into a Spherical Cube Map container (§6.1).
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rtennill/scmconv/convert"
	"github.com/rtennill/scmconv/decode"
	"github.com/rtennill/scmconv/projection"
	"github.com/rtennill/scmconv/scm"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		output       string
		description  string
		n, depth     int
		bits, signed int
		lat0, lat1   float64
		lon0, lon1   float64
		dlat0, dlat1 float64
		dlon0, dlon1 float64
		norm0, norm1 float64
		norm0Set     bool
		norm1Set     bool
		parallelism  int
		withCatalog  bool
		withExtrema  bool
	)

	cmd := &cobra.Command{
		Use:          "scmconv [flags] input",
		Short:        "convert a mapped raster into a spherical cube map",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := resolveDescription(description)
			if err != nil {
				return err
			}
			win := projection.Window{
				Lat0: radians(lat0), Lat1: radians(lat1), Lon0: radians(lon0), Lon1: radians(lon1),
				DLat0: radians(dlat0), DLat1: radians(dlat1), DLon0: radians(dlon0), DLon1: radians(dlon1),
			}
			return run(runConfig{
				inputPath: args[0], outputPath: output, description: desc,
				n: n, depth: depth, bits: bits, signed: signed,
				window: win, norm0: norm0, norm1: norm1,
				norm0Set: norm0Set, norm1Set: norm1Set,
				parallelism: parallelism, withCatalog: withCatalog, withExtrema: withExtrema,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "out.tif", "output file")
	flags.StringVarP(&description, "description", "t", "", "description embedded in the preface; @file reads it from file")
	flags.IntVarP(&n, "n", "n", 512, "page side, in samples")
	flags.IntVarP(&depth, "depth", "d", 0, "quad-tree depth to emit")
	flags.IntVarP(&bits, "bits", "b", 0, "output bits per channel (8/16/32); 0 keeps the input's")
	flags.IntVarP(&signed, "signed", "g", -1, "output signed flag (0/1); -1 keeps the input's")
	flags.Float64Var(&lat0, "lat0", 0, "blending window outer min latitude, degrees")
	flags.Float64Var(&lat1, "lat1", 0, "blending window outer max latitude, degrees")
	flags.Float64Var(&lon0, "lon0", 0, "blending window outer min longitude, degrees")
	flags.Float64Var(&lon1, "lon1", 0, "blending window outer max longitude, degrees")
	flags.Float64Var(&dlat0, "dlat0", 0, "blending window inner min latitude, degrees")
	flags.Float64Var(&dlat1, "dlat1", 0, "blending window inner max latitude, degrees")
	flags.Float64Var(&dlon0, "dlon0", 0, "blending window inner min longitude, degrees")
	flags.Float64Var(&dlon1, "dlon1", 0, "blending window inner max longitude, degrees")
	flags.Float64Var(&norm0, "norm0", 0, "normalization window lower bound")
	flags.Float64Var(&norm1, "norm1", 1, "normalization window upper bound")
	flags.IntVar(&parallelism, "parallelism", 0, "worker count for the per-page kernel; 0 uses runtime.NumCPU()")
	flags.BoolVar(&withCatalog, "with-catalog", false, "finalize the file with a page catalog")
	flags.BoolVar(&withExtrema, "with-extrema", false, "finalize the file with per-page min/max extrema")
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		norm0Set = cmd.Flags().Changed("norm0")
		norm1Set = cmd.Flags().Changed("norm1")
		return nil
	}

	return cmd
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// resolveDescription implements the `-t @file` indirection (§6.1): when
// the value starts with '@', its remainder names a file whose contents
// become the description, shell-word-split and rejoined with spaces —
// mirroring mcog.go's use of go-shellwords to post-process a flag value.
func resolveDescription(v string) (string, error) {
	if !strings.HasPrefix(v, "@") {
		return v, nil
	}
	raw, err := os.ReadFile(v[1:])
	if err != nil {
		return "", fmt.Errorf("read description file %s: %w", v[1:], err)
	}
	words, err := shellwords.Parse(strings.TrimSpace(string(raw)))
	if err != nil {
		return "", fmt.Errorf("parse description file %s: %w", v[1:], err)
	}
	return strings.Join(words, " "), nil
}

type runConfig struct {
	inputPath, outputPath, description string
	n, depth, bits, signed             int
	window                             projection.Window
	norm0, norm1                       float64
	norm0Set, norm1Set                 bool
	parallelism                        int
	withCatalog, withExtrema           bool
}

func run(cfg runConfig) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	img, err := openInput(cfg.inputPath, cfg.window, cfg.norm0, cfg.norm1)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.inputPath, err)
	}
	defer img.Close()

	bits := cfg.bits
	if bits == 0 {
		bits = img.BitsPerChannel()
	}
	signed := img.Signed()
	switch cfg.signed {
	case 0:
		signed = false
	case 1:
		signed = true
	}

	norm0, norm1 := cfg.norm0, cfg.norm1
	if !cfg.norm0Set && !cfg.norm1Set {
		norm0, norm1 = img.Norm()
	}

	return convert.Run(sugar, img, convert.Options{
		OutputPath:   cfg.outputPath,
		N:            cfg.n,
		Depth:        cfg.depth,
		Bits:         bits,
		Signed:       signed,
		RowsPerStrip: scm.DefaultRowsPerStrip,
		Norm0:        norm0,
		Norm1:        norm1,
		Description:  cfg.description,
		Parallelism:  cfg.parallelism,
		WithCatalog:  cfg.withCatalog,
		WithExtrema:  cfg.withExtrema,
	})
}

// openInput selects a decoder by the input path's extension (§6.1): .jpg/
// .jpeg, .png, .tif/.tiff, and .img/.lbl (PDS3, label alongside the image).
func openInput(path string, win projection.Window, norm0, norm1 float64) (decode.Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return decode.OpenJPEG(path, win, norm0, norm1)
	case ".png":
		return decode.OpenPNG(path, win, norm0, norm1)
	case ".tif", ".tiff":
		return decode.OpenTIFF(path, win, norm0, norm1)
	case ".img":
		lbl := strings.TrimSuffix(path, filepath.Ext(path)) + ".lbl"
		return openPDS(path, lbl, win, norm0, norm1)
	case ".lbl":
		img := strings.TrimSuffix(path, filepath.Ext(path)) + ".img"
		return openPDS(img, path, win, norm0, norm1)
	default:
		return nil, fmt.Errorf("unsupported input extension %q", filepath.Ext(path))
	}
}

// openPDS opens a PDS3 image/label pair and attaches the CLI's blending
// window, which OpenPDS itself does not take.
func openPDS(imgPath, lblPath string, win projection.Window, norm0, norm1 float64) (decode.Image, error) {
	m, err := decode.OpenPDS(imgPath, lblPath, norm0, norm1)
	if err != nil {
		return nil, err
	}
	m.BlendV = win
	return m, nil
}

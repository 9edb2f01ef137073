// Command scmview is a minimal, non-interactive inspection stub for SCM
// files: it prints a file's shared geometry and page count, can dump one
// page to a PNG, and can persist a named viewpoint (camera latitude,
// longitude, distance) as YAML for a future interactive viewer to load.
// It deliberately does not reimplement scmview.c's OpenGL render loop.
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"
	"gopkg.in/yaml.v3"

	"github.com/rtennill/scmconv/scm"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "scmview",
		Short:        "inspect a spherical cube map file",
		SilenceUsage: true,
	}
	root.AddCommand(newInfoCommand(), newDumpCommand(), newSaveViewpointCommand())
	return root
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "print the file's shared geometry and page count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := scm.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Info()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"n=%d channels=%d bits=%d signed=%t rows_per_strip=%d pages=%d\n",
				info.N, info.Channels, info.Bits, info.Signed, info.RowsPerStrip, info.PageCount)
			return nil
		},
	}
}

func newDumpCommand() *cobra.Command {
	var output string
	var maxDim int
	cmd := &cobra.Command{
		Use:   "dump FILE PAGE_INDEX",
		Short: "decode one page and write it as a grayscale PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var x int64
			if _, err := fmt.Sscanf(args[1], "%d", &x); err != nil {
				return fmt.Errorf("parse page index %q: %w", args[1], err)
			}
			f, err := scm.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return dumpPage(f, x, output, maxDim)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "page.png", "PNG output path")
	cmd.Flags().IntVar(&maxDim, "max-dim", 0, "downscale the dump to at most this many pixels per side; 0 keeps native size")
	return cmd
}

func dumpPage(f *scm.File, x int64, output string, maxDim int) error {
	g := f.Geometry()
	side := g.N + 2
	full := image.NewGray(image.Rect(0, 0, side, side))
	for row := 0; row < side; row++ {
		for col := 0; col < side; col++ {
			values, err := f.Sample(x, row, col)
			if err != nil {
				return fmt.Errorf("sample (%d,%d): %w", row, col, err)
			}
			v := 0.0
			if len(values) > 0 {
				v = values[0]
			}
			full.SetGray(col, row, color.Gray{Y: clampByte(v)})
		}
	}

	preview := image.Image(full)
	if maxDim > 0 && side > maxDim {
		scaled := image.NewGray(image.Rect(0, 0, maxDim, maxDim))
		// Browse-quality downscale for quick inspection of a full-size
		// page; image/png alone has no resampling scaler, so this is the
		// one spot the module reaches past the stdlib image packages.
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), full, full.Bounds(), draw.Over, nil)
		preview = scaled
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, preview)
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

// Viewpoint is a saved camera position: latitude/longitude in degrees and
// a distance from the sphere center in radii.
type Viewpoint struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Distance  float64 `yaml:"distance"`
}

func newSaveViewpointCommand() *cobra.Command {
	var name string
	var lat, lon, dist float64
	cmd := &cobra.Command{
		Use:   "save-viewpoint OUTPUT.yaml",
		Short: "persist a named camera viewpoint as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vp := Viewpoint{Name: name, Latitude: lat, Longitude: lon, Distance: dist}
			data, err := yaml.Marshal(vp)
			if err != nil {
				return err
			}
			return os.WriteFile(args[0], data, 0644)
		},
	}
	cmd.Flags().StringVar(&name, "name", "default", "viewpoint name")
	cmd.Flags().Float64Var(&lat, "lat", 0, "camera latitude, degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "camera longitude, degrees")
	cmd.Flags().Float64Var(&dist, "distance", 3, "camera distance, sphere radii")
	return cmd
}

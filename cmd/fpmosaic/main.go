// Command fpmosaic is a thin demonstration CLI around the core render
// pipeline: it is the "UI" boundary the core explicitly stays out of (§1) —
// reading a command line, writing a PNG to disk, nothing the cache fabric
// or render controller need to know about.
package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lsst-camera-visualization/fpmosaic/bias"
	"github.com/lsst-camera-visualization/fpmosaic/colormap"
	"github.com/lsst-camera-visualization/fpmosaic/fetch"
	"github.com/lsst-camera-visualization/fpmosaic/mosaic"
)

// imageRaster adapts an *image.RGBA to render.Raster by flooring the
// focal-plane coordinate to the nearest output pixel, offset so the whole
// mosaic's bounding box lands inside the image.
type imageRaster struct {
	img        *image.RGBA
	originX, originY float64
}

func (r *imageRaster) Set(fx, fy float64, c colormap.RGB) {
	x := int(math.Floor(fx - r.originX))
	y := int(math.Floor(fy - r.originY))
	b := r.img.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return
	}
	r.img.Set(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
}

func main() {
	var (
		colormapName string
		biasKind     string
		wcsLetter    string
		scaleGlobal  bool
		showBias     bool
		width        int
		height       int
		originX      float64
		originY      float64
		output       string
	)

	root := &cobra.Command{
		Use:   "fpmosaic <index-file> ",
		Short: "Render a focal-plane mosaic from a FITS segment index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer log.Sync()

			core, err := mosaic.New(fetch.NewDispatchReader(), mosaic.Config{}, mosaic.WithLogger(log))
			if err != nil {
				return fmt.Errorf("building core: %w", err)
			}

			scaleMode := mosaic.ScaleAmplifier
			if scaleGlobal {
				scaleMode = mosaic.ScaleGlobal
			}

			req := mosaic.Request{
				IndexURL:       args[0],
				Colormap:       colormap.Name(colormapName),
				BiasKind:       bias.Kind(biasKind),
				ShowBiasRegion: showBias,
				WCSLetter:      wcsLetterByte(wcsLetter),
				ScaleMode:      scaleMode,
			}

			img := image.NewRGBA(image.Rect(0, 0, width, height))
			out := &imageRaster{img: img, originX: originX, originY: originY}

			if err := core.Render(context.Background(), req, out); err != nil {
				return fmt.Errorf("rendering: %w", err)
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			return png.Encode(f, img)
		},
	}

	root.Flags().StringVar(&colormapName, "colormap", string(colormap.Grey), "colormap name")
	root.Flags().StringVar(&biasKind, "bias", string(bias.None), "bias correction strategy")
	root.Flags().StringVar(&wcsLetter, "wcs", "Q", "WCS selection letter")
	root.Flags().BoolVar(&scaleGlobal, "global-scale", false, "scale against one exposure-wide histogram")
	root.Flags().BoolVar(&showBias, "show-bias-region", false, "include the overscan border in output")
	root.Flags().IntVar(&width, "width", 4096, "output image width")
	root.Flags().IntVar(&height, "height", 4096, "output image height")
	root.Flags().Float64Var(&originX, "origin-x", 0, "focal-plane X mapped to output column 0")
	root.Flags().Float64Var(&originY, "origin-y", 0, "focal-plane Y mapped to output row 0")
	root.Flags().StringVarP(&output, "output", "o", "mosaic.png", "output PNG path")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func wcsLetterByte(s string) byte {
	if len(s) == 0 {
		return 'Q'
	}
	return s[0]
}

// Package quicklook renders time-height images of radar reflectivity.
package quicklook

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jddeal/go-rpgradar/moments"
)

// Options controls the image size and which cells are left empty.
type Options struct {
	Width  int
	Height int
	// FillValue marks cells without a moment; they stay transparent.
	FillValue float32
}

// DefaultOptions returns a 1200x600 image using the moments fill value.
func DefaultOptions() Options {
	return Options{Width: 1200, Height: 600, FillValue: moments.DefaultFillValue}
}

// step of the reflectivity colour table
type step struct {
	min float64
	c   color.RGBA
}

// steps in descending dBZ order; the first matching step wins
var steps = []step{
	{20, color.RGBA{200, 15, 175, 255}},
	{15, color.RGBA{255, 0, 50, 255}},
	{10, color.RGBA{255, 75, 0, 255}},
	{5, color.RGBA{255, 150, 0, 255}},
	{0, color.RGBA{255, 255, 0, 255}},
	{-5, color.RGBA{220, 220, 0, 255}},
	{-10, color.RGBA{60, 220, 20, 255}},
	{-15, color.RGBA{0, 160, 60, 255}},
	{-20, color.RGBA{0, 200, 200, 255}},
	{-25, color.RGBA{0, 120, 255, 255}},
	{-30, color.RGBA{0, 0, 255, 255}},
	{-40, color.RGBA{125, 0, 255, 255}},
	{-50, color.RGBA{128, 128, 128, 255}},
}

// LUT maps reflectivity in dBZ to a colour. Values below the table and NaN
// are transparent.
func LUT(dbz float64) color.Color {
	for _, s := range steps {
		if dbz >= s.min {
			return s.c
		}
	}
	return color.Transparent
}

// DBZ converts linear reflectivity to dBZ; non-positive values give NaN.
func DBZ(ze float32) float64 {
	if ze <= 0 {
		return math.NaN()
	}
	return 10 * math.Log10(float64(ze))
}

// gateEdges returns len(heights)+1 boundaries halfway between gate centres.
func gateEdges(heights []float32) []float64 {
	n := len(heights)
	edges := make([]float64, n+1)
	if n == 1 {
		edges[0], edges[1] = float64(heights[0])-0.5, float64(heights[0])+0.5
		return edges
	}
	for i := 1; i < n; i++ {
		edges[i] = float64(heights[i-1]+heights[i]) / 2
	}
	edges[0] = float64(heights[0]) - (edges[1] - float64(heights[0]))
	edges[n] = float64(heights[n-1]) + (float64(heights[n-1]) - edges[n-1])
	return edges
}

// Render draws the Ze field of res as a PNG with time on the x axis and
// height on the y axis. heights holds the centre height of every gate.
func Render(w io.Writer, res *moments.Result, heights []float32, opts Options) error {
	if res.NTime == 0 || res.NRange == 0 {
		return errors.New("nothing to render")
	}
	if len(heights) != res.NRange {
		return errors.Errorf("%d heights for %d range gates", len(heights), res.NRange)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return errors.Errorf("invalid image size %dx%d", opts.Width, opts.Height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(canvas, canvas.Bounds(), image.Transparent, image.Point{}, draw.Src)
	gc := draw2dimg.NewGraphicContext(canvas)

	edges := gateEdges(heights)
	span := edges[len(edges)-1] - edges[0]
	width, height := float64(opts.Width), float64(opts.Height)
	colWidth := width / float64(res.NTime)
	y := func(h float64) float64 { return height - (h-edges[0])/span*height }

	drawn := 0
	for t := 0; t < res.NTime; t++ {
		x0 := float64(t) * colWidth
		for gate := 0; gate < res.NRange; gate++ {
			ze := res.Ze[t*res.NRange+gate]
			if ze == opts.FillValue {
				continue
			}
			c := LUT(DBZ(ze))
			if _, _, _, a := c.RGBA(); a == 0 {
				continue
			}
			gc.SetFillColor(c)
			draw2dkit.Rectangle(gc, x0, y(edges[gate+1]), x0+colWidth, y(edges[gate]))
			gc.Fill()
			drawn++
		}
	}
	logrus.Debugf("quicklook: %d of %d cells drawn", drawn, res.NTime*res.NRange)

	return errors.Wrap(png.Encode(w, canvas), "encoding PNG")
}

package quicklook

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jddeal/go-rpgradar/moments"
)

func TestLUT(t *testing.T) {
	assert.Equal(t, color.RGBA{255, 255, 0, 255}, LUT(0))
	assert.Equal(t, color.RGBA{255, 255, 0, 255}, LUT(4.9))
	assert.Equal(t, color.RGBA{200, 15, 175, 255}, LUT(60))
	assert.Equal(t, color.Transparent, LUT(-70))
	assert.Equal(t, color.Transparent, LUT(math.NaN()))
}

func TestDBZ(t *testing.T) {
	assert.InDelta(t, 10.0, DBZ(10), 1e-9)
	assert.InDelta(t, -30.0, DBZ(1e-3), 1e-6)
	assert.True(t, math.IsNaN(DBZ(0)))
	assert.True(t, math.IsNaN(DBZ(-1)))
}

func TestGateEdges(t *testing.T) {
	assert.Equal(t, []float64{50, 150, 250}, gateEdges([]float32{100, 200}))
	assert.Equal(t, []float64{99.5, 100.5}, gateEdges([]float32{100}))
}

func TestRender(t *testing.T) {
	res := &moments.Result{
		NTime:  2,
		NRange: 2,
		// t0: gate0 0 dBZ, gate1 fill; t1: gate0 -30 dBZ, gate1 20 dBZ
		Ze: []float32{1, -999, 1e-3, 100},
	}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, res, []float32{100, 200}, Options{Width: 40, Height: 40, FillValue: -999}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 40), img.Bounds())

	rgba := func(x, y int) color.RGBA {
		r, g, b, a := img.At(x, y).RGBA()
		return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
	}
	// gate 0 is the lower half of the image
	assert.Equal(t, LUT(0), rgba(10, 30))
	assert.Equal(t, uint8(0), rgba(10, 10).A)
	assert.Equal(t, LUT(-30), rgba(30, 30))
	assert.Equal(t, LUT(20), rgba(30, 10))
}

func TestRenderRejectsBadInput(t *testing.T) {
	var buf bytes.Buffer
	res := &moments.Result{NTime: 1, NRange: 2, Ze: []float32{1, 1}}
	assert.Error(t, Render(&buf, res, []float32{100}, DefaultOptions()))
	assert.Error(t, Render(&buf, &moments.Result{}, nil, DefaultOptions()))
	assert.Error(t, Render(&buf, res, []float32{100, 200}, Options{}))
}

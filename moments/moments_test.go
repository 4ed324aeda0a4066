package moments_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jddeal/go-rpgradar/moments"
	"github.com/jddeal/go-rpgradar/rpg"
	"github.com/jddeal/go-rpgradar/rpg/rpgtest"
)

func TestFindPeakEdges(t *testing.T) {
	tests := []struct {
		signal      []float32
		left, right int
	}{
		{[]float32{0, 0, 0, 0, 0.01, 0.04, 0.09, 0.1, 0.05, 0.01, 0, 0, 0, 0, 0}, 4, 10},
		{[]float32{0.09, 0.1, 0.05, 0.01, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0.01, 0.04}, 0, 4},
		{[]float32{0, 0, 0, 0.3, 0, 0, 0.2, 0.3, 0.5, 0.2, 0, 0, 0, 0.2}, 6, 10},
		{[]float32{0, 0, 0, 0.3, 0, 0}, 3, 4},
		{[]float32{0.1, 0.2, 0.3, 0.5, 0, 0}, 0, 4},
		{[]float32{0, 0.1, 0.3, 0.2, 0.35, 0.5, 0.3, 0.1, 0}, 1, 8},
		// rising to the end never drops back to the baseline: window runs to len
		{[]float32{0, 0.2, 0.3, 0.5, 0.4, 0.3}, 1, 6},
	}
	for _, tt := range tests {
		left, right := moments.FindPeakEdges(tt.signal)
		assert.Equal(t, tt.left, left, tt.signal)
		assert.Equal(t, tt.right, right, tt.signal)
	}
}

func TestFindPeakEdgesEmpty(t *testing.T) {
	left, right := moments.FindPeakEdges(nil)
	assert.Zero(t, left)
	assert.Zero(t, right)
}

func velocityAxis() []float32 {
	return []float32{-3.5, -2.5, -1.5, -0.5, 0.5, 1.5, 2.5, 3.5}
}

func TestCell(t *testing.T) {
	signal := []float32{0, 0, 1, 2, 1, 0, 0, 0}

	m, ok := moments.Cell(signal, velocityAxis(), 1, 3)
	require.True(t, ok)
	assert.InDelta(t, 2.0, m.Ze, 1e-6)
	assert.InDelta(t, -1.0, m.MeanVel, 1e-6)
	assert.InDelta(t, math.Sqrt(0.5), m.SpecWidth, 1e-6)
	assert.InDelta(t, 0.0, m.Skewn, 1e-6)
	assert.InDelta(t, 2.0, m.Kurt, 1e-5)

	_, ok = moments.Cell(signal, velocityAxis(), 1, 4)
	assert.False(t, ok, "peak narrower than n_points_min")
}

func TestCellIgnoresNegativeAndNaN(t *testing.T) {
	nan := float32(math.NaN())
	signal := []float32{-5, nan, 1, 2, 1, -1, nan, 0}
	orig := append([]float32(nil), signal[:]...)

	m, ok := moments.Cell(signal, velocityAxis(), 1, 3)
	require.True(t, ok)
	assert.InDelta(t, 2.0, m.Ze, 1e-6)

	// input untouched
	for i := range signal {
		if math.IsNaN(float64(orig[i])) {
			assert.True(t, math.IsNaN(float64(signal[i])))
			continue
		}
		assert.Equal(t, orig[i], signal[i])
	}
}

func TestCellEmpty(t *testing.T) {
	_, ok := moments.Cell(make([]float32, 8), velocityAxis(), 1, 1)
	assert.False(t, ok)

	_, ok = moments.Cell([]float32{-1, 0, -2, 0, 0, 0, 0, 0}, velocityAxis(), 1, 1)
	assert.False(t, ok)
}

// spectraFile decodes a single-pol level 0 file with two chirps. Gate 0 has a
// wide peak, gate 1 a single-bin spike and gate 2 no signal.
func spectraFile(t *testing.T) *rpg.File {
	t.Helper()
	h := rpgtest.NewHeader(rpgtest.Layout{
		Type:    rpg.FileType{Level: rpg.Level0, Version: rpg.V3_5},
		RAltN:   4,
		SpecN:   []int32{8, 8},
		RngOffs: []int32{0, 2},
		MaxVel:  []float32{4, 8},
	})
	var recs []*rpg.Record
	for i := 0; i < 3; i++ {
		rec := rpgtest.NewRecord(h, uint32(i))
		tot := rec.Spectra[rpg.TotSpec]
		copy(tot[0:8], []float32{0, 0, 1, 2, 1, 0, 0, 0})
		tot[8+5] = 3
		copy(tot[24:32], []float32{0, 1, 1, 1, 1, 1, 0, 0})
		recs = append(recs, rec)
	}
	f, err := rpg.Decode(bytes.NewReader(rpgtest.EncodeFile(h, recs)), rpg.DecodeOptions{})
	require.NoError(t, err)
	return f
}

func TestCompute(t *testing.T) {
	f := spectraFile(t)
	opts := moments.Options{FillValue: -999, NPointsMin: 3}

	res, err := moments.FromFile(f, rpg.TotSpec, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, res.NTime)
	assert.Equal(t, 4, res.NRange)

	for tIdx := 0; tIdx < 3; tIdx++ {
		m, ok := res.At(tIdx, 0)
		require.True(t, ok)
		assert.InDelta(t, 2.0, m.Ze, 1e-6)
		assert.InDelta(t, -1.0, m.MeanVel, 1e-6)

		for _, gate := range []int{1, 2} {
			m, ok := res.At(tIdx, gate)
			assert.False(t, ok, gate)
			assert.Equal(t, moments.Moment{Ze: -999, MeanVel: -999, SpecWidth: -999, Skewn: -999, Kurt: -999}, m)
		}

		// chirp 1 has a 2 m/s resolution
		m, ok = res.At(tIdx, 3)
		require.True(t, ok)
		assert.InDelta(t, 2.5, m.Ze, 1e-6)
		assert.InDelta(t, -2.0, m.MeanVel, 1e-5)
		assert.Greater(t, m.SpecWidth, float32(0))
	}
}

func TestComputeIdempotent(t *testing.T) {
	f := spectraFile(t)
	cube, err := f.Spectra(rpg.TotSpec)
	require.NoError(t, err)
	before := append([]float32(nil), cube.Data...)

	a, err := moments.Compute(cube, f.Geometry, moments.DefaultOptions())
	require.NoError(t, err)
	b, err := moments.Compute(cube, f.Geometry, moments.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, before, cube.Data)
}

func TestComputeValidCells(t *testing.T) {
	f := spectraFile(t)
	res, err := moments.FromFile(f, rpg.TotSpec, moments.Options{FillValue: -1, NPointsMin: 1})
	require.NoError(t, err)

	for i, valid := range res.Valid {
		if !valid {
			assert.Equal(t, float32(-1), res.Ze[i])
			continue
		}
		assert.Greater(t, res.Ze[i], float32(0))
		assert.GreaterOrEqual(t, res.SpecWidth[i], float32(0))
	}
}

func TestComputeShapeMismatch(t *testing.T) {
	f := spectraFile(t)

	_, err := moments.Compute(rpg.NewCube(1, 5, 8), f.Geometry, moments.DefaultOptions())
	var se *moments.ShapeMismatchError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, [2]int{4, 8}, se.Want)
	assert.Equal(t, [2]int{5, 8}, se.Got)

	_, err = moments.Compute(rpg.NewCube(1, 4, 16), f.Geometry, moments.DefaultOptions())
	assert.True(t, errors.As(err, &se))
}

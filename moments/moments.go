// Package moments derives spectral moments (reflectivity, mean Doppler
// velocity, spectral width, skewness and kurtosis) and spectral LDR from the
// Doppler spectra of RPG level 0 files.
package moments

import (
	"fmt"
	"math"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/jddeal/go-rpgradar/rpg"
)

const (
	// DefaultFillValue marks cells without a usable peak.
	DefaultFillValue = -999

	// DefaultNPointsMin is the narrowest peak, in bins, that yields moments.
	DefaultNPointsMin = 4
)

// Options for Compute.
type Options struct {
	FillValue  float32
	NPointsMin int
}

// DefaultOptions returns the fill value and minimum peak width used by the radar software.
func DefaultOptions() Options {
	return Options{FillValue: DefaultFillValue, NPointsMin: DefaultNPointsMin}
}

// Moment of one (time, range) cell.
type Moment struct {
	Ze        float32 // linear reflectivity, mm6/m3
	MeanVel   float32 // m/s
	SpecWidth float32 // m/s
	Skewn     float32
	Kurt      float32
}

// Result holds moments on a (time, range) grid, flattened row-major by time.
// Valid is false where a cell had no signal; those cells carry the fill value
// in every moment.
type Result struct {
	NTime  int
	NRange int

	Ze        []float32
	MeanVel   []float32
	SpecWidth []float32
	Skewn     []float32
	Kurt      []float32
	Valid     []bool
}

func newResult(nTime, nRange int) *Result {
	n := nTime * nRange
	return &Result{
		NTime:     nTime,
		NRange:    nRange,
		Ze:        make([]float32, n),
		MeanVel:   make([]float32, n),
		SpecWidth: make([]float32, n),
		Skewn:     make([]float32, n),
		Kurt:      make([]float32, n),
		Valid:     make([]bool, n),
	}
}

func (r *Result) set(i int, m Moment, valid bool) {
	r.Ze[i] = m.Ze
	r.MeanVel[i] = m.MeanVel
	r.SpecWidth[i] = m.SpecWidth
	r.Skewn[i] = m.Skewn
	r.Kurt[i] = m.Kurt
	r.Valid[i] = valid
}

// At returns the moment of one cell.
func (r *Result) At(t, gate int) (Moment, bool) {
	i := t*r.NRange + gate
	return Moment{
		Ze:        r.Ze[i],
		MeanVel:   r.MeanVel[i],
		SpecWidth: r.SpecWidth[i],
		Skewn:     r.Skewn[i],
		Kurt:      r.Kurt[i],
	}, r.Valid[i]
}

// ShapeMismatchError is returned when a spectra cube does not fit the chirp geometry.
type ShapeMismatchError struct {
	Want [2]int // range gates, Doppler bins
	Got  [2]int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("spectra shape (range %d, bins %d) does not match geometry (range %d, bins %d)",
		e.Got[0], e.Got[1], e.Want[0], e.Want[1])
}

// Cell computes the moments of a single spectrum. velocity is the Doppler axis
// of the cell's chirp and dopplerRes its bin width. It reports false when the
// spectrum is empty or its peak is narrower than nPointsMin bins. signal is
// not modified.
func Cell(signal, velocity []float32, dopplerRes float64, nPointsMin int) (Moment, bool) {
	clean := make([]float32, len(signal))
	empty := true
	for i, v := range signal {
		if v > 0 {
			clean[i] = v
			empty = false
		}
	}
	if empty {
		return Moment{}, false
	}

	left, right := FindPeakEdges(clean)
	if right-left < nPointsMin {
		return Moment{}, false
	}

	sig := clean[left:right]
	vel := velocity[left:right]

	var sum float64
	for _, s := range sig {
		sum += float64(s)
	}

	var mean float64
	for i, s := range sig {
		mean += float64(vel[i]) * float64(s) / sum
	}

	var m2, m3, m4 float64
	for i, s := range sig {
		w := float64(s) / sum
		d := float64(vel[i]) - mean
		m2 += w * d * d
		m3 += w * d * d * d
		m4 += w * d * d * d * d
	}
	width := math.Sqrt(math.Abs(m2))

	return Moment{
		Ze:        float32(sum / 2),
		MeanVel:   float32(mean - dopplerRes/2),
		SpecWidth: float32(width),
		Skewn:     float32(m3 / (width * width * width)),
		Kurt:      float32(m4 / (width * width * width * width)),
	}, true
}

// Compute derives moments for every cell of a stacked spectra cube. Chirps are
// processed one after another since each has its own velocity axis; cells
// inside a chirp are independent.
func Compute(cube *rpg.Cube, geom *rpg.ChirpGeometry, opts Options) (*Result, error) {
	want := [2]int{geom.NumGates(), geom.MaxBins}
	if got := [2]int{cube.NRange, cube.NBins}; got != want || geom.Velocity == nil {
		return nil, &ShapeMismatchError{Want: want, Got: got}
	}

	res := newResult(cube.NTime, cube.NRange)
	fill := Moment{opts.FillValue, opts.FillValue, opts.FillValue, opts.FillValue, opts.FillValue}
	valid := 0

	for c, gates := range geom.Gates {
		vel := geom.Velocity[c]
		dopplerRes := geom.DopplerRes[c]
		for gate := gates[0]; gate < gates[1]; gate++ {
			for t := 0; t < cube.NTime; t++ {
				i := t*cube.NRange + gate
				m, ok := Cell(cube.At(t, gate), vel, dopplerRes, opts.NPointsMin)
				if !ok {
					res.set(i, fill, false)
					continue
				}
				res.set(i, m, true)
				valid++
			}
		}
	}

	logrus.Debugf("  moments: %s of %s cells with signal",
		color.CyanString("%d", valid),
		color.CyanString("%d", cube.NTime*cube.NRange),
	)
	return res, nil
}

// FromFile stacks one spectrum variable of a decoded level 0 file and computes its moments.
func FromFile(f *rpg.File, v rpg.SpectrumVar, opts Options) (*Result, error) {
	cube, err := f.Spectra(v)
	if err != nil {
		return nil, err
	}
	return Compute(cube, f.Geometry, opts)
}

package rpg

import (
	"github.com/samber/lo"
)

// ChirpGeometry partitions the range gates into chirp sequences and, for
// level 0 files, builds the Doppler velocity axis of every chirp on a common
// MaxBins-wide grid.
type ChirpGeometry struct {
	// Gates[i] is the half-open range gate interval [start, end) of chirp i.
	Gates [][2]int

	// MaxBins is the widest Doppler spectrum over all chirps.
	MaxBins int

	// Shift[i] centres chirp i's SpecN[i] bins inside MaxBins.
	Shift []int

	// DopplerRes[i] is the width of one Doppler bin of chirp i, in m/s.
	DopplerRes []float64

	// Velocity[i] holds MaxBins values; bins outside the chirp's own spectrum
	// are VelocityFill and flagged in Padding[i].
	Velocity [][]float32
	Padding  [][]bool

	chirpOfGate []int
}

// NewChirpGeometry derives the chirp layout of a header. Level 1 files only
// get the gate partition.
func NewChirpGeometry(h *Header) (*ChirpGeometry, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}

	nChirp := int(h.SequN)
	nRange := int(h.RAltN)
	g := &ChirpGeometry{
		Gates:       make([][2]int, nChirp),
		chirpOfGate: make([]int, nRange),
	}

	for i := 0; i < nChirp; i++ {
		start := int(h.RngOffs[i])
		end := nRange
		if i+1 < nChirp {
			end = int(h.RngOffs[i+1])
		}
		g.Gates[i] = [2]int{start, end}
		for gate := start; gate < end; gate++ {
			g.chirpOfGate[gate] = i
		}
	}

	if h.Level() != Level0 {
		return g, nil
	}

	g.MaxBins = int(lo.Max(h.SpecN))
	g.Shift = make([]int, nChirp)
	g.DopplerRes = make([]float64, nChirp)
	g.Velocity = make([][]float32, nChirp)
	g.Padding = make([][]bool, nChirp)

	for i := 0; i < nChirp; i++ {
		specN := int(h.SpecN[i])
		maxVel := float64(h.MaxVel[i])
		res := 2 * maxVel / float64(specN)

		g.Shift[i] = (g.MaxBins - specN) / 2
		g.DopplerRes[i] = res

		vel := make([]float32, g.MaxBins)
		pad := make([]bool, g.MaxBins)
		for j := range vel {
			vel[j] = VelocityFill
			pad[j] = true
		}
		for j, v := range linspace(-maxVel+res/2, maxVel-res/2, specN) {
			vel[g.Shift[i]+j] = float32(v)
			pad[g.Shift[i]+j] = false
		}
		g.Velocity[i] = vel
		g.Padding[i] = pad
	}
	return g, nil
}

// NumChirps in the geometry.
func (g *ChirpGeometry) NumChirps() int { return len(g.Gates) }

// NumGates is the number of range gates covered by all chirps.
func (g *ChirpGeometry) NumGates() int { return len(g.chirpOfGate) }

// ChirpOf returns the chirp that owns a range gate.
func (g *ChirpGeometry) ChirpOf(gate int) int { return g.chirpOfGate[gate] }

// linspace returns n evenly spaced values from start to stop inclusive.
func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

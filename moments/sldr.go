package moments

import (
	"math"

	"github.com/pkg/errors"

	"github.com/jddeal/go-rpgradar/rpg"
)

const (
	// software versions from 5.40 on store the total spectrum with a different scaling
	scaleSWVersion = 540

	// minimum per-bin signal-to-noise ratio of both channels
	sldrMinSNR = 1000
)

// ScaleFactor of the total spectrum for a software version given as the
// version number multiplied by 100.
func ScaleFactor(swVersion int) float32 {
	if swVersion < scaleSWVersion {
		return 2
	}
	return 4
}

// ScaleSpectra returns a scaled copy of x.
func ScaleSpectra(x []float32, swVersion int) []float32 {
	k := ScaleFactor(swVersion)
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = k * v
	}
	return out
}

// SpectralLDR computes the slanted linear depolarisation ratio, in dB, for
// every Doppler bin of an STSR level 0 file. Bins without enough signal in
// either channel hold rpg.SLDRFill.
func SpectralLDR(f *rpg.File) (*rpg.Cube, error) {
	h := f.Header
	if h.Level() != rpg.Level0 || h.DualPol != rpg.STSRMode {
		return nil, errors.Errorf("spectral LDR needs an STSR level 0 file, got %s in %s mode", h.Type, h.DualPol)
	}
	sw, ok := h.SoftwareVersion()
	if !ok {
		return nil, errors.Errorf("%s header has no software version to pick the spectrum scaling", h.Type)
	}
	scale := float64(ScaleFactor(sw))

	cubes := map[rpg.SpectrumVar]*rpg.Cube{}
	for _, v := range rpg.SpectrumVars(rpg.STSRMode) {
		c, err := f.Spectra(v)
		if err != nil {
			return nil, errors.Wrap(err, "spectral LDR")
		}
		cubes[v] = c
	}
	tot, hs, re, im := cubes[rpg.TotSpec], cubes[rpg.HSpec], cubes[rpg.ReVHSpec], cubes[rpg.ImVHSpec]

	out := rpg.NewCube(tot.NTime, tot.NRange, tot.NBins)
	g := f.Geometry
	for t, rec := range f.Records {
		for gate := 0; gate < tot.NRange; gate++ {
			specN := float64(h.SpecN[g.ChirpOf(gate)])
			noiseV := float64(rec.TotNoisePow[gate]) / specN
			noiseH := float64(rec.HNoisePow[gate]) / specN

			dst := out.At(t, gate)
			totRow, hRow, reRow, imRow := tot.At(t, gate), hs.At(t, gate), re.At(t, gate), im.At(t, gate)
			for b := range dst {
				dst[b] = sldrBin(
					float64(totRow[b]), float64(hRow[b]), float64(reRow[b]), float64(imRow[b]),
					noiseV, noiseH, scale,
				)
			}
		}
	}
	return out, nil
}

func sldrBin(tot, h, re, im, noiseV, noiseH, scale float64) float32 {
	if tot == 0 {
		return rpg.SLDRFill
	}
	v := scale*tot - h - 2*re

	// written so NaN ratios fail the test as well
	if !(v/noiseV >= sldrMinSNR) || !(h/noiseH >= sldrMinSNR) {
		return rpg.SLDRFill
	}

	rho := math.Hypot(re, im) / math.Sqrt((v+noiseV)*(h+noiseH))
	sldr := 10 * math.Log10((1-rho)/(1+rho))
	if math.IsNaN(sldr) || math.IsInf(sldr, 0) {
		return rpg.SLDRFill
	}
	return float32(sldr)
}

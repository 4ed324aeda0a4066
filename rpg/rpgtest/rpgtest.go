// Package rpgtest builds synthetic RPG binary files for tests.
package rpgtest

import (
	"bytes"
	"encoding/binary"

	"github.com/jddeal/go-rpgradar/rpg"
)

var codes = map[rpg.FileType]int32{
	{Level: rpg.Level1, Version: rpg.V1_0}: 789345,
	{Level: rpg.Level0, Version: rpg.V2_0}: 789346,
	{Level: rpg.Level1, Version: rpg.V2_0}: 789347,
	{Level: rpg.Level0, Version: rpg.V3_5}: 889346,
	{Level: rpg.Level1, Version: rpg.V3_5}: 889347,
	{Level: rpg.Level1, Version: rpg.V4_0}: 889348,
}

// FileCode for a file type. It panics on combinations that do not exist.
func FileCode(ft rpg.FileType) int32 {
	code, ok := codes[ft]
	if !ok {
		panic("rpgtest: no file code for " + ft.String())
	}
	return code
}

// Layout describes the range and chirp structure of a synthetic file.
type Layout struct {
	Type    rpg.FileType
	DualPol rpg.PolMode
	RAltN   int
	TAltN   int
	HAltN   int
	SpecN   []int32
	RngOffs []int32
	MaxVel  []float32
}

// NewHeader fills a header with plausible values for the given layout. The
// optional groups present match what DecodeHeader produces for the type.
func NewHeader(l Layout) *rpg.Header {
	nChirp := len(l.SpecN)
	h := &rpg.Header{
		FileCode:  FileCode(l.Type),
		HeaderLen: 0,
		Type:      l.Type,
		ModelNo:   0,
		ProgName:  "TestProgram",
		CustName:  "Univ. Test",
		AntSep:    0.6,
		HPBW:      0.53,
		SampDur:   2,
		CalInt:    3600,
		DualPol:   l.DualPol,
		RAltN:     int32(l.RAltN),
		TAltN:     int32(l.TAltN),
		HAltN:     int32(l.HAltN),
		SequN:     int32(nChirp),
		RAlts:     ramp(l.RAltN, 100, 30),
		TAlts:     ramp(l.TAltN, 0, 500),
		HAlts:     ramp(l.HAltN, 0, 500),
		SpecN:     l.SpecN,
		RngOffs:   l.RngOffs,
		DR:        ramp(nChirp, 30, 10),
		MaxVel:    l.MaxVel,
	}

	if l.Type.Version == rpg.V1_0 {
		h.TAltN, h.HAltN = 0, 0
		h.TAlts, h.HAlts = []float32{}, []float32{}
		h.DoppRes = make([]float32, nChirp)
		for i := range h.DoppRes {
			h.DoppRes[i] = 2 * l.MaxVel[i] / float32(l.SpecN[i])
		}
		if l.DualPol > rpg.SinglePol {
			h.ModelNo = 1
		}
		return h
	}

	cg := int32(7)
	h.CGProg = &cg
	h.Antenna = &rpg.Antenna{Freq: 94, AntDia: 0.5, AntG: 1e5, GPSLat: 50.9, GPSLong: 6.4}
	h.ChirpReps = make([]int32, nChirp)
	h.SeqIntTime = make([]float32, nChirp)
	for i := range h.ChirpReps {
		h.ChirpReps[i] = 1024
		h.SeqIntTime[i] = 0.3
	}

	if l.Type.Level == rpg.Level0 {
		h.Acquisition = &rpg.Acquisition{Cr: 1e4}
		h.Fr = ramp(l.RAltN, 1, 0)
	}

	if l.Type.Version > rpg.V2_0 {
		h.Times = &rpg.TimeBounds{Start: 600000000, Stop: 600003600}
		h.Processing = &rpg.Processing{FFTWindow: 1, FFTInputRng: 3, SWVersion: 525, NoiseFilt: 6}
		if l.Type.Level == rpg.Level0 {
			h.Hardware = &rpg.ChirpHardware{
				ChanBW:          ramp(nChirp, 1e6, 0),
				ChirpLowIF:      make([]int32, nChirp),
				ChirpHighIF:     make([]int32, nChirp),
				RangeMin:        make([]int32, nChirp),
				RangeMax:        make([]int32, nChirp),
				ChirpFFTSize:    make([]int32, nChirp),
				ChirpInvSamples: make([]int32, nChirp),
				ChirpCenterFr:   ramp(nChirp, 94e9, 0),
				ChirpBWFr:       ramp(nChirp, 1e8, 0),
				FFTStartInd:     make([]int32, nChirp),
				FFTStopInd:      make([]int32, nChirp),
				ChirpFFTNo:      make([]int32, nChirp),
				SampRate:        1e6,
				MaxRange:        12000,
			}
		}
		if l.Type.Level == rpg.Level1 && l.Type.Version > rpg.V3_5 {
			icp := int32(1)
			h.InstCalPar = &icp
		}
	}
	return h
}

func ramp(n int, start, step float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = start + float32(i)*step
	}
	return out
}

type writer struct {
	bytes.Buffer
}

func (w *writer) put(v interface{}) {
	// writes into a bytes.Buffer cannot fail for fixed-size values
	_ = binary.Write(&w.Buffer, binary.LittleEndian, v)
}

func (w *writer) cstring(s string) {
	w.WriteString(s)
	w.WriteByte(0)
}

// EncodeHeader serialises h in the field order of its file type.
func EncodeHeader(h *rpg.Header) []byte {
	w := &writer{}
	w.put(h.FileCode)
	w.put(h.HeaderLen)

	if h.Type.Version > rpg.V2_0 {
		w.put(h.Times.Start)
		w.put(h.Times.Stop)
	}
	if h.Type.Version > rpg.V1_0 {
		w.put(*h.CGProg)
	}
	w.put(h.ModelNo)
	w.cstring(h.ProgName)
	w.cstring(h.CustName)

	if h.Type.Version == rpg.V1_0 {
		w.put(h.RAltN)
		w.put(h.RAlts)
		w.put(h.SequN)
		w.put(h.RngOffs)
		w.put(h.DR)
		w.put(h.SpecN)
		w.put(h.DoppRes)
		w.put(h.MaxVel)
		w.put(h.CalInt)
		w.put(h.AntSep)
		w.put(h.HPBW)
		w.put(h.SampDur)
		return w.Bytes()
	}

	level0 := h.Type.Level == rpg.Level0
	w.put(h.Antenna.Freq)
	w.put(h.AntSep)
	w.put(h.Antenna.AntDia)
	w.put(h.Antenna.AntG)
	w.put(h.HPBW)
	if level0 {
		w.put(h.Acquisition.Cr)
	}
	w.put(int8(h.DualPol))
	if level0 {
		w.put(h.Acquisition.CompEna)
		w.put(h.Acquisition.AntiAlias)
	}
	w.put(h.SampDur)
	w.put(h.Antenna.GPSLat)
	w.put(h.Antenna.GPSLong)
	w.put(h.CalInt)
	w.put(h.RAltN)
	w.put(h.TAltN)
	w.put(h.HAltN)
	w.put(h.SequN)
	w.put(h.RAlts)
	w.put(h.TAlts)
	w.put(h.HAlts)
	if level0 {
		w.put(h.Fr)
	}
	w.put(h.SpecN)
	w.put(h.RngOffs)
	w.put(h.ChirpReps)
	w.put(h.SeqIntTime)
	w.put(h.DR)
	w.put(h.MaxVel)

	if h.Type.Version <= rpg.V2_0 {
		return w.Bytes()
	}

	if level0 {
		hw := h.Hardware
		w.put(hw.ChanBW)
		w.put(hw.ChirpLowIF)
		w.put(hw.ChirpHighIF)
		w.put(hw.RangeMin)
		w.put(hw.RangeMax)
		w.put(hw.ChirpFFTSize)
		w.put(hw.ChirpInvSamples)
		w.put(hw.ChirpCenterFr)
		w.put(hw.ChirpBWFr)
		w.put(hw.FFTStartInd)
		w.put(hw.FFTStopInd)
		w.put(hw.ChirpFFTNo)
		w.put(hw.SampRate)
		w.put(hw.MaxRange)
	}

	p := h.Processing
	w.put(p.SupPowLev)
	w.put(p.SpkFilEna)
	w.put(p.PhaseCorr)
	w.put(p.RelPowCorr)
	w.put(p.FFTWindow)
	w.put(p.FFTInputRng)
	w.put(p.SWVersion)
	w.put(p.NoiseFilt)

	if h.Type.Level == rpg.Level1 && h.Type.Version > rpg.V3_5 {
		w.put(*h.InstCalPar)
	} else if level0 {
		w.put(int32(0))
	}
	if level0 || h.Type.Version > rpg.V3_5 {
		w.put(make([]int32, 24))
		w.put(make([]uint32, 10000))
	}
	return w.Bytes()
}

// NewRecord returns a record with every field the header's layout needs,
// profiles zeroed and spectra allocated at RAltN*maxBins.
func NewRecord(h *rpg.Header, time uint32) *rpg.Record {
	n := int(h.RAltN)
	rec := &rpg.Record{
		Time:   time,
		TProf:  make([]float32, h.TAltN),
		AHProf: make([]float32, h.HAltN),
		RHProf: make([]float32, h.HAltN),
		SLv:    make([]float32, n),
	}
	pol := h.DualPol > rpg.SinglePol
	if pol {
		rec.SLh = make([]float32, n)
	}

	if h.Type.Level == rpg.Level1 {
		rec.Ze = make([]float32, n)
		rec.MeanVel = make([]float32, n)
		rec.SpecWidth = make([]float32, n)
		rec.Skewn = make([]float32, n)
		rec.Kurt = make([]float32, n)
		if pol {
			rec.RefRat = make([]float32, n)
			rec.CorrCoeff = make([]float32, n)
			rec.DiffPh = make([]float32, n)
		}
		if h.DualPol == rpg.STSRMode {
			rec.SLDR = make([]float32, n)
			rec.SCorrCoeff = make([]float32, n)
			rec.KDP = make([]float32, n)
			rec.DiffAtt = make([]float32, n)
		}
		return rec
	}

	rec.TotNoisePow = make([]float32, n)
	if pol {
		rec.HNoisePow = make([]float32, n)
	}
	maxBins := h.MaxSpecN()
	rec.Spectra = map[rpg.SpectrumVar][]float32{}
	for _, v := range rpg.SpectrumVars(h.DualPol) {
		rec.Spectra[v] = make([]float32, n*maxBins)
	}
	if h.Acquisition != nil && h.Acquisition.AntiAlias == 1 {
		rec.AliasMsk = make([]int8, n)
		rec.MinVel = make([]float32, n)
	}
	return rec
}

// EncodeRecord serialises rec including its leading SampBytes field, which
// is computed from the body length.
func EncodeRecord(h *rpg.Header, rec *rpg.Record) []byte {
	w := &writer{}
	w.put(rec.Time)
	w.put(rec.MSec)
	w.put(rec.QF)

	if h.Type.Level == rpg.Level1 {
		for _, v := range []float32{
			rec.RR, rec.RelHum, rec.EnvTemp, rec.BaroP, rec.WS, rec.WD, rec.DDVolt, rec.DDTb,
			rec.LWP, rec.PowIF, rec.Elev, rec.Azi, rec.Status,
			rec.TransPow, rec.TransT, rec.RecT, rec.PCT,
		} {
			w.put(v)
		}
		if h.Type.Version > rpg.V1_0 {
			w.put(make([]float32, 3))
		}
		w.put(rec.TProf)
		w.put(rec.AHProf)
		w.put(rec.RHProf)
		w.put(rec.SLv)
		if h.DualPol > rpg.SinglePol {
			w.put(rec.SLh)
		}
		w.put(rec.Ze)
		w.put(rec.MeanVel)
		w.put(rec.SpecWidth)
		w.put(rec.Skewn)
		w.put(rec.Kurt)
		if h.DualPol > rpg.SinglePol {
			w.put(rec.RefRat)
			w.put(rec.CorrCoeff)
			w.put(rec.DiffPh)
		}
		if h.DualPol == rpg.STSRMode {
			w.put(rec.SLDR)
			w.put(rec.SCorrCoeff)
			w.put(rec.KDP)
			w.put(rec.DiffAtt)
		}
	} else {
		for _, v := range []float32{
			rec.RR, rec.RelHum, rec.EnvTemp, rec.BaroP, rec.WS, rec.WD, rec.DDVolt, rec.DDTb,
			rec.TransPow, rec.TransT, rec.RecT, rec.PCT,
		} {
			w.put(v)
		}
		w.put(make([]float32, 3))
		w.put(rec.TProf)
		w.put(rec.AHProf)
		w.put(rec.RHProf)
		w.put(rec.TotNoisePow)
		if h.DualPol > rpg.SinglePol {
			w.put(rec.HNoisePow)
		}
		w.put(rec.SLv)
		if h.DualPol > rpg.SinglePol {
			w.put(rec.SLh)
		}

		maxBins := h.MaxSpecN()
		vars := rpg.SpectrumVars(h.DualPol)
		for gate := 0; gate < int(h.RAltN); gate++ {
			c := chirpOf(h, gate)
			specN := int(h.SpecN[c])
			off := gate*maxBins + (maxBins-specN)/2
			for _, v := range vars {
				w.put(rec.Spectra[v][off : off+specN])
			}
		}
		if h.Acquisition != nil && h.Acquisition.AntiAlias == 1 {
			w.put(rec.AliasMsk)
			w.put(rec.MinVel)
		}
	}

	out := &writer{}
	out.put(int32(w.Len()))
	out.Write(w.Bytes())
	return out.Bytes()
}

func chirpOf(h *rpg.Header, gate int) int {
	c := 0
	for i, off := range h.RngOffs {
		if int(off) <= gate {
			c = i
		}
	}
	return c
}

// EncodeFile serialises a header, the sample count and every record.
func EncodeFile(h *rpg.Header, recs []*rpg.Record) []byte {
	w := &writer{}
	w.Write(EncodeHeader(h))
	w.put(int32(len(recs)))
	for _, rec := range recs {
		w.Write(EncodeRecord(h, rec))
	}
	return w.Bytes()
}

package rpg

import (
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Record is one sample (timestamp) of an RPG file. Which fields are set
// depends on the level and polarisation mode of the file; absent profiles are nil.
type Record struct {
	Index int

	SampBytes int32
	Time      uint32 // seconds since Epoch
	MSec      int32
	QF        int8

	RR      float32 // rain rate, mm/h
	RelHum  float32 // %
	EnvTemp float32 // K
	BaroP   float32 // hPa
	WS      float32 // wind speed, km/h
	WD      float32 // wind direction, deg
	DDVolt  float32 // direct detection voltage
	DDTb    float32 // direct detection brightness temperature, K

	// level 1 only
	LWP    float32 // g/m2
	PowIF  float32
	Elev   float32
	Azi    float32
	Status float32

	TransPow float32
	TransT   float32
	RecT     float32
	PCT      float32

	TProf  []float32
	AHProf []float32
	RHProf []float32

	// level 0 only
	TotNoisePow []float32
	HNoisePow   []float32

	SLv []float32
	SLh []float32

	// level 1 moments
	Ze        []float32
	MeanVel   []float32
	SpecWidth []float32
	Skewn     []float32
	Kurt      []float32

	RefRat    []float32
	CorrCoeff []float32
	DiffPh    []float32

	SLDR       []float32
	SCorrCoeff []float32
	KDP        []float32
	DiffAtt    []float32

	// Spectra holds RAltN*MaxBins values per variable, row-major by range gate.
	Spectra map[SpectrumVar][]float32

	AliasMsk []int8
	MinVel   []float32
}

// Timestamp of the sample.
func (r *Record) Timestamp() time.Time {
	return Epoch.
		Add(time.Duration(r.Time) * time.Second).
		Add(time.Duration(r.MSec) * time.Millisecond)
}

// Scalars returns the meteorological and engineering scalars present in the record.
func (r *Record) Scalars(level Level) map[string]float32 {
	s := map[string]float32{
		"RR":       r.RR,
		"RelHum":   r.RelHum,
		"EnvTemp":  r.EnvTemp,
		"BaroP":    r.BaroP,
		"WS":       r.WS,
		"WD":       r.WD,
		"DDVolt":   r.DDVolt,
		"DDTb":     r.DDTb,
		"TransPow": r.TransPow,
		"TransT":   r.TransT,
		"RecT":     r.RecT,
		"PCT":      r.PCT,
	}
	if level == Level1 {
		s["LWP"] = r.LWP
		s["PowIF"] = r.PowIF
		s["Elev"] = r.Elev
		s["Azi"] = r.Azi
		s["Status"] = r.Status
	}
	return s
}

// Profiles returns every non-nil profile of the record by its RPG name.
func (r *Record) Profiles() map[string][]float32 {
	all := map[string][]float32{
		"TProf":       r.TProf,
		"AHProf":      r.AHProf,
		"RHProf":      r.RHProf,
		"TotNoisePow": r.TotNoisePow,
		"HNoisePow":   r.HNoisePow,
		"SLv":         r.SLv,
		"SLh":         r.SLh,
		"Ze":          r.Ze,
		"MeanVel":     r.MeanVel,
		"SpecWidth":   r.SpecWidth,
		"Skewn":       r.Skewn,
		"Kurt":        r.Kurt,
		"RefRat":      r.RefRat,
		"CorrCoeff":   r.CorrCoeff,
		"DiffPh":      r.DiffPh,
		"SLDR":        r.SLDR,
		"SCorrCoeff":  r.SCorrCoeff,
		"KDP":         r.KDP,
		"DiffAtt":     r.DiffAtt,
		"MinVel":      r.MinVel,
	}
	out := make(map[string][]float32, len(all))
	for name, v := range all {
		if v != nil {
			out[name] = v
		}
	}
	return out
}

// SpectrumVars lists the spectrum variables a level 0 file with the given
// polarisation mode carries, in file order.
func SpectrumVars(pol PolMode) []SpectrumVar {
	switch {
	case pol >= STSRMode:
		return []SpectrumVar{TotSpec, HSpec, ReVHSpec, ImVHSpec}
	case pol > SinglePol:
		return []SpectrumVar{TotSpec, HSpec}
	}
	return []SpectrumVar{TotSpec}
}

// RecordReader decodes the data region of an RPG file one sample at a time.
type RecordReader struct {
	fr   *fieldReader
	h    *Header
	g    *ChirpGeometry
	done bool // clean end of stream reached

	// TotSampNum as announced by the file.
	TotSampNum int32

	next int
}

// NewRecordReader reads the sample count at the start of the data region.
// Byte offsets in errors are relative to the start of r.
func NewRecordReader(r io.Reader, h *Header, g *ChirpGeometry) (*RecordReader, error) {
	return newRecordReader(r, h, g, 0)
}

func newRecordReader(r io.Reader, h *Header, g *ChirpGeometry, offset int64) (*RecordReader, error) {
	if g == nil {
		var err error
		if g, err = NewChirpGeometry(h); err != nil {
			return nil, err
		}
	}
	rr := &RecordReader{
		fr: newFieldReader(r, offset),
		h:  h,
		g:  g,
	}
	rr.TotSampNum = rr.fr.i32("TotSampNum")
	if rr.fr.err != nil {
		return nil, rr.recordErr()
	}
	logrus.Debugf("  file announces %s samples", color.CyanString("%d", rr.TotSampNum))
	return rr, nil
}

// Offset is the current byte offset of the reader.
func (rr *RecordReader) Offset() int64 { return rr.fr.offset }

// Next decodes the next record. It returns io.EOF when the stream ends
// cleanly between records and a *TruncatedRecordError when it ends inside one.
func (rr *RecordReader) Next() (*Record, error) {
	fr := rr.fr
	if rr.done {
		return nil, io.EOF
	}
	if fr.err != nil {
		return nil, rr.recordErr()
	}

	rec := &Record{Index: rr.next}
	start := fr.offset
	rec.SampBytes = fr.i32("SampBytes")
	if fr.err == io.EOF && fr.offset == start {
		rr.done = true
		return nil, io.EOF
	}
	bodyStart := fr.offset

	if rr.h.Level() == Level0 {
		rr.decodeLevel0(rec)
	} else {
		rr.decodeLevel1(rec)
	}
	if fr.err != nil {
		return nil, rr.recordErr()
	}

	if consumed := fr.offset - bodyStart; consumed != int64(rec.SampBytes) {
		logrus.Warnf("record %d: SampBytes says %d bytes, decoded %d", rec.Index, rec.SampBytes, consumed)
	}
	logrus.Tracef("  record %d at %v", rec.Index, rec.Timestamp())

	rr.next++
	return rec, nil
}

func (rr *RecordReader) recordErr() error {
	fr := rr.fr
	if fr.err == io.EOF || fr.err == io.ErrUnexpectedEOF {
		return &TruncatedRecordError{Index: rr.next, Field: fr.errField, Offset: fr.errOffset, Err: fr.err}
	}
	return errors.Wrapf(fr.err, "record %d: reading %s at offset %d", rr.next, fr.errField, fr.errOffset)
}

func (rr *RecordReader) decodeTimes(rec *Record) {
	fr := rr.fr
	rec.Time = fr.u32("Time")
	rec.MSec = fr.i32("MSec")
	rec.QF = fr.i8("QF")
}

func (rr *RecordReader) decodeLevel1(rec *Record) {
	fr, h := rr.fr, rr.h
	n := int(h.RAltN)

	rr.decodeTimes(rec)
	rec.RR = fr.f32("RR")
	rec.RelHum = fr.f32("RelHum")
	rec.EnvTemp = fr.f32("EnvTemp")
	rec.BaroP = fr.f32("BaroP")
	rec.WS = fr.f32("WS")
	rec.WD = fr.f32("WD")
	rec.DDVolt = fr.f32("DDVolt")
	rec.DDTb = fr.f32("DDTb")
	rec.LWP = fr.f32("LWP")
	rec.PowIF = fr.f32("PowIF")
	rec.Elev = fr.f32("Elev")
	rec.Azi = fr.f32("Azi")
	rec.Status = fr.f32("Status")
	rec.TransPow = fr.f32("TransPow")
	rec.TransT = fr.f32("TransT")
	rec.RecT = fr.f32("RecT")
	rec.PCT = fr.f32("PCT")
	if h.Version() > V1_0 {
		fr.skip("reserved", 4*reservedRecordFloats)
	}

	rr.decodeMeteoProfiles(rec)

	rec.SLv = fr.f32s("SLv", n)
	if h.DualPol > SinglePol {
		rec.SLh = fr.f32s("SLh", n)
	}

	rec.Ze = fr.f32s("Ze", n)
	rec.MeanVel = fr.f32s("MeanVel", n)
	rec.SpecWidth = fr.f32s("SpecWidth", n)
	rec.Skewn = fr.f32s("Skewn", n)
	rec.Kurt = fr.f32s("Kurt", n)

	if h.DualPol > SinglePol {
		rec.RefRat = fr.f32s("RefRat", n)
		rec.CorrCoeff = fr.f32s("CorrCoeff", n)
		rec.DiffPh = fr.f32s("DiffPh", n)
	}
	if h.DualPol == STSRMode {
		rec.SLDR = fr.f32s("SLDR", n)
		rec.SCorrCoeff = fr.f32s("SCorrCoeff", n)
		rec.KDP = fr.f32s("KDP", n)
		rec.DiffAtt = fr.f32s("DiffAtt", n)
	}
}

func (rr *RecordReader) decodeLevel0(rec *Record) {
	fr, h, g := rr.fr, rr.h, rr.g
	n := int(h.RAltN)

	rr.decodeTimes(rec)
	rec.RR = fr.f32("RR")
	rec.RelHum = fr.f32("RelHum")
	rec.EnvTemp = fr.f32("EnvTemp")
	rec.BaroP = fr.f32("BaroP")
	rec.WS = fr.f32("WS")
	rec.WD = fr.f32("WD")
	rec.DDVolt = fr.f32("DDVolt")
	rec.DDTb = fr.f32("DDTb")
	rec.TransPow = fr.f32("TransPow")
	rec.TransT = fr.f32("TransT")
	rec.RecT = fr.f32("RecT")
	rec.PCT = fr.f32("PCT")
	fr.skip("reserved", 4*reservedRecordFloats)

	rr.decodeMeteoProfiles(rec)

	rec.TotNoisePow = fr.f32s("TotNoisePow", n)
	if h.DualPol > SinglePol {
		rec.HNoisePow = fr.f32s("HNoisePow", n)
	}
	rec.SLv = fr.f32s("SLv", n)
	if h.DualPol > SinglePol {
		rec.SLh = fr.f32s("SLh", n)
	}

	vars := SpectrumVars(h.DualPol)
	rec.Spectra = make(map[SpectrumVar][]float32, len(vars))
	for _, v := range vars {
		rec.Spectra[v] = make([]float32, n*g.MaxBins)
	}

	// spectra are interleaved per gate: all variables of gate 0, then gate 1, ...
	for gate := 0; gate < n && fr.err == nil; gate++ {
		c := g.ChirpOf(gate)
		specN := int(h.SpecN[c])
		off := gate*g.MaxBins + g.Shift[c]
		for _, v := range vars {
			fr.read(string(v), rec.Spectra[v][off:off+specN])
		}
	}

	if h.Acquisition != nil && h.Acquisition.AntiAlias == 1 {
		rec.AliasMsk = fr.i8s("AliasMsk", n)
		rec.MinVel = fr.f32s("MinVel", n)
	}
}

func (rr *RecordReader) decodeMeteoProfiles(rec *Record) {
	fr, h := rr.fr, rr.h
	rec.TProf = fr.f32s("TProf", int(h.TAltN))
	rec.AHProf = fr.f32s("AHProf", int(h.HAltN))
	rec.RHProf = fr.f32s("RHProf", int(h.HAltN))
}

package rpg

import (
	"io"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TimeBounds of the samples in a file, in seconds since Epoch (version > 2.0).
type TimeBounds struct {
	Start uint32
	Stop  uint32
}

// Antenna and site description (version > 1.0).
type Antenna struct {
	Freq    float32 // GHz
	AntDia  float32 // m
	AntG    float32 // linear gain
	GPSLat  float32
	GPSLong float32
}

// Acquisition settings only written to level 0 files.
type Acquisition struct {
	Cr        float32 // radar constant
	CompEna   int8    // 0 = not compressed, 1 = compressed, 2 = compressed with polarimetric variables
	AntiAlias int8    // 1 when spectra have been anti-aliased
}

// ChirpHardware holds the per-chirp receiver and FFT setup of level 0 files (version > 2.0).
type ChirpHardware struct {
	ChanBW          []float32
	ChirpLowIF      []int32
	ChirpHighIF     []int32
	RangeMin        []int32
	RangeMax        []int32
	ChirpFFTSize    []int32
	ChirpInvSamples []int32
	ChirpCenterFr   []float32
	ChirpBWFr       []float32
	FFTStartInd     []int32
	FFTStopInd      []int32
	ChirpFFTNo      []int32
	SampRate        int32
	MaxRange        int32
}

// Processing flags of the radar software (version > 2.0).
type Processing struct {
	SupPowLev   int8
	SpkFilEna   int8
	PhaseCorr   int8
	RelPowCorr  int8
	FFTWindow   int8
	FFTInputRng uint16
	SWVersion   uint16 // software version multiplied by 100, e.g. 525
	NoiseFilt   float32
}

// Header of an RPG binary file. Optional groups are nil when the file's
// (level, version) does not carry them.
type Header struct {
	FileCode  int32
	HeaderLen int32
	Type      FileType

	Times    *TimeBounds // version > 2.0
	CGProg   *int32      // version > 1.0
	ModelNo  int32
	ProgName string
	CustName string

	Antenna     *Antenna     // version > 1.0
	Acquisition *Acquisition // level 0
	AntSep      float32
	HPBW        float32
	SampDur     float32
	CalInt      int32
	DualPol     PolMode

	RAltN int32 // number of range layers
	TAltN int32 // number of temperature layers
	HAltN int32 // number of humidity layers
	SequN int32 // number of chirp sequences

	RAlts []float32
	TAlts []float32
	HAlts []float32
	Fr    []float32 // level 0

	SpecN      []int32
	RngOffs    []int32
	ChirpReps  []int32   // version > 1.0
	SeqIntTime []float32 // version > 1.0
	DR         []float32
	MaxVel     []float32
	DoppRes    []float32 // version 1.0

	Hardware   *ChirpHardware // level 0, version > 2.0
	Processing *Processing    // version > 2.0
	InstCalPar *int32         // level 1, version > 3.5
}

// Level of the file.
func (h *Header) Level() Level { return h.Type.Level }

// Version of the file layout.
func (h *Header) Version() Version { return h.Type.Version }

// MaxSpecN is the largest number of Doppler bins over all chirps.
func (h *Header) MaxSpecN() int {
	m := 0
	for _, n := range h.SpecN {
		if int(n) > m {
			m = int(n)
		}
	}
	return m
}

// SoftwareVersion returns the radar software version multiplied by 100, when known.
func (h *Header) SoftwareVersion() (int, bool) {
	if h.Processing == nil {
		return 0, false
	}
	return int(h.Processing.SWVersion), true
}

// DecodeHeader reads the header from the start of r. It returns the header and
// the byte offset at which the data region starts.
func DecodeHeader(r io.Reader) (*Header, int64, error) {
	fr := newFieldReader(r, 0)
	h := &Header{}

	h.FileCode = fr.i32("FileCode")
	h.HeaderLen = fr.i32("HeaderLen")
	if err := fr.headerErr(); err != nil {
		return nil, 0, err
	}

	ft, err := ResolveFileType(h.FileCode)
	if err != nil {
		return nil, 0, err
	}
	h.Type = ft
	logrus.Debugf("RPG %s (file code %s)", ft, color.CyanString("%d", h.FileCode))

	if ft.Version > V2_0 {
		h.Times = &TimeBounds{
			Start: fr.u32("StartTime"),
			Stop:  fr.u32("StopTime"),
		}
	}
	if ft.Version > V1_0 {
		cgProg := fr.i32("CGProg")
		h.CGProg = &cgProg
	}
	h.ModelNo = fr.i32("ModelNo")
	h.ProgName = fr.cstring("ProgName")
	h.CustName = fr.cstring("CustName")

	if ft.Version > V1_0 {
		decodeHeaderBody(fr, h)
	} else {
		decodeHeaderV1(fr, h)
	}

	if err := fr.headerErr(); err != nil {
		return nil, 0, err
	}
	if err := h.validate(); err != nil {
		return nil, 0, err
	}

	logrus.Debugf("  %s range layers, %s chirps, data at offset %s",
		color.CyanString("%d", h.RAltN),
		color.CyanString("%d", h.SequN),
		color.CyanString("%d", fr.offset),
	)
	return h, fr.offset, nil
}

// decodeHeaderBody reads everything after the strings for version > 1.0.
func decodeHeaderBody(fr *fieldReader, h *Header) {
	level, version := h.Type.Level, h.Type.Version

	h.Antenna = &Antenna{}
	h.Antenna.Freq = fr.f32("Freq")
	h.AntSep = fr.f32("AntSep")
	h.Antenna.AntDia = fr.f32("AntDia")
	h.Antenna.AntG = fr.f32("AntG")
	h.HPBW = fr.f32("HPBW")

	if level == Level0 {
		h.Acquisition = &Acquisition{Cr: fr.f32("Cr")}
	}
	h.DualPol = PolMode(fr.i8("DualPol"))
	if level == Level0 {
		h.Acquisition.CompEna = fr.i8("CompEna")
		h.Acquisition.AntiAlias = fr.i8("AntiAlias")
	}

	h.SampDur = fr.f32("SampDur")
	h.Antenna.GPSLat = fr.f32("GPSLat")
	h.Antenna.GPSLong = fr.f32("GPSLong")
	h.CalInt = fr.i32("CalInt")

	// all counts come first; every vector below is sized by them
	nRange := fr.count("RAltN")
	nTemp := fr.count("TAltN")
	nHum := fr.count("HAltN")
	nChirp := fr.count("SequN")
	h.RAltN, h.TAltN, h.HAltN, h.SequN = int32(nRange), int32(nTemp), int32(nHum), int32(nChirp)

	h.RAlts = fr.f32s("RAlts", nRange)
	h.TAlts = fr.f32s("TAlts", nTemp)
	h.HAlts = fr.f32s("HAlts", nHum)
	if level == Level0 {
		h.Fr = fr.f32s("Fr", nRange)
	}

	h.SpecN = fr.i32s("SpecN", nChirp)
	h.RngOffs = fr.i32s("RngOffs", nChirp)
	h.ChirpReps = fr.i32s("ChirpReps", nChirp)
	h.SeqIntTime = fr.f32s("SeqIntTime", nChirp)
	h.DR = fr.f32s("dR", nChirp)
	h.MaxVel = fr.f32s("MaxVel", nChirp)

	if version <= V2_0 {
		return
	}

	if level == Level0 {
		h.Hardware = &ChirpHardware{
			ChanBW:          fr.f32s("ChanBW", nChirp),
			ChirpLowIF:      fr.i32s("ChirpLowIF", nChirp),
			ChirpHighIF:     fr.i32s("ChirpHighIF", nChirp),
			RangeMin:        fr.i32s("RangeMin", nChirp),
			RangeMax:        fr.i32s("RangeMax", nChirp),
			ChirpFFTSize:    fr.i32s("ChirpFFTSize", nChirp),
			ChirpInvSamples: fr.i32s("ChirpInvSamples", nChirp),
			ChirpCenterFr:   fr.f32s("ChirpCenterFr", nChirp),
			ChirpBWFr:       fr.f32s("ChirpBWFr", nChirp),
			FFTStartInd:     fr.i32s("FFTStartInd", nChirp),
			FFTStopInd:      fr.i32s("FFTStopInd", nChirp),
			ChirpFFTNo:      fr.i32s("ChirpFFTNo", nChirp),
			SampRate:        fr.i32("SampRate"),
			MaxRange:        fr.i32("MaxRange"),
		}
	}

	h.Processing = &Processing{
		SupPowLev:   fr.i8("SupPowLev"),
		SpkFilEna:   fr.i8("SpkFilEna"),
		PhaseCorr:   fr.i8("PhaseCorr"),
		RelPowCorr:  fr.i8("RelPowCorr"),
		FFTWindow:   fr.i8("FFTWindow"),
		FFTInputRng: fr.u16("FFTInputRng"),
		SWVersion:   fr.u16("SWVersion"),
		NoiseFilt:   fr.f32("NoiseFilt"),
	}

	if level == Level1 && version > V3_5 {
		instCalPar := fr.i32("InstCalPar")
		h.InstCalPar = &instCalPar
	} else if level == Level0 {
		fr.skip("reserved", 4)
	}

	// present in the byte stream but undocumented
	if level == Level0 || (level == Level1 && version > V3_5) {
		fr.skip("reserved", 4*reservedBlockInts)
		fr.skip("reserved", 4*reservedBlockScalar)
	}
}

// decodeHeaderV1 reads the fixed version 1.0 tail. Version 1.0 has no
// temperature/humidity layers and infers the polarisation from the model number.
func decodeHeaderV1(fr *fieldReader, h *Header) {
	nRange := fr.count("RAltN")
	h.RAltN = int32(nRange)
	h.RAlts = fr.f32s("RAlts", nRange)

	nChirp := fr.count("SequN")
	h.SequN = int32(nChirp)
	h.RngOffs = fr.i32s("RngOffs", nChirp)
	h.DR = fr.f32s("dR", nChirp)
	h.SpecN = fr.i32s("SpecN", nChirp)
	h.DoppRes = fr.f32s("DoppRes", nChirp)
	h.MaxVel = fr.f32s("MaxVel", nChirp)

	h.CalInt = fr.i32("CalInt")
	h.AntSep = fr.f32("AntSep")
	h.HPBW = fr.f32("HPBW")
	h.SampDur = fr.f32("SampDur")

	h.TAltN, h.HAltN = 0, 0
	h.TAlts, h.HAlts = []float32{}, []float32{}
	if h.ModelNo == 1 {
		h.DualPol = LDRMode
	} else {
		h.DualPol = SinglePol
	}
}

func (fr *fieldReader) headerErr() error {
	if fr.err == nil {
		return nil
	}
	var he *HeaderError
	if errors.As(fr.err, &he) {
		return he
	}
	if fr.err == io.EOF || fr.err == io.ErrUnexpectedEOF {
		return &TruncatedHeaderError{Field: fr.errField, Offset: fr.errOffset, Err: fr.err}
	}
	return errors.Wrapf(fr.err, "reading header field %s at offset %d", fr.errField, fr.errOffset)
}

// validate checks the chirp layout invariants every later stage relies on.
func (h *Header) validate() error {
	if h.SequN < 1 {
		return &HeaderError{Field: "SequN", Reason: "no chirp sequences"}
	}
	for i, n := range h.SpecN {
		if n < 1 || n > maxCount {
			return &HeaderError{Field: "SpecN", Reason: errors.Errorf("chirp %d has %d Doppler bins", i, n).Error()}
		}
	}
	if h.Level() == Level0 {
		if cells := int64(h.RAltN) * int64(h.MaxSpecN()); cells > maxSpectrumCells {
			return &HeaderError{Field: "SpecN", Reason: errors.Errorf("%d range gates of %d bins exceed the spectrum size limit", h.RAltN, h.MaxSpecN()).Error()}
		}
	}
	if h.RngOffs[0] != 0 {
		return &HeaderError{Field: "RngOffs", Reason: "first chirp does not start at range gate 0"}
	}
	for i := 1; i < len(h.RngOffs); i++ {
		if h.RngOffs[i] <= h.RngOffs[i-1] {
			return &HeaderError{Field: "RngOffs", Reason: "chirp start indices are not strictly increasing"}
		}
	}
	if last := h.RngOffs[len(h.RngOffs)-1]; last >= h.RAltN {
		return &HeaderError{Field: "RngOffs", Reason: errors.Errorf("chirp starts at gate %d of %d", last, h.RAltN).Error()}
	}
	return nil
}

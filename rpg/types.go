// Package rpg provides structs and functions for decoding the binary files written
// by RPG 94 GHz FMCW cloud radars.
//
// Two product levels exist:
//  • Level 0 (*.LV0): raw Doppler spectra for every range gate
//  • Level 1 (*.LV1): spectral moments and polarimetric products computed by the radar software
//
// Every file starts with a file code that fixes the level and format version. The
// header that follows is self-describing: which fields exist and how long the
// per-range and per-chirp vectors are both depend on earlier fields, so it has to
// be consumed strictly in order.
package rpg

import (
	"fmt"
	"time"
)

const (
	// VelocityFill marks Doppler bins outside a chirp's own spectrum.
	VelocityFill = -999

	// SLDRFill marks spectral LDR bins without enough signal.
	SLDRFill = -999

	// placeholder written for string bytes outside 7-bit ASCII
	stringPlaceholder = '%'

	// sizes of the reserved blocks at the end of newer headers
	reservedBlockInts   = 24
	reservedBlockScalar = 10000

	// records carry three spare floats before the profiles
	reservedRecordFloats = 3
)

// Epoch is the zero of the RPG time axis.
var Epoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// Level of processing stored in a file.
type Level int

const (
	// Level0 files hold Doppler spectra.
	Level0 Level = 0
	// Level1 files hold moments.
	Level1 Level = 1
)

// Version of the binary layout. The values compare in release order.
type Version int

const (
	// V1_0 is the first layout. Its level 1 records carry no reserved fields.
	V1_0 Version = 10
	// V2_0 is the layout of the 2.0 radar software.
	V2_0 Version = 20
	// V3_5 is the layout of the 3.5 radar software.
	V3_5 Version = 35
	// V4_0 is the layout of the 4.0 radar software.
	V4_0 Version = 40
)

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", int(v)/10, int(v)%10)
}

// Float returns the version as the decimal number used in file metadata.
func (v Version) Float() float64 {
	return float64(v) / 10
}

// FileType is the pair fixed by a file code.
type FileType struct {
	Level   Level
	Version Version
}

func (ft FileType) String() string {
	return fmt.Sprintf("level %d v%s", ft.Level, ft.Version)
}

// PolMode tells which polarimetric channels a radar records.
type PolMode int8

const (
	// SinglePol radars record one polarisation only.
	SinglePol PolMode = 0
	// LDRMode radars transmit one polarisation and receive both.
	LDRMode PolMode = 1
	// STSRMode radars transmit and receive both polarisations simultaneously.
	STSRMode PolMode = 2
)

func (p PolMode) String() string {
	switch p {
	case SinglePol:
		return "single"
	case LDRMode:
		return "LDR"
	case STSRMode:
		return "STSR"
	}
	return fmt.Sprintf("PolMode(%d)", int8(p))
}

// SpectrumVar names one of the level 0 spectrum variables.
type SpectrumVar string

const (
	TotSpec  SpectrumVar = "TotSpec"
	HSpec    SpectrumVar = "HSpec"
	ReVHSpec SpectrumVar = "ReVHSpec"
	ImVHSpec SpectrumVar = "ImVHSpec"
)

// Cube is a stacked (time, range, Doppler bin) array of float32 values.
type Cube struct {
	NTime  int
	NRange int
	NBins  int
	Data   []float32
}

// NewCube allocates a zeroed cube.
func NewCube(nTime, nRange, nBins int) *Cube {
	return &Cube{
		NTime:  nTime,
		NRange: nRange,
		NBins:  nBins,
		Data:   make([]float32, nTime*nRange*nBins),
	}
}

// At returns the spectrum of one (time, range) cell. The slice aliases the cube.
func (c *Cube) At(t, r int) []float32 {
	off := (t*c.NRange + r) * c.NBins
	return c.Data[off : off+c.NBins]
}

package ncwriter_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctessum/cdf"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jddeal/go-rpgradar/moments"
	"github.com/jddeal/go-rpgradar/ncwriter"
	"github.com/jddeal/go-rpgradar/rpg"
	"github.com/jddeal/go-rpgradar/rpg/rpgtest"
)

func level0File(t *testing.T, start uint32, specN []int32) *rpg.File {
	t.Helper()
	h := rpgtest.NewHeader(rpgtest.Layout{
		Type:    rpg.FileType{Level: rpg.Level0, Version: rpg.V3_5},
		DualPol: rpg.LDRMode,
		RAltN:   3,
		TAltN:   2,
		SpecN:   specN,
		RngOffs: []int32{0, 1},
		MaxVel:  []float32{4, 8},
	})
	var recs []*rpg.Record
	for i := uint32(0); i < 2; i++ {
		rec := rpgtest.NewRecord(h, start+i)
		rec.MSec = int32(100 * i)
		rec.RelHum = float32(40 + i)
		rec.TProf[1] = 270
		rec.Spectra[rpg.TotSpec][2] = float32(1 + i)
		recs = append(recs, rec)
	}
	f, err := rpg.Decode(bytes.NewReader(rpgtest.EncodeFile(h, recs)), rpg.DecodeOptions{})
	require.NoError(t, err)
	return f
}

type ncFile struct {
	*cdf.File
	numRecs int
}

// openNC opens a written file. The header keeps record variables at length 0,
// so the record count is derived from the file size.
func openNC(t *testing.T, path string) *ncFile {
	t.Helper()
	ff, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { ff.Close() })
	nc, err := cdf.Open(ff)
	require.NoError(t, err)
	fi, err := ff.Stat()
	require.NoError(t, err)
	return &ncFile{File: nc, numRecs: int(nc.Header.NumRecs(fi.Size()))}
}

// lengths returns the shape of a variable with the record count filled in.
func (nc *ncFile) lengths(name string) []int {
	l := append([]int(nil), nc.Header.Lengths(name)...)
	if len(l) > 0 && nc.Header.IsRecordVariable(name) {
		l[0] = nc.numRecs
	}
	return l
}

func (nc *ncFile) read(t *testing.T, name string) interface{} {
	t.Helper()
	l := nc.lengths(name)
	n := 1
	for _, v := range l {
		n *= v
	}
	// end is the inclusive last corner
	last := make([]int, len(l))
	for i, v := range l {
		last[i] = v - 1
	}
	r := nc.Reader(name, make([]int, len(l)), last)
	buf := r.Zero(n)
	_, err := r.Read(buf)
	require.NoError(t, err)
	return buf
}

func readFloats(t *testing.T, nc *ncFile, name string) []float32 {
	t.Helper()
	return nc.read(t, name).([]float32)
}

func readInts(t *testing.T, nc *ncFile, name string) []int32 {
	t.Helper()
	return nc.read(t, name).([]int32)
}

func TestWriteConcatenatesFiles(t *testing.T) {
	// 2020-01-06 10:40:00 UTC
	const start = 600000000
	a := level0File(t, start, []int32{4, 6})
	b := level0File(t, start+10, []int32{4, 6})

	clock := clockwork.NewFakeClockAt(time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC))
	w := &ncwriter.Writer{Clock: clock, Attributes: map[string]string{"location": "Juelich"}}
	path := filepath.Join(t.TempDir(), "out.nc")
	require.NoError(t, w.Write(path, []*rpg.File{a, b}))

	nc := openNC(t, path)
	assert.Equal(t, 4, nc.numRecs)
	assert.Equal(t, []int{4}, nc.lengths("time"))
	assert.Equal(t, []int{4, 3, 6}, nc.lengths("doppler_spectrum"))
	assert.Equal(t, []int{2, 6}, nc.lengths("velocity_vectors"))
	assert.Equal(t, []int{4, 2}, nc.lengths("temperature_profile"))

	assert.Equal(t, []int32{start, start + 1, start + 10, start + 11}, readInts(t, nc, "time"))
	assert.Equal(t, []int32{0, 100, 0, 100}, readInts(t, nc, "time_ms"))
	assert.Equal(t, []float32{40, 41, 40, 41}, readFloats(t, nc, "relative_humidity"))
	assert.Equal(t, []int32{4, 6}, readInts(t, nc, "n_samples_in_chirp"))

	spec := readFloats(t, nc, "doppler_spectrum")
	assert.Equal(t, float32(1), spec[2])
	assert.Equal(t, float32(2), spec[18+2])

	// first chirp has 4 of 6 bins, shifted by one
	vel := readFloats(t, nc, "velocity_vectors")
	assert.Equal(t, float32(rpg.VelocityFill), vel[0])
	assert.Equal(t, float32(-3), vel[1])
	assert.Equal(t, float32(rpg.VelocityFill), vel[5])

	assert.Equal(t, "CF-1.7", nc.Header.GetAttribute("", "Conventions"))
	assert.Equal(t, "2020", nc.Header.GetAttribute("", "year"))
	assert.Equal(t, "01", nc.Header.GetAttribute("", "month"))
	assert.Equal(t, "06", nc.Header.GetAttribute("", "day"))
	assert.Equal(t, "3.5", nc.Header.GetAttribute("", "rpg_file_version"))
	assert.Equal(t, "Radar file created: 2021-03-04 05:06:07", nc.Header.GetAttribute("", "history"))
	assert.Equal(t, "Juelich", nc.Header.GetAttribute("", "location"))
	assert.Equal(t, []float32{94}, nc.Header.GetAttribute("", "radar_frequency"))
	assert.Len(t, nc.Header.GetAttribute("", "uuid"), 32)
	assert.Nil(t, nc.Header.GetAttribute("", "program_name"))

	assert.Equal(t, "Doppler Spectrum", nc.Header.GetAttribute("doppler_spectrum", "long_name"))
	assert.Equal(t, "TotSpec", nc.Header.GetAttribute("doppler_spectrum", "rpg_manual_name"))
}

func TestWriteRejectsDifferentDimensions(t *testing.T) {
	a := level0File(t, 600000000, []int32{4, 6})
	b := level0File(t, 600000010, []int32{4, 8})

	err := ncwriter.Write(filepath.Join(t.TempDir(), "out.nc"), []*rpg.File{a, b}, nil)
	assert.Error(t, err)
}

func TestWriteRejectsSeveralDates(t *testing.T) {
	a := level0File(t, 600000000, []int32{4, 6})
	b := level0File(t, 600000000+86400, []int32{4, 6})

	err := ncwriter.Write(filepath.Join(t.TempDir(), "out.nc"), []*rpg.File{a, b}, nil)
	assert.Error(t, err)
}

func TestWriteNothing(t *testing.T) {
	assert.Error(t, ncwriter.Write(filepath.Join(t.TempDir(), "out.nc"), nil, nil))
}

func TestWriteLevel1STSRUsesZDR(t *testing.T) {
	h := rpgtest.NewHeader(rpgtest.Layout{
		Type:    rpg.FileType{Level: rpg.Level1, Version: rpg.V4_0},
		DualPol: rpg.STSRMode,
		RAltN:   2,
		SpecN:   []int32{256},
		RngOffs: []int32{0},
		MaxVel:  []float32{10},
	})
	rec := rpgtest.NewRecord(h, 600000000)
	rec.RefRat[1] = 0.5
	rec.Status = 11
	f, err := rpg.Decode(bytes.NewReader(rpgtest.EncodeFile(h, []*rpg.Record{rec})), rpg.DecodeOptions{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "l1.nc")
	require.NoError(t, ncwriter.Write(path, []*rpg.File{f}, nil))

	nc := openNC(t, path)
	assert.Equal(t, []float32{0, 0.5}, readFloats(t, nc, "zdr"))
	assert.Equal(t, []float32{11}, readFloats(t, nc, "status_flag"))
	assert.Equal(t, "4.0", nc.Header.GetAttribute("", "rpg_file_version"))
	assert.Equal(t, []int32{1}, nc.Header.GetAttribute("", "level"))
	assert.NotContains(t, nc.Header.Variables(), "ldr")
}

func TestWriteMoments(t *testing.T) {
	f := level0File(t, 600000000, []int32{4, 6})
	res, err := moments.FromFile(f, rpg.TotSpec, moments.Options{FillValue: -999, NPointsMin: 1})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "moments.nc")
	require.NoError(t, ncwriter.WriteMoments(path, f, res, -999, nil))

	nc := openNC(t, path)
	ze := readFloats(t, nc, "Ze")
	require.Len(t, ze, 6)
	assert.Equal(t, float32(0.5), ze[0])
	assert.Equal(t, float32(-999), ze[1])
	assert.Equal(t, float32(1), ze[3])
	assert.Equal(t, []float32{-999}, nc.Header.GetAttribute("v", "_FillValue"))
	assert.NotContains(t, nc.Header.Variables(), "doppler_spectrum")
	assert.Contains(t, nc.Header.Variables(), "time")
}

func TestWriteMomentsShapeMismatch(t *testing.T) {
	f := level0File(t, 600000000, []int32{4, 6})
	res := &moments.Result{NTime: 1, NRange: 3}
	err := ncwriter.WriteMoments(filepath.Join(t.TempDir(), "m.nc"), f, res, -999, nil)
	assert.IsType(t, &moments.ShapeMismatchError{}, err)
}

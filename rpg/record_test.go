package rpg_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jddeal/go-rpgradar/rpg"
	"github.com/jddeal/go-rpgradar/rpg/rpgtest"
)

// stsrFile builds a two-sample STSR level 0 file with a single peak per gate.
func stsrFile(t *testing.T) (*rpg.Header, []*rpg.Record, []byte) {
	t.Helper()
	h := rpgtest.NewHeader(stsrLayout())
	var recs []*rpg.Record
	for i := 0; i < 2; i++ {
		rec := rpgtest.NewRecord(h, uint32(600000000+i*3))
		rec.MSec = 250
		rec.RR = 1.5
		for gate := 0; gate < int(h.RAltN); gate++ {
			rec.TotNoisePow[gate] = 1
			rec.HNoisePow[gate] = 0.5
			// chirp 0 spans bins 3..6 of the common grid, chirp 1 all 10
			bin := 4
			if gate >= 2 {
				bin = 5
			}
			rec.Spectra[rpg.TotSpec][gate*10+bin] = float32(gate + 1)
			rec.Spectra[rpg.HSpec][gate*10+bin] = 0.5
			rec.Spectra[rpg.ReVHSpec][gate*10+bin] = 0.1
			rec.Spectra[rpg.ImVHSpec][gate*10+bin] = -0.1
		}
		recs = append(recs, rec)
	}
	return h, recs, rpgtest.EncodeFile(h, recs)
}

func TestDecodeLevel0STSR(t *testing.T) {
	h, recs, raw := stsrFile(t)

	f, err := rpg.Decode(bytes.NewReader(raw), rpg.DecodeOptions{})
	require.NoError(t, err)

	assert.Equal(t, h, f.Header)
	assert.Equal(t, int32(2), f.SampleCount)
	assert.Equal(t, int64(len(rpgtest.EncodeHeader(h))), f.DataOffset)
	require.Len(t, f.Records, 2)

	rec := f.Records[1]
	assert.Equal(t, 1, rec.Index)
	assert.Equal(t, float32(1.5), rec.RR)
	assert.Equal(t, recs[1].Spectra, rec.Spectra)
	assert.Equal(t, recs[1].HNoisePow, rec.HNoisePow)
	assert.Equal(t, time.Date(2020, time.January, 6, 10, 40, 3, 250e6, time.UTC), rec.Timestamp())

	// padding bins of chirp 0 stay zero
	row := rec.Spectra[rpg.TotSpec][0:10]
	assert.Equal(t, []float32{0, 0, 0, 0, 1, 0, 0, 0, 0, 0}, row)
}

func TestDecodeLevel1(t *testing.T) {
	for _, pol := range []rpg.PolMode{rpg.SinglePol, rpg.LDRMode, rpg.STSRMode} {
		t.Run(pol.String(), func(t *testing.T) {
			h := rpgtest.NewHeader(rpgtest.Layout{
				Type:    rpg.FileType{Level: rpg.Level1, Version: rpg.V4_0},
				DualPol: pol,
				RAltN:   3,
				TAltN:   2,
				HAltN:   2,
				SpecN:   []int32{256},
				RngOffs: []int32{0},
				MaxVel:  []float32{10},
			})
			rec := rpgtest.NewRecord(h, 1000)
			rec.Status = 11
			rec.Ze = []float32{1e-3, 2e-3, 3e-3}
			rec.TProf = []float32{280, 275}

			f, err := rpg.Decode(bytes.NewReader(rpgtest.EncodeFile(h, []*rpg.Record{rec})), rpg.DecodeOptions{})
			require.NoError(t, err)
			require.Len(t, f.Records, 1)

			got := f.Records[0]
			assert.Equal(t, rec.Ze, got.Ze)
			assert.Equal(t, rec.TProf, got.TProf)
			assert.Equal(t, float32(11), got.Status)
			assert.Equal(t, pol > rpg.SinglePol, got.RefRat != nil)
			assert.Equal(t, pol == rpg.STSRMode, got.SLDR != nil)
			assert.Nil(t, got.Spectra)

			_, hasSLh := got.Profiles()["SLh"]
			assert.Equal(t, pol > rpg.SinglePol, hasSLh)
			assert.Contains(t, got.Scalars(rpg.Level1), "LWP")
		})
	}
}

func TestDecodeLevel1V1(t *testing.T) {
	h := rpgtest.NewHeader(rpgtest.Layout{
		Type:    rpg.FileType{Level: rpg.Level1, Version: rpg.V1_0},
		RAltN:   2,
		SpecN:   []int32{128},
		RngOffs: []int32{0},
		MaxVel:  []float32{5},
	})
	rec := rpgtest.NewRecord(h, 42)
	rec.MeanVel = []float32{-1, 1}

	f, err := rpg.Decode(bytes.NewReader(rpgtest.EncodeFile(h, []*rpg.Record{rec})), rpg.DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, f.Records, 1)
	assert.Equal(t, rec.MeanVel, f.Records[0].MeanVel)
}

func TestDecodeAntiAlias(t *testing.T) {
	h := rpgtest.NewHeader(stsrLayout())
	h.Acquisition.AntiAlias = 1
	rec := rpgtest.NewRecord(h, 7)
	rec.AliasMsk[3] = 1
	rec.MinVel[3] = -12

	f, err := rpg.Decode(bytes.NewReader(rpgtest.EncodeFile(h, []*rpg.Record{rec})), rpg.DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, rec.AliasMsk, f.Records[0].AliasMsk)
	assert.Equal(t, rec.MinVel, f.Records[0].MinVel)
}

func TestRecordReaderTruncated(t *testing.T) {
	h, _, raw := stsrFile(t)
	dataOffset := len(rpgtest.EncodeHeader(h))

	rr, err := rpg.NewRecordReader(bytes.NewReader(raw[dataOffset:len(raw)-7]), h, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), rr.TotSampNum)

	_, err = rr.Next()
	require.NoError(t, err)

	_, err = rr.Next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, rpg.ErrTruncated))

	var te *rpg.TruncatedRecordError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 1, te.Index)
	assert.Equal(t, "ImVHSpec", te.Field)
}

func TestRecordReaderCleanEnd(t *testing.T) {
	h, _, raw := stsrFile(t)
	dataOffset := len(rpgtest.EncodeHeader(h))

	rr, err := rpg.NewRecordReader(bytes.NewReader(raw[dataOffset:]), h, nil)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := rr.Next()
		require.NoError(t, err)
	}
	_, err = rr.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, int64(len(raw)-dataOffset), rr.Offset())

	// the end stays the end
	_, err = rr.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecodeTruncatedTail(t *testing.T) {
	_, _, raw := stsrFile(t)
	raw = raw[:len(raw)-20]

	_, err := rpg.Decode(bytes.NewReader(raw), rpg.DecodeOptions{})
	assert.True(t, errors.Is(err, rpg.ErrTruncated))

	f, err := rpg.Decode(bytes.NewReader(raw), rpg.DecodeOptions{DropTruncatedTail: true})
	require.NoError(t, err)
	assert.Len(t, f.Records, 1)
}

func TestDecodeFile(t *testing.T) {
	_, _, raw := stsrFile(t)
	dir := t.TempDir()

	plain := filepath.Join(dir, "sample.LV0")
	require.NoError(t, os.WriteFile(plain, raw, 0o644))

	var buf bytes.Buffer
	bz, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: bzip2.BestSpeed})
	require.NoError(t, err)
	_, err = bz.Write(raw)
	require.NoError(t, err)
	require.NoError(t, bz.Close())
	compressed := filepath.Join(dir, "sample.LV0.bz2")
	require.NoError(t, os.WriteFile(compressed, buf.Bytes(), 0o644))

	for _, path := range []string{plain, compressed} {
		f, err := rpg.DecodeFile(path, rpg.DecodeOptions{})
		require.NoError(t, err, path)
		assert.Len(t, f.Records, 2, path)
		assert.Equal(t, []uint32{600000000, 600000003}, f.Times())
	}

	_, err = rpg.DecodeFile(filepath.Join(dir, "missing.LV0"), rpg.DecodeOptions{})
	assert.Error(t, err)
}

func TestFileSpectra(t *testing.T) {
	_, recs, raw := stsrFile(t)
	f, err := rpg.Decode(bytes.NewReader(raw), rpg.DecodeOptions{})
	require.NoError(t, err)

	c, err := f.Spectra(rpg.TotSpec)
	require.NoError(t, err)
	assert.Equal(t, 2, c.NTime)
	assert.Equal(t, 6, c.NRange)
	assert.Equal(t, 10, c.NBins)
	assert.Equal(t, recs[1].Spectra[rpg.TotSpec][30:40], c.At(1, 3))

	noise, err := f.NoisePower("HNoisePow")
	require.NoError(t, err)
	assert.Len(t, noise, 2)
	assert.Equal(t, float32(0.5), noise[0][0])

	_, err = f.NoisePower("Ze")
	assert.Error(t, err)
}

func TestFileSpectraUnavailable(t *testing.T) {
	h := rpgtest.NewHeader(rpgtest.Layout{
		Type:    rpg.FileType{Level: rpg.Level0, Version: rpg.V2_0},
		RAltN:   2,
		SpecN:   []int32{8},
		RngOffs: []int32{0},
		MaxVel:  []float32{4},
	})
	raw := rpgtest.EncodeFile(h, []*rpg.Record{rpgtest.NewRecord(h, 1)})
	f, err := rpg.Decode(bytes.NewReader(raw), rpg.DecodeOptions{})
	require.NoError(t, err)

	_, err = f.Spectra(rpg.TotSpec)
	assert.NoError(t, err)
	_, err = f.Spectra(rpg.HSpec)
	assert.Error(t, err)
}

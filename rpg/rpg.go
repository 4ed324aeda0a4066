package rpg

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var bzip2Magic = []byte("BZh")

// File is a fully decoded RPG file.
type File struct {
	Header   *Header
	Geometry *ChirpGeometry

	// DataOffset is the byte offset of the data region.
	DataOffset int64

	// SampleCount is TotSampNum as written by the radar.
	SampleCount int32

	Records []*Record
}

// DecodeOptions control how Decode treats damaged files.
type DecodeOptions struct {
	// DropTruncatedTail discards a partially written last record instead of
	// failing the whole file.
	DropTruncatedTail bool
}

// Decode reads a header and every record from r.
func Decode(r io.Reader, opts DecodeOptions) (*File, error) {
	h, offset, err := DecodeHeader(r)
	if err != nil {
		return nil, err
	}
	g, err := NewChirpGeometry(h)
	if err != nil {
		return nil, err
	}

	rr, err := newRecordReader(r, h, g, offset)
	if err != nil {
		return nil, err
	}

	f := &File{
		Header:      h,
		Geometry:    g,
		DataOffset:  offset,
		SampleCount: rr.TotSampNum,
	}

	for {
		rec, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var te *TruncatedRecordError
			if opts.DropTruncatedTail && errors.As(err, &te) {
				logrus.Warnf("dropping truncated record %d: %v", te.Index, err)
				break
			}
			return nil, err
		}
		f.Records = append(f.Records, rec)
	}

	if int(f.SampleCount) != len(f.Records) {
		logrus.Warnf("file announces %d samples, decoded %d", f.SampleCount, len(f.Records))
	}
	logrus.Debugf("  decoded %s records", color.CyanString("%d", len(f.Records)))
	return f, nil
}

// DecodeFile decodes the file at path. bzip2-compressed files are
// decompressed on the fly.
func DecodeFile(path string, opts DecodeOptions) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening RPG file")
	}
	defer fh.Close()

	logrus.Debugf("decoding %s", color.CyanString(path))

	br := bufio.NewReaderSize(fh, 1<<16)
	var r io.Reader = br
	if magic, _ := br.Peek(len(bzip2Magic)); bytes.Equal(magic, bzip2Magic) {
		bz, err := bzip2.NewReader(br, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "opening bzip2 stream of %s", path)
		}
		defer bz.Close()
		r = bz
	}

	f, err := Decode(r, opts)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return f, nil
}

// Times returns the timestamp of every record.
func (f *File) Times() []uint32 {
	return lo.Map(f.Records, func(r *Record, _ int) uint32 { return r.Time })
}

// Spectra stacks one spectrum variable of every record into a
// (time, range, MaxBins) cube.
func (f *File) Spectra(v SpectrumVar) (*Cube, error) {
	if f.Header.Level() != Level0 {
		return nil, errors.Errorf("%s: level %d files carry no spectra", v, f.Header.Level())
	}
	if !lo.Contains(SpectrumVars(f.Header.DualPol), v) {
		return nil, errors.Errorf("%s not recorded in %s polarisation mode", v, f.Header.DualPol)
	}

	nRange := int(f.Header.RAltN)
	c := NewCube(len(f.Records), nRange, f.Geometry.MaxBins)
	stride := nRange * c.NBins
	for t, rec := range f.Records {
		copy(c.Data[t*stride:(t+1)*stride], rec.Spectra[v])
	}
	return c, nil
}

// NoisePower stacks a noise profile ("TotNoisePow" or "HNoisePow") into
// a (time, range) matrix.
func (f *File) NoisePower(name string) ([][]float32, error) {
	out := make([][]float32, len(f.Records))
	for t, rec := range f.Records {
		p, ok := rec.Profiles()[name]
		if !ok {
			return nil, errors.Errorf("record %d has no %s profile", t, name)
		}
		out[t] = p
	}
	return out, nil
}

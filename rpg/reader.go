package rpg

import (
	"encoding/binary"
	"io"
	"strings"
)

// maxCount bounds every count field before it is used to size a vector, so a
// corrupted header fails cleanly instead of allocating gigabytes.
const maxCount = 1 << 20

// maxSpectrumCells bounds RAltN times the widest chirp, the size of one
// spectrum variable of a level 0 record.
const maxSpectrumCells = 1 << 22

// fieldReader reads little-endian fields and remembers the first failure
// together with the field name and byte offset it happened at. Once an error
// is recorded every further read is a no-op.
type fieldReader struct {
	r      io.Reader
	offset int64

	err       error
	errField  string
	errOffset int64
}

func newFieldReader(r io.Reader, offset int64) *fieldReader {
	return &fieldReader{r: r, offset: offset}
}

func (fr *fieldReader) Read(p []byte) (int, error) {
	n, err := fr.r.Read(p)
	fr.offset += int64(n)
	return n, err
}

func (fr *fieldReader) fail(field string, offset int64, err error) {
	if err == io.EOF && fr.offset > offset {
		err = io.ErrUnexpectedEOF
	}
	fr.err = err
	fr.errField = field
	fr.errOffset = offset
}

// read decodes into data, which must be a pointer to a fixed-size value or a
// slice of fixed-size values.
func (fr *fieldReader) read(field string, data interface{}) {
	if fr.err != nil {
		return
	}
	start := fr.offset
	if err := binary.Read(fr, binary.LittleEndian, data); err != nil {
		fr.fail(field, start, err)
	}
}

func (fr *fieldReader) i8(field string) int8 {
	var v int8
	fr.read(field, &v)
	return v
}

func (fr *fieldReader) u16(field string) uint16 {
	var v uint16
	fr.read(field, &v)
	return v
}

func (fr *fieldReader) i32(field string) int32 {
	var v int32
	fr.read(field, &v)
	return v
}

func (fr *fieldReader) u32(field string) uint32 {
	var v uint32
	fr.read(field, &v)
	return v
}

func (fr *fieldReader) f32(field string) float32 {
	var v float32
	fr.read(field, &v)
	return v
}

func (fr *fieldReader) f32s(field string, n int) []float32 {
	v := make([]float32, n)
	if n > 0 {
		fr.read(field, v)
	}
	return v
}

func (fr *fieldReader) i32s(field string, n int) []int32 {
	v := make([]int32, n)
	if n > 0 {
		fr.read(field, v)
	}
	return v
}

func (fr *fieldReader) i8s(field string, n int) []int8 {
	v := make([]int8, n)
	if n > 0 {
		fr.read(field, v)
	}
	return v
}

// skip consumes n bytes without decoding them.
func (fr *fieldReader) skip(field string, n int64) {
	if fr.err != nil || n <= 0 {
		return
	}
	start := fr.offset
	if _, err := io.CopyN(io.Discard, fr, n); err != nil {
		fr.fail(field, start, err)
	}
}

// cstring reads single bytes up to a terminating zero. Bytes outside printable
// 7-bit ASCII are replaced so station names typed with local characters still
// decode.
func (fr *fieldReader) cstring(field string) string {
	if fr.err != nil {
		return ""
	}
	start := fr.offset
	var sb strings.Builder
	b := make([]byte, 1)
	for {
		if _, err := io.ReadFull(fr, b); err != nil {
			fr.fail(field, start, err)
			return ""
		}
		c := b[0]
		if c == 0 {
			return sb.String()
		}
		if c < 0x20 || c > 0x7e {
			c = stringPlaceholder
		}
		sb.WriteByte(c)
	}
}

// count reads an i4 count field and checks that it can size a vector.
func (fr *fieldReader) count(field string) int {
	n := fr.i32(field)
	if fr.err != nil {
		return 0
	}
	if n < 0 || n > maxCount {
		fr.err = &HeaderError{Field: field, Reason: "count out of range"}
		fr.errField = field
		fr.errOffset = fr.offset - 4
		return 0
	}
	return int(n)
}

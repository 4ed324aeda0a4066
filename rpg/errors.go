package rpg

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownFormat is matched by every UnknownFormatError.
	ErrUnknownFormat = errors.New("unknown RPG file format")

	// ErrTruncated is matched by TruncatedHeaderError and TruncatedRecordError.
	ErrTruncated = errors.New("truncated RPG file")
)

// UnknownFormatError is returned for file codes outside the known table.
type UnknownFormatError struct {
	FileCode int32
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown file type, file code %d", e.FileCode)
}

func (e *UnknownFormatError) Is(target error) bool {
	return target == ErrUnknownFormat
}

// TruncatedHeaderError reports a stream that ended inside the header.
type TruncatedHeaderError struct {
	Field  string
	Offset int64
	Err    error
}

func (e *TruncatedHeaderError) Error() string {
	return fmt.Sprintf("header truncated reading %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

func (e *TruncatedHeaderError) Unwrap() error { return e.Err }

func (e *TruncatedHeaderError) Is(target error) bool {
	return target == ErrTruncated
}

// TruncatedRecordError reports a stream that ended inside a record. Callers
// usually treat it as a partially written last sample.
type TruncatedRecordError struct {
	Index  int
	Field  string
	Offset int64
	Err    error
}

func (e *TruncatedRecordError) Error() string {
	return fmt.Sprintf("record %d truncated reading %s at offset %d: %v", e.Index, e.Field, e.Offset, e.Err)
}

func (e *TruncatedRecordError) Unwrap() error { return e.Err }

func (e *TruncatedRecordError) Is(target error) bool {
	return target == ErrTruncated
}

// HeaderError reports a header that decoded fully but describes an impossible layout.
type HeaderError struct {
	Field  string
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("invalid header field %s: %s", e.Field, e.Reason)
}

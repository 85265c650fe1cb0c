package bitstream

import (
	"errors"
	"fmt"
)

// ErrBitstream is matched by every error this package returns. Callers that
// only care whether a buffer is malformed can test errors.Is(err, ErrBitstream).
var ErrBitstream = errors.New("bitstream error")

// Error kinds. An *Error wraps exactly one of these alongside ErrBitstream.
var (
	ErrRange              = errors.New("value out of range")
	ErrLength             = errors.New("wrong field length")
	ErrInvalidLength      = errors.New("invalid read length")
	ErrMagic              = errors.New("bad magic")
	ErrVersion            = errors.New("unsupported version")
	ErrUnsupportedNALType = errors.New("unsupported nal_type")
	ErrTruncated          = errors.New("truncated input")
	ErrTrailingBytes      = errors.New("trailing bytes")
)

// Error describes a single validation failure while encoding or decoding a
// record. Field names the wire field involved (e.g. "width", "L.A").
type Error struct {
	Kind   error
	Field  string
	Detail string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("bitstream: %s", e.Detail)
	}
	return fmt.Sprintf("bitstream: %s: %s", e.Field, e.Detail)
}

func (e *Error) Unwrap() []error {
	return []error{ErrBitstream, e.Kind}
}

func newError(kind error, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Detail: fmt.Sprintf(format, args...)}
}

package codec

import (
	"errors"
	"fmt"

	"github.com/ssargent/bidcvc/pkg/bitstream"
)

var (
	// ErrNotImplemented is returned by entry points whose model wiring has
	// not landed.
	ErrNotImplemented = errors.New("not implemented")
	// ErrMissingDependency is returned when an optional model dependency
	// (weights, third-party code) is not available.
	ErrMissingDependency = errors.New("missing dependency")
)

// MismatchError reports that an EncodedStereoAU's metadata disagrees with
// the header of the AU it carries. It matches bitstream.ErrBitstream.
type MismatchError struct {
	Field string
	Want  int
	Got   int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("codec: %s mismatch: metadata %d, bitstream %d", e.Field, e.Want, e.Got)
}

func (e *MismatchError) Unwrap() error {
	return bitstream.ErrBitstream
}

func notImplemented(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotImplemented)
}

package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ssargent/bidcvc/pkg/bitstream"
)

// UnitKind identifies the record carried by a frame.
type UnitKind uint8

const (
	UnitSPS UnitKind = iota + 1
	UnitAU
)

func (k UnitKind) String() string {
	switch k {
	case UnitSPS:
		return "sps"
	case UnitAU:
		return "au"
	default:
		return "unknown"
	}
}

// Unit is one decoded frame from a stream file. Exactly one of SPS and AU
// is set, according to Kind.
type Unit struct {
	Offset int64 // Byte offset of the frame header
	Size   int64 // Frame size including the header
	Kind   UnitKind
	SPS    *bitstream.StereoSPS
	AU     *bitstream.StereoAU
}

// StreamWriterConfig holds configuration for the stream writer
type StreamWriterConfig struct {
	FilePath      string        // Path to the stream file
	FsyncInterval time.Duration // How often to fsync (0 = every write)
	BufferSize    int           // Write buffer size
	Logger        *slog.Logger  // Defaults to slog.Default()
}

// StreamReaderConfig holds configuration for the stream reader
type StreamReaderConfig struct {
	FilePath     string // Path to the stream file
	StartOffset  int64  // Offset to start reading from
	SkipSPSCheck bool   // Accept AUs whose SPS was not read first, e.g. after seeking past it
}

// UnitIterator provides streaming access to units
type UnitIterator interface {
	Next() bool
	Unit() *Unit
	Err() error
	Close() error
}

// Errors
var (
	ErrCorruption  = &StoreError{"data corruption detected"}
	ErrUnknownSPS  = &StoreError{"access unit references unknown SPS"}
	ErrUnknownUnit = &StoreError{"unknown unit magic"}
	ErrClosed      = &StoreError{"stream closed"}
)

// StoreError represents a stream store error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}

// FrameError locates a failure inside a stream file.
type FrameError struct {
	Offset int64
	Err    error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("store: frame at offset %d: %v", e.Offset, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

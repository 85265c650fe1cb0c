package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// StreamReader provides sequential access to units in a stream file
type StreamReader struct {
	file     *os.File
	reader   *bufio.Reader
	size     int64
	offset   int64
	config   StreamReaderConfig
	knownSPS [256]bool
}

// NewStreamReader opens the stream file for reading
func NewStreamReader(config StreamReaderConfig) (*StreamReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	// Seek to start offset if specified
	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			file.Close()
			return nil, err
		}
	}

	return &StreamReader{
		file:   file,
		reader: bufio.NewReader(file),
		size:   stat.Size(),
		offset: config.StartOffset,
		config: config,
	}, nil
}

// ReadNext reads the unit at the current offset. It returns io.EOF at a
// clean end of file.
func (r *StreamReader) ReadNext() (*Unit, error) {
	start := r.offset

	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r.reader, header); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, &FrameError{Offset: start, Err: fmt.Errorf("short frame header: %w", ErrCorruption)}
		}
		return nil, err
	}

	crc, length := frameHeader(header)
	if int64(length) > r.size-start-frameHeaderSize {
		return nil, &FrameError{Offset: start, Err: fmt.Errorf("frame length %d exceeds file: %w", length, ErrCorruption)}
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.reader, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &FrameError{Offset: start, Err: fmt.Errorf("short frame payload: %w", ErrCorruption)}
		}
		return nil, err
	}

	if frameChecksum(header, payload) != crc {
		return nil, &FrameError{Offset: start, Err: fmt.Errorf("CRC32 mismatch: %w", ErrCorruption)}
	}

	kind, sps, au, err := decodePayload(payload)
	if err != nil {
		return nil, &FrameError{Offset: start, Err: err}
	}

	switch kind {
	case UnitSPS:
		r.knownSPS[sps.SPSID] = true
	case UnitAU:
		if !r.config.SkipSPSCheck && !r.knownSPS[au.SPSID] {
			return nil, &FrameError{Offset: start, Err: fmt.Errorf("sps_id %d: %w", au.SPSID, ErrUnknownSPS)}
		}
	}

	size := int64(frameHeaderSize) + int64(length)
	r.offset += size

	return &Unit{Offset: start, Size: size, Kind: kind, SPS: sps, AU: au}, nil
}

// ReadAt reads the unit whose frame starts at offset without moving the
// sequential cursor. SPS references are not checked.
func (r *StreamReader) ReadAt(offset int64) (*Unit, error) {
	header := make([]byte, frameHeaderSize)
	if _, err := r.file.ReadAt(header, offset); err != nil {
		return nil, &FrameError{Offset: offset, Err: fmt.Errorf("read frame header: %w", ErrCorruption)}
	}

	crc, length := frameHeader(header)
	if int64(length) > r.size-offset-frameHeaderSize {
		return nil, &FrameError{Offset: offset, Err: fmt.Errorf("frame length %d exceeds file: %w", length, ErrCorruption)}
	}

	payload := make([]byte, length)
	if _, err := r.file.ReadAt(payload, offset+frameHeaderSize); err != nil {
		return nil, &FrameError{Offset: offset, Err: fmt.Errorf("read frame payload: %w", ErrCorruption)}
	}
	if frameChecksum(header, payload) != crc {
		return nil, &FrameError{Offset: offset, Err: fmt.Errorf("CRC32 mismatch: %w", ErrCorruption)}
	}

	kind, sps, au, err := decodePayload(payload)
	if err != nil {
		return nil, &FrameError{Offset: offset, Err: err}
	}
	return &Unit{Offset: offset, Size: frameHeaderSize + int64(length), Kind: kind, SPS: sps, AU: au}, nil
}

// SeekTo sets the read offset
func (r *StreamReader) SeekTo(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	r.reader = bufio.NewReader(r.file) // Recreate reader to clear buffer
	r.offset = offset
	return nil
}

// Offset returns the current read offset
func (r *StreamReader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator for units
func (r *StreamReader) Iterator() UnitIterator {
	return &streamUnitIterator{reader: r}
}

// Close closes the stream reader
func (r *StreamReader) Close() error {
	return r.file.Close()
}

// streamUnitIterator implements UnitIterator for streaming access
type streamUnitIterator struct {
	reader *StreamReader
	unit   *Unit
	err    error
}

func (it *streamUnitIterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.unit, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *streamUnitIterator) Unit() *Unit {
	return it.unit
}

// Err returns the error that stopped iteration, or nil at a clean end.
func (it *streamUnitIterator) Err() error {
	if errors.Is(it.err, io.EOF) {
		return nil
	}
	return it.err
}

func (it *streamUnitIterator) Close() error {
	// Don't close the underlying reader as it's owned by the caller
	return nil
}

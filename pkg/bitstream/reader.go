package bitstream

// Reader is a bounds-checked cursor over an immutable byte slice. Every
// decode path reads through ReadExact so truncation is reported at the
// field that needed the missing bytes.
type Reader struct {
	data   []byte
	offset int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.offset
}

// Offset returns the current read position.
func (r *Reader) Offset() int {
	return r.offset
}

// ReadExact returns the next n bytes and advances the cursor. The returned
// slice aliases the underlying buffer.
func (r *Reader) ReadExact(n int) ([]byte, error) {
	if n < 0 {
		return nil, newError(ErrInvalidLength, "", "invalid read length: %d", n)
	}
	if n > r.Remaining() {
		return nil, newError(ErrTruncated, "", "truncated input: need %d bytes, have %d", n, r.Remaining())
	}
	end := r.offset + n
	out := r.data[r.offset:end:end]
	r.offset = end
	return out, nil
}

// ReadU8 reads one byte.
func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.ReadExact(1)
	if err != nil {
		return 0, err
	}
	return UnpackU8(b)
}

// ReadU16 reads a big-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadExact(2)
	if err != nil {
		return 0, err
	}
	return UnpackU16(b)
}

// ReadU32 reads a big-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return UnpackU32(b)
}

package bitstream

import "encoding/binary"

// PackU8 encodes v as a single byte.
func PackU8(v int) ([]byte, error) {
	if v < 0 || v > U8Max {
		return nil, newError(ErrRange, "u8", "out of range: %d", v)
	}
	return []byte{byte(v)}, nil
}

// PackU16 encodes v as two big-endian bytes.
func PackU16(v int) ([]byte, error) {
	if v < 0 || v > U16Max {
		return nil, newError(ErrRange, "u16", "out of range: %d", v)
	}
	return binary.BigEndian.AppendUint16(nil, uint16(v)), nil
}

// PackU32 encodes v as four big-endian bytes.
func PackU32(v int) ([]byte, error) {
	if v < 0 || uint64(v) > U32Max {
		return nil, newError(ErrRange, "u32", "out of range: %d", v)
	}
	return binary.BigEndian.AppendUint32(nil, uint32(v)), nil
}

// UnpackU8 decodes exactly one byte.
func UnpackU8(b []byte) (uint8, error) {
	if len(b) != 1 {
		return 0, newError(ErrLength, "u8", "expected 1 byte, got %d", len(b))
	}
	return b[0], nil
}

// UnpackU16 decodes exactly two big-endian bytes.
func UnpackU16(b []byte) (uint16, error) {
	if len(b) != 2 {
		return 0, newError(ErrLength, "u16", "expected 2 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint16(b), nil
}

// UnpackU32 decodes exactly four big-endian bytes.
func UnpackU32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, newError(ErrLength, "u32", "expected 4 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

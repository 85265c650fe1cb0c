package bitstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_ReadExact(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4, 5})
	assert.Equal(t, 5, r.Remaining())

	b, err := r.ReadExact(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)
	assert.Equal(t, 2, r.Offset())
	assert.Equal(t, 3, r.Remaining())

	b, err = r.ReadExact(0)
	require.NoError(t, err)
	assert.Empty(t, b)
	assert.Equal(t, 2, r.Offset())

	b, err = r.ReadExact(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4, 5}, b)
	assert.Equal(t, 0, r.Remaining())
}

func TestReader_Truncated(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	_, err := r.ReadExact(2)
	require.NoError(t, err)

	_, err = r.ReadExact(2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Contains(t, err.Error(), "need 2 bytes, have 1")

	// A failed read does not move the cursor.
	assert.Equal(t, 2, r.Offset())
	assert.Equal(t, 1, r.Remaining())
}

func TestReader_NegativeLength(t *testing.T) {
	r := NewReader([]byte{1})
	_, err := r.ReadExact(-1)
	assert.ErrorIs(t, err, ErrInvalidLength)
	assert.ErrorIs(t, err, ErrBitstream)
	assert.Equal(t, 0, r.Offset())
}

func TestReader_ReadInts(t *testing.T) {
	r := NewReader([]byte{0x07, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2A})

	v8, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(7), v8)

	v16, err := r.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(256), v16)

	v32, err := r.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v32)

	_, err = r.ReadU8()
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestReader_AppendDoesNotClobberInput(t *testing.T) {
	data := []byte{9, 8, 7, 6}
	r := NewReader(data)
	b, err := r.ReadExact(2)
	require.NoError(t, err)

	_ = append(b, 0xFF)
	assert.Equal(t, []byte{9, 8, 7, 6}, data)
}

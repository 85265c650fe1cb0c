package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bidcvc/pkg/bitstream"
)

func newTestWriter(t *testing.T, path string) *StreamWriter {
	t.Helper()
	w, err := NewStreamWriter(StreamWriterConfig{FilePath: path, BufferSize: 4096})
	require.NoError(t, err)
	return w
}

func writeTestStream(t *testing.T, path string, aus int) {
	t.Helper()
	w := newTestWriter(t, path)
	defer w.Close()

	_, err := w.WriteSPS(bitstream.NewStereoSPS(1, 640, 480))
	require.NoError(t, err)
	for i := 0; i < aus; i++ {
		_, err := w.WriteAU(bitstream.NewStereoAU(1, uint8(i), []byte{byte(i)}, nil, []byte("lb"), nil))
		require.NoError(t, err)
	}
}

func TestNewStreamWriter(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "stream.bin")

	w := newTestWriter(t, path)
	assert.FileExists(t, path)
	assert.Equal(t, int64(0), w.Size())
	assert.Equal(t, path, w.Path())
	assert.NoError(t, w.Close())

	// Closing twice is a no-op.
	assert.NoError(t, w.Close())
}

func TestNewStreamWriter_InvalidPath(t *testing.T) {
	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	w, err := NewStreamWriter(StreamWriterConfig{FilePath: filepath.Join(blocker, "stream.bin")})
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestStream_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")

	sps := bitstream.NewStereoSPS(3, 1920, 1080)
	aus := []bitstream.StereoAU{
		bitstream.NewStereoAU(3, 22, []byte{0, 1}, nil, []byte("abc"), []byte{0xFF, 0xFF}),
		bitstream.NewStereoAU(3, 23, nil, nil, nil, nil),
		bitstream.NewStereoAU(3, 24, []byte("left"), []byte("right"), nil, nil),
	}

	w := newTestWriter(t, path)
	offset, err := w.WriteSPS(sps)
	require.NoError(t, err)
	assert.Equal(t, int64(0), offset)

	var offsets []int64
	for _, au := range aus {
		off, err := w.WriteAU(au)
		require.NoError(t, err)
		offsets = append(offsets, off)
	}
	assert.Equal(t, int64(frameHeaderSize+bitstream.SPSSize), offsets[0])
	require.NoError(t, w.Close())

	r, err := NewStreamReader(StreamReaderConfig{FilePath: path})
	require.NoError(t, err)
	defer r.Close()

	unit, err := r.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, UnitSPS, unit.Kind)
	require.NotNil(t, unit.SPS)
	assert.Equal(t, sps, *unit.SPS)

	for i, au := range aus {
		unit, err := r.ReadNext()
		require.NoError(t, err)
		assert.Equal(t, UnitAU, unit.Kind)
		assert.Equal(t, offsets[i], unit.Offset)
		require.NotNil(t, unit.AU)
		assert.True(t, unit.AU.Equal(au), "unit %d", i)
	}

	_, err = r.ReadNext()
	assert.Equal(t, io.EOF, err)
}

func TestStreamWriter_UnknownSPS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	w := newTestWriter(t, path)
	defer w.Close()

	_, err := w.WriteAU(bitstream.NewStereoAU(9, 22, nil, nil, nil, nil))
	assert.ErrorIs(t, err, ErrUnknownSPS)
	assert.Equal(t, int64(0), w.Size())
}

func TestStreamWriter_RejectsInvalidRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	w := newTestWriter(t, path)
	defer w.Close()

	_, err := w.WriteSPS(bitstream.NewStereoSPS(1, 0, 16))
	assert.ErrorIs(t, err, bitstream.ErrRange)

	_, err = w.WriteUnit([]byte("junk"))
	assert.ErrorIs(t, err, ErrUnknownUnit)

	_, err = w.WriteUnit([]byte("BAU0"))
	assert.ErrorIs(t, err, bitstream.ErrTruncated)
}

func TestStreamWriter_WriteUnit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	w := newTestWriter(t, path)

	spsBytes, err := bitstream.EncodeSPS(bitstream.NewStereoSPS(4, 16, 16))
	require.NoError(t, err)
	auBytes, err := bitstream.EncodeAU(bitstream.NewStereoAU(4, 1, []byte("x"), nil, nil, nil))
	require.NoError(t, err)

	_, err = w.WriteUnit(spsBytes)
	require.NoError(t, err)
	_, err = w.WriteUnit(auBytes)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	result, err := Scan(path)
	require.NoError(t, err)
	assert.NoError(t, result.Err)
	assert.Equal(t, 2, result.Units)
	assert.Equal(t, []uint8{4}, result.SPSIDs)
}

func TestStreamWriter_ClosedWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	w := newTestWriter(t, path)
	require.NoError(t, w.Close())

	_, err := w.WriteSPS(bitstream.NewStereoSPS(1, 16, 16))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, w.Sync(), ErrClosed)
}

func TestStreamWriter_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	writeTestStream(t, path, 2)

	// The reopened writer knows SPS 1 from the existing file.
	w := newTestWriter(t, path)
	sizeBefore := w.Size()
	assert.Greater(t, sizeBefore, int64(0))
	assert.Equal(t, int64(0), w.Truncated())

	off, err := w.WriteAU(bitstream.NewStereoAU(1, 50, nil, nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, sizeBefore, off)
	require.NoError(t, w.Close())

	result, err := Scan(path)
	require.NoError(t, err)
	assert.NoError(t, result.Err)
	assert.Equal(t, 1, result.SPSCount)
	assert.Equal(t, 3, result.AUCount)
}

func TestStreamWriter_RecoversCorruptTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	writeTestStream(t, path, 3)

	before, err := Scan(path)
	require.NoError(t, err)

	// Append half a frame.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.Write([]byte{0xDE, 0xAD, 0xBE})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	w := newTestWriter(t, path)
	assert.Equal(t, int64(3), w.Truncated())
	assert.Equal(t, before.ValidSize, w.Size())
	require.NoError(t, w.Close())

	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ValidSize, stat.Size())
}

func TestStreamReader_CRCMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	writeTestStream(t, path, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0600))

	r, err := NewStreamReader(StreamReaderConfig{FilePath: path})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadNext()
	require.NoError(t, err)

	_, err = r.ReadNext()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruption)

	var fe *FrameError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, int64(frameHeaderSize+bitstream.SPSSize), fe.Offset)
}

func TestStreamReader_LengthBeyondFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	frame := encodeFrame([]byte("BSPS"))
	frame[4] = 0x7F // length far beyond the file
	require.NoError(t, os.WriteFile(path, frame, 0600))

	r, err := NewStreamReader(StreamReaderConfig{FilePath: path})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadNext()
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestStreamReader_MalformedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	// Valid frame around an SPS with trailing bytes.
	spsBytes, err := bitstream.EncodeSPS(bitstream.NewStereoSPS(1, 16, 16))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, encodeFrame(append(spsBytes, 0)), 0600))

	r, err := NewStreamReader(StreamReaderConfig{FilePath: path})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadNext()
	assert.ErrorIs(t, err, bitstream.ErrTrailingBytes)
	assert.ErrorIs(t, err, bitstream.ErrBitstream)
}

func TestStreamReader_UnknownSPS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	auBytes, err := bitstream.EncodeAU(bitstream.NewStereoAU(5, 1, nil, nil, nil, nil))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, encodeFrame(auBytes), 0600))

	r, err := NewStreamReader(StreamReaderConfig{FilePath: path})
	require.NoError(t, err)
	_, err = r.ReadNext()
	assert.ErrorIs(t, err, ErrUnknownSPS)
	require.NoError(t, r.Close())

	r, err = NewStreamReader(StreamReaderConfig{FilePath: path, SkipSPSCheck: true})
	require.NoError(t, err)
	defer r.Close()
	unit, err := r.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, uint8(5), unit.AU.SPSID)
}

func TestStreamReader_ReadAtAndSeek(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	w := newTestWriter(t, path)
	_, err := w.WriteSPS(bitstream.NewStereoSPS(1, 16, 16))
	require.NoError(t, err)
	off1, err := w.WriteAU(bitstream.NewStereoAU(1, 10, nil, nil, nil, nil))
	require.NoError(t, err)
	off2, err := w.WriteAU(bitstream.NewStereoAU(1, 20, nil, nil, nil, nil))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewStreamReader(StreamReaderConfig{FilePath: path, SkipSPSCheck: true})
	require.NoError(t, err)
	defer r.Close()

	unit, err := r.ReadAt(off2)
	require.NoError(t, err)
	assert.Equal(t, uint8(20), unit.AU.QP)
	assert.Equal(t, int64(0), r.Offset())

	require.NoError(t, r.SeekTo(off1))
	assert.Equal(t, off1, r.Offset())
	unit, err = r.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, uint8(10), unit.AU.QP)
	assert.Equal(t, off2, r.Offset())

	_, err = r.ReadAt(off1 + 1)
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestStreamReader_Iterator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	writeTestStream(t, path, 4)

	r, err := NewStreamReader(StreamReaderConfig{FilePath: path})
	require.NoError(t, err)
	defer r.Close()

	it := r.Iterator()
	defer it.Close()

	var kinds []UnitKind
	for it.Next() {
		kinds = append(kinds, it.Unit().Kind)
	}
	assert.NoError(t, it.Err())
	assert.Equal(t, []UnitKind{UnitSPS, UnitAU, UnitAU, UnitAU, UnitAU}, kinds)
	assert.False(t, it.Next())
}

func TestNewStreamReader_NonExistentFile(t *testing.T) {
	r, err := NewStreamReader(StreamReaderConfig{FilePath: "/non/existent/stream.bin"})
	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestScan_StopsAtCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")
	writeTestStream(t, path, 2)
	clean, err := Scan(path)
	require.NoError(t, err)
	require.NoError(t, clean.Err)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.Write(encodeFrame([]byte("NOPE")))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	result, err := Scan(path)
	require.NoError(t, err)
	assert.ErrorIs(t, result.Err, ErrUnknownUnit)
	assert.Equal(t, clean.ValidSize, result.ValidSize)
	assert.Equal(t, 3, result.Units)
}

func TestUnitKind_String(t *testing.T) {
	assert.Equal(t, "sps", UnitSPS.String())
	assert.Equal(t, "au", UnitAU.String())
	assert.Equal(t, "unknown", UnitKind(0).String())
}

func TestStreamWriter_FsyncInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bvs")
	w, err := NewStreamWriter(StreamWriterConfig{FilePath: path, FsyncInterval: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = w.WriteSPS(bitstream.NewStereoSPS(1, 640, 480))
	require.NoError(t, err)

	// Appends arrive faster than the interval; the writer must still sync.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, err := w.WriteAU(bitstream.NewStereoAU(1, 22, []byte("la"), nil, nil, nil))
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	w.mutex.Lock()
	syncs := w.syncs
	w.mutex.Unlock()
	assert.GreaterOrEqual(t, syncs, 2)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	result, err := Scan(path)
	require.NoError(t, err)
	assert.NoError(t, result.Err)
	assert.Equal(t, 1, result.SPSCount)
}

package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ssargent/bidcvc/pkg/bitstream"
)

const defaultBufferSize = 64 * 1024

// StreamWriter appends framed SPS and AU units to a stream file
type StreamWriter struct {
	file      *os.File
	writer    *bufio.Writer
	config    StreamWriterConfig
	logger    *slog.Logger
	mutex     sync.Mutex
	offset    int64 // Current write offset
	knownSPS  [256]bool
	truncated int64
	closed    bool
	dirty     bool // Appends not yet fsynced
	syncs     int

	stopFsync chan struct{}
	fsyncDone chan struct{}
}

// NewStreamWriter opens (or creates) the stream file for appending. An
// existing file is scanned first: SPS ids it declares become referencable,
// and a corrupt tail is truncated back to the last valid frame.
func NewStreamWriter(config StreamWriterConfig) (*StreamWriter, error) {
	if config.BufferSize <= 0 {
		config.BufferSize = defaultBufferSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}

	w := &StreamWriter{
		file:   file,
		config: config,
		logger: logger,
	}

	if err := w.recover(); err != nil {
		file.Close()
		return nil, err
	}

	// Seek to end for append behavior
	if _, err := file.Seek(w.offset, io.SeekStart); err != nil {
		file.Close()
		return nil, err
	}
	w.writer = bufio.NewWriterSize(file, config.BufferSize)

	// Fsync on a fixed period so a steady stream of appends still reaches disk
	if config.FsyncInterval > 0 {
		w.stopFsync = make(chan struct{})
		w.fsyncDone = make(chan struct{})
		go w.fsyncLoop(config.FsyncInterval)
	}

	return w, nil
}

func (w *StreamWriter) fsyncLoop(interval time.Duration) {
	defer close(w.fsyncDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopFsync:
			return
		case <-ticker.C:
			w.mutex.Lock()
			if !w.closed && w.dirty {
				if err := w.sync(); err != nil {
					w.logger.Warn("stream fsync failed", "path", w.config.FilePath, "error", err)
				}
			}
			w.mutex.Unlock()
		}
	}
}

// recover scans the existing file contents and truncates anything after the
// last valid frame.
func (w *StreamWriter) recover() error {
	stat, err := w.file.Stat()
	if err != nil {
		return err
	}
	if stat.Size() == 0 {
		return nil
	}

	result, err := Scan(w.config.FilePath)
	if err != nil {
		return err
	}
	for _, id := range result.SPSIDs {
		w.knownSPS[id] = true
	}
	w.offset = result.ValidSize

	if result.Err != nil {
		w.truncated = stat.Size() - result.ValidSize
		w.logger.Warn("truncating corrupt stream tail",
			"path", w.config.FilePath,
			"valid_bytes", result.ValidSize,
			"truncated_bytes", w.truncated,
			"error", result.Err,
		)
		if err := w.file.Truncate(result.ValidSize); err != nil {
			return fmt.Errorf("truncate corrupt tail: %w", err)
		}
	}
	return nil
}

// WriteSPS appends an SPS and returns the offset of its frame
func (w *StreamWriter) WriteSPS(sps bitstream.StereoSPS) (int64, error) {
	payload, err := bitstream.EncodeSPS(sps)
	if err != nil {
		return 0, err
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	offset, err := w.append(payload)
	if err != nil {
		return 0, err
	}
	w.knownSPS[sps.SPSID] = true
	return offset, nil
}

// WriteAU appends an AU and returns the offset of its frame. The AU's SPS
// must already be present in the stream.
func (w *StreamWriter) WriteAU(au bitstream.StereoAU) (int64, error) {
	payload, err := bitstream.EncodeAU(au)
	if err != nil {
		return 0, err
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.knownSPS[au.SPSID] {
		return 0, fmt.Errorf("sps_id %d: %w", au.SPSID, ErrUnknownSPS)
	}
	return w.append(payload)
}

// WriteUnit appends an already encoded SPS or AU after validating it.
func (w *StreamWriter) WriteUnit(payload []byte) (int64, error) {
	kind, sps, au, err := decodePayload(payload)
	if err != nil {
		return 0, err
	}
	switch kind {
	case UnitSPS:
		return w.WriteSPS(*sps)
	default:
		return w.WriteAU(*au)
	}
}

func (w *StreamWriter) append(payload []byte) (int64, error) {
	if w.closed {
		return 0, ErrClosed
	}

	n, err := w.writer.Write(encodeFrame(payload))
	if err != nil {
		return 0, err
	}

	recordOffset := w.offset
	w.offset += int64(n)
	w.dirty = true

	// Sync immediately if no fsync interval configured
	if w.config.FsyncInterval == 0 {
		if err := w.sync(); err != nil {
			return 0, err
		}
	}

	return recordOffset, nil
}

// Sync forces a fsync to disk
func (w *StreamWriter) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.sync()
}

func (w *StreamWriter) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	w.dirty = false
	w.syncs++
	return nil
}

// Close flushes, syncs and closes the stream file
func (w *StreamWriter) Close() error {
	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return nil
	}
	w.closed = true
	w.mutex.Unlock()

	if w.stopFsync != nil {
		close(w.stopFsync)
		<-w.fsyncDone
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	syncErr := w.sync()
	closeErr := w.file.Close()
	return errors.Join(syncErr, closeErr)
}

// Size returns the current size of the stream file
func (w *StreamWriter) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Truncated returns how many corrupt tail bytes were dropped when the
// writer was opened.
func (w *StreamWriter) Truncated() int64 {
	return w.truncated
}

// Path returns the file path
func (w *StreamWriter) Path() string {
	return w.config.FilePath
}

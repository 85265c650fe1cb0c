// Package archive persists encoded SPS and AU records in an embedded pebble
// database. AUs are keyed by KSUID so listing returns them in roughly
// creation order; SPS records are keyed by their sps_id.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/bidcvc/pkg/bitstream"
)

var ErrNotFound = errors.New("archive: not found")

var (
	prefixSPS = []byte("sps/")
	prefixAU  = []byte("au/")
)

// Options configures an Archive.
type Options struct {
	// Sync makes every write durable before returning.
	Sync   bool
	Logger *slog.Logger
}

// Archive stores validated bitstream records.
type Archive struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
	logger    *slog.Logger
}

// Open opens (or creates) an archive in dir.
func Open(dir string, opts Options) (*Archive, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", dir, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	writeOpts := pebble.NoSync
	if opts.Sync {
		writeOpts = pebble.Sync
	}
	return &Archive{db: db, writeOpts: writeOpts, logger: logger}, nil
}

// PutSPS stores sps under its id, replacing any earlier SPS with that id.
func (a *Archive) PutSPS(sps bitstream.StereoSPS) error {
	data, err := bitstream.EncodeSPS(sps)
	if err != nil {
		return err
	}
	return a.db.Set(spsKey(sps.SPSID), data, a.writeOpts)
}

// GetSPS returns the SPS stored under id.
func (a *Archive) GetSPS(id uint8) (bitstream.StereoSPS, error) {
	data, err := a.get(spsKey(id))
	if err != nil {
		return bitstream.StereoSPS{}, err
	}
	sps, err := bitstream.DecodeSPS(data)
	if err != nil {
		a.logger.Warn("archived SPS failed validation", "sps_id", id, "error", err)
		return bitstream.StereoSPS{}, err
	}
	return sps, nil
}

// PutAU encodes au and stores it under a new KSUID.
func (a *Archive) PutAU(au bitstream.StereoAU) (ksuid.KSUID, error) {
	data, err := bitstream.EncodeAU(au)
	if err != nil {
		return ksuid.Nil, err
	}
	return a.putAU(data)
}

// PutEncodedAU validates data as an AU and stores it verbatim.
func (a *Archive) PutEncodedAU(data []byte) (ksuid.KSUID, error) {
	if _, err := bitstream.DecodeAU(data); err != nil {
		return ksuid.Nil, err
	}
	return a.putAU(data)
}

func (a *Archive) putAU(data []byte) (ksuid.KSUID, error) {
	id := ksuid.New()
	if err := a.db.Set(auKey(id), data, a.writeOpts); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// GetAU returns the decoded AU stored under id.
func (a *Archive) GetAU(id ksuid.KSUID) (bitstream.StereoAU, error) {
	data, err := a.GetEncodedAU(id)
	if err != nil {
		return bitstream.StereoAU{}, err
	}
	return bitstream.DecodeAU(data)
}

// GetEncodedAU returns the stored AU bytes after checking they still decode.
func (a *Archive) GetEncodedAU(id ksuid.KSUID) ([]byte, error) {
	data, err := a.get(auKey(id))
	if err != nil {
		return nil, err
	}
	if _, err := bitstream.DecodeAU(data); err != nil {
		a.logger.Warn("archived AU failed validation", "id", id.String(), "error", err)
		return nil, err
	}
	return data, nil
}

// DeleteAU removes the AU stored under id.
func (a *Archive) DeleteAU(id ksuid.KSUID) error {
	if _, err := a.get(auKey(id)); err != nil {
		return err
	}
	return a.db.Delete(auKey(id), a.writeOpts)
}

// ListAUs returns every AU id in key order.
func (a *Archive) ListAUs() ([]ksuid.KSUID, error) {
	var ids []ksuid.KSUID
	err := a.scan(prefixAU, func(key []byte) error {
		id, err := ksuid.FromBytes(key[len(prefixAU):])
		if err != nil {
			return fmt.Errorf("bad AU key %x: %w", key, err)
		}
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

// ListSPS returns the ids of every stored SPS in ascending order.
func (a *Archive) ListSPS() ([]uint8, error) {
	var ids []uint8
	err := a.scan(prefixSPS, func(key []byte) error {
		if len(key) != len(prefixSPS)+1 {
			return fmt.Errorf("bad SPS key %x", key)
		}
		ids = append(ids, key[len(prefixSPS)])
		return nil
	})
	return ids, err
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) get(key []byte) ([]byte, error) {
	data, closer, err := a.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	// The value is only valid until closer is closed.
	return bytes.Clone(data), nil
}

func (a *Archive) scan(prefix []byte, fn func(key []byte) error) error {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return err
	}

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key()); err != nil {
			iter.Close()
			return err
		}
	}
	return errors.Join(iter.Error(), iter.Close())
}

func spsKey(id uint8) []byte {
	return append(append([]byte{}, prefixSPS...), id)
}

func auKey(id ksuid.KSUID) []byte {
	return append(append([]byte{}, prefixAU...), id.Bytes()...)
}

// prefixEnd returns the smallest key greater than every key with prefix.
func prefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

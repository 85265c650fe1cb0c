package store

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/ssargent/bidcvc/pkg/bitstream"
)

// Frame layout: [CRC32(4)][Length(4)][Payload], big-endian. The CRC covers
// the length field and the payload.
const frameHeaderSize = 8

func encodeFrame(payload []byte) []byte {
	buf := make([]byte, frameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[frameHeaderSize:], payload)
	binary.BigEndian.PutUint32(buf[0:4], crc32.ChecksumIEEE(buf[4:]))
	return buf
}

// frameHeader splits a frame header into its checksum and payload length.
func frameHeader(header []byte) (crc uint32, length uint32) {
	return binary.BigEndian.Uint32(header[0:4]), binary.BigEndian.Uint32(header[4:8])
}

func frameChecksum(header, payload []byte) uint32 {
	crc := crc32.NewIEEE()
	crc.Write(header[4:8])
	crc.Write(payload)
	return crc.Sum32()
}

// decodePayload recognises the record by its magic and decodes it.
func decodePayload(payload []byte) (UnitKind, *bitstream.StereoSPS, *bitstream.StereoAU, error) {
	switch {
	case bytes.HasPrefix(payload, bitstream.MagicSPS[:]):
		sps, err := bitstream.DecodeSPS(payload)
		if err != nil {
			return 0, nil, nil, err
		}
		return UnitSPS, &sps, nil, nil
	case bytes.HasPrefix(payload, bitstream.MagicAU[:]):
		au, err := bitstream.DecodeAU(payload)
		if err != nil {
			return 0, nil, nil, err
		}
		return UnitAU, nil, &au, nil
	default:
		return 0, nil, nil, ErrUnknownUnit
	}
}

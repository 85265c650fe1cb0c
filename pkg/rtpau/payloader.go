// Package rtpau carries encoded stereo access units over RTP.
//
// Each RTP payload starts with a one byte header followed by a fragment of
// the encoded AU:
//
//	+-+-+-+-+-+-+-+-+
//	|S|E|  reserved |
//	+-+-+-+-+-+-+-+-+
//
// S marks the first fragment of an AU and E the last. An AU that fits in a
// single packet carries both. Reserved bits are zero. All fragments of one
// AU share an RTP timestamp and the marker bit is set on the E fragment.
package rtpau

import "errors"

// HeaderSize is the size of the payload header that precedes each fragment.
const HeaderSize = 1

const (
	flagStart    = 0x80
	flagEnd      = 0x40
	reservedMask = 0x3F
)

var (
	ErrPacketLoss       = errors.New("rtpau: packet loss")
	ErrMalformedPayload = errors.New("rtpau: malformed payload")
	ErrInvalidMTU       = errors.New("rtpau: invalid MTU")
)

// Payloader fragments encoded AUs. It implements rtp.Payloader.
type Payloader struct{}

// Payload splits payload into fragments of at most mtu bytes, header included.
func (Payloader) Payload(mtu uint16, payload []byte) [][]byte {
	if int(mtu) <= HeaderSize || len(payload) == 0 {
		return nil
	}

	chunk := int(mtu) - HeaderSize
	out := make([][]byte, 0, (len(payload)+chunk-1)/chunk)
	for off := 0; off < len(payload); off += chunk {
		end := min(off+chunk, len(payload))

		frag := make([]byte, HeaderSize+end-off)
		if off == 0 {
			frag[0] |= flagStart
		}
		if end == len(payload) {
			frag[0] |= flagEnd
		}
		copy(frag[HeaderSize:], payload[off:end])
		out = append(out, frag)
	}
	return out
}

package rtpau

import (
	"fmt"

	"github.com/pion/rtp"

	"github.com/ssargent/bidcvc/pkg/bitstream"
)

// Assembler rebuilds AUs from the packets of a single RTP stream. It is not
// safe for concurrent use.
type Assembler struct {
	buf       []byte
	active    bool
	timestamp uint32
	lastSeq   uint16
	haveSeq   bool
	lost      int
}

// NewAssembler returns an idle Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Push adds pkt to the AU being assembled. It returns the decoded AU when pkt
// carries the last fragment and nil, nil while the AU is incomplete.
//
// Push returns ErrPacketLoss for a sequence gap (inside an AU or between
// AUs), a timestamp change inside an AU, a start fragment inside an AU, or a
// fragment with no preceding start. A partial AU is discarded and counted by
// Lost. A start fragment is still accepted after a loss, so the caller keeps
// pushing; a single-packet AU following a gap is returned together with the
// error.
func (a *Assembler) Push(pkt *rtp.Packet) (*bitstream.StereoAU, error) {
	if pkt == nil || len(pkt.Payload) < HeaderSize {
		return nil, fmt.Errorf("%w: missing payload header", ErrMalformedPayload)
	}
	hdr := pkt.Payload[0]
	if hdr&reservedMask != 0 {
		return nil, fmt.Errorf("%w: reserved bits set in header 0x%02x", ErrMalformedPayload, hdr)
	}
	start := hdr&flagStart != 0

	expected := a.lastSeq + 1
	gap := a.haveSeq && pkt.SequenceNumber != expected
	a.lastSeq, a.haveSeq = pkt.SequenceNumber, true

	var loss error
	if a.active {
		switch {
		case gap:
			loss = fmt.Errorf("%w: expected seq %d, got %d", ErrPacketLoss, expected, pkt.SequenceNumber)
		case pkt.Timestamp != a.timestamp:
			loss = fmt.Errorf("%w: timestamp changed from %d to %d mid-AU", ErrPacketLoss, a.timestamp, pkt.Timestamp)
		case start:
			loss = fmt.Errorf("%w: start fragment at seq %d inside AU", ErrPacketLoss, pkt.SequenceNumber)
		}
		if loss != nil {
			a.drop()
		}
	} else if gap {
		a.lost++
		loss = fmt.Errorf("%w: expected seq %d, got %d between AUs", ErrPacketLoss, expected, pkt.SequenceNumber)
	}

	switch {
	case start:
		a.active = true
		a.timestamp = pkt.Timestamp
		a.buf = a.buf[:0]
	case !a.active:
		if loss == nil {
			loss = fmt.Errorf("%w: fragment at seq %d without start", ErrPacketLoss, pkt.SequenceNumber)
		}
		return nil, loss
	}
	a.buf = append(a.buf, pkt.Payload[HeaderSize:]...)

	if hdr&flagEnd == 0 {
		return nil, loss
	}

	a.active = false
	au, err := bitstream.DecodeAU(a.buf)
	a.buf = a.buf[:0]
	if err != nil {
		return nil, err
	}
	return &au, loss
}

// Lost returns how many AUs were discarded or skipped because of packet loss.
func (a *Assembler) Lost() int {
	return a.lost
}

// Reset discards any partial AU and the sequence state without counting a
// loss. Use it when the stream restarts.
func (a *Assembler) Reset() {
	a.active = false
	a.haveSeq = false
	a.buf = a.buf[:0]
}

func (a *Assembler) drop() {
	a.lost++
	a.active = false
	a.buf = a.buf[:0]
}

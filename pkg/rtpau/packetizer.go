package rtpau

import (
	"fmt"
	"sync"

	"github.com/pion/rtp"

	"github.com/ssargent/bidcvc/pkg/bitstream"
)

// rtpHeaderSize is the fixed RTP header pion reserves out of the MTU.
const rtpHeaderSize = 12

const (
	DefaultMTU         = 1200
	DefaultPayloadType = 96
	DefaultClockRate   = 90000
)

// PacketizerConfig configures a Packetizer. A zero MTU or ClockRate takes the
// default. PayloadType is sent as given, so 0 is a valid choice; start from
// DefaultPacketizerConfig to get the dynamic default.
type PacketizerConfig struct {
	MTU         uint16
	PayloadType uint8
	SSRC        uint32
	ClockRate   uint32
	// Sequencer defaults to a random starting sequence number.
	Sequencer rtp.Sequencer
}

// DefaultPacketizerConfig returns a config with the default MTU, payload type
// and clock rate.
func DefaultPacketizerConfig() PacketizerConfig {
	return PacketizerConfig{
		MTU:         DefaultMTU,
		PayloadType: DefaultPayloadType,
		ClockRate:   DefaultClockRate,
	}
}

// Packetizer turns AUs into RTP packets. It is safe for concurrent use.
type Packetizer struct {
	mu         sync.Mutex
	packetizer rtp.Packetizer
	config     PacketizerConfig
}

// NewPacketizer returns a Packetizer for one RTP stream.
func NewPacketizer(config PacketizerConfig) (*Packetizer, error) {
	if config.MTU == 0 {
		config.MTU = DefaultMTU
	}
	if config.ClockRate == 0 {
		config.ClockRate = DefaultClockRate
	}
	if config.Sequencer == nil {
		config.Sequencer = rtp.NewRandomSequencer()
	}
	if int(config.MTU) <= rtpHeaderSize+HeaderSize {
		return nil, fmt.Errorf("%w: %d must exceed %d", ErrInvalidMTU, config.MTU, rtpHeaderSize+HeaderSize)
	}
	if config.PayloadType > 127 {
		return nil, fmt.Errorf("rtpau: payload type %d out of range", config.PayloadType)
	}

	return &Packetizer{
		packetizer: rtp.NewPacketizer(
			config.MTU,
			config.PayloadType,
			config.SSRC,
			Payloader{},
			config.Sequencer,
			config.ClockRate,
		),
		config: config,
	}, nil
}

// Packetize encodes au and fragments it. samples advances the RTP timestamp
// for the next AU.
func (p *Packetizer) Packetize(au bitstream.StereoAU, samples uint32) ([]*rtp.Packet, error) {
	data, err := bitstream.EncodeAU(au)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.packetizer.Packetize(data, samples), nil
}

// Config returns the effective configuration.
func (p *Packetizer) Config() PacketizerConfig {
	return p.config
}

package bitstream

import "bytes"

// Segment names in wire order.
const (
	SegmentLA = "L.A"
	SegmentRA = "R.A"
	SegmentLB = "L.B"
	SegmentRB = "R.B"
)

// StereoAU is one access unit: Stage A (latent + first-pass reconstruction)
// and Stage B (second-pass refinement) payloads for the left and right views.
// Segments are opaque to this package.
type StereoAU struct {
	SPSID   uint8
	QP      uint8
	LA      []byte
	RA      []byte
	LB      []byte
	RB      []byte
	Version uint8
	NALType uint8
}

// Segment pairs a wire name with its payload.
type Segment struct {
	Name string
	Data []byte
}

// NewStereoAU returns an AU at the current AUVersion with the stereo NAL type.
func NewStereoAU(spsID, qp uint8, la, ra, lb, rb []byte) StereoAU {
	return StereoAU{
		SPSID:   spsID,
		QP:      qp,
		LA:      la,
		RA:      ra,
		LB:      lb,
		RB:      rb,
		Version: AUVersion,
		NALType: NALTypeStereoAU,
	}
}

// Segments returns the four payloads in wire order.
func (au StereoAU) Segments() [4]Segment {
	return [4]Segment{
		{SegmentLA, au.LA},
		{SegmentRA, au.RA},
		{SegmentLB, au.LB},
		{SegmentRB, au.RB},
	}
}

// Equal reports whether two AUs carry the same header fields and segment
// bytes. Nil and empty segments are equal.
func (au StereoAU) Equal(other StereoAU) bool {
	return au.SPSID == other.SPSID &&
		au.QP == other.QP &&
		au.Version == other.Version &&
		au.NALType == other.NALType &&
		bytes.Equal(au.LA, other.LA) &&
		bytes.Equal(au.RA, other.RA) &&
		bytes.Equal(au.LB, other.LB) &&
		bytes.Equal(au.RB, other.RB)
}

// EncodedSize returns the number of bytes EncodeAU produces for au.
func EncodedSize(au StereoAU) int {
	n := AUHeaderSize
	for _, seg := range au.Segments() {
		n += 4 + len(seg.Data)
	}
	return n
}

// Validate reports the first header field that EncodeAU would reject.
func (au StereoAU) Validate() error {
	if au.Version != AUVersion {
		return newError(ErrVersion, "version", "unsupported AU version: %d", au.Version)
	}
	if au.NALType != NALTypeStereoAU {
		return newError(ErrUnsupportedNALType, "nal_type", "unsupported nal_type for StereoAU: %d", au.NALType)
	}
	return nil
}

// EncodeAU serializes au. Wire format (v1):
//
//	magic[4] version[u8] nal_type[u8] sps_id[u8] qp[u8]
//	len(L.A)[u32] L.A  len(R.A)[u32] R.A  len(L.B)[u32] L.B  len(R.B)[u32] R.B
func EncodeAU(au StereoAU) ([]byte, error) {
	if err := au.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, EncodedSize(au))
	buf = append(buf, MagicAU[:]...)

	var err error
	header := []struct {
		name string
		v    uint8
	}{
		{"version", au.Version},
		{"nal_type", au.NALType},
		{"sps_id", au.SPSID},
		{"qp", au.QP},
	}
	for _, f := range header {
		if buf, err = appendPacked(buf, PackU8, int(f.v), f.name); err != nil {
			return nil, err
		}
	}

	for _, seg := range au.Segments() {
		if buf, err = appendPacked(buf, PackU32, len(seg.Data), seg.Name); err != nil {
			return nil, err
		}
		buf = append(buf, seg.Data...)
	}
	return buf, nil
}

// DecodeAU parses a complete AU record. Segment payloads are copied out of
// data, so the returned AU does not alias the input.
func DecodeAU(data []byte) (StereoAU, error) {
	r := NewReader(data)

	magic, err := r.ReadExact(len(MagicAU))
	if err != nil {
		return StereoAU{}, withField(err, "magic")
	}
	if !bytes.Equal(magic, MagicAU[:]) {
		return StereoAU{}, newError(ErrMagic, "magic", "bad AU magic: %q", magic)
	}

	var au StereoAU
	if au.Version, err = r.ReadU8(); err != nil {
		return StereoAU{}, withField(err, "version")
	}
	if au.Version != AUVersion {
		return StereoAU{}, newError(ErrVersion, "version", "unsupported AU version: %d", au.Version)
	}
	if au.NALType, err = r.ReadU8(); err != nil {
		return StereoAU{}, withField(err, "nal_type")
	}
	if au.NALType != NALTypeStereoAU {
		return StereoAU{}, newError(ErrUnsupportedNALType, "nal_type", "unexpected nal_type for StereoAU: %d", au.NALType)
	}
	if au.SPSID, err = r.ReadU8(); err != nil {
		return StereoAU{}, withField(err, "sps_id")
	}
	if au.QP, err = r.ReadU8(); err != nil {
		return StereoAU{}, withField(err, "qp")
	}

	segs := [4]*[]byte{&au.LA, &au.RA, &au.LB, &au.RB}
	names := [4]string{SegmentLA, SegmentRA, SegmentLB, SegmentRB}
	for i, dst := range segs {
		segLen, err := r.ReadU32()
		if err != nil {
			return StereoAU{}, withField(err, names[i])
		}
		// Checked here rather than left to ReadExact so the error names
		// the segment that under-ran.
		if uint64(segLen) > uint64(r.Remaining()) {
			return StereoAU{}, newError(ErrTruncated, names[i],
				"truncated AU while reading %s: need %d bytes, have %d", names[i], segLen, r.Remaining())
		}
		seg, err := r.ReadExact(int(segLen))
		if err != nil {
			return StereoAU{}, withField(err, names[i])
		}
		*dst = bytes.Clone(seg)
	}

	if r.Remaining() != 0 {
		return StereoAU{}, newError(ErrTrailingBytes, "", "trailing bytes after AU: %d", r.Remaining())
	}
	return au, nil
}

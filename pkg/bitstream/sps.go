package bitstream

import "bytes"

// StereoSPS is the sequence parameter set shared by every access unit that
// references its SPSID.
type StereoSPS struct {
	SPSID   uint8
	Width   uint16
	Height  uint16
	Version uint8
}

// NewStereoSPS returns an SPS at the current SPSVersion.
func NewStereoSPS(id uint8, width, height uint16) StereoSPS {
	return StereoSPS{SPSID: id, Width: width, Height: height, Version: SPSVersion}
}

// Validate reports the first field that EncodeSPS would reject.
func (s StereoSPS) Validate() error {
	if s.Version != SPSVersion {
		return newError(ErrVersion, "version", "unsupported SPS version: %d", s.Version)
	}
	if s.Width < 1 {
		return newError(ErrRange, "width", "out of range: %d", s.Width)
	}
	if s.Height < 1 {
		return newError(ErrRange, "height", "out of range: %d", s.Height)
	}
	return nil
}

// EncodeSPS serializes sps into its fixed 10-byte form.
func EncodeSPS(sps StereoSPS) ([]byte, error) {
	if err := sps.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, SPSSize)
	buf = append(buf, MagicSPS[:]...)

	var err error
	fields := []struct {
		name string
		pack func(int) ([]byte, error)
		v    int
	}{
		{"version", PackU8, int(sps.Version)},
		{"sps_id", PackU8, int(sps.SPSID)},
		{"width", PackU16, int(sps.Width)},
		{"height", PackU16, int(sps.Height)},
	}
	for _, f := range fields {
		if buf, err = appendPacked(buf, f.pack, f.v, f.name); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// DecodeSPS parses a complete SPS record. The input must contain exactly one
// record; extra bytes are rejected.
func DecodeSPS(data []byte) (StereoSPS, error) {
	r := NewReader(data)

	magic, err := r.ReadExact(len(MagicSPS))
	if err != nil {
		return StereoSPS{}, withField(err, "magic")
	}
	if !bytes.Equal(magic, MagicSPS[:]) {
		return StereoSPS{}, newError(ErrMagic, "magic", "bad SPS magic: %q", magic)
	}

	version, err := r.ReadU8()
	if err != nil {
		return StereoSPS{}, withField(err, "version")
	}
	if version != SPSVersion {
		return StereoSPS{}, newError(ErrVersion, "version", "unsupported SPS version: %d", version)
	}

	var sps StereoSPS
	sps.Version = version
	if sps.SPSID, err = r.ReadU8(); err != nil {
		return StereoSPS{}, withField(err, "sps_id")
	}
	if sps.Width, err = r.ReadU16(); err != nil {
		return StereoSPS{}, withField(err, "width")
	}
	if sps.Height, err = r.ReadU16(); err != nil {
		return StereoSPS{}, withField(err, "height")
	}

	if r.Remaining() != 0 {
		return StereoSPS{}, newError(ErrTrailingBytes, "", "trailing bytes after SPS: %d", r.Remaining())
	}
	return sps, nil
}

func appendPacked(buf []byte, pack func(int) ([]byte, error), v int, field string) ([]byte, error) {
	b, err := pack(v)
	if err != nil {
		return nil, withField(err, field)
	}
	return append(buf, b...), nil
}

// withField tags an *Error produced by a primitive with the wire field it
// was reading or writing.
func withField(err error, field string) error {
	if e, ok := err.(*Error); ok {
		e.Field = field
	}
	return err
}

package codec

// StereoFrame holds one raw frame per view. The pixel layout is not fixed
// yet; planes are carried as opaque bytes.
type StereoFrame struct {
	Left  []byte
	Right []byte
}

// EncodedStereoAU is an encoded access unit plus the metadata a transport
// or container needs without parsing it.
type EncodedStereoAU struct {
	SPSID   uint8
	QP      uint8
	AUBytes []byte
	PTS     *int64
}

// EncodeOptions controls a single stereo frame encode.
type EncodeOptions struct {
	SPSID uint8
	QP    uint8
}

// EvalConfig points an evaluation run at its config and output locations.
type EvalConfig struct {
	ConfigPath string
	OutputDir  string
}

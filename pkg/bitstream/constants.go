package bitstream

// Record magics.
var (
	MagicSPS = [4]byte{'B', 'S', 'P', 'S'}
	MagicAU  = [4]byte{'B', 'A', 'U', '0'}
)

const (
	SPSVersion uint8 = 1
	AUVersion  uint8 = 1

	// NALTypeStereoAU is the only NAL type the stereo AU decoder accepts.
	NALTypeStereoAU uint8 = 1
)

const (
	U8Max  = 0xFF
	U16Max = 0xFFFF
	U32Max = 0xFFFFFFFF
)

// SPSSize is the encoded size of a StereoSPS: magic + version + sps_id + width + height.
const SPSSize = 4 + 1 + 1 + 2 + 2

// AUHeaderSize covers magic, version, nal_type, sps_id and qp.
const AUHeaderSize = 4 + 1 + 1 + 1 + 1

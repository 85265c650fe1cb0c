package codec

import (
	"context"

	"github.com/ssargent/bidcvc/pkg/bitstream"
)

// SPSSerialize encodes a StereoSPS.
func SPSSerialize(sps bitstream.StereoSPS) ([]byte, error) {
	return bitstream.EncodeSPS(sps)
}

// SPSParse decodes a StereoSPS.
func SPSParse(data []byte) (bitstream.StereoSPS, error) {
	return bitstream.DecodeSPS(data)
}

// AUSerialize encodes a StereoAU.
func AUSerialize(au bitstream.StereoAU) ([]byte, error) {
	return bitstream.EncodeAU(au)
}

// AUParse decodes a StereoAU.
func AUParse(data []byte) (bitstream.StereoAU, error) {
	return bitstream.DecodeAU(data)
}

// Wrap serializes au and attaches its header metadata and an optional
// presentation timestamp.
func Wrap(au bitstream.StereoAU, pts *int64) (EncodedStereoAU, error) {
	b, err := bitstream.EncodeAU(au)
	if err != nil {
		return EncodedStereoAU{}, err
	}
	return EncodedStereoAU{SPSID: au.SPSID, QP: au.QP, AUBytes: b, PTS: pts}, nil
}

// Parse decodes the carried bytes and checks them against the metadata.
func (e EncodedStereoAU) Parse() (bitstream.StereoAU, error) {
	au, err := bitstream.DecodeAU(e.AUBytes)
	if err != nil {
		return bitstream.StereoAU{}, err
	}
	if au.SPSID != e.SPSID {
		return bitstream.StereoAU{}, &MismatchError{Field: "sps_id", Want: int(e.SPSID), Got: int(au.SPSID)}
	}
	if au.QP != e.QP {
		return bitstream.StereoAU{}, &MismatchError{Field: "qp", Want: int(e.QP), Got: int(au.QP)}
	}
	return au, nil
}

// EncodeStereoFrame encodes one stereo frame into StereoAU bytes.
//
// TODO: wire the BiDCVC-RT model. The bitstream layer is ready; neural
// encoding is not.
func EncodeStereoFrame(ctx context.Context, frame StereoFrame, opts EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, notImplemented("BiDCVC-RT model encode")
}

// DecodeStereoAU reconstructs the stereo frame carried by au.
//
// TODO: wire the BiDCVC-RT model decoder.
func DecodeStereoAU(ctx context.Context, au bitstream.StereoAU) (StereoFrame, error) {
	if err := ctx.Err(); err != nil {
		return StereoFrame{}, err
	}
	return StereoFrame{}, notImplemented("BiDCVC-RT model decode")
}

// Baseline is a reference codec used for simulcast comparisons.
type Baseline interface {
	EncodeView(ctx context.Context, view []byte, qp uint8) ([]byte, error)
}

// DCVCBaseline returns the vanilla DCVC-RT baseline codec.
func DCVCBaseline() (Baseline, error) {
	return nil, notImplemented("DCVC-RT baseline integration")
}

// ListAblations returns the ablation switches experiments may toggle.
func ListAblations() []string {
	return []string{}
}

// RunRDEval runs a rate-distortion evaluation.
func RunRDEval(ctx context.Context, cfg EvalConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return notImplemented("RD evaluation")
}

// RunLatencyEval runs a latency evaluation.
func RunLatencyEval(ctx context.Context, cfg EvalConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return notImplemented("latency evaluation")
}

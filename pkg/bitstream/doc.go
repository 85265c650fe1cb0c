// Package bitstream implements the versioned wire format for BiDCVC-RT stereo
// streams: the Sequence Parameter Set (SPS) and the stereo Access Unit (AU).
//
// The bitstream is a first-class contract. Both records are exact-length:
// a decoder consumes every field and rejects any bytes left over, so a v1
// reader never silently skips data it does not understand.
//
// # SPS Format
//
// A StereoSPS is always 10 bytes, big-endian:
//
//	[Magic "BSPS"(4)][Version(1)][SPSID(1)][Width(2)][Height(2)]
//
// Width and Height must be in 1..65535. Version must equal SPSVersion.
//
// # AU Format
//
// A StereoAU carries four length-prefixed, opaque segments:
//
//	[Magic "BAU0"(4)][Version(1)][NALType(1)][SPSID(1)][QP(1)]
//	[Len(L.A)(4)][L.A][Len(R.A)(4)][R.A][Len(L.B)(4)][L.B][Len(R.B)(4)][R.B]
//
// L.A and R.A are the Stage A payloads (latent and first-pass reconstruction)
// for the left and right views. L.B and R.B are the Stage B second-pass
// refinements. Any segment may be empty.
//
// # Usage
//
//	sps := bitstream.NewStereoSPS(0, 1920, 1080)
//	spsBytes, err := bitstream.EncodeSPS(sps)
//	if err != nil {
//	    return err
//	}
//
//	au := bitstream.NewStereoAU(0, 22, la, ra, lb, rb)
//	auBytes, err := bitstream.EncodeAU(au)
//	if err != nil {
//	    return err
//	}
//
//	decoded, err := bitstream.DecodeAU(auBytes)
//	if errors.Is(err, bitstream.ErrBitstream) {
//	    // malformed input
//	}
//
// # Error Handling
//
// Every failure is an *Error. It matches ErrBitstream and one kind sentinel
// (ErrTruncated, ErrMagic, ErrVersion, ...) under errors.Is, and its Field
// names the wire field involved. For truncated AU segments the field is the
// segment name, e.g. "R.A". Failures are permanent; there are no partial
// results.
//
// # Thread Safety
//
// All functions are pure. A Reader is not safe for concurrent use, but each
// decode call owns its own Reader.
package bitstream

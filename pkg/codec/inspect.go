package codec

import (
	"fmt"
	"strings"

	"github.com/ssargent/bidcvc/pkg/bitstream"
)

// SegmentSize is one line of an inspection report.
type SegmentSize struct {
	Name  string `json:"name"`
	Bytes int    `json:"bytes"`
}

// Inspection summarizes an AU header and its segment sizes.
type Inspection struct {
	SPSID    uint8         `json:"sps_id"`
	QP       uint8         `json:"qp"`
	Version  uint8         `json:"version"`
	NALType  uint8         `json:"nal_type"`
	Segments []SegmentSize `json:"segments"`
	Total    int           `json:"total_bytes"`
}

// Inspect builds the inspection report for au.
func Inspect(au bitstream.StereoAU) Inspection {
	in := Inspection{
		SPSID:   au.SPSID,
		QP:      au.QP,
		Version: au.Version,
		NALType: au.NALType,
		Total:   bitstream.EncodedSize(au),
	}
	for _, seg := range au.Segments() {
		in.Segments = append(in.Segments, SegmentSize{Name: seg.Name, Bytes: len(seg.Data)})
	}
	return in
}

// String renders the report the way the decode CLI prints it.
func (in Inspection) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "sps_id=%d qp=%d version=%d nal_type=%d\n", in.SPSID, in.QP, in.Version, in.NALType)
	for _, seg := range in.Segments {
		fmt.Fprintf(&sb, "%s=%d bytes\n", seg.Name, seg.Bytes)
	}
	return sb.String()
}

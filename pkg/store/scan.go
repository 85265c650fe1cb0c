package store

import (
	"errors"
	"io"
)

// ScanResult summarizes a stream file.
type ScanResult struct {
	Units     int
	SPSCount  int
	AUCount   int
	SPSIDs    []uint8
	ValidSize int64 // Bytes up to the end of the last valid frame
	Err       error // First error that stopped the scan; nil at a clean end
}

// Scan reads every unit in the file at path and reports where the valid
// prefix ends. Only failures to open the file are returned as err; decoding
// problems are recorded in ScanResult.Err.
func Scan(path string) (ScanResult, error) {
	r, err := NewStreamReader(StreamReaderConfig{FilePath: path})
	if err != nil {
		return ScanResult{}, err
	}
	defer r.Close()

	var (
		result ScanResult
		seen   [256]bool
	)
	for {
		unit, err := r.ReadNext()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				result.Err = err
			}
			return result, nil
		}

		result.Units++
		result.ValidSize = unit.Offset + unit.Size
		switch unit.Kind {
		case UnitSPS:
			result.SPSCount++
			if !seen[unit.SPS.SPSID] {
				seen[unit.SPS.SPSID] = true
				result.SPSIDs = append(result.SPSIDs, unit.SPS.SPSID)
			}
		case UnitAU:
			result.AUCount++
		}
	}
}

package api

import (
	"github.com/segmentio/ksuid"

	"github.com/ssargent/bidcvc/pkg/bitstream"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SPSRequest is the JSON body accepted by POST /api/v1/sps
type SPSRequest struct {
	SPSID  int `json:"sps_id"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SPSResponse describes a decoded SPS
type SPSResponse struct {
	SPSID   uint8  `json:"sps_id"`
	Width   uint16 `json:"width"`
	Height  uint16 `json:"height"`
	Version uint8  `json:"version"`
}

// AUCreatedResponse is returned after an AU is archived
type AUCreatedResponse struct {
	ID    string `json:"id"`
	Bytes int    `json:"bytes"`
}

// AUListResponse lists archived AU ids
type AUListResponse struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port   int
	Bind   string
	APIKey string // empty disables authentication
	// MaxBodyBytes caps request bodies; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// DefaultMaxBodyBytes is the request body limit when none is configured.
const DefaultMaxBodyBytes = 64 << 20

// AUArchive is the storage the server needs. *archive.Archive satisfies it.
type AUArchive interface {
	PutEncodedAU(data []byte) (ksuid.KSUID, error)
	GetEncodedAU(id ksuid.KSUID) ([]byte, error)
	DeleteAU(id ksuid.KSUID) error
	ListAUs() ([]ksuid.KSUID, error)
	PutSPS(sps bitstream.StereoSPS) error
	GetSPS(id uint8) (bitstream.StereoSPS, error)
}

func newSPSResponse(sps bitstream.StereoSPS) SPSResponse {
	return SPSResponse{SPSID: sps.SPSID, Width: sps.Width, Height: sps.Height, Version: sps.Version}
}

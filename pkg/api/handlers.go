package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/bidcvc/pkg/archive"
	"github.com/ssargent/bidcvc/pkg/bitstream"
	"github.com/ssargent/bidcvc/pkg/codec"
)

const (
	ContentTypeJSON        = "application/json"
	ContentTypeOctetStream = "application/octet-stream"
)

// Server holds the API server state
type Server struct {
	archive AUArchive
	config  ServerConfig
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer creates a new API server
func NewServer(archive AUArchive, config ServerConfig, metrics *Metrics, logger *slog.Logger) *Server {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	return &Server{
		archive: archive,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleInspectSPS decodes an SPS body and reports its fields
func (s *Server) handleInspectSPS(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	sps, err := codec.SPSParse(body)
	s.metrics.RecordDecode("sps", err == nil, len(body))
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	sendSuccess(w, newSPSResponse(sps))
}

// handleEncodeSPS builds an SPS from JSON and returns its encoded bytes
func (s *Server) handleEncodeSPS(w http.ResponseWriter, r *http.Request) {
	var req SPSRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	sps, err := spsFromRequest(req)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	data, err := codec.SPSSerialize(sps)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	sendBytes(w, data)
}

// handlePutSPS validates an SPS body and archives it under its id
func (s *Server) handlePutSPS(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	sps, err := codec.SPSParse(body)
	s.metrics.RecordDecode("sps", err == nil, len(body))
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	err = s.archive.PutSPS(sps)
	s.metrics.RecordArchiveOperation("put_sps", err == nil)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	sendCreated(w, newSPSResponse(sps))
}

// handleGetSPS returns the encoded bytes of an archived SPS
func (s *Server) handleGetSPS(w http.ResponseWriter, r *http.Request) {
	sps, ok := s.archivedSPS(w, r)
	if !ok {
		return
	}
	data, err := codec.SPSSerialize(sps)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	sendBytes(w, data)
}

// handleInspectArchivedSPS reports the fields of an archived SPS
func (s *Server) handleInspectArchivedSPS(w http.ResponseWriter, r *http.Request) {
	sps, ok := s.archivedSPS(w, r)
	if !ok {
		return
	}
	sendSuccess(w, newSPSResponse(sps))
}

func (s *Server) archivedSPS(w http.ResponseWriter, r *http.Request) (bitstream.StereoSPS, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 8)
	if err != nil {
		sendError(w, "Invalid sps_id", http.StatusBadRequest)
		return bitstream.StereoSPS{}, false
	}

	sps, err := s.archive.GetSPS(uint8(id))
	s.metrics.RecordArchiveOperation("get_sps", err == nil)
	if err != nil {
		s.sendFailure(w, err)
		return bitstream.StereoSPS{}, false
	}
	return sps, true
}

// handleInspectAU decodes an AU body and reports its header and segment sizes
func (s *Server) handleInspectAU(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	au, err := codec.AUParse(body)
	s.metrics.RecordDecode("au", err == nil, len(body))
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	sendSuccess(w, codec.Inspect(au))
}

// handlePutAU validates an AU body and archives it
func (s *Server) handlePutAU(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	id, err := s.archive.PutEncodedAU(body)
	s.metrics.RecordDecode("au", !errors.Is(err, bitstream.ErrBitstream), len(body))
	s.metrics.RecordArchiveOperation("put_au", err == nil)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	sendCreated(w, AUCreatedResponse{ID: id.String(), Bytes: len(body)})
}

// handleListAUs lists archived AU ids in key order
func (s *Server) handleListAUs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.archive.ListAUs()
	s.metrics.RecordArchiveOperation("list_au", err == nil)
	if err != nil {
		s.sendFailure(w, err)
		return
	}

	resp := AUListResponse{IDs: make([]string, len(ids)), Count: len(ids)}
	for i, id := range ids {
		resp.IDs[i] = id.String()
	}
	sendSuccess(w, resp)
}

// handleGetAU returns the raw bytes of an archived AU
func (s *Server) handleGetAU(w http.ResponseWriter, r *http.Request) {
	id, ok := auID(w, r)
	if !ok {
		return
	}

	data, err := s.archive.GetEncodedAU(id)
	s.metrics.RecordArchiveOperation("get_au", err == nil)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	sendBytes(w, data)
}

// handleInspectArchivedAU reports the header and segment sizes of an archived AU
func (s *Server) handleInspectArchivedAU(w http.ResponseWriter, r *http.Request) {
	id, ok := auID(w, r)
	if !ok {
		return
	}

	data, err := s.archive.GetEncodedAU(id)
	s.metrics.RecordArchiveOperation("get_au", err == nil)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	au, err := codec.AUParse(data)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	sendSuccess(w, codec.Inspect(au))
}

// handleDeleteAU removes an archived AU
func (s *Server) handleDeleteAU(w http.ResponseWriter, r *http.Request) {
	id, ok := auID(w, r)
	if !ok {
		return
	}

	err := s.archive.DeleteAU(id)
	s.metrics.RecordArchiveOperation("delete_au", err == nil)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	sendSuccess(w, map[string]string{"id": id.String()})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// sendFailure maps err onto a status code. Bitstream errors are client errors.
func (s *Server) sendFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bitstream.ErrBitstream):
		sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, archive.ErrNotFound):
		sendError(w, "Not found", http.StatusNotFound)
	default:
		s.logger.Error("request failed", "error", err)
		sendError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func auID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid AU id", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

func spsFromRequest(req SPSRequest) (bitstream.StereoSPS, error) {
	if _, err := bitstream.PackU8(req.SPSID); err != nil {
		return bitstream.StereoSPS{}, withField(err, "sps_id")
	}
	if _, err := bitstream.PackU16(req.Width); err != nil {
		return bitstream.StereoSPS{}, withField(err, "width")
	}
	if _, err := bitstream.PackU16(req.Height); err != nil {
		return bitstream.StereoSPS{}, withField(err, "height")
	}
	return bitstream.NewStereoSPS(uint8(req.SPSID), uint16(req.Width), uint16(req.Height)), nil
}

func withField(err error, field string) error {
	var bErr *bitstream.Error
	if errors.As(err, &bErr) {
		bErr.Field = field
	}
	return err
}

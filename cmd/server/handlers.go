package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/anjankaur/shazam-for-gurbani/internal/audio"
	"github.com/anjankaur/shazam-for-gurbani/internal/catalog"
	"github.com/anjankaur/shazam-for-gurbani/internal/config"
	"github.com/anjankaur/shazam-for-gurbani/internal/identify"
	"github.com/anjankaur/shazam-for-gurbani/internal/index"
	"github.com/anjankaur/shazam-for-gurbani/internal/metadata"
	"github.com/anjankaur/shazam-for-gurbani/pkg/logger"
	"github.com/anjankaur/shazam-for-gurbani/pkg/utils"
)

// Server wires the identification core to HTTP. It holds references only;
// the components themselves are constructed in main.
type Server struct {
	service  *identify.Service
	idx      *index.Index
	resolver *metadata.Resolver
	catalog  *catalog.Client
	cfg      *config.Config
	log      *logger.Logger
}

func NewServer(service *identify.Service, idx *index.Index, resolver *metadata.Resolver, cat *catalog.Client, cfg *config.Config) *Server {
	return &Server{
		service:  service,
		idx:      idx,
		resolver: resolver,
		catalog:  cat,
		cfg:      cfg,
		log:      logger.GetLogger(),
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "Shabad Identification API",
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	trackCount, err := s.idx.TrackCount()
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	postingCount, err := s.idx.PostingCount()
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	mappingCount, err := s.resolver.Count()
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "ok",
		DatabasePath: s.cfg.DBPath,
		TrackCount:   trackCount,
		PostingCount: postingCount,
		MappingCount: mappingCount,
		SampleRate:   s.cfg.SampleRate,
	})
}

// handleIdentify accepts a multipart audio upload and returns the
// identification outcome. Validation mirrors the intake contract:
// extension whitelist and a size cap enforced before any decoding.
func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadSize); err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large. Max size: %d MiB", s.cfg.MaxUploadSize>>20))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtension(ext) {
		s.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid file type. Allowed: %s", strings.Join(config.AllowedExtensions, ", ")))
		return
	}

	if err := utils.MakeDir(s.cfg.TempDir); err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	tempPath := filepath.Join(s.cfg.TempDir, utils.TempName(ext))
	out, err := os.Create(tempPath)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	defer utils.DeleteFile(tempPath)

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	out.Close()

	outcome, err := s.service.Identify(r.Context(), tempPath)
	if err != nil {
		var decodeErr *audio.DecodeError
		switch {
		case errors.As(err, &decodeErr):
			s.respondJSON(w, http.StatusUnprocessableEntity, IdentifyResponse{
				Message: fmt.Sprintf("Could not decode audio: %v", decodeErr.Err),
			})
		case errors.Is(err, index.ErrUnavailable):
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.respondJSON(w, http.StatusOK, toIdentifyResponse(outcome))
}

func toIdentifyResponse(outcome *identify.Outcome) IdentifyResponse {
	resp := IdentifyResponse{
		Success:    outcome.Success,
		Confidence: outcome.Confidence,
		Message:    outcome.Message,
	}
	if outcome.ShabadID != "" {
		resp.ShabadID = &outcome.ShabadID
	}
	if outcome.SongName != "" {
		resp.SongName = &outcome.SongName
	}
	return resp
}

func (s *Server) handleMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := s.resolver.List()
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	dtos := make([]MappingDTO, 0, len(mappings))
	for _, m := range mappings {
		dtos = append(dtos, MappingDTO{
			AudioFilename: m.AudioFilename,
			ShabadID:      m.ShabadID,
			ArtistName:    m.ArtistName,
			StartAng:      m.StartAng,
		})
	}
	s.respondJSON(w, http.StatusOK, ListMappingsResponse{Mappings: dtos, Count: len(dtos)})
}

// handleShabad proxies a resolved shabad_id to the external catalog.
// Catalog downtime degrades this endpoint only; identification itself
// never depends on it.
func (s *Server) handleShabad(w http.ResponseWriter, r *http.Request) {
	shabadID := strings.TrimPrefix(r.URL.Path, "/api/shabad/")
	if shabadID == "" || strings.Contains(shabadID, "/") {
		s.respondError(w, http.StatusBadRequest, "shabad id required")
		return
	}

	shabad, err := s.catalog.Lookup(r.Context(), shabadID)
	if err != nil {
		s.log.Warnf("Catalog lookup failed for %s: %v", shabadID, err)
		s.respondError(w, http.StatusBadGateway, "Catalog service unavailable")
		return
	}

	s.respondJSON(w, http.StatusOK, ShabadResponse{
		ShabadID: shabad.ID,
		Ang:      shabad.Ang,
		Lines:    shabad.Lines,
	})
}

func allowedExtension(ext string) bool {
	for _, allowed := range config.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

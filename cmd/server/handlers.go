package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tidesound/soundprint/internal/acquire"
	"github.com/tidesound/soundprint/internal/model"
	"github.com/tidesound/soundprint/pkg/soundprint"
)

var errYouTubeURLRequired = errors.New("youtube_url is required")

// Server encapsulates the HTTP server and its dependencies.
type Server struct {
	service soundprint.Service
	config  *ServerConfig
	log     soundprint.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	AllowedOrigins []string
}

// NewServer builds a Server.
func NewServer(service soundprint.Service, config *ServerConfig, log soundprint.Logger) *Server {
	return &Server{service: service, config: config, log: log}
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("failed to encode JSON response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

func trackToDTO(t model.Track) TrackDTO {
	return TrackDTO{
		ID:            t.ID,
		Title:         t.Attributes.Title,
		Artist:        t.Attributes.Artist,
		Album:         t.Attributes.Album,
		Year:          t.Attributes.Year,
		SourceLocator: t.Attributes.SourceLocator,
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "soundprint API",
		"endpoints": map[string]string{
			"health":         "GET /health",
			"metrics":        "GET /api/health/metrics",
			"tracks":         "GET /api/tracks",
			"addTrackFile":   "POST /api/tracks",
			"addTrackYouTube": "POST /api/tracks/youtube",
			"getTrack":       "GET /api/tracks/{id}",
			"matchFile":      "POST /api/match",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.service.ListTracks()
	if err != nil {
		s.log.Errorf("failed to list tracks: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to retrieve metrics")
		return
	}
	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		TrackCount:   len(tracks),
	})
}

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.service.ListTracks()
	if err != nil {
		s.log.Errorf("failed to list tracks: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to retrieve tracks")
		return
	}

	dtos := make([]TrackDTO, len(tracks))
	for i, t := range tracks {
		dtos[i] = trackToDTO(t)
	}
	s.respondJSON(w, http.StatusOK, ListTracksResponse{Tracks: dtos, Count: len(dtos)})
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request, id uint32) {
	track, found, err := s.service.GetTrack(id)
	if err != nil {
		s.log.Errorf("failed to fetch track %d: %v", id, err)
		s.respondError(w, http.StatusInternalServerError, "failed to retrieve track")
		return
	}
	if !found {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("track %d not found", id))
		return
	}
	s.respondJSON(w, http.StatusOK, trackToDTO(track))
}

func (s *Server) saveUpload(r *http.Request, field, prefix string) (string, func(), error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	tempFile := filepath.Join(s.config.TempDir, fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixNano(), header.Filename))
	out, err := os.Create(tempFile)
	if err != nil {
		return "", nil, err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(tempFile)
		return "", nil, err
	}

	return tempFile, func() { os.Remove(tempFile) }, nil
}

func (s *Server) handleAddTrackFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(100 << 20); err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to parse form data")
		return
	}

	title := r.FormValue("title")
	artist := r.FormValue("artist")
	if title == "" || artist == "" {
		s.respondError(w, http.StatusBadRequest, "title and artist are required")
		return
	}

	upload, cleanup, err := s.saveUpload(r, "audio", "upload")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer cleanup()

	wavPath, err := acquire.ConvertToWAV(ctx, upload, s.config.TempDir)
	if err != nil {
		s.log.Errorf("failed to convert upload: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to process uploaded audio")
		return
	}
	defer os.Remove(wavPath)

	attrs := model.TrackAttributes{Title: title, Artist: artist}
	id, err := s.service.AddTrack(ctx, wavPath, attrs)
	if err != nil {
		s.log.Errorf("failed to add track: %v", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to add track: %v", err))
		return
	}

	s.respondJSON(w, http.StatusCreated, AddTrackResponse{Message: "track added", ID: id, Title: title, Artist: artist})
}

func (s *Server) handleAddTrackYouTube(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	var req AddTrackYouTubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	downloaded, meta, err := acquire.DownloadYouTubeAudio(ctx, req.YouTubeURL, s.config.TempDir)
	if err != nil {
		s.log.Errorf("failed to download youtube video: %v", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to download: %v", err))
		return
	}
	defer os.Remove(downloaded)

	wavPath, err := acquire.ConvertToWAV(ctx, downloaded, s.config.TempDir)
	if err != nil {
		s.log.Errorf("failed to convert downloaded audio: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to process downloaded audio")
		return
	}
	defer os.Remove(wavPath)

	title, artist := req.Title, req.Artist
	if title == "" {
		title = meta.Title
	}
	if artist == "" {
		artist = meta.Artist
	}

	attrs := model.TrackAttributes{Title: title, Artist: artist, SourceLocator: req.YouTubeURL}
	id, err := s.service.AddTrack(ctx, wavPath, attrs)
	if err != nil {
		s.log.Errorf("failed to add track: %v", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to add track: %v", err))
		return
	}

	s.respondJSON(w, http.StatusCreated, AddTrackResponse{Message: "track added from YouTube", ID: id, Title: title, Artist: artist})
}

func (s *Server) handleMatchFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(50 << 20); err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to parse form data")
		return
	}

	upload, cleanup, err := s.saveUpload(r, "audio", "query")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer cleanup()

	wavPath, err := acquire.ConvertToWAV(ctx, upload, s.config.TempDir)
	if err != nil {
		s.log.Errorf("failed to convert query audio: %v", err)
		s.respondError(w, http.StatusInternalServerError, "failed to process query audio")
		return
	}
	defer os.Remove(wavPath)

	result, ok, err := s.service.MatchClip(ctx, wavPath)
	if err != nil {
		s.log.Errorf("match failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("match failed: %v", err))
		return
	}
	if !ok {
		s.respondJSON(w, http.StatusOK, MatchResponse{Matched: false})
		return
	}

	s.respondJSON(w, http.StatusOK, MatchResponse{
		Matched:      true,
		TrackID:      result.Track.ID,
		Title:        result.Track.Attributes.Title,
		Artist:       result.Track.Attributes.Artist,
		Score:        result.Score,
		AnchorOffset: int64(result.AnchorOffset),
	})
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTracks(w, r)
	case http.MethodPost:
		s.handleAddTrackFile(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Path[len("/api/tracks/"):]
	if idStr == "" {
		s.respondError(w, http.StatusBadRequest, "track id required")
		return
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid track id")
		return
	}

	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.handleGetTrack(w, r, uint32(id))
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.handleMatchFile(w, r)
}

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/akthammomani/maestro-finder/internal/audio"
)

const maxUploadSize = audio.MaxFileSize

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLabels returns the ordered composer label set
func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.jobs.classifier.Labels())
}

// handlePredict accepts a MIDI or audio upload and starts a prediction job
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.writeError(w, http.StatusBadRequest, "File too large. Maximum size is 50MB.", "file_too_large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Please upload a MIDI file or an audio recording.", "")
		return
	}
	defer file.Close()

	format := audio.FormatForExtension(header.Filename)
	if format == audio.FormatUnknown {
		s.writeError(w, http.StatusBadRequest, "Unsupported format. Please upload a MIDI, WAV or MP3 file.", "unsupported_format")
		return
	}

	job := s.jobs.Create()

	ext := filepath.Ext(header.Filename)
	inputPath := filepath.Join(job.WorkDir, "input"+ext)
	dst, err := os.Create(inputPath)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to save file.", "")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to save file.", "")
		return
	}

	job.InputPath = inputPath
	job.Filename = header.Filename

	// run the pipeline in the background, clients poll or stream status
	go s.jobs.Process(job)

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"id":       job.ID,
		"filename": header.Filename,
	})
}

// handleStatus streams job status updates via SSE
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		s.writeError(w, http.StatusNotFound, "Job not found.", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case update, open := <-job.Updates:
			if open {
				fmt.Fprintf(w, "event: progress\n")
				fmt.Fprintf(w, "data: %s\n\n", update)
				flusher.Flush()
			}

			st := job.state()
			if !open || st.Status == StatusComplete || st.Status == StatusFailed || st.Status == StatusRejected {
				fmt.Fprintf(w, "event: done\n")
				fmt.Fprintf(w, "data: %s\n\n", st.Status)
				flusher.Flush()
				return
			}
		}
	}
}

// handleResult returns the final prediction for a job
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		s.writeError(w, http.StatusNotFound, "Job not found.", "")
		return
	}

	st := job.state()
	switch st.Status {
	case StatusRejected:
		s.writeError(w, http.StatusUnprocessableEntity, st.Error, st.Reason)
	case StatusFailed:
		s.writeError(w, http.StatusInternalServerError, st.Error, "")
	case StatusComplete:
		s.writeJSON(w, http.StatusOK, st.Result)
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{
			"id":     job.ID,
			"status": string(st.Status),
			"stage":  st.Stage,
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, reason string) {
	s.writeJSON(w, status, errorResponse{Error: message, Reason: reason})
}

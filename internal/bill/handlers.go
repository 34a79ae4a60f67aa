package bill

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// writeJSON writes a JSON response with CORS headers set
func writeJSON(w http.ResponseWriter, status int, body any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// fileTooLargeMessage is the 413 response body text
func (s *Server) fileTooLargeMessage() string {
	return fmt.Sprintf("File too large. Maximum file size is %dMB.", s.maxUploadBytes>>20)
}

// handleUpload accepts one or more files in the multipart field "files",
// runs the extraction batch and returns the ordered results
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
				"success": false,
				"error":   s.fileTooLargeMessage(),
			})
			return
		}
		slog.Error("Error parsing multipart form", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Error parsing form",
		})
		return
	}

	headers, ok := r.MultipartForm.File["files"]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "No files part in the request",
		})
		return
	}
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "No files uploaded",
		})
		return
	}

	uploads := make([]Upload, 0, len(headers))
	for _, header := range headers {
		// Oversize parts short-circuit the whole request before any
		// processing starts
		if header.Size > s.maxUploadBytes {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
				"success": false,
				"error":   s.fileTooLargeMessage(),
			})
			return
		}

		f, err := header.Open()
		if err != nil {
			slog.Error("Error opening uploaded file", "filename", header.Filename, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   fmt.Sprintf("Error reading file %s", header.Filename),
			})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			slog.Error("Error reading uploaded file", "filename", header.Filename, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   fmt.Sprintf("Error reading file %s", header.Filename),
			})
			return
		}

		uploads = append(uploads, Upload{Filename: header.Filename, Data: data})
	}

	results := s.service.ProcessBatch(r.Context(), uploads)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"results": results,
	})
}

// handleHealth reports component availability
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Health(r.Context()))
}

// handleListBatches returns all recorded batches
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.service.ListBatches()
	if err != nil {
		slog.Error("Error listing batches", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Internal server error",
		})
		return
	}

	writeJSON(w, http.StatusOK, batches)
}

// handleGetBatch returns a single recorded batch
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Batch ID required"})
		return
	}

	batch, err := s.service.GetBatch(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Batch not found"})
		return
	}

	writeJSON(w, http.StatusOK, batch)
}

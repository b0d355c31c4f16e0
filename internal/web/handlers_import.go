package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/catalogimport/internal/logging"
)

// startResponse is returned when an import is accepted.
type startResponse struct {
	ImportID    string `json:"importId"`
	StatusURL   string `json:"statusUrl"`
	ProgressURL string `json:"progressUrl"`
}

// confirmRequest answers the category question of a suspended import.
type confirmRequest struct {
	Confirm *bool `json:"confirm"`
}

// handleStartImport accepts a file and starts an import in the background.
func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	f, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.service.StartImport(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "import_id", id).Info("import accepted",
		"file", f.Name,
		"size", f.Size,
	)

	writeJSON(w, http.StatusAccepted, startResponse{
		ImportID:    id,
		StatusURL:   "/api/imports/" + id,
		ProgressURL: "/api/imports/" + id + "/progress",
	})
}

// handlePreview parses a file without importing it.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	f, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	preview, err := s.service.Preview(r.Context(), f, parseIntParam(r, "sample", 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleImportStatus returns a snapshot of an import.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleConfirmImport creates the missing categories and continues the
// import, or declines and ends it.
func (s *Server) handleConfirmImport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Confirm == nil {
		respondError(w, r, fmt.Errorf("%w: body must be {\"confirm\": true|false}", errBadRequest))
		return
	}

	if err := s.service.Confirm(r.Context(), id, *req.Confirm); err != nil {
		respondError(w, r, err)
		return
	}

	state := "declined"
	if *req.Confirm {
		state = "confirmed"
	}
	logging.WithFields(r.Context(), "import_id", id).Info("category question answered", "answer", state)
	writeJSON(w, http.StatusAccepted, map[string]string{"importId": id, "status": state})
}

// handleCancelImport stops an import before its next chunk.
func (s *Server) handleCancelImport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")
	if err := s.service.Cancel(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"importId": id, "status": "cancelling"})
}

// handleImportResult returns the outcome of a finished import. Fatal
// failures are reported as errors with their reasons.
func (s *Server) handleImportResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Result(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleImportProgress streams progress as Server-Sent Events. The event ID
// is the completion percentage; a client reconnecting with lastEventId
// skips values it has already seen.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")

	lastEventID := -1
	if v := r.URL.Query().Get("lastEventId"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			lastEventID = n
		}
	} else if v := r.Header.Get("Last-Event-ID"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			lastEventID = n
		}
	}

	updates, err := s.service.Subscribe(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)

	for {
		select {
		case p, ok := <-updates:
			if !ok {
				status, err := s.service.Status(r.Context(), id)
				if err != nil {
					fmt.Fprint(w, "event: complete\ndata: {}\n\n")
				} else {
					data, _ := json.Marshal(status)
					fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				}
				_ = rc.Flush()
				return
			}

			percent := p.Percent()
			if percent < lastEventID && !p.Phase.Terminal() {
				continue
			}

			data, _ := json.Marshal(p)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", percent, data)
			if err := rc.Flush(); err != nil {
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/anhp95/lang/internal/orchestrator"
	"github.com/anhp95/lang/internal/schema"
	"github.com/anhp95/lang/internal/session"
	"github.com/anhp95/lang/internal/table"
)

// maxUploadBytes caps upload and chat request bodies.
const maxUploadBytes = 16 << 20

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	UploadedCSV    string `json:"uploaded_csv,omitempty"`
}

func (s *Server) registerRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/chat/ws", s.handleChatWS)
		r.Post("/upload", s.handleUpload)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/export/{kind}", s.handleExport)
			r.Get("/map", s.handleMap)
			r.Delete("/", s.handleCloseSession)
		})
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" && req.UploadedCSV == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.New().String()
	}

	turn, err := s.orch.HandleTurn(r.Context(), req.ConversationID, req.Message, req.UploadedCSV)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, struct {
		ConversationID string `json:"conversation_id"`
		*orchestrator.Turn
	}{req.ConversationID, turn})
}

// handleUpload folds a CSV into the session as the raw artifact without a
// model round trip. Accepts multipart form files and raw text bodies.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	data, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := table.ParseCSV(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "parsing CSV: "+err.Error())
		return
	}

	sctx := s.orch.Sessions().Get(conversationID)
	art, err := sctx.Put(schema.KindRaw, t, session.ProvenanceUpload)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": conversationID,
		"kind":            art.Kind,
		"rows":            art.RowCount,
		"columns":         art.Columns,
		"revision":        art.Revision,
	})
}

func readUpload(r *http.Request) (string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", fmt.Errorf("multipart form has no file field")
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return "", fmt.Errorf("reading upload: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty upload body")
	}
	return string(data), nil
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	kind, err := schema.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := s.orch.Export(id, kind)
	if err != nil {
		var nf *orchestrator.NotFoundError
		if errors.As(err, &nf) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(kind)+".csv"))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, t.EncodeCSV())
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var includeNoise *bool
	if raw := r.URL.Query().Get("include_noise"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "include_noise must be a boolean")
			return
		}
		includeNoise = &v
	}

	geo, err := s.orch.MapLayer(r.Context(), id, includeNoise)
	if err != nil {
		var nd *orchestrator.NoDataError
		if errors.As(err, &nd) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(geo)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.orch.CloseSession(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed", "conversation_id": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

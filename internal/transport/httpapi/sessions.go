package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/internal/service/session"
	"github.com/sandevgo/memochat/pkg/log"
)

type SessionHandler struct {
	sessions *session.Manager
}

func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", h.list)
	mux.HandleFunc("POST /api/sessions", h.create)
	mux.HandleFunc("GET /api/sessions/export", h.export)
	mux.HandleFunc("POST /api/sessions/import", h.importAll)
	mux.HandleFunc("GET /api/sessions/{id}", h.get)
	mux.HandleFunc("PUT /api/sessions/{id}", h.rename)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.delete)
}

func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.List(r.Context())
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("failed to list sessions")
		writeError(w, r, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []core.Session{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"sessions": sessions})
}

type createSessionRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.sessions.CreateOrFetch(r.Context(), req.ID, req.Title)
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("failed to create session")
		writeError(w, r, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, r, http.StatusCreated, sess)
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, r, http.StatusOK, sess)
}

type renameSessionRequest struct {
	Title string `json:"title"`
}

func (h *SessionHandler) rename(w http.ResponseWriter, r *http.Request) {
	var req renameSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}

	err := h.sessions.Rename(r.Context(), r.PathValue("id"), req.Title)
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to rename session")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"success": true})
}

func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("failed to delete session")
		writeError(w, r, http.StatusInternalServerError, "failed to delete session")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"success": true})
}

func (h *SessionHandler) export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.sessions.ExportAll(r.Context())
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("export failed")
		writeError(w, r, http.StatusInternalServerError, "failed to export sessions")
		return
	}
	writeJSON(w, r, http.StatusOK, doc)
}

func (h *SessionHandler) importAll(w http.ResponseWriter, r *http.Request) {
	var doc core.ExportDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid export document")
		return
	}

	imported, err := h.sessions.Import(r.Context(), doc)
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("import failed")
		writeError(w, r, http.StatusInternalServerError, "failed to import sessions")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"success": true, "imported": imported})
}

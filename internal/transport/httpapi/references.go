package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/pkg/log"
)

type ReferenceHandler struct {
	refs core.ReferencesRepository
}

func NewReferenceHandler(refs core.ReferencesRepository) *ReferenceHandler {
	return &ReferenceHandler{refs: refs}
}

func (h *ReferenceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/reference", h.list)
	mux.HandleFunc("POST /api/reference", h.create)
	mux.HandleFunc("POST /api/reference/toggle", h.toggle)
	mux.HandleFunc("POST /api/reference/update", h.update)
	mux.HandleFunc("POST /api/reference/delete", h.delete)
}

func (h *ReferenceHandler) list(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, r, http.StatusBadRequest, "sessionId is required")
		return
	}

	refs, err := h.refs.ListBySession(r.Context(), sessionID)
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("failed to list references")
		writeError(w, r, http.StatusInternalServerError, "failed to list references")
		return
	}
	if refs == nil {
		refs = []core.ReferenceContext{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"references": refs})
}

type createReferenceRequest struct {
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

func (h *ReferenceHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.Title == "" || req.Content == "" {
		writeError(w, r, http.StatusBadRequest, "sessionId, title and content are required")
		return
	}

	ref := core.ReferenceContext{
		SessionID: req.SessionID,
		Title:     req.Title,
		Content:   req.Content,
		IsActive:  true,
	}
	id, err := h.refs.Add(r.Context(), ref)
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("failed to create reference")
		writeError(w, r, http.StatusInternalServerError, "failed to create reference")
		return
	}

	ref.ID = id
	writeJSON(w, r, http.StatusCreated, ref)
}

type referenceActionRequest struct {
	SessionID string `json:"sessionId"`
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

func (h *ReferenceHandler) toggle(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAction(w, r)
	if !ok {
		return
	}
	h.finish(w, r, h.refs.Toggle(r.Context(), req.SessionID, req.ID))
}

func (h *ReferenceHandler) update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAction(w, r)
	if !ok {
		return
	}
	if req.Title == "" || req.Content == "" {
		writeError(w, r, http.StatusBadRequest, "title and content are required")
		return
	}
	h.finish(w, r, h.refs.Update(r.Context(), req.SessionID, req.ID, req.Title, req.Content))
}

func (h *ReferenceHandler) delete(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAction(w, r)
	if !ok {
		return
	}
	h.finish(w, r, h.refs.Delete(r.Context(), req.SessionID, req.ID))
}

func (h *ReferenceHandler) decodeAction(w http.ResponseWriter, r *http.Request) (referenceActionRequest, bool) {
	var req referenceActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.SessionID == "" || req.ID == 0 {
		writeError(w, r, http.StatusBadRequest, "sessionId and id are required")
		return req, false
	}
	return req, true
}

func (h *ReferenceHandler) finish(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "reference not found")
		return
	}
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("reference operation failed")
		writeError(w, r, http.StatusInternalServerError, "reference operation failed")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"success": true})
}

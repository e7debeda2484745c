package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/internal/service/chat"
	"github.com/sandevgo/memochat/pkg/log"
)

type ChatHandler struct {
	chat     *chat.Service
	messages core.MessagesRepository
}

func NewChatHandler(chatSvc *chat.Service, messages core.MessagesRepository) *ChatHandler {
	return &ChatHandler{chat: chatSvc, messages: messages}
}

func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
	mux.HandleFunc("GET /api/history", h.handleHistory)
}

type chatRequest struct {
	Message       string `json:"message"`
	SessionID     string `json:"sessionId"`
	Model         string `json:"model"`
	MemoryEnabled *bool  `json:"memoryEnabled"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case req.Message == "":
		writeError(w, r, http.StatusBadRequest, "message is required")
		return
	case req.SessionID == "":
		writeError(w, r, http.StatusBadRequest, "sessionId is required")
		return
	case req.Model == "":
		writeError(w, r, http.StatusBadRequest, "model is required")
		return
	}

	// Memory defaults to on when the client omits the flag.
	memoryEnabled := true
	if req.MemoryEnabled != nil {
		memoryEnabled = *req.MemoryEnabled
	}

	response, err := h.chat.Handle(r.Context(), req.SessionID, req.Model, req.Message, memoryEnabled)
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("chat request failed")
		writeError(w, r, http.StatusInternalServerError, "failed to process message")
		return
	}

	writeJSON(w, r, http.StatusOK, chatResponse{Response: response})
}

type historyEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *ChatHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, r, http.StatusBadRequest, "sessionId is required")
		return
	}

	messages, err := h.messages.History(r.Context(), sessionID, 0)
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("failed to load history")
		writeError(w, r, http.StatusInternalServerError, "failed to load history")
		return
	}

	history := make([]historyEntry, 0, len(messages))
	for _, m := range messages {
		history = append(history, historyEntry{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp})
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"history": history})
}

package httpapi

import (
	"net/http"

	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/internal/providers/ollama"
	"github.com/sandevgo/memochat/pkg/log"
)

type ModelsHandler struct {
	provider     core.ModelProvider
	defaultModel string
}

func NewModelsHandler(provider core.ModelProvider, defaultModel string) *ModelsHandler {
	return &ModelsHandler{provider: provider, defaultModel: defaultModel}
}

func (h *ModelsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/models", h.models)
	mux.HandleFunc("GET /api/status", h.status)
	mux.HandleFunc("GET /health", h.health)
}

func (h *ModelsHandler) models(w http.ResponseWriter, r *http.Request) {
	models, err := h.provider.Models(r.Context())
	if err != nil {
		log.FromCtx(r.Context()).Warn().Err(err).Msg("model listing failed")
		writeError(w, r, http.StatusBadGateway, "model service unavailable")
		return
	}
	if models == nil {
		models = []string{}
	}
	// The UI preselects defaultModel when it is in the listing.
	writeJSON(w, r, http.StatusOK, map[string]any{
		"models":       models,
		"defaultModel": h.defaultModel,
	})
}

func (h *ModelsHandler) status(w http.ResponseWriter, r *http.Request) {
	status := "connected"
	if err := h.provider.Health(r.Context()); err != nil {
		switch ollama.KindOf(err) {
		case ollama.KindUnreachable, ollama.KindTimeout:
			status = "disconnected"
		default:
			status = "error"
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"status": status})
}

func (h *ModelsHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"status": "ok"})
}

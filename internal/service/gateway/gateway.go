// Package gateway fronts the model-serving API. It absorbs every failure
// into a user-readable assistant message: callers always get a content and
// context pair, never an error.
package gateway

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/internal/providers/ollama"
	"github.com/sandevgo/memochat/pkg/log"
)

// nameSeparator splits namespace-qualified model names. A qualified name is
// tried verbatim first, then once more with the namespace stripped.
const nameSeparator = "/"

const (
	msgUnreachable = "I'm having trouble connecting to the model service. " +
		"Please make sure the backend is running at the configured address and try again."
	msgTimeout = "The model service hit a timeout while generating a response. " +
		"The model may still be loading; please try again in a moment."
	msgContextTooLong = "Error: the conversation context is too long for this model. " +
		"Please start a new chat to continue."
	msgUnknown = "An unexpected error occurred while generating a response. Please try again."
)

func msgModelNotFound(model string) string {
	return fmt.Sprintf("Model not found: %q is not available on the backend. "+
		"Please pull it first or choose another model.", model)
}

// PromptFilter injects reference material into a prompt when relevant.
type PromptFilter interface {
	Apply(ctx context.Context, sessionID, prompt string) string
}

type Gateway struct {
	provider core.ModelProvider
	filter   PromptFilter
	cache    *ResponseCache
}

func New(provider core.ModelProvider, filter PromptFilter) *Gateway {
	return &Gateway{
		provider: provider,
		filter:   filter,
		cache:    NewResponseCache(),
	}
}

// Generate runs one completion. All failure paths come back as canned
// content; the returned context is nil unless generation succeeded.
func (g *Gateway) Generate(ctx context.Context, sessionID, model, prompt string, prior core.ContextBlob, systemPrompt string) core.GenerateResult {
	logger := log.FromCtx(ctx)

	if err := g.provider.Health(ctx); err != nil {
		logger.Warn().Err(err).Msg("model service health probe failed")
		return core.GenerateResult{Content: msgUnreachable}
	}

	// Cache key uses the raw prompt, before reference injection.
	if cached, ok := g.cache.Get(model, prompt); ok {
		logger.Debug().Str("model", model).Msg("response cache hit")
		return cached
	}

	finalPrompt := prompt
	if g.filter != nil {
		finalPrompt = g.filter.Apply(ctx, sessionID, prompt)
	}

	models, err := g.provider.Models(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("model listing failed")
		return core.GenerateResult{Content: g.canned(err, model)}
	}
	if !modelAvailable(models, model) {
		return core.GenerateResult{Content: msgModelNotFound(model)}
	}

	result, err := g.provider.Generate(ctx, core.GenerateRequest{
		Model:   model,
		Prompt:  finalPrompt,
		System:  systemPrompt,
		Context: prior,
	})
	if err != nil && strings.Contains(model, nameSeparator) {
		simplified := simplifyModelName(model)
		logger.Warn().Err(err).Str("model", model).Str("fallback", simplified).
			Msg("generation failed, retrying with simplified model name")
		result, err = g.provider.Generate(ctx, core.GenerateRequest{
			Model:   simplified,
			Prompt:  finalPrompt,
			System:  systemPrompt,
			Context: prior,
		})
	}
	if err != nil {
		logger.Error().Err(err).Str("model", model).Msg("generation failed")
		return core.GenerateResult{Content: g.canned(err, model)}
	}

	g.cache.Put(model, prompt, result)
	return result
}

func (g *Gateway) canned(err error, model string) string {
	switch ollama.KindOf(err) {
	case ollama.KindUnreachable:
		return msgUnreachable
	case ollama.KindTimeout:
		return msgTimeout
	case ollama.KindModelNotFound:
		return msgModelNotFound(model)
	case ollama.KindContextTooLong:
		return msgContextTooLong
	default:
		return msgUnknown
	}
}

// modelAvailable accepts the exact name, or for namespace-qualified names,
// the simplified form present in the listing.
func modelAvailable(models []string, model string) bool {
	if slices.Contains(models, model) {
		return true
	}
	if strings.Contains(model, nameSeparator) {
		return slices.Contains(models, simplifyModelName(model))
	}
	return false
}

func simplifyModelName(model string) string {
	parts := strings.Split(model, nameSeparator)
	return parts[len(parts)-1]
}

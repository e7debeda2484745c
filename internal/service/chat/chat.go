// Package chat runs the per-request pipeline: persist the user turn, extract
// facts, compose the system prompt, call the gateway, persist the assistant
// turn and the updated rolling context.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/internal/service/gateway"
	"github.com/sandevgo/memochat/internal/service/memory"
	"github.com/sandevgo/memochat/internal/service/session"
	"github.com/sandevgo/memochat/pkg/log"
)

const maxDerivedTitleLen = 50

type Service struct {
	sessions  *session.Manager
	messages  core.MessagesRepository
	contexts  core.ContextsRepository
	composer  *memory.Composer
	extractor *memory.Extractor
	gateway   *gateway.Gateway
}

func NewService(
	sessions *session.Manager,
	messages core.MessagesRepository,
	contexts core.ContextsRepository,
	composer *memory.Composer,
	extractor *memory.Extractor,
	gw *gateway.Gateway,
) *Service {
	return &Service{
		sessions:  sessions,
		messages:  messages,
		contexts:  contexts,
		composer:  composer,
		extractor: extractor,
		gateway:   gw,
	}
}

// Handle processes one chat request and always produces a conversational
// reply: model-side failures come back as canned assistant text, not errors.
func (s *Service) Handle(ctx context.Context, sessionID, model, message string, memoryEnabled bool) (string, error) {
	logger := log.FromCtx(ctx)

	if _, err := s.sessions.CreateOrFetch(ctx, sessionID, deriveTitle(message)); err != nil {
		return "", fmt.Errorf("failed to ensure session: %w", err)
	}

	userMsg := core.Message{SessionID: sessionID, Role: core.RoleUser, Content: message}
	if _, err := s.messages.Add(ctx, userMsg); err != nil {
		return "", fmt.Errorf("failed to save user message: %w", err)
	}

	if _, err := s.extractor.Extract(ctx, sessionID, message); err != nil {
		logger.Warn().Err(err).Msg("fact extraction failed")
	}

	var prior core.ContextBlob
	if memoryEnabled {
		var err error
		if prior, err = s.contexts.Get(ctx, sessionID); err != nil {
			logger.Warn().Err(err).Msg("failed to load rolling context")
			prior = nil
		}
	}

	systemPrompt, err := s.composer.Compose(ctx, sessionID, model, memoryEnabled)
	if err != nil {
		logger.Warn().Err(err).Msg("prompt composition failed, using bare persona")
		systemPrompt = memory.Persona(model)
	}

	result := s.gateway.Generate(ctx, sessionID, model, message, prior, systemPrompt)

	assistantMsg := core.Message{SessionID: sessionID, Role: core.RoleAssistant, Content: result.Content}
	if _, err := s.messages.Add(ctx, assistantMsg); err != nil {
		logger.Error().Err(err).Msg("failed to save assistant message")
	}

	if memoryEnabled && len(result.Context) > 0 {
		if err := s.contexts.Save(ctx, sessionID, result.Context); err != nil {
			logger.Error().Err(err).Msg("failed to save rolling context")
		}
	}

	if err := s.sessions.Touch(ctx, sessionID); err != nil {
		logger.Warn().Err(err).Msg("failed to bump session activity")
	}

	// Inline TTL sweep after every message insert.
	s.sessions.Sweep(ctx)

	return result.Content, nil
}

// deriveTitle names a session created implicitly by its first message.
func deriveTitle(message string) string {
	title := strings.TrimSpace(message)
	runes := []rune(title)
	if len(runes) > maxDerivedTitleLen {
		title = string(runes[:maxDerivedTitleLen])
	}
	return title
}

package memory

import (
	"context"
	"strings"

	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/pkg/log"
)

const (
	// Words at or below these lengths are excluded from matching to avoid
	// false positives on common short words.
	minTitleWordLen   = 3
	minContentWordLen = 4

	referencePreamble = "Please use the following reference information when answering:\n\n"
	referenceClosing  = "Based on the above reference information, please answer: "
)

// RelevanceFilter decides per incoming message whether stored reference text
// should be prepended to the literal prompt.
type RelevanceFilter struct {
	refs core.ReferencesRepository
}

func NewRelevanceFilter(refs core.ReferencesRepository) *RelevanceFilter {
	return &RelevanceFilter{refs: refs}
}

// Apply returns the prompt with all active references prepended when at
// least one of them is topically relevant, or the prompt unchanged.
func (f *RelevanceFilter) Apply(ctx context.Context, sessionID, prompt string) string {
	refs, err := f.refs.ListActive(ctx, sessionID)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to load references, passing prompt through")
		return prompt
	}
	if len(refs) == 0 {
		return prompt
	}

	lowered := strings.ToLower(prompt)
	anyRelevant := false
	for _, ref := range refs {
		if isRelevant(ref, lowered) {
			anyRelevant = true
			break
		}
	}
	if !anyRelevant {
		return prompt
	}

	// Once one reference matches, all active ones are injected so the model
	// sees the full curated set.
	var sb strings.Builder
	sb.WriteString(referencePreamble)
	for _, ref := range refs {
		sb.WriteString("[")
		sb.WriteString(ref.Title)
		sb.WriteString("]\n")
		sb.WriteString(ref.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString(referenceClosing)
	sb.WriteString(prompt)

	log.FromCtx(ctx).Debug().Int("references", len(refs)).Msg("injected reference contexts")
	return sb.String()
}

func isRelevant(ref core.ReferenceContext, loweredPrompt string) bool {
	for _, word := range strings.Fields(strings.ToLower(ref.Title)) {
		if len(word) >= minTitleWordLen && strings.Contains(loweredPrompt, word) {
			return true
		}
	}
	for _, word := range strings.Fields(strings.ToLower(ref.Content)) {
		if len(word) >= minContentWordLen && strings.Contains(loweredPrompt, word) {
			return true
		}
	}
	return false
}

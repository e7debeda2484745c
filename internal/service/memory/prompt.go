package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/memochat/internal/core"
)

// fallbackUserLines is used when filtering leaves too little history.
const fallbackUserLines = 3

// Composer builds the system-level instruction text for each generation
// request. Output is deterministic given the same stored rows; it performs
// no network calls.
type Composer struct {
	messages core.MessagesRepository
	facts    core.FactsRepository
	window   int
}

// NewComposer sizes the history window from historyWindow (the
// HISTORY_WINDOW_SIZE setting); values <= 0 mean no limit.
func NewComposer(messages core.MessagesRepository, facts core.FactsRepository, historyWindow int) *Composer {
	return &Composer{messages: messages, facts: facts, window: historyWindow}
}

// Persona is the fixed, context-free instruction used when memory is off.
func Persona(model string) string {
	return fmt.Sprintf("You are a helpful AI assistant powered by the %s model. Answer the user's questions directly and naturally.", model)
}

// Compose assembles the system prompt for a session. With memory disabled it
// returns only the persona naming the model; no history, facts or references
// are included.
func (c *Composer) Compose(ctx context.Context, sessionID, model string, memoryEnabled bool) (string, error) {
	if !memoryEnabled {
		return Persona(model), nil
	}

	history, err := c.messages.History(ctx, sessionID, c.window)
	if err != nil {
		return "", fmt.Errorf("failed to load history: %w", err)
	}

	rendered := renderHistory(history)

	facts, err := c.facts.List(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load facts: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(Persona(model))

	if len(facts) > 0 {
		sb.WriteString("\n\nYou must remember the following about the user:\n")
		for _, f := range facts {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", f.Key, f.Value))
		}
	}

	if rendered != "" {
		sb.WriteString("\n\nConversation so far:\n\n")
		sb.WriteString(rendered)
	}

	sb.WriteString("\n\nRespond naturally to the user's latest message and use the remembered facts where relevant.")
	return sb.String(), nil
}

// renderHistory renders the contamination-filtered window as alternating
// "Human:" / "Assistant:" lines. When filtering removes all but fewer than
// two messages of a non-empty window, it falls back to the last few user
// lines so the prompt keeps some grounding.
func renderHistory(history []core.Message) string {
	filtered := FilterContaminated(history)

	if len(history) > 0 && len(filtered) < 2 {
		return renderUserFallback(history)
	}

	lines := make([]string, 0, len(filtered))
	for _, msg := range filtered {
		lines = append(lines, speakerLine(msg))
	}
	return strings.Join(lines, "\n\n")
}

func renderUserFallback(history []core.Message) string {
	var userMsgs []core.Message
	for _, msg := range history {
		if msg.Role == core.RoleUser {
			userMsgs = append(userMsgs, msg)
		}
	}
	if len(userMsgs) > fallbackUserLines {
		userMsgs = userMsgs[len(userMsgs)-fallbackUserLines:]
	}

	lines := make([]string, 0, len(userMsgs))
	for _, msg := range userMsgs {
		lines = append(lines, "Human: "+msg.Content)
	}
	return strings.Join(lines, "\n\n")
}

func speakerLine(msg core.Message) string {
	if msg.Role == core.RoleAssistant {
		return "Assistant: " + msg.Content
	}
	return "Human: " + msg.Content
}

package memory

import (
	"context"
	"strings"

	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/pkg/log"
)

// errorSignatures are lower-cased substrings that identify stored assistant
// turns which are themselves error-recovery text. Matching is deliberately a
// plain case-insensitive substring test; do not upgrade to fuzzier matching.
var errorSignatures = []string{
	"connection refused",
	"model not found",
	"having trouble connecting",
	"timeout",
	"failed to",
	"error",
}

// ErrorSignatures returns the signature list for the destructive startup
// sweep. The per-request filter below never deletes anything.
func ErrorSignatures() []string {
	out := make([]string, len(errorSignatures))
	copy(out, errorSignatures)
	return out
}

// StartupSweep permanently deletes stored assistant messages matching an
// error signature. Destructive and irreversible; runs once per process start
// and never aborts startup on failure.
func StartupSweep(ctx context.Context, messages core.MessagesRepository) {
	logger := log.FromCtx(ctx)

	n, err := messages.DeleteMatchingAssistant(ctx, ErrorSignatures())
	if err != nil {
		logger.Error().Err(err).Msg("startup contamination sweep failed")
		return
	}
	if n > 0 {
		logger.Info().Int64("count", n).Msg("removed contaminated assistant messages")
	}
}

func IsContaminated(msg core.Message) bool {
	if msg.Role != core.RoleAssistant {
		return false
	}
	content := strings.ToLower(msg.Content)
	for _, sig := range errorSignatures {
		if strings.Contains(content, sig) {
			return true
		}
	}
	return false
}

// FilterContaminated drops assistant turns that are error text, keeping
// everything else in order.
func FilterContaminated(msgs []core.Message) []core.Message {
	clean := make([]core.Message, 0, len(msgs))
	for _, msg := range msgs {
		if IsContaminated(msg) {
			continue
		}
		clean = append(clean, msg)
	}
	return clean
}

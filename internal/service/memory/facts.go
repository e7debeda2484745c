package memory

import (
	"context"
	"regexp"
	"strings"

	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/pkg/log"
)

// namePatterns are tried in order; the first accepted capture wins and the
// remaining patterns are skipped for that message.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bmy name is\s+([^.,!?\n]+)`),
	regexp.MustCompile(`(?i)\bi am\s+([^.,!?\n]+)`),
	regexp.MustCompile(`(?i)\bcall me\s+([^.,!?\n]+)`),
	regexp.MustCompile(`(?i)\bi'm\s+([^.,!?\n]+)`),
}

// nameDenylist rejects captures that are conversational filler rather than a
// name. Checked as substrings of the lower-cased candidate.
var nameDenylist = []string{
	"sorry",
	"just",
	"not sure",
	"wondering",
	"curious",
	"interested",
	"looking",
}

// Extractor opportunistically captures self-identification statements from
// incoming user messages and upserts them as session facts.
type Extractor struct {
	facts core.FactsRepository
}

func NewExtractor(facts core.FactsRepository) *Extractor {
	return &Extractor{facts: facts}
}

// Extract scans the message and stores a "name" fact on the first successful
// pattern. Returns true when a fact was stored.
func (e *Extractor) Extract(ctx context.Context, sessionID, message string) (bool, error) {
	name, ok := ExtractName(message)
	if !ok {
		return false, nil
	}

	fact := core.UserFact{SessionID: sessionID, Key: "name", Value: name}
	if err := e.facts.Upsert(ctx, fact); err != nil {
		return false, err
	}

	log.FromCtx(ctx).Debug().Str("name", name).Msg("extracted user fact")
	return true, nil
}

// ExtractName applies the ordered pattern list and returns the first
// acceptable capture.
func ExtractName(message string) (string, bool) {
	for _, pattern := range namePatterns {
		m := pattern.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if acceptName(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func acceptName(candidate string) bool {
	if len(candidate) <= 1 {
		return false
	}
	lowered := strings.ToLower(candidate)
	for _, deny := range nameDenylist {
		if strings.Contains(lowered, deny) {
			return false
		}
	}
	return true
}

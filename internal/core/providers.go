package core

import "context"

// GenerateRequest is one completion call to the model backend. Context is
// the opaque continuation token from a previous turn, replayed verbatim.
type GenerateRequest struct {
	Model   string
	Prompt  string
	System  string
	Context ContextBlob
}

type GenerateResult struct {
	Content string
	Context ContextBlob
}

// ModelProvider is the typed transport to the model-serving API. Errors it
// returns are classified once at this boundary; callers switch on the kind
// (ollama.KindOf) and never re-inspect error shapes.
type ModelProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	// Models lists the model names the backend currently serves.
	Models(ctx context.Context) ([]string, error)
	// Health probes the backend with a short timeout.
	Health(ctx context.Context) error
}

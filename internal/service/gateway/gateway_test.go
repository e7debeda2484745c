package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/internal/providers/ollama"
)

type fakeProvider struct {
	healthErr    error
	models       []string
	modelsErr    error
	generateErrs []error
	result       core.GenerateResult

	generateCalls []core.GenerateRequest
}

func (f *fakeProvider) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeProvider) Models(ctx context.Context) ([]string, error) {
	return f.models, f.modelsErr
}

func (f *fakeProvider) Generate(ctx context.Context, req core.GenerateRequest) (core.GenerateResult, error) {
	f.generateCalls = append(f.generateCalls, req)
	if len(f.generateErrs) > 0 {
		err := f.generateErrs[0]
		f.generateErrs = f.generateErrs[1:]
		if err != nil {
			return core.GenerateResult{}, err
		}
	}
	return f.result, nil
}

type passthroughFilter struct {
	prefix string
	calls  int
}

func (p *passthroughFilter) Apply(ctx context.Context, sessionID, prompt string) string {
	p.calls++
	return p.prefix + prompt
}

func TestGenerateUnreachableShortCircuits(t *testing.T) {
	provider := &fakeProvider{healthErr: errors.New("dial tcp: connect: connection refused")}
	g := New(provider, nil)

	got := g.Generate(context.Background(), "s1", "llama3.2", "hello", nil, "sys")

	assert.Equal(t, msgUnreachable, got.Content)
	assert.Nil(t, got.Context)
	assert.Empty(t, provider.generateCalls, "unreachable backend must not be asked to generate")
}

func TestGenerateSuccess(t *testing.T) {
	provider := &fakeProvider{
		models: []string{"llama3.2"},
		result: core.GenerateResult{Content: "hi there", Context: core.ContextBlob(`[7]`)},
	}
	g := New(provider, nil)

	got := g.Generate(context.Background(), "s1", "llama3.2", "hello", core.ContextBlob(`[1]`), "sys")

	assert.Equal(t, "hi there", got.Content)
	assert.Equal(t, core.ContextBlob(`[7]`), got.Context)

	require.Len(t, provider.generateCalls, 1)
	req := provider.generateCalls[0]
	assert.Equal(t, "llama3.2", req.Model)
	assert.Equal(t, "hello", req.Prompt)
	assert.Equal(t, "sys", req.System)
	assert.Equal(t, core.ContextBlob(`[1]`), req.Context)
}

func TestGenerateCachesByRawPrompt(t *testing.T) {
	provider := &fakeProvider{
		models: []string{"llama3.2"},
		result: core.GenerateResult{Content: "answer"},
	}
	filter := &passthroughFilter{prefix: "REF: "}
	g := New(provider, filter)

	first := g.Generate(context.Background(), "s1", "llama3.2", "hello", nil, "sys")
	second := g.Generate(context.Background(), "s1", "llama3.2", "hello", nil, "sys")

	assert.Equal(t, first.Content, second.Content)
	assert.Len(t, provider.generateCalls, 1, "second call must come from cache")
	assert.Equal(t, 1, filter.calls, "filter runs only on the generating call")

	// The injected prompt reaches the provider but not the cache key.
	assert.Equal(t, "REF: hello", provider.generateCalls[0].Prompt)
}

func TestGenerateModelNotInListing(t *testing.T) {
	provider := &fakeProvider{models: []string{"mistral"}}
	g := New(provider, nil)

	got := g.Generate(context.Background(), "s1", "llama3.2", "hello", nil, "")

	assert.Equal(t, msgModelNotFound("llama3.2"), got.Content)
	assert.Empty(t, provider.generateCalls)
}

func TestGenerateSimplifiedNameRetry(t *testing.T) {
	provider := &fakeProvider{
		models:       []string{"llama3.2"},
		generateErrs: []error{&ollama.Error{Kind: ollama.KindModelNotFound, Msg: "model not found"}},
		result:       core.GenerateResult{Content: "fallback worked"},
	}
	g := New(provider, nil)

	got := g.Generate(context.Background(), "s1", "library/llama3.2", "hello", nil, "")

	assert.Equal(t, "fallback worked", got.Content)
	require.Len(t, provider.generateCalls, 2)
	assert.Equal(t, "library/llama3.2", provider.generateCalls[0].Model)
	assert.Equal(t, "llama3.2", provider.generateCalls[1].Model)
}

func TestGenerateNoRetryWithoutSeparator(t *testing.T) {
	provider := &fakeProvider{
		models:       []string{"llama3.2"},
		generateErrs: []error{&ollama.Error{Kind: ollama.KindUnknown, Msg: "boom"}},
	}
	g := New(provider, nil)

	got := g.Generate(context.Background(), "s1", "llama3.2", "hello", nil, "")

	assert.Equal(t, msgUnknown, got.Content)
	assert.Len(t, provider.generateCalls, 1)
}

func TestGenerateFailureIsNotCached(t *testing.T) {
	provider := &fakeProvider{
		models:       []string{"llama3.2"},
		generateErrs: []error{&ollama.Error{Kind: ollama.KindTimeout, Msg: "deadline"}},
		result:       core.GenerateResult{Content: "real answer"},
	}
	g := New(provider, nil)

	first := g.Generate(context.Background(), "s1", "llama3.2", "hello", nil, "")
	assert.Equal(t, msgTimeout, first.Content)

	second := g.Generate(context.Background(), "s1", "llama3.2", "hello", nil, "")
	assert.Equal(t, "real answer", second.Content)
}

func TestCannedMessages(t *testing.T) {
	g := New(&fakeProvider{}, nil)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unreachable", &ollama.Error{Kind: ollama.KindUnreachable, Msg: "refused"}, msgUnreachable},
		{"timeout", &ollama.Error{Kind: ollama.KindTimeout, Msg: "deadline"}, msgTimeout},
		{"model_not_found", &ollama.Error{Kind: ollama.KindModelNotFound, Msg: "missing"}, msgModelNotFound("m")},
		{"context_too_long", &ollama.Error{Kind: ollama.KindContextTooLong, Msg: "long"}, msgContextTooLong},
		{"unknown", errors.New("plain"), msgUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.canned(tt.err, "m"))
		})
	}
}

func TestCannedMessagesCarryErrorSignatures(t *testing.T) {
	// Each canned message must be recognizable to the contamination filter,
	// so stored failure turns never feed back into later prompts.
	for _, msg := range []string{msgUnreachable, msgTimeout, msgContextTooLong, msgUnknown, msgModelNotFound("m")} {
		lowered := strings.ToLower(msg)
		found := false
		for _, sig := range []string{"connection refused", "model not found", "having trouble connecting", "timeout", "failed to", "error"} {
			if strings.Contains(lowered, sig) {
				found = true
				break
			}
		}
		assert.True(t, found, "no error signature in: %q", msg)
	}
}

func TestModelAvailable(t *testing.T) {
	models := []string{"llama3.2", "mistral"}

	assert.True(t, modelAvailable(models, "llama3.2"))
	assert.True(t, modelAvailable(models, "library/llama3.2"))
	assert.False(t, modelAvailable(models, "gemma"))
	assert.False(t, modelAvailable(models, "library/gemma"))
}

func TestSimplifyModelName(t *testing.T) {
	assert.Equal(t, "llama3.2", simplifyModelName("library/llama3.2"))
	assert.Equal(t, "llama3.2", simplifyModelName("hub/library/llama3.2"))
	assert.Equal(t, "llama3.2", simplifyModelName("llama3.2"))
}

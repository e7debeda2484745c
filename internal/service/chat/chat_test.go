package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/memochat/internal/config"
	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/internal/providers/ollama"
	"github.com/sandevgo/memochat/internal/service/gateway"
	"github.com/sandevgo/memochat/internal/service/memory"
	"github.com/sandevgo/memochat/internal/service/session"
)

type stubSessions struct {
	sessions map[string]core.Session
	touched  []string
	swept    int
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: make(map[string]core.Session)}
}

func (s *stubSessions) CreateOrFetch(ctx context.Context, id, title string) (core.Session, error) {
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	sess := core.Session{ID: id, Title: title, CreatedAt: time.Now(), LastActivity: time.Now()}
	s.sessions[id] = sess
	return sess, nil
}

func (s *stubSessions) Get(ctx context.Context, id string) (core.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return core.Session{}, core.ErrNotFound
	}
	return sess, nil
}

func (s *stubSessions) Rename(ctx context.Context, id, title string) error { return nil }
func (s *stubSessions) List(ctx context.Context) ([]core.Session, error)   { return nil, nil }
func (s *stubSessions) Delete(ctx context.Context, id string) error        { return nil }

func (s *stubSessions) Touch(ctx context.Context, id string, at time.Time) error {
	s.touched = append(s.touched, id)
	return nil
}

func (s *stubSessions) SweepExpired(ctx context.Context, cutoff time.Time) (int, error) {
	s.swept++
	return 0, nil
}

type stubMessages struct {
	added []core.Message
}

func (s *stubMessages) Add(ctx context.Context, msg core.Message) (int64, error) {
	s.added = append(s.added, msg)
	return int64(len(s.added)), nil
}

func (s *stubMessages) History(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	var out []core.Message
	for _, msg := range s.added {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *stubMessages) DeleteMatchingAssistant(ctx context.Context, signatures []string) (int64, error) {
	return 0, nil
}

type stubContexts struct {
	blobs map[string]core.ContextBlob
	gets  int
	saves int
}

func newStubContexts() *stubContexts {
	return &stubContexts{blobs: make(map[string]core.ContextBlob)}
}

func (s *stubContexts) Save(ctx context.Context, sessionID string, blob core.ContextBlob) error {
	s.saves++
	s.blobs[sessionID] = blob
	return nil
}

func (s *stubContexts) Get(ctx context.Context, sessionID string) (core.ContextBlob, error) {
	s.gets++
	return s.blobs[sessionID], nil
}

type stubFacts struct {
	facts map[string]core.UserFact
}

func newStubFacts() *stubFacts {
	return &stubFacts{facts: make(map[string]core.UserFact)}
}

func (s *stubFacts) Upsert(ctx context.Context, fact core.UserFact) error {
	s.facts[fact.SessionID+"/"+fact.Key] = fact
	return nil
}

func (s *stubFacts) List(ctx context.Context, sessionID string) ([]core.UserFact, error) {
	var out []core.UserFact
	for _, f := range s.facts {
		if f.SessionID == sessionID {
			out = append(out, f)
		}
	}
	return out, nil
}

type stubProvider struct {
	result      core.GenerateResult
	generateErr error
	requests    []core.GenerateRequest
}

func (s *stubProvider) Health(ctx context.Context) error { return nil }

func (s *stubProvider) Models(ctx context.Context) ([]string, error) {
	return []string{"llama3.2"}, nil
}

func (s *stubProvider) Generate(ctx context.Context, req core.GenerateRequest) (core.GenerateResult, error) {
	s.requests = append(s.requests, req)
	if s.generateErr != nil {
		return core.GenerateResult{}, s.generateErr
	}
	return s.result, nil
}

type testPipeline struct {
	svc      *Service
	sessions *stubSessions
	messages *stubMessages
	contexts *stubContexts
	facts    *stubFacts
	provider *stubProvider
}

func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()

	p := &testPipeline{
		sessions: newStubSessions(),
		messages: &stubMessages{},
		contexts: newStubContexts(),
		facts:    newStubFacts(),
		provider: &stubProvider{result: core.GenerateResult{Content: "reply", Context: core.ContextBlob(`[1]`)}},
	}

	mgr := session.NewManager(&config.AppConfig{SessionTTLHours: 24}, p.sessions, nil)
	p.svc = NewService(
		mgr,
		p.messages,
		p.contexts,
		memory.NewComposer(p.messages, p.facts, 20),
		memory.NewExtractor(p.facts),
		gateway.New(p.provider, nil),
	)
	return p
}

func TestHandlePersistsBothTurns(t *testing.T) {
	p := newTestPipeline(t)

	reply, err := p.svc.Handle(context.Background(), "s1", "llama3.2", "hello there", true)
	require.NoError(t, err)
	assert.Equal(t, "reply", reply)

	require.Len(t, p.messages.added, 2)
	assert.Equal(t, core.RoleUser, p.messages.added[0].Role)
	assert.Equal(t, "hello there", p.messages.added[0].Content)
	assert.Equal(t, core.RoleAssistant, p.messages.added[1].Role)
	assert.Equal(t, "reply", p.messages.added[1].Content)

	assert.Equal(t, []string{"s1"}, p.sessions.touched)
	assert.Equal(t, 1, p.sessions.swept, "TTL sweep runs inline after each turn")
}

func TestHandleDerivesSessionTitle(t *testing.T) {
	p := newTestPipeline(t)

	long := strings.Repeat("б", 60) // multi-byte on purpose
	_, err := p.svc.Handle(context.Background(), "s1", "llama3.2", long, true)
	require.NoError(t, err)

	s := p.sessions.sessions["s1"]
	assert.Equal(t, 50, len([]rune(s.Title)))
	assert.Equal(t, strings.Repeat("б", 50), s.Title)
}

func TestHandleMemoryEnabledRoundTripsContext(t *testing.T) {
	p := newTestPipeline(t)
	p.contexts.blobs["s1"] = core.ContextBlob(`[42]`)

	_, err := p.svc.Handle(context.Background(), "s1", "llama3.2", "hello", true)
	require.NoError(t, err)

	require.Len(t, p.provider.requests, 1)
	assert.Equal(t, core.ContextBlob(`[42]`), p.provider.requests[0].Context)
	assert.Equal(t, core.ContextBlob(`[1]`), p.contexts.blobs["s1"], "new blob replaces the prior one")
}

func TestHandleMemoryDisabledNeverTouchesContexts(t *testing.T) {
	p := newTestPipeline(t)
	p.contexts.blobs["s1"] = core.ContextBlob(`[42]`)

	_, err := p.svc.Handle(context.Background(), "s1", "llama3.2", "hello", false)
	require.NoError(t, err)

	assert.Zero(t, p.contexts.gets)
	assert.Zero(t, p.contexts.saves)
	assert.Equal(t, core.ContextBlob(`[42]`), p.contexts.blobs["s1"], "stored blob stays untouched")

	require.Len(t, p.provider.requests, 1)
	assert.Nil(t, p.provider.requests[0].Context)
	assert.Equal(t, memory.Persona("llama3.2"), p.provider.requests[0].System)
}

func TestHandleExtractsNameFact(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.svc.Handle(context.Background(), "s1", "llama3.2", "Hi, my name is Alex", true)
	require.NoError(t, err)

	fact, ok := p.facts.facts["s1/name"]
	require.True(t, ok)
	assert.Equal(t, "Alex", fact.Value)
}

func TestHandleGenerationFailureStillReplies(t *testing.T) {
	p := newTestPipeline(t)
	p.provider.generateErr = &ollama.Error{Kind: ollama.KindTimeout, Msg: "deadline exceeded"}

	reply, err := p.svc.Handle(context.Background(), "s1", "llama3.2", "hello", true)
	require.NoError(t, err, "model failures surface as assistant text, not errors")
	assert.Contains(t, strings.ToLower(reply), "timeout")

	// The canned reply is persisted like any other assistant turn.
	require.Len(t, p.messages.added, 2)
	assert.Equal(t, reply, p.messages.added[1].Content)
	// No successful generation, so the rolling context stays empty.
	assert.Zero(t, p.contexts.saves)
}

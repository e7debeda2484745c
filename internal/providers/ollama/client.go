package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandevgo/memochat/internal/config"
	"github.com/sandevgo/memochat/internal/core"
)

// Client is the typed transport to an Ollama-compatible API. It implements
// core.ModelProvider; every failure it returns is an *Error with a Kind.
type Client struct {
	client       *http.Client
	baseURL      string
	probeTimeout time.Duration
	genTimeout   time.Duration
}

func NewClient(cfg *config.OllamaConfig) *Client {
	return &Client{
		client:       &http.Client{},
		baseURL:      cfg.BaseURL,
		probeTimeout: time.Duration(cfg.ProbeTimeoutSec) * time.Second,
		genTimeout:   time.Duration(cfg.GenerateTimeoutSec) * time.Second,
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Context json.RawMessage `json:"context,omitempty"`
	Stream  bool            `json:"stream"`
}

type generateResponse struct {
	Response string          `json:"response"`
	Context  json.RawMessage `json:"context"`
}

func (c *Client) Generate(ctx context.Context, req core.GenerateRequest) (core.GenerateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.genTimeout)
	defer cancel()

	payload := generateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		System:  req.System,
		Context: json.RawMessage(req.Context),
		Stream:  false,
	}

	resp, err := c.post(ctx, "/api/generate", payload)
	if err != nil {
		return core.GenerateResult{}, classify("generate request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return core.GenerateResult{}, &Error{
			Kind: classifyBody(resp.StatusCode, string(body)),
			Msg:  fmt.Sprintf("generate returned status %d: %s", resp.StatusCode, body),
		}
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return core.GenerateResult{}, &Error{Kind: KindUnknown, Msg: "failed to decode generate response", Err: err}
	}

	return core.GenerateResult{
		Content: result.Response,
		Context: core.ContextBlob(result.Context),
	}, nil
}

func (c *Client) Models(ctx context.Context) ([]string, error) {
	type tag struct {
		Name string `json:"name"`
	}
	type tagsResponse struct {
		Models []tag `json:"models"`
	}

	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classify("model listing failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Kind: KindUnknown, Msg: fmt.Sprintf("model listing returned status %d", resp.StatusCode)}
	}

	var result tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &Error{Kind: KindUnknown, Msg: "failed to decode model listing", Err: err}
	}

	models := make([]string, 0, len(result.Models))
	for _, m := range result.Models {
		models = append(models, m.Name)
	}
	return models, nil
}

func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classify("health probe failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindUnknown, Msg: fmt.Sprintf("health probe returned status %d", resp.StatusCode)}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.client.Do(req)
}

package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/memochat/pkg/log"
)

type OllamaConfig struct {
	BaseURL      string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	DefaultModel string `env:"OLLAMA_DEFAULT_MODEL" envDefault:"llama3.2"`

	// Seconds. Short timeout covers health and model-listing calls, the long
	// one covers generation.
	ProbeTimeoutSec    int `env:"OLLAMA_PROBE_TIMEOUT" envDefault:"5"`
	GenerateTimeoutSec int `env:"OLLAMA_GENERATE_TIMEOUT" envDefault:"30"`
}

func NewOllamaConfig(ctx context.Context) *OllamaConfig {
	c := &OllamaConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Ollama config")
	}
	return c
}

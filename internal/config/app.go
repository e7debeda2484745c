package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/memochat/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"MEMOCHAT_RUNTIME_PATH" envDefault:".memochat"`

	// Context Management
	HistoryWindowSize int `env:"HISTORY_WINDOW_SIZE" envDefault:"20"`

	// Sessions older than this many hours of inactivity are swept.
	SessionTTLHours int `env:"SESSION_TTL_HOURS" envDefault:"24"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "memochat.db")
}

package config

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/memochat/pkg/log"
)

type ServerConfig struct {
	Host string `env:"MEMOCHAT_HOST" envDefault:"127.0.0.1"`
	Port int    `env:"MEMOCHAT_PORT" envDefault:"8080"`
}

func NewServerConfig(ctx context.Context) *ServerConfig {
	c := &ServerConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Server config")
	}
	return c
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

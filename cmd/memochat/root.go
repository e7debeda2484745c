package main

import (
	"context"
	"os"

	"github.com/sandevgo/memochat/internal/config"
	"github.com/sandevgo/memochat/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "memochat",
	Short: "A local chat front-end with server-side memory",
	Long:  `memochat is a local web chat over an Ollama-compatible backend that persists conversation history, user facts and reference material.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/memochat/internal/config"
	"github.com/sandevgo/memochat/internal/providers/ollama"
	"github.com/sandevgo/memochat/internal/service/chat"
	"github.com/sandevgo/memochat/internal/service/gateway"
	"github.com/sandevgo/memochat/internal/service/memory"
	"github.com/sandevgo/memochat/internal/service/session"
	"github.com/sandevgo/memochat/internal/storage"
	memstore "github.com/sandevgo/memochat/internal/storage/memory"
	"github.com/sandevgo/memochat/internal/storage/sqlite"
	"github.com/sandevgo/memochat/internal/transport/httpapi"
	"github.com/sandevgo/memochat/pkg/log"
	"github.com/sandevgo/memochat/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	serverCfg := config.NewServerConfig(ctx)
	ollamaCfg := config.NewOllamaConfig(ctx)

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	sessionsRepo := sqlite.NewSessionsRepo(db)
	messagesRepo := sqlite.NewMessagesRepo(db)
	contextsRepo := sqlite.NewContextsRepo(db)
	factsRepo := sqlite.NewFactsRepo(db)
	refsRepo := sqlite.NewReferencesRepo(db)
	porter := sqlite.NewPorter(db)

	// Process-scoped fallback store: keeps chat answering when sqlite fails.
	fallback := memstore.NewStore()
	sessions := storage.NewSessionFailover(sessionsRepo, fallback)
	messages := storage.NewMessageFailover(messagesRepo, fallback)

	// One-time destructive cleanup of stored error-recovery messages.
	memory.StartupSweep(ctx, messagesRepo)

	// 3. Model provider and gateway
	provider := ollama.NewClient(ollamaCfg)
	relevance := memory.NewRelevanceFilter(refsRepo)
	gw := gateway.New(provider, relevance)

	// 4. Services
	lifecycle := session.NewManager(appCfg, sessions, porter)
	composer := memory.NewComposer(messages, factsRepo, appCfg.HistoryWindowSize)
	extractor := memory.NewExtractor(factsRepo)
	chatSvc := chat.NewService(lifecycle, messages, contextsRepo, composer, extractor, gw)

	// 5. HTTP transport
	server := httpapi.NewServer(serverCfg, chatSvc, lifecycle, messages, refsRepo, provider, ollamaCfg.DefaultModel)
	services = append(services, server)

	return services
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}

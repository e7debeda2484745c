// Package httpapi exposes the chat service over a small JSON HTTP surface
// plus the embedded single-page UI.
package httpapi

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sandevgo/memochat/internal/config"
	"github.com/sandevgo/memochat/internal/core"
	"github.com/sandevgo/memochat/internal/service/chat"
	"github.com/sandevgo/memochat/internal/service/session"
	"github.com/sandevgo/memochat/pkg/log"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server implements srv.Service.
type Server struct {
	addr    string
	httpSrv *http.Server
}

func NewServer(
	cfg *config.ServerConfig,
	chatSvc *chat.Service,
	sessions *session.Manager,
	messages core.MessagesRepository,
	refs core.ReferencesRepository,
	provider core.ModelProvider,
	defaultModel string,
) *Server {
	mux := http.NewServeMux()

	registerIndex(mux)
	NewChatHandler(chatSvc, messages).RegisterRoutes(mux)
	NewSessionHandler(sessions).RegisterRoutes(mux)
	NewReferenceHandler(refs).RegisterRoutes(mux)
	NewModelsHandler(provider, defaultModel).RegisterRoutes(mux)

	return &Server{
		addr: cfg.Addr(),
		httpSrv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           chain(mux, loggingMiddleware, recoveryMiddleware),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) Start(ctx context.Context) error {
	// Request contexts derive from ctx so handlers see the process logger.
	s.httpSrv.BaseContext = func(net.Listener) context.Context { return ctx }

	log.FromCtx(ctx).Info().Str("addr", s.addr).Msg("starting HTTP server")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	// ctx is the signal context, already canceled by the time shutdown runs.
	// Drop its cancellation but keep its values so the drain gets the full
	// timeout and Shutdown still logs through the process logger.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/voyagen/upnext/internal/auth"
	"github.com/voyagen/upnext/internal/config"
	"github.com/voyagen/upnext/internal/logging"
	"github.com/voyagen/upnext/internal/models"
	"github.com/voyagen/upnext/internal/service"
)

// Queue is the queue service as used by the HTTP handlers.
type Queue interface {
	Submit(ctx context.Context, ownerID, submitterID, rawURL string) (*models.QueueItem, error)
	List(ctx context.Context, ownerID, viewerID string) (*service.QueueView, error)
	Vote(ctx context.Context, entryID, voterID string, dir models.VoteDirection) (*service.VoteResult, error)
	PlayNext(ctx context.Context, ownerID, actorID string) (*models.QueueEntry, error)
	Remove(ctx context.Context, ownerID, actorID, entryID string) error
	Empty(ctx context.Context, ownerID, actorID string) (int64, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds dependencies for the HTTP API.
type Server struct {
	queue    Queue
	health   []Pinger
	cfg      *config.Config
	verifier *auth.Verifier
	log      logging.Logger
	mux      *http.ServeMux
	handler  http.Handler
}

// New creates a Server and registers routes. Every Pinger in health is checked by
// GET /api/health.
func New(q Queue, cfg *config.Config, log logging.Logger, health ...Pinger) *Server {
	srv := &Server{
		queue:    q,
		health:   health,
		cfg:      cfg,
		verifier: auth.NewVerifier(cfg.JWTSecret),
		log:      log,
		mux:      http.NewServeMux(),
	}
	srv.routes()
	srv.handler = withCORS(srv.verifier.OptionalMiddleware(srv.withLogging(srv.mux)))
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Room queue
	s.mux.HandleFunc("GET /api/rooms/{owner}/queue", s.handleListQueue)
	s.mux.HandleFunc("POST /api/rooms/{owner}/queue", s.handleSubmit)
	s.mux.HandleFunc("DELETE /api/rooms/{owner}/queue", s.handleEmptyQueue)
	s.mux.HandleFunc("DELETE /api/rooms/{owner}/queue/{id}", s.handleRemoveEntry)
	s.mux.HandleFunc("POST /api/rooms/{owner}/next", s.handlePlayNext)

	// Votes
	s.mux.HandleFunc("POST /api/entries/{id}/upvote", s.handleVote(models.Upvote))
	s.mux.HandleFunc("POST /api/entries/{id}/downvote", s.handleVote(models.Downvote))

	// Docs
	s.mux.HandleFunc("GET /api/docs", handleSwaggerUI)
	s.mux.HandleFunc("GET /api/docs/openapi.yaml", handleOpenAPISpec)
}

// ServeHTTP implements http.Handler with the full middleware chain.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error(context.Background(), "server shutdown", "error", err)
		}
	}()

	s.log.Info(ctx, "listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

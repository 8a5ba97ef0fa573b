// Package server wires handlers, middleware and storage into the HTTP API.
//
// This is the composition root: the database is opened here, the service
// layer is built on top of it, and handlers receive only the services they
// use. main stays minimal.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/varangian-core/mind-place/internal/auth"
	"github.com/varangian-core/mind-place/internal/config"
	"github.com/varangian-core/mind-place/internal/handler"
	"github.com/varangian-core/mind-place/internal/middleware"
	"github.com/varangian-core/mind-place/internal/repository"
	postgresRepo "github.com/varangian-core/mind-place/internal/repository/postgres"
	sqliteRepo "github.com/varangian-core/mind-place/internal/repository/sqlite"
	"github.com/varangian-core/mind-place/internal/service"
)

// Server owns the router and the storage backend. closer is nil when the
// server runs without a database.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

// storage is what setupRoutes needs from whichever database backend was
// opened, or all-nil in local-storage mode.
type storage struct {
	snippets repository.SnippetRepository
	topics   repository.TopicRepository
	pinger   handler.Pinger
	closer   io.Closer
}

// New creates a Server for the given configuration.
//
// A database that fails to open is downgraded, not fatal: the server logs
// the failure and starts in local-storage mode, answering every request
// with usingLocalStorage=true so clients fall back to their local mirror.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	st := openStorage(ctx, cfg, logger)

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		closer: st.closer,
	}

	if err := s.setupRoutes(st); err != nil {
		if st.closer != nil {
			st.closer.Close()
		}
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) storage {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqliteRepo.New(cfg.Database.Path)
		if err != nil {
			logger.Error("opening sqlite database failed, continuing in local-storage mode",
				slog.String("path", cfg.Database.Path),
				slog.String("error", err.Error()),
			)
			return storage{}
		}
		return storage{snippets: db, topics: db, pinger: db, closer: db}

	case "postgres":
		db, err := postgresRepo.New(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Error("opening postgres database failed, continuing in local-storage mode",
				slog.String("error", err.Error()),
			)
			return storage{}
		}
		return storage{snippets: db, topics: db, pinger: db, closer: db}

	default: // "none"
		logger.Info("no database configured, running in local-storage mode")
		return storage{}
	}
}

func (s *Server) setupRoutes(st storage) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// Nil services put the handlers in local-storage mode.
	var snippetSvc *service.SnippetService
	var topicSvc *service.TopicService
	if st.snippets != nil {
		snippetSvc = service.NewSnippetService(st.snippets, st.topics, s.logger)
		topicSvc = service.NewTopicService(st.topics, s.logger)
	}

	snippetHandler := handler.NewSnippetHandler(snippetSvc, s.logger)
	topicHandler := handler.NewTopicHandler(topicSvc, s.logger)
	healthHandler := handler.NewHealthHandler(st.pinger, s.logger)

	var requireAuth func(http.Handler) http.Handler
	if s.cfg.Auth.Enabled() {
		tokens, err := auth.NewTokenService(s.cfg.Auth.Secret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		authHandler := handler.NewAuthHandler(tokens, auth.NewPasswordService(), s.cfg.Auth.PasswordHash, s.logger)
		s.router.Post("/api/auth/login", authHandler.HandleLogin)
		requireAuth = auth.RequireAuth(tokens)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HandleHealth)
		r.Get("/snippets", snippetHandler.HandleList)
		r.Get("/snippets/{id}", snippetHandler.HandleGet)
		r.Get("/topics", topicHandler.HandleList)

		r.Group(func(r chi.Router) {
			if requireAuth != nil {
				r.Use(requireAuth)
			}
			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Post("/topics", topicHandler.HandleCreate)
			r.Delete("/topics/{id}", topicHandler.HandleDelete)
		})
	})

	return nil
}

// Start runs the HTTP server until a shutdown signal arrives, then drains
// in-flight requests and closes the database.
func (s *Server) Start() error {
	defer func() {
		if s.closer != nil {
			s.closer.Close()
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Server.Port),
			slog.String("database", s.cfg.Database.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
